package reconcile

import (
	"context"
	"time"

	"github.com/citypages/billing/internal/app/service/entitlement"
	"github.com/citypages/billing/internal/models"
)

// Store is the slice of the entitlement store the reconciliation handlers
// touch. *entitlement.Service satisfies it; tests substitute an in-memory
// fake.
type Store interface {
	GetProfile(ctx context.Context, id string) (*models.Profile, error)
	UpdateProfileMembership(ctx context.Context, id, planID string, startedAt, expiresAt time.Time) error

	GetOrder(ctx context.Context, id string) (*models.MembershipOrder, error)
	MarkOrderPaid(ctx context.Context, orderID, paymentIntentID string, paidAt time.Time) (bool, error)
	MarkOrderFailed(ctx context.Context, orderID string) (bool, error)

	GetPlan(ctx context.Context, id string) (*models.SubscriptionPlan, error)

	GetSubscriptionByProviderID(ctx context.Context, providerSubID string) (*models.Subscription, error)
	CreateSubscription(ctx context.Context, sub *models.Subscription) error
	UpdateSubscriptionByProviderID(ctx context.Context, providerSubID string, upd entitlement.SubscriptionUpdate) (bool, error)
	CreateInvoice(ctx context.Context, inv *models.SubscriptionInvoice) error

	GetActiveCampaign(ctx context.Context, businessID string, now time.Time) (*models.AdCampaign, error)
	CreateCampaign(ctx context.Context, c *models.AdCampaign) error
	ExtendCampaign(ctx context.Context, campaignID string, ext entitlement.CampaignExtension) (bool, error)
}
