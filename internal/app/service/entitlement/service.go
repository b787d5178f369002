// Package entitlement is the row-store behind reconciliation: profiles,
// membership orders, plans, subscriptions, invoices and ad campaigns.
// Accessors are single-row and atomic; the state transitions that must
// survive duplicate webhook delivery are phrased as conditional updates or
// unique-key inserts instead of read-then-write pairs.
package entitlement

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/citypages/billing/internal/models"
	"github.com/citypages/billing/pkg/tool"
	"github.com/citypages/billing/pkg/types"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate record")
)

type Service struct {
	db  *gorm.DB
	log *zap.SugaredLogger
}

func NewService(db *gorm.DB, log *zap.SugaredLogger) *Service {
	return &Service{db: db, log: log}
}

// --- profiles ---

func (s *Service) GetProfile(ctx context.Context, id string) (*models.Profile, error) {
	var p models.Profile
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("profile %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}
	return &p, nil
}

// UpdateProfileMembership sets the membership columns in one statement.
// startedAt is only written when the profile had no membership before.
func (s *Service) UpdateProfileMembership(ctx context.Context, id, planID string, startedAt, expiresAt time.Time) error {
	res := s.db.WithContext(ctx).Model(&models.Profile{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"membership_plan_id":    planID,
			"membership_started_at": gorm.Expr("COALESCE(membership_started_at, ?)", startedAt),
			"membership_expires_at": expiresAt,
		})
	if res.Error != nil {
		return fmt.Errorf("failed to update profile membership: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("profile %s: %w", id, ErrNotFound)
	}
	return nil
}

// --- membership orders ---

func (s *Service) CreateOrder(ctx context.Context, order *models.MembershipOrder) error {
	if order.ID == "" {
		order.ID = tool.GenerateUUIDV7()
	}
	if err := s.db.WithContext(ctx).Create(order).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("order %s: %w", order.ID, ErrDuplicate)
		}
		return fmt.Errorf("failed to create order: %w", err)
	}
	return nil
}

func (s *Service) GetOrder(ctx context.Context, id string) (*models.MembershipOrder, error) {
	var o models.MembershipOrder
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&o).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("order %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load order: %w", err)
	}
	return &o, nil
}

// SetOrderSession records the checkout session an order was opened with.
func (s *Service) SetOrderSession(ctx context.Context, orderID, sessionID string) error {
	res := s.db.WithContext(ctx).Model(&models.MembershipOrder{}).
		Where("id = ?", orderID).
		Update("provider_session_id", sessionID)
	if res.Error != nil {
		return fmt.Errorf("failed to set order session: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("order %s: %w", orderID, ErrNotFound)
	}
	return nil
}

// MarkOrderPaid flips a pending order to paid in a single conditional update
// and reports whether this call actually won the transition. A false return
// with no error means another delivery got there first.
func (s *Service) MarkOrderPaid(ctx context.Context, orderID, paymentIntentID string, paidAt time.Time) (bool, error) {
	res := s.db.WithContext(ctx).Model(&models.MembershipOrder{}).
		Where("id = ? AND status = ?", orderID, types.OrderStatusPending).
		Updates(map[string]any{
			"status":                     types.OrderStatusPaid,
			"provider_payment_intent_id": paymentIntentID,
			"paid_at":                    paidAt,
		})
	if res.Error != nil {
		return false, fmt.Errorf("failed to mark order paid: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

// MarkOrderFailed transitions a pending order to failed (checkout expired).
func (s *Service) MarkOrderFailed(ctx context.Context, orderID string) (bool, error) {
	res := s.db.WithContext(ctx).Model(&models.MembershipOrder{}).
		Where("id = ? AND status = ?", orderID, types.OrderStatusPending).
		Update("status", types.OrderStatusFailed)
	if res.Error != nil {
		return false, fmt.Errorf("failed to mark order failed: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

// --- plans ---

func (s *Service) GetPlan(ctx context.Context, id string) (*models.SubscriptionPlan, error) {
	var p models.SubscriptionPlan
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("plan %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load plan: %w", err)
	}
	return &p, nil
}

// --- subscriptions ---

// GetSubscriptionByProviderID returns nil without error when no row exists;
// absence is a normal outcome for idempotency probes.
func (s *Service) GetSubscriptionByProviderID(ctx context.Context, providerSubID string) (*models.Subscription, error) {
	var sub models.Subscription
	err := s.db.WithContext(ctx).Where("provider_subscription_id = ?", providerSubID).First(&sub).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load subscription: %w", err)
	}
	return &sub, nil
}

// CreateSubscription inserts a subscription row. The unique index on the
// provider subscription id turns a concurrent duplicate into ErrDuplicate.
func (s *Service) CreateSubscription(ctx context.Context, sub *models.Subscription) error {
	if sub.ID == "" {
		sub.ID = tool.GenerateUUIDV7()
	}
	if err := s.db.WithContext(ctx).Create(sub).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("subscription %s: %w", sub.ProviderSubscriptionID, ErrDuplicate)
		}
		return fmt.Errorf("failed to create subscription: %w", err)
	}
	return nil
}

// SubscriptionUpdate is the narrow field set lifecycle events may change.
type SubscriptionUpdate struct {
	Status             *types.SubscriptionStatus
	CancelAtPeriodEnd  *bool
	CurrentPeriodStart *time.Time
	CurrentPeriodEnd   *time.Time
	CanceledAt         *time.Time
	EndedAt            *time.Time
}

// UpdateSubscriptionByProviderID applies a partial update and reports whether
// a row matched.
func (s *Service) UpdateSubscriptionByProviderID(ctx context.Context, providerSubID string, upd SubscriptionUpdate) (bool, error) {
	fields := map[string]any{}
	if upd.Status != nil {
		fields["status"] = *upd.Status
	}
	if upd.CancelAtPeriodEnd != nil {
		fields["cancel_at_period_end"] = *upd.CancelAtPeriodEnd
	}
	if upd.CurrentPeriodStart != nil {
		fields["current_period_start"] = *upd.CurrentPeriodStart
	}
	if upd.CurrentPeriodEnd != nil {
		fields["current_period_end"] = *upd.CurrentPeriodEnd
	}
	if upd.CanceledAt != nil {
		fields["canceled_at"] = *upd.CanceledAt
	}
	if upd.EndedAt != nil {
		fields["ended_at"] = *upd.EndedAt
	}
	if len(fields) == 0 {
		return false, nil
	}
	res := s.db.WithContext(ctx).Model(&models.Subscription{}).
		Where("provider_subscription_id = ?", providerSubID).
		Updates(fields)
	if res.Error != nil {
		return false, fmt.Errorf("failed to update subscription: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

// CreateInvoice records a settled billing period; duplicate provider invoice
// ids collapse into ErrDuplicate.
func (s *Service) CreateInvoice(ctx context.Context, inv *models.SubscriptionInvoice) error {
	if inv.ID == "" {
		inv.ID = tool.GenerateUUIDV7()
	}
	if err := s.db.WithContext(ctx).Create(inv).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("invoice %s: %w", inv.ProviderInvoiceID, ErrDuplicate)
		}
		return fmt.Errorf("failed to create invoice: %w", err)
	}
	return nil
}

// --- ad campaigns ---

// GetActiveCampaign returns the business's single live campaign: the most
// recently created row stored as active/pending whose end_at is still ahead
// of now. Lapsed rows read as expired and are not returned.
func (s *Service) GetActiveCampaign(ctx context.Context, businessID string, now time.Time) (*models.AdCampaign, error) {
	var c models.AdCampaign
	err := s.db.WithContext(ctx).
		Where("business_id = ? AND status IN ? AND end_at > ?",
			businessID,
			[]types.CampaignStatus{types.CampaignStatusActive, types.CampaignStatusPendingPayment},
			now).
		Order("created_at desc").
		First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load active campaign: %w", err)
	}
	return &c, nil
}

// errSessionApplied aborts a campaign transaction whose session id already
// sits in the purchase ledger.
var errSessionApplied = errors.New("session already applied")

// CreateCampaign starts a new run and records its first purchase in the
// ledger, in one transaction. A session id that was ever applied before, on
// this campaign or any earlier one, collapses into ErrDuplicate.
func (s *Service) CreateCampaign(ctx context.Context, c *models.AdCampaign) error {
	if c.ID == "" {
		c.ID = tool.GenerateUUIDV7()
	}
	sessionID := ""
	if c.ProviderSessionID != nil {
		sessionID = *c.ProviderSessionID
	}
	paymentIntentID := ""
	if c.ProviderPaymentIntentID != nil {
		paymentIntentID = *c.ProviderPaymentIntentID
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		p := &models.CampaignPurchase{
			ID:                      tool.GenerateUUIDV7(),
			CampaignID:              c.ID,
			BusinessID:              c.BusinessID,
			Days:                    c.DaysPurchased,
			AmountCents:             c.TotalAmountCents,
			DiscountPercent:         c.DiscountPercent,
			HadMembership:           c.HadMembership,
			ProviderSessionID:       sessionID,
			ProviderPaymentIntentID: paymentIntentID,
		}
		if err := tx.Create(p).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return errSessionApplied
			}
			return fmt.Errorf("failed to record campaign purchase: %w", err)
		}
		if err := tx.Create(c).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return errSessionApplied
			}
			return fmt.Errorf("failed to create campaign: %w", err)
		}
		return nil
	})
	if errors.Is(err, errSessionApplied) {
		return fmt.Errorf("campaign session %s: %w", sessionID, ErrDuplicate)
	}
	return err
}

// CampaignExtension is one purchase applied to an existing run.
type CampaignExtension struct {
	BusinessID      string
	NewEndAt        time.Time
	AddDays         int
	AddAmountCents  int64
	DiscountPercent float64
	HadMembership   bool
	SessionID       string
	PaymentIntentID string
}

// ExtendCampaign applies one purchase to an existing run. The purchase is
// inserted into the ledger first, keyed by its session id; the campaign row
// accumulates days and totals only when that insert succeeds. The ledger row
// is permanent, so a stale redelivery no-ops even after later purchases have
// refreshed the campaign's session id. Returns whether the extension applied.
func (s *Service) ExtendCampaign(ctx context.Context, campaignID string, ext CampaignExtension) (bool, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		p := &models.CampaignPurchase{
			ID:                      tool.GenerateUUIDV7(),
			CampaignID:              campaignID,
			BusinessID:              ext.BusinessID,
			Days:                    ext.AddDays,
			AmountCents:             ext.AddAmountCents,
			DiscountPercent:         ext.DiscountPercent,
			HadMembership:           ext.HadMembership,
			ProviderSessionID:       ext.SessionID,
			ProviderPaymentIntentID: ext.PaymentIntentID,
		}
		if err := tx.Create(p).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return errSessionApplied
			}
			return fmt.Errorf("failed to record campaign purchase: %w", err)
		}
		res := tx.Model(&models.AdCampaign{}).
			Where("id = ?", campaignID).
			Updates(map[string]any{
				"status":                     types.CampaignStatusActive,
				"end_at":                     ext.NewEndAt,
				"days_purchased":             gorm.Expr("days_purchased + ?", ext.AddDays),
				"total_amount_cents":         gorm.Expr("total_amount_cents + ?", ext.AddAmountCents),
				"discount_percent":           ext.DiscountPercent,
				"had_membership":             ext.HadMembership,
				"provider_session_id":        ext.SessionID,
				"provider_payment_intent_id": ext.PaymentIntentID,
			})
		if res.Error != nil {
			return fmt.Errorf("failed to extend campaign: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("campaign %s: %w", campaignID, ErrNotFound)
		}
		return nil
	})
	if errors.Is(err, errSessionApplied) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// ListCampaigns returns a business's campaign history, newest first.
func (s *Service) ListCampaigns(ctx context.Context, businessID string) ([]*models.AdCampaign, error) {
	var cs []*models.AdCampaign
	if err := s.db.WithContext(ctx).Where("business_id = ?", businessID).Order("created_at desc").Find(&cs).Error; err != nil {
		return nil, fmt.Errorf("failed to list campaigns: %w", err)
	}
	return cs, nil
}
