// Package checkout creates processor checkout sessions for the three
// products this system sells. All pricing is fixed here, at session creation;
// the webhook side replays the numbers from session metadata and never
// recomputes them.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/citypages/billing/internal/app/service/entitlement"
	"github.com/citypages/billing/internal/app/service/pricing"
	"github.com/citypages/billing/internal/app/service/reconcile"
	"github.com/citypages/billing/internal/models"
	"github.com/citypages/billing/internal/platform/payments"
	"github.com/citypages/billing/pkg/config"
	"github.com/citypages/billing/pkg/logctx"
	"github.com/citypages/billing/pkg/types"
)

var (
	ErrProfileNotFound = errors.New("profile not found")
	ErrPlanNotFound    = errors.New("plan not found")
	ErrInvalidDays     = errors.New("days must be at least 1")
)

// Store is the slice of entitlement state session creation needs.
type Store interface {
	GetProfile(ctx context.Context, id string) (*models.Profile, error)
	GetPlan(ctx context.Context, id string) (*models.SubscriptionPlan, error)
	CreateOrder(ctx context.Context, order *models.MembershipOrder) error
	SetOrderSession(ctx context.Context, orderID, sessionID string) error
}

type Service struct {
	cfg      *config.Config
	store    Store
	payments payments.Client
	log      *zap.SugaredLogger

	// now is swappable for tests.
	now func() time.Time
}

func NewService(cfg *config.Config, store Store, pc payments.Client, log *zap.SugaredLogger) *Service {
	return &Service{cfg: cfg, store: store, payments: pc, log: log, now: time.Now}
}

// Redirect is what every Start* call returns: where to send the buyer.
type Redirect struct {
	SessionID string `json:"session_id"`
	URL       string `json:"url"`
}

// getProfile maps the store's not-found error onto the checkout sentinel so
// handlers can tell a bad profile id from an infrastructure failure.
func (s *Service) getProfile(ctx context.Context, id string) (*models.Profile, error) {
	profile, err := s.store.GetProfile(ctx, id)
	if err != nil {
		if errors.Is(err, entitlement.ErrNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, err
	}
	if profile == nil {
		return nil, ErrProfileNotFound
	}
	return profile, nil
}

func (s *Service) getPlan(ctx context.Context, id string) (*models.SubscriptionPlan, error) {
	plan, err := s.store.GetPlan(ctx, id)
	if err != nil {
		if errors.Is(err, entitlement.ErrNotFound) {
			return nil, ErrPlanNotFound
		}
		return nil, err
	}
	if plan == nil {
		return nil, ErrPlanNotFound
	}
	return plan, nil
}

// StartMembershipRequest buys a fixed-term membership as a one-time order.
type StartMembershipRequest struct {
	ProfileID  string `json:"profile_id" binding:"required"`
	PlanID     string `json:"plan_id" binding:"required"`
	SuccessURL string `json:"success_url" binding:"required"`
	CancelURL  string `json:"cancel_url" binding:"required"`
}

// StartMembership creates a pending order, opens a one-time payment session
// for the plan price and links the session back onto the order. The order id
// rides in the session metadata; the completion webhook settles against it.
func (s *Service) StartMembership(ctx context.Context, req *StartMembershipRequest) (*Redirect, error) {
	profile, err := s.getProfile(ctx, req.ProfileID)
	if err != nil {
		return nil, err
	}
	plan, err := s.getPlan(ctx, req.PlanID)
	if err != nil {
		return nil, err
	}

	order := &models.MembershipOrder{
		ProfileID:   profile.ID,
		PlanID:      plan.ID,
		Status:      types.OrderStatusPending,
		AmountCents: plan.PriceCents,
		Currency:    plan.Currency,
	}
	if err := s.store.CreateOrder(ctx, order); err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	session, err := s.payments.CreateCheckoutSession(ctx, &payments.SessionRequest{
		Mode:        payments.ModePayment,
		ProductName: plan.Name,
		AmountCents: plan.PriceCents,
		Currency:    plan.Currency,
		SuccessURL:  req.SuccessURL,
		CancelURL:   req.CancelURL,
		Metadata: map[string]string{
			reconcile.MetaProductType: string(types.ProductTypeMembership),
			reconcile.MetaOrderID:     order.ID,
			reconcile.MetaPlanID:      plan.ID,
			reconcile.MetaProfileID:   profile.ID,
		},
	})
	if err != nil {
		return nil, err
	}
	if err := s.store.SetOrderSession(ctx, order.ID, session.ID); err != nil {
		return nil, fmt.Errorf("failed to attach session to order: %w", err)
	}

	logctx.FromCtx(ctx, s.log).Infow("membership_checkout_started",
		"order_id", order.ID, "plan_id", plan.ID, "session_id", session.ID)
	return &Redirect{SessionID: session.ID, URL: session.URL}, nil
}

// StartSubscriptionRequest buys a recurring membership billed by the
// processor.
type StartSubscriptionRequest struct {
	ProfileID  string `json:"profile_id" binding:"required"`
	PlanID     string `json:"plan_id" binding:"required"`
	SuccessURL string `json:"success_url" binding:"required"`
	CancelURL  string `json:"cancel_url" binding:"required"`
}

// StartSubscription opens a subscription-mode session against the plan's
// processor price. No local row is written here; the subscription record is
// created by the completion webhook, keyed by the processor subscription id.
func (s *Service) StartSubscription(ctx context.Context, req *StartSubscriptionRequest) (*Redirect, error) {
	profile, err := s.getProfile(ctx, req.ProfileID)
	if err != nil {
		return nil, err
	}
	plan, err := s.getPlan(ctx, req.PlanID)
	if err != nil {
		return nil, err
	}
	if plan.ProviderPriceID == "" {
		return nil, fmt.Errorf("plan %s has no processor price", plan.ID)
	}

	session, err := s.payments.CreateCheckoutSession(ctx, &payments.SessionRequest{
		Mode:       payments.ModeSubscription,
		PriceID:    plan.ProviderPriceID,
		SuccessURL: req.SuccessURL,
		CancelURL:  req.CancelURL,
		Metadata: map[string]string{
			reconcile.MetaProductType: string(types.ProductTypeSubscription),
			reconcile.MetaProfileID:   profile.ID,
			reconcile.MetaPlanID:      plan.ID,
			reconcile.MetaPriceID:     plan.ProviderPriceID,
		},
	})
	if err != nil {
		return nil, err
	}

	logctx.FromCtx(ctx, s.log).Infow("subscription_checkout_started",
		"profile_id", profile.ID, "plan_id", plan.ID, "session_id", session.ID)
	return &Redirect{SessionID: session.ID, URL: session.URL}, nil
}

// StartAdvertisingRequest buys campaign days for a business listing.
type StartAdvertisingRequest struct {
	BusinessID string `json:"business_id" binding:"required"`
	ProfileID  string `json:"profile_id" binding:"required"`
	Days       int    `json:"days" binding:"required"`
	SuccessURL string `json:"success_url" binding:"required"`
	CancelURL  string `json:"cancel_url" binding:"required"`
}

// AdvertisingQuote is the priced offer echoed back with the redirect.
type AdvertisingQuote struct {
	Days                int     `json:"days"`
	DailyRateCents      int64   `json:"daily_rate_cents"`
	SubtotalCents       int64   `json:"subtotal_cents"`
	DiscountPercent     float64 `json:"discount_percent"`
	DiscountAmountCents int64   `json:"discount_amount_cents"`
	TotalCents          int64   `json:"total_cents"`
	Currency            string  `json:"currency"`
}

// StartAdvertising prices the purchase against the configured daily rate,
// applies the member discount when the buyer's membership is active right
// now, and opens a one-time payment session. Everything the webhook needs to
// apply the purchase rides in metadata; no campaign row exists until the
// payment settles.
func (s *Service) StartAdvertising(ctx context.Context, req *StartAdvertisingRequest) (*Redirect, *AdvertisingQuote, error) {
	if req.Days < 1 {
		return nil, nil, ErrInvalidDays
	}
	profile, err := s.getProfile(ctx, req.ProfileID)
	if err != nil {
		return nil, nil, err
	}

	hasMembership := profile.HasActiveMembership(s.now())
	quote := pricing.Calculate(req.Days, s.cfg.Advertising.DailyRateCents, hasMembership)

	session, err := s.payments.CreateCheckoutSession(ctx, &payments.SessionRequest{
		Mode:        payments.ModePayment,
		ProductName: fmt.Sprintf("Advertising, %d days", req.Days),
		AmountCents: quote.TotalCents,
		Currency:    s.cfg.Advertising.Currency,
		SuccessURL:  req.SuccessURL,
		CancelURL:   req.CancelURL,
		Metadata: map[string]string{
			reconcile.MetaProductType:     string(types.ProductTypeAdvertising),
			reconcile.MetaBusinessID:      req.BusinessID,
			reconcile.MetaDays:            strconv.Itoa(req.Days),
			reconcile.MetaDailyRateCents:  strconv.FormatInt(s.cfg.Advertising.DailyRateCents, 10),
			reconcile.MetaDiscountPercent: strconv.FormatFloat(quote.DiscountPercent, 'f', -1, 64),
			reconcile.MetaTotalCents:      strconv.FormatInt(quote.TotalCents, 10),
			reconcile.MetaHadMembership:   strconv.FormatBool(hasMembership),
		},
	})
	if err != nil {
		return nil, nil, err
	}

	logctx.FromCtx(ctx, s.log).Infow("advertising_checkout_started",
		"business_id", req.BusinessID, "days", req.Days, "total_cents", quote.TotalCents,
		"had_membership", hasMembership, "session_id", session.ID)

	return &Redirect{SessionID: session.ID, URL: session.URL}, &AdvertisingQuote{
		Days:                req.Days,
		DailyRateCents:      s.cfg.Advertising.DailyRateCents,
		SubtotalCents:       quote.SubtotalCents,
		DiscountPercent:     quote.DiscountPercent,
		DiscountAmountCents: quote.DiscountAmountCents,
		TotalCents:          quote.TotalCents,
		Currency:            s.cfg.Advertising.Currency,
	}, nil
}
