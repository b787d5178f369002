package reconcile

import (
	"context"
	"errors"

	"github.com/citypages/billing/internal/app/service/entitlement"
	"github.com/citypages/billing/pkg/logctx"
	"github.com/citypages/billing/pkg/types"
)

// handleMembershipCheckout settles a one-time membership order. The order id
// from session metadata is the idempotency key; the pending→paid transition
// is a conditional update, so two concurrent deliveries of the same event
// race on the row and exactly one applies the membership extension.
func (d *Dispatcher) handleMembershipCheckout(ctx context.Context, co *CheckoutData, meta *MembershipMeta) Result {
	order, err := d.store.GetOrder(ctx, meta.OrderID)
	if err != nil {
		if errors.Is(err, entitlement.ErrNotFound) {
			return failf("order %s not found", meta.OrderID)
		}
		return failErr("failed to load order", err)
	}

	if order.Status == types.OrderStatusPaid {
		return okf("order %s already processed", order.ID)
	}
	if order.Status != types.OrderStatusPending {
		return failf("order %s is %s; cannot settle", order.ID, order.Status)
	}

	plan, err := d.store.GetPlan(ctx, order.PlanID)
	if err != nil {
		if errors.Is(err, entitlement.ErrNotFound) {
			return failf("plan %s not found", order.PlanID)
		}
		return failErr("failed to load plan", err)
	}

	profile, err := d.store.GetProfile(ctx, order.ProfileID)
	if err != nil {
		if errors.Is(err, entitlement.ErrNotFound) {
			return failf("profile %s not found", order.ProfileID)
		}
		return failErr("failed to load profile", err)
	}

	now := d.now()
	changed, err := d.store.MarkOrderPaid(ctx, order.ID, co.PaymentIntentID, now)
	if err != nil {
		return failErr("failed to mark order paid", err)
	}
	if !changed {
		// Lost the transition to a concurrent delivery of the same event.
		return okf("order %s already processed", order.ID)
	}

	// Remaining membership time carries over: the new period starts at the
	// current expiry when it lies ahead of now.
	base := now
	if profile.MembershipExpiresAt != nil && profile.MembershipExpiresAt.After(now) {
		base = *profile.MembershipExpiresAt
	}
	expiresAt := base.AddDate(0, 0, plan.DurationDays())

	if err := d.store.UpdateProfileMembership(ctx, profile.ID, plan.ID, now, expiresAt); err != nil {
		// The order is paid but the profile write failed; the journal row
		// points a manual retry at a consistent state.
		return failErr("order paid but membership update failed", err)
	}

	logctx.FromCtx(ctx, d.log).Infow("membership_order_settled",
		"order_id", order.ID, "profile_id", profile.ID, "plan_id", plan.ID, "expires_at", expiresAt)
	return okf("membership on profile %s extended to %s", profile.ID, expiresAt.Format("2006-01-02"))
}
