package reconcile

import (
	"context"
	"errors"

	"github.com/samber/lo"

	"github.com/citypages/billing/internal/app/service/entitlement"
	"github.com/citypages/billing/internal/models"
	"github.com/citypages/billing/pkg/logctx"
	"github.com/citypages/billing/pkg/types"
)

// handleSubscriptionCheckout records a new recurring billing relationship.
// The processor subscription id is the idempotency key; the unique index on
// it collapses concurrent duplicate inserts.
func (d *Dispatcher) handleSubscriptionCheckout(ctx context.Context, co *CheckoutData, meta *SubscriptionMeta) Result {
	if co.SubscriptionID == "" {
		return failf("subscription checkout %s carries no subscription id", co.SessionID)
	}

	existing, err := d.store.GetSubscriptionByProviderID(ctx, co.SubscriptionID)
	if err != nil {
		return failErr("failed to look up subscription", err)
	}
	if existing != nil {
		return okf("subscription %s already recorded", co.SubscriptionID)
	}

	sub := &models.Subscription{
		ProfileID:              meta.ProfileID,
		PlanID:                 meta.PlanID,
		ProviderSubscriptionID: co.SubscriptionID,
		ProviderCustomerID:     co.CustomerID,
		ProviderPriceID:        meta.PriceID,
		Status:                 types.SubscriptionStatusActive,
	}
	if snap := co.Subscription; snap != nil {
		if snap.Status != "" {
			sub.Status = snap.Status
		}
		sub.CancelAtPeriodEnd = snap.CancelAtPeriodEnd
		sub.CurrentPeriodStart = unixPtr(snap.CurrentPeriodStart)
		sub.CurrentPeriodEnd = unixPtr(snap.CurrentPeriodEnd)
		if snap.PriceID != "" {
			sub.ProviderPriceID = snap.PriceID
		}
	}

	if err := d.store.CreateSubscription(ctx, sub); err != nil {
		if errors.Is(err, entitlement.ErrDuplicate) {
			return okf("subscription %s already recorded", co.SubscriptionID)
		}
		return failErr("failed to create subscription", err)
	}

	logctx.FromCtx(ctx, d.log).Infow("subscription_recorded",
		"provider_subscription_id", co.SubscriptionID, "profile_id", meta.ProfileID, "plan_id", meta.PlanID)
	return okf("subscription %s recorded", co.SubscriptionID)
}

// handleSubscriptionUpdated applies the processor's latest lifecycle
// snapshot. The update is a plain field copy, so replaying it converges on
// the same row state.
func (d *Dispatcher) handleSubscriptionUpdated(ctx context.Context, sd *SubscriptionData) Result {
	if sd.SubscriptionID == "" {
		return failf("subscription event carries no subscription id")
	}

	upd := entitlement.SubscriptionUpdate{
		CancelAtPeriodEnd:  lo.ToPtr(sd.CancelAtPeriodEnd),
		CurrentPeriodStart: unixPtr(sd.CurrentPeriodStart),
		CurrentPeriodEnd:   unixPtr(sd.CurrentPeriodEnd),
		CanceledAt:         unixPtr(sd.CanceledAt),
	}
	if sd.Status != "" {
		upd.Status = lo.ToPtr(sd.Status)
	}

	matched, err := d.store.UpdateSubscriptionByProviderID(ctx, sd.SubscriptionID, upd)
	if err != nil {
		return failErr("failed to update subscription", err)
	}
	if !matched {
		return failf("subscription %s not found", sd.SubscriptionID)
	}
	return okf("subscription %s updated", sd.SubscriptionID)
}

// handleSubscriptionDeleted marks the relationship terminal. A missing local
// row is tolerated: the end state the event asks for already holds.
func (d *Dispatcher) handleSubscriptionDeleted(ctx context.Context, sd *SubscriptionData) Result {
	if sd.SubscriptionID == "" {
		return failf("subscription event carries no subscription id")
	}

	now := d.now()
	canceledAt := unixPtr(sd.CanceledAt)
	if canceledAt == nil {
		canceledAt = &now
	}
	endedAt := unixPtr(sd.EndedAt)
	if endedAt == nil {
		endedAt = &now
	}

	matched, err := d.store.UpdateSubscriptionByProviderID(ctx, sd.SubscriptionID, entitlement.SubscriptionUpdate{
		Status:     lo.ToPtr(types.SubscriptionStatusCanceled),
		CanceledAt: canceledAt,
		EndedAt:    endedAt,
	})
	if err != nil {
		return failErr("failed to cancel subscription", err)
	}
	if !matched {
		return okf("subscription %s already gone", sd.SubscriptionID)
	}
	return okf("subscription %s canceled", sd.SubscriptionID)
}

// handleInvoicePaid reactivates the subscription for the settled period and
// records the invoice, keyed by the processor invoice id.
func (d *Dispatcher) handleInvoicePaid(ctx context.Context, inv *InvoiceData) Result {
	if inv.SubscriptionID == "" {
		return failf("invoice %s carries no subscription id", inv.InvoiceID)
	}

	sub, err := d.store.GetSubscriptionByProviderID(ctx, inv.SubscriptionID)
	if err != nil {
		return failErr("failed to look up subscription", err)
	}
	if sub == nil {
		return failf("subscription %s not found", inv.SubscriptionID)
	}

	if _, err := d.store.UpdateSubscriptionByProviderID(ctx, inv.SubscriptionID, entitlement.SubscriptionUpdate{
		Status:             lo.ToPtr(types.SubscriptionStatusActive),
		CurrentPeriodStart: unixPtr(inv.PeriodStart),
		CurrentPeriodEnd:   unixPtr(inv.PeriodEnd),
	}); err != nil {
		return failErr("failed to update subscription period", err)
	}

	err = d.store.CreateInvoice(ctx, &models.SubscriptionInvoice{
		SubscriptionID:         sub.ID,
		ProviderInvoiceID:      inv.InvoiceID,
		ProviderSubscriptionID: inv.SubscriptionID,
		AmountCents:            inv.AmountCents,
		Currency:               inv.Currency,
		Paid:                   true,
		PeriodStart:            unixPtr(inv.PeriodStart),
		PeriodEnd:              unixPtr(inv.PeriodEnd),
		PaidAt:                 unixPtr(inv.PaidAt),
	})
	if err != nil && !errors.Is(err, entitlement.ErrDuplicate) {
		return failErr("failed to record invoice", err)
	}

	return okf("invoice %s applied to subscription %s", inv.InvoiceID, inv.SubscriptionID)
}

// handleInvoicePaymentFailed flags the subscription past due until the
// processor either collects or gives up and deletes it.
func (d *Dispatcher) handleInvoicePaymentFailed(ctx context.Context, inv *InvoiceData) Result {
	if inv.SubscriptionID == "" {
		return failf("invoice %s carries no subscription id", inv.InvoiceID)
	}

	matched, err := d.store.UpdateSubscriptionByProviderID(ctx, inv.SubscriptionID, entitlement.SubscriptionUpdate{
		Status: lo.ToPtr(types.SubscriptionStatusPastDue),
	})
	if err != nil {
		return failErr("failed to flag subscription past due", err)
	}
	if !matched {
		return failf("subscription %s not found", inv.SubscriptionID)
	}
	return okf("subscription %s flagged past due", inv.SubscriptionID)
}
