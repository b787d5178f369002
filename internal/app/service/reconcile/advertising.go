package reconcile

import (
	"context"
	"errors"

	"github.com/samber/lo"

	"github.com/citypages/billing/internal/app/service/campaign"
	"github.com/citypages/billing/internal/app/service/entitlement"
	"github.com/citypages/billing/internal/models"
	"github.com/citypages/billing/pkg/logctx"
	"github.com/citypages/billing/pkg/types"
)

// handleAdvertisingCheckout applies a per-day campaign purchase. Price
// fields come from the session metadata computed at creation time; they are
// never recomputed here, so a rate change between session creation and
// fulfillment cannot drift the charge.
//
// The checkout session id is the idempotency key on both paths: every
// applied purchase leaves a permanent ledger row keyed by it, and the
// campaign mutation commits only with that insert. Redelivery of a
// completion event cannot double-extend, however stale the replay.
func (d *Dispatcher) handleAdvertisingCheckout(ctx context.Context, co *CheckoutData, meta *AdvertisingMeta) Result {
	now := d.now()

	current, err := d.store.GetActiveCampaign(ctx, meta.BusinessID, now)
	if err != nil {
		return failErr("failed to load active campaign", err)
	}

	startAt, endAt := campaign.ResolveDates(meta.Days, current, now)

	if current != nil {
		changed, err := d.store.ExtendCampaign(ctx, current.ID, entitlement.CampaignExtension{
			BusinessID:      meta.BusinessID,
			NewEndAt:        endAt,
			AddDays:         meta.Days,
			AddAmountCents:  meta.TotalCents,
			DiscountPercent: meta.DiscountPercent,
			HadMembership:   meta.HadMembership,
			SessionID:       co.SessionID,
			PaymentIntentID: co.PaymentIntentID,
		})
		if err != nil {
			return failErr("failed to extend campaign", err)
		}
		if !changed {
			return okf("checkout %s already applied to campaign %s", co.SessionID, current.ID)
		}
		logctx.FromCtx(ctx, d.log).Infow("campaign_extended",
			"campaign_id", current.ID, "business_id", meta.BusinessID, "days", meta.Days, "end_at", endAt)
		return okf("campaign %s extended by %d days to %s", current.ID, meta.Days, endAt.Format("2006-01-02"))
	}

	c := &models.AdCampaign{
		BusinessID:              meta.BusinessID,
		Status:                  types.CampaignStatusActive,
		StartAt:                 startAt,
		EndAt:                   endAt,
		DaysPurchased:           meta.Days,
		TotalAmountCents:        meta.TotalCents,
		DailyRateCents:          meta.DailyRateCents,
		DiscountPercent:         meta.DiscountPercent,
		HadMembership:           meta.HadMembership,
		ProviderSessionID:       lo.ToPtr(co.SessionID),
		ProviderPaymentIntentID: lo.ToPtr(co.PaymentIntentID),
	}
	if err := d.store.CreateCampaign(ctx, c); err != nil {
		if errors.Is(err, entitlement.ErrDuplicate) {
			return okf("checkout %s already started a campaign", co.SessionID)
		}
		return failErr("failed to create campaign", err)
	}

	logctx.FromCtx(ctx, d.log).Infow("campaign_started",
		"campaign_id", c.ID, "business_id", meta.BusinessID, "days", meta.Days, "end_at", endAt)
	return okf("campaign %s started for %d days", c.ID, meta.Days)
}
