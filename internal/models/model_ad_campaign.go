package models

import (
	"time"

	"github.com/citypages/billing/pkg/types"
)

// AdCampaign is one business's advertising run. A business has at most one
// non-terminal campaign at any time: subsequent purchases push end_at forward
// and accumulate days/totals instead of opening a parallel run.
//
// There is no explicit expiry transition; a campaign is expired once end_at
// passes, derived at read time (see EffectiveStatus).
type AdCampaign struct {
	ID         string               `gorm:"column:id;type:uuid;primary_key" json:"id"`
	BusinessID string               `gorm:"column:business_id;type:uuid;not null;index" json:"business_id"`
	Status     types.CampaignStatus `gorm:"column:status;type:varchar(32);not null" json:"status"`

	StartAt time.Time `gorm:"column:start_at;not null" json:"start_at"`
	EndAt   time.Time `gorm:"column:end_at;not null" json:"end_at"`

	// Cumulative across all purchases applied to this run.
	DaysPurchased    int   `gorm:"column:days_purchased;not null" json:"days_purchased"`
	TotalAmountCents int64 `gorm:"column:total_amount_cents;type:bigint;not null" json:"total_amount_cents"`

	DailyRateCents  int64   `gorm:"column:daily_rate_cents;type:bigint;not null" json:"daily_rate_cents"`
	DiscountPercent float64 `gorm:"column:discount_percent;not null;default:0" json:"discount_percent"`
	HadMembership   bool    `gorm:"column:had_membership;not null;default:false" json:"had_membership"`

	// Refreshed on every purchase to the most recently applied session.
	// Idempotency against redelivered completion events lives in the
	// campaign_purchase ledger, which remembers every applied session.
	ProviderSessionID       *string `gorm:"column:provider_session_id;type:varchar(128);uniqueIndex;default:null" json:"provider_session_id"`
	ProviderPaymentIntentID *string `gorm:"column:provider_payment_intent_id;type:varchar(128);default:null" json:"provider_payment_intent_id"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (AdCampaign) TableName() string {
	return "ad_campaign"
}

// Live reports whether the campaign still has runway at the given time.
func (c *AdCampaign) Live(at time.Time) bool {
	return c != nil &&
		(c.Status == types.CampaignStatusActive || c.Status == types.CampaignStatusPendingPayment) &&
		c.EndAt.After(at)
}

// EffectiveStatus derives the campaign state at the given time: a stored
// active/pending row whose end_at has passed reads as expired.
func (c *AdCampaign) EffectiveStatus(at time.Time) types.CampaignStatus {
	if c == nil {
		return ""
	}
	switch c.Status {
	case types.CampaignStatusActive, types.CampaignStatusPendingPayment:
		if !c.EndAt.After(at) {
			return types.CampaignStatusExpired
		}
	}
	return c.Status
}
