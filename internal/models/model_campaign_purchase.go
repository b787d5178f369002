package models

import "time"

// CampaignPurchase is the per-purchase ledger behind advertising idempotency.
// Every settled checkout writes exactly one row here, keyed by the session id
// under a unique index, and the campaign mutation applies only when that
// insert succeeds. The record is permanent: a redelivered completion event of
// any age reads as a duplicate, even after later purchases have moved the
// campaign row forward.
type CampaignPurchase struct {
	ID         string `gorm:"column:id;type:uuid;primary_key" json:"id"`
	CampaignID string `gorm:"column:campaign_id;type:uuid;not null;index" json:"campaign_id"`
	BusinessID string `gorm:"column:business_id;type:uuid;not null;index" json:"business_id"`

	Days            int     `gorm:"column:days;not null" json:"days"`
	AmountCents     int64   `gorm:"column:amount_cents;type:bigint;not null" json:"amount_cents"`
	DiscountPercent float64 `gorm:"column:discount_percent;not null;default:0" json:"discount_percent"`
	HadMembership   bool    `gorm:"column:had_membership;not null;default:false" json:"had_membership"`

	ProviderSessionID       string `gorm:"column:provider_session_id;type:varchar(128);not null;uniqueIndex" json:"provider_session_id"`
	ProviderPaymentIntentID string `gorm:"column:provider_payment_intent_id;type:varchar(128)" json:"provider_payment_intent_id"`

	CreatedAt time.Time `json:"created_at"`
}

func (CampaignPurchase) TableName() string {
	return "campaign_purchase"
}
