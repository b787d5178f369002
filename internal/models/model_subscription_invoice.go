package models

import (
	"time"
)

// SubscriptionInvoice is one settled (or failed) billing period of a
// subscription, keyed by the processor invoice id so redelivered invoice
// events insert at most one row.
type SubscriptionInvoice struct {
	ID                     string `gorm:"column:id;type:uuid;primary_key" json:"id"`
	SubscriptionID         string `gorm:"column:subscription_id;type:uuid;not null;index" json:"subscription_id"`
	ProviderInvoiceID      string `gorm:"column:provider_invoice_id;type:varchar(128);not null;uniqueIndex" json:"provider_invoice_id"`
	ProviderSubscriptionID string `gorm:"column:provider_subscription_id;type:varchar(128);not null" json:"provider_subscription_id"`

	AmountCents int64  `gorm:"column:amount_cents;type:bigint;not null" json:"amount_cents"`
	Currency    string `gorm:"column:currency;type:varchar(8);not null" json:"currency"`
	Paid        bool   `gorm:"column:paid;not null" json:"paid"`

	PeriodStart *time.Time `gorm:"column:period_start;default:null" json:"period_start"`
	PeriodEnd   *time.Time `gorm:"column:period_end;default:null" json:"period_end"`
	PaidAt      *time.Time `gorm:"column:paid_at;default:null" json:"paid_at"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (SubscriptionInvoice) TableName() string {
	return "subscription_invoice"
}
