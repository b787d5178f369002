package models

import (
	"time"

	"github.com/citypages/billing/pkg/types"
)

// SubscriptionPlan is a catalog entry. Rows are managed by admin tooling;
// this subsystem only reads them.
type SubscriptionPlan struct {
	ID              string                `gorm:"column:id;type:varchar(64);primary_key" json:"id"`
	Name            string                `gorm:"column:name;type:varchar(128);not null" json:"name"`
	PriceCents      int64                 `gorm:"column:price_cents;type:bigint;not null" json:"price_cents"`
	Currency        string                `gorm:"column:currency;type:varchar(8);not null" json:"currency"`
	BillingInterval types.BillingInterval `gorm:"column:billing_interval;type:varchar(16);not null" json:"billing_interval"`

	ProviderProductID string `gorm:"column:provider_product_id;type:varchar(128)" json:"provider_product_id"`
	ProviderPriceID   string `gorm:"column:provider_price_id;type:varchar(128)" json:"provider_price_id"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (SubscriptionPlan) TableName() string {
	return "subscription_plan"
}

// DurationDays converts the billing interval into the number of days a
// one-time membership purchase of this plan grants.
func (p *SubscriptionPlan) DurationDays() int {
	if p.BillingInterval == types.BillingIntervalYear {
		return 365
	}
	return 30
}
