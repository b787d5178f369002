package models

import (
	"time"

	"github.com/citypages/billing/pkg/types"
)

// Subscription is the local record of a recurring billing relationship with
// the processor. ProviderSubscriptionID is the idempotency key: at most one
// row per processor subscription, enforced by the unique index.
type Subscription struct {
	ID        string `gorm:"column:id;type:uuid;primary_key" json:"id"`
	ProfileID string `gorm:"column:profile_id;type:uuid;not null;index" json:"profile_id"`
	PlanID    string `gorm:"column:plan_id;type:varchar(64);not null" json:"plan_id"`

	ProviderSubscriptionID string `gorm:"column:provider_subscription_id;type:varchar(128);not null;uniqueIndex" json:"provider_subscription_id"`
	ProviderCustomerID     string `gorm:"column:provider_customer_id;type:varchar(128)" json:"provider_customer_id"`
	ProviderPriceID        string `gorm:"column:provider_price_id;type:varchar(128)" json:"provider_price_id"`

	Status            types.SubscriptionStatus `gorm:"column:status;type:varchar(32);not null" json:"status"`
	CancelAtPeriodEnd bool                     `gorm:"column:cancel_at_period_end;not null;default:false" json:"cancel_at_period_end"`

	CurrentPeriodStart *time.Time `gorm:"column:current_period_start;default:null" json:"current_period_start"`
	CurrentPeriodEnd   *time.Time `gorm:"column:current_period_end;default:null" json:"current_period_end"`
	CanceledAt         *time.Time `gorm:"column:canceled_at;default:null" json:"canceled_at"`
	// EndedAt set together with status=canceled marks the row terminal; it is
	// retained for history.
	EndedAt *time.Time `gorm:"column:ended_at;default:null" json:"ended_at"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Subscription) TableName() string {
	return "subscription"
}

func (s *Subscription) Terminal() bool {
	return s != nil && s.Status == types.SubscriptionStatusCanceled && s.EndedAt != nil
}
