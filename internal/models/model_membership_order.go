package models

import (
	"time"

	"github.com/citypages/billing/pkg/types"
)

// MembershipOrder is one one-time membership purchase attempt. The order id
// is the idempotency key for the membership completion webhook: a paid order
// is never re-processed.
type MembershipOrder struct {
	ID        string            `gorm:"column:id;type:uuid;primary_key" json:"id"`
	ProfileID string            `gorm:"column:profile_id;type:uuid;not null;index" json:"profile_id"`
	PlanID    string            `gorm:"column:plan_id;type:varchar(64);not null" json:"plan_id"`
	Status    types.OrderStatus `gorm:"column:status;type:varchar(32);not null" json:"status"`

	AmountCents int64  `gorm:"column:amount_cents;type:bigint;not null" json:"amount_cents"`
	Currency    string `gorm:"column:currency;type:varchar(8);not null" json:"currency"`

	// ProviderSessionID is the hosted checkout session the order was opened
	// with, filled in once the session exists. ProviderPaymentIntentID is
	// recorded when the completion event arrives. Nullable so unpaired rows
	// don't collide on the unique index.
	ProviderSessionID       *string `gorm:"column:provider_session_id;type:varchar(128);uniqueIndex;default:null" json:"provider_session_id"`
	ProviderPaymentIntentID *string `gorm:"column:provider_payment_intent_id;type:varchar(128);default:null" json:"provider_payment_intent_id"`

	PaidAt    *time.Time `gorm:"column:paid_at;default:null" json:"paid_at"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

func (MembershipOrder) TableName() string {
	return "membership_order"
}
