package types

// OrderStatus is the lifecycle state of a one-time membership order.
// Transitions are forward-only: pending → paid or pending → failed.
type OrderStatus string

const (
	OrderStatusPending  OrderStatus = "pending"
	OrderStatusPaid     OrderStatus = "paid"
	OrderStatusFailed   OrderStatus = "failed"
	OrderStatusRefunded OrderStatus = "refunded"
)

// SubscriptionStatus mirrors the processor's subscription lifecycle states.
type SubscriptionStatus string

const (
	SubscriptionStatusActive            SubscriptionStatus = "active"
	SubscriptionStatusTrialing          SubscriptionStatus = "trialing"
	SubscriptionStatusPastDue           SubscriptionStatus = "past_due"
	SubscriptionStatusCanceled          SubscriptionStatus = "canceled"
	SubscriptionStatusUnpaid            SubscriptionStatus = "unpaid"
	SubscriptionStatusIncomplete        SubscriptionStatus = "incomplete"
	SubscriptionStatusIncompleteExpired SubscriptionStatus = "incomplete_expired"
)

// BillingInterval is a subscription plan's billing cadence.
type BillingInterval string

const (
	BillingIntervalMonth BillingInterval = "month"
	BillingIntervalYear  BillingInterval = "year"
)

// CampaignStatus is the stored state of an ad campaign. Expiry is derived at
// read time from end_at, so a row can read as expired while still storing
// "active".
type CampaignStatus string

const (
	CampaignStatusPendingPayment CampaignStatus = "pending_payment"
	CampaignStatusActive         CampaignStatus = "active"
	CampaignStatusExpired        CampaignStatus = "expired"
	CampaignStatusCancelled      CampaignStatus = "cancelled"
)
