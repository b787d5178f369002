package types

// EventType is the processor-declared type of an inbound webhook event.
type EventType string

const (
	EventTypeCheckoutCompleted    EventType = "checkout.completed"
	EventTypeCheckoutExpired      EventType = "checkout.expired"
	EventTypeSubscriptionUpdated  EventType = "subscription.updated"
	EventTypeSubscriptionDeleted  EventType = "subscription.deleted"
	EventTypeInvoicePaid          EventType = "invoice.paid"
	EventTypeInvoicePaymentFailed EventType = "invoice.payment_failed"
)

// ProductType discriminates what a checkout session was sold for. It travels
// in session metadata from session creation to the completion webhook.
type ProductType string

const (
	ProductTypeMembership   ProductType = "membership"
	ProductTypeSubscription ProductType = "subscription"
	ProductTypeAdvertising  ProductType = "advertising"
	ProductTypeOther        ProductType = "other"
)
