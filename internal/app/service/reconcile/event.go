package reconcile

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/citypages/billing/pkg/types"
)

// ErrMalformedEvent marks payloads that cannot be decoded at all. The
// transport layer maps it to a client error; everything after a successful
// decode is reported as a business result instead.
var ErrMalformedEvent = errors.New("malformed event payload")

// Event is the outer variant of the webhook union: the processor-declared
// event type plus exactly one typed payload. Unknown types decode into an
// Event whose payload pointers are all nil; the dispatcher acknowledges
// those as no-ops so the processor stops redelivering them.
type Event struct {
	ID   string
	Type types.EventType

	Checkout     *CheckoutData
	Subscription *SubscriptionData
	Invoice      *InvoiceData
}

// CheckoutData is the payload of checkout.completed / checkout.expired.
// Metadata is the raw string map the session was created with; the typed
// product variant is derived from it once, in the dispatcher.
type CheckoutData struct {
	SessionID       string            `json:"session_id"`
	PaymentIntentID string            `json:"payment_intent_id"`
	PaymentStatus   string            `json:"payment_status"`
	CustomerID      string            `json:"customer_id"`
	SubscriptionID  string            `json:"subscription_id"`
	AmountCents     int64             `json:"amount_cents"`
	Currency        string            `json:"currency"`
	Metadata        map[string]string `json:"metadata"`

	// Subscription snapshot attached when the session sold a subscription.
	Subscription *SubscriptionData `json:"subscription"`
}

// SubscriptionData is the processor's subscription snapshot, shared by the
// lifecycle events and the checkout-completion snapshot. Timestamps are unix
// seconds as the processor sends them.
type SubscriptionData struct {
	SubscriptionID     string                   `json:"subscription_id"`
	CustomerID         string                   `json:"customer_id"`
	PriceID            string                   `json:"price_id"`
	Status             types.SubscriptionStatus `json:"status"`
	CancelAtPeriodEnd  bool                     `json:"cancel_at_period_end"`
	CurrentPeriodStart *int64                   `json:"current_period_start"`
	CurrentPeriodEnd   *int64                   `json:"current_period_end"`
	CanceledAt         *int64                   `json:"canceled_at"`
	EndedAt            *int64                   `json:"ended_at"`
}

// InvoiceData is the payload of invoice.paid / invoice.payment_failed.
type InvoiceData struct {
	InvoiceID      string `json:"invoice_id"`
	SubscriptionID string `json:"subscription_id"`
	AmountCents    int64  `json:"amount_cents"`
	Currency       string `json:"currency"`
	Paid           bool   `json:"paid"`
	PeriodStart    *int64 `json:"period_start"`
	PeriodEnd      *int64 `json:"period_end"`
	PaidAt         *int64 `json:"paid_at"`
}

type envelope struct {
	ID   string          `json:"id"`
	Type types.EventType `json:"type"`
	Data json.RawMessage `json:"data"`
}

// ParseEvent decodes a raw webhook body into the outer union. It fails only
// on undecodable JSON; an unknown event type is a valid Event with no
// payload.
func ParseEvent(body []byte) (*Event, error) {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}
	if env.Type == "" {
		return nil, fmt.Errorf("%w: missing event type", ErrMalformedEvent)
	}

	ev := &Event{ID: env.ID, Type: env.Type}

	switch env.Type {
	case types.EventTypeCheckoutCompleted, types.EventTypeCheckoutExpired:
		ev.Checkout = &CheckoutData{}
		if err := json.Unmarshal(env.Data, ev.Checkout); err != nil {
			return nil, fmt.Errorf("%w: checkout data: %v", ErrMalformedEvent, err)
		}
	case types.EventTypeSubscriptionUpdated, types.EventTypeSubscriptionDeleted:
		ev.Subscription = &SubscriptionData{}
		if err := json.Unmarshal(env.Data, ev.Subscription); err != nil {
			return nil, fmt.Errorf("%w: subscription data: %v", ErrMalformedEvent, err)
		}
	case types.EventTypeInvoicePaid, types.EventTypeInvoicePaymentFailed:
		ev.Invoice = &InvoiceData{}
		if err := json.Unmarshal(env.Data, ev.Invoice); err != nil {
			return nil, fmt.Errorf("%w: invoice data: %v", ErrMalformedEvent, err)
		}
	}

	return ev, nil
}

// ProductMeta is the inner variant: the typed metadata a checkout session
// was created with. The implementations form a closed set.
type ProductMeta interface {
	ProductType() types.ProductType
}

type MembershipMeta struct {
	OrderID   string
	PlanID    string
	ProfileID string
}

func (MembershipMeta) ProductType() types.ProductType { return types.ProductTypeMembership }

type SubscriptionMeta struct {
	ProfileID string
	PlanID    string
	PriceID   string
}

func (SubscriptionMeta) ProductType() types.ProductType { return types.ProductTypeSubscription }

type AdvertisingMeta struct {
	BusinessID      string
	Days            int
	DailyRateCents  int64
	DiscountPercent float64
	TotalCents      int64
	HadMembership   bool
}

func (AdvertisingMeta) ProductType() types.ProductType { return types.ProductTypeAdvertising }

// OtherMeta covers sessions this subsystem did not sell; deliveries for it
// are acknowledged untouched.
type OtherMeta struct{}

func (OtherMeta) ProductType() types.ProductType { return types.ProductTypeOther }

// Metadata keys written at session creation and read back here. The map is
// the only state carried across the session/webhook boundary.
const (
	MetaProductType     = "product_type"
	MetaOrderID         = "order_id"
	MetaPlanID          = "plan_id"
	MetaProfileID       = "profile_id"
	MetaPriceID         = "price_id"
	MetaBusinessID      = "business_id"
	MetaDays            = "days"
	MetaDailyRateCents  = "daily_rate_cents"
	MetaDiscountPercent = "discount_percent"
	MetaTotalCents      = "total_cents"
	MetaHadMembership   = "had_membership"
)

// ParseProductMeta validates checkout metadata into its typed variant.
// Sessions without a product type, or with one we do not sell, come back as
// OtherMeta; a recognized product with missing or unparseable fields is an
// error the caller reports as a business failure.
func ParseProductMeta(md map[string]string) (ProductMeta, error) {
	switch types.ProductType(md[MetaProductType]) {
	case types.ProductTypeMembership:
		m := MembershipMeta{
			OrderID:   md[MetaOrderID],
			PlanID:    md[MetaPlanID],
			ProfileID: md[MetaProfileID],
		}
		if m.OrderID == "" {
			return nil, fmt.Errorf("membership metadata missing %s", MetaOrderID)
		}
		return &m, nil

	case types.ProductTypeSubscription:
		m := SubscriptionMeta{
			ProfileID: md[MetaProfileID],
			PlanID:    md[MetaPlanID],
			PriceID:   md[MetaPriceID],
		}
		if m.ProfileID == "" || m.PlanID == "" {
			return nil, fmt.Errorf("subscription metadata missing %s/%s", MetaProfileID, MetaPlanID)
		}
		return &m, nil

	case types.ProductTypeAdvertising:
		m := AdvertisingMeta{BusinessID: md[MetaBusinessID]}
		if m.BusinessID == "" {
			return nil, fmt.Errorf("advertising metadata missing %s", MetaBusinessID)
		}
		var err error
		if m.Days, err = strconv.Atoi(md[MetaDays]); err != nil || m.Days < 1 {
			return nil, fmt.Errorf("advertising metadata has invalid %s: %q", MetaDays, md[MetaDays])
		}
		if m.DailyRateCents, err = strconv.ParseInt(md[MetaDailyRateCents], 10, 64); err != nil {
			return nil, fmt.Errorf("advertising metadata has invalid %s: %q", MetaDailyRateCents, md[MetaDailyRateCents])
		}
		if m.TotalCents, err = strconv.ParseInt(md[MetaTotalCents], 10, 64); err != nil {
			return nil, fmt.Errorf("advertising metadata has invalid %s: %q", MetaTotalCents, md[MetaTotalCents])
		}
		if v := md[MetaDiscountPercent]; v != "" {
			if m.DiscountPercent, err = strconv.ParseFloat(v, 64); err != nil {
				return nil, fmt.Errorf("advertising metadata has invalid %s: %q", MetaDiscountPercent, v)
			}
		}
		m.HadMembership = md[MetaHadMembership] == "true"
		return &m, nil

	default:
		return &OtherMeta{}, nil
	}
}

func unixPtr(v *int64) *time.Time {
	if v == nil {
		return nil
	}
	t := time.Unix(*v, 0).UTC()
	return &t
}
