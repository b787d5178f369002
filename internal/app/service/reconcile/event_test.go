package reconcile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/citypages/billing/pkg/types"
)

func TestParseEvent(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr bool
		check   func(t *testing.T, ev *Event)
	}{
		{
			name: "checkout completed",
			body: `{"id":"evt_1","type":"checkout.completed","data":{"session_id":"cs_1","payment_status":"paid","metadata":{"product_type":"membership","order_id":"o1"}}}`,
			check: func(t *testing.T, ev *Event) {
				require.NotNil(t, ev.Checkout)
				assert.Equal(t, "cs_1", ev.Checkout.SessionID)
				assert.Equal(t, "o1", ev.Checkout.Metadata[MetaOrderID])
				assert.Nil(t, ev.Subscription)
				assert.Nil(t, ev.Invoice)
			},
		},
		{
			name: "subscription deleted with unix timestamps",
			body: `{"id":"evt_2","type":"subscription.deleted","data":{"subscription_id":"sub_1","status":"canceled","canceled_at":1750000000}}`,
			check: func(t *testing.T, ev *Event) {
				require.NotNil(t, ev.Subscription)
				assert.Equal(t, "sub_1", ev.Subscription.SubscriptionID)
				assert.Equal(t, types.SubscriptionStatusCanceled, ev.Subscription.Status)
				require.NotNil(t, ev.Subscription.CanceledAt)
				assert.EqualValues(t, 1750000000, *ev.Subscription.CanceledAt)
			},
		},
		{
			name: "invoice paid",
			body: `{"id":"evt_3","type":"invoice.paid","data":{"invoice_id":"in_1","subscription_id":"sub_1","amount_cents":999,"paid":true}}`,
			check: func(t *testing.T, ev *Event) {
				require.NotNil(t, ev.Invoice)
				assert.Equal(t, "in_1", ev.Invoice.InvoiceID)
				assert.EqualValues(t, 999, ev.Invoice.AmountCents)
			},
		},
		{
			name: "unknown type decodes with nil payloads",
			body: `{"id":"evt_4","type":"charge.refunded","data":{"charge_id":"ch_1"}}`,
			check: func(t *testing.T, ev *Event) {
				assert.Equal(t, types.EventType("charge.refunded"), ev.Type)
				assert.Nil(t, ev.Checkout)
				assert.Nil(t, ev.Subscription)
				assert.Nil(t, ev.Invoice)
			},
		},
		{name: "not json", body: `{oops`, wantErr: true},
		{name: "missing type", body: `{"id":"evt_5","data":{}}`, wantErr: true},
		{name: "known type with undecodable data", body: `{"id":"evt_6","type":"invoice.paid","data":"nope"}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev, err := ParseEvent([]byte(tt.body))
			if tt.wantErr {
				require.ErrorIs(t, err, ErrMalformedEvent)
				return
			}
			require.NoError(t, err)
			tt.check(t, ev)
		})
	}
}

func TestParseProductMeta(t *testing.T) {
	tests := []struct {
		name    string
		md      map[string]string
		want    any
		wantErr string
	}{
		{
			name: "membership",
			md:   map[string]string{MetaProductType: "membership", MetaOrderID: "o1", MetaPlanID: "p1", MetaProfileID: "u1"},
			want: &MembershipMeta{OrderID: "o1", PlanID: "p1", ProfileID: "u1"},
		},
		{
			name:    "membership without order id",
			md:      map[string]string{MetaProductType: "membership"},
			wantErr: "order_id",
		},
		{
			name: "subscription",
			md:   map[string]string{MetaProductType: "subscription", MetaProfileID: "u1", MetaPlanID: "p1", MetaPriceID: "price_1"},
			want: &SubscriptionMeta{ProfileID: "u1", PlanID: "p1", PriceID: "price_1"},
		},
		{
			name:    "subscription without profile",
			md:      map[string]string{MetaProductType: "subscription", MetaPlanID: "p1"},
			wantErr: "missing",
		},
		{
			name: "advertising",
			md: map[string]string{
				MetaProductType: "advertising", MetaBusinessID: "b1",
				MetaDays: "7", MetaDailyRateCents: "500",
				MetaDiscountPercent: "5", MetaTotalCents: "3325", MetaHadMembership: "true",
			},
			want: &AdvertisingMeta{
				BusinessID: "b1", Days: 7, DailyRateCents: 500,
				DiscountPercent: 5, TotalCents: 3325, HadMembership: true,
			},
		},
		{
			name: "advertising without discount fields",
			md: map[string]string{
				MetaProductType: "advertising", MetaBusinessID: "b1",
				MetaDays: "1", MetaDailyRateCents: "500", MetaTotalCents: "500",
			},
			want: &AdvertisingMeta{BusinessID: "b1", Days: 1, DailyRateCents: 500, TotalCents: 500},
		},
		{
			name:    "advertising with zero days",
			md:      map[string]string{MetaProductType: "advertising", MetaBusinessID: "b1", MetaDays: "0", MetaDailyRateCents: "500", MetaTotalCents: "0"},
			wantErr: "days",
		},
		{
			name:    "advertising with junk total",
			md:      map[string]string{MetaProductType: "advertising", MetaBusinessID: "b1", MetaDays: "7", MetaDailyRateCents: "500", MetaTotalCents: "lots"},
			wantErr: "total_cents",
		},
		{
			name: "unmanaged product",
			md:   map[string]string{MetaProductType: "gift_card"},
			want: &OtherMeta{},
		},
		{
			name: "no metadata at all",
			md:   map[string]string{},
			want: &OtherMeta{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseProductMeta(tt.md)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
