package reconcile

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/citypages/billing/internal/models"
	"github.com/citypages/billing/pkg/types"
)

func subscriptionCheckout(subID string) (*CheckoutData, *SubscriptionMeta) {
	periodStart := testNow.Unix()
	periodEnd := testNow.AddDate(0, 1, 0).Unix()
	co := &CheckoutData{
		SessionID:      "cs_200",
		PaymentStatus:  "paid",
		CustomerID:     "cust_9",
		SubscriptionID: subID,
		Metadata: map[string]string{
			MetaProductType: "subscription",
			MetaProfileID:   "prof-1",
			MetaPlanID:      "plan-month",
			MetaPriceID:     "price_m",
		},
		Subscription: &SubscriptionData{
			SubscriptionID:     subID,
			Status:             types.SubscriptionStatusActive,
			CurrentPeriodStart: &periodStart,
			CurrentPeriodEnd:   &periodEnd,
		},
	}
	return co, &SubscriptionMeta{ProfileID: "prof-1", PlanID: "plan-month", PriceID: "price_m"}
}

func TestSubscriptionCheckout_CreatesRow(t *testing.T) {
	f := newFakeStore()
	d := newTestDispatcher(f)
	co, meta := subscriptionCheckout("sub_1")

	res := d.handleSubscriptionCheckout(context.Background(), co, meta)

	require.True(t, res.Success, res.Error)
	sub := f.subs["sub_1"]
	require.NotNil(t, sub)
	assert.Equal(t, "prof-1", sub.ProfileID)
	assert.Equal(t, "plan-month", sub.PlanID)
	assert.Equal(t, "cust_9", sub.ProviderCustomerID)
	assert.Equal(t, types.SubscriptionStatusActive, sub.Status)
	require.NotNil(t, sub.CurrentPeriodEnd)
	assert.Equal(t, testNow.AddDate(0, 1, 0).Unix(), sub.CurrentPeriodEnd.Unix())
}

func TestSubscriptionCheckout_ReplayCreatesExactlyOneRow(t *testing.T) {
	f := newFakeStore()
	d := newTestDispatcher(f)
	co, meta := subscriptionCheckout("sub_1")

	first := d.handleSubscriptionCheckout(context.Background(), co, meta)
	second := d.handleSubscriptionCheckout(context.Background(), co, meta)

	assert.True(t, first.Success)
	assert.True(t, second.Success)
	assert.Contains(t, second.Message, "already recorded")
	assert.Len(t, f.subs, 1)
}

func TestSubscriptionCheckout_MissingSubscriptionID(t *testing.T) {
	f := newFakeStore()
	d := newTestDispatcher(f)
	co, meta := subscriptionCheckout("")

	res := d.handleSubscriptionCheckout(context.Background(), co, meta)

	assert.False(t, res.Success)
	assert.Empty(t, f.subs)
}

func seedSubscription(f *fakeStore) {
	f.subs["sub_1"] = &models.Subscription{
		ID: "local-1", ProfileID: "prof-1", PlanID: "plan-month",
		ProviderSubscriptionID: "sub_1", Status: types.SubscriptionStatusActive,
	}
}

func TestSubscriptionUpdated_AppliesSnapshot(t *testing.T) {
	f := newFakeStore()
	seedSubscription(f)
	d := newTestDispatcher(f)

	canceledAt := testNow.Unix()
	res := d.handleSubscriptionUpdated(context.Background(), &SubscriptionData{
		SubscriptionID:    "sub_1",
		Status:            types.SubscriptionStatusActive,
		CancelAtPeriodEnd: true,
		CanceledAt:        &canceledAt,
	})

	require.True(t, res.Success, res.Error)
	sub := f.subs["sub_1"]
	assert.True(t, sub.CancelAtPeriodEnd)
	require.NotNil(t, sub.CanceledAt)
	assert.Equal(t, canceledAt, sub.CanceledAt.Unix())
}

func TestSubscriptionUpdated_UnknownSubscriptionFails(t *testing.T) {
	f := newFakeStore()
	d := newTestDispatcher(f)

	res := d.handleSubscriptionUpdated(context.Background(), &SubscriptionData{SubscriptionID: "sub_ghost"})

	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "not found")
}

func TestSubscriptionDeleted_MarksTerminal(t *testing.T) {
	f := newFakeStore()
	seedSubscription(f)
	d := newTestDispatcher(f)

	res := d.handleSubscriptionDeleted(context.Background(), &SubscriptionData{SubscriptionID: "sub_1"})

	require.True(t, res.Success)
	sub := f.subs["sub_1"]
	assert.Equal(t, types.SubscriptionStatusCanceled, sub.Status)
	require.NotNil(t, sub.EndedAt)
	assert.True(t, sub.Terminal())
}

func TestSubscriptionDeleted_MissingRowIsSuccess(t *testing.T) {
	f := newFakeStore()
	d := newTestDispatcher(f)

	res := d.handleSubscriptionDeleted(context.Background(), &SubscriptionData{SubscriptionID: "sub_ghost"})

	assert.True(t, res.Success, "already-deleted is the state the event asks for")
	assert.Contains(t, res.Message, "already gone")
}

func TestInvoicePaid_ReactivatesAndRecordsInvoice(t *testing.T) {
	f := newFakeStore()
	seedSubscription(f)
	f.subs["sub_1"].Status = types.SubscriptionStatusPastDue
	d := newTestDispatcher(f)

	start := testNow.Unix()
	end := testNow.AddDate(0, 1, 0).Unix()
	inv := &InvoiceData{
		InvoiceID: "in_1", SubscriptionID: "sub_1",
		AmountCents: 999, Currency: "usd", Paid: true,
		PeriodStart: &start, PeriodEnd: &end, PaidAt: &start,
	}

	res := d.handleInvoicePaid(context.Background(), inv)

	require.True(t, res.Success, res.Error)
	assert.Equal(t, types.SubscriptionStatusActive, f.subs["sub_1"].Status)
	require.Contains(t, f.invoices, "in_1")
	assert.Equal(t, "local-1", f.invoices["in_1"].SubscriptionID)

	// Redelivery: period converges, invoice row stays singular.
	res = d.handleInvoicePaid(context.Background(), inv)
	assert.True(t, res.Success)
	assert.Len(t, f.invoices, 1)
}

func TestInvoicePaid_UnknownSubscriptionFails(t *testing.T) {
	f := newFakeStore()
	d := newTestDispatcher(f)

	res := d.handleInvoicePaid(context.Background(), &InvoiceData{InvoiceID: "in_1", SubscriptionID: "sub_ghost"})

	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "not found")
	assert.Empty(t, f.invoices)
}

func TestInvoicePaymentFailed_FlagsPastDue(t *testing.T) {
	f := newFakeStore()
	seedSubscription(f)
	d := newTestDispatcher(f)

	res := d.handleInvoicePaymentFailed(context.Background(), &InvoiceData{InvoiceID: "in_2", SubscriptionID: "sub_1"})

	require.True(t, res.Success)
	assert.Equal(t, types.SubscriptionStatusPastDue, f.subs["sub_1"].Status)
}
