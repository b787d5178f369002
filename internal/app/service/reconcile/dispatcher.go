// Package reconcile applies processor webhook events to entitlement state.
// Delivery is at-least-once, so every handler is idempotent: replays resolve
// to success no-ops instead of double-applied mutations.
package reconcile

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/citypages/billing/internal/models"
	"github.com/citypages/billing/pkg/config"
	"github.com/citypages/billing/pkg/logctx"
	"github.com/citypages/billing/pkg/types"
	"github.com/citypages/billing/pkg/webhooksig"
)

// Journal receives one row per delivery phase. *eventlog.Service satisfies
// it.
type Journal interface {
	Save(ctx context.Context, entry *models.WebhookEventLog)
}

type Dispatcher struct {
	cfg     *config.Config
	store   Store
	journal Journal
	log     *zap.SugaredLogger

	// now is swappable for tests.
	now func() time.Time
}

func NewDispatcher(cfg *config.Config, store Store, journal Journal, log *zap.SugaredLogger) *Dispatcher {
	return &Dispatcher{cfg: cfg, store: store, journal: journal, log: log, now: time.Now}
}

// Dispatch verifies, classifies and routes one webhook delivery.
//
// A non-nil error means the delivery was rejected before any handler ran
// (bad signature, undecodable body) and maps to a client-error response.
// Everything past verification comes back as a Result the transport
// acknowledges with 200 regardless of Success, so the processor does not
// retry business failures.
func (d *Dispatcher) Dispatch(ctx context.Context, body []byte, sig webhooksig.Headers) (Result, error) {
	if err := webhooksig.Verify(d.cfg.Payments.WebhookSecret, body, sig, d.cfg.Payments.SignatureMaxAge); err != nil {
		return Result{}, err
	}

	ev, err := ParseEvent(body)
	if err != nil {
		return Result{}, err
	}

	log := logctx.FromCtx(ctx, d.log).With("event_id", ev.ID, "event_type", ev.Type)
	log.Infow("webhook_event_received")

	traceID, _ := ctx.Value("traceID").(string)
	d.journal.Save(ctx, &models.WebhookEventLog{
		EventID:   ev.ID,
		EventType: string(ev.Type),
		TraceID:   traceID,
		Payload:   datatypes.JSON(body),
		Status:    models.WebhookEventLogStatusReceived,
	})

	res := d.route(ctx, ev)

	status := models.WebhookEventLogStatusHandled
	if !res.Success {
		status = models.WebhookEventLogStatusHandleFailed
		log.Errorw("webhook_event_failed", "error", res.Error)
	} else {
		log.Infow("webhook_event_handled", "message", res.Message)
	}
	resBytes, _ := json.Marshal(res)
	resJSON := datatypes.JSON(resBytes)
	d.journal.Save(ctx, &models.WebhookEventLog{
		EventID:     ev.ID,
		EventType:   string(ev.Type),
		ProductType: productTypeOf(ev),
		TraceID:     traceID,
		Payload:     datatypes.JSON(body),
		Result:      &resJSON,
		Status:      status,
	})

	return res, nil
}

// route matches the two-level union: outer event type, then product type for
// checkout completions. Exactly one handler runs per delivery.
func (d *Dispatcher) route(ctx context.Context, ev *Event) Result {
	switch ev.Type {
	case types.EventTypeCheckoutCompleted:
		return d.routeCheckoutCompleted(ctx, ev.Checkout)
	case types.EventTypeCheckoutExpired:
		return d.handleCheckoutExpired(ctx, ev.Checkout)
	case types.EventTypeSubscriptionUpdated:
		return d.handleSubscriptionUpdated(ctx, ev.Subscription)
	case types.EventTypeSubscriptionDeleted:
		return d.handleSubscriptionDeleted(ctx, ev.Subscription)
	case types.EventTypeInvoicePaid:
		return d.handleInvoicePaid(ctx, ev.Invoice)
	case types.EventTypeInvoicePaymentFailed:
		return d.handleInvoicePaymentFailed(ctx, ev.Invoice)
	default:
		// Acknowledged untouched so the processor stops redelivering.
		return okf("event type %s not handled", ev.Type)
	}
}

func (d *Dispatcher) routeCheckoutCompleted(ctx context.Context, co *CheckoutData) Result {
	if co.PaymentStatus != "" && co.PaymentStatus != "paid" {
		return okf("checkout %s not paid (%s); nothing to reconcile", co.SessionID, co.PaymentStatus)
	}

	meta, err := ParseProductMeta(co.Metadata)
	if err != nil {
		return failErr("invalid session metadata", err)
	}

	switch m := meta.(type) {
	case *MembershipMeta:
		return d.handleMembershipCheckout(ctx, co, m)
	case *SubscriptionMeta:
		return d.handleSubscriptionCheckout(ctx, co, m)
	case *AdvertisingMeta:
		return d.handleAdvertisingCheckout(ctx, co, m)
	default:
		return okf("checkout %s sold an unmanaged product; nothing to reconcile", co.SessionID)
	}
}

// handleCheckoutExpired closes out abandoned membership orders. Sessions for
// other products keep no pending state, so there is nothing to fail.
func (d *Dispatcher) handleCheckoutExpired(ctx context.Context, co *CheckoutData) Result {
	meta, err := ParseProductMeta(co.Metadata)
	if err != nil {
		return failErr("invalid session metadata", err)
	}
	m, ok := meta.(*MembershipMeta)
	if !ok {
		return okf("expired checkout %s carried no pending state", co.SessionID)
	}
	changed, err := d.store.MarkOrderFailed(ctx, m.OrderID)
	if err != nil {
		return failErr("failed to mark order failed", err)
	}
	if !changed {
		return okf("order %s already settled", m.OrderID)
	}
	return okf("order %s marked failed after checkout expiry", m.OrderID)
}

func productTypeOf(ev *Event) string {
	if ev.Checkout == nil {
		return ""
	}
	return ev.Checkout.Metadata[MetaProductType]
}
