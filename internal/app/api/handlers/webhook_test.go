package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/citypages/billing/internal/app/service/entitlement"
	"github.com/citypages/billing/internal/app/service/reconcile"
	"github.com/citypages/billing/internal/models"
	"github.com/citypages/billing/pkg/config"
	"github.com/citypages/billing/pkg/webhooksig"
)

// stubStore satisfies reconcile.Store; the cases below never reach it.
type stubStore struct{}

func (stubStore) GetProfile(context.Context, string) (*models.Profile, error) { panic("not used") }
func (stubStore) UpdateProfileMembership(context.Context, string, string, time.Time, time.Time) error {
	panic("not used")
}
func (stubStore) GetOrder(context.Context, string) (*models.MembershipOrder, error) {
	panic("not used")
}
func (stubStore) MarkOrderPaid(context.Context, string, string, time.Time) (bool, error) {
	panic("not used")
}
func (stubStore) MarkOrderFailed(context.Context, string) (bool, error) { panic("not used") }
func (stubStore) GetPlan(context.Context, string) (*models.SubscriptionPlan, error) {
	panic("not used")
}
func (stubStore) GetSubscriptionByProviderID(context.Context, string) (*models.Subscription, error) {
	panic("not used")
}
func (stubStore) CreateSubscription(context.Context, *models.Subscription) error { panic("not used") }
func (stubStore) UpdateSubscriptionByProviderID(context.Context, string, entitlement.SubscriptionUpdate) (bool, error) {
	panic("not used")
}
func (stubStore) CreateInvoice(context.Context, *models.SubscriptionInvoice) error {
	panic("not used")
}
func (stubStore) GetActiveCampaign(context.Context, string, time.Time) (*models.AdCampaign, error) {
	panic("not used")
}
func (stubStore) CreateCampaign(context.Context, *models.AdCampaign) error { panic("not used") }
func (stubStore) ExtendCampaign(context.Context, string, entitlement.CampaignExtension) (bool, error) {
	panic("not used")
}

type noopJournal struct{}

func (noopJournal) Save(context.Context, *models.WebhookEventLog) {}

func newWebhookRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	cfg := &config.Config{}
	cfg.Payments.WebhookSecret = "whsec_test"
	cfg.Payments.SignatureMaxAge = 5 * time.Minute
	d := reconcile.NewDispatcher(cfg, stubStore{}, noopJournal{}, zap.NewNop().Sugar())

	r := gin.New()
	RegisterWebhookRoutes(r.Group("/api/v1/billing"), d, zap.NewNop().Sugar())
	return r
}

func postWebhook(r *gin.Engine, body []byte, sign bool) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/billing/webhook", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if sign {
		h := webhooksig.Sign("whsec_test", body, time.Now())
		req.Header.Set(webhooksig.HeaderSignature, h.Signature)
		req.Header.Set(webhooksig.HeaderTimestamp, strconv.FormatInt(h.Timestamp, 10))
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestApiPaymentsWebhook_UnknownEventAcked(t *testing.T) {
	r := newWebhookRouter(t)
	body, _ := json.Marshal(map[string]any{"id": "evt_1", "type": "charge.refunded", "data": map[string]any{}})

	w := postWebhook(r, body, true)

	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"success":true`)
}

func TestApiPaymentsWebhook_MissingSignatureRejected(t *testing.T) {
	r := newWebhookRouter(t)
	body, _ := json.Marshal(map[string]any{"id": "evt_1", "type": "charge.refunded", "data": map[string]any{}})

	w := postWebhook(r, body, false)

	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestApiPaymentsWebhook_BadSignatureRejected(t *testing.T) {
	r := newWebhookRouter(t)
	body, _ := json.Marshal(map[string]any{"id": "evt_1", "type": "charge.refunded", "data": map[string]any{}})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/billing/webhook", bytes.NewReader(body))
	req.Header.Set(webhooksig.HeaderSignature, "deadbeef")
	req.Header.Set(webhooksig.HeaderTimestamp, strconv.FormatInt(time.Now().Unix(), 10))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestApiPaymentsWebhook_MalformedBodyRejected(t *testing.T) {
	r := newWebhookRouter(t)

	w := postWebhook(r, []byte("{oops"), true)

	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestApiPaymentsWebhookPing(t *testing.T) {
	r := newWebhookRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/billing/webhook", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
}
