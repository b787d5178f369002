package handlers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/citypages/billing/internal/app/service/reconcile"
	"github.com/citypages/billing/pkg/logctx"
	"github.com/citypages/billing/pkg/metrics"
	"github.com/citypages/billing/pkg/response"
	"github.com/citypages/billing/pkg/webhooksig"
)

const maxWebhookBody = 1 << 20

// @Summary      Payment processor webhook
// @Description  Receives signed payment processor events. A 200 with success=false acknowledges a business failure; only signature and decode errors return 4xx so the processor retries them.
// @Tags         Webhook
// @Accept       json
// @Produce      json
// @Param        payload body string true "Signed event payload"
// @Success      200  {object}  handlers.RespWebhookResult
// @Failure      400  {object}  handlers.RespOK
// @Router       /api/v1/billing/webhook [post]
func ApiPaymentsWebhook(d *reconcile.Dispatcher, log *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
		if err != nil {
			c.JSON(http.StatusBadRequest, response.ErrorT[any](response.APIResponseCodeBadRequest, "failed to read body"))
			return
		}

		sig, err := webhooksig.FromRequest(c.Request)
		if err != nil {
			logctx.FromGin(c, log).Warnw("webhook_missing_signature", "error", err.Error())
			metrics.CountWebhookEvent("rejected")
			c.JSON(http.StatusBadRequest, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
			return
		}

		res, err := d.Dispatch(c.Request.Context(), body, sig)
		if err != nil {
			logctx.FromGin(c, log).Warnw("webhook_rejected", "error", err.Error())
			metrics.CountWebhookEvent("rejected")
			c.JSON(http.StatusBadRequest, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
			return
		}

		if res.Success {
			metrics.CountWebhookEvent("handled")
		} else {
			metrics.CountWebhookEvent("failed")
		}
		c.JSON(http.StatusOK, response.OKT(res))
	}
}

// ApiPaymentsWebhookPing answers processor endpoint validation probes.
func ApiPaymentsWebhookPing(c *gin.Context) {
	c.JSON(http.StatusOK, response.OKT(map[string]string{"status": "ok"}))
}

func RegisterWebhookRoutes(r gin.IRouter, d *reconcile.Dispatcher, log *zap.SugaredLogger) {
	r.POST("/webhook", ApiPaymentsWebhook(d, log))
	r.GET("/webhook", ApiPaymentsWebhookPing)
}
