package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"

	"github.com/citypages/billing/internal/app/service/entitlement"
	"github.com/citypages/billing/internal/app/service/statistics"
	"github.com/citypages/billing/internal/models"
	"github.com/citypages/billing/pkg/response"
	"github.com/citypages/billing/pkg/types"
)

type OrderItem struct {
	ID                      string            `json:"id"`
	ProfileID               string            `json:"profile_id"`
	PlanID                  string            `json:"plan_id"`
	Status                  types.OrderStatus `json:"status"`
	AmountCents             int64             `json:"amount_cents"`
	Currency                string            `json:"currency"`
	ProviderSessionID       *string           `json:"provider_session_id"`
	ProviderPaymentIntentID *string           `json:"provider_payment_intent_id"`
	PaidAt                  *time.Time        `json:"paid_at"`
	CreatedAt               time.Time         `json:"created_at"`
	UpdatedAt               time.Time         `json:"updated_at"`
}

func toOrderItem(m *models.MembershipOrder) *OrderItem {
	return &OrderItem{
		ID:                      m.ID,
		ProfileID:               m.ProfileID,
		PlanID:                  m.PlanID,
		Status:                  m.Status,
		AmountCents:             m.AmountCents,
		Currency:                m.Currency,
		ProviderSessionID:       m.ProviderSessionID,
		ProviderPaymentIntentID: m.ProviderPaymentIntentID,
		PaidAt:                  m.PaidAt,
		CreatedAt:               m.CreatedAt,
		UpdatedAt:               m.UpdatedAt,
	}
}

type ListOrdersResponse struct {
	Items []*OrderItem `json:"items"`
	Total int64        `json:"total"`
}

// @Summary      List Membership Orders (Admin)
// @Description  Retrieves a paginated and filterable list of membership orders.
// @Tags         Admin
// @Accept       json
// @Produce      json
// @Param        request body entitlement.ScanOrdersRequest true "List request with filters, pagination, and sorting"
// @Success      200  {object}  handlers.RespListOrders
// @Router       /api/v1/admin/list_membership_orders [post]
func ApiListMembershipOrders(ent *entitlement.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req entitlement.ScanOrdersRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
			return
		}
		res, err := ent.ScanOrders(c.Request.Context(), &req)
		if err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeError, err.Error()))
			return
		}
		items := lo.Map(res.Items, func(it *models.MembershipOrder, _ int) *OrderItem { return toOrderItem(it) })
		c.JSON(http.StatusOK, response.OKT(&ListOrdersResponse{Items: items, Total: res.Total}))
	}
}

type CampaignItem struct {
	ID               string               `json:"id"`
	BusinessID       string               `json:"business_id"`
	Status           types.CampaignStatus `json:"status"`
	StartAt          time.Time            `json:"start_at"`
	EndAt            time.Time            `json:"end_at"`
	DaysPurchased    int                  `json:"days_purchased"`
	TotalAmountCents int64                `json:"total_amount_cents"`
	DailyRateCents   int64                `json:"daily_rate_cents"`
	DiscountPercent  float64              `json:"discount_percent"`
	HadMembership    bool                 `json:"had_membership"`
	CreatedAt        time.Time            `json:"created_at"`
}

type ListCampaignsResponse struct {
	Items []*CampaignItem `json:"items"`
}

// @Summary      List Advertising Campaigns (Admin)
// @Description  Lists the campaigns of one business, newest first, with the expired state derived at read time.
// @Tags         Admin
// @Produce      json
// @Param        business_id query string true "Business id"
// @Success      200  {object}  handlers.RespListCampaigns
// @Router       /api/v1/admin/list_campaigns [get]
func ApiListCampaigns(ent *entitlement.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		businessID := c.Query("business_id")
		if businessID == "" {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, "missing business_id"))
			return
		}
		campaigns, err := ent.ListCampaigns(c.Request.Context(), businessID)
		if err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeError, err.Error()))
			return
		}
		now := time.Now()
		items := lo.Map(campaigns, func(m *models.AdCampaign, _ int) *CampaignItem {
			return &CampaignItem{
				ID:               m.ID,
				BusinessID:       m.BusinessID,
				Status:           m.EffectiveStatus(now),
				StartAt:          m.StartAt,
				EndAt:            m.EndAt,
				DaysPurchased:    m.DaysPurchased,
				TotalAmountCents: m.TotalAmountCents,
				DailyRateCents:   m.DailyRateCents,
				DiscountPercent:  m.DiscountPercent,
				HadMembership:    m.HadMembership,
				CreatedAt:        m.CreatedAt,
			}
		})
		c.JSON(http.StatusOK, response.OKT(&ListCampaignsResponse{Items: items}))
	}
}

// @Summary      Get Billing Statistics (Admin)
// @Description  Retrieves revenue, subscription and campaign statistics.
// @Tags         Admin
// @Accept       json
// @Produce      json
// @Param        request body statistics.StatisticRequest true "Statistic request parameters"
// @Success      200  {object}  handlers.RespStatistics
// @Router       /api/v1/admin/get_statistics [post]
func ApiGetStatistics(svc *statistics.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req statistics.StatisticRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
			return
		}
		res, err := svc.GetStatistics(c.Request.Context(), &req)
		if err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeError, err.Error()))
			return
		}
		c.JSON(http.StatusOK, response.OKT(res))
	}
}

func RegisterAdminRoutes(r gin.IRouter, ent *entitlement.Service, stats *statistics.Service) {
	r.POST("/list_membership_orders", ApiListMembershipOrders(ent))
	r.GET("/list_campaigns", ApiListCampaigns(ent))
	r.POST("/get_statistics", ApiGetStatistics(stats))
}
