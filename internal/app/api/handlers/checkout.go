package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/citypages/billing/internal/app/service/checkout"
	"github.com/citypages/billing/pkg/response"
)

func checkoutErrCode(err error) response.APIResponseCode {
	switch {
	case errors.Is(err, checkout.ErrProfileNotFound),
		errors.Is(err, checkout.ErrPlanNotFound),
		errors.Is(err, checkout.ErrInvalidDays):
		return response.APIResponseCodeBadRequest
	default:
		return response.APIResponseCodeError
	}
}

// @Summary      Start membership checkout
// @Description  Creates a pending membership order and a one-time payment session; returns the redirect URL.
// @Tags         Checkout
// @Accept       json
// @Produce      json
// @Param        request body checkout.StartMembershipRequest true "Membership checkout request"
// @Success      200  {object}  handlers.RespRedirect
// @Router       /api/v1/checkout/membership [post]
func ApiStartMembershipCheckout(svc *checkout.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req checkout.StartMembershipRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
			return
		}
		redirect, err := svc.StartMembership(c.Request.Context(), &req)
		if err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](checkoutErrCode(err), err.Error()))
			return
		}
		c.JSON(http.StatusOK, response.OKT(redirect))
	}
}

// @Summary      Start subscription checkout
// @Description  Opens a subscription-mode payment session for a recurring plan.
// @Tags         Checkout
// @Accept       json
// @Produce      json
// @Param        request body checkout.StartSubscriptionRequest true "Subscription checkout request"
// @Success      200  {object}  handlers.RespRedirect
// @Router       /api/v1/checkout/subscription [post]
func ApiStartSubscriptionCheckout(svc *checkout.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req checkout.StartSubscriptionRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
			return
		}
		redirect, err := svc.StartSubscription(c.Request.Context(), &req)
		if err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](checkoutErrCode(err), err.Error()))
			return
		}
		c.JSON(http.StatusOK, response.OKT(redirect))
	}
}

type startAdvertisingResponse struct {
	Redirect *checkout.Redirect         `json:"redirect"`
	Quote    *checkout.AdvertisingQuote `json:"quote"`
}

// @Summary      Start advertising checkout
// @Description  Prices a pay-per-day campaign purchase, applying the member discount when the buyer holds an active membership, and opens a payment session.
// @Tags         Checkout
// @Accept       json
// @Produce      json
// @Param        request body checkout.StartAdvertisingRequest true "Advertising checkout request"
// @Success      200  {object}  handlers.RespAdvertisingCheckout
// @Router       /api/v1/checkout/advertising [post]
func ApiStartAdvertisingCheckout(svc *checkout.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req checkout.StartAdvertisingRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
			return
		}
		redirect, quote, err := svc.StartAdvertising(c.Request.Context(), &req)
		if err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](checkoutErrCode(err), err.Error()))
			return
		}
		c.JSON(http.StatusOK, response.OKT(&startAdvertisingResponse{Redirect: redirect, Quote: quote}))
	}
}

func RegisterCheckoutRoutes(r gin.IRouter, svc *checkout.Service) {
	r.POST("/membership", ApiStartMembershipCheckout(svc))
	r.POST("/subscription", ApiStartSubscriptionCheckout(svc))
	r.POST("/advertising", ApiStartAdvertisingCheckout(svc))
}
