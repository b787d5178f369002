package handlers

import (
	"github.com/citypages/billing/internal/app/service/checkout"
	"github.com/citypages/billing/internal/app/service/reconcile"
	"github.com/citypages/billing/internal/app/service/statistics"
	"github.com/citypages/billing/pkg/response"
)

// RespOK is a generic OK envelope for endpoints returning no specific data.
type RespOK struct {
	Code    response.APIResponseCode `json:"code"`
	Message string                   `json:"message"`
	Data    interface{}              `json:"data"`
}

// RespWebhookResult wraps the reconciliation result in the standard envelope.
type RespWebhookResult struct {
	Code    response.APIResponseCode `json:"code"`
	Message string                   `json:"message"`
	Data    reconcile.Result         `json:"data"`
}

// RespRedirect wraps a checkout redirect in the standard envelope.
type RespRedirect struct {
	Code    response.APIResponseCode `json:"code"`
	Message string                   `json:"message"`
	Data    checkout.Redirect        `json:"data"`
}

// RespAdvertisingCheckout wraps the advertising redirect plus quote.
type RespAdvertisingCheckout struct {
	Code    response.APIResponseCode `json:"code"`
	Message string                   `json:"message"`
	Data    startAdvertisingResponse `json:"data"`
}

// RespListOrders wraps ListOrdersResponse in the standard envelope.
type RespListOrders struct {
	Code    response.APIResponseCode `json:"code"`
	Message string                   `json:"message"`
	Data    ListOrdersResponse       `json:"data"`
}

// RespListCampaigns wraps ListCampaignsResponse in the standard envelope.
type RespListCampaigns struct {
	Code    response.APIResponseCode `json:"code"`
	Message string                   `json:"message"`
	Data    ListCampaignsResponse    `json:"data"`
}

// RespStatistics wraps StatisticResponse in the standard envelope.
type RespStatistics struct {
	Code    response.APIResponseCode     `json:"code"`
	Message string                       `json:"message"`
	Data    statistics.StatisticResponse `json:"data"`
}
