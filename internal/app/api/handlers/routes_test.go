package handlers

import (
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func routeSet(r *gin.Engine) map[string]bool {
	set := map[string]bool{}
	for _, rt := range r.Routes() {
		set[rt.Method+" "+rt.Path] = true
	}
	return set
}

func TestRegisterWebhookRoutes_RegistersEndpoints(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	RegisterWebhookRoutes(r.Group("/api/v1/billing"), nil, nil)

	routes := routeSet(r)
	require.True(t, routes["POST /api/v1/billing/webhook"])
	require.True(t, routes["GET /api/v1/billing/webhook"])
}

func TestRegisterCheckoutRoutes_RegistersEndpoints(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	RegisterCheckoutRoutes(r.Group("/api/v1/checkout"), nil)

	routes := routeSet(r)
	require.True(t, routes["POST /api/v1/checkout/membership"])
	require.True(t, routes["POST /api/v1/checkout/subscription"])
	require.True(t, routes["POST /api/v1/checkout/advertising"])
}

func TestRegisterAdminRoutes_RegistersEndpoints(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	RegisterAdminRoutes(r.Group("/api/v1/admin"), nil, nil)

	routes := routeSet(r)
	require.True(t, routes["POST /api/v1/admin/list_membership_orders"])
	require.True(t, routes["GET /api/v1/admin/list_campaigns"])
	require.True(t, routes["POST /api/v1/admin/get_statistics"])
}
