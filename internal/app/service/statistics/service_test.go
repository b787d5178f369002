package statistics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/citypages/billing/pkg/types"
)

func TestGetFilters_KeepsOnlyApplicable(t *testing.T) {
	req := &StatisticRequest{
		Filters: []*types.CommonFilter{
			{Field: "currency", Values: []any{"usd"}},
			{Field: "plan_id", Values: []any{"plan-month"}},
			{Field: "created_at", Values: []any{"2025-01-01"}, Operator: types.CommonFilterOperatorGte},
		},
	}

	revenue := req.GetFilters(StatisticTypeDailyRevenue)
	require.Len(t, revenue.Filters, 2)
	assert.Equal(t, "currency", revenue.Filters[0].Field)
	assert.Equal(t, "created_at", revenue.Filters[1].Field)

	orders := req.GetFilters(StatisticTypeDailyOrderCount)
	require.Len(t, orders.Filters, 2)
	assert.Equal(t, "plan_id", orders.Filters[0].Field)
}

func TestGetFilters_NilAndEmptyPassThrough(t *testing.T) {
	var nilReq *StatisticRequest
	assert.Nil(t, nilReq.GetFilters(StatisticTypeDailyRevenue))

	empty := &StatisticRequest{}
	assert.Equal(t, empty, empty.GetFilters(StatisticTypeDailyRevenue))
}
