package entitlement

import (
	"context"
	"fmt"

	"gorm.io/gorm/clause"

	"github.com/citypages/billing/internal/models"
	"github.com/citypages/billing/pkg/types"
)

// ScanOrdersRequest pages membership orders for admin list views.
type ScanOrdersRequest struct {
	Filters   []*types.CommonFilter `json:"filters"`
	From      int                   `json:"from"`
	Size      int                   `json:"size"`
	SortBy    string                `json:"sort_by"`
	SortOrder string                `json:"sort_order"`
}

type ScanOrdersResponse struct {
	Items []*models.MembershipOrder `json:"items"`
	Total int64                     `json:"total"`
}

// filtersWhere combines a list of filters into a single clause.Expression.
type filtersWhere struct{ filters []*types.CommonFilter }

func (w filtersWhere) Build(builder clause.Builder) {
	if len(w.filters) == 0 {
		builder.WriteString("1=1")
		return
	}
	for i, f := range w.filters {
		if i > 0 {
			builder.WriteString(" AND ")
		}
		f.Build(builder)
	}
}

var orderSortColumns = map[string]bool{
	"created_at":   true,
	"paid_at":      true,
	"amount_cents": true,
	"status":       true,
}

func (s *Service) ScanOrders(ctx context.Context, req *ScanOrdersRequest) (*ScanOrdersResponse, error) {
	size := req.Size
	if size <= 0 || size > 200 {
		size = 50
	}

	sortBy := req.SortBy
	if !orderSortColumns[sortBy] {
		sortBy = "created_at"
	}
	order := "desc"
	if req.SortOrder == "asc" {
		order = "asc"
	}

	q := s.db.WithContext(ctx).Model(&models.MembershipOrder{}).
		Clauses(clause.Where{Exprs: []clause.Expression{filtersWhere{filters: req.Filters}}})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count orders: %w", err)
	}

	var items []*models.MembershipOrder
	if err := q.Order(fmt.Sprintf("%s %s", sortBy, order)).
		Offset(req.From).Limit(size).
		Find(&items).Error; err != nil {
		return nil, fmt.Errorf("failed to scan orders: %w", err)
	}

	return &ScanOrdersResponse{Items: items, Total: total}, nil
}
