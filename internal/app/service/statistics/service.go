// Package statistics serves the admin revenue dashboard: settled order and
// invoice revenue, subscription growth and advertising campaign activity.
// Everything reads from the reconciled tables; nothing here mutates state.
package statistics

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/samber/lo"
	"go.uber.org/fx"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/citypages/billing/internal/models"
	"github.com/citypages/billing/pkg/types"
)

type StatisticType string

const (
	// Settled one-time membership orders.
	StatisticTypeDailyOrderCount StatisticType = "daily_order_count"

	// Revenue from settled orders and paid subscription invoices, by currency.
	StatisticTypeDailyRevenue StatisticType = "daily_revenue"
	StatisticTypeTotalRevenue StatisticType = "total_revenue"

	// Recurring membership growth.
	StatisticTypeDailyNewSubscriptionCount StatisticType = "daily_new_subscription_count"
	StatisticTypeActiveSubscriptionCount   StatisticType = "active_subscription_count"

	// Advertising campaigns.
	StatisticTypeDailyCampaignCount   StatisticType = "daily_campaign_count"
	StatisticTypeActiveCampaignCount  StatisticType = "active_campaign_count"
	StatisticTypeCampaignRevenueTotal StatisticType = "campaign_revenue_total"
)

// Filter fields with special handling or restricted applicability.
type StatisticFilterType string

const (
	StatisticFilterTypeCurrency      StatisticFilterType = "currency"
	StatisticFilterTypePlanID        StatisticFilterType = "plan_id"
	StatisticFilterTypeHadMembership StatisticFilterType = "had_membership"
)

var filterTypes = []StatisticFilterType{
	StatisticFilterTypeCurrency,
	StatisticFilterTypePlanID,
	StatisticFilterTypeHadMembership,
}

var validFilters = map[StatisticFilterType][]StatisticType{
	StatisticFilterTypeCurrency:      {StatisticTypeDailyRevenue, StatisticTypeTotalRevenue},
	StatisticFilterTypePlanID:        {StatisticTypeDailyOrderCount, StatisticTypeDailyNewSubscriptionCount},
	StatisticFilterTypeHadMembership: {StatisticTypeDailyCampaignCount, StatisticTypeCampaignRevenueTotal},
}

type StatisticDataItem struct {
	ID StatisticType `json:"id"`
}

type StatisticRequest struct {
	Filters   []*types.CommonFilter `json:"filters"`
	DataItems []*StatisticDataItem  `json:"data_items"`
}

// GetFilters keeps only the filters applicable to the given statistic.
func (f *StatisticRequest) GetFilters(statisticType StatisticType) *StatisticRequest {
	if f == nil || len(f.Filters) == 0 {
		return f
	}
	var result StatisticRequest
	for _, filter := range f.Filters {
		if statisticTypes, ok := validFilters[StatisticFilterType(filter.Field)]; ok {
			if lo.Contains(statisticTypes, statisticType) {
				result.Filters = append(result.Filters, filter)
			}
		} else {
			result.Filters = append(result.Filters, filter)
		}
	}
	return &result
}

// Build composes a WHERE clause from the filters, with custom handling for
// had_membership which is a real boolean column rather than a string match.
func (f *StatisticRequest) Build(builder clause.Builder) {
	if len(f.Filters) == 0 {
		builder.WriteString("1=1")
		return
	}
	for i, filter := range f.Filters {
		if i > 0 {
			builder.WriteString(" AND ")
		}
		switch filter.Field {
		case string(StatisticFilterTypeHadMembership):
			if len(filter.Values) > 0 && fmt.Sprint(filter.Values[0]) == "true" {
				builder.WriteString("had_membership = true")
			} else {
				builder.WriteString("had_membership = false")
			}
		default:
			filter.Build(builder)
		}
	}
}

type StatisticResponseDataItem struct {
	Date  string `json:"date"`
	Label string `json:"label,omitempty"`
	Value int64  `json:"value"`
}

type StatisticResponse struct {
	DataItems map[StatisticType][]StatisticResponseDataItem `json:"data_items"`
}

type Service struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Service { return &Service{db: db} }

func (s *Service) getDailyOrderCount(ctx context.Context, request *StatisticRequest) ([]StatisticResponseDataItem, error) {
	var results []StatisticResponseDataItem
	q := s.db.WithContext(ctx).Table((models.MembershipOrder{}).TableName()).
		Select("TO_CHAR(paid_at, 'YYYY-MM-DD') as date, count(*) as value").
		Where("status = ?", types.OrderStatusPaid).
		Where(clause.Where{Exprs: []clause.Expression{request.GetFilters(StatisticTypeDailyOrderCount)}}).
		Group("TO_CHAR(paid_at, 'YYYY-MM-DD')").
		Order("date")
	if err := q.Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (s *Service) getDailyRevenue(ctx context.Context, request *StatisticRequest) ([]StatisticResponseDataItem, error) {
	var results []StatisticResponseDataItem
	q := s.db.WithContext(ctx).Table(`(
SELECT paid_at, currency, amount_cents FROM membership_order WHERE status = 'paid' AND paid_at IS NOT NULL
UNION ALL
SELECT paid_at, currency, amount_cents FROM subscription_invoice WHERE paid AND paid_at IS NOT NULL
) settled`).
		Select("TO_CHAR(paid_at, 'YYYY-MM-DD') as date, currency AS label, sum(amount_cents) as value").
		Where(clause.Where{Exprs: []clause.Expression{request.GetFilters(StatisticTypeDailyRevenue)}}).
		Group("TO_CHAR(paid_at, 'YYYY-MM-DD')").
		Group("currency").
		Order(clause.OrderByColumn{Column: clause.Column{Name: "date"}, Desc: true})
	if err := q.Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (s *Service) getTotalRevenue(ctx context.Context, _ *StatisticRequest) ([]StatisticResponseDataItem, error) {
	var results []StatisticResponseDataItem
	err := s.db.WithContext(ctx).Raw(`
WITH settled AS (
    SELECT paid_at, currency, amount_cents FROM membership_order WHERE status = 'paid' AND paid_at IS NOT NULL
    UNION ALL
    SELECT paid_at, currency, amount_cents FROM subscription_invoice WHERE paid AND paid_at IS NOT NULL
),
min_max_dates AS (
    SELECT MIN(DATE(paid_at)) as min_date, MAX(DATE(paid_at)) as max_date FROM settled
),
distinct_dates AS (
    SELECT generate_series(min_date, max_date, '1 day'::interval) as date FROM min_max_dates
),
dates AS (
    SELECT TO_CHAR(date, 'YYYY-MM-DD') as date FROM distinct_dates
),
currencies AS (
    SELECT DISTINCT currency as label FROM settled
),
date_currency_combinations AS (
    SELECT d.date, c.label FROM dates d CROSS JOIN currencies c
),
revenue_date AS (
    SELECT dc.date, dc.label, COALESCE(SUM(t.amount_cents), 0) as value
    FROM date_currency_combinations dc
    LEFT JOIN settled t
      ON TO_CHAR(t.paid_at, 'YYYY-MM-DD') = dc.date
     AND t.currency = dc.label
    GROUP BY dc.date, dc.label
)
SELECT d.date as date, d.label as label, SUM(s.value) as value
FROM revenue_date d
LEFT JOIN revenue_date s ON s.date <= d.date AND s.label = d.label
GROUP BY d.date, d.label
ORDER BY d.date DESC, d.label ASC
`).Scan(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}

func (s *Service) getDailyNewSubscriptionCount(ctx context.Context, request *StatisticRequest) ([]StatisticResponseDataItem, error) {
	var results []StatisticResponseDataItem
	q := s.db.WithContext(ctx).Table((models.Subscription{}).TableName()).
		Select("TO_CHAR(created_at, 'YYYY-MM-DD') as date, count(*) as value").
		Where(clause.Where{Exprs: []clause.Expression{request.GetFilters(StatisticTypeDailyNewSubscriptionCount)}}).
		Group("TO_CHAR(created_at, 'YYYY-MM-DD')").
		Order("date")
	if err := q.Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (s *Service) getActiveSubscriptionCount(ctx context.Context, _ *StatisticRequest) ([]StatisticResponseDataItem, error) {
	var results []StatisticResponseDataItem
	q := s.db.WithContext(ctx).Table((models.Subscription{}).TableName()).
		Select("count(*) as value").
		Where("status IN ?", []types.SubscriptionStatus{types.SubscriptionStatusActive, types.SubscriptionStatusTrialing})
	if err := q.Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (s *Service) getDailyCampaignCount(ctx context.Context, request *StatisticRequest) ([]StatisticResponseDataItem, error) {
	var results []StatisticResponseDataItem
	q := s.db.WithContext(ctx).Table((models.AdCampaign{}).TableName()).
		Select("TO_CHAR(created_at, 'YYYY-MM-DD') as date, count(*) as value").
		Where(clause.Where{Exprs: []clause.Expression{request.GetFilters(StatisticTypeDailyCampaignCount)}}).
		Group("TO_CHAR(created_at, 'YYYY-MM-DD')").
		Order("date")
	if err := q.Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (s *Service) getActiveCampaignCount(ctx context.Context, _ *StatisticRequest) ([]StatisticResponseDataItem, error) {
	var results []StatisticResponseDataItem
	q := s.db.WithContext(ctx).Table((models.AdCampaign{}).TableName()).
		Select("count(*) as value").
		Where("status IN ?", []types.CampaignStatus{types.CampaignStatusActive, types.CampaignStatusPendingPayment}).
		Where("end_at > ?", time.Now())
	if err := q.Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (s *Service) getCampaignRevenueTotal(ctx context.Context, request *StatisticRequest) ([]StatisticResponseDataItem, error) {
	var results []StatisticResponseDataItem
	q := s.db.WithContext(ctx).Table((models.AdCampaign{}).TableName()).
		Select("sum(total_amount_cents) as value").
		Where("status <> ?", types.CampaignStatusCancelled).
		Where(clause.Where{Exprs: []clause.Expression{request.GetFilters(StatisticTypeCampaignRevenueTotal)}})
	if err := q.Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (s *Service) getStatistic(ctx context.Context, request *StatisticRequest, dataItem *StatisticDataItem) ([]StatisticResponseDataItem, error) {
	switch dataItem.ID {
	case StatisticTypeDailyOrderCount:
		return s.getDailyOrderCount(ctx, request)
	case StatisticTypeDailyRevenue:
		return s.getDailyRevenue(ctx, request)
	case StatisticTypeTotalRevenue:
		return s.getTotalRevenue(ctx, request)
	case StatisticTypeDailyNewSubscriptionCount:
		return s.getDailyNewSubscriptionCount(ctx, request)
	case StatisticTypeActiveSubscriptionCount:
		return s.getActiveSubscriptionCount(ctx, request)
	case StatisticTypeDailyCampaignCount:
		return s.getDailyCampaignCount(ctx, request)
	case StatisticTypeActiveCampaignCount:
		return s.getActiveCampaignCount(ctx, request)
	case StatisticTypeCampaignRevenueTotal:
		return s.getCampaignRevenueTotal(ctx, request)
	default:
		return nil, fmt.Errorf("invalid data item id: %s", dataItem.ID)
	}
}

// GetStatistics resolves every requested data item concurrently. A filter
// that does not apply to a data item yields a nil series for it rather than
// an error.
func (s *Service) GetStatistics(ctx context.Context, request *StatisticRequest) (*StatisticResponse, error) {
	var wg sync.WaitGroup
	errChan := make(chan error, len(request.DataItems))
	resChan := make(chan *lo.Entry[StatisticType, []StatisticResponseDataItem], len(request.DataItems))

	for _, item := range request.DataItems {
		wg.Add(1)
		go func(di *StatisticDataItem) {
			defer wg.Done()
			for _, filter := range request.Filters {
				ft := StatisticFilterType(filter.Field)
				if lo.Contains(filterTypes, ft) && !lo.Contains(validFilters[ft], di.ID) {
					resChan <- &lo.Entry[StatisticType, []StatisticResponseDataItem]{Key: di.ID, Value: nil}
					return
				}
			}
			res, err := s.getStatistic(ctx, request, di)
			if err != nil {
				errChan <- err
				return
			}
			resChan <- &lo.Entry[StatisticType, []StatisticResponseDataItem]{Key: di.ID, Value: res}
		}(item)
	}

	go func() { wg.Wait(); close(errChan); close(resChan) }()

	results := make(map[StatisticType][]StatisticResponseDataItem)
	for i := 0; i < len(request.DataItems); i++ {
		select {
		case err := <-errChan:
			if err != nil {
				return nil, err
			}
		case entry := <-resChan:
			results[entry.Key] = entry.Value
		}
	}
	return &StatisticResponse{DataItems: results}, nil
}

var Module = fx.Options(
	fx.Provide(New),
)
