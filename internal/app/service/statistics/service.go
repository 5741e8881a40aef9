package statistics

import (
	"context"
	"fmt"
	"sync"

	"github.com/samber/lo"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/bottlemart/backend/pkg/types"
)

type StatisticType string

const (
	// Daily counts and revenue
	StatisticTypeDailyOrderCount     StatisticType = "daily_order_count"
	StatisticTypeDailyRevenue        StatisticType = "daily_revenue"
	StatisticTypeTotalRevenue        StatisticType = "total_revenue"
	StatisticTypePaymentStatusCounts StatisticType = "payment_status_counts"
	StatisticTypeStalePendingCount   StatisticType = "stale_pending_count"
)

type SalesStatisticDataItem struct {
	ID StatisticType `json:"id"`
}

type SalesStatisticRequest struct {
	Filters   []*types.CommonFilter     `json:"filters"`
	DataItems []*SalesStatisticDataItem `json:"data_items"`
}

// Build composes a WHERE clause from the request filters.
func (f *SalesStatisticRequest) Build(builder clause.Builder) {
	if len(f.Filters) == 0 {
		builder.WriteString("1=1")
		return
	}
	for i, filter := range f.Filters {
		if i > 0 {
			builder.WriteString(" AND ")
		}
		filter.Build(builder)
	}
}

type SalesStatisticResponseDataItem struct {
	Date  string  `json:"date"`
	Label string  `json:"label,omitempty"`
	Value float64 `json:"value"`
}

type SalesStatisticResponse struct {
	DataItems map[StatisticType][]SalesStatisticResponseDataItem `json:"data_items"`
}

// Service computes admin dashboard statistics.
type Service struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Service { return &Service{db: db} }

func (s *Service) getDailyOrderCount(ctx context.Context, request *SalesStatisticRequest) ([]SalesStatisticResponseDataItem, error) {
	var results []SalesStatisticResponseDataItem
	q := s.db.WithContext(ctx).Table(`"order"`).
		Select("TO_CHAR(created_at, 'YYYY-MM-DD') as date, count(*) as value").
		Where(clause.Where{Exprs: []clause.Expression{request}}).
		Group("TO_CHAR(created_at, 'YYYY-MM-DD')").
		Order("date")
	if err := q.Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

// Revenue counts completed payments only; pending or refunded attempts do
// not contribute.
func (s *Service) getDailyRevenue(ctx context.Context, request *SalesStatisticRequest) ([]SalesStatisticResponseDataItem, error) {
	var results []SalesStatisticResponseDataItem
	q := s.db.WithContext(ctx).Table("payment").
		Select("TO_CHAR(processed_at, 'YYYY-MM-DD') as date, currency AS label, sum(amount) as value").
		Where("status = ?", types.PaymentStatusCompleted).
		Where(clause.Where{Exprs: []clause.Expression{request}}).
		Group("TO_CHAR(processed_at, 'YYYY-MM-DD')").
		Group("currency").
		Order(clause.OrderByColumn{Column: clause.Column{Name: "date"}, Desc: true})
	if err := q.Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (s *Service) getTotalRevenue(ctx context.Context, _ *SalesStatisticRequest) ([]SalesStatisticResponseDataItem, error) {
	var results []SalesStatisticResponseDataItem
	err := s.db.WithContext(ctx).Raw(`
WITH daily AS (
    SELECT TO_CHAR(processed_at, 'YYYY-MM-DD') as date, currency as label, SUM(amount) as value
    FROM payment
    WHERE status = ? AND processed_at IS NOT NULL
    GROUP BY TO_CHAR(processed_at, 'YYYY-MM-DD'), currency
)
SELECT d.date, d.label, SUM(s.value) as value
FROM daily d
LEFT JOIN daily s ON s.date <= d.date AND s.label = d.label
GROUP BY d.date, d.label
ORDER BY d.date DESC, d.label ASC
`, types.PaymentStatusCompleted).Scan(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}

func (s *Service) getPaymentStatusCounts(ctx context.Context, request *SalesStatisticRequest) ([]SalesStatisticResponseDataItem, error) {
	var results []SalesStatisticResponseDataItem
	q := s.db.WithContext(ctx).Table("payment").
		Select("status AS label, count(*) as value").
		Where(clause.Where{Exprs: []clause.Expression{request}}).
		Group("status").
		Order("label")
	if err := q.Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

// Stale pendings are payment attempts stuck in pending past the review
// window; the reconciliation validator flags the same pairs per order.
func (s *Service) getStalePendingCount(ctx context.Context, _ *SalesStatisticRequest) ([]SalesStatisticResponseDataItem, error) {
	var results []SalesStatisticResponseDataItem
	err := s.db.WithContext(ctx).Raw(`
SELECT count(*) as value
FROM payment p
JOIN "order" o ON o.id = p.order_id
WHERE p.status = ? AND o.payment_status = ? AND o.created_at < NOW() - INTERVAL '24 hours'
`, types.PaymentStatusPending, types.PaymentStatusPending).Scan(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}

func (s *Service) getSalesStatistic(ctx context.Context, request *SalesStatisticRequest, dataItem *SalesStatisticDataItem) ([]SalesStatisticResponseDataItem, error) {
	switch dataItem.ID {
	case StatisticTypeDailyOrderCount:
		return s.getDailyOrderCount(ctx, request)
	case StatisticTypeDailyRevenue:
		return s.getDailyRevenue(ctx, request)
	case StatisticTypeTotalRevenue:
		return s.getTotalRevenue(ctx, request)
	case StatisticTypePaymentStatusCounts:
		return s.getPaymentStatusCounts(ctx, request)
	case StatisticTypeStalePendingCount:
		return s.getStalePendingCount(ctx, request)
	default:
		return nil, fmt.Errorf("invalid data item id: %s", dataItem.ID)
	}
}

// GetSalesStatistic fans requested data items out in parallel and collects
// them into one response.
func (s *Service) GetSalesStatistic(ctx context.Context, request *SalesStatisticRequest) (*SalesStatisticResponse, error) {
	var wg sync.WaitGroup
	errChan := make(chan error, len(request.DataItems))
	resChan := make(chan *lo.Entry[StatisticType, []SalesStatisticResponseDataItem], len(request.DataItems))

	for _, item := range request.DataItems {
		wg.Add(1)
		go func(di *SalesStatisticDataItem) {
			defer wg.Done()
			res, err := s.getSalesStatistic(ctx, request, di)
			if err != nil {
				errChan <- err
				return
			}
			resChan <- &lo.Entry[StatisticType, []SalesStatisticResponseDataItem]{Key: di.ID, Value: res}
		}(item)
	}

	wg.Wait()
	close(errChan)
	close(resChan)

	for err := range errChan {
		if err != nil {
			return nil, err
		}
	}
	results := make(map[StatisticType][]SalesStatisticResponseDataItem)
	for entry := range resChan {
		results[entry.Key] = entry.Value
	}
	return &SalesStatisticResponse{DataItems: results}, nil
}
