package reconcile

import (
	"context"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/bottlemart/backend/internal/models"
	"github.com/bottlemart/backend/pkg/logctx"
)

// Service runs the validator over order lists, resolving each order's
// current payment attempt from storage.
type Service struct {
	db  *gorm.DB
	log *zap.SugaredLogger
}

func NewService(db *gorm.DB, log *zap.SugaredLogger) *Service {
	return &Service{db: db, log: log}
}

type AnnotatedOrder struct {
	Order   *models.Order   `json:"order"`
	Payment *models.Payment `json:"payment,omitempty"`
	Check   Result          `json:"check"`
}

// Annotate pairs each order with its current payment attempt and validates
// the pair. Orders are returned in input order.
func (s *Service) Annotate(ctx context.Context, orders []*models.Order) ([]*AnnotatedOrder, error) {
	if len(orders) == 0 {
		return []*AnnotatedOrder{}, nil
	}

	ids := make([]string, 0, len(orders))
	for _, o := range orders {
		ids = append(ids, o.ID)
	}

	// Latest attempt per order wins; rows arrive oldest-first so later
	// rows overwrite earlier ones in the map.
	var payments []*models.Payment
	if err := s.db.WithContext(ctx).
		Where("order_id IN ?", ids).
		Order("created_at ASC").Find(&payments).Error; err != nil {
		return nil, err
	}
	current := make(map[string]*models.Payment, len(payments))
	for _, p := range payments {
		current[p.OrderID] = p
	}

	now := time.Now()
	out := make([]*AnnotatedOrder, 0, len(orders))
	for _, o := range orders {
		p := current[o.ID]
		check := Validate(o, p, now)
		if !check.Valid {
			logctx.FromCtx(ctx, s.log).Warnw("order_payment_inconsistency",
				"order_id", o.ID, "reason", check.Reason, "details", check.Details)
		}
		out = append(out, &AnnotatedOrder{Order: o, Payment: p, Check: check})
	}
	return out, nil
}

// FilterValid drops inconsistent pairs; used on the buyer-facing list where
// broken orders are hidden rather than explained.
func (s *Service) FilterValid(ctx context.Context, orders []*models.Order) ([]*models.Order, error) {
	annotated, err := s.Annotate(ctx, orders)
	if err != nil {
		return nil, err
	}
	out := make([]*models.Order, 0, len(annotated))
	for _, a := range annotated {
		if a.Check.Valid {
			out = append(out, a.Order)
		}
	}
	return out, nil
}
