package eventlog

import (
	"context"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/bottlemart/backend/internal/models"
	"github.com/bottlemart/backend/pkg/logctx"
	"github.com/bottlemart/backend/pkg/tool"
)

// Service persists the gateway event audit trail. The unique
// (gateway, event_id) index on the table is what makes webhook ingestion
// idempotent, so Record must run synchronously on the webhook path.
type Service struct {
	db  *gorm.DB
	log *zap.SugaredLogger
}

func New(db *gorm.DB, log *zap.SugaredLogger) *Service { return &Service{db: db, log: log} }

// Record inserts an event log row. Returns the row and false when an event
// with the same (gateway, event_id) was already recorded.
func (s *Service) Record(ctx context.Context, e *models.PaymentEventLog) (*models.PaymentEventLog, bool, error) {
	if e.ID == "" {
		e.ID = tool.GenerateUUIDV7()
	}
	if e.Status == "" {
		e.Status = models.PaymentEventLogStatusReceived
	}
	res := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "gateway"}, {Name: "event_id"}},
			DoNothing: true,
		}).Create(e)
	if res.Error != nil {
		return nil, false, res.Error
	}
	if res.RowsAffected == 0 {
		return e, false, nil
	}
	return e, true, nil
}

// MarkHandled records the outcome of a successfully processed event.
func (s *Service) MarkHandled(ctx context.Context, id string, result []byte) {
	s.update(ctx, id, models.PaymentEventLogStatusHandled, result)
}

// MarkDiscarded records an event dropped by the dedupe or soft-fail rules.
func (s *Service) MarkDiscarded(ctx context.Context, id string, result []byte) {
	s.update(ctx, id, models.PaymentEventLogStatusDiscarded, result)
}

// MarkFailed records a processing failure; the gateway will redeliver.
func (s *Service) MarkFailed(ctx context.Context, id string, result []byte) {
	s.update(ctx, id, models.PaymentEventLogStatusHandleFailed, result)
}

// Outcome updates run asynchronously: they are audit-only and must not delay
// or fail the webhook response. The write is detached from the request
// context so it still lands after the caller has answered the gateway; only
// the trace values are carried over.
func (s *Service) update(ctx context.Context, id string, status models.PaymentEventLogStatus, result []byte) {
	detached := context.WithoutCancel(ctx)
	go func() {
		wctx, cancel := context.WithTimeout(detached, 10*time.Second)
		defer cancel()

		updates := map[string]any{"status": status}
		if len(result) > 0 {
			updates["result"] = result
		}
		if err := s.db.WithContext(wctx).Model(&models.PaymentEventLog{}).
			Where("id = ?", id).Updates(updates).Error; err != nil {
			logctx.FromCtx(wctx, s.log).Errorf("failed to update event log %s: %v", id, err)
		}
	}()
}
