package webhook

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/bottlemart/backend/internal/app/service/payment"
	"github.com/bottlemart/backend/internal/models"
	"github.com/bottlemart/backend/internal/platform/gateway"
	"github.com/bottlemart/backend/pkg/logctx"
	"github.com/bottlemart/backend/pkg/types"
)

// eventHandler maps one verified gateway event onto a payment transition.
type eventHandler func(ctx context.Context, e *gateway.Event) (*payment.ApplyResult, error)

// Applier is the slice of the payment service the pipeline drives: the
// transition writer plus the gateway client used for signature checks.
type Applier interface {
	Apply(ctx context.Context, in payment.ApplyInput) (*payment.ApplyResult, error)
	Gateway() gateway.Client
}

// EventJournal is the audit trail the pipeline dedupes against and records
// delivery outcomes to.
type EventJournal interface {
	Record(ctx context.Context, e *models.PaymentEventLog) (*models.PaymentEventLog, bool, error)
	MarkHandled(ctx context.Context, id string, result []byte)
	MarkDiscarded(ctx context.Context, id string, result []byte)
	MarkFailed(ctx context.Context, id string, result []byte)
}

// Service is the webhook ingestion pipeline: verify signature, dedupe on
// (gateway, event_id), dispatch to the registered handler, and answer so the
// gateway stops or retries delivery appropriately.
type Service struct {
	log      *zap.SugaredLogger
	payments Applier
	events   EventJournal
	handlers map[string]eventHandler
}

func NewService(log *zap.SugaredLogger, payments Applier, events EventJournal) *Service {
	s := &Service{log: log, payments: payments, events: events}
	s.handlers = map[string]eventHandler{
		gateway.EventPaymentSucceeded:      s.applyStatus(types.PaymentStatusCompleted),
		gateway.EventPaymentFailed:         s.applyStatus(types.PaymentStatusFailed),
		gateway.EventPaymentCanceled:       s.applyStatus(types.PaymentStatusCanceled),
		gateway.EventPaymentRequiresAction: s.applyStatus(types.PaymentStatusRequiresAction),
	}
	return s
}

// Process ingests one raw webhook delivery.
//
// Error contract for the HTTP handler: gateway.ErrInvalidSignature means the
// payload is untrusted (400, no retry); any other error is a transient
// processing failure (5xx, the gateway redelivers); nil means acknowledged
// (200), including duplicates and events we deliberately discard.
func (s *Service) Process(ctx context.Context, sigHeader string, body []byte, traceID string) error {
	if traceID == "" {
		traceID = logctx.TraceID(ctx)
	}
	e, err := s.payments.Gateway().VerifyWebhook(sigHeader, body)
	if err != nil {
		logctx.FromCtx(ctx, s.log).Warnw("webhook_rejected", "error", err)
		return fmt.Errorf("%w: %v", gateway.ErrInvalidSignature, err)
	}

	entry, inserted, err := s.events.Record(ctx, &models.PaymentEventLog{
		Gateway:       s.payments.Gateway().Name(),
		EventID:       e.ID,
		EventType:     e.Type,
		TransactionID: e.TransactionID,
		TraceID:       traceID,
		EventTime:     e.Created,
		Data:          datatypes.JSON(e.Raw),
		Status:        models.PaymentEventLogStatusReceived,
	})
	if err != nil {
		// Without the audit row we cannot dedupe; force a redelivery.
		return fmt.Errorf("failed to record webhook event: %w", err)
	}
	if !inserted {
		logctx.FromCtx(ctx, s.log).Infow("webhook_duplicate", "event_id", e.ID, "type", e.Type)
		return nil
	}

	handler, ok := s.handlers[e.Type]
	if !ok {
		logctx.FromCtx(ctx, s.log).Infow("webhook_unhandled_type", "event_id", e.ID, "type", e.Type)
		s.events.MarkDiscarded(ctx, entry.ID, s.result("unhandled event type", nil))
		return nil
	}

	res, err := handler(ctx, e)
	switch {
	case err == nil && res.Applied:
		logctx.FromCtx(ctx, s.log).Infow("webhook_applied",
			"event_id", e.ID, "type", e.Type, "order_id", res.Order.ID, "status", res.Payment.Status)
		s.events.MarkHandled(ctx, entry.ID, s.result("", res))
		return nil
	case err == nil:
		// Verified but stale or already applied; acknowledged without effect.
		s.events.MarkDiscarded(ctx, entry.ID, s.result("transition discarded", res))
		return nil
	case payment.IsOrderNotFound(err):
		// Soft fail: an event for an order this system does not know must
		// not trigger endless redelivery.
		logctx.FromCtx(ctx, s.log).Warnw("webhook_order_unknown",
			"event_id", e.ID, "order_id", e.OrderID, "transaction_id", e.TransactionID)
		s.events.MarkDiscarded(ctx, entry.ID, s.result("order not found", nil))
		return nil
	default:
		logctx.FromCtx(ctx, s.log).Errorw("webhook_handle_failed", "event_id", e.ID, "error", err)
		s.events.MarkFailed(ctx, entry.ID, s.result(err.Error(), nil))
		return err
	}
}

func (s *Service) applyStatus(status types.PaymentStatus) eventHandler {
	return func(ctx context.Context, e *gateway.Event) (*payment.ApplyResult, error) {
		return s.payments.Apply(ctx, payment.ApplyInput{
			OrderID:       e.OrderID,
			TransactionID: e.TransactionID,
			NewStatus:     status,
			Amount:        e.Amount,
			Currency:      e.Currency,
			Method:        types.PaymentMethodCard,
			Gateway:       types.PaymentGateway(s.payments.Gateway().Name()),
			Card:          e.Card,
			FailureReason: e.FailureMsg,
			GatewayResponse: &models.GatewayResponse{
				ID:             e.TransactionID,
				Status:         e.Status,
				FailureCode:    e.FailureCode,
				FailureMessage: e.FailureMsg,
			},
		})
	}
}

func (s *Service) result(msg string, res *payment.ApplyResult) []byte {
	m := map[string]any{}
	if msg != "" {
		m["message"] = msg
	}
	if res != nil && res.Payment != nil {
		m["payment_id"] = res.Payment.ID
		m["status"] = res.Payment.Status
		m["applied"] = res.Applied
	}
	b, _ := json.Marshal(m)
	return b
}
