package webhook

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/bottlemart/backend/internal/app/service/payment"
	"github.com/bottlemart/backend/internal/models"
	"github.com/bottlemart/backend/internal/platform/gateway"
	"github.com/bottlemart/backend/pkg/config"
	"github.com/bottlemart/backend/pkg/types"
)

type applierStub struct {
	gw      gateway.Client
	applied bool
	err     error
	calls   []payment.ApplyInput
}

func (a *applierStub) Gateway() gateway.Client { return a.gw }

func (a *applierStub) Apply(_ context.Context, in payment.ApplyInput) (*payment.ApplyResult, error) {
	a.calls = append(a.calls, in)
	if a.err != nil {
		return nil, a.err
	}
	return &payment.ApplyResult{
		Payment: &models.Payment{ID: "pay_1", OrderID: in.OrderID, Status: in.NewStatus},
		Order:   &models.Order{ID: in.OrderID},
		Applied: a.applied,
	}, nil
}

type journalStub struct {
	duplicate bool
	recordErr error

	recorded  []*models.PaymentEventLog
	handled   []string
	discarded []string
	failed    []string
}

func (j *journalStub) Record(_ context.Context, e *models.PaymentEventLog) (*models.PaymentEventLog, bool, error) {
	if j.recordErr != nil {
		return nil, false, j.recordErr
	}
	if e.ID == "" {
		e.ID = fmt.Sprintf("evlog_%d", len(j.recorded)+1)
	}
	j.recorded = append(j.recorded, e)
	return e, !j.duplicate, nil
}

func (j *journalStub) MarkHandled(_ context.Context, id string, _ []byte) {
	j.handled = append(j.handled, id)
}

func (j *journalStub) MarkDiscarded(_ context.Context, id string, _ []byte) {
	j.discarded = append(j.discarded, id)
}

func (j *journalStub) MarkFailed(_ context.Context, id string, _ []byte) {
	j.failed = append(j.failed, id)
}

func newPipeline(t *testing.T, applier *applierStub, journal *journalStub) (*Service, *gateway.MockClient) {
	t.Helper()
	gw := gateway.NewMockClient(&config.Config{Gateway: config.GatewayConfig{WebhookSecret: "whsec_pipeline"}})
	applier.gw = gw
	return NewService(zap.NewNop().Sugar(), applier, journal), gw
}

func signedEvent(t *testing.T, gw *gateway.MockClient, eventType, intentID, orderID string) (string, []byte) {
	t.Helper()
	body := []byte(fmt.Sprintf(`{
		"id": "evt_1",
		"type": %q,
		"created": %d,
		"data": {"object": {
			"id": %q,
			"amount": 49900,
			"currency": "inr",
			"status": "succeeded",
			"metadata": {"order_id": %q}
		}}
	}`, eventType, time.Now().Unix(), intentID, orderID))
	return gw.SignPayload(body), body
}

func TestProcess_AppliesSucceededEvent(t *testing.T) {
	applier := &applierStub{applied: true}
	journal := &journalStub{}
	svc, gw := newPipeline(t, applier, journal)

	sig, body := signedEvent(t, gw, gateway.EventPaymentSucceeded, "pi_9", "o9")
	require.NoError(t, svc.Process(context.Background(), sig, body, "trace-1"))

	require.Len(t, applier.calls, 1)
	call := applier.calls[0]
	require.Equal(t, "o9", call.OrderID)
	require.Equal(t, "pi_9", call.TransactionID)
	require.Equal(t, types.PaymentStatusCompleted, call.NewStatus)
	require.Equal(t, types.PaymentMethodCard, call.Method)
	require.InDelta(t, 499.00, call.Amount, 0.001)

	require.Len(t, journal.recorded, 1)
	require.Equal(t, "evt_1", journal.recorded[0].EventID)
	require.Equal(t, "trace-1", journal.recorded[0].TraceID)
	require.Len(t, journal.handled, 1)
	require.Empty(t, journal.discarded)
	require.Empty(t, journal.failed)
}

func TestProcess_FailedEventMapsToFailedStatus(t *testing.T) {
	applier := &applierStub{applied: true}
	journal := &journalStub{}
	svc, gw := newPipeline(t, applier, journal)

	sig, body := signedEvent(t, gw, gateway.EventPaymentFailed, "pi_9", "o9")
	require.NoError(t, svc.Process(context.Background(), sig, body, ""))

	require.Len(t, applier.calls, 1)
	require.Equal(t, types.PaymentStatusFailed, applier.calls[0].NewStatus)
}

func TestProcess_RejectsTamperedPayload(t *testing.T) {
	applier := &applierStub{applied: true}
	journal := &journalStub{}
	svc, gw := newPipeline(t, applier, journal)

	sig, body := signedEvent(t, gw, gateway.EventPaymentSucceeded, "pi_9", "o9")
	tampered := append([]byte{}, body...)
	tampered[len(tampered)-2] = '!'

	err := svc.Process(context.Background(), sig, tampered, "")
	require.ErrorIs(t, err, gateway.ErrInvalidSignature)
	require.Empty(t, journal.recorded, "untrusted payloads must not reach the audit trail")
	require.Empty(t, applier.calls)
}

func TestProcess_DuplicateDeliveryAcknowledgedWithoutReplay(t *testing.T) {
	applier := &applierStub{applied: true}
	journal := &journalStub{duplicate: true}
	svc, gw := newPipeline(t, applier, journal)

	sig, body := signedEvent(t, gw, gateway.EventPaymentSucceeded, "pi_9", "o9")
	require.NoError(t, svc.Process(context.Background(), sig, body, ""))

	require.Empty(t, applier.calls, "a replayed delivery must not re-apply the transition")
	require.Empty(t, journal.handled)
	require.Empty(t, journal.discarded)
	require.Empty(t, journal.failed)
}

func TestProcess_UnhandledEventTypeDiscarded(t *testing.T) {
	applier := &applierStub{applied: true}
	journal := &journalStub{}
	svc, gw := newPipeline(t, applier, journal)

	sig, body := signedEvent(t, gw, "payment_intent.created", "pi_9", "o9")
	require.NoError(t, svc.Process(context.Background(), sig, body, ""))

	require.Empty(t, applier.calls)
	require.Len(t, journal.discarded, 1)
}

func TestProcess_UnknownOrderAcknowledged(t *testing.T) {
	applier := &applierStub{err: fmt.Errorf("load order: %w", payment.ErrOrderNotFound)}
	journal := &journalStub{}
	svc, gw := newPipeline(t, applier, journal)

	sig, body := signedEvent(t, gw, gateway.EventPaymentSucceeded, "pi_9", "o_missing")
	require.NoError(t, svc.Process(context.Background(), sig, body, ""),
		"an event for an unknown order must not trigger endless redelivery")

	require.Len(t, journal.discarded, 1)
	require.Empty(t, journal.failed)
}

func TestProcess_StaleTransitionDiscarded(t *testing.T) {
	applier := &applierStub{applied: false}
	journal := &journalStub{}
	svc, gw := newPipeline(t, applier, journal)

	sig, body := signedEvent(t, gw, gateway.EventPaymentRequiresAction, "pi_9", "o9")
	require.NoError(t, svc.Process(context.Background(), sig, body, ""))

	require.Len(t, applier.calls, 1)
	require.Len(t, journal.discarded, 1)
	require.Empty(t, journal.handled)
}

func TestProcess_JournalFailureForcesRedelivery(t *testing.T) {
	applier := &applierStub{applied: true}
	journal := &journalStub{recordErr: errors.New("connection refused")}
	svc, gw := newPipeline(t, applier, journal)

	sig, body := signedEvent(t, gw, gateway.EventPaymentSucceeded, "pi_9", "o9")
	err := svc.Process(context.Background(), sig, body, "")
	require.Error(t, err)
	require.NotErrorIs(t, err, gateway.ErrInvalidSignature)
	require.Empty(t, applier.calls, "without the audit row the event must not be applied")
}

func TestProcess_ApplyFailureMarksFailed(t *testing.T) {
	applier := &applierStub{err: errors.New("deadlock detected")}
	journal := &journalStub{}
	svc, gw := newPipeline(t, applier, journal)

	sig, body := signedEvent(t, gw, gateway.EventPaymentSucceeded, "pi_9", "o9")
	err := svc.Process(context.Background(), sig, body, "")
	require.Error(t, err)
	require.Len(t, journal.failed, 1)
	require.Empty(t, journal.handled)
}
