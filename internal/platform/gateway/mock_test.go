package gateway

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/bottlemart/backend/pkg/config"
)

func newTestMock() *MockClient {
	m := NewMockClient(&config.Config{
		Gateway: config.GatewayConfig{WebhookSecret: "whsec_mock_test"},
	})
	m.now = func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }
	return m
}

func TestMockClient_IntentLifecycle(t *testing.T) {
	m := newTestMock()
	ctx := context.Background()

	in, err := m.CreateIntent(ctx, CreateIntentRequest{
		Amount:   499.00,
		Currency: "inr",
		OrderID:  "order-1",
	})
	require.NoError(t, err)
	require.NotEmpty(t, in.ID)
	require.NotEmpty(t, in.ClientSecret)
	require.Equal(t, IntentStatusRequiresPaymentMethod, in.Status)
	require.Equal(t, "order-1", in.OrderID)

	err = m.CompleteIntent(in.ID, "4111111111111111", "12/27", "123")
	require.NoError(t, err)

	got, err := m.RetrieveIntent(ctx, in.ID)
	require.NoError(t, err)
	require.Equal(t, IntentStatusSucceeded, got.Status)
	require.NotNil(t, got.Card)
	require.Equal(t, "1111", got.Card.Last4)
	require.Equal(t, "visa", got.Card.Brand)
}

func TestMockClient_CompleteIntentRejectsBadCard(t *testing.T) {
	m := newTestMock()
	in, err := m.CreateIntent(context.Background(), CreateIntentRequest{Amount: 10, Currency: "inr", OrderID: "o"})
	require.NoError(t, err)

	// fails Luhn
	err = m.CompleteIntent(in.ID, "4111111111111112", "12/27", "123")
	require.Error(t, err)

	got, err := m.RetrieveIntent(context.Background(), in.ID)
	require.NoError(t, err)
	require.Equal(t, IntentStatusRequiresPaymentMethod, got.Status)
}

func TestMockClient_SetIntentStatusFailed(t *testing.T) {
	m := newTestMock()
	in, err := m.CreateIntent(context.Background(), CreateIntentRequest{Amount: 10, Currency: "inr", OrderID: "o"})
	require.NoError(t, err)

	require.NoError(t, m.SetIntentStatus(in.ID, IntentStatusFailed))

	got, err := m.RetrieveIntent(context.Background(), in.ID)
	require.NoError(t, err)
	require.Equal(t, IntentStatusFailed, got.Status)
	require.Equal(t, "card_declined", got.FailureCode)
	require.NotEmpty(t, got.FailureMsg)
}

func TestMockClient_UnknownIntent(t *testing.T) {
	m := newTestMock()

	_, err := m.RetrieveIntent(context.Background(), "pi_missing")
	require.ErrorIs(t, err, ErrIntentNotFound)

	err = m.CompleteIntent("pi_missing", "4111111111111111", "12/27", "123")
	require.ErrorIs(t, err, ErrIntentNotFound)

	_, err = m.Refund(context.Background(), RefundRequest{IntentID: "pi_missing"})
	require.ErrorIs(t, err, ErrIntentNotFound)
}

func TestMockClient_RefundDefaultsToFullAmount(t *testing.T) {
	m := newTestMock()
	in, err := m.CreateIntent(context.Background(), CreateIntentRequest{Amount: 250.50, Currency: "inr", OrderID: "o"})
	require.NoError(t, err)

	r, err := m.Refund(context.Background(), RefundRequest{IntentID: in.ID})
	require.NoError(t, err)
	require.Equal(t, "succeeded", r.Status)
	require.Equal(t, 250.50, r.Amount)

	partial, err := m.Refund(context.Background(), RefundRequest{IntentID: in.ID, Amount: 100})
	require.NoError(t, err)
	require.Equal(t, 100.0, partial.Amount)
}

func TestMockClient_VerifyWebhook(t *testing.T) {
	m := newTestMock()
	now := time.Now()

	body := []byte(fmt.Sprintf(`{
		"id": "evt_test_1",
		"type": "payment_intent.succeeded",
		"created": %d,
		"data": {
			"object": {
				"id": "pi_test_1",
				"amount": 49900,
				"currency": "inr",
				"status": "succeeded",
				"metadata": {"order_id": "order-1"}
			}
		}
	}`, now.Unix()))

	ev, err := m.VerifyWebhook(m.SignPayload(body), body)
	require.NoError(t, err)
	require.Equal(t, "evt_test_1", ev.ID)
	require.Equal(t, EventPaymentSucceeded, ev.Type)
	require.Equal(t, "pi_test_1", ev.TransactionID)
	require.Equal(t, "order-1", ev.OrderID)
	require.Equal(t, 499.00, ev.Amount)
	require.Equal(t, "inr", ev.Currency)
	require.Equal(t, IntentStatusSucceeded, ev.Status)
	require.JSONEq(t, string(body), string(ev.Raw))
}

func TestMockClient_VerifyWebhookRejectsBadSignature(t *testing.T) {
	m := newTestMock()
	body := []byte(`{"id":"evt_1","type":"payment_intent.succeeded"}`)

	sig := m.SignPayload(body)
	_, err := m.VerifyWebhook(sig, []byte(`{"id":"evt_2","type":"payment_intent.succeeded"}`))
	require.ErrorIs(t, err, ErrInvalidSignature)

	other := NewMockClient(&config.Config{Gateway: config.GatewayConfig{WebhookSecret: "whsec_other"}})
	_, err = other.VerifyWebhook(sig, body)
	require.ErrorIs(t, err, ErrInvalidSignature)
}

func TestMockClient_VerifyWebhookRejectsMalformedBody(t *testing.T) {
	m := newTestMock()
	body := []byte(`{not json`)
	_, err := m.VerifyWebhook(m.SignPayload(body), body)
	require.ErrorIs(t, err, ErrInvalidSignature)
}
