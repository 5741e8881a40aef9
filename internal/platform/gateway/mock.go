package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/bottlemart/backend/pkg/config"
	"github.com/bottlemart/backend/pkg/types"
)

// MockClient is a deterministic in-memory gateway for development and tests.
// Intents advance only when told to, which makes out-of-order and replay
// scenarios reproducible.
type MockClient struct {
	webhookSecret []byte
	now           func() time.Time

	mu      sync.Mutex
	intents map[string]*Intent
	refunds map[string]*Refund
}

func NewMockClient(cfg *config.Config) *MockClient {
	return &MockClient{
		webhookSecret: []byte(cfg.Gateway.WebhookSecret),
		now:           time.Now,
		intents:       make(map[string]*Intent),
		refunds:       make(map[string]*Refund),
	}
}

func (m *MockClient) Name() string { return string(types.PaymentGatewayMock) }

func (m *MockClient) CreateIntent(_ context.Context, req CreateIntentRequest) (*Intent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := "pi_mock_" + uuid.NewString()
	in := &Intent{
		ID:           id,
		ClientSecret: id + "_secret_" + uuid.NewString()[:8],
		Amount:       req.Amount,
		Currency:     req.Currency,
		Status:       IntentStatusRequiresPaymentMethod,
		OrderID:      req.OrderID,
		Created:      m.now(),
	}
	m.intents[id] = in
	out := *in
	return &out, nil
}

func (m *MockClient) RetrieveIntent(_ context.Context, intentID string) (*Intent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	in, ok := m.intents[intentID]
	if !ok {
		return nil, ErrIntentNotFound
	}
	out := *in
	return &out, nil
}

func (m *MockClient) Refund(_ context.Context, req RefundRequest) (*Refund, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	in, ok := m.intents[req.IntentID]
	if !ok {
		return nil, ErrIntentNotFound
	}
	amount := req.Amount
	if amount <= 0 {
		amount = in.Amount
	}
	r := &Refund{ID: "re_mock_" + uuid.NewString(), Amount: amount, Status: "succeeded", Created: m.now()}
	m.refunds[r.ID] = r
	return r, nil
}

func (m *MockClient) VerifyWebhook(sigHeader string, body []byte) (*Event, error) {
	if err := verifySignature(m.webhookSecret, sigHeader, body, m.now()); err != nil {
		return nil, err
	}
	var se stripeEvent
	if err := json.Unmarshal(body, &se); err != nil {
		return nil, fmt.Errorf("%w: malformed event payload", ErrInvalidSignature)
	}
	obj := se.Data.Object
	return &Event{
		ID:            se.ID,
		Type:          se.Type,
		TransactionID: obj.ID,
		OrderID:       obj.Metadata.OrderID,
		Amount:        fromMinorUnits(obj.Amount),
		Currency:      obj.Currency,
		Status:        obj.Status,
		Created:       time.Unix(se.Created, 0),
		Raw:           json.RawMessage(body),
	}, nil
}

// SignPayload produces a valid signature header for a webhook body. Exposed
// for tests and local webhook tooling.
func (m *MockClient) SignPayload(body []byte) string {
	return signPayload(m.webhookSecret, m.now(), body)
}

// CompleteIntent simulates client-side card confirmation succeeding. Card
// details are validated and reduced to displayable fields; the number never
// leaves this method.
func (m *MockClient) CompleteIntent(intentID, cardNumber, expiry, cvv string) error {
	if err := ValidateCard(cardNumber, expiry, cvv, m.now()); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	in, ok := m.intents[intentID]
	if !ok {
		return ErrIntentNotFound
	}
	in.Status = IntentStatusSucceeded
	in.Card = &CardInfo{Last4: last4(cardNumber), Brand: DetectCardBrand(cardNumber), Expiry: expiry}
	return nil
}

// SetIntentStatus forces an intent into a given gateway status.
func (m *MockClient) SetIntentStatus(intentID, status string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	in, ok := m.intents[intentID]
	if !ok {
		return ErrIntentNotFound
	}
	in.Status = status
	if status == IntentStatusFailed {
		in.FailureCode = "card_declined"
		in.FailureMsg = "payment declined by bank"
	}
	return nil
}
