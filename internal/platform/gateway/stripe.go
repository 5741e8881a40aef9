package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/bottlemart/backend/pkg/config"
	"github.com/bottlemart/backend/pkg/types"
)

const stripeAPIBase = "https://api.stripe.com/v1"

// StripeClient talks to the Stripe REST API with form-encoded requests.
// Amounts cross the wire in minor currency units.
type StripeClient struct {
	secretKey     string
	webhookSecret []byte
	baseURL       string
	http          *http.Client
	now           func() time.Time
}

func NewStripeClient(cfg *config.Config) *StripeClient {
	timeout := cfg.Gateway.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &StripeClient{
		secretKey:     cfg.Gateway.SecretKey,
		webhookSecret: []byte(cfg.Gateway.WebhookSecret),
		baseURL:       stripeAPIBase,
		http:          &http.Client{Timeout: timeout},
		now:           time.Now,
	}
}

func (s *StripeClient) Name() string { return string(types.PaymentGatewayStripe) }

type stripeIntent struct {
	ID           string `json:"id"`
	ClientSecret string `json:"client_secret"`
	Amount       int64  `json:"amount"`
	Currency     string `json:"currency"`
	Status       string `json:"status"`
	Created      int64  `json:"created"`
	Metadata     struct {
		OrderID string `json:"order_id"`
	} `json:"metadata"`
	LastPaymentError *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"last_payment_error"`
}

type stripeError struct {
	Error struct {
		Type    string `json:"type"`
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func toMinorUnits(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

func fromMinorUnits(amount int64) float64 {
	return float64(amount) / 100
}

func (s *StripeClient) do(ctx context.Context, method, path string, form url.Values, out any) error {
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	req.Header.Set("Authorization", "Bearer "+s.secretKey)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	resp, err := s.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	if resp.StatusCode == http.StatusNotFound {
		return ErrIntentNotFound
	}
	if resp.StatusCode >= 400 {
		var se stripeError
		if json.Unmarshal(raw, &se) == nil && se.Error.Message != "" {
			if se.Error.Code == "resource_missing" {
				return ErrIntentNotFound
			}
			if se.Error.Type == "card_error" {
				return fmt.Errorf("%w: %s", ErrDeclined, se.Error.Message)
			}
			return fmt.Errorf("%w: %s", ErrUnavailable, se.Error.Message)
		}
		return fmt.Errorf("%w: http %d", ErrUnavailable, resp.StatusCode)
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%w: malformed response: %v", ErrUnavailable, err)
	}
	return nil
}

func (si *stripeIntent) toIntent() *Intent {
	out := &Intent{
		ID:           si.ID,
		ClientSecret: si.ClientSecret,
		Amount:       fromMinorUnits(si.Amount),
		Currency:     si.Currency,
		Status:       si.Status,
		OrderID:      si.Metadata.OrderID,
		Created:      time.Unix(si.Created, 0),
	}
	if si.LastPaymentError != nil {
		out.FailureCode = si.LastPaymentError.Code
		out.FailureMsg = si.LastPaymentError.Message
	}
	return out
}

func (s *StripeClient) CreateIntent(ctx context.Context, req CreateIntentRequest) (*Intent, error) {
	form := url.Values{}
	form.Set("amount", strconv.FormatInt(toMinorUnits(req.Amount), 10))
	form.Set("currency", req.Currency)
	form.Set("automatic_payment_methods[enabled]", "true")
	if req.Description != "" {
		form.Set("description", req.Description)
	}
	form.Set("metadata[order_id]", req.OrderID)
	if req.UserID != "" {
		form.Set("metadata[user_id]", req.UserID)
	}

	var si stripeIntent
	if err := s.do(ctx, http.MethodPost, "/payment_intents", form, &si); err != nil {
		return nil, err
	}
	return si.toIntent(), nil
}

func (s *StripeClient) RetrieveIntent(ctx context.Context, intentID string) (*Intent, error) {
	if intentID == "" {
		return nil, ErrIntentNotFound
	}
	var si stripeIntent
	if err := s.do(ctx, http.MethodGet, "/payment_intents/"+url.PathEscape(intentID), nil, &si); err != nil {
		return nil, err
	}
	return si.toIntent(), nil
}

func (s *StripeClient) Refund(ctx context.Context, req RefundRequest) (*Refund, error) {
	form := url.Values{}
	form.Set("payment_intent", req.IntentID)
	if req.Amount > 0 {
		form.Set("amount", strconv.FormatInt(toMinorUnits(req.Amount), 10))
	}
	if req.Reason != "" {
		form.Set("reason", req.Reason)
	}

	var out struct {
		ID      string `json:"id"`
		Amount  int64  `json:"amount"`
		Status  string `json:"status"`
		Created int64  `json:"created"`
	}
	if err := s.do(ctx, http.MethodPost, "/refunds", form, &out); err != nil {
		return nil, err
	}
	return &Refund{ID: out.ID, Amount: fromMinorUnits(out.Amount), Status: out.Status, Created: time.Unix(out.Created, 0)}, nil
}

type stripeEvent struct {
	ID      string `json:"id"`
	Type    string `json:"type"`
	Created int64  `json:"created"`
	Data    struct {
		Object stripeIntent `json:"object"`
	} `json:"data"`
}

func (s *StripeClient) VerifyWebhook(sigHeader string, body []byte) (*Event, error) {
	if err := verifySignature(s.webhookSecret, sigHeader, body, s.now()); err != nil {
		return nil, err
	}

	var se stripeEvent
	if err := json.Unmarshal(body, &se); err != nil {
		return nil, fmt.Errorf("%w: malformed event payload", ErrInvalidSignature)
	}

	obj := se.Data.Object
	ev := &Event{
		ID:            se.ID,
		Type:          se.Type,
		TransactionID: obj.ID,
		OrderID:       obj.Metadata.OrderID,
		Amount:        fromMinorUnits(obj.Amount),
		Currency:      obj.Currency,
		Status:        obj.Status,
		Created:       time.Unix(se.Created, 0),
		Raw:           json.RawMessage(body),
	}
	if obj.LastPaymentError != nil {
		ev.FailureCode = obj.LastPaymentError.Code
		ev.FailureMsg = obj.LastPaymentError.Message
	}
	return ev, nil
}
