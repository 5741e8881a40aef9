package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

// Gateway-side intent statuses. These are the raw wire values; mapping to
// internal payment statuses happens in the payment service.
const (
	IntentStatusRequiresPaymentMethod = "requires_payment_method"
	IntentStatusRequiresAction        = "requires_action"
	IntentStatusProcessing            = "processing"
	IntentStatusSucceeded             = "succeeded"
	IntentStatusCanceled              = "canceled"
	IntentStatusFailed                = "payment_failed"
)

// Webhook event types the platform subscribes to.
const (
	EventPaymentSucceeded      = "payment_intent.succeeded"
	EventPaymentFailed         = "payment_intent.payment_failed"
	EventPaymentCanceled       = "payment_intent.canceled"
	EventPaymentRequiresAction = "payment_intent.requires_action"
)

var (
	// ErrInvalidSignature means the webhook payload could not be trusted.
	ErrInvalidSignature = errors.New("invalid webhook signature")
	// ErrUnavailable is a transport-level failure (timeout, connection
	// refused, malformed response). The payment itself may not have failed.
	ErrUnavailable = errors.New("gateway unavailable")
	// ErrIntentNotFound means the gateway has no intent with that id.
	ErrIntentNotFound = errors.New("payment intent not found")
	// ErrDeclined is a gateway-reported payment failure.
	ErrDeclined = errors.New("payment declined")
)

type CreateIntentRequest struct {
	Amount      float64
	Currency    string
	Description string
	// OrderID is carried in intent metadata so webhooks can resolve the
	// local order.
	OrderID string
	UserID  string
}

// CardInfo is the displayable subset of a charged card.
type CardInfo struct {
	Last4  string `json:"last4"`
	Brand  string `json:"brand"`
	Expiry string `json:"expiry"`
}

// Intent mirrors the gateway-side payment intent object.
type Intent struct {
	ID           string    `json:"id"`
	ClientSecret string    `json:"client_secret"`
	Amount       float64   `json:"amount"`
	Currency     string    `json:"currency"`
	Status       string    `json:"status"`
	OrderID      string    `json:"order_id"`
	Created      time.Time `json:"created"`
	Card         *CardInfo `json:"card,omitempty"`
	FailureCode  string    `json:"failure_code,omitempty"`
	FailureMsg   string    `json:"failure_message,omitempty"`
}

type RefundRequest struct {
	IntentID string
	// Amount of zero refunds the full charge.
	Amount float64
	Reason string
}

type Refund struct {
	ID      string    `json:"id"`
	Amount  float64   `json:"amount"`
	Status  string    `json:"status"`
	Created time.Time `json:"created"`
}

// Event is a verified, parsed webhook event.
type Event struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	// TransactionID is the gateway intent id the event refers to.
	TransactionID string          `json:"transaction_id"`
	OrderID       string          `json:"order_id"`
	Amount        float64         `json:"amount"`
	Currency      string          `json:"currency"`
	Status        string          `json:"status"`
	Created       time.Time       `json:"created"`
	Card          *CardInfo       `json:"card,omitempty"`
	FailureCode   string          `json:"failure_code,omitempty"`
	FailureMsg    string          `json:"failure_message,omitempty"`
	Raw           json.RawMessage `json:"-"`
}

// Client is the interface to the external payment gateway. It is an
// unreliable, asynchronous collaborator: calls are bounded by timeouts and
// webhook delivery is at-least-once and unordered.
type Client interface {
	Name() string
	CreateIntent(ctx context.Context, req CreateIntentRequest) (*Intent, error)
	RetrieveIntent(ctx context.Context, intentID string) (*Intent, error)
	Refund(ctx context.Context, req RefundRequest) (*Refund, error)
	// VerifyWebhook checks the signature header against the pre-shared
	// secret and parses the payload. Unverified payloads never yield an
	// Event.
	VerifyWebhook(sigHeader string, body []byte) (*Event, error)
}
