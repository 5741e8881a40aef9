package payment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/samber/lo"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	models "github.com/bottlemart/backend/internal/models"
	"github.com/bottlemart/backend/internal/platform/gateway"
	"github.com/bottlemart/backend/pkg/config"
	"github.com/bottlemart/backend/pkg/logctx"
	"github.com/bottlemart/backend/pkg/tool"
	types "github.com/bottlemart/backend/pkg/types"
)

// Service is the payment lifecycle controller. Every status change to a
// (Payment, Order) pair goes through applyLocked inside one transaction, so
// the payment row and the order projection move together or not at all.
type Service struct {
	cfg *config.Config
	log *zap.SugaredLogger
	db  *gorm.DB
	gw  gateway.Client
}

func NewService(cfg *config.Config, log *zap.SugaredLogger, db *gorm.DB, gw gateway.Client) *Service {
	return &Service{cfg: cfg, log: log, db: db, gw: gw}
}

// Gateway exposes the injected gateway client for collaborators that need
// signature verification (the webhook handler).
func (s *Service) Gateway() gateway.Client { return s.gw }

type CreateIntentInput struct {
	OrderID   string
	Amount    float64
	Currency  string
	Requester types.Principal
}

type CreateIntentResult struct {
	PaymentIntentID string          `json:"payment_intent_id"`
	ClientSecret    string          `json:"client_secret"`
	Amount          float64         `json:"amount"`
	Currency        string          `json:"currency"`
	Payment         *models.Payment `json:"payment"`
}

// CreateIntent validates ownership and amount, creates a gateway payment
// intent and records a pending Payment attempt for the order.
func (s *Service) CreateIntent(ctx context.Context, in CreateIntentInput) (*CreateIntentResult, error) {
	order, err := s.loadOrder(ctx, in.OrderID)
	if err != nil {
		return nil, err
	}
	if !in.Requester.CanAccess(order.UserID) {
		return nil, ErrForbidden
	}
	if order.IsPaid {
		// A second intent on a settled order would charge the customer
		// again and knock the projection out of its paid state.
		return nil, fmt.Errorf("%w: order %s is already paid", ErrAlreadyProcessed, order.ID)
	}
	if !amountMatches(in.Amount, order.TotalPrice) {
		return nil, fmt.Errorf("%w: got %.2f, order total %.2f", ErrAmountMismatch, in.Amount, order.TotalPrice)
	}
	currency := in.Currency
	if currency == "" {
		currency = order.Currency
	}

	// Gateway call happens outside any transaction; a timeout here leaves
	// no local state behind.
	intent, err := s.gw.CreateIntent(ctx, gateway.CreateIntentRequest{
		Amount:      in.Amount,
		Currency:    currency,
		Description: "order " + order.ID,
		OrderID:     order.ID,
		UserID:      order.UserID,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGateway, err)
	}

	now := time.Now()
	var p models.Payment
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var o models.Order
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&o, "id = ?", order.ID).Error; err != nil {
			return err
		}
		if o.IsPaid {
			// Re-checked under the lock: a webhook may have settled the
			// order between the pre-check and here.
			return fmt.Errorf("%w: order %s is already paid", ErrAlreadyProcessed, o.ID)
		}

		// Reuse a pending card attempt for this order if present; a retry
		// after a terminal failure gets a fresh row.
		err := tx.Where("order_id = ? AND method = ? AND status = ?",
			o.ID, types.PaymentMethodCard, types.PaymentStatusPending).
			Order("created_at DESC").First(&p).Error
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if errors.Is(err, gorm.ErrRecordNotFound) {
			p = models.Payment{
				ID:      tool.GenerateUUIDV7(),
				OrderID: o.ID,
				UserID:  o.UserID,
				Method:  types.PaymentMethodCard,
				Status:  types.PaymentStatusPending,
			}
		}
		p.Amount = in.Amount
		p.Currency = currency
		p.Gateway = types.PaymentGateway(s.gw.Name())
		p.TransactionID = lo.ToPtr(intent.ID)
		p.GatewayResponse = datatypes.NewJSONType(&models.GatewayResponse{ID: intent.ID, Status: intent.Status})
		if err := tx.Save(&p).Error; err != nil {
			return err
		}

		o.PaymentMethod = types.PaymentMethodCard
		o.PaymentStatus = types.PaymentStatusPending
		o.PaymentResult = datatypes.NewJSONType(&models.PaymentResult{ID: intent.ID, Status: intent.Status})
		o.StampTimestamp(types.PaymentStatusPending, now)
		return tx.Save(&o).Error
	})
	if err != nil {
		return nil, fmt.Errorf("failed to record payment intent: %w", err)
	}

	logctx.FromCtx(ctx, s.log).Infow("payment_intent_created",
		"order_id", order.ID, "intent_id", intent.ID, "amount", in.Amount)

	return &CreateIntentResult{
		PaymentIntentID: intent.ID,
		ClientSecret:    intent.ClientSecret,
		Amount:          intent.Amount,
		Currency:        intent.Currency,
		Payment:         &p,
	}, nil
}

type ConfirmIntentInput struct {
	PaymentIntentID string
	OrderID         string
	Requester       types.Principal
}

type ConfirmResult struct {
	Payment *models.Payment `json:"payment"`
	Order   *models.Order   `json:"order"`
}

// ConfirmIntent retrieves the current intent state from the gateway and
// applies the rank-gated transition. The client's own confirmation result is
// never trusted; only what the gateway reports counts.
func (s *Service) ConfirmIntent(ctx context.Context, in ConfirmIntentInput) (*ConfirmResult, error) {
	order, err := s.loadOrder(ctx, in.OrderID)
	if err != nil {
		return nil, err
	}
	if !in.Requester.CanAccess(order.UserID) {
		return nil, ErrForbidden
	}

	intent, err := s.gw.RetrieveIntent(ctx, in.PaymentIntentID)
	if err != nil {
		if errors.Is(err, gateway.ErrIntentNotFound) {
			return nil, fmt.Errorf("%w: intent %s", ErrPaymentNotFound, in.PaymentIntentID)
		}
		return nil, fmt.Errorf("%w: %v", ErrGateway, err)
	}

	freshness := s.cfg.Gateway.IntentFreshness
	if freshness <= 0 {
		freshness = time.Hour
	}
	if !intent.Created.IsZero() && time.Since(intent.Created) > freshness {
		return nil, ErrSessionExpired
	}

	// Replay gate: a completed payment for this transaction id means the
	// work is already done.
	var done int64
	if err := s.db.WithContext(ctx).Model(&models.Payment{}).
		Where("transaction_id = ? AND status = ?", intent.ID, types.PaymentStatusCompleted).
		Count(&done).Error; err != nil {
		return nil, err
	}
	if done > 0 {
		return nil, ErrAlreadyProcessed
	}

	newStatus := MapGatewayStatus(intent.Status)
	res, err := s.Apply(ctx, ApplyInput{
		OrderID:       order.ID,
		TransactionID: intent.ID,
		NewStatus:     newStatus,
		Amount:        intent.Amount,
		Currency:      intent.Currency,
		Method:        types.PaymentMethodCard,
		Gateway:       types.PaymentGateway(s.gw.Name()),
		Card:          intent.Card,
		FailureReason: intent.FailureMsg,
		GatewayResponse: &models.GatewayResponse{
			ID:             intent.ID,
			Status:         intent.Status,
			FailureCode:    intent.FailureCode,
			FailureMessage: intent.FailureMsg,
		},
	})
	if err != nil {
		return nil, err
	}
	return &ConfirmResult{Payment: res.Payment, Order: res.Order}, nil
}

type ConfirmCashInput struct {
	OrderID   string
	Amount    float64
	Requester types.Principal
}

// ConfirmCash records a cash payment attempt. The order is confirmed for
// fulfillment immediately, but the payment stays financially pending until
// an admin marks it completed on collection.
func (s *Service) ConfirmCash(ctx context.Context, in ConfirmCashInput) (*ConfirmResult, error) {
	order, err := s.loadOrder(ctx, in.OrderID)
	if err != nil {
		return nil, err
	}
	if !in.Requester.CanAccess(order.UserID) {
		return nil, ErrForbidden
	}
	if order.IsPaid {
		return nil, fmt.Errorf("%w: order %s is already paid", ErrAlreadyProcessed, order.ID)
	}
	if !amountMatches(in.Amount, order.TotalPrice) {
		return nil, fmt.Errorf("%w: got %.2f, order total %.2f", ErrAmountMismatch, in.Amount, order.TotalPrice)
	}

	now := time.Now()
	var p models.Payment
	var o models.Order
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&o, "id = ?", order.ID).Error; err != nil {
			return err
		}
		if o.IsPaid {
			return fmt.Errorf("%w: order %s is already paid", ErrAlreadyProcessed, o.ID)
		}

		err := tx.Where("order_id = ? AND method = ? AND status = ?",
			o.ID, types.PaymentMethodCash, types.PaymentStatusPending).
			Order("created_at DESC").First(&p).Error
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if errors.Is(err, gorm.ErrRecordNotFound) {
			p = models.Payment{
				ID:            tool.GenerateUUIDV7(),
				OrderID:       o.ID,
				UserID:        o.UserID,
				Method:        types.PaymentMethodCash,
				Status:        types.PaymentStatusPending,
				TransactionID: lo.ToPtr(tool.PrefixedID("cash_")),
			}
		}
		p.Amount = in.Amount
		p.Currency = o.Currency
		p.Gateway = types.PaymentGatewayCash
		if err := tx.Save(&p).Error; err != nil {
			return err
		}

		o.PaymentMethod = types.PaymentMethodCash
		o.PaymentStatus = types.PaymentStatusPending
		o.Status = types.OrderStatusConfirmed
		o.PaymentResult = datatypes.NewJSONType(&models.PaymentResult{ID: lo.FromPtr(p.TransactionID), Status: string(types.PaymentStatusPending)})
		o.StampTimestamp(types.PaymentStatusPending, now)
		return tx.Save(&o).Error
	})
	if err != nil {
		return nil, fmt.Errorf("failed to record cash payment: %w", err)
	}

	logctx.FromCtx(ctx, s.log).Infow("cash_payment_recorded", "order_id", o.ID, "payment_id", p.ID)
	return &ConfirmResult{Payment: &p, Order: &o}, nil
}

// UpdateStatus is the administrative override used for manual
// reconciliation: marking a collected cash payment completed, or issuing a
// refund. The same rank gate applies; re-refunding is a no-op.
func (s *Service) UpdateStatus(ctx context.Context, paymentID string, newStatus types.PaymentStatus, requester types.Principal) (*ConfirmResult, error) {
	if !requester.IsAdmin() {
		return nil, ErrForbidden
	}
	if !newStatus.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, newStatus)
	}

	// Resolve the order id from an unlocked read, then take the locks in
	// the same order -> payment sequence as Apply. Locking the payment row
	// first would deadlock against a webhook holding the order lock.
	var located models.Payment
	if err := s.db.WithContext(ctx).First(&located, "id = ?", paymentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPaymentNotFound
		}
		return nil, err
	}

	var p models.Payment
	var o models.Order
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&o, "id = ?", located.OrderID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrOrderNotFound
			}
			return err
		}
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&p, "id = ?", paymentID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrPaymentNotFound
			}
			return err
		}

		if newStatus == types.PaymentStatusRefunded && p.Method == types.PaymentMethodCard && p.Status == types.PaymentStatusCompleted {
			if _, err := s.gw.Refund(ctx, gateway.RefundRequest{IntentID: lo.FromPtr(p.TransactionID)}); err != nil {
				return fmt.Errorf("%w: %v", ErrGateway, err)
			}
		}

		_, err := s.applyLocked(ctx, tx, &p, &o, newStatus, applyAux{now: time.Now()})
		return err
	})
	if err != nil {
		return nil, err
	}

	logctx.FromCtx(ctx, s.log).Infow("payment_status_updated",
		"payment_id", p.ID, "status", p.Status, "operator_id", requester.UserID)
	return &ConfirmResult{Payment: &p, Order: &o}, nil
}

// ApplyInput describes one status transition to apply atomically to a
// payment and its order.
type ApplyInput struct {
	OrderID       string
	TransactionID string
	NewStatus     types.PaymentStatus
	Amount        float64
	Currency      string
	Method        types.PaymentMethod
	Gateway       types.PaymentGateway
	Card          *gateway.CardInfo
	FailureReason string
	// GatewayResponse is appended to the payment's audit payload.
	GatewayResponse *models.GatewayResponse
}

type ApplyResult struct {
	Payment *models.Payment
	Order   *models.Order
	// Applied is false when the rank gate discarded the transition.
	Applied bool
}

// Apply upserts the Payment row for (order, transaction) and applies the
// rank-gated transition to it and the order projection in one transaction.
// The webhook pipeline and ConfirmIntent converge here, which is what makes
// their race commutative.
func (s *Service) Apply(ctx context.Context, in ApplyInput) (*ApplyResult, error) {
	var p models.Payment
	var o models.Order
	var applied bool

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&o, "id = ?", in.OrderID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrOrderNotFound
			}
			return err
		}

		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("transaction_id = ?", in.TransactionID).First(&p).Error
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// The webhook can outrun the local row; create it here.
			p = models.Payment{
				ID:            tool.GenerateUUIDV7(),
				OrderID:       o.ID,
				UserID:        o.UserID,
				Amount:        in.Amount,
				Currency:      in.Currency,
				Method:        in.Method,
				Gateway:       in.Gateway,
				TransactionID: lo.ToPtr(in.TransactionID),
				Status:        types.PaymentStatusPending,
			}
			if err := tx.Create(&p).Error; err != nil {
				return err
			}
		}

		a, err := s.applyLocked(ctx, tx, &p, &o, in.NewStatus, applyAux{
			now:             time.Now(),
			card:            in.Card,
			failureReason:   in.FailureReason,
			gatewayResponse: in.GatewayResponse,
		})
		applied = a
		return err
	})
	if err != nil {
		return nil, err
	}
	return &ApplyResult{Payment: &p, Order: &o, Applied: applied}, nil
}

type applyAux struct {
	now             time.Time
	card            *gateway.CardInfo
	failureReason   string
	gatewayResponse *models.GatewayResponse
}

// applyLocked mutates a payment and its order projection under row locks
// held by the caller's transaction. The rank gate runs first: transitions
// that do not advance the status are discarded, re-applications of the same
// status only refresh the audit payload.
func (s *Service) applyLocked(ctx context.Context, tx *gorm.DB, p *models.Payment, o *models.Order, newStatus types.PaymentStatus, aux applyAux) (bool, error) {
	if !types.CanTransition(p.Status, newStatus) {
		logctx.FromCtx(ctx, s.log).Infow("status_transition_discarded",
			"payment_id", p.ID, "from", p.Status, "to", newStatus)
		return false, nil
	}

	if aux.gatewayResponse != nil {
		p.GatewayResponse = datatypes.NewJSONType(aux.gatewayResponse)
	}

	if newStatus == p.Status {
		// Idempotent re-application: audit only.
		return false, tx.Save(p).Error
	}

	now := aux.now
	if now.IsZero() {
		now = time.Now()
	}

	p.Status = newStatus
	if aux.card != nil {
		p.CardDetails = datatypes.NewJSONType(&models.CardDetails{
			Last4: aux.card.Last4, Brand: aux.card.Brand, Expiry: aux.card.Expiry,
		})
	}
	switch newStatus {
	case types.PaymentStatusCompleted:
		p.ProcessedAt = lo.ToPtr(now)
	case types.PaymentStatusRefunded:
		p.RefundedAt = lo.ToPtr(now)
	case types.PaymentStatusFailed:
		if aux.failureReason != "" {
			p.FailureReason = lo.ToPtr(aux.failureReason)
		}
	}
	if err := tx.Save(p).Error; err != nil {
		return false, err
	}

	o.PaymentStatus = newStatus
	o.StampTimestamp(newStatus, now)
	result := o.PaymentResult.Data()
	if result == nil {
		result = &models.PaymentResult{}
	}
	result.ID = lo.FromPtr(p.TransactionID)
	result.Status = string(newStatus)
	result.UpdateTime = now.UTC().Format(time.RFC3339)
	o.PaymentResult = datatypes.NewJSONType(result)

	if newStatus == types.PaymentStatusCompleted {
		o.IsPaid = true
		if o.PaidAt == nil {
			o.PaidAt = lo.ToPtr(now)
		}
		o.Status = types.OrderStatusPaid
	}
	if err := tx.Save(o).Error; err != nil {
		return false, err
	}

	logctx.FromCtx(ctx, s.log).Infow("payment_status_applied",
		"payment_id", p.ID, "order_id", o.ID, "status", newStatus)
	return true, nil
}

func (s *Service) loadOrder(ctx context.Context, orderID string) (*models.Order, error) {
	if orderID == "" {
		return nil, ErrOrderNotFound
	}
	var o models.Order
	if err := s.db.WithContext(ctx).First(&o, "id = ?", orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	return &o, nil
}

// GetOrderPayment returns the current (most recent) payment attempt for an
// order. Owner or admin only.
func (s *Service) GetOrderPayment(ctx context.Context, orderID string, requester types.Principal) (*models.Payment, error) {
	order, err := s.loadOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !requester.CanAccess(order.UserID) {
		return nil, ErrForbidden
	}

	var p models.Payment
	if err := s.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at DESC").First(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPaymentNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (s *Service) GetUserPayments(ctx context.Context, userID string, requester types.Principal) ([]*models.Payment, error) {
	if !requester.CanAccess(userID) {
		return nil, ErrForbidden
	}
	var items []*models.Payment
	if err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// filtersAnd combines multiple CommonFilter into a single clause.Expression.
type filtersAnd struct{ filters []*types.CommonFilter }

func (w filtersAnd) Build(builder clause.Builder) {
	if len(w.filters) == 0 {
		builder.WriteString("1=1")
		return
	}
	exprs := make([]clause.Expression, 0, len(w.filters))
	for _, f := range w.filters {
		exprs = append(exprs, f)
	}
	clause.And(exprs...).Build(builder)
}

type ScanPaymentsRequest struct {
	Filters   []*types.CommonFilter `json:"filters"`
	From      int                   `json:"from"`
	Size      int                   `json:"size"`
	SortBy    string                `json:"sort_by"`
	SortOrder string                `json:"sort_order"`
}

type ScanPaymentsResponse struct {
	Items []*models.Payment `json:"items"`
	Total int64             `json:"total"`
}

// ScanPayments implements the paginated admin listing with filters.
func (s *Service) ScanPayments(ctx context.Context, req *ScanPaymentsRequest) (*ScanPaymentsResponse, error) {
	if req == nil {
		return nil, fmt.Errorf("nil request")
	}
	if req.Size <= 0 {
		req.Size = 10
	}
	if req.From < 0 {
		req.From = 0
	}

	tx := s.db.WithContext(ctx).Model(&models.Payment{})
	if len(req.Filters) > 0 {
		tx = tx.Where(clause.Where{Exprs: []clause.Expression{filtersAnd{filters: req.Filters}}})
	}

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count payments: %w", err)
	}

	var rows []*models.Payment
	q := tx.Limit(req.Size)
	if req.From > 0 {
		q = q.Offset(req.From)
	}
	if req.SortBy != "" {
		q = q.Order(clause.OrderBy{Columns: []clause.OrderByColumn{{Column: clause.Column{Name: req.SortBy}, Desc: req.SortOrder != "asc"}}})
	}
	if err := q.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}

	return &ScanPaymentsResponse{Items: rows, Total: total}, nil
}
