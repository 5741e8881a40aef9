package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/bottlemart/backend/internal/app/service/reconcile"
	"github.com/bottlemart/backend/internal/models"
	"github.com/bottlemart/backend/pkg/logctx"
	"github.com/bottlemart/backend/pkg/tool"
	"github.com/bottlemart/backend/pkg/types"
)

var (
	ErrOrderNotFound     = errors.New("order not found")
	ErrProductNotFound   = errors.New("product not found")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrEmptyOrder        = errors.New("order has no items")
	ErrForbidden         = errors.New("not authorized for this order")
	// ErrAlreadyPaid blocks cancellation once the payment completed;
	// refunds go through the payment status override instead.
	ErrAlreadyPaid = errors.New("order already paid")
)

// Orders over this total ship free.
var freeShippingThreshold = decimal.NewFromInt(1000)

var flatShippingPrice = decimal.NewFromInt(50)

type Service struct {
	log   *zap.SugaredLogger
	db    *gorm.DB
	recon *reconcile.Service
}

func NewService(log *zap.SugaredLogger, db *gorm.DB, recon *reconcile.Service) *Service {
	return &Service{log: log, db: db, recon: recon}
}

type ItemInput struct {
	ProductID string `json:"product_id" binding:"required"`
	Qty       int    `json:"qty" binding:"required,gt=0"`
}

type CreateOrderInput struct {
	Items           []ItemInput
	ShippingAddress *models.ShippingAddress
	PaymentMethod   types.PaymentMethod
	Currency        string
	Requester       types.Principal
}

// CreateOrder reserves stock and snapshots current product prices into the
// order. Totals are computed in decimal and rounded to the minor unit once;
// they are immutable afterwards and authoritative for the charge amount.
func (s *Service) CreateOrder(ctx context.Context, in CreateOrderInput) (*models.Order, error) {
	if len(in.Items) == 0 {
		return nil, ErrEmptyOrder
	}
	method := in.PaymentMethod
	if method == "" {
		method = types.PaymentMethodCard
	}
	if !method.Valid() {
		return nil, fmt.Errorf("invalid payment method %q", in.PaymentMethod)
	}

	var o *models.Order
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		itemsPrice := decimal.Zero
		items := make([]models.OrderItem, 0, len(in.Items))
		for _, it := range in.Items {
			var p models.Product
			err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
				First(&p, "id = ?", it.ProductID).Error
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return fmt.Errorf("%w: %s", ErrProductNotFound, it.ProductID)
				}
				return err
			}
			if p.Stock < it.Qty {
				return fmt.Errorf("%w: %s has %d left", ErrInsufficientStock, p.Name, p.Stock)
			}
			if err := tx.Model(&p).Update("stock", gorm.Expr("stock - ?", it.Qty)).Error; err != nil {
				return err
			}

			line := decimal.NewFromFloat(p.Price).Mul(decimal.NewFromInt(int64(it.Qty)))
			itemsPrice = itemsPrice.Add(line)
			items = append(items, models.OrderItem{
				ProductID: p.ID,
				Name:      p.Name,
				Qty:       it.Qty,
				Price:     p.Price,
			})
		}

		shipping := flatShippingPrice
		if itemsPrice.GreaterThanOrEqual(freeShippingThreshold) {
			shipping = decimal.Zero
		}
		total := itemsPrice.Add(shipping).Round(2)

		currency := in.Currency
		if currency == "" {
			currency = "inr"
		}

		o = &models.Order{
			ID:              tool.GenerateUUIDV7(),
			UserID:          in.Requester.UserID,
			Items:           datatypes.NewJSONType(items),
			ShippingAddress: datatypes.NewJSONType(in.ShippingAddress),
			ItemsPrice:      itemsPrice.Round(2).InexactFloat64(),
			ShippingPrice:   shipping.InexactFloat64(),
			TotalPrice:      total.InexactFloat64(),
			Currency:        currency,
			PaymentMethod:   method,
			PaymentStatus:   types.PaymentStatusPending,
			Status:          types.OrderStatusPending,
		}
		return tx.Create(o).Error
	})
	if err != nil {
		return nil, err
	}

	logctx.FromCtx(ctx, s.log).Infow("order_created",
		"order_id", o.ID, "user_id", o.UserID, "total", o.TotalPrice, "method", o.PaymentMethod)
	return o, nil
}

func (s *Service) GetOrder(ctx context.Context, orderID string, requester types.Principal) (*models.Order, error) {
	var o models.Order
	if err := s.db.WithContext(ctx).First(&o, "id = ?", orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	if !requester.CanAccess(o.UserID) {
		return nil, ErrForbidden
	}
	return &o, nil
}

// ListUserOrders returns a buyer's orders with inconsistent order/payment
// pairs hidden. Admins asking for their own view should use ListAllOrders.
func (s *Service) ListUserOrders(ctx context.Context, userID string, requester types.Principal) ([]*models.Order, error) {
	if !requester.CanAccess(userID) {
		return nil, ErrForbidden
	}
	var orders []*models.Order
	if err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").Find(&orders).Error; err != nil {
		return nil, err
	}
	return s.recon.FilterValid(ctx, orders)
}

// ListAllOrders returns every order annotated with its consistency check.
// Inconsistent entries are shown with the reason, never hidden.
func (s *Service) ListAllOrders(ctx context.Context, requester types.Principal) ([]*reconcile.AnnotatedOrder, error) {
	if !requester.IsAdmin() {
		return nil, ErrForbidden
	}
	var orders []*models.Order
	if err := s.db.WithContext(ctx).
		Order("created_at DESC").Find(&orders).Error; err != nil {
		return nil, err
	}
	return s.recon.Annotate(ctx, orders)
}

func (s *Service) MarkDelivered(ctx context.Context, orderID string, requester types.Principal) (*models.Order, error) {
	if !requester.IsAdmin() {
		return nil, ErrForbidden
	}
	var o models.Order
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&o, "id = ?", orderID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrOrderNotFound
			}
			return err
		}
		if o.IsDelivered {
			return nil
		}
		o.IsDelivered = true
		o.DeliveredAt = lo.ToPtr(time.Now())
		o.Status = types.OrderStatusDelivered
		return tx.Save(&o).Error
	})
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// CancelOrder cancels an unpaid order and restocks its items.
func (s *Service) CancelOrder(ctx context.Context, orderID string, requester types.Principal) (*models.Order, error) {
	var o models.Order
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&o, "id = ?", orderID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrOrderNotFound
			}
			return err
		}
		if !requester.CanAccess(o.UserID) {
			return ErrForbidden
		}
		if o.IsPaid {
			return ErrAlreadyPaid
		}
		if o.Status == types.OrderStatusCancelled {
			return nil
		}

		for _, it := range o.Items.Data() {
			if err := tx.Model(&models.Product{}).
				Where("id = ?", it.ProductID).
				Update("stock", gorm.Expr("stock + ?", it.Qty)).Error; err != nil {
				return err
			}
		}
		o.Status = types.OrderStatusCancelled
		return tx.Save(&o).Error
	})
	if err != nil {
		return nil, err
	}
	logctx.FromCtx(ctx, s.log).Infow("order_cancelled", "order_id", o.ID, "user_id", o.UserID)
	return &o, nil
}
