package supplier

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/bottlemart/backend/internal/models"
	"github.com/bottlemart/backend/pkg/logctx"
	"github.com/bottlemart/backend/pkg/tool"
	"github.com/bottlemart/backend/pkg/types"
)

var (
	ErrSupplierNotFound = errors.New("supplier not found")
	ErrAlreadySupplier  = errors.New("user already has a supplier profile")
	ErrForbidden        = errors.New("not authorized")
)

type Service struct {
	log *zap.SugaredLogger
	db  *gorm.DB
}

func NewService(log *zap.SugaredLogger, db *gorm.DB) *Service {
	return &Service{log: log, db: db}
}

type RegisterInput struct {
	Name        string
	BottleNo    int
	ContactNo   string
	BottlePrice float64
}

// Register creates the supplier profile for the requesting user and
// promotes the account to the supplier role in the same transaction.
func (s *Service) Register(ctx context.Context, in RegisterInput, requester types.Principal) (*models.Supplier, error) {
	sup := &models.Supplier{
		ID:          tool.GenerateUUIDV7(),
		UserID:      requester.UserID,
		Name:        in.Name,
		BottleNo:    in.BottleNo,
		ContactNo:   in.ContactNo,
		BottlePrice: in.BottlePrice,
	}
	if sup.BottlePrice <= 0 {
		sup.BottlePrice = 1
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(sup).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrAlreadySupplier
			}
			return err
		}
		return tx.Model(&models.User{}).
			Where("id = ?", requester.UserID).
			Update("role", types.UserRoleSupplier).Error
	})
	if err != nil {
		return nil, err
	}

	logctx.FromCtx(ctx, s.log).Infow("supplier_registered",
		"supplier_id", sup.ID, "user_id", sup.UserID)
	return sup, nil
}

func (s *Service) Get(ctx context.Context, id string, requester types.Principal) (*models.Supplier, error) {
	var sup models.Supplier
	if err := s.db.WithContext(ctx).First(&sup, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSupplierNotFound
		}
		return nil, err
	}
	if !requester.CanAccess(sup.UserID) {
		return nil, ErrForbidden
	}
	return &sup, nil
}

func (s *Service) List(ctx context.Context, requester types.Principal) ([]*models.Supplier, error) {
	if !requester.IsAdmin() {
		return nil, ErrForbidden
	}
	var items []*models.Supplier
	if err := s.db.WithContext(ctx).Order("created_at DESC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

type UpdateInput struct {
	Name        *string
	BottleNo    *int
	ContactNo   *string
	BottlePrice *float64
}

func (s *Service) Update(ctx context.Context, id string, in UpdateInput, requester types.Principal) (*models.Supplier, error) {
	var sup models.Supplier
	if err := s.db.WithContext(ctx).First(&sup, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSupplierNotFound
		}
		return nil, err
	}
	if !requester.CanAccess(sup.UserID) {
		return nil, ErrForbidden
	}
	if in.Name != nil {
		sup.Name = *in.Name
	}
	if in.BottleNo != nil {
		sup.BottleNo = *in.BottleNo
	}
	if in.ContactNo != nil {
		sup.ContactNo = *in.ContactNo
	}
	if in.BottlePrice != nil && *in.BottlePrice > 0 {
		sup.BottlePrice = *in.BottlePrice
	}
	if err := s.db.WithContext(ctx).Save(&sup).Error; err != nil {
		return nil, err
	}
	return &sup, nil
}

func (s *Service) Delete(ctx context.Context, id string, requester types.Principal) error {
	if !requester.IsAdmin() {
		return ErrForbidden
	}
	res := s.db.WithContext(ctx).Delete(&models.Supplier{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrSupplierNotFound
	}
	return nil
}
