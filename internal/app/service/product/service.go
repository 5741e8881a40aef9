package product

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
	ErrProductNotFound = errors.New("product not found")
	ErrForbidden       = errors.New("not authorized")
)

type Service struct {
	log *zap.SugaredLogger
	db  *gorm.DB
}

func NewService(log *zap.SugaredLogger, db *gorm.DB) *Service {
	return &Service{log: log, db: db}
}

type CreateProductInput struct {
	Name        string
	Description string
	Image       string
	Price       float64
	Stock       int
	SupplierID  *string
}

func (s *Service) Create(ctx context.Context, in CreateProductInput, requester types.Principal) (*models.Product, error) {
	if !requester.IsAdmin() && requester.Role != types.UserRoleSupplier {
		return nil, ErrForbidden
	}
	p := &models.Product{
		ID:          tool.GenerateUUIDV7(),
		SupplierID:  in.SupplierID,
		Name:        in.Name,
		Description: in.Description,
		Image:       in.Image,
		Price:       in.Price,
		Stock:       in.Stock,
	}
	if err := s.db.WithContext(ctx).Create(p).Error; err != nil {
		return nil, err
	}
	logctx.FromCtx(ctx, s.log).Infow("product_created", "product_id", p.ID, "name", p.Name)
	return p, nil
}

func (s *Service) Get(ctx context.Context, id string) (*models.Product, error) {
	var p models.Product
	if err := s.db.WithContext(ctx).First(&p, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (s *Service) List(ctx context.Context) ([]*models.Product, error) {
	var items []*models.Product
	if err := s.db.WithContext(ctx).Order("created_at DESC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

type UpdateProductInput struct {
	Name        *string
	Description *string
	Image       *string
	Price       *float64
	Stock       *int
}

func (s *Service) Update(ctx context.Context, id string, in UpdateProductInput, requester types.Principal) (*models.Product, error) {
	if !requester.IsAdmin() && requester.Role != types.UserRoleSupplier {
		return nil, ErrForbidden
	}
	var p models.Product
	if err := s.db.WithContext(ctx).First(&p, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	if in.Name != nil {
		p.Name = *in.Name
	}
	if in.Description != nil {
		p.Description = *in.Description
	}
	if in.Image != nil {
		p.Image = *in.Image
	}
	if in.Price != nil {
		p.Price = *in.Price
	}
	if in.Stock != nil {
		p.Stock = *in.Stock
	}
	if err := s.db.WithContext(ctx).Save(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *Service) Delete(ctx context.Context, id string, requester types.Principal) error {
	if !requester.IsAdmin() {
		return ErrForbidden
	}
	res := s.db.WithContext(ctx).Delete(&models.Product{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrProductNotFound
	}
	return nil
}
