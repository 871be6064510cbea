package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/sangkips/pos-api/internal/domain/entity"
	domainRepo "github.com/sangkips/pos-api/internal/domain/repository"
	"gorm.io/gorm"
)

type catalogRepository struct {
	db *gorm.DB
}

// NewCatalogRepository creates a new catalog repository
func NewCatalogRepository(db *gorm.DB) domainRepo.CatalogRepository {
	return &catalogRepository{db: db}
}

func (r *catalogRepository) GetActiveProductsByIDs(ctx context.Context, ids []uuid.UUID) ([]entity.Product, error) {
	var products []entity.Product
	if len(ids) == 0 {
		return products, nil
	}
	err := r.db.WithContext(ctx).
		Preload("Variations").
		Where("id IN ? AND is_active = ?", ids, true).
		Find(&products).Error
	return products, err
}

func (r *catalogRepository) GetDiscountByID(ctx context.Context, id uuid.UUID) (*entity.Discount, error) {
	var discount entity.Discount
	err := r.db.WithContext(ctx).First(&discount, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &discount, err
}

func (r *catalogRepository) GetActivePaymentMethodsByIDs(ctx context.Context, ids []uuid.UUID) ([]entity.PaymentMethod, error) {
	var methods []entity.PaymentMethod
	if len(ids) == 0 {
		return methods, nil
	}
	err := r.db.WithContext(ctx).
		Where("id IN ? AND is_active = ?", ids, true).
		Find(&methods).Error
	return methods, err
}

func (r *catalogRepository) GetPaymentMethodsByIDs(ctx context.Context, ids []uuid.UUID) ([]entity.PaymentMethod, error) {
	var methods []entity.PaymentMethod
	if len(ids) == 0 {
		return methods, nil
	}
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&methods).Error
	return methods, err
}
