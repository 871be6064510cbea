package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/sangkips/pos-api/internal/domain/entity"
	"github.com/sangkips/pos-api/internal/domain/enum"
	domainRepo "github.com/sangkips/pos-api/internal/domain/repository"
	"github.com/sangkips/pos-api/pkg/apperror"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// StockRepository implements both the stock gateway used by order operations
// and the read side used by the stock endpoints.
type StockRepository struct {
	db *gorm.DB
}

// NewStockRepository creates a new stock repository
func NewStockRepository(db *gorm.DB) *StockRepository {
	return &StockRepository{db: db}
}

var (
	_ domainRepo.StockGateway    = (*StockRepository)(nil)
	_ domainRepo.StockRepository = (*StockRepository)(nil)
)

func (r *StockRepository) StockOut(ctx context.Context, in domainRepo.StockMovementInput) error {
	if in.Quantity <= 0 {
		return apperror.NewFieldError("quantity", "quantity must be at least 1")
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		level, err := lockLevel(tx, in)
		if err != nil {
			return err
		}
		if level == nil || level.Quantity < in.Quantity {
			available := 0
			if level != nil {
				available = level.Quantity
			}
			return apperror.WithMessage(apperror.ErrInsufficientStock,
				fmt.Sprintf("Insufficient stock for product %s: requested %d, available %d", in.ProductID, in.Quantity, available))
		}

		res := tx.Model(&entity.ProductStock{}).
			Where("id = ? AND quantity >= ?", level.ID, in.Quantity).
			Update("quantity", gorm.Expr("quantity - ?", in.Quantity))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperror.ErrInsufficientStock
		}

		return writeMovement(tx, enum.StockMovementOut, in, -in.Quantity, level.Quantity)
	})
}

func (r *StockRepository) StockIn(ctx context.Context, in domainRepo.StockMovementInput) error {
	if in.Quantity <= 0 {
		return apperror.NewFieldError("quantity", "quantity must be at least 1")
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		level, err := lockLevel(tx, in)
		if err != nil {
			return err
		}

		before := 0
		if level == nil {
			level = &entity.ProductStock{
				ProductID:   in.ProductID,
				VariationID: in.VariationID,
				WarehouseID: in.WarehouseID,
				BranchID:    in.BranchID,
				Quantity:    in.Quantity,
			}
			if err := tx.Create(level).Error; err != nil {
				return err
			}
		} else {
			before = level.Quantity
			if err := tx.Model(&entity.ProductStock{}).
				Where("id = ?", level.ID).
				Update("quantity", gorm.Expr("quantity + ?", in.Quantity)).Error; err != nil {
				return err
			}
		}

		return writeMovement(tx, enum.StockMovementIn, in, in.Quantity, before)
	})
}

func (r *StockRepository) Adjust(ctx context.Context, in domainRepo.StockMovementInput) error {
	if in.Quantity < 0 {
		return apperror.NewFieldError("quantity", "quantity cannot be negative")
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		level, err := lockLevel(tx, in)
		if err != nil {
			return err
		}

		before := 0
		if level == nil {
			level = &entity.ProductStock{
				ProductID:   in.ProductID,
				VariationID: in.VariationID,
				WarehouseID: in.WarehouseID,
				BranchID:    in.BranchID,
				Quantity:    in.Quantity,
			}
			if err := tx.Create(level).Error; err != nil {
				return err
			}
		} else {
			before = level.Quantity
			if err := tx.Model(&entity.ProductStock{}).
				Where("id = ?", level.ID).
				Update("quantity", in.Quantity).Error; err != nil {
				return err
			}
		}

		return writeMovement(tx, enum.StockMovementAdjustment, in, in.Quantity-before, before)
	})
}

func (r *StockRepository) GetLevel(ctx context.Context, productID uuid.UUID, variationID *uuid.UUID, warehouseID uuid.UUID) (*entity.ProductStock, error) {
	var level entity.ProductStock
	err := r.db.WithContext(ctx).
		Scopes(VariationScope(variationID)).
		Where("product_id = ? AND warehouse_id = ?", productID, warehouseID).
		First(&level).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &level, err
}

func (r *StockRepository) ListMovements(ctx context.Context, reference string) ([]entity.StockMovement, error) {
	var movements []entity.StockMovement
	err := r.db.WithContext(ctx).
		Where("reference = ?", reference).
		Order("created_at ASC").
		Find(&movements).Error
	return movements, err
}

func lockLevel(tx *gorm.DB, in domainRepo.StockMovementInput) (*entity.ProductStock, error) {
	var level entity.ProductStock
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Scopes(VariationScope(in.VariationID)).
		Where("product_id = ? AND warehouse_id = ?", in.ProductID, in.WarehouseID).
		First(&level).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &level, nil
}

func writeMovement(tx *gorm.DB, movementType enum.StockMovementType, in domainRepo.StockMovementInput, change, before int) error {
	movement := &entity.StockMovement{
		Type:           movementType,
		ProductID:      in.ProductID,
		VariationID:    in.VariationID,
		BranchID:       in.BranchID,
		WarehouseID:    in.WarehouseID,
		QuantityChange: change,
		QuantityBefore: before,
		QuantityAfter:  before + change,
		Reference:      in.Reference,
		Note:           in.Note,
		CreatedBy:      in.CreatedBy,
	}
	return tx.Create(movement).Error
}
