package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/sangkips/pos-api/internal/domain/entity"
	domainRepo "github.com/sangkips/pos-api/internal/domain/repository"
	"github.com/sangkips/pos-api/pkg/pagination"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type posOrderRepository struct {
	db *gorm.DB
}

// NewPosOrderRepository creates a new POS order repository
func NewPosOrderRepository(db *gorm.DB) domainRepo.PosOrderRepository {
	return &posOrderRepository{db: db}
}

func (r *posOrderRepository) Create(ctx context.Context, order *entity.PosOrder) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(order).Error
}

func (r *posOrderRepository) Update(ctx context.Context, order *entity.PosOrder) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(order).Error
}

func (r *posOrderRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.PosOrder, error) {
	var order entity.PosOrder
	err := r.db.WithContext(ctx).First(&order, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &order, err
}

func (r *posOrderRepository) GetWithDetails(ctx context.Context, id uuid.UUID) (*entity.PosOrder, error) {
	var order entity.PosOrder
	err := r.db.WithContext(ctx).
		Unscoped().
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		Preload("Payments", func(db *gorm.DB) *gorm.DB {
			return db.Order("paid_at ASC")
		}).
		Preload("Customer").
		Preload("User").
		First(&order, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &order, err
}

func (r *posOrderRepository) LockByID(ctx context.Context, id uuid.UUID) (*entity.PosOrder, error) {
	var order entity.PosOrder
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&order, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if err := r.db.WithContext(ctx).
		Where("order_id = ?", order.ID).
		Order("created_at ASC").
		Find(&order.Items).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *posOrderRepository) List(ctx context.Context, params *domainRepo.PosOrderFilterParams) ([]entity.PosOrder, int64, error) {
	var orders []entity.PosOrder
	var total int64

	query := r.filtered(ctx, params)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if params.Pagination == nil {
		params.Pagination = pagination.DefaultPagination()
	}
	params.Pagination.Validate()
	err := query.
		Preload("Customer").
		Preload("User").
		Preload("Items").
		Order("pos_orders.created_at DESC").
		Offset(params.Pagination.Offset()).
		Limit(params.Pagination.PerPage).
		Find(&orders).Error

	return orders, total, err
}

func (r *posOrderRepository) ListAll(ctx context.Context, params *domainRepo.PosOrderFilterParams) ([]entity.PosOrder, error) {
	var orders []entity.PosOrder
	err := r.filtered(ctx, params).
		Preload("Customer").
		Preload("User").
		Order("pos_orders.created_at DESC").
		Find(&orders).Error
	return orders, err
}

func (r *posOrderRepository) filtered(ctx context.Context, params *domainRepo.PosOrderFilterParams) *gorm.DB {
	query := r.db.WithContext(ctx).Model(&entity.PosOrder{})
	query = TrashedScope(params.Trashed)(query)
	return PosOrderFilterScope(params)(query)
}

func (r *posOrderRepository) SoftDelete(ctx context.Context, ids []uuid.UUID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res := r.db.WithContext(ctx).Where("id IN ?", ids).Delete(&entity.PosOrder{})
	return res.RowsAffected, res.Error
}

func (r *posOrderRepository) Restore(ctx context.Context, ids []uuid.UUID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res := r.db.WithContext(ctx).Unscoped().
		Model(&entity.PosOrder{}).
		Where("id IN ? AND deleted_at IS NOT NULL", ids).
		Update("deleted_at", nil)
	return res.RowsAffected, res.Error
}

func (r *posOrderRepository) Purge(ctx context.Context, ids []uuid.UUID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	var purged int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var trashed []uuid.UUID
		if err := tx.Unscoped().Model(&entity.PosOrder{}).
			Where("id IN ? AND deleted_at IS NOT NULL", ids).
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Pluck("id", &trashed).Error; err != nil {
			return err
		}
		if len(trashed) == 0 {
			return nil
		}

		// Children first so foreign keys never dangle.
		if err := tx.Where("order_id IN ?", trashed).Delete(&entity.PosOrderItem{}).Error; err != nil {
			return err
		}
		if err := tx.Where("order_id IN ?", trashed).Delete(&entity.PosPayment{}).Error; err != nil {
			return err
		}
		res := tx.Unscoped().Where("id IN ?", trashed).Delete(&entity.PosOrder{})
		if res.Error != nil {
			return res.Error
		}
		purged = res.RowsAffected
		return nil
	})
	return purged, err
}

type posOrderItemRepository struct {
	db *gorm.DB
}

// NewPosOrderItemRepository creates a new order item repository
func NewPosOrderItemRepository(db *gorm.DB) domainRepo.PosOrderItemRepository {
	return &posOrderItemRepository{db: db}
}

func (r *posOrderItemRepository) CreateBatch(ctx context.Context, items []entity.PosOrderItem) error {
	if len(items) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(&items).Error
}

func (r *posOrderItemRepository) Update(ctx context.Context, item *entity.PosOrderItem) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(item).Error
}

func (r *posOrderItemRepository) DeleteByIDs(ctx context.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Where("id IN ?", ids).Delete(&entity.PosOrderItem{}).Error
}

type posPaymentRepository struct {
	db *gorm.DB
}

// NewPosPaymentRepository creates a new order payment repository
func NewPosPaymentRepository(db *gorm.DB) domainRepo.PosPaymentRepository {
	return &posPaymentRepository{db: db}
}

func (r *posPaymentRepository) CreateBatch(ctx context.Context, payments []entity.PosPayment) error {
	if len(payments) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&payments).Error
}

func (r *posPaymentRepository) DeleteByOrderID(ctx context.Context, orderID uuid.UUID) error {
	return r.db.WithContext(ctx).Where("order_id = ?", orderID).Delete(&entity.PosPayment{}).Error
}

func (r *posPaymentRepository) SumByOrderID(ctx context.Context, orderID uuid.UUID) (decimal.Decimal, error) {
	var sum decimal.NullDecimal
	err := r.db.WithContext(ctx).
		Model(&entity.PosPayment{}).
		Select("SUM(amount)").
		Where("order_id = ?", orderID).
		Row().
		Scan(&sum)
	if err != nil {
		return decimal.Zero, err
	}
	if !sum.Valid {
		return decimal.Zero, nil
	}
	return sum.Decimal, nil
}
