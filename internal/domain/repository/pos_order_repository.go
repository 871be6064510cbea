package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/pos-api/internal/domain/entity"
	"github.com/sangkips/pos-api/internal/domain/enum"
	"github.com/sangkips/pos-api/pkg/pagination"
	"github.com/shopspring/decimal"
)

// PosOrderRepository defines the interface for POS order data operations.
// Getters return (nil, nil) when the order does not exist.
type PosOrderRepository interface {
	Create(ctx context.Context, order *entity.PosOrder) error
	// Update saves the order's own columns; items and payments are untouched.
	Update(ctx context.Context, order *entity.PosOrder) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.PosOrder, error)
	// GetWithDetails loads items, payments, customer and cashier. Trashed
	// orders are included.
	GetWithDetails(ctx context.Context, id uuid.UUID) (*entity.PosOrder, error)
	// LockByID reads a live order with its items under a row lock held until
	// the surrounding transaction ends.
	LockByID(ctx context.Context, id uuid.UUID) (*entity.PosOrder, error)
	List(ctx context.Context, params *PosOrderFilterParams) ([]entity.PosOrder, int64, error)
	// ListAll applies the same filters without pagination, for exports.
	ListAll(ctx context.Context, params *PosOrderFilterParams) ([]entity.PosOrder, error)
	// SoftDelete moves live orders to the trash.
	SoftDelete(ctx context.Context, ids []uuid.UUID) (int64, error)
	// Restore brings trashed orders back.
	Restore(ctx context.Context, ids []uuid.UUID) (int64, error)
	// Purge permanently removes trashed orders, deleting their items and
	// payments first, in one transaction.
	Purge(ctx context.Context, ids []uuid.UUID) (int64, error)
}

// PosOrderFilterParams contains filtering parameters for order queries
type PosOrderFilterParams struct {
	Pagination    *pagination.PaginationParams
	Search        string
	Status        *enum.OrderStatus
	PaymentStatus *enum.PaymentStatus
	DateFrom      *time.Time
	DateTo        *time.Time
	Trashed       bool
	CategoryID    *uuid.UUID
	BrandID       *uuid.UUID
	ProductID     *uuid.UUID
	BranchID      *uuid.UUID
}

// PosOrderItemRepository defines the interface for order line operations
type PosOrderItemRepository interface {
	CreateBatch(ctx context.Context, items []entity.PosOrderItem) error
	Update(ctx context.Context, item *entity.PosOrderItem) error
	DeleteByIDs(ctx context.Context, ids []uuid.UUID) error
}

// PosPaymentRepository defines the interface for order payment operations
type PosPaymentRepository interface {
	CreateBatch(ctx context.Context, payments []entity.PosPayment) error
	DeleteByOrderID(ctx context.Context, orderID uuid.UUID) error
	// SumByOrderID totals every payment ever recorded against the order.
	SumByOrderID(ctx context.Context, orderID uuid.UUID) (decimal.Decimal, error)
}
