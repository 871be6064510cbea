package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/sangkips/pos-api/internal/domain/entity"
)

// StockMovementInput describes one stock change. For StockOut the warehouse
// is the source, for StockIn and Adjust it is the destination. For Adjust,
// Quantity is the absolute target level rather than a delta.
type StockMovementInput struct {
	ProductID   uuid.UUID
	VariationID *uuid.UUID
	BranchID    uuid.UUID
	WarehouseID uuid.UUID
	Quantity    int
	Reference   string
	Note        string
	CreatedBy   uuid.UUID
}

// StockGateway is the only way inventory quantities change. Calls fail
// loudly on insufficient stock; callers do not pre-check availability.
type StockGateway interface {
	StockOut(ctx context.Context, in StockMovementInput) error
	StockIn(ctx context.Context, in StockMovementInput) error
	Adjust(ctx context.Context, in StockMovementInput) error
}

// StockRepository exposes read access to stock levels and the ledger.
type StockRepository interface {
	GetLevel(ctx context.Context, productID uuid.UUID, variationID *uuid.UUID, warehouseID uuid.UUID) (*entity.ProductStock, error)
	ListMovements(ctx context.Context, reference string) ([]entity.StockMovement, error)
}
