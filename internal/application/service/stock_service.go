package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/sangkips/pos-api/internal/domain/entity"
	"github.com/sangkips/pos-api/internal/domain/enum"
	"github.com/sangkips/pos-api/internal/domain/repository"
	"github.com/sangkips/pos-api/pkg/apperror"
	"github.com/sangkips/pos-api/pkg/logger"
	"github.com/sangkips/pos-api/pkg/metrics"
	"github.com/sangkips/pos-api/pkg/utils"
)

// DefaultAdjustNote is written when the cashier leaves the note empty.
const DefaultAdjustNote = "Market quick adjustment from POS"

// StockService exposes quick stock corrections from the till and read
// access to levels and the movement ledger.
type StockService struct {
	tx      repository.Transactor
	stock   repository.StockRepository
	metrics *metrics.POSMetrics
	log     *logger.Logger
	now     func() time.Time
}

// NewStockService creates a new stock service
func NewStockService(tx repository.Transactor, stock repository.StockRepository, m *metrics.POSMetrics, log *logger.Logger) *StockService {
	if log == nil {
		log = logger.Nop()
	}
	return &StockService{tx: tx, stock: stock, metrics: m, log: log, now: time.Now}
}

// AdjustStockInput sets the on-hand quantity of a product in a warehouse.
type AdjustStockInput struct {
	ProductID   uuid.UUID  `json:"product_id" validate:"required"`
	VariationID *uuid.UUID `json:"variation_id"`
	WarehouseID uuid.UUID  `json:"warehouse_id" validate:"required"`
	BranchID    *uuid.UUID `json:"branch_id"`
	Quantity    int        `json:"quantity" validate:"gte=0"`
	Note        string     `json:"note" validate:"max=255"`
}

// AdjustResult is the level after an adjustment and the reference written
// to the ledger.
type AdjustResult struct {
	Reference string               `json:"reference"`
	Stock     *entity.ProductStock `json:"stock"`
}

// Adjust sets the absolute quantity of a product (or variation) in a
// warehouse and records the movement.
func (s *StockService) Adjust(ctx context.Context, actor Actor, input *AdjustStockInput) (*AdjustResult, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}
	branchID, err := resolveBranch(input.BranchID, actor)
	if err != nil {
		return nil, err
	}

	note := strings.TrimSpace(input.Note)
	if note == "" {
		note = DefaultAdjustNote
	}
	reference := utils.GenerateAdjustReference(s.now())

	err = s.tx.WithinTransaction(ctx, func(ctx context.Context, repos repository.Repositories) error {
		products, err := repos.Catalog.GetActiveProductsByIDs(ctx, []uuid.UUID{input.ProductID})
		if err != nil {
			return apperror.NewGatewayError("failed to load product", err)
		}
		if len(products) == 0 {
			return apperror.WithMessage(apperror.ErrInvalidProduct, "Invalid product.")
		}
		product := &products[0]
		if product.RequiresVariation() && input.VariationID == nil {
			return apperror.WithMessage(apperror.ErrVariationRequired, "Variation is required for: "+product.Name)
		}
		if input.VariationID != nil && product.FindVariation(*input.VariationID) == nil {
			return apperror.WithMessage(apperror.ErrInvalidVariation, "Invalid variation for: "+product.Name)
		}

		err = repos.Stock.Adjust(ctx, repository.StockMovementInput{
			ProductID:   input.ProductID,
			VariationID: input.VariationID,
			BranchID:    branchID,
			WarehouseID: input.WarehouseID,
			Quantity:    input.Quantity,
			Reference:   reference,
			Note:        note,
			CreatedBy:   actor.UserID,
		})
		return apperror.NewGatewayError("stock adjustment failed", err)
	})
	if err != nil {
		s.metrics.IncFailure("stock_adjust", string(apperror.GetAppError(err).Kind))
		return nil, err
	}

	level, err := s.GetLevel(ctx, input.ProductID, input.VariationID, input.WarehouseID)
	if err != nil {
		return nil, err
	}

	s.metrics.IncOperation("stock_adjust", string(enum.StockMovementAdjustment))
	s.log.Event(ctx, zerolog.InfoLevel).
		Str("product_id", input.ProductID.String()).
		Str("warehouse_id", input.WarehouseID.String()).
		Int("quantity", input.Quantity).
		Str("reference", reference).
		Msg("stock adjusted")

	return &AdjustResult{Reference: reference, Stock: level}, nil
}

// GetLevel returns the stock row for a product (or variation) in a
// warehouse. A product never stocked there reads as zero.
func (s *StockService) GetLevel(ctx context.Context, productID uuid.UUID, variationID *uuid.UUID, warehouseID uuid.UUID) (*entity.ProductStock, error) {
	level, err := s.stock.GetLevel(ctx, productID, variationID, warehouseID)
	if err != nil {
		return nil, apperror.NewGatewayError("failed to load stock level", err)
	}
	if level == nil {
		level = &entity.ProductStock{
			ProductID:   productID,
			VariationID: variationID,
			WarehouseID: warehouseID,
		}
	}
	return level, nil
}

// ListMovements returns the ledger entries written under reference, such
// as an invoice number.
func (s *StockService) ListMovements(ctx context.Context, reference string) ([]entity.StockMovement, error) {
	reference = strings.TrimSpace(reference)
	if reference == "" {
		return nil, apperror.NewFieldError("reference", "is required")
	}
	movements, err := s.stock.ListMovements(ctx, reference)
	if err != nil {
		return nil, apperror.NewGatewayError("failed to load stock movements", err)
	}
	if movements == nil {
		movements = []entity.StockMovement{}
	}
	return movements, nil
}
