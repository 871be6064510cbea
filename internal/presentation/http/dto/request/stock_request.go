package request

import (
	"github.com/google/uuid"
	"github.com/sangkips/pos-api/pkg/apperror"
)

// StockLevelQuery selects one stock level.
type StockLevelQuery struct {
	ProductID   string `form:"product_id"`
	VariationID string `form:"variation_id"`
	WarehouseID string `form:"warehouse_id"`
}

// StockLevelKey is a parsed StockLevelQuery.
type StockLevelKey struct {
	ProductID   uuid.UUID
	VariationID *uuid.UUID
	WarehouseID uuid.UUID
}

// Parse validates the query.
func (q *StockLevelQuery) Parse() (*StockLevelKey, error) {
	var errs []apperror.FieldError
	key := &StockLevelKey{}

	var err error
	if key.ProductID, err = uuid.Parse(q.ProductID); err != nil {
		errs = append(errs, apperror.FieldError{Field: "product_id", Message: "must be a valid UUID"})
	}
	if key.WarehouseID, err = uuid.Parse(q.WarehouseID); err != nil {
		errs = append(errs, apperror.FieldError{Field: "warehouse_id", Message: "must be a valid UUID"})
	}
	if q.VariationID != "" {
		id, err := uuid.Parse(q.VariationID)
		if err != nil {
			errs = append(errs, apperror.FieldError{Field: "variation_id", Message: "must be a valid UUID"})
		} else {
			key.VariationID = &id
		}
	}

	if len(errs) > 0 {
		return nil, apperror.NewValidationError(errs)
	}
	return key, nil
}
