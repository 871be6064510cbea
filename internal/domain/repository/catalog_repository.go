package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/sangkips/pos-api/internal/domain/entity"
)

// CatalogRepository is the read-only pricing lookup used while preparing
// order lines.
type CatalogRepository interface {
	// GetActiveProductsByIDs loads active products with their variations in
	// one query. Unknown or inactive ids are simply absent from the result.
	GetActiveProductsByIDs(ctx context.Context, ids []uuid.UUID) ([]entity.Product, error)
	GetDiscountByID(ctx context.Context, id uuid.UUID) (*entity.Discount, error)
	GetActivePaymentMethodsByIDs(ctx context.Context, ids []uuid.UUID) ([]entity.PaymentMethod, error)
	GetPaymentMethodsByIDs(ctx context.Context, ids []uuid.UUID) ([]entity.PaymentMethod, error)
}
