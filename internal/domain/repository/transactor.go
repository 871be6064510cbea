package repository

import (
	"context"

	"gorm.io/gorm"
)

// ErrDuplicateKey is returned, possibly wrapped, when a write violates a
// unique index.
var ErrDuplicateKey = gorm.ErrDuplicatedKey

// Repositories groups the repositories bound to a single unit of work.
type Repositories struct {
	Orders   PosOrderRepository
	Items    PosOrderItemRepository
	Payments PosPaymentRepository
	Catalog  CatalogRepository
	Stock    StockGateway
}

// Transactor runs fn inside one database transaction. Returning an error from
// fn rolls back every write made through repos, stock movements included.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error
}
