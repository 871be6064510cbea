package repository

import (
	"context"

	domainRepo "github.com/sangkips/pos-api/internal/domain/repository"
	"gorm.io/gorm"
)

type gormTransactor struct {
	db *gorm.DB
}

// NewTransactor creates a transactor whose repositories share one gorm
// transaction.
func NewTransactor(db *gorm.DB) domainRepo.Transactor {
	return &gormTransactor{db: db}
}

func (t *gormTransactor) WithinTransaction(ctx context.Context, fn func(ctx context.Context, repos domainRepo.Repositories) error) error {
	return t.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(ctx, NewRepositories(tx))
	})
}

// NewRepositories binds every order-side repository to db.
func NewRepositories(db *gorm.DB) domainRepo.Repositories {
	return domainRepo.Repositories{
		Orders:   NewPosOrderRepository(db),
		Items:    NewPosOrderItemRepository(db),
		Payments: NewPosPaymentRepository(db),
		Catalog:  NewCatalogRepository(db),
		Stock:    NewStockRepository(db),
	}
}
