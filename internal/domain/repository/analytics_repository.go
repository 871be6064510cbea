package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TopProductResult represents a product's sales performance
type TopProductResult struct {
	ProductID   uuid.UUID       `json:"product_id"`
	Name        string          `json:"name"`
	TotalQty    int             `json:"total_qty"`
	TotalAmount decimal.Decimal `json:"total_amount"`
}

// BrandSalesResult represents sales aggregated by brand
type BrandSalesResult struct {
	Name        string          `json:"name"`
	TotalQty    int             `json:"total_qty"`
	TotalAmount decimal.Decimal `json:"total_amount"`
}

// AnalyticsRepository defines aggregation queries over non-trashed POS orders
type AnalyticsRepository interface {
	// GetTopProducts returns the best selling products by quantity
	GetTopProducts(ctx context.Context, limit int) ([]TopProductResult, error)
	// GetBrandSales returns sales per brand ordered by amount
	GetBrandSales(ctx context.Context) ([]BrandSalesResult, error)
}
