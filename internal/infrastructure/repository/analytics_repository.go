package repository

import (
	"context"

	domainRepo "github.com/sangkips/pos-api/internal/domain/repository"
	"gorm.io/gorm"
)

type analyticsRepository struct {
	db *gorm.DB
}

// NewAnalyticsRepository creates a new analytics repository
func NewAnalyticsRepository(db *gorm.DB) domainRepo.AnalyticsRepository {
	return &analyticsRepository{db: db}
}

func (r *analyticsRepository) GetTopProducts(ctx context.Context, limit int) ([]domainRepo.TopProductResult, error) {
	if limit <= 0 {
		limit = 5
	}

	var results []domainRepo.TopProductResult
	query := `
		SELECT
			i.product_id,
			MAX(i.name) AS name,
			COALESCE(SUM(i.quantity), 0) AS total_qty,
			COALESCE(SUM(i.line_total), 0) AS total_amount
		FROM pos_order_items i
		JOIN pos_orders o ON o.id = i.order_id
		WHERE o.deleted_at IS NULL
		GROUP BY i.product_id
		ORDER BY total_qty DESC
		LIMIT ?
	`
	err := r.db.WithContext(ctx).Raw(query, limit).Scan(&results).Error
	return results, err
}

func (r *analyticsRepository) GetBrandSales(ctx context.Context) ([]domainRepo.BrandSalesResult, error) {
	var results []domainRepo.BrandSalesResult
	query := `
		SELECT
			b.name AS name,
			COALESCE(SUM(i.quantity), 0) AS total_qty,
			COALESCE(SUM(i.line_total), 0) AS total_amount
		FROM pos_order_items i
		JOIN pos_orders o ON o.id = i.order_id
		JOIN products p ON p.id = i.product_id
		JOIN brands b ON b.id = p.brand_id
		WHERE o.deleted_at IS NULL
		GROUP BY b.id, b.name
		ORDER BY total_amount DESC
	`
	err := r.db.WithContext(ctx).Raw(query).Scan(&results).Error
	return results, err
}
