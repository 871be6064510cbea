package repository

import (
	"github.com/google/uuid"
	domainRepo "github.com/sangkips/pos-api/internal/domain/repository"
	"gorm.io/gorm"
)

// VariationScope matches rows for a product variation, treating a nil
// variation as "the product itself" (variation_id IS NULL).
func VariationScope(variationID *uuid.UUID) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if variationID == nil {
			return db.Where("variation_id IS NULL")
		}
		return db.Where("variation_id = ?", *variationID)
	}
}

// TrashedScope switches a query between live and soft-deleted orders.
func TrashedScope(trashed bool) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if !trashed {
			return db
		}
		return db.Unscoped().Where("pos_orders.deleted_at IS NOT NULL")
	}
}

// PosOrderFilterScope applies the listing filters shared by the paginated
// list and the export.
func PosOrderFilterScope(params *domainRepo.PosOrderFilterParams) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if params == nil {
			return db
		}

		if params.Search != "" {
			like := "%" + params.Search + "%"
			db = db.Where(
				`(LOWER(pos_orders.invoice_no) LIKE LOWER(?)
				OR pos_orders.customer_id IN (SELECT id FROM customers WHERE LOWER(name) LIKE LOWER(?))
				OR pos_orders.user_id IN (SELECT id FROM users WHERE LOWER(first_name) LIKE LOWER(?) OR LOWER(last_name) LIKE LOWER(?)
					OR LOWER(first_name || ' ' || last_name) LIKE LOWER(?)))`,
				like, like, like, like, like,
			)
		}
		if params.Status != nil {
			db = db.Where("pos_orders.status = ?", *params.Status)
		}
		if params.PaymentStatus != nil {
			db = db.Where("pos_orders.payment_status = ?", *params.PaymentStatus)
		}
		if params.DateFrom != nil {
			db = db.Where("pos_orders.created_at >= ?", *params.DateFrom)
		}
		if params.DateTo != nil {
			// DateTo is an inclusive calendar day.
			db = db.Where("pos_orders.created_at < ?", params.DateTo.AddDate(0, 0, 1))
		}
		if params.BranchID != nil {
			db = db.Where("pos_orders.branch_id = ?", *params.BranchID)
		}
		if params.CategoryID != nil {
			db = db.Where(`EXISTS (SELECT 1 FROM pos_order_items i JOIN products p ON p.id = i.product_id
				WHERE i.order_id = pos_orders.id AND p.category_id = ?)`, *params.CategoryID)
		}
		if params.BrandID != nil {
			db = db.Where(`EXISTS (SELECT 1 FROM pos_order_items i JOIN products p ON p.id = i.product_id
				WHERE i.order_id = pos_orders.id AND p.brand_id = ?)`, *params.BrandID)
		}
		if params.ProductID != nil {
			db = db.Where(`EXISTS (SELECT 1 FROM pos_order_items i
				WHERE i.order_id = pos_orders.id AND i.product_id = ?)`, *params.ProductID)
		}
		return db
	}
}
