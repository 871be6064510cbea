package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/pos-api/internal/domain/enum"
	"gorm.io/gorm"
)

// ProductStock is the on-hand quantity of a product (or one of its
// variations) in a warehouse.
type ProductStock struct {
	ID          uuid.UUID  `gorm:"type:uuid;primary_key" json:"id"`
	ProductID   uuid.UUID  `gorm:"type:uuid;not null;index:idx_stock_lookup" json:"product_id"`
	VariationID *uuid.UUID `gorm:"type:uuid;index:idx_stock_lookup" json:"variation_id,omitempty"`
	WarehouseID uuid.UUID  `gorm:"type:uuid;not null;index:idx_stock_lookup" json:"warehouse_id"`
	BranchID    uuid.UUID  `gorm:"type:uuid;not null;index" json:"branch_id"`
	Quantity    int        `gorm:"not null;default:0" json:"quantity"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// BeforeCreate generates a UUID before creating a new stock row
func (s *ProductStock) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the ProductStock model
func (ProductStock) TableName() string {
	return "product_stocks"
}

// StockMovement is an append-only ledger entry written for every stock change.
type StockMovement struct {
	ID             uuid.UUID              `gorm:"type:uuid;primary_key" json:"id"`
	Type           enum.StockMovementType `gorm:"size:20;not null;index" json:"type"`
	ProductID      uuid.UUID              `gorm:"type:uuid;not null;index" json:"product_id"`
	VariationID    *uuid.UUID             `gorm:"type:uuid" json:"variation_id,omitempty"`
	BranchID       uuid.UUID              `gorm:"type:uuid;not null" json:"branch_id"`
	WarehouseID    uuid.UUID              `gorm:"type:uuid;not null;index" json:"warehouse_id"`
	QuantityChange int                    `gorm:"not null" json:"quantity_change"`
	QuantityBefore int                    `gorm:"not null" json:"quantity_before"`
	QuantityAfter  int                    `gorm:"not null" json:"quantity_after"`
	Reference      string                 `gorm:"size:100;index" json:"reference"`
	Note           string                 `gorm:"size:255" json:"note"`
	CreatedBy      uuid.UUID              `gorm:"type:uuid" json:"created_by"`
	CreatedAt      time.Time              `json:"created_at"`
}

// BeforeCreate generates a UUID before creating a new movement
func (m *StockMovement) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the StockMovement model
func (StockMovement) TableName() string {
	return "stock_movements"
}
