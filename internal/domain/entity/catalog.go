package entity

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/pos-api/internal/domain/enum"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Product types
const (
	ProductTypeSimple   = "simple"
	ProductTypeVariable = "variable"
)

// Product is the read model the POS prices lines from. Catalog maintenance
// lives elsewhere.
type Product struct {
	ID                uuid.UUID           `gorm:"type:uuid;primary_key" json:"id"`
	CategoryID        *uuid.UUID          `gorm:"type:uuid;index" json:"category_id,omitempty"`
	BrandID           *uuid.UUID          `gorm:"type:uuid;index" json:"brand_id,omitempty"`
	Name              string              `gorm:"size:255;not null" json:"name"`
	SKU               string              `gorm:"size:100;index" json:"sku"`
	Type              string              `gorm:"size:20;not null" json:"type"`
	BasePrice         decimal.Decimal     `gorm:"type:numeric(14,2);not null;default:0" json:"base_price"`
	BaseDiscountPrice decimal.NullDecimal `gorm:"type:numeric(14,2)" json:"base_discount_price"`
	IsActive          bool                `gorm:"not null" json:"is_active"`
	CreatedAt         time.Time           `json:"created_at"`
	UpdatedAt         time.Time           `json:"updated_at"`
	DeletedAt         gorm.DeletedAt      `gorm:"index" json:"-"`

	// Relationships
	Category   *Category          `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
	Brand      *Brand             `gorm:"foreignKey:BrandID" json:"brand,omitempty"`
	Variations []ProductVariation `gorm:"foreignKey:ProductID" json:"variations,omitempty"`
}

// BeforeCreate generates a UUID before creating a new product
func (p *Product) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the Product model
func (Product) TableName() string {
	return "products"
}

// RequiresVariation reports whether a line for this product must name a variation.
func (p *Product) RequiresVariation() bool {
	return p.Type == ProductTypeVariable
}

// FindVariation returns the product's variation with the given id, if owned.
func (p *Product) FindVariation(id uuid.UUID) *ProductVariation {
	for i := range p.Variations {
		if p.Variations[i].ID == id {
			return &p.Variations[i]
		}
	}
	return nil
}

// ProductVariation is a sellable variant (size, colour...) of a variable product.
type ProductVariation struct {
	ID            uuid.UUID           `gorm:"type:uuid;primary_key" json:"id"`
	ProductID     uuid.UUID           `gorm:"type:uuid;not null;index" json:"product_id"`
	Name          string              `gorm:"size:255" json:"name"`
	SKU           string              `gorm:"size:100" json:"sku"`
	Price         decimal.Decimal     `gorm:"type:numeric(14,2);not null;default:0" json:"price"`
	DiscountPrice decimal.NullDecimal `gorm:"type:numeric(14,2)" json:"discount_price"`
	CreatedAt     time.Time           `json:"created_at"`
	UpdatedAt     time.Time           `json:"updated_at"`
}

// BeforeCreate generates a UUID before creating a new variation
func (v *ProductVariation) BeforeCreate(tx *gorm.DB) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the ProductVariation model
func (ProductVariation) TableName() string {
	return "product_variations"
}

// Category represents a product category
type Category struct {
	ID        uuid.UUID      `gorm:"type:uuid;primary_key" json:"id"`
	Name      string         `gorm:"size:255;not null" json:"name"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// BeforeCreate generates a UUID before creating a new category
func (c *Category) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the Category model
func (Category) TableName() string {
	return "categories"
}

// Brand represents a product brand
type Brand struct {
	ID        uuid.UUID      `gorm:"type:uuid;primary_key" json:"id"`
	Name      string         `gorm:"size:255;not null" json:"name"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// BeforeCreate generates a UUID before creating a new brand
func (b *Brand) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the Brand model
func (Brand) TableName() string {
	return "brands"
}

// Discount is a reusable order-level discount rule.
type Discount struct {
	ID        uuid.UUID         `gorm:"type:uuid;primary_key" json:"id"`
	Name      string            `gorm:"size:255;not null" json:"name"`
	Type      enum.DiscountType `gorm:"size:20;not null" json:"type"`
	Value     decimal.Decimal   `gorm:"type:numeric(14,2);not null" json:"-"`
	IsActive  bool              `gorm:"not null" json:"is_active"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
	DeletedAt gorm.DeletedAt    `gorm:"index" json:"-"`
}

// MarshalJSON renders the rule value with two decimals.
func (d Discount) MarshalJSON() ([]byte, error) {
	type Alias Discount
	return json.Marshal(&struct {
		Alias
		Value string `json:"value"`
	}{
		Alias: Alias(d),
		Value: d.Value.StringFixed(2),
	})
}

// BeforeCreate generates a UUID before creating a new discount
func (d *Discount) BeforeCreate(tx *gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the Discount model
func (Discount) TableName() string {
	return "discounts"
}

// PaymentMethod is a tender type accepted at the till (cash, card, bank...).
type PaymentMethod struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	Name      string    `gorm:"size:100;not null" json:"name"`
	IsActive  bool      `gorm:"not null" json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BeforeCreate generates a UUID before creating a new payment method
func (m *PaymentMethod) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the PaymentMethod model
func (PaymentMethod) TableName() string {
	return "payment_methods"
}
