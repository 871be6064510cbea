// Package testutil opens throwaway SQLite databases with the full schema and
// seeds the catalog rows POS tests sell from.
package testutil

import (
	"testing"

	"github.com/google/uuid"
	"github.com/sangkips/pos-api/internal/domain/entity"
	"github.com/sangkips/pos-api/internal/infrastructure/database"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDB returns a migrated in-memory database private to the test.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:pos_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err, "open db")
	require.NoError(t, database.AutoMigrate(db), "migrate")

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

// Store is a seeded shop: one cashier selling from one branch and warehouse.
type Store struct {
	DB          *gorm.DB
	UserID      uuid.UUID
	BranchID    uuid.UUID
	WarehouseID uuid.UUID
	SessionID   uuid.UUID
	Cash        entity.PaymentMethod
	Card        entity.PaymentMethod
}

// NewStore opens a database and seeds a cashier and two payment methods.
func NewStore(t *testing.T) *Store {
	t.Helper()
	db := NewDB(t)
	s := &Store{
		DB:          db,
		BranchID:    uuid.New(),
		WarehouseID: uuid.New(),
		SessionID:   uuid.New(),
		Cash:        entity.PaymentMethod{Name: "Cash", IsActive: true},
		Card:        entity.PaymentMethod{Name: "Card", IsActive: true},
	}

	user := entity.User{FirstName: "Jane", LastName: "Till", Email: "jane@example.com", BranchID: &s.BranchID, IsActive: true}
	require.NoError(t, db.Create(&user).Error)
	s.UserID = user.ID
	require.NoError(t, db.Create(&s.Cash).Error)
	require.NoError(t, db.Create(&s.Card).Error)
	return s
}

// Product creates an active simple product priced at price with qty units
// on hand in the store's warehouse.
func (s *Store) Product(t *testing.T, name, price string, qty int) entity.Product {
	t.Helper()
	p := entity.Product{
		Name:      name,
		SKU:       "SKU-" + name,
		Type:      entity.ProductTypeSimple,
		BasePrice: decimal.RequireFromString(price),
		IsActive:  true,
	}
	require.NoError(t, s.DB.Create(&p).Error)
	s.SetStock(t, p.ID, nil, qty)
	return p
}

// VariableProduct creates an active variable product with one variation
// priced at price holding qty units.
func (s *Store) VariableProduct(t *testing.T, name, price string, qty int) (entity.Product, entity.ProductVariation) {
	t.Helper()
	p := entity.Product{
		Name:     name,
		SKU:      "SKU-" + name,
		Type:     entity.ProductTypeVariable,
		IsActive: true,
	}
	require.NoError(t, s.DB.Create(&p).Error)
	v := entity.ProductVariation{
		ProductID: p.ID,
		Name:      name + " Large",
		SKU:       "SKU-" + name + "-L",
		Price:     decimal.RequireFromString(price),
	}
	require.NoError(t, s.DB.Create(&v).Error)
	s.SetStock(t, p.ID, &v.ID, qty)
	p.Variations = []entity.ProductVariation{v}
	return p, v
}

// SetStock writes an on-hand level directly, bypassing the ledger.
func (s *Store) SetStock(t *testing.T, productID uuid.UUID, variationID *uuid.UUID, qty int) {
	t.Helper()
	level := entity.ProductStock{
		ProductID:   productID,
		VariationID: variationID,
		WarehouseID: s.WarehouseID,
		BranchID:    s.BranchID,
		Quantity:    qty,
	}
	require.NoError(t, s.DB.Create(&level).Error)
}

// StockOf reads the on-hand quantity of a product in the store's warehouse.
func (s *Store) StockOf(t *testing.T, productID uuid.UUID, variationID *uuid.UUID) int {
	t.Helper()
	var level entity.ProductStock
	q := s.DB.Where("product_id = ? AND warehouse_id = ?", productID, s.WarehouseID)
	if variationID == nil {
		q = q.Where("variation_id IS NULL")
	} else {
		q = q.Where("variation_id = ?", *variationID)
	}
	require.NoError(t, q.First(&level).Error)
	return level.Quantity
}

// CountMovements counts ledger rows written under reference.
func (s *Store) CountMovements(t *testing.T, reference string) int64 {
	t.Helper()
	var n int64
	require.NoError(t, s.DB.Model(&entity.StockMovement{}).Where("reference = ?", reference).Count(&n).Error)
	return n
}
