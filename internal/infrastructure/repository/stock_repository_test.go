package repository

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/sangkips/pos-api/internal/domain/entity"
	"github.com/sangkips/pos-api/internal/domain/enum"
	domainRepo "github.com/sangkips/pos-api/internal/domain/repository"
	"github.com/sangkips/pos-api/internal/testutil"
	"github.com/sangkips/pos-api/pkg/apperror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func movementInput(s *testutil.Store, productID uuid.UUID, qty int) domainRepo.StockMovementInput {
	return domainRepo.StockMovementInput{
		ProductID:   productID,
		BranchID:    s.BranchID,
		WarehouseID: s.WarehouseID,
		Quantity:    qty,
		Reference:   "POS-TEST",
		Note:        "test",
		CreatedBy:   s.UserID,
	}
}

func TestStockOut(t *testing.T) {
	s := testutil.NewStore(t)
	repo := NewStockRepository(s.DB)
	ctx := context.Background()
	soap := s.Product(t, "Soap", "10", 5)

	require.NoError(t, repo.StockOut(ctx, movementInput(s, soap.ID, 3)))
	assert.Equal(t, 2, s.StockOf(t, soap.ID, nil))

	err := repo.StockOut(ctx, movementInput(s, soap.ID, 3))
	require.Error(t, err)
	assert.True(t, apperror.IsKind(err, apperror.KindInsufficientStock))
	assert.Contains(t, err.Error(), "requested 3, available 2")
	assert.Equal(t, 2, s.StockOf(t, soap.ID, nil))

	movements, err := repo.ListMovements(ctx, "POS-TEST")
	require.NoError(t, err)
	require.Len(t, movements, 1)
	assert.Equal(t, enum.StockMovementOut, movements[0].Type)
	assert.Equal(t, 5, movements[0].QuantityBefore)
	assert.Equal(t, 2, movements[0].QuantityAfter)
}

func TestStockOutUnstockedProduct(t *testing.T) {
	s := testutil.NewStore(t)
	err := NewStockRepository(s.DB).StockOut(context.Background(), movementInput(s, uuid.New(), 1))
	assert.True(t, apperror.IsKind(err, apperror.KindInsufficientStock))
}

func TestStockOutRejectsNonPositiveQuantity(t *testing.T) {
	s := testutil.NewStore(t)
	soap := s.Product(t, "Soap", "10", 5)
	err := NewStockRepository(s.DB).StockOut(context.Background(), movementInput(s, soap.ID, 0))
	assert.True(t, apperror.IsKind(err, apperror.KindValidation))
}

func TestStockOutSeparatesVariations(t *testing.T) {
	s := testutil.NewStore(t)
	repo := NewStockRepository(s.DB)
	shirt, large := s.VariableProduct(t, "Shirt", "25", 2)

	in := movementInput(s, shirt.ID, 1)
	err := repo.StockOut(context.Background(), in)
	assert.True(t, apperror.IsKind(err, apperror.KindInsufficientStock), "the product level is not the variation level")

	in.VariationID = &large.ID
	require.NoError(t, repo.StockOut(context.Background(), in))
	assert.Equal(t, 1, s.StockOf(t, shirt.ID, &large.ID))
}

func TestStockInCreatesOrIncrements(t *testing.T) {
	s := testutil.NewStore(t)
	repo := NewStockRepository(s.DB)
	ctx := context.Background()
	soap := s.Product(t, "Soap", "10", 5)

	require.NoError(t, repo.StockIn(ctx, movementInput(s, soap.ID, 2)))
	assert.Equal(t, 7, s.StockOf(t, soap.ID, nil))

	fresh := uuid.New()
	require.NoError(t, repo.StockIn(ctx, movementInput(s, fresh, 4)))
	level, err := repo.GetLevel(ctx, fresh, nil, s.WarehouseID)
	require.NoError(t, err)
	require.NotNil(t, level)
	assert.Equal(t, 4, level.Quantity)
}

func TestAdjust(t *testing.T) {
	s := testutil.NewStore(t)
	repo := NewStockRepository(s.DB)
	ctx := context.Background()
	soap := s.Product(t, "Soap", "10", 5)

	require.NoError(t, repo.Adjust(ctx, movementInput(s, soap.ID, 12)))
	assert.Equal(t, 12, s.StockOf(t, soap.ID, nil))

	err := repo.Adjust(ctx, movementInput(s, soap.ID, -1))
	assert.True(t, apperror.IsKind(err, apperror.KindValidation))

	movements, err := repo.ListMovements(ctx, "POS-TEST")
	require.NoError(t, err)
	require.Len(t, movements, 1)
	assert.Equal(t, 7, movements[0].QuantityChange)
}

func TestStockOutRollsBackWithOuterTransaction(t *testing.T) {
	s := testutil.NewStore(t)
	soap := s.Product(t, "Soap", "10", 5)

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := NewStockRepository(tx).StockOut(context.Background(), movementInput(s, soap.ID, 2)); err != nil {
			return err
		}
		return apperror.ErrInsufficientStock
	})
	require.Error(t, err)
	assert.Equal(t, 5, s.StockOf(t, soap.ID, nil))

	var n int64
	s.DB.Model(&entity.StockMovement{}).Count(&n)
	assert.Zero(t, n)
}
