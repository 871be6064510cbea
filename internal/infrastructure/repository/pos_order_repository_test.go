package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/pos-api/internal/domain/entity"
	"github.com/sangkips/pos-api/internal/domain/enum"
	domainRepo "github.com/sangkips/pos-api/internal/domain/repository"
	"github.com/sangkips/pos-api/internal/testutil"
	"github.com/sangkips/pos-api/pkg/pagination"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedOrder(t *testing.T, s *testutil.Store, product entity.Product, status enum.OrderStatus, payments ...string) entity.PosOrder {
	t.Helper()
	ctx := context.Background()
	order := entity.PosOrder{
		PosSessionID:  s.SessionID,
		BranchID:      s.BranchID,
		WarehouseID:   s.WarehouseID,
		UserID:        s.UserID,
		Status:        status,
		PaymentStatus: enum.PaymentStatusUnpaid,
		TotalAmount:   product.BasePrice,
	}
	require.NoError(t, NewPosOrderRepository(s.DB).Create(ctx, &order))
	require.NoError(t, NewPosOrderItemRepository(s.DB).CreateBatch(ctx, []entity.PosOrderItem{{
		OrderID:   order.ID,
		ProductID: product.ID,
		Name:      product.Name,
		Quantity:  1,
		UnitPrice: product.BasePrice,
		LineTotal: product.BasePrice,
	}}))

	var rows []entity.PosPayment
	for _, amount := range payments {
		rows = append(rows, entity.PosPayment{
			OrderID:         order.ID,
			BranchID:        s.BranchID,
			PaymentMethodID: s.Cash.ID,
			Amount:          decimal.RequireFromString(amount),
			PaidAt:          time.Now(),
		})
	}
	require.NoError(t, NewPosPaymentRepository(s.DB).CreateBatch(ctx, rows))
	return order
}

func TestPosOrderRepositoryDetailsAndLock(t *testing.T) {
	s := testutil.NewStore(t)
	repo := NewPosOrderRepository(s.DB)
	ctx := context.Background()
	soap := s.Product(t, "Soap", "10", 5)
	order := seedOrder(t, s, soap, enum.OrderStatusCompleted, "4", "6")

	got, err := repo.GetWithDetails(ctx, order.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Len(t, got.Items, 1)
	assert.Len(t, got.Payments, 2)
	require.NotNil(t, got.User)
	assert.Equal(t, "Jane", got.User.FirstName)

	locked, err := repo.LockByID(ctx, order.ID)
	require.NoError(t, err)
	require.NotNil(t, locked)
	assert.Len(t, locked.Items, 1)

	missing, err := repo.LockByID(ctx, uuid.New())
	require.NoError(t, err)
	assert.Nil(t, missing)

	sum, err := NewPosPaymentRepository(s.DB).SumByOrderID(ctx, order.ID)
	require.NoError(t, err)
	assert.True(t, sum.Equal(decimal.NewFromInt(10)), sum.String())

	none, err := NewPosPaymentRepository(s.DB).SumByOrderID(ctx, uuid.New())
	require.NoError(t, err)
	assert.True(t, none.IsZero())
}

func TestPosOrderRepositoryTrashLifecycle(t *testing.T) {
	s := testutil.NewStore(t)
	repo := NewPosOrderRepository(s.DB)
	ctx := context.Background()
	soap := s.Product(t, "Soap", "10", 5)
	a := seedOrder(t, s, soap, enum.OrderStatusDraft)
	b := seedOrder(t, s, soap, enum.OrderStatusCompleted, "10")

	n, err := repo.Purge(ctx, []uuid.UUID{a.ID})
	require.NoError(t, err)
	assert.Zero(t, n, "live orders are not purged")

	n, err = repo.SoftDelete(ctx, []uuid.UUID{a.ID, b.ID})
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	live, err := repo.GetByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Nil(t, live)

	n, err = repo.Restore(ctx, []uuid.UUID{a.ID})
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	n, err = repo.Purge(ctx, []uuid.UUID{a.ID, b.ID})
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	gone, err := repo.GetWithDetails(ctx, b.ID)
	require.NoError(t, err)
	assert.Nil(t, gone)
	var payments, items int64
	require.NoError(t, s.DB.Unscoped().Model(&entity.PosPayment{}).Where("order_id = ?", b.ID).Count(&payments).Error)
	require.NoError(t, s.DB.Unscoped().Model(&entity.PosOrderItem{}).Where("order_id = ?", b.ID).Count(&items).Error)
	assert.Zero(t, payments)
	assert.Zero(t, items)

	kept, err := repo.GetByID(ctx, a.ID)
	require.NoError(t, err)
	assert.NotNil(t, kept)
}

func TestPosOrderRepositoryListPaginates(t *testing.T) {
	s := testutil.NewStore(t)
	repo := NewPosOrderRepository(s.DB)
	soap := s.Product(t, "Soap", "10", 5)
	brush := s.Product(t, "Brush", "5", 5)
	for i := 0; i < 3; i++ {
		seedOrder(t, s, soap, enum.OrderStatusCompleted)
	}
	seedOrder(t, s, brush, enum.OrderStatusDraft)

	params := &domainRepo.PosOrderFilterParams{Pagination: &pagination.PaginationParams{Page: 2, PerPage: 3}}
	orders, total, err := repo.List(context.Background(), params)
	require.NoError(t, err)
	assert.EqualValues(t, 4, total)
	assert.Len(t, orders, 1)

	orders, total, err = repo.List(context.Background(), &domainRepo.PosOrderFilterParams{ProductID: &brush.ID})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, orders, 1)
	assert.Len(t, orders[0].Items, 1)

	all, err := repo.ListAll(context.Background(), &domainRepo.PosOrderFilterParams{BranchID: &s.BranchID})
	require.NoError(t, err)
	assert.Len(t, all, 4)

	other := uuid.New()
	all, err = repo.ListAll(context.Background(), &domainRepo.PosOrderFilterParams{BranchID: &other})
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestPosOrderRepositoryCategoryFilter(t *testing.T) {
	s := testutil.NewStore(t)
	repo := NewPosOrderRepository(s.DB)
	category := entity.Category{Name: "Bath"}
	require.NoError(t, s.DB.Create(&category).Error)
	soap := s.Product(t, "Soap", "10", 5)
	require.NoError(t, s.DB.Model(&soap).Update("category_id", category.ID).Error)
	brush := s.Product(t, "Brush", "5", 5)

	want := seedOrder(t, s, soap, enum.OrderStatusCompleted)
	seedOrder(t, s, brush, enum.OrderStatusCompleted)

	all, err := repo.ListAll(context.Background(), &domainRepo.PosOrderFilterParams{CategoryID: &category.ID})
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, want.ID, all[0].ID)
}
