package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/sangkips/pos-api/internal/domain/entity"
	"github.com/sangkips/pos-api/internal/domain/repository"
	"github.com/sangkips/pos-api/pkg/apperror"
	"github.com/sangkips/pos-api/pkg/pagination"
)

const topProductsLimit = 5

// GetOrder returns an order with its items, payments, customer and cashier.
// Trashed orders are returned too.
func (s *PosOrderService) GetOrder(ctx context.Context, id uuid.UUID) (*entity.PosOrder, error) {
	order, err := s.orders.GetWithDetails(ctx, id)
	if err != nil {
		return nil, apperror.NewGatewayError("failed to load order", err)
	}
	if order == nil {
		return nil, apperror.NewNotFoundError("Order")
	}
	return order, nil
}

// ListOrders returns one page of orders matching params, newest first.
func (s *PosOrderService) ListOrders(ctx context.Context, params *repository.PosOrderFilterParams) (*pagination.PaginatedResult[entity.PosOrder], error) {
	if params.Pagination == nil {
		params.Pagination = pagination.DefaultPagination()
	}
	params.Pagination.Validate()

	orders, total, err := s.orders.List(ctx, params)
	if err != nil {
		return nil, apperror.NewGatewayError("failed to list orders", err)
	}
	return pagination.NewPaginatedResult(orders, params.Pagination, total), nil
}

// OrderInsights summarizes sales over every order not in the trash.
type OrderInsights struct {
	TopProducts []repository.TopProductResult `json:"top_products"`
	BrandSales  []repository.BrandSalesResult `json:"brand_sales"`
}

// Insights returns the best sellers and the sales per brand.
func (s *PosOrderService) Insights(ctx context.Context) (*OrderInsights, error) {
	top, err := s.analytics.GetTopProducts(ctx, topProductsLimit)
	if err != nil {
		return nil, apperror.NewGatewayError("failed to load top products", err)
	}
	brands, err := s.analytics.GetBrandSales(ctx)
	if err != nil {
		return nil, apperror.NewGatewayError("failed to load brand sales", err)
	}

	if top == nil {
		top = []repository.TopProductResult{}
	}
	if brands == nil {
		brands = []repository.BrandSalesResult{}
	}
	return &OrderInsights{TopProducts: top, BrandSales: brands}, nil
}
