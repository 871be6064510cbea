package service

import (
	"github.com/google/uuid"
	"github.com/sangkips/pos-api/internal/domain/entity"
	"github.com/sangkips/pos-api/internal/domain/enum"
	"github.com/sangkips/pos-api/pkg/apperror"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// LineInput is one cart line as submitted by the till.
type LineInput struct {
	ProductID   uuid.UUID           `json:"product_id" validate:"required"`
	VariationID *uuid.UUID          `json:"variation_id"`
	Quantity    int                 `json:"quantity" validate:"min=1"`
	UnitPrice   decimal.NullDecimal `json:"unit_price" validate:"omitempty,gte=0,money"`
	Discount    decimal.Decimal     `json:"discount_amount" validate:"gte=0,money"`
	Tax         decimal.Decimal     `json:"tax_amount" validate:"gte=0,money"`
}

// PreparedLine is a cart line with its price resolved against the catalog.
type PreparedLine struct {
	ProductID   uuid.UUID
	VariationID *uuid.UUID
	SKU         string
	Name        string
	Quantity    int
	UnitPrice   decimal.Decimal
	Discount    decimal.Decimal
	Tax         decimal.Decimal
}

// Key identifies the line's stock-keeping unit.
func (l PreparedLine) Key() LineKey {
	return NewLineKey(l.ProductID, l.VariationID)
}

// Gross is unit price times quantity.
func (l PreparedLine) Gross() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// LineTotal is gross minus line discount plus line tax.
func (l PreparedLine) LineTotal() decimal.Decimal {
	return l.Gross().Sub(l.Discount).Add(l.Tax)
}

// LineKey is the (product, variation) pair order items are matched on.
type LineKey struct {
	ProductID   uuid.UUID
	VariationID uuid.UUID
}

// NewLineKey builds a key; a nil variation maps to uuid.Nil.
func NewLineKey(productID uuid.UUID, variationID *uuid.UUID) LineKey {
	key := LineKey{ProductID: productID}
	if variationID != nil {
		key.VariationID = *variationID
	}
	return key
}

// ResolveUnitPrice picks the first available price in order: the explicit
// price, the variation's discount price, the variation's price, the
// product's discount price, then the product's base price.
func ResolveUnitPrice(explicit decimal.NullDecimal, product *entity.Product, variation *entity.ProductVariation) decimal.Decimal {
	if explicit.Valid {
		return explicit.Decimal
	}
	if variation != nil {
		if variation.DiscountPrice.Valid {
			return variation.DiscountPrice.Decimal
		}
		return variation.Price
	}
	if product.BaseDiscountPrice.Valid {
		return product.BaseDiscountPrice.Decimal
	}
	return product.BasePrice
}

// PrepareLines resolves every cart line against the preloaded active
// products. The first failing line aborts with its index in the error.
func PrepareLines(items []LineInput, products map[uuid.UUID]*entity.Product) ([]PreparedLine, error) {
	lines := make([]PreparedLine, 0, len(items))
	for i, item := range items {
		product, ok := products[item.ProductID]
		if !ok || product == nil {
			return nil, apperror.NewItemError(apperror.ErrInvalidProduct, i, "Invalid product.")
		}

		if product.RequiresVariation() && item.VariationID == nil {
			return nil, apperror.NewItemError(apperror.ErrVariationRequired, i, "Variation is required for: %s", product.Name)
		}

		var variation *entity.ProductVariation
		if item.VariationID != nil {
			variation = product.FindVariation(*item.VariationID)
			if variation == nil {
				return nil, apperror.NewItemError(apperror.ErrInvalidVariation, i, "Invalid variation for: %s", product.Name)
			}
		}

		line := PreparedLine{
			ProductID:   product.ID,
			VariationID: item.VariationID,
			SKU:         product.SKU,
			Name:        product.Name,
			Quantity:    item.Quantity,
			UnitPrice:   ResolveUnitPrice(item.UnitPrice, product, variation),
			Discount:    item.Discount,
			Tax:         item.Tax,
		}
		if variation != nil && variation.SKU != "" {
			line.SKU = variation.SKU
		}
		lines = append(lines, line)
	}
	return lines, nil
}

// OrderDiscount is the single order-level discount in effect.
type OrderDiscount struct {
	Type  enum.DiscountType
	Value decimal.Decimal
}

// ResolveOrderDiscount returns the rule when one is given, otherwise the
// manual pair. Sources never stack.
func ResolveOrderDiscount(rule *entity.Discount, manualType enum.DiscountType, manualValue decimal.Decimal) OrderDiscount {
	if rule != nil {
		return OrderDiscount{Type: rule.Type, Value: rule.Value}
	}
	if manualType == "" {
		manualType = enum.DiscountTypeNone
	}
	return OrderDiscount{Type: manualType, Value: manualValue}
}

// Amount applies the discount to subtotal. Percent values are clamped to
// [0,100] and fixed values to [0, subtotal].
func (d OrderDiscount) Amount(subtotal decimal.Decimal) decimal.Decimal {
	switch d.Type {
	case enum.DiscountTypePercent:
		pct := clamp(d.Value, decimal.Zero, hundred)
		return subtotal.Mul(pct).Div(hundred).Round(2)
	case enum.DiscountTypeFixed:
		upper := subtotal
		if upper.IsNegative() {
			upper = decimal.Zero
		}
		return clamp(d.Value, decimal.Zero, upper)
	}
	return decimal.Zero
}

// Totals is the money summary of an order.
type Totals struct {
	Subtotal          decimal.Decimal
	LineDiscountTotal decimal.Decimal
	TaxTotal          decimal.Decimal
	OrderDiscount     decimal.Decimal
	DiscountTotal     decimal.Decimal
	Total             decimal.Decimal
}

// CalculateTotals sums the lines and applies the order discount. The total
// is not floored at zero.
func CalculateTotals(lines []PreparedLine, discount OrderDiscount) Totals {
	t := Totals{
		Subtotal:          decimal.Zero,
		LineDiscountTotal: decimal.Zero,
		TaxTotal:          decimal.Zero,
	}
	for _, line := range lines {
		t.Subtotal = t.Subtotal.Add(line.Gross())
		t.LineDiscountTotal = t.LineDiscountTotal.Add(line.Discount)
		t.TaxTotal = t.TaxTotal.Add(line.Tax)
	}
	t.OrderDiscount = discount.Amount(t.Subtotal)
	t.DiscountTotal = t.LineDiscountTotal.Add(t.OrderDiscount)
	t.Total = t.Subtotal.Sub(t.DiscountTotal).Add(t.TaxTotal)
	return t
}

func clamp(v, lo, hi decimal.Decimal) decimal.Decimal {
	if v.LessThan(lo) {
		return lo
	}
	if v.GreaterThan(hi) {
		return hi
	}
	return v
}
