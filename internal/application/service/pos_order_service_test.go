package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sangkips/pos-api/internal/domain/entity"
	"github.com/sangkips/pos-api/internal/domain/enum"
	"github.com/sangkips/pos-api/internal/domain/repository"
	infraRepo "github.com/sangkips/pos-api/internal/infrastructure/repository"
	"github.com/sangkips/pos-api/internal/testutil"
	"github.com/sangkips/pos-api/pkg/apperror"
	"github.com/sangkips/pos-api/pkg/logger"
	"github.com/sangkips/pos-api/pkg/metrics"
	"github.com/sangkips/pos-api/pkg/utils"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubPrinter struct {
	err   error
	calls int
}

func (p *stubPrinter) PrintOrderReceipt(ctx context.Context, orderID uuid.UUID) (*entity.Receipt, error) {
	p.calls++
	return &entity.Receipt{InvoiceNo: orderID.String()}, p.err
}

type orderFixture struct {
	*testutil.Store
	svc   *PosOrderService
	actor Actor
	ctx   context.Context
}

func newOrderFixture(t *testing.T, printer ReceiptPrinter) *orderFixture {
	t.Helper()
	store := testutil.NewStore(t)
	svc := NewPosOrderService(
		infraRepo.NewTransactor(store.DB),
		infraRepo.NewPosOrderRepository(store.DB),
		infraRepo.NewAnalyticsRepository(store.DB),
		printer,
		metrics.NewPOSMetrics(prometheus.NewRegistry()),
		logger.Nop(),
	)
	return &orderFixture{
		Store: store,
		svc:   svc,
		actor: Actor{UserID: store.UserID, BranchID: &store.BranchID},
		ctx:   context.Background(),
	}
}

func (f *orderFixture) cart(action enum.OrderAction, lines ...LineInput) *OrderInput {
	return &OrderInput{
		Action:       action,
		PosSessionID: f.SessionID,
		WarehouseID:  f.WarehouseID,
		Items:        lines,
	}
}

func (f *orderFixture) cash(amount string) PaymentLine {
	return PaymentLine{PaymentMethodID: f.Cash.ID, Amount: dec(amount)}
}

func line(productID uuid.UUID, qty int) LineInput {
	return LineInput{ProductID: productID, Quantity: qty}
}

func assertKind(t *testing.T, err error, kind apperror.Kind) {
	t.Helper()
	require.Error(t, err)
	assert.Equal(t, kind, apperror.GetAppError(err).Kind, err.Error())
}

func TestCreateOrderCompleteTakesStockAndPayment(t *testing.T) {
	f := newOrderFixture(t, nil)
	soap := f.Product(t, "Soap", "50", 10)

	input := f.cart(enum.OrderActionComplete, line(soap.ID, 2))
	input.Payments = []PaymentLine{f.cash("100")}

	res, err := f.svc.CreateOrder(f.ctx, f.actor, input)
	require.NoError(t, err)
	order := res.Order

	assert.Equal(t, enum.OrderStatusCompleted, order.Status)
	assert.Equal(t, enum.PaymentStatusPaid, order.PaymentStatus)
	assertMoney(t, "100.00", order.TotalAmount)
	assertMoney(t, "100.00", order.PaidAmount)
	assertMoney(t, "0.00", order.ChangeAmount)
	assertMoney(t, "0.00", order.DueAmount)
	require.NotNil(t, order.InvoiceNo)
	assert.Regexp(t, `^POS-\d{14}-[0-9A-F]{8}-[0-9A-F]{4}$`, *order.InvoiceNo)
	assert.Equal(t, f.BranchID, order.BranchID)
	require.Len(t, order.Items, 1)
	require.Len(t, order.Payments, 1)
	assert.Equal(t, f.BranchID, order.Payments[0].BranchID)

	assert.Equal(t, 8, f.StockOf(t, soap.ID, nil))
	assert.EqualValues(t, 1, f.CountMovements(t, *order.InvoiceNo))

	var movement entity.StockMovement
	require.NoError(t, f.DB.First(&movement, "reference = ?", *order.InvoiceNo).Error)
	assert.Equal(t, NoteSale, movement.Note)
	assert.Equal(t, -2, movement.QuantityChange)
	assert.Equal(t, f.UserID, movement.CreatedBy)
}

func TestCreateOrderTotalIdentity(t *testing.T) {
	f := newOrderFixture(t, nil)
	soap := f.Product(t, "Soap", "50", 10)
	brush := f.Product(t, "Brush", "20", 10)

	input := f.cart(enum.OrderActionDraft,
		LineInput{ProductID: soap.ID, Quantity: 2, Discount: dec("10"), Tax: dec("4")},
		LineInput{ProductID: brush.ID, Quantity: 1, UnitPrice: decimal.NewNullDecimal(dec("30"))},
	)
	input.OrderDiscountType = enum.DiscountTypePercent
	input.OrderDiscountValue = dec("10")

	res, err := f.svc.CreateOrder(f.ctx, f.actor, input)
	require.NoError(t, err)
	o := res.Order

	assertMoney(t, "130.00", o.Subtotal)
	assertMoney(t, "23.00", o.DiscountAmount)
	assertMoney(t, "4.00", o.TaxAmount)
	assertMoney(t, "111.00", o.TotalAmount)
	assert.True(t, o.TotalAmount.Equal(o.Subtotal.Sub(o.DiscountAmount).Add(o.TaxAmount)))
}

func TestCreateOrderDraftIgnoresPayments(t *testing.T) {
	f := newOrderFixture(t, nil)
	soap := f.Product(t, "Soap", "50", 10)

	input := f.cart(enum.OrderActionDraft, line(soap.ID, 2))
	input.Payments = []PaymentLine{f.cash("100")}

	res, err := f.svc.CreateOrder(f.ctx, f.actor, input)
	require.NoError(t, err)
	o := res.Order

	assert.Equal(t, enum.OrderStatusDraft, o.Status)
	assert.Equal(t, enum.PaymentStatusUnpaid, o.PaymentStatus)
	assertMoney(t, "0.00", o.PaidAmount)
	assertMoney(t, "0.00", o.ChangeAmount)
	assertMoney(t, "100.00", o.DueAmount)
	assert.Nil(t, o.InvoiceNo)
	assert.Empty(t, o.Payments)
	assert.Equal(t, 10, f.StockOf(t, soap.ID, nil))
}

func TestCreateOrderRequiresPaymentToComplete(t *testing.T) {
	f := newOrderFixture(t, nil)
	soap := f.Product(t, "Soap", "50", 10)

	input := f.cart(enum.OrderActionComplete, line(soap.ID, 1))
	input.Payments = []PaymentLine{f.cash("0"), {Amount: dec("50")}}

	_, err := f.svc.CreateOrder(f.ctx, f.actor, input)
	assertKind(t, err, apperror.KindPaymentRequired)
	assert.Equal(t, 10, f.StockOf(t, soap.ID, nil))
}

func TestCreateOrderRejectsSubCentPayment(t *testing.T) {
	f := newOrderFixture(t, nil)
	soap := f.Product(t, "Soap", "50", 10)

	input := f.cart(enum.OrderActionComplete, line(soap.ID, 1))
	input.Payments = []PaymentLine{f.cash("0.001")}

	_, err := f.svc.CreateOrder(f.ctx, f.actor, input)
	assertKind(t, err, apperror.KindValidation)
	fields := apperror.GetAppError(err).Errors
	require.Len(t, fields, 1)
	assert.Equal(t, "payments[0].amount", fields[0].Field)
	assert.Equal(t, 10, f.StockOf(t, soap.ID, nil))

	var orders int64
	require.NoError(t, f.DB.Model(&entity.PosOrder{}).Count(&orders).Error)
	assert.Zero(t, orders)
}

func TestCreateOrderRejectsSubCentMoney(t *testing.T) {
	f := newOrderFixture(t, nil)
	soap := f.Product(t, "Soap", "50", 10)

	input := f.cart(enum.OrderActionDraft, LineInput{
		ProductID: soap.ID,
		Quantity:  1,
		UnitPrice: decimal.NewNullDecimal(dec("0.005")),
		Discount:  dec("0.001"),
		Tax:       dec("0.005"),
	})
	input.OrderDiscountType = enum.DiscountTypeFixed
	input.OrderDiscountValue = dec("1.005")

	_, err := f.svc.CreateOrder(f.ctx, f.actor, input)
	assertKind(t, err, apperror.KindValidation)
	fields := make([]string, 0, 4)
	for _, fe := range apperror.GetAppError(err).Errors {
		fields = append(fields, fe.Field)
		assert.Equal(t, "must have at most 2 decimal places", fe.Message)
	}
	assert.ElementsMatch(t, []string{
		"order_discount_value",
		"items[0].unit_price",
		"items[0].discount_amount",
		"items[0].tax_amount",
	}, fields)

	input.Items[0] = LineInput{ProductID: soap.ID, Quantity: 1, UnitPrice: decimal.NewNullDecimal(dec("0.50")), Tax: dec("0.10")}
	input.OrderDiscountValue = dec("0.05")
	res, err := f.svc.CreateOrder(f.ctx, f.actor, input)
	require.NoError(t, err)
	o := res.Order
	assertMoney(t, "0.55", o.TotalAmount)
	assert.True(t, o.TotalAmount.Equal(o.Subtotal.Sub(o.DiscountAmount).Add(o.TaxAmount)))
}

func TestCreateOrderRollsBackOnInsufficientStock(t *testing.T) {
	f := newOrderFixture(t, nil)
	soap := f.Product(t, "Soap", "50", 10)
	rare := f.Product(t, "Rare", "10", 1)

	input := f.cart(enum.OrderActionComplete, line(soap.ID, 2), line(rare.ID, 2))
	input.Payments = []PaymentLine{f.cash("120")}

	_, err := f.svc.CreateOrder(f.ctx, f.actor, input)
	assertKind(t, err, apperror.KindInsufficientStock)
	appErr := apperror.GetAppError(err)
	require.Len(t, appErr.Errors, 1)
	assert.Equal(t, "items[1]", appErr.Errors[0].Field)

	assert.Equal(t, 10, f.StockOf(t, soap.ID, nil))
	assert.Equal(t, 1, f.StockOf(t, rare.ID, nil))

	var orders, movements, payments int64
	f.DB.Unscoped().Model(&entity.PosOrder{}).Count(&orders)
	f.DB.Model(&entity.StockMovement{}).Count(&movements)
	f.DB.Model(&entity.PosPayment{}).Count(&payments)
	assert.Zero(t, orders)
	assert.Zero(t, movements)
	assert.Zero(t, payments)
}

func TestCreateOrderRejectsInactivePaymentMethod(t *testing.T) {
	f := newOrderFixture(t, nil)
	soap := f.Product(t, "Soap", "50", 10)
	require.NoError(t, f.DB.Model(&f.Card).Update("is_active", false).Error)

	input := f.cart(enum.OrderActionComplete, line(soap.ID, 1))
	input.Payments = []PaymentLine{{PaymentMethodID: f.Card.ID, Amount: dec("50")}}

	_, err := f.svc.CreateOrder(f.ctx, f.actor, input)
	assertKind(t, err, apperror.KindValidation)
	assert.Equal(t, "payments[0].payment_method_id", apperror.GetAppError(err).Errors[0].Field)
	assert.Equal(t, 10, f.StockOf(t, soap.ID, nil))
}

func TestCreateOrderDiscountRule(t *testing.T) {
	f := newOrderFixture(t, nil)
	soap := f.Product(t, "Soap", "50", 10)

	rule := entity.Discount{Name: "Ten off", Type: enum.DiscountTypeFixed, Value: dec("10"), IsActive: true}
	require.NoError(t, f.DB.Create(&rule).Error)

	input := f.cart(enum.OrderActionDraft, line(soap.ID, 2))
	input.DiscountID = &rule.ID
	input.OrderDiscountType = enum.DiscountTypePercent
	input.OrderDiscountValue = dec("50")

	res, err := f.svc.CreateOrder(f.ctx, f.actor, input)
	require.NoError(t, err)
	assertMoney(t, "10.00", res.Order.DiscountAmount, "the rule replaces the manual discount")
	assertMoney(t, "90.00", res.Order.TotalAmount)

	require.NoError(t, f.DB.Model(&rule).Update("is_active", false).Error)
	_, err = f.svc.CreateOrder(f.ctx, f.actor, input)
	assertKind(t, err, apperror.KindValidation)
	assert.Equal(t, "discount_id", apperror.GetAppError(err).Errors[0].Field)
}

func TestCreateOrderValidation(t *testing.T) {
	f := newOrderFixture(t, nil)
	soap := f.Product(t, "Soap", "50", 10)

	_, err := f.svc.CreateOrder(f.ctx, Actor{}, f.cart(enum.OrderActionDraft, line(soap.ID, 1)))
	assertKind(t, err, apperror.KindUnauthorized)

	_, err = f.svc.CreateOrder(f.ctx, f.actor, f.cart(enum.OrderActionDraft))
	assertKind(t, err, apperror.KindValidation)
	assert.Equal(t, "items", apperror.GetAppError(err).Errors[0].Field)

	_, err = f.svc.CreateOrder(f.ctx, f.actor, f.cart(enum.OrderActionDraft, line(soap.ID, 0)))
	assertKind(t, err, apperror.KindValidation)
	assert.Equal(t, "items[0].quantity", apperror.GetAppError(err).Errors[0].Field)

	_, err = f.svc.CreateOrder(f.ctx, f.actor, f.cart("ship", line(soap.ID, 1)))
	assertKind(t, err, apperror.KindValidation)

	noBranch := Actor{UserID: f.UserID}
	_, err = f.svc.CreateOrder(f.ctx, noBranch, f.cart(enum.OrderActionDraft, line(soap.ID, 1)))
	assertKind(t, err, apperror.KindValidation)
	assert.Equal(t, "branch_id", apperror.GetAppError(err).Errors[0].Field)

	_, err = f.svc.CreateOrder(f.ctx, f.actor, f.cart(enum.OrderActionDraft, line(uuid.New(), 1)))
	assertKind(t, err, apperror.KindInvalidProduct)
}

func TestCreateOrderVariableProduct(t *testing.T) {
	f := newOrderFixture(t, nil)
	shirt, large := f.VariableProduct(t, "Shirt", "25", 5)

	_, err := f.svc.CreateOrder(f.ctx, f.actor, f.cart(enum.OrderActionDraft, line(shirt.ID, 1)))
	assertKind(t, err, apperror.KindVariationRequired)

	input := f.cart(enum.OrderActionComplete, LineInput{ProductID: shirt.ID, VariationID: &large.ID, Quantity: 2})
	input.Payments = []PaymentLine{f.cash("50")}
	res, err := f.svc.CreateOrder(f.ctx, f.actor, input)
	require.NoError(t, err)

	assert.Equal(t, large.SKU, res.Order.Items[0].SKU)
	assert.Equal(t, 3, f.StockOf(t, shirt.ID, &large.ID))
}

func TestCreateOrderRetriesInvoiceCollision(t *testing.T) {
	f := newOrderFixture(t, nil)
	soap := f.Product(t, "Soap", "50", 10)

	numbers := []string{"POS-20240101120000-AAAA", "POS-20240101120000-AAAA", "POS-20240101120000-BBBB"}
	drawn := 0
	f.svc.invoiceNo = func(time.Time, uuid.UUID) string {
		no := numbers[drawn]
		drawn++
		return no
	}

	sale := func() *OrderInput {
		input := f.cart(enum.OrderActionComplete, line(soap.ID, 1))
		input.Payments = []PaymentLine{f.cash("50")}
		return input
	}

	first, err := f.svc.CreateOrder(f.ctx, f.actor, sale())
	require.NoError(t, err)
	assert.Equal(t, numbers[0], *first.Order.InvoiceNo)

	second, err := f.svc.CreateOrder(f.ctx, f.actor, sale())
	require.NoError(t, err)
	assert.Equal(t, numbers[2], *second.Order.InvoiceNo)
	assert.Equal(t, 3, drawn)

	assert.Equal(t, 8, f.StockOf(t, soap.ID, nil), "the collided attempt rolled back")
	assert.EqualValues(t, 1, f.CountMovements(t, numbers[2]))
	var payments int64
	require.NoError(t, f.DB.Model(&entity.PosPayment{}).Count(&payments).Error)
	assert.EqualValues(t, 2, payments)
}

func TestCreateOrderGivesUpAfterRepeatedCollisions(t *testing.T) {
	f := newOrderFixture(t, nil)
	soap := f.Product(t, "Soap", "50", 10)

	drawn := 0
	f.svc.invoiceNo = func(time.Time, uuid.UUID) string {
		drawn++
		return "POS-20240101120000-AAAA"
	}
	input := f.cart(enum.OrderActionComplete, line(soap.ID, 1))
	input.Payments = []PaymentLine{f.cash("50")}

	_, err := f.svc.CreateOrder(f.ctx, f.actor, input)
	require.NoError(t, err)
	drawn = 0

	_, err = f.svc.CreateOrder(f.ctx, f.actor, input)
	assertKind(t, err, apperror.KindConflict)
	assert.Equal(t, maxInvoiceAttempts, drawn)
	assert.Equal(t, 9, f.StockOf(t, soap.ID, nil))
}

func TestCompleteDraft(t *testing.T) {
	f := newOrderFixture(t, nil)
	soap := f.Product(t, "Soap", "50", 10)

	res, err := f.svc.CreateOrder(f.ctx, f.actor, f.cart(enum.OrderActionDraft, line(soap.ID, 2)))
	require.NoError(t, err)
	draftID := res.Order.ID

	_, err = f.svc.CompleteDraft(f.ctx, f.actor, draftID, &PaymentsInput{})
	assertKind(t, err, apperror.KindPaymentRequired)

	order, err := f.svc.CompleteDraft(f.ctx, f.actor, draftID, &PaymentsInput{
		Payments: []PaymentLine{f.cash("70"), {PaymentMethodID: f.Card.ID, Amount: dec("50")}},
	})
	require.NoError(t, err)

	assert.Equal(t, enum.OrderStatusCompleted, order.Status)
	assert.Equal(t, enum.PaymentStatusPaid, order.PaymentStatus)
	assertMoney(t, "120.00", order.PaidAmount)
	assertMoney(t, "20.00", order.ChangeAmount)
	assertMoney(t, "0.00", order.DueAmount)
	require.NotNil(t, order.InvoiceNo)
	assert.Contains(t, *order.InvoiceNo, "-"+utils.ShortRef(draftID)+"-")
	assert.Len(t, order.Payments, 2)
	assert.Equal(t, 8, f.StockOf(t, soap.ID, nil))

	var movement entity.StockMovement
	require.NoError(t, f.DB.First(&movement, "reference = ?", *order.InvoiceNo).Error)
	assert.Equal(t, NoteSaleFromDraft, movement.Note)

	_, err = f.svc.CompleteDraft(f.ctx, f.actor, draftID, &PaymentsInput{Payments: []PaymentLine{f.cash("10")}})
	assertKind(t, err, apperror.KindInvalidState)
	assert.Equal(t, 8, f.StockOf(t, soap.ID, nil), "stock leaves only once")
	assert.EqualValues(t, 1, f.CountMovements(t, *order.InvoiceNo))
}

func TestCompleteDraftValidatesEachPayment(t *testing.T) {
	f := newOrderFixture(t, nil)
	soap := f.Product(t, "Soap", "50", 10)
	res, err := f.svc.CreateOrder(f.ctx, f.actor, f.cart(enum.OrderActionDraft, line(soap.ID, 1)))
	require.NoError(t, err)

	_, err = f.svc.CompleteDraft(f.ctx, f.actor, res.Order.ID, &PaymentsInput{
		Payments: []PaymentLine{{Amount: dec("50")}, f.cash("0")},
	})
	assertKind(t, err, apperror.KindValidation)
	fields := apperror.GetAppError(err).Errors
	require.Len(t, fields, 2)
	assert.Equal(t, "payments[0].payment_method_id", fields[0].Field)
	assert.Equal(t, "payments[1].amount", fields[1].Field)
}

func TestCompleteDraftNotFound(t *testing.T) {
	f := newOrderFixture(t, nil)
	_, err := f.svc.CompleteDraft(f.ctx, f.actor, uuid.New(), &PaymentsInput{Payments: []PaymentLine{f.cash("1")}})
	assertKind(t, err, apperror.KindNotFound)
}

func TestAddPayments(t *testing.T) {
	f := newOrderFixture(t, nil)
	soap := f.Product(t, "Soap", "50", 10)

	input := f.cart(enum.OrderActionComplete, line(soap.ID, 2))
	input.Payments = []PaymentLine{f.cash("40")}
	res, err := f.svc.CreateOrder(f.ctx, f.actor, input)
	require.NoError(t, err)
	assert.Equal(t, enum.PaymentStatusPartial, res.Order.PaymentStatus)
	assertMoney(t, "60.00", res.Order.DueAmount)

	order, err := f.svc.AddPayments(f.ctx, f.actor, res.Order.ID, &PaymentsInput{Payments: []PaymentLine{f.cash("30")}})
	require.NoError(t, err)
	assert.Equal(t, enum.PaymentStatusPartial, order.PaymentStatus)
	assertMoney(t, "70.00", order.PaidAmount)
	assertMoney(t, "30.00", order.DueAmount)

	order, err = f.svc.AddPayments(f.ctx, f.actor, res.Order.ID, &PaymentsInput{Payments: []PaymentLine{f.cash("50")}})
	require.NoError(t, err)
	assert.Equal(t, enum.PaymentStatusPaid, order.PaymentStatus)
	assertMoney(t, "120.00", order.PaidAmount)
	assertMoney(t, "20.00", order.ChangeAmount)
	assertMoney(t, "0.00", order.DueAmount)
	assert.Len(t, order.Payments, 3)
	assert.Equal(t, 8, f.StockOf(t, soap.ID, nil), "payments never move stock")
}

func TestAddPaymentsRejectsDraftAndVoid(t *testing.T) {
	f := newOrderFixture(t, nil)
	soap := f.Product(t, "Soap", "50", 10)

	res, err := f.svc.CreateOrder(f.ctx, f.actor, f.cart(enum.OrderActionDraft, line(soap.ID, 1)))
	require.NoError(t, err)
	pay := &PaymentsInput{Payments: []PaymentLine{f.cash("10")}}

	_, err = f.svc.AddPayments(f.ctx, f.actor, res.Order.ID, pay)
	assertKind(t, err, apperror.KindInvalidState)

	_, err = f.svc.VoidOrder(f.ctx, f.actor, res.Order.ID)
	require.NoError(t, err)

	_, err = f.svc.AddPayments(f.ctx, f.actor, res.Order.ID, pay)
	assertKind(t, err, apperror.KindOrderVoided)
	assert.True(t, errors.Is(err, apperror.ErrOrderVoided))
}

func TestVoidCompletedOrderRestoresStock(t *testing.T) {
	f := newOrderFixture(t, nil)
	soap := f.Product(t, "Soap", "50", 10)

	input := f.cart(enum.OrderActionComplete, line(soap.ID, 3))
	input.Payments = []PaymentLine{f.cash("150")}
	res, err := f.svc.CreateOrder(f.ctx, f.actor, input)
	require.NoError(t, err)
	assert.Equal(t, 7, f.StockOf(t, soap.ID, nil))

	order, err := f.svc.VoidOrder(f.ctx, f.actor, res.Order.ID)
	require.NoError(t, err)
	assert.Equal(t, enum.OrderStatusVoid, order.Status)
	require.NotNil(t, order.VoidedAt)
	require.NotNil(t, order.VoidedBy)
	assert.Equal(t, f.UserID, *order.VoidedBy)
	assert.Equal(t, 10, f.StockOf(t, soap.ID, nil))
	assert.EqualValues(t, 2, f.CountMovements(t, *order.InvoiceNo))

	again, err := f.svc.VoidOrder(f.ctx, f.actor, res.Order.ID)
	require.NoError(t, err)
	assert.Equal(t, enum.OrderStatusVoid, again.Status)
	assert.Equal(t, 10, f.StockOf(t, soap.ID, nil), "voiding twice returns stock once")
	assert.EqualValues(t, 2, f.CountMovements(t, *order.InvoiceNo))
	assert.Equal(t, order.VoidedAt.Unix(), again.VoidedAt.Unix())
}

func TestVoidDraftLeavesStock(t *testing.T) {
	f := newOrderFixture(t, nil)
	soap := f.Product(t, "Soap", "50", 10)

	res, err := f.svc.CreateOrder(f.ctx, f.actor, f.cart(enum.OrderActionDraft, line(soap.ID, 3)))
	require.NoError(t, err)

	order, err := f.svc.VoidOrder(f.ctx, f.actor, res.Order.ID)
	require.NoError(t, err)
	assert.Equal(t, enum.OrderStatusVoid, order.Status)
	assert.Equal(t, 10, f.StockOf(t, soap.ID, nil))

	var movements int64
	f.DB.Model(&entity.StockMovement{}).Count(&movements)
	assert.Zero(t, movements)
}

func TestUpdateOrderMergesLines(t *testing.T) {
	f := newOrderFixture(t, nil)
	soap := f.Product(t, "Soap", "50", 10)
	brush := f.Product(t, "Brush", "20", 10)
	comb := f.Product(t, "Comb", "5", 10)

	res, err := f.svc.CreateOrder(f.ctx, f.actor, f.cart(enum.OrderActionDraft, line(soap.ID, 1), line(brush.ID, 1)))
	require.NoError(t, err)
	soapItemID := itemFor(t, res.Order, soap.ID).ID

	updated, err := f.svc.UpdateOrder(f.ctx, f.actor, res.Order.ID, f.cart(enum.OrderActionDraft, line(soap.ID, 3), line(comb.ID, 2)))
	require.NoError(t, err)
	o := updated.Order

	require.Len(t, o.Items, 2)
	soapItem := itemFor(t, o, soap.ID)
	assert.Equal(t, soapItemID, soapItem.ID, "unchanged product keeps its row")
	assert.Equal(t, 3, soapItem.Quantity)
	assertMoney(t, "150.00", soapItem.LineTotal)
	itemFor(t, o, comb.ID)
	assertMoney(t, "160.00", o.TotalAmount)
	assert.Equal(t, enum.OrderStatusDraft, o.Status)

	var brushItems int64
	f.DB.Model(&entity.PosOrderItem{}).Where("product_id = ?", brush.ID).Count(&brushItems)
	assert.Zero(t, brushItems)
}

func TestUpdateOrderCompletes(t *testing.T) {
	f := newOrderFixture(t, nil)
	soap := f.Product(t, "Soap", "50", 10)

	res, err := f.svc.CreateOrder(f.ctx, f.actor, f.cart(enum.OrderActionDraft, line(soap.ID, 1)))
	require.NoError(t, err)

	input := f.cart(enum.OrderActionComplete, line(soap.ID, 2))
	input.Payments = []PaymentLine{f.cash("100")}
	updated, err := f.svc.UpdateOrder(f.ctx, f.actor, res.Order.ID, input)
	require.NoError(t, err)

	o := updated.Order
	assert.Equal(t, enum.OrderStatusCompleted, o.Status)
	assert.Equal(t, enum.PaymentStatusPaid, o.PaymentStatus)
	require.NotNil(t, o.InvoiceNo)
	assert.Len(t, o.Payments, 1)
	assert.Equal(t, 8, f.StockOf(t, soap.ID, nil))

	var movement entity.StockMovement
	require.NoError(t, f.DB.First(&movement, "reference = ?", *o.InvoiceNo).Error)
	assert.Equal(t, NoteSaleUpdate, movement.Note)

	_, err = f.svc.UpdateOrder(f.ctx, f.actor, o.ID, f.cart(enum.OrderActionDraft, line(soap.ID, 1)))
	assertKind(t, err, apperror.KindNotEditable)
}

func TestUpdateOrderKeepsBranchWhenActorHasNone(t *testing.T) {
	f := newOrderFixture(t, nil)
	soap := f.Product(t, "Soap", "50", 10)

	res, err := f.svc.CreateOrder(f.ctx, f.actor, f.cart(enum.OrderActionDraft, line(soap.ID, 1)))
	require.NoError(t, err)

	updated, err := f.svc.UpdateOrder(f.ctx, Actor{UserID: f.UserID}, res.Order.ID, f.cart(enum.OrderActionDraft, line(soap.ID, 2)))
	require.NoError(t, err)
	assert.Equal(t, f.BranchID, updated.Order.BranchID)
}

func TestCompletePrint(t *testing.T) {
	printer := &stubPrinter{}
	f := newOrderFixture(t, printer)
	soap := f.Product(t, "Soap", "50", 10)

	input := f.cart(enum.OrderActionCompletePrint, line(soap.ID, 1))
	input.Payments = []PaymentLine{f.cash("50")}
	res, err := f.svc.CreateOrder(f.ctx, f.actor, input)
	require.NoError(t, err)
	assert.Equal(t, 1, printer.calls)
	assert.NotNil(t, res.Receipt)
	assert.Empty(t, res.PrintError)

	printer.err = errors.New("paper out")
	res, err = f.svc.CreateOrder(f.ctx, f.actor, input)
	require.NoError(t, err, "a printer failure never undoes the sale")
	assert.Equal(t, "paper out", res.PrintError)
	assert.Equal(t, enum.OrderStatusCompleted, res.Order.Status)
	assert.Equal(t, 8, f.StockOf(t, soap.ID, nil))
}

func TestTrashRestoreAndForceDelete(t *testing.T) {
	f := newOrderFixture(t, nil)
	soap := f.Product(t, "Soap", "50", 10)

	input := f.cart(enum.OrderActionComplete, line(soap.ID, 1))
	input.Payments = []PaymentLine{f.cash("50")}
	res, err := f.svc.CreateOrder(f.ctx, f.actor, input)
	require.NoError(t, err)
	id := res.Order.ID

	err = f.svc.ForceDeleteOrder(f.ctx, id)
	assertKind(t, err, apperror.KindInvalidState)

	err = f.svc.RestoreOrder(f.ctx, id)
	assertKind(t, err, apperror.KindNotFound)

	require.NoError(t, f.svc.DestroyOrder(f.ctx, id))
	list, err := f.svc.ListOrders(f.ctx, &repository.PosOrderFilterParams{})
	require.NoError(t, err)
	assert.Zero(t, list.Pagination.Total)

	trashed, err := f.svc.ListOrders(f.ctx, &repository.PosOrderFilterParams{Trashed: true})
	require.NoError(t, err)
	assert.EqualValues(t, 1, trashed.Pagination.Total)

	order, err := f.svc.GetOrder(f.ctx, id)
	require.NoError(t, err, "trashed orders stay readable")
	assert.True(t, order.DeletedAt.Valid)

	_, err = f.svc.CompleteDraft(f.ctx, f.actor, id, &PaymentsInput{Payments: []PaymentLine{f.cash("1")}})
	assertKind(t, err, apperror.KindNotFound)

	require.NoError(t, f.svc.RestoreOrder(f.ctx, id))
	list, err = f.svc.ListOrders(f.ctx, &repository.PosOrderFilterParams{})
	require.NoError(t, err)
	assert.EqualValues(t, 1, list.Pagination.Total)

	require.NoError(t, f.svc.DestroyOrder(f.ctx, id))
	require.NoError(t, f.svc.ForceDeleteOrder(f.ctx, id))

	_, err = f.svc.GetOrder(f.ctx, id)
	assertKind(t, err, apperror.KindNotFound)
	var items, payments int64
	f.DB.Model(&entity.PosOrderItem{}).Where("order_id = ?", id).Count(&items)
	f.DB.Model(&entity.PosPayment{}).Where("order_id = ?", id).Count(&payments)
	assert.Zero(t, items)
	assert.Zero(t, payments)
	assert.Equal(t, 9, f.StockOf(t, soap.ID, nil), "deleting does not return stock")

	err = f.svc.ForceDeleteOrder(f.ctx, id)
	assertKind(t, err, apperror.KindNotFound)
}

func TestBulkAction(t *testing.T) {
	f := newOrderFixture(t, nil)
	soap := f.Product(t, "Soap", "50", 10)

	var ids []uuid.UUID
	for i := 0; i < 3; i++ {
		res, err := f.svc.CreateOrder(f.ctx, f.actor, f.cart(enum.OrderActionDraft, line(soap.ID, 1)))
		require.NoError(t, err)
		ids = append(ids, res.Order.ID)
	}

	n, err := f.svc.BulkAction(f.ctx, &BulkActionInput{Action: enum.BulkActionTrash, IDs: ids[:2]})
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	n, err = f.svc.BulkAction(f.ctx, &BulkActionInput{Action: enum.BulkActionRestore, IDs: ids})
	require.NoError(t, err)
	assert.EqualValues(t, 2, n, "only trashed orders are restored")

	n, err = f.svc.BulkAction(f.ctx, &BulkActionInput{Action: enum.BulkActionForceDelete, IDs: ids})
	require.NoError(t, err)
	assert.Zero(t, n, "live orders are never purged")

	_, err = f.svc.BulkAction(f.ctx, &BulkActionInput{Action: "archive", IDs: ids})
	assertKind(t, err, apperror.KindValidation)

	_, err = f.svc.BulkAction(f.ctx, &BulkActionInput{Action: enum.BulkActionTrash})
	assertKind(t, err, apperror.KindValidation)
}

func TestListOrdersFilters(t *testing.T) {
	f := newOrderFixture(t, nil)
	soap := f.Product(t, "Soap", "50", 10)
	brush := f.Product(t, "Brush", "20", 10)

	input := f.cart(enum.OrderActionComplete, line(soap.ID, 1))
	input.Payments = []PaymentLine{f.cash("50")}
	completed, err := f.svc.CreateOrder(f.ctx, f.actor, input)
	require.NoError(t, err)
	_, err = f.svc.CreateOrder(f.ctx, f.actor, f.cart(enum.OrderActionDraft, line(brush.ID, 1)))
	require.NoError(t, err)

	status := enum.OrderStatusCompleted
	page, err := f.svc.ListOrders(f.ctx, &repository.PosOrderFilterParams{Status: &status})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, completed.Order.ID, page.Items[0].ID)

	page, err = f.svc.ListOrders(f.ctx, &repository.PosOrderFilterParams{Search: (*completed.Order.InvoiceNo)[:12]})
	require.NoError(t, err)
	assert.Len(t, page.Items, 1)

	page, err = f.svc.ListOrders(f.ctx, &repository.PosOrderFilterParams{Search: "till"})
	require.NoError(t, err)
	assert.Len(t, page.Items, 2, "search matches the cashier name")

	page, err = f.svc.ListOrders(f.ctx, &repository.PosOrderFilterParams{Search: "jane till"})
	require.NoError(t, err)
	assert.Len(t, page.Items, 2, "search matches the cashier's full name")

	page, err = f.svc.ListOrders(f.ctx, &repository.PosOrderFilterParams{ProductID: &brush.ID})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, enum.OrderStatusDraft, page.Items[0].Status)
}

func TestInsights(t *testing.T) {
	f := newOrderFixture(t, nil)
	brand := entity.Brand{Name: "Acme"}
	require.NoError(t, f.DB.Create(&brand).Error)
	soap := f.Product(t, "Soap", "50", 10)
	require.NoError(t, f.DB.Model(&soap).Update("brand_id", brand.ID).Error)
	brush := f.Product(t, "Brush", "20", 10)

	for _, in := range []*OrderInput{
		f.cart(enum.OrderActionDraft, line(soap.ID, 1)),
		f.cart(enum.OrderActionDraft, line(brush.ID, 4)),
	} {
		_, err := f.svc.CreateOrder(f.ctx, f.actor, in)
		require.NoError(t, err)
	}

	insights, err := f.svc.Insights(f.ctx)
	require.NoError(t, err)
	require.Len(t, insights.TopProducts, 2)
	assert.Equal(t, brush.ID, insights.TopProducts[0].ProductID)
	assert.Equal(t, 4, insights.TopProducts[0].TotalQty)
	require.Len(t, insights.BrandSales, 1)
	assert.Equal(t, "Acme", insights.BrandSales[0].Name)
}

func itemFor(t *testing.T, order *entity.PosOrder, productID uuid.UUID) entity.PosOrderItem {
	t.Helper()
	for _, item := range order.Items {
		if item.ProductID == productID {
			return item
		}
	}
	t.Fatalf("order has no item for product %s", productID)
	return entity.PosOrderItem{}
}
