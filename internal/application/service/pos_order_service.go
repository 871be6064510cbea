package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/sangkips/pos-api/internal/domain/entity"
	"github.com/sangkips/pos-api/internal/domain/enum"
	"github.com/sangkips/pos-api/internal/domain/repository"
	"github.com/sangkips/pos-api/pkg/apperror"
	"github.com/sangkips/pos-api/pkg/logger"
	"github.com/sangkips/pos-api/pkg/metrics"
	"github.com/sangkips/pos-api/pkg/utils"
	"github.com/shopspring/decimal"
)

// Stock ledger notes written by order operations.
const (
	NoteSale          = "POS sale"
	NoteSaleUpdate    = "POS sale (update)"
	NoteSaleFromDraft = "POS sale (completed from draft)"
	NoteVoid          = "VOID POS order"
)

var minPayment = decimal.RequireFromString("0.01")

// maxInvoiceAttempts bounds how often a sale is retried after its invoice
// number collided with an existing one.
const maxInvoiceAttempts = 3

// Actor is the cashier performing an operation and the branch they are
// selling from. The branch is used when the order does not name one.
type Actor struct {
	UserID   uuid.UUID
	BranchID *uuid.UUID
}

// ReceiptPrinter prints a stored order. Implemented by PrinterService.
type ReceiptPrinter interface {
	PrintOrderReceipt(ctx context.Context, orderID uuid.UUID) (*entity.Receipt, error)
}

// PosOrderService runs the POS order lifecycle: draft, complete, pay, void
// and the trash operations. Every mutation is one transaction.
type PosOrderService struct {
	tx        repository.Transactor
	orders    repository.PosOrderRepository
	analytics repository.AnalyticsRepository
	printer   ReceiptPrinter
	metrics   *metrics.POSMetrics
	log       *logger.Logger
	now       func() time.Time
	invoiceNo func(at time.Time, ref uuid.UUID) string
}

// NewPosOrderService creates a new POS order service
func NewPosOrderService(
	tx repository.Transactor,
	orders repository.PosOrderRepository,
	analytics repository.AnalyticsRepository,
	printer ReceiptPrinter,
	m *metrics.POSMetrics,
	log *logger.Logger,
) *PosOrderService {
	if log == nil {
		log = logger.Nop()
	}
	return &PosOrderService{
		tx:        tx,
		orders:    orders,
		analytics: analytics,
		printer:   printer,
		metrics:   m,
		log:       log,
		now:       time.Now,
		invoiceNo: utils.GenerateInvoiceNo,
	}
}

// OrderInput is a cart submission, used by both create and update.
type OrderInput struct {
	Action             enum.OrderAction  `json:"action" validate:"required,oneof=draft complete complete_print"`
	PosSessionID       uuid.UUID         `json:"pos_session_id" validate:"required"`
	CustomerID         *uuid.UUID        `json:"customer_id"`
	BranchID           *uuid.UUID        `json:"branch_id"`
	WarehouseID        uuid.UUID         `json:"warehouse_id" validate:"required"`
	DiscountID         *uuid.UUID        `json:"discount_id"`
	OrderDiscountType  enum.DiscountType `json:"order_discount_type" validate:"omitempty,oneof=none percent fixed"`
	OrderDiscountValue decimal.Decimal   `json:"order_discount_value" validate:"gte=0,money"`
	Items              []LineInput       `json:"items" validate:"required,min=1,dive"`
	Payments           []PaymentLine     `json:"payments" validate:"omitempty,dive"`
	WarrantyInfo       *string           `json:"warranty_info" validate:"omitempty,max=1000"`
}

// PaymentsInput carries the tenders for completing a draft or adding
// payments to an order.
type PaymentsInput struct {
	Payments []PaymentLine `json:"payments" validate:"required,min=1,dive"`
}

// OrderResult is an order as committed, plus the receipt when one was printed.
type OrderResult struct {
	Order      *entity.PosOrder `json:"order"`
	Receipt    *entity.Receipt  `json:"receipt,omitempty"`
	PrintError string           `json:"print_error,omitempty"`
}

// CreateOrder stores a new cart as a draft or as a completed sale.
func (s *PosOrderService) CreateOrder(ctx context.Context, actor Actor, input *OrderInput) (*OrderResult, error) {
	const op = "create"

	payments, err := s.checkOrderInput(actor, input)
	if err != nil {
		return nil, s.fail(ctx, op, err)
	}
	branchID, err := resolveBranch(input.BranchID, actor)
	if err != nil {
		return nil, s.fail(ctx, op, err)
	}

	completing := input.Action.Completes()
	var order *entity.PosOrder
	var unitsOut int

	err = s.withinSaleTransaction(ctx, func(ctx context.Context, repos repository.Repositories) error {
		priced, err := priceCart(ctx, repos.Catalog, input)
		if err != nil {
			return err
		}

		order = &entity.PosOrder{
			PosSessionID: input.PosSessionID,
			BranchID:     branchID,
			WarehouseID:  input.WarehouseID,
			CustomerID:   input.CustomerID,
			UserID:       actor.UserID,
			DiscountID:   priced.discountID,
			WarrantyInfo: normalizeText(input.WarrantyInfo),
		}
		applyTotals(order, priced.totals, Settle(priced.totals.Total, paymentAmounts(payments), !completing))
		if completing {
			order.Status = enum.OrderStatusCompleted
			order.InvoiceNo = s.invoiceNumber(actor.UserID)
		} else {
			order.Status = enum.OrderStatusDraft
		}

		if err := repos.Orders.Create(ctx, order); err != nil {
			return apperror.NewGatewayError("failed to create order", err)
		}

		items := buildItems(order.ID, priced.lines)
		if err := repos.Items.CreateBatch(ctx, items); err != nil {
			return apperror.NewGatewayError("failed to create order items", err)
		}

		if !completing {
			return nil
		}

		unitsOut, err = stockOutItems(ctx, repos.Stock, order, items, actor.UserID, NoteSale)
		if err != nil {
			return err
		}
		return recordPayments(ctx, repos, order, payments)
	})
	if err != nil {
		return nil, s.fail(ctx, op, err)
	}

	s.metrics.AddStock(string(enum.StockMovementOut), unitsOut)
	s.committed(ctx, op, order)
	return s.result(ctx, order.ID, input.Action)
}

// UpdateOrder re-prices a draft in place. Lines are matched to existing
// items by product and variation so unchanged lines keep their identity.
func (s *PosOrderService) UpdateOrder(ctx context.Context, actor Actor, orderID uuid.UUID, input *OrderInput) (*OrderResult, error) {
	const op = "update"

	payments, err := s.checkOrderInput(actor, input)
	if err != nil {
		return nil, s.fail(ctx, op, err)
	}

	completing := input.Action.Completes()
	var order *entity.PosOrder
	var unitsOut int

	err = s.withinSaleTransaction(ctx, func(ctx context.Context, repos repository.Repositories) error {
		var err error
		order, err = lockOrder(ctx, repos, orderID)
		if err != nil {
			return err
		}
		if !order.IsDraft() {
			return apperror.ErrNotEditable
		}

		branchID, err := resolveBranch(firstBranch(input.BranchID, &order.BranchID), actor)
		if err != nil {
			return err
		}

		priced, err := priceCart(ctx, repos.Catalog, input)
		if err != nil {
			return err
		}

		order.PosSessionID = input.PosSessionID
		order.BranchID = branchID
		order.WarehouseID = input.WarehouseID
		order.CustomerID = input.CustomerID
		order.DiscountID = priced.discountID
		order.WarrantyInfo = normalizeText(input.WarrantyInfo)
		applyTotals(order, priced.totals, Settle(priced.totals.Total, paymentAmounts(payments), !completing))
		if completing {
			order.Status = enum.OrderStatusCompleted
			if order.InvoiceNo == nil {
				order.InvoiceNo = s.invoiceNumber(actor.UserID)
			}
		}

		if err := repos.Orders.Update(ctx, order); err != nil {
			return apperror.NewGatewayError("failed to update order", err)
		}

		items, err := syncItems(ctx, repos.Items, order, priced.lines)
		if err != nil {
			return err
		}

		if err := repos.Payments.DeleteByOrderID(ctx, order.ID); err != nil {
			return apperror.NewGatewayError("failed to reset order payments", err)
		}

		if !completing {
			return nil
		}

		unitsOut, err = stockOutItems(ctx, repos.Stock, order, items, actor.UserID, NoteSaleUpdate)
		if err != nil {
			return err
		}
		return recordPayments(ctx, repos, order, payments)
	})
	if err != nil {
		return nil, s.fail(ctx, op, err)
	}

	s.metrics.AddStock(string(enum.StockMovementOut), unitsOut)
	s.committed(ctx, op, order)
	return s.result(ctx, order.ID, input.Action)
}

// CompleteDraft finalizes a draft with the supplied payments. Stock leaves
// the warehouse here and nowhere earlier.
func (s *PosOrderService) CompleteDraft(ctx context.Context, actor Actor, orderID uuid.UUID, input *PaymentsInput) (*entity.PosOrder, error) {
	const op = "complete_draft"

	payments, err := s.checkPayments(input)
	if err != nil {
		return nil, s.fail(ctx, op, err)
	}

	var order *entity.PosOrder
	var unitsOut int

	err = s.withinSaleTransaction(ctx, func(ctx context.Context, repos repository.Repositories) error {
		var err error
		order, err = lockOrder(ctx, repos, orderID)
		if err != nil {
			return err
		}
		if !order.IsDraft() {
			return apperror.WithMessage(apperror.ErrInvalidState, "Only draft orders can be completed")
		}

		if order.InvoiceNo == nil {
			order.InvoiceNo = s.invoiceNumber(order.ID)
		}

		if err := recordPayments(ctx, repos, order, payments); err != nil {
			return err
		}

		unitsOut, err = stockOutItems(ctx, repos.Stock, order, order.Items, actor.UserID, NoteSaleFromDraft)
		if err != nil {
			return err
		}

		settlement := Settle(order.TotalAmount, paymentAmounts(payments), false)
		order.Status = enum.OrderStatusCompleted
		applySettlement(order, settlement)

		if err := repos.Orders.Update(ctx, order); err != nil {
			return apperror.NewGatewayError("failed to complete order", err)
		}
		return nil
	})
	if err != nil {
		return nil, s.fail(ctx, op, err)
	}

	s.metrics.AddStock(string(enum.StockMovementOut), unitsOut)
	s.committed(ctx, op, order)
	return s.GetOrder(ctx, order.ID)
}

// AddPayments appends payments to a completed order and re-derives its
// payment state from every payment on record. Drafts are refused even though
// any non-void order could take a payment: a draft must never carry payments,
// so tenders for a draft go through CompleteDraft.
func (s *PosOrderService) AddPayments(ctx context.Context, actor Actor, orderID uuid.UUID, input *PaymentsInput) (*entity.PosOrder, error) {
	const op = "add_payment"

	payments, err := s.checkPayments(input)
	if err != nil {
		return nil, s.fail(ctx, op, err)
	}

	var order *entity.PosOrder
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context, repos repository.Repositories) error {
		var err error
		order, err = lockOrder(ctx, repos, orderID)
		if err != nil {
			return err
		}
		switch order.Status {
		case enum.OrderStatusVoid:
			return apperror.ErrOrderVoided
		case enum.OrderStatusDraft:
			return apperror.WithMessage(apperror.ErrInvalidState, "Complete the draft before taking payments")
		}

		if err := recordPayments(ctx, repos, order, payments); err != nil {
			return err
		}

		paid, err := repos.Payments.SumByOrderID(ctx, order.ID)
		if err != nil {
			return apperror.NewGatewayError("failed to total order payments", err)
		}
		applySettlement(order, SettleHistory(order.TotalAmount, paid))

		if err := repos.Orders.Update(ctx, order); err != nil {
			return apperror.NewGatewayError("failed to update order payments", err)
		}
		return nil
	})
	if err != nil {
		return nil, s.fail(ctx, op, err)
	}

	s.committed(ctx, op, order)
	return s.GetOrder(ctx, order.ID)
}

// VoidOrder cancels an order, returning stock for a completed sale. Voiding
// a void order succeeds without touching it.
func (s *PosOrderService) VoidOrder(ctx context.Context, actor Actor, orderID uuid.UUID) (*entity.PosOrder, error) {
	const op = "void"

	var order *entity.PosOrder
	var unitsIn int
	var alreadyVoid bool

	err := s.tx.WithinTransaction(ctx, func(ctx context.Context, repos repository.Repositories) error {
		var err error
		order, err = lockOrder(ctx, repos, orderID)
		if err != nil {
			return err
		}
		if order.Status == enum.OrderStatusVoid {
			alreadyVoid = true
			return nil
		}

		if order.Status == enum.OrderStatusCompleted {
			unitsIn, err = stockInItems(ctx, repos.Stock, order, actor.UserID)
			if err != nil {
				return err
			}
		}

		now := s.now()
		order.Status = enum.OrderStatusVoid
		order.VoidedAt = &now
		order.VoidedBy = &actor.UserID
		if err := repos.Orders.Update(ctx, order); err != nil {
			return apperror.NewGatewayError("failed to void order", err)
		}
		return nil
	})
	if err != nil {
		return nil, s.fail(ctx, op, err)
	}

	if !alreadyVoid {
		s.metrics.AddStock(string(enum.StockMovementIn), unitsIn)
		s.committed(ctx, op, order)
	}
	return s.GetOrder(ctx, order.ID)
}

// DestroyOrder moves an order to the trash.
func (s *PosOrderService) DestroyOrder(ctx context.Context, orderID uuid.UUID) error {
	const op = "trash"

	err := s.tx.WithinTransaction(ctx, func(ctx context.Context, repos repository.Repositories) error {
		if _, err := lockOrder(ctx, repos, orderID); err != nil {
			return err
		}
		if _, err := repos.Orders.SoftDelete(ctx, []uuid.UUID{orderID}); err != nil {
			return apperror.NewGatewayError("failed to trash order", err)
		}
		return nil
	})
	if err != nil {
		return s.fail(ctx, op, err)
	}
	s.metrics.IncOperation(op, "trashed")
	return nil
}

// RestoreOrder brings a trashed order back.
func (s *PosOrderService) RestoreOrder(ctx context.Context, orderID uuid.UUID) error {
	const op = "restore"

	err := s.tx.WithinTransaction(ctx, func(ctx context.Context, repos repository.Repositories) error {
		restored, err := repos.Orders.Restore(ctx, []uuid.UUID{orderID})
		if err != nil {
			return apperror.NewGatewayError("failed to restore order", err)
		}
		if restored == 0 {
			return apperror.NewNotFoundError("Trashed order")
		}
		return nil
	})
	if err != nil {
		return s.fail(ctx, op, err)
	}
	s.metrics.IncOperation(op, "restored")
	return nil
}

// ForceDeleteOrder permanently removes a trashed order with its items and
// payments.
func (s *PosOrderService) ForceDeleteOrder(ctx context.Context, orderID uuid.UUID) error {
	const op = "force_delete"

	err := s.tx.WithinTransaction(ctx, func(ctx context.Context, repos repository.Repositories) error {
		purged, err := repos.Orders.Purge(ctx, []uuid.UUID{orderID})
		if err != nil {
			return apperror.NewGatewayError("failed to delete order", err)
		}
		if purged > 0 {
			return nil
		}

		live, err := repos.Orders.GetByID(ctx, orderID)
		if err != nil {
			return apperror.NewGatewayError("failed to load order", err)
		}
		if live != nil {
			return apperror.WithMessage(apperror.ErrInvalidState, "Move the order to trash before deleting it permanently")
		}
		return apperror.NewNotFoundError("Trashed order")
	})
	if err != nil {
		return s.fail(ctx, op, err)
	}
	s.metrics.IncOperation(op, "deleted")
	return nil
}

// BulkActionInput selects several orders for one trash operation.
type BulkActionInput struct {
	Action enum.BulkAction `json:"action" validate:"required,oneof=trash restore force_delete"`
	IDs    []uuid.UUID     `json:"ids" validate:"required,min=1"`
}

// BulkAction applies a trash operation to every selected order at once and
// reports how many rows it touched.
func (s *PosOrderService) BulkAction(ctx context.Context, input *BulkActionInput) (int64, error) {
	const op = "bulk"

	if err := validateInput(input); err != nil {
		return 0, s.fail(ctx, op, err)
	}

	var affected int64
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context, repos repository.Repositories) error {
		var err error
		switch input.Action {
		case enum.BulkActionTrash:
			affected, err = repos.Orders.SoftDelete(ctx, input.IDs)
		case enum.BulkActionRestore:
			affected, err = repos.Orders.Restore(ctx, input.IDs)
		case enum.BulkActionForceDelete:
			affected, err = repos.Orders.Purge(ctx, input.IDs)
		}
		if err != nil {
			return apperror.NewGatewayError("failed to apply bulk action", err)
		}
		return nil
	})
	if err != nil {
		return 0, s.fail(ctx, op, err)
	}

	s.metrics.IncOperation(op, string(input.Action))
	s.log.Event(ctx, zerolog.InfoLevel).
		Str("action", string(input.Action)).
		Int64("affected", affected).
		Msg("bulk order action applied")
	return affected, nil
}

// checkOrderInput validates a cart before any transaction is opened and
// returns the payment lines that count towards completion.
func (s *PosOrderService) checkOrderInput(actor Actor, input *OrderInput) ([]PaymentLine, error) {
	if input == nil {
		return nil, apperror.NewFieldError("items", "is required")
	}
	if actor.UserID == uuid.Nil {
		return nil, apperror.ErrUnauthorized
	}
	if err := validateInput(input); err != nil {
		return nil, err
	}

	payments := FilterPaymentLines(input.Payments)
	if input.Action.Completes() && len(payments) == 0 {
		return nil, apperror.ErrPaymentRequired
	}
	return payments, nil
}

// checkPayments validates tenders for draft completion and added payments:
// every line needs a method and at least 0.01.
func (s *PosOrderService) checkPayments(input *PaymentsInput) ([]PaymentLine, error) {
	if input == nil || len(input.Payments) == 0 {
		return nil, apperror.ErrPaymentRequired
	}
	if err := validateInput(input); err != nil {
		return nil, err
	}

	var fields []apperror.FieldError
	for i, line := range input.Payments {
		if line.PaymentMethodID == uuid.Nil {
			fields = append(fields, apperror.FieldError{
				Field:   fmt.Sprintf("payments[%d].payment_method_id", i),
				Message: "is required",
			})
		}
		if line.Amount.LessThan(minPayment) {
			fields = append(fields, apperror.FieldError{
				Field:   fmt.Sprintf("payments[%d].amount", i),
				Message: "must be at least 0.01",
			})
		}
	}
	if len(fields) > 0 {
		return nil, apperror.NewValidationError(fields)
	}
	return input.Payments, nil
}

func (s *PosOrderService) result(ctx context.Context, orderID uuid.UUID, action enum.OrderAction) (*OrderResult, error) {
	order, err := s.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	res := &OrderResult{Order: order}

	if action != enum.OrderActionCompletePrint || s.printer == nil {
		return res, nil
	}

	// The sale is committed; a printer problem is reported, never rolled back.
	receipt, err := s.printer.PrintOrderReceipt(ctx, orderID)
	res.Receipt = receipt
	if err != nil {
		res.PrintError = err.Error()
		s.log.Warn(s.log.WithField(ctx, "order_id", orderID.String()), "receipt printing failed", err)
	}
	return res, nil
}

// invoiceNumber stamps a completed sale. ref is the cashier for direct
// sales and the order for completed drafts.
func (s *PosOrderService) invoiceNumber(ref uuid.UUID) *string {
	no := s.invoiceNo(s.now(), ref)
	return &no
}

// withinSaleTransaction runs fn in a transaction, starting over with a fresh
// invoice number when the one drawn is already taken.
func (s *PosOrderService) withinSaleTransaction(ctx context.Context, fn func(ctx context.Context, repos repository.Repositories) error) error {
	var err error
	for attempt := 0; attempt < maxInvoiceAttempts; attempt++ {
		err = s.tx.WithinTransaction(ctx, fn)
		if !errors.Is(err, repository.ErrDuplicateKey) {
			return err
		}
		s.log.Warn(s.log.WithField(ctx, "attempt", attempt+1), "invoice number collision, retrying", err)
	}
	return apperror.WithMessage(apperror.ErrConflict, "Could not allocate a unique invoice number, please retry")
}

func (s *PosOrderService) committed(ctx context.Context, op string, order *entity.PosOrder) {
	s.metrics.IncOperation(op, string(order.Status))
	s.log.Event(ctx, zerolog.InfoLevel).
		Str("operation", op).
		Str("order_id", order.ID.String()).
		Str("status", string(order.Status)).
		Str("payment_status", string(order.PaymentStatus)).
		Str("total", order.TotalAmount.StringFixed(2)).
		Msg("pos order committed")
}

func (s *PosOrderService) fail(ctx context.Context, op string, err error) error {
	appErr := apperror.GetAppError(err)
	s.metrics.IncFailure(op, string(appErr.Kind))

	level := zerolog.InfoLevel
	if appErr.Code >= 500 {
		level = zerolog.ErrorLevel
	}
	s.log.Event(ctx, level).
		Str("operation", op).
		Str("kind", string(appErr.Kind)).
		Err(err).
		Msg("pos order operation rejected")
	return err
}

type pricedCart struct {
	lines      []PreparedLine
	totals     Totals
	discountID *uuid.UUID
}

// priceCart loads the catalog rows a cart needs and computes its totals.
func priceCart(ctx context.Context, catalog repository.CatalogRepository, input *OrderInput) (*pricedCart, error) {
	ids := make([]uuid.UUID, 0, len(input.Items))
	seen := make(map[uuid.UUID]struct{}, len(input.Items))
	for _, item := range input.Items {
		if _, ok := seen[item.ProductID]; ok {
			continue
		}
		seen[item.ProductID] = struct{}{}
		ids = append(ids, item.ProductID)
	}

	products, err := catalog.GetActiveProductsByIDs(ctx, ids)
	if err != nil {
		return nil, apperror.NewGatewayError("failed to load products", err)
	}
	byID := make(map[uuid.UUID]*entity.Product, len(products))
	for i := range products {
		byID[products[i].ID] = &products[i]
	}

	lines, err := PrepareLines(input.Items, byID)
	if err != nil {
		return nil, err
	}

	var rule *entity.Discount
	if input.DiscountID != nil {
		rule, err = catalog.GetDiscountByID(ctx, *input.DiscountID)
		if err != nil {
			return nil, apperror.NewGatewayError("failed to load discount", err)
		}
		if rule == nil || !rule.IsActive {
			return nil, apperror.NewFieldError("discount_id", "Invalid discount.")
		}
	}

	return &pricedCart{
		lines:      lines,
		totals:     CalculateTotals(lines, ResolveOrderDiscount(rule, input.OrderDiscountType, input.OrderDiscountValue)),
		discountID: input.DiscountID,
	}, nil
}

func lockOrder(ctx context.Context, repos repository.Repositories, orderID uuid.UUID) (*entity.PosOrder, error) {
	order, err := repos.Orders.LockByID(ctx, orderID)
	if err != nil {
		return nil, apperror.NewGatewayError("failed to load order", err)
	}
	if order == nil {
		return nil, apperror.NewNotFoundError("Order")
	}
	return order, nil
}

func applyTotals(order *entity.PosOrder, totals Totals, settlement Settlement) {
	order.Subtotal = totals.Subtotal
	order.DiscountAmount = totals.DiscountTotal
	order.TaxAmount = totals.TaxTotal
	order.TotalAmount = totals.Total
	applySettlement(order, settlement)
}

func applySettlement(order *entity.PosOrder, settlement Settlement) {
	order.PaidAmount = settlement.Paid
	order.ChangeAmount = settlement.Change
	order.DueAmount = settlement.Due
	order.PaymentStatus = settlement.Status
}

func buildItems(orderID uuid.UUID, lines []PreparedLine) []entity.PosOrderItem {
	items := make([]entity.PosOrderItem, len(lines))
	for i, line := range lines {
		items[i] = entity.PosOrderItem{OrderID: orderID}
		fillItem(&items[i], line)
	}
	return items
}

func fillItem(item *entity.PosOrderItem, line PreparedLine) {
	item.ProductID = line.ProductID
	item.VariationID = line.VariationID
	item.SKU = line.SKU
	item.Name = line.Name
	item.Quantity = line.Quantity
	item.UnitPrice = line.UnitPrice
	item.DiscountAmount = line.Discount
	item.TaxAmount = line.Tax
	item.LineTotal = line.LineTotal()
}

// syncItems reconciles the stored items of order with lines. Matching items
// are updated in place, unmatched ones deleted and new lines inserted. The
// returned slice follows the order of lines.
func syncItems(ctx context.Context, repo repository.PosOrderItemRepository, order *entity.PosOrder, lines []PreparedLine) ([]entity.PosOrderItem, error) {
	existing := make(map[LineKey][]entity.PosOrderItem, len(order.Items))
	for _, item := range order.Items {
		key := NewLineKey(item.ProductID, item.VariationID)
		existing[key] = append(existing[key], item)
	}

	result := make([]entity.PosOrderItem, len(lines))
	var created []int
	for i, line := range lines {
		key := line.Key()
		if matches := existing[key]; len(matches) > 0 {
			item := matches[0]
			existing[key] = matches[1:]
			fillItem(&item, line)
			if err := repo.Update(ctx, &item); err != nil {
				return nil, apperror.NewGatewayError("failed to update order item", err)
			}
			result[i] = item
			continue
		}
		result[i] = entity.PosOrderItem{OrderID: order.ID}
		fillItem(&result[i], line)
		created = append(created, i)
	}

	var stale []uuid.UUID
	for _, items := range existing {
		for _, item := range items {
			stale = append(stale, item.ID)
		}
	}
	if err := repo.DeleteByIDs(ctx, stale); err != nil {
		return nil, apperror.NewGatewayError("failed to remove order items", err)
	}

	if len(created) > 0 {
		fresh := make([]entity.PosOrderItem, len(created))
		for j, i := range created {
			fresh[j] = result[i]
		}
		if err := repo.CreateBatch(ctx, fresh); err != nil {
			return nil, apperror.NewGatewayError("failed to create order items", err)
		}
		for j, i := range created {
			result[i] = fresh[j]
		}
	}

	order.Items = result
	return result, nil
}

func stockOutItems(ctx context.Context, stock repository.StockGateway, order *entity.PosOrder, items []entity.PosOrderItem, userID uuid.UUID, note string) (int, error) {
	units := 0
	for i, item := range items {
		err := stock.StockOut(ctx, repository.StockMovementInput{
			ProductID:   item.ProductID,
			VariationID: item.VariationID,
			BranchID:    order.BranchID,
			WarehouseID: order.WarehouseID,
			Quantity:    item.Quantity,
			Reference:   invoiceRef(order),
			Note:        note,
			CreatedBy:   userID,
		})
		if err != nil {
			if apperror.IsAppError(err) {
				return 0, withItemField(err, i)
			}
			return 0, apperror.NewGatewayError("stock out failed", err)
		}
		units += item.Quantity
	}
	return units, nil
}

func stockInItems(ctx context.Context, stock repository.StockGateway, order *entity.PosOrder, userID uuid.UUID) (int, error) {
	units := 0
	for _, item := range order.Items {
		err := stock.StockIn(ctx, repository.StockMovementInput{
			ProductID:   item.ProductID,
			VariationID: item.VariationID,
			BranchID:    order.BranchID,
			WarehouseID: order.WarehouseID,
			Quantity:    item.Quantity,
			Reference:   invoiceRef(order),
			Note:        NoteVoid,
			CreatedBy:   userID,
		})
		if err != nil {
			return 0, apperror.NewGatewayError("stock in failed", err)
		}
		units += item.Quantity
	}
	return units, nil
}

// recordPayments checks the payment methods and stores one payment row per
// line against order.
func recordPayments(ctx context.Context, repos repository.Repositories, order *entity.PosOrder, lines []PaymentLine) error {
	if len(lines) == 0 {
		return nil
	}

	ids := make([]uuid.UUID, 0, len(lines))
	for _, line := range lines {
		ids = append(ids, line.PaymentMethodID)
	}
	methods, err := repos.Catalog.GetActivePaymentMethodsByIDs(ctx, ids)
	if err != nil {
		return apperror.NewGatewayError("failed to load payment methods", err)
	}
	active := make(map[uuid.UUID]struct{}, len(methods))
	for _, m := range methods {
		active[m.ID] = struct{}{}
	}

	var fields []apperror.FieldError
	for i, line := range lines {
		if _, ok := active[line.PaymentMethodID]; !ok {
			fields = append(fields, apperror.FieldError{
				Field:   fmt.Sprintf("payments[%d].payment_method_id", i),
				Message: "Invalid payment method.",
			})
		}
	}
	if len(fields) > 0 {
		return apperror.NewValidationError(fields)
	}

	paidAt := time.Now()
	rows := make([]entity.PosPayment, len(lines))
	for i, line := range lines {
		rows[i] = entity.PosPayment{
			OrderID:         order.ID,
			BranchID:        order.BranchID,
			PaymentMethodID: line.PaymentMethodID,
			Amount:          line.Amount,
			PaidAt:          paidAt,
			TransactionRef:  normalizeText(line.TransactionRef),
			Notes:           normalizeText(line.Notes),
			Meta:            line.Meta.toEntity(),
		}
	}
	if err := repos.Payments.CreateBatch(ctx, rows); err != nil {
		return apperror.NewGatewayError("failed to record payments", err)
	}
	return nil
}

func (m *PaymentMetaInput) toEntity() *entity.PaymentMeta {
	if m == nil {
		return nil
	}
	meta := &entity.PaymentMeta{
		CustomerBankName:        normalizeText(m.CustomerBankName),
		CustomerAccountNo:       normalizeText(m.CustomerAccountNo),
		ReceivedToBankAccountID: m.ReceivedToBankAccountID,
		TxnRef:                  normalizeText(m.TxnRef),
	}
	if meta.CustomerBankName == nil && meta.CustomerAccountNo == nil &&
		meta.ReceivedToBankAccountID == nil && meta.TxnRef == nil {
		return nil
	}
	return meta
}

// withItemField points a stock failure at the offending line.
func withItemField(err error, index int) error {
	appErr := apperror.GetAppError(err)
	if len(appErr.Errors) > 0 {
		return err
	}
	return apperror.NewItemError(appErr, index, "%s", appErr.Message)
}

func invoiceRef(order *entity.PosOrder) string {
	if order.InvoiceNo != nil {
		return *order.InvoiceNo
	}
	return order.DisplayNumber()
}

func resolveBranch(explicit *uuid.UUID, actor Actor) (uuid.UUID, error) {
	if id := firstBranch(explicit, actor.BranchID); id != nil {
		return *id, nil
	}
	return uuid.Nil, apperror.NewFieldError("branch_id", "Branch context is required")
}

func firstBranch(candidates ...*uuid.UUID) *uuid.UUID {
	for _, c := range candidates {
		if c != nil && *c != uuid.Nil {
			return c
		}
	}
	return nil
}

func normalizeText(s *string) *string {
	if s == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*s)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
