package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/sangkips/pos-api/internal/domain/entity"
	"github.com/sangkips/pos-api/internal/domain/enum"
	"github.com/sangkips/pos-api/internal/domain/repository"
	"github.com/sangkips/pos-api/pkg/apperror"
	"github.com/sangkips/pos-api/pkg/logger"
	"github.com/sangkips/pos-api/pkg/printer"
	"github.com/shopspring/decimal"
)

// PrinterService handles receipt formatting and thermal printing.
type PrinterService struct {
	printer     printer.Printer
	orders      repository.PosOrderRepository
	catalog     repository.CatalogRepository
	shop        ShopInfo
	printerType string
	paperWidth  int
	log         *logger.Logger
}

// NewPrinterService creates a new printer service.
func NewPrinterService(
	p printer.Printer,
	orders repository.PosOrderRepository,
	catalog repository.CatalogRepository,
	shop ShopInfo,
	printerType string,
	paperWidth int,
	log *logger.Logger,
) *PrinterService {
	if log == nil {
		log = logger.Nop()
	}
	return &PrinterService{
		printer:     p,
		orders:      orders,
		catalog:     catalog,
		shop:        shop,
		printerType: printerType,
		paperWidth:  paperWidth,
		log:         log,
	}
}

// PrinterStatus returns the current printer status information.
type PrinterStatus struct {
	Configured bool   `json:"configured"`
	Connected  bool   `json:"connected"`
	Type       string `json:"type"`
}

// GetStatus returns printer connection status.
func (s *PrinterService) GetStatus(ctx context.Context) *PrinterStatus {
	return &PrinterStatus{
		Configured: s.printerType != printer.TypeNone && s.printerType != "",
		Connected:  s.printer.IsConnected(ctx),
		Type:       s.printerType,
	}
}

// BuildOrderReceipt composes the receipt of an order without printing it.
func (s *PrinterService) BuildOrderReceipt(ctx context.Context, orderID uuid.UUID) (*entity.Receipt, error) {
	order, err := s.orders.GetWithDetails(ctx, orderID)
	if err != nil {
		return nil, apperror.NewGatewayError("failed to load order", err)
	}
	if order == nil {
		return nil, apperror.NewNotFoundError("Order")
	}

	methodNames, err := s.paymentMethodNames(ctx, order.Payments)
	if err != nil {
		return nil, err
	}
	return NewReceipt(order, s.shop, methodNames), nil
}

// PrintOrderReceipt builds and prints an order's receipt. When printing
// fails the receipt is returned along with the error so callers can still
// show it.
func (s *PrinterService) PrintOrderReceipt(ctx context.Context, orderID uuid.UUID) (*entity.Receipt, error) {
	receipt, err := s.BuildOrderReceipt(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if err := s.printer.Print(ctx, FormatReceipt(receipt, s.paperWidth)); err != nil {
		s.log.Warn(s.log.WithField(ctx, "order_id", orderID.String()), "printer error", err)
		return receipt, fmt.Errorf("failed to print receipt: %w", err)
	}
	return receipt, nil
}

func (s *PrinterService) paymentMethodNames(ctx context.Context, payments []entity.PosPayment) (map[uuid.UUID]string, error) {
	names := make(map[uuid.UUID]string)
	if len(payments) == 0 {
		return names, nil
	}
	ids := make([]uuid.UUID, 0, len(payments))
	for _, p := range payments {
		ids = append(ids, p.PaymentMethodID)
	}
	methods, err := s.catalog.GetPaymentMethodsByIDs(ctx, ids)
	if err != nil {
		return nil, apperror.NewGatewayError("failed to load payment methods", err)
	}
	for _, m := range methods {
		names[m.ID] = m.Name
	}
	return names, nil
}

// NewReceipt converts an order into its printable receipt.
func NewReceipt(order *entity.PosOrder, shop ShopInfo, methodNames map[uuid.UUID]string) *entity.Receipt {
	receipt := &entity.Receipt{
		Header: entity.ReceiptHeader{
			StoreName: shop.Name,
			Address:   shop.Address,
			Phone:     shop.Phone,
			TaxID:     shop.TaxID,
		},
		InvoiceNo: order.DisplayNumber(),
		Date:      order.CreatedAt.Format("2006-01-02 15:04"),
		Customer:  "Walk-in",
		Status:    string(order.Status),
		Items:     make([]entity.ReceiptItem, 0, len(order.Items)),
		SubTotal:  order.Subtotal.StringFixed(2),
		Discount:  order.DiscountAmount.StringFixed(2),
		Tax:       order.TaxAmount.StringFixed(2),
		Total:     order.TotalAmount.StringFixed(2),
		Paid:      order.PaidAmount.StringFixed(2),
		Change:    order.ChangeAmount.StringFixed(2),
		Due:       order.DueAmount.StringFixed(2),
	}
	if order.User != nil {
		receipt.Cashier = order.User.FullName()
	}
	if order.Customer != nil && order.Customer.Name != "" {
		receipt.Customer = order.Customer.Name
	}
	if order.WarrantyInfo != nil {
		receipt.WarrantyInfo = *order.WarrantyInfo
	}

	for _, it := range order.Items {
		item := entity.ReceiptItem{
			Name:      it.Name,
			SKU:       it.SKU,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice.StringFixed(2),
			Total:     it.LineTotal.StringFixed(2),
		}
		if it.DiscountAmount.IsPositive() {
			item.Discount = it.DiscountAmount.StringFixed(2)
		}
		if item.Name == "" {
			item.Name = "Product"
		}
		receipt.Items = append(receipt.Items, item)
	}

	for _, p := range order.Payments {
		line := entity.ReceiptPayment{
			Method: methodNames[p.PaymentMethodID],
			Amount: p.Amount.StringFixed(2),
		}
		if line.Method == "" {
			line.Method = "Payment"
		}
		if p.TransactionRef != nil {
			line.Ref = *p.TransactionRef
		}
		receipt.Payments = append(receipt.Payments, line)
	}

	return receipt
}

// FormatReceipt converts a Receipt into ESC/POS bytes.
func FormatReceipt(r *entity.Receipt, width int) []byte {
	doc := printer.NewDocument(width)

	// Header
	doc.SetAlign(printer.AlignCenter).
		SetBold(true).
		SetFontSize(printer.FontDouble).
		Text(r.Header.StoreName).
		SetFontSize(printer.FontNormal).
		SetBold(false)

	if r.Header.Address != "" {
		doc.Text(r.Header.Address)
	}
	if r.Header.Phone != "" {
		doc.Text(r.Header.Phone)
	}
	if r.Header.TaxID != "" {
		doc.TextF("Tax ID: %s", r.Header.TaxID)
	}
	if r.Status == string(enum.OrderStatusVoid) {
		doc.SetBold(true).Text("*** VOID ***").SetBold(false)
	}

	doc.SetAlign(printer.AlignLeft).
		Separator('-').
		KeyValue("Invoice:", r.InvoiceNo).
		KeyValue("Date:", r.Date)

	if r.Cashier != "" {
		doc.KeyValue("Cashier:", r.Cashier)
	}
	doc.KeyValue("Customer:", r.Customer).
		Separator('-')

	for _, item := range r.Items {
		doc.ItemLine(item.Quantity, item.Name, item.Total)
		if item.Quantity > 1 {
			doc.TextF("  @ %s each", item.UnitPrice)
		}
		if item.Discount != "" {
			doc.TextF("  less %s", item.Discount)
		}
	}

	doc.Separator('-').
		KeyValue("Subtotal:", r.SubTotal)
	if nonZero(r.Discount) {
		doc.KeyValue("Discount:", "-"+r.Discount)
	}
	if nonZero(r.Tax) {
		doc.KeyValue("Tax:", r.Tax)
	}
	doc.SetBold(true).
		KeyValue("TOTAL:", r.Total).
		SetBold(false)

	for _, p := range r.Payments {
		doc.KeyValue(p.Method+":", p.Amount)
	}
	if nonZero(r.Change) {
		doc.KeyValue("Change:", r.Change)
	}
	if nonZero(r.Due) {
		doc.KeyValue("Due:", r.Due)
	}

	if r.WarrantyInfo != "" {
		doc.Separator('-').
			Text("Warranty:").
			Wrap(r.WarrantyInfo)
	}

	doc.Separator('-').
		SetAlign(printer.AlignCenter).
		LineFeed().
		Text("Thank you for your business!").
		LineFeed().
		SetAlign(printer.AlignLeft).
		FeedLines(3).
		PartialCut()

	return doc.Bytes()
}

func nonZero(amount string) bool {
	d, err := decimal.NewFromString(amount)
	return err == nil && !d.IsZero()
}
