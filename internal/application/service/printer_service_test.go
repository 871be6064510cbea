package service

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/sangkips/pos-api/internal/domain/entity"
	"github.com/sangkips/pos-api/internal/domain/enum"
	infraRepo "github.com/sangkips/pos-api/internal/infrastructure/repository"
	"github.com/sangkips/pos-api/pkg/apperror"
	"github.com/sangkips/pos-api/pkg/printer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPrinter struct {
	jobs [][]byte
	err  error
}

func (p *recordingPrinter) Print(ctx context.Context, data []byte) error {
	if p.err != nil {
		return p.err
	}
	p.jobs = append(p.jobs, append([]byte(nil), data...))
	return nil
}

func (p *recordingPrinter) Close() error                         { return nil }
func (p *recordingPrinter) IsConnected(ctx context.Context) bool { return p.err == nil }

var testShop = ShopInfo{Name: "Corner Shop", Address: "1 Main St", Phone: "0700 000000", TaxID: "P051"}

func newPrinterFixture(t *testing.T) (*orderFixture, *recordingPrinter, *PrinterService) {
	t.Helper()
	f := newOrderFixture(t, nil)
	rec := &recordingPrinter{}
	ps := NewPrinterService(rec,
		infraRepo.NewPosOrderRepository(f.DB),
		infraRepo.NewCatalogRepository(f.DB),
		testShop, printer.TypeUSB, printer.Width80mm, nil)
	f.svc.printer = ps
	return f, rec, ps
}

func TestPrintOrderReceipt(t *testing.T) {
	f, rec, ps := newPrinterFixture(t)
	soap := f.Product(t, "Soap", "50", 10)

	input := f.cart(enum.OrderActionComplete, line(soap.ID, 2))
	warranty := "  12 months  "
	input.WarrantyInfo = &warranty
	input.Payments = []PaymentLine{f.cash("120")}
	res, err := f.svc.CreateOrder(f.ctx, f.actor, input)
	require.NoError(t, err)
	assert.Empty(t, rec.jobs, "plain complete does not print")

	receipt, err := ps.PrintOrderReceipt(f.ctx, res.Order.ID)
	require.NoError(t, err)
	require.Len(t, rec.jobs, 1)

	assert.Equal(t, *res.Order.InvoiceNo, receipt.InvoiceNo)
	assert.Equal(t, "Walk-in", receipt.Customer)
	assert.Equal(t, "Jane Till", receipt.Cashier)
	assert.Equal(t, "100.00", receipt.Total)
	assert.Equal(t, "20.00", receipt.Change)
	assert.Equal(t, "12 months", receipt.WarrantyInfo)
	require.Len(t, receipt.Payments, 1)
	assert.Equal(t, "Cash", receipt.Payments[0].Method)

	job := rec.jobs[0]
	assert.True(t, bytes.Contains(job, []byte(*res.Order.InvoiceNo)))
	assert.True(t, bytes.Contains(job, []byte("Corner Shop")))
	assert.True(t, bytes.Contains(job, []byte("2x Soap")))
	assert.True(t, bytes.Contains(job, []byte("Change:")))
	assert.True(t, bytes.HasPrefix(job, []byte{printer.ESC, '@'}))
	assert.True(t, bytes.HasSuffix(job, []byte{printer.GS, 'V', 0x01}))
}

func TestCompletePrintWiredToPrinterService(t *testing.T) {
	f, rec, _ := newPrinterFixture(t)
	soap := f.Product(t, "Soap", "50", 10)

	input := f.cart(enum.OrderActionCompletePrint, line(soap.ID, 1))
	input.Payments = []PaymentLine{f.cash("50")}
	res, err := f.svc.CreateOrder(f.ctx, f.actor, input)
	require.NoError(t, err)
	require.NotNil(t, res.Receipt)
	assert.Len(t, rec.jobs, 1)

	rec.err = errors.New("cover open")
	res, err = f.svc.CreateOrder(f.ctx, f.actor, input)
	require.NoError(t, err)
	require.NotNil(t, res.Receipt, "the receipt is returned even when printing fails")
	assert.Contains(t, res.PrintError, "cover open")
}

func TestBuildOrderReceiptNotFound(t *testing.T) {
	_, _, ps := newPrinterFixture(t)
	_, err := ps.BuildOrderReceipt(context.Background(), uuid.New())
	assertKind(t, err, apperror.KindNotFound)
}

func TestPrinterStatus(t *testing.T) {
	_, rec, ps := newPrinterFixture(t)
	status := ps.GetStatus(context.Background())
	assert.True(t, status.Configured)
	assert.True(t, status.Connected)
	assert.Equal(t, printer.TypeUSB, status.Type)

	rec.err = errors.New("offline")
	assert.False(t, ps.GetStatus(context.Background()).Connected)

	none := NewPrinterService(rec, nil, nil, testShop, printer.TypeNone, 0, nil)
	assert.False(t, none.GetStatus(context.Background()).Configured)
}

func TestFormatReceiptMarksVoidAndDue(t *testing.T) {
	r := &entity.Receipt{
		Header:    entity.ReceiptHeader{StoreName: "Corner Shop"},
		InvoiceNo: "POS-1",
		Status:    string(enum.OrderStatusVoid),
		Customer:  "Walk-in",
		Items:     []entity.ReceiptItem{{Name: "Soap", Quantity: 3, UnitPrice: "10.00", Total: "30.00", Discount: "2.00"}},
		SubTotal:  "30.00",
		Discount:  "2.00",
		Tax:       "0.00",
		Total:     "28.00",
		Paid:      "8.00",
		Change:    "0.00",
		Due:       "20.00",
	}
	out := FormatReceipt(r, printer.Width58mm)

	assert.True(t, bytes.Contains(out, []byte("*** VOID ***")))
	assert.True(t, bytes.Contains(out, []byte("@ 10.00 each")))
	assert.True(t, bytes.Contains(out, []byte("less 2.00")))
	assert.True(t, bytes.Contains(out, []byte("Due:")))
	assert.False(t, bytes.Contains(out, []byte("Tax:")), "zero tax is not printed")
	assert.False(t, bytes.Contains(out, []byte("Change:")))
}

func TestNewReceiptDefaults(t *testing.T) {
	order := &entity.PosOrder{
		ID:     uuid.New(),
		Status: enum.OrderStatusDraft,
		Items:  []entity.PosOrderItem{{Quantity: 1}},
		Payments: []entity.PosPayment{
			{PaymentMethodID: uuid.New(), Amount: dec("5")},
		},
	}
	r := NewReceipt(order, testShop, map[uuid.UUID]string{})

	assert.Equal(t, "DRAFT-"+order.ID.String(), r.InvoiceNo)
	assert.Equal(t, "Product", r.Items[0].Name)
	assert.Equal(t, "Payment", r.Payments[0].Method)
	assert.Empty(t, r.Cashier)
}
