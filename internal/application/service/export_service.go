package service

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/sangkips/pos-api/internal/domain/entity"
	"github.com/sangkips/pos-api/internal/domain/repository"
	"github.com/sangkips/pos-api/pkg/apperror"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// Export formats
const (
	ExportExcel = "excel"
	ExportPDF   = "pdf"
)

// ShopInfo is the business header printed on reports and receipts.
type ShopInfo struct {
	Name    string
	Address string
	Phone   string
	TaxID   string
}

// ExportFile is a rendered report ready to stream to the client.
type ExportFile struct {
	Filename    string
	ContentType string
	Data        []byte
}

// ExportService renders the filtered order list as a spreadsheet or PDF.
type ExportService struct {
	orders repository.PosOrderRepository
	shop   ShopInfo
	now    func() time.Time
}

// NewExportService creates a new export service
func NewExportService(orders repository.PosOrderRepository, shop ShopInfo) *ExportService {
	return &ExportService{orders: orders, shop: shop, now: time.Now}
}

// ExportRow is one order as it appears in exports.
type ExportRow struct {
	InvoiceNo     string
	Date          time.Time
	Customer      string
	Cashier       string
	Subtotal      decimal.Decimal
	Discount      decimal.Decimal
	Tax           decimal.Decimal
	Total         decimal.Decimal
	Status        string
	PaymentStatus string
}

// NewExportRow flattens an order for reporting.
func NewExportRow(o *entity.PosOrder) ExportRow {
	row := ExportRow{
		InvoiceNo:     o.DisplayNumber(),
		Date:          o.CreatedAt,
		Customer:      "Walk-in",
		Cashier:       "N/A",
		Subtotal:      o.Subtotal,
		Discount:      o.DiscountAmount,
		Tax:           o.TaxAmount,
		Total:         o.TotalAmount,
		Status:        capitalize(string(o.Status)),
		PaymentStatus: capitalize(string(o.PaymentStatus)),
	}
	if o.Customer != nil && o.Customer.Name != "" {
		row.Customer = o.Customer.Name
	}
	if o.User != nil && o.User.FullName() != "" {
		row.Cashier = o.User.FullName()
	}
	return row
}

// Export renders every order matching params in format.
func (s *ExportService) Export(ctx context.Context, params *repository.PosOrderFilterParams, format string) (*ExportFile, error) {
	if format != ExportExcel && format != ExportPDF {
		return nil, apperror.NewFieldError("export", "must be one of [excel pdf]")
	}

	orders, err := s.orders.ListAll(ctx, params)
	if err != nil {
		return nil, apperror.NewGatewayError("failed to load orders for export", err)
	}
	rows := make([]ExportRow, len(orders))
	for i := range orders {
		rows[i] = NewExportRow(&orders[i])
	}

	stamp := s.now().Format("2006-01-02_150405")
	if format == ExportExcel {
		data, err := s.renderExcel(rows)
		if err != nil {
			return nil, err
		}
		return &ExportFile{
			Filename:    "pos_orders_" + stamp + ".xlsx",
			ContentType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
			Data:        data,
		}, nil
	}

	data, err := s.renderPDF(rows)
	if err != nil {
		return nil, err
	}
	return &ExportFile{
		Filename:    "pos_orders_" + stamp + ".pdf",
		ContentType: "application/pdf",
		Data:        data,
	}, nil
}

var excelHeadings = []interface{}{
	"Invoice No", "Date", "Customer", "Cashier", "Subtotal",
	"Discount", "Tax", "Total", "Status", "Payment Status",
}

func (s *ExportService) renderExcel(rows []ExportRow) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Orders"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, fmt.Errorf("export: rename sheet: %w", err)
	}

	if err := f.SetSheetRow(sheet, "A1", &excelHeadings); err != nil {
		return nil, fmt.Errorf("export: write headings: %w", err)
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("export: create style: %w", err)
	}
	if err := f.SetCellStyle(sheet, "A1", "J1", bold); err != nil {
		return nil, fmt.Errorf("export: style headings: %w", err)
	}

	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		values := []interface{}{
			r.InvoiceNo,
			r.Date.Format("2006-01-02 15:04:05"),
			r.Customer,
			r.Cashier,
			r.Subtotal.InexactFloat64(),
			r.Discount.InexactFloat64(),
			r.Tax.InexactFloat64(),
			r.Total.InexactFloat64(),
			r.Status,
			r.PaymentStatus,
		}
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return nil, fmt.Errorf("export: write row %d: %w", i+2, err)
		}
	}

	_ = f.SetColWidth(sheet, "A", "A", 34)
	_ = f.SetColWidth(sheet, "B", "D", 20)
	_ = f.SetColWidth(sheet, "E", "J", 14)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("export: write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

var pdfColumns = []struct {
	title string
	width float64
	align string
}{
	{"Invoice No", 62, "L"},
	{"Date", 24, "L"},
	{"Customer", 40, "L"},
	{"Subtotal", 25, "R"},
	{"Discount", 25, "R"},
	{"Tax", 20, "R"},
	{"Total", 27, "R"},
	{"Payment", 22, "L"},
	{"Status", 22, "L"},
}

func (s *ExportService) renderPDF(rows []ExportRow) ([]byte, error) {
	pdf := fpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(10, 10, 10)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 9, "POS Orders Report", "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	if s.shop.Name != "" {
		pdf.CellFormat(0, 5, s.shop.Name, "", 1, "C", false, 0, "")
	}
	if contact := joinNonEmpty(" | ", s.shop.Address, s.shop.Phone); contact != "" {
		pdf.CellFormat(0, 5, contact, "", 1, "C", false, 0, "")
	}
	pdf.CellFormat(0, 5, "Generated on: "+s.now().Format("2006-01-02 15:04:05"), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "B", 8)
	pdf.SetFillColor(243, 244, 246)
	for _, col := range pdfColumns {
		pdf.CellFormat(col.width, 7, col.title, "1", 0, "L", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 8)
	subtotal, discount, tax, total := decimal.Zero, decimal.Zero, decimal.Zero, decimal.Zero
	for _, r := range rows {
		subtotal = subtotal.Add(r.Subtotal)
		discount = discount.Add(r.Discount)
		tax = tax.Add(r.Tax)
		total = total.Add(r.Total)

		cells := []string{
			r.InvoiceNo,
			r.Date.Format("2006-01-02"),
			r.Customer,
			r.Subtotal.StringFixed(2),
			r.Discount.StringFixed(2),
			r.Tax.StringFixed(2),
			r.Total.StringFixed(2),
			strings.ToLower(r.PaymentStatus),
			strings.ToLower(r.Status),
		}
		for i, col := range pdfColumns {
			pdf.CellFormat(col.width, 6, cells[i], "1", 0, col.align, false, 0, "")
		}
		pdf.Ln(-1)
	}

	pdf.SetFont("Helvetica", "B", 8)
	pdf.SetFillColor(249, 250, 251)
	labelWidth := pdfColumns[0].width + pdfColumns[1].width + pdfColumns[2].width
	pdf.CellFormat(labelWidth, 7, "Totals:", "1", 0, "R", true, 0, "")
	for i, v := range []decimal.Decimal{subtotal, discount, tax, total} {
		pdf.CellFormat(pdfColumns[3+i].width, 7, v.StringFixed(2), "1", 0, "R", true, 0, "")
	}
	pdf.CellFormat(pdfColumns[7].width+pdfColumns[8].width, 7, "", "1", 1, "L", true, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("export: render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func joinNonEmpty(sep string, parts ...string) string {
	kept := parts[:0:0]
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, sep)
}
