package entity

// ReceiptHeader holds the store/business header printed at the top of a receipt.
type ReceiptHeader struct {
	StoreName string `json:"store_name"`
	Address   string `json:"address,omitempty"`
	Phone     string `json:"phone,omitempty"`
	TaxID     string `json:"tax_id,omitempty"`
}

// ReceiptItem represents a single line item on a receipt.
type ReceiptItem struct {
	Name      string `json:"name"`
	SKU       string `json:"sku,omitempty"`
	Quantity  int    `json:"quantity"`
	UnitPrice string `json:"unit_price"`
	Discount  string `json:"discount,omitempty"`
	Total     string `json:"total"`
}

// ReceiptPayment is one tender line on a receipt.
type ReceiptPayment struct {
	Method string `json:"method"`
	Amount string `json:"amount"`
	Ref    string `json:"ref,omitempty"`
}

// Receipt is a value object composed from an order at print time. It is not
// persisted.
type Receipt struct {
	Header       ReceiptHeader    `json:"header"`
	InvoiceNo    string           `json:"invoice_no"`
	Date         string           `json:"date"`
	Cashier      string           `json:"cashier,omitempty"`
	Customer     string           `json:"customer,omitempty"`
	Status       string           `json:"status"`
	Items        []ReceiptItem    `json:"items"`
	Payments     []ReceiptPayment `json:"payments,omitempty"`
	SubTotal     string           `json:"sub_total"`
	Discount     string           `json:"discount"`
	Tax          string           `json:"tax"`
	Total        string           `json:"total"`
	Paid         string           `json:"paid"`
	Change       string           `json:"change"`
	Due          string           `json:"due"`
	WarrantyInfo string           `json:"warranty_info,omitempty"`
}
