package entity

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/pos-api/internal/domain/enum"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PosOrder is one sale made at a POS terminal.
type PosOrder struct {
	ID             uuid.UUID          `gorm:"type:uuid;primary_key" json:"id"`
	PosSessionID   uuid.UUID          `gorm:"type:uuid;not null;index" json:"pos_session_id"`
	BranchID       uuid.UUID          `gorm:"type:uuid;not null;index" json:"branch_id"`
	WarehouseID    uuid.UUID          `gorm:"type:uuid;not null;index" json:"warehouse_id"`
	CustomerID     *uuid.UUID         `gorm:"type:uuid;index" json:"customer_id,omitempty"`
	UserID         uuid.UUID          `gorm:"type:uuid;not null;index" json:"user_id"`
	DiscountID     *uuid.UUID         `gorm:"type:uuid" json:"discount_id,omitempty"`
	InvoiceNo      *string            `gorm:"size:100;uniqueIndex" json:"invoice_no"`
	Subtotal       decimal.Decimal    `gorm:"type:numeric(14,2);not null;default:0" json:"-"`
	DiscountAmount decimal.Decimal    `gorm:"type:numeric(14,2);not null;default:0" json:"-"`
	TaxAmount      decimal.Decimal    `gorm:"type:numeric(14,2);not null;default:0" json:"-"`
	TotalAmount    decimal.Decimal    `gorm:"type:numeric(14,2);not null;default:0" json:"-"`
	PaidAmount     decimal.Decimal    `gorm:"type:numeric(14,2);not null;default:0" json:"-"`
	ChangeAmount   decimal.Decimal    `gorm:"type:numeric(14,2);not null;default:0" json:"-"`
	DueAmount      decimal.Decimal    `gorm:"type:numeric(14,2);not null;default:0" json:"-"`
	Status         enum.OrderStatus   `gorm:"size:20;not null;index" json:"status"`
	PaymentStatus  enum.PaymentStatus `gorm:"size:20;not null;index" json:"payment_status"`
	WarrantyInfo   *string            `gorm:"type:text" json:"warranty_info,omitempty"`
	VoidedAt       *time.Time         `json:"voided_at,omitempty"`
	VoidedBy       *uuid.UUID         `gorm:"type:uuid" json:"voided_by,omitempty"`
	CreatedAt      time.Time          `json:"created_at"`
	UpdatedAt      time.Time          `json:"updated_at"`
	DeletedAt      gorm.DeletedAt     `gorm:"index" json:"deleted_at,omitempty"`

	// Relationships
	Items    []PosOrderItem `gorm:"foreignKey:OrderID" json:"items,omitempty"`
	Payments []PosPayment   `gorm:"foreignKey:OrderID" json:"payments,omitempty"`
	Customer *Customer      `gorm:"foreignKey:CustomerID" json:"customer,omitempty"`
	User     *User          `gorm:"foreignKey:UserID" json:"cashier,omitempty"`
}

// MarshalJSON renders money with two decimals.
func (o PosOrder) MarshalJSON() ([]byte, error) {
	type Alias PosOrder
	return json.Marshal(&struct {
		Alias
		Subtotal       string `json:"subtotal"`
		DiscountAmount string `json:"discount_amount"`
		TaxAmount      string `json:"tax_amount"`
		TotalAmount    string `json:"total_amount"`
		PaidAmount     string `json:"paid_amount"`
		ChangeAmount   string `json:"change_amount"`
		DueAmount      string `json:"due_amount"`
	}{
		Alias:          Alias(o),
		Subtotal:       o.Subtotal.StringFixed(2),
		DiscountAmount: o.DiscountAmount.StringFixed(2),
		TaxAmount:      o.TaxAmount.StringFixed(2),
		TotalAmount:    o.TotalAmount.StringFixed(2),
		PaidAmount:     o.PaidAmount.StringFixed(2),
		ChangeAmount:   o.ChangeAmount.StringFixed(2),
		DueAmount:      o.DueAmount.StringFixed(2),
	})
}

// BeforeCreate generates a UUID before creating a new order
func (o *PosOrder) BeforeCreate(tx *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the PosOrder model
func (PosOrder) TableName() string {
	return "pos_orders"
}

// IsDraft reports whether the order can still be edited.
func (o *PosOrder) IsDraft() bool {
	return o.Status == enum.OrderStatusDraft
}

// DisplayNumber is the label used in listings and exports.
func (o *PosOrder) DisplayNumber() string {
	if o.InvoiceNo != nil && *o.InvoiceNo != "" {
		return *o.InvoiceNo
	}
	if o.Status == enum.OrderStatusDraft {
		return "DRAFT-" + o.ID.String()
	}
	return "#" + o.ID.String()
}

// PosOrderItem is a product line of an order. Name and SKU are snapshotted
// at sale time.
type PosOrderItem struct {
	ID             uuid.UUID       `gorm:"type:uuid;primary_key" json:"id"`
	OrderID        uuid.UUID       `gorm:"type:uuid;not null;index" json:"order_id"`
	ProductID      uuid.UUID       `gorm:"type:uuid;not null;index" json:"product_id"`
	VariationID    *uuid.UUID      `gorm:"type:uuid;index" json:"variation_id,omitempty"`
	SKU            string          `gorm:"size:100" json:"sku"`
	Name           string          `gorm:"size:255;not null" json:"name"`
	Quantity       int             `gorm:"not null" json:"quantity"`
	UnitPrice      decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"-"`
	DiscountAmount decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0" json:"-"`
	TaxAmount      decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0" json:"-"`
	LineTotal      decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"-"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`

	Product *Product `gorm:"foreignKey:ProductID" json:"-"`
}

// MarshalJSON renders money with two decimals.
func (i PosOrderItem) MarshalJSON() ([]byte, error) {
	type Alias PosOrderItem
	return json.Marshal(&struct {
		Alias
		UnitPrice      string `json:"unit_price"`
		DiscountAmount string `json:"discount_amount"`
		TaxAmount      string `json:"tax_amount"`
		LineTotal      string `json:"line_total"`
	}{
		Alias:          Alias(i),
		UnitPrice:      i.UnitPrice.StringFixed(2),
		DiscountAmount: i.DiscountAmount.StringFixed(2),
		TaxAmount:      i.TaxAmount.StringFixed(2),
		LineTotal:      i.LineTotal.StringFixed(2),
	})
}

// BeforeCreate generates a UUID before creating a new order item
func (i *PosOrderItem) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the PosOrderItem model
func (PosOrderItem) TableName() string {
	return "pos_order_items"
}

// PaymentMeta holds optional bank transfer details captured at the till.
type PaymentMeta struct {
	CustomerBankName        *string    `json:"customer_bank_name,omitempty"`
	CustomerAccountNo       *string    `json:"customer_account_no,omitempty"`
	ReceivedToBankAccountID *uuid.UUID `json:"received_to_bank_account_id,omitempty"`
	TxnRef                  *string    `json:"txn_ref,omitempty"`
}

// PosPayment is money received against an order.
type PosPayment struct {
	ID              uuid.UUID       `gorm:"type:uuid;primary_key" json:"id"`
	OrderID         uuid.UUID       `gorm:"type:uuid;not null;index" json:"order_id"`
	BranchID        uuid.UUID       `gorm:"type:uuid;not null;index" json:"branch_id"`
	PaymentMethodID uuid.UUID       `gorm:"type:uuid;not null;index" json:"payment_method_id"`
	Amount          decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"-"`
	PaidAt          time.Time       `gorm:"not null" json:"paid_at"`
	TransactionRef  *string         `gorm:"size:100" json:"transaction_ref,omitempty"`
	Notes           *string         `gorm:"size:500" json:"notes,omitempty"`
	Meta            *PaymentMeta    `gorm:"type:jsonb;serializer:json" json:"meta,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// MarshalJSON renders money with two decimals.
func (p PosPayment) MarshalJSON() ([]byte, error) {
	type Alias PosPayment
	return json.Marshal(&struct {
		Alias
		Amount string `json:"amount"`
	}{
		Alias:  Alias(p),
		Amount: p.Amount.StringFixed(2),
	})
}

// BeforeCreate generates a UUID before creating a new payment
func (p *PosPayment) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the PosPayment model
func (PosPayment) TableName() string {
	return "pos_payments"
}
