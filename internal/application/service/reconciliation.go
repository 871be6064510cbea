package service

import (
	"github.com/google/uuid"
	"github.com/sangkips/pos-api/internal/domain/enum"
	"github.com/shopspring/decimal"
)

// Settlement is the payment state derived for an order.
type Settlement struct {
	Paid   decimal.Decimal
	Change decimal.Decimal
	Due    decimal.Decimal
	Status enum.PaymentStatus
}

// Settle derives the payment state from the amounts tendered at checkout.
// Drafts never carry payments, so they settle as unpaid with nothing paid.
func Settle(total decimal.Decimal, amounts []decimal.Decimal, draft bool) Settlement {
	if draft {
		return Settlement{
			Paid:   decimal.Zero,
			Change: decimal.Zero,
			Due:    nonNegative(total),
			Status: enum.PaymentStatusUnpaid,
		}
	}

	paid := decimal.Zero
	for _, a := range amounts {
		paid = paid.Add(a)
	}

	s := Settlement{
		Paid:   paid,
		Change: nonNegative(paid.Sub(total)),
		Due:    nonNegative(total.Sub(paid)),
	}
	switch {
	case paid.GreaterThanOrEqual(total):
		s.Status = enum.PaymentStatusPaid
	case paid.IsPositive():
		s.Status = enum.PaymentStatusPartial
	default:
		s.Status = enum.PaymentStatusUnpaid
	}
	return s
}

// SettleHistory recomputes the payment state from the sum of every payment
// recorded against a completed order.
func SettleHistory(total, paidSum decimal.Decimal) Settlement {
	s := Settlement{
		Paid:   paidSum,
		Change: nonNegative(paidSum.Sub(total)),
		Due:    nonNegative(total.Sub(paidSum)),
	}
	switch {
	case !paidSum.IsPositive():
		s.Status = enum.PaymentStatusUnpaid
	case s.Due.IsZero():
		s.Status = enum.PaymentStatusPaid
	default:
		s.Status = enum.PaymentStatusPartial
	}
	return s
}

// PaymentLine is one tender submitted with a checkout or a later payment.
type PaymentLine struct {
	PaymentMethodID uuid.UUID         `json:"payment_method_id"`
	Amount          decimal.Decimal   `json:"amount" validate:"gte=0,money"`
	TransactionRef  *string           `json:"transaction_ref" validate:"omitempty,max=100"`
	Notes           *string           `json:"notes" validate:"omitempty,max=500"`
	Meta            *PaymentMetaInput `json:"meta"`
}

// PaymentMetaInput is the optional bank transfer detail of a payment.
type PaymentMetaInput struct {
	CustomerBankName        *string    `json:"customer_bank_name" validate:"omitempty,max=100"`
	CustomerAccountNo       *string    `json:"customer_account_no" validate:"omitempty,max=50"`
	ReceivedToBankAccountID *uuid.UUID `json:"received_to_bank_account_id"`
	TxnRef                  *string    `json:"txn_ref" validate:"omitempty,max=100"`
}

// FilterPaymentLines keeps lines that name a payment method and carry at
// least one cent.
func FilterPaymentLines(lines []PaymentLine) []PaymentLine {
	kept := make([]PaymentLine, 0, len(lines))
	for _, line := range lines {
		if line.PaymentMethodID == uuid.Nil || line.Amount.LessThan(minPayment) {
			continue
		}
		kept = append(kept, line)
	}
	return kept
}

func paymentAmounts(lines []PaymentLine) []decimal.Decimal {
	amounts := make([]decimal.Decimal, len(lines))
	for i, line := range lines {
		amounts[i] = line.Amount
	}
	return amounts
}

func nonNegative(v decimal.Decimal) decimal.Decimal {
	if v.IsNegative() {
		return decimal.Zero
	}
	return v
}
