package request

import (
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/pos-api/internal/application/service"
	"github.com/sangkips/pos-api/internal/domain/enum"
	"github.com/sangkips/pos-api/internal/domain/repository"
	"github.com/sangkips/pos-api/pkg/apperror"
	"github.com/sangkips/pos-api/pkg/pagination"
)

const dateLayout = "2006-01-02"

// PaymentsRequest accepts either {"payments": [...]} or a single payment
// object at the top level.
type PaymentsRequest struct {
	Payments []service.PaymentLine `json:"payments"`
	service.PaymentLine
}

// Input returns the payments as a service input.
func (r *PaymentsRequest) Input() *service.PaymentsInput {
	if len(r.Payments) > 0 {
		return &service.PaymentsInput{Payments: r.Payments}
	}
	if r.PaymentMethodID != uuid.Nil || !r.Amount.IsZero() {
		return &service.PaymentsInput{Payments: []service.PaymentLine{r.PaymentLine}}
	}
	return &service.PaymentsInput{}
}

// ListOrdersQuery is the query string of the order list and export.
type ListOrdersQuery struct {
	Page          int    `form:"page"`
	PerPage       int    `form:"per_page"`
	Search        string `form:"search"`
	Status        string `form:"status"`
	PaymentStatus string `form:"payment_status"`
	DateFrom      string `form:"date_from"`
	DateTo        string `form:"date_to"`
	Trashed       string `form:"trashed"`
	CategoryID    string `form:"category_id"`
	BrandID       string `form:"brand_id"`
	ProductID     string `form:"product_id"`
	BranchID      string `form:"branch_id"`
	Export        string `form:"export"`
}

// FilterParams converts the query into repository filters. Malformed values
// are reported as field errors rather than silently dropped.
func (q *ListOrdersQuery) FilterParams() (*repository.PosOrderFilterParams, error) {
	params := &repository.PosOrderFilterParams{
		Pagination: &pagination.PaginationParams{Page: q.Page, PerPage: q.PerPage},
		Search:     strings.TrimSpace(q.Search),
	}
	var errs []apperror.FieldError

	if q.Status != "" {
		status := enum.OrderStatus(q.Status)
		if status.IsValid() {
			params.Status = &status
		} else {
			errs = append(errs, apperror.FieldError{Field: "status", Message: "must be one of [draft completed void]"})
		}
	}
	if q.PaymentStatus != "" {
		status := enum.PaymentStatus(q.PaymentStatus)
		if status.IsValid() {
			params.PaymentStatus = &status
		} else {
			errs = append(errs, apperror.FieldError{Field: "payment_status", Message: "must be one of [unpaid partial paid]"})
		}
	}

	for _, d := range []struct {
		field string
		value string
		dest  **time.Time
	}{
		{"date_from", q.DateFrom, &params.DateFrom},
		{"date_to", q.DateTo, &params.DateTo},
	} {
		if d.value == "" {
			continue
		}
		t, err := time.Parse(dateLayout, d.value)
		if err != nil {
			errs = append(errs, apperror.FieldError{Field: d.field, Message: "must be a date (YYYY-MM-DD)"})
			continue
		}
		*d.dest = &t
	}

	if q.Trashed != "" {
		trashed, err := strconv.ParseBool(q.Trashed)
		if err != nil {
			errs = append(errs, apperror.FieldError{Field: "trashed", Message: "must be a boolean"})
		}
		params.Trashed = trashed
	}

	for _, f := range []struct {
		field string
		value string
		dest  **uuid.UUID
	}{
		{"category_id", q.CategoryID, &params.CategoryID},
		{"brand_id", q.BrandID, &params.BrandID},
		{"product_id", q.ProductID, &params.ProductID},
		{"branch_id", q.BranchID, &params.BranchID},
	} {
		if f.value == "" {
			continue
		}
		id, err := uuid.Parse(f.value)
		if err != nil {
			errs = append(errs, apperror.FieldError{Field: f.field, Message: "must be a valid UUID"})
			continue
		}
		*f.dest = &id
	}

	if q.Export != "" && q.Export != service.ExportExcel && q.Export != service.ExportPDF {
		errs = append(errs, apperror.FieldError{Field: "export", Message: "must be one of [excel pdf]"})
	}

	if len(errs) > 0 {
		return nil, apperror.NewValidationError(errs)
	}
	return params, nil
}
