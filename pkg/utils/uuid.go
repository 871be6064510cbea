package utils

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// ParseUUIDPtr parses s, returning nil for an empty string.
func ParseUUIDPtr(s string) (*uuid.UUID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

// ShortRef is the first eight hex digits of id in upper case.
func ShortRef(id uuid.UUID) string {
	return strings.ToUpper(strings.ReplaceAll(id.String(), "-", "")[:8])
}

// GenerateInvoiceNo builds POS-<yyyymmddhhmmss>-<ref>-<rand>. ref ties the
// number to the cashier or order it was issued for; the random tail keeps
// two sales in the same second apart.
func GenerateInvoiceNo(at time.Time, ref uuid.UUID) string {
	return "POS-" + at.Format("20060102150405") + "-" + ShortRef(ref) + "-" + ShortRef(uuid.New())[:4]
}

// GenerateAdjustReference builds the ledger reference of a quick stock adjustment.
func GenerateAdjustReference(at time.Time) string {
	return "POS-ADJUST-" + at.Format("20060102150405")
}
