package enum

import (
	"database/sql/driver"
	"fmt"
)

// DiscountType selects how an order-level discount value is interpreted.
type DiscountType string

const (
	DiscountTypeNone    DiscountType = "none"
	DiscountTypePercent DiscountType = "percent"
	DiscountTypeFixed   DiscountType = "fixed"
)

func (t DiscountType) String() string {
	return string(t)
}

func (t DiscountType) IsValid() bool {
	switch t {
	case DiscountTypeNone, DiscountTypePercent, DiscountTypeFixed:
		return true
	}
	return false
}

func (t DiscountType) Value() (driver.Value, error) {
	return string(t), nil
}

func (t *DiscountType) Scan(value interface{}) error {
	switch v := value.(type) {
	case nil:
		*t = DiscountTypeNone
	case string:
		*t = DiscountType(v)
	case []byte:
		*t = DiscountType(v)
	default:
		return fmt.Errorf("enum: cannot scan %T into DiscountType", value)
	}
	return nil
}
