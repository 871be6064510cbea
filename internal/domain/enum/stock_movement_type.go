package enum

import (
	"database/sql/driver"
	"fmt"
)

// StockMovementType labels an entry in the stock ledger.
type StockMovementType string

const (
	StockMovementIn         StockMovementType = "in"
	StockMovementOut        StockMovementType = "out"
	StockMovementAdjustment StockMovementType = "adjustment"
)

func (t StockMovementType) String() string {
	return string(t)
}

func (t StockMovementType) Value() (driver.Value, error) {
	return string(t), nil
}

func (t *StockMovementType) Scan(value interface{}) error {
	switch v := value.(type) {
	case string:
		*t = StockMovementType(v)
	case []byte:
		*t = StockMovementType(v)
	default:
		return fmt.Errorf("enum: cannot scan %T into StockMovementType", value)
	}
	return nil
}
