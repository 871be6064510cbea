package enum

import (
	"database/sql/driver"
	"fmt"
)

// OrderStatus is the lifecycle state of a POS order.
type OrderStatus string

const (
	OrderStatusDraft     OrderStatus = "draft"
	OrderStatusCompleted OrderStatus = "completed"
	OrderStatusVoid      OrderStatus = "void"
)

func (s OrderStatus) String() string {
	return string(s)
}

// IsValid reports whether s is one of the known statuses.
func (s OrderStatus) IsValid() bool {
	switch s {
	case OrderStatusDraft, OrderStatusCompleted, OrderStatusVoid:
		return true
	}
	return false
}

// CanTransitionTo encodes the order state machine. Void is terminal.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	switch s {
	case OrderStatusDraft:
		return next == OrderStatusCompleted || next == OrderStatusVoid
	case OrderStatusCompleted:
		return next == OrderStatusVoid
	}
	return false
}

func (s OrderStatus) Value() (driver.Value, error) {
	return string(s), nil
}

func (s *OrderStatus) Scan(value interface{}) error {
	switch v := value.(type) {
	case nil:
		*s = OrderStatusDraft
	case string:
		*s = OrderStatus(v)
	case []byte:
		*s = OrderStatus(v)
	default:
		return fmt.Errorf("enum: cannot scan %T into OrderStatus", value)
	}
	return nil
}
