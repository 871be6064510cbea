package enum

// OrderAction is what the cashier asked for when submitting a cart.
type OrderAction string

const (
	OrderActionDraft         OrderAction = "draft"
	OrderActionComplete      OrderAction = "complete"
	OrderActionCompletePrint OrderAction = "complete_print"
)

func (a OrderAction) IsValid() bool {
	switch a {
	case OrderActionDraft, OrderActionComplete, OrderActionCompletePrint:
		return true
	}
	return false
}

// Completes reports whether the action finalizes the sale.
func (a OrderAction) Completes() bool {
	return a == OrderActionComplete || a == OrderActionCompletePrint
}

// BulkAction is a batch operation over several orders.
type BulkAction string

const (
	BulkActionTrash       BulkAction = "trash"
	BulkActionRestore     BulkAction = "restore"
	BulkActionForceDelete BulkAction = "force_delete"
)

func (a BulkAction) IsValid() bool {
	switch a {
	case BulkActionTrash, BulkActionRestore, BulkActionForceDelete:
		return true
	}
	return false
}
