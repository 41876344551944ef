package supplierorders

import (
	"github.com/angelmondragon/quoteengine-backend/pkg/db/models"
	"github.com/angelmondragon/quoteengine-backend/pkg/enums"
)

// Balance is what is still owed on a supplier order. It is derived on every read, never stored.
type Balance struct {
	OrderTotal float64 `json:"order_total"`
	Paid       float64 `json:"paid"`
	Balance    float64 `json:"balance"`
	Pending    bool    `json:"pending"`
}

// ResolveBalance sums the order lines and subtracts the expenses recorded against the order.
func ResolveBalance(items []models.SupplierOrderItem, payments []models.VariableExpense) Balance {
	var total, paid float64
	for _, item := range items {
		total += item.Quantity * item.UnitCost
	}
	for _, payment := range payments {
		paid += payment.Amount
	}
	balance := total - paid
	return Balance{
		OrderTotal: total,
		Paid:       paid,
		Balance:    balance,
		Pending:    balance > 0,
	}
}

// PaymentStatusFor maps a balance to the stored payment status.
func PaymentStatusFor(b Balance) enums.PaymentStatus {
	switch {
	case b.Balance <= 0:
		return enums.PaymentStatusPaid
	case b.Paid > 0:
		return enums.PaymentStatusPartial
	default:
		return enums.PaymentStatusPending
	}
}
