package enums

// GuardReason is the machine-readable code returned with a guard violation.
type GuardReason string

const (
	GuardReasonApprovedQuotes    GuardReason = "approved_quotes"
	GuardReasonSupplierOrders    GuardReason = "supplier_orders"
	GuardReasonIncomes           GuardReason = "incomes"
	GuardReasonExpenses          GuardReason = "expenses"
	GuardReasonPendingOrders     GuardReason = "pending_orders"
	GuardReasonFinanciallyClosed GuardReason = "financially_closed"
)

var guardReasons = newSet("guard reason",
	GuardReasonApprovedQuotes,
	GuardReasonSupplierOrders,
	GuardReasonIncomes,
	GuardReasonExpenses,
	GuardReasonPendingOrders,
	GuardReasonFinanciallyClosed,
)

func (g GuardReason) String() string { return string(g) }

func (g GuardReason) IsValid() bool { return guardReasons.has(g) }
