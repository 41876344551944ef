package enums

// FinancialStatus is the money lifecycle of a project. It only moves forward.
type FinancialStatus string

const (
	FinancialStatusOpen   FinancialStatus = "ABIERTO"
	FinancialStatusClosed FinancialStatus = "CERRADO"
)

var financialStatuses = newSet("financial status", FinancialStatusOpen, FinancialStatusClosed)

func (f FinancialStatus) String() string { return string(f) }

func (f FinancialStatus) IsValid() bool { return financialStatuses.has(f) }

// CanTransitionTo allows ABIERTO -> CERRADO and nothing else.
func (f FinancialStatus) CanTransitionTo(next FinancialStatus) bool {
	return f == FinancialStatusOpen && next == FinancialStatusClosed
}

func ParseFinancialStatus(value string) (FinancialStatus, error) {
	return financialStatuses.parse(value)
}
