package projects

import (
	"github.com/google/uuid"

	"github.com/angelmondragon/quoteengine-backend/internal/clients"
	"github.com/angelmondragon/quoteengine-backend/pkg/enums"
)

// CreateInput opens a new project for a client.
type CreateInput struct {
	Client      clients.Ref `json:"client"`
	UserID      *uuid.UUID  `json:"user_id,omitempty"`
	Name        string      `json:"name" validate:"required"`
	Description *string     `json:"description,omitempty"`
}

// ListFilters narrows a project listing. Nil fields do not filter.
type ListFilters struct {
	ClientID        *uuid.UUID
	Status          *enums.ProjectStatus
	FinancialStatus *enums.FinancialStatus
}

// Eligibility reports the close guard. Reason is financially_closed or
// pending_orders; a project whose status cannot move to closed (draft or
// cancelled) is ineligible with no reason.
type Eligibility struct {
	Eligible      bool              `json:"eligible"`
	PendingOrders int64             `json:"pending_orders"`
	Reason        enums.GuardReason `json:"reason,omitempty"`
}

// DeletionCheck previews the outcome of a guarded delete.
type DeletionCheck struct {
	Deletable bool              `json:"deletable"`
	Reason    enums.GuardReason `json:"reason,omitempty"`
}

// DeletionCounts is the number of rows removed per table by a force delete.
type DeletionCounts struct {
	VariableExpenses   int64 `json:"variable_expenses"`
	Incomes            int64 `json:"incomes"`
	SupplierOrderItems int64 `json:"supplier_order_items"`
	SupplierOrders     int64 `json:"supplier_orders"`
	QuoteItems         int64 `json:"quote_items"`
	Quotes             int64 `json:"quotes"`
	Projects           int64 `json:"projects"`
}

// AsMap keys the counts by table for logs and events.
func (c DeletionCounts) AsMap() map[string]int64 {
	return map[string]int64{
		"variable_expenses":    c.VariableExpenses,
		"incomes":              c.Incomes,
		"supplier_order_items": c.SupplierOrderItems,
		"supplier_orders":      c.SupplierOrders,
		"quote_items":          c.QuoteItems,
		"quotes":               c.Quotes,
		"projects":             c.Projects,
	}
}

// Totals are the money sums a project summary is built from.
type Totals struct {
	QuotedTotal      float64
	Incomes          float64
	VariableExpenses float64
}

// Summary is the financial picture of a project.
type Summary struct {
	ProjectID           uuid.UUID             `json:"project_id"`
	Status              enums.ProjectStatus   `json:"status"`
	FinancialStatus     enums.FinancialStatus `json:"financial_status"`
	QuotedTotal         float64               `json:"quoted_total"`
	Incomes             float64               `json:"incomes"`
	VariableExpenses    float64               `json:"variable_expenses"`
	SupplierOrdersTotal float64               `json:"supplier_orders_total"`
	SupplierOrdersPaid  float64               `json:"supplier_orders_paid"`
	Outstanding         float64               `json:"outstanding"`
	PendingOrders       int                   `json:"pending_orders"`
	Profit              float64               `json:"profit"`
}
