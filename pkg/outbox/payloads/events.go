package payloads

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/quoteengine-backend/pkg/enums"
)

// QuoteCreatedEvent is emitted once a quote and its items are stored.
type QuoteCreatedEvent struct {
	QuoteID   uuid.UUID         `json:"quote_id"`
	ClientID  uuid.UUID         `json:"client_id"`
	ProjectID *uuid.UUID        `json:"project_id,omitempty"`
	Version   int               `json:"version"`
	Status    enums.QuoteStatus `json:"status"`
	ItemCount int               `json:"item_count"`
	Subtotal  float64           `json:"subtotal"`
	IVAAmount float64           `json:"iva_amount"`
	ISRAmount float64           `json:"isr_amount"`
	Total     float64           `json:"total"`
}

// QuoteItemsReplacedEvent reports the new totals after a wholesale item replacement.
type QuoteItemsReplacedEvent struct {
	QuoteID   uuid.UUID  `json:"quote_id"`
	ProjectID *uuid.UUID `json:"project_id,omitempty"`
	ItemCount int        `json:"item_count"`
	Subtotal  float64    `json:"subtotal"`
	Total     float64    `json:"total"`
}

// QuoteStatusChangedEvent reports a status write, including approvals.
type QuoteStatusChangedEvent struct {
	QuoteID        uuid.UUID         `json:"quote_id"`
	ProjectID      *uuid.UUID        `json:"project_id,omitempty"`
	PreviousStatus enums.QuoteStatus `json:"previous_status"`
	Status         enums.QuoteStatus `json:"status"`
	IsApproved     bool              `json:"is_approved"`
	Total          float64           `json:"total"`
}

// QuoteDeletedEvent is emitted when a draft quote is removed explicitly.
type QuoteDeletedEvent struct {
	QuoteID   uuid.UUID  `json:"quote_id"`
	ProjectID *uuid.UUID `json:"project_id,omitempty"`
}

// ProjectCreatedEvent is emitted for every new project.
type ProjectCreatedEvent struct {
	ProjectID uuid.UUID           `json:"project_id"`
	ClientID  uuid.UUID           `json:"client_id"`
	Name      string              `json:"name"`
	Status    enums.ProjectStatus `json:"status"`
}

// ProjectStatusChangedEvent reports an operational status transition.
type ProjectStatusChangedEvent struct {
	ProjectID      uuid.UUID           `json:"project_id"`
	PreviousStatus enums.ProjectStatus `json:"previous_status"`
	Status         enums.ProjectStatus `json:"status"`
}

// ProjectClosedEvent reports the financial close and the orders it liquidated.
type ProjectClosedEvent struct {
	ProjectID        uuid.UUID           `json:"project_id"`
	PreviousStatus   enums.ProjectStatus `json:"previous_status"`
	ClosedAt         time.Time           `json:"closed_at"`
	LiquidatedOrders int64               `json:"liquidated_orders"`
	QuotedTotal      float64             `json:"quoted_total"`
	Incomes          float64             `json:"incomes"`
	Expenses         float64             `json:"expenses"`
}

// ProjectDeletedEvent is emitted after a guarded deletion.
type ProjectDeletedEvent struct {
	ProjectID     uuid.UUID `json:"project_id"`
	DeletedQuotes int64     `json:"deleted_quotes"`
}

// ProjectForceDeletedEvent records a privileged cascade and what it removed.
type ProjectForceDeletedEvent struct {
	ProjectID uuid.UUID        `json:"project_id"`
	Deleted   map[string]int64 `json:"deleted"`
}

// SupplierOrderCreatedEvent is emitted for each new supplier order.
type SupplierOrderCreatedEvent struct {
	OrderID    uuid.UUID `json:"order_id"`
	ProjectID  uuid.UUID `json:"project_id"`
	SupplierID uuid.UUID `json:"supplier_id"`
	OrderTotal float64   `json:"order_total"`
}

// SupplierOrderPaymentRecordedEvent reports a payment and the resulting balance.
type SupplierOrderPaymentRecordedEvent struct {
	OrderID       uuid.UUID           `json:"order_id"`
	ProjectID     uuid.UUID           `json:"project_id"`
	ExpenseID     uuid.UUID           `json:"expense_id"`
	Amount        float64             `json:"amount"`
	Paid          float64             `json:"paid"`
	Balance       float64             `json:"balance"`
	PaymentStatus enums.PaymentStatus `json:"payment_status"`
}
