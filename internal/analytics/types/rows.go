package types

import (
	"time"

	cbigquery "cloud.google.com/go/bigquery"
)

// ProjectFinanceRow mirrors the project_finance_events BigQuery schema. One row is written
// per project or supplier-order event that moves money or financial state.
type ProjectFinanceRow struct {
	EventID          string             `bigquery:"event_id"`
	EventType        string             `bigquery:"event_type"`
	OccurredAt       time.Time          `bigquery:"occurred_at"`
	ProjectID        string             `bigquery:"project_id"`
	ClientID         *string            `bigquery:"client_id"`
	SupplierOrderID  *string            `bigquery:"supplier_order_id"`
	SupplierID       *string            `bigquery:"supplier_id"`
	ProjectStatus    *string            `bigquery:"project_status"`
	PreviousStatus   *string            `bigquery:"previous_status"`
	FinancialStatus  *string            `bigquery:"financial_status"`
	PaymentStatus    *string            `bigquery:"payment_status"`
	Amount           *float64           `bigquery:"amount"`
	Balance          *float64           `bigquery:"balance"`
	QuotedTotal      *float64           `bigquery:"quoted_total"`
	Incomes          *float64           `bigquery:"incomes"`
	Expenses         *float64           `bigquery:"expenses"`
	LiquidatedOrders *int64             `bigquery:"liquidated_orders"`
	ActorUserID      *string            `bigquery:"actor_user_id"`
	ActorRole        *string            `bigquery:"actor_role"`
	Payload          cbigquery.NullJSON `bigquery:"payload"`
}

// QuoteActivityRow mirrors the quote_activity_events BigQuery schema.
type QuoteActivityRow struct {
	EventID        string             `bigquery:"event_id"`
	EventType      string             `bigquery:"event_type"`
	OccurredAt     time.Time          `bigquery:"occurred_at"`
	QuoteID        string             `bigquery:"quote_id"`
	ProjectID      *string            `bigquery:"project_id"`
	ClientID       *string            `bigquery:"client_id"`
	Version        *int64             `bigquery:"version"`
	Status         *string            `bigquery:"status"`
	PreviousStatus *string            `bigquery:"previous_status"`
	IsApproved     *bool              `bigquery:"is_approved"`
	ItemCount      *int64             `bigquery:"item_count"`
	Subtotal       *float64           `bigquery:"subtotal"`
	IVAAmount      *float64           `bigquery:"iva_amount"`
	ISRAmount      *float64           `bigquery:"isr_amount"`
	Total          *float64           `bigquery:"total"`
	ActorUserID    *string            `bigquery:"actor_user_id"`
	Payload        cbigquery.NullJSON `bigquery:"payload"`
}
