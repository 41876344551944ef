package models

import (
	"time"

	"github.com/google/uuid"
)

// Income is money received for a project.
type Income struct {
	ID          uuid.UUID  `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	ProjectID   uuid.UUID  `gorm:"column:project_id;type:uuid;not null" json:"project_id"`
	QuoteID     *uuid.UUID `gorm:"column:quote_id;type:uuid" json:"quote_id,omitempty"`
	Amount      float64    `gorm:"column:amount;type:numeric(18,2);not null" json:"amount"`
	Description string     `gorm:"column:description;not null" json:"description"`
	ReceivedAt  time.Time  `gorm:"column:received_at;not null" json:"received_at"`
	CreatedAt   time.Time  `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

// VariableExpense is money spent on a project. When SupplierOrderID is set it counts as a
// payment against that order.
type VariableExpense struct {
	ID              uuid.UUID  `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	ProjectID       uuid.UUID  `gorm:"column:project_id;type:uuid;not null" json:"project_id"`
	SupplierOrderID *uuid.UUID `gorm:"column:supplier_order_id;type:uuid" json:"supplier_order_id,omitempty"`
	SupplierID      *uuid.UUID `gorm:"column:supplier_id;type:uuid" json:"supplier_id,omitempty"`
	Amount          float64    `gorm:"column:amount;type:numeric(18,2);not null" json:"amount"`
	Description     string     `gorm:"column:description;not null" json:"description"`
	SpentAt         time.Time  `gorm:"column:spent_at;not null" json:"spent_at"`
	CreatedAt       time.Time  `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

// FixedExpense is an overhead cost booked per period, not tied to a project.
type FixedExpense struct {
	ID          uuid.UUID `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	Amount      float64   `gorm:"column:amount;type:numeric(18,2);not null" json:"amount"`
	Description string    `gorm:"column:description;not null" json:"description"`
	Period      string    `gorm:"column:period;not null" json:"period"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}
