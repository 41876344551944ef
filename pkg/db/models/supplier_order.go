package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/quoteengine-backend/pkg/enums"
)

// SupplierOrder is a purchase commitment to a supplier within a project.
type SupplierOrder struct {
	ID            uuid.UUID           `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	ProjectID     uuid.UUID           `gorm:"column:project_id;type:uuid;not null" json:"project_id"`
	SupplierID    uuid.UUID           `gorm:"column:supplier_id;type:uuid;not null" json:"supplier_id"`
	PaymentStatus enums.PaymentStatus `gorm:"column:payment_status;type:text;not null;default:'PENDING'" json:"payment_status"`
	Notes         *string             `gorm:"column:notes" json:"notes,omitempty"`
	Items         []SupplierOrderItem `gorm:"foreignKey:SupplierOrderID" json:"items,omitempty"`
	CreatedAt     time.Time           `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time           `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

// SupplierOrderItem is one purchased line.
type SupplierOrderItem struct {
	ID              uuid.UUID `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	SupplierOrderID uuid.UUID `gorm:"column:supplier_order_id;type:uuid;not null" json:"supplier_order_id"`
	Code            string    `gorm:"column:code;not null" json:"code"`
	Name            string    `gorm:"column:name;not null" json:"name"`
	Quantity        float64   `gorm:"column:quantity;type:numeric(18,6);not null" json:"quantity"`
	UnitCost        float64   `gorm:"column:unit_cost;type:numeric(18,6);not null" json:"unit_cost"`
	CreatedAt       time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}
