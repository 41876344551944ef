package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/quoteengine-backend/pkg/enums"
)

// Project is the operational and financial container for quotes, supplier orders and ledger rows.
// Status and FinancialStatus are independent axes; once FinancialStatus is CERRADO, Status is frozen.
type Project struct {
	ID              uuid.UUID             `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	ClientID        uuid.UUID             `gorm:"column:client_id;type:uuid;not null" json:"client_id"`
	UserID          *uuid.UUID            `gorm:"column:user_id;type:uuid" json:"user_id,omitempty"`
	Name            string                `gorm:"column:name;not null" json:"name"`
	Description     *string               `gorm:"column:description" json:"description,omitempty"`
	Status          enums.ProjectStatus   `gorm:"column:status;type:text;not null;default:'draft'" json:"status"`
	FinancialStatus enums.FinancialStatus `gorm:"column:financial_status;type:text;not null;default:'ABIERTO'" json:"financial_status"`
	ClosedAt        *time.Time            `gorm:"column:closed_at" json:"closed_at,omitempty"`
	CancelledAt     *time.Time            `gorm:"column:cancelled_at" json:"cancelled_at,omitempty"`
	CreatedAt       time.Time             `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time             `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

// IsFinanciallyClosed reports whether the money lifecycle reached CERRADO.
func (p Project) IsFinanciallyClosed() bool {
	return p.FinancialStatus == enums.FinancialStatusClosed
}
