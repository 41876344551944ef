package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/quoteengine-backend/pkg/enums"
)

// Quote is a priced proposal. Totals are always recomputed from Items; the item set is
// replaced wholesale, never patched.
type Quote struct {
	ID         uuid.UUID         `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	ClientID   uuid.UUID         `gorm:"column:client_id;type:uuid;not null" json:"client_id"`
	ProjectID  *uuid.UUID        `gorm:"column:project_id;type:uuid" json:"project_id,omitempty"`
	Version    int               `gorm:"column:version;not null;default:1" json:"version"`
	Status     enums.QuoteStatus `gorm:"column:status;type:text;not null;default:'draft'" json:"status"`
	IsApproved bool              `gorm:"column:is_approved;not null;default:false" json:"is_approved"`
	Subtotal   float64           `gorm:"column:subtotal;type:numeric(18,6);not null" json:"subtotal"`
	IVARate    float64           `gorm:"column:iva_rate;type:numeric(9,6);not null" json:"iva_rate"`
	IVAAmount  float64           `gorm:"column:iva_amount;type:numeric(18,6);not null" json:"iva_amount"`
	ISRRate    float64           `gorm:"column:isr_rate;type:numeric(9,6);not null" json:"isr_rate"`
	ISRAmount  float64           `gorm:"column:isr_amount;type:numeric(18,6);not null" json:"isr_amount"`
	Total      float64           `gorm:"column:total;type:numeric(18,6);not null" json:"total"`
	Notes      *string           `gorm:"column:notes" json:"notes,omitempty"`
	Items      []QuoteItem       `gorm:"foreignKey:QuoteID" json:"items,omitempty"`
	CreatedAt  time.Time         `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time         `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

// SetStatus writes status and keeps the derived approval flag in sync.
func (q *Quote) SetStatus(status enums.QuoteStatus) {
	q.Status = status
	q.IsApproved = status.IsApproved()
}
