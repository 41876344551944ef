package models

import (
	"time"

	"github.com/google/uuid"
)

// QuoteItem is one priced line of a quote. Product fields are a snapshot, not a relation:
// the catalog product may change or disappear without affecting historical quotes.
type QuoteItem struct {
	ID                     uuid.UUID               `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	QuoteID                uuid.UUID               `gorm:"column:quote_id;type:uuid;not null" json:"quote_id"`
	Position               int                     `gorm:"column:position;not null" json:"position"`
	Description            string                  `gorm:"column:description;not null" json:"description"`
	Quantity               float64                 `gorm:"column:quantity;type:numeric(18,6);not null" json:"quantity"`
	ArticleCost            float64                 `gorm:"column:article_cost;type:numeric(18,6);not null;default:0" json:"article_cost"`
	WorkforceCost          float64                 `gorm:"column:workforce_cost;type:numeric(18,6);not null;default:0" json:"workforce_cost"`
	PackagingCost          float64                 `gorm:"column:packaging_cost;type:numeric(18,6);not null;default:0" json:"packaging_cost"`
	TransportCost          float64                 `gorm:"column:transport_cost;type:numeric(18,6);not null;default:0" json:"transport_cost"`
	EquipmentCost          float64                 `gorm:"column:equipment_cost;type:numeric(18,6);not null;default:0" json:"equipment_cost"`
	OtherCost              float64                 `gorm:"column:other_cost;type:numeric(18,6);not null;default:0" json:"other_cost"`
	InternalUnitCost       float64                 `gorm:"column:internal_unit_cost;type:numeric(18,6);not null;default:0" json:"internal_unit_cost"`
	ProfitMargin           float64                 `gorm:"column:profit_margin;type:numeric(9,4);not null;default:0" json:"profit_margin"`
	UnitCost               float64                 `gorm:"column:unit_cost;type:numeric(18,6);not null" json:"unit_cost"`
	Subtotal               float64                 `gorm:"column:subtotal;type:numeric(18,6);not null" json:"subtotal"`
	ProductID              *uuid.UUID              `gorm:"column:product_id;type:uuid" json:"product_id,omitempty"`
	ProductCode            *string                 `gorm:"column:product_code" json:"product_code,omitempty"`
	ProductName            *string                 `gorm:"column:product_name" json:"product_name,omitempty"`
	CustomizationServiceID *uuid.UUID              `gorm:"column:customization_service_id;type:uuid" json:"customization_service_id,omitempty"`
	CustomizationBreakdown *CustomizationBreakdown `gorm:"column:customization_breakdown;type:jsonb;serializer:json" json:"customization_breakdown,omitempty"`
	CreatedAt              time.Time               `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

// CustomizationBreakdown keeps every intermediate term of a tier resolution for audit.
type CustomizationBreakdown struct {
	MachineCost float64   `json:"machine_cost"`
	LaborCost   float64   `json:"labor_cost"`
	WearCost    float64   `json:"wear_cost"`
	SetupFee    float64   `json:"setup_fee"`
	Margin      float64   `json:"margin"`
	Minutes     float64   `json:"minutes"`
	RangeID     uuid.UUID `json:"range_id"`
	MinQty      int       `json:"min_qty"`
	MaxQty      int       `json:"max_qty"`
	Fallback    bool      `json:"fallback"`
}
