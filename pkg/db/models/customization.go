package models

import (
	"time"

	"github.com/google/uuid"
)

// CustomizationService is a priced process (laser, embroidery...) with quantity tiers.
type CustomizationService struct {
	ID                uuid.UUID            `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	Code              string               `gorm:"column:code;not null;uniqueIndex" json:"code"`
	Name              string               `gorm:"column:name;not null" json:"name"`
	MachineCostPerMin float64              `gorm:"column:machine_cost_per_min;type:numeric(18,6);not null;default:0" json:"machine_cost_per_min"`
	WearCost          float64              `gorm:"column:wear_cost;type:numeric(18,6);not null;default:0" json:"wear_cost"`
	SetupFee          float64              `gorm:"column:setup_fee;type:numeric(18,6);not null;default:0" json:"setup_fee"`
	DefaultMargin     float64              `gorm:"column:default_margin;type:numeric(9,4);not null;default:0" json:"default_margin"`
	Ranges            []CustomizationRange `gorm:"foreignKey:ServiceID" json:"ranges,omitempty"`
	CreatedAt         time.Time            `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time            `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

// CustomizationRange maps an inclusive quantity bracket to a labor cost.
type CustomizationRange struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	ServiceID uuid.UUID `gorm:"column:service_id;type:uuid;not null" json:"service_id"`
	MinQty    int       `gorm:"column:min_qty;not null" json:"min_qty"`
	MaxQty    int       `gorm:"column:max_qty;not null" json:"max_qty"`
	LaborCost float64   `gorm:"column:labor_cost;type:numeric(18,6);not null" json:"labor_cost"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}
