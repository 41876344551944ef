package quotes

import (
	"github.com/google/uuid"

	"github.com/angelmondragon/quoteengine-backend/internal/clients"
	"github.com/angelmondragon/quoteengine-backend/internal/pricing"
	"github.com/angelmondragon/quoteengine-backend/pkg/enums"
)

// CustomizationInput prices an item through a tiered customization service.
type CustomizationInput struct {
	ServiceID     uuid.UUID `json:"service_id" validate:"required"`
	TimeInMinutes float64   `json:"time_in_minutes" validate:"min=0"`
	Margin        *float64  `json:"margin,omitempty" validate:"omitempty,min=0"`
}

// ItemInput is one line of a quote as sent by the caller. When UnitCost is omitted it is
// derived from the cost breakdown and ProfitMargin; when Customization is set the line is
// priced by tier resolution instead.
type ItemInput struct {
	Description   string                `json:"description" validate:"required,max=500"`
	Quantity      float64               `json:"quantity" validate:"gt=0"`
	Costs         pricing.CostBreakdown `json:"costs"`
	ProfitMargin  float64               `json:"profit_margin" validate:"min=0"`
	UnitCost      *float64              `json:"unit_cost,omitempty"`
	ProductID     *uuid.UUID            `json:"product_id,omitempty"`
	Customization *CustomizationInput   `json:"customization,omitempty" validate:"omitempty"`
}

// RatesInput overrides the default tax rates; nil fields keep the defaults.
type RatesInput struct {
	IVARate *float64 `json:"iva_rate,omitempty" validate:"omitempty,min=0,max=1"`
	ISRRate *float64 `json:"isr_rate,omitempty" validate:"omitempty,min=0,max=1"`
}

// CreateInput describes a new quote.
type CreateInput struct {
	Client    clients.Ref `json:"client"`
	ProjectID *uuid.UUID  `json:"project_id,omitempty"`
	Items     []ItemInput `json:"items" validate:"required,min=1,dive"`
	Rates     RatesInput  `json:"rates"`
	Notes     *string     `json:"notes,omitempty"`
}

// ReplaceItemsInput swaps a quote's whole item set.
type ReplaceItemsInput struct {
	Items []ItemInput `json:"items" validate:"required,min=1,dive"`
	Rates RatesInput  `json:"rates"`
}

// StatusInput is the body of a quote status write.
type StatusInput struct {
	Status enums.QuoteStatus `json:"status" validate:"required"`
}
