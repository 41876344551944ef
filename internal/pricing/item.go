package pricing

// CostBreakdown is the internal cost of one unit of a quote item.
type CostBreakdown struct {
	Article   float64 `json:"article_cost"`
	Workforce float64 `json:"workforce_cost"`
	Packaging float64 `json:"packaging_cost"`
	Transport float64 `json:"transport_cost"`
	Equipment float64 `json:"equipment_cost"`
	Other     float64 `json:"other_cost"`
}

// Sum is the internal unit cost.
func (b CostBreakdown) Sum() float64 {
	return b.Article + b.Workforce + b.Packaging + b.Transport + b.Equipment + b.Other
}

// PricedItem is the client-facing price of an item.
type PricedItem struct {
	InternalUnitCost float64 `json:"internal_unit_cost"`
	UnitCost         float64 `json:"unit_cost"`
	Subtotal         float64 `json:"subtotal"`
}

// PriceItem derives the client unit price as internal cost marked up by margin percent.
// An explicit unitCost wins over the derived one; the owner already validated it.
func PriceItem(breakdown CostBreakdown, marginPercent, quantity float64, unitCost *float64) PricedItem {
	internal := breakdown.Sum()
	price := ApplyMargin(internal, marginPercent)
	if unitCost != nil {
		price = *unitCost
	}
	return PricedItem{
		InternalUnitCost: internal,
		UnitCost:         price,
		Subtotal:         price * quantity,
	}
}

// ApplyMargin marks cost up by a percentage (30 = 30%).
func ApplyMargin(cost, marginPercent float64) float64 {
	return cost * (1 + marginPercent/100)
}
