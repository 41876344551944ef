// Package pricing holds the pure arithmetic of the quoting engine: tax composition of quote
// totals, client prices for cost breakdowns and tiered costs for customization services.
// Nothing here rounds; rounding is a presentation concern.
package pricing

import (
	"fmt"
	"math"
)

const (
	DefaultIVARate = 0.16
	DefaultISRRate = 0.0
)

// Line is anything that contributes a subtotal to a quote.
type Line struct {
	Subtotal float64
}

// Rates are the tax rates applied over a quote subtotal, as fractions (0.16 = 16%).
type Rates struct {
	IVA float64
	ISR float64
}

// DefaultRates returns the statutory defaults.
func DefaultRates() Rates {
	return Rates{IVA: DefaultIVARate, ISR: DefaultISRRate}
}

// ResolveRates overlays caller-provided rates on top of defaults.
func ResolveRates(iva, isr *float64, defaults Rates) (Rates, error) {
	rates := defaults
	if iva != nil {
		rates.IVA = *iva
	}
	if isr != nil {
		rates.ISR = *isr
	}
	if err := rates.Validate(); err != nil {
		return Rates{}, err
	}
	return rates, nil
}

// Validate rejects rates that are not finite fractions in [0, 1].
func (r Rates) Validate() error {
	for name, v := range map[string]float64{"iva_rate": r.IVA, "isr_rate": r.ISR} {
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 || v > 1 {
			return fmt.Errorf("%s must be a fraction between 0 and 1, got %v", name, v)
		}
	}
	return nil
}

// Totals is the tax composition of a quote.
type Totals struct {
	Subtotal  float64 `json:"subtotal"`
	IVAAmount float64 `json:"iva_amount"`
	ISRAmount float64 `json:"isr_amount"`
	Total     float64 `json:"total"`
}

// CalculateTotals sums line subtotals and applies IVA (added) and ISR (withheld).
// total = subtotal + subtotal*iva - subtotal*isr. Negative subtotals (credit notes) pass through.
func CalculateTotals(lines []Line, rates Rates) Totals {
	var subtotal float64
	for _, line := range lines {
		subtotal += line.Subtotal
	}
	iva := subtotal * rates.IVA
	isr := subtotal * rates.ISR
	return Totals{
		Subtotal:  subtotal,
		IVAAmount: iva,
		ISRAmount: isr,
		Total:     subtotal + iva - isr,
	}
}
