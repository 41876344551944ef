// Package money rounds amounts for storage and presentation. Engine arithmetic stays in float64.
package money

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

// DefaultScale is the number of decimal places persisted for currency amounts.
const DefaultScale int32 = 2

// Round rounds half away from zero to scale decimal places.
func Round(amount float64, scale int32) float64 {
	v, _ := decimal.NewFromFloat(amount).Round(scale).Float64()
	return v
}

// Format renders amount with exactly scale decimal places.
func Format(amount float64, scale int32) string {
	return decimal.NewFromFloat(amount).StringFixed(scale)
}

// NormalizePositive validates a ledger amount and rounds it to scale.
func NormalizePositive(amount float64, scale int32) (float64, error) {
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return 0, fmt.Errorf("amount must be a finite number")
	}
	rounded := Round(amount, scale)
	if rounded <= 0 {
		return 0, fmt.Errorf("amount must be greater than zero")
	}
	return rounded, nil
}

// Sum adds amounts exactly and returns the float rounded to scale.
func Sum(scale int32, amounts ...float64) float64 {
	total := decimal.Zero
	for _, a := range amounts {
		total = total.Add(decimal.NewFromFloat(a))
	}
	v, _ := total.Round(scale).Float64()
	return v
}
