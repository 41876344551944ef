package controllers

import (
	"net/http"

	"github.com/angelmondragon/quoteengine-backend/api/responses"
	"github.com/angelmondragon/quoteengine-backend/api/validators"
	"github.com/angelmondragon/quoteengine-backend/internal/pricing"
	pkgerrors "github.com/angelmondragon/quoteengine-backend/pkg/errors"
	"github.com/angelmondragon/quoteengine-backend/pkg/logger"
	"github.com/angelmondragon/quoteengine-backend/pkg/money"
)

type totalsLine struct {
	Subtotal float64 `json:"subtotal"`
}

type totalsRequest struct {
	Lines   []totalsLine `json:"lines" validate:"required,min=1"`
	IVARate *float64     `json:"iva_rate,omitempty"`
	ISRRate *float64     `json:"isr_rate,omitempty"`
}

// PricingTotals computes the tax composition of ad-hoc lines without persisting anything.
func PricingTotals(defaults pricing.Rates, scale int32, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body totalsRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rates, err := pricing.ResolveRates(body.IVARate, body.ISRRate, defaults)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid tax rates").WithDetails(map[string]any{"error": err.Error()}))
			return
		}

		lines := make([]pricing.Line, 0, len(body.Lines))
		for _, line := range body.Lines {
			lines = append(lines, pricing.Line{Subtotal: line.Subtotal})
		}

		totals := pricing.CalculateTotals(lines, rates)
		responses.WriteSuccess(w, map[string]any{
			"subtotal":   money.Round(totals.Subtotal, scale),
			"iva_amount": money.Round(totals.IVAAmount, scale),
			"isr_amount": money.Round(totals.ISRAmount, scale),
			"total":      money.Round(totals.Total, scale),
			"iva_rate":   rates.IVA,
			"isr_rate":   rates.ISR,
		})
	}
}
