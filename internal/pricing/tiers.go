package pricing

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	pkgerrors "github.com/angelmondragon/quoteengine-backend/pkg/errors"
)

// SetupFeeMaxQty is the largest quantity that still pays the service setup fee.
const SetupFeeMaxQty = 50

var ErrNoApplicableTier = errors.New("no applicable cost tier")

// Range is an inclusive [MinQty, MaxQty] bracket with a fixed labor cost.
type Range struct {
	ID        uuid.UUID
	MinQty    int
	MaxQty    int
	LaborCost float64
}

// Service is a customization process priced by quantity tier and machine time.
type Service struct {
	ID                uuid.UUID
	Code              string
	MachineCostPerMin float64
	WearCost          float64
	SetupFee          float64
	DefaultMargin     float64
	Ranges            []Range
}

// Breakdown keeps every intermediate term of a resolution.
type Breakdown struct {
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

// Resolution is the priced outcome for a quantity of a service.
type Resolution struct {
	UnitCost  float64   `json:"unit_cost"`
	UnitPrice float64   `json:"unit_price"`
	Total     float64   `json:"total"`
	Breakdown Breakdown `json:"breakdown"`
}

// SelectRange finds the tier for qty. An exact inclusive match wins; otherwise the range with
// the largest MinQty not above qty is used (gaps, or quantities past the top tier), and
// fallback is true. A quantity below every MinQty has no tier.
func SelectRange(ranges []Range, qty int) (Range, bool, error) {
	sorted := sortedRanges(ranges)
	for _, r := range sorted {
		if r.MinQty <= qty && qty <= r.MaxQty {
			return r, false, nil
		}
	}

	var (
		selected Range
		found    bool
	)
	for _, r := range sorted {
		if r.MinQty <= qty && (!found || r.MinQty > selected.MinQty) {
			selected = r
			found = true
		}
	}
	if !found {
		return Range{}, false, ErrNoApplicableTier
	}
	return selected, true, nil
}

// ResolveTier prices quantity units of service taking minutes of machine time each.
// margin overrides the service default when set.
func ResolveTier(service Service, quantity int, minutes float64, margin *float64) (Resolution, error) {
	if quantity < 1 {
		return Resolution{}, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be a positive integer")
	}
	if minutes < 0 || math.IsNaN(minutes) || math.IsInf(minutes, 0) {
		return Resolution{}, pkgerrors.New(pkgerrors.CodeValidation, "time in minutes must be zero or greater")
	}

	tier, fallback, err := SelectRange(service.Ranges, quantity)
	if err != nil {
		return Resolution{}, pkgerrors.Wrap(pkgerrors.CodeNoTier, err,
			fmt.Sprintf("service %s has no cost tier for quantity %d", service.Code, quantity)).
			WithDetails(map[string]any{"service_id": service.ID.String(), "quantity": quantity})
	}

	marginPct := service.DefaultMargin
	if margin != nil {
		marginPct = *margin
	}

	machineCost := service.MachineCostPerMin * minutes
	unitCost := machineCost + tier.LaborCost + service.WearCost
	unitPrice := ApplyMargin(unitCost, marginPct)

	setupFee := 0.0
	if quantity <= SetupFeeMaxQty {
		setupFee = service.SetupFee
	}

	return Resolution{
		UnitCost:  unitCost,
		UnitPrice: unitPrice,
		Total:     unitPrice*float64(quantity) + setupFee,
		Breakdown: Breakdown{
			MachineCost: machineCost,
			LaborCost:   tier.LaborCost,
			WearCost:    service.WearCost,
			SetupFee:    setupFee,
			Margin:      marginPct,
			Minutes:     minutes,
			RangeID:     tier.ID,
			MinQty:      tier.MinQty,
			MaxQty:      tier.MaxQty,
			Fallback:    fallback,
		},
	}, nil
}

// ValidateRanges reports every structural problem in a range table: inverted bounds,
// overlaps, and labor costs that grow with volume.
func ValidateRanges(ranges []Range) error {
	var errs error
	sorted := sortedRanges(ranges)
	for i, r := range sorted {
		if r.MinQty < 1 {
			errs = multierr.Append(errs, fmt.Errorf("range %d: min_qty must be at least 1", i))
		}
		if r.MaxQty < r.MinQty {
			errs = multierr.Append(errs, fmt.Errorf("range %d: max_qty %d is below min_qty %d", i, r.MaxQty, r.MinQty))
		}
		if r.LaborCost < 0 {
			errs = multierr.Append(errs, fmt.Errorf("range %d: labor_cost must not be negative", i))
		}
		if i == 0 {
			continue
		}
		prev := sorted[i-1]
		if r.MinQty <= prev.MaxQty {
			errs = multierr.Append(errs, fmt.Errorf("range [%d,%d] overlaps [%d,%d]", r.MinQty, r.MaxQty, prev.MinQty, prev.MaxQty))
		}
		if r.LaborCost > prev.LaborCost {
			errs = multierr.Append(errs, fmt.Errorf("labor_cost rises from %v to %v at min_qty %d", prev.LaborCost, r.LaborCost, r.MinQty))
		}
	}
	return errs
}

func sortedRanges(ranges []Range) []Range {
	out := make([]Range, len(ranges))
	copy(out, ranges)
	sort.SliceStable(out, func(i, j int) bool { return out[i].MinQty < out[j].MinQty })
	return out
}
