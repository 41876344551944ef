package customizations

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/quoteengine-backend/internal/pricing"
	pkgdb "github.com/angelmondragon/quoteengine-backend/pkg/db"
	"github.com/angelmondragon/quoteengine-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/quoteengine-backend/pkg/errors"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type tierRecorder interface {
	TierResolved(fallback bool)
}

// Service manages customization services and prices quantities against their tiers.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*models.CustomizationService, error)
	Get(ctx context.Context, id uuid.UUID) (*models.CustomizationService, error)
	List(ctx context.Context) ([]models.CustomizationService, error)
	Quote(ctx context.Context, id uuid.UUID, input QuoteInput) (*pricing.Resolution, error)
}

// RangeInput is one quantity bracket of a new service.
type RangeInput struct {
	MinQty    int     `json:"min_qty" validate:"required,min=1"`
	MaxQty    int     `json:"max_qty" validate:"required,min=1"`
	LaborCost float64 `json:"labor_cost" validate:"min=0"`
}

// CreateInput describes a customization service and its tier table.
type CreateInput struct {
	Code              string       `json:"code" validate:"required,max=32"`
	Name              string       `json:"name" validate:"required,max=120"`
	MachineCostPerMin float64      `json:"machine_cost_per_min" validate:"min=0"`
	WearCost          float64      `json:"wear_cost" validate:"min=0"`
	SetupFee          float64      `json:"setup_fee" validate:"min=0"`
	DefaultMargin     float64      `json:"default_margin" validate:"min=0"`
	Ranges            []RangeInput `json:"ranges" validate:"required,min=1,dive"`
}

// QuoteInput prices a quantity for a given machine time per unit.
type QuoteInput struct {
	Quantity      int      `json:"quantity" validate:"required,min=1"`
	TimeInMinutes float64  `json:"time_in_minutes" validate:"min=0"`
	Margin        *float64 `json:"margin,omitempty" validate:"omitempty,min=0"`
}

type service struct {
	repo    Repository
	tx      txRunner
	metrics tierRecorder
}

// NewService wires the customization service.
func NewService(repo Repository, tx txRunner, metrics tierRecorder) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("customization repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, tx: tx, metrics: metrics}, nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*models.CustomizationService, error) {
	code := strings.ToUpper(strings.TrimSpace(input.Code))
	if code == "" || strings.TrimSpace(input.Name) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "code and name are required")
	}

	ranges := make([]pricing.Range, 0, len(input.Ranges))
	for _, r := range input.Ranges {
		ranges = append(ranges, pricing.Range{MinQty: r.MinQty, MaxQty: r.MaxQty, LaborCost: r.LaborCost})
	}
	if len(ranges) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one range is required")
	}
	if err := pricing.ValidateRanges(ranges); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid range table").
			WithDetails(map[string]any{"ranges": err.Error()})
	}
	sort.SliceStable(ranges, func(i, j int) bool { return ranges[i].MinQty < ranges[j].MinQty })

	record := &models.CustomizationService{
		Code:              code,
		Name:              strings.TrimSpace(input.Name),
		MachineCostPerMin: input.MachineCostPerMin,
		WearCost:          input.WearCost,
		SetupFee:          input.SetupFee,
		DefaultMargin:     input.DefaultMargin,
	}
	for _, r := range ranges {
		record.Ranges = append(record.Ranges, models.CustomizationRange{
			MinQty:    r.MinQty,
			MaxQty:    r.MaxQty,
			LaborCost: r.LaborCost,
		})
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		return s.repo.WithTx(tx).Create(ctx, record)
	})
	if err != nil {
		if pkgdb.IsUniqueViolation(err, "") {
			return nil, pkgerrors.Newf(pkgerrors.CodeConflict, "customization service %s already exists", code)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create customization service")
	}
	return record, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.CustomizationService, error) {
	record, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load customization service")
	}
	if record == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "customization service not found")
	}
	return record, nil
}

func (s *service) List(ctx context.Context) ([]models.CustomizationService, error) {
	records, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list customization services")
	}
	return records, nil
}

func (s *service) Quote(ctx context.Context, id uuid.UUID, input QuoteInput) (*pricing.Resolution, error) {
	record, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	res, err := pricing.ResolveTier(ToPricing(*record), input.Quantity, input.TimeInMinutes, input.Margin)
	if err != nil {
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.TierResolved(res.Breakdown.Fallback)
	}
	return &res, nil
}

// ToPricing converts a stored service into the pure pricing shape.
func ToPricing(record models.CustomizationService) pricing.Service {
	ranges := make([]pricing.Range, 0, len(record.Ranges))
	for _, r := range record.Ranges {
		ranges = append(ranges, pricing.Range{
			ID:        r.ID,
			MinQty:    r.MinQty,
			MaxQty:    r.MaxQty,
			LaborCost: r.LaborCost,
		})
	}
	return pricing.Service{
		ID:                record.ID,
		Code:              record.Code,
		MachineCostPerMin: record.MachineCostPerMin,
		WearCost:          record.WearCost,
		SetupFee:          record.SetupFee,
		DefaultMargin:     record.DefaultMargin,
		Ranges:            ranges,
	}
}

// BreakdownModel converts a resolution breakdown into its persisted snapshot.
func BreakdownModel(b pricing.Breakdown) *models.CustomizationBreakdown {
	return &models.CustomizationBreakdown{
		MachineCost: b.MachineCost,
		LaborCost:   b.LaborCost,
		WearCost:    b.WearCost,
		SetupFee:    b.SetupFee,
		Margin:      b.Margin,
		Minutes:     b.Minutes,
		RangeID:     b.RangeID,
		MinQty:      b.MinQty,
		MaxQty:      b.MaxQty,
		Fallback:    b.Fallback,
	}
}
