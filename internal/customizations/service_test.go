package customizations

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/quoteengine-backend/pkg/db/dbtest"
	pkgerrors "github.com/angelmondragon/quoteengine-backend/pkg/errors"
)

type recordingMetrics struct {
	exact    int
	fallback int
}

func (r *recordingMetrics) TierResolved(fallback bool) {
	if fallback {
		r.fallback++
		return
	}
	r.exact++
}

func laserInput() CreateInput {
	return CreateInput{
		Code:              "laser",
		Name:              "Laser engraving",
		MachineCostPerMin: 5,
		WearCost:          2,
		SetupFee:          150,
		DefaultMargin:     30,
		Ranges: []RangeInput{
			{MinQty: 51, MaxQty: 200, LaborCost: 15},
			{MinQty: 1, MaxQty: 50, LaborCost: 20},
		},
	}
}

func newTestService(t *testing.T) (Service, *recordingMetrics) {
	t.Helper()
	client := dbtest.Open(t)
	metrics := &recordingMetrics{}
	svc, err := NewService(NewRepository(client.DB()), client, metrics)
	require.NoError(t, err)
	return svc, metrics
}

func TestService_CreateAndQuote(t *testing.T) {
	svc, metrics := newTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, laserInput())
	require.NoError(t, err)
	assert.Equal(t, "LASER", created.Code)

	loaded, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	require.Len(t, loaded.Ranges, 2)
	assert.Equal(t, 1, loaded.Ranges[0].MinQty)

	res, err := svc.Quote(ctx, created.ID, QuoteInput{Quantity: 10, TimeInMinutes: 2})
	require.NoError(t, err)
	assert.InDelta(t, 32, res.UnitCost, 1e-9)
	assert.InDelta(t, 41.6, res.UnitPrice, 1e-9)
	assert.InDelta(t, 566, res.Total, 1e-9)
	assert.Equal(t, loaded.Ranges[0].ID, res.Breakdown.RangeID)

	_, err = svc.Quote(ctx, created.ID, QuoteInput{Quantity: 900, TimeInMinutes: 2})
	require.NoError(t, err)
	assert.Equal(t, 1, metrics.exact)
	assert.Equal(t, 1, metrics.fallback)
}

func TestService_CreateRejectsOverlappingRanges(t *testing.T) {
	svc, _ := newTestService(t)
	input := laserInput()
	input.Ranges = []RangeInput{
		{MinQty: 1, MaxQty: 60, LaborCost: 20},
		{MinQty: 50, MaxQty: 100, LaborCost: 15},
	}

	_, err := svc.Create(context.Background(), input)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
}

func TestService_CreateRejectsDuplicateCode(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, laserInput())
	require.NoError(t, err)
	_, err = svc.Create(ctx, laserInput())
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeConflict, pkgerrors.As(err).Code())
}

func TestService_QuoteBelowFirstTier(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	input := laserInput()
	input.Ranges = []RangeInput{{MinQty: 10, MaxQty: 100, LaborCost: 20}}
	created, err := svc.Create(ctx, input)
	require.NoError(t, err)

	_, err = svc.Quote(ctx, created.ID, QuoteInput{Quantity: 5, TimeInMinutes: 1})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNoTier, pkgerrors.As(err).Code())
}
