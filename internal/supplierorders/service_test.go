package supplierorders

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/quoteengine-backend/internal/catalog"
	"github.com/angelmondragon/quoteengine-backend/pkg/db"
	"github.com/angelmondragon/quoteengine-backend/pkg/db/dbtest"
	"github.com/angelmondragon/quoteengine-backend/pkg/db/models"
	"github.com/angelmondragon/quoteengine-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/quoteengine-backend/pkg/errors"
	"github.com/angelmondragon/quoteengine-backend/pkg/outbox"
)

type recordingEmitter struct {
	events []outbox.DomainEvent
}

func (r *recordingEmitter) Emit(_ context.Context, _ *gorm.DB, event outbox.DomainEvent) error {
	r.events = append(r.events, event)
	return nil
}

type fixture struct {
	client   *db.Client
	svc      Service
	emitter  *recordingEmitter
	project  *models.Project
	supplier *models.Supplier
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	client := dbtest.Open(t)
	emitter := &recordingEmitter{}
	svc, err := NewService(NewRepository(client.DB()), catalog.NewRepository(client.DB()), client, emitter, 2)
	require.NoError(t, err)

	owner := &models.Client{Name: "Acme"}
	require.NoError(t, client.DB().Create(owner).Error)
	project := &models.Project{ClientID: owner.ID, Name: "Expo", Status: enums.ProjectStatusActive, FinancialStatus: enums.FinancialStatusOpen}
	require.NoError(t, client.DB().Create(project).Error)
	supplier := &models.Supplier{Name: "Printing Co"}
	require.NoError(t, client.DB().Create(supplier).Error)

	return fixture{client: client, svc: svc, emitter: emitter, project: project, supplier: supplier}
}

func (f fixture) createOrder(t *testing.T) *OrderBalance {
	t.Helper()
	order, err := f.svc.Create(context.Background(), CreateInput{
		ProjectID:  f.project.ID,
		SupplierID: f.supplier.ID,
		Items: []ItemInput{
			{Code: "TSH", Name: "T-shirt", Quantity: 10, UnitCost: 50},
			{Code: "INK", Name: "Ink", Quantity: 1, UnitCost: 100},
		},
	})
	require.NoError(t, err)
	return order
}

func TestService_CreateStartsPending(t *testing.T) {
	f := newFixture(t)
	order := f.createOrder(t)

	assert.Equal(t, enums.PaymentStatusPending, order.Order.PaymentStatus)
	assert.InDelta(t, 600, order.Balance.OrderTotal, 1e-9)
	assert.True(t, order.Balance.Pending)
	require.Len(t, f.emitter.events, 1)
	assert.Equal(t, enums.EventSupplierOrderCreated, f.emitter.events[0].EventType)

	loaded, err := f.svc.Get(context.Background(), order.Order.ID)
	require.NoError(t, err)
	assert.Len(t, loaded.Order.Items, 2)
}

func TestService_RecordPaymentMovesStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	order := f.createOrder(t)

	res, err := f.svc.RecordPayment(ctx, order.Order.ID, PaymentInput{Amount: 200.004})
	require.NoError(t, err)
	assert.InDelta(t, 200, res.Expense.Amount, 1e-9)
	assert.Equal(t, enums.PaymentStatusPartial, res.Order.Order.PaymentStatus)
	assert.InDelta(t, 400, res.Order.Balance.Balance, 1e-9)
	require.NotNil(t, res.Expense.SupplierOrderID)
	assert.Equal(t, order.Order.ID, *res.Expense.SupplierOrderID)

	res, err = f.svc.RecordPayment(ctx, order.Order.ID, PaymentInput{Amount: 400, Description: "final"})
	require.NoError(t, err)
	assert.Equal(t, enums.PaymentStatusPaid, res.Order.Order.PaymentStatus)
	assert.False(t, res.Order.Balance.Pending)

	var stored models.SupplierOrder
	require.NoError(t, f.client.DB().First(&stored, "id = ?", order.Order.ID).Error)
	assert.Equal(t, enums.PaymentStatusPaid, stored.PaymentStatus)

	list, err := f.svc.ListByProject(ctx, f.project.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.InDelta(t, 600, list[0].Balance.Paid, 1e-9)
}

func TestService_RecordPaymentRejectsBadAmount(t *testing.T) {
	f := newFixture(t)
	order := f.createOrder(t)

	for _, amount := range []float64{0, -10, 0.001} {
		_, err := f.svc.RecordPayment(context.Background(), order.Order.ID, PaymentInput{Amount: amount})
		require.Error(t, err)
		assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
	}
}

func TestService_RejectsClosedProject(t *testing.T) {
	f := newFixture(t)
	order := f.createOrder(t)
	require.NoError(t, f.client.DB().Model(f.project).Update("financial_status", enums.FinancialStatusClosed).Error)

	_, err := f.svc.RecordPayment(context.Background(), order.Order.ID, PaymentInput{Amount: 10})
	require.Error(t, err)
	assert.Equal(t, enums.GuardReasonFinanciallyClosed.String(), pkgerrors.ReasonOf(err))

	_, err = f.svc.Create(context.Background(), CreateInput{
		ProjectID:  f.project.ID,
		SupplierID: f.supplier.ID,
		Items:      []ItemInput{{Code: "X", Name: "X", Quantity: 1, UnitCost: 1}},
	})
	require.Error(t, err)
	assert.Equal(t, enums.GuardReasonFinanciallyClosed.String(), pkgerrors.ReasonOf(err))
}

func TestService_CreateValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, CreateInput{ProjectID: f.project.ID, SupplierID: f.supplier.ID})
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())

	_, err = f.svc.Create(ctx, CreateInput{
		ProjectID:  f.project.ID,
		SupplierID: f.supplier.ID,
		Items:      []ItemInput{{Code: "X", Name: "X", Quantity: 0, UnitCost: 1}},
	})
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())

	_, err = f.svc.Create(ctx, CreateInput{
		ProjectID:  f.project.ID,
		SupplierID: uuid.New(),
		Items:      []ItemInput{{Code: "X", Name: "X", Quantity: 1, UnitCost: 1}},
	})
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())

	_, err = f.svc.Get(ctx, uuid.New())
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
}
