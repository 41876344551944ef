package router

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/quoteengine-backend/internal/analytics/types"
	"github.com/angelmondragon/quoteengine-backend/pkg/enums"
	"github.com/angelmondragon/quoteengine-backend/pkg/logger"
	"github.com/angelmondragon/quoteengine-backend/pkg/outbox/payloads"
)

func TestRouterUnsupportedEvent(t *testing.T) {
	router, _ := newTestRouter(t, nil)
	env := types.Envelope{
		EventType: enums.OutboxEventType("unsupported"),
		Payload:   []byte(`{"foo":"bar"}`),
	}
	err := router.Handle(context.Background(), env)
	if !errors.Is(err, ErrUnsupportedEventType) {
		t.Fatalf("expected unsupported error, got %v", err)
	}
}

func TestRouterRejectsEmptyPayload(t *testing.T) {
	router, writer := newTestRouter(t, nil)
	env := types.Envelope{EventType: enums.EventQuoteDeleted}
	if err := router.Handle(context.Background(), env); err == nil {
		t.Fatal("expected empty payload error")
	}
	if len(writer.quotes) != 0 {
		t.Fatal("writer should not be called")
	}
}

func TestRouterRoutesToOverride(t *testing.T) {
	handler := &stubHandler{}
	router, _ := newTestRouter(t, map[enums.OutboxEventType]Handler{
		enums.EventProjectCreated: handler,
	})
	env := newEnvelope(t, enums.EventProjectCreated, payloads.ProjectCreatedEvent{
		ProjectID: uuid.New(),
		ClientID:  uuid.New(),
		Name:      "Remodelación",
		Status:    enums.ProjectStatusDraft,
	})
	if err := router.Handle(context.Background(), env); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !handler.called {
		t.Fatalf("handler not invoked")
	}
	if _, ok := handler.payload.(*payloads.ProjectCreatedEvent); !ok {
		t.Fatalf("unexpected payload type %T", handler.payload)
	}
}

func TestQuoteCreatedWritesActivityRow(t *testing.T) {
	router, writer := newTestRouter(t, nil)
	projectID := uuid.New()
	event := payloads.QuoteCreatedEvent{
		QuoteID:   uuid.New(),
		ClientID:  uuid.New(),
		ProjectID: &projectID,
		Version:   1,
		Status:    enums.QuoteStatusDraft,
		ItemCount: 2,
		Subtotal:  1500,
		IVAAmount: 240,
		ISRAmount: 18.75,
		Total:     1721.25,
	}
	env := newEnvelope(t, enums.EventQuoteCreated, event)
	env.ActorUserID = "user-1"

	if err := router.Handle(context.Background(), env); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(writer.quotes) != 1 {
		t.Fatalf("expected one quote row, got %d", len(writer.quotes))
	}
	row := writer.quotes[0]
	if row.QuoteID != event.QuoteID.String() {
		t.Fatalf("unexpected quote id %s", row.QuoteID)
	}
	if row.ProjectID == nil || *row.ProjectID != projectID.String() {
		t.Fatalf("unexpected project id %v", row.ProjectID)
	}
	if row.Total == nil || *row.Total != 1721.25 {
		t.Fatalf("unexpected total %v", row.Total)
	}
	if row.ActorUserID == nil || *row.ActorUserID != "user-1" {
		t.Fatalf("unexpected actor %v", row.ActorUserID)
	}
	if !row.Payload.Valid {
		t.Fatal("expected raw payload to be kept")
	}
}

func TestQuoteStatusChangedWithoutProject(t *testing.T) {
	router, writer := newTestRouter(t, nil)
	env := newEnvelope(t, enums.EventQuoteStatusChanged, payloads.QuoteStatusChangedEvent{
		QuoteID:        uuid.New(),
		PreviousStatus: enums.QuoteStatusDraft,
		Status:         enums.QuoteStatusApproved,
		IsApproved:     true,
		Total:          100,
	})

	if err := router.Handle(context.Background(), env); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	row := writer.quotes[0]
	if row.ProjectID != nil {
		t.Fatalf("expected no project id, got %v", *row.ProjectID)
	}
	if row.IsApproved == nil || !*row.IsApproved {
		t.Fatal("expected approval flag")
	}
	if row.PreviousStatus == nil || *row.PreviousStatus != string(enums.QuoteStatusDraft) {
		t.Fatalf("unexpected previous status %v", row.PreviousStatus)
	}
}

func TestProjectClosedWritesFinanceRow(t *testing.T) {
	router, writer := newTestRouter(t, nil)
	closedAt := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	event := payloads.ProjectClosedEvent{
		ProjectID:        uuid.New(),
		PreviousStatus:   enums.ProjectStatusActive,
		ClosedAt:         closedAt,
		LiquidatedOrders: 2,
		QuotedTotal:      5000,
		Incomes:          5000,
		Expenses:         3200,
	}
	env := newEnvelope(t, enums.EventProjectClosed, event)
	env.ActorRole = "admin"

	if err := router.Handle(context.Background(), env); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(writer.finance) != 1 {
		t.Fatalf("expected one finance row, got %d", len(writer.finance))
	}
	row := writer.finance[0]
	if row.FinancialStatus == nil || *row.FinancialStatus != string(enums.FinancialStatusClosed) {
		t.Fatalf("unexpected financial status %v", row.FinancialStatus)
	}
	if row.LiquidatedOrders == nil || *row.LiquidatedOrders != 2 {
		t.Fatalf("unexpected liquidated orders %v", row.LiquidatedOrders)
	}
	if !row.OccurredAt.Equal(closedAt) {
		t.Fatalf("expected closed_at as occurred_at, got %v", row.OccurredAt)
	}
	if row.ActorRole == nil || *row.ActorRole != "admin" {
		t.Fatalf("unexpected actor role %v", row.ActorRole)
	}
}

func TestSupplierPaymentWritesBalance(t *testing.T) {
	router, writer := newTestRouter(t, nil)
	event := payloads.SupplierOrderPaymentRecordedEvent{
		OrderID:       uuid.New(),
		ProjectID:     uuid.New(),
		ExpenseID:     uuid.New(),
		Amount:        400,
		Paid:          600,
		Balance:       400,
		PaymentStatus: enums.PaymentStatusPartial,
	}
	if err := router.Handle(context.Background(), newEnvelope(t, enums.EventSupplierOrderPaymentRecorded, event)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	row := writer.finance[0]
	if row.SupplierOrderID == nil || *row.SupplierOrderID != event.OrderID.String() {
		t.Fatalf("unexpected order id %v", row.SupplierOrderID)
	}
	if row.Balance == nil || *row.Balance != 400 {
		t.Fatalf("unexpected balance %v", row.Balance)
	}
	if row.PaymentStatus == nil || *row.PaymentStatus != string(enums.PaymentStatusPartial) {
		t.Fatalf("unexpected payment status %v", row.PaymentStatus)
	}
}

func TestWriterErrorPropagates(t *testing.T) {
	router, writer := newTestRouter(t, nil)
	writer.err = errors.New("bigquery down")
	env := newEnvelope(t, enums.EventProjectDeleted, payloads.ProjectDeletedEvent{ProjectID: uuid.New()})
	if err := router.Handle(context.Background(), env); err == nil {
		t.Fatal("expected writer error")
	}
}

func newTestRouter(t *testing.T, overrides map[enums.OutboxEventType]Handler) (*Router, *recordingWriter) {
	t.Helper()
	writer := &recordingWriter{}
	router, err := NewRouter(writer, logger.New(logger.Options{ServiceName: "router-test"}), overrides)
	if err != nil {
		t.Fatalf("construct router: %v", err)
	}
	return router, writer
}

func newEnvelope(t *testing.T, eventType enums.OutboxEventType, payload any) types.Envelope {
	t.Helper()
	data, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	return types.Envelope{
		EventID:    uuid.NewString(),
		EventType:  eventType,
		OccurredAt: time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC),
		Payload:    data,
	}
}

type stubHandler struct {
	called  bool
	payload any
}

func (s *stubHandler) Handle(ctx context.Context, envelope types.Envelope, payload any) error {
	s.called = true
	s.payload = payload
	return nil
}

type recordingWriter struct {
	finance []types.ProjectFinanceRow
	quotes  []types.QuoteActivityRow
	err     error
}

func (w *recordingWriter) InsertProjectFinance(_ context.Context, row types.ProjectFinanceRow) error {
	if w.err != nil {
		return w.err
	}
	w.finance = append(w.finance, row)
	return nil
}

func (w *recordingWriter) InsertQuoteActivity(_ context.Context, row types.QuoteActivityRow) error {
	if w.err != nil {
		return w.err
	}
	w.quotes = append(w.quotes, row)
	return nil
}

func TestRouterRejectsNullPayloadAndUnknownVersion(t *testing.T) {
	router, writer := newTestRouter(t, nil)

	env := types.Envelope{EventType: enums.EventQuoteDeleted, Payload: []byte(" null ")}
	if err := router.Handle(context.Background(), env); err == nil {
		t.Fatal("expected null payload error")
	}

	env = newEnvelope(t, enums.EventQuoteDeleted, payloads.QuoteDeletedEvent{QuoteID: uuid.New()})
	env.Version = 3
	if err := router.Handle(context.Background(), env); err == nil {
		t.Fatal("expected unknown version error")
	}
	if len(writer.quotes) != 0 {
		t.Fatal("writer should not be called")
	}
}
