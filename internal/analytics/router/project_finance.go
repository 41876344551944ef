package router

import (
	"context"
	"fmt"

	"github.com/angelmondragon/quoteengine-backend/internal/analytics/types"
	"github.com/angelmondragon/quoteengine-backend/internal/analytics/writer"
	"github.com/angelmondragon/quoteengine-backend/pkg/enums"
	"github.com/angelmondragon/quoteengine-backend/pkg/logger"
	"github.com/angelmondragon/quoteengine-backend/pkg/outbox/payloads"
)

type projectFinanceHandler struct {
	writer Writer
	logg   *logger.Logger
}

func (h *projectFinanceHandler) Handle(ctx context.Context, envelope types.Envelope, payload any) error {
	row, err := buildProjectFinanceRow(envelope, payload)
	if err != nil {
		return err
	}
	logCtx := h.logg.WithFields(ctx, map[string]any{
		"event_type": envelope.EventType,
		"project_id": row.ProjectID,
	})

	if err := h.writer.InsertProjectFinance(logCtx, row); err != nil {
		h.logg.Error(logCtx, "failed to insert project finance row", err)
		return err
	}
	h.logg.Info(logCtx, "project finance row inserted")
	return nil
}

func buildProjectFinanceRow(envelope types.Envelope, payload any) (types.ProjectFinanceRow, error) {
	raw, err := writer.EncodeJSON(envelope.Payload)
	if err != nil {
		return types.ProjectFinanceRow{}, err
	}
	row := types.ProjectFinanceRow{
		EventID:     envelope.EventID,
		EventType:   string(envelope.EventType),
		OccurredAt:  envelope.OccurredAt.UTC(),
		ActorUserID: text(envelope.ActorUserID),
		ActorRole:   text(envelope.ActorRole),
		Payload:     raw,
	}

	switch event := payload.(type) {
	case *payloads.ProjectCreatedEvent:
		row.ProjectID = event.ProjectID.String()
		row.ClientID = idText(&event.ClientID)
		row.ProjectStatus = text(event.Status)
		row.FinancialStatus = text(enums.FinancialStatusOpen)
	case *payloads.ProjectStatusChangedEvent:
		row.ProjectID = event.ProjectID.String()
		row.ProjectStatus = text(event.Status)
		row.PreviousStatus = text(event.PreviousStatus)
	case *payloads.ProjectClosedEvent:
		row.ProjectID = event.ProjectID.String()
		row.ProjectStatus = text(enums.ProjectStatusClosed)
		row.PreviousStatus = text(event.PreviousStatus)
		row.FinancialStatus = text(enums.FinancialStatusClosed)
		row.QuotedTotal = ptr(event.QuotedTotal)
		row.Incomes = ptr(event.Incomes)
		row.Expenses = ptr(event.Expenses)
		row.LiquidatedOrders = ptr(event.LiquidatedOrders)
		if !event.ClosedAt.IsZero() {
			row.OccurredAt = event.ClosedAt.UTC()
		}
	case *payloads.ProjectDeletedEvent:
		row.ProjectID = event.ProjectID.String()
	case *payloads.ProjectForceDeletedEvent:
		row.ProjectID = event.ProjectID.String()
	case *payloads.SupplierOrderCreatedEvent:
		row.ProjectID = event.ProjectID.String()
		row.SupplierOrderID = idText(&event.OrderID)
		row.SupplierID = idText(&event.SupplierID)
		row.Amount = ptr(event.OrderTotal)
		row.Balance = ptr(event.OrderTotal)
	case *payloads.SupplierOrderPaymentRecordedEvent:
		row.ProjectID = event.ProjectID.String()
		row.SupplierOrderID = idText(&event.OrderID)
		row.PaymentStatus = text(event.PaymentStatus)
		row.Amount = ptr(event.Amount)
		row.Balance = ptr(event.Balance)
	default:
		return types.ProjectFinanceRow{}, fmt.Errorf("invalid payload %T for %s", payload, envelope.EventType)
	}
	return row, nil
}
