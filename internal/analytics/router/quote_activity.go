package router

import (
	"context"
	"fmt"

	"github.com/angelmondragon/quoteengine-backend/internal/analytics/types"
	"github.com/angelmondragon/quoteengine-backend/internal/analytics/writer"
	"github.com/angelmondragon/quoteengine-backend/pkg/logger"
	"github.com/angelmondragon/quoteengine-backend/pkg/outbox/payloads"
)

type quoteActivityHandler struct {
	writer Writer
	logg   *logger.Logger
}

func (h *quoteActivityHandler) Handle(ctx context.Context, envelope types.Envelope, payload any) error {
	row, err := buildQuoteActivityRow(envelope, payload)
	if err != nil {
		return err
	}
	logCtx := h.logg.WithFields(ctx, map[string]any{
		"event_type": envelope.EventType,
		"quote_id":   row.QuoteID,
	})

	if err := h.writer.InsertQuoteActivity(logCtx, row); err != nil {
		h.logg.Error(logCtx, "failed to insert quote activity row", err)
		return err
	}
	h.logg.Info(logCtx, "quote activity row inserted")
	return nil
}

func buildQuoteActivityRow(envelope types.Envelope, payload any) (types.QuoteActivityRow, error) {
	raw, err := writer.EncodeJSON(envelope.Payload)
	if err != nil {
		return types.QuoteActivityRow{}, err
	}
	row := types.QuoteActivityRow{
		EventID:     envelope.EventID,
		EventType:   string(envelope.EventType),
		OccurredAt:  envelope.OccurredAt.UTC(),
		ActorUserID: text(envelope.ActorUserID),
		Payload:     raw,
	}

	switch event := payload.(type) {
	case *payloads.QuoteCreatedEvent:
		row.QuoteID = event.QuoteID.String()
		row.ProjectID = idText(event.ProjectID)
		row.ClientID = idText(&event.ClientID)
		row.Version = ptr(int64(event.Version))
		row.Status = text(event.Status)
		row.ItemCount = ptr(int64(event.ItemCount))
		row.Subtotal = ptr(event.Subtotal)
		row.IVAAmount = ptr(event.IVAAmount)
		row.ISRAmount = ptr(event.ISRAmount)
		row.Total = ptr(event.Total)
	case *payloads.QuoteItemsReplacedEvent:
		row.QuoteID = event.QuoteID.String()
		row.ProjectID = idText(event.ProjectID)
		row.ItemCount = ptr(int64(event.ItemCount))
		row.Subtotal = ptr(event.Subtotal)
		row.Total = ptr(event.Total)
	case *payloads.QuoteStatusChangedEvent:
		row.QuoteID = event.QuoteID.String()
		row.ProjectID = idText(event.ProjectID)
		row.Status = text(event.Status)
		row.PreviousStatus = text(event.PreviousStatus)
		row.IsApproved = ptr(event.IsApproved)
		row.Total = ptr(event.Total)
	case *payloads.QuoteDeletedEvent:
		row.QuoteID = event.QuoteID.String()
		row.ProjectID = idText(event.ProjectID)
	default:
		return types.QuoteActivityRow{}, fmt.Errorf("invalid payload %T for %s", payload, envelope.EventType)
	}
	return row, nil
}
