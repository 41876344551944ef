package router

import (
	"context"
	"errors"
	"fmt"

	"github.com/angelmondragon/quoteengine-backend/internal/analytics/types"
	"github.com/angelmondragon/quoteengine-backend/pkg/enums"
	"github.com/angelmondragon/quoteengine-backend/pkg/logger"
	"github.com/angelmondragon/quoteengine-backend/pkg/outbox/registry"
)

var ErrUnsupportedEventType = errors.New("unsupported analytics event type")

// Writer delivers BigQuery rows produced by analytics handlers.
type Writer interface {
	InsertProjectFinance(ctx context.Context, row types.ProjectFinanceRow) error
	InsertQuoteActivity(ctx context.Context, row types.QuoteActivityRow) error
}

// Handler receives an envelope plus a decoded event payload.
type Handler interface {
	Handle(ctx context.Context, envelope types.Envelope, payload any) error
}

// Router decodes analytics envelopes through the shared event catalog and
// dispatches them by aggregate: quote events feed quote activity, project and
// supplier order events feed project finance.
type Router struct {
	catalog  *registry.Catalog
	handlers map[enums.OutboxEventType]Handler
	logg     *logger.Logger
}

// NewRouter wires the default handlers and allows overrides for specific events.
func NewRouter(writer Writer, logg *logger.Logger, overrides map[enums.OutboxEventType]Handler) (*Router, error) {
	if writer == nil {
		return nil, errors.New("writer is required")
	}
	if logg == nil {
		return nil, errors.New("logger is required")
	}

	catalog := registry.DefaultCatalog()
	quotes := &quoteActivityHandler{writer: writer, logg: logg}
	finance := &projectFinanceHandler{writer: writer, logg: logg}

	handlers := make(map[enums.OutboxEventType]Handler)
	for _, eventType := range catalog.EventTypes() {
		aggregate, _ := catalog.Aggregate(eventType)
		switch aggregate {
		case enums.AggregateQuote:
			handlers[eventType] = quotes
		case enums.AggregateProject, enums.AggregateSupplierOrder:
			handlers[eventType] = finance
		}
		if custom := overrides[eventType]; custom != nil {
			handlers[eventType] = custom
		}
	}

	return &Router{catalog: catalog, handlers: handlers, logg: logg}, nil
}

// Handle dispatches the incoming envelope to the configured handler.
func (r *Router) Handle(ctx context.Context, envelope types.Envelope) error {
	handler, ok := r.handlers[envelope.EventType]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnsupportedEventType, envelope.EventType)
	}
	if !envelope.HasPayload() {
		return fmt.Errorf("empty payload for %s", envelope.EventType)
	}
	payload, err := r.catalog.Decode(envelope.EventType, envelope.Version, envelope.Payload)
	if err != nil {
		return err
	}
	return handler.Handle(ctx, envelope, payload)
}
