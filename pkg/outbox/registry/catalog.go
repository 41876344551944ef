package registry

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/angelmondragon/quoteengine-backend/pkg/enums"
	"github.com/angelmondragon/quoteengine-backend/pkg/outbox"
	"github.com/angelmondragon/quoteengine-backend/pkg/outbox/payloads"
)

var (
	ErrUnknownEvent   = errors.New("unknown event type")
	ErrUnknownVersion = errors.New("unknown payload version")
)

// Decoder turns an envelope's data section into a typed payload pointer.
type Decoder func(data json.RawMessage) (any, error)

// DecodeAs decodes data into a new T.
func DecodeAs[T any]() Decoder {
	return func(data json.RawMessage) (any, error) {
		out := new(T)
		if err := json.Unmarshal(data, out); err != nil {
			return nil, err
		}
		return out, nil
	}
}

type catalogEntry struct {
	aggregate enums.OutboxAggregateType
	versions  map[int]Decoder
}

// Catalog is the list of domain events carried through the outbox: the
// aggregate each belongs to and a decoder per payload schema version. The
// publisher and the analytics consumer share it so both sides agree on shapes.
type Catalog struct {
	entries map[enums.OutboxEventType]catalogEntry
}

func NewCatalog() *Catalog {
	return &Catalog{entries: make(map[enums.OutboxEventType]catalogEntry)}
}

// DefaultCatalog registers version 1 of every domain event.
func DefaultCatalog() *Catalog {
	c := NewCatalog()
	v := outbox.CurrentVersion

	c.Register(enums.EventQuoteCreated, enums.AggregateQuote, v, DecodeAs[payloads.QuoteCreatedEvent]())
	c.Register(enums.EventQuoteItemsReplaced, enums.AggregateQuote, v, DecodeAs[payloads.QuoteItemsReplacedEvent]())
	c.Register(enums.EventQuoteStatusChanged, enums.AggregateQuote, v, DecodeAs[payloads.QuoteStatusChangedEvent]())
	c.Register(enums.EventQuoteDeleted, enums.AggregateQuote, v, DecodeAs[payloads.QuoteDeletedEvent]())

	c.Register(enums.EventProjectCreated, enums.AggregateProject, v, DecodeAs[payloads.ProjectCreatedEvent]())
	c.Register(enums.EventProjectStatusChanged, enums.AggregateProject, v, DecodeAs[payloads.ProjectStatusChangedEvent]())
	c.Register(enums.EventProjectClosed, enums.AggregateProject, v, DecodeAs[payloads.ProjectClosedEvent]())
	c.Register(enums.EventProjectDeleted, enums.AggregateProject, v, DecodeAs[payloads.ProjectDeletedEvent]())
	c.Register(enums.EventProjectForceDeleted, enums.AggregateProject, v, DecodeAs[payloads.ProjectForceDeletedEvent]())

	c.Register(enums.EventSupplierOrderCreated, enums.AggregateSupplierOrder, v, DecodeAs[payloads.SupplierOrderCreatedEvent]())
	c.Register(enums.EventSupplierOrderPaymentRecorded, enums.AggregateSupplierOrder, v, DecodeAs[payloads.SupplierOrderPaymentRecordedEvent]())
	return c
}

// Register adds or replaces the decoder for one event type and version.
func (c *Catalog) Register(eventType enums.OutboxEventType, aggregate enums.OutboxAggregateType, version int, decode Decoder) {
	if decode == nil {
		return
	}
	entry, ok := c.entries[eventType]
	if !ok {
		entry = catalogEntry{aggregate: aggregate, versions: make(map[int]Decoder)}
	}
	entry.aggregate = aggregate
	entry.versions[version] = decode
	c.entries[eventType] = entry
}

// Aggregate reports which aggregate an event type belongs to.
func (c *Catalog) Aggregate(eventType enums.OutboxEventType) (enums.OutboxAggregateType, bool) {
	entry, ok := c.entries[eventType]
	return entry.aggregate, ok
}

// Decode picks the decoder for eventType at version. Envelopes written before
// versioning carry 0 and are read as the current version.
func (c *Catalog) Decode(eventType enums.OutboxEventType, version int, data json.RawMessage) (any, error) {
	entry, ok := c.entries[eventType]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownEvent, eventType)
	}
	if version == 0 {
		version = outbox.CurrentVersion
	}
	decode, ok := entry.versions[version]
	if !ok {
		return nil, fmt.Errorf("%w: %s@v%d", ErrUnknownVersion, eventType, version)
	}
	payload, err := decode(data)
	if err != nil {
		return nil, fmt.Errorf("decode %s@v%d payload: %w", eventType, version, err)
	}
	return payload, nil
}

// EventTypes lists the registered event types in a stable order.
func (c *Catalog) EventTypes() []enums.OutboxEventType {
	out := make([]enums.OutboxEventType, 0, len(c.entries))
	for eventType := range c.entries {
		out = append(out, eventType)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
