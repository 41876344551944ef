package enums

// OutboxAggregateType maps to the aggregate_type column of outbox_events.
type OutboxAggregateType string

const (
	AggregateProject       OutboxAggregateType = "project"
	AggregateQuote         OutboxAggregateType = "quote"
	AggregateSupplierOrder OutboxAggregateType = "supplier_order"
)

var aggregateTypes = newSet("aggregate type", AggregateProject, AggregateQuote, AggregateSupplierOrder)

func (a OutboxAggregateType) IsValid() bool { return aggregateTypes.has(a) }

func ParseOutboxAggregateType(value string) (OutboxAggregateType, error) {
	return aggregateTypes.parse(value)
}

// OutboxEventType maps to the event_type column of outbox_events.
type OutboxEventType string

const (
	EventQuoteCreated                 OutboxEventType = "quote_created"
	EventQuoteItemsReplaced           OutboxEventType = "quote_items_replaced"
	EventQuoteStatusChanged           OutboxEventType = "quote_status_changed"
	EventQuoteDeleted                 OutboxEventType = "quote_deleted"
	EventProjectCreated               OutboxEventType = "project_created"
	EventProjectStatusChanged         OutboxEventType = "project_status_changed"
	EventProjectClosed                OutboxEventType = "project_closed"
	EventProjectDeleted               OutboxEventType = "project_deleted"
	EventProjectForceDeleted          OutboxEventType = "project_force_deleted"
	EventSupplierOrderCreated         OutboxEventType = "supplier_order_created"
	EventSupplierOrderPaymentRecorded OutboxEventType = "supplier_order_payment_recorded"
)

var eventTypes = newSet("event type",
	EventQuoteCreated,
	EventQuoteItemsReplaced,
	EventQuoteStatusChanged,
	EventQuoteDeleted,
	EventProjectCreated,
	EventProjectStatusChanged,
	EventProjectClosed,
	EventProjectDeleted,
	EventProjectForceDeleted,
	EventSupplierOrderCreated,
	EventSupplierOrderPaymentRecorded,
)

func (e OutboxEventType) IsValid() bool { return eventTypes.has(e) }

func ParseOutboxEventType(value string) (OutboxEventType, error) {
	return eventTypes.parse(value)
}

// OutboxEventTypes lists every event type the engine emits.
func OutboxEventTypes() []OutboxEventType { return eventTypes.all() }
