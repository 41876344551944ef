package types

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/angelmondragon/quoteengine-backend/pkg/enums"
)

// Envelope is a domain event as delivered on the analytics subscription: the
// stored outbox envelope merged with the routing attributes of the message.
type Envelope struct {
	EventID       string                    `json:"event_id"`
	EventType     enums.OutboxEventType     `json:"event_type"`
	AggregateType enums.OutboxAggregateType `json:"aggregate_type"`
	AggregateID   string                    `json:"aggregate_id"`
	Version       int                       `json:"version"`
	OccurredAt    time.Time                 `json:"occurred_at"`
	ActorUserID   string                    `json:"actor_user_id,omitempty"`
	ActorRole     string                    `json:"actor_role,omitempty"`
	Payload       json.RawMessage           `json:"payload"`
}

// HasPayload is false for a missing or JSON null data section.
func (e Envelope) HasPayload() bool {
	trimmed := bytes.TrimSpace(e.Payload)
	return len(trimmed) > 0 && !bytes.Equal(trimmed, []byte("null"))
}

// LogFields is the envelope identity attached to every log line about it.
func (e Envelope) LogFields() map[string]any {
	return map[string]any{
		"event_id":       e.EventID,
		"event_type":     string(e.EventType),
		"aggregate_type": string(e.AggregateType),
		"aggregate_id":   e.AggregateID,
		"occurred_at":    e.OccurredAt.Format(time.RFC3339Nano),
	}
}
