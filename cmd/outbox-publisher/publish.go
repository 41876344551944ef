package main

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"

	"github.com/angelmondragon/quoteengine-backend/pkg/db/models"
	"github.com/angelmondragon/quoteengine-backend/pkg/outbox/registry"
)

type pubSubClient interface {
	Ping(context.Context) error
	DomainPublisher() *gcppubsub.Publisher
	Publisher(name string) *gcppubsub.Publisher
}

type publisherFactory func(topic string) publisher

type publisher interface {
	Publish(ctx context.Context, msg *gcppubsub.Message) publishResult
}

type publishResult interface {
	Get(ctx context.Context) (string, error)
}

// buildMessage publishes the stored envelope verbatim. Attributes carry enough
// for subscribers to filter without decoding, and the aggregate id is the
// ordering key.
func buildMessage(event models.OutboxEvent, resolved *registry.ResolvedEvent) *gcppubsub.Message {
	aggregateID := event.AggregateID.String()
	return &gcppubsub.Message{
		Data:        event.Payload,
		OrderingKey: aggregateID,
		Attributes: map[string]string{
			"event_id":       resolved.Envelope.EventID,
			"event_type":     string(event.EventType),
			"aggregate_type": string(event.AggregateType),
			"aggregate_id":   aggregateID,
			"created_at":     event.CreatedAt.UTC().Format(time.RFC3339Nano),
		},
	}
}

func (s *Service) publish(ctx context.Context, event models.OutboxEvent, resolved *registry.ResolvedEvent) error {
	topic := resolved.Descriptor.Topic
	pub := s.publishers(topic)
	if pub == nil {
		return registry.NewNonRetryableError(fmt.Errorf("%w for topic %q", errNoPublisher, topic))
	}

	ctx, cancel := context.WithTimeout(ctx, defaultPublishTimeout)
	defer cancel()

	result := pub.Publish(ctx, buildMessage(event, resolved))
	if result == nil {
		return registry.NewNonRetryableError(fmt.Errorf("publisher for topic %q returned no result", topic))
	}
	_, err := result.Get(ctx)
	return err
}

// topicPublishers hands out one ordered publisher per topic for the life of
// the process.
type topicPublishers struct {
	client      pubSubClient
	domainTopic string

	mu      sync.Mutex
	byTopic map[string]publisher
}

func newTopicPublishers(client pubSubClient, domainTopic string) *topicPublishers {
	return &topicPublishers{
		client:      client,
		domainTopic: domainTopic,
		byTopic:     make(map[string]publisher),
	}
}

func (t *topicPublishers) get(topic string) publisher {
	t.mu.Lock()
	defer t.mu.Unlock()

	if pub, ok := t.byTopic[topic]; ok {
		return pub
	}
	var raw *gcppubsub.Publisher
	if topic == "" || topic == t.domainTopic {
		raw = t.client.DomainPublisher()
	} else {
		raw = t.client.Publisher(topic)
	}
	if raw == nil {
		return nil
	}
	raw.EnableMessageOrdering = true
	pub := &gcpPublisher{Publisher: raw}
	t.byTopic[topic] = pub
	return pub
}

type gcpPublisher struct {
	*gcppubsub.Publisher
}

func (p *gcpPublisher) Publish(ctx context.Context, msg *gcppubsub.Message) publishResult {
	return &gcpPublishResult{
		PublishResult: p.Publisher.Publish(ctx, msg),
		resume:        func() { p.Publisher.ResumePublish(msg.OrderingKey) },
	}
}

type gcpPublishResult struct {
	*gcppubsub.PublishResult
	resume func()
}

// Get waits for the server ack. A failed ordered publish pauses its key, so
// the key is resumed here before the row is retried on a later batch.
func (r *gcpPublishResult) Get(ctx context.Context) (string, error) {
	if r.PublishResult == nil {
		return "", errors.New("publish result is nil")
	}
	id, err := r.PublishResult.Get(ctx)
	if err != nil && r.resume != nil {
		r.resume()
	}
	return id, err
}
