// Package worker drains the analytics subscription into the BigQuery writer.
package worker

import (
	"context"
	"errors"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"

	"github.com/angelmondragon/quoteengine-backend/internal/analytics/router"
	"github.com/angelmondragon/quoteengine-backend/internal/analytics/types"
	"github.com/angelmondragon/quoteengine-backend/internal/analytics/writer"
	"github.com/angelmondragon/quoteengine-backend/pkg/logger"
	"github.com/angelmondragon/quoteengine-backend/pkg/metrics"
	"github.com/angelmondragon/quoteengine-backend/pkg/outbox/idempotency"
)

const (
	consumerName    = "analytics"
	shutdownTimeout = 10 * time.Second
)

type Handler interface {
	Handle(ctx context.Context, envelope types.Envelope) error
}

// Flusher drains buffered rows when the worker stops.
type Flusher interface {
	Flush(ctx context.Context) error
}

type guard interface {
	Process(ctx context.Context, consumer string, eventID uuid.UUID, fn func(context.Context) error) (idempotency.Outcome, error)
}

type receiver interface {
	Receive(ctx context.Context, f func(context.Context, *gcppubsub.Message)) error
}

type Service struct {
	subscription receiver
	handler      Handler
	guard        guard
	flusher      Flusher
	metrics      *metrics.WorkerMetrics
	logg         *logger.Logger
}

// NewService wires the worker. flusher may be nil.
func NewService(subscription *gcppubsub.Subscriber, handler Handler, g guard, flusher Flusher, logg *logger.Logger) (*Service, error) {
	switch {
	case subscription == nil:
		return nil, errors.New("analytics subscription is required")
	case handler == nil:
		return nil, errors.New("analytics handler is required")
	case g == nil:
		return nil, errors.New("idempotency manager is required")
	case logg == nil:
		return nil, errors.New("logger is required")
	}
	return &Service{
		subscription: subscription,
		handler:      handler,
		guard:        g,
		flusher:      flusher,
		logg:         logg,
	}, nil
}

// WithMetrics records per-message outcomes under the analytics worker label.
func (s *Service) WithMetrics(m *metrics.WorkerMetrics) *Service {
	s.metrics = m
	return s
}

// disposition is what happens to a message once process returns.
type disposition int

const (
	ack disposition = iota
	nack
)

// Run consumes until ctx is cancelled, then flushes whatever the writer buffered.
func (s *Service) Run(ctx context.Context) error {
	err := s.subscription.Receive(ctx, func(msgCtx context.Context, msg *gcppubsub.Message) {
		started := time.Now()
		result := s.process(msgCtx, msg)
		s.metrics.ObserveDuration(consumerName, time.Since(started))
		if result == nack {
			s.metrics.IncFailure(consumerName)
			msg.Nack()
			return
		}
		s.metrics.IncSuccess(consumerName)
		msg.Ack()
	})

	if s.flusher != nil {
		flushCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		if flushErr := s.flusher.Flush(flushCtx); flushErr != nil {
			s.logg.Error(flushCtx, "analytics.flush_failed", flushErr)
			err = errors.Join(err, flushErr)
		}
	}
	return err
}

// process acks anything that can never succeed and nacks anything that might
// on redelivery.
func (s *Service) process(ctx context.Context, msg *gcppubsub.Message) disposition {
	ctx = s.logg.WithField(ctx, "message_id", msg.ID)

	envelope, err := buildEnvelope(msg)
	if err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "analytics.invalid_envelope")
		s.metrics.IncDeadLettered(consumerName, "invalid_envelope")
		return ack
	}
	ctx = s.logg.WithFields(ctx, envelope.LogFields())

	eventID, err := uuid.Parse(envelope.EventID)
	if err != nil {
		s.logg.Warn(ctx, "analytics.invalid_event_id")
		s.metrics.IncDeadLettered(consumerName, "invalid_event_id")
		return ack
	}

	outcome, err := s.guard.Process(ctx, consumerName, eventID, func(ctx context.Context) error {
		err := s.handler.Handle(ctx, *envelope)
		switch {
		case errors.Is(err, router.ErrUnsupportedEventType):
			s.logg.Warn(ctx, "analytics.unsupported_event")
			return nil
		case errors.Is(err, writer.ErrRejected):
			// redelivery would be rejected the same way
			s.logg.Error(ctx, "analytics.row_rejected", err)
			s.metrics.IncDeadLettered(consumerName, "bigquery_rejected")
			return nil
		}
		return err
	})
	switch {
	case errors.Is(err, idempotency.ErrMarkDone):
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "analytics.done_mark_missing")
		return ack
	case err != nil:
		s.logg.Error(ctx, "analytics.handle_failed", err)
		return nack
	case outcome == idempotency.Duplicate:
		s.logg.Info(ctx, "analytics.duplicate")
		return ack
	case outcome == idempotency.InFlight:
		s.logg.Info(ctx, "analytics.in_flight")
		return nack
	}
	s.logg.Info(ctx, "analytics.handled")
	return ack
}
