package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/quoteengine-backend/pkg/db/models"
	"github.com/angelmondragon/quoteengine-backend/pkg/enums"
	"github.com/angelmondragon/quoteengine-backend/pkg/outbox/registry"
)

type outcome int

const (
	outcomePublished outcome = iota
	outcomeRetry
	outcomeDeadLettered
	outcomeHeld
)

type batchTally map[outcome]int

// settled reports whether any row left the pending set. A batch where every row
// is retried or held should not be polled again without a pause.
func (t batchTally) settled() bool {
	return t[outcomePublished]+t[outcomeDeadLettered] > 0
}

// processBatch claims pending rows and records one outcome per row. Once a row
// of an aggregate is retried, later rows of the same aggregate are held for the
// next batch so subscribers never see them out of order.
func (s *Service) processBatch(ctx context.Context) (bool, error) {
	started := time.Now()
	tally := batchTally{}

	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		events, err := s.repo.FetchUnpublishedForPublish(tx, s.batchSize, s.maxAttempts)
		if err != nil {
			return fmt.Errorf("fetch outbox batch: %w", err)
		}

		held := make(map[uuid.UUID]struct{})
		for _, event := range events {
			if _, blocked := held[event.AggregateID]; blocked {
				tally[outcomeHeld]++
				continue
			}
			result, err := s.dispatch(ctx, tx, event)
			if err != nil {
				return err
			}
			tally[result]++
			if result == outcomeRetry {
				held[event.AggregateID] = struct{}{}
			}
		}
		return nil
	})
	if len(tally) > 0 {
		s.metrics.ObserveDuration(workerName, time.Since(started))
	}
	if tally[outcomeHeld] > 0 {
		s.logg.Info(s.logg.WithFields(ctx, map[string]any{
			"held":    tally[outcomeHeld],
			"retried": tally[outcomeRetry],
		}), "outbox.batch_held")
	}
	return tally.settled(), err
}

func (s *Service) dispatch(ctx context.Context, tx *gorm.DB, event models.OutboxEvent) (outcome, error) {
	resolved, err := s.registry.Resolve(event)
	if err != nil {
		return s.deadLetter(ctx, tx, event, enums.OutboxDLQReasonUndecodable, err, s.eventFields(event, nil))
	}
	fields := s.eventFields(event, resolved)

	pubErr := s.publish(ctx, event, resolved)
	if pubErr == nil {
		if err := s.repo.MarkPublishedTx(tx, event.ID); err != nil {
			return 0, fmt.Errorf("mark published %s: %w", event.ID, err)
		}
		s.metrics.IncSuccess(workerName)
		s.logg.Info(s.logg.WithFields(ctx, fields), "outbox.published")
		return outcomePublished, nil
	}

	var nonRetryable registry.NonRetryableError
	if errors.As(pubErr, &nonRetryable) {
		return s.deadLetter(ctx, tx, event, enums.OutboxDLQReasonNonRetryable, pubErr, fields)
	}

	attempt := event.AttemptCount + 1
	fields["attempt_count"] = attempt
	if attempt >= s.maxAttempts {
		return s.deadLetter(ctx, tx, event, enums.OutboxDLQReasonMaxAttempts,
			fmt.Errorf("gave up after %d attempts: %w", attempt, pubErr), fields)
	}

	fields["error"] = pubErr.Error()
	s.logg.Warn(s.logg.WithFields(ctx, fields), "outbox.publish_failed")
	if err := s.repo.MarkFailedTx(tx, event.ID, pubErr); err != nil {
		return 0, fmt.Errorf("mark failed %s: %w", event.ID, err)
	}
	s.metrics.IncFailure(workerName)
	return outcomeRetry, nil
}

// deadLetter copies the row into outbox_dlq and retires it in the same
// transaction, so a row is never both pending and dead-lettered.
func (s *Service) deadLetter(ctx context.Context, tx *gorm.DB, event models.OutboxEvent, reason enums.OutboxDLQErrorReason, cause error, fields map[string]any) (outcome, error) {
	fields["error_reason"] = reason.String()
	fields["error"] = cause.Error()
	s.logg.Warn(s.logg.WithFields(ctx, fields), "outbox.dead_lettered")

	message := cause.Error()
	entry := models.OutboxDLQ{
		EventID:       event.ID,
		EventType:     event.EventType,
		AggregateType: event.AggregateType,
		AggregateID:   event.AggregateID,
		Payload:       event.Payload,
		ErrorReason:   reason,
		ErrorMessage:  &message,
		AttemptCount:  event.AttemptCount,
		FailedAt:      time.Now().UTC(),
	}
	if err := s.dlq.InsertTx(tx, entry); err != nil {
		return 0, fmt.Errorf("insert dlq %s: %w", event.ID, err)
	}
	if err := s.repo.MarkTerminalTx(tx, event.ID, cause, s.maxAttempts); err != nil {
		return 0, fmt.Errorf("mark terminal %s: %w", event.ID, err)
	}
	s.metrics.IncDeadLettered(workerName, reason.String())
	return outcomeDeadLettered, nil
}

func (s *Service) eventFields(event models.OutboxEvent, resolved *registry.ResolvedEvent) map[string]any {
	fields := map[string]any{
		"outbox_id":      event.ID.String(),
		"event_type":     string(event.EventType),
		"aggregate_type": string(event.AggregateType),
		"aggregate_id":   event.AggregateID.String(),
		"attempt_count":  event.AttemptCount,
	}
	if event.LastError != nil {
		fields["last_error"] = *event.LastError
	}
	if resolved == nil {
		return fields
	}
	fields["topic"] = resolved.Descriptor.Topic
	if resolved.Envelope.EventID != "" {
		fields["event_id"] = resolved.Envelope.EventID
		fields["occurred_at"] = resolved.Envelope.OccurredAt.Format(time.RFC3339Nano)
	}
	if actor := resolved.Envelope.Actor; actor != nil {
		fields["actor_user_id"] = actor.UserID.String()
	}
	return fields
}
