// Package idempotency makes event consumers effectively-once on top of an
// at-least-once subscription. Each consumer claims an event id with a short
// lease, and the lease becomes a long-lived done mark once the handler succeeds.
package idempotency

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/quoteengine-backend/pkg/redis"
)

const (
	markProcessing = "processing"
	markDone       = "done"

	defaultLease = 2 * time.Minute
)

// Outcome is what a delivery should do after Claim or Process.
type Outcome int

const (
	// Claimed: this delivery owns the event and must handle it.
	Claimed Outcome = iota
	// Duplicate: the event was already handled; ack without work.
	Duplicate
	// InFlight: another delivery holds the lease; retry later.
	InFlight
)

func (o Outcome) String() string {
	switch o {
	case Claimed:
		return "claimed"
	case Duplicate:
		return "duplicate"
	case InFlight:
		return "in_flight"
	}
	return fmt.Sprintf("outcome(%d)", int(o))
}

// ErrMarkDone means the handler succeeded but the done mark was not written.
// The event is handled; a later redelivery may handle it again.
var ErrMarkDone = errors.New("idempotency done mark not written")

// Store is the slice of the redis client the manager needs.
type Store interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
	EventKey(consumer, eventID string) string
}

type Manager struct {
	store   Store
	doneTTL time.Duration
	lease   time.Duration
}

// NewManager keeps done marks for doneTTL. A zero lease uses two minutes; the
// lease must outlast the slowest handler or a redelivery may run concurrently.
func NewManager(store Store, doneTTL, lease time.Duration) (*Manager, error) {
	if store == nil {
		return nil, errors.New("idempotency store is required")
	}
	if doneTTL < 0 || lease < 0 {
		return nil, errors.New("ttl must be non-negative")
	}
	if lease == 0 {
		lease = defaultLease
	}
	return &Manager{store: store, doneTTL: doneTTL, lease: lease}, nil
}

// Claim takes the processing lease for eventID unless it is held or done.
func (m *Manager) Claim(ctx context.Context, consumer string, eventID uuid.UUID) (Outcome, error) {
	key, err := m.key(consumer, eventID)
	if err != nil {
		return 0, err
	}
	// a lease can expire between SetNX and Get, so look twice before giving up
	for range 2 {
		set, err := m.store.SetNX(ctx, key, markProcessing, m.lease)
		if err != nil {
			return 0, err
		}
		if set {
			return Claimed, nil
		}
		state, err := m.store.Get(ctx, key)
		switch {
		case errors.Is(err, redis.ErrNil):
			continue
		case err != nil:
			return 0, err
		case state == markDone:
			return Duplicate, nil
		default:
			return InFlight, nil
		}
	}
	return InFlight, nil
}

// Process runs fn when this delivery claims the event. A failing fn releases
// the lease so the next redelivery can retry at once.
func (m *Manager) Process(ctx context.Context, consumer string, eventID uuid.UUID, fn func(context.Context) error) (Outcome, error) {
	outcome, err := m.Claim(ctx, consumer, eventID)
	if err != nil || outcome != Claimed {
		return outcome, err
	}
	if err := fn(ctx); err != nil {
		if relErr := m.Release(ctx, consumer, eventID); relErr != nil {
			return Claimed, errors.Join(err, fmt.Errorf("release idempotency lease: %w", relErr))
		}
		return Claimed, err
	}
	if err := m.store.Set(ctx, m.store.EventKey(consumer, eventID.String()), markDone, m.doneTTL); err != nil {
		return Claimed, fmt.Errorf("%w: %v", ErrMarkDone, err)
	}
	return Claimed, nil
}

// Release drops whatever mark is held for eventID.
func (m *Manager) Release(ctx context.Context, consumer string, eventID uuid.UUID) error {
	key, err := m.key(consumer, eventID)
	if err != nil {
		return err
	}
	return m.store.Del(ctx, key)
}

func (m *Manager) key(consumer string, eventID uuid.UUID) (string, error) {
	if consumer == "" {
		return "", errors.New("consumer name is required")
	}
	if eventID == uuid.Nil {
		return "", errors.New("event id is required")
	}
	return m.store.EventKey(consumer, eventID.String()), nil
}
