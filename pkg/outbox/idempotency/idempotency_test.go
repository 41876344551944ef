package idempotency

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/quoteengine-backend/pkg/redis"
)

type entry struct {
	value string
	ttl   time.Duration
}

// memStore is a map-backed Store. onGet runs before each Get.
type memStore struct {
	data   map[string]entry
	onGet  func(*memStore)
	setErr error
	nxErr  error
}

func newMemStore() *memStore {
	return &memStore{data: map[string]entry{}}
}

func (m *memStore) SetNX(_ context.Context, key string, value any, ttl time.Duration) (bool, error) {
	if m.nxErr != nil {
		return false, m.nxErr
	}
	if _, ok := m.data[key]; ok {
		return false, nil
	}
	m.data[key] = entry{value: value.(string), ttl: ttl}
	return true, nil
}

func (m *memStore) Set(_ context.Context, key string, value any, ttl time.Duration) error {
	if m.setErr != nil {
		return m.setErr
	}
	m.data[key] = entry{value: value.(string), ttl: ttl}
	return nil
}

func (m *memStore) Get(_ context.Context, key string) (string, error) {
	if m.onGet != nil {
		m.onGet(m)
	}
	e, ok := m.data[key]
	if !ok {
		return "", redis.ErrNil
	}
	return e.value, nil
}

func (m *memStore) Del(_ context.Context, keys ...string) error {
	for _, k := range keys {
		delete(m.data, k)
	}
	return nil
}

func (m *memStore) EventKey(consumer, eventID string) string {
	return "qe:evt:" + consumer + ":" + eventID
}

const consumer = "analytics"

func newManager(t *testing.T, store *memStore) *Manager {
	t.Helper()
	m, err := NewManager(store, 24*time.Hour, time.Minute)
	require.NoError(t, err)
	return m
}

func TestClaimTakesLeaseThenReportsInFlight(t *testing.T) {
	store := newMemStore()
	m := newManager(t, store)
	id := uuid.New()

	outcome, err := m.Claim(context.Background(), consumer, id)
	require.NoError(t, err)
	assert.Equal(t, Claimed, outcome)

	key := "qe:evt:analytics:" + id.String()
	assert.Equal(t, entry{value: markProcessing, ttl: time.Minute}, store.data[key])

	outcome, err = m.Claim(context.Background(), consumer, id)
	require.NoError(t, err)
	assert.Equal(t, InFlight, outcome)
}

func TestProcessMarksDoneAndSkipsRedelivery(t *testing.T) {
	store := newMemStore()
	m := newManager(t, store)
	id := uuid.New()

	calls := 0
	handle := func(context.Context) error { calls++; return nil }

	outcome, err := m.Process(context.Background(), consumer, id, handle)
	require.NoError(t, err)
	assert.Equal(t, Claimed, outcome)
	assert.Equal(t, entry{value: markDone, ttl: 24 * time.Hour}, store.data["qe:evt:analytics:"+id.String()])

	outcome, err = m.Process(context.Background(), consumer, id, handle)
	require.NoError(t, err)
	assert.Equal(t, Duplicate, outcome)
	assert.Equal(t, 1, calls)
}

func TestProcessReleasesLeaseOnFailure(t *testing.T) {
	store := newMemStore()
	m := newManager(t, store)
	id := uuid.New()
	handlerErr := errors.New("bigquery unavailable")

	_, err := m.Process(context.Background(), consumer, id, func(context.Context) error { return handlerErr })
	assert.ErrorIs(t, err, handlerErr)
	assert.Empty(t, store.data)

	outcome, err := m.Claim(context.Background(), consumer, id)
	require.NoError(t, err)
	assert.Equal(t, Claimed, outcome)
}

func TestProcessReportsUnwrittenDoneMark(t *testing.T) {
	store := newMemStore()
	store.setErr = errors.New("readonly replica")
	m := newManager(t, store)

	_, err := m.Process(context.Background(), consumer, uuid.New(), func(context.Context) error { return nil })
	assert.ErrorIs(t, err, ErrMarkDone)
}

func TestClaimRetriesWhenLeaseExpiresMidCheck(t *testing.T) {
	store := newMemStore()
	m := newManager(t, store)
	id := uuid.New()
	key := "qe:evt:analytics:" + id.String()
	store.data[key] = entry{value: markProcessing}
	store.onGet = func(s *memStore) {
		delete(s.data, key)
		s.onGet = nil
	}

	outcome, err := m.Claim(context.Background(), consumer, id)
	require.NoError(t, err)
	assert.Equal(t, Claimed, outcome)
}

func TestClaimStoreErrors(t *testing.T) {
	store := newMemStore()
	store.nxErr = errors.New("redis down")
	m := newManager(t, store)

	_, err := m.Claim(context.Background(), consumer, uuid.New())
	assert.Error(t, err)

	_, err = m.Claim(context.Background(), "", uuid.New())
	assert.Error(t, err)
	_, err = m.Claim(context.Background(), consumer, uuid.Nil)
	assert.Error(t, err)
}

func TestNewManagerValidation(t *testing.T) {
	_, err := NewManager(nil, time.Hour, 0)
	assert.Error(t, err)
	_, err = NewManager(newMemStore(), -time.Second, 0)
	assert.Error(t, err)

	m, err := NewManager(newMemStore(), time.Hour, 0)
	require.NoError(t, err)
	assert.Equal(t, defaultLease, m.lease)
}

func TestOutcomeString(t *testing.T) {
	assert.Equal(t, "in_flight", InFlight.String())
	assert.Equal(t, "outcome(9)", Outcome(9).String())
}
