package outbox

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/quoteengine-backend/pkg/db/dbtest"
	"github.com/angelmondragon/quoteengine-backend/pkg/enums"
	"github.com/angelmondragon/quoteengine-backend/pkg/outbox/payloads"
)

func TestEmitTakesActorFromContext(t *testing.T) {
	conn := dbtest.Open(t).DB()
	svc := NewService(NewRepository(conn), nil)

	projectID := uuid.New()
	actor := ActorRef{UserID: uuid.New(), Role: "seller"}
	ctx := WithActor(context.Background(), actor)

	require.NoError(t, svc.Emit(ctx, conn, DomainEvent{
		EventType:     enums.EventProjectStatusChanged,
		AggregateType: enums.AggregateProject,
		AggregateID:   projectID,
		Data: payloads.ProjectStatusChangedEvent{
			ProjectID:      projectID,
			PreviousStatus: enums.ProjectStatusDraft,
			Status:         enums.ProjectStatusActive,
		},
	}))

	rows, err := NewRepository(conn).ListByAggregate(context.Background(), projectID)
	require.NoError(t, err)
	require.Len(t, rows, 1)

	var env PayloadEnvelope
	require.NoError(t, json.Unmarshal(rows[0].Payload, &env))
	assert.Equal(t, CurrentVersion, env.Version)
	assert.NotEmpty(t, env.EventID)
	assert.False(t, env.OccurredAt.IsZero())
	require.NotNil(t, env.Actor)
	assert.Equal(t, actor, *env.Actor)
}

func TestEmitExplicitActorWins(t *testing.T) {
	conn := dbtest.Open(t).DB()
	svc := NewService(NewRepository(conn), nil)

	quoteID := uuid.New()
	explicit := ActorRef{UserID: uuid.New(), Role: "admin"}
	ctx := WithActor(context.Background(), ActorRef{UserID: uuid.New(), Role: "seller"})

	require.NoError(t, svc.Emit(ctx, conn, DomainEvent{
		EventType:     enums.EventQuoteDeleted,
		AggregateType: enums.AggregateQuote,
		AggregateID:   quoteID,
		Actor:         &explicit,
		Data:          payloads.QuoteDeletedEvent{QuoteID: quoteID},
	}))

	rows, err := NewRepository(conn).ListByAggregate(context.Background(), quoteID)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	var env PayloadEnvelope
	require.NoError(t, json.Unmarshal(rows[0].Payload, &env))
	assert.Equal(t, explicit, *env.Actor)
}

func TestEmitRejectsIncompleteEvents(t *testing.T) {
	conn := dbtest.Open(t).DB()
	svc := NewService(NewRepository(conn), nil)
	ctx := context.Background()

	assert.Error(t, svc.Emit(ctx, nil, DomainEvent{}))
	assert.Error(t, svc.Emit(ctx, conn, DomainEvent{EventType: "nope", AggregateType: enums.AggregateQuote, AggregateID: uuid.New(), Data: struct{}{}}))
	assert.Error(t, svc.Emit(ctx, conn, DomainEvent{EventType: enums.EventQuoteDeleted, AggregateType: enums.AggregateQuote, Data: struct{}{}}))
	assert.Error(t, svc.Emit(ctx, conn, DomainEvent{EventType: enums.EventQuoteDeleted, AggregateType: enums.AggregateQuote, AggregateID: uuid.New()}))
}

func TestActorFromContextIgnoresAnonymous(t *testing.T) {
	assert.Nil(t, ActorFromContext(context.Background()))
	assert.Nil(t, ActorFromContext(WithActor(context.Background(), ActorRef{Role: "viewer"})))
}
