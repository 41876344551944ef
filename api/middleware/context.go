package middleware

import (
	"context"

	"github.com/google/uuid"

	"github.com/angelmondragon/quoteengine-backend/pkg/enums"
	"github.com/angelmondragon/quoteengine-backend/pkg/outbox"
)

// Principal is the authenticated caller of a request.
type Principal struct {
	UserID uuid.UUID
	Role   enums.UserRole
}

// Actor is the principal as recorded on domain events.
func (p Principal) Actor() outbox.ActorRef {
	return outbox.ActorRef{UserID: p.UserID, Role: p.Role.String()}
}

type principalKey struct{}

// WithPrincipal stores p on the context and registers it as the actor for any
// domain event emitted while serving the request.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = context.WithValue(ctx, principalKey{}, p)
	if p.UserID != uuid.Nil {
		ctx = outbox.WithActor(ctx, p.Actor())
	}
	return ctx
}

func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	if ctx == nil {
		return Principal{}, false
	}
	p, ok := ctx.Value(principalKey{}).(Principal)
	return p, ok
}

// UserIDFromContext is empty for anonymous requests.
func UserIDFromContext(ctx context.Context) string {
	if p, ok := PrincipalFromContext(ctx); ok && p.UserID != uuid.Nil {
		return p.UserID.String()
	}
	return ""
}

func RoleFromContext(ctx context.Context) enums.UserRole {
	p, _ := PrincipalFromContext(ctx)
	return p.Role
}
