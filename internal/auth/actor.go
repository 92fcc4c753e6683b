package auth

import (
	"context"

	"github.com/google/uuid"
)

type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

// Actor is the authenticated principal of a request.
type Actor struct {
	UserID uuid.UUID
	Email  string
	Role   Role
}

func (a Actor) IsAdmin() bool { return a.Role == RoleAdmin }

type contextKey string

const actorKey contextKey = "actor"

// WithActor stores the actor on ctx (called by the auth middleware).
func WithActor(ctx context.Context, a Actor) context.Context {
	return context.WithValue(ctx, actorKey, a)
}

// ActorFromContext returns the request actor; ok is false for anonymous requests.
func ActorFromContext(ctx context.Context) (Actor, bool) {
	a, ok := ctx.Value(actorKey).(Actor)
	if !ok || a.UserID == uuid.Nil {
		return Actor{}, false
	}
	return a, true
}
