package controller

import (
	"context"
	"net/http"
	"strings"
	"time"

	"designden/internal/domain"
	"designden/internal/dto"
)

const (
	HeaderActorID   = "X-Actor-Id"
	HeaderActorRole = "X-Actor-Role"
)

type actorKey struct{}

// Identity trusts the gateway headers and rejects requests without a known
// role.
func Identity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(HeaderActorID))
		role, ok := domain.ParseRole(strings.ToLower(strings.TrimSpace(r.Header.Get(HeaderActorRole))))
		if id == "" || !ok {
			writeJSON(nil, w, http.StatusUnauthorized, dto.ErrorResponse{
				Status:    http.StatusUnauthorized,
				Message:   "missing or unknown caller identity",
				Code:      "UNAUTHORIZED",
				Timestamp: time.Now().UTC(),
			})
			return
		}

		ctx := WithActor(r.Context(), domain.Actor{ID: id, Role: role})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func WithActor(ctx context.Context, actor domain.Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

func ActorFrom(ctx context.Context) (domain.Actor, bool) {
	actor, ok := ctx.Value(actorKey{}).(domain.Actor)
	return actor, ok
}
