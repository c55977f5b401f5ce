package auth

import (
	"context"
	"strings"

	"gitlab.ozon.dev/pupkingeorgij/foodshare/internal/domain"
)

type actorKey struct{}

func WithActor(ctx context.Context, actor domain.Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

func ActorFrom(ctx context.Context) (domain.Actor, bool) {
	actor, ok := ctx.Value(actorKey{}).(domain.Actor)
	return actor, ok
}

// BearerToken extracts the token from an "Authorization: Bearer <token>" value.
func BearerToken(header string) (string, error) {
	if header == "" {
		return "", domain.Errorf(domain.KindUnauthenticated, "authorization header is missing")
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", domain.Errorf(domain.KindUnauthenticated, "authorization header must be 'Bearer <token>'")
	}
	return strings.TrimSpace(parts[1]), nil
}
