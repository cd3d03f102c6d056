package auth

import (
	"context"

	"github.com/aninishioka/craft-app/domain"
)

const (
	userKey privateKey = "user"
)

type privateKey string

// SetUser stores the authenticated user in the request context.
func SetUser(ctx context.Context, user *domain.User) context.Context {
	return context.WithValue(ctx, userKey, user)
}

// GetUser returns the authenticated user from the request context, or
// nil for anonymous requests.
func GetUser(ctx context.Context) *domain.User {
	if temp := ctx.Value(userKey); temp != nil {
		if user, ok := temp.(*domain.User); ok {
			return user
		}
	}
	return nil
}
