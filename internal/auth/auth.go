package auth

import (
	"context"
	"errors"
)

var (
	ErrMissingToken = errors.New("missing bearer token")
	ErrInvalidToken = errors.New("invalid session token")
)

// User is the identity resolved from a verified session token.
type User struct {
	ID        string `json:"id"`
	SessionID string `json:"session_id,omitempty"`
}

type Authenticator interface {
	Authenticate(token string) (*User, error)
}

type userKey struct{}

func WithUser(ctx context.Context, u *User) context.Context {
	return context.WithValue(ctx, userKey{}, u)
}

// UserFrom returns the user stored by WithUser, or nil.
func UserFrom(ctx context.Context) *User {
	u, _ := ctx.Value(userKey{}).(*User)
	return u
}
