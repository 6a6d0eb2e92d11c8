// Package auth authenticates API requests with bearer tokens and carries the
// authenticated user in the request context.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/hashicorp-forge/archivist/pkg/models"
)

var (
	// ErrMissingToken is returned when a request has no bearer token.
	ErrMissingToken = errors.New("missing bearer token")

	// ErrInvalidToken is returned for unknown, expired or revoked tokens.
	ErrInvalidToken = errors.New("invalid or expired token")
)

type contextKey struct{}

var userKey = contextKey{}

// WithUser returns a copy of ctx carrying the user.
func WithUser(ctx context.Context, u *models.User) context.Context {
	return context.WithValue(ctx, userKey, u)
}

// GetUser returns the user stored in ctx.
func GetUser(ctx context.Context) (*models.User, bool) {
	u, ok := ctx.Value(userKey).(*models.User)
	return u, ok && u != nil
}

// MustGetUser returns the user stored in ctx and panics if there is none. It
// is only safe to use behind the authentication middleware.
func MustGetUser(ctx context.Context) *models.User {
	u, ok := GetUser(ctx)
	if !ok {
		panic("auth: no user in context")
	}
	return u
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) (string, error) {
	if header == "" {
		return "", ErrMissingToken
	}
	if !strings.HasPrefix(header, "Bearer ") {
		return "", fmt.Errorf("invalid authorization header format: %w", ErrMissingToken)
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	if token == "" {
		return "", ErrMissingToken
	}
	return token, nil
}

// Authenticate returns the user the token belongs to.
func Authenticate(db *gorm.DB, token string) (*models.User, *models.APIToken, error) {
	var t models.APIToken
	if err := t.GetByToken(db, token); errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, ErrInvalidToken
	} else if err != nil {
		return nil, nil, fmt.Errorf("error looking up token: %w", err)
	}

	if !t.IsValid() || t.User == nil {
		return nil, &t, ErrInvalidToken
	}
	return t.User, &t, nil
}
