package remote

import (
	"context"

	"study-cache/internal/devicestore"
)

const tokenKey = "auth_token"

// TokenSource supplies the bearer credential for backend calls.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// StoreTokenSource reads the credential the login flow saved to the
// device store. It returns ErrNotAuthenticated when none is present so
// callers can short-circuit before any network I/O.
type StoreTokenSource struct {
	store devicestore.Store
}

// NewStoreTokenSource constructs a StoreTokenSource.
func NewStoreTokenSource(store devicestore.Store) *StoreTokenSource {
	return &StoreTokenSource{store: store}
}

func (s *StoreTokenSource) Token(ctx context.Context) (string, error) {
	token, err := s.store.Get(ctx, tokenKey)
	if err != nil {
		return "", err
	}
	if token == "" {
		return "", ErrNotAuthenticated
	}
	return token, nil
}

// SaveToken persists the credential after a successful login.
func SaveToken(ctx context.Context, store devicestore.Store, token string) error {
	return store.Set(ctx, tokenKey, token)
}

// ClearToken removes the credential on logout.
func ClearToken(ctx context.Context, store devicestore.Store) error {
	return store.Remove(ctx, tokenKey)
}
