// Package nonce issues single-use verification tokens bound to an action.
package nonce

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DefaultTTL is how long an issued token stays valid.
const DefaultTTL = 24 * time.Hour

// Store persists issued tokens.
type Store interface {
	InsertNonce(ctx context.Context, token, action string, expiresAt time.Time) error
	ConsumeNonce(ctx context.Context, token, action string) (bool, error)
}

// Manager issues and verifies tokens.
type Manager struct {
	store Store
	ttl   time.Duration
	now   func() time.Time
}

// NewManager creates a token manager. A non-positive ttl uses DefaultTTL.
func NewManager(store Store, ttl time.Duration) *Manager {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Manager{store: store, ttl: ttl, now: time.Now}
}

// Issue creates a token for action.
func (m *Manager) Issue(ctx context.Context, action string) (string, error) {
	token := uuid.NewString()
	if err := m.store.InsertNonce(ctx, token, action, m.now().Add(m.ttl)); err != nil {
		return "", fmt.Errorf("issue nonce for %s: %w", action, err)
	}
	return token, nil
}

// Verify reports whether token was issued for action and is still valid.
// A valid token is consumed and cannot be verified again.
func (m *Manager) Verify(ctx context.Context, action, token string) (bool, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return false, nil
	}
	if _, err := uuid.Parse(token); err != nil {
		return false, nil
	}
	ok, err := m.store.ConsumeNonce(ctx, token, action)
	if err != nil {
		return false, fmt.Errorf("verify nonce for %s: %w", action, err)
	}
	return ok, nil
}
