// Package settings stores the completion API key behind a verified save form.
package settings

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
)

// Names of the stored option and its save form.
const (
	OptionAPIKey = "openai_api_key"
	NonceField   = "openai_api_key_nonce"
	SaveAction   = "save_openai_api_key"
)

// ErrInvalidNonce is returned when a save is attempted without a valid token.
var ErrInvalidNonce = errors.New("settings: invalid or expired verification token")

// OptionStore persists named string options.
type OptionStore interface {
	GetOption(ctx context.Context, name string) (string, bool, error)
	SetOption(ctx context.Context, name, value string) error
}

// Verifier issues and checks single-use tokens.
type Verifier interface {
	Issue(ctx context.Context, action string) (string, error)
	Verify(ctx context.Context, action, token string) (bool, error)
}

// Settings exposes the API key option.
type Settings struct {
	store  OptionStore
	nonces Verifier
}

// New creates the settings facade.
func New(store OptionStore, nonces Verifier) *Settings {
	return &Settings{store: store, nonces: nonces}
}

// APIKey returns the stored key, or "" when none has been saved.
func (s *Settings) APIKey(ctx context.Context) (string, error) {
	value, _, err := s.store.GetOption(ctx, OptionAPIKey)
	if err != nil {
		return "", fmt.Errorf("load api key: %w", err)
	}
	return value, nil
}

// NewSaveToken issues the verification token rendered into the save form.
func (s *Settings) NewSaveToken(ctx context.Context) (string, error) {
	return s.nonces.Issue(ctx, SaveAction)
}

// SaveAPIKey stores value if token verifies for the save action.
// The stored key is left unchanged otherwise.
func (s *Settings) SaveAPIKey(ctx context.Context, token, value string) error {
	ok, err := s.nonces.Verify(ctx, SaveAction, token)
	if err != nil {
		return err
	}
	if !ok {
		log.Warn().Msg("api key save rejected: invalid verification token")
		return ErrInvalidNonce
	}
	return s.SetAPIKey(ctx, value)
}

// SetAPIKey stores value without token verification, for trusted local callers.
func (s *Settings) SetAPIKey(ctx context.Context, value string) error {
	clean := SanitizeTextField(value)
	if err := s.store.SetOption(ctx, OptionAPIKey, clean); err != nil {
		return fmt.Errorf("save api key: %w", err)
	}
	log.Info().Int("length", len(clean)).Msg("api key saved")
	return nil
}
