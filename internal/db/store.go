package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// MaxNoncesPerAction caps the unexpired tokens kept for one action. Issuing
// past the cap evicts the tokens closest to expiry.
const MaxNoncesPerAction = 64

// Store provides persistence for options and verification tokens.
type Store struct {
	db        *sql.DB
	now       func() time.Time
	maxNonces int
}

// NewStore creates a store over an opened database.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db, now: time.Now, maxNonces: MaxNoncesPerAction}
}

// GetOption returns the value stored under name. ok is false when unset.
func (s *Store) GetOption(ctx context.Context, name string) (value string, ok bool, err error) {
	row := s.db.QueryRowContext(ctx, `SELECT value FROM options WHERE name=?`, name)
	if err := row.Scan(&value); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("read option %q: %w", name, err)
	}
	return value, true, nil
}

// SetOption inserts or replaces the value stored under name.
func (s *Store) SetOption(ctx context.Context, name, value string) error {
	if _, err := s.db.ExecContext(ctx, `INSERT INTO options(name, value, updated_at) VALUES(?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET value=excluded.value, updated_at=excluded.updated_at`,
		name, value, s.now().UTC().Unix()); err != nil {
		return fmt.Errorf("write option %q: %w", name, err)
	}
	return nil
}

// InsertNonce records token for action until expiresAt. Expired tokens are
// pruned and at most maxNonces tokens are kept for the action.
func (s *Store) InsertNonce(ctx context.Context, token, action string, expiresAt time.Time) error {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin insert nonce: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM nonces WHERE expires_at<=?`, s.now().UTC().Unix()); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("prune nonces: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO nonces(token, action, expires_at) VALUES(?, ?, ?)`,
		token, action, expiresAt.UTC().Unix()); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("insert nonce: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM nonces WHERE action=? AND token NOT IN (
		SELECT token FROM nonces WHERE action=? ORDER BY expires_at DESC, rowid DESC LIMIT ?)`,
		action, action, s.maxNonces); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("cap nonces: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit insert nonce: %w", err)
	}
	return nil
}

// ConsumeNonce deletes an unexpired token issued for action and reports
// whether one was found.
func (s *Store) ConsumeNonce(ctx context.Context, token, action string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM nonces WHERE token=? AND action=? AND expires_at>?`,
		token, action, s.now().UTC().Unix())
	if err != nil {
		return false, fmt.Errorf("consume nonce: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("consume nonce: %w", err)
	}
	return n == 1, nil
}
