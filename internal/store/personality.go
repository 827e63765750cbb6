package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// PersonalityState returns the persisted hub state name, or "" when none has
// been saved yet.
func (s *Store) PersonalityState(ctx context.Context) (string, error) {
	var state string
	err := s.db.QueryRowContext(ctx,
		`SELECT state FROM personality_state WHERE id = 1`).Scan(&state)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read personality state: %w", err)
	}
	return state, nil
}

// SavePersonalityState persists the hub state name.
func (s *Store) SavePersonalityState(ctx context.Context, state string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO personality_state (id, state, updated_utc) VALUES (1, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
		    state = excluded.state,
		    updated_utc = excluded.updated_utc`,
		state, nowUTC())
	if err != nil {
		return fmt.Errorf("failed to save personality state: %w", err)
	}
	return nil
}
