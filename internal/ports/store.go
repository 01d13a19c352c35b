package ports

import (
	"context"
	"errors"

	"coup/internal/domain"
)

var (
	// ErrSessionNotFound is returned when no snapshot exists for the ID.
	ErrSessionNotFound = errors.New("session snapshot not found")
	// ErrVersionConflict is returned when a save loses an optimistic
	// concurrency race; the caller must reload before retrying.
	ErrVersionConflict = errors.New("session version conflict")
)

// SessionStore persists session snapshots with optimistic concurrency.
// Implementations must reject stale writes rather than overwrite.
type SessionStore interface {
	// Load returns the stored session and its current version stamp.
	Load(ctx context.Context, sessionID string) (*domain.Session, string, error)

	// Save writes the session if the stored version still matches
	// expectedVersion ("" for a first write) and returns the new version.
	Save(ctx context.Context, session *domain.Session, expectedVersion string) (string, error)

	// Delete removes the snapshot at session teardown.
	Delete(ctx context.Context, sessionID string) error
}
