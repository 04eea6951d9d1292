package storage

import (
	"context"
	"errors"
)

// ErrNotFound reports a missing blob. Callers treat it as an expected
// outcome, not a fault.
var ErrNotFound = errors.New("blob not found")

// Store persists raw audio bytes per user, keyed by filename. It carries no
// business logic; filename uniqueness is the caller's responsibility and
// Save overwrites silently on collision.
type Store interface {
	Save(ctx context.Context, owner string, data []byte, filename string) (string, error)
	PathFor(owner, filename string) string
	Fetch(ctx context.Context, owner, filename string) ([]byte, error)
	Delete(ctx context.Context, owner, filename string) (bool, error)
}
