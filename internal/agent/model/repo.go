package model

import (
	"context"
	"errors"
	"time"
)

// ErrSessionNotFound is returned by Delete when no state exists for the key.
var ErrSessionNotFound = errors.New("session not found")

// StateRepository persists one ChatState snapshot per session.
type StateRepository interface {
	// Load retrieves the state for a session; an absent key yields a fresh
	// empty state, never an error.
	Load(ctx context.Context, sessionID string) (*ChatState, error)

	// Save replaces the stored snapshot in a single write.
	Save(ctx context.Context, sessionID string, state *ChatState) error

	// Delete erases the stored snapshot. Returns ErrSessionNotFound when no
	// state exists for the session.
	Delete(ctx context.Context, sessionID string) error
}

// UnlockFunc releases a held session lock.
type UnlockFunc func(ctx context.Context) error

// SessionLocker serializes turns per session: a concurrent turn for the same
// session blocks until the prior one completes or its context expires.
type SessionLocker interface {
	Lock(ctx context.Context, sessionID string, ttl time.Duration) (UnlockFunc, error)
}
