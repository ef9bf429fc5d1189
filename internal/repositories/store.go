// Package repositories provides the persistence layer: a durable key/value
// store holding cart snapshots, wallet state, transaction history and the
// last completed order, keyed per session.
package repositories

import (
	"context"
	"errors"
	"fmt"

	"tiffin/internal/config"
)

// ErrKeyNotFound is returned when a key has never been written. First-run
// absence is expected; callers fall back to defaults instead of failing.
var ErrKeyNotFound = errors.New("key not found")

// Store is a durable key/value store. Writes are synchronous; once Set
// returns, a later Get in a new process sees the value.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Storage backends selectable via STORAGE_BACKEND.
const (
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
	BackendMemory   = "memory"
)

// NewStore builds the store for the configured backend.
func NewStore() (Store, error) {
	backend := config.GetEnv("STORAGE_BACKEND", BackendMemory)
	switch backend {
	case BackendPostgres:
		return NewPostgresStore()
	case BackendRedis:
		return NewRedisStore()
	case BackendMemory:
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", backend)
	}
}

// Key helpers keep the namespace consistent across services. Every piece of
// persisted state is scoped to a session id.

func CartKey(sessionID string) string {
	return "session:" + sessionID + ":cart"
}

func WalletKey(sessionID string) string {
	return "session:" + sessionID + ":wallet"
}

func HistoryKey(sessionID string) string {
	return "session:" + sessionID + ":wallet:history"
}

func LastOrderKey(sessionID string) string {
	return "session:" + sessionID + ":last_order"
}

func PendingCheckoutKey(sessionID string) string {
	return "session:" + sessionID + ":checkout:pending"
}
