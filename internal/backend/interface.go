package backend

import (
	"context"
	"time"

	"weekbudget/internal/cache"
	"weekbudget/internal/ledger"
	"weekbudget/internal/storage"
)

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// Pinger reports whether a dependency is reachable.
type Pinger func(ctx context.Context) error

// BackendResult contains what the ledger needs plus the resources to release.
type BackendResult struct {
	Store storage.KeyValueStore
	// Publisher is nil when AMQP is not configured or unreachable.
	Publisher ledger.Publisher
	// Cache is set when the store is wrapped in a read cache.
	Cache   *cache.CachedStore
	Ready   Pinger
	Cleanup CleanupFunc
}

// Factory creates backends based on configuration
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds configuration for backend creation
type Config struct {
	Type BackendType

	SQLiteDBPath string

	CacheEnabled bool
	CacheTTL     time.Duration
	CacheSize    int

	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string
}

// BackendType represents the type of backend
type BackendType string

const (
	SQLiteBackend BackendType = "sqlite"
	MemoryBackend BackendType = "memory"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case SQLiteBackend, MemoryBackend:
		return true
	default:
		return false
	}
}
