package archive

import (
	"context"
	"fmt"
)

// Store persists run records. Implementations must be safe for concurrent
// use and must be initialized before the first save or load.
type Store interface {
	Init(ctx context.Context) error
	SaveRun(ctx context.Context, rec RunRecord) error
	GetRun(ctx context.Context, id string) (RunRecord, bool, error)
	// ListRuns returns every archived record ordered by creation time, with
	// per-chain results stripped to keep listings light.
	ListRuns(ctx context.Context) ([]RunRecord, error)
	Close() error
}

// NewStore selects a backend by name. An empty kind defaults to memory.
func NewStore(kind, path string) (Store, error) {
	switch kind {
	case "", "memory":
		return NewMemoryStore(), nil
	case "sqlite":
		return NewSQLiteStore(path), nil
	default:
		return nil, fmt.Errorf("unsupported archive backend: %s", kind)
	}
}
