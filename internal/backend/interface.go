// Package backend opens the ledger store selected by DATA_BACKEND.
package backend

import (
	"context"

	"walletstats/internal/ledger"
)

// Backend is a ledger store that also accepts inserts, so the seed command can
// fill it.
type Backend interface {
	ledger.Store
	ledger.Writer
}

// BackendResult pairs an opened backend with the func that releases it.
type BackendResult struct {
	Backend Backend
	Cleanup func() error
}

// Close releases the backend. Safe on a nil result or a backend without resources.
func (r *BackendResult) Close() error {
	if r == nil || r.Cleanup == nil {
		return nil
	}
	return r.Cleanup()
}

type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config carries the settings of the selected backend only.
type Config struct {
	Type BackendType

	SQLiteDBPath   string
	PostgresDSN    string
	MemorySeedFile string // empty starts with an empty ledger
}

type BackendType string

const (
	MemoryBackend   BackendType = "memory"
	SQLiteBackend   BackendType = "sqlite"
	PostgresBackend BackendType = "postgres"
)

func (bt BackendType) String() string {
	return string(bt)
}

func (bt BackendType) IsValid() bool {
	for _, known := range Types() {
		if bt == known {
			return true
		}
	}
	return false
}
