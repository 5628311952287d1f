// Package store opens the types.Store selected by a types.Config. It is the
// public entry point to the document backends, which stay internal.
//
// Example:
//
//	s, err := store.Open(types.Config{
//	    Backend: types.BackendSQLite,
//	    DataDir: "/var/lib/stacks",
//	})
//	if err != nil {
//	    return err
//	}
//	defer s.Close()
package store

import (
	"fmt"

	"github.com/mesh-intelligence/stacks/internal/docstore"
	"github.com/mesh-intelligence/stacks/internal/jsonl"
	"github.com/mesh-intelligence/stacks/internal/memory"
	"github.com/mesh-intelligence/stacks/internal/postgres"
	"github.com/mesh-intelligence/stacks/internal/sqlite"
	"github.com/mesh-intelligence/stacks/pkg/types"
)

// Open validates cfg and returns a Store over the configured backend.
func Open(cfg types.Config) (types.Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	var (
		backend docstore.Backend
		err     error
	)
	switch cfg.Backend {
	case types.BackendMemory:
		backend = memory.NewBackend()
	case types.BackendJSONL:
		backend, err = jsonl.NewBackend(cfg.DataDir)
	case types.BackendSQLite:
		backend, err = sqlite.NewBackend(cfg.DataDir)
	case types.BackendPostgres:
		backend, err = postgres.NewBackend(cfg.PostgresDSN)
	}
	if err != nil {
		return nil, fmt.Errorf("opening %s backend: %w", cfg.Backend, err)
	}
	return docstore.New(backend), nil
}
