// Package sqlite provides the public entry point for the SQLite telemetry
// store. It exposes the factory function while keeping implementation
// details internal.
package sqlite

import (
	"github.com/agentdeck/statsdb/internal/sqlite"
	"github.com/agentdeck/statsdb/pkg/types"
)

// New creates an unopened store. Call Initialize before any data operation.
//
// Example:
//
//	store, err := sqlite.New(types.Config{DataDir: ".statsdb"})
//	if err != nil {
//	    return err
//	}
//	if err := store.Initialize(); err != nil {
//	    return err
//	}
//	defer store.Close()
func New(config types.Config) (types.Store, error) {
	store, err := sqlite.NewStore(config)
	if err != nil {
		return nil, err
	}
	return store, nil
}
