// Package store declares the contract a feature layer backend implements.
// The sqlite, postgres and memory backends live in the module; any other
// type that satisfies Store can be handed to a Syncer or Reconciler.
package store

import (
	"context"
	"time"

	"github.com/agentstation/featuresync/pkg/features"
)

// Store is a feature layer that can be read and edited transactionally.
type Store interface {
	// Load returns every feature of the layer keyed by project name.
	Load(ctx context.Context) (*features.Dataset, error)

	// Edit runs fn inside one transaction. The transaction commits when fn
	// returns nil and rolls back otherwise, leaving the layer untouched.
	Edit(ctx context.Context, fn func(Session) error) error

	// Close releases the underlying connection.
	Close() error
}

// Session is the write side of an open edit.
type Session interface {
	// Delete removes every row whose key is in keys and returns the number of
	// rows removed.
	Delete(ctx context.Context, keys []string) (int, error)

	// Append inserts the features and returns the number of rows written.
	Append(ctx context.Context, fs []features.Feature) (int, error)
}

// Stager is a workspace that can hold a staged copy of the source data.
type Stager interface {
	// Replace overwrites the layer with the dataset.
	Replace(ctx context.Context, ds *features.Dataset) error
}

// Migrator applies schema migrations to a store.
type Migrator interface {
	Migrate(ctx context.Context) ([]Migration, error)
}

// Migration describes one applied schema migration.
type Migration struct {
	Version  int64         `json:"version" yaml:"version"`
	Source   string        `json:"source" yaml:"source"`
	Duration time.Duration `json:"duration" yaml:"duration"`
}
