// Package registry opens stores by data source name.
// This package is separate from store to avoid circular dependencies.
package registry

import (
	"context"
	"fmt"
	"sort"

	"github.com/agentstation/featuresync/internal/store"
	"github.com/agentstation/featuresync/internal/store/memory"
	"github.com/agentstation/featuresync/internal/store/postgres"
	"github.com/agentstation/featuresync/internal/store/sqlite"
	"github.com/agentstation/featuresync/pkg/errors"
	"github.com/agentstation/featuresync/pkg/logging"
)

// Opener creates a store for the backend specific part of a DSN.
type Opener func(ctx context.Context, location string, opts ...store.Option) (store.Store, error)

// registry maps DSN schemes to their openers
var registry = map[string]Opener{
	store.SchemeSQLite: func(ctx context.Context, location string, opts ...store.Option) (store.Store, error) {
		s, err := sqlite.Open(ctx, location, opts...)
		if err != nil {
			return nil, err
		}
		return s, nil
	},
	store.SchemePostgres: func(ctx context.Context, location string, opts ...store.Option) (store.Store, error) {
		s, err := postgres.Open(ctx, location, opts...)
		if err != nil {
			return nil, err
		}
		return s, nil
	},
	store.SchemeMemory: func(_ context.Context, _ string, opts ...store.Option) (store.Store, error) {
		return memory.New(opts...), nil
	},
}

// Open parses dsn and opens the matching backend.
func Open(ctx context.Context, dsn string, opts ...store.Option) (store.Store, error) {
	parsed, err := store.ParseDSN(dsn)
	if err != nil {
		return nil, &errors.ValidationError{
			Field:   "dsn",
			Value:   dsn,
			Message: err.Error(),
		}
	}
	open, ok := registry[parsed.Scheme]
	if !ok {
		return nil, &errors.ValidationError{
			Field:   "dsn",
			Value:   parsed.Scheme,
			Message: fmt.Sprintf("unsupported backend: %s", parsed.Scheme),
		}
	}
	logging.FromContext(ctx).Debug().Str("dsn", parsed.String()).Msg("Opening store")
	return open(ctx, parsed.Location, opts...)
}

// Has checks if a scheme has a backend.
func Has(scheme string) bool {
	_, ok := registry[scheme]
	return ok
}

// List returns all schemes that have backends.
func List() []string {
	schemes := make([]string, 0, len(registry))
	for s := range registry {
		schemes = append(schemes, s)
	}
	sort.Strings(schemes)
	return schemes
}
