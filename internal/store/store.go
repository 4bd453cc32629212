// Package store holds the options, data source names and audit helpers shared
// by the built-in backends: the authoritative target that reconciliation
// edits and the scratch workspace that receives the staged source data.
package store

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/agentstation/utc"
	"github.com/google/uuid"

	"github.com/agentstation/featuresync/pkg/constants"
	"github.com/agentstation/featuresync/pkg/features"
	layer "github.com/agentstation/featuresync/pkg/store"
)

// The layer contract is declared in pkg/store so code outside the module
// can implement it. These aliases keep the backends on one import.
type (
	Store     = layer.Store
	Session   = layer.Session
	Stager    = layer.Stager
	Migrator  = layer.Migrator
	Migration = layer.Migration
)

// Options configures a store.
type Options struct {
	Layer            string
	SpatialReference features.SpatialReference
	Editor           string
	Now              func() time.Time
	AutoMigrate      bool

	// ReadOnly opens an existing database without creating or migrating
	// it. A missing schema loads as an empty layer.
	ReadOnly bool
}

// Option is a functional option for Options.
type Option func(*Options)

// NewOptions returns options with defaults applied.
func NewOptions(opts ...Option) *Options {
	o := &Options{
		Layer:            constants.DefaultTargetLayer,
		SpatialReference: features.WGS84,
		Editor:           constants.DefaultEditor,
		Now:              func() time.Time { return utc.Now().Time },
		AutoMigrate:      true,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithLayer sets the layer (table) name.
func WithLayer(name string) Option {
	return func(o *Options) {
		if name != "" {
			o.Layer = name
		}
	}
}

// WithSpatialReference sets the spatial reference of stored geometry.
func WithSpatialReference(sr features.SpatialReference) Option {
	return func(o *Options) {
		o.SpatialReference = sr
	}
}

// WithEditor sets the user recorded in the audit fields.
func WithEditor(user string) Option {
	return func(o *Options) {
		if user != "" {
			o.Editor = user
		}
	}
}

// WithClock sets the clock used for audit timestamps.
func WithClock(now func() time.Time) Option {
	return func(o *Options) {
		if now != nil {
			o.Now = now
		}
	}
}

// WithAutoMigrate controls whether the schema is migrated on open.
func WithAutoMigrate(enabled bool) Option {
	return func(o *Options) {
		o.AutoMigrate = enabled
	}
}

// WithReadOnly opens the store for reading only.
func WithReadOnly(enabled bool) Option {
	return func(o *Options) {
		o.ReadOnly = enabled
	}
}

// Scheme names accepted by ParseDSN.
const (
	SchemeSQLite   = "sqlite"
	SchemePostgres = "postgres"
	SchemeMemory   = "memory"
)

// DSN is a parsed data source name.
type DSN struct {
	Scheme string
	// Location is the backend specific part: a file path for sqlite, the
	// full connection URL for postgres and a name for memory.
	Location string
}

// String returns the DSN with any postgres password masked.
func (d DSN) String() string {
	switch d.Scheme {
	case SchemePostgres:
		return maskPassword(d.Location)
	case SchemeSQLite:
		return "sqlite://" + d.Location
	}
	return d.Scheme + "://" + d.Location
}

// ParseDSN picks a backend from the data source name:
//
//	sqlite://path, file:path, path.db, path.sqlite  -> sqlite
//	postgres://..., postgresql://...                -> postgres
//	memory://name                                   -> memory
func ParseDSN(dsn string) (DSN, error) {
	dsn = strings.TrimSpace(dsn)
	lower := strings.ToLower(dsn)
	switch {
	case dsn == "":
		return DSN{}, fmt.Errorf("empty data source name")
	case strings.HasPrefix(lower, "sqlite://"):
		return DSN{Scheme: SchemeSQLite, Location: dsn[len("sqlite://"):]}, nil
	case strings.HasPrefix(lower, "file:"):
		return DSN{Scheme: SchemeSQLite, Location: dsn}, nil
	case strings.HasPrefix(lower, "postgres://"), strings.HasPrefix(lower, "postgresql://"):
		return DSN{Scheme: SchemePostgres, Location: dsn}, nil
	case strings.HasPrefix(lower, "memory://"):
		return DSN{Scheme: SchemeMemory, Location: dsn[len("memory://"):]}, nil
	case strings.Contains(dsn, "://"):
		return DSN{}, fmt.Errorf("unsupported data source scheme in %q", maskPassword(dsn))
	}
	switch strings.ToLower(filepath.Ext(dsn)) {
	case ".db", ".sqlite", ".sqlite3":
		return DSN{Scheme: SchemeSQLite, Location: dsn}, nil
	}
	return DSN{}, fmt.Errorf("cannot infer backend for %q (use sqlite://, postgres:// or memory://)", dsn)
}

func maskPassword(u string) string {
	at := strings.LastIndex(u, "@")
	scheme := strings.Index(u, "://")
	if at < 0 || scheme < 0 || at < scheme {
		return u
	}
	creds := u[scheme+3 : at]
	colon := strings.Index(creds, ":")
	if colon < 0 {
		return u
	}
	return u[:scheme+3] + creds[:colon] + ":xxxxx" + u[at:]
}

// NewGlobalID returns a new GlobalID in the braced upper-case form.
func NewGlobalID() string {
	return "{" + strings.ToUpper(uuid.NewString()) + "}"
}
