// Package appcontext provides the shared application context interface
// used by all commands. This eliminates interface duplication across
// command packages and provides a single source of truth for app dependencies.
package appcontext

import (
	"github.com/rs/zerolog"

	"github.com/agentstation/featuresync"
	"github.com/agentstation/featuresync/pkg/reconciler"
)

// Interface defines the application context interface that commands need.
// The App struct from cmd/featuresync/app implements this interface.
//
// Commands should accept this interface rather than the concrete App type,
// allowing for easier testing with mock implementations.
type Interface interface {
	// Syncer creates a syncer from the loaded configuration. Options given
	// here are applied after the configured ones and override them.
	Syncer(opts ...featuresync.Option) (featuresync.Syncer, error)

	// Reporter returns the console reporter for per-record diagnostics.
	Reporter() reconciler.Reporter

	// Logger returns the configured logger instance.
	Logger() *zerolog.Logger

	// OutputFormat returns the configured output format (json, yaml, table, wide).
	OutputFormat() string

	// Quiet reports whether console output should be minimal.
	Quiet() bool

	// Version returns the application version string.
	Version() string

	// Commit returns the git commit hash.
	Commit() string

	// Date returns the build date.
	Date() string

	// BuiltBy returns the build system identifier.
	BuiltBy() string
}
