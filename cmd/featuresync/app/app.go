// Package app provides the application context and dependency management
// for the featuresync CLI. It centralizes configuration, logging and the
// construction of syncers for the commands.
package app

import (
	"io"
	"os"

	"github.com/rs/zerolog"

	"github.com/agentstation/featuresync"
	"github.com/agentstation/featuresync/internal/appcontext"
	"github.com/agentstation/featuresync/internal/cmd/cmdutil"
	"github.com/agentstation/featuresync/internal/cmd/output"
	"github.com/agentstation/featuresync/internal/report"
	"github.com/agentstation/featuresync/pkg/errors"
	"github.com/agentstation/featuresync/pkg/reconciler"
)

// App represents the featuresync application with all its dependencies.
type App struct {
	// Version information
	version string
	commit  string
	date    string
	builtBy string

	config *Config
	logger *zerolog.Logger

	// stdout receives console diagnostics and command output
	stdout io.Writer
}

// Ensure App implements appcontext.Interface at compile time.
var _ appcontext.Interface = (*App)(nil)

// New creates a new App instance with the given version information.
// The app is initialized with configuration loaded from the environment
// and the default config file, and can be customized using options.
func New(version, commit, date, builtBy string, opts ...Option) (*App, error) {
	app := &App{
		version: version,
		commit:  commit,
		date:    date,
		builtBy: builtBy,
		stdout:  os.Stdout,
	}

	config, err := LoadConfig("")
	if err != nil {
		return nil, errors.WrapResource("load", "config", "", err)
	}
	app.config = config

	logger := NewLogger(config)
	app.logger = &logger

	for _, opt := range opts {
		if err := opt(app); err != nil {
			return nil, err
		}
	}

	return app, nil
}

// Version returns the version information.
func (a *App) Version() string {
	return a.version
}

// Commit returns the git commit hash.
func (a *App) Commit() string {
	return a.commit
}

// Date returns the build date.
func (a *App) Date() string {
	return a.date
}

// BuiltBy returns the build system identifier.
func (a *App) BuiltBy() string {
	return a.builtBy
}

// Config returns the application configuration.
func (a *App) Config() *Config {
	return a.config
}

// Logger returns the application logger.
func (a *App) Logger() *zerolog.Logger {
	return a.logger
}

// OutputFormat returns the configured output format.
func (a *App) OutputFormat() string {
	return string(output.DetectFormat(a.config.Format))
}

// Quiet reports whether -q was given.
func (a *App) Quiet() bool {
	return a.config.Quiet
}

// Reporter returns a console reporter. Diagnostics go to stdout for table
// output and to stderr when stdout carries JSON or YAML.
func (a *App) Reporter() reconciler.Reporter {
	w := a.stdout
	if !output.Format(a.OutputFormat()).IsTable() {
		w = os.Stderr
	}
	return report.New(w, a.config.NoColor,
		report.WithQuiet(a.config.Quiet),
		report.WithVerbose(a.config.Verbose),
	)
}

// Syncer builds a syncer from the configuration. opts are applied last.
func (a *App) Syncer(opts ...featuresync.Option) (featuresync.Syncer, error) {
	base, err := a.syncerOptions()
	if err != nil {
		return nil, err
	}
	return featuresync.New(append(base, opts...)...)
}

// syncerOptions constructs syncer options from the app configuration.
func (a *App) syncerOptions() ([]featuresync.Option, error) {
	c := a.config
	opts := []featuresync.Option{
		featuresync.WithLogger(a.logger),
		featuresync.WithReporter(a.Reporter()),
		featuresync.WithSource(c.Source),
		featuresync.WithWorkspace(c.Workspace),
		featuresync.WithStagingLayer(c.StagingLayer),
		featuresync.WithTarget(c.Target),
		featuresync.WithTargetLayer(c.Layer),
		featuresync.WithEditor(c.Editor),
		featuresync.WithEncoding(c.Encoding),
		featuresync.WithSheet(c.Sheet),
		featuresync.WithStrategy(c.Strategy),
		featuresync.WithTolerance(c.Tolerance),
		featuresync.WithTimeout(c.Timeout),
	}
	if c.WKID != 0 {
		opts = append(opts, featuresync.WithSpatialReference(c.WKID))
	}
	if c.Mapping != "" {
		m, err := cmdutil.LoadMapping(c.Mapping)
		if err != nil {
			return nil, err
		}
		opts = append(opts, featuresync.WithMapping(m))
	}
	return opts, nil
}

// Option is a functional option for configuring the App.
type Option func(*App) error

// WithConfig sets a custom configuration.
func WithConfig(config *Config) Option {
	return func(a *App) error {
		a.config = config
		return nil
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *zerolog.Logger) Option {
	return func(a *App) error {
		a.logger = logger
		return nil
	}
}

// WithStdout redirects console output, for tests.
func WithStdout(w io.Writer) Option {
	return func(a *App) error {
		a.stdout = w
		return nil
	}
}
