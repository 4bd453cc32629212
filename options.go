package featuresync

import (
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/agentstation/featuresync/internal/ingest"
	backend "github.com/agentstation/featuresync/internal/store"
	"github.com/agentstation/featuresync/pkg/constants"
	"github.com/agentstation/featuresync/pkg/differ"
	"github.com/agentstation/featuresync/pkg/errors"
	"github.com/agentstation/featuresync/pkg/features"
	"github.com/agentstation/featuresync/pkg/reconciler"
	"github.com/agentstation/featuresync/pkg/store"
)

// config holds the settings of a Syncer.
type config struct {
	// Source
	sourcePath string
	format     ingest.Format
	encoding   string
	sheet      string
	mapping    features.FieldMapping

	// Workspace and target
	workspaceDSN string
	workspace    store.Store
	stagingLayer string
	targetDSN    string
	target       store.Store
	targetLayer  string
	sr           features.SpatialReference
	editor       string

	// Reconciliation
	dryRun    bool
	strategy  differ.ApplyStrategy
	tolerance float64
	reporter  reconciler.Reporter

	timeout time.Duration
	logger  *zerolog.Logger
}

func defaultConfig() *config {
	return &config{
		sourcePath:   constants.DefaultSourceFile,
		mapping:      features.DefaultMapping(),
		workspaceDSN: constants.DefaultWorkspace,
		stagingLayer: constants.DefaultStagingLayer,
		targetDSN:    constants.DefaultTarget,
		targetLayer:  constants.DefaultTargetLayer,
		sr:           features.WGS84,
		editor:       defaultEditor(),
		strategy:     differ.ApplyAll,
		reporter:     reconciler.NopReporter{},
	}
}

func newConfig(opts ...Option) (*config, error) {
	c := defaultConfig()
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	if c.sourcePath == "" {
		return nil, errors.NewValidationError("source", c.sourcePath, "source path is required")
	}
	if c.target == nil && c.targetDSN == "" {
		return nil, errors.NewValidationError("target", c.targetDSN, "target is required")
	}
	if c.stagingLayer == c.targetLayer && c.sharesWorkspace() {
		return nil, errors.NewValidationError("staging_layer", c.stagingLayer,
			"staging layer cannot be the target layer when workspace and target are the same store")
	}
	return c, nil
}

// sharesWorkspace reports whether staging would write into the target's
// database. Memory DSNs always open separate stores.
func (c *config) sharesWorkspace() bool {
	switch {
	case c.workspace != nil || c.target != nil:
		return c.workspace == c.target
	case c.workspaceDSN == "" || c.targetDSN == "":
		return false
	}
	ws, wsErr := backend.ParseDSN(c.workspaceDSN)
	tgt, tgtErr := backend.ParseDSN(c.targetDSN)
	if wsErr != nil || tgtErr != nil {
		return c.workspaceDSN == c.targetDSN
	}
	return ws == tgt && ws.Scheme != backend.SchemeMemory
}

func (c *config) ingestOptions() []ingest.Option {
	return []ingest.Option{
		ingest.WithMapping(c.mapping),
		ingest.WithSpatialReference(c.sr),
		ingest.WithLayer(c.stagingLayer),
		ingest.WithEncoding(c.encoding),
		ingest.WithSheet(c.sheet),
		ingest.WithFormat(c.format),
	}
}

func (c *config) storeOptions(layer string, extra ...backend.Option) []backend.Option {
	return append([]backend.Option{
		backend.WithLayer(layer),
		backend.WithSpatialReference(c.sr),
		backend.WithEditor(c.editor),
	}, extra...)
}

func defaultEditor() string {
	if u := os.Getenv("USER"); u != "" {
		return u
	}
	return constants.DefaultEditor
}

// Option is a function that configures a Syncer.
type Option func(*config) error

// WithSource sets the export file to ingest.
func WithSource(path string) Option {
	return func(c *config) error {
		c.sourcePath = path
		return nil
	}
}

// WithFormat forces the source format instead of detecting it from the extension.
func WithFormat(format ingest.Format) Option {
	return func(c *config) error {
		c.format = format
		return nil
	}
}

// WithEncoding sets the character encoding of a CSV source.
func WithEncoding(name string) Option {
	return func(c *config) error {
		c.encoding = name
		return nil
	}
}

// WithSheet selects the worksheet of an XLSX source.
func WithSheet(name string) Option {
	return func(c *config) error {
		c.sheet = name
		return nil
	}
}

// WithMapping sets the field mapping from source columns to the project schema.
func WithMapping(m features.FieldMapping) Option {
	return func(c *config) error {
		if err := m.Validate(); err != nil {
			return err
		}
		c.mapping = m
		return nil
	}
}

// WithWorkspace sets the DSN of the staging workspace. An empty DSN skips
// staging and compares the ingested rows directly.
func WithWorkspace(dsn string) Option {
	return func(c *config) error {
		c.workspaceDSN = dsn
		return nil
	}
}

// WithWorkspaceStore stages into an already open store. The caller keeps
// ownership and closes it.
func WithWorkspaceStore(s store.Store) Option {
	return func(c *config) error {
		c.workspace = s
		return nil
	}
}

// WithStagingLayer sets the layer the source is staged into.
func WithStagingLayer(name string) Option {
	return func(c *config) error {
		if name != "" {
			c.stagingLayer = name
		}
		return nil
	}
}

// WithTarget sets the DSN of the authoritative dataset.
func WithTarget(dsn string) Option {
	return func(c *config) error {
		c.targetDSN = dsn
		return nil
	}
}

// WithTargetStore reconciles an already open store. The caller keeps
// ownership and closes it.
func WithTargetStore(s store.Store) Option {
	return func(c *config) error {
		c.target = s
		return nil
	}
}

// WithTargetLayer sets the authoritative layer name.
func WithTargetLayer(name string) Option {
	return func(c *config) error {
		if name != "" {
			c.targetLayer = name
		}
		return nil
	}
}

// WithSpatialReference sets the spatial reference the points are built in.
func WithSpatialReference(wkid int) Option {
	return func(c *config) error {
		sr, err := features.SpatialReferenceFromWKID(wkid)
		if err != nil {
			return err
		}
		c.sr = sr
		return nil
	}
}

// WithEditor sets the user recorded in the audit fields of appended rows.
func WithEditor(user string) Option {
	return func(c *config) error {
		if user != "" {
			c.editor = user
		}
		return nil
	}
}

// WithDryRun classifies without editing the target.
func WithDryRun(enabled bool) Option {
	return func(c *config) error {
		c.dryRun = enabled
		return nil
	}
}

// WithStrategy restricts which changes are applied.
func WithStrategy(strategy string) Option {
	return func(c *config) error {
		parsed, err := differ.ParseApplyStrategy(strategy)
		if err != nil {
			return errors.NewValidationError("strategy", strategy, err.Error())
		}
		c.strategy = parsed
		return nil
	}
}

// WithTolerance treats moves up to metres as unchanged.
func WithTolerance(metres float64) Option {
	return func(c *config) error {
		if metres < 0 {
			return errors.NewValidationError("tolerance", metres, "cannot be negative")
		}
		c.tolerance = metres
		return nil
	}
}

// WithReporter sets the receiver of per-record diagnostics.
func WithReporter(r reconciler.Reporter) Option {
	return func(c *config) error {
		if r != nil {
			c.reporter = r
		}
		return nil
	}
}

// WithTimeout bounds a whole run.
func WithTimeout(d time.Duration) Option {
	return func(c *config) error {
		c.timeout = d
		return nil
	}
}

// WithLogger sets the logger used for the run.
func WithLogger(logger *zerolog.Logger) Option {
	return func(c *config) error {
		c.logger = logger
		return nil
	}
}
