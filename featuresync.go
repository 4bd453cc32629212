// Package featuresync keeps an authoritative point layer in line with a
// tabular export. Each run ingests the export, stages it in a workspace,
// classifies every project against the target layer by PROJECT_NAME and
// applies the moves and additions in one edit session.
package featuresync

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/agentstation/featuresync/internal/ingest"
	backend "github.com/agentstation/featuresync/internal/store"
	"github.com/agentstation/featuresync/internal/store/memory"
	"github.com/agentstation/featuresync/internal/store/registry"
	"github.com/agentstation/featuresync/pkg/constants"
	"github.com/agentstation/featuresync/pkg/errors"
	"github.com/agentstation/featuresync/pkg/features"
	"github.com/agentstation/featuresync/pkg/logging"
	"github.com/agentstation/featuresync/pkg/reconciler"
	"github.com/agentstation/featuresync/pkg/store"
)

// Result is the outcome of a sync run.
type Result = reconciler.Result

// Syncer runs the stages of a sync.
type Syncer interface {
	// Sync ingests the source, stages it and reconciles the target.
	Sync(ctx context.Context) (*Result, error)

	// Diff classifies the source against the target without editing it.
	Diff(ctx context.Context) (*Result, error)

	// Ingest reads the source and stages it when a workspace is configured.
	Ingest(ctx context.Context) (*features.Dataset, error)

	// Migrate applies the schema migrations of the target.
	Migrate(ctx context.Context) ([]store.Migration, error)
}

// syncer is the default implementation of Syncer.
type syncer struct {
	config *config
}

// New creates a Syncer with the given options.
func New(opts ...Option) (Syncer, error) {
	cfg, err := newConfig(opts...)
	if err != nil {
		return nil, err
	}
	return &syncer{config: cfg}, nil
}

// Sync runs ingest, stage and reconcile.
func (s *syncer) Sync(ctx context.Context) (*Result, error) {
	return s.run(ctx, s.config.dryRun)
}

// Diff runs ingest, stage and a dry-run reconcile.
func (s *syncer) Diff(ctx context.Context) (*Result, error) {
	return s.run(ctx, true)
}

func (s *syncer) run(ctx context.Context, dryRun bool) (*Result, error) {
	ctx, cancel := s.context(ctx)
	defer cancel()
	logger := logging.FromContext(ctx)
	start := time.Now()

	// Step 1: ingest and stage
	source, err := s.ingest(ctx)
	if err != nil {
		return nil, err
	}

	// Step 2: open the authoritative layer. Dry runs open it read-only.
	target, closeTarget, err := s.openTargetForRun(ctx, dryRun)
	if err != nil {
		return nil, err
	}
	defer closeTarget()

	// Step 3: reconcile
	rec, err := reconciler.New(
		reconciler.WithDryRun(dryRun),
		reconciler.WithStrategy(s.config.strategy),
		reconciler.WithTolerance(s.config.tolerance),
		reconciler.WithReporter(s.config.reporter),
	)
	if err != nil {
		return nil, err
	}
	result, err := rec.Reconcile(ctx, source, target)
	if err != nil {
		return nil, err
	}

	logger.Info().
		Str("source", s.config.sourcePath).
		Str("layer", s.config.targetLayer).
		Int("deleted", result.Deleted).
		Int("appended", result.Appended).
		Bool("dry_run", dryRun).
		Dur("elapsed", time.Since(start)).
		Msg("Sync finished")
	return result, nil
}

// Ingest reads the source file. With a workspace configured the dataset is
// written to the staging layer and read back, so the comparison sees the
// staged rows exactly as stored.
func (s *syncer) Ingest(ctx context.Context) (*features.Dataset, error) {
	ctx, cancel := s.context(ctx)
	defer cancel()
	return s.ingest(ctx)
}

func (s *syncer) ingest(ctx context.Context) (*features.Dataset, error) {
	ctx = logging.WithOperation(ctx, "ingest")

	reader, err := ingest.New(s.config.ingestOptions()...)
	if err != nil {
		return nil, err
	}
	ds, err := reader.Read(ctx, s.config.sourcePath)
	if err != nil {
		return nil, err
	}

	if s.config.workspace == nil && s.config.workspaceDSN == "" {
		return ds, nil
	}
	return s.stage(ctx, ds)
}

func (s *syncer) stage(ctx context.Context, ds *features.Dataset) (*features.Dataset, error) {
	ws, closeWS, err := s.open(ctx, s.config.workspace, s.config.workspaceDSN, s.config.stagingLayer)
	if err != nil {
		return nil, err
	}
	defer closeWS()

	stager, ok := ws.(store.Stager)
	if !ok {
		return nil, &errors.ValidationError{
			Field:   "workspace",
			Value:   s.config.workspaceDSN,
			Message: "backend cannot hold a staging layer",
		}
	}
	if err := stager.Replace(ctx, ds); err != nil {
		return nil, err
	}
	staged, err := ws.Load(ctx)
	if err != nil {
		return nil, err
	}
	logging.FromContext(logging.WithLayer(ctx, s.config.stagingLayer)).Info().
		Int("features", staged.Len()).
		Msg("Staged source data")
	return staged, nil
}

// Migrate applies the target's schema migrations.
func (s *syncer) Migrate(ctx context.Context) ([]store.Migration, error) {
	ctx, cancel := s.context(ctx)
	defer cancel()

	target, closeTarget, err := s.openTarget(ctx, backend.WithAutoMigrate(false))
	if err != nil {
		return nil, err
	}
	defer closeTarget()

	migrator, ok := target.(store.Migrator)
	if !ok {
		return nil, &errors.ValidationError{
			Field:   "target",
			Value:   s.config.targetDSN,
			Message: "backend has no schema to migrate",
		}
	}
	return migrator.Migrate(ctx)
}

func (s *syncer) openTarget(ctx context.Context, opts ...backend.Option) (store.Store, func(), error) {
	return s.open(ctx, s.config.target, s.config.targetDSN, s.config.targetLayer, opts...)
}

// openTargetForRun opens the target for a sync. A dry run never creates or
// migrates it, and a target that does not exist yet compares as empty.
func (s *syncer) openTargetForRun(ctx context.Context, dryRun bool) (store.Store, func(), error) {
	if !dryRun {
		return s.openTarget(ctx)
	}
	target, closeTarget, err := s.openTarget(ctx, backend.WithReadOnly(true))
	if errors.IsNotFound(err) {
		logging.FromContext(ctx).Debug().
			Err(err).
			Str("layer", s.config.targetLayer).
			Msg("Target does not exist yet, comparing against an empty layer")
		empty := memory.New(s.config.storeOptions(s.config.targetLayer)...)
		return empty, func() { _ = empty.Close() }, nil
	}
	return target, closeTarget, err
}

// open returns the injected store or opens dsn. Only stores opened here are
// closed by the returned func.
func (s *syncer) open(ctx context.Context, injected store.Store, dsn, layer string, opts ...backend.Option) (store.Store, func(), error) {
	if injected != nil {
		return injected, func() {}, nil
	}
	st, err := registry.Open(ctx, dsn, s.config.storeOptions(layer, opts...)...)
	if err != nil {
		return nil, nil, err
	}
	return st, func() {
		if err := st.Close(); err != nil {
			logging.FromContext(ctx).Warn().Err(err).Str("layer", layer).Msg("Failed to close store")
		}
	}, nil
}

func (s *syncer) context(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	if s.config.logger != nil {
		ctx = logging.WithLogger(ctx, s.config.logger)
	}
	ctx = logging.WithRunID(ctx, uuid.NewString())

	timeout := s.config.timeout
	if timeout <= 0 {
		timeout = constants.SyncTimeout
	}
	return context.WithTimeout(ctx, timeout)
}
