// Package reconciler applies a classified changeset to a target layer. Moved
// projects are deleted and re-appended together with new projects inside one
// edit session, so the target never holds a partial update.
package reconciler

import (
	"context"

	"github.com/agentstation/utc"

	"github.com/agentstation/featuresync/pkg/differ"
	"github.com/agentstation/featuresync/pkg/errors"
	"github.com/agentstation/featuresync/pkg/features"
	"github.com/agentstation/featuresync/pkg/logging"
	"github.com/agentstation/featuresync/pkg/store"
)

// Reconciler brings a target layer in line with a new dataset.
type Reconciler interface {
	// Reconcile classifies source against the target's current contents and
	// applies the resulting delete and append in one transaction.
	Reconcile(ctx context.Context, source *features.Dataset, target store.Store) (*Result, error)
}

// reconciler is the default implementation of Reconciler.
type reconciler struct {
	dryRun   bool
	strategy differ.ApplyStrategy
	differ   differ.Differ
	reporter Reporter
}

// New creates a new Reconciler with options.
func New(opts ...Option) (Reconciler, error) {
	options, err := newOptions(opts...)
	if err != nil {
		return nil, err
	}
	return &reconciler{
		dryRun:   options.dryRun,
		strategy: options.strategy,
		differ:   differ.New(differ.WithTolerance(options.tolerance)),
		reporter: options.reporter,
	}, nil
}

// Reconcile runs load, classify and, unless this is a dry run, the edit.
func (r *reconciler) Reconcile(ctx context.Context, source *features.Dataset, target store.Store) (*Result, error) {
	start := utc.Now()
	if source == nil {
		return nil, &errors.ValidationError{Field: "source", Message: "cannot be nil"}
	}
	ctx = logging.WithOperation(ctx, "reconcile")
	logger := logging.FromContext(ctx)

	r.reporter.NewData(source)

	// Step 1: load what the target holds today
	existing, err := target.Load(ctx)
	if err != nil {
		return nil, err
	}
	layer := existing.Name()

	// Step 2: classify by key
	changeset := r.differ.Datasets(source, existing)
	applied := changeset.Filter(r.strategy)
	for _, m := range applied.Moved {
		r.reporter.Moved(m)
		logging.FromContext(logging.WithProject(ctx, m.Key)).Debug().
			Float64("distance", m.Distance).
			Bool("dry_run", r.dryRun).
			Msg("Project moved")
	}

	result := &Result{
		Changeset: changeset,
		Applied:   applied,
		Metadata: ResultMetadata{
			RunID:       logging.RunID(ctx),
			StartTime:   start,
			SourceLayer: source.Name(),
			TargetLayer: layer,
			Strategy:    r.strategy,
			DryRun:      r.dryRun,
		},
	}

	logger.Info().
		Str("layer", layer).
		Int("added", applied.Summary.Added).
		Int("moved", applied.Summary.Moved).
		Int("unchanged", changeset.Summary.Unchanged).
		Int("retained", changeset.Summary.Retained).
		Bool("dry_run", r.dryRun).
		Msg("Classified source against target")

	// Step 3: stop here for dry runs and no-op changesets
	if r.dryRun || applied.IsEmpty() {
		return r.finish(result), nil
	}

	// Step 4: delete then append inside one edit session
	deleteKeys := applied.DeleteKeys()
	appendSet := source.Select(applied.AppendKeys())
	var deleted, appended int
	err = target.Edit(ctx, func(sess store.Session) error {
		n, err := sess.Delete(ctx, deleteKeys)
		if err != nil {
			return errors.NewTransactionError("delete", layer, err)
		}
		deleted = n

		n, err = sess.Append(ctx, appendSet.Features())
		if err != nil {
			return errors.NewTransactionError("append", layer, err)
		}
		appended = n
		return nil
	})
	if err != nil {
		if !errors.IsTransaction(err) {
			err = errors.NewTransactionError("commit", layer, err)
		}
		logger.Error().Err(err).Str("layer", layer).Msg("Edit session rolled back")
		return nil, err
	}

	result.Deleted = deleted
	result.Appended = appended
	r.reporter.Deleted(deleteKeys, deleted)
	r.reporter.Appended(appendSet.Keys(), appended)
	for _, key := range appendSet.Keys() {
		logging.FromContext(logging.WithProject(ctx, key)).Debug().Msg("Project appended")
	}

	logger.Info().
		Str("layer", layer).
		Int("deleted", deleted).
		Int("appended", appended).
		Msg("Edit session committed")

	return r.finish(result), nil
}

func (r *reconciler) finish(result *Result) *Result {
	result.Metadata.EndTime = utc.Now()
	result.Metadata.Duration = result.Metadata.EndTime.Time.Sub(result.Metadata.StartTime.Time)
	r.reporter.Summary(result)
	return result
}
