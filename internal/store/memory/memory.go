// Package memory provides an in-process feature layer. It backs tests and
// dry runs and can inject failures into any step of an edit.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/agentstation/featuresync/internal/store"
	"github.com/agentstation/featuresync/pkg/errors"
	"github.com/agentstation/featuresync/pkg/features"
)

// Operation names a step that can be made to fail.
type Operation string

const (
	OpLoad    Operation = "load"
	OpBegin   Operation = "begin"
	OpDelete  Operation = "delete"
	OpAppend  Operation = "append"
	OpCommit  Operation = "commit"
	OpReplace Operation = "replace"
)

// Store is an in-memory feature layer.
type Store struct {
	mu       sync.Mutex
	opts     *store.Options
	rows     []features.Feature
	nextID   int64
	failures map[Operation]error
	// appendLimit, when >= 0, fails Append after that many rows are written.
	appendLimit int
	closed      bool
}

var (
	_ store.Store  = (*Store)(nil)
	_ store.Stager = (*Store)(nil)
)

// New creates an empty store.
func New(opts ...store.Option) *Store {
	return &Store{
		opts:        store.NewOptions(opts...),
		failures:    make(map[Operation]error),
		appendLimit: -1,
		nextID:      1,
	}
}

// Seed inserts rows directly, bypassing edits. Audit fields are filled the
// same way Append fills them.
func (s *Store) Seed(fs ...features.Feature) *Store {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, f := range fs {
		s.rows = append(s.rows, s.stamp(f))
	}
	return s
}

// FailOn makes every later call of op return err. A nil err clears it.
func (s *Store) FailOn(op Operation, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.failures, op)
		return
	}
	s.failures[op] = err
}

// FailAppendAfter makes Append fail once n rows of the call have been written.
func (s *Store) FailAppendAfter(n int, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.appendLimit = n
	s.failures[OpAppend] = err
}

// Rows returns a copy of the committed rows in insertion order.
func (s *Store) Rows() []features.Feature {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]features.Feature, len(s.rows))
	copy(out, s.rows)
	return out
}

// Load returns the committed rows as a dataset.
func (s *Store) Load(ctx context.Context) (*features.Dataset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(ctx, OpLoad); err != nil {
		return nil, err
	}
	ds := features.NewDataset(s.opts.Layer, s.opts.SpatialReference)
	for _, f := range s.rows {
		ds.Add(f)
	}
	return ds, nil
}

// Edit applies fn to a working copy and swaps it in on success.
func (s *Store) Edit(ctx context.Context, fn func(store.Session) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(ctx, OpBegin); err != nil {
		return err
	}

	sess := &session{store: s, rows: append([]features.Feature(nil), s.rows...), nextID: s.nextID}
	if err := fn(sess); err != nil {
		return err
	}
	if err := s.check(ctx, OpCommit); err != nil {
		return err
	}
	s.rows = sess.rows
	s.nextID = sess.nextID
	return nil
}

// Replace overwrites the layer with ds.
func (s *Store) Replace(ctx context.Context, ds *features.Dataset) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(ctx, OpReplace); err != nil {
		return err
	}
	s.rows = s.rows[:0]
	for _, f := range ds.Features() {
		s.rows = append(s.rows, s.stamp(f))
	}
	return nil
}

// Close marks the store closed. Later calls fail.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *Store) check(ctx context.Context, op Operation) error {
	if s.closed {
		return errors.NewResourceError(string(op), "layer", s.opts.Layer, fmt.Errorf("store is closed"))
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err, ok := s.failures[op]; ok && !(op == OpAppend && s.appendLimit >= 0) {
		return errors.WrapExecute(string(op), err)
	}
	return nil
}

func (s *Store) stamp(f features.Feature) features.Feature {
	now := s.opts.Now()
	f.Audit = features.Audit{
		ObjectID:     s.nextID,
		GlobalID:     store.NewGlobalID(),
		CreatedUser:  s.opts.Editor,
		CreatedDate:  now,
		ModifiedBy:   s.opts.Editor,
		ModifiedDate: now,
	}
	s.nextID++
	return f
}

type session struct {
	store  *Store
	rows   []features.Feature
	nextID int64
}

func (s *session) Delete(ctx context.Context, keys []string) (int, error) {
	if err := s.store.check(ctx, OpDelete); err != nil {
		return 0, err
	}
	drop := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		drop[k] = struct{}{}
	}
	kept := s.rows[:0:0]
	for _, f := range s.rows {
		if _, ok := drop[f.Key()]; !ok {
			kept = append(kept, f)
		}
	}
	n := len(s.rows) - len(kept)
	s.rows = kept
	return n, nil
}

func (s *session) Append(ctx context.Context, fs []features.Feature) (int, error) {
	if err := s.store.check(ctx, OpAppend); err != nil {
		return 0, err
	}
	opts := s.store.opts
	now := opts.Now()
	for i, f := range fs {
		if s.store.appendLimit >= 0 && i >= s.store.appendLimit {
			return i, errors.NewExecuteError("Append", s.store.failures[OpAppend],
				errors.Message{Severity: errors.SeverityInfo, Text: "project " + f.Key()})
		}
		if f.Geometry.SRID != opts.SpatialReference.WKID {
			return i, errors.NewValidationError("spatial_reference", f.Geometry.SRID,
				fmt.Sprintf("feature %s is in WKID %d, layer %s expects %d", f.Key(), f.Geometry.SRID, opts.Layer, opts.SpatialReference.WKID))
		}
		f.Audit = features.Audit{
			ObjectID:     s.nextID,
			GlobalID:     store.NewGlobalID(),
			CreatedUser:  opts.Editor,
			CreatedDate:  now,
			ModifiedBy:   opts.Editor,
			ModifiedDate: now,
		}
		s.nextID++
		s.rows = append(s.rows, f)
	}
	return len(fs), nil
}
