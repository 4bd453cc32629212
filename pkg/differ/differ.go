package differ

import (
	"sort"

	"github.com/agentstation/featuresync/pkg/features"
)

// Differ handles change detection between datasets.
type Differ interface {
	// Datasets classifies every key of source against existing.
	Datasets(source, existing *features.Dataset) *Changeset
}

// differ is the default implementation of Differ.
type differ struct {
	tolerance float64
}

// New creates a Differ with exact coordinate comparison.
func New(opts ...Option) Differ {
	d := &differ{}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Classify is shorthand for New(opts...).Datasets(source, existing).
func Classify(source, existing *features.Dataset, opts ...Option) *Changeset {
	return New(opts...).Datasets(source, existing)
}

// Datasets compares the new dataset against the existing one by key.
func (diff *differ) Datasets(source, existing *features.Dataset) *Changeset {
	changeset := &Changeset{
		Added:     []features.Feature{},
		Moved:     []Move{},
		Unchanged: []string{},
		Retained:  []string{},
	}

	for _, f := range source.Features() {
		old, exists := existing.Get(f.Key())
		if !exists {
			changeset.Added = append(changeset.Added, f)
			continue
		}
		if diff.sameLocation(old, f) {
			changeset.Unchanged = append(changeset.Unchanged, f.Key())
			continue
		}
		changeset.Moved = append(changeset.Moved, Move{
			Key:      f.Key(),
			Existing: old,
			Source:   f,
			Distance: features.Distance(old.Geometry, f.Geometry),
		})
	}

	for _, key := range existing.Keys() {
		if !source.Has(key) {
			changeset.Retained = append(changeset.Retained, key)
		}
	}

	// Sort for consistent output
	sortChangeset(changeset)
	changeset.Summary = calculateSummary(changeset)

	return changeset
}

func (diff *differ) sameLocation(old, f features.Feature) bool {
	if old.SameLocation(f.Project) {
		return true
	}
	if diff.tolerance > 0 {
		return features.Distance(old.Geometry, f.Geometry) <= diff.tolerance
	}
	return false
}

func sortChangeset(c *Changeset) {
	sort.Slice(c.Added, func(i, j int) bool {
		return c.Added[i].Key() < c.Added[j].Key()
	})
	sort.Slice(c.Moved, func(i, j int) bool {
		return c.Moved[i].Key < c.Moved[j].Key
	})
	sort.Strings(c.Unchanged)
	sort.Strings(c.Retained)
}
