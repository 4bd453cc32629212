// Package differ classifies the records of a new dataset against an existing
// one and produces the changeset that reconciliation applies.
package differ

import (
	"fmt"
	"strings"

	"github.com/agentstation/featuresync/pkg/features"
)

// ChangeType represents the type of change.
type ChangeType string

const (
	// ChangeTypeAdd indicates a key only present in the new dataset.
	ChangeTypeAdd ChangeType = "add"
	// ChangeTypeMove indicates a key whose coordinates changed.
	ChangeTypeMove ChangeType = "move"
	// ChangeTypeUnchanged indicates a key with identical coordinates.
	ChangeTypeUnchanged ChangeType = "unchanged"
	// ChangeTypeRetain indicates a key only present in the existing dataset.
	ChangeTypeRetain ChangeType = "retain"
)

// Move is a key present on both sides whose location differs.
type Move struct {
	Key      string           `json:"project_name" yaml:"project_name"`
	Existing features.Feature `json:"existing" yaml:"existing"`
	Source   features.Feature `json:"source" yaml:"source"`
	Distance float64          `json:"distance_m" yaml:"distance_m"` // metres
}

// Changeset is the result of classifying a new dataset against an existing
// one. Added, Moved and Unchanged partition the new dataset's keys. Retained
// lists existing keys the new dataset no longer carries; they are reported
// and never removed.
type Changeset struct {
	Added     []features.Feature `json:"added" yaml:"added"`
	Moved     []Move             `json:"moved" yaml:"moved"`
	Unchanged []string           `json:"unchanged" yaml:"unchanged"`
	Retained  []string           `json:"retained" yaml:"retained"`
	Summary   Summary            `json:"summary" yaml:"summary"`
}

// Summary provides counts for a changeset.
type Summary struct {
	Added        int `json:"added" yaml:"added"`
	Moved        int `json:"moved" yaml:"moved"`
	Unchanged    int `json:"unchanged" yaml:"unchanged"`
	Retained     int `json:"retained" yaml:"retained"`
	TotalChanges int `json:"total_changes" yaml:"total_changes"`
}

func calculateSummary(c *Changeset) Summary {
	return Summary{
		Added:        len(c.Added),
		Moved:        len(c.Moved),
		Unchanged:    len(c.Unchanged),
		Retained:     len(c.Retained),
		TotalChanges: len(c.Added) + len(c.Moved),
	}
}

// HasChanges returns true if applying the changeset would edit the target.
func (c *Changeset) HasChanges() bool {
	return c.Summary.TotalChanges > 0
}

// IsEmpty returns true if the changeset contains no changes.
func (c *Changeset) IsEmpty() bool {
	return c.Summary.TotalChanges == 0
}

// AddedKeys returns the keys of the added features.
func (c *Changeset) AddedKeys() []string {
	keys := make([]string, 0, len(c.Added))
	for _, f := range c.Added {
		keys = append(keys, f.Key())
	}
	return keys
}

// MovedKeys returns the keys of the moved features.
func (c *Changeset) MovedKeys() []string {
	keys := make([]string, 0, len(c.Moved))
	for _, m := range c.Moved {
		keys = append(keys, m.Key)
	}
	return keys
}

// DeleteKeys returns the keys whose existing rows must be removed before the
// append.
func (c *Changeset) DeleteKeys() []string {
	return c.MovedKeys()
}

// AppendKeys returns the keys to insert from the new dataset: added and moved.
func (c *Changeset) AppendKeys() []string {
	keys := make([]string, 0, len(c.Added)+len(c.Moved))
	keys = append(keys, c.AddedKeys()...)
	keys = append(keys, c.MovedKeys()...)
	return keys
}

// Classification returns how key was classified, or "" if the key is unknown.
func (c *Changeset) Classification(key string) ChangeType {
	for _, f := range c.Added {
		if f.Key() == key {
			return ChangeTypeAdd
		}
	}
	for _, m := range c.Moved {
		if m.Key == key {
			return ChangeTypeMove
		}
	}
	for _, k := range c.Unchanged {
		if k == key {
			return ChangeTypeUnchanged
		}
	}
	for _, k := range c.Retained {
		if k == key {
			return ChangeTypeRetain
		}
	}
	return ""
}

// String returns a human-readable summary of the changeset.
func (c *Changeset) String() string {
	if c.IsEmpty() {
		return fmt.Sprintf("No changes detected (%d unchanged, %d retained)",
			c.Summary.Unchanged, c.Summary.Retained)
	}

	var parts []string
	if c.Summary.Added > 0 {
		parts = append(parts, fmt.Sprintf("%d added", c.Summary.Added))
	}
	if c.Summary.Moved > 0 {
		parts = append(parts, fmt.Sprintf("%d moved", c.Summary.Moved))
	}
	if c.Summary.Unchanged > 0 {
		parts = append(parts, fmt.Sprintf("%d unchanged", c.Summary.Unchanged))
	}
	if c.Summary.Retained > 0 {
		parts = append(parts, fmt.Sprintf("%d retained", c.Summary.Retained))
	}
	return fmt.Sprintf("Changeset: %s (Total: %d changes)", strings.Join(parts, ", "), c.Summary.TotalChanges)
}

// ApplyStrategy represents which changes to apply.
type ApplyStrategy string

const (
	// ApplyAll applies additions and moves.
	ApplyAll ApplyStrategy = "all"

	// ApplyAdditionsOnly only appends new keys and leaves moved rows in place.
	ApplyAdditionsOnly ApplyStrategy = "additions-only"

	// ApplyMovesOnly only relocates existing keys.
	ApplyMovesOnly ApplyStrategy = "moves-only"
)

// ParseApplyStrategy parses a strategy name. An empty name means ApplyAll.
func ParseApplyStrategy(s string) (ApplyStrategy, error) {
	switch ApplyStrategy(strings.ToLower(strings.TrimSpace(s))) {
	case "", ApplyAll:
		return ApplyAll, nil
	case ApplyAdditionsOnly:
		return ApplyAdditionsOnly, nil
	case ApplyMovesOnly:
		return ApplyMovesOnly, nil
	}
	return "", fmt.Errorf("unknown apply strategy %q (want all, additions-only or moves-only)", s)
}

// Filter returns the changeset restricted to the given strategy. Changes that
// are filtered out are not reported as unchanged.
func (c *Changeset) Filter(strategy ApplyStrategy) *Changeset {
	filtered := &Changeset{
		Added:     []features.Feature{},
		Moved:     []Move{},
		Unchanged: c.Unchanged,
		Retained:  c.Retained,
	}

	switch strategy {
	case ApplyAll, "":
		return c
	case ApplyAdditionsOnly:
		filtered.Added = c.Added
	case ApplyMovesOnly:
		filtered.Moved = c.Moved
	}

	filtered.Summary = calculateSummary(filtered)
	return filtered
}
