package reconciler

import (
	"fmt"
	"time"

	"github.com/agentstation/utc"

	"github.com/agentstation/featuresync/pkg/differ"
)

// Result represents the outcome of a reconciliation.
type Result struct {
	// Changeset is the full classification of the source.
	Changeset *differ.Changeset `json:"changeset" yaml:"changeset"`

	// Applied is the part of Changeset the strategy selected.
	Applied *differ.Changeset `json:"applied" yaml:"applied"`

	// Rows removed and written by the edit session.
	Deleted  int `json:"deleted" yaml:"deleted"`
	Appended int `json:"appended" yaml:"appended"`

	Metadata ResultMetadata `json:"metadata" yaml:"metadata"`
}

// ResultMetadata contains metadata about the reconciliation process.
type ResultMetadata struct {
	RunID       string               `json:"run_id,omitempty" yaml:"run_id,omitempty"`
	StartTime   utc.Time             `json:"start_time" yaml:"start_time"`
	EndTime     utc.Time             `json:"end_time" yaml:"end_time"`
	Duration    time.Duration        `json:"duration" yaml:"duration"`
	SourceLayer string               `json:"source_layer" yaml:"source_layer"`
	TargetLayer string               `json:"target_layer" yaml:"target_layer"`
	Strategy    differ.ApplyStrategy `json:"strategy" yaml:"strategy"`
	DryRun      bool                 `json:"dry_run" yaml:"dry_run"`
}

// HasChanges returns true if any changes were detected.
func (r *Result) HasChanges() bool {
	return r.Changeset != nil && r.Changeset.HasChanges()
}

// WasApplied returns true if the edit session committed changes.
func (r *Result) WasApplied() bool {
	return !r.Metadata.DryRun && (r.Deleted > 0 || r.Appended > 0)
}

// String returns a one-line summary.
func (r *Result) String() string {
	if r.Metadata.DryRun {
		return fmt.Sprintf("Dry run: %s", r.Applied)
	}
	return fmt.Sprintf("%d deleted, %d appended in %s", r.Deleted, r.Appended, r.Metadata.Duration.Round(time.Millisecond))
}
