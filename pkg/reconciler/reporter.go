package reconciler

import (
	"github.com/agentstation/featuresync/pkg/differ"
	"github.com/agentstation/featuresync/pkg/features"
)

// Reporter receives per-record diagnostics while a reconciliation runs.
type Reporter interface {
	// NewData is called with the source before comparison.
	NewData(ds *features.Dataset)
	// Moved is called once per project whose location changed.
	Moved(m differ.Move)
	// Deleted is called after commit with the keys removed and the row count.
	Deleted(keys []string, rows int)
	// Appended is called after commit with the keys written and the row count.
	Appended(keys []string, rows int)
	// Summary is called last, for dry runs too.
	Summary(r *Result)
}

// NopReporter discards all diagnostics.
type NopReporter struct{}

func (NopReporter) NewData(*features.Dataset) {}
func (NopReporter) Moved(differ.Move)         {}
func (NopReporter) Deleted([]string, int)     {}
func (NopReporter) Appended([]string, int)    {}
func (NopReporter) Summary(*Result)           {}
