// Package report prints the per-record diagnostics of a sync run to a
// console: the new-data dump, moved projects with their old and new
// locations, the keys removed and written, and the final counts.
package report

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"

	"github.com/agentstation/featuresync/internal/cmd/emoji"
	"github.com/agentstation/featuresync/internal/cmd/table"
	"github.com/agentstation/featuresync/pkg/differ"
	"github.com/agentstation/featuresync/pkg/features"
	"github.com/agentstation/featuresync/pkg/reconciler"
)

// Console writes human-readable diagnostics. It implements reconciler.Reporter.
type Console struct {
	w       io.Writer
	quiet   bool
	verbose bool

	header  func(a ...any) string
	added   func(a ...any) string
	moved   func(a ...any) string
	deleted func(a ...any) string
	muted   func(a ...any) string
	success func(a ...any) string
	warn    func(a ...any) string
}

var _ reconciler.Reporter = (*Console)(nil)

// Option configures a Console.
type Option func(*Console)

// WithQuiet suppresses the per-record lines and keeps the summary.
func WithQuiet(quiet bool) Option {
	return func(c *Console) { c.quiet = quiet }
}

// WithVerbose also lists unchanged and retained keys in the summary.
func WithVerbose(verbose bool) Option {
	return func(c *Console) { c.verbose = verbose }
}

// New returns a Console writing to w. A nil w writes to stdout. Colour is
// disabled when noColor is set or w is not a terminal.
func New(w io.Writer, noColor bool, opts ...Option) *Console {
	if w == nil {
		w = os.Stdout
	}
	c := &Console{w: w}
	for _, opt := range opts {
		opt(c)
	}

	colorize := func(attrs ...color.Attribute) func(a ...any) string {
		col := color.New(attrs...)
		if noColor || !isTerminal(w) {
			col.DisableColor()
		} else {
			col.EnableColor()
		}
		return col.SprintFunc()
	}
	c.header = colorize(color.Bold)
	c.added = colorize(color.FgGreen)
	c.moved = colorize(color.FgYellow)
	c.deleted = colorize(color.FgRed)
	c.muted = colorize(color.Faint)
	c.success = colorize(color.FgGreen, color.Bold)
	c.warn = colorize(color.FgYellow, color.Bold)
	return c
}

// NewData dumps every record of the incoming dataset.
func (c *Console) NewData(ds *features.Dataset) {
	if c.quiet {
		return
	}
	c.printf("%s\n", c.header(fmt.Sprintf("New data: %d projects in %s", ds.Len(), ds.Name())))
	for _, f := range ds.Features() {
		c.printf("  %s %s\n", f.Key(), c.muted(location(f)))
	}
}

// Moved prints the old and new location of a project.
func (c *Console) Moved(m differ.Move) {
	if c.quiet {
		return
	}
	c.printf("%s %s moved %s %s %s %s\n",
		c.moved(emoji.Move),
		m.Key,
		location(m.Existing),
		emoji.Arrow,
		location(m.Source),
		c.muted("("+table.FormatDistance(m.Distance)+")"),
	)
}

// Deleted lists the keys removed from the target.
func (c *Console) Deleted(keys []string, rows int) {
	if c.quiet || len(keys) == 0 {
		return
	}
	c.printf("%s\n", c.header(fmt.Sprintf("Deleted %d rows for %d projects", rows, len(keys))))
	for _, k := range keys {
		c.printf("  %s %s\n", c.deleted(emoji.Delete), k)
	}
}

// Appended lists the keys written to the target.
func (c *Console) Appended(keys []string, rows int) {
	if c.quiet || len(keys) == 0 {
		return
	}
	c.printf("%s\n", c.header(fmt.Sprintf("Appended %d projects", rows)))
	for _, k := range keys {
		c.printf("  %s %s\n", c.added(emoji.Add), k)
	}
}

// Summary prints the counts of the run.
func (c *Console) Summary(r *reconciler.Result) {
	applied := r.Applied
	if applied == nil {
		applied = r.Changeset
	}

	switch {
	case r.Metadata.DryRun:
		c.printf("%s Dry run, %s: %s\n", c.warn(emoji.Warning), r.Metadata.TargetLayer, applied)
	case applied.IsEmpty():
		c.printf("%s %s is up to date: %s\n", c.success(emoji.Success), r.Metadata.TargetLayer, applied)
	default:
		c.printf("%s %s updated: %d deleted, %d appended (%d added, %d moved)\n",
			c.success(emoji.Success), r.Metadata.TargetLayer,
			r.Deleted, r.Appended, applied.Summary.Added, applied.Summary.Moved)
	}

	if c.verbose && r.Changeset != nil {
		if len(r.Changeset.Unchanged) > 0 {
			c.printf("  unchanged: %v\n", r.Changeset.Unchanged)
		}
		if len(r.Changeset.Retained) > 0 {
			c.printf("  retained:  %v\n", r.Changeset.Retained)
		}
	}
}

func (c *Console) printf(format string, a ...any) {
	_, _ = fmt.Fprintf(c.w, format, a...)
}

func location(f features.Feature) string {
	return fmt.Sprintf("(%s, %s)", table.FormatCoord(f.Latitude), table.FormatCoord(f.Longitude))
}
