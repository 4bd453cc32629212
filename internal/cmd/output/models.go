package output

import (
	"io"

	"github.com/agentstation/featuresync/internal/cmd/table"
	"github.com/agentstation/featuresync/pkg/differ"
	"github.com/agentstation/featuresync/pkg/features"
	"github.com/agentstation/featuresync/pkg/reconciler"
	"github.com/agentstation/featuresync/pkg/store"
)

// Changeset writes a classification in the requested format.
func Changeset(w io.Writer, format Format, c *differ.Changeset) error {
	var data any = c
	if format.IsTabular() {
		data = table.ChangesetToTableData(c, format.IsWide())
	}
	return NewFormatter(format).Format(w, data)
}

// Dataset writes every feature of ds in the requested format.
func Dataset(w io.Writer, format Format, ds *features.Dataset) error {
	var data any = ds.Features()
	if format.IsTabular() {
		data = table.DatasetToTableData(ds, format.IsWide())
	}
	return NewFormatter(format).Format(w, data)
}

// Result writes a reconciliation outcome in the requested format.
func Result(w io.Writer, format Format, r *reconciler.Result) error {
	var data any = r
	if format.IsTabular() {
		data = table.ResultToTableData(r)
	}
	return NewFormatter(format).Format(w, data)
}

// Migrations writes the applied schema migrations in the requested format.
func Migrations(w io.Writer, format Format, migrations []store.Migration) error {
	var data any = migrations
	if format.IsTabular() {
		data = table.MigrationsToTableData(migrations)
	}
	return NewFormatter(format).Format(w, data)
}
