// Package table provides common table formatting utilities for CLI commands.
package table

import (
	"fmt"
	"strconv"
	"time"

	"github.com/agentstation/featuresync/pkg/differ"
	"github.com/agentstation/featuresync/pkg/features"
	"github.com/agentstation/featuresync/pkg/reconciler"
	"github.com/agentstation/featuresync/pkg/store"
)

// Align represents column alignment in tables.
type Align int

const (
	// AlignDefault uses the default alignment (skip).
	AlignDefault Align = iota
	// AlignLeft aligns content to the left.
	AlignLeft
	// AlignCenter centers content.
	AlignCenter
	// AlignRight aligns content to the right.
	AlignRight
)

// Data represents table formatting data to avoid import cycles.
type Data struct {
	Headers         []string
	Rows            [][]string
	ColumnAlignment []Align // Optional: column alignment
}

// ChangesetToTableData lists every classified key with its change type.
// Retained keys are only shown in wide mode.
func ChangesetToTableData(c *differ.Changeset, wide bool) Data {
	headers := []string{"Project", "Change", "Latitude", "Longitude", "Distance"}
	rows := make([][]string, 0, c.Summary.Added+c.Summary.Moved+c.Summary.Unchanged)

	for _, f := range c.Added {
		rows = append(rows, []string{
			f.Key(),
			string(differ.ChangeTypeAdd),
			FormatCoord(f.Latitude),
			FormatCoord(f.Longitude),
			"-",
		})
	}
	for _, m := range c.Moved {
		rows = append(rows, []string{
			m.Key,
			string(differ.ChangeTypeMove),
			FormatCoordChange(m.Existing.Latitude, m.Source.Latitude),
			FormatCoordChange(m.Existing.Longitude, m.Source.Longitude),
			FormatDistance(m.Distance),
		})
	}
	if wide {
		for _, k := range c.Unchanged {
			rows = append(rows, []string{k, string(differ.ChangeTypeUnchanged), "", "", ""})
		}
		for _, k := range c.Retained {
			rows = append(rows, []string{k, string(differ.ChangeTypeRetain), "", "", ""})
		}
	}

	return Data{
		Headers:         headers,
		Rows:            rows,
		ColumnAlignment: []Align{AlignLeft, AlignLeft, AlignRight, AlignRight, AlignRight},
	}
}

// DatasetToTableData converts a dataset to one row per feature.
func DatasetToTableData(ds *features.Dataset, wide bool) Data {
	headers := []string{"Project", "Latitude", "Longitude", "City", "State", "Status"}
	if wide {
		headers = append(headers, "Channel", "Business Unit", "Rep", "Lot Count", "Global ID")
	}

	rows := make([][]string, 0, ds.Len())
	for _, f := range ds.Features() {
		row := []string{
			f.Key(),
			FormatCoord(f.Latitude),
			FormatCoord(f.Longitude),
			dash(f.City),
			dash(f.State),
			dash(f.Status),
		}
		if wide {
			lots := "-"
			if f.LotCount != nil {
				lots = FormatNumber(*f.LotCount)
			}
			row = append(row, dash(f.Channel), dash(f.BusinessUnit), dash(f.Rep), lots, dash(f.Audit.GlobalID))
		}
		rows = append(rows, row)
	}

	return Data{Headers: headers, Rows: rows}
}

// ResultToTableData converts a reconciliation result to a key-value table.
func ResultToTableData(r *reconciler.Result) Data {
	applied := r.Applied
	if applied == nil {
		applied = r.Changeset
	}
	mode := "applied"
	if r.Metadata.DryRun {
		mode = "dry run"
	}

	rows := [][]string{
		{"Source", r.Metadata.SourceLayer},
		{"Target", r.Metadata.TargetLayer},
		{"Mode", mode},
		{"Strategy", string(r.Metadata.Strategy)},
		{"Added", strconv.Itoa(applied.Summary.Added)},
		{"Moved", strconv.Itoa(applied.Summary.Moved)},
		{"Unchanged", strconv.Itoa(r.Changeset.Summary.Unchanged)},
		{"Retained", strconv.Itoa(r.Changeset.Summary.Retained)},
		{"Deleted", strconv.Itoa(r.Deleted)},
		{"Appended", strconv.Itoa(r.Appended)},
		{"Duration", r.Metadata.Duration.Round(time.Millisecond).String()},
	}

	return Data{
		Headers:         []string{"Property", "Value"},
		Rows:            rows,
		ColumnAlignment: []Align{AlignLeft, AlignRight},
	}
}

// MigrationsToTableData lists applied schema migrations.
func MigrationsToTableData(migrations []store.Migration) Data {
	rows := make([][]string, 0, len(migrations))
	for _, m := range migrations {
		rows = append(rows, []string{
			strconv.FormatInt(m.Version, 10),
			m.Source,
			m.Duration.Round(time.Millisecond).String(),
		})
	}
	return Data{
		Headers:         []string{"Version", "Source", "Duration"},
		Rows:            rows,
		ColumnAlignment: []Align{AlignRight, AlignLeft, AlignRight},
	}
}

// FormatCoord formats a coordinate in decimal degrees.
func FormatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}

// FormatCoordChange shows an old and new coordinate, or just one when equal.
func FormatCoordChange(from, to float64) string {
	if from == to {
		return FormatCoord(to)
	}
	return FormatCoord(from) + " → " + FormatCoord(to)
}

// FormatDistance formats metres, switching to kilometres above 1000.
func FormatDistance(m float64) string {
	if m >= 1000 {
		return fmt.Sprintf("%.2f km", m/1000)
	}
	return fmt.Sprintf("%.1f m", m)
}

// FormatNumber formats large numbers with comma separators.
func FormatNumber(n int64) string {
	str := strconv.FormatInt(n, 10)
	sign := ""
	if n < 0 {
		sign, str = "-", str[1:]
	}
	if len(str) <= 3 {
		return sign + str
	}

	result := ""
	for i, r := range str {
		if i > 0 && (len(str)-i)%3 == 0 {
			result += ","
		}
		result += string(r)
	}
	return sign + result
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
