// Package sqlstore implements store.Store on top of database/sql. The SQLite
// and PostgreSQL backends differ only in their Dialect.
package sqlstore

import (
	"fmt"
	"io/fs"

	"github.com/pressly/goose/v3"

	"github.com/agentstation/featuresync/pkg/features"
)

// Table names shared by every dialect's migrations.
const (
	FeaturesTable = "project_features"
	LayersTable   = "feature_layers"
)

// Dialect captures the SQL differences between backends.
type Dialect struct {
	Name       string
	Goose      goose.Dialect
	Migrations fs.FS

	// Placeholder returns the bind parameter for the n-th (1-based) argument.
	Placeholder func(n int) string

	// ShapeValue returns the insert expression for the Shape column. It
	// calls next once per argument that ShapeArgs returns.
	ShapeValue func(next func() string) string

	// ShapeArgs returns the bind arguments consumed by ShapeValue.
	ShapeArgs func(p features.Point) []any

	// ShapeSelect is the select expression that yields the Shape as WKB.
	ShapeSelect string

	// TableExists counts the tables named by its single bind parameter.
	TableExists string
}

// QuestionPlaceholder binds with "?".
func QuestionPlaceholder(int) string { return "?" }

// DollarPlaceholder binds with "$n".
func DollarPlaceholder(n int) string { return fmt.Sprintf("$%d", n) }
