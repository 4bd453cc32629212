// Package postgres stores feature layers in a PostGIS database through the
// pgx database/sql driver.
package postgres

import (
	"context"
	"database/sql"
	"embed"
	"io/fs"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" driver
	"github.com/pressly/goose/v3"

	"github.com/agentstation/featuresync/internal/store"
	"github.com/agentstation/featuresync/internal/store/sqlstore"
	"github.com/agentstation/featuresync/pkg/errors"
	"github.com/agentstation/featuresync/pkg/features"
	"github.com/agentstation/featuresync/pkg/logging"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

// Dialect returns the PostGIS dialect. Shapes are built server side from
// their coordinates and read back as WKB.
func Dialect() sqlstore.Dialect {
	migrations, err := fs.Sub(embedMigrations, "migrations")
	if err != nil {
		panic(err)
	}
	return sqlstore.Dialect{
		Name:        "postgres",
		Goose:       goose.DialectPostgres,
		Migrations:  migrations,
		Placeholder: sqlstore.DollarPlaceholder,
		ShapeValue: func(next func() string) string {
			x, y, srid := next(), next(), next()
			return "ST_SetSRID(ST_MakePoint(" + x + ", " + y + "), " + srid + ")"
		},
		ShapeArgs: func(p features.Point) []any {
			return []any{p.X, p.Y, p.SRID}
		},
		ShapeSelect: `ST_AsBinary("Shape")`,
		TableExists: "SELECT count(*) FROM information_schema.tables WHERE table_schema = current_schema() AND table_name = $1",
	}
}

// Open connects to the PostGIS database at dsn.
func Open(ctx context.Context, dsn string, opts ...store.Option) (*sqlstore.Store, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, errors.NewExecuteError("Connect", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, errors.NewExecuteError("Connect", err)
	}
	return New(ctx, db, opts...)
}

// New wraps an open connection pool, running migrations when enabled. A
// read-only store never migrates.
func New(ctx context.Context, db *sql.DB, opts ...store.Option) (*sqlstore.Store, error) {
	o := store.NewOptions(opts...)
	s := sqlstore.New(db, Dialect(), o)
	if o.AutoMigrate && !o.ReadOnly {
		if _, err := s.Migrate(ctx); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	logging.FromContext(ctx).Debug().Str("layer", o.Layer).Msg("Opened postgres store")
	return s, nil
}
