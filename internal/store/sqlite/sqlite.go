// Package sqlite stores feature layers in a SQLite database file using the
// pure-Go modernc.org/sqlite driver.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"github.com/agentstation/featuresync/internal/store"
	"github.com/agentstation/featuresync/internal/store/sqlstore"
	"github.com/agentstation/featuresync/pkg/constants"
	"github.com/agentstation/featuresync/pkg/errors"
	"github.com/agentstation/featuresync/pkg/features"
	"github.com/agentstation/featuresync/pkg/logging"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

// Dialect returns the SQLite dialect. Shapes are stored as WKB blobs.
func Dialect() sqlstore.Dialect {
	migrations, err := fs.Sub(embedMigrations, "migrations")
	if err != nil {
		panic(err)
	}
	return sqlstore.Dialect{
		Name:        "sqlite",
		Goose:       goose.DialectSQLite3,
		Migrations:  migrations,
		Placeholder: sqlstore.QuestionPlaceholder,
		ShapeValue: func(next func() string) string {
			return next()
		},
		ShapeArgs: func(p features.Point) []any {
			return []any{p.WKB()}
		},
		ShapeSelect: `"Shape"`,
		TableExists: "SELECT count(*) FROM sqlite_master WHERE type = 'table' AND name = ?",
	}
}

// pragmas are applied to every connection the store opens.
var pragmas = []string{
	"PRAGMA foreign_keys = ON",
	fmt.Sprintf("PRAGMA busy_timeout = %d", constants.BusyTimeoutMillis),
}

// walPragma switches the journal mode, which writes to the file.
const walPragma = "PRAGMA journal_mode = WAL"

// Open opens (creating if needed) the SQLite database at path. Paths may be
// plain file names, ":memory:" or "file:" URIs. A read-only open never
// creates the file and fails with a NotFoundError when it is missing.
func Open(ctx context.Context, path string, opts ...store.Option) (*sqlstore.Store, error) {
	o := store.NewOptions(opts...)
	logger := logging.FromContext(ctx)

	if o.ReadOnly {
		if err := mustExist(path); err != nil {
			return nil, err
		}
	} else if err := ensureDir(path); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.NewExecuteError("Open Workspace", err)
	}

	// One connection keeps :memory: databases alive for the life of the
	// store and serializes writers.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	closeOnErr := func(err error) error {
		if closeErr := db.Close(); closeErr != nil {
			logger.Error().Err(closeErr).Msg("Error closing database")
		}
		return err
	}

	connPragmas := slices.Clone(pragmas)
	if !o.ReadOnly {
		connPragmas = append(connPragmas, walPragma)
	}
	for _, pragma := range connPragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			return nil, closeOnErr(errors.NewExecuteError("Open Workspace", err,
				errors.Message{Severity: errors.SeverityInfo, Text: pragma}))
		}
	}

	if err := db.PingContext(ctx); err != nil {
		return nil, closeOnErr(errors.NewExecuteError("Open Workspace", err))
	}

	s := sqlstore.New(db, Dialect(), o)
	if o.AutoMigrate && !o.ReadOnly {
		if _, err := s.Migrate(ctx); err != nil {
			return nil, closeOnErr(err)
		}
	}

	logger.Debug().Str("path", path).Str("layer", o.Layer).Bool("read_only", o.ReadOnly).Msg("Opened sqlite store")
	return s, nil
}

func ensureDir(path string) error {
	if isMemoryPath(path) || strings.HasPrefix(path, "file:") {
		return nil
	}
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	if err := os.MkdirAll(dir, constants.DirPermissions); err != nil {
		return errors.WrapIO("create", dir, err)
	}
	return nil
}

func mustExist(path string) error {
	if uri, ok := strings.CutPrefix(path, "file:"); ok {
		var query string
		path, query, _ = strings.Cut(uri, "?")
		if strings.Contains(query, "mode=memory") {
			return nil
		}
	}
	if isMemoryPath(path) {
		return nil
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return errors.NewNotFoundError("database", path)
		}
		return errors.WrapIO("stat", path, err)
	}
	return nil
}

func isMemoryPath(path string) bool {
	return path == ":memory:"
}
