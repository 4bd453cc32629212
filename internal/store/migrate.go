package store

import (
	"context"
	"database/sql"
	"io/fs"

	"github.com/pressly/goose/v3"

	"github.com/agentstation/featuresync/pkg/errors"
	"github.com/agentstation/featuresync/pkg/logging"
)

// RunMigrations applies every pending migration in fsys with goose and
// returns the migrations that ran.
func RunMigrations(ctx context.Context, dialect goose.Dialect, db *sql.DB, fsys fs.FS) ([]Migration, error) {
	logger := logging.FromContext(ctx)

	provider, err := goose.NewProvider(dialect, db, fsys)
	if err != nil {
		return nil, errors.NewExecuteError("Migrate", err)
	}
	results, err := provider.Up(ctx)
	if err != nil {
		return nil, errors.NewExecuteError("Migrate", err, errors.Message{
			Severity: errors.SeverityInfo,
			Text:     "dialect " + string(dialect),
		})
	}

	applied := make([]Migration, 0, len(results))
	for _, r := range results {
		if r == nil || r.Source == nil {
			continue
		}
		applied = append(applied, Migration{
			Version:  r.Source.Version,
			Source:   r.Source.Path,
			Duration: r.Duration,
		})
		logger.Debug().
			Int64("version", r.Source.Version).
			Str("source", r.Source.Path).
			Dur("duration", r.Duration).
			Msg("Applied migration")
	}
	return applied, nil
}
