package sqlstore

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"github.com/agentstation/featuresync/internal/store"
	"github.com/agentstation/featuresync/pkg/constants"
	"github.com/agentstation/featuresync/pkg/errors"
	"github.com/agentstation/featuresync/pkg/features"
	"github.com/agentstation/featuresync/pkg/logging"
)

// deleteBatchSize bounds the number of bind parameters in one DELETE.
const deleteBatchSize = 500

// Store is a feature layer held in a SQL database.
type Store struct {
	db      *sql.DB
	dialect Dialect
	opts    *store.Options
}

var (
	_ store.Store    = (*Store)(nil)
	_ store.Stager   = (*Store)(nil)
	_ store.Migrator = (*Store)(nil)
)

// New wraps an open database. The caller hands ownership of db to the store.
func New(db *sql.DB, dialect Dialect, opts *store.Options) *Store {
	if opts == nil {
		opts = store.NewOptions()
	}
	return &Store{db: db, dialect: dialect, opts: opts}
}

// DB returns the underlying database handle.
func (s *Store) DB() *sql.DB { return s.db }

// Layer returns the layer this store reads and edits.
func (s *Store) Layer() string { return s.opts.Layer }

// Migrate applies the dialect's schema migrations.
func (s *Store) Migrate(ctx context.Context) ([]store.Migration, error) {
	return store.RunMigrations(ctx, s.dialect.Goose, s.db, s.dialect.Migrations)
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Load reads every feature of the layer in OBJECTID order. When the target
// holds several rows for one key, the last one is kept. A read-only store
// whose schema was never migrated loads as an empty layer.
func (s *Store) Load(ctx context.Context) (*features.Dataset, error) {
	logger := logging.FromContext(ctx)
	ds := features.NewDataset(s.opts.Layer, s.opts.SpatialReference)

	if s.opts.ReadOnly {
		ok, err := s.hasSchema(ctx)
		if err != nil {
			return nil, err
		}
		if !ok {
			logger.Debug().Str("layer", s.opts.Layer).Msg("Schema not migrated, layer is empty")
			return ds, nil
		}
	}

	if err := s.checkLayer(ctx, s.db); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, s.selectSQL(), s.opts.Layer)
	if err != nil {
		return nil, s.executeError("Search Cursor", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		f, err := s.scanFeature(rows)
		if err != nil {
			return nil, err
		}
		if ds.Add(f) {
			logger.Warn().
				Str("layer", s.opts.Layer).
				Str("project", f.Key()).
				Msg("Target holds more than one row for project")
		}
	}
	if err := rows.Err(); err != nil {
		return nil, s.executeError("Search Cursor", err)
	}

	logger.Debug().Str("layer", s.opts.Layer).Int("features", ds.Len()).Msg("Loaded features")
	return ds, nil
}

// hasSchema reports whether both layer tables exist.
func (s *Store) hasSchema(ctx context.Context) (bool, error) {
	for _, table := range []string{LayersTable, FeaturesTable} {
		var n int
		if err := s.db.QueryRowContext(ctx, s.dialect.TableExists, table).Scan(&n); err != nil {
			return false, s.executeError("Describe", err)
		}
		if n == 0 {
			return false, nil
		}
	}
	return true, nil
}

// Edit runs fn inside one transaction.
func (s *Store) Edit(ctx context.Context, fn func(store.Session) error) error {
	if s.opts.ReadOnly {
		return s.readOnlyError()
	}
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if err := s.ensureLayer(ctx, tx); err != nil {
			return err
		}
		return fn(&session{store: s, tx: tx})
	})
}

// Replace overwrites the layer with ds.
func (s *Store) Replace(ctx context.Context, ds *features.Dataset) error {
	if s.opts.ReadOnly {
		return s.readOnlyError()
	}
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if err := s.ensureLayer(ctx, tx); err != nil {
			return err
		}
		q := fmt.Sprintf("DELETE FROM %s WHERE layer = %s", FeaturesTable, s.dialect.Placeholder(1))
		if _, err := tx.ExecContext(ctx, q, s.opts.Layer); err != nil {
			return s.executeError("Truncate Table", err)
		}
		sess := &session{store: s, tx: tx}
		n, err := sess.Append(ctx, ds.Features())
		if err != nil {
			return err
		}
		logging.FromContext(ctx).Debug().
			Str("layer", s.opts.Layer).
			Int("rows", n).
			Msg("Replaced layer contents")
		return nil
	})
}

// withTx runs fn in a transaction, rolling back on any error.
func (s *Store) withTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return s.executeError("Start Editing", err)
	}
	defer func() {
		if err := tx.Rollback(); err != nil && !stderrors.Is(err, sql.ErrTxDone) {
			logging.FromContext(ctx).Warn().Err(err).Str("layer", s.opts.Layer).Msg("Failed to roll back edit")
		}
	}()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return s.executeError("Stop Editing", err)
	}
	return nil
}

type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// checkLayer verifies that a registered layer uses the configured spatial
// reference. Unregistered layers pass.
func (s *Store) checkLayer(ctx context.Context, q querier) error {
	_, err := s.layerWKID(ctx, q)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil
	}
	return err
}

// ensureLayer registers the layer on first write.
func (s *Store) ensureLayer(ctx context.Context, tx *sql.Tx) error {
	_, err := s.layerWKID(ctx, tx)
	if !stderrors.Is(err, sql.ErrNoRows) {
		return err
	}
	p := s.dialect.Placeholder
	q := fmt.Sprintf("INSERT INTO %s (name, wkid, created_date) VALUES (%s, %s, %s)", LayersTable, p(1), p(2), p(3))
	if _, err := tx.ExecContext(ctx, q, s.opts.Layer, s.opts.SpatialReference.WKID, s.opts.Now()); err != nil {
		return s.executeError("Define Projection", err)
	}
	logging.FromContext(ctx).Info().
		Str("layer", s.opts.Layer).
		Int("wkid", s.opts.SpatialReference.WKID).
		Msg("Registered layer")
	return nil
}

func (s *Store) layerWKID(ctx context.Context, q querier) (int, error) {
	var wkid int
	query := fmt.Sprintf("SELECT wkid FROM %s WHERE name = %s", LayersTable, s.dialect.Placeholder(1))
	err := q.QueryRowContext(ctx, query, s.opts.Layer).Scan(&wkid)
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return 0, err
		}
		return 0, s.executeError("Describe", err)
	}
	if wkid != s.opts.SpatialReference.WKID {
		return 0, errors.NewValidationError("spatial_reference", wkid,
			fmt.Sprintf("layer %s uses WKID %d, not %d", s.opts.Layer, wkid, s.opts.SpatialReference.WKID))
	}
	return wkid, nil
}

func (s *Store) executeError(tool string, err error) error {
	return errors.NewExecuteError(tool, err,
		errors.Message{Severity: errors.SeverityInfo, Text: fmt.Sprintf("%s layer %s", s.dialect.Name, s.opts.Layer)})
}

func (s *Store) readOnlyError() error {
	return errors.NewResourceError("edit", "layer", s.opts.Layer, fmt.Errorf("store is read-only"))
}

func quote(ident string) string {
	return `"` + ident + `"`
}

// auditColumns follow the geometry columns in every insert.
var auditColumns = []string{
	constants.FieldGlobalID,
	constants.FieldCreatedUser,
	constants.FieldCreatedDate,
	constants.FieldModifiedBy,
	constants.FieldModifiedDate,
}

func (s *Store) selectSQL() string {
	cols := []string{quote(constants.FieldObjectID)}
	for _, f := range features.ProjectFields {
		cols = append(cols, quote(f))
	}
	cols = append(cols, s.dialect.ShapeSelect, "shape_srid")
	for _, c := range auditColumns {
		cols = append(cols, quote(c))
	}
	return fmt.Sprintf("SELECT %s FROM %s WHERE layer = %s ORDER BY %s",
		strings.Join(cols, ", "), FeaturesTable, s.dialect.Placeholder(1), quote(constants.FieldObjectID))
}

func (s *Store) insertSQL() string {
	n := 0
	next := func() string {
		n++
		return s.dialect.Placeholder(n)
	}

	cols := []string{"layer"}
	vals := []string{next()}
	for _, f := range features.ProjectFields {
		cols = append(cols, quote(f))
		vals = append(vals, next())
	}
	cols = append(cols, quote(constants.FieldShape))
	vals = append(vals, s.dialect.ShapeValue(next))
	for _, c := range []string{"shape_x", "shape_y", "shape_srid"} {
		cols = append(cols, c)
		vals = append(vals, next())
	}
	for _, c := range auditColumns {
		cols = append(cols, quote(c))
		vals = append(vals, next())
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		FeaturesTable, strings.Join(cols, ", "), strings.Join(vals, ", "))
}

type scanner interface {
	Scan(dest ...any) error
}

func (s *Store) scanFeature(sc scanner) (features.Feature, error) {
	var (
		f                       features.Feature
		lotCount                sql.NullInt64
		shape                   []byte
		srid                    int
		createdUser, modifiedBy sql.NullString
		createdDate, modDate    sql.NullTime
	)

	p := &f.Project
	dest := []any{&f.Audit.ObjectID}
	for _, field := range features.ProjectFields {
		switch field {
		case constants.FieldProjectName:
			dest = append(dest, &p.Name)
		case constants.FieldChannel:
			dest = append(dest, &p.Channel)
		case constants.FieldBusinessUnit:
			dest = append(dest, &p.BusinessUnit)
		case constants.FieldRep:
			dest = append(dest, &p.Rep)
		case constants.FieldSalesforceOppID:
			dest = append(dest, &p.SalesforceOppID)
		case constants.FieldLatitude:
			dest = append(dest, &p.Latitude)
		case constants.FieldLongitude:
			dest = append(dest, &p.Longitude)
		case constants.FieldStreetAddress:
			dest = append(dest, &p.StreetAddress)
		case constants.FieldCity:
			dest = append(dest, &p.City)
		case constants.FieldState:
			dest = append(dest, &p.State)
		case constants.FieldZipCode:
			dest = append(dest, &p.ZipCode)
		case constants.FieldStatus:
			dest = append(dest, &p.Status)
		case constants.FieldLotCount:
			dest = append(dest, &lotCount)
		case constants.FieldNote:
			dest = append(dest, &p.Note)
		}
	}
	dest = append(dest, &shape, &srid, &f.Audit.GlobalID, &createdUser, &createdDate, &modifiedBy, &modDate)

	if err := sc.Scan(dest...); err != nil {
		return features.Feature{}, s.executeError("Search Cursor", err)
	}

	pt, err := features.PointFromWKB(shape, srid)
	if err != nil {
		return features.Feature{}, errors.NewResourceError("decode", "shape", p.Name, err)
	}
	f.Geometry = pt
	if lotCount.Valid {
		v := lotCount.Int64
		p.LotCount = &v
	}
	f.Audit.CreatedUser = createdUser.String
	f.Audit.ModifiedBy = modifiedBy.String
	if createdDate.Valid {
		f.Audit.CreatedDate = createdDate.Time
	}
	if modDate.Valid {
		f.Audit.ModifiedDate = modDate.Time
	}
	return f, nil
}

// session is an open edit on a Store.
type session struct {
	store *Store
	tx    *sql.Tx
}

// Delete removes every row of the layer whose key is in keys.
func (s *session) Delete(ctx context.Context, keys []string) (int, error) {
	layer := s.store.opts.Layer
	deleted := 0
	for start := 0; start < len(keys); start += deleteBatchSize {
		end := min(start+deleteBatchSize, len(keys))
		batch := keys[start:end]

		args := make([]any, 0, len(batch)+1)
		args = append(args, layer)
		marks := make([]string, 0, len(batch))
		for i, k := range batch {
			args = append(args, k)
			marks = append(marks, s.store.dialect.Placeholder(i+2))
		}
		q := fmt.Sprintf("DELETE FROM %s WHERE layer = %s AND %s IN (%s)",
			FeaturesTable, s.store.dialect.Placeholder(1), quote(constants.FieldProjectName), strings.Join(marks, ", "))

		res, err := s.tx.ExecContext(ctx, q, args...)
		if err != nil {
			return deleted, s.store.executeError("Delete Rows", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return deleted, s.store.executeError("Delete Rows", err)
		}
		deleted += int(n)
	}
	logging.FromContext(ctx).Debug().Str("layer", layer).Int("rows", deleted).Msg("Deleted rows")
	return deleted, nil
}

// Append inserts fs, filling in the audit fields.
func (s *session) Append(ctx context.Context, fs []features.Feature) (int, error) {
	if len(fs) == 0 {
		return 0, nil
	}
	opts := s.store.opts

	stmt, err := s.tx.PrepareContext(ctx, s.store.insertSQL())
	if err != nil {
		return 0, s.store.executeError("Append", err)
	}
	defer func() { _ = stmt.Close() }()

	now := opts.Now()
	appended := 0
	for _, f := range fs {
		if f.Geometry.SRID != opts.SpatialReference.WKID {
			return appended, errors.NewValidationError("spatial_reference", f.Geometry.SRID,
				fmt.Sprintf("feature %s is in WKID %d, layer %s expects %d", f.Key(), f.Geometry.SRID, opts.Layer, opts.SpatialReference.WKID))
		}
		args := s.store.insertArgs(f, now)
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return appended, errors.NewExecuteError("Append", err,
				errors.Message{Severity: errors.SeverityInfo, Text: fmt.Sprintf("%s layer %s", s.store.dialect.Name, opts.Layer)},
				errors.Message{Severity: errors.SeverityInfo, Text: "project " + f.Key()})
		}
		appended++
	}
	logging.FromContext(ctx).Debug().Str("layer", opts.Layer).Int("rows", appended).Msg("Appended rows")
	return appended, nil
}

func (s *Store) insertArgs(f features.Feature, now time.Time) []any {
	p := f.Project
	args := []any{s.opts.Layer}
	for _, field := range features.ProjectFields {
		switch field {
		case constants.FieldLatitude:
			args = append(args, p.Latitude)
		case constants.FieldLongitude:
			args = append(args, p.Longitude)
		case constants.FieldLotCount:
			if p.LotCount == nil {
				args = append(args, nil)
			} else {
				args = append(args, *p.LotCount)
			}
		default:
			args = append(args, p.Value(field))
		}
	}
	args = append(args, s.dialect.ShapeArgs(f.Geometry)...)
	args = append(args, f.Geometry.X, f.Geometry.Y, f.Geometry.SRID)
	args = append(args, store.NewGlobalID(), s.opts.Editor, now, s.opts.Editor, now)
	return args
}
