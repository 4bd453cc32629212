package sqlite

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/featuresync/internal/store"
	"github.com/agentstation/featuresync/internal/store/sqlstore"
	"github.com/agentstation/featuresync/pkg/errors"
	"github.com/agentstation/featuresync/pkg/features"
)

var fixedNow = time.Date(2024, 3, 15, 9, 30, 0, 0, time.UTC)

func openTest(t *testing.T, path string, opts ...store.Option) *sqlstore.Store {
	t.Helper()
	opts = append([]store.Option{
		store.WithLayer("Southeast_BusinessDevelopment_Projects"),
		store.WithEditor("gis_editor"),
		store.WithClock(func() time.Time { return fixedNow }),
	}, opts...)
	s, err := Open(context.Background(), path, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func project(name string, lat, lon float64) features.Feature {
	lots := int64(42)
	f, err := features.NewFeature(features.Project{
		Name:      name,
		Channel:   "Builder",
		Latitude:  lat,
		Longitude: lon,
		City:      "Nashville",
		State:     "TN",
		LotCount:  &lots,
	}, features.WGS84)
	if err != nil {
		panic(err)
	}
	return f
}

func appendAll(t *testing.T, s *sqlstore.Store, fs ...features.Feature) {
	t.Helper()
	err := s.Edit(context.Background(), func(sess store.Session) error {
		_, err := sess.Append(context.Background(), fs)
		return err
	})
	require.NoError(t, err)
}

func TestLoadEmpty(t *testing.T) {
	s := openTest(t, ":memory:")
	ds, err := s.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, ds.Len())
	assert.Equal(t, "Southeast_BusinessDevelopment_Projects", ds.Name())
}

func TestAppendAndLoad(t *testing.T) {
	ctx := context.Background()
	s := openTest(t, ":memory:")

	noLots := project("Riverbend", 36.1627, -86.7816)
	noLots.LotCount = nil
	appendAll(t, s, project("Oak Hollow", 35.9606, -83.9207), noLots)

	ds, err := s.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, ds.Len())
	assert.Equal(t, []string{"Oak Hollow", "Riverbend"}, ds.Keys())

	f, ok := ds.Get("Oak Hollow")
	require.True(t, ok)
	assert.Equal(t, 35.9606, f.Latitude)
	assert.Equal(t, -83.9207, f.Longitude)
	assert.Equal(t, features.Point{X: -83.9207, Y: 35.9606, SRID: 4326}, f.Geometry)
	assert.Equal(t, "Builder", f.Channel)
	require.NotNil(t, f.LotCount)
	assert.Equal(t, int64(42), *f.LotCount)

	assert.Positive(t, f.Audit.ObjectID)
	assert.True(t, strings.HasPrefix(f.Audit.GlobalID, "{") && strings.HasSuffix(f.Audit.GlobalID, "}"))
	assert.Equal(t, "gis_editor", f.Audit.CreatedUser)
	assert.Equal(t, "gis_editor", f.Audit.ModifiedBy)
	assert.True(t, f.Audit.CreatedDate.Equal(fixedNow), f.Audit.CreatedDate)

	r, _ := ds.Get("Riverbend")
	assert.Nil(t, r.LotCount)
	assert.NotEqual(t, f.Audit.GlobalID, r.Audit.GlobalID)
}

func TestDeleteRemovesEveryRowForKey(t *testing.T) {
	ctx := context.Background()
	s := openTest(t, ":memory:")
	appendAll(t, s,
		project("Dup", 35.0, -85.0),
		project("Dup", 35.5, -85.5),
		project("Keep", 36.0, -86.0),
	)

	ds, err := s.Load(ctx)
	require.NoError(t, err)
	dup, _ := ds.Get("Dup")
	assert.Equal(t, 35.5, dup.Latitude, "last row wins")

	var deleted int
	err = s.Edit(ctx, func(sess store.Session) error {
		deleted, err = sess.Delete(ctx, []string{"Dup", "Missing"})
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, 2, deleted)

	ds, err = s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Keep"}, ds.Keys())
}

func TestDeleteBatches(t *testing.T) {
	ctx := context.Background()
	s := openTest(t, ":memory:")

	var fs []features.Feature
	var keys []string
	for i := 0; i < 1200; i++ {
		name := fmt.Sprintf("P%04d", i)
		fs = append(fs, project(name, 30+float64(i)/1000, -80))
		keys = append(keys, name)
	}
	appendAll(t, s, fs...)

	err := s.Edit(ctx, func(sess store.Session) error {
		n, err := sess.Delete(ctx, keys[:1100])
		assert.Equal(t, 1100, n)
		return err
	})
	require.NoError(t, err)

	ds, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, 100, ds.Len())
}

func TestEditRollsBack(t *testing.T) {
	ctx := context.Background()
	s := openTest(t, ":memory:")
	appendAll(t, s, project("Moved", 35.0, -85.0), project("Stay", 36.0, -86.0))

	before, err := s.Load(ctx)
	require.NoError(t, err)

	boom := errors.New("append failed")
	err = s.Edit(ctx, func(sess store.Session) error {
		n, err := sess.Delete(ctx, []string{"Moved"})
		require.NoError(t, err)
		require.Equal(t, 1, n)
		if _, err := sess.Append(ctx, []features.Feature{project("Moved", 35.1, -85.0)}); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	after, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, before.Features(), after.Features())
}

func TestAppendRejectsForeignSpatialReference(t *testing.T) {
	ctx := context.Background()
	s := openTest(t, ":memory:")

	f := project("Projected", 35, -85)
	f.Geometry.SRID = 3857
	err := s.Edit(ctx, func(sess store.Session) error {
		_, err := sess.Append(ctx, []features.Feature{f})
		return err
	})
	require.Error(t, err)
	assert.True(t, errors.IsValidationError(err))
}

func TestLayerSpatialReferenceIsPinned(t *testing.T) {
	path := filepath.Join(t.TempDir(), "target.db")
	s := openTest(t, path)
	appendAll(t, s, project("A", 35, -85))
	require.NoError(t, s.Close())

	mercator, err := features.SpatialReferenceFromWKID(3857)
	require.NoError(t, err)
	other := openTest(t, path, store.WithSpatialReference(mercator))
	_, err = other.Load(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsValidationError(err))
	assert.Contains(t, err.Error(), "WKID 4326")
}

func TestLayersAreIsolated(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "workspace.db")

	target := openTest(t, path)
	appendAll(t, target, project("A", 35, -85))

	staging := openTest(t, path, store.WithLayer("Update_BusinessDev_Layer"))
	ds, err := staging.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, ds.Len())
}

func TestReplaceOverwrites(t *testing.T) {
	ctx := context.Background()
	s := openTest(t, ":memory:", store.WithLayer("Update_BusinessDev_Layer"))

	first := features.NewDataset("staging", features.WGS84)
	first.Add(project("A", 35, -85))
	first.Add(project("B", 36, -86))
	require.NoError(t, s.Replace(ctx, first))

	second := features.NewDataset("staging", features.WGS84)
	second.Add(project("C", 37, -87))
	require.NoError(t, s.Replace(ctx, second))

	ds, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"C"}, ds.Keys())
}

func TestMigrateIsIdempotent(t *testing.T) {
	s := openTest(t, ":memory:")
	applied, err := s.Migrate(context.Background())
	require.NoError(t, err)
	assert.Empty(t, applied)

	fresh := openTest(t, ":memory:", store.WithAutoMigrate(false))
	applied, err = fresh.Migrate(context.Background())
	require.NoError(t, err)
	require.Len(t, applied, 1)
	assert.Equal(t, int64(1), applied[0].Version)
}

func TestCanceledContextRollsBack(t *testing.T) {
	s := openTest(t, ":memory:")
	appendAll(t, s, project("A", 35, -85))

	ctx, cancel := context.WithCancel(context.Background())
	err := s.Edit(ctx, func(sess store.Session) error {
		if _, err := sess.Delete(ctx, []string{"A"}); err != nil {
			return err
		}
		cancel()
		return ctx.Err()
	})
	require.ErrorIs(t, err, context.Canceled)

	ds, err := s.Load(context.Background())
	require.NoError(t, err)
	assert.True(t, ds.Has("A"))
}

func TestReadOnly(t *testing.T) {
	t.Run("missing file is not created", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "nested", "authoritative.db")
		_, err := Open(context.Background(), path, store.WithReadOnly(true))
		require.Error(t, err)
		assert.True(t, errors.IsNotFound(err))
		assert.NoFileExists(t, path)
		assert.NoDirExists(t, filepath.Dir(path))
	})

	t.Run("unmigrated database loads empty", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "blank.db")
		require.NoError(t, os.WriteFile(path, nil, 0o644))

		s := openTest(t, path, store.WithReadOnly(true))
		ds, err := s.Load(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 0, ds.Len())

		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.Zero(t, info.Size())
	})

	t.Run("existing layer is readable but not editable", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "authoritative.db")
		rw := openTest(t, path)
		appendAll(t, rw, project("A", 35, -85))
		require.NoError(t, rw.Close())

		ro := openTest(t, path, store.WithReadOnly(true))
		ds, err := ro.Load(context.Background())
		require.NoError(t, err)
		assert.Equal(t, []string{"A"}, ds.Keys())

		err = ro.Edit(context.Background(), func(store.Session) error { return nil })
		assert.Error(t, err)
		assert.Error(t, ro.Replace(context.Background(), ds))
	})
}
