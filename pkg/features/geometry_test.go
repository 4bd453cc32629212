package features_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/featuresync/pkg/errors"
	"github.com/agentstation/featuresync/pkg/features"
)

func TestXYToPoint(t *testing.T) {
	tests := []struct {
		name    string
		x, y    float64
		wantErr bool
	}{
		{name: "st louis", x: -90.1994, y: 38.6270},
		{name: "corner", x: 180, y: -90},
		{name: "latitude too large", x: 0, y: 90.0001, wantErr: true},
		{name: "longitude too small", x: -180.5, y: 0, wantErr: true},
		{name: "nan", x: math.NaN(), y: 0, wantErr: true},
		{name: "inf", x: 0, y: math.Inf(1), wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pt, err := features.XYToPoint(tt.x, tt.y, features.WGS84)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.IsValidationError(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.x, pt.X)
			assert.Equal(t, tt.y, pt.Y)
			assert.Equal(t, 4326, pt.SRID)
		})
	}
}

func TestXYToPointProjected(t *testing.T) {
	sr, err := features.SpatialReferenceFromWKID(3857)
	require.NoError(t, err)
	assert.False(t, sr.Geographic())
	assert.Equal(t, "EPSG:3857 (3857)", sr.String())

	pt, err := features.XYToPoint(-10040000, 4660000, sr)
	require.NoError(t, err)
	assert.Equal(t, 3857, pt.SRID)

	_, err = features.SpatialReferenceFromWKID(0)
	assert.Error(t, err)
}

func TestPointText(t *testing.T) {
	pt := features.Point{X: -90.5, Y: 38.25, SRID: 4326}
	assert.Equal(t, "POINT (-90.5 38.25)", pt.WKT())
	assert.Equal(t, "SRID=4326;POINT(-90.5 38.25)", pt.EWKT())
}

func TestPointWKB(t *testing.T) {
	pt := features.Point{X: -90.19940000000001, Y: 38.627, SRID: 4326}
	b := pt.WKB()
	require.Len(t, b, 21)
	assert.Equal(t, byte(1), b[0])

	back, err := features.PointFromWKB(b, 4326)
	require.NoError(t, err)
	assert.Equal(t, pt, back)

	t.Run("big endian", func(t *testing.T) {
		be := []byte{0, 0, 0, 0, 1,
			0x3f, 0xf0, 0, 0, 0, 0, 0, 0, // 1.0
			0x40, 0, 0, 0, 0, 0, 0, 0, // 2.0
		}
		p, err := features.PointFromWKB(be, 0)
		require.NoError(t, err)
		assert.Equal(t, 1.0, p.X)
		assert.Equal(t, 2.0, p.Y)
	})

	t.Run("rejects bad input", func(t *testing.T) {
		_, err := features.PointFromWKB([]byte{1, 2, 3}, 4326)
		assert.Error(t, err)

		bad := pt.WKB()
		bad[0] = 7
		_, err = features.PointFromWKB(bad, 4326)
		assert.Error(t, err)

		line := pt.WKB()
		line[1] = 2
		_, err = features.PointFromWKB(line, 4326)
		assert.Error(t, err)
	})
}

func TestDistance(t *testing.T) {
	a := features.Point{X: -90.1994, Y: 38.6270, SRID: 4326}
	assert.InDelta(t, 0, features.Distance(a, a), 1e-9)

	// One degree of latitude is roughly 111.2 km.
	b := features.Point{X: -90.1994, Y: 39.6270, SRID: 4326}
	assert.InDelta(t, 111195, features.Distance(a, b), 50)

	t.Run("projected points use planar distance", func(t *testing.T) {
		p := features.Point{X: 500000, Y: 4270000, SRID: 26915}
		q := features.Point{X: 500003, Y: 4270004, SRID: 26915}
		assert.InDelta(t, 5, features.Distance(p, q), 1e-9)
	})
}
