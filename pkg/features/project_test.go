package features_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/featuresync/pkg/constants"
	"github.com/agentstation/featuresync/pkg/features"
)

func TestProjectSetAndValue(t *testing.T) {
	var p features.Project
	raw := map[string]string{
		constants.FieldProjectName:     "Oak Ridge",
		constants.FieldChannel:         "Builder",
		constants.FieldBusinessUnit:    "SE",
		constants.FieldRep:             "J. Doe",
		constants.FieldSalesforceOppID: "006XYZ",
		constants.FieldLatitude:        " 38.627 ",
		constants.FieldLongitude:       "-90.1994",
		constants.FieldStreetAddress:   "1 Main St",
		constants.FieldCity:            "St. Louis",
		constants.FieldState:           "MO",
		constants.FieldZipCode:         "63101",
		constants.FieldStatus:          "Active",
		constants.FieldLotCount:        "120.0",
		constants.FieldNote:            "phase 1",
	}
	for field, v := range raw {
		require.NoError(t, p.Set(field, v), field)
	}

	assert.Equal(t, "Oak Ridge", p.Name)
	assert.Equal(t, 38.627, p.Latitude)
	assert.Equal(t, -90.1994, p.Longitude)
	require.NotNil(t, p.LotCount)
	assert.Equal(t, int64(120), *p.LotCount)
	assert.Equal(t, "120", p.Value(constants.FieldLotCount))
	assert.Equal(t, "-90.1994", p.Value(constants.FieldLongitude))
	assert.Len(t, p.Attributes(), len(features.ProjectFields))
	assert.Equal(t, "", p.Value("Unknown"))
}

func TestProjectSetErrors(t *testing.T) {
	var p features.Project
	assert.Error(t, p.Set(constants.FieldLatitude, ""))
	assert.Error(t, p.Set(constants.FieldLatitude, "north"))
	assert.Error(t, p.Set(constants.FieldLotCount, "12.5"))
	assert.Error(t, p.Set(constants.FieldLotCount, "many"))
	assert.Error(t, p.Set("Shape", "x"))

	require.NoError(t, p.Set(constants.FieldLotCount, ""))
	assert.Nil(t, p.LotCount)
	assert.Equal(t, "", p.Value(constants.FieldLotCount))
}

func TestSameLocation(t *testing.T) {
	a := features.Project{Name: "A", Latitude: 38.1, Longitude: -90.2}
	b := a
	b.Status = "Closed"
	assert.True(t, a.SameLocation(b), "attribute changes are not location changes")

	b.Latitude = 38.100000000000001 // same float64 after parsing
	assert.True(t, a.SameLocation(b))

	b.Latitude = 38.10000000000001
	assert.False(t, a.SameLocation(b))
}

func TestNewFeature(t *testing.T) {
	f, err := features.NewFeature(features.Project{Name: "A", Latitude: 38.1, Longitude: -90.2}, features.WGS84)
	require.NoError(t, err)
	assert.Equal(t, "A", f.Key())
	assert.Equal(t, -90.2, f.Geometry.X)
	assert.Equal(t, 38.1, f.Geometry.Y)

	_, err = features.NewFeature(features.Project{Name: "B", Latitude: 138.1}, features.WGS84)
	assert.Error(t, err)
}
