package features

import "time"

// Audit holds the system-managed fields of a persisted feature. They are
// filled by the store and never compared or copied from the source.
type Audit struct {
	ObjectID     int64     `json:"objectid,omitempty" yaml:"objectid,omitempty"`
	GlobalID     string    `json:"global_id,omitempty" yaml:"global_id,omitempty"`
	CreatedUser  string    `json:"created_user,omitempty" yaml:"created_user,omitempty"`
	CreatedDate  time.Time `json:"created_date,omitzero" yaml:"created_date,omitempty"`
	ModifiedBy   string    `json:"modified_by,omitempty" yaml:"modified_by,omitempty"`
	ModifiedDate time.Time `json:"modified_date,omitzero" yaml:"modified_date,omitempty"`
}

// Feature is a project with its point geometry.
type Feature struct {
	Project  `yaml:",inline"`
	Geometry Point `json:"shape" yaml:"shape"`
	Audit    Audit `json:"audit,omitzero" yaml:"audit,omitempty"`
}

// Key returns the project name that identifies the feature.
func (f Feature) Key() string {
	return f.Project.Name
}

// NewFeature geometrizes a project from its longitude (x) and latitude (y).
func NewFeature(p Project, sr SpatialReference) (Feature, error) {
	pt, err := XYToPoint(p.Longitude, p.Latitude, sr)
	if err != nil {
		return Feature{}, err
	}
	return Feature{Project: p, Geometry: pt}, nil
}
