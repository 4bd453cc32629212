// Package features defines the point records that featuresync moves from a
// tabular export into an authoritative feature layer: projects, their point
// geometry, keyed datasets and the field mapping between the two schemas.
package features

import (
	"math"
	"strconv"
	"strings"

	"github.com/agentstation/featuresync/pkg/constants"
	"github.com/agentstation/featuresync/pkg/errors"
)

// Project is a business development project as exported to the CSV. Name is
// the key that identifies the project across runs.
type Project struct {
	Name            string  `json:"project_name" yaml:"project_name"`
	Channel         string  `json:"channel" yaml:"channel"`
	BusinessUnit    string  `json:"business_unit" yaml:"business_unit"`
	Rep             string  `json:"rep" yaml:"rep"`
	SalesforceOppID string  `json:"salesforce_opp_id" yaml:"salesforce_opp_id"`
	Latitude        float64 `json:"latitude" yaml:"latitude"`
	Longitude       float64 `json:"longitude" yaml:"longitude"`
	StreetAddress   string  `json:"street_address" yaml:"street_address"`
	City            string  `json:"city" yaml:"city"`
	State           string  `json:"state" yaml:"state"`
	ZipCode         string  `json:"zip_code" yaml:"zip_code"`
	Status          string  `json:"status" yaml:"status"`
	LotCount        *int64  `json:"lot_count,omitempty" yaml:"lot_count,omitempty"`
	Note            string  `json:"note" yaml:"note"`
}

// ProjectFields lists the project schema in export column order.
var ProjectFields = []string{
	constants.FieldProjectName,
	constants.FieldChannel,
	constants.FieldBusinessUnit,
	constants.FieldRep,
	constants.FieldSalesforceOppID,
	constants.FieldLatitude,
	constants.FieldLongitude,
	constants.FieldStreetAddress,
	constants.FieldCity,
	constants.FieldState,
	constants.FieldZipCode,
	constants.FieldStatus,
	constants.FieldLotCount,
	constants.FieldNote,
}

// IsProjectField reports whether name is one of the project schema fields.
func IsProjectField(name string) bool {
	for _, f := range ProjectFields {
		if f == name {
			return true
		}
	}
	return false
}

// SameLocation reports whether two projects have exactly the same coordinates.
func (p Project) SameLocation(other Project) bool {
	return p.Latitude == other.Latitude && p.Longitude == other.Longitude
}

// Value returns the field as a display string. Unknown fields return "".
func (p Project) Value(field string) string {
	switch field {
	case constants.FieldProjectName:
		return p.Name
	case constants.FieldChannel:
		return p.Channel
	case constants.FieldBusinessUnit:
		return p.BusinessUnit
	case constants.FieldRep:
		return p.Rep
	case constants.FieldSalesforceOppID:
		return p.SalesforceOppID
	case constants.FieldLatitude:
		return strconv.FormatFloat(p.Latitude, 'f', -1, 64)
	case constants.FieldLongitude:
		return strconv.FormatFloat(p.Longitude, 'f', -1, 64)
	case constants.FieldStreetAddress:
		return p.StreetAddress
	case constants.FieldCity:
		return p.City
	case constants.FieldState:
		return p.State
	case constants.FieldZipCode:
		return p.ZipCode
	case constants.FieldStatus:
		return p.Status
	case constants.FieldLotCount:
		if p.LotCount == nil {
			return ""
		}
		return strconv.FormatInt(*p.LotCount, 10)
	case constants.FieldNote:
		return p.Note
	}
	return ""
}

// Set parses raw and assigns it to the named field.
func (p *Project) Set(field, raw string) error {
	switch field {
	case constants.FieldProjectName:
		p.Name = raw
	case constants.FieldChannel:
		p.Channel = raw
	case constants.FieldBusinessUnit:
		p.BusinessUnit = raw
	case constants.FieldRep:
		p.Rep = raw
	case constants.FieldSalesforceOppID:
		p.SalesforceOppID = raw
	case constants.FieldLatitude:
		v, err := parseCoordinate(raw)
		if err != nil {
			return errors.NewValidationError(field, raw, err.Error())
		}
		p.Latitude = v
	case constants.FieldLongitude:
		v, err := parseCoordinate(raw)
		if err != nil {
			return errors.NewValidationError(field, raw, err.Error())
		}
		p.Longitude = v
	case constants.FieldStreetAddress:
		p.StreetAddress = raw
	case constants.FieldCity:
		p.City = raw
	case constants.FieldState:
		p.State = raw
	case constants.FieldZipCode:
		p.ZipCode = raw
	case constants.FieldStatus:
		p.Status = raw
	case constants.FieldLotCount:
		v, err := parseLotCount(raw)
		if err != nil {
			return errors.NewValidationError(field, raw, err.Error())
		}
		p.LotCount = v
	case constants.FieldNote:
		p.Note = raw
	default:
		return errors.NewValidationError(field, raw, "unknown project field")
	}
	return nil
}

// Attributes returns every field of the project keyed by field name.
func (p Project) Attributes() map[string]string {
	attrs := make(map[string]string, len(ProjectFields))
	for _, f := range ProjectFields {
		attrs[f] = p.Value(f)
	}
	return attrs
}

func parseCoordinate(raw string) (float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, errors.New("coordinate is empty")
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, errors.New("not a number")
	}
	return v, nil
}

// parseLotCount accepts blank values and integral decimals such as "12.0",
// which spreadsheet exports produce for numeric columns.
func parseLotCount(raw string) (*int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return &n, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || f != math.Trunc(f) || math.IsInf(f, 0) {
		return nil, errors.New("lot count must be a whole number")
	}
	n := int64(f)
	return &n, nil
}
