package features

import (
	"fmt"

	"github.com/goccy/go-yaml"

	"github.com/agentstation/featuresync/pkg/constants"
	"github.com/agentstation/featuresync/pkg/errors"
)

// IgnoreFields are the system-managed fields of the target layer. They are
// never read for comparison and never written from the source.
var IgnoreFields = []string{
	constants.FieldGlobalID,
	constants.FieldCreatedUser,
	constants.FieldCreatedDate,
	constants.FieldModifiedBy,
	constants.FieldModifiedDate,
	constants.FieldObjectID,
	constants.FieldShape,
}

// IsIgnored reports whether the field is system-managed.
func IsIgnored(field string) bool {
	for _, f := range IgnoreFields {
		if f == field {
			return true
		}
	}
	return false
}

// FieldPair maps one source column onto one target field.
type FieldPair struct {
	Source string `yaml:"source" json:"source"`
	Target string `yaml:"target" json:"target"`
}

// FieldMapping is the ordered list of source → target field pairs. The first
// pair must map onto the key field.
type FieldMapping []FieldPair

// DefaultMapping maps every project field onto itself.
func DefaultMapping() FieldMapping {
	m := make(FieldMapping, 0, len(ProjectFields))
	for _, f := range ProjectFields {
		m = append(m, FieldPair{Source: f, Target: f})
	}
	return m
}

// SourceFields returns the source column names in mapping order.
func (m FieldMapping) SourceFields() []string {
	out := make([]string, 0, len(m))
	for _, p := range m {
		out = append(out, p.Source)
	}
	return out
}

// TargetFields returns the target field names, minus ignored fields.
func (m FieldMapping) TargetFields() []string {
	out := make([]string, 0, len(m))
	for _, p := range m {
		if !IsIgnored(p.Target) {
			out = append(out, p.Target)
		}
	}
	return out
}

// Validate checks that the mapping starts with the key field, covers the
// coordinate fields, targets only known project fields and has no duplicates.
func (m FieldMapping) Validate() error {
	if len(m) == 0 {
		return errors.NewValidationError("mapping", nil, "field mapping is empty")
	}
	if m[0].Target != constants.FieldProjectName {
		return errors.NewValidationError("mapping", m[0].Target,
			fmt.Sprintf("first field must map to %s", constants.FieldProjectName))
	}
	sources := make(map[string]bool, len(m))
	targets := make(map[string]bool, len(m))
	for _, p := range m {
		if p.Source == "" || p.Target == "" {
			return errors.NewValidationError("mapping", p, "source and target must both be set")
		}
		if IsIgnored(p.Target) {
			return errors.NewValidationError("mapping", p.Target, "target field is system-managed")
		}
		if !IsProjectField(p.Target) {
			return errors.NewValidationError("mapping", p.Target, "unknown target field")
		}
		if sources[p.Source] {
			return errors.NewValidationError("mapping", p.Source, "duplicate source field")
		}
		if targets[p.Target] {
			return errors.NewValidationError("mapping", p.Target, "duplicate target field")
		}
		sources[p.Source] = true
		targets[p.Target] = true
	}
	for _, required := range []string{constants.FieldLatitude, constants.FieldLongitude} {
		if !targets[required] {
			return errors.NewValidationError("mapping", required, "coordinate field is not mapped")
		}
	}
	return nil
}

// mappingFile is the on-disk layout of a mapping override.
type mappingFile struct {
	Fields []FieldPair `yaml:"fields"`
}

// ParseMapping reads a YAML mapping document of the form
//
//	fields:
//	  - source: Project Name
//	    target: PROJECT_NAME
func ParseMapping(data []byte) (FieldMapping, error) {
	var doc mappingFile
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.WrapParse("yaml", "", err)
	}
	m := FieldMapping(doc.Fields)
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}
