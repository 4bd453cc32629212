package output

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/featuresync/internal/cmd/table"
	"github.com/agentstation/featuresync/pkg/differ"
	"github.com/agentstation/featuresync/pkg/features"
)

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"table", FormatTable, false},
		{"JSON", FormatJSON, false},
		{"yaml", FormatYAML, false},
		{"wide", FormatWide, false},
		{"markdown", FormatMarkdown, false},
		{"md", FormatMarkdown, false},
		{"", "", false},
		{"xml", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDetectFormat_Explicit(t *testing.T) {
	assert.Equal(t, FormatYAML, DetectFormat("YAML"))
}

func TestTableFormatter_Data(t *testing.T) {
	var buf bytes.Buffer
	data := table.Data{
		Headers: []string{"Project", "Change"},
		Rows:    [][]string{{"Alpha", "add"}, {"Bravo", "move"}},
	}
	require.NoError(t, NewFormatter(FormatTable).Format(&buf, data))

	out := strings.ToUpper(buf.String())
	assert.Contains(t, out, "PROJECT")
	assert.Contains(t, out, "ALPHA")
	assert.Contains(t, out, "MOVE")
}

func TestTableFormatter_StructSlice(t *testing.T) {
	type row struct {
		LayerName string `json:"layer_name"`
		Rows      int    `json:"rows"`
	}
	var buf bytes.Buffer
	require.NoError(t, NewFormatter(FormatTable).Format(&buf, []row{{"Target", 3}}))
	out := strings.ToUpper(buf.String())
	assert.Contains(t, out, "LAYER NAME")
	assert.Contains(t, out, "TARGET")
}

func TestJSONFormatter(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewFormatter(FormatJSON).Format(&buf, map[string]int{"added": 2}))
	var got map[string]int
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, 2, got["added"])
}

func TestYAMLFormatter(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewFormatter(FormatYAML).Format(&buf, differ.Summary{Added: 1, Moved: 2}))
	assert.Contains(t, buf.String(), "added: 1")
	assert.Contains(t, buf.String(), "moved: 2")
}

func testChangeset(t *testing.T) *differ.Changeset {
	t.Helper()
	source := features.NewDataset("source", features.WGS84)
	existing := features.NewDataset("target", features.WGS84)
	add := func(ds *features.Dataset, name string, lat, lon float64) {
		f, err := features.NewFeature(features.Project{Name: name, Latitude: lat, Longitude: lon}, features.WGS84)
		require.NoError(t, err)
		ds.Add(f)
	}
	add(source, "Alpha", 35, -80)
	add(source, "Bravo", 36, -81)
	add(existing, "Bravo", 36.5, -81)
	add(existing, "Charlie", 30, -85)
	return differ.Classify(source, existing)
}

func TestChangeset_Table(t *testing.T) {
	c := testChangeset(t)

	var buf bytes.Buffer
	require.NoError(t, Changeset(&buf, FormatTable, c))
	out := buf.String()
	assert.Contains(t, out, "Alpha")
	assert.Contains(t, out, "Bravo")
	assert.NotContains(t, out, "Charlie")

	buf.Reset()
	require.NoError(t, Changeset(&buf, FormatWide, c))
	assert.Contains(t, buf.String(), "Charlie")
}

func TestChangeset_JSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Changeset(&buf, FormatJSON, testChangeset(t)))

	var got differ.Changeset
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, 1, got.Summary.Added)
	assert.Equal(t, 1, got.Summary.Moved)
	assert.Equal(t, []string{"Charlie"}, got.Retained)
}

func TestMarkdownFormatter(t *testing.T) {
	var buf bytes.Buffer
	data := table.Data{
		Headers: []string{"Project", "Change"},
		Rows:    [][]string{{"Alpha", "add"}},
	}
	require.NoError(t, NewFormatter(FormatMarkdown).Format(&buf, data))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "Project")
	assert.Contains(t, lines[1], "---")
	assert.Contains(t, lines[2], "Alpha")
}

func TestChangeset_Markdown(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Changeset(&buf, FormatMarkdown, testChangeset(t)))

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "|"))
	assert.Contains(t, out, "Charlie", "markdown includes retained projects")
}
