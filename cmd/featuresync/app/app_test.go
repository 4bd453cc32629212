package app

import (
	"bytes"
	"context"
	stderrors "errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goccy/go-yaml"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/featuresync/pkg/errors"
)

const csvHeader = "PROJECT_NAME,Channel,Business_Unit,Rep,Salesforce_Opp_ID,Latitude,Longitude,Street_Address,City,State,Zip_Code,Status,Lot_Count,Note"

func csvRow(name, lat, lon string) string {
	return name + ",Builder,Homes,Pat,006A," + lat + "," + lon + ",1 Main St,Charlotte,NC,28202,Active,120,"
}

// testApp builds an app rooted in a temp dir with sqlite workspace and
// target, writing command output into the returned buffer.
func testApp(t *testing.T, rows ...string) (*App, *bytes.Buffer, string) {
	t.Helper()
	dir := t.TempDir()
	chdir(t, dir)

	src := filepath.Join(dir, "export.csv")
	content := csvHeader + "\n" + strings.Join(rows, "\n") + "\n"
	require.NoError(t, os.WriteFile(src, []byte(content), 0o644))

	config := &Config{
		Source:       src,
		Workspace:    "sqlite://" + filepath.Join(dir, "workspace.db"),
		StagingLayer: "Update_BusinessDev_Layer",
		Target:       "sqlite://" + filepath.Join(dir, "target.db"),
		Layer:        "Southeast_BusinessDevelopment_Projects",
		WKID:         4326,
		Editor:       "tester",
		Strategy:     "all",
		LogFormat:    "json",
		LogOutput:    "discard",
		NoColor:      true,
	}

	var out bytes.Buffer
	a, err := New("1.2.3", "abc123", "2026-01-01", "test",
		WithConfig(config),
		WithStdout(&out),
	)
	require.NoError(t, err)
	return a, &out, dir
}

func TestNew(t *testing.T) {
	chdir(t, t.TempDir())

	a, err := New("1.0.0", "deadbeef", "2026-01-01", "goreleaser")
	require.NoError(t, err)

	assert.Equal(t, "1.0.0", a.Version())
	assert.Equal(t, "deadbeef", a.Commit())
	assert.Equal(t, "2026-01-01", a.Date())
	assert.Equal(t, "goreleaser", a.BuiltBy())
	assert.NotNil(t, a.Logger())
	assert.NotNil(t, a.Config())
	assert.NotNil(t, a.Reporter())
}

func TestApp_OutputFormat(t *testing.T) {
	a, _, _ := testApp(t)

	a.config.Format = "json"
	assert.Equal(t, "json", a.OutputFormat())

	a.config.Format = "wide"
	assert.Equal(t, "wide", a.OutputFormat())
}

func TestExecute_Version(t *testing.T) {
	a, out, _ := testApp(t)

	require.NoError(t, a.Execute(context.Background(), []string{"version"}))
	assert.Equal(t, "featuresync 1.2.3\n", out.String())

	out.Reset()
	require.NoError(t, a.Execute(context.Background(), []string{"version", "-v"}))
	assert.Contains(t, out.String(), "commit:   abc123")
}

func TestExecute_Man(t *testing.T) {
	a, out, _ := testApp(t)

	require.NoError(t, a.Execute(context.Background(), []string{"man"}))
	assert.Contains(t, out.String(), ".TH \"FEATURESYNC\"")
	assert.Contains(t, out.String(), "sync")
}

func TestExecute_InvalidFormat(t *testing.T) {
	a, _, _ := testApp(t)

	err := a.Execute(context.Background(), []string{"version", "--format", "xml"})
	require.Error(t, err)
	assert.True(t, errors.IsValidationError(err))
}

func TestExecute_SyncJSON(t *testing.T) {
	a, out, _ := testApp(t,
		csvRow("Alpha", "35.1", "-80.1"),
		csvRow("Bravo", "35.2", "-80.2"),
	)

	require.NoError(t, a.Execute(context.Background(), []string{"sync", "--format", "json"}))

	var result struct {
		Deleted  int `yaml:"deleted"`
		Appended int `yaml:"appended"`
	}
	require.NoError(t, yaml.Unmarshal(out.Bytes(), &result))
	assert.Equal(t, 0, result.Deleted)
	assert.Equal(t, 2, result.Appended)

	// A second run finds nothing to do
	out.Reset()
	require.NoError(t, a.Execute(context.Background(), []string{"sync", "--format", "json"}))
	require.NoError(t, yaml.Unmarshal(out.Bytes(), &result))
	assert.Equal(t, 0, result.Deleted)
	assert.Equal(t, 0, result.Appended)
}

func TestExecute_SyncTable(t *testing.T) {
	a, out, _ := testApp(t, csvRow("Alpha", "35.1", "-80.1"))

	require.NoError(t, a.Execute(context.Background(), []string{"sync", "--format", "table"}))
	assert.Contains(t, out.String(), "New data: 1 projects")
	assert.Contains(t, out.String(), "Appended 1 projects")
}

func TestExecute_DiffMakesNoEdits(t *testing.T) {
	a, out, _ := testApp(t, csvRow("Alpha", "35.1", "-80.1"))

	require.NoError(t, a.Execute(context.Background(), []string{"diff", "--format", "yaml"}))
	assert.Contains(t, out.String(), "Alpha")

	// The diff left the target empty, so sync still appends
	out.Reset()
	require.NoError(t, a.Execute(context.Background(), []string{"sync", "--format", "json"}))
	var result struct {
		Appended int `yaml:"appended"`
	}
	require.NoError(t, yaml.Unmarshal(out.Bytes(), &result))
	assert.Equal(t, 1, result.Appended)
}

func TestExecute_Ingest(t *testing.T) {
	a, out, _ := testApp(t,
		csvRow("Alpha", "35.1", "-80.1"),
		csvRow("Bravo", "35.2", "-80.2"),
	)

	require.NoError(t, a.Execute(context.Background(), []string{"ingest", "--format", "json"}))
	assert.Contains(t, out.String(), "Alpha")
	assert.Contains(t, out.String(), "Bravo")
}

func TestExecute_IngestBadCoordinate(t *testing.T) {
	a, _, _ := testApp(t, csvRow("Alpha", "north", "-80.1"))

	err := a.Execute(context.Background(), []string{"ingest"})
	require.Error(t, err)
}

func TestExecute_Migrate(t *testing.T) {
	a, out, _ := testApp(t)

	require.NoError(t, a.Execute(context.Background(), []string{"migrate", "--format", "json"}))
	assert.NotEmpty(t, strings.TrimSpace(out.String()))

	out.Reset()
	require.NoError(t, a.Execute(context.Background(), []string{"migrate", "--format", "table"}))
	assert.Contains(t, out.String(), "Schema is up to date")
}

func TestExecute_ConfigFlag(t *testing.T) {
	a, _, dir := testApp(t)

	err := a.Execute(context.Background(), []string{"version", "--config", filepath.Join(dir, "missing.yaml")})
	require.Error(t, err)
}

func TestPrintError(t *testing.T) {
	t.Run("execute error prints errors then all messages", func(t *testing.T) {
		err := errors.NewExecuteError("make point", stderrors.New("latitude out of range"),
			errors.Message{Severity: errors.SeverityInfo, Text: "row 4"},
		)

		var buf bytes.Buffer
		PrintError(&buf, err)

		lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
		require.Len(t, lines, 3)
		assert.Equal(t, "ERROR: latitude out of range", lines[0])
		assert.Equal(t, "ERROR: latitude out of range", lines[1])
		assert.Equal(t, "INFO: row 4", lines[2])
	})

	t.Run("wrapped execute error", func(t *testing.T) {
		err := errors.WrapResource("sync", "target", "", errors.NewExecuteError("append", stderrors.New("disk full")))

		var buf bytes.Buffer
		PrintError(&buf, err)
		assert.Contains(t, buf.String(), "ERROR: disk full")
		assert.NotContains(t, buf.String(), "An error occurred")
	})

	t.Run("generic error", func(t *testing.T) {
		var buf bytes.Buffer
		PrintError(&buf, stderrors.New("boom"))
		assert.Equal(t, "An error occurred: boom\n", buf.String())
	})
}
