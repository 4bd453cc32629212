package integration

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/agentstation/featuresync"
)

const header = "PROJECT_NAME,Channel,Business_Unit,Rep,Salesforce_Opp_ID,Latitude,Longitude,Street_Address,City,State,Zip_Code,Status,Lot_Count,Note"

func writeExport(t *testing.T, path string, rows ...string) {
	t.Helper()
	content := header + "\n" + strings.Join(rows, "\n") + "\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write export: %v", err)
	}
}

func row(name, lat, lon string) string {
	return name + ",Builder,Homes,Pat,006A," + lat + "," + lon + ",1 Main St,Charlotte,NC,28202,Active,120,"
}

// targets lists the backends the sync is run against. Postgres joins when
// FEATURESYNC_TEST_POSTGRES holds a DSN.
func targets(t *testing.T) map[string]string {
	t.Helper()
	dsns := map[string]string{
		"sqlite": "sqlite://" + filepath.Join(t.TempDir(), "target.db"),
	}
	if dsn := os.Getenv("FEATURESYNC_TEST_POSTGRES"); dsn != "" {
		dsns["postgres"] = dsn
	}
	return dsns
}

func sync(t *testing.T, src, workspace, target, layer string) *featuresync.Result {
	t.Helper()
	s, err := featuresync.New(
		featuresync.WithSource(src),
		featuresync.WithWorkspace(workspace),
		featuresync.WithTarget(target),
		featuresync.WithTargetLayer(layer),
		featuresync.WithEditor("integration"),
	)
	if err != nil {
		t.Fatalf("Failed to create syncer: %v", err)
	}
	result, err := s.Sync(context.Background())
	if err != nil {
		t.Fatalf("Sync failed: %v", err)
	}
	return result
}

func TestSyncAcrossRuns(t *testing.T) {
	for name, target := range targets(t) {
		t.Run(name, func(t *testing.T) {
			dir := t.TempDir()
			src := filepath.Join(dir, "UpdateSEBusinessDevFC.csv")
			workspace := "sqlite://" + filepath.Join(dir, "workspace.db")
			layer := "Projects_" + strings.ReplaceAll(uuid.NewString(), "-", "")

			writeExport(t, src,
				row("Alpha", "35.1", "-80.1"),
				row("Bravo", "35.2", "-80.2"),
			)
			result := sync(t, src, workspace, target, layer)
			if result.Deleted != 0 || result.Appended != 2 {
				t.Errorf("First run: deleted %d, appended %d", result.Deleted, result.Appended)
			}

			// Nothing changed
			result = sync(t, src, workspace, target, layer)
			if result.Deleted != 0 || result.Appended != 0 {
				t.Errorf("Second run: deleted %d, appended %d", result.Deleted, result.Appended)
			}

			// Bravo moved, Charlie is new, Alpha dropped out of the export
			writeExport(t, src,
				row("Bravo", "35.25", "-80.2"),
				row("Charlie", "35.3", "-80.3"),
			)
			result = sync(t, src, workspace, target, layer)
			if result.Deleted != 1 || result.Appended != 2 {
				t.Errorf("Third run: deleted %d, appended %d", result.Deleted, result.Appended)
			}
			if got := result.Changeset.Retained; len(got) != 1 || got[0] != "Alpha" {
				t.Errorf("Expected Alpha retained, got %v", got)
			}
		})
	}
}

func TestSyncWithoutStaging(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "export.csv")
	writeExport(t, src, row("Alpha", "35.1", "-80.1"))

	result := sync(t, src, "", "memory://", "Projects")
	if result.Appended != 1 {
		t.Errorf("Expected 1 appended, got %d", result.Appended)
	}
}
