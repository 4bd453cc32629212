// Package cmdutil provides shared flags and configuration utilities for featuresync commands.
package cmdutil

import (
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/agentstation/featuresync"
	"github.com/agentstation/featuresync/internal/ingest"
	"github.com/agentstation/featuresync/pkg/errors"
	"github.com/agentstation/featuresync/pkg/features"
)

// SourceFlags select and decode the export file.
type SourceFlags struct {
	Source       string
	Format       string
	Encoding     string
	Sheet        string
	Mapping      string
	Workspace    string
	StagingLayer string
	NoStage      bool
}

// AddSourceFlags adds source-specific flags to a command.
func AddSourceFlags(cmd *cobra.Command) *SourceFlags {
	flags := &SourceFlags{}

	cmd.Flags().StringVarP(&flags.Source, "source", "s", "",
		"CSV or XLSX export to ingest")
	cmd.Flags().StringVar(&flags.Format, "source-format", "",
		"Source format: csv, xlsx (default from extension)")
	cmd.Flags().StringVar(&flags.Encoding, "encoding", "",
		"Character encoding of a CSV source (e.g. windows-1252)")
	cmd.Flags().StringVar(&flags.Sheet, "sheet", "",
		"Worksheet of an XLSX source (default first sheet)")
	cmd.Flags().StringVar(&flags.Mapping, "mapping", "",
		"YAML file mapping source columns to project fields")
	cmd.Flags().StringVar(&flags.Workspace, "workspace", "",
		"Workspace DSN that receives the staging layer")
	cmd.Flags().StringVar(&flags.StagingLayer, "staging-layer", "",
		"Name of the staging layer in the workspace")
	cmd.Flags().BoolVar(&flags.NoStage, "no-stage", false,
		"Compare the ingested rows directly without staging")

	return flags
}

// Options converts the flags that were set into syncer options.
func (f *SourceFlags) Options() ([]featuresync.Option, error) {
	var opts []featuresync.Option
	if f.Source != "" {
		opts = append(opts, featuresync.WithSource(f.Source))
	}
	if f.Format != "" {
		opts = append(opts, featuresync.WithFormat(ingest.Format(f.Format)))
	}
	if f.Encoding != "" {
		opts = append(opts, featuresync.WithEncoding(f.Encoding))
	}
	if f.Sheet != "" {
		opts = append(opts, featuresync.WithSheet(f.Sheet))
	}
	if f.Mapping != "" {
		m, err := LoadMapping(f.Mapping)
		if err != nil {
			return nil, err
		}
		opts = append(opts, featuresync.WithMapping(m))
	}
	if f.Workspace != "" {
		opts = append(opts, featuresync.WithWorkspace(f.Workspace))
	}
	if f.NoStage {
		opts = append(opts, featuresync.WithWorkspace(""))
	}
	if f.StagingLayer != "" {
		opts = append(opts, featuresync.WithStagingLayer(f.StagingLayer))
	}
	return opts, nil
}

// TargetFlags select the authoritative layer.
type TargetFlags struct {
	Target string
	Layer  string
	WKID   int
	Editor string
}

// AddTargetFlags adds target-specific flags to a command.
func AddTargetFlags(cmd *cobra.Command) *TargetFlags {
	flags := &TargetFlags{}

	cmd.Flags().StringVarP(&flags.Target, "target", "t", "",
		"Target DSN (sqlite://path, postgres://...)")
	cmd.Flags().StringVarP(&flags.Layer, "layer", "l", "",
		"Name of the target layer")
	cmd.Flags().IntVar(&flags.WKID, "wkid", 0,
		"Spatial reference WKID of the point geometry (default 4326)")
	cmd.Flags().StringVar(&flags.Editor, "editor", "",
		"User recorded in the audit fields of appended rows")

	return flags
}

// Options converts the flags that were set into syncer options.
func (f *TargetFlags) Options() []featuresync.Option {
	var opts []featuresync.Option
	if f.Target != "" {
		opts = append(opts, featuresync.WithTarget(f.Target))
	}
	if f.Layer != "" {
		opts = append(opts, featuresync.WithTargetLayer(f.Layer))
	}
	if f.WKID != 0 {
		opts = append(opts, featuresync.WithSpatialReference(f.WKID))
	}
	if f.Editor != "" {
		opts = append(opts, featuresync.WithEditor(f.Editor))
	}
	return opts
}

// ReconcileFlags control how changes are applied.
type ReconcileFlags struct {
	DryRun    bool
	Strategy  string
	Tolerance float64
	Timeout   time.Duration
}

// AddReconcileFlags adds reconciliation flags to a command.
func AddReconcileFlags(cmd *cobra.Command) *ReconcileFlags {
	flags := &ReconcileFlags{}

	cmd.Flags().BoolVar(&flags.DryRun, "dry-run", false,
		"Classify without editing the target")
	cmd.Flags().StringVar(&flags.Strategy, "strategy", "",
		"Changes to apply: all, additions-only, moves-only")
	cmd.Flags().Float64Var(&flags.Tolerance, "tolerance", 0,
		"Treat moves up to this many metres as unchanged")
	cmd.Flags().DurationVar(&flags.Timeout, "timeout", 0,
		"Abort the run after this duration")

	return flags
}

// Options converts the flags that were set into syncer options.
func (f *ReconcileFlags) Options() []featuresync.Option {
	var opts []featuresync.Option
	if f.DryRun {
		opts = append(opts, featuresync.WithDryRun(true))
	}
	if f.Strategy != "" {
		opts = append(opts, featuresync.WithStrategy(f.Strategy))
	}
	if f.Tolerance != 0 {
		opts = append(opts, featuresync.WithTolerance(f.Tolerance))
	}
	if f.Timeout != 0 {
		opts = append(opts, featuresync.WithTimeout(f.Timeout))
	}
	return opts
}

// LoadMapping reads a YAML field mapping file.
func LoadMapping(path string) (features.FieldMapping, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WrapIO("read", path, err)
	}
	return features.ParseMapping(data)
}
