// Package sync provides the sync command implementation.
package sync

import (
	"github.com/spf13/cobra"

	"github.com/agentstation/featuresync/internal/appcontext"
	"github.com/agentstation/featuresync/internal/cmd/cmdutil"
	"github.com/agentstation/featuresync/internal/cmd/constants"
	"github.com/agentstation/featuresync/internal/cmd/output"
)

// NewCommand creates the sync command using app context.
func NewCommand(app appcontext.Interface) *cobra.Command {
	var (
		source    *cmdutil.SourceFlags
		target    *cmdutil.TargetFlags
		reconcile *cmdutil.ReconcileFlags
	)

	cmd := &cobra.Command{
		Use:     "sync",
		GroupID: constants.GroupCore,
		Short:   "Reconcile the target layer with the export",
		Long: `Sync runs the full update:

1. Convert the export into the staging layer of the workspace
2. Build a point for every project from Latitude and Longitude
3. Classify each project against the target by PROJECT_NAME
4. Delete moved projects and append moved and new ones in one transaction

Projects that only exist in the target are kept.`,
		Example: `  featuresync sync
  featuresync sync --source export.csv --target sqlite://projects.db
  featuresync sync --dry-run
  featuresync sync --strategy additions-only
  featuresync sync --target postgres://gis@db/projects --layer Southeast_Projects`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts, err := source.Options()
			if err != nil {
				return err
			}
			opts = append(opts, target.Options()...)
			opts = append(opts, reconcile.Options()...)

			s, err := app.Syncer(opts...)
			if err != nil {
				return err
			}
			result, err := s.Sync(cmd.Context())
			if err != nil {
				return err
			}

			// The console reporter already printed the run for table output
			format := output.Format(app.OutputFormat())
			if format.IsTable() && format != output.FormatWide {
				return nil
			}
			return output.Result(cmd.OutOrStdout(), format, result)
		},
	}

	source = cmdutil.AddSourceFlags(cmd)
	target = cmdutil.AddTargetFlags(cmd)
	reconcile = cmdutil.AddReconcileFlags(cmd)

	return cmd
}
