// Package diff provides the diff command implementation.
package diff

import (
	"github.com/spf13/cobra"

	"github.com/agentstation/featuresync"
	"github.com/agentstation/featuresync/internal/appcontext"
	"github.com/agentstation/featuresync/internal/cmd/cmdutil"
	"github.com/agentstation/featuresync/internal/cmd/constants"
	"github.com/agentstation/featuresync/internal/cmd/output"
	"github.com/agentstation/featuresync/pkg/reconciler"
)

// NewCommand creates the diff command using app context.
func NewCommand(app appcontext.Interface) *cobra.Command {
	var (
		source    *cmdutil.SourceFlags
		target    *cmdutil.TargetFlags
		strategy  string
		tolerance float64
	)

	cmd := &cobra.Command{
		Use:     "diff",
		GroupID: constants.GroupCore,
		Short:   "Show how the export differs from the target",
		Long: `Diff classifies every project of the export against the target layer
without editing it. Added and moved projects are listed; use --format wide
to include unchanged and retained projects.`,
		Example: `  featuresync diff
  featuresync diff --format wide
  featuresync diff --format json --source export.csv`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts, err := source.Options()
			if err != nil {
				return err
			}
			opts = append(opts, target.Options()...)
			opts = append(opts, featuresync.WithReporter(reconciler.NopReporter{}))
			if strategy != "" {
				opts = append(opts, featuresync.WithStrategy(strategy))
			}
			if tolerance != 0 {
				opts = append(opts, featuresync.WithTolerance(tolerance))
			}

			s, err := app.Syncer(opts...)
			if err != nil {
				return err
			}
			result, err := s.Diff(cmd.Context())
			if err != nil {
				return err
			}

			format := output.Format(app.OutputFormat())
			if err := output.Changeset(cmd.OutOrStdout(), format, result.Applied); err != nil {
				return err
			}
			if format.IsTable() && !app.Quiet() {
				cmd.Println(result.Applied.String())
			}
			return nil
		},
	}

	source = cmdutil.AddSourceFlags(cmd)
	target = cmdutil.AddTargetFlags(cmd)
	cmd.Flags().StringVar(&strategy, "strategy", "", "Changes to show: all, additions-only, moves-only")
	cmd.Flags().Float64Var(&tolerance, "tolerance", 0, "Treat moves up to this many metres as unchanged")

	return cmd
}
