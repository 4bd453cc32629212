// Package migrate provides the migrate command implementation.
package migrate

import (
	"github.com/spf13/cobra"

	"github.com/agentstation/featuresync/internal/appcontext"
	"github.com/agentstation/featuresync/internal/cmd/cmdutil"
	"github.com/agentstation/featuresync/internal/cmd/constants"
	"github.com/agentstation/featuresync/internal/cmd/output"
)

// NewCommand creates the migrate command using app context.
func NewCommand(app appcontext.Interface) *cobra.Command {
	var target *cmdutil.TargetFlags

	cmd := &cobra.Command{
		Use:     "migrate",
		GroupID: constants.GroupManagement,
		Short:   "Apply schema migrations to the target",
		Long: `Migrate creates or upgrades the feature tables of the target database.
sync and diff migrate automatically; use this command to prepare a target
ahead of the first run or to inspect which migrations were applied.`,
		Example: `  featuresync migrate
  featuresync migrate --target postgres://gis@db/projects`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := app.Syncer(target.Options()...)
			if err != nil {
				return err
			}
			applied, err := s.Migrate(cmd.Context())
			if err != nil {
				return err
			}

			format := output.Format(app.OutputFormat())
			if len(applied) == 0 && format.IsTable() {
				if !app.Quiet() {
					cmd.Println("Schema is up to date")
				}
				return nil
			}
			return output.Migrations(cmd.OutOrStdout(), format, applied)
		},
	}

	target = cmdutil.AddTargetFlags(cmd)

	return cmd
}
