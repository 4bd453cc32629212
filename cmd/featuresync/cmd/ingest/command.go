// Package ingest provides the ingest command implementation.
package ingest

import (
	"github.com/spf13/cobra"

	"github.com/agentstation/featuresync/internal/appcontext"
	"github.com/agentstation/featuresync/internal/cmd/cmdutil"
	"github.com/agentstation/featuresync/internal/cmd/constants"
	"github.com/agentstation/featuresync/internal/cmd/output"
)

// NewCommand creates the ingest command using app context.
func NewCommand(app appcontext.Interface) *cobra.Command {
	var source *cmdutil.SourceFlags

	cmd := &cobra.Command{
		Use:     "ingest",
		GroupID: constants.GroupCore,
		Short:   "Stage the export and print the new data",
		Long: `Ingest converts the export into the staging layer of the workspace,
overwriting the previous contents, and prints every staged project.
The target is not opened.`,
		Example: `  featuresync ingest
  featuresync ingest --source export.xlsx --sheet Projects
  featuresync ingest --no-stage --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts, err := source.Options()
			if err != nil {
				return err
			}
			s, err := app.Syncer(opts...)
			if err != nil {
				return err
			}
			ds, err := s.Ingest(cmd.Context())
			if err != nil {
				return err
			}
			return output.Dataset(cmd.OutOrStdout(), output.Format(app.OutputFormat()), ds)
		},
	}

	source = cmdutil.AddSourceFlags(cmd)

	return cmd
}
