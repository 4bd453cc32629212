package app

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/agentstation/featuresync/internal/cmd/constants"
	"github.com/agentstation/featuresync/internal/cmd/output"
	"github.com/agentstation/featuresync/pkg/errors"
)

// Execute runs the featuresync CLI application with the given arguments.
// This is the main entry point called from main.go.
func (a *App) Execute(ctx context.Context, args []string) error {
	rootCmd := a.createRootCommand()
	rootCmd.SetArgs(args)
	return rootCmd.ExecuteContext(ctx)
}

// createRootCommand creates the root cobra command with all subcommands.
func (a *App) createRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "featuresync",
		Short:   "Reconcile a project export with an authoritative point layer",
		Version: a.version,
		Long: `featuresync keeps an authoritative point layer of business development
projects in line with the CSV (or XLSX) export that feeds it.

Each run converts the export into a staging layer, geometrizes every row
from its Latitude and Longitude, and compares it with the target by
PROJECT_NAME:

• new projects are appended
• projects whose location changed are deleted and re-appended
• unchanged projects are left alone

The delete and append run in one transaction, so a failure leaves the
target as it was.`,
		PersistentPreRunE: a.setupCommand,
		SilenceUsage:      true,
		SilenceErrors:     true,
	}
	rootCmd.SetOut(a.stdout)

	rootCmd.AddGroup(&cobra.Group{
		ID:    constants.GroupCore,
		Title: "Core Commands:",
	})
	rootCmd.AddGroup(&cobra.Group{
		ID:    constants.GroupManagement,
		Title: "Management Commands:",
	})

	// Global flags
	rootCmd.PersistentFlags().StringVar(&a.config.ConfigFile, "config", "", "config file (default is ./.featuresync.yaml or $HOME/.featuresync.yaml)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "verbose output (shortcut for --log-level=debug)")
	rootCmd.PersistentFlags().BoolP("quiet", "q", false, "minimal output (shortcut for --log-level=warn)")
	rootCmd.PersistentFlags().Bool("no-color", false, "disable colored output")
	rootCmd.PersistentFlags().StringP("format", "o", "", "output format: table, wide, json, yaml, markdown")
	rootCmd.PersistentFlags().String("log-level", "", "log level: trace, debug, info, warn, error (overrides -v/-q)")

	rootCmd.SetVersionTemplate("featuresync {{.Version}}\n")

	a.registerCommands(rootCmd)

	return rootCmd
}

// setupCommand is called before any command runs.
func (a *App) setupCommand(cmd *cobra.Command, _ []string) error {
	// These flags are defined as persistent flags in createRootCommand, so errors indicate programming errors
	verbose := mustGetBool(cmd, "verbose")
	quiet := mustGetBool(cmd, "quiet")
	noColor := mustGetBool(cmd, "no-color")
	format := mustGetString(cmd, "format")
	logLevel := mustGetString(cmd, "log-level")

	parsed, err := output.ParseFormat(format)
	if err != nil {
		return errors.NewValidationError("format", format, err.Error())
	}

	// An explicit --config replaces the config found by the default search
	if cmd.Flags().Changed("config") {
		config, err := LoadConfig(mustGetString(cmd, "config"))
		if err != nil {
			return err
		}
		a.config = config
	}

	a.config.UpdateFromFlags(verbose, quiet, noColor, string(parsed), logLevel)

	// Reinitialize logger with updated config
	logger := NewLogger(a.config)
	a.logger = &logger

	changed := map[string]any{}
	cmd.Flags().Visit(func(flag *pflag.Flag) {
		changed[flag.Name] = flag.Value.String()
	})
	a.logger.Debug().
		Str("command", cmd.CommandPath()).
		Fields(map[string]any{"flags": changed}).
		Msg("Running command")

	return nil
}

// ExitOnError prints err and exits with status 1.
// This is meant to be used in main.go for top-level error handling.
func ExitOnError(err error) {
	if err != nil {
		PrintError(os.Stderr, err)
		os.Exit(1)
	}
}

// PrintError writes err in one of two tiers. Execution errors print the
// failing tool's error messages followed by all of its messages. Any other
// error prints a single generic line.
func PrintError(w io.Writer, err error) {
	if execErr, ok := errors.AsExecuteError(err); ok {
		if msgs := execErr.Messages(errors.SeverityError); msgs != "" {
			_, _ = fmt.Fprintln(w, msgs)
		}
		if msgs := execErr.Messages(errors.SeverityInfo); msgs != "" {
			_, _ = fmt.Fprintln(w, msgs)
		}
		return
	}
	_, _ = fmt.Fprintf(w, "An error occurred: %v\n", err)
}

// mustGetBool retrieves a boolean flag value or panics if the flag doesn't exist.
// This should only be used for flags defined in this package.
func mustGetBool(cmd *cobra.Command, name string) bool {
	val, err := cmd.Flags().GetBool(name)
	if err != nil {
		panic("programming error: failed to get flag " + name + ": " + err.Error())
	}
	return val
}

// mustGetString retrieves a string flag value or panics if the flag doesn't exist.
// This should only be used for flags defined in this package.
func mustGetString(cmd *cobra.Command, name string) string {
	val, err := cmd.Flags().GetString(name)
	if err != nil {
		panic("programming error: failed to get flag " + name + ": " + err.Error())
	}
	return val
}
