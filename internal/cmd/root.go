// Package cmd provides CLI command implementations.
package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/coldog/jspack/pkg/output"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
)

// globalFlags are shared by every subcommand.
type globalFlags struct {
	config  string
	verbose bool
}

// NewRootCmd creates the root command.
func NewRootCmd() *cobra.Command {
	g := &globalFlags{}

	rootCmd := &cobra.Command{
		Use:   "jspack",
		Short: "Bundle CommonJS modules into one script per entry",
		Long: `jspack follows the require() calls of each entry file, resolves them to
files on disk and writes one self-contained script per entry.

Configuration is read from jspack.yaml (or .yml, .json, .toml) in the
working directory, JSPACK_* environment variables and flags, in increasing
order of precedence. A .env file in the working directory is loaded first.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			_ = godotenv.Load()
			output.SetupLogging(output.LogConfig{
				Verbose:    g.verbose,
				Timestamps: output.BoolPtr(false),
				Writer:     cmd.ErrOrStderr(),
			})
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVarP(&g.config, "config", "c", "", "Path to config file (default: ./jspack.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&g.verbose, "verbose", "v", false, "Enable verbose output")

	rootCmd.AddCommand(NewBuildCmd(g))
	rootCmd.AddCommand(NewVersionCmd())

	return rootCmd
}

// Execute runs the CLI and returns the process exit code.
func Execute(ctx context.Context, args []string) int {
	rootCmd := NewRootCmd()
	rootCmd.SetArgs(args)

	err := fang.Execute(
		ctx,
		rootCmd,
		fang.WithVersion(versionString()),
		fang.WithNotifySignal(os.Interrupt),
	)
	return ExitCodeFromError(err)
}

func versionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s)", Version, Commit)
}
