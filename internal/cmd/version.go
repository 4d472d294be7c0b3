package cmd

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

// NewVersionCmd creates the version command.
func NewVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "jspack version %s\n", Version)
			fmt.Fprintf(out, "  Commit:    %s\n", Commit)
			fmt.Fprintf(out, "  Go:        %s\n", runtime.Version())
			return nil
		},
	}
}
