package cli

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show the routeset version",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		w := cmd.OutOrStdout()
		info := map[string]string{
			"version":   Version,
			"commit":    Commit,
			"buildDate": BuildDate,
			"go":        runtime.Version(),
		}
		return printResult(w, info, func() {
			fmt.Fprintf(w, "routeset %s (commit %s, built %s, %s)\n", Version, Commit, BuildDate, runtime.Version())
		})
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
