// scantest runs a scan against a matcher and prints the event stream.
// Usage: go run ./cmd/scantest scan --url http://localhost:8080 --mode auto
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rickgao/venue-matcher/internal/version"
)

func main() {
	rootCmd := &cobra.Command{
		Use:     "scantest",
		Short:   "Drive matcher scans from the terminal",
		Version: version.String(),
		Long: `scantest opens a scan stream on a running matcher and renders
progress, candidates and the final summary as they arrive.`,
		SilenceUsage: true,
	}

	rootCmd.AddCommand(scanCmd())
	rootCmd.AddCommand(versionCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.String())
		},
	}
}
