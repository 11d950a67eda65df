package cli

import (
	"fmt"
	"runtime"

	"resumescore/internal/vocab"

	"github.com/spf13/cobra"
)

var (
	// Version information - can be set during build with ldflags
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  "Print the build version and the version of the bundled keyword vocabulary",
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "resumescore %s (%s, built %s, %s)\n", Version, GitCommit, BuildDate, runtime.Version())
		fmt.Fprintf(out, "vocabulary %s\n", vocab.Default().Version)
	},
}
