package cli

import (
	"fmt"
	"runtime"

	"github.com/guiyumin/sharetext/internal/core/version"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		v := version.Version
		if version.Commit != "" {
			v += " (" + version.Commit + ")"
		}
		fmt.Fprintf(cmd.OutOrStdout(), "sharetext %s %s/%s\n", v, runtime.GOOS, runtime.GOARCH)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
