package cli

import (
	"fmt"

	"github.com/guiyumin/sharetext/internal/core/config"
	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the sharetext config file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.Init(); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Created %s\n", config.SavePath())
		fmt.Fprintln(cmd.OutOrStdout(), "Next: sharetext config set transcription.api_key")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
