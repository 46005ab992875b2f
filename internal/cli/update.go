package cli

import (
	"fmt"

	"github.com/guiyumin/sharetext/internal/core/updater"
	"github.com/spf13/cobra"
)

var updateCheck bool

var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Update sharetext to the latest release",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !updateCheck {
			return updater.Apply(cmd.Context(), cmd.OutOrStdout())
		}

		st, err := updater.Check(cmd.Context())
		if err != nil {
			return err
		}
		if st.Newer {
			fmt.Fprintf(cmd.OutOrStdout(), "v%s is available (current: v%s)\n", st.Latest, st.Current)
		} else {
			fmt.Fprintf(cmd.OutOrStdout(), "Already up to date (v%s)\n", st.Current)
		}
		return nil
	},
}

func init() {
	updateCmd.Flags().BoolVar(&updateCheck, "check", false, "only report whether a newer release exists")
	rootCmd.AddCommand(updateCmd)
}
