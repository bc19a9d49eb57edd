package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var dropYes bool

var dropCmd = &cobra.Command{
	Use:   "drop",
	Short: "Delete the store file",
	Long:  `Delete the backing store entirely. Fails while another process or handle has the store open.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := openService()
		if err != nil {
			return err
		}

		path := svc.Config().Path

		if !dropYes && !promptConfirm(fmt.Sprintf("Delete %s? [y/N]: ", path)) {
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Cancelled.")

			return svc.Close()
		}

		if err := svc.DeleteStore(); err != nil {
			return err
		}

		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", successStyle.Render("deleted"), path)

		return nil
	},
}

func init() {
	rootCmd.AddCommand(dropCmd)
	dropCmd.Flags().BoolVarP(&dropYes, "yes", "y", false, "Skip confirmation prompt")
}
