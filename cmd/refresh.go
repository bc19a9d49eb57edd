package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var refreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Advance to the latest committed version",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := openService()
		if err != nil {
			return err
		}

		defer func() { _ = svc.Close() }()

		before := svc.Handle().Version()

		if err := svc.Refresh(); err != nil {
			return err
		}

		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "commit %d -> %d\n", before, svc.Handle().Version())

		return nil
	},
}

func init() {
	rootCmd.AddCommand(refreshCmd)
}
