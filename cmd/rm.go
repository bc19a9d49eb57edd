package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var rmCmd = &cobra.Command{
	Use:     "rm <schema> <key>...",
	Aliases: []string{"remove"},
	Short:   "Remove records by key",
	Long:    `Remove the records stored under the given keys. Each removal is its own write scope; missing keys are reported and skipped.`,
	Args:    cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := openService()
		if err != nil {
			return err
		}

		defer func() { _ = svc.Close() }()

		out := cmd.OutOrStdout()

		for _, key := range args[1:] {
			rec, err := lookupRecord(svc, args[0], key)
			if err != nil {
				return err
			}

			if rec == nil {
				_, _ = fmt.Fprintf(out, "%s %s/%s\n", warningStyle.Render("not found"), args[0], key)

				continue
			}

			if err := svc.Remove(rec); err != nil {
				return err
			}

			_, _ = fmt.Fprintf(out, "%s %s/%s\n", successStyle.Render("removed"), args[0], key)
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(rmCmd)
}
