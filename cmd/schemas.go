package cmd

import (
	"fmt"

	"github.com/inovacc/objrepo/internal/schema"
	"github.com/inovacc/objrepo/internal/store"
	"github.com/spf13/cobra"
)

var schemasCmd = &cobra.Command{
	Use:   "schemas",
	Short: "List registered schemas and store backends",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()

		for _, name := range schema.Default.Names() {
			sch, err := schema.Default.Lookup(name)
			if err != nil {
				return err
			}

			_, _ = fmt.Fprintf(out, "%-12s %s\n", keyStyle.Render(name), dimStyle.Render(sch.Key.String()+" key"))
		}

		_, _ = fmt.Fprintf(out, "\nbackends: %v (default %s)\n", store.Drivers(), store.DefaultBackend)

		return nil
	},
}

func init() {
	rootCmd.AddCommand(schemasCmd)
}
