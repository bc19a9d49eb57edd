package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	purgeLimit int
	purgeYes   bool
)

var purgeCmd = &cobra.Command{
	Use:   "purge [schema]",
	Short: "Remove all records, or all records of one schema",
	Long: `Without a schema, remove every record of every schema. With a schema,
remove its records; --limit removes only the first n in key order.

Examples:
  objrepo purge --yes
  objrepo purge note
  objrepo purge bookmark --limit 10`,
	Args: cobra.MaximumNArgs(1),
	RunE: runPurge,
}

func init() {
	rootCmd.AddCommand(purgeCmd)
	purgeCmd.Flags().IntVarP(&purgeLimit, "limit", "n", 0, "Remove at most n records of the schema")
	purgeCmd.Flags().BoolVarP(&purgeYes, "yes", "y", false, "Skip confirmation prompt")
}

func runPurge(cmd *cobra.Command, args []string) error {
	if purgeLimit > 0 && len(args) == 0 {
		return fmt.Errorf("--limit needs a schema")
	}

	target := "every record"
	if len(args) == 1 {
		target = "every " + args[0] + " record"
		if purgeLimit > 0 {
			target = fmt.Sprintf("the first %d %s record(s)", purgeLimit, args[0])
		}
	}

	if !purgeYes && !promptConfirm(fmt.Sprintf("Remove %s? [y/N]: ", target)) {
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Cancelled.")

		return nil
	}

	svc, err := openService()
	if err != nil {
		return err
	}

	defer func() { _ = svc.Close() }()

	switch {
	case len(args) == 0:
		err = svc.RemoveAll()
	case purgeLimit > 0:
		err = svc.RemoveRange(svc.QueryAll(args[0]).Limit(purgeLimit))
	default:
		err = svc.RemoveAllOf(args[0])
	}

	if err != nil {
		return err
	}

	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", successStyle.Render("removed"), target)

	return nil
}
