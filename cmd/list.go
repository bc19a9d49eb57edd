package cmd

import (
	"encoding/json"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/inovacc/objrepo/internal/cli"
	"github.com/inovacc/objrepo/internal/repository"
	"github.com/inovacc/objrepo/internal/schema"
	"github.com/spf13/cobra"
)

var (
	listLimit  int
	listBrowse bool
)

var listCmd = &cobra.Command{
	Use:   "list [schema]",
	Short: "List the records of a schema",
	Long: `Print every record of the named schema in key order, one per line.

With --browse the records open in an interactive, filterable list; the record
selected with Enter is printed as JSON. Browsing without a schema first asks
for one.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runList,
}

func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().IntVarP(&listLimit, "limit", "n", 0, "Show at most n records")
	listCmd.Flags().BoolVar(&listBrowse, "browse", false, "Browse records interactively")
}

func runList(cmd *cobra.Command, args []string) error {
	svc, err := openService()
	if err != nil {
		return err
	}

	defer func() { _ = svc.Close() }()

	if len(args) == 0 {
		if !listBrowse {
			return fmt.Errorf("a schema is required without --browse")
		}

		name, err := pickSchema(svc)
		if err != nil || name == "" {
			return err
		}

		args = []string{name}
	}

	view := svc.QueryAll(args[0]).Limit(listLimit)
	out := cmd.OutOrStdout()

	if listBrowse {
		m, err := cli.NewRecordList(view)
		if err != nil {
			return err
		}

		final, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
		if err != nil {
			return err
		}

		if rec := final.(cli.RecordListModel).Selected(); rec != nil {
			return printJSON(out, rec)
		}

		return nil
	}

	n := 0

	err = view.Each(func(rec schema.Record) error {
		data, err := json.Marshal(rec)
		if err != nil {
			return err
		}

		n++
		_, _ = fmt.Fprintf(out, "%s\t%s\n", keyStyle.Render(rec.PrimaryKey().String()), data)

		return nil
	})
	if err != nil {
		return err
	}

	if n == 0 {
		_, _ = fmt.Fprintln(out, dimStyle.Render(fmt.Sprintf("No %s records.", args[0])))
	}

	return nil
}

// pickSchema lets the user choose a schema; "" means the menu was left.
func pickSchema(svc *repository.Service) (string, error) {
	var counts []cli.SchemaCount

	for _, name := range svc.Config().Registry.Names() {
		n, err := svc.QueryAll(name).Count()
		if err != nil {
			return "", err
		}

		counts = append(counts, cli.SchemaCount{Name: name, Count: n})
	}

	final, err := tea.NewProgram(cli.NewSchemaMenu(counts)).Run()
	if err != nil {
		return "", err
	}

	return final.(cli.SchemaMenuModel).Choice(), nil
}
