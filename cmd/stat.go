package cmd

import (
	"fmt"
	"strconv"

	"github.com/inovacc/objrepo/internal/application"
	"github.com/inovacc/objrepo/internal/process"
	"github.com/spf13/cobra"
)

var statCmd = &cobra.Command{
	Use:   "stat",
	Short: "Show store location, version and record counts",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := openService()
		if err != nil {
			return err
		}

		defer func() { _ = svc.Close() }()

		h := svc.Handle()
		cfg := h.Config()
		items := map[string]string{
			"Path":      cfg.Path,
			"Backend":   cfg.Backend,
			"Encrypted": strconv.FormatBool(cfg.Encrypted()),
			"Commit":    strconv.FormatUint(h.Version(), 10),
			"Schema":    strconv.FormatUint(cfg.SchemaVersion, 10),
		}
		order := []string{"Path", "Backend", "Encrypted", "Commit", "Schema"}

		for _, name := range cfg.Registry.Names() {
			n, err := h.AllOf(name).Count()
			if err != nil {
				return err
			}

			label := "Records (" + name + ")"
			items[label] = fmt.Sprint(n)
			order = append(order, label)
		}

		if others := process.Others(application.AppName); len(others) > 0 {
			items["Other processes"] = pidList(others)
			order = append(order, "Other processes")
		}

		printInfoBox(cmd.OutOrStdout(), "Store", items, order)

		return nil
	},
}

func init() {
	rootCmd.AddCommand(statCmd)
}
