package cmd

import (
	"fmt"

	"github.com/inovacc/objrepo/internal/repository"
	"github.com/inovacc/objrepo/internal/schema"
	"github.com/spf13/cobra"
)

var getCmd = &cobra.Command{
	Use:   "get <schema> <key>",
	Short: "Print one record as JSON",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := openService()
		if err != nil {
			return err
		}

		defer func() { _ = svc.Close() }()

		rec, err := lookupRecord(svc, args[0], args[1])
		if err != nil {
			return err
		}

		if rec == nil {
			return fmt.Errorf("%s %q not found", args[0], args[1])
		}

		return printJSON(cmd.OutOrStdout(), rec)
	},
}

func init() {
	rootCmd.AddCommand(getCmd)
}

// lookupSchema resolves name in the registry of the open store.
func lookupSchema(svc *repository.Service, name string) (schema.Schema, error) {
	return svc.Config().Registry.Lookup(name)
}

// lookupRecord parses key with the schema's key kind and queries it.
func lookupRecord(svc *repository.Service, name, key string) (schema.Record, error) {
	sch, err := lookupSchema(svc, name)
	if err != nil {
		return nil, err
	}

	k, err := schema.ParseKey(sch.Key, key)
	if err != nil {
		return nil, err
	}

	if k.Kind() == schema.KeyInt {
		return svc.Query(name, k.Int())
	}

	return svc.QueryString(name, k.Str())
}
