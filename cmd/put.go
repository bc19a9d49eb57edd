package cmd

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/inovacc/objrepo/internal/schema"
	"github.com/spf13/cobra"
)

var putCmd = &cobra.Command{
	Use:   "put <schema> [json]",
	Short: "Insert or replace records",
	Long: `Decode a JSON object, or an array of objects, into records of the named
schema and store them in one write scope. Existing records with the same key
are replaced. Without a JSON argument the input is read from stdin.

Examples:
  objrepo put note '{"id":1,"title":"groceries"}'
  objrepo put bookmark '[{"url":"https://go.dev"},{"url":"https://pkg.go.dev"}]'
  cat notes.json | objrepo put note`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runPut,
}

func init() {
	rootCmd.AddCommand(putCmd)
}

func runPut(cmd *cobra.Command, args []string) error {
	svc, err := openService()
	if err != nil {
		return err
	}

	defer func() { _ = svc.Close() }()

	sch, err := lookupSchema(svc, args[0])
	if err != nil {
		return err
	}

	var raw []byte
	if len(args) == 2 {
		raw = []byte(args[1])
	} else if raw, err = io.ReadAll(cmd.InOrStdin()); err != nil {
		return fmt.Errorf("reading stdin: %w", err)
	}

	recs, err := decodeRecords(sch, raw)
	if err != nil {
		return err
	}

	if err := svc.AddOrUpdateAll(recs...); err != nil {
		return err
	}

	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s %d %s record(s)\n", successStyle.Render("stored"), len(recs), sch.Name)

	return nil
}

// decodeRecords accepts a single JSON object or an array of them. Records
// that can assign their own key get one.
func decodeRecords(sch schema.Schema, raw []byte) ([]schema.Record, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil, errors.New("no JSON input")
	}

	items := []json.RawMessage{raw}
	if raw[0] == '[' {
		items = nil
		if err := json.Unmarshal(raw, &items); err != nil {
			return nil, fmt.Errorf("parsing %s array: %w", sch.Name, err)
		}
	}

	recs := make([]schema.Record, 0, len(items))

	for _, item := range items {
		rec, err := sch.Decode(item)
		if err != nil {
			return nil, err
		}

		if k, ok := rec.(interface{ EnsureKey() }); ok {
			k.EnsureKey()
		}

		if err := sch.CheckKey(rec.PrimaryKey()); err != nil {
			return nil, err
		}

		recs = append(recs, rec)
	}

	return recs, nil
}
