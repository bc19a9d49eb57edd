package cmd

import (
	"bufio"
	"crypto/rand"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/btcsuite/btcutil/base58"
	"github.com/inovacc/objrepo/internal/schema"
	"github.com/inovacc/objrepo/internal/store"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/pbkdf2"
)

var dataCmd = &cobra.Command{
	Use:   "data",
	Short: "Export and import records",
	Long:  `Export and import the records of a store as one encrypted text line.`,
}

var dataExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export records encrypted with a password",
	Long: `Export the records of every schema, or of the schemas given with
--schema, to stdout.

The data is encrypted with a password using AES-256-GCM and encoded in base58
for easy copy/paste.

Examples:
  objrepo data export > backup.txt
  objrepo data export --schema note > notes.txt`,
	RunE: runDataExport,
}

var dataImportCmd = &cobra.Command{
	Use:   "import",
	Short: "Import records from an encrypted export",
	Long: `Import records from a previously exported backup in one write scope.

Reads base58-encoded encrypted data from stdin or a file and decrypts it
with the provided password. Imported records replace stored records with the
same key; --replace clears the store first.

Examples:
  objrepo data import < backup.txt
  objrepo data import --file backup.txt --replace`,
	RunE: runDataImport,
}

var (
	dataExportSchemas []string
	dataImportFile    string
	dataImportReplace bool
)

// ExportData represents the complete export structure
type ExportData struct {
	Version    int                          `json:"version"`
	ExportedAt time.Time                    `json:"exported_at"`
	Records    map[string][]json.RawMessage `json:"records"`
}

// Export format constants
const (
	exportVersion    = 1
	exportMagic      = "OBJREPO"
	pbkdf2Iterations = 100000
	saltSize         = 16
)

func init() {
	rootCmd.AddCommand(dataCmd)

	dataCmd.AddCommand(dataExportCmd)
	dataCmd.AddCommand(dataImportCmd)

	dataExportCmd.Flags().StringSliceVarP(&dataExportSchemas, "schema", "s", nil, "Export only these schemas")

	dataImportCmd.Flags().StringVarP(&dataImportFile, "file", "f", "", "Read from file instead of stdin")
	dataImportCmd.Flags().BoolVar(&dataImportReplace, "replace", false, "Remove all stored records before importing")
}

func runDataExport(cmd *cobra.Command, _ []string) error {
	svc, err := openService()
	if err != nil {
		return err
	}

	defer func() { _ = svc.Close() }()

	names := dataExportSchemas
	if len(names) == 0 {
		names = svc.Config().Registry.Names()
	}

	exportData := ExportData{
		Version:    exportVersion,
		ExportedAt: time.Now().UTC(),
		Records:    make(map[string][]json.RawMessage, len(names)),
	}

	total := 0

	for _, name := range names {
		err := svc.QueryAll(name).Each(func(rec schema.Record) error {
			data, err := json.Marshal(rec)
			if err != nil {
				return err
			}

			exportData.Records[name] = append(exportData.Records[name], data)
			total++

			return nil
		})
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", name, err)
		}
	}

	jsonData, err := json.Marshal(exportData)
	if err != nil {
		return fmt.Errorf("failed to serialize data: %w", err)
	}

	password, err := readPassword("Enter encryption password: ")
	if err != nil {
		return fmt.Errorf("failed to read password: %w", err)
	}

	if len(password) < 8 {
		return fmt.Errorf("password must be at least 8 characters")
	}

	confirm, err := readPassword("Confirm password: ")
	if err != nil {
		return fmt.Errorf("failed to read password confirmation: %w", err)
	}

	if password != confirm {
		return fmt.Errorf("passwords do not match")
	}

	encoded, err := encodeExport(jsonData, password)
	if err != nil {
		return err
	}

	_, _ = fmt.Fprintln(cmd.OutOrStdout(), encoded)
	_, _ = fmt.Fprintf(os.Stderr, "\nExported %d records from %d schemas\n", total, len(names))

	return nil
}

func runDataImport(cmd *cobra.Command, _ []string) error {
	input, err := readExportInput(cmd.InOrStdin())
	if err != nil {
		return err
	}

	password, err := readPassword("Enter decryption password: ")
	if err != nil {
		return fmt.Errorf("failed to read password: %w", err)
	}

	jsonData, err := decodeExport(input, password)
	if err != nil {
		return err
	}

	var exportData ExportData
	if err := json.Unmarshal(jsonData, &exportData); err != nil {
		return fmt.Errorf("failed to parse data: %w", err)
	}

	if exportData.Version > exportVersion {
		return fmt.Errorf("export version %d is newer than supported version %d", exportData.Version, exportVersion)
	}

	svc, err := openService()
	if err != nil {
		return err
	}

	defer func() { _ = svc.Close() }()

	var recs []schema.Record

	for name, items := range exportData.Records {
		sch, err := lookupSchema(svc, name)
		if err != nil {
			return err
		}

		for _, item := range items {
			rec, err := sch.Decode(item)
			if err != nil {
				return err
			}

			recs = append(recs, rec)
		}
	}

	err = svc.Write(func(tx store.Tx) error {
		if dataImportReplace {
			if err := tx.RemoveAll(); err != nil {
				return err
			}
		}

		for _, rec := range recs {
			if err := tx.AddOrReplace(rec); err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return err
	}

	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s %d records from %d schemas\n",
		successStyle.Render("imported"), len(recs), len(exportData.Records))

	return nil
}

func readExportInput(stdin io.Reader) (string, error) {
	if dataImportFile != "" {
		data, err := os.ReadFile(dataImportFile)
		if err != nil {
			return "", fmt.Errorf("failed to read file: %w", err)
		}

		return strings.TrimSpace(string(data)), nil
	}

	scanner := bufio.NewScanner(stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 64*1024*1024)

	var input string
	if scanner.Scan() {
		input = strings.TrimSpace(scanner.Text())
	}

	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("failed to read from stdin: %w", err)
	}

	if input == "" {
		return "", fmt.Errorf("no input data provided")
	}

	return input, nil
}

func exportKey(password string, salt []byte) []byte {
	return pbkdf2.Key([]byte(password), salt, pbkdf2Iterations, store.KeySize, sha256.New)
}

// encodeExport seals data under password and renders it as
// OBJREPO:<base58(salt || nonce || ciphertext)>.
func encodeExport(data []byte, password string) (string, error) {
	salt := make([]byte, saltSize)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("failed to generate salt: %w", err)
	}

	sealer, err := store.NewSealer(exportKey(password, salt))
	if err != nil {
		return "", err
	}

	sealed, err := sealer.Seal(data)
	if err != nil {
		return "", fmt.Errorf("failed to encrypt data: %w", err)
	}

	return exportMagic + ":" + base58.Encode(append(salt, sealed...)), nil
}

func decodeExport(input, password string) ([]byte, error) {
	encoded, ok := strings.CutPrefix(strings.TrimSpace(input), exportMagic+":")
	if !ok {
		return nil, fmt.Errorf("invalid export format: missing %s header", exportMagic)
	}

	raw := base58.Decode(encoded)
	if len(raw) <= saltSize {
		return nil, errors.New("failed to decode data: invalid base58")
	}

	sealer, err := store.NewSealer(exportKey(password, raw[:saltSize]))
	if err != nil {
		return nil, err
	}

	data, err := sealer.Open(raw[saltSize:])
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt data (wrong password?): %w", err)
	}

	return data, nil
}
