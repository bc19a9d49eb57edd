package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/inovacc/objrepo/internal/application"
	"github.com/inovacc/objrepo/internal/schema"
	"github.com/inovacc/objrepo/internal/store"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// DocsOptions configures the docs command.
type DocsOptions struct {
	JSON    bool // --json: output as structured JSON
	Compact bool // --compact: omit examples and long descriptions
}

// Docs is the generated reference document.
type Docs struct {
	Name     string        `json:"name"`
	Version  string        `json:"version"`
	Schemas  []DocsSchema  `json:"schemas"`
	Backends []string      `json:"backends"`
	Commands []DocsCommand `json:"commands"`
}

type DocsSchema struct {
	Name string `json:"name"`
	Key  string `json:"key"`
}

// DocsCommand documents one command.
type DocsCommand struct {
	Path     string     `json:"path"`
	Short    string     `json:"short"`
	Long     string     `json:"long,omitempty"`
	Usage    string     `json:"usage"`
	Flags    []DocsFlag `json:"flags,omitempty"`
	Examples []string   `json:"examples,omitempty"`
}

type DocsFlag struct {
	Name        string `json:"name"`
	Shorthand   string `json:"shorthand,omitempty"`
	Type        string `json:"type"`
	Default     string `json:"default"`
	Description string `json:"description"`
}

var docsCmd = &cobra.Command{
	Use:   "docs",
	Short: "Print a reference of commands and schemas",
	Long: `Print a reference of every command, its flags and the registered schemas.

Examples:
  objrepo docs
  objrepo docs --json
  objrepo docs --compact`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		jsonOutput, _ := cmd.Flags().GetBool("json")
		compact, _ := cmd.Flags().GetBool("compact")

		return runDocs(cmd.OutOrStdout(), rootCmd, DocsOptions{JSON: jsonOutput, Compact: compact})
	},
}

func init() {
	rootCmd.AddCommand(docsCmd)

	docsCmd.Flags().Bool("json", false, "output as structured JSON")
	docsCmd.Flags().Bool("compact", false, "omit examples and long descriptions")
}

func runDocs(w io.Writer, root *cobra.Command, opts DocsOptions) error {
	docs := buildDocs(root, schema.Default, opts)

	if opts.JSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")

		return enc.Encode(docs)
	}

	return writeDocsMarkdown(w, docs, opts)
}

func buildDocs(root *cobra.Command, reg *schema.Registry, opts DocsOptions) Docs {
	docs := Docs{
		Name:     application.AppName,
		Version:  application.Version,
		Backends: store.Drivers(),
		Commands: collectCommands(root, "", opts),
	}

	for _, name := range reg.Names() {
		sch, err := reg.Lookup(name)
		if err != nil {
			continue
		}

		docs.Schemas = append(docs.Schemas, DocsSchema{Name: sch.Name, Key: sch.Key.String()})
	}

	return docs
}

// collectCommands walks the tree depth first, skipping help, completion and
// hidden commands.
func collectCommands(cmd *cobra.Command, parentPath string, opts DocsOptions) []DocsCommand {
	var commands []DocsCommand

	for _, c := range cmd.Commands() {
		if c.Hidden || c.Name() == "help" || c.Name() == "completion" {
			continue
		}

		path := c.Name()
		if parentPath != "" {
			path = parentPath + " " + c.Name()
		}

		info := DocsCommand{
			Path:  path,
			Short: c.Short,
			Usage: c.UseLine(),
		}

		if !opts.Compact && c.Long != "" {
			info.Long = c.Long
			info.Examples = extractExamples(c.Long)
		}

		c.Flags().VisitAll(func(f *pflag.Flag) {
			if f.Name == "help" {
				return
			}

			info.Flags = append(info.Flags, DocsFlag{
				Name:        f.Name,
				Shorthand:   f.Shorthand,
				Type:        f.Value.Type(),
				Default:     f.DefValue,
				Description: f.Usage,
			})
		})

		commands = append(commands, info)
		commands = append(commands, collectCommands(c, path, opts)...)
	}

	return commands
}

func extractExamples(long string) []string {
	var examples []string

	prefix := application.AppName + " "

	for _, line := range strings.Split(long, "\n") {
		trimmed := strings.TrimPrefix(strings.TrimSpace(line), "$ ")
		if strings.HasPrefix(trimmed, prefix) || strings.Contains(trimmed, "| "+prefix) {
			examples = append(examples, trimmed)
		}
	}

	return examples
}

func writeDocsMarkdown(w io.Writer, docs Docs, opts DocsOptions) error {
	var sb strings.Builder

	fmt.Fprintf(&sb, "# %s %s\n\n", docs.Name, docs.Version)

	sb.WriteString("## Schemas\n\n")
	sb.WriteString("| Schema | Key |\n|--------|-----|\n")

	for _, s := range docs.Schemas {
		fmt.Fprintf(&sb, "| %s | %s |\n", s.Name, s.Key)
	}

	sort.Strings(docs.Backends)
	fmt.Fprintf(&sb, "\nBackends: `%s`\n\n", strings.Join(docs.Backends, "`, `"))

	sb.WriteString("## Commands\n\n")

	for _, cmd := range docs.Commands {
		fmt.Fprintf(&sb, "### %s\n\n", cmd.Path)
		fmt.Fprintf(&sb, "**Usage:** `%s`\n\n", cmd.Usage)
		sb.WriteString(cmd.Short + "\n\n")

		if len(cmd.Flags) > 0 {
			sb.WriteString("| Flag | Type | Default | Description |\n")
			sb.WriteString("|------|------|---------|-------------|\n")

			for _, f := range cmd.Flags {
				flag := "--" + f.Name
				if f.Shorthand != "" {
					flag = "-" + f.Shorthand + ", " + flag
				}

				def := f.Default
				if def == "" {
					def = "-"
				}

				fmt.Fprintf(&sb, "| %s | %s | %s | %s |\n", flag, f.Type, def, f.Description)
			}

			sb.WriteString("\n")
		}

		if !opts.Compact && len(cmd.Examples) > 0 {
			sb.WriteString("```bash\n" + strings.Join(cmd.Examples, "\n") + "\n```\n\n")
		}
	}

	_, err := io.WriteString(w, sb.String())

	return err
}
