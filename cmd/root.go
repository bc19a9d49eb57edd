package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/inovacc/objrepo/internal/application"
	_ "github.com/inovacc/objrepo/internal/model"
	"github.com/inovacc/objrepo/internal/process"
	"github.com/inovacc/objrepo/internal/repository"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var (
	dbPath     string
	backend    string
	configFile string
	askKey     bool
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   application.AppName,
	Short: "An embedded object store",
	Long: `objrepo stores typed records in an embedded database file.

Records are grouped by schema (note, bookmark, workspace) and addressed by
their primary key. Every change runs in a single atomic write scope.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		setupLogging()
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// GetRootCmd returns the root command for introspection purposes.
func GetRootCmd() *cobra.Command {
	return rootCmd
}

func init() {
	bindStoreFlags(rootCmd.PersistentFlags())
}

func bindStoreFlags(fs *pflag.FlagSet) {
	fs.StringVar(&dbPath, "db", "", "Store file (default: $OBJREPO_DB or the user config directory)")
	fs.StringVar(&backend, "backend", "", "Store backend: bolt or sqlite")
	fs.StringVarP(&configFile, "config", "c", "", "INI file with a [store] section")
	fs.BoolVar(&askKey, "ask-key", false, "Prompt for the store passphrase")
	fs.BoolVarP(&verbose, "verbose", "v", false, "Log debug output to stderr")
}

func setupLogging() {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

// openService opens the store selected by the global flags. A config file,
// a backend or a passphrase needs the full configuration; a bare path or no
// flag at all uses the shorter constructors.
func openService() (*repository.Service, error) {
	cfg, explicit, err := loadStoreConfig()
	if err != nil {
		return nil, err
	}

	if askKey {
		pass, err := readPassword("Store passphrase: ")
		if err != nil {
			return nil, err
		}

		cfg.Passphrase = pass
		explicit = true
	}

	var svc *repository.Service

	switch {
	case explicit:
		cfg.Logger = slog.Default()
		svc, err = repository.NewWith(cfg)
	case cfg.Path != "":
		svc, err = repository.NewAt(cfg.Path)
	default:
		svc, err = repository.New()
	}

	if err != nil {
		if others := process.Others(application.AppName); len(others) > 0 {
			return nil, fmt.Errorf("%w (other %s processes running: %s)", err, application.AppName, pidList(others))
		}

		return nil, err
	}

	return svc, nil
}

func pidList(procs []process.Process) string {
	pids := make([]string, len(procs))
	for i, p := range procs {
		pids[i] = strconv.Itoa(p.PID)
	}

	return strings.Join(pids, ", ")
}
