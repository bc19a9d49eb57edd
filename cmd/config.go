package cmd

import (
	"fmt"
	"time"

	"github.com/inovacc/objrepo/internal/store"
	"gopkg.in/ini.v1"
)

// storeSection is the [store] section of the config file.
type storeSection struct {
	Path          string        `ini:"path"`
	Backend       string        `ini:"backend"`
	SchemaVersion uint64        `ini:"schema_version"`
	ReadOnly      bool          `ini:"read_only"`
	Timeout       time.Duration `ini:"timeout"`
}

func readStoreSection(path string) (storeSection, error) {
	var sec storeSection

	f, err := ini.Load(path)
	if err != nil {
		return sec, fmt.Errorf("loading config: %w", err)
	}

	if err := f.Section("store").MapTo(&sec); err != nil {
		return sec, fmt.Errorf("parsing [store] in %s: %w", path, err)
	}

	return sec, nil
}

// loadStoreConfig merges the config file with the --db and --backend flags;
// flags win. explicit reports whether anything beyond a path was set.
func loadStoreConfig() (cfg store.Config, explicit bool, err error) {
	if configFile != "" {
		sec, err := readStoreSection(configFile)
		if err != nil {
			return cfg, false, err
		}

		cfg = store.Config{
			Path:          sec.Path,
			Backend:       sec.Backend,
			SchemaVersion: sec.SchemaVersion,
			ReadOnly:      sec.ReadOnly,
			Timeout:       sec.Timeout,
		}
		explicit = true
	}

	if dbPath != "" {
		cfg.Path, err = expandPath(dbPath)
		if err != nil {
			return cfg, false, err
		}
	}

	if backend != "" {
		cfg.Backend = backend
		explicit = true
	}

	return cfg, explicit, nil
}
