package params

import (
	"os"
	"path/filepath"

	"github.com/inovacc/objrepo/internal/application"
)

// DefaultDatabaseFile is the file name used when no path is configured.
const DefaultDatabaseFile = "default.objrepo"

// EnvDatabasePath overrides the default database location.
const EnvDatabasePath = "OBJREPO_DB"

// DefaultDatabasePath returns the location of the default store, creating
// the application directory when needed.
func DefaultDatabasePath() (string, error) {
	if p := os.Getenv(EnvDatabasePath); p != "" {
		return p, nil
	}

	dir, err := application.GetApplicationDirectory()
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(dir, 0700); err != nil {
		return "", err
	}

	return filepath.Join(dir, DefaultDatabaseFile), nil
}
