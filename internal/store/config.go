package store

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/inovacc/objrepo/internal/params"
	"github.com/inovacc/objrepo/internal/schema"
)

const (
	BackendBolt   = "bolt"
	BackendSQLite = "sqlite"

	DefaultBackend = BackendBolt
	DefaultTimeout = time.Second

	// KeySize is the length of a raw encryption key.
	KeySize = 32
)

// MigrationFunc runs inside the opening write scope when the configured
// schema version is newer than the stored one.
type MigrationFunc func(tx Tx, oldVersion, newVersion uint64) error

// Config describes how to open a store. The zero value opens the default
// store with the bolt backend.
type Config struct {
	Path    string
	Backend string

	// At most one of EncryptionKey and Passphrase may be set.
	EncryptionKey []byte
	Passphrase    string

	SchemaVersion uint64
	Migration     MigrationFunc

	ReadOnly bool
	Timeout  time.Duration

	Registry *schema.Registry
	Logger   *slog.Logger
}

// Encrypted reports whether values are sealed.
func (c Config) Encrypted() bool {
	return len(c.EncryptionKey) > 0 || c.Passphrase != ""
}

func (c Config) validate() error {
	if len(c.EncryptionKey) > 0 && c.Passphrase != "" {
		return fmt.Errorf("%w: both encryption key and passphrase set", ErrInvalidConfig)
	}

	if len(c.EncryptionKey) > 0 && len(c.EncryptionKey) != KeySize {
		return fmt.Errorf("%w: encryption key must be %d bytes, got %d", ErrInvalidConfig, KeySize, len(c.EncryptionKey))
	}

	return nil
}

// withDefaults fills unset fields and resolves the path to an absolute one.
func (c Config) withDefaults() (Config, error) {
	if err := c.validate(); err != nil {
		return c, err
	}

	if c.Path == "" {
		p, err := params.DefaultDatabasePath()
		if err != nil {
			return c, err
		}

		c.Path = p
	}

	abs, err := filepath.Abs(c.Path)
	if err != nil {
		return c, fmt.Errorf("resolving store path: %w", err)
	}

	c.Path = abs

	if c.Backend == "" {
		c.Backend = DefaultBackend
	}

	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}

	if c.Registry == nil {
		c.Registry = schema.Default
	}

	if c.Logger == nil {
		c.Logger = slog.Default()
	}

	return c, nil
}
