package store

import (
	"path/filepath"
	"testing"

	"github.com/inovacc/objrepo/internal/params"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubDriver records the configurations it is asked to open or delete.
type stubDriver struct {
	opened  []Config
	deleted []Config
}

func (d *stubDriver) Open(cfg Config) (Handle, error) {
	d.opened = append(d.opened, cfg)

	return nil, nil
}

func (d *stubDriver) Delete(cfg Config) error {
	d.deleted = append(d.deleted, cfg)

	return nil
}

func TestRegisterAndOpen(t *testing.T) {
	d := &stubDriver{}
	Register("stub-open", d)

	assert.Contains(t, Drivers(), "stub-open")
	assert.Panics(t, func() { Register("stub-open", d) })
	assert.Panics(t, func() { Register("stub-nil", nil) })

	dir := t.TempDir()

	_, err := OpenWith(Config{Backend: "stub-open", Path: filepath.Join(dir, "a.db")})
	require.NoError(t, err)
	require.NoError(t, Delete(Config{Backend: "stub-open", Path: filepath.Join(dir, "a.db")}))

	require.Len(t, d.opened, 1)
	cfg := d.opened[0]
	assert.Equal(t, filepath.Join(dir, "a.db"), cfg.Path)
	assert.Equal(t, DefaultTimeout, cfg.Timeout)
	assert.NotNil(t, cfg.Registry)
	assert.NotNil(t, cfg.Logger)
	assert.Len(t, d.deleted, 1)
}

func TestOpenDefaultUsesEnvPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "env.db")
	t.Setenv(params.EnvDatabasePath, path)

	cfg, err := Config{}.withDefaults()
	require.NoError(t, err)
	assert.Equal(t, path, cfg.Path)
	assert.Equal(t, DefaultBackend, cfg.Backend)
}

func TestOpenUnknownBackend(t *testing.T) {
	_, err := OpenWith(Config{Backend: "nope", Path: filepath.Join(t.TempDir(), "x")})
	assert.ErrorIs(t, err, ErrUnknownBackend)

	err = Delete(Config{Backend: "nope", Path: filepath.Join(t.TempDir(), "x")})
	assert.ErrorIs(t, err, ErrUnknownBackend)
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"empty", Config{}, false},
		{"passphrase", Config{Passphrase: "p"}, false},
		{"raw key", Config{EncryptionKey: make([]byte, KeySize)}, false},
		{"short key", Config{EncryptionKey: make([]byte, 8)}, true},
		{"both", Config{EncryptionKey: make([]byte, KeySize), Passphrase: "p"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidConfig)
			} else {
				assert.NoError(t, err)
			}

			assert.Equal(t, tt.cfg.Passphrase != "" || len(tt.cfg.EncryptionKey) > 0, tt.cfg.Encrypted())
		})
	}
}
