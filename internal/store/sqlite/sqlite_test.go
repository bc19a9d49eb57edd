package sqlite

import (
	"database/sql"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/inovacc/objrepo/internal/store"
	"github.com/inovacc/objrepo/internal/store/storetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConformance(t *testing.T) {
	storetest.Run(t, store.BackendSQLite)
}

func TestMigrator(t *testing.T) {
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "migrate.db"))
	require.NoError(t, err)

	defer func() { _ = db.Close() }()

	m := NewMigrator(db)

	migrations, err := m.LoadMigrations()
	require.NoError(t, err)
	require.NotEmpty(t, migrations)
	assert.Equal(t, 1, migrations[0].Version)
	assert.Equal(t, "create records", migrations[0].Description)
	assert.Contains(t, migrations[0].SQL, "CREATE TABLE")

	v, err := m.CurrentVersion()
	require.NoError(t, err)
	assert.Zero(t, v)

	pending, err := m.PendingMigrations()
	require.NoError(t, err)
	assert.Len(t, pending, len(migrations))

	require.NoError(t, m.MigrateUp())
	require.NoError(t, m.MigrateUp())

	v, err = m.CurrentVersion()
	require.NoError(t, err)
	assert.Equal(t, migrations[len(migrations)-1].Version, v)

	pending, err = m.PendingMigrations()
	require.NoError(t, err)
	assert.Empty(t, pending)

	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM records`).Scan(&n))
	assert.Zero(t, n)
}

func TestDSN(t *testing.T) {
	rw := dsn(store.Config{Path: "/tmp/x.db", Timeout: 2 * time.Second})
	assert.True(t, strings.HasPrefix(rw, "file:/tmp/x.db?"))
	assert.Contains(t, rw, "busy_timeout%282000%29")
	assert.Contains(t, rw, "_txlock=immediate")
	assert.NotContains(t, rw, "mode=ro")

	ro := dsn(store.Config{Path: "/tmp/x.db", Timeout: time.Second, ReadOnly: true})
	assert.Contains(t, ro, "mode=ro")
	assert.NotContains(t, ro, "journal_mode")
}

func TestDeleteRemovesSidecars(t *testing.T) {
	cfg := store.Config{
		Path:     filepath.Join(t.TempDir(), "sidecar.db"),
		Backend:  store.BackendSQLite,
		Registry: storetest.NewRegistry(),
	}

	h, err := store.OpenWith(cfg)
	require.NoError(t, err)

	require.NoError(t, h.RunAtomic(func(tx store.Tx) error {
		return tx.AddOrReplace(&storetest.Tag{Name: "x"})
	}))
	require.NoError(t, h.Close())
	require.NoError(t, store.Delete(cfg))

	matches, err := filepath.Glob(cfg.Path + "*")
	require.NoError(t, err)
	assert.Empty(t, matches)
}
