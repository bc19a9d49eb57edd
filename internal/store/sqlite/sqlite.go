// Package sqlite implements the store driver on top of SQLite.
//
// Records of every schema share one table keyed by (schema, key); the
// bookkeeping values live in the meta table. The table layout itself is
// versioned by embedded SQL migrations.
package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/inovacc/objrepo/internal/schema"
	"github.com/inovacc/objrepo/internal/store"
	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

func init() {
	store.Register(store.BackendSQLite, Driver{})
}

// Driver is the SQLite backend.
type Driver struct{}

type engine struct {
	db       *sql.DB
	path     string
	readOnly bool
	refs     int
}

var engines = struct {
	sync.Mutex
	m map[string]*engine
}{m: make(map[string]*engine)}

func dsn(cfg store.Config) string {
	q := url.Values{}
	q.Add("_pragma", "busy_timeout("+strconv.FormatInt(cfg.Timeout.Milliseconds(), 10)+")")
	q.Add("_pragma", "foreign_keys(1)")

	if cfg.ReadOnly {
		q.Set("mode", "ro")
	} else {
		q.Add("_pragma", "journal_mode(WAL)")
		q.Set("_txlock", "immediate")
	}

	return "file:" + cfg.Path + "?" + q.Encode()
}

// Open prepares the handle outside the engines lock, so a handle can be
// opened while another one on the same path holds the write transaction.
func (Driver) Open(cfg store.Config) (store.Handle, error) {
	eng, err := acquire(cfg)
	if err != nil {
		return nil, err
	}

	h := &Handle{eng: eng, cfg: cfg, logger: cfg.Logger.With("backend", store.BackendSQLite)}

	if err := h.prepare(); err != nil {
		_ = release(eng)

		return nil, err
	}

	h.logger.Debug("store opened", "path", cfg.Path, "version", h.version)

	return h, nil
}

// acquire returns the shared engine for cfg.Path with a reference taken.
func acquire(cfg store.Config) (*engine, error) {
	engines.Lock()
	defer engines.Unlock()

	eng, ok := engines.m[cfg.Path]
	if ok && eng.readOnly != cfg.ReadOnly {
		return nil, fmt.Errorf("%w: %s is open with read_only=%t", store.ErrStoreInUse, cfg.Path, eng.readOnly)
	}

	if !ok {
		var err error
		if eng, err = openEngine(cfg); err != nil {
			return nil, err
		}

		engines.m[cfg.Path] = eng
	}

	eng.refs++

	return eng, nil
}

func openEngine(cfg store.Config) (*engine, error) {
	if !cfg.ReadOnly {
		if err := os.MkdirAll(filepath.Dir(cfg.Path), 0700); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dsn(cfg))
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	if err := db.Ping(); err != nil {
		_ = db.Close()

		return nil, fmt.Errorf("opening database: %w", err)
	}

	if !cfg.ReadOnly {
		if err := NewMigrator(db).MigrateUp(); err != nil {
			_ = db.Close()

			return nil, fmt.Errorf("running migrations: %w", err)
		}
	}

	return &engine{db: db, path: cfg.Path, readOnly: cfg.ReadOnly}, nil
}

func (Driver) Delete(cfg store.Config) error {
	engines.Lock()
	defer engines.Unlock()

	if eng, ok := engines.m[cfg.Path]; ok {
		return fmt.Errorf("%w: %d live handle(s) on %s", store.ErrStoreInUse, eng.refs, cfg.Path)
	}

	for _, p := range []string{cfg.Path, cfg.Path + "-wal", cfg.Path + "-shm"} {
		if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("deleting database: %w", err)
		}
	}

	return nil
}

func release(eng *engine) error {
	engines.Lock()
	defer engines.Unlock()

	eng.refs--
	if eng.refs > 0 {
		return nil
	}

	delete(engines.m, eng.path)

	return eng.db.Close()
}

// queryer is satisfied by both *sql.DB and *sql.Tx.
type queryer interface {
	Exec(query string, args ...any) (sql.Result, error)
	Query(query string, args ...any) (*sql.Rows, error)
	QueryRow(query string, args ...any) *sql.Row
}

type meta struct {
	q        queryer
	writable bool
}

func (m meta) Get(key string) ([]byte, error) {
	var v []byte

	err := m.q.QueryRow(`SELECT value FROM meta WHERE name = ?`, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}

	if err != nil {
		return nil, fmt.Errorf("reading meta %s: %w", key, err)
	}

	return v, nil
}

func (m meta) Put(key string, value []byte) error {
	if !m.writable {
		return store.ErrReadOnly
	}

	if _, err := m.q.Exec(`
		INSERT INTO meta (name, value) VALUES (?, ?)
		ON CONFLICT(name) DO UPDATE SET value = excluded.value
	`, key, value); err != nil {
		return fmt.Errorf("writing meta %s: %w", key, err)
	}

	return nil
}

var _ store.Handle = (*Handle)(nil)

// Handle is one session on a SQLite store.
type Handle struct {
	store.Observers

	eng     *engine
	cfg     store.Config
	codec   *store.Codec
	logger  *slog.Logger
	version uint64
	wtx     *tx
	closed  bool
}

// prepare reads the meta table without a transaction and only begins one
// for a new store or a pending schema migration.
func (h *Handle) prepare() (err error) {
	pending, err := store.NeedsSetup(h.cfg, meta{q: h.eng.db})
	if err != nil {
		return err
	}

	if !pending || h.cfg.ReadOnly {
		return h.load(meta{q: h.eng.db}, &tx{h: h, q: h.eng.db})
	}

	sqlTx, err := h.eng.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}

	defer func() {
		if err != nil {
			_ = sqlTx.Rollback()
		}
	}()

	t := &tx{h: h, q: sqlTx, writable: true}
	err = h.load(meta{q: sqlTx, writable: true}, t)
	t.done = true

	if err != nil {
		return err
	}

	return sqlTx.Commit()
}

func (h *Handle) load(m meta, t *tx) error {
	codec, err := store.PrepareCodec(h.cfg, m)
	if err != nil {
		return err
	}

	h.codec = codec

	if err := store.PrepareSchema(h.cfg, m, t); err != nil {
		return err
	}

	h.version, err = store.ReadUint(m, store.MetaCommit)

	return err
}

func (h *Handle) Config() store.Config { return h.cfg }

func (h *Handle) Version() uint64 { return h.version }

func (h *Handle) reader() *tx {
	if h.wtx != nil {
		return h.wtx
	}

	return &tx{h: h, q: h.eng.db}
}

func (h *Handle) FindByKey(name string, key schema.Key) (schema.Record, error) {
	if h.closed {
		return nil, store.ErrClosed
	}

	return h.reader().Find(name, key)
}

func (h *Handle) AllOf(name string) *store.Results {
	return store.NewResults(h, name)
}

func (h *Handle) Scan(name string, fn func(rec schema.Record) error) error {
	if h.closed {
		return store.ErrClosed
	}

	return h.reader().Scan(name, fn)
}

func (h *Handle) RunAtomic(fn store.TxFunc) error {
	switch {
	case h.closed:
		return store.ErrClosed
	case h.wtx != nil:
		return store.ErrNestedWrite
	case h.cfg.ReadOnly:
		return store.ErrReadOnly
	}

	sqlTx, err := h.eng.db.Begin()
	if err != nil {
		return h.Notify(fmt.Errorf("beginning transaction: %w", err))
	}

	t := &tx{h: h, q: sqlTx, writable: true}
	h.wtx = t
	committed := false

	defer func() {
		t.done = true
		h.wtx = nil

		if !committed {
			_ = sqlTx.Rollback()
		}
	}()

	if err := fn(t); err != nil {
		return err
	}

	version, err := store.BumpCommit(meta{q: sqlTx, writable: true})
	if err != nil {
		return h.Notify(err)
	}

	if err := sqlTx.Commit(); err != nil {
		h.logger.Error("commit failed", "path", h.cfg.Path, "error", err)

		return h.Notify(fmt.Errorf("committing transaction: %w", err))
	}

	committed = true
	h.version = version

	return nil
}

func (h *Handle) Refresh() error {
	if h.closed {
		return store.ErrClosed
	}

	v, err := store.ReadUint(meta{q: h.eng.db}, store.MetaCommit)
	if err != nil {
		return h.Notify(err)
	}

	if v != h.version {
		h.logger.Debug("handle advanced", "from", h.version, "to", v)
	}

	h.version = v

	return nil
}

func (h *Handle) Close() error {
	if h.closed {
		return nil
	}

	h.closed = true

	h.logger.Debug("store handle closed", "path", h.cfg.Path)

	return release(h.eng)
}
