// Package bolt implements the store driver on top of bbolt.
//
// Each schema lives in its own bucket keyed by the encoded primary key; the
// bookkeeping values live in the __meta bucket. Handles opened on the same
// path share one *bbolt.DB, since bbolt locks the file per process.
package bolt

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/inovacc/objrepo/internal/schema"
	"github.com/inovacc/objrepo/internal/store"
	"go.etcd.io/bbolt"
)

const boltBucketMeta = schema.ReservedPrefix + "meta"

func init() {
	store.Register(store.BackendBolt, Driver{})
}

// Driver is the bbolt backend.
type Driver struct{}

type engine struct {
	db       *bbolt.DB
	path     string
	readOnly bool
	refs     int
}

var engines = struct {
	sync.Mutex
	m map[string]*engine
}{m: make(map[string]*engine)}

// Open prepares the handle outside the engines lock, so a handle can be
// opened while another one on the same path holds the write transaction.
func (Driver) Open(cfg store.Config) (store.Handle, error) {
	eng, err := acquire(cfg)
	if err != nil {
		return nil, err
	}

	h := &Handle{eng: eng, cfg: cfg, logger: cfg.Logger.With("backend", store.BackendBolt)}

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

	db, err := bbolt.Open(cfg.Path, 0600, &bbolt.Options{Timeout: cfg.Timeout, ReadOnly: cfg.ReadOnly})
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	return &engine{db: db, path: cfg.Path, readOnly: cfg.ReadOnly}, nil
}

func (Driver) Delete(cfg store.Config) error {
	engines.Lock()
	defer engines.Unlock()

	if eng, ok := engines.m[cfg.Path]; ok {
		return fmt.Errorf("%w: %d live handle(s) on %s", store.ErrStoreInUse, eng.refs, cfg.Path)
	}

	if err := os.Remove(cfg.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("deleting database: %w", err)
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

// meta adapts the __meta bucket of one transaction to store.Meta.
type meta struct {
	btx *bbolt.Tx
}

func (m meta) Get(key string) ([]byte, error) {
	b := m.btx.Bucket([]byte(boltBucketMeta))
	if b == nil {
		return nil, nil
	}

	v := b.Get([]byte(key))
	if v == nil {
		return nil, nil
	}

	return append([]byte(nil), v...), nil
}

func (m meta) Put(key string, value []byte) error {
	if !m.btx.Writable() {
		return store.ErrReadOnly
	}

	b, err := m.btx.CreateBucketIfNotExists([]byte(boltBucketMeta))
	if err != nil {
		return err
	}

	return b.Put([]byte(key), value)
}

var _ store.Handle = (*Handle)(nil)

// Handle is one session on a bbolt store.
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

// prepare reads the meta area in a read transaction and only takes the
// write lock for a new store or a pending schema migration.
func (h *Handle) prepare() error {
	setup := false

	err := h.eng.db.View(func(btx *bbolt.Tx) error {
		pending, err := store.NeedsSetup(h.cfg, meta{btx: btx})
		if err != nil {
			return err
		}

		if setup = pending && !h.cfg.ReadOnly; setup {
			return nil
		}

		return h.load(btx)
	})
	if err != nil || !setup {
		return err
	}

	return h.eng.db.Update(h.load)
}

func (h *Handle) load(btx *bbolt.Tx) error {
	m := meta{btx: btx}

	codec, err := store.PrepareCodec(h.cfg, m)
	if err != nil {
		return err
	}

	h.codec = codec

	t := &tx{h: h, btx: btx}
	defer func() { t.done = true }()

	if err := store.PrepareSchema(h.cfg, m, t); err != nil {
		return err
	}

	h.version, err = store.ReadUint(m, store.MetaCommit)

	return err
}

func (h *Handle) Config() store.Config { return h.cfg }

func (h *Handle) Version() uint64 { return h.version }

func (h *Handle) FindByKey(name string, key schema.Key) (schema.Record, error) {
	if h.closed {
		return nil, store.ErrClosed
	}

	if h.wtx != nil {
		return h.wtx.Find(name, key)
	}

	var rec schema.Record

	err := h.eng.db.View(func(btx *bbolt.Tx) error {
		var err error
		rec, err = (&tx{h: h, btx: btx}).Find(name, key)

		return err
	})

	return rec, err
}

func (h *Handle) AllOf(name string) *store.Results {
	return store.NewResults(h, name)
}

// Scan reads every record of name before calling fn, so fn may use the
// handle freely.
func (h *Handle) Scan(name string, fn func(rec schema.Record) error) error {
	if h.closed {
		return store.ErrClosed
	}

	if h.wtx != nil {
		return h.wtx.Scan(name, fn)
	}

	var recs []schema.Record

	err := h.eng.db.View(func(btx *bbolt.Tx) error {
		return (&tx{h: h, btx: btx}).collect(name, func(rec schema.Record) error {
			recs = append(recs, rec)

			return nil
		})
	})
	if err != nil {
		return err
	}

	for _, rec := range recs {
		if err := fn(rec); err != nil {
			return err
		}
	}

	return nil
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

	var (
		fnErr   error
		version uint64
	)

	err := h.eng.db.Update(func(btx *bbolt.Tx) error {
		t := &tx{h: h, btx: btx}
		h.wtx = t

		defer func() {
			t.done = true
			h.wtx = nil
		}()

		if fnErr = fn(t); fnErr != nil {
			return fnErr
		}

		var err error
		version, err = store.BumpCommit(meta{btx: btx})

		return err
	})
	if err != nil {
		if fnErr == nil {
			h.logger.Error("commit failed", "path", h.cfg.Path, "error", err)

			return h.Notify(err)
		}

		return err
	}

	h.version = version

	return nil
}

func (h *Handle) Refresh() error {
	if h.closed {
		return store.ErrClosed
	}

	err := h.eng.db.View(func(btx *bbolt.Tx) error {
		v, err := store.ReadUint(meta{btx: btx}, store.MetaCommit)
		if err != nil {
			return err
		}

		if v != h.version {
			h.logger.Debug("handle advanced", "from", h.version, "to", v)
		}

		h.version = v

		return nil
	})

	return h.Notify(err)
}

func (h *Handle) Close() error {
	if h.closed {
		return nil
	}

	h.closed = true

	h.logger.Debug("store handle closed", "path", h.cfg.Path)

	return release(h.eng)
}
