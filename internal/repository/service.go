package repository

import (
	"log/slog"

	"github.com/inovacc/objrepo/internal/schema"
	"github.com/inovacc/objrepo/internal/store"
)

// Service owns one store handle and runs every mutation in its own write
// scope. Like the handle it wraps, a Service is meant for one goroutine at a
// time.
type Service struct {
	handle   store.Handle
	config   *store.Config
	sub      *store.Subscription
	logger   *slog.Logger
	disposed bool
}

// New opens the default store.
func New() (*Service, error) {
	h, err := store.OpenDefault()
	if err != nil {
		return nil, err
	}

	return attach(h, nil), nil
}

// NewAt opens the store at path with an otherwise default configuration.
func NewAt(path string) (*Service, error) {
	h, err := store.OpenAt(path)
	if err != nil {
		return nil, err
	}

	return attach(h, nil), nil
}

// NewWith opens the store described by cfg and keeps cfg for Instance.
func NewWith(cfg store.Config) (*Service, error) {
	h, err := store.OpenWith(cfg)
	if err != nil {
		return nil, err
	}

	return attach(h, &cfg), nil
}

func attach(h store.Handle, cfg *store.Config) *Service {
	s := &Service{handle: h, config: cfg, logger: h.Config().Logger}
	if s.logger == nil {
		s.logger = slog.Default()
	}

	s.sub = h.Subscribe(s.onStoreError)

	return s
}

// onStoreError is the single hook every store-level failure passes through.
func (s *Service) onStoreError(err error) {
	s.logger.Debug("store error", "path", s.Config().Path, "error", err)
}

// WithLogger replaces the logger used by the error hook.
func (s *Service) WithLogger(logger *slog.Logger) *Service {
	if logger != nil {
		s.logger = logger
	}

	return s
}

// Instance opens a new handle: from the configuration given to NewWith, or
// the default configuration otherwise. The service's own handle is neither
// returned nor reused; the caller owns and closes the new one.
func (s *Service) Instance() (store.Handle, error) {
	if s.config != nil {
		return store.OpenWith(*s.config)
	}

	return store.OpenDefault()
}

// Handle returns the live handle, or nil once the service is disposed.
func (s *Service) Handle() store.Handle {
	return s.handle
}

// Config returns the resolved configuration of the live handle. After
// disposal it falls back to the configuration given to NewWith.
func (s *Service) Config() store.Config {
	if s.handle != nil {
		return s.handle.Config()
	}

	if s.config != nil {
		return *s.config
	}

	return store.Config{}
}

func (s *Service) live() (store.Handle, error) {
	if s.handle == nil {
		return nil, store.ErrClosed
	}

	return s.handle, nil
}

// AddOrUpdate inserts rec or replaces the record stored under its key.
func (s *Service) AddOrUpdate(rec schema.Record) error {
	return s.Write(func(tx store.Tx) error {
		return tx.AddOrReplace(rec)
	})
}

// AddOrUpdateAll upserts recs in a single write scope. An empty batch does
// not touch the store.
func (s *Service) AddOrUpdateAll(recs ...schema.Record) error {
	if len(recs) == 0 {
		return nil
	}

	return s.Write(func(tx store.Tx) error {
		for _, rec := range recs {
			if err := tx.AddOrReplace(rec); err != nil {
				return err
			}
		}

		return nil
	})
}

// Write runs fn in one write scope. An error returned by fn, or a panic,
// discards everything fn did.
func (s *Service) Write(fn store.TxFunc) error {
	h, err := s.live()
	if err != nil {
		return err
	}

	return h.RunAtomic(fn)
}

// Query looks up a record of the named schema by numeric key. A missing
// record is reported as (nil, nil).
func (s *Service) Query(name string, id int64) (schema.Record, error) {
	h, err := s.live()
	if err != nil {
		return nil, err
	}

	return h.FindByKey(name, schema.IntKey(id))
}

// QueryString looks up a record by string key. An empty id is not found
// without reaching the store.
func (s *Service) QueryString(name, id string) (schema.Record, error) {
	if id == "" {
		return nil, nil
	}

	h, err := s.live()
	if err != nil {
		return nil, err
	}

	return h.FindByKey(name, schema.StringKey(id))
}

// QueryAll returns a lazy view of every record of the named schema.
func (s *Service) QueryAll(name string) *store.Results {
	h, err := s.live()
	if err != nil {
		return store.NewResults(closedScanner{}, name)
	}

	return h.AllOf(name)
}

// RemoveAll deletes every record of every schema.
func (s *Service) RemoveAll() error {
	return s.Write(func(tx store.Tx) error {
		return tx.RemoveAll()
	})
}

// RemoveAllOf deletes every record of the named schema.
func (s *Service) RemoveAllOf(name string) error {
	return s.Write(func(tx store.Tx) error {
		return tx.RemoveAllOf(name)
	})
}

// Remove deletes the record stored under rec's key, if any.
func (s *Service) Remove(rec schema.Record) error {
	return s.Write(func(tx store.Tx) error {
		return tx.Remove(rec)
	})
}

// RemoveRange deletes every record r yields. The view is evaluated inside
// the write scope, so it may come from any handle on the same store.
func (s *Service) RemoveRange(r *store.Results) error {
	return s.Write(func(tx store.Tx) error {
		return tx.RemoveRange(r)
	})
}

// Refresh advances the handle to the latest committed version.
func (s *Service) Refresh() error {
	h, err := s.live()
	if err != nil {
		return err
	}

	return h.Refresh()
}

// Close detaches the error hook and releases the handle.
func (s *Service) Close() error {
	return s.Dispose(true)
}

// Dispose releases the handle. With disposing set the error hook is detached
// first. Calling it again is a no-op.
func (s *Service) Dispose(disposing bool) error {
	if s.disposed {
		return nil
	}

	if disposing {
		s.sub.Cancel()
		s.sub = nil
	}

	s.disposed = true

	h := s.handle
	s.handle = nil

	if h == nil {
		return nil
	}

	return h.Close()
}

// DeleteStore disposes the service and removes its backing store. Other
// live handles on the same store make it fail with store.ErrStoreInUse; the
// service is disposed either way and the store is left intact.
func (s *Service) DeleteStore() error {
	cfg := s.Config()

	if err := s.Close(); err != nil {
		return err
	}

	s.logger.Info("deleting store", "path", cfg.Path, "backend", cfg.Backend)

	return store.Delete(cfg)
}

type closedScanner struct{}

func (closedScanner) Scan(string, func(schema.Record) error) error { return store.ErrClosed }
