package store

import (
	"fmt"
	"sort"
	"sync"

	"github.com/inovacc/objrepo/internal/schema"
)

// ErrorHandler receives store-level failures as they are raised.
type ErrorHandler func(err error)

// TxFunc is a mutation run inside one write scope. Returning an error rolls
// the whole scope back.
type TxFunc func(tx Tx) error

// Handle is an open session on a store. A handle is meant to be used from one
// goroutine at a time.
type Handle interface {
	Scanner

	// Config returns the resolved configuration the handle was opened with.
	Config() Config

	// FindByKey returns the record stored under key, or nil when there is
	// none.
	FindByKey(name string, key schema.Key) (schema.Record, error)

	// AllOf returns a lazy view of every record of the named schema.
	AllOf(name string) *Results

	// RunAtomic runs fn inside a single write scope. Write scopes do not
	// nest: calling RunAtomic from fn returns ErrNestedWrite.
	RunAtomic(fn TxFunc) error

	// Refresh advances the handle to the latest committed version.
	Refresh() error

	// Version is the commit counter last observed by this handle.
	Version() uint64

	Subscribe(h ErrorHandler) *Subscription

	Close() error
}

// Tx is the capability passed to a write scope. It is only valid until the
// scope's function returns.
type Tx interface {
	Scanner

	Find(name string, key schema.Key) (schema.Record, error)
	AddOrReplace(rec schema.Record) error
	Remove(rec schema.Record) error
	RemoveAll() error
	RemoveAllOf(name string) error
	RemoveRange(r *Results) error
}

// Driver opens and deletes stores of one backend.
type Driver interface {
	Open(cfg Config) (Handle, error)
	Delete(cfg Config) error
}

var drivers = struct {
	sync.RWMutex
	m map[string]Driver
}{m: make(map[string]Driver)}

// Register makes a driver available under name. It panics when called twice
// with the same name.
func Register(name string, d Driver) {
	drivers.Lock()
	defer drivers.Unlock()

	if d == nil {
		panic("store: Register driver is nil")
	}

	if _, dup := drivers.m[name]; dup {
		panic("store: Register called twice for driver " + name)
	}

	drivers.m[name] = d
}

// Drivers returns the names of the registered drivers.
func Drivers() []string {
	drivers.RLock()
	defer drivers.RUnlock()

	names := make([]string, 0, len(drivers.m))
	for name := range drivers.m {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

func lookupDriver(name string) (Driver, error) {
	drivers.RLock()
	defer drivers.RUnlock()

	d, ok := drivers.m[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, name)
	}

	return d, nil
}

// OpenDefault opens the default store with the default configuration.
func OpenDefault() (Handle, error) {
	return OpenWith(Config{})
}

// OpenAt opens the store at path with an otherwise default configuration.
func OpenAt(path string) (Handle, error) {
	return OpenWith(Config{Path: path})
}

// OpenWith opens a store described by cfg.
func OpenWith(cfg Config) (Handle, error) {
	cfg, err := cfg.withDefaults()
	if err != nil {
		return nil, err
	}

	d, err := lookupDriver(cfg.Backend)
	if err != nil {
		return nil, err
	}

	return d.Open(cfg)
}

// Delete removes the backing store located by cfg. Live handles on the same
// store make it fail with ErrStoreInUse.
func Delete(cfg Config) error {
	cfg, err := cfg.withDefaults()
	if err != nil {
		return err
	}

	d, err := lookupDriver(cfg.Backend)
	if err != nil {
		return err
	}

	return d.Delete(cfg)
}
