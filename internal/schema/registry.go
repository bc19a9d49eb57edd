package schema

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

var (
	ErrUnknownSchema   = errors.New("unknown schema")
	ErrDuplicateSchema = errors.New("schema already registered")
	ErrInvalidSchema   = errors.New("invalid schema")
	ErrKeyKind         = errors.New("key kind mismatch")
	ErrRecordType      = errors.New("record type mismatch")
)

// Record is implemented by every persisted type.
type Record interface {
	SchemaName() string
	PrimaryKey() Key
}

// Codec converts records to and from their stored form.
type Codec interface {
	Marshal(rec Record) ([]byte, error)
	Unmarshal(data []byte, rec Record) error
}

type jsonCodec struct{}

func (jsonCodec) Marshal(rec Record) ([]byte, error) { return json.Marshal(rec) }

func (jsonCodec) Unmarshal(data []byte, rec Record) error { return json.Unmarshal(data, rec) }

// JSON is the default codec.
var JSON Codec = jsonCodec{}

// Schema describes one record type.
type Schema struct {
	Name  string
	Key   KeyKind
	New   func() Record
	Codec Codec
}

// CheckKey reports whether key has the kind this schema declares.
func (s Schema) CheckKey(key Key) error {
	if key.Kind() != s.Key {
		return fmt.Errorf("%w: %s expects %s key, got %s", ErrKeyKind, s.Name, s.Key, key.Kind())
	}

	return nil
}

func (s Schema) Encode(rec Record) ([]byte, error) {
	if rec.SchemaName() != s.Name {
		return nil, fmt.Errorf("%w: %s record passed to schema %s", ErrRecordType, rec.SchemaName(), s.Name)
	}

	return s.Codec.Marshal(rec)
}

func (s Schema) Decode(data []byte) (Record, error) {
	rec := s.New()
	if err := s.Codec.Unmarshal(data, rec); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", s.Name, err)
	}

	return rec, nil
}

// Registry maps schema names to their descriptions. Lookups by name are the
// only dynamic dispatch; typed callers resolve their name from the type.
type Registry struct {
	mu      sync.RWMutex
	schemas map[string]Schema
}

func NewRegistry() *Registry {
	return &Registry{schemas: make(map[string]Schema)}
}

// ReservedPrefix marks names drivers keep for their own bookkeeping.
const ReservedPrefix = "__"

// Default is the registry used when a store configuration names none.
var Default = NewRegistry()

func (r *Registry) Register(s Schema) error {
	if s.Name == "" || s.New == nil {
		return fmt.Errorf("%w: name and factory are required", ErrInvalidSchema)
	}

	if strings.HasPrefix(s.Name, ReservedPrefix) {
		return fmt.Errorf("%w: names starting with %q are reserved", ErrInvalidSchema, ReservedPrefix)
	}

	if s.Key != KeyInt && s.Key != KeyString {
		return fmt.Errorf("%w: %s has no key kind", ErrInvalidSchema, s.Name)
	}

	if got := s.New().SchemaName(); got != s.Name {
		return fmt.Errorf("%w: factory for %s builds %s records", ErrInvalidSchema, s.Name, got)
	}

	if s.Codec == nil {
		s.Codec = JSON
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.schemas[s.Name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateSchema, s.Name)
	}

	r.schemas[s.Name] = s

	return nil
}

func (r *Registry) MustRegister(s Schema) {
	if err := r.Register(s); err != nil {
		panic(err)
	}
}

func (r *Registry) Lookup(name string) (Schema, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.schemas[name]
	if !ok {
		return Schema{}, fmt.Errorf("%w: %q", ErrUnknownSchema, name)
	}

	return s, nil
}

// Names returns the registered schema names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.schemas))
	for name := range r.schemas {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

// MustRegister adds s to the [Default] registry.
func MustRegister(s Schema) {
	Default.MustRegister(s)
}
