package store

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/inovacc/objrepo/internal/schema"
)

// Keys of the bookkeeping area every driver keeps next to the records.
const (
	MetaSalt          = "salt"
	MetaKeyCheck      = "key_check"
	MetaSchemaVersion = "schema_version"
	MetaCommit        = "commit"
)

var keyCheckPlaintext = []byte("objrepo key check")

// Meta is a driver's raw access to its bookkeeping area inside one
// transaction. Get returns nil for a missing key.
type Meta interface {
	Get(key string) ([]byte, error)
	Put(key string, value []byte) error
}

// Codec turns records into stored values and back for one handle.
type Codec struct {
	reg    *schema.Registry
	sealer *Sealer
}

func NewCodec(reg *schema.Registry, sealer *Sealer) *Codec {
	return &Codec{reg: reg, sealer: sealer}
}

func (c *Codec) Registry() *schema.Registry { return c.reg }

// Encode returns the schema, encoded key and sealed value of rec.
func (c *Codec) Encode(rec schema.Record) (schema.Schema, []byte, []byte, error) {
	sch, err := c.reg.Lookup(rec.SchemaName())
	if err != nil {
		return schema.Schema{}, nil, nil, err
	}

	key := rec.PrimaryKey()
	if err := sch.CheckKey(key); err != nil {
		return schema.Schema{}, nil, nil, err
	}

	data, err := sch.Encode(rec)
	if err != nil {
		return schema.Schema{}, nil, nil, err
	}

	sealed, err := c.sealer.Seal(data)
	if err != nil {
		return schema.Schema{}, nil, nil, err
	}

	return sch, key.Bytes(), sealed, nil
}

func (c *Codec) Decode(sch schema.Schema, value []byte) (schema.Record, error) {
	data, err := c.sealer.Open(value)
	if err != nil {
		return nil, err
	}

	return sch.Decode(data)
}

// Resolve looks up name and checks that key fits it.
func (c *Codec) Resolve(name string, key schema.Key) (schema.Schema, error) {
	sch, err := c.reg.Lookup(name)
	if err != nil {
		return schema.Schema{}, err
	}

	if err := sch.CheckKey(key); err != nil {
		return schema.Schema{}, err
	}

	return sch, nil
}

// PrepareCodec builds the codec for cfg from the store's meta area. A new
// store gets a salt and, when encrypted, a sealed check value. An existing
// store must be opened with the key it was created with.
func PrepareCodec(cfg Config, meta Meta) (*Codec, error) {
	salt, err := meta.Get(MetaSalt)
	if err != nil {
		return nil, err
	}

	fresh := salt == nil
	if fresh {
		if salt, err = newSalt(); err != nil {
			return nil, err
		}

		if err := meta.Put(MetaSalt, salt); err != nil {
			return nil, err
		}
	}

	var sealer *Sealer

	switch {
	case len(cfg.EncryptionKey) > 0:
		sealer, err = NewSealer(cfg.EncryptionKey)
	case cfg.Passphrase != "":
		sealer, err = NewSealer(DeriveKey(cfg.Passphrase, salt))
	}

	if err != nil {
		return nil, err
	}

	check, err := meta.Get(MetaKeyCheck)
	if err != nil {
		return nil, err
	}

	switch {
	case fresh && sealer != nil:
		sealed, err := sealer.Seal(keyCheckPlaintext)
		if err != nil {
			return nil, err
		}

		if err := meta.Put(MetaKeyCheck, sealed); err != nil {
			return nil, err
		}
	case check == nil && sealer != nil:
		return nil, fmt.Errorf("%w: store is not encrypted", ErrWrongKey)
	case check != nil && sealer == nil:
		return nil, fmt.Errorf("%w: store is encrypted", ErrWrongKey)
	case check != nil:
		plain, err := sealer.Open(check)
		if err != nil || !bytes.Equal(plain, keyCheckPlaintext) {
			return nil, ErrWrongKey
		}
	}

	return NewCodec(cfg.Registry, sealer), nil
}

// NeedsSetup reports whether opening cfg has to write the meta area: the
// store is new or the configured schema version is ahead of the stored one.
func NeedsSetup(cfg Config, meta Meta) (bool, error) {
	salt, err := meta.Get(MetaSalt)
	if err != nil || salt == nil {
		return err == nil, err
	}

	stored, err := ReadUint(meta, MetaSchemaVersion)
	if err != nil {
		return false, err
	}

	return stored < cfg.SchemaVersion, nil
}

// PrepareSchema compares the stored schema version with cfg's, running the
// configured migration inside tx when the configuration is newer.
func PrepareSchema(cfg Config, meta Meta, tx Tx) error {
	stored, err := ReadUint(meta, MetaSchemaVersion)
	if err != nil {
		return err
	}

	switch {
	case stored > cfg.SchemaVersion:
		return fmt.Errorf("%w: stored %d, configured %d", ErrSchemaVersion, stored, cfg.SchemaVersion)
	case stored == cfg.SchemaVersion:
		return nil
	}

	if cfg.Migration != nil {
		if err := cfg.Migration(tx, stored, cfg.SchemaVersion); err != nil {
			return fmt.Errorf("migrating schema %d -> %d: %w", stored, cfg.SchemaVersion, err)
		}
	}

	return WriteUint(meta, MetaSchemaVersion, cfg.SchemaVersion)
}

// BumpCommit increments the commit counter and returns the new value.
func BumpCommit(meta Meta) (uint64, error) {
	v, err := ReadUint(meta, MetaCommit)
	if err != nil {
		return 0, err
	}

	v++

	return v, WriteUint(meta, MetaCommit, v)
}

func ReadUint(meta Meta, key string) (uint64, error) {
	b, err := meta.Get(key)
	if err != nil || b == nil {
		return 0, err
	}

	if len(b) != 8 {
		return 0, fmt.Errorf("meta %s has %d bytes, want 8", key, len(b))
	}

	return binary.BigEndian.Uint64(b), nil
}

func WriteUint(meta Meta, key string, v uint64) error {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, v)

	return meta.Put(key, b)
}
