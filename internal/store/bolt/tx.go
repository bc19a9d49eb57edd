package bolt

import (
	"errors"
	"fmt"

	"github.com/inovacc/objrepo/internal/schema"
	"github.com/inovacc/objrepo/internal/store"
	"go.etcd.io/bbolt"
)

// tx is the write scope handed to store.TxFunc; read paths reuse it over
// read-only bbolt transactions.
type tx struct {
	h    *Handle
	btx  *bbolt.Tx
	done bool
}

var _ store.Tx = (*tx)(nil)

func (t *tx) check() error {
	if t.done {
		return store.ErrTxDone
	}

	return nil
}

func (t *tx) Find(name string, key schema.Key) (schema.Record, error) {
	if err := t.check(); err != nil {
		return nil, err
	}

	sch, err := t.h.codec.Resolve(name, key)
	if err != nil {
		return nil, err
	}

	b := t.btx.Bucket([]byte(name))
	if b == nil {
		return nil, nil
	}

	v := b.Get(key.Bytes())
	if v == nil {
		return nil, nil
	}

	rec, err := t.h.codec.Decode(sch, v)
	if err != nil {
		return nil, t.h.Notify(err)
	}

	return rec, nil
}

func (t *tx) Scan(name string, fn func(rec schema.Record) error) error {
	if err := t.check(); err != nil {
		return err
	}

	var recs []schema.Record

	if err := t.collect(name, func(rec schema.Record) error {
		recs = append(recs, rec)

		return nil
	}); err != nil {
		return err
	}

	for _, rec := range recs {
		if err := fn(rec); err != nil {
			return err
		}
	}

	return nil
}

func (t *tx) collect(name string, fn func(rec schema.Record) error) error {
	sch, err := t.h.codec.Registry().Lookup(name)
	if err != nil {
		return err
	}

	b := t.btx.Bucket([]byte(name))
	if b == nil {
		return nil
	}

	return b.ForEach(func(_, v []byte) error {
		rec, err := t.h.codec.Decode(sch, v)
		if err != nil {
			return t.h.Notify(err)
		}

		return fn(rec)
	})
}

func (t *tx) AddOrReplace(rec schema.Record) error {
	if err := t.check(); err != nil {
		return err
	}

	sch, key, value, err := t.h.codec.Encode(rec)
	if err != nil {
		return err
	}

	b, err := t.btx.CreateBucketIfNotExists([]byte(sch.Name))
	if err != nil {
		return err
	}

	return b.Put(key, value)
}

func (t *tx) Remove(rec schema.Record) error {
	if err := t.check(); err != nil {
		return err
	}

	if _, err := t.h.codec.Resolve(rec.SchemaName(), rec.PrimaryKey()); err != nil {
		return err
	}

	b := t.btx.Bucket([]byte(rec.SchemaName()))
	if b == nil {
		return nil
	}

	return b.Delete(rec.PrimaryKey().Bytes())
}

func (t *tx) RemoveAll() error {
	if err := t.check(); err != nil {
		return err
	}

	var names [][]byte

	if err := t.btx.ForEach(func(name []byte, _ *bbolt.Bucket) error {
		if string(name) != boltBucketMeta {
			names = append(names, append([]byte(nil), name...))
		}

		return nil
	}); err != nil {
		return err
	}

	for _, name := range names {
		if err := t.btx.DeleteBucket(name); err != nil {
			return fmt.Errorf("clearing %s: %w", name, err)
		}
	}

	return nil
}

func (t *tx) RemoveAllOf(name string) error {
	if err := t.check(); err != nil {
		return err
	}

	if _, err := t.h.codec.Registry().Lookup(name); err != nil {
		return err
	}

	err := t.btx.DeleteBucket([]byte(name))
	if errors.Is(err, bbolt.ErrBucketNotFound) {
		return nil
	}

	return err
}

// RemoveRange re-evaluates r through this scope and deletes what it yields.
func (t *tx) RemoveRange(r *store.Results) error {
	if err := t.check(); err != nil {
		return err
	}

	keys, err := r.On(t).Keys()
	if err != nil {
		return err
	}

	b := t.btx.Bucket([]byte(r.Schema()))
	if b == nil {
		return nil
	}

	for _, key := range keys {
		if err := b.Delete(key.Bytes()); err != nil {
			return err
		}
	}

	return nil
}
