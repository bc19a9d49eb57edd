// Package storetest is a conformance suite for store drivers.
//
// A driver package runs it from its own tests:
//
//	func TestConformance(t *testing.T) {
//		storetest.Run(t, store.BackendBolt)
//	}
package storetest

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/inovacc/objrepo/internal/schema"
	"github.com/inovacc/objrepo/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Item is a record with a numeric key.
type Item struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

func (*Item) SchemaName() string { return "item" }

func (i *Item) PrimaryKey() schema.Key { return schema.IntKey(i.ID) }

// Tag is a record with a string key.
type Tag struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func (*Tag) SchemaName() string { return "tag" }

func (t *Tag) PrimaryKey() schema.Key { return schema.StringKey(t.Name) }

// NewRegistry returns a registry holding Item and Tag.
func NewRegistry() *schema.Registry {
	reg := schema.NewRegistry()
	reg.MustRegister(schema.Schema{Name: "item", Key: schema.KeyInt, New: func() schema.Record { return &Item{} }})
	reg.MustRegister(schema.Schema{Name: "tag", Key: schema.KeyString, New: func() schema.Record { return &Tag{} }})

	return reg
}

type brokenCodec struct{}

func (brokenCodec) Marshal(rec schema.Record) ([]byte, error) { return schema.JSON.Marshal(rec) }

func (brokenCodec) Unmarshal([]byte, schema.Record) error { return errors.New("corrupt value") }

// suite carries the backend under test.
type suite struct {
	backend string
}

// Run exercises every driver contract against backend.
func Run(t *testing.T, backend string) {
	s := suite{backend: backend}

	tests := []struct {
		name string
		fn   func(t *testing.T)
	}{
		{"UpsertAndFind", s.testUpsertAndFind},
		{"FindMissing", s.testFindMissing},
		{"KeyOrder", s.testKeyOrder},
		{"Remove", s.testRemove},
		{"RemoveRangeFromOtherHandle", s.testRemoveRange},
		{"RollbackOnError", s.testRollbackOnError},
		{"RollbackOnPanic", s.testRollbackOnPanic},
		{"NestedWrite", s.testNestedWrite},
		{"OpenDuringWrite", s.testOpenDuringWrite},
		{"TxDone", s.testTxDone},
		{"ReadsInsideScope", s.testReadsInsideScope},
		{"VersionAndRefresh", s.testVersionAndRefresh},
		{"Encryption", s.testEncryption},
		{"DeleteInUse", s.testDeleteInUse},
		{"SchemaVersion", s.testSchemaVersion},
		{"ErrorHandler", s.testErrorHandler},
		{"Closed", s.testClosed},
		{"ReadOnly", s.testReadOnly},
	}

	for _, tt := range tests {
		t.Run(tt.name, tt.fn)
	}
}

func (s suite) config(t *testing.T) store.Config {
	t.Helper()

	return store.Config{
		Path:     filepath.Join(t.TempDir(), "test."+s.backend),
		Backend:  s.backend,
		Registry: NewRegistry(),
	}
}

func open(t *testing.T, cfg store.Config) store.Handle {
	t.Helper()

	h, err := store.OpenWith(cfg)
	require.NoError(t, err)

	t.Cleanup(func() { _ = h.Close() })

	return h
}

func put(t *testing.T, h store.Handle, recs ...schema.Record) {
	t.Helper()

	require.NoError(t, h.RunAtomic(func(tx store.Tx) error {
		for _, rec := range recs {
			if err := tx.AddOrReplace(rec); err != nil {
				return err
			}
		}

		return nil
	}))
}

func itemIDs(t *testing.T, r *store.Results) []int64 {
	t.Helper()

	keys, err := r.Keys()
	require.NoError(t, err)

	ids := make([]int64, len(keys))
	for i, k := range keys {
		ids[i] = k.Int()
	}

	return ids
}

func (s suite) testUpsertAndFind(t *testing.T) {
	h := open(t, s.config(t))

	put(t, h, &Item{ID: 1, Name: "A"}, &Tag{Name: "go", Count: 1})

	rec, err := h.FindByKey("item", schema.IntKey(1))
	require.NoError(t, err)
	assert.Equal(t, &Item{ID: 1, Name: "A"}, rec)

	put(t, h, &Item{ID: 1, Name: "B"})

	rec, err = h.FindByKey("item", schema.IntKey(1))
	require.NoError(t, err)
	assert.Equal(t, &Item{ID: 1, Name: "B"}, rec)

	n, err := h.AllOf("item").Count()
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	rec, err = h.FindByKey("tag", schema.StringKey("go"))
	require.NoError(t, err)
	assert.Equal(t, &Tag{Name: "go", Count: 1}, rec)
}

func (s suite) testFindMissing(t *testing.T) {
	h := open(t, s.config(t))

	rec, err := h.FindByKey("item", schema.IntKey(99))
	require.NoError(t, err)
	assert.Nil(t, rec)

	rec, err = h.FindByKey("tag", schema.StringKey("none"))
	require.NoError(t, err)
	assert.Nil(t, rec)

	_, err = h.FindByKey("ghost", schema.IntKey(1))
	assert.ErrorIs(t, err, store.ErrUnknownSchema)

	_, err = h.FindByKey("item", schema.StringKey("1"))
	assert.ErrorIs(t, err, store.ErrKeyKind)

	err = h.RunAtomic(func(tx store.Tx) error {
		return tx.AddOrReplace(&Item{ID: 1})
	})
	require.NoError(t, err)

	_, err = h.AllOf("ghost").Count()
	assert.ErrorIs(t, err, store.ErrUnknownSchema)
}

func (s suite) testKeyOrder(t *testing.T) {
	h := open(t, s.config(t))

	put(t, h, &Item{ID: 10}, &Item{ID: -5}, &Item{ID: 3}, &Item{ID: 0})

	assert.Equal(t, []int64{-5, 0, 3, 10}, itemIDs(t, h.AllOf("item")))
}

func (s suite) testRemove(t *testing.T) {
	h := open(t, s.config(t))

	put(t, h, &Item{ID: 1}, &Item{ID: 2}, &Item{ID: 3}, &Tag{Name: "a"}, &Tag{Name: "b"})

	require.NoError(t, h.RunAtomic(func(tx store.Tx) error { return tx.Remove(&Item{ID: 2}) }))
	assert.Equal(t, []int64{1, 3}, itemIDs(t, h.AllOf("item")))

	// Removing a missing record is not an error.
	require.NoError(t, h.RunAtomic(func(tx store.Tx) error { return tx.Remove(&Item{ID: 42}) }))

	require.NoError(t, h.RunAtomic(func(tx store.Tx) error { return tx.RemoveAllOf("tag") }))

	n, err := h.AllOf("tag").Count()
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Equal(t, []int64{1, 3}, itemIDs(t, h.AllOf("item")))

	err = h.RunAtomic(func(tx store.Tx) error { return tx.RemoveAllOf("ghost") })
	assert.ErrorIs(t, err, store.ErrUnknownSchema)

	put(t, h, &Tag{Name: "c"})
	require.NoError(t, h.RunAtomic(func(tx store.Tx) error { return tx.RemoveAll() }))

	for _, name := range []string{"item", "tag"} {
		n, err := h.AllOf(name).Count()
		require.NoError(t, err)
		assert.Zero(t, n, name)
	}

	// Bookkeeping survives RemoveAll.
	assert.Positive(t, h.Version())
}

func (s suite) testRemoveRange(t *testing.T) {
	cfg := s.config(t)
	h := open(t, cfg)
	other := open(t, cfg)

	put(t, h, &Item{ID: 1}, &Item{ID: 2}, &Item{ID: 3}, &Item{ID: 4}, &Item{ID: 5})

	odd := other.AllOf("item").Where(func(rec schema.Record) bool { return rec.(*Item).ID%2 == 1 })

	require.NoError(t, h.RunAtomic(func(tx store.Tx) error { return tx.RemoveRange(odd) }))
	assert.Equal(t, []int64{2, 4}, itemIDs(t, h.AllOf("item")))

	first := h.AllOf("item").Limit(1)
	require.NoError(t, h.RunAtomic(func(tx store.Tx) error { return tx.RemoveRange(first) }))
	assert.Equal(t, []int64{4}, itemIDs(t, h.AllOf("item")))
}

func (s suite) testRollbackOnError(t *testing.T) {
	h := open(t, s.config(t))
	boom := errors.New("boom")

	put(t, h, &Item{ID: 1, Name: "keep"})
	version := h.Version()

	err := h.RunAtomic(func(tx store.Tx) error {
		if err := tx.AddOrReplace(&Item{ID: 2}); err != nil {
			return err
		}

		if err := tx.AddOrReplace(&Item{ID: 1, Name: "changed"}); err != nil {
			return err
		}

		return boom
	})
	assert.ErrorIs(t, err, boom)

	assert.Equal(t, []int64{1}, itemIDs(t, h.AllOf("item")))

	rec, err := h.FindByKey("item", schema.IntKey(1))
	require.NoError(t, err)
	assert.Equal(t, "keep", rec.(*Item).Name)
	assert.Equal(t, version, h.Version())
}

func (s suite) testRollbackOnPanic(t *testing.T) {
	h := open(t, s.config(t))

	assert.PanicsWithValue(t, "boom", func() {
		_ = h.RunAtomic(func(tx store.Tx) error {
			_ = tx.AddOrReplace(&Item{ID: 1})

			panic("boom")
		})
	})

	rec, err := h.FindByKey("item", schema.IntKey(1))
	require.NoError(t, err)
	assert.Nil(t, rec)

	// The handle is usable after the panic.
	put(t, h, &Item{ID: 2})
	assert.Equal(t, []int64{2}, itemIDs(t, h.AllOf("item")))
}

func (s suite) testNestedWrite(t *testing.T) {
	h := open(t, s.config(t))

	var inner error

	err := h.RunAtomic(func(tx store.Tx) error {
		inner = h.RunAtomic(func(store.Tx) error { return nil })

		return tx.AddOrReplace(&Item{ID: 1})
	})
	require.NoError(t, err)
	assert.ErrorIs(t, inner, store.ErrNestedWrite)
}

func (s suite) testOpenDuringWrite(t *testing.T) {
	cfg := s.config(t)
	h := open(t, cfg)

	put(t, h, &Item{ID: 1, Name: "A"})

	var seen schema.Record

	done := make(chan error, 1)

	go func() {
		done <- h.RunAtomic(func(tx store.Tx) error {
			if err := tx.AddOrReplace(&Item{ID: 2, Name: "B"}); err != nil {
				return err
			}

			other, err := store.OpenWith(cfg)
			if err != nil {
				return err
			}
			defer other.Close()

			seen, err = other.FindByKey("item", schema.IntKey(1))

			return err
		})
	}()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("opening a handle inside a write scope did not return")
	}

	assert.Equal(t, &Item{ID: 1, Name: "A"}, seen)

	rec, err := h.FindByKey("item", schema.IntKey(2))
	require.NoError(t, err)
	assert.NotNil(t, rec)
}

func (s suite) testTxDone(t *testing.T) {
	h := open(t, s.config(t))

	var leaked store.Tx

	require.NoError(t, h.RunAtomic(func(tx store.Tx) error {
		leaked = tx

		return nil
	}))

	assert.ErrorIs(t, leaked.AddOrReplace(&Item{ID: 1}), store.ErrTxDone)
	assert.ErrorIs(t, leaked.RemoveAll(), store.ErrTxDone)

	_, err := leaked.Find("item", schema.IntKey(1))
	assert.ErrorIs(t, err, store.ErrTxDone)
}

func (s suite) testReadsInsideScope(t *testing.T) {
	h := open(t, s.config(t))

	put(t, h, &Item{ID: 1})

	view := h.AllOf("item")

	require.NoError(t, h.RunAtomic(func(tx store.Tx) error {
		if err := tx.AddOrReplace(&Item{ID: 2}); err != nil {
			return err
		}

		rec, err := h.FindByKey("item", schema.IntKey(2))
		require.NoError(t, err)
		assert.NotNil(t, rec)

		n, err := view.Count()
		require.NoError(t, err)
		assert.Equal(t, 2, n)

		return nil
	}))
}

func (s suite) testVersionAndRefresh(t *testing.T) {
	cfg := s.config(t)
	writer := open(t, cfg)
	reader := open(t, cfg)

	assert.Zero(t, writer.Version())

	put(t, writer, &Item{ID: 1})
	put(t, writer, &Item{ID: 2})
	assert.Equal(t, uint64(2), writer.Version())
	assert.Zero(t, reader.Version())

	require.NoError(t, reader.Refresh())
	assert.Equal(t, uint64(2), reader.Version())

	// Refresh is a pure read.
	require.NoError(t, reader.Refresh())
	assert.Equal(t, uint64(2), reader.Version())
}

func (s suite) testEncryption(t *testing.T) {
	cfg := s.config(t)
	cfg.Passphrase = "correct horse"

	h, err := store.OpenWith(cfg)
	require.NoError(t, err)
	put(t, h, &Item{ID: 1, Name: "plaintext-marker"})
	require.NoError(t, h.Close())

	matches, err := filepath.Glob(cfg.Path + "*")
	require.NoError(t, err)

	for _, p := range matches {
		data, err := os.ReadFile(p)
		require.NoError(t, err)
		assert.False(t, strings.Contains(string(data), "plaintext-marker"), "plaintext found in %s", p)
	}

	wrong := cfg
	wrong.Passphrase = "battery staple"
	_, err = store.OpenWith(wrong)
	assert.ErrorIs(t, err, store.ErrWrongKey)

	plain := cfg
	plain.Passphrase = ""
	_, err = store.OpenWith(plain)
	assert.ErrorIs(t, err, store.ErrWrongKey)

	h = open(t, cfg)

	rec, err := h.FindByKey("item", schema.IntKey(1))
	require.NoError(t, err)
	assert.Equal(t, "plaintext-marker", rec.(*Item).Name)
}

func (s suite) testDeleteInUse(t *testing.T) {
	cfg := s.config(t)

	h, err := store.OpenWith(cfg)
	require.NoError(t, err)
	put(t, h, &Item{ID: 1})

	assert.ErrorIs(t, store.Delete(cfg), store.ErrStoreInUse)

	require.NoError(t, h.Close())
	require.NoError(t, h.Close())
	require.NoError(t, store.Delete(cfg))

	_, err = os.Stat(cfg.Path)
	assert.True(t, os.IsNotExist(err))

	// Deleting again is harmless.
	require.NoError(t, store.Delete(cfg))

	h = open(t, cfg)

	n, err := h.AllOf("item").Count()
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Zero(t, h.Version())
}

func (s suite) testSchemaVersion(t *testing.T) {
	cfg := s.config(t)
	cfg.SchemaVersion = 1

	h, err := store.OpenWith(cfg)
	require.NoError(t, err)
	put(t, h, &Item{ID: 1, Name: "v1"})
	require.NoError(t, h.Close())

	var from, to uint64

	cfg.SchemaVersion = 2
	cfg.Migration = func(tx store.Tx, oldVersion, newVersion uint64) error {
		from, to = oldVersion, newVersion

		rec, err := tx.Find("item", schema.IntKey(1))
		if err != nil {
			return err
		}

		item := rec.(*Item)
		item.Name = "v2"

		return tx.AddOrReplace(item)
	}

	h, err = store.OpenWith(cfg)
	require.NoError(t, err)

	rec, err := h.FindByKey("item", schema.IntKey(1))
	require.NoError(t, err)
	assert.Equal(t, "v2", rec.(*Item).Name)
	assert.Equal(t, uint64(1), from)
	assert.Equal(t, uint64(2), to)
	require.NoError(t, h.Close())

	cfg.SchemaVersion = 1
	cfg.Migration = nil
	_, err = store.OpenWith(cfg)
	assert.ErrorIs(t, err, store.ErrSchemaVersion)

	// A failing migration leaves the store at its old version.
	cfg.SchemaVersion = 3
	cfg.Migration = func(store.Tx, uint64, uint64) error { return errors.New("boom") }
	_, err = store.OpenWith(cfg)
	require.Error(t, err)

	cfg.SchemaVersion = 2
	cfg.Migration = nil
	h = open(t, cfg)
	assert.NotNil(t, h)
}

func (s suite) testErrorHandler(t *testing.T) {
	cfg := s.config(t)
	h := open(t, cfg)
	put(t, h, &Item{ID: 1})

	broken := schema.NewRegistry()
	broken.MustRegister(schema.Schema{
		Name:  "item",
		Key:   schema.KeyInt,
		New:   func() schema.Record { return &Item{} },
		Codec: brokenCodec{},
	})

	cfg.Registry = broken
	other := open(t, cfg)

	var got []error

	sub := other.Subscribe(func(err error) { got = append(got, err) })

	_, err := other.FindByKey("item", schema.IntKey(1))
	require.Error(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, err, got[0])

	sub.Cancel()
	sub.Cancel()

	_, err = other.FindByKey("item", schema.IntKey(1))
	require.Error(t, err)
	assert.Len(t, got, 1)
}

func (s suite) testClosed(t *testing.T) {
	h, err := store.OpenWith(s.config(t))
	require.NoError(t, err)
	require.NoError(t, h.Close())

	_, err = h.FindByKey("item", schema.IntKey(1))
	assert.ErrorIs(t, err, store.ErrClosed)
	assert.ErrorIs(t, h.RunAtomic(func(store.Tx) error { return nil }), store.ErrClosed)
	assert.ErrorIs(t, h.Refresh(), store.ErrClosed)

	_, err = h.AllOf("item").Count()
	assert.ErrorIs(t, err, store.ErrClosed)

	assert.NoError(t, h.Close())
}

func (s suite) testReadOnly(t *testing.T) {
	cfg := s.config(t)

	h, err := store.OpenWith(cfg)
	require.NoError(t, err)
	put(t, h, &Item{ID: 1})
	require.NoError(t, h.Close())

	cfg.ReadOnly = true
	ro := open(t, cfg)

	rec, err := ro.FindByKey("item", schema.IntKey(1))
	require.NoError(t, err)
	assert.NotNil(t, rec)

	assert.ErrorIs(t, ro.RunAtomic(func(store.Tx) error { return nil }), store.ErrReadOnly)
	assert.Equal(t, uint64(1), ro.Version())
}
