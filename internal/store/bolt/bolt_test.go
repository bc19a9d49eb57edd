package bolt

import (
	"path/filepath"
	"testing"

	"github.com/inovacc/objrepo/internal/schema"
	"github.com/inovacc/objrepo/internal/store"
	"github.com/inovacc/objrepo/internal/store/storetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.etcd.io/bbolt"
)

func TestConformance(t *testing.T) {
	storetest.Run(t, store.BackendBolt)
}

func TestBucketLayout(t *testing.T) {
	cfg := store.Config{
		Path:     filepath.Join(t.TempDir(), "layout.db"),
		Backend:  store.BackendBolt,
		Registry: storetest.NewRegistry(),
	}

	h, err := store.OpenWith(cfg)
	require.NoError(t, err)

	require.NoError(t, h.RunAtomic(func(tx store.Tx) error {
		return tx.AddOrReplace(&storetest.Item{ID: 7, Name: "seven"})
	}))
	require.NoError(t, h.Close())

	db, err := bbolt.Open(cfg.Path, 0600, &bbolt.Options{ReadOnly: true})
	require.NoError(t, err)

	defer func() { _ = db.Close() }()

	err = db.View(func(btx *bbolt.Tx) error {
		var buckets []string

		_ = btx.ForEach(func(name []byte, _ *bbolt.Bucket) error {
			buckets = append(buckets, string(name))

			return nil
		})
		assert.ElementsMatch(t, []string{boltBucketMeta, "item"}, buckets)

		v := btx.Bucket([]byte("item")).Get(schema.IntKey(7).Bytes())
		assert.JSONEq(t, `{"id":7,"name":"seven"}`, string(v))

		assert.NotNil(t, btx.Bucket([]byte(boltBucketMeta)).Get([]byte(store.MetaSalt)))

		return nil
	})
	require.NoError(t, err)
}

func TestHandlesShareEngine(t *testing.T) {
	cfg := store.Config{
		Path:     filepath.Join(t.TempDir(), "shared.db"),
		Backend:  store.BackendBolt,
		Registry: storetest.NewRegistry(),
	}

	a, err := store.OpenWith(cfg)
	require.NoError(t, err)

	b, err := store.OpenWith(cfg)
	require.NoError(t, err)

	assert.Same(t, a.(*Handle).eng, b.(*Handle).eng)
	assert.Equal(t, 2, a.(*Handle).eng.refs)

	ro := cfg
	ro.ReadOnly = true
	_, err = store.OpenWith(ro)
	assert.ErrorIs(t, err, store.ErrStoreInUse)

	require.NoError(t, a.Close())
	assert.Equal(t, 1, b.(*Handle).eng.refs)
	require.NoError(t, b.Close())

	engines.Lock()
	_, live := engines.m[cfg.Path]
	engines.Unlock()
	assert.False(t, live)
}
