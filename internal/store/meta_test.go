package store

import (
	"bytes"
	"errors"
	"testing"

	"github.com/inovacc/objrepo/internal/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mapMeta map[string][]byte

func (m mapMeta) Get(key string) ([]byte, error) { return m[key], nil }

func (m mapMeta) Put(key string, value []byte) error {
	m[key] = value

	return nil
}

func testRegistry(t *testing.T) *schema.Registry {
	t.Helper()

	reg := schema.NewRegistry()
	reg.MustRegister(schema.Schema{Name: "row", Key: schema.KeyInt, New: func() schema.Record { return &row{} }})

	return reg
}

func TestPrepareCodecPlain(t *testing.T) {
	meta := mapMeta{}
	cfg := Config{Registry: testRegistry(t)}

	codec, err := PrepareCodec(cfg, meta)
	require.NoError(t, err)
	assert.Len(t, meta[MetaSalt], saltSize)
	assert.Nil(t, meta[MetaKeyCheck])

	sch, key, value, err := codec.Encode(&row{ID: 4, Group: "g"})
	require.NoError(t, err)
	assert.Equal(t, schema.IntKey(4).Bytes(), key)
	assert.Equal(t, `{"id":4,"group":"g"}`, string(value))

	rec, err := codec.Decode(sch, value)
	require.NoError(t, err)
	assert.Equal(t, &row{ID: 4, Group: "g"}, rec)

	// Reopening an unencrypted store with a key is refused.
	cfg.Passphrase = "secret"
	_, err = PrepareCodec(cfg, meta)
	assert.ErrorIs(t, err, ErrWrongKey)
}

func TestPrepareCodecEncrypted(t *testing.T) {
	meta := mapMeta{}
	cfg := Config{Registry: testRegistry(t), Passphrase: "secret"}

	codec, err := PrepareCodec(cfg, meta)
	require.NoError(t, err)
	require.NotNil(t, meta[MetaKeyCheck])

	_, _, value, err := codec.Encode(&row{ID: 1, Group: "hidden"})
	require.NoError(t, err)
	assert.False(t, bytes.Contains(value, []byte("hidden")))

	salt := meta[MetaSalt]

	// Same passphrase reuses the stored salt.
	_, err = PrepareCodec(cfg, meta)
	require.NoError(t, err)
	assert.Equal(t, salt, meta[MetaSalt])

	cfg.Passphrase = "wrong"
	_, err = PrepareCodec(cfg, meta)
	assert.ErrorIs(t, err, ErrWrongKey)

	cfg.Passphrase = ""
	_, err = PrepareCodec(cfg, meta)
	assert.ErrorIs(t, err, ErrWrongKey)
}

func TestCodecResolve(t *testing.T) {
	codec := NewCodec(testRegistry(t), nil)

	_, err := codec.Resolve("row", schema.IntKey(1))
	require.NoError(t, err)

	_, err = codec.Resolve("row", schema.StringKey("1"))
	assert.ErrorIs(t, err, ErrKeyKind)

	_, err = codec.Resolve("missing", schema.IntKey(1))
	assert.ErrorIs(t, err, ErrUnknownSchema)
}

func TestPrepareSchema(t *testing.T) {
	meta := mapMeta{}

	require.NoError(t, PrepareSchema(Config{SchemaVersion: 1}, meta, nil))

	v, err := ReadUint(meta, MetaSchemaVersion)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), v)

	var calls [][2]uint64

	cfg := Config{SchemaVersion: 3, Migration: func(_ Tx, from, to uint64) error {
		calls = append(calls, [2]uint64{from, to})

		return nil
	}}
	require.NoError(t, PrepareSchema(cfg, meta, nil))
	assert.Equal(t, [][2]uint64{{1, 3}}, calls)

	// Same version runs nothing.
	require.NoError(t, PrepareSchema(cfg, meta, nil))
	assert.Len(t, calls, 1)

	err = PrepareSchema(Config{SchemaVersion: 2}, meta, nil)
	assert.ErrorIs(t, err, ErrSchemaVersion)
}

func TestPrepareSchemaMigrationFailure(t *testing.T) {
	meta := mapMeta{}
	boom := errors.New("boom")

	cfg := Config{SchemaVersion: 2, Migration: func(Tx, uint64, uint64) error { return boom }}

	err := PrepareSchema(cfg, meta, nil)
	assert.ErrorIs(t, err, boom)
	assert.Nil(t, meta[MetaSchemaVersion])
}

func TestBumpCommit(t *testing.T) {
	meta := mapMeta{}

	for want := uint64(1); want <= 3; want++ {
		v, err := BumpCommit(meta)
		require.NoError(t, err)
		assert.Equal(t, want, v)
	}

	meta[MetaCommit] = []byte{1}
	_, err := ReadUint(meta, MetaCommit)
	assert.Error(t, err)
}
