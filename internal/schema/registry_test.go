package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type item struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

func (*item) SchemaName() string { return "item" }

func (i *item) PrimaryKey() Key { return IntKey(i.ID) }

type other struct{}

func (*other) SchemaName() string { return "other" }

func (*other) PrimaryKey() Key { return StringKey("x") }

type bookkeeping struct{}

func (*bookkeeping) SchemaName() string { return "__meta" }

func (*bookkeeping) PrimaryKey() Key { return StringKey("x") }

func itemSchema() Schema {
	return Schema{Name: "item", Key: KeyInt, New: func() Record { return &item{} }}
}

func TestRegistryRegister(t *testing.T) {
	reg := NewRegistry()

	require.NoError(t, reg.Register(itemSchema()))

	sch, err := reg.Lookup("item")
	require.NoError(t, err)
	assert.Equal(t, KeyInt, sch.Key)
	assert.Equal(t, JSON, sch.Codec)

	err = reg.Register(itemSchema())
	assert.ErrorIs(t, err, ErrDuplicateSchema)

	assert.Equal(t, []string{"item"}, reg.Names())
}

func TestRegistryRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		sch  Schema
	}{
		{"no name", Schema{Key: KeyInt, New: func() Record { return &item{} }}},
		{"no factory", Schema{Name: "item", Key: KeyInt}},
		{"no key kind", Schema{Name: "item", New: func() Record { return &item{} }}},
		{"reserved name", Schema{Name: "__meta", Key: KeyString, New: func() Record { return &bookkeeping{} }}},
		{"factory mismatch", Schema{Name: "item", Key: KeyInt, New: func() Record { return &other{} }}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewRegistry().Register(tt.sch)
			assert.ErrorIs(t, err, ErrInvalidSchema)
		})
	}
}

func TestRegistryLookupUnknown(t *testing.T) {
	_, err := NewRegistry().Lookup("nope")
	assert.ErrorIs(t, err, ErrUnknownSchema)
}

func TestMustRegisterPanicsOnDuplicate(t *testing.T) {
	reg := NewRegistry()
	reg.MustRegister(itemSchema())

	assert.Panics(t, func() { reg.MustRegister(itemSchema()) })
}

func TestSchemaEncodeDecode(t *testing.T) {
	sch := itemSchema()
	sch.Codec = JSON

	data, err := sch.Encode(&item{ID: 3, Name: "three"})
	require.NoError(t, err)

	rec, err := sch.Decode(data)
	require.NoError(t, err)
	assert.Equal(t, &item{ID: 3, Name: "three"}, rec)

	_, err = sch.Encode(&other{})
	assert.ErrorIs(t, err, ErrRecordType)

	_, err = sch.Decode([]byte("{"))
	assert.Error(t, err)
}

func TestSchemaCheckKey(t *testing.T) {
	sch := itemSchema()

	assert.NoError(t, sch.CheckKey(IntKey(1)))
	assert.ErrorIs(t, sch.CheckKey(StringKey("1")), ErrKeyKind)
}
