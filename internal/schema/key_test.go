package schema

import (
	"bytes"
	"math"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyBytesRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		key  Key
	}{
		{"zero int", IntKey(0)},
		{"negative int", IntKey(-42)},
		{"max int", IntKey(math.MaxInt64)},
		{"min int", IntKey(math.MinInt64)},
		{"string", StringKey("abc")},
		{"empty string", StringKey("")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeKey(tt.key.Bytes())
			require.NoError(t, err)
			assert.Equal(t, tt.key, got)
		})
	}
}

func TestIntKeyOrderPreserved(t *testing.T) {
	values := []int64{5, -1, math.MinInt64, 0, 1 << 40, -300, math.MaxInt64}

	encoded := make([][]byte, len(values))
	for i, v := range values {
		encoded[i] = IntKey(v).Bytes()
	}

	sort.Slice(encoded, func(i, j int) bool { return bytes.Compare(encoded[i], encoded[j]) < 0 })
	sort.Slice(values, func(i, j int) bool { return values[i] < values[j] })

	for i, b := range encoded {
		k, err := DecodeKey(b)
		require.NoError(t, err)
		assert.Equal(t, values[i], k.Int())
	}
}

func TestDecodeKeyErrors(t *testing.T) {
	_, err := DecodeKey(nil)
	assert.Error(t, err)

	_, err = DecodeKey([]byte{'i', 1, 2})
	assert.Error(t, err)

	_, err = DecodeKey([]byte{'x'})
	assert.Error(t, err)
}

func TestParseKey(t *testing.T) {
	k, err := ParseKey(KeyInt, "17")
	require.NoError(t, err)
	assert.Equal(t, IntKey(17), k)

	k, err = ParseKey(KeyString, "17")
	require.NoError(t, err)
	assert.Equal(t, StringKey("17"), k)

	_, err = ParseKey(KeyInt, "seventeen")
	assert.ErrorIs(t, err, ErrKeyKind)
}

func TestKeyString(t *testing.T) {
	assert.Equal(t, "-3", IntKey(-3).String())
	assert.Equal(t, "x", StringKey("x").String())
	assert.Equal(t, "<invalid key>", Key{}.String())
	assert.Equal(t, "int", KeyInt.String())
	assert.Equal(t, "KeyKind(9)", KeyKind(9).String())
}
