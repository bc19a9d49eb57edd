package store

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSealerRoundTrip(t *testing.T) {
	key := bytes.Repeat([]byte{7}, KeySize)

	s, err := NewSealer(key)
	require.NoError(t, err)

	plain := []byte(`{"id":1}`)

	sealed, err := s.Seal(plain)
	require.NoError(t, err)
	assert.NotEqual(t, plain, sealed)

	again, err := s.Seal(plain)
	require.NoError(t, err)
	assert.NotEqual(t, sealed, again, "nonce must differ per seal")

	opened, err := s.Open(sealed)
	require.NoError(t, err)
	assert.Equal(t, plain, opened)

	other, err := NewSealer(bytes.Repeat([]byte{8}, KeySize))
	require.NoError(t, err)

	_, err = other.Open(sealed)
	assert.Error(t, err)

	_, err = s.Open([]byte{1, 2})
	assert.Error(t, err)
}

func TestNilSealerPassesThrough(t *testing.T) {
	var s *Sealer

	out, err := s.Seal([]byte("x"))
	require.NoError(t, err)
	assert.Equal(t, []byte("x"), out)

	out, err = s.Open([]byte("y"))
	require.NoError(t, err)
	assert.Equal(t, []byte("y"), out)
}

func TestNewSealerKeySize(t *testing.T) {
	_, err := NewSealer([]byte("short"))
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestDeriveKey(t *testing.T) {
	salt := []byte("0123456789abcdef")

	k1 := DeriveKey("correct horse", salt)
	k2 := DeriveKey("correct horse", salt)
	k3 := DeriveKey("correct horse", []byte("fedcba9876543210"))

	assert.Len(t, k1, KeySize)
	assert.Equal(t, k1, k2)
	assert.NotEqual(t, k1, k3)
}
