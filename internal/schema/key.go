package schema

import (
	"encoding/binary"
	"errors"
	"fmt"
	"strconv"
)

// KeyKind is the type of a record's primary key.
type KeyKind uint8

const (
	KeyInt KeyKind = iota + 1
	KeyString
)

const (
	intKeyPrefix    = 'i'
	stringKeyPrefix = 's'
)

func (k KeyKind) String() string {
	switch k {
	case KeyInt:
		return "int"
	case KeyString:
		return "string"
	}

	return fmt.Sprintf("KeyKind(%d)", uint8(k))
}

// Key is a primary key value. The zero Key has no kind and is never valid.
type Key struct {
	kind KeyKind
	i    int64
	s    string
}

// IntKey returns a numeric primary key.
func IntKey(v int64) Key {
	return Key{kind: KeyInt, i: v}
}

// StringKey returns a string primary key.
func StringKey(v string) Key {
	return Key{kind: KeyString, s: v}
}

func (k Key) Kind() KeyKind { return k.kind }

// Int returns the numeric value of an int key, zero otherwise.
func (k Key) Int() int64 { return k.i }

// Str returns the value of a string key, "" otherwise.
func (k Key) Str() string { return k.s }

// String renders the key for display.
func (k Key) String() string {
	switch k.kind {
	case KeyInt:
		return strconv.FormatInt(k.i, 10)
	case KeyString:
		return k.s
	}

	return "<invalid key>"
}

// Bytes encodes the key for storage. Int keys are encoded big-endian with
// the sign bit flipped so that byte order matches numeric order.
func (k Key) Bytes() []byte {
	switch k.kind {
	case KeyInt:
		buf := make([]byte, 9)
		buf[0] = intKeyPrefix
		binary.BigEndian.PutUint64(buf[1:], uint64(k.i)^(1<<63))

		return buf
	case KeyString:
		buf := make([]byte, 0, len(k.s)+1)
		buf = append(buf, stringKeyPrefix)

		return append(buf, k.s...)
	}

	return nil
}

// DecodeKey is the inverse of [Key.Bytes].
func DecodeKey(b []byte) (Key, error) {
	if len(b) == 0 {
		return Key{}, errors.New("empty key")
	}

	switch b[0] {
	case intKeyPrefix:
		if len(b) != 9 {
			return Key{}, fmt.Errorf("int key has %d bytes, want 9", len(b))
		}

		return IntKey(int64(binary.BigEndian.Uint64(b[1:]) ^ (1 << 63))), nil
	case stringKeyPrefix:
		return StringKey(string(b[1:])), nil
	}

	return Key{}, fmt.Errorf("unknown key prefix %q", b[0])
}

// ParseKey parses the textual form of a key of the given kind.
func ParseKey(kind KeyKind, s string) (Key, error) {
	switch kind {
	case KeyInt:
		v, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return Key{}, fmt.Errorf("%w: %q is not an int key", ErrKeyKind, s)
		}

		return IntKey(v), nil
	case KeyString:
		return StringKey(s), nil
	}

	return Key{}, fmt.Errorf("%w: %s", ErrKeyKind, kind)
}
