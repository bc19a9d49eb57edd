package store

import (
	"errors"

	"github.com/inovacc/objrepo/internal/schema"
)

var (
	ErrClosed         = errors.New("store handle is closed")
	ErrNestedWrite    = errors.New("write scope already open on this handle")
	ErrTxDone         = errors.New("write scope has already finished")
	ErrStoreInUse     = errors.New("store is in use by another handle")
	ErrSchemaVersion  = errors.New("stored schema version is newer than configured")
	ErrWrongKey       = errors.New("encryption key does not match store")
	ErrReadOnly       = errors.New("store is opened read-only")
	ErrUnknownBackend = errors.New("unknown store backend")
	ErrInvalidConfig  = errors.New("invalid store configuration")

	ErrUnknownSchema = schema.ErrUnknownSchema
	ErrKeyKind       = schema.ErrKeyKind
)
