// Package store defines the capability surface of an embedded object store
// and the registry of drivers implementing it.
//
// A [Driver] opens [Handle] values for one backend. Drivers register
// themselves by name from their package init:
//
//	import _ "github.com/inovacc/objrepo/internal/store/bolt"
//
//	h, err := store.OpenAt("/tmp/data.objrepo")
//
// # Write scopes
//
// Every mutation runs inside [Handle.RunAtomic]. The callback receives a
// [Tx] and its changes are committed only when it returns nil; an error or a
// panic rolls the scope back. Scopes never nest.
//
// # Lazy views
//
// [Handle.AllOf] returns [Results], a query description that is evaluated
// each time it is iterated. Inside a write scope, views are evaluated through
// the scope's transaction so they observe its uncommitted changes.
//
// # Bookkeeping
//
// Drivers keep a small meta area next to the records holding the key
// derivation salt, an encryption check value, the schema version and a
// commit counter. [PrepareCodec], [PrepareSchema] and [BumpCommit] implement
// the shared rules over it.
package store
