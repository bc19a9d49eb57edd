// Package schema holds the typed registry of record types.
//
// Every persisted type implements [Record] and is described by a [Schema]
// carrying its name, the kind of its primary key, a factory and a [Codec].
// Schemas are added to a [Registry]; drivers resolve a schema name to its
// description through [Registry.Lookup] instead of inspecting values at
// runtime:
//
//	schema.MustRegister(schema.Schema{
//	    Name: "note",
//	    Key:  schema.KeyInt,
//	    New:  func() schema.Record { return &Note{} },
//	})
//
// # Keys
//
// A [Key] is either numeric ([IntKey]) or textual ([StringKey]). The encoded
// form returned by [Key.Bytes] sorts in the same order as the key values.
package schema
