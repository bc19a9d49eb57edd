// Package model defines the record types stored by objrepo.
//
// Each type implements [schema.Record] and registers itself in
// [schema.Default] when the package is imported, so both the typed helpers
// and name-based lookups can reach it.
//
// # Note
//
// [Note] is keyed by an int64 ID:
//
//	type Note struct {
//	    ID        int64     // Primary key
//	    Title     string
//	    Body      string
//	    Tags      []string
//	    Workspace string    // Owning workspace name
//	    CreatedAt time.Time
//	    UpdatedAt time.Time
//	}
//
// # Bookmark
//
// [Bookmark] is keyed by a UUID string assigned by [Bookmark.EnsureKey].
//
// # Workspace
//
// [Workspace] is keyed by its name.
package model
