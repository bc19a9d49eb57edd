package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/inovacc/objrepo/internal/schema"
)

const (
	NoteSchema     = "note"
	BookmarkSchema = "bookmark"
)

func init() {
	schema.MustRegister(schema.Schema{Name: NoteSchema, Key: schema.KeyInt, New: func() schema.Record { return &Note{} }})
	schema.MustRegister(schema.Schema{Name: BookmarkSchema, Key: schema.KeyString, New: func() schema.Record { return &Bookmark{} }})
	schema.MustRegister(schema.Schema{Name: WorkspaceSchema, Key: schema.KeyString, New: func() schema.Record { return &Workspace{} }})
}

// Note is a short text record keyed by number.
type Note struct {
	// ID is the primary key
	ID int64 `json:"id"`

	Title string   `json:"title"`
	Body  string   `json:"body,omitempty"`
	Tags  []string `json:"tags,omitempty"`

	// Workspace is the name of the workspace the note belongs to, if any
	Workspace string `json:"workspace,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (*Note) SchemaName() string { return NoteSchema }

func (n *Note) PrimaryKey() schema.Key { return schema.IntKey(n.ID) }

// HasTag reports whether the note carries tag.
func (n *Note) HasTag(tag string) bool {
	for _, t := range n.Tags {
		if t == tag {
			return true
		}
	}

	return false
}

// Bookmark is a saved URL keyed by a UUID string.
type Bookmark struct {
	// ID is the primary key, a UUID assigned by EnsureKey
	ID string `json:"id"`

	// URL is the bookmarked address
	URL string `json:"url"`

	Title string `json:"title,omitempty"`

	// Favorite indicates if the bookmark is pinned
	Favorite bool `json:"favorite"`

	CreatedAt time.Time `json:"created_at"`
}

func (*Bookmark) SchemaName() string { return BookmarkSchema }

func (b *Bookmark) PrimaryKey() schema.Key { return schema.StringKey(b.ID) }

// EnsureKey assigns a new UUID when the bookmark has none and stamps the
// creation time.
func (b *Bookmark) EnsureKey() {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}

	if b.CreatedAt.IsZero() {
		b.CreatedAt = time.Now().UTC()
	}
}
