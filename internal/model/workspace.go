package model

import (
	"time"

	"github.com/inovacc/objrepo/internal/schema"
)

const WorkspaceSchema = "workspace"

// Workspace represents a logical grouping of notes
type Workspace struct {
	// Name is the unique identifier for this workspace (e.g., "personal", "work")
	Name string `json:"name"`

	// Description is an optional description of the workspace
	Description string `json:"description,omitempty"`

	// Active indicates if this is the currently active workspace
	Active bool `json:"active"`

	// CreatedAt is when the workspace was created
	CreatedAt time.Time `json:"created_at"`

	// UpdatedAt is when the workspace was last updated
	UpdatedAt time.Time `json:"updated_at"`
}

func (*Workspace) SchemaName() string { return WorkspaceSchema }

func (w *Workspace) PrimaryKey() schema.Key { return schema.StringKey(w.Name) }

// DefaultWorkspaceName returns the name of the default workspace
func DefaultWorkspaceName() string {
	return "default"
}
