package access

import (
	"context"

	"github.com/Sokol111/tagdata/pkg/tag"
)

// Host is an object that owns a persistent tag tree.
//
// Load returns a snapshot the caller may mutate freely; nothing reaches the
// host until Save is called with the new root.
type Host interface {
	Load(ctx context.Context) (*tag.Compound, error)
	Save(ctx context.Context, root *tag.Compound) error
}

// CustomData is a value that names the region it is stored under.
type CustomData interface {
	Category() string
}
