// Package host binds access cycles to stored tag trees. A host object is a
// tree identified by an id inside a Store.
package host

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/Sokol111/tagdata/pkg/tag"
)

var (
	// ErrVersionConflict is returned when a tree changed since it was loaded.
	ErrVersionConflict = errors.New("version conflict")

	ErrInvalidID = errors.New("invalid host id")
)

// Snapshot is a stored tree together with its version. Version 0 means the
// tree has never been saved.
type Snapshot struct {
	Root    *tag.Compound
	Version int64
}

// Store persists trees by id with optimistic versioning.
type Store interface {
	// Load returns a snapshot the caller owns, or false when id was never saved.
	Load(ctx context.Context, id string) (Snapshot, bool, error)
	// Save stores snap.Root if the stored version still equals snap.Version
	// and returns the new version.
	Save(ctx context.Context, id string, snap Snapshot) (int64, error)
}

// Object is a single host tree. It remembers the version of its last load so
// concurrent writers are detected on save.
type Object struct {
	store Store
	id    string

	mu      sync.Mutex
	version int64
}

func NewObject(store Store, id string) (*Object, error) {
	if store == nil {
		return nil, fmt.Errorf("store is required")
	}
	if id == "" {
		return nil, fmt.Errorf("%w: empty id", ErrInvalidID)
	}
	return &Object{store: store, id: id}, nil
}

func (o *Object) ID() string { return o.id }

// Version is the version observed by the last Load or Save.
func (o *Object) Version() int64 {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.version
}

func (o *Object) Load(ctx context.Context) (*tag.Compound, error) {
	snap, ok, err := o.store.Load(ctx, o.id)
	if err != nil {
		return nil, fmt.Errorf("failed to load host %q: %w", o.id, err)
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	if !ok {
		o.version = 0
		return tag.NewCompound(), nil
	}
	o.version = snap.Version
	return snap.Root, nil
}

func (o *Object) Save(ctx context.Context, root *tag.Compound) error {
	o.mu.Lock()
	expected := o.version
	o.mu.Unlock()

	version, err := o.store.Save(ctx, o.id, Snapshot{Root: root, Version: expected})
	if err != nil {
		return fmt.Errorf("failed to save host %q: %w", o.id, err)
	}

	o.mu.Lock()
	o.version = version
	o.mu.Unlock()
	return nil
}

// Codec turns a whole tree into bytes and back.
type Codec interface {
	Name() string
	Encode(root *tag.Compound) ([]byte, error)
	Decode(data []byte) (*tag.Compound, error)
}
