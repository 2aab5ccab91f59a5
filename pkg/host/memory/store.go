// Package memory is an in-process host.Store that keeps every tree encoded,
// so each Load decodes a fresh copy the caller owns.
package memory

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/Sokol111/tagdata/pkg/host"
	"github.com/Sokol111/tagdata/pkg/tag"
	"github.com/Sokol111/tagdata/pkg/tag/tagavro"
	"github.com/Sokol111/tagdata/pkg/tag/tagbson"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

type record struct {
	data    []byte
	version int64
}

type storeOptions struct {
	codec host.Codec
	log   *zap.Logger
}

// Option configures a Store.
type Option func(*storeOptions)

func WithCodec(c host.Codec) Option {
	return func(o *storeOptions) {
		o.codec = c
	}
}

func WithLogger(log *zap.Logger) Option {
	return func(o *storeOptions) {
		o.log = log
	}
}

type Store struct {
	mu      sync.RWMutex
	records map[string]record
	codec   host.Codec
	log     *zap.Logger
}

// NewStore returns an empty store. Trees are Avro-encoded unless WithCodec is given.
func NewStore(opts ...Option) *Store {
	o := &storeOptions{codec: tagavro.Codec{}, log: zap.NewNop()}
	for _, opt := range opts {
		opt(o)
	}
	return &Store{
		records: make(map[string]record),
		codec:   o.codec,
		log:     o.log,
	}
}

// CodecFor resolves a codec by name: "avro" or "bson".
func CodecFor(name string) (host.Codec, error) {
	switch name {
	case "", "avro":
		return tagavro.Codec{}, nil
	case "bson":
		return tagbson.Codec{}, nil
	default:
		return nil, fmt.Errorf("unknown codec %q", name)
	}
}

func (s *Store) Load(_ context.Context, id string) (host.Snapshot, bool, error) {
	s.mu.RLock()
	rec, ok := s.records[id]
	s.mu.RUnlock()

	if !ok {
		return host.Snapshot{}, false, nil
	}
	root, err := s.codec.Decode(rec.data)
	if err != nil {
		return host.Snapshot{}, false, fmt.Errorf("failed to decode %q with %s: %w", id, s.codec.Name(), err)
	}
	return host.Snapshot{Root: root, Version: rec.version}, true, nil
}

func (s *Store) Save(_ context.Context, id string, snap host.Snapshot) (int64, error) {
	if snap.Root == nil {
		snap.Root = tag.NewCompound()
	}
	data, err := s.codec.Encode(snap.Root)
	if err != nil {
		return 0, fmt.Errorf("failed to encode %q with %s: %w", id, s.codec.Name(), err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	current := s.records[id].version
	if current != snap.Version {
		return 0, fmt.Errorf("%w: %q is at version %d, expected %d", host.ErrVersionConflict, id, current, snap.Version)
	}
	next := current + 1
	s.records[id] = record{data: data, version: next}
	s.log.Debug("stored tree", zap.String("id", id), zap.Int64("version", next), zap.Int("bytes", len(data)))
	return next, nil
}

func (s *Store) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	delete(s.records, id)
	s.mu.Unlock()
	return nil
}

// IDs lists stored ids in sorted order.
func (s *Store) IDs() []string {
	s.mu.RLock()
	ids := lo.Keys(s.records)
	s.mu.RUnlock()
	slices.Sort(ids)
	return ids
}
