package serializer

import (
	"fmt"
	"reflect"
	"sync"

	"go.uber.org/zap"
)

type registryOptions struct {
	log      *zap.Logger
	builtins bool
}

// Option configures a Registry.
type Option func(*registryOptions)

func WithLogger(log *zap.Logger) Option {
	return func(o *registryOptions) {
		o.log = log
	}
}

// WithoutBuiltins skips registration of the primitive and array serializers.
func WithoutBuiltins() Option {
	return func(o *registryOptions) {
		o.builtins = false
	}
}

// Registry maps Go types to serializers. Registration is last-write-wins and
// lookups are safe for concurrent use.
type Registry struct {
	mu          sync.RWMutex
	serializers map[reflect.Type]Serializer
	frozen      bool
	log         *zap.Logger
}

func NewRegistry(opts ...Option) *Registry {
	o := &registryOptions{log: zap.NewNop(), builtins: true}
	for _, opt := range opts {
		opt(o)
	}

	r := &Registry{
		serializers: make(map[reflect.Type]Serializer),
		log:         o.log,
	}
	if o.builtins {
		for _, s := range builtins() {
			r.serializers[s.Type()] = s
		}
	}
	return r
}

// Register installs s for s.Type(), replacing any previous serializer.
func (r *Registry) Register(s Serializer) error {
	if s == nil || s.Type() == nil {
		return fmt.Errorf("%w: nil serializer", ErrInvalidSerializer)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.frozen {
		return fmt.Errorf("%w: cannot register %s", ErrRegistryFrozen, s.Type())
	}
	if _, exists := r.serializers[s.Type()]; exists {
		r.log.Debug("replacing serializer", zap.Stringer("type", s.Type()))
	}
	r.serializers[s.Type()] = s
	return nil
}

// Lookup returns the serializer registered for t. A nil registry has no
// serializers.
func (r *Registry) Lookup(t reflect.Type) (Serializer, error) {
	if r == nil {
		return nil, fmt.Errorf("%w for type %s", ErrNoSerializer, t)
	}
	r.mu.RLock()
	s, ok := r.serializers[t]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w for type %s", ErrNoSerializer, t)
	}
	return s, nil
}

func (r *Registry) Has(t reflect.Type) bool {
	if r == nil {
		return false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.serializers[t]
	return ok
}

// Freeze ends the registration phase. Lookups keep working.
func (r *Registry) Freeze() {
	r.mu.Lock()
	r.frozen = true
	r.mu.Unlock()
}

func (r *Registry) Frozen() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.frozen
}

// Register installs a typed serializer into r.
func Register[T any](r *Registry, ts TypeSerializer[T]) error {
	if ts == nil {
		return fmt.Errorf("%w: nil serializer for %s", ErrInvalidSerializer, TypeOf[T]())
	}
	return r.Register(Of(ts))
}

// Lookup resolves the serializer for T.
func Lookup[T any](r *Registry) (TypeSerializer[T], error) {
	s, err := r.Lookup(TypeOf[T]())
	if err != nil {
		return nil, err
	}
	return Typed[T](s)
}
