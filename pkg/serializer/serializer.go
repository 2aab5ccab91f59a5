// Package serializer converts between Go values and tags stored under a key
// of a compound, and keeps the registry that resolves a serializer by type.
package serializer

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/Sokol111/tagdata/pkg/tag"
)

var (
	// ErrNoSerializer is returned when no serializer is registered for a type.
	ErrNoSerializer = errors.New("no serializer registered")

	// ErrRegistryFrozen is returned by Register after Freeze.
	ErrRegistryFrozen = errors.New("serializer registry is frozen")

	ErrInvalidSerializer = errors.New("invalid serializer")
)

// TypeSerializer reads and writes values of T under a key of a compound.
// Write must replace whatever is stored under key.
type TypeSerializer[T any] interface {
	Read(key string, c *tag.Compound) (T, error)
	Write(key string, c *tag.Compound, v T) error
}

// Serializer is the type-erased form of TypeSerializer that the registry stores.
type Serializer interface {
	Type() reflect.Type
	ReadAny(key string, c *tag.Compound) (any, error)
	WriteAny(key string, c *tag.Compound, v any) error
}

// Capture runs write against an empty compound and returns the tag it stored
// under key. A writer that stores nothing under key, or anything under other
// keys, fails with ErrInvalidSerializer.
func Capture(key string, write func(c *tag.Compound) error) (tag.Tag, error) {
	scratch := tag.NewCompound()
	if err := write(scratch); err != nil {
		return nil, err
	}
	written, ok := scratch.Get(key)
	if !ok {
		return nil, fmt.Errorf("%w: wrote nothing under %q", ErrInvalidSerializer, key)
	}
	if scratch.Len() != 1 {
		return nil, fmt.Errorf("%w: wrote %v, want only %q", ErrInvalidSerializer, scratch.Keys(), key)
	}
	return written, nil
}

// TypeOf returns the reflect.Type for T, including interface types.
func TypeOf[T any]() reflect.Type {
	return reflect.TypeFor[T]()
}

type adapter[T any] struct {
	inner TypeSerializer[T]
	typ   reflect.Type
}

// Of erases the type of ts so it can be registered.
func Of[T any](ts TypeSerializer[T]) Serializer {
	return &adapter[T]{inner: ts, typ: TypeOf[T]()}
}

func (a *adapter[T]) Type() reflect.Type { return a.typ }

func (a *adapter[T]) ReadAny(key string, c *tag.Compound) (any, error) {
	return a.inner.Read(key, c)
}

func (a *adapter[T]) WriteAny(key string, c *tag.Compound, v any) error {
	typed, ok := v.(T)
	if !ok {
		if v != nil || a.typ.Kind() != reflect.Interface {
			return fmt.Errorf("%w: serializer for %s cannot write %T", tag.ErrTypeMismatch, a.typ, v)
		}
	}
	return a.inner.Write(key, c, typed)
}

// Typed recovers a TypeSerializer from an erased one.
func Typed[T any](s Serializer) (TypeSerializer[T], error) {
	if a, ok := s.(*adapter[T]); ok {
		return a.inner, nil
	}
	if s.Type() != TypeOf[T]() {
		return nil, fmt.Errorf("%w: serializer handles %s, not %s", tag.ErrTypeMismatch, s.Type(), TypeOf[T]())
	}
	return erased[T]{s}, nil
}

type erased[T any] struct{ s Serializer }

func (e erased[T]) Read(key string, c *tag.Compound) (T, error) {
	v, err := e.s.ReadAny(key, c)
	if err != nil {
		var zero T
		return zero, err
	}
	typed, _ := v.(T)
	return typed, nil
}

func (e erased[T]) Write(key string, c *tag.Compound, v T) error {
	return e.s.WriteAny(key, c, v)
}

type funcSerializer[T any] struct {
	read  func(key string, c *tag.Compound) (T, error)
	write func(key string, c *tag.Compound, v T) error
}

func (f funcSerializer[T]) Read(key string, c *tag.Compound) (T, error) { return f.read(key, c) }

func (f funcSerializer[T]) Write(key string, c *tag.Compound, v T) error {
	return f.write(key, c, v)
}

// Func builds a serializer from a pair of functions. Both are required.
func Func[T any](
	read func(key string, c *tag.Compound) (T, error),
	write func(key string, c *tag.Compound, v T) error,
) (Serializer, error) {
	if read == nil || write == nil {
		return nil, fmt.Errorf("%w: both read and write functions are required for %s", ErrInvalidSerializer, TypeOf[T]())
	}
	return Of[T](funcSerializer[T]{read: read, write: write}), nil
}

// MustFunc is like Func but panics on a missing function.
func MustFunc[T any](
	read func(key string, c *tag.Compound) (T, error),
	write func(key string, c *tag.Compound, v T) error,
) Serializer {
	s, err := Func(read, write)
	if err != nil {
		panic(err)
	}
	return s
}
