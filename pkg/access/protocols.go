package access

import (
	"context"
	"fmt"

	"github.com/Sokol111/tagdata/pkg/compound"
	"github.com/Sokol111/tagdata/pkg/link"
	"github.com/Sokol111/tagdata/pkg/serializer"
	"github.com/Sokol111/tagdata/pkg/spec"
	"github.com/Sokol111/tagdata/pkg/tag"
)

type customOptions[T any] struct {
	serializer serializer.TypeSerializer[T]
}

// CustomOption adjusts a custom serialization cycle.
type CustomOption[T any] func(*customOptions[T])

// WithSerializer uses ts instead of the registered serializer for T.
func WithSerializer[T any](ts serializer.TypeSerializer[T]) CustomOption[T] {
	return func(o *customOptions[T]) {
		o.serializer = ts
	}
}

type customStep[T any] struct {
	region  string
	ts      serializer.TypeSerializer[T]
	factory func() T
	fn      func(*T) error
	value   T
}

func (s *customStep[T]) acquire(root *tag.Compound) error {
	if !root.Has(s.region) {
		s.value = s.factory()
		return nil
	}
	v, err := s.ts.Read(s.region, root)
	if err != nil {
		return fmt.Errorf("failed to read region %q: %w", s.region, err)
	}
	s.value = v
	return nil
}

func (s *customStep[T]) compute() error { return s.fn(&s.value) }

func (s *customStep[T]) commit(root *tag.Compound) error {
	written, err := serializer.Capture(s.region, func(scratch *tag.Compound) error {
		return s.ts.Write(s.region, scratch, s.value)
	})
	if err != nil {
		return fmt.Errorf("failed to write region %q: %w", s.region, err)
	}
	root.Put(s.region, written)
	return nil
}

// UseCustom runs a custom serialization cycle: the value stored under region
// is read with T's serializer (or factory() when absent), passed to fn and
// written back with the same serializer.
func UseCustom[T any](ctx context.Context, c *Client, h Host, region string, factory func() T, fn func(*T) error, opts ...CustomOption[T]) error {
	o := &customOptions[T]{}
	for _, opt := range opts {
		opt(o)
	}
	ts := o.serializer
	if ts == nil {
		var err error
		if ts, err = serializer.Lookup[T](c.reg); err != nil {
			return err
		}
	}
	if factory == nil {
		factory = func() T {
			var zero T
			return zero
		}
	}
	return c.run(ctx, h, ModeCustom, region, &customStep[T]{region: region, ts: ts, factory: factory, fn: fn})
}

// UseData is UseCustom for values that name their own region.
func UseData[T CustomData](ctx context.Context, c *Client, h Host, factory func() T, fn func(*T) error, opts ...CustomOption[T]) error {
	if factory == nil {
		return fmt.Errorf("factory is required to resolve the data category")
	}
	return UseCustom(ctx, c, h, factory().Category(), factory, fn, opts...)
}

type specStep struct {
	client *Client
	region string
	spec   *spec.Specification
	fn     func(*compound.View) error
	view   *compound.View
}

func (s *specStep) acquire(root *tag.Compound) error {
	region, err := acquireRegion(root, s.region)
	if err != nil {
		return err
	}
	if err := s.spec.Validate(region, s.client.validateOptions()...); err != nil {
		return fmt.Errorf("region %q does not match specification %q: %w", s.region, s.spec.Name(), err)
	}
	s.view = compound.Specified(region, s.client.reg, s.spec)
	return nil
}

func (s *specStep) compute() error { return s.fn(s.view) }

func (s *specStep) commit(*tag.Compound) error {
	if err := s.spec.Validate(s.view.Compound(), s.client.validateOptions()...); err != nil {
		return fmt.Errorf("region %q no longer matches specification %q: %w", s.region, s.spec.Name(), err)
	}
	return nil
}

func (c *Client) validateOptions() []spec.ValidateOption {
	if c.cfg.AllowUndeclared {
		return []spec.ValidateOption{spec.AllowUndeclared()}
	}
	return nil
}

// UseSpecification runs a specification cycle: fn works on a view of region
// bound to s, and the mutated region is committed after it validates.
func (c *Client) UseSpecification(ctx context.Context, h Host, region string, s *spec.Specification, fn func(*compound.View) error) error {
	if s == nil {
		return fmt.Errorf("specification is required")
	}
	return c.run(ctx, h, ModeSpecification, region, &specStep{client: c, region: region, spec: s, fn: fn})
}

type linkedStep[T any] struct {
	region   string
	link     *link.Link
	instance T
	fn       func(*T) error
	target   *tag.Compound
}

func (s *linkedStep[T]) acquire(root *tag.Compound) error {
	region, err := acquireRegion(root, s.region)
	if err != nil {
		return err
	}
	if err := s.link.HydrateInto(region, &s.instance); err != nil {
		return fmt.Errorf("failed to hydrate region %q: %w", s.region, err)
	}
	s.target = region
	return nil
}

func (s *linkedStep[T]) compute() error { return s.fn(&s.instance) }

func (s *linkedStep[T]) commit(*tag.Compound) error {
	scratch := tag.NewCompound()
	if err := s.link.Dehydrate(&s.instance, scratch); err != nil {
		return fmt.Errorf("failed to dehydrate region %q: %w", s.region, err)
	}
	s.target.Clear()
	s.target.Merge(scratch)
	return nil
}

// UseLinked runs a linked cycle: region is hydrated into instance through l,
// fn mutates it, and the region is reset to exactly the linked fields.
// Keys absent from the region leave the corresponding members of instance as given.
func UseLinked[T any](ctx context.Context, c *Client, h Host, region string, l *link.Link, instance T, fn func(*T) error) error {
	if l == nil {
		return fmt.Errorf("link is required")
	}
	if l.Type() != serializer.TypeOf[T]() {
		return fmt.Errorf("%w: link targets %s, instance is %s", tag.ErrTypeMismatch, l.Type(), serializer.TypeOf[T]())
	}
	return c.run(ctx, h, ModeLinked, region, &linkedStep[T]{region: region, link: l, instance: instance, fn: fn})
}

// UseDerived is UseLinked with the specification and link derived from T and cached.
func UseDerived[T any](ctx context.Context, c *Client, h Host, region string, instance T, fn func(*T) error) error {
	_, l, err := link.For[T](c.links, c.specs)
	if err != nil {
		return err
	}
	return UseLinked(ctx, c, h, region, l, instance, fn)
}
