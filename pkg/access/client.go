// Package access runs read-modify-commit cycles against a host's tag tree
// using one of three protocols: custom serialization, specification
// serialization and linked specification serialization.
package access

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"time"

	"github.com/Sokol111/tagdata/pkg/core/logger"
	"github.com/Sokol111/tagdata/pkg/link"
	"github.com/Sokol111/tagdata/pkg/observability/tracing"
	"github.com/Sokol111/tagdata/pkg/serializer"
	"github.com/Sokol111/tagdata/pkg/spec"
	"github.com/Sokol111/tagdata/pkg/tag"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const instrumentationName = "github.com/Sokol111/tagdata/pkg/access"

type clientOptions struct {
	cfg            *Config
	log            *zap.Logger
	tracerProvider trace.TracerProvider
	meterProvider  metric.MeterProvider
	specs          *spec.Cache
	links          *link.Cache
}

// Option configures a Client.
type Option func(*clientOptions)

func WithConfig(cfg Config) Option {
	return func(o *clientOptions) {
		o.cfg = &cfg
	}
}

func WithLogger(log *zap.Logger) Option {
	return func(o *clientOptions) {
		o.log = log
	}
}

func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(o *clientOptions) {
		o.tracerProvider = tp
	}
}

func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(o *clientOptions) {
		o.meterProvider = mp
	}
}

// WithCaches shares specification and link caches between clients.
func WithCaches(specs *spec.Cache, links *link.Cache) Option {
	return func(o *clientOptions) {
		o.specs = specs
		o.links = links
	}
}

// Client owns the registry and caches every access cycle uses.
type Client struct {
	reg       *serializer.Registry
	specs     *spec.Cache
	links     *link.Cache
	cfg       Config
	log       *zap.Logger
	throttler *logger.LogThrottler
	tracer    trace.Tracer
	cycles    metric.Int64Counter
	duration  metric.Float64Histogram
}

func NewClient(reg *serializer.Registry, opts ...Option) (*Client, error) {
	if reg == nil {
		return nil, fmt.Errorf("serializer registry is required")
	}
	o := &clientOptions{
		log:            zap.NewNop(),
		tracerProvider: otel.GetTracerProvider(),
		meterProvider:  otel.GetMeterProvider(),
	}
	for _, opt := range opts {
		opt(o)
	}

	cfg := Config{}
	if o.cfg != nil {
		cfg = *o.cfg
	}
	applyDefaults(&cfg)

	if o.specs == nil {
		o.specs = spec.NewCache(reg)
	}
	if o.links == nil {
		o.links = link.NewCache()
	}

	meter := o.meterProvider.Meter(instrumentationName)
	cycles, err := meter.Int64Counter("tagdata.access.cycles",
		metric.WithDescription("Access cycles by protocol and outcome"))
	if err != nil {
		return nil, fmt.Errorf("failed to create cycle counter: %w", err)
	}
	duration, err := meter.Float64Histogram("tagdata.access.duration",
		metric.WithDescription("Access cycle duration"),
		metric.WithUnit("ms"))
	if err != nil {
		return nil, fmt.Errorf("failed to create duration histogram: %w", err)
	}

	return &Client{
		reg:       reg,
		specs:     o.specs,
		links:     o.links,
		cfg:       cfg,
		log:       o.log,
		throttler: logger.NewLogThrottler(o.log, cfg.AbortLogInterval),
		tracer:    o.tracerProvider.Tracer(instrumentationName),
		cycles:    cycles,
		duration:  duration,
	}, nil
}

func (c *Client) Registry() *serializer.Registry { return c.reg }
func (c *Client) Specifications() *spec.Cache    { return c.specs }
func (c *Client) Links() *link.Cache             { return c.links }

// Warm derives specifications and links for the given struct types
// concurrently so the first access cycles skip reflection.
func (c *Client) Warm(ctx context.Context, types ...reflect.Type) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, t := range types {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			s, err := c.specs.Get(t)
			if err != nil {
				return fmt.Errorf("failed to derive specification for %s: %w", t, err)
			}
			if _, err := c.links.Get(s, t); err != nil {
				return fmt.Errorf("failed to link %s: %w", t, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	c.log.Debug("access caches warmed", zap.Int("types", len(types)))
	return nil
}

// step is the protocol-specific part of a cycle.
type step interface {
	// acquire produces the working value from the region holder.
	acquire(root *tag.Compound) error
	compute() error
	commit(root *tag.Compound) error
}

// run drives one cycle: load the host tree, acquire the region, run the
// computation, commit into the tree and save it. Any failure aborts before
// Save so the host never sees a partial write. Computation errors are
// returned as is.
func (c *Client) run(ctx context.Context, h Host, mode Mode, region string, s step) (err error) {
	start := time.Now()
	ctx, span := c.tracer.Start(ctx, "tagdata.access", trace.WithAttributes(
		attribute.String("tagdata.mode", mode.String()),
		attribute.String("tagdata.region", region),
	))
	state := StateIdle

	defer func() {
		outcome := StateAborted
		fields := append([]zap.Field{
			zap.String("mode", mode.String()),
			zap.String("region", region),
			zap.Stringer("state", state),
		}, tracing.TraceFields(ctx)...)
		switch {
		case err != nil:
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			c.throttler.Warn(mode.String()+"/"+region, "access cycle aborted", append(fields, zap.Error(err))...)
		case state != StateCommitted:
			// a panic is unwinding through the cycle; it keeps propagating
			span.SetStatus(codes.Error, "access cycle interrupted")
			c.throttler.Warn(mode.String()+"/"+region, "access cycle interrupted", fields...)
		default:
			outcome = StateCommitted
		}
		attrs := metric.WithAttributes(
			attribute.String("mode", mode.String()),
			attribute.String("outcome", outcome.String()),
		)
		c.cycles.Add(ctx, 1, attrs)
		c.duration.Record(ctx, float64(time.Since(start).Microseconds())/1000, attrs)
		span.End()
	}()

	if region == "" {
		return fmt.Errorf("%w: region name is empty", ErrInvalidRegion)
	}
	if h == nil {
		return fmt.Errorf("host is required")
	}

	root, err := h.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load host tree: %w", err)
	}
	if err := s.acquire(root); err != nil {
		return err
	}
	state = StateRegionAcquired
	span.AddEvent(state.String())

	state = StateComputationRunning
	if err := s.compute(); err != nil {
		return err
	}

	if err := s.commit(root); err != nil {
		return err
	}
	if err := h.Save(ctx, root); err != nil {
		return fmt.Errorf("failed to save host tree: %w", err)
	}
	state = StateCommitted
	span.AddEvent(state.String())
	c.log.Debug("access cycle committed", zap.String("mode", mode.String()), zap.String("region", region))
	return nil
}

// ErrInvalidRegion is returned for empty region names.
var ErrInvalidRegion = errors.New("invalid region")

func acquireRegion(root *tag.Compound, region string) (*tag.Compound, error) {
	c, err := root.GetOrCreateChild(region)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire region %q: %w", region, err)
	}
	return c, nil
}
