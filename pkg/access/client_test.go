package access

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/Sokol111/tagdata/pkg/compound"
	"github.com/Sokol111/tagdata/pkg/host"
	"github.com/Sokol111/tagdata/pkg/host/memory"
	"github.com/Sokol111/tagdata/pkg/link"
	"github.com/Sokol111/tagdata/pkg/serializer"
	"github.com/Sokol111/tagdata/pkg/spec"
	"github.com/Sokol111/tagdata/pkg/tag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type point struct{ X, Y int32 }

type counter struct {
	Count int
	Tag   string
}

type badge struct {
	Level int32
}

func (badge) Category() string { return "Badge" }

func pointSerializer() serializer.Serializer {
	return serializer.MustFunc(
		func(k string, c *tag.Compound) (point, error) {
			child, err := c.Child(k)
			if err != nil {
				return point{}, err
			}
			x, err := child.GetInt("x")
			if err != nil {
				return point{}, err
			}
			y, err := child.GetInt("y")
			return point{X: x, Y: y}, err
		},
		func(k string, c *tag.Compound, v point) error {
			child := tag.NewCompound()
			child.Put("x", tag.Int(v.X))
			child.Put("y", tag.Int(v.Y))
			c.Put(k, child)
			return nil
		},
	)
}

func badgeSerializer() serializer.Serializer {
	return serializer.MustFunc(
		func(k string, c *tag.Compound) (badge, error) {
			lvl, err := c.GetInt(k)
			return badge{Level: lvl}, err
		},
		func(k string, c *tag.Compound, v badge) error {
			c.Put(k, tag.Int(v.Level))
			return nil
		},
	)
}

type fixture struct {
	client *Client
	store  *memory.Store
	logs   *observer.ObservedLogs
	spans  *tracetest.SpanRecorder
	reader *sdkmetric.ManualReader
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	reg := serializer.NewRegistry()
	require.NoError(t, reg.Register(pointSerializer()))
	require.NoError(t, reg.Register(badgeSerializer()))

	core, logs := observer.New(zapcore.DebugLevel)
	spans := tracetest.NewSpanRecorder()
	reader := sdkmetric.NewManualReader()

	opts = append([]Option{
		WithLogger(zap.New(core)),
		WithTracerProvider(sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(spans))),
		WithMeterProvider(sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))),
	}, opts...)
	client, err := NewClient(reg, opts...)
	require.NoError(t, err)

	return &fixture{client: client, store: memory.NewStore(), logs: logs, spans: spans, reader: reader}
}

func (f *fixture) object(t *testing.T, id string) *host.Object {
	t.Helper()
	obj, err := host.NewObject(f.store, id)
	require.NoError(t, err)
	return obj
}

func (f *fixture) storedRoot(t *testing.T, id string) *tag.Compound {
	t.Helper()
	snap, ok, err := f.store.Load(context.Background(), id)
	require.NoError(t, err)
	require.True(t, ok)
	return snap.Root
}

func TestUseCustom_PointScenario(t *testing.T) {
	// Given: a registry with a point serializer and a fresh host
	f := newFixture(t)
	ctx := context.Background()

	// When: writing a point through a custom cycle
	err := UseCustom(ctx, f.client, f.object(t, "item"), "Point",
		func() point { return point{} },
		func(p *point) error {
			p.X, p.Y = 3, 4
			return nil
		})
	require.NoError(t, err)

	// Then: reopening reads back the same point
	var got point
	err = UseCustom(ctx, f.client, f.object(t, "item"), "Point",
		func() point { return point{X: -1, Y: -1} },
		func(p *point) error {
			got = *p
			return nil
		})
	require.NoError(t, err)
	assert.Equal(t, point{X: 3, Y: 4}, got)
}

func TestUseCustom_FactoryForAbsentRegion(t *testing.T) {
	f := newFixture(t)
	var seen point

	err := UseCustom(context.Background(), f.client, f.object(t, "item"), "Point",
		func() point { return point{X: 7} },
		func(p *point) error {
			seen = *p
			return nil
		})

	require.NoError(t, err)
	assert.Equal(t, point{X: 7}, seen)
}

func TestUseCustom_NoSerializer(t *testing.T) {
	f := newFixture(t)

	err := UseCustom(context.Background(), f.client, f.object(t, "item"), "Counter",
		func() counter { return counter{} },
		func(*counter) error { return nil })

	assert.ErrorIs(t, err, serializer.ErrNoSerializer)
	assert.Empty(t, f.store.IDs())
}

func TestUseCustom_WithSerializerOverride(t *testing.T) {
	// Given: a per-call serializer that stores a point as an int array
	f := newFixture(t)
	ts := serializer.TypeSerializer[point](arrayPoint{})

	// When: running the cycle with the override
	err := UseCustom(context.Background(), f.client, f.object(t, "item"), "Point",
		func() point { return point{} },
		func(p *point) error {
			p.X, p.Y = 1, 2
			return nil
		},
		WithSerializer(ts))
	require.NoError(t, err)

	// Then: the stored shape is the override's
	arr, err := f.storedRoot(t, "item").GetIntArray("Point")
	require.NoError(t, err)
	assert.Equal(t, []int32{1, 2}, arr)
}

type arrayPoint struct{}

func (arrayPoint) Read(k string, c *tag.Compound) (point, error) {
	arr, err := c.GetIntArray(k)
	if err != nil {
		return point{}, err
	}
	return point{X: arr[0], Y: arr[1]}, nil
}

func (arrayPoint) Write(k string, c *tag.Compound, v point) error {
	c.Put(k, tag.IntArray{v.X, v.Y})
	return nil
}

func TestUseData_UsesCategory(t *testing.T) {
	f := newFixture(t)

	err := UseData(context.Background(), f.client, f.object(t, "item"),
		func() badge { return badge{} },
		func(b *badge) error {
			b.Level = 9
			return nil
		})
	require.NoError(t, err)

	lvl, err := f.storedRoot(t, "item").GetInt("Badge")
	require.NoError(t, err)
	assert.Equal(t, int32(9), lvl)
}

func TestUseSpecification_HeroScenario(t *testing.T) {
	// Given: a specification with health and name
	f := newFixture(t)
	ctx := context.Background()
	s := spec.NewBuilder("Player").Int("health").String("name").MustBuild()

	// When: setting both fields in a fresh region
	err := f.client.UseSpecification(ctx, f.object(t, "item"), "Player", s, func(v *compound.View) error {
		if err := compound.Put(v, "health", int32(20)); err != nil {
			return err
		}
		return compound.Put(v, "name", "hero")
	})
	require.NoError(t, err)

	// Then: reopening shows exactly those two keys
	err = f.client.UseSpecification(ctx, f.object(t, "item"), "Player", s, func(v *compound.View) error {
		assert.Equal(t, []string{"health", "name"}, v.Keys())
		health, err := compound.Get[int32](v, "health")
		require.NoError(t, err)
		name, err := compound.Get[string](v, "name")
		require.NoError(t, err)
		assert.Equal(t, int32(20), health)
		assert.Equal(t, "hero", name)
		return nil
	})
	require.NoError(t, err)
}

func TestUseSpecification_RejectsUndeclaredRegionContent(t *testing.T) {
	// Given: a stored region holding a key the specification does not declare
	f := newFixture(t)
	ctx := context.Background()
	root := tag.NewCompound()
	region, _ := root.GetOrCreateChild("Player")
	region.Put("mana", tag.Int(1))
	_, err := f.store.Save(ctx, "item", host.Snapshot{Root: root})
	require.NoError(t, err)
	s := spec.NewBuilder("Player").Int("health").MustBuild()
	called := false

	// When: running a specification cycle
	err = f.client.UseSpecification(ctx, f.object(t, "item"), "Player", s, func(*compound.View) error {
		called = true
		return nil
	})

	// Then: acquisition fails before the computation
	assert.ErrorIs(t, err, spec.ErrUndeclaredField)
	assert.False(t, called)
}

func TestUseSpecification_AllowUndeclared(t *testing.T) {
	f := newFixture(t, WithConfig(Config{AllowUndeclared: true}))
	ctx := context.Background()
	root := tag.NewCompound()
	region, _ := root.GetOrCreateChild("Player")
	region.Put("mana", tag.Int(1))
	_, err := f.store.Save(ctx, "item", host.Snapshot{Root: root})
	require.NoError(t, err)
	s := spec.NewBuilder("Player").Int("health").MustBuild()

	err = f.client.UseSpecification(ctx, f.object(t, "item"), "Player", s, func(v *compound.View) error {
		return compound.Put(v, "health", int32(5))
	})

	require.NoError(t, err)
	stored, err := f.storedRoot(t, "item").Child("Player")
	require.NoError(t, err)
	assert.Equal(t, []string{"health", "mana"}, stored.Keys())
}

func TestUseSpecification_RegionHoldsScalar(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	root := tag.NewCompound()
	root.Put("Player", tag.Int(1))
	_, err := f.store.Save(ctx, "item", host.Snapshot{Root: root})
	require.NoError(t, err)

	err = f.client.UseSpecification(ctx, f.object(t, "item"), "Player",
		spec.NewBuilder("Player").MustBuild(), func(*compound.View) error { return nil })

	assert.ErrorIs(t, err, tag.ErrTypeMismatch)
}

func TestUseDerived_CounterScenario(t *testing.T) {
	// Given: a counter instance with values set
	f := newFixture(t)
	ctx := context.Background()

	// When: committing it through a derived linked cycle
	err := UseDerived(ctx, f.client, f.object(t, "item"), "Counter", counter{Count: 5, Tag: "a"},
		func(*counter) error { return nil })
	require.NoError(t, err)

	// Then: reopening through a specification cycle sees exactly those values
	s, err := spec.For[counter](f.client.Specifications())
	require.NoError(t, err)
	err = f.client.UseSpecification(ctx, f.object(t, "item"), "Counter", s, func(v *compound.View) error {
		expected := tag.NewCompound()
		expected.Put("count", tag.Long(5))
		expected.Put("tag", tag.String("a"))
		assert.True(t, expected.Equal(v.Compound()), "got %s", v.Compound())
		return nil
	})
	require.NoError(t, err)
}

func TestUseLinked_HydratesAndResetsRegion(t *testing.T) {
	// Given: a stored region with one linked key and a stale extra key
	f := newFixture(t)
	ctx := context.Background()
	root := tag.NewCompound()
	region, _ := root.GetOrCreateChild("Counter")
	region.Put("count", tag.Long(2))
	region.Put("stale", tag.Int(1))
	_, err := f.store.Save(ctx, "item", host.Snapshot{Root: root})
	require.NoError(t, err)
	s := spec.NewBuilder("Counter").Long("count").String("tag").MustBuild()
	l, err := link.CreateFor[counter](s)
	require.NoError(t, err)

	// When: incrementing through a linked cycle
	var hydrated counter
	err = UseLinked(ctx, f.client, f.object(t, "item"), "Counter", l, counter{Tag: "preset"}, func(c *counter) error {
		hydrated = *c
		c.Count++
		return nil
	})
	require.NoError(t, err)

	// Then: the stored count was hydrated, the absent key kept the preset and the region holds only linked keys
	assert.Equal(t, counter{Count: 2, Tag: "preset"}, hydrated)
	stored, err := f.storedRoot(t, "item").Child("Counter")
	require.NoError(t, err)
	assert.Equal(t, []string{"count", "tag"}, stored.Keys())
	count, err := stored.GetLong("count")
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
}

func TestUseLinked_TypeMismatch(t *testing.T) {
	f := newFixture(t)
	l, err := link.CreateFor[counter](spec.NewBuilder("Counter").Long("count").MustBuild())
	require.NoError(t, err)

	err = UseLinked(context.Background(), f.client, f.object(t, "item"), "Counter", l, point{}, func(*point) error { return nil })

	assert.ErrorIs(t, err, tag.ErrTypeMismatch)
}

func TestComputationFailureAbortsWithoutCommit(t *testing.T) {
	boom := errors.New("computation failed")
	s := spec.NewBuilder("Player").Int("health").MustBuild()

	tests := []struct {
		name string
		run  func(f *fixture, h Host) error
	}{
		{
			name: "custom",
			run: func(f *fixture, h Host) error {
				return UseCustom(context.Background(), f.client, h, "Point",
					func() point { return point{} },
					func(p *point) error {
						p.X = 99
						return boom
					})
			},
		},
		{
			name: "specification",
			run: func(f *fixture, h Host) error {
				return f.client.UseSpecification(context.Background(), h, "Player", s, func(v *compound.View) error {
					_ = compound.Put(v, "health", int32(1))
					return boom
				})
			},
		},
		{
			name: "linked",
			run: func(f *fixture, h Host) error {
				return UseDerived(context.Background(), f.client, h, "Counter", counter{}, func(c *counter) error {
					c.Count = 10
					return boom
				})
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Given: a fresh host
			f := newFixture(t)

			// When: the computation fails after mutating its working value
			err := tt.run(f, f.object(t, "item"))

			// Then: the same error is returned and nothing was saved
			assert.Same(t, boom, err)
			assert.Empty(t, f.store.IDs())
			aborted := f.logs.FilterMessage("access cycle aborted").All()
			require.Len(t, aborted, 1)
			assert.Equal(t, zapcore.WarnLevel, aborted[0].Level)
			assert.Equal(t, "computation-running", aborted[0].ContextMap()["state"])
			assert.Contains(t, aborted[0].ContextMap(), "trace_id")
		})
	}
}

func TestSpecificationViolationAtCommitAborts(t *testing.T) {
	// Given: a computation that writes a raw compound behind the view's back
	f := newFixture(t)
	s := spec.NewBuilder("Player").Int("health").MustBuild()

	// When: running the cycle
	err := f.client.UseSpecification(context.Background(), f.object(t, "item"), "Player", s, func(v *compound.View) error {
		v.Compound().Put("mana", tag.Int(1))
		return nil
	})

	// Then: the commit is refused
	assert.ErrorIs(t, err, spec.ErrUndeclaredField)
	assert.Empty(t, f.store.IDs())
}

func TestRun_InvalidRegion(t *testing.T) {
	f := newFixture(t)

	err := f.client.UseSpecification(context.Background(), f.object(t, "item"), "",
		spec.NewBuilder("s").MustBuild(), func(*compound.View) error { return nil })

	assert.ErrorIs(t, err, ErrInvalidRegion)
}

func TestRun_SaveConflictAborts(t *testing.T) {
	// Given: two objects loaded from the same stored tree
	f := newFixture(t)
	ctx := context.Background()
	s := spec.NewBuilder("Player").Int("health").MustBuild()
	first := f.object(t, "item")
	second := f.object(t, "item")

	// When: the second commits while the first is still computing
	err := f.client.UseSpecification(ctx, first, "Player", s, func(v *compound.View) error {
		inner := f.client.UseSpecification(ctx, second, "Player", s, func(v *compound.View) error {
			return compound.Put(v, "health", int32(2))
		})
		require.NoError(t, inner)
		return compound.Put(v, "health", int32(1))
	})

	// Then: the first commit loses with a version conflict
	assert.ErrorIs(t, err, host.ErrVersionConflict)
}

func TestRun_RecordsTelemetry(t *testing.T) {
	// Given: one committed and one aborted cycle
	f := newFixture(t)
	ctx := context.Background()
	s := spec.NewBuilder("Player").Int("health").MustBuild()
	require.NoError(t, f.client.UseSpecification(ctx, f.object(t, "item"), "Player", s,
		func(*compound.View) error { return nil }))
	_ = f.client.UseSpecification(ctx, f.object(t, "item"), "Player", s,
		func(*compound.View) error { return errors.New("no") })

	// Then: two spans were recorded
	ended := f.spans.Ended()
	require.Len(t, ended, 2)
	assert.Equal(t, "tagdata.access", ended[0].Name())

	// And: the cycle counter saw both outcomes
	var rm metricdata.ResourceMetrics
	require.NoError(t, f.reader.Collect(ctx, &rm))
	var total int64
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != "tagdata.access.cycles" {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			require.True(t, ok)
			assert.Len(t, sum.DataPoints, 2)
			for _, dp := range sum.DataPoints {
				total += dp.Value
			}
		}
	}
	assert.Equal(t, int64(2), total)
}

func TestRun_PanicIsRecordedAsAborted(t *testing.T) {
	// Given: a computation that panics
	f := newFixture(t)
	ctx := context.Background()

	// When: the cycle runs
	assert.PanicsWithValue(t, "boom", func() {
		_ = UseCustom(ctx, f.client, f.object(t, "item"), "Point",
			func() point { return point{} },
			func(*point) error { panic("boom") })
	})

	// Then: nothing was saved and telemetry reports an aborted cycle
	assert.Empty(t, f.store.IDs())
	ended := f.spans.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, codes.Error, ended[0].Status().Code)
	interrupted := f.logs.FilterMessage("access cycle interrupted").All()
	require.Len(t, interrupted, 1)
	assert.Equal(t, "computation-running", interrupted[0].ContextMap()["state"])

	var rm metricdata.ResourceMetrics
	require.NoError(t, f.reader.Collect(ctx, &rm))
	var outcomes []string
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != "tagdata.access.cycles" {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			require.True(t, ok)
			for _, dp := range sum.DataPoints {
				v, _ := dp.Attributes.Value("outcome")
				outcomes = append(outcomes, v.AsString())
			}
		}
	}
	assert.Equal(t, []string{StateAborted.String()}, outcomes)
}

// splitPoint reads an int array but writes the coordinates under sibling keys.
type splitPoint struct{ arrayPoint }

func (splitPoint) Write(k string, c *tag.Compound, v point) error {
	c.Put(k+"X", tag.Int(v.X))
	c.Put(k+"Y", tag.Int(v.Y))
	return nil
}

func TestUseCustom_SerializerWritingOtherKeysAborts(t *testing.T) {
	// Given: a host whose Point region already holds data
	f := newFixture(t)
	ctx := context.Background()
	seed := tag.NewCompound()
	seed.Put("Point", tag.IntArray{1, 2})
	_, err := f.store.Save(ctx, "item", host.Snapshot{Root: seed})
	require.NoError(t, err)

	// When: the serializer does not write under the region key
	err = UseCustom(ctx, f.client, f.object(t, "item"), "Point",
		func() point { return point{} },
		func(p *point) error {
			p.X = 3
			return nil
		},
		WithSerializer(serializer.TypeSerializer[point](splitPoint{})))

	// Then: the cycle aborts and the stored region is untouched
	require.ErrorIs(t, err, serializer.ErrInvalidSerializer)
	root := f.storedRoot(t, "item")
	assert.Equal(t, []string{"Point"}, root.Keys())
	arr, err := root.GetIntArray("Point")
	require.NoError(t, err)
	assert.Equal(t, []int32{1, 2}, arr)
}

func TestWarm(t *testing.T) {
	f := newFixture(t)

	err := f.client.Warm(context.Background(), reflect.TypeFor[counter](), reflect.TypeFor[badge]())

	require.NoError(t, err)
	assert.Equal(t, int64(2), f.client.Specifications().Creations())
	assert.Equal(t, int64(2), f.client.Links().Creations())
}

func TestWarm_ReportsUnsupportedType(t *testing.T) {
	f := newFixture(t)

	err := f.client.Warm(context.Background(), reflect.TypeFor[struct{ M map[string]int }]())

	assert.ErrorIs(t, err, spec.ErrUnsupportedFieldType)
}

func TestNewClient_RequiresRegistry(t *testing.T) {
	_, err := NewClient(nil)
	assert.Error(t, err)
}

func TestNewClient_DefaultsAbortLogInterval(t *testing.T) {
	c, err := NewClient(serializer.NewRegistry(), WithConfig(Config{}))
	require.NoError(t, err)
	assert.Equal(t, time.Minute, c.cfg.AbortLogInterval)
}
