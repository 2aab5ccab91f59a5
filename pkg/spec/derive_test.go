package spec

import (
	"reflect"
	"sync"
	"testing"

	"github.com/Sokol111/tagdata/pkg/serializer"
	"github.com/Sokol111/tagdata/pkg/tag"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stats struct {
	Strength int32
	Agility  int32
}

type hero struct {
	Name     string
	Health   int32
	Level    int
	ID       uuid.UUID
	Scores   []int64
	Stats    stats
	Pet      *stats
	Position point `tag:"pos"`
	Ignored  string `tag:"-"`
	internal int
}

type node struct {
	Value int32
	Next  *node
}

type badField struct {
	Names []string
}

func TestDerive(t *testing.T) {
	// Given: a registry with a custom serializer for point
	reg := serializer.NewRegistry()
	require.NoError(t, reg.Register(serializer.MustFunc(
		func(k string, c *tag.Compound) (point, error) { return point{}, nil },
		func(k string, c *tag.Compound, v point) error { return nil },
	)))

	// When: deriving the hero specification
	s, err := DeriveFor[hero](reg)
	require.NoError(t, err)

	// Then: keys follow struct tags or camel case and kinds follow member types
	assert.Equal(t, "hero", s.Name())
	assert.Equal(t, []string{"name", "health", "level", "id", "scores", "stats", "pet", "pos"}, s.Names())

	tests := []struct {
		key     string
		kind    FieldKind
		tagKind tag.Kind
	}{
		{key: "name", kind: FieldPrimitive, tagKind: tag.KindString},
		{key: "health", kind: FieldPrimitive, tagKind: tag.KindInt},
		{key: "level", kind: FieldPrimitive, tagKind: tag.KindLong},
		{key: "id", kind: FieldPrimitive, tagKind: tag.KindUUID},
		{key: "scores", kind: FieldArray, tagKind: tag.KindLongArray},
		{key: "stats", kind: FieldNested, tagKind: tag.KindCompound},
		{key: "pet", kind: FieldNested, tagKind: tag.KindCompound},
		{key: "pos", kind: FieldCustom, tagKind: tag.KindInvalid},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			f, ok := s.Field(tt.key)
			require.True(t, ok)
			assert.Equal(t, tt.kind, f.Kind())
			assert.Equal(t, tt.tagKind, f.TagKind())
		})
	}

	statsField, _ := s.Field("stats")
	assert.Equal(t, []string{"strength", "agility"}, statsField.Child().Names())
}

func TestDerive_Errors(t *testing.T) {
	reg := serializer.NewRegistry()

	tests := []struct {
		name string
		typ  reflect.Type
	}{
		{name: "not a struct", typ: serializer.TypeOf[int]()},
		{name: "recursive type", typ: serializer.TypeOf[node]()},
		{name: "unsupported member", typ: serializer.TypeOf[badField]()},
		{name: "custom type without serializer", typ: serializer.TypeOf[struct{ P map[string]int }]()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Derive(tt.typ, reg)
			assert.ErrorIs(t, err, ErrUnsupportedFieldType)
		})
	}
}

func TestDerive_PointerType(t *testing.T) {
	s, err := Derive(serializer.TypeOf[*stats](), serializer.NewRegistry())

	require.NoError(t, err)
	assert.Equal(t, []string{"strength", "agility"}, s.Names())
}

func TestKeyFor(t *testing.T) {
	typ := serializer.TypeOf[hero]()

	tests := []struct {
		field  string
		want   string
		wantOK bool
	}{
		{field: "Name", want: "name", wantOK: true},
		{field: "ID", want: "id", wantOK: true},
		{field: "Position", want: "pos", wantOK: true},
		{field: "Ignored", wantOK: false},
		{field: "internal", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.field, func(t *testing.T) {
			sf, ok := typ.FieldByName(tt.field)
			require.True(t, ok)
			key, ok := KeyFor(sf)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, key)
		})
	}
}

func TestCache_ConcurrentSingleCreation(t *testing.T) {
	// Given: a cache and many goroutines asking for the same type
	cache := NewCache(serializer.NewRegistry())
	const workers = 64
	results := make([]*Specification, workers)
	var wg sync.WaitGroup

	// When: all request it at once
	for i := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s, err := For[stats](cache)
			assert.NoError(t, err)
			results[i] = s
		}()
	}
	wg.Wait()

	// Then: exactly one derivation ran and everyone shares its result
	assert.Equal(t, int64(1), cache.Creations())
	for _, s := range results {
		assert.Same(t, results[0], s)
	}
}

func TestCache_MemoizesFailure(t *testing.T) {
	cache := NewCache(serializer.NewRegistry())

	_, err1 := For[node](cache)
	_, err2 := For[node](cache)

	assert.ErrorIs(t, err1, ErrUnsupportedFieldType)
	assert.Equal(t, err1, err2)
	assert.Equal(t, int64(1), cache.Creations())
}

func TestCache_PointerAndValueShareEntry(t *testing.T) {
	cache := NewCache(serializer.NewRegistry())

	a, err := For[stats](cache)
	require.NoError(t, err)
	b, err := For[*stats](cache)
	require.NoError(t, err)

	assert.Same(t, a, b)
}
