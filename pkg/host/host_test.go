package host

import (
	"context"
	"errors"
	"testing"

	"github.com/Sokol111/tagdata/pkg/tag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockStore struct {
	mock.Mock
}

func (m *mockStore) Load(ctx context.Context, id string) (Snapshot, bool, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(Snapshot), args.Bool(1), args.Error(2)
}

func (m *mockStore) Save(ctx context.Context, id string, snap Snapshot) (int64, error) {
	args := m.Called(ctx, id, snap)
	return args.Get(0).(int64), args.Error(1)
}

func TestObject_LoadMissingReturnsEmptyTree(t *testing.T) {
	// Given: a store that has never seen the id
	store := &mockStore{}
	store.On("Load", mock.Anything, "item-1").Return(Snapshot{}, false, nil)
	obj, err := NewObject(store, "item-1")
	require.NoError(t, err)

	// When: loading
	root, err := obj.Load(context.Background())

	// Then: an empty tree at version 0 is returned
	require.NoError(t, err)
	assert.Equal(t, 0, root.Len())
	assert.Equal(t, int64(0), obj.Version())
	store.AssertExpectations(t)
}

func TestObject_SaveSendsLoadedVersion(t *testing.T) {
	// Given: a stored tree at version 3
	stored := tag.NewCompound()
	stored.Put("a", tag.Int(1))
	store := &mockStore{}
	store.On("Load", mock.Anything, "item-1").Return(Snapshot{Root: stored, Version: 3}, true, nil)
	store.On("Save", mock.Anything, "item-1", mock.MatchedBy(func(s Snapshot) bool {
		return s.Version == 3 && s.Root == stored
	})).Return(int64(4), nil)
	obj, err := NewObject(store, "item-1")
	require.NoError(t, err)

	// When: loading and saving
	root, err := obj.Load(context.Background())
	require.NoError(t, err)
	require.NoError(t, obj.Save(context.Background(), root))

	// Then: the new version is remembered
	assert.Equal(t, int64(4), obj.Version())
	store.AssertExpectations(t)
}

func TestObject_SaveConflict(t *testing.T) {
	store := &mockStore{}
	store.On("Save", mock.Anything, "item-1", mock.Anything).Return(int64(0), ErrVersionConflict)
	obj, err := NewObject(store, "item-1")
	require.NoError(t, err)

	err = obj.Save(context.Background(), tag.NewCompound())

	assert.ErrorIs(t, err, ErrVersionConflict)
}

func TestObject_LoadError(t *testing.T) {
	boom := errors.New("boom")
	store := &mockStore{}
	store.On("Load", mock.Anything, "item-1").Return(Snapshot{}, false, boom)
	obj, err := NewObject(store, "item-1")
	require.NoError(t, err)

	_, err = obj.Load(context.Background())

	assert.ErrorIs(t, err, boom)
}

func TestNewObject_Validation(t *testing.T) {
	_, err := NewObject(nil, "x")
	assert.Error(t, err)

	_, err = NewObject(&mockStore{}, "")
	assert.ErrorIs(t, err, ErrInvalidID)
}
