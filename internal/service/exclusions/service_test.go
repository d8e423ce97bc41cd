package exclusions

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockStore is an in-memory store for testing.
type mockStore struct {
	mu      sync.RWMutex
	modules []string
	set     bool
}

func (m *mockStore) Get(_ context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, len(m.modules))
	copy(out, m.modules)
	return out, nil
}

func (m *mockStore) Set(_ context.Context, modules []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.modules = append([]string(nil), modules...)
	m.set = true
	return nil
}

func (m *mockStore) Delete(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.modules = nil
	m.set = false
	return nil
}

func TestExclude_AddsModules(t *testing.T) {
	svc := NewService(&mockStore{})
	ctx := context.Background()

	err := svc.Exclude(ctx, "dashboard", "metrics")
	require.NoError(t, err)

	list, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"dashboard", "metrics"}, list)
}

func TestExclude_IsIdempotent(t *testing.T) {
	svc := NewService(&mockStore{})
	ctx := context.Background()

	require.NoError(t, svc.Exclude(ctx, "dashboard"))
	require.NoError(t, svc.Exclude(ctx, "dashboard"))
	require.NoError(t, svc.Exclude(ctx, "dashboard", "dashboard"))

	list, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"dashboard"}, list)
}

func TestExclude_IgnoresBlankNames(t *testing.T) {
	svc := NewService(&mockStore{})
	ctx := context.Background()

	require.NoError(t, svc.Exclude(ctx, "", "  ", "metrics"))

	list, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"metrics"}, list)
}

func TestRemove_DeletesModule(t *testing.T) {
	svc := NewService(&mockStore{})
	ctx := context.Background()

	require.NoError(t, svc.Exclude(ctx, "alpha"))
	require.NoError(t, svc.Remove(ctx, "alpha"))

	list, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestRemove_AbsentModuleReturnsNotFound(t *testing.T) {
	svc := NewService(&mockStore{})
	ctx := context.Background()

	require.NoError(t, svc.Exclude(ctx, "alpha"))

	err := svc.Remove(ctx, "beta")
	assert.ErrorIs(t, err, ErrNotFound)

	// Stored set is unchanged
	list, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha"}, list)
}

func TestRemove_EmptyNameReturnsNotFound(t *testing.T) {
	svc := NewService(&mockStore{})
	ctx := context.Background()

	require.NoError(t, svc.Exclude(ctx, "alpha"))
	assert.ErrorIs(t, svc.Remove(ctx, ""), ErrNotFound)
}

func TestIsExcluded(t *testing.T) {
	svc := NewService(&mockStore{})
	ctx := context.Background()

	require.NoError(t, svc.Exclude(ctx, "alpha"))

	excluded, err := svc.IsExcluded(ctx, "alpha")
	require.NoError(t, err)
	assert.True(t, excluded)

	excluded, err = svc.IsExcluded(ctx, "beta")
	require.NoError(t, err)
	assert.False(t, excluded)
}

func TestClear_EmptiesTheSet(t *testing.T) {
	store := &mockStore{}
	svc := NewService(store)
	ctx := context.Background()

	require.NoError(t, svc.Exclude(ctx, "alpha", "beta"))
	require.NoError(t, svc.Clear(ctx))
	// Clearing twice is fine
	require.NoError(t, svc.Clear(ctx))

	list, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}
