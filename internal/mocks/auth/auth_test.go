package auth

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aulaweb/aula-admin/internal/ports"
)

func TestMemoryTokenStore(t *testing.T) {
	store := NewMemoryTokenStore()
	ctx := context.Background()

	_, err := store.Get(ctx, "c1")
	require.ErrorIs(t, err, ports.ErrNoToken)

	require.NoError(t, store.Save(ctx, "c1", "tok"))
	assert.True(t, store.Has("c1"))

	got, err := store.Get(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, "tok", got)

	require.NoError(t, store.Delete(ctx, "c1"))
	assert.False(t, store.Has("c1"))

	assert.Error(t, store.Save(ctx, "", "tok"))
}

func TestMemoryTokenStore_ForcedErrors(t *testing.T) {
	boom := errors.New("boom")
	store := &MemoryTokenStore{tokens: map[string]string{}, SaveErr: boom, GetErr: boom, DeleteErr: boom}
	ctx := context.Background()

	assert.ErrorIs(t, store.Save(ctx, "c", "t"), boom)
	_, err := store.Get(ctx, "c")
	assert.ErrorIs(t, err, boom)
	assert.ErrorIs(t, store.Delete(ctx, "c"), boom)
}

func TestRecordingNavigator(t *testing.T) {
	nav := NewRecordingNavigator()
	assert.Equal(t, "", nav.Last())

	nav.Navigate(context.Background(), "/login")
	nav.Navigate(context.Background(), "/app")

	assert.Equal(t, []string{"/login", "/app"}, nav.Paths())
	assert.Equal(t, "/app", nav.Last())
}
