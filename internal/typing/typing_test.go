package typing_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MedAli03/atpsm-messaging/internal/typing"
)

func TestCache_OtherViewerSeesTyping(t *testing.T) {
	ctx := context.Background()
	c := typing.NewCache(5 * time.Second)

	require.NoError(t, c.Set(ctx, 1, 10, true, "Nadia"))

	state, err := c.Get(ctx, 1, 20)
	require.NoError(t, err)
	assert.True(t, state.IsTyping)
	assert.Equal(t, "Nadia", state.Label)
}

func TestCache_ViewerNeverSeesOwnTyping(t *testing.T) {
	ctx := context.Background()
	c := typing.NewCache(5 * time.Second)

	require.NoError(t, c.Set(ctx, 1, 10, true, "Nadia"))

	state, err := c.Get(ctx, 1, 10)
	require.NoError(t, err)
	assert.False(t, state.IsTyping)
	assert.Empty(t, state.Label)
}

func TestCache_EntryExpiresAfterTTL(t *testing.T) {
	ctx := context.Background()

	now := time.Now()
	c := typing.NewCache(5*time.Second, typing.WithClock(func() time.Time { return now }))

	require.NoError(t, c.Set(ctx, 1, 10, true, "Nadia"))

	now = now.Add(4 * time.Second)
	state, err := c.Get(ctx, 1, 20)
	require.NoError(t, err)
	assert.True(t, state.IsTyping)

	now = now.Add(2 * time.Second)
	state, err = c.Get(ctx, 1, 20)
	require.NoError(t, err)
	assert.False(t, state.IsTyping)
}

func TestCache_RefreshSlidesExpiry(t *testing.T) {
	ctx := context.Background()

	now := time.Now()
	c := typing.NewCache(5*time.Second, typing.WithClock(func() time.Time { return now }))

	require.NoError(t, c.Set(ctx, 1, 10, true, "Nadia"))

	now = now.Add(4 * time.Second)
	require.NoError(t, c.Set(ctx, 1, 10, true, "Nadia"))

	now = now.Add(4 * time.Second)
	state, err := c.Get(ctx, 1, 20)
	require.NoError(t, err)
	assert.True(t, state.IsTyping, "refresh should have moved the expiry")
}

func TestCache_StopTypingRemovesImmediately(t *testing.T) {
	ctx := context.Background()
	c := typing.NewCache(5 * time.Second)

	require.NoError(t, c.Set(ctx, 1, 10, true, "Nadia"))
	require.NoError(t, c.Set(ctx, 1, 10, false, ""))

	state, err := c.Get(ctx, 1, 20)
	require.NoError(t, err)
	assert.False(t, state.IsTyping)
}

func TestCache_ThreadsAreIsolated(t *testing.T) {
	ctx := context.Background()
	c := typing.NewCache(5 * time.Second)

	require.NoError(t, c.Set(ctx, 1, 10, true, "Nadia"))

	state, err := c.Get(ctx, 2, 20)
	require.NoError(t, err)
	assert.False(t, state.IsTyping)
}
