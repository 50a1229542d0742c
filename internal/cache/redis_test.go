package cache

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ritinder-Singh/collaborative-whiteboard/internal/model"
)

func newTestClient(t *testing.T) (*RedisClient, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client, err := NewRedisClient(mr.Addr(), "", 0)
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })
	return client, mr
}

func TestRedisClient_CanvasRoundTrip(t *testing.T) {
	client, mr := newTestClient(t)
	ctx := context.Background()

	got, err := client.GetCanvas(ctx, "b1")
	require.NoError(t, err)
	assert.Nil(t, got)

	canvas := model.NewCanvas()
	canvas.Strokes = append(canvas.Strokes, model.Stroke{
		ID:        "s1",
		Tool:      "pen",
		Points:    []json.RawMessage{json.RawMessage(`{"x":1,"y":2}`)},
		Completed: true,
	})
	require.NoError(t, client.SetCanvas(ctx, "b1", canvas))
	assert.True(t, mr.Exists("board:b1:canvas"))
	assert.Equal(t, DefaultCanvasTTL, mr.TTL("board:b1:canvas"))

	got, err = client.GetCanvas(ctx, "b1")
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Len(t, got.Strokes, 1)
	assert.Equal(t, "s1", got.Strokes[0].ID)
	assert.Len(t, got.Layers, 1)

	require.NoError(t, client.DeleteCanvas(ctx, "b1"))
	assert.False(t, mr.Exists("board:b1:canvas"))
}

func TestRedisClient_CorruptEntryIsMiss(t *testing.T) {
	client, mr := newTestClient(t)
	require.NoError(t, mr.Set("board:b1:canvas", "{not json"))

	got, err := client.GetCanvas(context.Background(), "b1")
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.False(t, mr.Exists("board:b1:canvas"))
}

func TestRedisClient_Expiry(t *testing.T) {
	mr := miniredis.RunT(t)
	client, err := NewRedisClient(mr.Addr(), "", 0)
	require.NoError(t, err)
	client = NewFromClient(client.Client(), time.Minute)

	require.NoError(t, client.SetCanvas(context.Background(), "b1", model.NewCanvas()))
	mr.FastForward(2 * time.Minute)

	got, err := client.GetCanvas(context.Background(), "b1")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestNewRedisClient_Unreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err := NewRedisClient(addr, "", 0)
	assert.Error(t, err)
}
