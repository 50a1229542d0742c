package collab

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envelope(t *testing.T, eventType, payload string) Envelope {
	t.Helper()
	env := Envelope{Type: eventType}
	if payload != "" {
		env.Payload = json.RawMessage(payload)
	}
	return env
}

func TestDecode_JoinBoardDefaults(t *testing.T) {
	ev, err := Decode(envelope(t, EventJoinBoard, `{}`), "abcdef123456")
	require.NoError(t, err)

	join, ok := ev.(JoinBoard)
	require.True(t, ok)
	assert.Equal(t, DefaultBoardID, join.BoardID)
	assert.Equal(t, "abcdef123456", join.UserID)
	assert.Equal(t, "User-abcdef", join.DisplayName)
}

func TestDecode_ShortSIDDisplayName(t *testing.T) {
	ev, err := Decode(envelope(t, EventJoinBoard, ""), "abc")
	require.NoError(t, err)
	assert.Equal(t, "User-abc", ev.(JoinBoard).DisplayName)
}

func TestDecode_StrokeStartDefaults(t *testing.T) {
	ev, err := Decode(envelope(t, EventStrokeStart, `{"stroke_id":"s1"}`), "sid")
	require.NoError(t, err)

	assert.Equal(t, StrokeStart{
		StrokeID: "s1",
		Tool:     DefaultTool,
		Color:    DefaultColor,
		Size:     DefaultSize,
		LayerID:  DefaultLayerID,
	}, ev)
}

func TestDecode_MalformedFieldsFallBack(t *testing.T) {
	ev, err := Decode(envelope(t, EventStrokeStart, `{"stroke_id":"s1","tool":42,"size":"big","color":null}`), "sid")
	require.NoError(t, err)

	start := ev.(StrokeStart)
	assert.Equal(t, "s1", start.StrokeID)
	assert.Equal(t, DefaultTool, start.Tool)
	assert.Equal(t, DefaultSize, start.Size)
	assert.Equal(t, DefaultColor, start.Color)
}

func TestDecode_NonObjectPayload(t *testing.T) {
	ev, err := Decode(envelope(t, EventCursorMove, `[1,2]`), "sid")
	require.NoError(t, err)
	assert.Equal(t, CursorMove{}, ev)
}

func TestDecode_NumericIDs(t *testing.T) {
	ev, err := Decode(envelope(t, EventObjectDelete, `{"object_id":17}`), "sid")
	require.NoError(t, err)
	assert.Equal(t, ObjectDelete{ObjectID: "17"}, ev)
}

func TestDecode_StrokeUpdatePoints(t *testing.T) {
	ev, err := Decode(envelope(t, EventStrokeUpdate, `{"stroke_id":"s1","points":[{"x":1,"y":2},{"x":3,"y":4}]}`), "sid")
	require.NoError(t, err)

	update := ev.(StrokeUpdate)
	require.Len(t, update.Points, 2)
	assert.JSONEq(t, `{"x":1,"y":2}`, string(update.Points[0]))

	ev, err = Decode(envelope(t, EventStrokeUpdate, `{"stroke_id":"s1","points":"nope"}`), "sid")
	require.NoError(t, err)
	assert.Empty(t, ev.(StrokeUpdate).Points)
	assert.NotNil(t, ev.(StrokeUpdate).Points)
}

func TestDecode_ObjectProperties(t *testing.T) {
	ev, err := Decode(envelope(t, EventObjectAdd, `{"object_id":"o1","type":"rect","properties":{"w":10}}`), "sid")
	require.NoError(t, err)

	add := ev.(ObjectAdd)
	assert.Equal(t, "rect", add.Type)
	assert.Equal(t, map[string]any{"w": float64(10)}, add.Properties)
	assert.Equal(t, DefaultLayerID, add.LayerID)

	ev, err = Decode(envelope(t, EventObjectUpdate, `{"object_id":"o1"}`), "sid")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{}, ev.(ObjectUpdate).Properties)
}

func TestDecode_UnknownType(t *testing.T) {
	_, err := Decode(envelope(t, "draw_circle", `{}`), "sid")
	assert.ErrorIs(t, err, ErrUnknownEvent)
}
