package collab

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// Inbound event names.
const (
	EventJoinBoard    = "join_board"
	EventLeaveBoard   = "leave_board"
	EventStrokeStart  = "stroke_start"
	EventStrokeUpdate = "stroke_update"
	EventStrokeEnd    = "stroke_end"
	EventCursorMove   = "cursor_move"
	EventClearBoard   = "clear_board"
	EventObjectAdd    = "object_add"
	EventObjectUpdate = "object_update"
	EventObjectDelete = "object_delete"
)

// Defaults substituted for absent payload fields.
const (
	DefaultBoardID = "default"
	DefaultTool    = "pen"
	DefaultColor   = "#000000"
	DefaultSize    = 2.0
	DefaultLayerID = "default"
)

// ErrUnknownEvent is returned by Decode for an event type the router does not handle.
var ErrUnknownEvent = errors.New("unknown event")

// Envelope is the wire frame in both directions.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Event is one decoded inbound event.
type Event interface {
	Name() string
}

// JoinBoard binds the connection to a board. Verified is set by the
// transport when UserID comes from a validated token rather than the payload.
type JoinBoard struct {
	BoardID     string
	UserID      string
	DisplayName string
	Verified    bool
}

// LeaveBoard unbinds the connection from its board.
type LeaveBoard struct{}

// StrokeStart opens a new stroke.
type StrokeStart struct {
	StrokeID string
	Tool     string
	Color    string
	Size     float64
	LayerID  string
}

// StrokeUpdate streams a batch of points for an open stroke.
type StrokeUpdate struct {
	StrokeID string
	Points   []json.RawMessage
}

// StrokeEnd finalizes a stroke.
type StrokeEnd struct {
	StrokeID string
}

// CursorMove reports the sender's pointer position.
type CursorMove struct {
	X float64
	Y float64
}

// ClearBoard removes all strokes and objects.
type ClearBoard struct{}

// ObjectAdd adds a shape or element.
type ObjectAdd struct {
	ObjectID   string
	Type       string
	Properties map[string]any
	LayerID    string
}

// ObjectUpdate merges properties into an existing object.
type ObjectUpdate struct {
	ObjectID   string
	Properties map[string]any
}

// ObjectDelete removes an object.
type ObjectDelete struct {
	ObjectID string
}

func (JoinBoard) Name() string    { return EventJoinBoard }
func (LeaveBoard) Name() string   { return EventLeaveBoard }
func (StrokeStart) Name() string  { return EventStrokeStart }
func (StrokeUpdate) Name() string { return EventStrokeUpdate }
func (StrokeEnd) Name() string    { return EventStrokeEnd }
func (CursorMove) Name() string   { return EventCursorMove }
func (ClearBoard) Name() string   { return EventClearBoard }
func (ObjectAdd) Name() string    { return EventObjectAdd }
func (ObjectUpdate) Name() string { return EventObjectUpdate }
func (ObjectDelete) Name() string { return EventObjectDelete }

// Decode turns a frame from connection sid into a typed event. Missing or
// malformed fields fall back to their defaults; only an unknown event type is
// an error.
func Decode(env Envelope, sid string) (Event, error) {
	f := parseFields(env.Payload)

	switch env.Type {
	case EventJoinBoard:
		return JoinBoard{
			BoardID:     f.str("board_id", DefaultBoardID),
			UserID:      f.str("user_id", sid),
			DisplayName: f.str("display_name", defaultDisplayName(sid)),
		}, nil
	case EventLeaveBoard:
		return LeaveBoard{}, nil
	case EventStrokeStart:
		return StrokeStart{
			StrokeID: f.id("stroke_id"),
			Tool:     f.str("tool", DefaultTool),
			Color:    f.str("color", DefaultColor),
			Size:     f.num("size", DefaultSize),
			LayerID:  f.str("layer_id", DefaultLayerID),
		}, nil
	case EventStrokeUpdate:
		return StrokeUpdate{
			StrokeID: f.id("stroke_id"),
			Points:   f.list("points"),
		}, nil
	case EventStrokeEnd:
		return StrokeEnd{StrokeID: f.id("stroke_id")}, nil
	case EventCursorMove:
		return CursorMove{X: f.num("x", 0), Y: f.num("y", 0)}, nil
	case EventClearBoard:
		return ClearBoard{}, nil
	case EventObjectAdd:
		return ObjectAdd{
			ObjectID:   f.id("object_id"),
			Type:       f.str("type", ""),
			Properties: f.obj("properties"),
			LayerID:    f.str("layer_id", DefaultLayerID),
		}, nil
	case EventObjectUpdate:
		return ObjectUpdate{
			ObjectID:   f.id("object_id"),
			Properties: f.obj("properties"),
		}, nil
	case EventObjectDelete:
		return ObjectDelete{ObjectID: f.id("object_id")}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEvent, env.Type)
	}
}

func defaultDisplayName(sid string) string {
	if len(sid) > 6 {
		sid = sid[:6]
	}
	return "User-" + sid
}

// fields decodes each payload field on its own so one bad field does not
// discard the rest.
type fields map[string]json.RawMessage

var jsonNull = []byte("null")

func parseFields(payload json.RawMessage) fields {
	var f fields
	if len(payload) == 0 || json.Unmarshal(payload, &f) != nil {
		return fields{}
	}
	return f
}

func (f fields) raw(key string) (json.RawMessage, bool) {
	v, ok := f[key]
	if !ok || bytes.Equal(bytes.TrimSpace(v), jsonNull) {
		return nil, false
	}
	return v, true
}

func (f fields) str(key, def string) string {
	v, ok := f.raw(key)
	if !ok {
		return def
	}
	var s string
	if err := json.Unmarshal(v, &s); err != nil {
		return def
	}
	return s
}

// id accepts a string or a number (by its literal text).
func (f fields) id(key string) string {
	v, ok := f.raw(key)
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(v, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(v, &n); err == nil {
		return n.String()
	}
	return ""
}

func (f fields) num(key string, def float64) float64 {
	v, ok := f.raw(key)
	if !ok {
		return def
	}
	var n float64
	if err := json.Unmarshal(v, &n); err != nil {
		return def
	}
	return n
}

func (f fields) obj(key string) map[string]any {
	v, ok := f.raw(key)
	if !ok {
		return map[string]any{}
	}
	var m map[string]any
	if err := json.Unmarshal(v, &m); err != nil || m == nil {
		return map[string]any{}
	}
	return m
}

func (f fields) list(key string) []json.RawMessage {
	v, ok := f.raw(key)
	if !ok {
		return []json.RawMessage{}
	}
	var l []json.RawMessage
	if err := json.Unmarshal(v, &l); err != nil || l == nil {
		return []json.RawMessage{}
	}
	return l
}
