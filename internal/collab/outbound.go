package collab

import (
	"encoding/json"

	"github.com/Ritinder-Singh/collaborative-whiteboard/internal/model"
	"github.com/Ritinder-Singh/collaborative-whiteboard/internal/session"
)

// Outbound event names. stroke_start, stroke_update and stroke_end reuse the
// inbound names.
const (
	EventConnected     = "connected"
	EventBoardState    = "board_state"
	EventUserJoined    = "user_joined"
	EventUserLeft      = "user_left"
	EventUserCount     = "user_count"
	EventCursorUpdate  = "cursor_update"
	EventBoardCleared  = "board_cleared"
	EventObjectAdded   = "object_added"
	EventObjectUpdated = "object_updated"
	EventObjectDeleted = "object_deleted"
	EventError         = "error"
)

// ErrCodeForbidden rejects a join_board the user may not view.
const ErrCodeForbidden = "FORBIDDEN"

// Connected is sent to a new connection only.
type Connected struct {
	SID string `json:"sid"`
}

// BoardState is the full canvas sent to a joining connection.
type BoardState struct {
	BoardID string                `json:"board_id"`
	Strokes []model.Stroke        `json:"strokes"`
	Objects []model.Object        `json:"objects"`
	Layers  []model.Layer         `json:"layers"`
	Users   []session.Participant `json:"users"`
}

type UserJoined struct {
	SID         string `json:"sid"`
	UserID      string `json:"user_id"`
	DisplayName string `json:"display_name"`
}

type UserLeft struct {
	SID string `json:"sid"`
}

type UserCount struct {
	Count int `json:"count"`
}

type StrokeStarted struct {
	StrokeID string  `json:"stroke_id"`
	UserID   string  `json:"user_id"`
	Tool     string  `json:"tool"`
	Color    string  `json:"color"`
	Size     float64 `json:"size"`
	LayerID  string  `json:"layer_id"`
}

type StrokeUpdated struct {
	StrokeID string            `json:"stroke_id"`
	Points   []json.RawMessage `json:"points"`
}

type StrokeEnded struct {
	StrokeID string `json:"stroke_id"`
}

type CursorUpdate struct {
	UserID      string  `json:"user_id"`
	DisplayName string  `json:"display_name"`
	X           float64 `json:"x"`
	Y           float64 `json:"y"`
}

type BoardCleared struct {
	ClearedBy string `json:"cleared_by"`
}

type ObjectAdded struct {
	ObjectID   string         `json:"object_id"`
	Type       string         `json:"type"`
	Properties map[string]any `json:"properties"`
	LayerID    string         `json:"layer_id"`
	UserID     string         `json:"user_id"`
}

type ObjectUpdated struct {
	ObjectID   string         `json:"object_id"`
	Properties map[string]any `json:"properties"`
	UserID     string         `json:"user_id"`
}

type ObjectDeleted struct {
	ObjectID string `json:"object_id"`
	UserID   string `json:"user_id"`
}

// ErrorMessage is sent to the sender only.
type ErrorMessage struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	BoardID string `json:"board_id,omitempty"`
}
