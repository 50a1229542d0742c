package collab

import (
	"github.com/Ritinder-Singh/collaborative-whiteboard/internal/board"
	"github.com/Ritinder-Singh/collaborative-whiteboard/internal/session"
)

// =============================================================================
// Presence Broadcaster
// =============================================================================

// Presence is the live view of one board's room.
type Presence struct {
	BoardID string                `json:"board_id"`
	Count   int                   `json:"count"`
	Users   []session.Participant `json:"users"`
}

// Presence returns the current participants of a board.
func (r *Router) Presence(boardID string) Presence {
	members := r.rooms.Members(boardID)
	return Presence{
		BoardID: boardID,
		Count:   len(members),
		Users:   r.registry.LookupMany(members),
	}
}

// announceJoin sends the canvas to the joiner, user_joined to everyone else
// and the new count to the whole room.
func (r *Router) announceJoin(p session.Participant, b *board.Board) {
	canvas := b.Snapshot()
	members := r.rooms.Members(p.BoardID)
	users := r.registry.LookupMany(members)

	r.emitter.Emit([]string{p.SID}, EventBoardState, BoardState{
		BoardID: p.BoardID,
		Strokes: canvas.Strokes,
		Objects: canvas.Objects,
		Layers:  canvas.Layers,
		Users:   users,
	})

	if others := without(members, p.SID); len(others) > 0 {
		r.emitter.Emit(others, EventUserJoined, UserJoined{
			SID:         p.SID,
			UserID:      p.UserID,
			DisplayName: p.DisplayName,
		})
	}

	r.emitter.Emit(members, EventUserCount, UserCount{Count: len(members)})

	if r.presence != nil {
		r.presence.Joined(p)
	}
}

// announceLeave tells the remaining room who left and the new count. The
// leaver is no longer a member, so it is excluded.
func (r *Router) announceLeave(boardID, sid string) {
	members := r.rooms.Members(boardID)

	if len(members) > 0 {
		r.emitter.Emit(members, EventUserLeft, UserLeft{SID: sid})
		r.emitter.Emit(members, EventUserCount, UserCount{Count: len(members)})
	}

	if r.presence != nil {
		r.presence.Left(boardID, sid)
	}
}
