package collab

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/Ritinder-Singh/collaborative-whiteboard/internal/board"
	"github.com/Ritinder-Singh/collaborative-whiteboard/internal/metrics"
	"github.com/Ritinder-Singh/collaborative-whiteboard/internal/model"
	"github.com/Ritinder-Singh/collaborative-whiteboard/internal/room"
	"github.com/Ritinder-Singh/collaborative-whiteboard/internal/session"
)

// =============================================================================
// Event Router
// =============================================================================

// Emitter delivers one outbound event to a set of connections. Implementations
// must not block on a slow connection.
type Emitter interface {
	Emit(sids []string, event string, payload any)
}

// Hydrator loads the persisted canvas for a board that is not resident yet.
// It returns nil, nil when nothing is stored.
type Hydrator interface {
	LoadCanvas(ctx context.Context, boardID string) (*model.CanvasData, error)
}

// PresenceSink is notified after join/leave, for mirroring presence outside
// the process.
type PresenceSink interface {
	Joined(p session.Participant)
	Left(boardID, sid string)
}

// Authorizer decides what a user may do on a board. userID is empty for an
// anonymous connection.
type Authorizer interface {
	Authorize(ctx context.Context, boardID, userID string) (canView, canEdit bool, err error)
}

// RouterOptions are the optional collaborators of a Router. Without an
// Authorizer every connection may view and edit every board.
type RouterOptions struct {
	Access         Authorizer
	Hydrator       Hydrator
	HydrateTimeout time.Duration
	Presence       PresenceSink
	Metrics        *metrics.Collector
	Debug          bool
}

// Router applies inbound events to board state and fans the results out to
// the board's room.
//
// Events from one connection must be dispatched sequentially (the transport
// read loop does this); events from different connections may be dispatched
// concurrently. State locks are never held while emitting.
type Router struct {
	registry *session.Registry
	boards   *board.Store
	rooms    *room.Index
	emitter  Emitter

	access         Authorizer
	hydrator       Hydrator
	hydrateTimeout time.Duration
	presence       PresenceSink
	metrics        *metrics.Collector
	debug          bool

	// connections joined without edit rights
	viewers   map[string]struct{}
	viewersMu sync.Mutex

	// boards whose stored canvas is being loaded; closed when published
	loading   map[string]chan struct{}
	loadingMu sync.Mutex
}

// NewRouter wires the router to the engine services.
func NewRouter(registry *session.Registry, boards *board.Store, rooms *room.Index, emitter Emitter, opts RouterOptions) *Router {
	if opts.HydrateTimeout <= 0 {
		opts.HydrateTimeout = 3 * time.Second
	}
	return &Router{
		registry:       registry,
		boards:         boards,
		rooms:          rooms,
		emitter:        emitter,
		access:         opts.Access,
		hydrator:       opts.Hydrator,
		hydrateTimeout: opts.HydrateTimeout,
		presence:       opts.Presence,
		metrics:        opts.Metrics,
		debug:          opts.Debug,
		viewers:        make(map[string]struct{}),
		loading:        make(map[string]chan struct{}),
	}
}

// Connect greets a new connection.
func (r *Router) Connect(sid string) {
	r.emitter.Emit([]string{sid}, EventConnected, Connected{SID: sid})
}

// Disconnect runs the leave cascade. A connection that never joined is ignored.
func (r *Router) Disconnect(sid string) {
	r.leave(sid)
}

// Dispatch handles one inbound event from connection sid.
func (r *Router) Dispatch(sid string, ev Event) {
	r.metrics.EventReceived(ev.Name())

	switch ev := ev.(type) {
	case JoinBoard:
		r.handleJoin(sid, ev)
	case LeaveBoard:
		r.leave(sid)
	case StrokeStart:
		r.handleStrokeStart(sid, ev)
	case StrokeUpdate:
		r.handleStrokeUpdate(sid, ev)
	case StrokeEnd:
		r.handleStrokeEnd(sid, ev)
	case CursorMove:
		r.handleCursorMove(sid, ev)
	case ClearBoard:
		r.handleClearBoard(sid)
	case ObjectAdd:
		r.handleObjectAdd(sid, ev)
	case ObjectUpdate:
		r.handleObjectUpdate(sid, ev)
	case ObjectDelete:
		r.handleObjectDelete(sid, ev)
	default:
		r.tracef("unhandled event %s from %s", ev.Name(), sid)
	}
}

func (r *Router) handleJoin(sid string, ev JoinBoard) {
	canView, canEdit := r.authorize(ev)
	if !canView {
		log.Printf("[Router] Denied %s access to board %s (sid=%s)", ev.UserID, ev.BoardID, sid)
		r.emitter.Emit([]string{sid}, EventError, ErrorMessage{
			Code:    ErrCodeForbidden,
			Message: "board access denied",
			BoardID: ev.BoardID,
		})
		return
	}

	if prev, ok := r.registry.Lookup(sid); ok && prev.BoardID != ev.BoardID {
		r.leave(sid)
	}

	b := r.resident(ev.BoardID)
	r.rooms.Join(ev.BoardID, sid)
	p := r.registry.Register(sid, ev.UserID, ev.DisplayName, ev.BoardID)
	// evicted before the room join; a non-empty room is never evicted
	if cur, ok := r.boards.Get(ev.BoardID); !ok || cur != b {
		b = r.resident(ev.BoardID)
	}
	r.setViewer(sid, !canEdit)

	log.Printf("[Router] User %s joining board %s (sid=%s, edit=%t)", p.DisplayName, p.BoardID, sid, canEdit)
	r.announceJoin(p, b)
}

// authorize resolves the join's rights. Only a verified identity counts as a
// user; a failed lookup denies the join.
func (r *Router) authorize(ev JoinBoard) (canView, canEdit bool) {
	if r.access == nil {
		return true, true
	}

	userID := ""
	if ev.Verified {
		userID = ev.UserID
	}

	ctx, cancel := context.WithTimeout(context.Background(), r.hydrateTimeout)
	defer cancel()

	canView, canEdit, err := r.access.Authorize(ctx, ev.BoardID, userID)
	if err != nil {
		log.Printf("[Router] Access check for board %s failed: %v", ev.BoardID, err)
		return false, false
	}
	return canView, canEdit && canView
}

// resident returns the board, loading its stored canvas first when it is not
// in memory. Concurrent callers for the same board wait on a single load and
// the board is only published once seeded. The load runs outside all state
// locks.
func (r *Router) resident(boardID string) *board.Board {
	for {
		if b, ok := r.boards.Get(boardID); ok {
			return b
		}

		r.loadingMu.Lock()
		if wait, ok := r.loading[boardID]; ok {
			r.loadingMu.Unlock()
			<-wait
			continue
		}
		if b, ok := r.boards.Get(boardID); ok {
			r.loadingMu.Unlock()
			return b
		}
		done := make(chan struct{})
		r.loading[boardID] = done
		r.loadingMu.Unlock()

		b, created := r.boards.GetOrCreateSeeded(boardID, r.load(boardID))
		if created {
			r.metrics.SetResidentBoards(r.boards.Len())
		}

		r.loadingMu.Lock()
		delete(r.loading, boardID)
		r.loadingMu.Unlock()
		close(done)
		return b
	}
}

func (r *Router) load(boardID string) *model.CanvasData {
	if r.hydrator == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), r.hydrateTimeout)
	defer cancel()

	canvas, err := r.hydrator.LoadCanvas(ctx, boardID)
	if err != nil {
		log.Printf("[Router] Failed to hydrate board %s, starting empty: %v", boardID, err)
		return nil
	}
	return canvas
}

func (r *Router) leave(sid string) {
	r.setViewer(sid, false)

	boardID, ok := r.rooms.Leave(sid)
	if !ok {
		r.tracef("leave from unregistered connection %s", sid)
		return
	}
	log.Printf("[Router] Connection %s left board %s", sid, boardID)
	r.announceLeave(boardID, sid)
}

func (r *Router) handleStrokeStart(sid string, ev StrokeStart) {
	p, ok := r.editor(sid, ev)
	if !ok {
		return
	}

	if b, ok := r.boards.Get(p.BoardID); ok {
		b.AppendStroke(model.Stroke{
			ID:      ev.StrokeID,
			UserID:  p.UserID,
			Tool:    ev.Tool,
			Color:   ev.Color,
			Size:    ev.Size,
			LayerID: ev.LayerID,
		})
	} else {
		r.tracef("stroke_start for non-resident board %s", p.BoardID)
	}

	r.broadcastOthers(p.BoardID, sid, EventStrokeStart, StrokeStarted{
		StrokeID: ev.StrokeID,
		UserID:   p.UserID,
		Tool:     ev.Tool,
		Color:    ev.Color,
		Size:     ev.Size,
		LayerID:  ev.LayerID,
	})
}

func (r *Router) handleStrokeUpdate(sid string, ev StrokeUpdate) {
	p, ok := r.editor(sid, ev)
	if !ok {
		return
	}

	if b, ok := r.boards.Get(p.BoardID); ok {
		if !b.AppendPoints(ev.StrokeID, ev.Points) {
			r.tracef("stroke_update for unknown or completed stroke %q on %s", ev.StrokeID, p.BoardID)
		}
	}

	r.broadcastOthers(p.BoardID, sid, EventStrokeUpdate, StrokeUpdated{
		StrokeID: ev.StrokeID,
		Points:   ev.Points,
	})
}

func (r *Router) handleStrokeEnd(sid string, ev StrokeEnd) {
	p, ok := r.editor(sid, ev)
	if !ok {
		return
	}

	if b, ok := r.boards.Get(p.BoardID); ok {
		if !b.CompleteStroke(ev.StrokeID) {
			r.tracef("stroke_end for unknown stroke %q on %s", ev.StrokeID, p.BoardID)
		}
	}

	r.broadcastOthers(p.BoardID, sid, EventStrokeEnd, StrokeEnded{StrokeID: ev.StrokeID})
}

func (r *Router) handleCursorMove(sid string, ev CursorMove) {
	p, ok := r.participant(sid, ev)
	if !ok {
		return
	}

	r.broadcastOthers(p.BoardID, sid, EventCursorUpdate, CursorUpdate{
		UserID:      p.UserID,
		DisplayName: p.DisplayName,
		X:           ev.X,
		Y:           ev.Y,
	})
}

func (r *Router) handleClearBoard(sid string) {
	p, ok := r.editor(sid, ClearBoard{})
	if !ok {
		return
	}

	if b, ok := r.boards.Get(p.BoardID); ok {
		b.Clear()
	}
	log.Printf("[Router] Board %s cleared by %s", p.BoardID, p.DisplayName)

	r.emitter.Emit(r.rooms.Members(p.BoardID), EventBoardCleared, BoardCleared{ClearedBy: p.UserID})
}

func (r *Router) handleObjectAdd(sid string, ev ObjectAdd) {
	p, ok := r.editor(sid, ev)
	if !ok {
		return
	}

	if b, ok := r.boards.Get(p.BoardID); ok {
		b.AppendObject(model.Object{
			ID:         ev.ObjectID,
			Type:       ev.Type,
			Properties: ev.Properties,
			LayerID:    ev.LayerID,
			UserID:     p.UserID,
		})
	}

	r.broadcastOthers(p.BoardID, sid, EventObjectAdded, ObjectAdded{
		ObjectID:   ev.ObjectID,
		Type:       ev.Type,
		Properties: ev.Properties,
		LayerID:    ev.LayerID,
		UserID:     p.UserID,
	})
}

func (r *Router) handleObjectUpdate(sid string, ev ObjectUpdate) {
	p, ok := r.editor(sid, ev)
	if !ok {
		return
	}

	if b, ok := r.boards.Get(p.BoardID); ok {
		if !b.MergeObject(ev.ObjectID, ev.Properties) {
			r.tracef("object_update for unknown object %q on %s", ev.ObjectID, p.BoardID)
		}
	}

	r.broadcastOthers(p.BoardID, sid, EventObjectUpdated, ObjectUpdated{
		ObjectID:   ev.ObjectID,
		Properties: ev.Properties,
		UserID:     p.UserID,
	})
}

func (r *Router) handleObjectDelete(sid string, ev ObjectDelete) {
	p, ok := r.editor(sid, ev)
	if !ok {
		return
	}

	if b, ok := r.boards.Get(p.BoardID); ok {
		if !b.RemoveObject(ev.ObjectID) {
			r.tracef("object_delete for unknown object %q on %s", ev.ObjectID, p.BoardID)
		}
	}

	r.broadcastOthers(p.BoardID, sid, EventObjectDeleted, ObjectDeleted{
		ObjectID: ev.ObjectID,
		UserID:   p.UserID,
	})
}

// participant resolves the sender. A connection that has not joined a board
// gets a silent no-op.
func (r *Router) participant(sid string, ev Event) (session.Participant, bool) {
	p, ok := r.registry.Lookup(sid)
	if !ok {
		r.tracef("%s from unregistered connection %s", ev.Name(), sid)
	}
	return p, ok
}

// editor is participant for mutating events: a connection that joined
// without edit rights gets a silent no-op.
func (r *Router) editor(sid string, ev Event) (session.Participant, bool) {
	p, ok := r.participant(sid, ev)
	if !ok {
		return p, false
	}

	r.viewersMu.Lock()
	_, viewer := r.viewers[sid]
	r.viewersMu.Unlock()
	if viewer {
		r.tracef("%s from read-only connection %s on %s", ev.Name(), sid, p.BoardID)
		return p, false
	}
	return p, true
}

func (r *Router) setViewer(sid string, viewer bool) {
	r.viewersMu.Lock()
	defer r.viewersMu.Unlock()
	if viewer {
		r.viewers[sid] = struct{}{}
	} else {
		delete(r.viewers, sid)
	}
}

// broadcastOthers emits to the board's room excluding the sender.
func (r *Router) broadcastOthers(boardID, sender, event string, payload any) {
	recipients := without(r.rooms.Members(boardID), sender)
	if len(recipients) == 0 {
		return
	}
	r.emitter.Emit(recipients, event, payload)
}

func without(sids []string, exclude string) []string {
	out := make([]string, 0, len(sids))
	for _, sid := range sids {
		if sid != exclude {
			out = append(out, sid)
		}
	}
	return out
}

func (r *Router) tracef(format string, args ...any) {
	if r.debug {
		log.Printf("[Router] debug: "+format, args...)
	}
}
