package room

import (
	"log"
	"sort"
	"sync"
	"time"

	"github.com/Ritinder-Singh/collaborative-whiteboard/internal/session"
)

// =============================================================================
// Room Membership Index - board_id -> connected sids
// =============================================================================

// Index maps each board to the set of connections joined to it.
//
// A connection id appears in at most one room: leave always goes through the
// session registry, which knows the single board a connection is on.
type Index struct {
	rooms      map[string]map[string]struct{}
	emptySince map[string]time.Time
	registry   *session.Registry
	mu         sync.RWMutex
	now        func() time.Time
}

// NewIndex creates an index backed by the given registry.
func NewIndex(registry *session.Registry) *Index {
	return &Index{
		rooms:      make(map[string]map[string]struct{}),
		emptySince: make(map[string]time.Time),
		registry:   registry,
		now:        time.Now,
	}
}

// Join adds the connection to the board's room, creating the room if absent.
func (i *Index) Join(boardID, sid string) {
	i.mu.Lock()
	defer i.mu.Unlock()

	members, ok := i.rooms[boardID]
	if !ok {
		members = make(map[string]struct{})
		i.rooms[boardID] = members
	}
	members[sid] = struct{}{}
	delete(i.emptySince, boardID)
}

// Leave unregisters the connection and removes it from the room it was in.
// Returns the board id it left, or false when the connection was never joined.
func (i *Index) Leave(sid string) (string, bool) {
	boardID, ok := i.registry.Unregister(sid)
	if !ok {
		return "", false
	}

	i.mu.Lock()
	defer i.mu.Unlock()

	members, exists := i.rooms[boardID]
	if !exists {
		return boardID, true
	}
	delete(members, sid)
	if len(members) == 0 {
		delete(i.rooms, boardID)
		i.emptySince[boardID] = i.now()
		log.Printf("[RoomIndex] Room %s is now empty", boardID)
	}
	return boardID, true
}

// Count returns the number of connections in the board's room.
func (i *Index) Count(boardID string) int {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return len(i.rooms[boardID])
}

// Members returns a sorted snapshot of the room. The snapshot may be stale by
// the time the caller uses it.
func (i *Index) Members(boardID string) []string {
	i.mu.RLock()
	members := make([]string, 0, len(i.rooms[boardID]))
	for sid := range i.rooms[boardID] {
		members = append(members, sid)
	}
	i.mu.RUnlock()

	sort.Strings(members)
	return members
}

// EmptySince reports when the board's room last became empty. False while the
// room has members or if it never had any.
func (i *Index) EmptySince(boardID string) (time.Time, bool) {
	i.mu.RLock()
	defer i.mu.RUnlock()

	t, ok := i.emptySince[boardID]
	return t, ok
}

// Forget drops idle bookkeeping for an evicted board.
func (i *Index) Forget(boardID string) {
	i.mu.Lock()
	defer i.mu.Unlock()
	delete(i.emptySince, boardID)
}

// Rooms returns the number of non-empty rooms.
func (i *Index) Rooms() int {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return len(i.rooms)
}
