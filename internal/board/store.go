package board

import (
	"log"
	"sort"
	"sync"

	"github.com/Ritinder-Singh/collaborative-whiteboard/internal/model"
)

// Store holds every resident board session.
//
// The map is guarded by mu; each Board carries its own lock, so mutations on
// different boards never contend. Lock order is Store.mu before Board.mu.
type Store struct {
	boards map[string]*Board
	mu     sync.RWMutex
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{boards: make(map[string]*Board)}
}

// GetOrCreate returns the resident board, creating it with an empty canvas
// and the default layer when absent.
func (s *Store) GetOrCreate(boardID string) (*Board, bool) {
	return s.GetOrCreateSeeded(boardID, nil)
}

// GetOrCreateSeeded is GetOrCreate with an initial canvas. The seed is only
// used when this call creates the board.
func (s *Store) GetOrCreateSeeded(boardID string, seed *model.CanvasData) (*Board, bool) {
	s.mu.RLock()
	b, ok := s.boards[boardID]
	s.mu.RUnlock()
	if ok {
		return b, false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if b, ok := s.boards[boardID]; ok {
		return b, false
	}

	b = newBoard(boardID, seed)
	s.boards[boardID] = b
	log.Printf("[BoardStore] Created board: %s (total: %d)", boardID, len(s.boards))
	return b, true
}

// Get returns the resident board without creating it.
func (s *Store) Get(boardID string) (*Board, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, ok := s.boards[boardID]
	return b, ok
}

// IDs lists resident board ids in sorted order.
func (s *Store) IDs() []string {
	s.mu.RLock()
	ids := make([]string, 0, len(s.boards))
	for id := range s.boards {
		ids = append(ids, id)
	}
	s.mu.RUnlock()

	sort.Strings(ids)
	return ids
}

// Len returns the number of resident boards.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.boards)
}

// RemoveIf drops the board when evict returns true. evict runs while the store
// lock is held, so a concurrent GetOrCreate cannot hand out the board being
// removed.
func (s *Store) RemoveIf(boardID string, evict func(*Board) bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.boards[boardID]
	if !ok || !evict(b) {
		return false
	}
	delete(s.boards, boardID)
	log.Printf("[BoardStore] Removed board: %s (total: %d)", boardID, len(s.boards))
	return true
}
