package collab

import (
	"context"
	"log"
	"time"

	"github.com/Ritinder-Singh/collaborative-whiteboard/internal/board"
	"github.com/Ritinder-Singh/collaborative-whiteboard/internal/metrics"
	"github.com/Ritinder-Singh/collaborative-whiteboard/internal/room"
)

// Evictor drops boards whose room has been empty for longer than idle.
// Without an evictor boards stay resident for the life of the process.
type Evictor struct {
	boards    *board.Store
	rooms     *room.Index
	persister *Persister
	idle      time.Duration
	metrics   *metrics.Collector
	now       func() time.Time
}

// NewEvictor creates an evictor. persister may be nil, in which case dirty
// boards are never evicted.
func NewEvictor(boards *board.Store, rooms *room.Index, persister *Persister, idle time.Duration, m *metrics.Collector) *Evictor {
	return &Evictor{
		boards:    boards,
		rooms:     rooms,
		persister: persister,
		idle:      idle,
		metrics:   m,
		now:       time.Now,
	}
}

// Run sweeps periodically until ctx is cancelled.
func (e *Evictor) Run(ctx context.Context) {
	if e.idle <= 0 {
		return
	}

	every := e.idle / 2
	if every < time.Second {
		every = time.Second
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	log.Printf("[Evictor] Started (idle: %v)", e.idle)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.Sweep(ctx)
		}
	}
}

// Sweep evicts every idle board and returns how many were removed.
func (e *Evictor) Sweep(ctx context.Context) int {
	evicted := 0
	for _, id := range e.boards.IDs() {
		if !e.idleLongEnough(id) {
			continue
		}

		b, ok := e.boards.Get(id)
		if !ok {
			continue
		}
		if e.persister != nil {
			if _, err := e.persister.saveIfDirty(ctx, b); err != nil {
				log.Printf("[Evictor] Keeping board %s, save failed: %v", id, err)
				continue
			}
		}

		removed := e.boards.RemoveIf(id, func(b *board.Board) bool {
			return e.rooms.Count(id) == 0 && !b.Dirty()
		})
		if !removed {
			continue
		}
		e.rooms.Forget(id)
		e.metrics.Evicted()
		evicted++
	}

	if evicted > 0 {
		e.metrics.SetResidentBoards(e.boards.Len())
		log.Printf("[Evictor] Evicted %d idle board(s)", evicted)
	}
	return evicted
}

func (e *Evictor) idleLongEnough(boardID string) bool {
	if e.rooms.Count(boardID) > 0 {
		return false
	}
	since, ok := e.rooms.EmptySince(boardID)
	if !ok {
		return false
	}
	return e.now().Sub(since) >= e.idle
}
