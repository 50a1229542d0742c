package collab

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/Ritinder-Singh/collaborative-whiteboard/internal/board"
	"github.com/Ritinder-Singh/collaborative-whiteboard/internal/metrics"
	"github.com/Ritinder-Singh/collaborative-whiteboard/internal/model"
)

// ErrBoardNotResident is returned when a save is requested for a board that
// is not held in memory.
var ErrBoardNotResident = errors.New("board not resident")

// CanvasSaver persists a board canvas.
type CanvasSaver interface {
	SaveCanvas(ctx context.Context, boardID string, canvas model.CanvasData) error
}

// Persister writes dirty boards to durable storage.
type Persister struct {
	boards   *board.Store
	saver    CanvasSaver
	interval time.Duration
	metrics  *metrics.Collector
}

// NewPersister creates a persister. interval <= 0 disables the periodic loop;
// explicit saves and FlushAll still work.
func NewPersister(boards *board.Store, saver CanvasSaver, interval time.Duration, m *metrics.Collector) *Persister {
	return &Persister{
		boards:   boards,
		saver:    saver,
		interval: interval,
		metrics:  m,
	}
}

// Run saves dirty boards every interval until ctx is cancelled.
func (p *Persister) Run(ctx context.Context) {
	if p.interval <= 0 {
		return
	}

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	log.Printf("[Persister] Started (interval: %v)", p.interval)
	for {
		select {
		case <-ctx.Done():
			log.Println("[Persister] Stopped")
			return
		case <-ticker.C:
			if err := p.FlushAll(ctx); err != nil {
				log.Printf("[Persister] Periodic flush failed: %v", err)
			}
		}
	}
}

// FlushAll saves every dirty resident board. It keeps going after a failure
// and returns the joined errors.
func (p *Persister) FlushAll(ctx context.Context) error {
	var errs []error
	saved := 0
	for _, id := range p.boards.IDs() {
		b, ok := p.boards.Get(id)
		if !ok {
			continue
		}
		ok, err := p.saveIfDirty(ctx, b)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if ok {
			saved++
		}
	}
	if saved > 0 {
		log.Printf("[Persister] Saved %d board(s)", saved)
	}
	return errors.Join(errs...)
}

// SaveBoard saves a resident board whether or not it is dirty and returns
// the canvas that was written.
func (p *Persister) SaveBoard(ctx context.Context, boardID string) (model.CanvasData, error) {
	b, ok := p.boards.Get(boardID)
	if !ok {
		return model.CanvasData{}, ErrBoardNotResident
	}

	canvas, rev, dirty := b.DirtySnapshot()
	if !dirty {
		canvas, rev = b.Snapshot(), 0
	}
	if err := p.save(ctx, boardID, canvas); err != nil {
		return model.CanvasData{}, err
	}
	if rev > 0 {
		b.MarkSaved(rev)
	}
	return canvas, nil
}

func (p *Persister) saveIfDirty(ctx context.Context, b *board.Board) (bool, error) {
	canvas, rev, dirty := b.DirtySnapshot()
	if !dirty {
		return false, nil
	}
	if err := p.save(ctx, b.ID, canvas); err != nil {
		return false, err
	}
	b.MarkSaved(rev)
	return true, nil
}

func (p *Persister) save(ctx context.Context, boardID string, canvas model.CanvasData) error {
	err := p.saver.SaveCanvas(ctx, boardID, canvas)
	p.metrics.Persisted(err)
	if err != nil {
		return fmt.Errorf("save board %s: %w", boardID, err)
	}
	return nil
}
