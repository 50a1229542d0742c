package board

import (
	"encoding/json"
	"maps"
	"sync"

	"github.com/Ritinder-Singh/collaborative-whiteboard/internal/model"
)

// Board is the in-memory canvas of one active board.
//
// All mutations are last-writer-wins. rev counts mutations so the persister
// can tell whether a snapshot is still current when its save completes.
type Board struct {
	ID string

	mu       sync.Mutex
	strokes  []model.Stroke
	objects  []model.Object
	layers   []model.Layer
	rev      uint64
	savedRev uint64
}

func newBoard(id string, seed *model.CanvasData) *Board {
	b := &Board{ID: id}
	b.load(seed)
	return b
}

func (b *Board) load(seed *model.CanvasData) {
	if seed == nil {
		canvas := model.NewCanvas()
		seed = &canvas
	}
	seed.Normalize()

	b.strokes = make([]model.Stroke, 0, len(seed.Strokes))
	for _, s := range seed.Strokes {
		b.strokes = append(b.strokes, s.Clone())
	}
	b.objects = make([]model.Object, 0, len(seed.Objects))
	for _, o := range seed.Objects {
		b.objects = append(b.objects, o.Clone())
	}
	b.layers = append([]model.Layer(nil), seed.Layers...)
}

// AppendStroke adds a new stroke. Points start empty and completed=false
// regardless of the input.
func (b *Board) AppendStroke(s model.Stroke) {
	s.Points = []json.RawMessage{}
	s.Completed = false

	b.mu.Lock()
	defer b.mu.Unlock()

	b.strokes = append(b.strokes, s)
	b.rev++
}

// AppendPoints extends the first incomplete stroke with the given id.
// Reports whether a stroke was found.
func (b *Board) AppendPoints(strokeID string, points []json.RawMessage) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i := range b.strokes {
		s := &b.strokes[i]
		if s.ID == strokeID && !s.Completed {
			s.Points = append(s.Points, points...)
			b.rev++
			return true
		}
	}
	return false
}

// CompleteStroke marks the first stroke with the given id as completed,
// whatever its current state.
func (b *Board) CompleteStroke(strokeID string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i := range b.strokes {
		if b.strokes[i].ID == strokeID {
			b.strokes[i].Completed = true
			b.rev++
			return true
		}
	}
	return false
}

// AppendObject adds an object. The properties map is copied.
func (b *Board) AppendObject(o model.Object) {
	o = o.Clone()

	b.mu.Lock()
	defer b.mu.Unlock()

	b.objects = append(b.objects, o)
	b.rev++
}

// MergeObject overwrites the given top-level properties of the first object
// with the given id. Properties absent from the update are kept.
func (b *Board) MergeObject(objectID string, props map[string]any) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i := range b.objects {
		o := &b.objects[i]
		if o.ID == objectID {
			if o.Properties == nil {
				o.Properties = make(map[string]any, len(props))
			}
			maps.Copy(o.Properties, props)
			b.rev++
			return true
		}
	}
	return false
}

// RemoveObject drops every object with the given id.
func (b *Board) RemoveObject(objectID string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	kept := b.objects[:0]
	removed := false
	for _, o := range b.objects {
		if o.ID == objectID {
			removed = true
			continue
		}
		kept = append(kept, o)
	}
	clear(b.objects[len(kept):])
	b.objects = kept
	if removed {
		b.rev++
	}
	return removed
}

// Clear removes all strokes and objects. Layers are untouched.
func (b *Board) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.strokes = []model.Stroke{}
	b.objects = []model.Object{}
	b.rev++
}

// Snapshot returns a copy of the canvas that is safe to use after the lock
// is released.
func (b *Board) Snapshot() model.CanvasData {
	canvas, _ := b.snapshot()
	return canvas
}

func (b *Board) snapshot() (model.CanvasData, uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	canvas := model.CanvasData{
		Strokes: make([]model.Stroke, len(b.strokes)),
		Objects: make([]model.Object, len(b.objects)),
		Layers:  make([]model.Layer, len(b.layers)),
	}
	for i, s := range b.strokes {
		canvas.Strokes[i] = s.Clone()
	}
	for i, o := range b.objects {
		canvas.Objects[i] = o.Clone()
	}
	copy(canvas.Layers, b.layers)
	return canvas, b.rev
}

// Stroke returns a copy of the first stroke with the given id.
func (b *Board) Stroke(strokeID string) (model.Stroke, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, s := range b.strokes {
		if s.ID == strokeID {
			return s.Clone(), true
		}
	}
	return model.Stroke{}, false
}

// Object returns a copy of the first object with the given id.
func (b *Board) Object(objectID string) (model.Object, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, o := range b.objects {
		if o.ID == objectID {
			return o.Clone(), true
		}
	}
	return model.Object{}, false
}

// Dirty reports whether the board changed since the last MarkSaved.
func (b *Board) Dirty() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.rev != b.savedRev
}

// DirtySnapshot returns a snapshot and its revision when the board has
// unsaved changes.
func (b *Board) DirtySnapshot() (model.CanvasData, uint64, bool) {
	b.mu.Lock()
	dirty := b.rev != b.savedRev
	b.mu.Unlock()
	if !dirty {
		return model.CanvasData{}, 0, false
	}
	canvas, rev := b.snapshot()
	return canvas, rev, true
}

// MarkSaved records that the snapshot taken at rev has been persisted.
func (b *Board) MarkSaved(rev uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if rev > b.savedRev {
		b.savedRev = rev
	}
}
