package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Ritinder-Singh/collaborative-whiteboard/internal/model"
)

// MemoryRepository 프로세스 내 Repository (DB 비활성 개발 모드 및 테스트용)
type MemoryRepository struct {
	mu       sync.RWMutex
	boards   map[string]*model.Board
	versions map[string][]model.BoardVersion
	now      func() time.Time
}

// NewMemoryRepository MemoryRepository 생성
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		boards:   make(map[string]*model.Board),
		versions: make(map[string][]model.BoardVersion),
		now:      time.Now,
	}
}

func (r *MemoryRepository) LoadCanvas(_ context.Context, boardID string) (*model.CanvasData, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	b, ok := r.boards[boardID]
	if !ok {
		return nil, nil
	}
	canvas := cloneCanvas(b.CanvasData)
	return &canvas, nil
}

func (r *MemoryRepository) SaveCanvas(_ context.Context, boardID string, canvas model.CanvasData) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	b, ok := r.boards[boardID]
	if !ok {
		b = &model.Board{ID: boardID, Name: "Untitled Board", IsPublic: true, CreatedAt: now}
		r.boards[boardID] = b
	}
	b.CanvasData = cloneCanvas(canvas)
	b.UpdatedAt = now
	return nil
}

func (r *MemoryRepository) CreateBoard(_ context.Context, board *model.Board) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if board.ID == "" {
		board.ID = uuid.New().String()
	}
	now := r.now()
	board.CreatedAt, board.UpdatedAt = now, now
	board.CanvasData.Normalize()
	if board.OwnerID != nil {
		board.Members = []model.BoardMember{{
			BoardID:  board.ID,
			UserID:   *board.OwnerID,
			Role:     model.MemberRoleOwner.String(),
			JoinedAt: now,
		}}
	}

	stored := *board
	stored.CanvasData = cloneCanvas(board.CanvasData)
	stored.Members = append([]model.BoardMember(nil), board.Members...)
	r.boards[board.ID] = &stored
	return nil
}

func (r *MemoryRepository) GetBoard(_ context.Context, boardID string) (*model.Board, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	b, ok := r.boards[boardID]
	if !ok {
		return nil, ErrBoardNotFound
	}
	out := *b
	out.CanvasData = cloneCanvas(b.CanvasData)
	out.Members = append([]model.BoardMember(nil), b.Members...)
	return &out, nil
}

func (r *MemoryRepository) ListBoards(_ context.Context, limit int) ([]model.Board, error) {
	r.mu.RLock()
	boards := make([]model.Board, 0, len(r.boards))
	for _, b := range r.boards {
		out := *b
		out.CanvasData = model.CanvasData{}
		out.Members = nil
		boards = append(boards, out)
	}
	r.mu.RUnlock()

	sort.Slice(boards, func(i, j int) bool { return boards[i].UpdatedAt.After(boards[j].UpdatedAt) })
	if limit > 0 && len(boards) > limit {
		boards = boards[:limit]
	}
	return boards, nil
}

// AddMember 멤버 추가 (역할 덮어쓰기)
func (r *MemoryRepository) AddMember(boardID, userID string, role model.MemberRole) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	b, ok := r.boards[boardID]
	if !ok {
		return ErrBoardNotFound
	}
	for i := range b.Members {
		if b.Members[i].UserID == userID {
			b.Members[i].Role = role.String()
			return nil
		}
	}
	b.Members = append(b.Members, model.BoardMember{BoardID: boardID, UserID: userID, Role: role.String(), JoinedAt: r.now()})
	return nil
}

func (r *MemoryRepository) CreateVersion(_ context.Context, boardID string, canvas model.CanvasData, createdBy *string) (*model.BoardVersion, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.boards[boardID]; !ok {
		return nil, ErrBoardNotFound
	}
	version := model.BoardVersion{
		ID:            uuid.New().String(),
		BoardID:       boardID,
		VersionNumber: len(r.versions[boardID]) + 1,
		CanvasData:    cloneCanvas(canvas),
		CreatedBy:     createdBy,
		CreatedAt:     r.now(),
	}
	r.versions[boardID] = append(r.versions[boardID], version)
	return &version, nil
}

func (r *MemoryRepository) ListVersions(_ context.Context, boardID string) ([]model.BoardVersion, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stored := r.versions[boardID]
	versions := make([]model.BoardVersion, len(stored))
	for i, v := range stored {
		versions[len(stored)-1-i] = v
	}
	return versions, nil
}

func cloneCanvas(c model.CanvasData) model.CanvasData {
	out := model.CanvasData{
		Strokes: make([]model.Stroke, len(c.Strokes)),
		Objects: make([]model.Object, len(c.Objects)),
		Layers:  append([]model.Layer(nil), c.Layers...),
	}
	for i, s := range c.Strokes {
		out.Strokes[i] = s.Clone()
	}
	for i, o := range c.Objects {
		out.Objects[i] = o.Clone()
	}
	out.Normalize()
	return out
}
