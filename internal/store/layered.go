package store

import (
	"context"
	"log"

	"github.com/Ritinder-Singh/collaborative-whiteboard/internal/model"
)

// CanvasCache 캔버스 스냅샷 캐시 (Redis)
type CanvasCache interface {
	GetCanvas(ctx context.Context, boardID string) (*model.CanvasData, error)
	SetCanvas(ctx context.Context, boardID string, canvas model.CanvasData) error
}

// Layered 캐시 → 저장소 순으로 읽고, 저장 시 저장소에 쓴 뒤 캐시를 갱신
//
// repo 와 cache 중 하나는 nil 일 수 있다. 캐시 오류는 로그만 남긴다.
type Layered struct {
	repo  Repository
	cache CanvasCache
}

// NewLayered Layered 생성
func NewLayered(repo Repository, cache CanvasCache) *Layered {
	return &Layered{repo: repo, cache: cache}
}

// LoadCanvas 캐시 우선 조회, 캐시 미스 시 저장소 조회 후 캐시 채움
func (l *Layered) LoadCanvas(ctx context.Context, boardID string) (*model.CanvasData, error) {
	if l.cache != nil {
		canvas, err := l.cache.GetCanvas(ctx, boardID)
		if err != nil {
			log.Printf("[Store] Cache read failed for %s: %v", boardID, err)
		} else if canvas != nil {
			return canvas, nil
		}
	}

	if l.repo == nil {
		return nil, nil
	}
	canvas, err := l.repo.LoadCanvas(ctx, boardID)
	if err != nil || canvas == nil {
		return canvas, err
	}

	if l.cache != nil {
		if err := l.cache.SetCanvas(ctx, boardID, *canvas); err != nil {
			log.Printf("[Store] Cache fill failed for %s: %v", boardID, err)
		}
	}
	return canvas, nil
}

// SaveCanvas 저장소 기록 후 캐시 write-through
func (l *Layered) SaveCanvas(ctx context.Context, boardID string, canvas model.CanvasData) error {
	if l.repo != nil {
		if err := l.repo.SaveCanvas(ctx, boardID, canvas); err != nil {
			return err
		}
	}

	if l.cache != nil {
		if err := l.cache.SetCanvas(ctx, boardID, canvas); err != nil {
			// 캐시만 있는 구성에서는 캐시가 유일한 저장소
			if l.repo == nil {
				return err
			}
			log.Printf("[Store] Cache write failed for %s: %v", boardID, err)
		}
	}
	return nil
}
