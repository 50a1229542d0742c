package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Ritinder-Singh/collaborative-whiteboard/internal/model"
)

// ErrBoardNotFound 보드 없음
var ErrBoardNotFound = errors.New("board not found")

// Repository 보드 영속 저장소
type Repository interface {
	// LoadCanvas 저장된 캔버스 조회 (없으면 nil, nil)
	LoadCanvas(ctx context.Context, boardID string) (*model.CanvasData, error)
	// SaveCanvas 캔버스 저장 (보드 레코드가 없으면 생성)
	SaveCanvas(ctx context.Context, boardID string, canvas model.CanvasData) error

	CreateBoard(ctx context.Context, board *model.Board) error
	// GetBoard 멤버 포함 조회 (없으면 ErrBoardNotFound)
	GetBoard(ctx context.Context, boardID string) (*model.Board, error)
	ListBoards(ctx context.Context, limit int) ([]model.Board, error)

	CreateVersion(ctx context.Context, boardID string, canvas model.CanvasData, createdBy *string) (*model.BoardVersion, error)
	ListVersions(ctx context.Context, boardID string) ([]model.BoardVersion, error)
}

// GormRepository PostgreSQL 기반 Repository
type GormRepository struct {
	db *gorm.DB
}

// NewGormRepository GormRepository 생성
func NewGormRepository(db *gorm.DB) *GormRepository {
	return &GormRepository{db: db}
}

// LoadCanvas 저장된 캔버스 조회
func (r *GormRepository) LoadCanvas(ctx context.Context, boardID string) (*model.CanvasData, error) {
	var board model.Board
	err := r.db.WithContext(ctx).Select("id", "canvas_data").Where("id = ?", boardID).First(&board).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load canvas %s: %w", boardID, err)
	}
	return &board.CanvasData, nil
}

// SaveCanvas 캔버스 upsert
func (r *GormRepository) SaveCanvas(ctx context.Context, boardID string, canvas model.CanvasData) error {
	board := model.Board{
		ID:         boardID,
		Name:       "Untitled Board",
		IsPublic:   true,
		CanvasData: canvas,
	}

	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.Assignments(map[string]any{"canvas_data": canvas, "updated_at": time.Now()}),
	}).Create(&board).Error
	if err != nil {
		return fmt.Errorf("save canvas %s: %w", boardID, err)
	}
	return nil
}

// CreateBoard 보드 생성 (소유자가 있으면 owner 멤버로 등록)
func (r *GormRepository) CreateBoard(ctx context.Context, board *model.Board) error {
	if board.ID == "" {
		board.ID = uuid.New().String()
	}
	board.CanvasData.Normalize()

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(board).Error; err != nil {
			return fmt.Errorf("create board: %w", err)
		}
		if board.OwnerID == nil {
			return nil
		}
		member := model.BoardMember{
			BoardID: board.ID,
			UserID:  *board.OwnerID,
			Role:    model.MemberRoleOwner.String(),
		}
		if err := tx.Create(&member).Error; err != nil {
			return fmt.Errorf("add owner: %w", err)
		}
		board.Members = []model.BoardMember{member}
		return nil
	})
}

// GetBoard 보드 조회
func (r *GormRepository) GetBoard(ctx context.Context, boardID string) (*model.Board, error) {
	var board model.Board
	err := r.db.WithContext(ctx).Preload("Members").Where("id = ?", boardID).First(&board).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrBoardNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get board %s: %w", boardID, err)
	}
	return &board, nil
}

// ListBoards 최근 수정 순 보드 목록
func (r *GormRepository) ListBoards(ctx context.Context, limit int) ([]model.Board, error) {
	if limit <= 0 {
		limit = 50
	}
	var boards []model.Board
	err := r.db.WithContext(ctx).
		Omit("canvas_data").
		Order("updated_at DESC").
		Limit(limit).
		Find(&boards).Error
	if err != nil {
		return nil, fmt.Errorf("list boards: %w", err)
	}
	return boards, nil
}

// CreateVersion 버전 생성 (번호는 보드별 max+1)
func (r *GormRepository) CreateVersion(ctx context.Context, boardID string, canvas model.CanvasData, createdBy *string) (*model.BoardVersion, error) {
	version := &model.BoardVersion{
		ID:         uuid.New().String(),
		BoardID:    boardID,
		CanvasData: canvas,
		CreatedBy:  createdBy,
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// 같은 보드의 버전 번호 경합 방지
		var board model.Board
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Select("id").Where("id = ?", boardID).First(&board).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrBoardNotFound
			}
			return err
		}

		var maxVersion *int
		if err := tx.Model(&model.BoardVersion{}).
			Where("board_id = ?", boardID).
			Select("MAX(version_number)").
			Scan(&maxVersion).Error; err != nil {
			return err
		}
		version.VersionNumber = 1
		if maxVersion != nil {
			version.VersionNumber = *maxVersion + 1
		}
		return tx.Create(version).Error
	})
	if err != nil {
		return nil, fmt.Errorf("create version for %s: %w", boardID, err)
	}
	return version, nil
}

// ListVersions 최신 버전 순 목록
func (r *GormRepository) ListVersions(ctx context.Context, boardID string) ([]model.BoardVersion, error) {
	var versions []model.BoardVersion
	err := r.db.WithContext(ctx).
		Omit("canvas_data").
		Where("board_id = ?", boardID).
		Order("version_number DESC").
		Find(&versions).Error
	if err != nil {
		return nil, fmt.Errorf("list versions for %s: %w", boardID, err)
	}
	return versions, nil
}
