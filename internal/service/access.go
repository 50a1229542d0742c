package service

import (
	"context"
	"errors"

	"github.com/Ritinder-Singh/collaborative-whiteboard/internal/model"
	"github.com/Ritinder-Singh/collaborative-whiteboard/internal/store"
)

// BoardAccessService 보드 멤버십/권한 관련 비즈니스 로직
type BoardAccessService struct {
	repo store.Repository
}

// NewBoardAccessService BoardAccessService 생성
func NewBoardAccessService(repo store.Repository) *BoardAccessService {
	return &BoardAccessService{repo: repo}
}

// Role 사용자의 보드 역할 (없으면 빈 문자열)
func Role(board *model.Board, userID string) model.MemberRole {
	if userID == "" {
		return ""
	}
	if board.OwnerID != nil && *board.OwnerID == userID {
		return model.MemberRoleOwner
	}
	for _, m := range board.Members {
		if m.UserID == userID {
			return model.MemberRole(m.Role)
		}
	}
	return ""
}

// CanView 조회 가능 여부 (공개 보드 또는 소유자/멤버)
func CanView(board *model.Board, userID string) bool {
	return board.IsPublic || Role(board, userID) != ""
}

// CanEdit 캔버스 저장/버전 생성 가능 여부
//
// 잠기지 않은 공개 보드는 누구나, 그 외에는 owner/editor 만.
func CanEdit(board *model.Board, userID string) bool {
	if board.IsPublic && !board.IsLocked {
		return true
	}
	return Role(board, userID).CanEdit()
}

// Load 보드 조회 (store.ErrBoardNotFound 전달)
func (s *BoardAccessService) Load(ctx context.Context, boardID string) (*model.Board, error) {
	return s.repo.GetBoard(ctx, boardID)
}

// Authorize 보드 ID 기준 조회/편집 권한 확인 (WebSocket 참가 시 사용)
//
// 아직 저장된 적 없는 보드는 WebSocket 으로 처음 만들어진 공개 보드로 취급한다.
func (s *BoardAccessService) Authorize(ctx context.Context, boardID, userID string) (canView, canEdit bool, err error) {
	board, err := s.repo.GetBoard(ctx, boardID)
	if errors.Is(err, store.ErrBoardNotFound) {
		return true, true, nil
	}
	if err != nil {
		return false, false, err
	}
	return CanView(board, userID), CanEdit(board, userID), nil
}

// CanEditBoard 보드 ID 기준 편집 권한 확인
func (s *BoardAccessService) CanEditBoard(ctx context.Context, boardID, userID string) (bool, error) {
	_, canEdit, err := s.Authorize(ctx, boardID, userID)
	return canEdit, err
}
