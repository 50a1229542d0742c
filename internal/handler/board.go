package handler

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"

	"github.com/Ritinder-Singh/collaborative-whiteboard/internal/auth"
	"github.com/Ritinder-Singh/collaborative-whiteboard/internal/board"
	"github.com/Ritinder-Singh/collaborative-whiteboard/internal/collab"
	"github.com/Ritinder-Singh/collaborative-whiteboard/internal/model"
	"github.com/Ritinder-Singh/collaborative-whiteboard/internal/service"
	"github.com/Ritinder-Singh/collaborative-whiteboard/internal/store"
)

// BoardHandler 보드 REST 핸들러
type BoardHandler struct {
	repo      store.Repository
	boards    *board.Store
	persister *collab.Persister
	router    *collab.Router
}

// NewBoardHandler BoardHandler 생성
func NewBoardHandler(repo store.Repository, boards *board.Store, persister *collab.Persister, router *collab.Router) *BoardHandler {
	return &BoardHandler{
		repo:      repo,
		boards:    boards,
		persister: persister,
		router:    router,
	}
}

// CreateBoardRequest 보드 생성 요청
type CreateBoardRequest struct {
	Name     string `json:"name"`
	IsPublic *bool  `json:"is_public"`
}

// BoardResponse 보드 응답 (요청자 역할 포함)
type BoardResponse struct {
	*model.Board
	Role     string `json:"role,omitempty"`
	Resident bool   `json:"resident"`
}

// CreateBoard 보드 생성
func (h *BoardHandler) CreateBoard(c *fiber.Ctx) error {
	var req CreateBoardRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
		}
	}
	if req.Name == "" {
		req.Name = "Untitled Board"
	}

	b := &model.Board{
		Name:       req.Name,
		IsPublic:   req.IsPublic == nil || *req.IsPublic,
		CanvasData: model.NewCanvas(),
	}

	role := ""
	if claims := auth.GetClaimsFromContext(c); claims != nil {
		owner := claims.UserID
		b.OwnerID = &owner
		role = model.MemberRoleOwner.String()
	}

	if err := h.repo.CreateBoard(c.UserContext(), b); err != nil {
		log.Printf("[Board] Failed to create board: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to create board"})
	}

	log.Printf("[Board] Created board %s (%q)", b.ID, b.Name)
	return c.Status(fiber.StatusCreated).JSON(BoardResponse{Board: b, Role: role})
}

// GetBoard 보드 조회 (메모리에 활성 상태면 실시간 캔버스 반환)
func (h *BoardHandler) GetBoard(c *fiber.Ctx) error {
	b, ok := c.Locals("board").(*model.Board)
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "board not found"})
	}

	resp := BoardResponse{Board: b}
	if claims := auth.GetClaimsFromContext(c); claims != nil {
		resp.Role = service.Role(b, claims.UserID).String()
	}
	if live, ok := h.boards.Get(b.ID); ok {
		b.CanvasData = live.Snapshot()
		resp.Resident = true
	}
	return c.JSON(resp)
}

// ListVersions 버전 히스토리 조회
func (h *BoardHandler) ListVersions(c *fiber.Ctx) error {
	versions, err := h.repo.ListVersions(c.UserContext(), c.Params("id"))
	if err != nil {
		log.Printf("[Board] Failed to list versions: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to list versions"})
	}
	return c.JSON(fiber.Map{"versions": versions})
}

// SaveBoard 활성 보드를 즉시 저장하고 버전 기록
func (h *BoardHandler) SaveBoard(c *fiber.Ctx) error {
	boardID := c.Params("id")

	canvas, err := h.persister.SaveBoard(c.UserContext(), boardID)
	if errors.Is(err, collab.ErrBoardNotResident) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "board is not active"})
	}
	if err != nil {
		log.Printf("[Board] Failed to save board %s: %v", boardID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to save board"})
	}

	var createdBy *string
	if claims := auth.GetClaimsFromContext(c); claims != nil {
		createdBy = &claims.UserID
	}

	version, err := h.repo.CreateVersion(c.UserContext(), boardID, canvas, createdBy)
	if err != nil {
		log.Printf("[Board] Failed to create version for %s: %v", boardID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to create version"})
	}

	return c.JSON(fiber.Map{
		"saved":   true,
		"version": version,
	})
}

// GetPresence 보드의 현재 접속자
func (h *BoardHandler) GetPresence(c *fiber.Ctx) error {
	return c.JSON(h.router.Presence(c.Params("id")))
}
