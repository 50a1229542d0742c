package middleware

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/Ritinder-Singh/collaborative-whiteboard/internal/auth"
	"github.com/Ritinder-Singh/collaborative-whiteboard/internal/service"
	"github.com/Ritinder-Singh/collaborative-whiteboard/internal/store"
)

// BoardMiddleware 보드 권한 미들웨어
type BoardMiddleware struct {
	access *service.BoardAccessService
}

// NewBoardMiddleware BoardMiddleware 생성
func NewBoardMiddleware(access *service.BoardAccessService) *BoardMiddleware {
	return &BoardMiddleware{access: access}
}

func userIDFromContext(c *fiber.Ctx) string {
	if claims := auth.GetClaimsFromContext(c); claims != nil {
		return claims.UserID
	}
	return ""
}

// RequireViewer 보드 조회 권한 필수 (보드가 없으면 404)
func (m *BoardMiddleware) RequireViewer() fiber.Handler {
	return func(c *fiber.Ctx) error {
		board, err := m.access.Load(c.UserContext(), c.Params("id"))
		if errors.Is(err, store.ErrBoardNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "board not found"})
		}
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to load board"})
		}

		userID := userIDFromContext(c)
		if !service.CanView(board, userID) {
			if userID == "" {
				return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
					"error": "authentication required for private boards",
				})
			}
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "access denied"})
		}

		c.Locals("board", board)
		return c.Next()
	}
}

// RequireEditor 캔버스 저장 권한 필수 (owner/editor 또는 잠기지 않은 공개 보드)
func (m *BoardMiddleware) RequireEditor() fiber.Handler {
	return func(c *fiber.Ctx) error {
		ok, err := m.access.CanEditBoard(c.UserContext(), c.Params("id"), userIDFromContext(c))
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to check permissions"})
		}
		if !ok {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "you don't have permission to edit this board",
			})
		}
		return c.Next()
	}
}
