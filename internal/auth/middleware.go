package auth

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// Locals 키
const (
	LocalUserID      = "userID"
	LocalDisplayName = "displayName"
	LocalClaims      = "claims"
)

// TokenFromRequest 토큰 추출 (Authorization 헤더 → access_token 쿠키 → token 쿼리)
//
// 브라우저 WebSocket 은 헤더를 설정할 수 없으므로 쿼리 파라미터도 허용한다.
func TokenFromRequest(c *fiber.Ctx) string {
	if header := c.Get(fiber.HeaderAuthorization); header != "" {
		parts := strings.Fields(header)
		if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
			return parts[1]
		}
		return ""
	}
	if cookie := c.Cookies("access_token"); cookie != "" {
		return cookie
	}
	return c.Query("token")
}

// AuthMiddleware JWT 인증 미들웨어
func AuthMiddleware(jwtManager *JWTManager) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := TokenFromRequest(c)
		if token == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "missing authorization token",
			})
		}

		claims, err := jwtManager.ValidateAccessToken(token)
		if err != nil {
			if errors.Is(err, ErrExpiredToken) {
				return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
					"error": "token expired",
					"code":  "TOKEN_EXPIRED",
				})
			}
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "invalid token",
			})
		}

		setClaims(c, claims)
		return c.Next()
	}
}

// OptionalAuthMiddleware 선택적 인증 미들웨어 (인증 실패해도 계속 진행)
func OptionalAuthMiddleware(jwtManager *JWTManager) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if token := TokenFromRequest(c); token != "" {
			if claims, err := jwtManager.ValidateAccessToken(token); err == nil {
				setClaims(c, claims)
			}
		}
		return c.Next()
	}
}

// GetClaimsFromContext 컨텍스트에서 클레임 조회 (미인증이면 nil)
func GetClaimsFromContext(c *fiber.Ctx) *Claims {
	claims, _ := c.Locals(LocalClaims).(*Claims)
	return claims
}

func setClaims(c *fiber.Ctx, claims *Claims) {
	c.Locals(LocalUserID, claims.UserID)
	c.Locals(LocalDisplayName, claims.DisplayName)
	c.Locals(LocalClaims, claims)
}
