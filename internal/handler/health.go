package handler

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/Ritinder-Singh/collaborative-whiteboard/internal/board"
	"github.com/Ritinder-Singh/collaborative-whiteboard/internal/cache"
)

// HealthHandler 헬스체크 핸들러
type HealthHandler struct {
	db     *gorm.DB
	redis  *cache.RedisClient
	boards *board.Store
	hub    *ConnectionHub
}

// NewHealthHandler HealthHandler 생성 (db, redis 는 nil 가능)
func NewHealthHandler(db *gorm.DB, redis *cache.RedisClient, boards *board.Store, hub *ConnectionHub) *HealthHandler {
	return &HealthHandler{db: db, redis: redis, boards: boards, hub: hub}
}

// ComponentCheck 컴포넌트 상태
type ComponentCheck struct {
	Status  string `json:"status"`
	Latency string `json:"latency,omitempty"`
	Error   string `json:"error,omitempty"`
}

// HealthResponse 헬스체크 응답
type HealthResponse struct {
	Status      string                    `json:"status"`
	Timestamp   string                    `json:"timestamp"`
	Connections int                       `json:"connections"`
	Boards      int                       `json:"boards"`
	Checks      map[string]ComponentCheck `json:"checks"`
}

// Check 전체 상태 확인 (DB + Redis)
func (h *HealthHandler) Check(c *fiber.Ctx) error {
	response := HealthResponse{
		Status:      "healthy",
		Timestamp:   time.Now().Format(time.RFC3339),
		Connections: h.hub.Count(),
		Boards:      h.boards.Len(),
		Checks:      make(map[string]ComponentCheck),
	}

	// 1. Database 체크
	response.Checks["database"] = h.checkDatabase()
	if response.Checks["database"].Status == "unhealthy" {
		response.Status = "unhealthy"
	}

	// 2. Redis 체크 (캐시는 없어도 동작하므로 degraded)
	response.Checks["redis"] = h.checkRedis(c.UserContext())
	if response.Checks["redis"].Status == "degraded" && response.Status == "healthy" {
		response.Status = "degraded"
	}

	statusCode := fiber.StatusOK
	if response.Status == "unhealthy" {
		statusCode = fiber.StatusServiceUnavailable
	}

	return c.Status(statusCode).JSON(response)
}

func (h *HealthHandler) checkDatabase() ComponentCheck {
	if h.db == nil {
		return ComponentCheck{Status: "not_configured"}
	}

	start := time.Now()
	sqlDB, err := h.db.DB()
	if err != nil {
		return ComponentCheck{Status: "unhealthy", Error: "failed to get database connection"}
	}
	if err := sqlDB.Ping(); err != nil {
		return ComponentCheck{Status: "unhealthy", Error: "database ping failed"}
	}
	return ComponentCheck{Status: "healthy", Latency: time.Since(start).String()}
}

func (h *HealthHandler) checkRedis(ctx context.Context) ComponentCheck {
	if h.redis == nil {
		return ComponentCheck{Status: "not_configured"}
	}

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	start := time.Now()
	if err := h.redis.Health(ctx); err != nil {
		return ComponentCheck{Status: "degraded", Error: "redis unreachable"}
	}
	return ComponentCheck{Status: "healthy", Latency: time.Since(start).String()}
}

// Liveness K8s liveness probe용 (단순 체크)
func (h *HealthHandler) Liveness(c *fiber.Ctx) error {
	return c.SendString("OK")
}

// Readiness K8s readiness probe용 (DB 연결 체크)
func (h *HealthHandler) Readiness(c *fiber.Ctx) error {
	if h.checkDatabase().Status == "unhealthy" {
		return c.Status(fiber.StatusServiceUnavailable).SendString("NOT READY")
	}
	return c.SendString("READY")
}
