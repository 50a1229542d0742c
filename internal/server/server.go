package server

import (
	"context"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/Ritinder-Singh/collaborative-whiteboard/internal/auth"
	"github.com/Ritinder-Singh/collaborative-whiteboard/internal/board"
	"github.com/Ritinder-Singh/collaborative-whiteboard/internal/cache"
	"github.com/Ritinder-Singh/collaborative-whiteboard/internal/collab"
	"github.com/Ritinder-Singh/collaborative-whiteboard/internal/config"
	"github.com/Ritinder-Singh/collaborative-whiteboard/internal/handler"
	"github.com/Ritinder-Singh/collaborative-whiteboard/internal/metrics"
	"github.com/Ritinder-Singh/collaborative-whiteboard/internal/middleware"
	"github.com/Ritinder-Singh/collaborative-whiteboard/internal/presence"
	"github.com/Ritinder-Singh/collaborative-whiteboard/internal/room"
	"github.com/Ritinder-Singh/collaborative-whiteboard/internal/service"
	"github.com/Ritinder-Singh/collaborative-whiteboard/internal/session"
	"github.com/Ritinder-Singh/collaborative-whiteboard/internal/store"
)

// Server Fiber 서버 래퍼
//
// 협업 엔진 서비스(레지스트리, 보드 스토어, 룸 인덱스, 라우터)는 프로세스당 한 번
// 생성되어 모든 연결이 공유한다.
type Server struct {
	app   *fiber.App
	cfg   *config.Config
	db    *gorm.DB
	redis *cache.RedisClient

	registry  *session.Registry
	boards    *board.Store
	rooms     *room.Index
	hub       *handler.ConnectionHub
	router    *collab.Router
	persister *collab.Persister
	evictor   *collab.Evictor
	mirror    *presence.Mirror

	repo       store.Repository
	jwtManager *auth.JWTManager
	promReg    *prometheus.Registry

	boardHandler    *handler.BoardHandler
	boardWSHandler  *handler.BoardWSHandler
	healthHandler   *handler.HealthHandler
	boardMiddleware *middleware.BoardMiddleware

	cancelWorkers context.CancelFunc
	workers       sync.WaitGroup
}

// New 새 서버 인스턴스 생성 (db, redis 는 nil 가능)
func New(cfg *config.Config, db *gorm.DB, redis *cache.RedisClient) *Server {
	app := fiber.New(fiber.Config{
		AppName:         "Collaborative Whiteboard",
		ServerHeader:    "Fiber",
		StrictRouting:   true,
		CaseSensitive:   true,
		ReadTimeout:     cfg.Server.ReadTimeout,
		WriteTimeout:    cfg.Server.WriteTimeout,
		IdleTimeout:     cfg.Server.IdleTimeout,
		Prefork:         false, // WebSocket과 호환성 문제로 비활성화
		ReadBufferSize:  16384,
		WriteBufferSize: 16384,
		BodyLimit:       4 * 1024 * 1024,
	})

	// Metrics
	promReg := prometheus.NewRegistry()
	promReg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(promReg)

	// 영속 저장소 (DB 비활성 시 프로세스 내 저장소)
	var repo store.Repository
	if db != nil {
		repo = store.NewGormRepository(db)
	} else {
		repo = store.NewMemoryRepository()
		log.Println("[Server] Database disabled, boards are kept in memory only")
	}
	var canvasCache store.CanvasCache
	if redis != nil {
		canvasCache = redis
	}
	layered := store.NewLayered(repo, canvasCache)

	// 협업 엔진
	registry := session.NewRegistry()
	boards := board.NewStore()
	rooms := room.NewIndex(registry)
	hub := handler.NewConnectionHub(m)

	access := service.NewBoardAccessService(repo)
	routerOpts := collab.RouterOptions{
		Access:         access,
		HydrateTimeout: cfg.Engine.HydrateTimeout,
		Metrics:        m,
		Debug:          cfg.Engine.Debug,
	}
	if cfg.Engine.HydrateOnJoin {
		routerOpts.Hydrator = layered
	}
	var mirror *presence.Mirror
	if redis != nil {
		mirror = presence.NewMirror(redis.Client(), presence.DefaultQueueSize)
		routerOpts.Presence = mirror
	}
	router := collab.NewRouter(registry, boards, rooms, hub, routerOpts)

	persister := collab.NewPersister(boards, layered, cfg.Engine.PersistInterval, m)
	var evictor *collab.Evictor
	if cfg.Engine.IdleEviction > 0 {
		evictor = collab.NewEvictor(boards, rooms, persister, cfg.Engine.IdleEviction, m)
	}

	jwtManager := auth.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenExpiry)

	return &Server{
		app:             app,
		cfg:             cfg,
		db:              db,
		redis:           redis,
		registry:        registry,
		boards:          boards,
		rooms:           rooms,
		hub:             hub,
		router:          router,
		persister:       persister,
		evictor:         evictor,
		mirror:          mirror,
		repo:            repo,
		jwtManager:      jwtManager,
		promReg:         promReg,
		boardHandler:    handler.NewBoardHandler(repo, boards, persister, router),
		boardWSHandler:  handler.NewBoardWSHandler(hub, router, jwtManager, cfg, m),
		healthHandler:   handler.NewHealthHandler(db, redis, boards, hub),
		boardMiddleware: middleware.NewBoardMiddleware(access),
	}
}

// App Fiber 앱 (테스트용)
func (s *Server) App() *fiber.App {
	return s.app
}

// JWTManager 토큰 관리자
func (s *Server) JWTManager() *auth.JWTManager {
	return s.jwtManager
}

// SetupMiddleware 미들웨어 설정
func (s *Server) SetupMiddleware() {
	// 패닉 복구
	s.app.Use(recover.New(recover.Config{
		EnableStackTrace: true,
	}))

	// 로깅
	s.app.Use(logger.New(logger.Config{
		Format:     "${time} | ${status} | ${latency} | ${ip} | ${method} ${path}\n",
		TimeFormat: "2006-01-02 15:04:05",
		TimeZone:   "UTC",
	}))

	// CORS
	s.app.Use(cors.New(cors.Config{
		AllowOrigins: s.cfg.CORS.AllowOrigins,
		AllowHeaders: s.cfg.CORS.AllowHeaders,
		AllowMethods: "GET, POST, PUT, DELETE, OPTIONS",
	}))
}

// SetupRoutes 라우트 설정
func (s *Server) SetupRoutes() {
	// 헬스체크 / 메트릭
	s.app.Get("/health", s.healthHandler.Check)
	s.app.Get("/health/live", s.healthHandler.Liveness)
	s.app.Get("/health/ready", s.healthHandler.Readiness)
	s.app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(s.promReg, promhttp.HandlerOpts{})))

	// 보드 생성 Rate Limiter
	createLimiter := limiter.New(limiter.Config{
		Max:        30,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP() // IP 기반 제한
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "too many requests, please try again later",
			})
		},
	})

	// Board 라우트 그룹 (인증 선택)
	boardGroup := s.app.Group("/api/boards", auth.OptionalAuthMiddleware(s.jwtManager))
	boardGroup.Post("", createLimiter, s.boardHandler.CreateBoard)
	boardGroup.Get("/:id", s.boardMiddleware.RequireViewer(), s.boardHandler.GetBoard)
	boardGroup.Get("/:id/versions", s.boardMiddleware.RequireViewer(), s.boardHandler.ListVersions)
	boardGroup.Post("/:id/save", s.boardMiddleware.RequireEditor(), s.boardHandler.SaveBoard)
	boardGroup.Get("/:id/presence", s.boardMiddleware.RequireViewer(), s.boardHandler.GetPresence)

	// WebSocket 협업 엔드포인트
	s.app.Get("/ws/board", s.boardWSHandler.Upgrade, websocket.New(s.boardWSHandler.HandleWebSocket, websocket.Config{
		ReadBufferSize:  s.cfg.WebSocket.ReadBufferSize,
		WriteBufferSize: s.cfg.WebSocket.WriteBufferSize,
	}))
}

// StartWorkers 백그라운드 작업 시작 (주기 저장, 유휴 보드 정리, presence 미러)
func (s *Server) StartWorkers() {
	ctx, cancel := context.WithCancel(context.Background())
	s.cancelWorkers = cancel

	s.spawn(func() { s.persister.Run(ctx) })
	if s.evictor != nil {
		s.spawn(func() { s.evictor.Run(ctx) })
	}
	if s.mirror != nil {
		s.spawn(func() { s.mirror.Run(ctx) })
	}
}

func (s *Server) spawn(fn func()) {
	s.workers.Add(1)
	go func() {
		defer s.workers.Done()
		fn()
	}()
}

// Start 서버 시작 (Graceful Shutdown 지원)
func (s *Server) Start() error {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		log.Println("[Server] Shutting down...")
		if err := s.Shutdown(); err != nil {
			log.Printf("[Server] Shutdown error: %v", err)
		}
	}()

	s.StartWorkers()

	log.Printf("[Server] Collaborative whiteboard starting on %s", s.cfg.Server.Port)
	log.Printf("[Server] WebSocket endpoint: ws://localhost%s/ws/board", s.cfg.Server.Port)

	return s.app.Listen(s.cfg.Server.Port)
}

// Shutdown 서버 종료: 연결 종료 → 워커 정지 → 미저장 보드 flush
func (s *Server) Shutdown() error {
	err := s.app.ShutdownWithTimeout(30 * time.Second)

	if s.cancelWorkers != nil {
		s.cancelWorkers()
	}
	s.workers.Wait()

	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.Engine.ShutdownFlushTime)
	defer cancel()
	if flushErr := s.persister.FlushAll(ctx); flushErr != nil {
		log.Printf("[Server] Final flush incomplete: %v", flushErr)
	} else {
		log.Printf("[Server] Flushed %d resident board(s)", s.boards.Len())
	}
	return err
}
