package main

import (
	"log"

	"gorm.io/gorm"

	"github.com/Ritinder-Singh/collaborative-whiteboard/internal/cache"
	"github.com/Ritinder-Singh/collaborative-whiteboard/internal/config"
	"github.com/Ritinder-Singh/collaborative-whiteboard/internal/database"
	"github.com/Ritinder-Singh/collaborative-whiteboard/internal/server"
)

func main() {
	// 설정 로드
	cfg := config.Load()

	// 데이터베이스 연결 (선택)
	var db *gorm.DB
	if cfg.Database.Enabled {
		var err error
		db, err = database.Connect(cfg.Database)
		if err != nil {
			log.Fatalf("[Main] Database connection failed: %v", err)
		}
		defer database.Close(db)

		if err := database.Ping(db); err != nil {
			log.Fatalf("[Main] Database ping failed: %v", err)
		}
		log.Printf("[Main] Database connected (%s:%s/%s)", cfg.Database.Host, cfg.Database.Port, cfg.Database.DBName)
	}

	// Redis 연결 (선택, 실패 시 캐시 없이 동작)
	var redisClient *cache.RedisClient
	if cfg.Redis.Addr != "" {
		var err error
		redisClient, err = cache.NewRedisClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			log.Printf("[Main] Redis unavailable, continuing without cache: %v", err)
			redisClient = nil
		} else {
			defer redisClient.Close()
		}
	}

	// 서버 생성 및 설정
	srv := server.New(cfg, db, redisClient)
	srv.SetupMiddleware()
	srv.SetupRoutes()

	// 서버 시작
	if err := srv.Start(); err != nil {
		log.Fatalf("Server failed to start: %v", err)
	}
}
