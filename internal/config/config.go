package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// DefaultJWTSecret 개발용 기본 시크릿
const DefaultJWTSecret = "dev-secret-change-in-production"

// Config 애플리케이션 전체 설정
type Config struct {
	Server    ServerConfig
	WebSocket WebSocketConfig
	CORS      CORSConfig
	Auth      AuthConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Engine    EngineConfig
}

// ServerConfig HTTP 서버 설정
type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// WebSocketConfig WebSocket 관련 설정
type WebSocketConfig struct {
	ReadBufferSize  int
	WriteBufferSize int
	SendQueueSize   int           // 연결별 송신 큐 길이
	WriteTimeout    time.Duration // 프레임당 쓰기 데드라인
}

// CORSConfig CORS 설정
type CORSConfig struct {
	AllowOrigins string
	AllowHeaders string
}

// AuthConfig 인증 설정
type AuthConfig struct {
	JWTSecret         string
	Required          bool // true 이면 유효한 토큰 없는 WebSocket 업그레이드 거부
	AccessTokenExpiry time.Duration
}

// DatabaseConfig PostgreSQL 설정
type DatabaseConfig struct {
	Enabled  bool
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
	TimeZone string
}

// RedisConfig Redis 설정 (Addr 비어 있으면 비활성)
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// EngineConfig 협업 엔진 설정
type EngineConfig struct {
	PersistInterval   time.Duration // 0 이면 주기 저장 비활성
	IdleEviction      time.Duration // 0 이면 보드를 메모리에서 내리지 않음
	HydrateOnJoin     bool
	Debug             bool
	HydrateTimeout    time.Duration
	ShutdownFlushTime time.Duration
}

// Load 환경 변수에서 설정 로드
func Load() *Config {
	// .env 파일 로드 (없어도 에러 무시)
	if err := godotenv.Load(); err != nil {
		log.Println("[Config] No .env file found, using environment variables")
	}

	cfg := FromEnv()
	if cfg.Auth.JWTSecret == DefaultJWTSecret {
		log.Println("[Config] WARNING: JWT_SECRET is the development default")
	}
	return cfg
}

// FromEnv 현재 프로세스 환경 변수로 설정 구성 (.env 로드 없음)
func FromEnv() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         getEnv("PORT", ":8000"),
			ReadTimeout:  getDuration("READ_TIMEOUT", 10*time.Second),
			WriteTimeout: getDuration("WRITE_TIMEOUT", 10*time.Second),
			IdleTimeout:  getDuration("IDLE_TIMEOUT", 120*time.Second),
		},
		WebSocket: WebSocketConfig{
			ReadBufferSize:  getInt("WS_READ_BUFFER_SIZE", 16*1024),
			WriteBufferSize: getInt("WS_WRITE_BUFFER_SIZE", 16*1024),
			SendQueueSize:   getInt("WS_SEND_QUEUE_SIZE", 256),
			WriteTimeout:    getDuration("WS_WRITE_TIMEOUT", 5*time.Second),
		},
		CORS: CORSConfig{
			AllowOrigins: getEnv("CORS_ALLOW_ORIGINS", "*"),
			AllowHeaders: getEnv("CORS_ALLOW_HEADERS", "Origin, Content-Type, Accept, Authorization"),
		},
		Auth: AuthConfig{
			JWTSecret:         getEnv("JWT_SECRET", DefaultJWTSecret),
			Required:          getBool("AUTH_REQUIRED", false),
			AccessTokenExpiry: getDuration("ACCESS_TOKEN_EXPIRY", 24*time.Hour),
		},
		Database: DatabaseConfig{
			Enabled:  getBool("DB_ENABLED", false),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			DBName:   getEnv("DB_NAME", "whiteboard"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
			TimeZone: getEnv("DB_TIMEZONE", "UTC"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getInt("REDIS_DB", 0),
		},
		Engine: EngineConfig{
			PersistInterval:   getDuration("PERSIST_INTERVAL", 30*time.Second),
			IdleEviction:      getDuration("BOARD_IDLE_EVICTION", 0),
			HydrateOnJoin:     getBool("HYDRATE_ON_JOIN", true),
			Debug:             getBool("LOG_DEBUG", false),
			HydrateTimeout:    getDuration("HYDRATE_TIMEOUT", 3*time.Second),
			ShutdownFlushTime: getDuration("SHUTDOWN_FLUSH_TIMEOUT", 10*time.Second),
		},
	}
}

// getEnv 환경 변수 조회 (기본값 지원)
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getInt 정수형 환경 변수 조회
func getInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getBool 불리언 환경 변수 조회
func getBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1" || value == "yes"
	}
	return defaultValue
}

// getDuration 시간 환경 변수 조회
func getDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		// 숫자만 있으면 초로 간주
		if !strings.ContainsAny(value, "smh") {
			if secs, err := strconv.Atoi(value); err == nil {
				return time.Duration(secs) * time.Second
			}
		}
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
