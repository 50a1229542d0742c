package handler

import (
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"

	"github.com/Ritinder-Singh/collaborative-whiteboard/internal/auth"
	"github.com/Ritinder-Singh/collaborative-whiteboard/internal/collab"
	"github.com/Ritinder-Singh/collaborative-whiteboard/internal/config"
	"github.com/Ritinder-Singh/collaborative-whiteboard/internal/metrics"
	"github.com/Ritinder-Singh/collaborative-whiteboard/internal/session"
)

const (
	msgTypePing = "ping"
	msgTypePong = "pong"
)

// BoardWSHandler 화이트보드 WebSocket 핸들러
type BoardWSHandler struct {
	hub          *ConnectionHub
	router       *collab.Router
	jwtManager   *auth.JWTManager
	authRequired bool
	queueSize    int
	writeTimeout time.Duration
	metrics      *metrics.Collector
	debug        bool
}

// NewBoardWSHandler BoardWSHandler 생성
func NewBoardWSHandler(hub *ConnectionHub, router *collab.Router, jwtManager *auth.JWTManager, cfg *config.Config, m *metrics.Collector) *BoardWSHandler {
	return &BoardWSHandler{
		hub:          hub,
		router:       router,
		jwtManager:   jwtManager,
		authRequired: cfg.Auth.Required,
		queueSize:    cfg.WebSocket.SendQueueSize,
		writeTimeout: cfg.WebSocket.WriteTimeout,
		metrics:      m,
		debug:        cfg.Engine.Debug,
	}
}

// Upgrade WebSocket 업그레이드 전 토큰 검증
//
// 유효한 토큰이 있으면 신원을 Locals 에 저장한다. AUTH_REQUIRED 가 꺼져 있으면
// 토큰 없이도 익명으로 연결할 수 있다.
func (h *BoardWSHandler) Upgrade(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}

	token := auth.TokenFromRequest(c)
	if token == "" {
		if h.authRequired {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "missing authorization token"})
		}
		return c.Next()
	}

	claims, err := h.jwtManager.ValidateAccessToken(token)
	if err != nil {
		if h.authRequired {
			status := fiber.Map{"error": "invalid token"}
			if errors.Is(err, auth.ErrExpiredToken) {
				status = fiber.Map{"error": "token expired", "code": "TOKEN_EXPIRED"}
			}
			return c.Status(fiber.StatusUnauthorized).JSON(status)
		}
		log.Printf("[WS] Ignoring invalid token on anonymous upgrade: %v", err)
		return c.Next()
	}

	c.Locals(auth.LocalUserID, claims.UserID)
	c.Locals(auth.LocalDisplayName, claims.DisplayName)
	return c.Next()
}

// HandleWebSocket 연결 하나의 수명 주기 처리
//
// 읽기 루프가 이벤트를 순서대로 라우터에 전달하고, 송신은 세션 큐를 비우는
// 단일 writer 고루틴이 담당한다.
func (h *BoardWSHandler) HandleWebSocket(c *websocket.Conn) {
	userID, _ := c.Locals(auth.LocalUserID).(string)
	displayName, _ := c.Locals(auth.LocalDisplayName).(string)

	sess := session.New(h.queueSize)
	sid := sess.ID
	h.hub.Add(sess)
	h.metrics.ConnectionOpened()

	log.Printf("[WS] Client connected: %s (user=%q)", sid, userID)

	writerDone := make(chan struct{})
	go h.writePump(c, sess, writerDone)

	defer func() {
		h.router.Disconnect(sid)
		h.hub.Remove(sid)
		sess.Close()
		<-writerDone
		c.Close()
		h.metrics.ConnectionClosed()

		in, out, dropped := sess.GetStats()
		log.Printf("[WS] Client disconnected: %s (duration=%v, in=%d, out=%d, dropped=%d)",
			sid, sess.Duration().Round(time.Millisecond), in, out, dropped)
	}()

	h.router.Connect(sid)

	for {
		_, msgBytes, err := c.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("[WS] Read error for %s: %v", sid, err)
			}
			return
		}
		sess.IncrementFramesIn()

		var env collab.Envelope
		if err := json.Unmarshal(msgBytes, &env); err != nil {
			h.tracef("undecodable frame from %s: %v", sid, err)
			continue
		}

		if env.Type == msgTypePing {
			h.hub.Emit([]string{sid}, msgTypePong, nil)
			continue
		}

		ev, err := collab.Decode(env, sid)
		if err != nil {
			h.tracef("ignoring frame from %s: %v", sid, err)
			continue
		}

		// 검증된 신원이 클라이언트가 보낸 값보다 우선
		if join, ok := ev.(collab.JoinBoard); ok && userID != "" {
			join.UserID = userID
			join.Verified = true
			if displayName != "" {
				join.DisplayName = displayName
			}
			ev = join
		}

		h.router.Dispatch(sid, ev)
	}
}

// writePump 세션 송신 큐를 순서대로 소켓에 기록
func (h *BoardWSHandler) writePump(c *websocket.Conn, sess *session.Session, done chan<- struct{}) {
	defer close(done)

	for frame := range sess.Outbox {
		if h.writeTimeout > 0 {
			_ = c.SetWriteDeadline(time.Now().Add(h.writeTimeout))
		}
		if err := c.WriteMessage(websocket.TextMessage, frame); err != nil {
			log.Printf("[WS] Write error for %s: %v", sess.ID, err)
			// 읽기 루프를 깨우고 큐는 닫힐 때까지 비운다
			_ = c.Close()
			for range sess.Outbox {
			}
			return
		}
		sess.IncrementFramesOut()
	}
	// 큐가 닫힘 (정상 종료 또는 느린 클라이언트 차단): 읽기 루프도 종료
	_ = c.Close()
}

func (h *BoardWSHandler) tracef(format string, args ...any) {
	if h.debug {
		log.Printf("[WS] debug: "+format, args...)
	}
}
