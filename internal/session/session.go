package session

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// State WebSocket 연결 상태
type State int

const (
	StateOpen   State = iota // 연결됨
	StateClosed              // 연결 종료
)

// Session 클라이언트 연결 세션 (Thread-Safe)
//
// Outbox 는 단일 writer 고루틴이 소비하는 송신 큐. 연결별 FIFO 순서를 보장한다.
type Session struct {
	ID          string
	State       State
	ConnectedAt time.Time

	framesIn  atomic.Uint64
	framesOut atomic.Uint64
	dropped   atomic.Uint64

	// 동시성 제어
	mu sync.RWMutex

	Outbox chan []byte
}

// New 새 세션 생성
func New(queueSize int) *Session {
	return &Session{
		ID:          uuid.New().String(),
		State:       StateOpen,
		ConnectedAt: time.Now(),
		Outbox:      make(chan []byte, queueSize),
	}
}

// Enqueue 송신 큐에 프레임 추가. 큐가 가득 찼거나 닫힌 경우 false
func (s *Session) Enqueue(frame []byte) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.State == StateClosed {
		return false
	}

	select {
	case s.Outbox <- frame:
		return true
	default:
		s.dropped.Add(1)
		return false
	}
}

// IncrementFramesIn 수신 프레임 카운트 증가
func (s *Session) IncrementFramesIn() uint64 {
	return s.framesIn.Add(1)
}

// IncrementFramesOut 송신 프레임 카운트 증가
func (s *Session) IncrementFramesOut() {
	s.framesOut.Add(1)
}

// GetStats 통계 조회
func (s *Session) GetStats() (framesIn, framesOut, dropped uint64) {
	return s.framesIn.Load(), s.framesOut.Load(), s.dropped.Load()
}

// Duration 연결 유지 시간
func (s *Session) Duration() time.Duration {
	return time.Since(s.ConnectedAt)
}

// Close 세션 정리 (중복 호출 안전)
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.State == StateClosed {
		return
	}

	s.State = StateClosed
	close(s.Outbox)
}

// IsClosed 세션 종료 여부 확인
func (s *Session) IsClosed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.State == StateClosed
}
