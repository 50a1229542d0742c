package session

import (
	"sync"
	"time"
)

// Participant 보드에 참여 중인 연결의 신원 정보 (영속화하지 않음)
type Participant struct {
	SID         string    `json:"sid"`
	UserID      string    `json:"user_id"`
	DisplayName string    `json:"display_name"`
	BoardID     string    `json:"board_id"`
	JoinedAt    time.Time `json:"joined_at"`
}

// Registry 연결 ID -> Participant 매핑
//
// 브로드캐스트는 호출자 책임. Registry 는 맵 변경 외의 부수효과가 없다.
type Registry struct {
	participants map[string]Participant
	mu           sync.RWMutex
	now          func() time.Time
}

// NewRegistry Registry 생성
func NewRegistry() *Registry {
	return &Registry{
		participants: make(map[string]Participant),
		now:          time.Now,
	}
}

// Register 참가자 등록. 같은 연결의 기존 레코드는 덮어쓴다 (last write wins)
func (r *Registry) Register(sid, userID, displayName, boardID string) Participant {
	p := Participant{
		SID:         sid,
		UserID:      userID,
		DisplayName: displayName,
		BoardID:     boardID,
		JoinedAt:    r.now().UTC(),
	}

	r.mu.Lock()
	r.participants[sid] = p
	r.mu.Unlock()

	return p
}

// Lookup 참가자 조회
func (r *Registry) Lookup(sid string) (Participant, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.participants[sid]
	return p, ok
}

// Unregister 참가자 제거 후 이전 board_id 반환
func (r *Registry) Unregister(sid string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.participants[sid]
	if !ok {
		return "", false
	}
	delete(r.participants, sid)
	return p.BoardID, true
}

// LookupMany 여러 연결의 참가자 레코드 조회 (미등록 연결은 건너뜀)
func (r *Registry) LookupMany(sids []string) []Participant {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Participant, 0, len(sids))
	for _, sid := range sids {
		if p, ok := r.participants[sid]; ok {
			result = append(result, p)
		}
	}
	return result
}

// Count 등록된 참가자 수
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.participants)
}
