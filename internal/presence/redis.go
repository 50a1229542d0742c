package presence

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Ritinder-Singh/collaborative-whiteboard/internal/session"
)

// UpdatesChannel 상태 변경 이벤트 채널
const UpdatesChannel = "presence_updates"

// 기본값
const (
	DefaultQueueSize = 1024
	DefaultTTL       = 12 * time.Hour
)

// Action 참가 상태 변경 종류
type Action string

const (
	ActionJoined Action = "joined"
	ActionLeft   Action = "left"
)

// Update 발행되는 참가 상태 변경 이벤트
type Update struct {
	Action      Action `json:"action"`
	BoardID     string `json:"board_id"`
	SID         string `json:"sid"`
	UserID      string `json:"user_id,omitempty"`
	DisplayName string `json:"display_name,omitempty"`
	At          int64  `json:"at"`
}

// Mirror 보드 참가자 정보를 Redis 에 복제
//
// 호출자는 큐에 넣기만 하고, 단일 worker 가 순서대로 Redis 에 반영한다.
// 큐가 가득 차면 업데이트를 버린다 (협업 경로를 막지 않음).
type Mirror struct {
	client  *redis.Client
	updates chan Update
	ttl     time.Duration
}

// NewMirror 생성자
func NewMirror(client *redis.Client, queueSize int) *Mirror {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	return &Mirror{
		client:  client,
		updates: make(chan Update, queueSize),
		ttl:     DefaultTTL,
	}
}

// Key 생성 유틸
func boardKey(boardID string) string {
	return fmt.Sprintf("presence:board:%s", boardID)
}

// Joined 참가 이벤트 등록
func (m *Mirror) Joined(p session.Participant) {
	m.enqueue(Update{
		Action:      ActionJoined,
		BoardID:     p.BoardID,
		SID:         p.SID,
		UserID:      p.UserID,
		DisplayName: p.DisplayName,
		At:          time.Now().Unix(),
	})
}

// Left 이탈 이벤트 등록
func (m *Mirror) Left(boardID, sid string) {
	m.enqueue(Update{
		Action:  ActionLeft,
		BoardID: boardID,
		SID:     sid,
		At:      time.Now().Unix(),
	})
}

func (m *Mirror) enqueue(u Update) {
	select {
	case m.updates <- u:
	default:
		log.Printf("[Presence] Queue full, dropped %s for %s on %s", u.Action, u.SID, u.BoardID)
	}
}

// Run 큐를 소비하며 Redis 에 반영 (ctx 취소 시 종료)
func (m *Mirror) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case u := <-m.updates:
			if err := m.apply(ctx, u); err != nil {
				log.Printf("[Presence] Failed to mirror %s for %s: %v", u.Action, u.SID, err)
			}
		}
	}
}

func (m *Mirror) apply(ctx context.Context, u Update) error {
	key := boardKey(u.BoardID)

	data, err := json.Marshal(u)
	if err != nil {
		return err
	}

	_, err = m.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		switch u.Action {
		case ActionJoined:
			pipe.HSet(ctx, key, u.SID, data)
			pipe.Expire(ctx, key, m.ttl)
		case ActionLeft:
			pipe.HDel(ctx, key, u.SID)
		}
		pipe.Publish(ctx, UpdatesChannel, data)
		return nil
	})
	return err
}

// Members 보드의 미러링된 참가자 목록 (sid 순)
func (m *Mirror) Members(ctx context.Context, boardID string) ([]session.Participant, error) {
	entries, err := m.client.HGetAll(ctx, boardKey(boardID)).Result()
	if err != nil {
		return nil, err
	}

	members := make([]session.Participant, 0, len(entries))
	for sid, raw := range entries {
		var u Update
		if err := json.Unmarshal([]byte(raw), &u); err != nil {
			continue
		}
		members = append(members, session.Participant{
			SID:         sid,
			UserID:      u.UserID,
			DisplayName: u.DisplayName,
			BoardID:     u.BoardID,
			JoinedAt:    time.Unix(u.At, 0),
		})
	}
	sort.Slice(members, func(i, j int) bool { return members[i].SID < members[j].SID })
	return members, nil
}

// Subscribe 상태 변경 이벤트 구독
func (m *Mirror) Subscribe(ctx context.Context) *redis.PubSub {
	return m.client.Subscribe(ctx, UpdatesChannel)
}
