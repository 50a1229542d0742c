package room

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ritinder-Singh/collaborative-whiteboard/internal/session"
)

func join(reg *session.Registry, idx *Index, boardID, sid string) {
	reg.Register(sid, sid, sid, boardID)
	idx.Join(boardID, sid)
}

func TestIndex_CountAfterJoinsAndLeaves(t *testing.T) {
	for _, tc := range []struct{ joins, leaves int }{{0, 0}, {1, 0}, {1, 1}, {5, 2}, {10, 10}} {
		t.Run(fmt.Sprintf("%d-%d", tc.joins, tc.leaves), func(t *testing.T) {
			reg := session.NewRegistry()
			idx := NewIndex(reg)

			for i := 0; i < tc.joins; i++ {
				join(reg, idx, "x", fmt.Sprintf("sid-%d", i))
			}
			for i := 0; i < tc.leaves; i++ {
				boardID, ok := idx.Leave(fmt.Sprintf("sid-%d", i))
				require.True(t, ok)
				assert.Equal(t, "x", boardID)
			}

			assert.Equal(t, tc.joins-tc.leaves, idx.Count("x"))
		})
	}
}

func TestIndex_LeaveUnknown(t *testing.T) {
	idx := NewIndex(session.NewRegistry())
	_, ok := idx.Leave("ghost")
	assert.False(t, ok)
}

func TestIndex_MembersSnapshot(t *testing.T) {
	reg := session.NewRegistry()
	idx := NewIndex(reg)
	join(reg, idx, "x", "b")
	join(reg, idx, "x", "a")
	join(reg, idx, "y", "c")

	members := idx.Members("x")
	assert.Equal(t, []string{"a", "b"}, members)

	idx.Leave("a")
	assert.Equal(t, []string{"a", "b"}, members, "snapshot not affected by later leave")
	assert.Equal(t, []string{"b"}, idx.Members("x"))
	assert.Empty(t, idx.Members("nope"))
	assert.Equal(t, 2, idx.Rooms())
}

func TestIndex_EmptySince(t *testing.T) {
	reg := session.NewRegistry()
	idx := NewIndex(reg)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	idx.now = func() time.Time { return now }

	join(reg, idx, "x", "a")
	_, ok := idx.EmptySince("x")
	assert.False(t, ok)

	idx.Leave("a")
	since, ok := idx.EmptySince("x")
	require.True(t, ok)
	assert.Equal(t, now, since)
	assert.Equal(t, 0, idx.Rooms())

	join(reg, idx, "x", "b")
	_, ok = idx.EmptySince("x")
	assert.False(t, ok, "join clears idle mark")

	idx.Leave("b")
	idx.Forget("x")
	_, ok = idx.EmptySince("x")
	assert.False(t, ok)
}
