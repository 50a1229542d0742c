package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSession_EnqueueAndClose(t *testing.T) {
	s := New(2)
	assert.NotEmpty(t, s.ID)
	assert.False(t, s.IsClosed())

	assert.True(t, s.Enqueue([]byte("a")))
	assert.True(t, s.Enqueue([]byte("b")))
	assert.False(t, s.Enqueue([]byte("c")), "queue full")

	_, _, dropped := s.GetStats()
	assert.Equal(t, uint64(1), dropped)

	s.Close()
	s.Close()
	assert.True(t, s.IsClosed())
	assert.False(t, s.Enqueue([]byte("d")))

	var frames []string
	for f := range s.Outbox {
		frames = append(frames, string(f))
	}
	assert.Equal(t, []string{"a", "b"}, frames)
}
