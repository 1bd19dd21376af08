package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetSequenceReturnsPrevious(t *testing.T) {
	t.Parallel()

	s := New("abc", 1)
	assert.Equal(t, uint64(1), s.SetSequence(2))
	assert.Equal(t, uint64(2), s.SetSequence(5))
	assert.Equal(t, uint64(5), s.Sequence())
	assert.Equal(t, "abc", s.ID())
}

func TestCloneIsIndependent(t *testing.T) {
	t.Parallel()

	s := New("abc", 3)
	c := s.Clone()
	c.SetSequence(10)

	assert.Equal(t, uint64(3), s.Sequence())
	assert.Nil(t, (*Session)(nil).Clone())
}

func TestHeartbeatAck(t *testing.T) {
	t.Parallel()

	now := time.Now()
	h := NewHeartbeat(time.Second)

	_, ok := h.Ack(now)
	require.False(t, ok, "ack without an outstanding heartbeat")
	require.True(t, h.Acked())

	h.Sent(now)
	require.False(t, h.Acked())
	assert.Equal(t, now.Add(time.Second), h.Next())

	rtt, ok := h.Ack(now.Add(40 * time.Millisecond))
	require.True(t, ok)
	assert.Equal(t, 40*time.Millisecond, rtt)

	_, ok = h.Ack(now.Add(time.Second))
	assert.False(t, ok, "duplicate ack")
}

func TestLatencyRecent(t *testing.T) {
	t.Parallel()

	var l Latency
	assert.Empty(t, l.Recent())
	assert.Zero(t, l.Average())

	now := time.Now()
	for i := 1; i <= 7; i++ {
		l.Track(time.Duration(i)*time.Millisecond, now)
	}

	assert.Equal(t, uint64(7), l.Heartbeats())
	assert.Equal(t, 4*time.Millisecond, l.Average())
	assert.Equal(t, []time.Duration{
		7 * time.Millisecond,
		6 * time.Millisecond,
		5 * time.Millisecond,
		4 * time.Millisecond,
		3 * time.Millisecond,
	}, l.Recent())
	assert.Equal(t, now, l.Received())
}
