// Package session holds the state needed to resume a gateway session after the
// connection is lost.
package session

import "time"

// Session is owned by exactly one shard. The shard is the only writer; the heartbeat and
// resume paths only read it.
type Session struct {
	id       string
	sequence uint64
}

// New returns a session as established by a Ready dispatch.
func New(id string, sequence uint64) *Session {
	return &Session{id: id, sequence: sequence}
}

// ID returns the session identifier used to resume.
func (s *Session) ID() string {
	return s.id
}

// Sequence returns the last dispatch sequence seen.
func (s *Session) Sequence() uint64 {
	return s.sequence
}

// SetSequence stores sequence and returns the previous value.
func (s *Session) SetSequence(sequence uint64) uint64 {
	old := s.sequence
	s.sequence = sequence
	return old
}

// Clone returns an independent copy, safe to hand to another shard.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	c := *s
	return &c
}

// Heartbeat tracks the heartbeat interval and whether the last heartbeat was acknowledged.
type Heartbeat struct {
	interval time.Duration
	lastSent time.Time
	acked    bool
}

// NewHeartbeat returns a heartbeat state with no heartbeat outstanding.
func NewHeartbeat(interval time.Duration) *Heartbeat {
	return &Heartbeat{interval: interval, acked: true}
}

func (h *Heartbeat) Interval() time.Duration {
	return h.interval
}

// LastSent returns when the last heartbeat was sent; zero if none was.
func (h *Heartbeat) LastSent() time.Time {
	return h.lastSent
}

// Acked reports whether the last heartbeat sent was acknowledged.
func (h *Heartbeat) Acked() bool {
	return h.acked
}

// Sent records that a heartbeat was written at t.
func (h *Heartbeat) Sent(t time.Time) {
	h.lastSent = t
	h.acked = false
}

// Ack records an acknowledgement received at t and returns the round trip, or false when
// no heartbeat was outstanding.
func (h *Heartbeat) Ack(t time.Time) (time.Duration, bool) {
	if h.acked || h.lastSent.IsZero() {
		return 0, false
	}
	h.acked = true
	return t.Sub(h.lastSent), true
}

// Next returns when the heartbeat after the last one sent is due.
func (h *Heartbeat) Next() time.Time {
	return h.lastSent.Add(h.interval)
}
