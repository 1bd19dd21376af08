package session

import "time"

const recentLatencies = 5

// Latency records heartbeat round trips for one connection.
type Latency struct {
	recent [recentLatencies]time.Duration
	next   int
	count  uint64
	total  time.Duration
	sent   time.Time
	recv   time.Time
}

// Track records a round trip ending at now.
func (l *Latency) Track(rtt time.Duration, now time.Time) {
	l.recent[l.next] = rtt
	l.next = (l.next + 1) % recentLatencies
	l.count++
	l.total += rtt
	l.recv = now
	l.sent = now.Add(-rtt)
}

// Average is the mean round trip over all tracked heartbeats.
func (l Latency) Average() time.Duration {
	if l.count == 0 {
		return 0
	}
	return l.total / time.Duration(l.count)
}

// Heartbeats is the number of acknowledged heartbeats.
func (l Latency) Heartbeats() uint64 {
	return l.count
}

// Recent returns up to the last five round trips, most recent first.
func (l Latency) Recent() []time.Duration {
	n := recentLatencies
	if l.count < uint64(n) {
		n = int(l.count)
	}
	out := make([]time.Duration, 0, n)
	for i := 1; i <= n; i++ {
		out = append(out, l.recent[(l.next-i+recentLatencies)%recentLatencies])
	}
	return out
}

// Received is when the last acknowledgement arrived.
func (l Latency) Received() time.Time {
	return l.recv
}

// Sent is when the last acknowledged heartbeat was sent.
func (l Latency) Sent() time.Time {
	return l.sent
}
