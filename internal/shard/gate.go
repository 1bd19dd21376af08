package shard

import (
	"context"
	"math"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// CommandGate limits outbound commands to what the gateway accepts per window.
//
// Heartbeats never pass through the gate; instead, room for the heartbeats due in one
// window is subtracted from the allowance whenever the heartbeat interval is learned.
// Half of the remaining allowance is available as a burst and the rest refills evenly,
// so no window ever admits more than the allowance.
type CommandGate struct {
	cfg *CommandGateConfig

	mu      sync.Mutex
	limiter *rate.Limiter
}

// NewCommandGate returns a gate for cfg. A nil or disabled cfg admits everything.
func NewCommandGate(cfg *CommandGateConfig) *CommandGate {
	g := &CommandGate{cfg: cfg}
	if g.Enabled() {
		g.limiter = newCommandLimiter(cfg, cfg.Commands)
	}
	return g
}

// Enabled reports whether commands are limited.
func (g *CommandGate) Enabled() bool {
	return g.cfg != nil && g.cfg.Enabled && g.cfg.Commands > 0 && g.cfg.Window > 0
}

// Reset reserves room for heartbeats sent every interval and refills the allowance.
func (g *CommandGate) Reset(interval time.Duration) {
	if !g.Enabled() {
		return
	}

	allotted := g.cfg.Commands - reservedHeartbeats(g.cfg.Window, interval)
	if allotted < 1 {
		allotted = 1
	}

	g.mu.Lock()
	g.limiter = newCommandLimiter(g.cfg, allotted)
	g.mu.Unlock()
}

// Allowance returns the commands available in one window after the heartbeat reservation.
func (g *CommandGate) Allowance() int {
	if !g.Enabled() {
		return 0
	}
	l := g.current()
	return l.Burst() + int(math.Round(float64(l.Limit())*g.cfg.Window.Seconds()))
}

// Wait blocks until a command may be sent or ctx is done.
func (g *CommandGate) Wait(ctx context.Context) error {
	if !g.Enabled() {
		return nil
	}
	return g.current().Wait(ctx)
}

// Allow consumes a token if one is available.
func (g *CommandGate) Allow() bool {
	if !g.Enabled() {
		return true
	}
	return g.current().Allow()
}

// Delay returns how long until a token is available, zero when one is available now.
func (g *CommandGate) Delay() time.Duration {
	if !g.Enabled() {
		return 0
	}

	l := g.current()
	tokens := l.Tokens()
	if tokens >= 1 {
		return 0
	}
	return time.Duration((1 - tokens) / float64(l.Limit()) * float64(time.Second))
}

func (g *CommandGate) current() *rate.Limiter {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.limiter
}

func newCommandLimiter(cfg *CommandGateConfig, allotted int) *rate.Limiter {
	burst := allotted / 2
	if burst < 1 {
		burst = 1
	}
	refill := allotted - burst
	if refill < 1 {
		refill = 1
	}
	return rate.NewLimiter(rate.Limit(float64(refill)/cfg.Window.Seconds()), burst)
}

// reservedHeartbeats is the most heartbeats sent every interval that fit in one window.
func reservedHeartbeats(window, interval time.Duration) int {
	if interval <= 0 {
		return 0
	}
	return int(math.Ceil(float64(window) / float64(interval)))
}
