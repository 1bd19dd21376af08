package shard

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestDefaultCommandGateConfig tests the default command gate configuration
func TestDefaultCommandGateConfig(t *testing.T) {
	t.Parallel()

	config := DefaultCommandGateConfig()
	require.NotNil(t, config)

	assert.True(t, config.Enabled, "command gate should be enabled by default")
	assert.Equal(t, 120, config.Commands)
	assert.Equal(t, 60*time.Second, config.Window)
}

// TestNoCommandGate tests that a disabled gate admits everything
func TestNoCommandGate(t *testing.T) {
	t.Parallel()

	for _, config := range []*CommandGateConfig{nil, NoCommandGate()} {
		gate := NewCommandGate(config)
		assert.False(t, gate.Enabled())

		for i := 0; i < 1000; i++ {
			require.True(t, gate.Allow(), "disabled gate refused command %d", i)
		}

		assert.Zero(t, gate.Delay())
		assert.NoError(t, gate.Wait(context.Background()))
	}
}

// TestReservedHeartbeats tests how many heartbeats are reserved per window
func TestReservedHeartbeats(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		interval time.Duration
		want     int
	}{
		{"typical interval", 41250 * time.Millisecond, 2},
		{"exact divisor", 30 * time.Second, 2},
		{"longer than window", 90 * time.Second, 1},
		{"short interval", time.Second, 60},
		{"unknown interval", 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.want, reservedHeartbeats(60*time.Second, tt.interval))
		})
	}
}

// TestCommandGateAllowance tests that the allowance never exceeds the window limit
func TestCommandGateAllowance(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		interval time.Duration
		want     int
	}{
		{"before hello", 0, 120},
		{"typical interval", 41250 * time.Millisecond, 118},
		{"short interval", time.Second, 60},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			gate := NewCommandGate(DefaultCommandGateConfig())
			if tt.interval > 0 {
				gate.Reset(tt.interval)
			}

			got := gate.Allowance()
			assert.Equal(t, tt.want, got)
			assert.LessOrEqual(t, got+reservedHeartbeats(60*time.Second, tt.interval), 120,
				"allowance leaves no room for heartbeats")
		})
	}
}

// TestCommandGateBurst tests that half the allowance is available immediately
func TestCommandGateBurst(t *testing.T) {
	t.Parallel()

	gate := NewCommandGate(DefaultCommandGateConfig())
	gate.Reset(41250 * time.Millisecond)

	for i := 0; i < 59; i++ {
		require.True(t, gate.Allow(), "command %d refused within burst", i)
	}

	assert.False(t, gate.Allow(), "command allowed past the burst")

	d := gate.Delay()
	assert.Positive(t, d)
	assert.LessOrEqual(t, d, 2*time.Second)
}

// TestCommandGateWaitCancelled tests that Wait honours the context
func TestCommandGateWaitCancelled(t *testing.T) {
	t.Parallel()

	gate := NewCommandGate(&CommandGateConfig{Commands: 2, Window: time.Hour, Enabled: true})
	require.True(t, gate.Allow(), "first command refused")

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	assert.Error(t, gate.Wait(ctx), "Wait should fail when the next token is past the deadline")
}
