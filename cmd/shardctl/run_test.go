package main

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luciancaetano/shardnet/model"
)

func TestLoadOptionsFromFlags(t *testing.T) {
	cmd, v := newRunCommand()
	require.NoError(t, cmd.Flags().Parse([]string{
		"--token=abc",
		"--shard=1",
		"--shards=4",
		"--no-compress",
		"--log-level=debug",
		"--max-reconnects=3",
	}))

	opts, err := loadOptions(v)
	require.NoError(t, err)

	assert.Equal(t, "abc", opts.Token)
	assert.Equal(t, uint32(1), opts.Shard)
	assert.Equal(t, uint32(4), opts.Shards)
	assert.False(t, opts.Compress)
	assert.True(t, opts.CommandGate)
	assert.Equal(t, 3, opts.MaxReconnects)
	assert.Equal(t, slog.LevelDebug, opts.LogLevel)
	assert.Equal(t, model.IntentGuilds|model.IntentGuildMessages, opts.Intents)

	cfg := newConfig(opts, nil, nil)
	assert.Equal(t, uint32(4), cfg.ShardID.Total)
	assert.False(t, cfg.Compress)
	assert.Equal(t, 3, cfg.Reconnect.MaxAttempts)
}

func TestLoadOptionsFromEnv(t *testing.T) {
	t.Setenv("SHARDCTL_TOKEN", "from-env")
	t.Setenv("SHARDCTL_METRICS_ADDR", ":9090")
	t.Setenv("SHARDCTL_NO_COMMAND_GATE", "true")

	cmd, v := newRunCommand()
	require.NoError(t, cmd.Flags().Parse(nil))

	opts, err := loadOptions(v)
	require.NoError(t, err)
	assert.Equal(t, "from-env", opts.Token)
	assert.Equal(t, ":9090", opts.MetricsAddr)
	assert.False(t, opts.CommandGate)
	assert.False(t, newConfig(opts, nil, nil).CommandGate.Enabled)
}

func TestLoadOptionsInvalid(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{name: "missing token", args: nil},
		{name: "shard out of range", args: []string{"--token=a", "--shard=2", "--shards=2"}},
		{name: "zero shards", args: []string{"--token=a", "--shards=0"}},
		{name: "bad log level", args: []string{"--token=a", "--log-level=loud"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, v := newRunCommand()
			require.NoError(t, cmd.Flags().Parse(tt.args))

			_, err := loadOptions(v)
			assert.Error(t, err)
		})
	}
}
