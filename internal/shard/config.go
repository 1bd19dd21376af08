package shard

import (
	"log/slog"
	"time"

	"github.com/gorilla/websocket"

	"github.com/luciancaetano/shardnet"
	"github.com/luciancaetano/shardnet/internal/protocol"
	"github.com/luciancaetano/shardnet/internal/session"
	"github.com/luciancaetano/shardnet/model"
)

// CommandGateConfig holds the command rate limit configuration.
type CommandGateConfig struct {
	Commands int           // Commands allowed per window, heartbeats included
	Window   time.Duration // Length of the window
	Enabled  bool          // Whether the limit is enforced
}

// DefaultCommandGateConfig returns the limit the gateway enforces: 120 commands per 60
// seconds.
func DefaultCommandGateConfig() *CommandGateConfig {
	return &CommandGateConfig{
		Commands: 120,
		Window:   60 * time.Second,
		Enabled:  true,
	}
}

// NoCommandGate returns a configuration with rate limiting disabled.
func NoCommandGate() *CommandGateConfig {
	return &CommandGateConfig{
		Enabled: false,
	}
}

// ReconnectConfig controls the delay between failed connection attempts.
type ReconnectConfig struct {
	InitialInterval time.Duration
	MaxInterval     time.Duration
	// MaxAttempts is the number of consecutive failed attempts after which reads fail
	// fatally. Zero retries forever.
	MaxAttempts int
}

// DefaultReconnectConfig retries forever, backing off from 1s to 2m.
func DefaultReconnectConfig() ReconnectConfig {
	return ReconnectConfig{
		InitialInterval: time.Second,
		MaxInterval:     2 * time.Minute,
	}
}

// Config configures a Shard.
type Config struct {
	Token   string
	Intents model.Intents
	ShardID shardnet.ShardID

	GatewayURL     string
	APIVersion     int
	Compress       bool
	LargeThreshold int
	Properties     protocol.IdentifyProperties
	Presence       *protocol.UpdatePresence

	// Session and ResumeURL resume an existing session on the first connect.
	Session   *session.Session
	ResumeURL string

	Queue       shardnet.Queue
	CommandGate *CommandGateConfig
	Reconnect   ReconnectConfig

	Dialer  *websocket.Dialer
	Logger  *slog.Logger
	Metrics *Metrics
}

// NewConfig returns a configuration for a single-shard bot using the defaults.
func NewConfig(token string, intents model.Intents) *Config {
	return &Config{
		Token:          token,
		Intents:        intents,
		ShardID:        shardnet.ShardID{Number: 0, Total: 1},
		GatewayURL:     shardnet.DefaultGatewayURL,
		APIVersion:     protocol.APIVersion,
		Compress:       true,
		LargeThreshold: shardnet.DefaultLargeThreshold,
		Properties: protocol.IdentifyProperties{
			OS:      "linux",
			Browser: "shardnet",
			Device:  "shardnet",
		},
		CommandGate: DefaultCommandGateConfig(),
		Reconnect:   DefaultReconnectConfig(),
	}
}
