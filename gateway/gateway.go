// Package gateway is the public entry point for running shards.
package gateway

import (
	"github.com/luciancaetano/shardnet"
	"github.com/luciancaetano/shardnet/internal/dispatch"
	"github.com/luciancaetano/shardnet/internal/protocol"
	"github.com/luciancaetano/shardnet/internal/shard"
	"github.com/luciancaetano/shardnet/model"
)

type Config = shard.Config
type Shard = shard.Shard
type CommandGateConfig = shard.CommandGateConfig
type ReconnectConfig = shard.ReconnectConfig
type Metrics = shard.Metrics
type MetricsConfig = shard.MetricsConfig
type MessageSender = shard.MessageSender
type LocalQueue = shard.LocalQueue
type ReceiveMessageError = shard.ReceiveMessageError
type SendError = shard.SendError

type Dispatcher = dispatch.Dispatcher
type DispatchOption = dispatch.Option
type Handler = dispatch.Handler
type Subscription = dispatch.Subscription

type Event = protocol.GatewayEvent
type Hello = protocol.Hello
type HeartbeatRequest = protocol.HeartbeatRequest
type HeartbeatAck = protocol.HeartbeatAck
type InvalidateSession = protocol.InvalidateSession
type Reconnect = protocol.Reconnect
type Dispatch = protocol.Dispatch
type GatewayClose = protocol.GatewayClose
type CloseFrame = protocol.CloseFrame
type CloseCode = protocol.CloseCode

type Identify = protocol.Identify
type Resume = protocol.Resume
type UpdatePresence = protocol.UpdatePresence
type UpdateVoiceState = protocol.UpdateVoiceState
type RequestGuildMembers = protocol.RequestGuildMembers

// ErrReconnectExhausted is wrapped by the error returned once ReconnectConfig.MaxAttempts
// dials in a row have failed.
var ErrReconnectExhausted = shard.ErrReconnectExhausted

// CloseNormal ends a session; CloseUnknownError closes so that the session can be resumed.
const (
	CloseNormal       = protocol.CloseNormal
	CloseUnknownError = protocol.CloseUnknownError
)

// AllEvents registers a Dispatcher handler for every event.
const AllEvents = dispatch.AllEvents

// New creates a shard. Nothing is dialed until the first NextMessage or NextEvent call.
//
// Example:
//
//	cfg := gateway.NewConfig(token, model.IntentGuilds)
//	cfg.ShardID = shardnet.ShardID{Number: 0, Total: 2}
//	s := gateway.New(cfg)
func New(cfg *Config) *Shard {
	return shard.New(cfg)
}

// NewConfig returns a configuration for shard 0 of 1 with compression and the default
// command gate enabled.
func NewConfig(token string, intents model.Intents) *Config {
	return shard.NewConfig(token, intents)
}

// DefaultCommandGateConfig allows 120 commands per 60 seconds, minus the heartbeats due in
// that window.
func DefaultCommandGateConfig() *CommandGateConfig {
	return shard.DefaultCommandGateConfig()
}

// NoCommandGate disables command rate limiting.
func NoCommandGate() *CommandGateConfig {
	return shard.NoCommandGate()
}

func DefaultReconnectConfig() ReconnectConfig {
	return shard.DefaultReconnectConfig()
}

func DefaultMetricsConfig() MetricsConfig {
	return shard.DefaultMetricsConfig()
}

// NewMetrics registers the shard collectors described by config.
func NewMetrics(config MetricsConfig) *Metrics {
	return shard.NewMetrics(config)
}

// NewLocalQueue paces identifies to one per five seconds per concurrency bucket.
func NewLocalQueue(maxConcurrency uint32) *LocalQueue {
	return shard.NewLocalQueue(maxConcurrency)
}

// NewDispatcher returns an empty dispatcher.
func NewDispatcher(opts ...DispatchOption) *Dispatcher {
	return dispatch.New(opts...)
}

// IsFatal reports whether err means the shard will not recover on its own.
func IsFatal(err error) bool {
	return shard.IsFatal(err)
}

var _ shardnet.Shard = (*Shard)(nil)
