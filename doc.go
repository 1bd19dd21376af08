// Package shardnet is a client for a sharded, real-time event gateway.
//
// A shard holds one websocket connection and drives it as a state machine: it answers the
// gateway's hello with heartbeats, identifies or resumes, and reconnects with backoff
// whenever the connection drops. Events flow out of the shard in order, are applied to an
// in-memory cache, and are fanned out to listeners.
//
// # Architecture
//
//	gateway  ──► shard (internal/shard)
//	               ├─ inflater   zlib-stream decompression (internal/protocol)
//	               ├─ scanner    reads op, s and t without decoding d (internal/protocol)
//	               ├─ session    id + sequence used to resume (internal/session)
//	               └─ gate       command rate limit, heartbeats exempt
//	           ──► cache (cache)        event-driven, concurrent, guild indexed
//	           ──► dispatch (internal/dispatch)  in-order fanout to listeners
//
// # Quick Start
//
//	import "github.com/luciancaetano/shardnet/gateway"
//
//	cfg := gateway.NewConfig(token, model.IntentGuilds|model.IntentGuildMessages)
//	shard := gateway.New(cfg)
//	c := cache.New(cache.DefaultConfig())
//
//	err := gateway.Run(ctx, shard, gateway.RunOptions{
//	    Cache: c,
//	    Listeners: []shardnet.Listener{myListener},
//	})
//
// # Sequence Gaps
//
// Every dispatch carries a sequence number. When a dispatch arrives whose sequence skips
// ahead of the session, it is dropped and the shard resumes so that the gateway replays
// what was missed. Events are therefore never applied to the cache out of order.
//
// # Rate Limiting
//
// The gateway allows 120 commands per 60 seconds. Room for the heartbeats due in that
// window is reserved, and the rest is spread as a token bucket:
//
//	cfg.CommandGate = gateway.DefaultCommandGateConfig() // 120 per 60s
//	cfg.CommandGate = gateway.NoCommandGate()            // disabled
//
// # Close Codes
//
// Authentication, sharding, API version and intent errors are fatal: the shard moves to
// FatallyClosed and stops reconnecting. Invalid sequence and session timeout discard the
// session. Any other close is resumed.
package shardnet
