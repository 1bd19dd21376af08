package shardnet

import (
	"context"

	"github.com/luciancaetano/shardnet/internal/protocol"
	"github.com/luciancaetano/shardnet/internal/session"
	"github.com/luciancaetano/shardnet/model"
)

// ShardID identifies one shard out of Total.
type ShardID struct {
	Number uint32
	Total  uint32
}

// Array returns the id in the [number, total] form sent in an identify.
func (id ShardID) Array() [2]uint32 {
	return [2]uint32{id.Number, id.Total}
}

// Status is the connection state of a shard.
type Status int

const (
	// Disconnected means there is no connection; the next read reconnects.
	Disconnected Status = iota
	// Identifying means the transport is up and a new session is being identified.
	Identifying
	// Resuming means the transport is up and the previous session is being resumed.
	Resuming
	// Connected means the session is established and dispatches are flowing.
	Connected
	// FatallyClosed means the gateway closed the connection with a code that forbids
	// reconnecting. Every further read fails.
	FatallyClosed
)

func (s Status) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Identifying:
		return "identifying"
	case Resuming:
		return "resuming"
	case Connected:
		return "connected"
	case FatallyClosed:
		return "fatally_closed"
	}
	return "unknown"
}

// MessageKind is the kind of a websocket message returned by a shard.
type MessageKind int

const (
	MessageText MessageKind = iota
	MessageClose
)

// Message is one complete websocket message after decompression.
//
// Data is only valid until the next read from the same shard.
type Message struct {
	Kind  MessageKind
	Data  []byte
	Close *protocol.CloseFrame
}

// Queue paces identifies across shards that share a session start limit.
//
// Request blocks until shard may identify, or ctx is done.
type Queue interface {
	Request(ctx context.Context, shard ShardID) error
}

// Shard is a single gateway connection.
//
// A Shard is driven by one goroutine calling NextMessage or NextEvent in a loop. Each call
// may reconnect, heartbeat, identify or resume as needed before returning. Commands sent
// from other goroutines go through a MessageSender.
//
// Example usage:
//
//	shard := gateway.New(gateway.NewConfig(token, model.IntentGuilds|model.IntentGuildMessages))
//	for {
//	    event, err := shard.NextEvent(ctx)
//	    if err != nil {
//	        if gateway.IsFatal(err) {
//	            return err
//	        }
//	        continue
//	    }
//	    if d, ok := event.(gateway.Dispatch); ok {
//	        log.Println(d.Name())
//	    }
//	}
type Shard interface {
	// ID returns the shard this connection serves.
	ID() ShardID

	// Status returns the current connection state. Safe to call from any goroutine.
	Status() Status

	// Session returns a copy of the session, or nil if none is established.
	// Safe to call from any goroutine.
	Session() *session.Session

	// NextMessage returns the next complete text or close message.
	//
	// Heartbeats, the handshake and reconnects happen inside the call. A message whose
	// sequence skips ahead of the session is not returned; the shard resumes instead.
	NextMessage(ctx context.Context) (Message, error)

	// NextEvent is NextMessage followed by decoding. A close is returned as
	// protocol.GatewayClose.
	NextEvent(ctx context.Context) (protocol.GatewayEvent, error)

	// Command serializes cmd and sends it, waiting for the command rate limit.
	Command(ctx context.Context, cmd protocol.Command) error

	// Send writes a raw payload, waiting for the command rate limit.
	Send(ctx context.Context, payload []byte) error

	// Close sends a close frame. When the frame allows resuming, the session is returned
	// so a later shard can resume it.
	Close(ctx context.Context, frame protocol.CloseFrame) (*session.Session, error)
}

// Listener receives dispatched events. Implementations must not retain the event after
// returning unless they own it.
type Listener interface {
	Handle(ctx context.Context, shard ShardID, event model.Event)
}
