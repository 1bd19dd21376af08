package shard

import (
	"context"

	"github.com/luciancaetano/shardnet/internal/protocol"
)

// sendBufferSize is how many payloads may wait for the shard to pass them through.
const sendBufferSize = 256

type outbound struct {
	payload []byte
	close   *protocol.CloseFrame
}

// MessageSender queues payloads for a shard from any goroutine. The shard writes them
// between reads, in order, as the command rate limit allows.
type MessageSender struct {
	ch chan<- outbound
}

// Command encodes cmd and queues it.
func (m MessageSender) Command(ctx context.Context, cmd protocol.Command) error {
	payload, err := protocol.Encode(cmd)
	if err != nil {
		return &SendError{Kind: SendSerializing, Err: err}
	}
	return m.Send(ctx, payload)
}

// Send queues a raw payload.
func (m MessageSender) Send(ctx context.Context, payload []byte) error {
	return m.enqueue(ctx, outbound{payload: payload})
}

// Close queues a close frame.
func (m MessageSender) Close(ctx context.Context, frame protocol.CloseFrame) error {
	return m.enqueue(ctx, outbound{close: &frame})
}

func (m MessageSender) enqueue(ctx context.Context, msg outbound) error {
	select {
	case m.ch <- msg:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
