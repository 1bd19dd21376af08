package gateway

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luciancaetano/shardnet"
	"github.com/luciancaetano/shardnet/cache"
	"github.com/luciancaetano/shardnet/internal/protocol"
	"github.com/luciancaetano/shardnet/internal/session"
	"github.com/luciancaetano/shardnet/internal/shard"
	"github.com/luciancaetano/shardnet/model"
)

type step struct {
	event protocol.GatewayEvent
	err   error
}

// scriptedShard replays steps, then fails fatally or blocks until ctx is done.
type scriptedShard struct {
	steps []step
	block bool
}

func (s *scriptedShard) ID() shardnet.ShardID               { return shardnet.ShardID{Number: 0, Total: 1} }
func (s *scriptedShard) Status() shardnet.Status            { return shardnet.Connected }
func (s *scriptedShard) Session() *session.Session          { return nil }
func (s *scriptedShard) Send(context.Context, []byte) error { return nil }

func (s *scriptedShard) Command(context.Context, protocol.Command) error { return nil }

func (s *scriptedShard) Close(context.Context, protocol.CloseFrame) (*session.Session, error) {
	return nil, nil
}

func (s *scriptedShard) NextMessage(context.Context) (shardnet.Message, error) {
	return shardnet.Message{}, errors.New("not scripted")
}

func (s *scriptedShard) NextEvent(ctx context.Context) (protocol.GatewayEvent, error) {
	if len(s.steps) > 0 {
		next := s.steps[0]
		s.steps = s.steps[1:]
		return next.event, next.err
	}
	if s.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return nil, &shard.ReceiveMessageError{Kind: shard.ReceiveFatallyClosed}
}

type recorder struct {
	mu     sync.Mutex
	names  []string
	cached []bool
	cache  *cache.InMemoryCache
}

func (r *recorder) Handle(_ context.Context, _ shardnet.ShardID, event model.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.names = append(r.names, event.EventName())
	if gc, ok := event.(*model.GuildCreate); ok && r.cache != nil {
		_, found := r.cache.Guild(gc.ID)
		r.cached = append(r.cached, found)
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRunAppliesCacheBeforeListeners(t *testing.T) {
	t.Parallel()

	c := cache.New(cache.DefaultConfig())
	rec := &recorder{cache: c}
	s := &scriptedShard{steps: []step{
		{event: protocol.Hello{HeartbeatInterval: 41250}},
		{event: protocol.Dispatch{Sequence: 1, Event: &model.Ready{User: model.User{ID: 1}}}},
		{event: protocol.Dispatch{Sequence: 2, Event: &model.GuildCreate{Guild: model.Guild{ID: 123}}}},
		{event: protocol.HeartbeatAck{}},
		{event: protocol.Dispatch{Sequence: 3, Event: &model.MessageCreate{Message: model.Message{ID: 9, ChannelID: 111}}}},
	}}

	err := Run(context.Background(), s, RunOptions{
		Cache:     c,
		Listeners: []shardnet.Listener{rec},
		Logger:    discardLogger(),
	})

	require.Error(t, err)
	assert.True(t, IsFatal(err))
	assert.Equal(t, []string{model.EventReady, model.EventGuildCreate, model.EventMessageCreate}, rec.names)
	assert.Equal(t, []bool{true}, rec.cached)

	_, ok := c.Message(111, 9)
	assert.True(t, ok)
}

func TestRunSkipsRecoverableErrors(t *testing.T) {
	t.Parallel()

	rec := &recorder{}
	s := &scriptedShard{steps: []step{
		{err: &shard.ReceiveMessageError{Kind: shard.ReceiveIO, Err: io.ErrUnexpectedEOF}},
		{event: protocol.GatewayClose{Frame: &protocol.CloseFrame{Code: protocol.CloseUnknownError}}},
		{err: &shard.ReceiveMessageError{Kind: shard.ReceiveDeserializing, Err: errors.New("bad payload")}},
		{event: protocol.Dispatch{Sequence: 1, Event: &model.Resumed{}}},
	}}

	err := Run(context.Background(), s, RunOptions{
		Listeners: []shardnet.Listener{rec},
		Logger:    discardLogger(),
	})

	assert.True(t, IsFatal(err))
	assert.Equal(t, []string{model.EventResumed}, rec.names)
}

func TestRunUsesDispatcher(t *testing.T) {
	t.Parallel()

	d := NewDispatcher()
	var got []string
	d.On(model.EventGuildDelete, func(_ context.Context, _ shardnet.ShardID, event model.Event) {
		got = append(got, event.EventName())
	})

	s := &scriptedShard{steps: []step{
		{event: protocol.Dispatch{Sequence: 1, Event: &model.GuildDelete{}}},
	}}
	_ = Run(context.Background(), s, RunOptions{Dispatcher: d, Logger: discardLogger()})

	assert.Equal(t, []string{model.EventGuildDelete}, got)
}

func TestRunStopsOnContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := Run(ctx, &scriptedShard{block: true}, RunOptions{Logger: discardLogger()})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
