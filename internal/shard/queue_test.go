package shard

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luciancaetano/shardnet"
)

func TestLocalQueuePacesBucket(t *testing.T) {
	t.Parallel()

	queue := NewLocalQueueWithInterval(1, 100*time.Millisecond)
	ctx := context.Background()

	start := time.Now()
	require.NoError(t, queue.Request(ctx, shardnet.ShardID{Number: 0, Total: 2}))
	require.NoError(t, queue.Request(ctx, shardnet.ShardID{Number: 1, Total: 2}))

	assert.GreaterOrEqual(t, time.Since(start), 80*time.Millisecond)
}

func TestLocalQueueBucketsAreIndependent(t *testing.T) {
	t.Parallel()

	queue := NewLocalQueueWithInterval(2, time.Hour)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	require.NoError(t, queue.Request(ctx, shardnet.ShardID{Number: 0, Total: 4}))
	require.NoError(t, queue.Request(ctx, shardnet.ShardID{Number: 1, Total: 4}))

	// Shard 2 shares a bucket with shard 0.
	short, cancelShort := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancelShort()
	assert.Error(t, queue.Request(short, shardnet.ShardID{Number: 2, Total: 4}))
}

func TestImmediateQueue(t *testing.T) {
	t.Parallel()

	queue := ImmediateQueue()
	for i := 0; i < 10; i++ {
		require.NoError(t, queue.Request(context.Background(), shardnet.ShardID{Number: 0, Total: 1}))
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, queue.Request(ctx, shardnet.ShardID{}), context.Canceled)
}
