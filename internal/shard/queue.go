package shard

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/luciancaetano/shardnet"
)

// IdentifyInterval is the minimum time between identifies in one concurrency bucket.
const IdentifyInterval = 5 * time.Second

// LocalQueue paces identifies for shards running in this process. Shards are split into
// maxConcurrency buckets by shard number; each bucket admits one identify per interval.
type LocalQueue struct {
	maxConcurrency uint32
	interval       time.Duration

	mu      sync.Mutex
	buckets map[uint32]*rate.Limiter
}

// NewLocalQueue returns a queue with the gateway's identify interval.
func NewLocalQueue(maxConcurrency uint32) *LocalQueue {
	return NewLocalQueueWithInterval(maxConcurrency, IdentifyInterval)
}

// NewLocalQueueWithInterval returns a queue admitting one identify per interval per bucket.
func NewLocalQueueWithInterval(maxConcurrency uint32, interval time.Duration) *LocalQueue {
	if maxConcurrency == 0 {
		maxConcurrency = 1
	}
	return &LocalQueue{
		maxConcurrency: maxConcurrency,
		interval:       interval,
		buckets:        make(map[uint32]*rate.Limiter),
	}
}

// Request blocks until shard may identify.
func (q *LocalQueue) Request(ctx context.Context, shard shardnet.ShardID) error {
	return q.bucket(shard.Number % q.maxConcurrency).Wait(ctx)
}

func (q *LocalQueue) bucket(key uint32) *rate.Limiter {
	q.mu.Lock()
	defer q.mu.Unlock()

	limiter, ok := q.buckets[key]
	if !ok {
		limiter = rate.NewLimiter(rate.Every(q.interval), 1)
		q.buckets[key] = limiter
	}
	return limiter
}

type immediateQueue struct{}

func (immediateQueue) Request(ctx context.Context, _ shardnet.ShardID) error {
	return ctx.Err()
}

// ImmediateQueue never waits. It suits a single shard, or tests.
func ImmediateQueue() shardnet.Queue {
	return immediateQueue{}
}
