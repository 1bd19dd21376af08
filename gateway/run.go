package gateway

import (
	"context"
	"log/slog"

	"github.com/luciancaetano/shardnet"
	"github.com/luciancaetano/shardnet/cache"
	"github.com/luciancaetano/shardnet/internal/dispatch"
	"github.com/luciancaetano/shardnet/internal/protocol"
)

// WithTracerProvider sets the provider dispatch spans are started from.
var WithTracerProvider = dispatch.WithTracerProvider

// WithLogger sets the logger dispatch handler panics are reported to.
var WithLogger = dispatch.WithLogger

// RunOptions wires a shard to the rest of the pipeline. Every field is optional.
type RunOptions struct {
	// Cache is updated with each dispatch before any listener sees it.
	Cache *cache.InMemoryCache

	// Dispatcher receives each dispatch after the cache. Listeners are added to it; when
	// nil, a new dispatcher is created for them.
	Dispatcher *Dispatcher

	// Listeners are registered on the dispatcher before the first event.
	Listeners []shardnet.Listener

	Logger *slog.Logger
}

// Run drives s until ctx is done or the shard fails fatally. Dispatches are applied to the
// cache and then handed to the dispatcher, in order. Recoverable errors are logged and the
// shard reconnects on the next iteration.
//
// The returned error is ctx.Err() on cancellation, and the shard's error otherwise.
func Run(ctx context.Context, s shardnet.Shard, opts RunOptions) error {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("shard", s.ID().Number)

	d := opts.Dispatcher
	if d == nil {
		d = dispatch.New(dispatch.WithLogger(logger))
	}
	for _, l := range opts.Listeners {
		d.AddListener(l)
	}

	for {
		event, err := s.NextEvent(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if IsFatal(err) {
				logger.Error("shard closed fatally", "error", err)
				return err
			}
			logger.Warn("receiving gateway event failed", "error", err)
			continue
		}

		switch e := event.(type) {
		case protocol.Dispatch:
			if opts.Cache != nil {
				opts.Cache.Update(e.Event)
			}
			d.Handle(ctx, s.ID(), e.Event)
		case protocol.GatewayClose:
			if e.Frame != nil {
				logger.Info("gateway closed connection", "code", e.Frame.Code, "reason", e.Frame.Reason)
			} else {
				logger.Info("gateway closed connection")
			}
		}
	}
}
