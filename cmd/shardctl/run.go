package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/luciancaetano/shardnet"
	"github.com/luciancaetano/shardnet/cache"
	"github.com/luciancaetano/shardnet/gateway"
	"github.com/luciancaetano/shardnet/internal/logging"
	"github.com/luciancaetano/shardnet/model"
)

const envPrefix = "SHARDCTL"

// options are the resolved settings of the run command.
type options struct {
	Token         string
	Intents       model.Intents
	Shard         uint32
	Shards        uint32
	GatewayURL    string
	Compress      bool
	CommandGate   bool
	MaxReconnects int
	MetricsAddr   string
	LogLevel      slog.Level
}

func runCmd() *cobra.Command {
	cmd, _ := newRunCommand()
	return cmd
}

// newRunCommand returns the run command and the viper instance its flags and the
// SHARDCTL_ environment are bound to.
func newRunCommand() (*cobra.Command, *viper.Viper) {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Connect a shard and keep it running",
		Long: `Connect one shard to the gateway and run it until interrupted.

Dispatches are applied to an in-memory cache. With --metrics-addr, shard
metrics are served at /metrics.

Examples:
  shardctl run --token=$TOKEN
  shardctl run --token=$TOKEN --shard=1 --shards=4 --metrics-addr=:9090
  SHARDCTL_TOKEN=... shardctl run --intents=513 --log-level=debug`,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := loadOptions(v)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return run(ctx, opts)
		},
	}

	flags := cmd.Flags()
	flags.String("token", "", "Bot token (required)")
	flags.Uint64("intents", uint64(model.IntentGuilds|model.IntentGuildMessages), "Gateway intents bitmask")
	flags.Uint32("shard", 0, "Shard number")
	flags.Uint32("shards", 1, "Total number of shards")
	flags.String("gateway-url", shardnet.DefaultGatewayURL, "Gateway base URL")
	flags.Bool("no-compress", false, "Disable zlib-stream transport compression")
	flags.Bool("no-command-gate", false, "Disable command rate limiting")
	flags.Int("max-reconnects", 0, "Failed dials in a row before giving up (0 = unbounded)")
	flags.String("metrics-addr", "", "Address to serve Prometheus metrics on")
	flags.String("log-level", "info", "Log level (debug, info, warn, error)")

	_ = v.BindPFlags(flags)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	return cmd, v
}

func loadOptions(v *viper.Viper) (options, error) {
	opts := options{
		Token:         v.GetString("token"),
		Intents:       model.Intents(v.GetUint64("intents")),
		Shard:         v.GetUint32("shard"),
		Shards:        v.GetUint32("shards"),
		GatewayURL:    v.GetString("gateway-url"),
		Compress:      !v.GetBool("no-compress"),
		CommandGate:   !v.GetBool("no-command-gate"),
		MaxReconnects: v.GetInt("max-reconnects"),
		MetricsAddr:   v.GetString("metrics-addr"),
	}

	if opts.Token == "" {
		return opts, errors.New("a token is required (--token or SHARDCTL_TOKEN)")
	}
	if opts.Shards == 0 || opts.Shard >= opts.Shards {
		return opts, fmt.Errorf("invalid shard %d of %d", opts.Shard, opts.Shards)
	}
	level, err := logging.ParseLevel(v.GetString("log-level"))
	if err != nil {
		return opts, err
	}
	opts.LogLevel = level
	return opts, nil
}

func newConfig(opts options, logger *slog.Logger, metrics *gateway.Metrics) *gateway.Config {
	cfg := gateway.NewConfig(opts.Token, opts.Intents)
	cfg.ShardID = shardnet.ShardID{Number: opts.Shard, Total: opts.Shards}
	cfg.GatewayURL = opts.GatewayURL
	cfg.Compress = opts.Compress
	cfg.Reconnect.MaxAttempts = opts.MaxReconnects
	if !opts.CommandGate {
		cfg.CommandGate = gateway.NoCommandGate()
	}
	cfg.Logger = logger
	cfg.Metrics = metrics
	return cfg
}

func run(ctx context.Context, opts options) error {
	logger := logging.New(os.Stderr, logging.Options{Level: opts.LogLevel, NoColor: color.NoColor})

	var metrics *gateway.Metrics
	if opts.MetricsAddr != "" {
		reg := prometheus.NewRegistry()
		mcfg := gateway.DefaultMetricsConfig()
		mcfg.Registry = reg
		metrics = gateway.NewMetrics(mcfg)

		srv := &http.Server{
			Addr:              opts.MetricsAddr,
			Handler:           promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			logger.Info("serving metrics", "addr", opts.MetricsAddr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics server failed", "error", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	s := gateway.New(newConfig(opts, logger, metrics))
	c := cache.New(cache.DefaultConfig())

	d := gateway.NewDispatcher(gateway.WithLogger(logger))
	d.On(model.EventReady, func(_ context.Context, id shardnet.ShardID, event model.Event) {
		ready := event.(*model.Ready)
		logger.Info("shard ready", "shard", id.Number, "user", ready.User.Username, "guilds", len(ready.Guilds))
	})
	d.On(gateway.AllEvents, func(_ context.Context, id shardnet.ShardID, event model.Event) {
		logger.Debug("dispatch", "shard", id.Number, "event", event.EventName())
	})

	err := gateway.Run(ctx, s, gateway.RunOptions{Cache: c, Dispatcher: d, Logger: logger})

	stats := c.Stats()
	logger.Info("shard stopped", "guilds", stats.Guilds, "channels", stats.Channels, "members", stats.Members)

	if errors.Is(err, context.Canceled) {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if _, cerr := s.Close(closeCtx, gateway.CloseFrame{Code: gateway.CloseNormal}); cerr != nil {
			logger.Warn("closing shard failed", "error", cerr)
		}
		return nil
	}
	return err
}
