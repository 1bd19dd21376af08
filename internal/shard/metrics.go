package shard

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/luciancaetano/shardnet"
)

// MetricsConfig configures the shard Prometheus metrics.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "shardnet").
	Namespace string

	// Subsystem is the metrics subsystem (default: "shard").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for heartbeat latency.
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// DefaultMetricsConfig returns the default metrics configuration.
func DefaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Namespace: "shardnet",
		Subsystem: "shard",
		Buckets:   []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		Registry:  prometheus.DefaultRegisterer,
	}
}

// Metrics holds the Prometheus collectors shared by all shards of a process. A nil
// *Metrics records nothing.
type Metrics struct {
	connects         *prometheus.CounterVec
	connectFailures  *prometheus.CounterVec
	disconnects      *prometheus.CounterVec
	sequenceGaps     *prometheus.CounterVec
	events           *prometheus.CounterVec
	commands         *prometheus.CounterVec
	heartbeatLatency *prometheus.HistogramVec
	status           *prometheus.GaugeVec
	compression      *prometheus.GaugeVec
}

// NewMetrics registers the shard collectors with config.Registry.
func NewMetrics(config MetricsConfig) *Metrics {
	factory := promauto.With(config.Registry)
	opts := func(name, help string) prometheus.Opts {
		return prometheus.Opts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        name,
			Help:        help,
			ConstLabels: config.ConstLabels,
		}
	}

	return &Metrics{
		connects: factory.NewCounterVec(prometheus.CounterOpts(
			opts("connects_total", "Total number of gateway connections established"),
		), []string{"shard"}),
		connectFailures: factory.NewCounterVec(prometheus.CounterOpts(
			opts("connect_failures_total", "Total number of failed gateway connection attempts"),
		), []string{"shard"}),
		disconnects: factory.NewCounterVec(prometheus.CounterOpts(
			opts("disconnects_total", "Total number of gateway disconnects by reason"),
		), []string{"shard", "reason"}),
		sequenceGaps: factory.NewCounterVec(prometheus.CounterOpts(
			opts("sequence_gaps_total", "Total number of dispatches dropped for skipping a sequence"),
		), []string{"shard"}),
		events: factory.NewCounterVec(prometheus.CounterOpts(
			opts("events_total", "Total number of gateway payloads received by opcode"),
		), []string{"shard", "op"}),
		commands: factory.NewCounterVec(prometheus.CounterOpts(
			opts("commands_total", "Total number of payloads sent"),
		), []string{"shard"}),
		heartbeatLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "heartbeat_latency_seconds",
			Help:        "Round trip between a heartbeat and its acknowledgement",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}, []string{"shard"}),
		status: factory.NewGaugeVec(prometheus.GaugeOpts(
			opts("status", "Current connection status of the shard"),
		), []string{"shard"}),
		compression: factory.NewGaugeVec(prometheus.GaugeOpts(
			opts("compression_ratio", "Decompressed to compressed bytes on the current connection"),
		), []string{"shard"}),
	}
}

func shardLabel(id shardnet.ShardID) string {
	return strconv.FormatUint(uint64(id.Number), 10)
}

func (m *Metrics) connected(id shardnet.ShardID) {
	if m == nil {
		return
	}
	m.connects.WithLabelValues(shardLabel(id)).Inc()
}

func (m *Metrics) connectFailed(id shardnet.ShardID) {
	if m == nil {
		return
	}
	m.connectFailures.WithLabelValues(shardLabel(id)).Inc()
}

func (m *Metrics) disconnected(id shardnet.ShardID, reason string) {
	if m == nil {
		return
	}
	m.disconnects.WithLabelValues(shardLabel(id), reason).Inc()
}

func (m *Metrics) sequenceGap(id shardnet.ShardID) {
	if m == nil {
		return
	}
	m.sequenceGaps.WithLabelValues(shardLabel(id)).Inc()
}

func (m *Metrics) received(id shardnet.ShardID, op string) {
	if m == nil {
		return
	}
	m.events.WithLabelValues(shardLabel(id), op).Inc()
}

func (m *Metrics) sent(id shardnet.ShardID) {
	if m == nil {
		return
	}
	m.commands.WithLabelValues(shardLabel(id)).Inc()
}

func (m *Metrics) heartbeatAcked(id shardnet.ShardID, rtt time.Duration) {
	if m == nil {
		return
	}
	m.heartbeatLatency.WithLabelValues(shardLabel(id)).Observe(rtt.Seconds())
}

func (m *Metrics) statusChanged(id shardnet.ShardID, status shardnet.Status) {
	if m == nil {
		return
	}
	m.status.WithLabelValues(shardLabel(id)).Set(float64(status))
}

func (m *Metrics) compressionRatio(id shardnet.ShardID, ratio float64) {
	if m == nil {
		return
	}
	m.compression.WithLabelValues(shardLabel(id)).Set(ratio)
}
