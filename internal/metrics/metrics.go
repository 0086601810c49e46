package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "solana_indexer"

// Metrics holds the pipeline collectors. A nil *Metrics is valid and records
// nothing.
type Metrics struct {
	eventsReceived *prometheus.CounterVec
	decodeSkipped  prometheus.Counter
	transformErrs  *prometheus.CounterVec
	flushes        *prometheus.CounterVec
	flushErrors    *prometheus.CounterVec
	flushDuration  *prometheus.HistogramVec
	rowsWritten    *prometheus.CounterVec
	buffered       *prometheus.GaugeVec
	reconnects     prometheus.Counter
	backoffSeconds prometheus.Gauge
	channelDepth   prometheus.Gauge
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		eventsReceived: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_received_total",
			Help:      "Decoded stream events grouped by kind",
		}, []string{"kind"}),
		decodeSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "updates_skipped_total",
			Help:      "Stream updates that produced no event",
		}),
		transformErrs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transform_errors_total",
			Help:      "Events dropped because they could not be converted to rows",
		}, []string{"table"}),
		flushes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "flushes_total",
			Help:      "Successful batch writes grouped by table",
		}, []string{"table"}),
		flushErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "flush_errors_total",
			Help:      "Failed batch writes grouped by table",
		}, []string{"table"}),
		flushDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "flush_duration_seconds",
			Help:      "Batch write latency grouped by table",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 12),
		}, []string{"table"}),
		rowsWritten: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_written_total",
			Help:      "Rows written to storage grouped by table",
		}, []string{"table"}),
		buffered: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "buffered_events",
			Help:      "Events waiting for the next flush grouped by table",
		}, []string{"table"}),
		reconnects: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stream_reconnects_total",
			Help:      "Stream sessions that ended and were restarted",
		}),
		backoffSeconds: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "stream_backoff_seconds",
			Help:      "Current reconnect delay",
		}),
		channelDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "event_channel_depth",
			Help:      "Events queued between the stream reader and the batch processor",
		}),
	}

	if reg != nil {
		reg.MustRegister(
			m.eventsReceived,
			m.decodeSkipped,
			m.transformErrs,
			m.flushes,
			m.flushErrors,
			m.flushDuration,
			m.rowsWritten,
			m.buffered,
			m.reconnects,
			m.backoffSeconds,
			m.channelDepth,
		)
	}
	return m
}

func (m *Metrics) RecordEvent(kind string) {
	if m == nil {
		return
	}
	m.eventsReceived.WithLabelValues(kind).Inc()
}

func (m *Metrics) RecordSkippedUpdate() {
	if m == nil {
		return
	}
	m.decodeSkipped.Inc()
}

func (m *Metrics) RecordTransformError(table string) {
	if m == nil {
		return
	}
	m.transformErrs.WithLabelValues(table).Inc()
}

// RecordFlush records a successful batch write of rows rows.
func (m *Metrics) RecordFlush(table string, rows int, seconds float64) {
	if m == nil {
		return
	}
	m.flushes.WithLabelValues(table).Inc()
	m.rowsWritten.WithLabelValues(table).Add(float64(rows))
	m.flushDuration.WithLabelValues(table).Observe(seconds)
}

func (m *Metrics) RecordFlushError(table string) {
	if m == nil {
		return
	}
	m.flushErrors.WithLabelValues(table).Inc()
}

func (m *Metrics) SetBuffered(table string, n int) {
	if m == nil {
		return
	}
	m.buffered.WithLabelValues(table).Set(float64(n))
}

func (m *Metrics) RecordReconnect(delaySeconds float64) {
	if m == nil {
		return
	}
	m.reconnects.Inc()
	m.backoffSeconds.Set(delaySeconds)
}

func (m *Metrics) SetChannelDepth(n int) {
	if m == nil {
		return
	}
	m.channelDepth.Set(float64(n))
}
