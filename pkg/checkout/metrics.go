package checkout

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/shopframe/shopframe/pkg/license"
	"github.com/shopframe/shopframe/pkg/telemetry"
)

var (
	promSessionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "shopframe",
		Name:      "sessions_active_total",
		Help:      "Number of active checkout sessions.",
	})
	promResultsDelivered = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "shopframe",
		Name:      "results_delivered_total",
		Help:      "Checkout results delivered to callers.",
	})
	promParseFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "shopframe",
		Name:      "parse_failures_total",
		Help:      "Payloads that could not be parsed, by failure kind.",
	}, []string{"kind"})
	promMessagesReceived = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "shopframe",
		Name:      "messages_received_total",
		Help:      "Raw payload messages received from content contexts.",
	})
)

// Metrics tracks checkout performance counters.
type Metrics struct {
	SessionsStarted   atomic.Int64
	SessionsDismissed atomic.Int64
	MessagesReceived  atomic.Int64
	ParseFailures     atomic.Int64
	ResultsDelivered  atomic.Int64
	RecordsDelivered  atomic.Int64
	LoadFailures      atomic.Int64

	mu  sync.RWMutex
	hub *telemetry.Hub
}

// NewMetrics creates a metrics collector.
func NewMetrics() *Metrics {
	return &Metrics{}
}

// EnableTelemetry wires the collector to a telemetry hub.
func (m *Metrics) EnableTelemetry(hub *telemetry.Hub) {
	if m == nil {
		return
	}
	m.mu.Lock()
	m.hub = hub
	m.mu.Unlock()
}

// RecordSessionStarted increments session counters.
func (m *Metrics) RecordSessionStarted(sessionID string) {
	if m == nil {
		return
	}
	m.SessionsStarted.Add(1)
	promSessionsActive.Inc()
	m.publishEvent(telemetry.EventSessionStarted, sessionID, nil)
}

// RecordSessionDismissed increments dismissal counters. emptyDelivered is
// true when the dismissal itself delivered the empty-success fallback.
func (m *Metrics) RecordSessionDismissed(sessionID string, emptyDelivered bool) {
	if m == nil {
		return
	}
	m.SessionsDismissed.Add(1)
	promSessionsActive.Dec()
	m.publishEvent(telemetry.EventSessionDismissed, sessionID, map[string]any{
		"empty_delivered": emptyDelivered,
	})
}

// RecordMessageReceived counts one raw payload delivery.
func (m *Metrics) RecordMessageReceived(sessionID string) {
	if m == nil {
		return
	}
	m.MessagesReceived.Add(1)
	promMessagesReceived.Inc()
	m.publishEvent(telemetry.EventMessageReceived, sessionID, nil)
}

// RecordParseFailure counts one undecodable payload.
func (m *Metrics) RecordParseFailure(sessionID string, kind license.Kind) {
	if m == nil {
		return
	}
	m.ParseFailures.Add(1)
	promParseFailures.WithLabelValues(string(kind)).Inc()
	m.publishEvent(telemetry.EventParseFailed, sessionID, map[string]any{
		"kind": string(kind),
	})
}

// RecordResultDelivered counts one successful delivery of records.
func (m *Metrics) RecordResultDelivered(sessionID string, records int) {
	if m == nil {
		return
	}
	m.ResultsDelivered.Add(1)
	m.RecordsDelivered.Add(int64(records))
	promResultsDelivered.Inc()
	m.publishEvent(telemetry.EventResultDelivered, sessionID, map[string]any{
		"records": records,
	})
}

// RecordLoadFailure counts one load command that could not be issued.
func (m *Metrics) RecordLoadFailure(sessionID string, err error) {
	if m == nil {
		return
	}
	m.LoadFailures.Add(1)
	data := map[string]any{}
	if err != nil {
		data["error"] = err.Error()
	}
	m.publishEvent(telemetry.EventPageLoadFailed, sessionID, data)
}

// Snapshot returns a point-in-time copy of all counters.
func (m *Metrics) Snapshot() MetricsSnapshot {
	if m == nil {
		return MetricsSnapshot{}
	}
	return MetricsSnapshot{
		SessionsStarted:   m.SessionsStarted.Load(),
		SessionsDismissed: m.SessionsDismissed.Load(),
		MessagesReceived:  m.MessagesReceived.Load(),
		ParseFailures:     m.ParseFailures.Load(),
		ResultsDelivered:  m.ResultsDelivered.Load(),
		RecordsDelivered:  m.RecordsDelivered.Load(),
		LoadFailures:      m.LoadFailures.Load(),
	}
}

func (m *Metrics) publishEvent(eventType telemetry.EventType, sessionID string, data map[string]any) {
	m.mu.RLock()
	hub := m.hub
	m.mu.RUnlock()
	if hub == nil {
		return
	}
	hub.Publish(telemetry.Event{
		Type:      eventType,
		Timestamp: time.Now(),
		SessionID: sessionID,
		Data:      data,
	})
}

// MetricsSnapshot is a point-in-time copy of checkout metrics.
type MetricsSnapshot struct {
	SessionsStarted   int64
	SessionsDismissed int64
	MessagesReceived  int64
	ParseFailures     int64
	ResultsDelivered  int64
	RecordsDelivered  int64
	LoadFailures      int64
}
