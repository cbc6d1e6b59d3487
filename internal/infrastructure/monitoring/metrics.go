package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Update outcomes.
const (
	OutcomeApplied       = "applied"
	OutcomeNoop          = "noop"
	OutcomeUninitialized = "uninitialized"
)

// Axis decisions.
const (
	DecisionChanged  = "changed"
	DecisionStripped = "stripped"
	DecisionAbsent   = "absent"
)

// Metrics holds all Prometheus metrics. Every method is safe on a nil
// receiver so components can run without metrics wired.
type Metrics struct {
	// Configuration metrics
	ConfigUpdates  *prometheus.CounterVec
	AxisDecisions  *prometheus.CounterVec
	UpdateDuration prometheus.Histogram
	ColorModeLevel prometheus.Gauge

	// Stage metrics
	StageBroadcasts *prometheus.CounterVec
	StagesActive    prometheus.Gauge

	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	// WebSocket metrics
	WSConnections prometheus.Gauge
	WSMessages    *prometheus.CounterVec

	startTime time.Time
}

// NewMetrics registers all metrics with reg. Pass prometheus.DefaultRegisterer
// in production and a fresh prometheus.NewRegistry() in tests.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	m := &Metrics{startTime: time.Now()}

	m.ConfigUpdates = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ability_config_updates_total",
			Help: "Configuration updates received, by caller level and outcome",
		},
		[]string{"level", "outcome"},
	)
	m.AxisDecisions = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ability_config_axis_decisions_total",
			Help: "Per-axis filter decisions",
		},
		[]string{"axis", "level", "decision"},
	)
	m.UpdateDuration = factory.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ability_config_update_duration_seconds",
			Help:    "Time spent filtering, merging and broadcasting one update",
			Buckets: []float64{.00005, .0001, .00025, .0005, .001, .0025, .005, .01, .05},
		},
	)
	m.ColorModeLevel = factory.NewGauge(
		prometheus.GaugeOpts{
			Name: "ability_color_mode_level",
			Help: "Ordinal of the level currently owning colour mode (0=system, 1=sa, 2=application)",
		},
	)

	m.StageBroadcasts = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ability_stage_broadcasts_total",
			Help: "Merged configuration deliveries to ability stages",
		},
		[]string{"outcome"},
	)
	m.StagesActive = factory.NewGauge(
		prometheus.GaugeOpts{
			Name: "ability_stages_active",
			Help: "Number of registered ability stages",
		},
	)

	m.RequestsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ability_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)
	m.RequestDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ability_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"method", "path"},
	)

	m.WSConnections = factory.NewGauge(
		prometheus.GaugeOpts{
			Name: "ability_ws_connections",
			Help: "Number of active WebSocket subscribers",
		},
	)
	m.WSMessages = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ability_ws_messages_total",
			Help: "Total number of WebSocket messages",
		},
		[]string{"direction", "type"},
	)

	factory.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "ability_uptime_seconds",
			Help: "Host uptime in seconds",
		},
		func() float64 { return time.Since(m.startTime).Seconds() },
	)

	return m
}

// RecordUpdate records the outcome of one configuration update.
func (m *Metrics) RecordUpdate(level, outcome string, duration time.Duration) {
	if m == nil {
		return
	}
	m.ConfigUpdates.WithLabelValues(level, outcome).Inc()
	m.UpdateDuration.Observe(duration.Seconds())
}

// RecordAxisDecision records one filter decision.
func (m *Metrics) RecordAxisDecision(axis, level, decision string) {
	if m == nil {
		return
	}
	m.AxisDecisions.WithLabelValues(axis, level, decision).Inc()
}

// SetColorModeLevel publishes the owning colour-mode level ordinal.
func (m *Metrics) SetColorModeLevel(ordinal int) {
	if m == nil {
		return
	}
	m.ColorModeLevel.Set(float64(ordinal))
}

// RecordBroadcast records one delivery attempt to a stage.
func (m *Metrics) RecordBroadcast(delivered bool) {
	if m == nil {
		return
	}
	outcome := "delivered"
	if !delivered {
		outcome = "skipped"
	}
	m.StageBroadcasts.WithLabelValues(outcome).Inc()
}

// SetStagesActive sets the number of registered stages.
func (m *Metrics) SetStagesActive(count int) {
	if m == nil {
		return
	}
	m.StagesActive.Set(float64(count))
}

// RecordHTTPRequest records an HTTP request.
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(method, path, status).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordWSMessage records a WebSocket message.
func (m *Metrics) RecordWSMessage(direction, msgType string) {
	if m == nil {
		return
	}
	m.WSMessages.WithLabelValues(direction, msgType).Inc()
}

// IncWSConnections increments WebSocket connections.
func (m *Metrics) IncWSConnections() {
	if m == nil {
		return
	}
	m.WSConnections.Inc()
}

// DecWSConnections decrements WebSocket connections.
func (m *Metrics) DecWSConnections() {
	if m == nil {
		return
	}
	m.WSConnections.Dec()
}
