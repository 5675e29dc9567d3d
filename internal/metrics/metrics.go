package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics of the station core.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	// Device link metrics
	CommandsSent   *prometheus.CounterVec
	LinesReceived  *prometheus.CounterVec
	LinkReadErrors *prometheus.CounterVec

	// Station metrics
	UnrecognizedResponses prometheus.Counter
	AutoFocusDuration     prometheus.Histogram

	// Broadcaster metrics
	Broadcasts       prometheus.Counter
	PrunedConns      prometheus.Counter
	ConnectedClients prometheus.Gauge

	// Router metrics
	Packets *prometheus.CounterVec

	// Script engine metrics
	ScanRuns   *prometheus.CounterVec
	ScanSteps  *prometheus.CounterVec
	ActiveRuns prometheus.Gauge
}

// NewMetrics creates a new Metrics instance with all metrics registered
func NewMetrics(registry prometheus.Registerer) *Metrics {
	factory := promauto.With(registry)

	return &Metrics{
		CommandsSent: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "station_commands_sent_total",
				Help: "Total number of commands written to a device link",
			},
			[]string{"link"},
		),
		LinesReceived: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "station_lines_received_total",
				Help: "Total number of lines read from a device link",
			},
			[]string{"link"},
		),
		LinkReadErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "station_link_read_errors_total",
				Help: "Total number of transient read errors per device link",
			},
			[]string{"link"},
		),
		UnrecognizedResponses: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "station_unrecognized_responses_total",
				Help: "Total number of response lines outside the known grammar",
			},
		),
		AutoFocusDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "station_autofocus_duration_seconds",
				Help:    "Duration of closed-loop autofocus searches",
				Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60, 120},
			},
		),
		Broadcasts: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "station_broadcasts_total",
				Help: "Total number of messages fanned out to UI clients",
			},
		),
		PrunedConns: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "station_broadcast_pruned_connections_total",
				Help: "Total number of UI connections removed after a failed send",
			},
		),
		ConnectedClients: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "station_connected_clients",
				Help: "Number of live UI connections",
			},
		),
		Packets: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "station_packets_total",
				Help: "Total number of inbound packets by type and outcome",
			},
			[]string{"type", "outcome"},
		),
		ScanRuns: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "station_scan_runs_total",
				Help: "Total number of finished scan runs by status",
			},
			[]string{"status"},
		),
		ScanSteps: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "station_scan_steps_total",
				Help: "Total number of executed script steps by operation",
			},
			[]string{"op"},
		),
		ActiveRuns: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "station_active_scan_runs",
				Help: "Number of scan runs currently executing",
			},
		),
	}
}

func (m *Metrics) CommandSent(link string) {
	if m == nil {
		return
	}
	m.CommandsSent.WithLabelValues(link).Inc()
}

func (m *Metrics) LineReceived(link string) {
	if m == nil {
		return
	}
	m.LinesReceived.WithLabelValues(link).Inc()
}

func (m *Metrics) ReadError(link string) {
	if m == nil {
		return
	}
	m.LinkReadErrors.WithLabelValues(link).Inc()
}

func (m *Metrics) Unrecognized() {
	if m == nil {
		return
	}
	m.UnrecognizedResponses.Inc()
}

func (m *Metrics) ObserveAutoFocus(seconds float64) {
	if m == nil {
		return
	}
	m.AutoFocusDuration.Observe(seconds)
}

func (m *Metrics) Broadcast() {
	if m == nil {
		return
	}
	m.Broadcasts.Inc()
}

func (m *Metrics) Pruned() {
	if m == nil {
		return
	}
	m.PrunedConns.Inc()
}

func (m *Metrics) SetClients(n int) {
	if m == nil {
		return
	}
	m.ConnectedClients.Set(float64(n))
}

func (m *Metrics) Packet(packetType, outcome string) {
	if m == nil {
		return
	}
	m.Packets.WithLabelValues(packetType, outcome).Inc()
}

func (m *Metrics) RunFinished(status string) {
	if m == nil {
		return
	}
	m.ScanRuns.WithLabelValues(status).Inc()
}

func (m *Metrics) StepExecuted(op string) {
	if m == nil {
		return
	}
	m.ScanSteps.WithLabelValues(op).Inc()
}

func (m *Metrics) RunStarted() {
	if m == nil {
		return
	}
	m.ActiveRuns.Inc()
}

func (m *Metrics) RunStopped() {
	if m == nil {
		return
	}
	m.ActiveRuns.Dec()
}
