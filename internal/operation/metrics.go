package operation

import (
	"context"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/tombee/soarbridge/internal/operation/transport"
)

// Command outcomes recorded by Metrics.
const (
	OutcomeSuccess = "success"
	OutcomeFailed  = "failed"
	OutcomeError   = "error"
)

// Metrics records invocation metrics on a private registry so that a
// single invocation can write them to a node-exporter textfile.
type Metrics struct {
	registry *prometheus.Registry

	commands        *prometheus.CounterVec
	commandDuration *prometheus.HistogramVec
	vendorRequests  *prometheus.CounterVec
	vendorDuration  *prometheus.HistogramVec
	lastRun         *prometheus.GaugeVec
}

// NewMetrics creates the collectors on a fresh registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		// commands counts command executions by outcome
		commands: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "soarbridge_commands_total",
				Help: "Total commands executed by instance, adapter, command and outcome",
			},
			[]string{"instance", "vendor", "command", "outcome"},
		),

		commandDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "soarbridge_command_duration_seconds",
				Help:    "Command duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"instance", "vendor", "command"},
		),

		// vendorRequests counts vendor HTTP round trips by status code;
		// status "0" means no response was received
		vendorRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "soarbridge_vendor_requests_total",
				Help: "Total vendor requests by instance and HTTP status",
			},
			[]string{"instance", "status"},
		),

		vendorDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "soarbridge_vendor_request_duration_seconds",
				Help:    "Vendor request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"instance"},
		),

		lastRun: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "soarbridge_last_run_timestamp_seconds",
				Help: "Unix time of the last command run by instance and command",
			},
			[]string{"instance", "command"},
		),
	}
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// RecordCommand records one command execution.
func (m *Metrics) RecordCommand(instance, vendor, command, outcome string, duration time.Duration) {
	m.commands.WithLabelValues(instance, vendor, command, outcome).Inc()
	m.commandDuration.WithLabelValues(instance, vendor, command).Observe(duration.Seconds())
	m.lastRun.WithLabelValues(instance, command).SetToCurrentTime()
}

// RecordVendorRequest records one vendor round trip.
func (m *Metrics) RecordVendorRequest(instance string, statusCode int, duration time.Duration) {
	m.vendorRequests.WithLabelValues(instance, strconv.Itoa(statusCode)).Inc()
	m.vendorDuration.WithLabelValues(instance).Observe(duration.Seconds())
}

// WriteTextfile writes all metrics to path in the text exposition format.
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.registry)
}

// Instrument wraps t so every request is recorded against instance.
func (m *Metrics) Instrument(instance string, t transport.Transport) transport.Transport {
	return &instrumentedTransport{Transport: t, instance: instance, metrics: m}
}

type instrumentedTransport struct {
	transport.Transport
	instance string
	metrics  *Metrics
}

func (t *instrumentedTransport) Execute(ctx context.Context, req *transport.Request) (*transport.Response, error) {
	start := time.Now()
	resp, err := t.Transport.Execute(ctx, req)

	status := 0
	if resp != nil {
		status = resp.StatusCode
	} else if err != nil {
		status = transport.StatusCode(err)
	}
	t.metrics.RecordVendorRequest(t.instance, status, time.Since(start))

	return resp, err
}

// Unwrap returns the wrapped transport.
func (t *instrumentedTransport) Unwrap() transport.Transport {
	return t.Transport
}
