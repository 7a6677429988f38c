// Package prompush implements a Prometheus Pushgateway backend for the
// metrics package.
//
// A conversion run is a short-lived batch job, so nothing is scraped: the
// collectors live in a private registry that Flush pushes to the gateway
// under the job name.
package prompush

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"

	"tableconverter/internal/errors"
	"tableconverter/internal/metrics"
)

// Backend is a Prometheus Pushgateway metrics backend.
type Backend struct {
	gatewayURL string // e.g. http://pushgateway:9091
	jobName    string // Pushgateway "job" group
	reg        *prometheus.Registry

	stepCounter  *prometheus.CounterVec
	stepDuration *prometheus.SummaryVec
	rowCounter   *prometheus.CounterVec
	codeCounter  *prometheus.CounterVec
}

// NewBackend constructs a Prometheus Pushgateway backend. jobName defaults
// to "tableconverter".
func NewBackend(jobName, gatewayURL string) (*Backend, error) {
	if gatewayURL == "" {
		return nil, errors.Configurationf("prompush: gateway URL is required")
	}
	if jobName == "" {
		jobName = "tableconverter"
	}

	reg := prometheus.NewRegistry()

	// job is the Pushgateway grouping key, so it is not a label here.
	stepCounter := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: metrics.StepTotal,
			Help: "Run stage executions by step and status.",
		},
		[]string{"step", "status"},
	)
	stepDuration := prometheus.NewSummaryVec(
		prometheus.SummaryOpts{
			Name:       metrics.StepDurationSeconds,
			Help:       "Run stage durations in seconds by step and status.",
			Objectives: map[float64]float64{0.5: 0.05, 0.9: 0.01, 0.99: 0.001},
		},
		[]string{"step", "status"},
	)
	rowCounter := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: metrics.RowsTotal,
			Help: "Export rows by outcome (read, inserted, skipped).",
		},
		[]string{"kind"},
	)
	codeCounter := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: metrics.AnswerCodesTotal,
			Help: "Satisfaction answer codes produced, by code.",
		},
		[]string{"code"},
	)

	for _, c := range []prometheus.Collector{stepCounter, stepDuration, rowCounter, codeCounter} {
		if err := reg.Register(c); err != nil {
			return nil, errors.Wrap(err, "prompush: register collector")
		}
	}

	return &Backend{
		gatewayURL:   gatewayURL,
		jobName:      jobName,
		reg:          reg,
		stepCounter:  stepCounter,
		stepDuration: stepDuration,
		rowCounter:   rowCounter,
		codeCounter:  codeCounter,
	}, nil
}

func (b *Backend) IncCounter(name string, delta float64, labels metrics.Labels) {
	switch name {
	case metrics.StepTotal:
		if b.stepCounter == nil {
			return
		}
		b.stepCounter.WithLabelValues(labels["step"], labels["status"]).Add(delta)

	case metrics.RowsTotal:
		if b.rowCounter == nil {
			return
		}
		b.rowCounter.WithLabelValues(labels["kind"]).Add(delta)

	case metrics.AnswerCodesTotal:
		if b.codeCounter == nil {
			return
		}
		b.codeCounter.WithLabelValues(labels["code"]).Add(delta)

	default:
		// unknown metric name: ignore
	}
}

func (b *Backend) ObserveHistogram(name string, value float64, labels metrics.Labels) {
	if name != metrics.StepDurationSeconds || b.stepDuration == nil {
		return
	}
	b.stepDuration.WithLabelValues(labels["step"], labels["status"]).Observe(value)
}

// Flush pushes the current registry to the Pushgateway.
func (b *Backend) Flush() error {
	if err := push.New(b.gatewayURL, b.jobName).Gatherer(b.reg).Push(); err != nil {
		return errors.Wrapf(err, "prompush: push to %s", b.gatewayURL)
	}
	return nil
}
