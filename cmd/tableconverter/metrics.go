package main

import (
	"go.uber.org/zap"

	"tableconverter/internal/config"
	"tableconverter/internal/logger"
	"tableconverter/internal/metrics"
	"tableconverter/internal/metrics/datadog"
	"tableconverter/internal/metrics/prompush"
)

// setupMetrics installs the configured metrics backend. The returned
// function flushes it and must be called once the run is over.
func setupMetrics(run *config.Run, log *zap.SugaredLogger) (func(), error) {
	m := run.Metrics
	switch m.Backend {
	case config.MetricsPromPush:
		b, err := prompush.NewBackend(m.Job, m.PushgatewayURL)
		if err != nil {
			return nil, err
		}
		metrics.SetBackend(b)
	case config.MetricsDatadog:
		b, err := datadog.NewBackend(datadog.Config{
			Addr:       m.DatadogAddr,
			GlobalTags: []string{"job:" + m.Job},
		})
		if err != nil {
			return nil, err
		}
		metrics.SetBackend(b)
	default:
		return func() {}, nil
	}

	log.Infow("metrics enabled", "backend", m.Backend, "job", m.Job)
	return func() {
		if err := metrics.Flush(); err != nil {
			log.Warnw("metrics flush failed", "backend", m.Backend, logger.FieldError, err)
		}
		metrics.Reset()
	}, nil
}
