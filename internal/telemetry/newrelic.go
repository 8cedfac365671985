package telemetry

import (
	"time"

	"github.com/newrelic/go-agent/v3/newrelic"

	"example.com/medfleet/services/lorry/config"
)

// InitNewRelic initializes the New Relic application. Returns nil when
// telemetry is disabled.
func InitNewRelic(cfg *config.NewRelicConfig) (*newrelic.Application, error) {
	if !cfg.Enabled || cfg.LicenseKey == "" {
		return nil, nil
	}

	app, err := newrelic.NewApplication(
		newrelic.ConfigAppName(cfg.AppName),
		newrelic.ConfigLicense(cfg.LicenseKey),
		newrelic.ConfigDistributedTracerEnabled(true),
		newrelic.ConfigAppLogForwardingEnabled(true),
		newrelic.ConfigAppLogEnabled(true),
	)
	if err != nil {
		return nil, err
	}

	if err := app.WaitForConnection(5 * time.Second); err != nil {
		return nil, err
	}
	return app, nil
}
