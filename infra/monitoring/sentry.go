// Package monitoring provides the Sentry-backed error monitor.
package monitoring

import (
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/kilianp07/rosterplan/config"
	coremon "github.com/kilianp07/rosterplan/core/monitoring"
)

const serviceTag = "rosterplan"

// NewSentryMonitor builds a monitor on its own hub so tests and
// concurrent services do not share scope state. A disabled config yields
// a no-op monitor.
func NewSentryMonitor(cfg config.SentryConfig) (coremon.Monitor, error) {
	if !cfg.Enabled() {
		return coremon.NopMonitor{}, nil
	}
	client, err := sentry.NewClient(sentry.ClientOptions{
		Dsn:              cfg.DSN,
		Environment:      cfg.Environment,
		Release:          cfg.Release,
		ServerName:       cfg.ServerName,
		TracesSampleRate: cfg.TracesSampleRate,
		Debug:            cfg.Debug,
	})
	if err != nil {
		return nil, err
	}
	scope := sentry.NewScope()
	scope.SetTag("service", serviceTag)
	return &sentryMonitor{hub: sentry.NewHub(client, scope)}, nil
}

type sentryMonitor struct {
	hub *sentry.Hub
}

func (m *sentryMonitor) CaptureException(err error, tags map[string]string) {
	if err == nil {
		return
	}
	m.hub.WithScope(func(scope *sentry.Scope) {
		scope.SetTags(tags)
		m.hub.CaptureException(err)
	})
}

func (m *sentryMonitor) CapturePanic(v any) {
	m.hub.Recover(v)
}

func (m *sentryMonitor) Flush(timeout time.Duration) { m.hub.Flush(timeout) }
