// Package metrics exposes Prometheus counters for the prediction flow on
// a custom registry, keeping the default Go collectors out of the
// scrape surface.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Manager owns every counter the gateway records.
type Manager struct {
	registry *prometheus.Registry

	MessagesSeen       prometheus.Counter
	ParseMisses        prometheus.Counter
	PredictionsEmitted prometheus.Counter
	Resolutions        *prometheus.CounterVec // label: outcome = success|failed
	PersistenceFaults  prometheus.Counter
	TransportFaults    prometheus.Counter
}

// New builds a Manager with its own registry.
func New() *Manager {
	registry := prometheus.NewRegistry()
	m := &Manager{
		registry: registry,
		MessagesSeen: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "damebot",
			Name:      "messages_seen_total",
			Help:      "Inbound source-channel messages processed.",
		}),
		ParseMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "damebot",
			Name:      "parse_misses_total",
			Help:      "Messages with no extractable game number.",
		}),
		PredictionsEmitted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "damebot",
			Name:      "predictions_emitted_total",
			Help:      "Predictions sent to the prediction channel.",
		}),
		Resolutions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "damebot",
			Name:      "resolutions_total",
			Help:      "Prediction resolutions by outcome.",
		}, []string{"outcome"}),
		PersistenceFaults: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "damebot",
			Name:      "persistence_faults_total",
			Help:      "Failed state file reads or writes.",
		}),
		TransportFaults: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "damebot",
			Name:      "transport_faults_total",
			Help:      "Failed outbound send or edit calls.",
		}),
	}
	registry.MustRegister(
		m.MessagesSeen,
		m.ParseMisses,
		m.PredictionsEmitted,
		m.Resolutions,
		m.PersistenceFaults,
		m.TransportFaults,
	)
	return m
}

// Registry returns the backing registry for the /metrics handler.
func (m *Manager) Registry() *prometheus.Registry {
	return m.registry
}
