// ABOUTME: Prometheus collectors for the gateway worker, session manager and hub.
// ABOUTME: Collectors live on a package registry exposed through Handler.

package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "synapse"

// Registry holds every collector of this package.
var Registry = prometheus.NewRegistry()

var (
	// SessionsOpened counts sessions accepted by the session manager.
	SessionsOpened = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sessions_opened_total",
		Help:      "Sessions accepted by the gateway.",
	})

	// SessionsClosed counts sessions terminated, by initiator.
	SessionsClosed = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sessions_closed_total",
		Help:      "Sessions terminated by the gateway.",
	}, []string{"reason"})

	// ActiveSessions tracks sessions known to main logic.
	ActiveSessions = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "active_sessions",
		Help:      "Sessions currently open as seen by main logic.",
	})

	// PacketsReceived counts frames read from clients.
	PacketsReceived = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "packets_received_total",
		Help:      "Frames read from client connections.",
	})

	// PacketsSent counts frames written to clients.
	PacketsSent = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "packets_sent_total",
		Help:      "Frames written to client connections.",
	})

	// PacketsDropped counts outbound payloads that could not be delivered.
	PacketsDropped = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "packets_dropped_total",
		Help:      "Outbound payloads dropped before reaching a client.",
	}, []string{"reason"})

	// FaultsReported counts faults logged by the error reporter.
	FaultsReported = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "faults_reported_total",
		Help:      "Faults reported on the gateway worker.",
	}, []string{"severity"})

	// GatewayState exposes the worker lifecycle state as its numeric value.
	GatewayState = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "gateway_state",
		Help:      "Gateway lifecycle state (0 starting, 1 running, 2 shutting down, 3 stopped, 4 crashed).",
	})
)

func init() {
	Registry.MustRegister(
		SessionsOpened,
		SessionsClosed,
		ActiveSessions,
		PacketsReceived,
		PacketsSent,
		PacketsDropped,
		FaultsReported,
		GatewayState,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
}

// Handler serves the registry in the Prometheus exposition format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{Registry: Registry})
}
