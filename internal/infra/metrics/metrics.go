package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	EventsReceived    prometheus.Counter
	EventsIgnored     *prometheus.CounterVec
	EventsDuplicate   prometheus.Counter
	CommandsProcessed *prometheus.CounterVec
	RemindersSent     prometheus.Counter
	GatewayFailures   prometheus.Counter
}

// New creates and registers all Prometheus metrics with the given registerer.
// Tests pass a fresh registry to avoid duplicate registration.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		EventsReceived: factory.NewCounter(prometheus.CounterOpts{
			Name: "birthday_bot_events_received_total",
			Help: "Total number of inbound webhook events received",
		}),
		EventsIgnored: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "birthday_bot_events_ignored_total",
			Help: "Total number of inbound events classified as non-user events",
		}, []string{"reason"}),
		EventsDuplicate: factory.NewCounter(prometheus.CounterOpts{
			Name: "birthday_bot_events_duplicate_total",
			Help: "Total number of inbound events dropped by the dedup cache",
		}),
		CommandsProcessed: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "birthday_bot_commands_processed_total",
			Help: "Total number of dispatched commands",
		}, []string{"command"}),
		RemindersSent: factory.NewCounter(prometheus.CounterOpts{
			Name: "birthday_bot_reminders_sent_total",
			Help: "Total number of reminder notifications delivered",
		}),
		GatewayFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "birthday_bot_gateway_failures_total",
			Help: "Total number of failed outbound gateway sends",
		}),
	}
}
