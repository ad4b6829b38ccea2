// Package metrics exposes the Prometheus counters the gate-pass flows
// increment. Collectors are registered on the default registry, which
// cmd/api serves at /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Transitions counts attempted lifecycle actions by outcome.
	Transitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gatepass_transitions_total",
		Help: "Gate pass lifecycle actions by action and outcome.",
	}, []string{"action", "outcome"})

	// Denials counts requests stopped by the authorization policy.
	Denials = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gatepass_policy_denials_total",
		Help: "Requests denied by the role policy, by action.",
	}, []string{"action"})

	// NotificationsSent counts worker email deliveries by outcome.
	NotificationsSent = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gatepass_notifications_total",
		Help: "Notification emails attempted by action and outcome.",
	}, []string{"action", "outcome"})
)
