package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RegistrationsAccepted counts tickets successfully created.
	RegistrationsAccepted = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "ticketing",
			Name:      "registrations_accepted_total",
			Help:      "The total number of accepted registrations",
		},
	)

	// RegistrationsRejected counts rejected registration attempts by reason.
	RegistrationsRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ticketing",
			Name:      "registrations_rejected_total",
			Help:      "The total number of rejected registration attempts",
		},
		[]string{"reason"},
	)

	// CheckIns counts verification attempts at the door by outcome.
	CheckIns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ticketing",
			Name:      "check_ins_total",
			Help:      "The total number of check-in attempts",
		},
		[]string{"outcome"},
	)

	// MessagesProcessed The total number of processed messages (counter)
	MessagesProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "messages",
			Name:      "processed_total",
			Help:      "The total number of processed messages",
		},
		[]string{"topic", "handler"},
	)

	// MessagesProcessingFailed total number of message processing failures (counter)
	MessagesProcessingFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "messages",
			Name:      "processing_failed_total",
			Help:      "The total number of message processing failures",
		},
		[]string{"topic", "handler"},
	)

	// MessagesProcessingDuration The total time spent processing messages (summary with quantiles 0.5, 0.9, and 0.99)
	MessagesProcessingDuration = promauto.NewSummaryVec(
		prometheus.SummaryOpts{
			Namespace:  "messages",
			Name:       "processing_duration_seconds",
			Help:       "The total time spent processing messages",
			Objectives: map[float64]float64{0.5: 0.05, 0.9: 0.01, 0.99: 0.001},
		},
		[]string{"topic", "handler"},
	)
)
