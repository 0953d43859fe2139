package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	EventsPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "payguard_events_published_total",
		Help: "Total number of domain events published, labelled by topic.",
	}, []string{"topic"})

	EventsDropped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "payguard_events_dropped_total",
		Help: "Total number of domain events lost on publish failure, labelled by topic.",
	}, []string{"topic"})

	EventsConsumed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "payguard_events_consumed_total",
		Help: "Total number of events consumed from the audit stream, labelled by topic.",
	}, []string{"topic"})

	EventsMalformed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "payguard_events_malformed_total",
		Help: "Total number of stream messages skipped because they could not be decoded.",
	})

	OtpIssued = promauto.NewCounter(prometheus.CounterOpts{
		Name: "payguard_otp_issued_total",
		Help: "Total number of OTP challenges issued.",
	})

	OtpValidations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "payguard_otp_validations_total",
		Help: "Total number of OTP validation attempts, labelled by outcome.",
	}, []string{"outcome"})

	PendingChangesSwept = promauto.NewCounter(prometheus.CounterOpts{
		Name: "payguard_pending_changes_swept_total",
		Help: "Total number of stale pending changes removed by the sweeper.",
	})

	FraudBroadcasts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "payguard_fraud_broadcasts_total",
		Help: "Total number of fraud alerts fanned out to live sessions.",
	})

	FraudSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "payguard_fraud_sessions_open",
		Help: "Number of currently open fraud alert WebSocket sessions.",
	})
)
