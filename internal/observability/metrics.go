package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestDuration tracks request duration
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "app_leads_request_duration_seconds",
			Help: "Duration of HTTP requests in seconds",
		},
		[]string{"path", "method", "status"},
	)

	// ActiveConnections tracks in-flight requests
	ActiveConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "app_leads_active_connections",
			Help: "Number of active connections",
		},
	)

	// DatabaseOperations tracks database operations
	DatabaseOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "app_leads_database_operations_total",
			Help: "Number of database operations",
		},
		[]string{"operation", "status"},
	)

	// LeadsIngested counts ingestion outcomes per lead source
	LeadsIngested = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "app_leads_ingested_total",
			Help: "Number of leads processed by ingestion, by source and outcome",
		},
		[]string{"source", "outcome"},
	)

	// WebhookPayloads counts webhook payloads by classified kind
	WebhookPayloads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "app_leads_webhook_payloads_total",
			Help: "Number of webhook payloads received, by detected kind",
		},
		[]string{"kind"},
	)

	// VerificationCodesIssued counts issued codes by outcome
	VerificationCodesIssued = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "app_leads_verification_codes_issued_total",
			Help: "Number of verification codes issued",
		},
		[]string{"outcome"},
	)

	// VerificationAttempts counts verify outcomes
	VerificationAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "app_leads_verification_attempts_total",
			Help: "Number of verification attempts, by outcome",
		},
		[]string{"outcome"},
	)

	// ChannelDeliveries counts delivery attempts per channel
	ChannelDeliveries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "app_leads_channel_deliveries_total",
			Help: "Number of code delivery attempts, by channel and status",
		},
		[]string{"channel", "status"},
	)

	// ChallengesSwept counts expired challenges removed by the sweeper
	ChallengesSwept = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "app_leads_challenges_swept_total",
			Help: "Number of expired verification challenges removed by the sweeper",
		},
	)

	// LeadNotifications counts lead notification attempts
	LeadNotifications = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "app_leads_notifications_total",
			Help: "Number of new-lead notifications, by notifier and status",
		},
		[]string{"notifier", "status"},
	)
)
