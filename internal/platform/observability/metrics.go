package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	MessagesIngested = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "insight_messages_ingested_total",
		Help: "The total number of ingested group messages",
	}, []string{"status"})

	StatsCacheReads = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "insight_stats_cache_reads_total",
		Help: "Stats cache reads by outcome (hit, miss, error)",
	}, []string{"outcome"})

	LLMRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "insight_llm_requests_total",
		Help: "The total number of LLM completion requests",
	}, []string{"provider", "status"})

	LLMRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "insight_llm_request_duration_seconds",
		Help:    "Duration of LLM completion requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"provider"})

	LLMFallbacks = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "insight_llm_fallbacks_total",
		Help: "Fallback transitions between LLM providers",
	}, []string{"from", "to"})

	CommandsHandled = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "insight_bot_commands_total",
		Help: "Bot commands handled by command name and outcome",
	}, []string{"command", "status"})

	DashboardRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "insight_dashboard_requests_total",
		Help: "Dashboard API requests by route and status code",
	}, []string{"route", "code"})
)

// Metric label values.
const (
	StatusOK      = "ok"
	StatusError   = "error"
	StatusSkipped = "skipped"

	OutcomeHit   = "hit"
	OutcomeMiss  = "miss"
	OutcomeError = "error"
)
