package metrics

import (
	"net/http"
	"time"

	"tournament-wallet-service/apperrors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the service's Prometheus collectors.
	Registry = prometheus.NewRegistry()

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tournament_wallet",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "path", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "tournament_wallet",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
		},
		[]string{"method", "path"},
	)

	walletOperations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tournament_wallet",
			Subsystem: "wallet",
			Name:      "operations_total",
			Help:      "Wallet operations by type and outcome.",
		},
		[]string{"operation", "outcome"},
	)

	gatewayFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tournament_wallet",
			Subsystem: "gateway",
			Name:      "failures_total",
			Help:      "Payment gateway calls that failed or timed out.",
		},
		[]string{"call"},
	)

	registrations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tournament_wallet",
			Subsystem: "tournament",
			Name:      "registrations_total",
			Help:      "Tournament registration attempts by outcome.",
		},
		[]string{"outcome"},
	)

	kycSubmissions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tournament_wallet",
			Subsystem: "kyc",
			Name:      "submissions_total",
			Help:      "KYC document submissions by outcome.",
		},
		[]string{"outcome"},
	)

	resultSubmissions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tournament_wallet",
			Subsystem: "match",
			Name:      "result_submissions_total",
			Help:      "Match result submissions by outcome.",
		},
		[]string{"outcome"},
	)

	jobRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tournament_wallet",
			Subsystem: "jobs",
			Name:      "runs_total",
			Help:      "Background job runs.",
		},
		[]string{"job", "success"},
	)
)

func init() {
	Registry.MustRegister(
		httpRequests,
		httpDuration,
		walletOperations,
		gatewayFailures,
		registrations,
		kycSubmissions,
		resultSubmissions,
		jobRuns,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler exposes the registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

func ObserveHTTP(method, path, status string, d time.Duration) {
	httpRequests.WithLabelValues(method, path, status).Inc()
	httpDuration.WithLabelValues(method, path).Observe(d.Seconds())
}

func RecordWalletOperation(operation string, err error) {
	walletOperations.WithLabelValues(operation, outcome(err)).Inc()
}

func RecordGatewayFailure(call string) {
	gatewayFailures.WithLabelValues(call).Inc()
}

func RecordRegistration(err error) {
	registrations.WithLabelValues(outcome(err)).Inc()
}

func RecordKycSubmission(err error) {
	kycSubmissions.WithLabelValues(outcome(err)).Inc()
}

func RecordResultSubmission(err error) {
	resultSubmissions.WithLabelValues(outcome(err)).Inc()
}

func RecordJobRun(job string, success bool) {
	result := "false"
	if success {
		result = "true"
	}
	jobRuns.WithLabelValues(job, result).Inc()
}

// outcome labels a failure by its error kind so dashboards can split declines from outages.
func outcome(err error) string {
	if err == nil {
		return "ok"
	}
	return string(apperrors.KindOf(err))
}
