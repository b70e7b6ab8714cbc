package metrics

import (
	"database/sql"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "campusreach"

// Registry is the process-wide Prometheus registry.
var Registry = prometheus.NewRegistry()

func init() {
	Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
}

var (
	// LoginsTotal counts login attempts by role and outcome.
	LoginsTotal = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "logins_total",
			Help:      "Login attempts by role and result",
		},
		[]string{"role", "result"},
	)

	// RecordsCreatedTotal counts inserted records by collection.
	RecordsCreatedTotal = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_created_total",
			Help:      "Records inserted by collection",
		},
		[]string{"collection"},
	)

	// UploadsTotal counts screenshot uploads by result.
	UploadsTotal = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "uploads_total",
			Help:      "Screenshot uploads by result",
		},
		[]string{"result"},
	)

	// UploadBytes records accepted upload sizes.
	UploadBytes = promauto.With(Registry).NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "upload_size_bytes",
			Help:      "Accepted screenshot size in bytes",
			// 10KB .. 10MB
			Buckets: []float64{10e3, 100e3, 500e3, 1e6, 2.5e6, 5e6, 10e6},
		},
	)

	// SignedURLsTotal counts minted signed URLs by purpose.
	SignedURLsTotal = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "signed_urls_total",
			Help:      "Signed blob URLs minted by purpose",
		},
		[]string{"purpose"},
	)

	// QueuePublishFailures counts domain events that could not be published.
	QueuePublishFailures = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "queue_publish_failures_total",
			Help:      "Domain events dropped because the queue was unavailable",
		},
		[]string{"type"},
	)

	// LeaderboardRefreshes counts leaderboard recomputations by result.
	LeaderboardRefreshes = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "leaderboard_refreshes_total",
			Help:      "Leaderboard recomputations by trigger and result",
		},
		[]string{"trigger", "result"},
	)
)

// RegisterDB exports connection pool statistics for db under the given name.
func RegisterDB(db *sql.DB, name string) error {
	return Registry.Register(collectors.NewDBStatsCollector(db, name))
}

// Handler exposes the registry.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{Registry: Registry})
}
