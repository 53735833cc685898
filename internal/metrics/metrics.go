package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Poll cycle metrics
	Cycles = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "buyalert_cycles_total",
			Help: "Total number of poll cycles",
		},
		[]string{"status"}, // success, no_data, transient_error, error
	)

	CycleDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "buyalert_cycle_duration_seconds",
			Help:    "Duration of poll cycles",
			Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10, 30},
		},
	)

	// Transfer classification metrics
	TransfersProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "buyalert_transfers_processed_total",
			Help: "Total number of transfers seen, by outcome",
		},
		[]string{"status"}, // missing_id, duplicate, not_buy, below_threshold, buy
	)

	// Alert metrics
	AlertsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "buyalert_alerts_sent_total",
			Help: "Total number of alerts sent",
		},
		[]string{"status", "type"}, // success/error, telegram/discord/log/multi
	)

	AlertBuyUSD = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "buyalert_alert_buy_usd",
			Help:    "USD value of alerted buys",
			Buckets: []float64{10, 50, 100, 250, 500, 1000, 5000, 10000, 50000},
		},
	)

	// API metrics
	APIRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "buyalert_api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"api", "endpoint", "status"}, // dexscreener/blockscout, tokens/transfers, success/error
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "buyalert_api_request_duration_seconds",
			Help:    "Duration of API requests",
			Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"api", "endpoint"},
	)

	APIRetries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "buyalert_api_retries_total",
			Help: "Total number of API request retries",
		},
		[]string{"api", "endpoint"},
	)

	// Ledger metrics
	LedgerSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "buyalert_ledger_size",
			Help: "Number of transaction ids held in the dedup ledger",
		},
	)

	LedgerEvictions = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "buyalert_ledger_evictions_total",
			Help: "Total number of transaction ids evicted by ledger pruning",
		},
	)

	// Database metrics
	DatabaseQueries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "buyalert_database_queries_total",
			Help: "Total number of database queries",
		},
		[]string{"operation", "status"},
	)

	// System health
	HealthChecks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "buyalert_health_checks_total",
			Help: "Total number of health check requests",
		},
		[]string{"status"}, // healthy/unhealthy
	)
)

// RecordCycle records poll cycle metrics
func RecordCycle(duration time.Duration, status string) {
	Cycles.WithLabelValues(status).Inc()
	CycleDuration.Observe(duration.Seconds())
}

// RecordAlert records alert delivery metrics
func RecordAlert(sendStatus, alertType string, amountUSD float64) {
	AlertsSent.WithLabelValues(sendStatus, alertType).Inc()
	if sendStatus == "success" {
		AlertBuyUSD.Observe(amountUSD)
	}
}

// RecordAPIRequest records API request metrics
func RecordAPIRequest(api, endpoint string, duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	APIRequests.WithLabelValues(api, endpoint, status).Inc()
	APIRequestDuration.WithLabelValues(api, endpoint).Observe(duration.Seconds())
}

// RecordLedger records ledger size after a cycle and any evictions
func RecordLedger(size, evicted int) {
	LedgerSize.Set(float64(size))
	if evicted > 0 {
		LedgerEvictions.Add(float64(evicted))
	}
}

// RecordDatabaseQuery records database query metrics
func RecordDatabaseQuery(operation string, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	DatabaseQueries.WithLabelValues(operation, status).Inc()
}

// RecordHealthCheck records health check status
func RecordHealthCheck(healthy bool) {
	status := "healthy"
	if !healthy {
		status = "unhealthy"
	}
	HealthChecks.WithLabelValues(status).Inc()
}
