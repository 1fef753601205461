package metrics

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// API metrics
	apiRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "finetuneforge_api_request_duration_seconds",
			Help:    "Generation API request duration in seconds by model",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10), // 0.1s to ~100s
		},
		[]string{"model", "status"},
	)

	rateLimiterWaitDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "finetuneforge_rate_limiter_wait_duration_seconds",
			Help:    "Rate limiter wait duration in seconds by model",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 15), // 1ms to ~32s
		},
		[]string{"model"},
	)

	tokensUsed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "finetuneforge_tokens_total",
			Help: "Tokens reported by the provider",
		},
		[]string{"model", "kind"}, // kind: "prompt"/"completion"
	)

	// Pipeline metrics
	unitDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "finetuneforge_unit_duration_seconds",
			Help:    "Time to process one unit of work by phase",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 10), // 0.5s to ~500s
		},
		[]string{"phase"}, // "documentation", "code", "integration", "code_generation"
	)

	unitsProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "finetuneforge_units_total",
			Help: "Units processed by phase and outcome",
		},
		[]string{"phase", "status"}, // status: "success"/"error"/"invalid"
	)

	pairsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "finetuneforge_pairs_total",
			Help: "Generated pairs by phase, accepted or dropped by validation",
		},
		[]string{"phase", "result"},
	)

	trainingRecords = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "finetuneforge_training_records",
			Help: "Training records accumulated in the current checkpoint",
		},
	)

	checkpointSaves = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "finetuneforge_checkpoint_saves_total",
			Help: "Checkpoint writes by outcome",
		},
		[]string{"status"},
	)
)

// Collector provides convenience methods for recording metrics.
// A nil *Collector is valid and records nothing.
type Collector struct {
	logger *slog.Logger
}

// NewCollector creates a new metrics collector
func NewCollector(logger *slog.Logger) *Collector {
	return &Collector{
		logger: logger,
	}
}

func status(success bool) string {
	if success {
		return "success"
	}
	return "error"
}

// RecordAPIRequest records an API request duration
func (c *Collector) RecordAPIRequest(model string, duration time.Duration, success bool) {
	if c == nil {
		return
	}
	apiRequestDuration.WithLabelValues(model, status(success)).Observe(duration.Seconds())
}

// RecordRateLimiterWait records rate limiter wait time
func (c *Collector) RecordRateLimiterWait(model string, duration time.Duration) {
	if c == nil {
		return
	}
	rateLimiterWaitDuration.WithLabelValues(model).Observe(duration.Seconds())
}

// RecordTokens adds provider-reported token usage
func (c *Collector) RecordTokens(model string, prompt, completion int) {
	if c == nil {
		return
	}
	tokensUsed.WithLabelValues(model, "prompt").Add(float64(prompt))
	tokensUsed.WithLabelValues(model, "completion").Add(float64(completion))
}

// RecordUnit records the outcome and duration of one unit of work.
// outcome is "success", "error" or "invalid".
func (c *Collector) RecordUnit(phase, outcome string, duration time.Duration) {
	if c == nil {
		return
	}
	unitDuration.WithLabelValues(phase).Observe(duration.Seconds())
	unitsProcessed.WithLabelValues(phase, outcome).Inc()
}

// RecordPairs records accepted and dropped pair counts for a phase
func (c *Collector) RecordPairs(phase string, accepted, dropped int) {
	if c == nil {
		return
	}
	pairsTotal.WithLabelValues(phase, "accepted").Add(float64(accepted))
	pairsTotal.WithLabelValues(phase, "dropped").Add(float64(dropped))
}

// SetTrainingRecords sets the accumulated record count
func (c *Collector) SetTrainingRecords(n int) {
	if c == nil {
		return
	}
	trainingRecords.Set(float64(n))
}

// RecordCheckpointSave counts a checkpoint write
func (c *Collector) RecordCheckpointSave(success bool) {
	if c == nil {
		return
	}
	checkpointSaves.WithLabelValues(status(success)).Inc()
}

// Serve exposes /metrics on addr until the server is shut down.
// The returned server is already listening in the background.
func (c *Collector) Serve(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			c.logger.Error("Metrics server failed", "addr", addr, "error", err)
		}
	}()

	c.logger.Info("Metrics endpoint enabled", "url", "http://"+addr+"/metrics")
	return srv
}
