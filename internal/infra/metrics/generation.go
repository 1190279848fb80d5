package metrics

import (
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func init() {
	register(
		generationJobsTotal,
		generationCacheHits,
		generationPollsTotal,
		generationPollLatencyMs,
	)
}

var (
	generationJobsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "generation_jobs_total",
			Help: "Generation jobs finished, labeled by terminal status.",
		},
		[]string{"status"}, // 'completed', 'failed', 'cancelled'
	)

	generationCacheHits = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "generation_cache_hits_total",
			Help: "Submissions the service satisfied immediately, no polling.",
		},
	)

	generationPollsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "generation_polls_total",
			Help: "Job status polls issued, labeled by transport success.",
		},
		[]string{"success"},
	)

	generationPollLatencyMs = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "generation_poll_latency_ms",
			Help:    "Poll round-trip latency distribution in milliseconds.",
			Buckets: []float64{10, 25, 50, 100, 200, 400, 800, 1600, 3000, 5000},
		},
	)
)

func norm(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

func IncGenerationJob(status string) {
	generationJobsTotal.WithLabelValues(norm(status)).Inc()
}

func IncCacheHit() { generationCacheHits.Inc() }

func ObservePoll(latency time.Duration, success bool) {
	generationPollsTotal.WithLabelValues(strconv.FormatBool(success)).Inc()
	generationPollLatencyMs.Observe(float64(latency / time.Millisecond))
}
