// Package metrics exposes Prometheus instrumentation for the turn
// pipeline. Collectors live on a private registry so the /metrics
// endpoint only reports what this service owns.
package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	registry     *prometheus.Registry
	registryOnce sync.Once
	enabled      = true

	// Turn pipeline metrics
	TurnsTotal    *prometheus.CounterVec
	StageLatency  *prometheus.HistogramVec
	StageErrors   *prometheus.CounterVec
	SpeechSeconds prometheus.Counter

	// Telephony metrics
	CallsPlaced *prometheus.CounterVec

	// Artifact metrics
	ArtifactsStored  prometheus.Counter
	ArtifactBytes    prometheus.Counter
	ArtifactsEvicted prometheus.Counter

	// Event publisher metrics
	EventsPublished *prometheus.CounterVec
)

// Init creates and registers all collectors. Safe to call more than once.
func Init() {
	registryOnce.Do(func() {
		registry = prometheus.NewRegistry()

		TurnsTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dialtone_turns_total",
				Help: "Completed conversation turns by outcome",
			},
			[]string{"outcome"},
		)

		StageLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "dialtone_stage_latency_seconds",
				Help:    "Latency of each pipeline stage",
				Buckets: prometheus.ExponentialBuckets(0.05, 2, 10), // 50ms to ~25s
			},
			[]string{"stage"},
		)

		StageErrors = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dialtone_stage_errors_total",
				Help: "Pipeline stage failures",
			},
			[]string{"stage", "error_type"},
		)

		SpeechSeconds = prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "dialtone_speech_seconds_total",
				Help: "Seconds of synthesized speech produced",
			},
		)

		CallsPlaced = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dialtone_calls_placed_total",
				Help: "Outbound calls requested through the trigger endpoint",
			},
			[]string{"status"},
		)

		ArtifactsStored = prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "dialtone_artifacts_stored_total",
				Help: "Audio artifacts written to the store",
			},
		)

		ArtifactBytes = prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "dialtone_artifact_bytes_total",
				Help: "Total bytes of audio artifacts written",
			},
		)

		ArtifactsEvicted = prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "dialtone_artifacts_evicted_total",
				Help: "Audio artifacts removed by the janitor",
			},
		)

		EventsPublished = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dialtone_events_published_total",
				Help: "Turn events published to the broker",
			},
			[]string{"status"},
		)

		registry.MustRegister(
			TurnsTotal,
			StageLatency,
			StageErrors,
			SpeechSeconds,
			CallsPlaced,
			ArtifactsStored,
			ArtifactBytes,
			ArtifactsEvicted,
			EventsPublished,
		)
	})
}

// Registry returns the private registry, initializing it if needed.
func Registry() *prometheus.Registry {
	Init()
	return registry
}

// Handler returns the HTTP handler serving the private registry.
func Handler() http.Handler {
	Init()
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
		Registry:          registry,
	})
}

// SetEnabled toggles metric recording without unregistering collectors.
func SetEnabled(on bool) {
	enabled = on
}

// RecordTurn counts a finished turn by outcome.
func RecordTurn(outcome string) {
	if enabled && TurnsTotal != nil {
		TurnsTotal.WithLabelValues(outcome).Inc()
	}
}

// ObserveStage starts a stage timer and returns its stop function.
func ObserveStage(stage string) func() {
	if !enabled || StageLatency == nil {
		return func() {}
	}
	start := time.Now()
	return func() {
		StageLatency.WithLabelValues(stage).Observe(time.Since(start).Seconds())
	}
}

// RecordStageError counts a stage failure by error type.
func RecordStageError(stage, errorType string) {
	if enabled && StageErrors != nil {
		StageErrors.WithLabelValues(stage, errorType).Inc()
	}
}

// RecordSpeech adds synthesized audio duration.
func RecordSpeech(d time.Duration) {
	if enabled && SpeechSeconds != nil && d > 0 {
		SpeechSeconds.Add(d.Seconds())
	}
}

// RecordCallPlaced counts an outbound call attempt.
func RecordCallPlaced(status string) {
	if enabled && CallsPlaced != nil {
		CallsPlaced.WithLabelValues(status).Inc()
	}
}

// RecordArtifact counts a stored artifact and its size.
func RecordArtifact(bytes int) {
	if enabled && ArtifactsStored != nil {
		ArtifactsStored.Inc()
		ArtifactBytes.Add(float64(bytes))
	}
}

// RecordEvicted counts artifacts removed by the janitor.
func RecordEvicted(n int) {
	if enabled && ArtifactsEvicted != nil && n > 0 {
		ArtifactsEvicted.Add(float64(n))
	}
}

// RecordEventPublish counts a turn event publish attempt.
func RecordEventPublish(status string) {
	if enabled && EventsPublished != nil {
		EventsPublished.WithLabelValues(status).Inc()
	}
}
