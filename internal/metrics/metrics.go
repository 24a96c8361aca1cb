package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	EvaluationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "resume_evaluations_total",
			Help: "Total number of pipeline runs by outcome",
		},
		[]string{"outcome"},
	)
	StageFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "resume_stage_failures_total",
			Help: "Total number of failed or degraded pipeline stages",
		},
		[]string{"stage"},
	)

	LLMRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "llm_requests_total",
			Help: "Total number of report generation attempts by provider and status",
		},
		[]string{"provider", "status"},
	)
	LLMRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "llm_request_duration_seconds",
			Help:    "Report generation attempt duration in seconds",
			Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 20, 40, 60},
		},
		[]string{"provider"},
	)

	EmbeddingCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "embedding_cache_requests_total",
			Help: "Embedding cache lookups by result",
		},
		[]string{"result"},
	)

	JobsEnqueuedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "evaluation_jobs_enqueued_total",
			Help: "Total number of async evaluation jobs enqueued",
		},
	)
	JobsProcessing = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "evaluation_jobs_processing",
			Help: "Number of async evaluation jobs currently processing",
		},
	)

	SimilarityHistogram = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "evaluation_similarity_score",
			Help:    "Distribution of cosine similarity scores ([-1,1])",
			Buckets: []float64{-0.5, 0, 0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1.0},
		},
	)
	AggregateHistogram = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "evaluation_aggregate_score",
			Help:    "Distribution of aggregate report scores ([0,1] unless out-of-range markers are kept)",
			Buckets: []float64{0, 0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1.0},
		},
	)
)

var initOnce sync.Once

// Init registers all collectors with the default registry. Safe to call more than once.
func Init() {
	initOnce.Do(func() {
		prometheus.MustRegister(EvaluationsTotal)
		prometheus.MustRegister(StageFailuresTotal)
		prometheus.MustRegister(LLMRequestsTotal)
		prometheus.MustRegister(LLMRequestDuration)
		prometheus.MustRegister(EmbeddingCacheTotal)
		prometheus.MustRegister(JobsEnqueuedTotal)
		prometheus.MustRegister(JobsProcessing)
		prometheus.MustRegister(SimilarityHistogram)
		prometheus.MustRegister(AggregateHistogram)
	})
}

func ObserveEvaluation(outcome string) {
	EvaluationsTotal.WithLabelValues(outcome).Inc()
}

func StageFailed(stage string) {
	StageFailuresTotal.WithLabelValues(stage).Inc()
}

// ObserveLLMRequest records one generation attempt.
func ObserveLLMRequest(provider, status string, seconds float64) {
	LLMRequestsTotal.WithLabelValues(provider, status).Inc()
	LLMRequestDuration.WithLabelValues(provider).Observe(seconds)
}

func CacheHit() {
	EmbeddingCacheTotal.WithLabelValues("hit").Inc()
}

func CacheMiss() {
	EmbeddingCacheTotal.WithLabelValues("miss").Inc()
}

func CacheError() {
	EmbeddingCacheTotal.WithLabelValues("error").Inc()
}

func EnqueueJob() {
	JobsEnqueuedTotal.Inc()
}

func StartProcessingJob() {
	JobsProcessing.Inc()
}

func FinishProcessingJob() {
	JobsProcessing.Dec()
}

func ObserveSimilarity(score float64) {
	SimilarityHistogram.Observe(score)
}

func ObserveAggregate(score float64) {
	AggregateHistogram.Observe(score)
}
