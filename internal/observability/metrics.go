//-------------------------------------------------------------------------
//
// pgEdge NL2SQL Server
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Pipeline run outcomes.
const (
	OutcomeAnswered = "answered"
	OutcomeError    = "error"
)

var (
	pipelineRunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nl2sql_pipeline_runs_total",
			Help: "Total number of pipeline runs by outcome.",
		},
		[]string{"pipeline", "variant", "outcome"},
	)

	stageDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "nl2sql_stage_duration_seconds",
			Help:    "Pipeline stage latency.",
			Buckets: []float64{0.005, 0.025, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		},
		[]string{"stage"},
	)

	retrievalFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nl2sql_retrieval_failures_total",
			Help: "Total number of context retrievals that degraded to empty context.",
		},
		[]string{"pipeline"},
	)

	modelRetriesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "nl2sql_model_retries_total",
			Help: "Total number of model calls retried after a transient failure.",
		},
	)

	modelTokensTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nl2sql_model_tokens_total",
			Help: "Total number of model tokens by model and direction.",
		},
		[]string{"model", "direction"},
	)

	knowledgeChunksAddedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "nl2sql_knowledge_chunks_added_total",
			Help: "Total number of knowledge chunks inserted into the store.",
		},
	)

	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nl2sql_http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "nl2sql_http_request_duration_seconds",
			Help:    "HTTP request latency by route.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)

func init() {
	prometheus.MustRegister(
		pipelineRunsTotal,
		stageDurationSeconds,
		retrievalFailuresTotal,
		modelRetriesTotal,
		modelTokensTotal,
		knowledgeChunksAddedTotal,
		httpRequestsTotal,
		httpRequestDurationSeconds,
	)
}

// ObservePipelineRun counts one completed pipeline run.
func ObservePipelineRun(pipeline, variant, outcome string) {
	pipelineRunsTotal.WithLabelValues(pipeline, variant, outcome).Inc()
}

// ObserveStage records how long a stage took.
func ObserveStage(stage string, elapsed time.Duration) {
	stageDurationSeconds.WithLabelValues(stage).Observe(elapsed.Seconds())
}

// IncrementRetrievalFailure counts a retrieval that fell back to empty
// context.
func IncrementRetrievalFailure(pipeline string) {
	retrievalFailuresTotal.WithLabelValues(pipeline).Inc()
}

// IncrementModelRetry counts a retried model call.
func IncrementModelRetry() {
	modelRetriesTotal.Inc()
}

// AddModelTokens counts prompt and completion tokens spent on model.
func AddModelTokens(model string, prompt, completion int) {
	if prompt > 0 {
		modelTokensTotal.WithLabelValues(model, "prompt").Add(float64(prompt))
	}
	if completion > 0 {
		modelTokensTotal.WithLabelValues(model, "completion").Add(float64(completion))
	}
}

// AddKnowledgeChunks counts chunks inserted into the knowledge store.
func AddKnowledgeChunks(n int) {
	if n > 0 {
		knowledgeChunksAddedTotal.Add(float64(n))
	}
}

// Handler serves the default Prometheus registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// MetricsMiddleware records request counts and latency labelled by the
// matched route pattern.
func MetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(recorder, r)

		path := r.Pattern
		if path == "" {
			path = "unmatched"
		}
		status := strconv.Itoa(recorder.status)
		httpRequestsTotal.WithLabelValues(r.Method, path, status).Inc()
		httpRequestDurationSeconds.WithLabelValues(r.Method, path, status).
			Observe(time.Since(start).Seconds())
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
