package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var HttpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "http_requests_total",
	Help: "Total number of requests labelled by path and status",
}, []string{"path", "status"})

var countJobsInQueue = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "count_jobs_in_queue",
	Help: "Number of ingestion jobs in queue",
})

var dispatcherSignalCount = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "dispatcher_signal_count",
	Help: "How often the dispatcher has signaled to start a worker",
})

var activeWorkerCount = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "active_worker_count",
	Help: "Number of active ingestion workers",
})

var embeddingTruncations = promauto.NewCounter(prometheus.CounterOpts{
	Name: "embedding_truncations_total",
	Help: "Inputs truncated to the embedding length limit; frequent hits degrade retrieval quality",
})

var retrievalFailures = promauto.NewCounter(prometheus.CounterOpts{
	Name: "retrieval_failures_total",
	Help: "Vector index failures swallowed into empty retrieval results",
})

var llmRetries = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "llm_retries_total",
	Help: "Generation retries by cause",
}, []string{"cause"})

var activeStreams = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "active_chat_streams",
	Help: "Chat turns currently streaming",
})

var turnDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "chat_turn_duration_seconds",
	Help:    "Total time spent per chat turn.",
	Buckets: []float64{.1, .5, 1, 2, 5, 10, 30, 60},
}, []string{"status"})

var dependencyLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "dependency_latency_seconds",
	Help:    "Latency of external service calls.",
	Buckets: []float64{.05, .1, .25, .5, 1, 2, 5, 10},
}, []string{"service"})

type HttpStatusRecorder struct {
	http.ResponseWriter
	Status int
}

func (r *HttpStatusRecorder) WriteHeader(code int) {
	r.Status = code
	r.ResponseWriter.WriteHeader(code)
}

// Flush lets the recorder sit in front of streaming handlers.
func (r *HttpStatusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func IncrementJobsInQueue()        { countJobsInQueue.Inc() }
func DecrementJobsInQueue()        { countJobsInQueue.Dec() }
func StartDispatcherSignalCount()  { dispatcherSignalCount.Inc() }
func IncrementActiveWorkerCount()  { activeWorkerCount.Inc() }
func DecrementActiveWorkerCount()  { activeWorkerCount.Dec() }
func CountEmbeddingTruncation()    { embeddingTruncations.Inc() }
func CountRetrievalFailure()       { retrievalFailures.Inc() }
func CountLLMRetry(cause string)   { llmRetries.WithLabelValues(cause).Inc() }
func StreamStarted()               { activeStreams.Inc() }
func StreamFinished()              { activeStreams.Dec() }

func CaptureExecutionMetrics(label string, timeElapsed time.Duration) {
	dependencyLatency.WithLabelValues(label).Observe(timeElapsed.Seconds())
}

func CaptureTurnMetrics(status string, timeElapsed time.Duration) {
	turnDuration.WithLabelValues(status).Observe(timeElapsed.Seconds())
}
