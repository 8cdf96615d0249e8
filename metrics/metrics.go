package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	// ImagesAnalyzedTotal counts analyzed images by outcome.
	ImagesAnalyzedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "damage",
		Subsystem: "analyzer",
		Name:      "images_analyzed_total",
		Help:      "Total number of images analyzed, labeled by outcome (ok, llm_error, parse_error, model_error).",
	}, []string{"result"})

	// AnalyzeDurationSeconds is end-to-end time per image, measured around
	// the LLM call plus parsing and aggregation.
	AnalyzeDurationSeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "damage",
		Subsystem: "analyzer",
		Name:      "analyze_duration_seconds",
		Help:      "End-to-end time to analyze a single image.",
		// Vision calls routinely take several seconds; keep buckets coarse.
		Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 20, 60},
	})

	// RequestImages observes how many images arrive per analyze request.
	RequestImages = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "damage",
		Subsystem: "analyzer",
		Name:      "request_images",
		Help:      "Number of images submitted per analyze request.",
		Buckets:   []float64{1, 2, 3, 5, 10, 20},
	})

	// PublishErrorTotal counts failed result publishes to RabbitMQ.
	PublishErrorTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "damage",
		Subsystem: "analyzer",
		Name:      "publish_error_total",
		Help:      "Total number of failed RabbitMQ result publishes.",
	})
)

// Register registers analyzer metrics with the default Prometheus registry.
// Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(
			ImagesAnalyzedTotal,
			AnalyzeDurationSeconds,
			RequestImages,
			PublishErrorTotal,
		)
	})
}
