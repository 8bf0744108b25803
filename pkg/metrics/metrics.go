package metrics

import (
	"fmt"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Recorder groups the collectors of one process. Each Recorder owns its registry so tests
// and multiple sessions do not share counters.
type Recorder struct {
	registry *prometheus.Registry

	DeviceCodePrompts prometheus.Counter
	TokenAcquisitions *prometheus.CounterVec
	GraphRequests     *prometheus.CounterVec
	GraphDuration     *prometheus.HistogramVec
}

func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		DeviceCodePrompts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "graphctl_device_code_prompts_total",
			Help: "Total number of device codes shown to the user",
		}),
		TokenAcquisitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "graphctl_token_acquisitions_total",
			Help: "Token requests grouped by how they were satisfied (cached, exchanged, error)",
		}, []string{"result"}),
		GraphRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "graphctl_graph_requests_total",
			Help: "Total number of Graph requests grouped by operation and HTTP status code",
		}, []string{"operation", "code"}),
		GraphDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "graphctl_graph_request_duration_seconds",
			Help:    "Latency of Graph requests",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation"}),
	}
	r.registry.MustRegister(r.DeviceCodePrompts, r.TokenAcquisitions, r.GraphRequests, r.GraphDuration)
	return r
}

// Registry exposes the underlying registry, mainly for gathering in tests.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// ObserveRequest records one Graph request. A zero status code means the request never got
// a response (transport failure, rejected by a decorator).
func (r *Recorder) ObserveRequest(operation string, statusCode int, elapsed time.Duration) {
	if r == nil {
		return
	}
	code := "none"
	if statusCode > 0 {
		code = strconv.Itoa(statusCode)
	}
	r.GraphRequests.WithLabelValues(operation, code).Inc()
	r.GraphDuration.WithLabelValues(operation).Observe(elapsed.Seconds())
}

// ObserveToken records how a token request was satisfied.
func (r *Recorder) ObserveToken(result string) {
	if r == nil {
		return
	}
	r.TokenAcquisitions.WithLabelValues(result).Inc()
}

// ObservePrompt counts one device code shown to the user.
func (r *Recorder) ObservePrompt() {
	if r == nil {
		return
	}
	r.DeviceCodePrompts.Inc()
}

// WriteTextfile writes the registry in the text exposition format, atomically replacing path.
func (r *Recorder) WriteTextfile(path string) error {
	if r == nil || path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("failed to write metrics textfile: %w", err)
	}
	return nil
}
