// Package metrics defines the service's Prometheus collectors.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "playvoice"

// Metrics holds every collector the service updates.
type Metrics struct {
	registry *prometheus.Registry

	// Realigner
	RealignChunks       prometheus.Counter
	RealignFrames       prometheus.Counter
	RealignSamples      prometheus.Counter
	RealignDroppedBytes prometheus.Counter

	// Synthesis
	SynthesisRequests *prometheus.CounterVec
	SynthesisDuration *prometheus.HistogramVec
	ActiveStreams     prometheus.Gauge

	// Queue
	QueueDepth prometheus.Gauge
	QueueJobs  *prometheus.CounterVec

	// HTTP API
	HTTPRequests        *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
}

// New creates the collectors on a fresh registry together with the Go
// runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	f := promauto.With(reg)
	return &Metrics{
		registry: reg,

		RealignChunks: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "realign_chunks_total",
			Help:      "Total upstream PCM chunks consumed by the realigner",
		}),
		RealignFrames: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "realign_frames_total",
			Help:      "Total sample-aligned frames emitted",
		}),
		RealignSamples: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "realign_samples_total",
			Help:      "Total 16-bit samples emitted",
		}),
		RealignDroppedBytes: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "realign_dropped_bytes_total",
			Help:      "Trailing bytes discarded because a stream ended mid-sample",
		}),

		SynthesisRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "synthesis_requests_total",
			Help:      "Synthesis requests by engine, mode and result",
		}, []string{"engine", "mode", "result"}),
		SynthesisDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "synthesis_duration_seconds",
			Help:      "Wall time from request to last audio byte",
			Buckets:   prometheus.ExponentialBuckets(0.1, 2, 10), // 100ms to ~51s
		}, []string{"engine", "mode"}),
		ActiveStreams: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_streams",
			Help:      "Streaming sessions currently open",
		}),

		QueueDepth: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "queue_depth",
			Help:      "Jobs waiting for playback",
		}),
		QueueJobs: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "queue_jobs_total",
			Help:      "Jobs leaving the playback queue by outcome",
		}, []string{"outcome"}),

		HTTPRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status code",
		}, []string{"route", "code"}),
		HTTPRequestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
	}
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{EnableOpenMetrics: true})
}

// ObserveRealign records one finished realignment session.
func (m *Metrics) ObserveRealign(chunks, frames, samples, dropped int) {
	if m == nil {
		return
	}
	m.RealignChunks.Add(float64(chunks))
	m.RealignFrames.Add(float64(frames))
	m.RealignSamples.Add(float64(samples))
	m.RealignDroppedBytes.Add(float64(dropped))
}

// ObserveSynthesis records one synthesis call. mode is "file" or "stream".
func (m *Metrics) ObserveSynthesis(engine, mode string, start time.Time, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.SynthesisRequests.WithLabelValues(engine, mode, result).Inc()
	m.SynthesisDuration.WithLabelValues(engine, mode).Observe(time.Since(start).Seconds())
}

// ObserveJob records a job outcome and the queue depth after it.
func (m *Metrics) ObserveJob(outcome string, depth int) {
	if m == nil {
		return
	}
	m.QueueJobs.WithLabelValues(outcome).Inc()
	m.QueueDepth.Set(float64(depth))
}
