// Package metrics exposes pipeline counters to Prometheus. A nil *Metrics is
// valid and records nothing.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "chunkscope"

type Metrics struct {
	ChunksLoaded   prometheus.Counter
	LoadFailures   prometheus.Counter
	Evictions      prometheus.Counter
	BatchesRebuilt *prometheus.CounterVec
	QuadsEmitted   prometheus.Counter
	Resident       prometheus.Gauge
}

// New creates the collectors and registers them with reg when it is not nil.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		ChunksLoaded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chunks_loaded_total",
			Help:      "Chunks decoded into the streaming cache.",
		}),
		LoadFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chunk_load_failures_total",
			Help:      "Chunk loads that failed to read or decode.",
		}),
		Evictions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chunks_evicted_total",
			Help:      "Resident chunks overwritten in the streaming cache.",
		}),
		BatchesRebuilt: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "batches_rebuilt_total",
			Help:      "Geometry batches rebuilt, by pass.",
		}, []string{"pass"}),
		QuadsEmitted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "quads_emitted_total",
			Help:      "Quads emitted by batch rebuilds.",
		}),
		Resident: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "chunks_resident",
			Help:      "Chunks currently held by the streaming cache.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.ChunksLoaded, m.LoadFailures, m.Evictions, m.BatchesRebuilt, m.QuadsEmitted, m.Resident)
	}
	return m
}

func (m *Metrics) Loaded() {
	if m != nil {
		m.ChunksLoaded.Inc()
		m.Resident.Inc()
	}
}

func (m *Metrics) Failed() {
	if m != nil {
		m.LoadFailures.Inc()
	}
}

func (m *Metrics) Evicted() {
	if m != nil {
		m.Evictions.Inc()
		m.Resident.Dec()
	}
}

func (m *Metrics) Cleared() {
	if m != nil {
		m.Resident.Set(0)
	}
}

func (m *Metrics) Rebuilt(pass string, quads int) {
	if m != nil {
		m.BatchesRebuilt.WithLabelValues(pass).Inc()
		m.QuadsEmitted.Add(float64(quads))
	}
}
