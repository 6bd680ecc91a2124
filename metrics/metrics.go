package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/voxelsplace/bevelmesh/world"
)

const namespace = "bevelmesh"

// Recorder exports chunk rebuild metrics. It implements
// world.RebuildObserver.
type Recorder struct {
	rebuilds *prometheus.CounterVec
	seconds  prometheus.Histogram
	vertices prometheus.Histogram
	queue    prometheus.Gauge
}

// New creates the collectors and registers them on reg.
func New(reg prometheus.Registerer) *Recorder {
	r := &Recorder{
		rebuilds: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rebuilds_total",
			Help:      "Chunk rebuilds by result.",
		}, []string{"result"}),
		seconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "rebuild_seconds",
			Help:      "Time spent rebuilding one chunk.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 8),
		}),
		vertices: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "chunk_vertices",
			Help:      "Vertex count of rebuilt chunks.",
			Buckets:   prometheus.ExponentialBuckets(64, 4, 8),
		}),
		queue: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "dirty_queue_depth",
			Help:      "Chunks waiting for a rebuild.",
		}),
	}
	reg.MustRegister(r.rebuilds, r.seconds, r.vertices, r.queue)
	return r
}

func (r *Recorder) ObserveRebuild(s world.RebuildStats) {
	if s.Err != nil {
		r.rebuilds.WithLabelValues("error").Inc()
		return
	}
	r.rebuilds.WithLabelValues("ok").Inc()
	r.seconds.Observe(s.Duration.Seconds())
	r.vertices.Observe(float64(s.Vertices))
}

func (r *Recorder) ObserveQueue(depth int) {
	r.queue.Set(float64(depth))
}

var _ world.RebuildObserver = (*Recorder)(nil)
