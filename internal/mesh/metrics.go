package mesh

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/annel0/voxelcore/internal/world"
)

// Metrics Prometheus-метрики построения мешей. Методы безопасны для nil.
type Metrics struct {
	builds   prometheus.Counter
	failures *prometheus.CounterVec
	skipped  prometheus.Counter
	vertices *prometheus.CounterVec
	duration prometheus.Histogram
	inflight prometheus.Gauge
}

// NewMetrics создаёт метрики и регистрирует их в reg
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		builds: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "voxel",
			Subsystem: "mesh",
			Name:      "builds_total",
			Help:      "Успешно построенные и загруженные меши чанков.",
		}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "voxel",
			Subsystem: "mesh",
			Name:      "failures_total",
			Help:      "Неудачные задачи мешинга по причине.",
		}, []string{"reason"}),
		skipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "voxel",
			Subsystem: "mesh",
			Name:      "skipped_total",
			Help:      "Задачи, пропущенные из-за чистого чанка.",
		}),
		vertices: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "voxel",
			Subsystem: "mesh",
			Name:      "vertices_total",
			Help:      "Сгенерированные вершины по потокам.",
		}, []string{"stream"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "voxel",
			Subsystem: "mesh",
			Name:      "build_duration_seconds",
			Help:      "Время построения меша одного чанка.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 12),
		}),
		inflight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "voxel",
			Subsystem: "mesh",
			Name:      "jobs_inflight",
			Help:      "Задачи мешинга в очереди или в работе.",
		}),
	}

	for _, c := range []prometheus.Collector{m.builds, m.failures, m.skipped, m.vertices, m.duration, m.inflight} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// RegisterWorldGauges добавляет gauge загруженных и закреплённых чанков менеджера
func RegisterWorldGauges(reg prometheus.Registerer, mgr *world.Manager) error {
	loaded := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: "voxel",
		Subsystem: "world",
		Name:      "chunks_loaded",
		Help:      "Чанки в памяти.",
	}, func() float64 { return float64(mgr.Len()) })
	pinned := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: "voxel",
		Subsystem: "world",
		Name:      "chunks_pinned",
		Help:      "Чанки, защищённые от выгрузки.",
	}, func() float64 { return float64(mgr.PinnedCount()) })

	if err := reg.Register(loaded); err != nil {
		return err
	}
	return reg.Register(pinned)
}

func (m *Metrics) observeBuild(mesh *ChunkMesh, d time.Duration) {
	if m == nil {
		return
	}
	m.builds.Inc()
	m.duration.Observe(d.Seconds())
	m.vertices.WithLabelValues("solid").Add(float64(len(mesh.Solid)))
	m.vertices.WithLabelValues("fluid").Add(float64(len(mesh.Fluid)))
}

func (m *Metrics) observeFailure(reason string) {
	if m == nil {
		return
	}
	m.failures.WithLabelValues(reason).Inc()
}

func (m *Metrics) observeSkip() {
	if m == nil {
		return
	}
	m.skipped.Inc()
}

func (m *Metrics) jobQueued() {
	if m == nil {
		return
	}
	m.inflight.Inc()
}

func (m *Metrics) jobDone() {
	if m == nil {
		return
	}
	m.inflight.Dec()
}
