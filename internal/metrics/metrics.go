package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	dto "github.com/prometheus/client_model/go"

	"taxonomy/builder/internal/domain"
)

// Fetch results.
const (
	FetchOK          = "ok"
	FetchNotModified = "not_modified"
	FetchRetry       = "retry"
	FetchError       = "error"
	FetchBlocked     = "blocked"
)

// Metrics owns a private registry so tests and embedded runs never collide
// on the global one. A nil *Metrics is a valid no-op.
type Metrics struct {
	registry        *prometheus.Registry
	itemsFound      *prometheus.CounterVec
	itemsNormalized prometheus.Counter
	itemsDeduped    prometheus.Counter
	fetches         *prometheus.CounterVec
	stageDuration   *prometheus.HistogramVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		itemsFound: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "taxonomy_items_found_total",
			Help: "Raw items extracted from directory pages, by type",
		}, []string{"type"}),
		itemsNormalized: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "taxonomy_items_normalized_total",
			Help: "Items surviving lineage resolution",
		}),
		itemsDeduped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "taxonomy_items_deduped_total",
			Help: "Items remaining after deduplication",
		}),
		fetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "taxonomy_fetch_total",
			Help: "Directory page fetch attempts, by result",
		}, []string{"result"}),
		stageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "taxonomy_stage_duration_seconds",
			Help:    "Wall time spent per pipeline stage",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 8),
		}, []string{"stage"}),
	}

	m.registry.MustRegister(
		m.itemsFound,
		m.itemsNormalized,
		m.itemsDeduped,
		m.fetches,
		m.stageDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) ItemsFound(raw []domain.RawItem) {
	if m == nil {
		return
	}
	for _, it := range raw {
		m.itemsFound.WithLabelValues(string(it.Type)).Inc()
	}
}

func (m *Metrics) ItemsNormalized(n int) {
	if m == nil {
		return
	}
	m.itemsNormalized.Add(float64(n))
}

func (m *Metrics) ItemsDeduped(n int) {
	if m == nil {
		return
	}
	m.itemsDeduped.Add(float64(n))
}

func (m *Metrics) Fetch(result string) {
	if m == nil {
		return
	}
	m.fetches.WithLabelValues(result).Inc()
}

// StartStage returns a func that records the stage's elapsed time.
func (m *Metrics) StartStage(stage string) func() {
	if m == nil {
		return func() {}
	}
	start := time.Now()
	return func() {
		m.stageDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
	}
}

// Snapshot holds counter totals for the end-of-run log line.
type Snapshot struct {
	ItemsFound      map[string]float64 `json:"items_found"`
	ItemsNormalized float64            `json:"items_normalized"`
	ItemsDeduped    float64            `json:"items_deduped"`
	Fetches         map[string]float64 `json:"fetches"`
}

func (m *Metrics) Snapshot() Snapshot {
	s := Snapshot{ItemsFound: map[string]float64{}, Fetches: map[string]float64{}}
	if m == nil {
		return s
	}
	s.ItemsNormalized = counterValue(m.itemsNormalized)
	s.ItemsDeduped = counterValue(m.itemsDeduped)
	collectVec(m.itemsFound, "type", s.ItemsFound)
	collectVec(m.fetches, "result", s.Fetches)
	return s
}

func counterValue(c prometheus.Counter) float64 {
	var out dto.Metric
	if err := c.Write(&out); err != nil {
		return 0
	}
	return out.GetCounter().GetValue()
}

func collectVec(vec *prometheus.CounterVec, label string, into map[string]float64) {
	ch := make(chan prometheus.Metric)
	go func() {
		vec.Collect(ch)
		close(ch)
	}()
	for metric := range ch {
		var out dto.Metric
		if err := metric.Write(&out); err != nil {
			continue
		}
		for _, lp := range out.GetLabel() {
			if lp.GetName() == label {
				into[lp.GetValue()] += out.GetCounter().GetValue()
			}
		}
	}
}
