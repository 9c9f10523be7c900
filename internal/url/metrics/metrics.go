package metrics

import (
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

const (
	URLsCreated      = "urls_created"
	URLsDeduplicated = "urls_deduplicated"
	Redirects        = "redirects"
	RedirectsMissed  = "redirects_not_found"
	CacheHits        = "cache_hits"
	CacheMisses      = "cache_misses"
	CacheErrors      = "cache_errors"
	CodeCollisions   = "code_collisions"
	PublishErrors    = "publish_errors"
)

type Metrics interface {
	IncrementCounter(name string)
	IncrementCounterWithLabels(name string, labels map[string]string)
	RecordDuration(name string, duration time.Duration)
	RecordGauge(name string, value float64)
}

// InMemoryMetrics keeps counters and gauges in process and exposes them
// through /debug/metrics.
type InMemoryMetrics struct {
	counterMutex sync.RWMutex
	counters     map[string]*int64
	gaugeMutex   sync.RWMutex
	gauges       map[string]float64
}

func NewInMemoryMetrics() *InMemoryMetrics {
	return &InMemoryMetrics{
		counters: make(map[string]*int64),
		gauges:   make(map[string]float64),
	}
}

func (m *InMemoryMetrics) counter(name string) *int64 {
	m.counterMutex.RLock()
	c, ok := m.counters[name]
	m.counterMutex.RUnlock()
	if ok {
		return c
	}

	m.counterMutex.Lock()
	defer m.counterMutex.Unlock()
	if c, ok = m.counters[name]; !ok {
		c = new(int64)
		m.counters[name] = c
	}
	return c
}

func (m *InMemoryMetrics) IncrementCounter(name string) {
	atomic.AddInt64(m.counter(name), 1)
}

// IncrementCounterWithLabels folds labels into the key as name{k=v,...}.
func (m *InMemoryMetrics) IncrementCounterWithLabels(name string, labels map[string]string) {
	if len(labels) == 0 {
		m.IncrementCounter(name)
		return
	}

	keys := make([]string, 0, len(labels))
	for k := range labels {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(name)
	b.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(labels[k])
	}
	b.WriteByte('}')

	m.IncrementCounter(b.String())
}

func (m *InMemoryMetrics) RecordDuration(name string, duration time.Duration) {
	m.RecordGauge(name+"_duration_ms", float64(duration.Nanoseconds())/1e6)
}

func (m *InMemoryMetrics) RecordGauge(name string, value float64) {
	m.gaugeMutex.Lock()
	defer m.gaugeMutex.Unlock()
	m.gauges[name] = value
}

func (m *InMemoryMetrics) GetCounters() map[string]int64 {
	m.counterMutex.RLock()
	defer m.counterMutex.RUnlock()

	result := make(map[string]int64, len(m.counters))
	for name, counter := range m.counters {
		result[name] = atomic.LoadInt64(counter)
	}
	return result
}

func (m *InMemoryMetrics) GetGauges() map[string]float64 {
	m.gaugeMutex.RLock()
	defer m.gaugeMutex.RUnlock()

	result := make(map[string]float64, len(m.gauges))
	for name, gauge := range m.gauges {
		result[name] = gauge
	}
	return result
}

// NoopMetrics discards everything.
type NoopMetrics struct{}

func (NoopMetrics) IncrementCounter(string)                              {}
func (NoopMetrics) IncrementCounterWithLabels(string, map[string]string) {}
func (NoopMetrics) RecordDuration(string, time.Duration)                 {}
func (NoopMetrics) RecordGauge(string, float64)                          {}
