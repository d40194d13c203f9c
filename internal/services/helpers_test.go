package services

import (
	"io"
	"log/slog"
	"sync"
	"time"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type recordedMetric struct {
	name  string
	tags  map[string]string
	value float64
}

// recordingMetrics captures metric calls for assertions
type recordingMetrics struct {
	mu       sync.Mutex
	counters []recordedMetric
	timings  []string
	gauges   []recordedMetric
}

func (m *recordingMetrics) IncrementCounter(name string, tags map[string]string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counters = append(m.counters, recordedMetric{name: name, tags: tags})
}

func (m *recordingMetrics) RecordProcessingTime(name string, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.timings = append(m.timings, name)
}

func (m *recordingMetrics) RecordGauge(name string, value float64, tags map[string]string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gauges = append(m.gauges, recordedMetric{name: name, tags: tags, value: value})
}

func (m *recordingMetrics) counted(name string) []map[string]string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []map[string]string
	for _, c := range m.counters {
		if c.name == name {
			out = append(out, c.tags)
		}
	}
	return out
}
