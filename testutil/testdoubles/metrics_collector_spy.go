package testdoubles

import (
	"context"
	"maps"
	"sync"
	"time"
)

// MetricsCollectorSpy captures metrics calls for testing.
// It implements both the basic and the contextual collector interface so either code path can be exercised.
type MetricsCollectorSpy struct {
	durationRecords []SpyRecord
	counterRecords  []SpyRecord
	valueRecords    []SpyRecord
	contextualCalls int
	mu              sync.Mutex
}

// SpyRecord is one captured metrics call.
type SpyRecord struct {
	Metric   string
	Duration time.Duration
	Value    float64
	Labels   map[string]string
}

// NewMetricsCollectorSpy creates an empty MetricsCollectorSpy.
func NewMetricsCollectorSpy() *MetricsCollectorSpy {
	return &MetricsCollectorSpy{}
}

// RecordDuration records a duration metric.
func (s *MetricsCollectorSpy) RecordDuration(metric string, duration time.Duration, labels map[string]string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.durationRecords = append(s.durationRecords, SpyRecord{Metric: metric, Duration: duration, Labels: maps.Clone(labels)})
}

// IncrementCounter records a counter increment.
func (s *MetricsCollectorSpy) IncrementCounter(metric string, labels map[string]string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.counterRecords = append(s.counterRecords, SpyRecord{Metric: metric, Labels: maps.Clone(labels)})
}

// RecordValue records a value metric.
func (s *MetricsCollectorSpy) RecordValue(metric string, value float64, labels map[string]string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.valueRecords = append(s.valueRecords, SpyRecord{Metric: metric, Value: value, Labels: maps.Clone(labels)})
}

// RecordDurationContext records a duration metric through the contextual path.
func (s *MetricsCollectorSpy) RecordDurationContext(_ context.Context, metric string, duration time.Duration, labels map[string]string) {
	s.countContextual()
	s.RecordDuration(metric, duration, labels)
}

// IncrementCounterContext records a counter increment through the contextual path.
func (s *MetricsCollectorSpy) IncrementCounterContext(_ context.Context, metric string, labels map[string]string) {
	s.countContextual()
	s.IncrementCounter(metric, labels)
}

// RecordValueContext records a value metric through the contextual path.
func (s *MetricsCollectorSpy) RecordValueContext(_ context.Context, metric string, value float64, labels map[string]string) {
	s.countContextual()
	s.RecordValue(metric, value, labels)
}

func (s *MetricsCollectorSpy) countContextual() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.contextualCalls++
}

// ContextualCalls returns how many calls came through the contextual methods.
func (s *MetricsCollectorSpy) ContextualCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.contextualCalls
}

// CountDurations returns how many duration records match the metric and all given labels.
func (s *MetricsCollectorSpy) CountDurations(metric string, labels map[string]string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return countMatching(s.durationRecords, metric, labels)
}

// CountCounters returns how many counter records match the metric and all given labels.
func (s *MetricsCollectorSpy) CountCounters(metric string, labels map[string]string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return countMatching(s.counterRecords, metric, labels)
}

// CountValues returns how many value records match the metric and all given labels.
func (s *MetricsCollectorSpy) CountValues(metric string, labels map[string]string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return countMatching(s.valueRecords, metric, labels)
}

func countMatching(records []SpyRecord, metric string, labels map[string]string) int {
	count := 0

	for _, record := range records {
		if record.Metric != metric {
			continue
		}

		matches := true
		for key, value := range labels {
			if record.Labels[key] != value {
				matches = false
				break
			}
		}

		if matches {
			count++
		}
	}

	return count
}
