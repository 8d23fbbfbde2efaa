// Package datalog stores the time series scene objects record while they
// update. Collector implementations satisfy render.DataCollector.
package datalog

import (
	"context"
	"sort"
	"sync"
)

type Sample struct {
	Frame uint64
	Value float64
}

// Collector is a DataCollector that can be drained and closed.
type Collector interface {
	Record(series string, frame uint64, value float64)
	Flush(ctx context.Context) error
	Close() error
}

// Memory keeps every sample in memory.
type Memory struct {
	mu     sync.Mutex
	series map[string][]Sample
}

func NewMemory() *Memory {
	return &Memory{series: map[string][]Sample{}}
}

func (m *Memory) Record(series string, frame uint64, value float64) {
	m.mu.Lock()
	m.series[series] = append(m.series[series], Sample{Frame: frame, Value: value})
	m.mu.Unlock()
}

// Series returns a copy of the samples of name in record order.
func (m *Memory) Series(name string) []Sample {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Sample(nil), m.series[name]...)
}

// Names lists the recorded series sorted by name.
func (m *Memory) Names() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	names := make([]string, 0, len(m.series))
	for n := range m.series {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func (m *Memory) Flush(context.Context) error { return nil }
func (m *Memory) Close() error                { return nil }
