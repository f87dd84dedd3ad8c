package capture

import (
	"sync"
	"time"
)

// Stages holds the latency of each step of one cycle.
type Stages struct {
	Capture time.Duration `json:"capture"`
	Analyze time.Duration `json:"analyze"`
	Total   time.Duration `json:"total"`
}

const historySize = 100

// Metrics collects per-cycle stage latencies.
// It is goroutine-safe.
type Metrics struct {
	mu      sync.Mutex
	last    Stages
	history []Stages
}

// NewMetrics creates an empty collector.
func NewMetrics() *Metrics {
	return &Metrics{history: make([]Stages, 0, historySize)}
}

// Record archives one cycle.
func (m *Metrics) Record(s Stages) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.last = s
	m.history = append(m.history, s)
	if len(m.history) > historySize {
		m.history = m.history[1:]
	}
}

// Last returns the most recent cycle.
func (m *Metrics) Last() Stages {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.last
}

// Average returns the mean over recorded cycles.
func (m *Metrics) Average() Stages {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.history) == 0 {
		return Stages{}
	}
	var sum Stages
	for _, s := range m.history {
		sum.Capture += s.Capture
		sum.Analyze += s.Analyze
		sum.Total += s.Total
	}
	n := time.Duration(len(m.history))
	return Stages{Capture: sum.Capture / n, Analyze: sum.Analyze / n, Total: sum.Total / n}
}
