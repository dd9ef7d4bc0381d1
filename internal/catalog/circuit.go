package catalog

import (
	"sync"
	"time"

	"insurez/internal/logger"
)

type CircuitState string

const (
	CircuitClosed   CircuitState = "closed"
	CircuitOpen     CircuitState = "open"
	CircuitHalfOpen CircuitState = "half_open"
)

const (
	circuitFailureThreshold = 3
	circuitOpenCycles       = 3
)

// SourceCircuit is the breaker state for one source.
type SourceCircuit struct {
	State       CircuitState `json:"state"`
	Failures    int          `json:"failures"`
	LastFailure time.Time    `json:"last_failure,omitempty"`
	NextRetryAt time.Time    `json:"next_retry_at,omitempty"`
}

type breakers struct {
	mu       sync.Mutex
	circuits map[string]*SourceCircuit
	now      func() time.Time
}

func newBreakers(now func() time.Time) *breakers {
	return &breakers{circuits: make(map[string]*SourceCircuit), now: now}
}

func (b *breakers) get(name string) *SourceCircuit {
	c, ok := b.circuits[name]
	if !ok {
		c = &SourceCircuit{State: CircuitClosed}
		b.circuits[name] = c
	}
	return c
}

func (b *breakers) success(name string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	c := b.get(name)
	c.State = CircuitClosed
	c.Failures = 0
}

// failure opens the circuit after circuitFailureThreshold consecutive failures;
// it stays open for circuitOpenCycles refresh intervals.
func (b *breakers) failure(name string, interval time.Duration) {
	b.mu.Lock()
	defer b.mu.Unlock()
	c := b.get(name)
	c.Failures++
	c.LastFailure = b.now()
	if c.Failures >= circuitFailureThreshold {
		c.State = CircuitOpen
		c.NextRetryAt = b.now().Add(interval * circuitOpenCycles)
		logger.Warn("catalog: circuit opened", logger.Fields{
			"source": name, "failures": c.Failures,
			"retry_at": c.NextRetryAt.Format(time.RFC3339),
		})
	}
}

// skip reports whether the source is behind an open circuit. An open circuit
// past its retry time moves to half-open and lets one attempt through.
func (b *breakers) skip(name string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	c := b.get(name)
	if c.State != CircuitOpen {
		return false
	}
	if b.now().After(c.NextRetryAt) {
		c.State = CircuitHalfOpen
		logger.Info("catalog: circuit half-open, attempting retry", logger.Fields{"source": name})
		return false
	}
	return true
}

func (b *breakers) snapshot() map[string]SourceCircuit {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make(map[string]SourceCircuit, len(b.circuits))
	for k, v := range b.circuits {
		out[k] = *v
	}
	return out
}
