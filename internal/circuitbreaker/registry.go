package circuitbreaker

import (
	"sync"
	"time"
)

// Registry hands out one breaker per endpoint URL so that loggers sharing a
// transport trip independently. Breakers are created on first use and
// live as long as the registry.
type Registry struct {
	breakers  sync.Map // endpoint -> *CircuitBreaker
	threshold int
	timeout   time.Duration
}

func NewRegistry(threshold int, timeout time.Duration) *Registry {
	return &Registry{
		threshold: threshold,
		timeout:   timeout,
	}
}

func (r *Registry) ForEndpoint(endpoint string) *CircuitBreaker {
	if cb, ok := r.breakers.Load(endpoint); ok {
		return cb.(*CircuitBreaker)
	}

	cb, _ := r.breakers.LoadOrStore(endpoint, NewCircuitBreaker(r.threshold, r.timeout))
	return cb.(*CircuitBreaker)
}

// Statuses snapshots every endpoint seen so far.
func (r *Registry) Statuses() map[string]Status {
	statuses := make(map[string]Status)
	r.breakers.Range(func(key, value any) bool {
		statuses[key.(string)] = value.(*CircuitBreaker).Status()
		return true
	})
	return statuses
}
