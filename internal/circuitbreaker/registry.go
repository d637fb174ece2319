package circuitbreaker

import (
	"sync"
	"time"
)

// Registry hands out one breaker per outbound target.
type Registry struct {
	mutex     sync.RWMutex
	breakers  map[string]*Breaker
	threshold int
	timeout   time.Duration
}

func NewRegistry(threshold int, timeout time.Duration) *Registry {
	return &Registry{
		breakers:  make(map[string]*Breaker),
		threshold: threshold,
		timeout:   timeout,
	}
}

// Get returns the breaker for target, creating it on first use.
func (r *Registry) Get(target string) *Breaker {
	r.mutex.RLock()
	b, exists := r.breakers[target]
	r.mutex.RUnlock()

	if exists {
		return b
	}

	r.mutex.Lock()
	defer r.mutex.Unlock()

	// another goroutine may have created it
	if b, exists = r.breakers[target]; exists {
		return b
	}

	b = New(r.threshold, r.timeout)
	r.breakers[target] = b
	return b
}

// States returns the current state of every known target.
func (r *Registry) States() map[string]State {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	states := make(map[string]State, len(r.breakers))
	for target, b := range r.breakers {
		states[target] = b.State()
	}
	return states
}
