package circuitbreaker

import (
	"sync"
	"time"
)

// ChangeFunc is notified when the breaker of an upstream changes state.
type ChangeFunc func(upstreamURL string, from, to State)

type Registry struct {
	mutex     sync.RWMutex
	breakers  map[string]*CircuitBreaker
	threshold int
	timeout   time.Duration
	onChange  ChangeFunc
}

func NewRegistry(threshold int, timeout time.Duration) *Registry {
	return &Registry{
		breakers:  make(map[string]*CircuitBreaker),
		threshold: threshold,
		timeout:   timeout,
	}
}

// OnChange registers fn for breakers created after the call.
func (r *Registry) OnChange(fn ChangeFunc) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.onChange = fn
}

func (r *Registry) GetBreaker(upstreamURL string) *CircuitBreaker {
	r.mutex.RLock()
	cb, exists := r.breakers[upstreamURL]
	r.mutex.RUnlock()

	if exists {
		return cb
	}

	r.mutex.Lock()
	defer r.mutex.Unlock()

	// Another goroutine may have created it.
	if cb, exists = r.breakers[upstreamURL]; exists {
		return cb
	}

	cb = NewCircuitBreaker(r.threshold, r.timeout)
	if fn := r.onChange; fn != nil {
		cb.onChange = func(from, to State) { fn(upstreamURL, from, to) }
	}
	r.breakers[upstreamURL] = cb
	return cb
}

func (r *Registry) Reset() {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.breakers = make(map[string]*CircuitBreaker)
}

func (r *Registry) Stats() map[string]State {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	stats := make(map[string]State, len(r.breakers))
	for url, cb := range r.breakers {
		stats[url] = cb.State()
	}
	return stats
}
