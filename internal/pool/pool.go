package pool

import (
	"errors"
	"sync"

	"github.com/angeloszaimis/map-gateway/internal/apiurl"
	"github.com/angeloszaimis/map-gateway/internal/circuitbreaker"
	"github.com/angeloszaimis/map-gateway/internal/strategy"
	"github.com/angeloszaimis/map-gateway/internal/upstream"
)

var ErrNoInstance = errors.New("no available instance")

type Pool struct {
	service   apiurl.Service
	instances []*upstream.Upstream
	strategy  strategy.Strategy
	breakers  *circuitbreaker.Registry
	mutex     sync.Mutex
}

// New creates a pool. breakers may be nil to disable circuit breaking.
func New(service apiurl.Service, instances []*upstream.Upstream, strat strategy.Strategy, breakers *circuitbreaker.Registry) *Pool {
	return &Pool{
		service:   service,
		instances: instances,
		strategy:  strat,
		breakers:  breakers,
	}
}

func (p *Pool) Service() apiurl.Service {
	return p.service
}

func (p *Pool) Instances() []*upstream.Upstream {
	return p.instances
}

// Breaker returns the breaker of u, or nil when circuit breaking is off.
func (p *Pool) Breaker(u *upstream.Upstream) *circuitbreaker.CircuitBreaker {
	if p.breakers == nil {
		return nil
	}
	return p.breakers.GetBreaker(u.URL().String())
}

// Acquire selects a healthy instance whose breaker lets traffic through
// and reserves a connection on it. The caller must call DecrementConn on
// the returned instance.
func (p *Pool) Acquire() (*upstream.Upstream, error) {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	available := p.available()
	if len(available) == 0 {
		return nil, ErrNoInstance
	}

	chosen := p.strategy.Select(available)
	if chosen == nil {
		return nil, ErrNoInstance
	}

	chosen.IncrementConn()
	return chosen, nil
}

func (p *Pool) available() []*upstream.Upstream {
	available := make([]*upstream.Upstream, 0, len(p.instances))

	for _, u := range p.instances {
		if !u.IsHealthy() {
			continue
		}
		if cb := p.Breaker(u); cb != nil && !cb.Allow() {
			continue
		}
		available = append(available, u)
	}

	return available
}
