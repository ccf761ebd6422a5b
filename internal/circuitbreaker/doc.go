// Package circuitbreaker stops the gateway from sending traffic to
// upstream instances that keep failing.
//
// Each instance gets its own breaker:
//
//   - CLOSED: Normal operation, requests pass through
//   - OPEN: Instance failing, requests blocked until the reset timeout
//   - HALF-OPEN: Requests let through to probe recovery; one failure reopens
//
// Usage:
//
//	registry := circuitbreaker.NewRegistry(5, 30*time.Second)
//	cb := registry.GetBreaker("http://localhost:8000")
//	if cb.Allow() {
//	    // Proxy the request...
//	    if failed {
//	        cb.RecordFailure()
//	    } else {
//	        cb.RecordSuccess()
//	    }
//	}
package circuitbreaker
