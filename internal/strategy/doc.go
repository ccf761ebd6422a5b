// Package strategy picks one instance out of the healthy instances of a
// service:
//
//   - Round Robin: Sequential distribution across instances
//   - Random: Random instance selection
//   - Least Connections: Routes to the instance with fewest active connections
//   - Least Response Time: Routes on EWMA response time weighted by load
//
// Callers pass only instances that are allowed to receive traffic.
package strategy
