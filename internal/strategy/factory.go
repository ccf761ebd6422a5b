package strategy

import (
	"fmt"
)

// New returns the strategy registered under name.
func New(name string) (Strategy, error) {
	switch name {
	case "round-robin":
		return NewRoundRobinStrategy(), nil
	case "random":
		return NewRandomStrategy(), nil
	case "least-conn":
		return NewLeastConnStrategy(), nil
	case "least-response":
		return NewLeastResponseStrategy(), nil
	default:
		return nil, fmt.Errorf("unknown strategy %q", name)
	}
}
