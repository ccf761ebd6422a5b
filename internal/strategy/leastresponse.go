package strategy

import (
	"time"

	"github.com/angeloszaimis/map-gateway/internal/upstream"
)

type leastResponseStrategy struct{}

// Select scores each instance as ewma * (active + 1). An instance without
// samples wins immediately so it gets measured.
func (l *leastResponseStrategy) Select(instances []*upstream.Upstream) *upstream.Upstream {
	var chosen *upstream.Upstream
	var best time.Duration

	for _, u := range instances {
		ewma := u.EWMATime()
		if ewma == 0 {
			return u
		}

		score := ewma * (time.Duration(u.ActiveConnections()) + 1)
		if chosen == nil || score < best {
			chosen = u
			best = score
		}
	}

	return chosen
}

func NewLeastResponseStrategy() Strategy {
	return &leastResponseStrategy{}
}
