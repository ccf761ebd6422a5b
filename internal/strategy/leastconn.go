package strategy

import (
	"math"

	"github.com/angeloszaimis/map-gateway/internal/upstream"
)

type leastConnStrategy struct{}

func (l *leastConnStrategy) Select(instances []*upstream.Upstream) *upstream.Upstream {
	var best *upstream.Upstream
	bestConns := math.MaxInt

	for _, u := range instances {
		if conns := u.ActiveConnections(); conns < bestConns {
			bestConns = conns
			best = u
		}
	}

	return best
}

func NewLeastConnStrategy() Strategy {
	return &leastConnStrategy{}
}
