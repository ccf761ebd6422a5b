package strategy

import (
	"sync/atomic"

	"github.com/angeloszaimis/map-gateway/internal/upstream"
)

type roundRobinStrategy struct {
	current atomic.Uint64
}

func (rr *roundRobinStrategy) Select(instances []*upstream.Upstream) *upstream.Upstream {
	if len(instances) == 0 {
		return nil
	}

	n := rr.current.Add(1)
	return instances[(n-1)%uint64(len(instances))]
}

func NewRoundRobinStrategy() Strategy {
	return &roundRobinStrategy{}
}
