package strategy

import (
	"math/rand/v2"

	"github.com/angeloszaimis/map-gateway/internal/upstream"
)

type randomStrategy struct{}

func (r *randomStrategy) Select(instances []*upstream.Upstream) *upstream.Upstream {
	if len(instances) == 0 {
		return nil
	}

	return instances[rand.IntN(len(instances))]
}

func NewRandomStrategy() Strategy {
	return &randomStrategy{}
}
