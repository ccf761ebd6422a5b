package strategy

import (
	"github.com/angeloszaimis/map-gateway/internal/upstream"
)

type Strategy interface {
	Select(instances []*upstream.Upstream) *upstream.Upstream
}
