package factory

import (
	"github.com/slavakukuyev/elevator-go/internal/infra/config"
	"github.com/slavakukuyev/elevator-go/internal/sim"
)

// EngineFactory builds a simulation engine from the ambient config. It
// exists so internal/manager can be unit tested against a fake engine
// without constructing a real one.
type EngineFactory interface {
	CreateEngine(cfg *config.Config) (*sim.Engine, error)
}

type StandardEngineFactory struct{}

func (f StandardEngineFactory) CreateEngine(cfg *config.Config) (*sim.Engine, error) {
	return sim.NewEngine(cfg.SimConfig())
}
