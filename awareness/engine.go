package awareness

import (
	"github.com/bytearena/ecs"
	"github.com/rs/zerolog"

	"github.com/kase1111-hash/ascii-city-core/common"
	"github.com/kase1111-hash/ascii-city-core/config"
)

// Engine owns every observer's awareness state for the driver. It holds no
// position or vision logic of its own — the tick driver supplies clarity
// and volume per observer each tick, gathered from the Vision and Sound
// Services.
type Engine struct {
	Observers map[ecs.EntityID]*Observer
	log       zerolog.Logger
}

// NewEngine builds an empty awareness engine.
func NewEngine(log zerolog.Logger) *Engine {
	return &Engine{
		Observers: make(map[ecs.EntityID]*Observer),
		log:       log.With().Str("component", "awareness").Logger(),
	}
}

// Register creates and tracks a new observer, starting Unaware.
func (e *Engine) Register(id ecs.EntityID, bias common.Bias, priorBelief bool) *Observer {
	o := NewObserver(id, bias, priorBelief)
	e.Observers[id] = o
	return o
}

// Get returns the observer for id, or nil if untracked.
func (e *Engine) Get(id ecs.EntityID) *Observer {
	return e.Observers[id]
}

// Forget drops an observer, e.g. once its entity leaves the simulation.
func (e *Engine) Forget(id ecs.EntityID) {
	delete(e.Observers, id)
}

// UpdateAll advances every tracked observer by dt, given per-observer
// clarity/volume inputs. inputs supplies (clarity, volume) for an observer
// id; observers absent from inputs see (0, 0) this tick.
func (e *Engine) UpdateAll(cfg config.AwarenessConfig, dt float64, inputs map[ecs.EntityID][2]float64) []Transition {
	var transitions []Transition
	for id, o := range e.Observers {
		v, a := 0.0, 0.0
		if in, ok := inputs[id]; ok {
			v, a = in[0], in[1]
		}
		if t, changed := o.Update(cfg, dt, v, a); changed {
			e.log.Debug().Uint64("observer", uint64(id)).Str("old", t.Old.String()).Str("new", t.New.String()).Msg("awareness transition")
			transitions = append(transitions, t)
		}
	}
	return transitions
}
