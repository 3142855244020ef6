package threat

import (
	"github.com/bytearena/ecs"
	"github.com/rs/zerolog"

	"github.com/kase1111-hash/ascii-city-core/awareness"
	"github.com/kase1111-hash/ascii-city-core/config"
	"github.com/kase1111-hash/ascii-city-core/coords"
)

// Engine owns every threat-capable entity's escalation state for the
// driver. Escalation only advances for threats whose observer is
// awareness.Engaged; a threat stays registered whatever its observer's
// state, so a later transition into Engaged has somewhere to escalate from.
type Engine struct {
	Threats map[ecs.EntityID]*Threat
	log     zerolog.Logger
}

// NewEngine builds an empty threat engine.
func NewEngine(log zerolog.Logger) *Engine {
	return &Engine{
		Threats: make(map[ecs.EntityID]*Threat),
		log:     log.With().Str("component", "threat").Logger(),
	}
}

// Register creates and tracks a new threat bound to observer, starting at
// stage Notice.
func (e *Engine) Register(id ecs.EntityID, observer *awareness.Observer, pos coords.Position, profile Profile) *Threat {
	t := NewThreat(id, observer, pos, profile)
	e.Threats[id] = t
	return t
}

// Get returns the threat for id, or nil if untracked.
func (e *Engine) Get(id ecs.EntityID) *Threat {
	return e.Threats[id]
}

// Forget drops a threat.
func (e *Engine) Forget(id ecs.EntityID) {
	delete(e.Threats, id)
}

// Engaged returns every tracked threat whose observer is currently Engaged,
// the set the reaction-window resolver reasons about (spec.md §4.5).
func (e *Engine) Engaged() []*Threat {
	var out []*Threat
	for _, t := range e.Threats {
		if t.Observer.State() == awareness.Engaged {
			out = append(out, t)
		}
	}
	return out
}

// AdvanceAll runs one tick of escalation bookkeeping for every tracked
// threat. hasContact reports sight/sound contact for a given threat id this
// tick.
func (e *Engine) AdvanceAll(cfg config.ThreatConfig, dt float64, hasContact func(ecs.EntityID) bool) []EscalationEvent {
	var events []EscalationEvent
	for id, t := range e.Threats {
		contact := hasContact != nil && hasContact(id)
		if ev, escalated := t.AdvanceEscalation(cfg, dt, contact); escalated {
			e.log.Info().Uint64("threat", uint64(id)).Str("stage", ev.NewStage.String()).Msg("threat escalated")
			events = append(events, ev)
		}
	}
	return events
}
