// Package awareness owns each observer's awareness score and state
// transitions (spec.md §4.5).
package awareness

import (
	"github.com/bytearena/ecs"

	"github.com/kase1111-hash/ascii-city-core/common"
	"github.com/kase1111-hash/ascii-city-core/config"
)

// State is the closed set of awareness states, ordered by escalation.
type State int

const (
	Unaware State = iota
	Suspicious
	Alert
	Engaged
)

func (s State) String() string {
	switch s {
	case Unaware:
		return "unaware"
	case Suspicious:
		return "suspicious"
	case Alert:
		return "alert"
	default:
		return "engaged"
	}
}

// Transition records one observer's state change for a tick's snapshot.
type Transition struct {
	ObserverID ecs.EntityID
	Old        State
	New        State
}

// Observer tracks one entity's awareness evolution.
type Observer struct {
	ID          ecs.EntityID
	Bias        common.Bias
	PriorBelief bool

	Score float64
	state State
}

// NewObserver creates an observer starting Unaware at score 0.
func NewObserver(id ecs.EntityID, bias common.Bias, priorBelief bool) *Observer {
	return &Observer{ID: id, Bias: bias, PriorBelief: priorBelief, state: Unaware}
}

// State returns the observer's current awareness state.
func (o *Observer) State() State {
	return o.state
}

// RestoreState sets the observer's state directly, bypassing score-derived
// transition logic. Only the savesystem calls this, when reconstructing an
// Observer from persisted state whose score and state were saved together.
func (o *Observer) RestoreState(s State) {
	o.state = s
}

// Update advances the observer's awareness score for one tick and reports
// a Transition if the state changed (spec.md §4.5). v is the max clarity of
// the player's tile this tick (0 outside FOV), a is the player-sourced
// volume at the observer's tile this tick.
func (o *Observer) Update(cfg config.AwarenessConfig, dt, v, a float64) (Transition, bool) {
	mTerm := 0.0
	if o.PriorBelief {
		mTerm = 1.0
	}

	raw := o.Score + (0.5*v+0.4*a+0.2*mTerm)*(1+0.3*o.Bias.Curious)
	raw = clamp01(raw)

	decayRate := decayRateFor(o.state, cfg)
	raw -= decayRate * dt
	raw = clamp01(raw)

	oldState := stateFor(o.Score, cfg)
	o.Score = raw
	newState := stateFor(o.Score, cfg)

	if newState == oldState {
		return Transition{}, false
	}
	o.state = newState
	return Transition{ObserverID: o.ID, Old: oldState, New: newState}, true
}

func decayRateFor(s State, cfg config.AwarenessConfig) float64 {
	switch s {
	case Engaged:
		return cfg.EngagedDecayPerSecond
	case Alert:
		return cfg.AlertDecayPerSecond
	case Suspicious:
		return cfg.SuspiciousDecayPerSecond
	default:
		return 0
	}
}

func stateFor(score float64, cfg config.AwarenessConfig) State {
	switch {
	case score <= cfg.UnawareCeiling:
		return Unaware
	case score <= cfg.SuspiciousCeiling:
		return Suspicious
	case score <= cfg.AlertCeiling:
		return Alert
	default:
		return Engaged
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
