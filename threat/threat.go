// Package threat owns threat escalation and reaction-window resolution
// against player intents (spec.md §4.5).
package threat

import (
	"github.com/bytearena/ecs"

	"github.com/kase1111-hash/ascii-city-core/awareness"
	"github.com/kase1111-hash/ascii-city-core/config"
	"github.com/kase1111-hash/ascii-city-core/coords"
)

// Stage is the closed escalation ladder, 0 (Notice) through 5 (Lethal).
type Stage int

const (
	Notice Stage = iota
	Challenge
	Advance
	Aim
	Warning
	Lethal
)

func (s Stage) String() string {
	switch s {
	case Notice:
		return "notice"
	case Challenge:
		return "challenge"
	case Advance:
		return "advance"
	case Aim:
		return "aim"
	case Warning:
		return "warning"
	default:
		return "lethal"
	}
}

// EscalationEvent records a threat's stage increase for a tick's snapshot.
type EscalationEvent struct {
	ThreatID ecs.EntityID
	NewStage Stage
}

// Profile carries a threat's static capability data (spec.md §3): how
// lethal it is at range, how loud it is, and how fast it closes distance.
// These are independent of the dynamic escalation stage below.
type Profile struct {
	LethalityRangeTiles    float64
	DamagePotential        float64 // in [0,1]
	SoundSignature         float64 // in [0,1]
	VelocityTilesPerSecond float64
}

// Threat tracks one engaged-capable entity's escalation state. It holds a
// pointer to its awareness.Observer since escalation only runs while the observer is
// Engaged (spec.md §4.5).
type Threat struct {
	ID       ecs.EntityID
	Observer *awareness.Observer
	Position coords.Position
	Profile  Profile

	Stage      Stage
	StageTimer float64

	// lostContactTicks counts consecutive ticks without sight or sound
	// contact; two in a row de-escalates the stage by one.
	lostContactTicks int

	FearPenalty float64
}

// NewThreat creates a threat bound to an awareness observer, starting at
// stage Notice.
func NewThreat(id ecs.EntityID, observer *awareness.Observer, pos coords.Position, profile Profile) *Threat {
	return &Threat{ID: id, Observer: observer, Position: pos, Profile: profile, Stage: Notice}
}

// ReactionWindow returns the nominal reaction_window for the threat's
// current stage.
func (t *Threat) ReactionWindow(cfg config.ThreatConfig) float64 {
	return cfg.ReactionWindows[t.Stage]
}

// AdvanceEscalation runs one tick of escalation bookkeeping. hasContact
// reports whether the threat has sight or sound contact with the player
// this tick; it is meaningless when the observer isn't Engaged.
func (t *Threat) AdvanceEscalation(cfg config.ThreatConfig, dt float64, hasContact bool) (EscalationEvent, bool) {
	if t.Observer.State() != awareness.Engaged {
		return EscalationEvent{}, false
	}

	if !hasContact {
		t.lostContactTicks++
		if t.lostContactTicks >= cfg.LostContactTicksToDeescalate && t.Stage > Notice {
			t.Stage--
			t.StageTimer = 0
			t.lostContactTicks = 0
		}
		return EscalationEvent{}, false
	}
	t.lostContactTicks = 0

	t.StageTimer += dt
	if t.StageTimer >= t.ReactionWindow(cfg) && t.Stage < Lethal {
		t.Stage++
		t.StageTimer = 0
		return EscalationEvent{ThreatID: t.ID, NewStage: t.Stage}, true
	}
	return EscalationEvent{}, false
}
