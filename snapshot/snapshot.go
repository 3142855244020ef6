// Package snapshot defines the tick driver's per-tick immutable output
// record (spec.md §6).
package snapshot

import (
	"github.com/bytearena/ecs"

	"github.com/kase1111-hash/ascii-city-core/awareness"
	"github.com/kase1111-hash/ascii-city-core/coords"
	"github.com/kase1111-hash/ascii-city-core/intent"
	"github.com/kase1111-hash/ascii-city-core/sound"
	"github.com/kase1111-hash/ascii-city-core/threat"
)

// Band is the closed set of threat-proximity bands exposed to narration.
type Band int

const (
	Far Band = iota
	Medium
	Near
	Imminent
	Contact
)

func (b Band) String() string {
	switch b {
	case Far:
		return "far"
	case Medium:
		return "medium"
	case Near:
		return "near"
	case Imminent:
		return "imminent"
	default:
		return "contact"
	}
}

// BandFor derives a proximity band from planar distance; the thresholds
// are implementation detail, not spec-mandated constants.
func BandFor(distance float64) Band {
	switch {
	case distance <= 1.5:
		return Contact
	case distance <= 4:
		return Imminent
	case distance <= 10:
		return Near
	case distance <= 25:
		return Medium
	default:
		return Far
	}
}

// PartialTile pairs a tile position with its partial clarity value.
type PartialTile struct {
	Position coords.Position
	Clarity  float64
}

// ThreatDescriptor is one threat's externally visible state.
type ThreatDescriptor struct {
	ThreatID ecs.EntityID
	Band     Band
	Stage    threat.Stage
	Clarity  float64
}

// AwarenessTransition mirrors awareness.Transition for the snapshot's
// output vocabulary (old/new as plain awareness.State values).
type AwarenessTransition struct {
	ObserverID ecs.EntityID
	Old        awareness.State
	New        awareness.State
}

// Snapshot is the immutable, per-tick output record published at tick
// driver step 8 (spec.md §6). Once published it is never mutated; the
// driver builds a fresh Snapshot each tick.
type Snapshot struct {
	Tick uint64

	VisibleTiles []coords.Position
	PartialTiles []PartialTile

	AudioCues []sound.AudioCue

	ThreatDescriptors []ThreatDescriptor

	AwarenessTransitions []AwarenessTransition

	// IntentOutcomes holds one outcome per intent queued for this tick, in
	// arrival order (spec.md §5) — every queued intent is resolved, never
	// silently dropped (spec.md §7).
	IntentOutcomes []intent.Outcome
}
