// Package intent defines the driver's input and output message types
// (spec.md §6).
package intent

import (
	"errors"

	"github.com/bytearena/ecs"

	"github.com/kase1111-hash/ascii-city-core/common"
	"github.com/kase1111-hash/ascii-city-core/coords"
	"github.com/kase1111-hash/ascii-city-core/grid"
)

// ErrUnknownReference is returned when an intent's target names an entity
// or tile outside the simulation envelope (spec.md §7).
var ErrUnknownReference = errors.New("unknown reference")

// ModifierTag is the closed set of intent modifiers.
type ModifierTag string

const (
	Quietly ModifierTag = "quietly"
	Quickly ModifierTag = "quickly"
	Behind  ModifierTag = "behind"
	Toward  ModifierTag = "toward"
	With    ModifierTag = "with"
)

// TargetRef names either an entity or a tile position; exactly one of the
// two fields is meaningful, indicated by HasEntity.
type TargetRef struct {
	HasEntity bool
	EntityID  ecs.EntityID
	Position  coords.Position
}

// EntityTarget builds a TargetRef naming an entity.
func EntityTarget(id ecs.EntityID) TargetRef {
	return TargetRef{HasEntity: true, EntityID: id}
}

// TileTarget builds a TargetRef naming a tile position.
func TileTarget(pos coords.Position) TargetRef {
	return TargetRef{Position: pos}
}

// ValidateTarget reports ErrUnknownReference if target names an entity not
// tracked by em or a tile outside g's generated envelope (spec.md §7,
// UnknownReference). A nil target is always valid — not every intent names
// one.
func ValidateTarget(target *TargetRef, g *grid.Grid, em *common.EntityManager) error {
	if target == nil {
		return nil
	}
	if target.HasEntity {
		if em.FindByID(target.EntityID) == nil {
			return ErrUnknownReference
		}
		return nil
	}
	if !g.Exists(target.Position) {
		return ErrUnknownReference
	}
	return nil
}

// Modifiers carries the optional qualifiers on an intent.
type Modifiers struct {
	Tags      map[ModifierTag]struct{}
	Direction float64 // radians, meaningful only if Tags contains Toward
	ItemID    ecs.EntityID // meaningful only if Tags contains With
}

// Has reports whether a modifier tag is present.
func (m Modifiers) Has(tag ModifierTag) bool {
	_, ok := m.Tags[tag]
	return ok
}

// Intent is a structured input record accepted by the tick driver
// (spec.md §6).
type Intent struct {
	Kind                 grid.ActionTag
	Target               *TargetRef
	Modifiers            Modifiers
	Urgency              float64
	InputLatencySeconds  float64
	ArrivalMonotonicTime float64
}

// Timing is the closed set of reaction-window timing classes.
type Timing int

const (
	Early Timing = iota
	OnTime
	Late
	TooLate
	Freeze
)

func (t Timing) String() string {
	switch t {
	case Early:
		return "early"
	case OnTime:
		return "on_time"
	case Late:
		return "late"
	case TooLate:
		return "too_late"
	default:
		return "freeze"
	}
}

// Outcome is the resolver's descriptor for one resolved intent
// (spec.md §4.5, §6).
type Outcome struct {
	Timing         Timing
	DamageApplied  float64
	IntentAccepted bool
}
