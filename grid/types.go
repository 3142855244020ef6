// Package grid owns the tile store: the one authoritative spatial model
// the rest of the perception-and-reaction core reads from (spec.md §4.1).
package grid

import "github.com/bytearena/ecs"

// TerrainKind is the closed set of terrain kinds a tile may carry.
type TerrainKind int

const (
	Rock TerrainKind = iota
	Wood
	Metal
	Glass
	Soil
	WaterShallow
	WaterDeep
	Vegetation
	Debris
	Void
)

func (t TerrainKind) String() string {
	switch t {
	case Rock:
		return "rock"
	case Wood:
		return "wood"
	case Metal:
		return "metal"
	case Glass:
		return "glass"
	case Soil:
		return "soil"
	case WaterShallow:
		return "water_shallow"
	case WaterDeep:
		return "water_deep"
	case Vegetation:
		return "vegetation"
	case Debris:
		return "debris"
	case Void:
		return "void"
	default:
		return "unknown"
	}
}

// StateTagKind is the closed set of mutable, decaying tile state tags.
type StateTagKind int

const (
	Wet StateTagKind = iota
	Frozen
	Cracked
	Overgrown
	Scorched
	Rusty
	Mossy
	Bloodied
	Burning
	Flooded
	Darkened
)

func (s StateTagKind) String() string {
	switch s {
	case Wet:
		return "wet"
	case Frozen:
		return "frozen"
	case Cracked:
		return "cracked"
	case Overgrown:
		return "overgrown"
	case Scorched:
		return "scorched"
	case Rusty:
		return "rusty"
	case Mossy:
		return "mossy"
	case Bloodied:
		return "bloodied"
	case Burning:
		return "burning"
	case Flooded:
		return "flooded"
	case Darkened:
		return "darkened"
	default:
		return "unknown"
	}
}

// StateTag is a live state tag instance with its own decay clock.
type StateTag struct {
	Kind             StateTagKind
	RemainingSeconds float64
}

// CategoryTag is the closed set of affordance ids from spec.md §4.2,
// grouped by category in comments (the grouping is documentation only;
// the id itself is what the composer keys on).
type CategoryTag string

const (
	// spatial
	Supports CategoryTag = "supports"
	Blocks   CategoryTag = "blocks"
	Conceals CategoryTag = "conceals"
	Funnels  CategoryTag = "funnels"
	Elevates CategoryTag = "elevates"
	Encloses CategoryTag = "encloses"
	Exposes  CategoryTag = "exposes"

	// movement
	Traversable  CategoryTag = "traversable"
	Slippery     CategoryTag = "slippery"
	Climbable    CategoryTag = "climbable"
	Unstable     CategoryTag = "unstable"
	Impeding     CategoryTag = "impeding"
	ForcedMotion CategoryTag = "forced_motion"

	// sensory
	ObscuresVision CategoryTag = "obscures_vision"
	AmplifiesSound CategoryTag = "amplifies_sound"
	DeadensSound   CategoryTag = "deadens_sound"
	EmitsLight     CategoryTag = "emits_light"
	CastsShadow    CategoryTag = "casts_shadow"
	Distracts      CategoryTag = "distracts"

	// physical_risk
	Injures     CategoryTag = "injures"
	Fatigues    CategoryTag = "fatigues"
	Disorients  CategoryTag = "disorients"
	Bleeds      CategoryTag = "bleeds"
	Burns       CategoryTag = "burns"
	Poisons     CategoryTag = "poisons"

	// social
	Threatens       CategoryTag = "threatens"
	Intimidates     CategoryTag = "intimidates"
	Reassures       CategoryTag = "reassures"
	Provokes        CategoryTag = "provokes"
	InvitesTrust    CategoryTag = "invites_trust"
	SignalsAuthority CategoryTag = "signals_authority"

	// temporal
	Delays        CategoryTag = "delays"
	Accelerates   CategoryTag = "accelerates"
	ForcesWait    CategoryTag = "forces_wait"
	CreatesDeadline CategoryTag = "creates_deadline"
)

// ActionTag is the closed set of verbs an affordance can enable or block.
// It mirrors, but is independent of, intent.Kind — the two vocabularies
// describe the same action space from different sides of the contract
// (what a tile offers vs. what a player asks for).
type ActionTag string

const (
	ActionMove        ActionTag = "move"
	ActionFlee        ActionTag = "flee"
	ActionHide        ActionTag = "hide"
	ActionClimb       ActionTag = "climb"
	ActionExamine     ActionTag = "examine"
	ActionTake        ActionTag = "take"
	ActionUse         ActionTag = "use"
	ActionCommunicate ActionTag = "communicate"
	ActionThreaten    ActionTag = "threaten"
	ActionAttack      ActionTag = "attack"
	ActionDefend      ActionTag = "defend"
	ActionWait        ActionTag = "wait"
	ActionObserve     ActionTag = "observe"
	ActionSurrender   ActionTag = "surrender"
	ActionDuck        ActionTag = "duck"
)

// Affordance is a named, intensity-weighted interaction possibility
// (spec.md §3). Two affordances sharing an id merge by taking the maximum
// intensity — never summed, never replaced.
type Affordance struct {
	ID        CategoryTag
	Intensity float64
	Enables   map[ActionTag]struct{}
	Blocks    map[ActionTag]struct{}
}

// clampUnit clamps a value into [0, 1].
func clampUnit(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// HistoryEventKind is the closed set of tile events that are "significant"
// enough to occupy a slot in a tile's bounded history ring (spec.md §3).
// Anything not in this set (e.g. a pass-through move) is never recorded.
type HistoryEventKind int

const (
	EntityEntered HistoryEventKind = iota
	EntityLeft
	StateTagAdded
	StateTagExpired
	Damaged
	Destroyed
)

// TileEvent is one entry in a tile's bounded history ring.
type TileEvent struct {
	Tick  uint64
	Kind  HistoryEventKind
	Actor ecs.EntityID
}
