package grid

import (
	"math"

	"github.com/bytearena/ecs"

	"github.com/kase1111-hash/ascii-city-core/coords"
)

// Layer is the stable occupancy key a tile's entities are ordered by
// (spec.md §3: "entities ordered by a stable layer key: ground, object,
// ceiling").
type Layer int

const (
	LayerGround Layer = iota
	LayerObject
	LayerCeiling
	numLayers
)

// maxEntitiesPerLayer bounds how many entities may occupy one (tile, layer)
// cell (spec.md §3's "size budget" invariant).
const maxEntitiesPerLayer = 4

// historyCapacity bounds the significant-event ring per tile.
const historyCapacity = 16

// Tile is one cell of the grid, with mutable state and occupancy.
// Only Grid mutates a Tile, and only through the mutation queue
// (spec.md §4.1, §5).
type Tile struct {
	Position coords.Position

	TerrainKind TerrainKind
	BiomeTag    string

	BaseAffordances []Affordance

	Opacity         float64
	SoundAbsorption float64
	SoundEmission   float64
	LightEmission   float64

	StateTags []StateTag

	entities [numLayers][]ecs.EntityID

	history []TileEvent

	// isVoid marks the read-only sentinel returned for coordinates outside
	// the generated envelope. A void tile is never mutated.
	isVoid bool
}

// VoidSentinel is the read-only tile returned for any position outside the
// generated envelope (spec.md §3, "a tile is never created implicitly by a
// read"). It has zero affordances and infinite traversal cost.
func VoidSentinel(pos coords.Position) *Tile {
	return &Tile{
		Position:    pos,
		TerrainKind: Void,
		BiomeTag:    "",
		Opacity:     0,
		isVoid:      true,
	}
}

// IsVoid reports whether this tile is the out-of-envelope sentinel.
func (t *Tile) IsVoid() bool {
	return t.isVoid
}

// Clamp enforces the §3 invariant that opacity, emissions, absorption, and
// every affordance intensity are clamped to [0,1]. Generate calls this on
// every tile it materializes.
func (t *Tile) Clamp() {
	t.Opacity = clampUnit(t.Opacity)
	t.SoundAbsorption = clampUnit(t.SoundAbsorption)
	t.SoundEmission = clampUnit(t.SoundEmission)
	t.LightEmission = clampUnit(t.LightEmission)
	for i := range t.BaseAffordances {
		t.BaseAffordances[i].Intensity = clampUnit(t.BaseAffordances[i].Intensity)
	}
}

// HasStateTag reports whether a tile currently carries the given state tag.
func (t *Tile) HasStateTag(kind StateTagKind) bool {
	for _, s := range t.StateTags {
		if s.Kind == kind {
			return true
		}
	}
	return false
}

// impedingStateTags is the subset of state tags that worsen traversal cost.
// traversal_cost is required to be monotonic non-decreasing in the count of
// these tags (spec.md §3 invariant).
var impedingStateTags = map[StateTagKind]float64{
	Wet:       0.25,
	Frozen:    0.5,
	Cracked:   0.5,
	Overgrown: 0.75,
	Scorched:  0.25,
	Flooded:   1.0,
	Burning:   math.Inf(1), // on fire: impassable until it burns out
}

// TraversalCost derives the tile's traversal_cost from terrain plus state
// tag modifiers. Returns +Inf for an impassable tile, matching the spec's
// "∞ means impassable" convention. The result is admissible for an external
// A*: it never overestimates any achievable path cost, because every
// modifier only ever adds cost, never subtracts it below the terrain floor.
func (t *Tile) TraversalCost() float64 {
	if t.isVoid {
		return math.Inf(1)
	}

	base := terrainBaseCost(t.TerrainKind)
	if math.IsInf(base, 1) {
		return base
	}

	total := base
	for _, s := range t.StateTags {
		if delta, impeding := impedingStateTags[s.Kind]; impeding {
			if math.IsInf(delta, 1) {
				return math.Inf(1)
			}
			total += delta
		}
	}
	return total
}

func terrainBaseCost(k TerrainKind) float64 {
	switch k {
	case Rock, Metal, Soil, Debris:
		return 1.0
	case Wood:
		return 1.0
	case Glass:
		return 1.2
	case Vegetation:
		return 1.5
	case WaterShallow:
		return 2.0
	case WaterDeep:
		return math.Inf(1)
	case Void:
		return math.Inf(1)
	default:
		return 1.0
	}
}

// Passable reports whether the tile can be entered at all.
func (t *Tile) Passable() bool {
	return !math.IsInf(t.TraversalCost(), 1)
}

// EntitiesAt returns a copy of the entity ids occupying the given layer.
func (t *Tile) EntitiesAt(layer Layer) []ecs.EntityID {
	ids := t.entities[layer]
	out := make([]ecs.EntityID, len(ids))
	copy(out, ids)
	return out
}

// AllEntities returns every entity id on the tile, ground layer first.
func (t *Tile) AllEntities() []ecs.EntityID {
	var out []ecs.EntityID
	for l := Layer(0); l < numLayers; l++ {
		out = append(out, t.entities[l]...)
	}
	return out
}

// canPlace reports whether layer has room for one more entity.
func (t *Tile) canPlace(layer Layer) bool {
	return len(t.entities[layer]) < maxEntitiesPerLayer
}

// place adds id to layer without any capacity or passability check; callers
// must gate via canPlace/Passable first. Unexported: only Grid calls this,
// and only from inside the mutation phase.
func (t *Tile) place(layer Layer, id ecs.EntityID) {
	t.entities[layer] = append(t.entities[layer], id)
}

// remove deletes id from layer, if present.
func (t *Tile) remove(layer Layer, id ecs.EntityID) bool {
	ids := t.entities[layer]
	for i, existing := range ids {
		if existing == id {
			t.entities[layer] = append(ids[:i], ids[i+1:]...)
			return true
		}
	}
	return false
}

// recordEvent appends a significant event to the tile's bounded history
// ring, dropping the oldest entry once historyCapacity is reached.
func (t *Tile) recordEvent(ev TileEvent) {
	t.history = append(t.history, ev)
	if len(t.history) > historyCapacity {
		t.history = t.history[len(t.history)-historyCapacity:]
	}
}

// History returns a copy of the tile's significant-event ring, oldest first.
func (t *Tile) History() []TileEvent {
	out := make([]TileEvent, len(t.history))
	copy(out, t.history)
	return out
}

// TickDecay advances every state tag's clock by dt seconds, dropping any
// tag whose clock reaches zero. Returns the kinds that expired this call,
// so the caller can invalidate the affordance cache and emit history events.
func (t *Tile) TickDecay(dt float64) []StateTagKind {
	var expired []StateTagKind
	kept := t.StateTags[:0]
	for _, s := range t.StateTags {
		s.RemainingSeconds -= dt
		if s.RemainingSeconds <= 0 {
			expired = append(expired, s.Kind)
			continue
		}
		kept = append(kept, s)
	}
	t.StateTags = kept
	return expired
}

// AddStateTag adds or refreshes a state tag's decay clock. If the tag is
// already present, the longer of the two remaining durations wins.
func (t *Tile) AddStateTag(kind StateTagKind, durationSeconds float64) {
	for i, s := range t.StateTags {
		if s.Kind == kind {
			if durationSeconds > s.RemainingSeconds {
				t.StateTags[i].RemainingSeconds = durationSeconds
			}
			return
		}
	}
	t.StateTags = append(t.StateTags, StateTag{Kind: kind, RemainingSeconds: durationSeconds})
}
