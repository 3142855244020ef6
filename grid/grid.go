package grid

import (
	"github.com/bytearena/ecs"
	"github.com/rs/zerolog"

	"github.com/kase1111-hash/ascii-city-core/coords"
)

// Grid is the authoritative spatial store (spec.md §4.1). It exclusively
// owns every tile and the grid-to-entity mirror; entities themselves own
// their own position record (spec.md §3, Ownership).
type Grid struct {
	tiles map[coords.Position]*Tile

	// entityPos/entityLayer mirror tile occupancy for O(1) lookup by id,
	// adapted from the teacher's systems.PositionSystem.spatialGrid.
	entityPos   map[ecs.EntityID]coords.Position
	entityLayer map[ecs.EntityID]Layer

	mutations []Mutation

	log zerolog.Logger
}

// NewGrid creates an empty grid. No tiles exist until Generate is called;
// reads against an empty grid all yield the void sentinel.
func NewGrid(log zerolog.Logger) *Grid {
	return &Grid{
		tiles:       make(map[coords.Position]*Tile),
		entityPos:   make(map[ecs.EntityID]coords.Position),
		entityLayer: make(map[ecs.EntityID]Layer),
		log:         log.With().Str("component", "grid").Logger(),
	}
}

// TileSpec describes one tile to materialize during chunk generation.
type TileSpec struct {
	Position        coords.Position
	TerrainKind     TerrainKind
	BiomeTag        string
	BaseAffordances []Affordance
	Opacity         float64
	SoundAbsorption float64
	SoundEmission   float64
	LightEmission   float64
}

// Generate is the sole path by which tiles come into existence (spec.md
// §3: "a tile is never created implicitly by a read"). Calling Generate
// twice for the same position overwrites that tile.
func (g *Grid) Generate(specs []TileSpec) {
	for _, spec := range specs {
		t := &Tile{
			Position:        spec.Position,
			TerrainKind:     spec.TerrainKind,
			BiomeTag:        spec.BiomeTag,
			BaseAffordances: append([]Affordance(nil), spec.BaseAffordances...),
			Opacity:         spec.Opacity,
			SoundAbsorption: spec.SoundAbsorption,
			SoundEmission:   spec.SoundEmission,
			LightEmission:   spec.LightEmission,
		}
		t.Clamp()
		g.tiles[spec.Position] = t
	}
}

// GetTile returns a read-only view of the tile at pos. Coordinates outside
// the generated envelope yield the void sentinel — never a creation.
// Callers must not mutate the returned Tile directly; all writes go
// through QueueMutation/ApplyMutations.
func (g *Grid) GetTile(pos coords.Position) *Tile {
	if t, ok := g.tiles[pos]; ok {
		return t
	}
	return VoidSentinel(pos)
}

// Exists reports whether pos has been materialized by Generate — the
// bounds check callers use to distinguish a real tile from the void
// sentinel GetTile returns for positions outside the envelope.
func (g *Grid) Exists(pos coords.Position) bool {
	_, ok := g.tiles[pos]
	return ok
}

// planarOffsets are the 8 planar neighbor deltas, ordered N, NE, E, SE, S,
// SW, W, NW so corner-adjacency checks can reference "the two tiles either
// side of a diagonal" by index parity.
var planarOffsets = [8][2]int32{
	{0, -1}, {1, -1}, {1, 0}, {1, 1},
	{0, 1}, {-1, 1}, {-1, 0}, {-1, -1},
}

// Neighbors returns up to 8 planar neighbors in the same z-band, plus up
// to 2 vertical neighbors where a climbable or elevates affordance on this
// tile (or the target tile) permits the elevation change (spec.md §4.1).
func (g *Grid) Neighbors(pos coords.Position) []coords.Position {
	out := make([]coords.Position, 0, 10)
	for _, off := range planarOffsets {
		n := coords.Position{X: pos.X + off[0], Y: pos.Y + off[1], Z: pos.Z}
		if _, ok := g.tiles[n]; ok {
			out = append(out, n)
		}
	}

	here := g.GetTile(pos)
	hereClimbable := tileHasAffordance(here, Climbable) || tileHasAffordance(here, Elevates)
	for _, dz := range []int32{1, -1} {
		v := coords.Position{X: pos.X, Y: pos.Y, Z: pos.Z + dz}
		vt, ok := g.tiles[v]
		if !ok || !vt.Passable() {
			continue
		}
		if hereClimbable || tileHasAffordance(vt, Climbable) || tileHasAffordance(vt, Elevates) {
			out = append(out, v)
		}
	}
	return out
}

func tileHasAffordance(t *Tile, id CategoryTag) bool {
	if t == nil {
		return false
	}
	for _, a := range t.BaseAffordances {
		if a.ID == id && a.Intensity > 0 {
			return true
		}
	}
	return false
}

// GetInRadius returns every generated tile within Chebyshev radius r of
// center. Unless slab is true, results are restricted to center's z-band.
// Positions outside the generated envelope are skipped, never created.
func (g *Grid) GetInRadius(center coords.Position, r int32, slab bool) []*Tile {
	var out []*Tile
	for pos, t := range g.tiles {
		if !slab && pos.Z != center.Z {
			continue
		}
		if center.ChebyshevDistance(pos) <= r {
			out = append(out, t)
		}
	}
	return out
}

// PassabilityView is a read-only projection of the grid's traversal costs,
// intended for an external pathfinder (spec.md §4.1). It exposes nothing
// that could mutate the grid.
type PassabilityView struct {
	g *Grid
}

// Passability returns a PassabilityView over this grid.
func (g *Grid) Passability() PassabilityView {
	return PassabilityView{g: g}
}

// TraversalCost returns the admissible traversal_cost at pos: +Inf for an
// impassable or ungenerated tile, otherwise a finite cost that never
// overestimates the true cost of crossing the tile.
func (v PassabilityView) TraversalCost(pos coords.Position) float64 {
	return v.g.GetTile(pos).TraversalCost()
}

// Passable reports whether pos can be entered at all.
func (v PassabilityView) Passable(pos coords.Position) bool {
	return v.g.GetTile(pos).Passable()
}

// AllTiles returns every generated tile, for callers that need to walk the
// whole envelope (e.g. serialization). Order is unspecified.
func (g *Grid) AllTiles() []*Tile {
	out := make([]*Tile, 0, len(g.tiles))
	for _, t := range g.tiles {
		out = append(out, t)
	}
	return out
}

// EntityPosition returns an entity's current position per the grid mirror,
// and whether the entity is tracked at all.
func (g *Grid) EntityPosition(id ecs.EntityID) (coords.Position, bool) {
	pos, ok := g.entityPos[id]
	return pos, ok
}
