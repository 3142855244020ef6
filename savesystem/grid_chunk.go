package savesystem

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/bytearena/ecs"

	"github.com/kase1111-hash/ascii-city-core/coords"
	"github.com/kase1111-hash/ascii-city-core/grid"
)

// GridChunk saves/loads the terrain grid: per-tile terrain, state tags and
// their decay clocks, bounded history ring, and entity placements
// (spec.md §6).
type GridChunk struct {
	G *grid.Grid
}

func (c *GridChunk) ChunkID() string   { return "grid" }
func (c *GridChunk) ChunkVersion() int { return 1 }

type savedPosition struct {
	X, Y, Z int32
}

type savedAffordance struct {
	ID        string
	Intensity float64
}

type savedStateTag struct {
	Kind             int
	RemainingSeconds float64
}

type savedTileEvent struct {
	Tick  uint64
	Kind  int
	Actor ecs.EntityID
}

type savedTile struct {
	Position        savedPosition
	Terrain         int
	Biome           string
	BaseAffordances []savedAffordance
	Opacity         float64
	SoundAbsorption float64
	SoundEmission   float64
	LightEmission   float64
	StateTags       []savedStateTag
	History         []savedTileEvent
	Ground          []ecs.EntityID
	Object          []ecs.EntityID
	Ceiling         []ecs.EntityID
}

type savedGridChunk struct {
	Tiles []savedTile
}

func (c *GridChunk) Save() (json.RawMessage, error) {
	var out savedGridChunk
	// AllTiles has no defined order; sort by position so the payload is canonical.
	tiles := c.G.AllTiles()
	sort.Slice(tiles, func(i, j int) bool {
		a, b := tiles[i].Position, tiles[j].Position
		if a.Z != b.Z {
			return a.Z < b.Z
		}
		if a.Y != b.Y {
			return a.Y < b.Y
		}
		return a.X < b.X
	})
	for _, t := range tiles {
		st := savedTile{
			Position:        savedPosition{t.Position.X, t.Position.Y, t.Position.Z},
			Terrain:         int(t.TerrainKind),
			Biome:           t.BiomeTag,
			Opacity:         quantize(t.Opacity),
			SoundAbsorption: quantize(t.SoundAbsorption),
			SoundEmission:   quantize(t.SoundEmission),
			LightEmission:   quantize(t.LightEmission),
			Ground:          t.EntitiesAt(grid.LayerGround),
			Object:          t.EntitiesAt(grid.LayerObject),
			Ceiling:         t.EntitiesAt(grid.LayerCeiling),
		}
		for _, a := range t.BaseAffordances {
			st.BaseAffordances = append(st.BaseAffordances, savedAffordance{ID: string(a.ID), Intensity: quantize(a.Intensity)})
		}
		for _, s := range t.StateTags {
			st.StateTags = append(st.StateTags, savedStateTag{Kind: int(s.Kind), RemainingSeconds: quantize(s.RemainingSeconds)})
		}
		for _, ev := range t.History() {
			st.History = append(st.History, savedTileEvent{Tick: ev.Tick, Kind: int(ev.Kind), Actor: ev.Actor})
		}
		out.Tiles = append(out.Tiles, st)
	}
	return json.Marshal(out)
}

func (c *GridChunk) Load(data json.RawMessage) error {
	var in savedGridChunk
	if err := json.Unmarshal(data, &in); err != nil {
		return fmt.Errorf("%w: malformed grid chunk: %v", ErrStateCorruption, err)
	}

	specs := make([]grid.TileSpec, 0, len(in.Tiles))
	for _, st := range in.Tiles {
		if st.Opacity < 0 || st.Opacity > 1 {
			return fmt.Errorf("%w: tile opacity %v out of range", ErrStateCorruption, st.Opacity)
		}
		spec := grid.TileSpec{
			Position:        coords.Position{X: st.Position.X, Y: st.Position.Y, Z: st.Position.Z},
			TerrainKind:     grid.TerrainKind(st.Terrain),
			BiomeTag:        st.Biome,
			Opacity:         st.Opacity,
			SoundAbsorption: st.SoundAbsorption,
			SoundEmission:   st.SoundEmission,
			LightEmission:   st.LightEmission,
		}
		for _, a := range st.BaseAffordances {
			spec.BaseAffordances = append(spec.BaseAffordances, grid.Affordance{ID: grid.CategoryTag(a.ID), Intensity: a.Intensity})
		}
		specs = append(specs, spec)
	}
	c.G.Generate(specs)

	for _, st := range in.Tiles {
		pos := coords.Position{X: st.Position.X, Y: st.Position.Y, Z: st.Position.Z}
		for _, s := range st.StateTags {
			if s.RemainingSeconds < 0 {
				return fmt.Errorf("%w: negative state tag clock", ErrStateCorruption)
			}
			c.G.QueueMutation(grid.Mutation{
				Kind:     grid.MutAddStateTag,
				To:       pos,
				StateTag: grid.StateTagKind(s.Kind),
				Duration: s.RemainingSeconds,
			})
		}
		for _, id := range st.Ground {
			c.G.QueueMutation(grid.Mutation{Kind: grid.MutPlaceEntity, EntityID: id, To: pos, Layer: grid.LayerGround})
		}
		for _, id := range st.Object {
			c.G.QueueMutation(grid.Mutation{Kind: grid.MutPlaceEntity, EntityID: id, To: pos, Layer: grid.LayerObject})
		}
		for _, id := range st.Ceiling {
			c.G.QueueMutation(grid.Mutation{Kind: grid.MutPlaceEntity, EntityID: id, To: pos, Layer: grid.LayerCeiling})
		}
	}
	c.G.ApplyMutations(0)
	return nil
}
