package affordance

import (
	"testing"

	"github.com/rs/zerolog"

	"github.com/kase1111-hash/ascii-city-core/config"
	"github.com/kase1111-hash/ascii-city-core/coords"
	"github.com/kase1111-hash/ascii-city-core/grid"
)

func newTestGrid(t *testing.T) *grid.Grid {
	t.Helper()
	g := grid.NewGrid(zerolog.Nop())
	g.Generate([]grid.TileSpec{
		{
			Position:    coords.Position{X: 0, Y: 0, Z: 0},
			TerrainKind: grid.Rock,
			BiomeTag:    "street",
			BaseAffordances: []grid.Affordance{
				{ID: grid.Traversable, Intensity: 1.0},
			},
		},
		{
			Position:    coords.Position{X: 1, Y: 0, Z: 0},
			TerrainKind: grid.Rock,
			BiomeTag:    "street",
			BaseAffordances: []grid.Affordance{
				{ID: grid.Conceals, Intensity: 0.8},
			},
		},
	})
	return g
}

func TestComposeEmptyContextIsBaseMergedOntoBiome(t *testing.T) {
	g := newTestGrid(t)
	biome := BiomeDefaults{"street": {{ID: grid.Traversable, Intensity: 0.5}}}
	c := NewComposer(g, WorldRules{}, biome, nil, nil, nil, config.Default().Spread, zerolog.Nop())

	result := c.Compose(coords.Position{X: 0, Y: 0, Z: 0}, Context{})
	got, ok := result[grid.Traversable]
	if !ok {
		t.Fatalf("expected traversable to be present")
	}
	// base_affordances (1.0) max-merged over biome default (0.5) => 1.0.
	if got.Intensity != 1.0 {
		t.Fatalf("expected max-merge intensity 1.0, got %v", got.Intensity)
	}
}

func TestComposeClampsIntensityToUnitInterval(t *testing.T) {
	g := grid.NewGrid(zerolog.Nop())
	g.Generate([]grid.TileSpec{
		{
			Position:    coords.Position{X: 0, Y: 0, Z: 0},
			TerrainKind: grid.Rock,
			BaseAffordances: []grid.Affordance{
				{ID: grid.Injures, Intensity: 0.9},
			},
		},
	})
	rules := StateTagRules{
		grid.Scorched: {Adjust: map[grid.CategoryTag]float64{grid.Injures: 0.5}},
	}
	g.GetTile(coords.Position{X: 0, Y: 0, Z: 0})
	// Reach into the tile directly via a mutation so the state tag actually
	// exists on the generated tile, not a view copy.
	tileMut := grid.Mutation{Kind: grid.MutAddStateTag, To: coords.Position{X: 0, Y: 0, Z: 0}, StateTag: grid.Scorched, Duration: 10}
	g.QueueMutation(tileMut)
	g.ApplyMutations(0)

	c := NewComposer(g, WorldRules{}, nil, nil, nil, rules, config.Default().Spread, zerolog.Nop())
	result := c.Compose(coords.Position{X: 0, Y: 0, Z: 0}, Context{})
	if result[grid.Injures].Intensity > 1.0 {
		t.Fatalf("intensity must be clamped to 1.0, got %v", result[grid.Injures].Intensity)
	}
}

func TestComposeCachesUntilInvalidated(t *testing.T) {
	g := newTestGrid(t)
	c := NewComposer(g, WorldRules{}, nil, nil, nil, nil, config.Default().Spread, zerolog.Nop())
	pos := coords.Position{X: 0, Y: 0, Z: 0}

	c.Compose(pos, Context{})
	entry := c.cache[pos]
	if !entry.valid(Context{}.hash()) {
		t.Fatalf("expected cache entry to be valid after first compose")
	}

	c.Compose(pos, Context{})
	if !entry.valid(Context{}.hash()) {
		t.Fatalf("expected cache entry to still be valid before invalidation")
	}

	c.Invalidate([]coords.Position{pos})
	if entry.valid(Context{}.hash()) {
		t.Fatalf("expected cache entry to be dirty after Invalidate")
	}
}

func TestAdjacencySpreadIsSingleStepMaxMerge(t *testing.T) {
	g := newTestGrid(t)
	spread := config.SpreadFactors{Conceals: 0.5}
	c := NewComposer(g, WorldRules{}, nil, nil, nil, nil, spread, zerolog.Nop())

	result := c.Compose(coords.Position{X: 0, Y: 0, Z: 0}, Context{})
	got, ok := result[grid.Conceals]
	if !ok {
		t.Fatalf("expected conceals to spread from the neighbor tile")
	}
	want := 0.8 * 0.5
	if got.Intensity != want {
		t.Fatalf("expected spread intensity %v, got %v", want, got.Intensity)
	}
}

func TestStateTagDeltaNeverCreatesAbsentKey(t *testing.T) {
	g := grid.NewGrid(zerolog.Nop())
	g.Generate([]grid.TileSpec{{Position: coords.Position{X: 0, Y: 0, Z: 0}, TerrainKind: grid.Rock}})
	rules := StateTagRules{
		grid.Scorched: {Adjust: map[grid.CategoryTag]float64{grid.Injures: 0.5}},
	}
	g.QueueMutation(grid.Mutation{Kind: grid.MutAddStateTag, To: coords.Position{X: 0, Y: 0, Z: 0}, StateTag: grid.Scorched, Duration: 10})
	g.ApplyMutations(0)

	c := NewComposer(g, WorldRules{}, nil, nil, nil, rules, config.Default().Spread, zerolog.Nop())
	result := c.Compose(coords.Position{X: 0, Y: 0, Z: 0}, Context{})
	if _, ok := result[grid.Injures]; ok {
		t.Fatalf("a delta-only layer must never create a key that no prior layer produced")
	}
}
