package vision

import (
	"math"
	"testing"

	"github.com/rs/zerolog"

	"github.com/kase1111-hash/ascii-city-core/affordance"
	"github.com/kase1111-hash/ascii-city-core/config"
	"github.com/kase1111-hash/ascii-city-core/coords"
	"github.com/kase1111-hash/ascii-city-core/grid"
)

func waterfallGrid(t *testing.T) *grid.Grid {
	t.Helper()
	g := grid.NewGrid(zerolog.Nop())
	var specs []grid.TileSpec
	for x := int32(0); x < 7; x++ {
		for y := int32(0); y < 7; y++ {
			spec := grid.TileSpec{
				Position:    coords.Position{X: x, Y: y, Z: 0},
				TerrainKind: grid.Vegetation,
				BiomeTag:    "grass",
			}
			if x == 3 && y >= 2 && y <= 4 {
				spec.TerrainKind = grid.WaterShallow
				spec.Opacity = 0.6
				spec.SoundAbsorption = 0.3
				spec.SoundEmission = 0.7
				spec.BaseAffordances = []grid.Affordance{
					{ID: grid.Conceals, Intensity: 0.9},
					{ID: grid.DeadensSound, Intensity: 0.7},
				}
			}
			specs = append(specs, spec)
		}
	}
	g.Generate(specs)
	return g
}

func TestScenarioABehindWaterfallIsNotVisible(t *testing.T) {
	g := waterfallGrid(t)
	cfg := config.Default().Vision
	composer := affordance.NewComposer(g, affordance.WorldRules{}, nil, nil, nil, nil, config.Default().Spread, zerolog.Nop())
	svc := NewService(g, composer, cfg)

	observer := Observer{
		Position: coords.Position{X: 3, Y: 0, Z: 0},
		Facing:   math.Pi / 2, // +y
		FOV:      math.Pi / 2,
		Range:    10,
	}
	result := svc.Compute(observer, affordance.Context{}, Modifiers{})

	target := coords.Position{X: 3, Y: 3, Z: 0}
	for _, v := range result.Visible {
		if v == target {
			t.Fatalf("expected (3,3) to not be fully visible behind the waterfall")
		}
	}
	if c, ok := result.Partial[target]; ok && c >= 0.3 {
		t.Fatalf("expected partial clarity at (3,3) to stay below 0.3, got %v", c)
	}
}

func TestCornerRuleYieldsLowClarityAtDiagonalBehindTwoWalls(t *testing.T) {
	g := grid.NewGrid(zerolog.Nop())
	g.Generate([]grid.TileSpec{
		{Position: coords.Position{X: 0, Y: 0, Z: 0}, TerrainKind: grid.Rock, Opacity: 0},
		{Position: coords.Position{X: 1, Y: 0, Z: 0}, TerrainKind: grid.Rock, Opacity: 1},
		{Position: coords.Position{X: 0, Y: 1, Z: 0}, TerrainKind: grid.Rock, Opacity: 1},
		{Position: coords.Position{X: 1, Y: 1, Z: 0}, TerrainKind: grid.Rock, Opacity: 0},
	})
	cfg := config.Default().Vision
	svc := NewService(g, nil, cfg)

	observer := Observer{
		Position: coords.Position{X: 0, Y: 0, Z: 0},
		Facing:   math.Pi / 4,
		FOV:      math.Pi,
		Range:    5,
	}
	result := svc.Compute(observer, affordance.Context{}, Modifiers{})
	target := coords.Position{X: 1, Y: 1, Z: 0}
	if _, ok := result.Partial[target]; ok {
		t.Fatalf("expected target clarity to fall below the partial threshold, not register as partial")
	}
	for _, v := range result.Visible {
		if v == target {
			t.Fatalf("corner rule should prevent (1,1) from being visible through the shared corner")
		}
	}
}

func TestVisionMonotonicityAcrossSharedPrefix(t *testing.T) {
	g := grid.NewGrid(zerolog.Nop())
	var specs []grid.TileSpec
	for x := int32(0); x < 5; x++ {
		specs = append(specs, grid.TileSpec{Position: coords.Position{X: x, Y: 0, Z: 0}, TerrainKind: grid.Rock})
	}
	g.Generate(specs)
	cfg := config.Default().Vision
	svc := NewService(g, nil, cfg)

	observer := Observer{Position: coords.Position{X: 0, Y: 0, Z: 0}, Facing: 0, FOV: math.Pi / 3, Range: 5}
	result := svc.Compute(observer, affordance.Context{}, Modifiers{})

	near := coords.Position{X: 1, Y: 0, Z: 0}
	found := false
	for _, v := range result.Visible {
		if v == near {
			found = true
		}
	}
	if !found {
		if _, ok := result.Partial[near]; !ok {
			t.Fatalf("expected a near unobstructed tile to register at least as partial")
		}
	}
}
