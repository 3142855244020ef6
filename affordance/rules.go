package affordance

import "github.com/kase1111-hash/ascii-city-core/grid"

// WorldRules is layer 1: affordances that hold everywhere regardless of
// biome or tile (spec.md §4.2). Empty by default; callers register
// world-wide contributions (e.g., "every tile is at minimum traversable
// unless its terrain says otherwise") by constructing their own ruleset
// and passing it to NewComposer.
type WorldRules struct {
	Base []grid.Affordance
}

// BiomeDefaults is layer 2: affordances keyed by biome_tag.
type BiomeDefaults map[string][]grid.Affordance

// WeatherOverlay is layer 6: affordances keyed by weather_tag.
type WeatherOverlay map[string][]grid.Affordance

// TemporalOverlay is layer 7: affordances keyed by a temporal tag (e.g.
// "night", "alert").
type TemporalOverlay map[string][]grid.Affordance

// StateTagDelta is one declarative entry in a state tag's delta table
// (spec.md §4.2 layer 4): "add affordances and add/subtract intensities on
// named keys".
type StateTagDelta struct {
	Add    []grid.Affordance
	Adjust map[grid.CategoryTag]float64
}

// StateTagRules maps a state tag to its delta table.
type StateTagRules map[grid.StateTagKind]StateTagDelta

// DefaultStateTagRules gives every StateTagKind a plausible delta table so
// layer 4 has content even before a host customizes it. Add entries are
// max-merged like any other layer; Adjust entries are signed deltas applied
// only to keys already present. The composer clamps the accumulator afterward.
func DefaultStateTagRules() StateTagRules {
	return StateTagRules{
		grid.Wet: {
			Add: []grid.Affordance{{ID: grid.Slippery, Intensity: 0.4}},
		},
		grid.Frozen: {
			Add: []grid.Affordance{{ID: grid.Slippery, Intensity: 0.7}},
		},
		grid.Cracked: {
			Add: []grid.Affordance{{ID: grid.Unstable, Intensity: 0.5}},
		},
		grid.Overgrown: {
			Add: []grid.Affordance{
				{ID: grid.Conceals, Intensity: 0.4},
				{ID: grid.Impeding, Intensity: 0.3},
			},
		},
		grid.Scorched: {
			Adjust: map[grid.CategoryTag]float64{grid.Injures: 0.1},
		},
		grid.Rusty: {
			Adjust: map[grid.CategoryTag]float64{grid.Unstable: 0.1},
		},
		grid.Mossy: {
			Add: []grid.Affordance{{ID: grid.Slippery, Intensity: 0.2}},
		},
		grid.Bloodied: {
			Add: []grid.Affordance{{ID: grid.Distracts, Intensity: 0.2}},
		},
		grid.Burning: {
			Add: []grid.Affordance{
				{ID: grid.Burns, Intensity: 0.9},
				{ID: grid.EmitsLight, Intensity: 0.6},
			},
		},
		grid.Flooded: {
			Add: []grid.Affordance{{ID: grid.Impeding, Intensity: 0.6}},
		},
		grid.Darkened: {
			Adjust: map[grid.CategoryTag]float64{grid.ObscuresVision: 0.3},
		},
	}
}
