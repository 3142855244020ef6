// Package affordance composes the layered affordance map for a tile
// (spec.md §4.2): world rules, biome defaults, tile base, tile state tags,
// entities on tile, weather overlay, and temporal context, folded bottom to
// top onto one accumulator.
package affordance

import (
	"github.com/kase1111-hash/ascii-city-core/grid"
)

// Context carries everything outside the tile itself that composition
// needs: the ambient tags and any per-tile entity contributions the caller
// has already gathered (the composer has no entity store of its own).
type Context struct {
	WeatherTag    string
	TemporalTags  []string
	EntityLayers  []EntityContribution
}

// EntityContribution is one entity's published affordance offer, folded in
// at layer 5 (spec.md §4.2: "observers and hazards publish threatens,
// blocks, etc.").
type EntityContribution struct {
	Affordances []grid.Affordance
}

// hash returns a stable key for the memoization cache. It deliberately
// does not hash EntityLayers by content — entity contributions change too
// often for that to be worth memoizing across; callers mark a tile dirty
// explicitly instead (see Composer.Invalidate).
func (c Context) hash() string {
	s := c.WeatherTag + "|"
	for _, t := range c.TemporalTags {
		s += t + ","
	}
	return s
}
