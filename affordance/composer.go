package affordance

import (
	"github.com/rs/zerolog"

	"github.com/kase1111-hash/ascii-city-core/config"
	"github.com/kase1111-hash/ascii-city-core/coords"
	"github.com/kase1111-hash/ascii-city-core/grid"
)

// ComposedAffordance is one entry of a composer's output: the clamped final
// intensity plus the union of enabled/blocked actions across every layer
// that contributed to this key.
type ComposedAffordance struct {
	Intensity float64
	Enables   map[grid.ActionTag]struct{}
	Blocks    map[grid.ActionTag]struct{}
}

// spreadable is the closed subset of categories that propagate a fraction
// of their intensity to planar neighbors (spec.md §4.2).
var spreadable = map[grid.CategoryTag]struct{}{
	grid.Conceals:     {},
	grid.DeadensSound: {},
	grid.EmitsLight:   {},
	grid.Threatens:    {},
	grid.Burns:        {},
	grid.Poisons:      {},
}

// Composer produces affordance maps for tiles by folding the seven ordered
// layers, memoizing per tile (spec.md §4.2). It holds no entity store; the
// caller supplies entity contributions per call via Context.
type Composer struct {
	g      *grid.Grid
	world  WorldRules
	biome  BiomeDefaults
	weather WeatherOverlay
	temporal TemporalOverlay
	stateRules StateTagRules
	spread config.SpreadFactors

	cache map[coords.Position]*entryCache
	log   zerolog.Logger
}

// NewComposer builds a composer over g. Any of the rule tables may be nil
// (treated as empty); DefaultStateTagRules is a reasonable starting point
// for stateRules.
func NewComposer(g *grid.Grid, world WorldRules, biome BiomeDefaults, weather WeatherOverlay, temporal TemporalOverlay, stateRules StateTagRules, spread config.SpreadFactors, log zerolog.Logger) *Composer {
	return &Composer{
		g:          g,
		world:      world,
		biome:      biome,
		weather:    weather,
		temporal:   temporal,
		stateRules: stateRules,
		spread:     spread,
		cache:      make(map[coords.Position]*entryCache),
		log:        log.With().Str("component", "affordance").Logger(),
	}
}

// Invalidate marks the given tile positions dirty, forcing recomposition on
// their next Compose call. The tick driver calls this with the positions
// ApplyMutations/TickDecay reported touched (spec.md §4.2 caching note).
func (c *Composer) Invalidate(positions []coords.Position) {
	for _, pos := range positions {
		if e, ok := c.cache[pos]; ok {
			e.markDirty()
		}
	}
}

// InvalidateAll marks every cached tile dirty; called once per tick when
// weather or temporal tags change (spec.md §4.2: "a per-tick monotonic
// counter for weather/temporal changes").
func (c *Composer) InvalidateAll() {
	for _, e := range c.cache {
		e.markDirty()
	}
}

// Compose returns the memoized affordance map for the tile at pos, folding
// all seven layers plus a single step of adjacency spread from its planar
// neighbors.
func (c *Composer) Compose(pos coords.Position, ctx Context) map[grid.CategoryTag]ComposedAffordance {
	hash := ctx.hash()
	entry, ok := c.cache[pos]
	if !ok {
		entry = newEntryCache()
		c.cache[pos] = entry
	}
	if entry.valid(hash) {
		return entry.result
	}

	result := c.composeOwn(pos, ctx)
	c.applySpread(pos, result)
	entry.store(hash, result)
	return result
}

func (c *Composer) composeOwn(pos coords.Position, ctx Context) map[grid.CategoryTag]ComposedAffordance {
	acc := make(map[grid.CategoryTag]ComposedAffordance)

	// Layer 1: world rules.
	addAll(acc, c.world.Base)

	tile := c.g.GetTile(pos)

	// Layer 2: biome defaults.
	addAll(acc, c.biome[tile.BiomeTag])

	// Layer 3: tile base.
	addAll(acc, tile.BaseAffordances)

	// Layer 4: tile state tags.
	for _, tag := range tile.StateTags {
		delta, ok := c.stateRules[tag.Kind]
		if !ok {
			continue
		}
		addAll(acc, delta.Add)
		for key, adj := range delta.Adjust {
			adjustExisting(acc, key, adj)
		}
	}

	// Layer 5: entities on tile.
	for _, ent := range ctx.EntityLayers {
		addAll(acc, ent.Affordances)
	}

	// Layer 6: weather overlay.
	addAll(acc, c.weather[ctx.WeatherTag])

	// Layer 7: temporal context.
	for _, tag := range ctx.TemporalTags {
		addAll(acc, c.temporal[tag])
	}

	clampAll(acc)
	return acc
}

// applySpread folds a fraction of each planar neighbor's *own* composed
// intensity (not including spread contributions from that neighbor's
// neighbors — spread is a single step, never recursive) into acc for the
// subset of categories in spreadable.
func (c *Composer) applySpread(pos coords.Position, acc map[grid.CategoryTag]ComposedAffordance) {
	factors := map[grid.CategoryTag]float64{
		grid.Conceals:     c.spread.Conceals,
		grid.DeadensSound: c.spread.DeadensSound,
		grid.EmitsLight:   c.spread.EmitsLight,
		grid.Threatens:    c.spread.Threatens,
		grid.Burns:        c.spread.Burns,
		grid.Poisons:      c.spread.Poisons,
	}

	for _, n := range c.g.Neighbors(pos) {
		if n.Z != pos.Z {
			continue
		}
		neighborOwn := c.ownOnly(n)
		for category := range spreadable {
			factor := factors[category]
			if factor <= 0 {
				continue
			}
			na, ok := neighborOwn[category]
			if !ok {
				continue
			}
			spreadIntensity := na.Intensity * factor
			mergeMax(acc, grid.Affordance{ID: category, Intensity: spreadIntensity})
		}
	}
	clampAll(acc)
}

// ownOnly recomposes a neighbor's own layers (1-7, no spread) for use as a
// spread source, bypassing the cache: spread must read the neighbor's
// un-spread intensity, or two adjacent tiles would feed each other forever.
// It composes with an empty Context, so layers 5-7 see no entity
// contributions, weather tag or temporal tags from the caller's context.
func (c *Composer) ownOnly(pos coords.Position) map[grid.CategoryTag]ComposedAffordance {
	return c.composeOwn(pos, Context{})
}

func addAll(acc map[grid.CategoryTag]ComposedAffordance, affs []grid.Affordance) {
	for _, a := range affs {
		mergeMax(acc, a)
	}
}

func mergeMax(acc map[grid.CategoryTag]ComposedAffordance, a grid.Affordance) {
	existing, ok := acc[a.ID]
	if !ok {
		acc[a.ID] = ComposedAffordance{
			Intensity: a.Intensity,
			Enables:   copyActionSet(a.Enables),
			Blocks:    copyActionSet(a.Blocks),
		}
		return
	}
	if a.Intensity > existing.Intensity {
		existing.Intensity = a.Intensity
	}
	existing.Enables = mergeActionSet(existing.Enables, a.Enables)
	existing.Blocks = mergeActionSet(existing.Blocks, a.Blocks)
	acc[a.ID] = existing
}

// adjustExisting applies a signed delta to an existing key only; per
// spec.md §4.2, "no layer removes a key" and a delta layer never creates
// one either — if the key is absent, the adjustment has nothing to modify.
func adjustExisting(acc map[grid.CategoryTag]ComposedAffordance, key grid.CategoryTag, delta float64) {
	existing, ok := acc[key]
	if !ok {
		return
	}
	existing.Intensity += delta
	acc[key] = existing
}

func clampAll(acc map[grid.CategoryTag]ComposedAffordance) {
	for k, v := range acc {
		v.Intensity = clampUnit(v.Intensity)
		acc[k] = v
	}
}

func clampUnit(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func copyActionSet(src map[grid.ActionTag]struct{}) map[grid.ActionTag]struct{} {
	if len(src) == 0 {
		return nil
	}
	out := make(map[grid.ActionTag]struct{}, len(src))
	for k := range src {
		out[k] = struct{}{}
	}
	return out
}

func mergeActionSet(dst map[grid.ActionTag]struct{}, src map[grid.ActionTag]struct{}) map[grid.ActionTag]struct{} {
	if len(src) == 0 {
		return dst
	}
	if dst == nil {
		dst = make(map[grid.ActionTag]struct{}, len(src))
	}
	for k := range src {
		dst[k] = struct{}{}
	}
	return dst
}
