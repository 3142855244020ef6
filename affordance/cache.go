package affordance

import "github.com/kase1111-hash/ascii-city-core/grid"

// entryCache is a per-tile memoization slot, adapted from the round-based
// DirtyCache pattern: instead of a round counter, validity is keyed on the
// context hash composed last time, plus an explicit dirty flag any mutation
// can set regardless of whether the context changed (spec.md §4.2:
// "invalidation is driven by mutation events and by a per-tick monotonic
// counter for weather/temporal changes").
type entryCache struct {
	lastContextHash string
	isDirty         bool
	isInitialized   bool
	result          map[grid.CategoryTag]ComposedAffordance
}

func newEntryCache() *entryCache {
	return &entryCache{isDirty: true}
}

// valid reports whether the cached result can be reused for contextHash.
func (e *entryCache) valid(contextHash string) bool {
	return e.isInitialized && !e.isDirty && e.lastContextHash == contextHash
}

func (e *entryCache) store(contextHash string, result map[grid.CategoryTag]ComposedAffordance) {
	e.lastContextHash = contextHash
	e.isDirty = false
	e.isInitialized = true
	e.result = result
}

func (e *entryCache) markDirty() {
	e.isDirty = true
}
