package savesystem

import (
	"fmt"

	"github.com/bytearena/ecs"
)

// EntityIDMap tracks old (saved) -> new (loaded) entity ID mappings. A host
// that recreates entities during load registers the mapping from each saved
// ID to the new one, then uses Remap/RemapStrict to translate cross-entity
// references (grid occupancy, threat->observer links). This package's own
// chunks do not create entities and do not use it.
type EntityIDMap struct {
	oldToNew map[ecs.EntityID]ecs.EntityID
}

// NewEntityIDMap creates an empty ID mapping.
func NewEntityIDMap() *EntityIDMap {
	return &EntityIDMap{oldToNew: make(map[ecs.EntityID]ecs.EntityID)}
}

// Register records an old->new entity ID mapping.
func (m *EntityIDMap) Register(oldID, newID ecs.EntityID) {
	m.oldToNew[oldID] = newID
}

// Remap returns the new ID for an old (saved) ID, or 0 if unregistered.
func (m *EntityIDMap) Remap(oldID ecs.EntityID) ecs.EntityID {
	if oldID == 0 {
		return 0
	}
	return m.oldToNew[oldID]
}

// RemapStrict returns the new ID for an old (saved) ID, or an error if a
// non-zero old ID has no mapping (data loss during load).
func (m *EntityIDMap) RemapStrict(oldID ecs.EntityID) (ecs.EntityID, error) {
	if oldID == 0 {
		return 0, nil
	}
	newID, ok := m.oldToNew[oldID]
	if !ok {
		return 0, fmt.Errorf("%w: unmapped entity id %d", ErrStateCorruption, oldID)
	}
	return newID, nil
}

// Count returns the number of registered mappings.
func (m *EntityIDMap) Count() int {
	return len(m.oldToNew)
}
