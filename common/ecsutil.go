// Package common wraps bytearena/ecs with the component vocabulary the
// perception-and-reaction core needs, and carries the single seeded RNG
// instance the core threads explicitly through every stochastic step
// (spec.md §9 flags process-wide RNG seeding as a pattern to eliminate).
package common

import (
	"github.com/bytearena/ecs"

	"github.com/kase1111-hash/ascii-city-core/coords"
)

var (
	PositionComponent       *ecs.Component
	FacingComponent         *ecs.Component
	SizeComponent           *ecs.Component
	KindComponent           *ecs.Component
	BiasComponent           *ecs.Component
	PriorBeliefComponent    *ecs.Component
	SoundSignatureComponent *ecs.Component

	// AllEntitiesTag queries every entity carrying the four universal
	// components NewEntity attaches (position, facing, size, kind).
	AllEntitiesTag ecs.Tag
)

// EntityManager wraps the ECS world and registers the component vocabulary
// above exactly once, mirroring the teacher's common.EntityManager.
type EntityManager struct {
	World *ecs.Manager
}

// NewEntityManager creates a world with every core component registered.
func NewEntityManager() *EntityManager {
	world := ecs.NewManager()

	PositionComponent = world.NewComponent()
	FacingComponent = world.NewComponent()
	SizeComponent = world.NewComponent()
	KindComponent = world.NewComponent()
	BiasComponent = world.NewComponent()
	PriorBeliefComponent = world.NewComponent()
	SoundSignatureComponent = world.NewComponent()

	AllEntitiesTag = ecs.BuildTag(
		PositionComponent, FacingComponent, SizeComponent, KindComponent,
	)

	return &EntityManager{World: world}
}

// NewEntity creates an entity carrying the universal entity fields from
// spec.md §3: {id, position, facing, size, kind}.
func (em *EntityManager) NewEntity(pos coords.Position, facing float64, size float64, kind EntityKind) *ecs.Entity {
	p := pos
	return em.World.NewEntity().
		AddComponent(PositionComponent, &p).
		AddComponent(FacingComponent, &Facing{Radians: facing}).
		AddComponent(SizeComponent, &Size{Tiles: size}).
		AddComponent(KindComponent, &Kind{Value: kind})
}

// GetComponent retrieves component data of type T from an entity.
// Returns the zero value of T and false if the entity lacks the component.
func GetComponent[T any](e *ecs.Entity, component *ecs.Component) (T, bool) {
	var zero T
	if e == nil {
		return zero, false
	}
	data, ok := e.GetComponentData(component)
	if !ok {
		return zero, false
	}
	typed, ok := data.(T)
	if !ok {
		return zero, false
	}
	return typed, true
}

// Position returns an entity's position, or the zero Position if absent.
func Position(e *ecs.Entity) coords.Position {
	if p, ok := GetComponent[*coords.Position](e, PositionComponent); ok {
		return *p
	}
	return coords.Position{}
}

// EntityKindOf returns an entity's EntityKind, defaulting to KindHazard
// (the most conservative classification) if the component is absent.
func EntityKindOf(e *ecs.Entity) EntityKind {
	if k, ok := GetComponent[*Kind](e, KindComponent); ok {
		return k.Value
	}
	return KindHazard
}

// FindByID searches the world for the entity with the given ID.
// bytearena/ecs has no direct by-ID lookup, matching the teacher's own
// FindEntityByID helper.
func (em *EntityManager) FindByID(id ecs.EntityID) *ecs.Entity {
	for _, result := range em.World.Query(AllEntitiesTag) {
		if result.Entity.GetID() == id {
			return result.Entity
		}
	}
	return nil
}

// AllIDs returns every entity ID currently in the world.
func (em *EntityManager) AllIDs() []ecs.EntityID {
	var ids []ecs.EntityID
	for _, result := range em.World.Query(AllEntitiesTag) {
		ids = append(ids, result.Entity.GetID())
	}
	return ids
}
