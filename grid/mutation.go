package grid

import (
	"fmt"

	"github.com/bytearena/ecs"

	"github.com/kase1111-hash/ascii-city-core/coords"
)

// MutationKind is the closed set of changes the tick driver may queue
// against the grid. Only Grid.ApplyMutations ever mutates a tile
// (spec.md §5: "only step 2 may mutate the grid").
type MutationKind int

const (
	MutPlaceEntity MutationKind = iota
	MutRemoveEntity
	MutMoveEntity
	MutAddStateTag
)

// Mutation is one queued change. Which fields are meaningful depends on
// Kind; see the MutXxx constants.
type Mutation struct {
	Kind     MutationKind
	EntityID ecs.EntityID
	Layer    Layer
	From     coords.Position
	To       coords.Position
	StateTag StateTagKind
	Duration float64
}

// MutationReceipt reports what happened to one queued mutation. A non-nil
// Err always wraps ErrBlockedMutation or ErrInvalidMutation; the mutation
// was dropped with no further effect (spec.md §7).
type MutationReceipt struct {
	Mutation Mutation
	Err      error
}

// QueueMutation enqueues a change for the next ApplyMutations call.
func (g *Grid) QueueMutation(m Mutation) {
	g.mutations = append(g.mutations, m)
}

// MoveResult is the outcome of a transactional entity placement.
type MoveResult int

const (
	Placed MoveResult = iota
	BlockedMove
)

// ApplyMutations drains the queue, applying each mutation in order, and
// returns a receipt per mutation plus the set of tile positions any
// mutation touched (for the affordance cache's targeted invalidation).
// tick is stamped on any history event the mutations generate.
func (g *Grid) ApplyMutations(tick uint64) ([]MutationReceipt, []coords.Position) {
	receipts := make([]MutationReceipt, 0, len(g.mutations))
	touchedSet := make(map[coords.Position]struct{})

	for _, m := range g.mutations {
		err := g.apply(m, tick, touchedSet)
		receipts = append(receipts, MutationReceipt{Mutation: m, Err: err})
		if err != nil {
			g.log.Warn().
				Str("kind", mutationKindName(m.Kind)).
				Uint64("entity_id", uint64(m.EntityID)).
				Err(err).
				Msg("mutation rejected")
		}
	}
	g.mutations = g.mutations[:0]

	touched := make([]coords.Position, 0, len(touchedSet))
	for pos := range touchedSet {
		touched = append(touched, pos)
	}
	return receipts, touched
}

func (g *Grid) apply(m Mutation, tick uint64, touched map[coords.Position]struct{}) error {
	switch m.Kind {
	case MutPlaceEntity:
		res := g.placeEntity(m.EntityID, m.To, m.Layer, tick)
		touched[m.To] = struct{}{}
		if res == BlockedMove {
			return fmt.Errorf("%w: cell (%v, layer %d) is full or impassable", ErrBlockedMutation, m.To, m.Layer)
		}
		return nil

	case MutRemoveEntity:
		pos, ok := g.entityPos[m.EntityID]
		if !ok {
			return fmt.Errorf("%w: entity %d is not on the grid", ErrInvalidMutation, m.EntityID)
		}
		g.removeEntity(m.EntityID, pos, tick)
		touched[pos] = struct{}{}
		return nil

	case MutMoveEntity:
		res, err := g.MoveEntity(m.EntityID, m.To, tick)
		touched[m.From] = struct{}{}
		touched[m.To] = struct{}{}
		if err != nil {
			return err
		}
		if res == BlockedMove {
			return fmt.Errorf("%w: cell %v is full or impassable", ErrBlockedMutation, m.To)
		}
		return nil

	case MutAddStateTag:
		t, ok := g.tiles[m.To]
		if !ok {
			return fmt.Errorf("%w: tile %v does not exist", ErrInvalidMutation, m.To)
		}
		hadTag := t.HasStateTag(m.StateTag)
		t.AddStateTag(m.StateTag, m.Duration)
		if !hadTag {
			t.recordEvent(TileEvent{Tick: tick, Kind: StateTagAdded, Actor: m.EntityID})
		}
		touched[m.To] = struct{}{}
		return nil

	default:
		return fmt.Errorf("%w: unknown mutation kind %d", ErrInvalidMutation, m.Kind)
	}
}

// placeEntity places id on the tile at pos/layer if capacity and
// passability allow it. It does not remove id from any prior position —
// callers that are moving an entity must use MoveEntity instead.
func (g *Grid) placeEntity(id ecs.EntityID, pos coords.Position, layer Layer, tick uint64) MoveResult {
	t, ok := g.tiles[pos]
	if !ok || !t.Passable() || !t.canPlace(layer) {
		return BlockedMove
	}
	t.place(layer, id)
	t.recordEvent(TileEvent{Tick: tick, Kind: EntityEntered, Actor: id})
	g.entityPos[id] = pos
	g.entityLayer[id] = layer
	return Placed
}

func (g *Grid) removeEntity(id ecs.EntityID, pos coords.Position, tick uint64) {
	layer := g.entityLayer[id]
	if t, ok := g.tiles[pos]; ok {
		t.remove(layer, id)
		t.recordEvent(TileEvent{Tick: tick, Kind: EntityLeft, Actor: id})
	}
	delete(g.entityPos, id)
	delete(g.entityLayer, id)
}

// MoveEntity is the grid's one transactional placement primitive
// (spec.md §4.1): the old tile's entity set is modified only if placement
// on the new tile succeeds. There is no path under which the entity
// disappears from both endpoints — on a blocked move the entity is left
// exactly where it was and BlockedMove is returned, never an error, unless
// the entity was never on the grid to begin with (a genuine caller bug).
func (g *Grid) MoveEntity(id ecs.EntityID, to coords.Position, tick uint64) (MoveResult, error) {
	from, ok := g.entityPos[id]
	if !ok {
		return BlockedMove, fmt.Errorf("%w: entity %d is not on the grid", ErrInvalidMutation, id)
	}
	layer := g.entityLayer[id]

	destTile, ok := g.tiles[to]
	if !ok || !destTile.Passable() || (from != to && !destTile.canPlace(layer)) {
		return BlockedMove, nil
	}
	if from == to {
		return Placed, nil
	}

	destTile.place(layer, id)
	destTile.recordEvent(TileEvent{Tick: tick, Kind: EntityEntered, Actor: id})

	if srcTile, ok := g.tiles[from]; ok {
		srcTile.remove(layer, id)
		srcTile.recordEvent(TileEvent{Tick: tick, Kind: EntityLeft, Actor: id})
	}

	g.entityPos[id] = to
	return Placed, nil
}

// TickDecay advances every generated tile's state-tag clocks by dt and
// records StateTagExpired events for any tag that lapses. Returns the
// touched tile positions for cache invalidation.
func (g *Grid) TickDecay(dt float64, tick uint64) []coords.Position {
	var touched []coords.Position
	for pos, t := range g.tiles {
		expired := t.TickDecay(dt)
		if len(expired) == 0 {
			continue
		}
		for range expired {
			t.recordEvent(TileEvent{Tick: tick, Kind: StateTagExpired})
		}
		touched = append(touched, pos)
	}
	return touched
}

func mutationKindName(k MutationKind) string {
	switch k {
	case MutPlaceEntity:
		return "place_entity"
	case MutRemoveEntity:
		return "remove_entity"
	case MutMoveEntity:
		return "move_entity"
	case MutAddStateTag:
		return "add_state_tag"
	default:
		return "unknown"
	}
}
