package savesystem

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/bytearena/ecs"

	"github.com/kase1111-hash/ascii-city-core/awareness"
	"github.com/kase1111-hash/ascii-city-core/common"
)

// ObserverChunk saves/loads every observer's bias, prior belief, and
// awareness score/state (spec.md §6).
type ObserverChunk struct {
	Observers map[ecs.EntityID]*awareness.Observer
}

func (c *ObserverChunk) ChunkID() string   { return "observers" }
func (c *ObserverChunk) ChunkVersion() int { return 1 }

type savedBias struct {
	Curious, Fearful, Paranoid float64
}

type savedObserver struct {
	ID          ecs.EntityID
	Bias        savedBias
	PriorBelief bool
	Score       float64
	State       int
}

func (c *ObserverChunk) Save() (json.RawMessage, error) {
	ids := make([]ecs.EntityID, 0, len(c.Observers))
	for id := range c.Observers {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	out := make([]savedObserver, 0, len(c.Observers))
	for _, id := range ids {
		o := c.Observers[id]
		out = append(out, savedObserver{
			ID:          id,
			Bias:        savedBias{quantize(o.Bias.Curious), quantize(o.Bias.Fearful), quantize(o.Bias.Paranoid)},
			PriorBelief: o.PriorBelief,
			Score:       quantize(o.Score),
			State:       int(o.State()),
		})
	}
	return json.Marshal(out)
}

func (c *ObserverChunk) Load(data json.RawMessage) error {
	var in []savedObserver
	if err := json.Unmarshal(data, &in); err != nil {
		return fmt.Errorf("%w: malformed observer chunk: %v", ErrStateCorruption, err)
	}

	c.Observers = make(map[ecs.EntityID]*awareness.Observer, len(in))
	for _, so := range in {
		if so.Score < 0 || so.Score > 1 {
			return fmt.Errorf("%w: observer %d awareness score %v out of range", ErrStateCorruption, so.ID, so.Score)
		}
		if so.State < int(awareness.Unaware) || so.State > int(awareness.Engaged) {
			return fmt.Errorf("%w: observer %d has unknown awareness state %d", ErrStateCorruption, so.ID, so.State)
		}
		bias := common.Bias{Curious: so.Bias.Curious, Fearful: so.Bias.Fearful, Paranoid: so.Bias.Paranoid}
		o := awareness.NewObserver(so.ID, bias, so.PriorBelief)
		o.Score = so.Score
		o.RestoreState(awareness.State(so.State))
		c.Observers[so.ID] = o
	}
	return nil
}
