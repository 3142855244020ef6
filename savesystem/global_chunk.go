package savesystem

import (
	"encoding/json"
	"fmt"

	"github.com/kase1111-hash/ascii-city-core/common"
)

// GlobalChunk saves/loads the tick counter and the seeded RNG's replay
// state (spec.md §6: "Global: tick counter, seeded RNG state").
//
// math/rand.Rand exposes no public way to marshal its internal generator
// state, so common.Rand is restored by reseeding and replaying DrawCount
// draws rather than by snapshotting generator bytes directly.
type GlobalChunk struct {
	Tick uint64
	RNG  *common.Rand
}

func (c *GlobalChunk) ChunkID() string   { return "global" }
func (c *GlobalChunk) ChunkVersion() int { return 1 }

type savedGlobal struct {
	Tick      uint64
	Seed      int64
	DrawCount uint64
}

func (c *GlobalChunk) Save() (json.RawMessage, error) {
	return json.Marshal(savedGlobal{
		Tick:      c.Tick,
		Seed:      c.RNG.Seed(),
		DrawCount: c.RNG.DrawCount(),
	})
}

func (c *GlobalChunk) Load(data json.RawMessage) error {
	var in savedGlobal
	if err := json.Unmarshal(data, &in); err != nil {
		return fmt.Errorf("%w: malformed global chunk: %v", ErrStateCorruption, err)
	}
	c.Tick = in.Tick
	c.RNG = common.Restore(in.Seed, in.DrawCount)
	return nil
}
