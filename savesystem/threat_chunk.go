package savesystem

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/bytearena/ecs"

	"github.com/kase1111-hash/ascii-city-core/awareness"
	"github.com/kase1111-hash/ascii-city-core/common"
	"github.com/kase1111-hash/ascii-city-core/coords"
	"github.com/kase1111-hash/ascii-city-core/threat"
)

// ThreatChunk saves/loads every threat's bias/awareness plus its
// escalation stage and stage timer (spec.md §6).
type ThreatChunk struct {
	Threats map[ecs.EntityID]*threat.Threat
}

func (c *ThreatChunk) ChunkID() string   { return "threats" }
func (c *ThreatChunk) ChunkVersion() int { return 1 }

type savedProfile struct {
	LethalityRangeTiles    float64
	DamagePotential        float64
	SoundSignature         float64
	VelocityTilesPerSecond float64
}

type savedThreat struct {
	ID          ecs.EntityID
	Position    savedPosition
	Bias        savedBias
	PriorBelief bool
	Score       float64
	State       int
	Stage       int
	StageTimer  float64
	Profile     savedProfile
}

func (c *ThreatChunk) Save() (json.RawMessage, error) {
	ids := make([]ecs.EntityID, 0, len(c.Threats))
	for id := range c.Threats {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	out := make([]savedThreat, 0, len(c.Threats))
	for _, id := range ids {
		t := c.Threats[id]
		out = append(out, savedThreat{
			ID:          id,
			Position:    savedPosition{t.Position.X, t.Position.Y, t.Position.Z},
			Bias:        savedBias{quantize(t.Observer.Bias.Curious), quantize(t.Observer.Bias.Fearful), quantize(t.Observer.Bias.Paranoid)},
			PriorBelief: t.Observer.PriorBelief,
			Score:       quantize(t.Observer.Score),
			State:       int(t.Observer.State()),
			Stage:       int(t.Stage),
			StageTimer:  quantize(t.StageTimer),
			Profile: savedProfile{
				LethalityRangeTiles:    quantize(t.Profile.LethalityRangeTiles),
				DamagePotential:        quantize(t.Profile.DamagePotential),
				SoundSignature:         quantize(t.Profile.SoundSignature),
				VelocityTilesPerSecond: quantize(t.Profile.VelocityTilesPerSecond),
			},
		})
	}
	return json.Marshal(out)
}

func (c *ThreatChunk) Load(data json.RawMessage) error {
	var in []savedThreat
	if err := json.Unmarshal(data, &in); err != nil {
		return fmt.Errorf("%w: malformed threat chunk: %v", ErrStateCorruption, err)
	}

	c.Threats = make(map[ecs.EntityID]*threat.Threat, len(in))
	for _, st := range in {
		if st.Score < 0 || st.Score > 1 {
			return fmt.Errorf("%w: threat %d awareness score %v out of range", ErrStateCorruption, st.ID, st.Score)
		}
		if st.Stage < int(threat.Notice) || st.Stage > int(threat.Lethal) {
			return fmt.Errorf("%w: threat %d has unknown stage %d", ErrStateCorruption, st.ID, st.Stage)
		}
		bias := common.Bias{Curious: st.Bias.Curious, Fearful: st.Bias.Fearful, Paranoid: st.Bias.Paranoid}
		obs := awareness.NewObserver(st.ID, bias, st.PriorBelief)
		obs.Score = st.Score
		obs.RestoreState(awareness.State(st.State))

		pos := coords.Position{X: st.Position.X, Y: st.Position.Y, Z: st.Position.Z}
		profile := threat.Profile{
			LethalityRangeTiles:    st.Profile.LethalityRangeTiles,
			DamagePotential:        st.Profile.DamagePotential,
			SoundSignature:         st.Profile.SoundSignature,
			VelocityTilesPerSecond: st.Profile.VelocityTilesPerSecond,
		}
		th := threat.NewThreat(st.ID, obs, pos, profile)
		th.Stage = threat.Stage(st.Stage)
		th.StageTimer = st.StageTimer
		c.Threats[st.ID] = th
	}
	return nil
}
