package threat

import (
	"math"

	"github.com/kase1111-hash/ascii-city-core/common"
	"github.com/kase1111-hash/ascii-city-core/config"
	"github.com/kase1111-hash/ascii-city-core/coords"
	"github.com/kase1111-hash/ascii-city-core/intent"
)

// ReactionInputs carries the per-resolution terms the caller has already
// computed for the player (injury state, input collaborator latency
// already folds into the Intent itself): base reaction time plus the
// fear/adrenaline modifiers spec.md §4.5 names.
type ReactionInputs struct {
	BaseReactionSeconds float64
	InjuryPenalty       float64
	FearPenalty         float64
	AdrenalineBonus     float64
}

// EffectiveReactionTime computes effective_reaction_time per spec.md §4.5
// step 1, clamped below by cfg.MinEffectiveReactionTime.
func EffectiveReactionTime(cfg config.ThreatConfig, in ReactionInputs, inputLatency float64) float64 {
	t := in.BaseReactionSeconds + inputLatency + in.InjuryPenalty + in.FearPenalty - in.AdrenalineBonus
	if t < cfg.MinEffectiveReactionTime {
		t = cfg.MinEffectiveReactionTime
	}
	return t
}

// MostUrgent picks the highest-stage threat, ties broken by smallest
// distance to playerPos (spec.md §4.5 step 2). Returns nil if threats is
// empty.
func MostUrgent(threats []*Threat, playerPos coords.Position) *Threat {
	var best *Threat
	var bestDist float64
	for _, t := range threats {
		if best == nil {
			best, bestDist = t, playerPos.EuclideanDistance(t.Position)
			continue
		}
		if t.Stage > best.Stage {
			best, bestDist = t, playerPos.EuclideanDistance(t.Position)
			continue
		}
		if t.Stage == best.Stage {
			d := playerPos.EuclideanDistance(t.Position)
			if d < bestDist {
				best, bestDist = t, d
			}
		}
	}
	return best
}

// Flanking reports whether any two engaged threats' angles from playerPos
// exceed cfg.FlankingAngleThreshold, and whether three or more such threats
// exist with any two flanking (crossfire).
func Flanking(cfg config.ThreatConfig, threats []*Threat, playerPos coords.Position) (flanking bool, crossfire bool) {
	angles := make([]float64, 0, len(threats))
	for _, t := range threats {
		angles = append(angles, playerPos.AngleTo(t.Position))
	}

	flankingPairs := 0
	for i := 0; i < len(angles); i++ {
		for j := i + 1; j < len(angles); j++ {
			if math.Abs(coords.AngleDelta(angles[i], angles[j])) > cfg.FlankingAngleThreshold {
				flankingPairs++
			}
		}
	}
	flanking = flankingPairs > 0
	crossfire = len(threats) >= cfg.CrossfireMinThreats && flankingPairs > 0
	return flanking, crossfire
}

// Resolve runs reaction-window resolution for in against the most urgent of
// threats (spec.md §4.5). rng is the single seeded tick RNG, consulted only
// for the fear/freeze roll. engagedThreats should include every threat
// currently Engaged, for flanking/crossfire detection. targetErr, if
// non-nil (the caller validated it.Target via intent.ValidateTarget and
// got intent.ErrUnknownReference), short-circuits to the UnknownReference
// outcome of spec.md §7 instead of running normal resolution.
func Resolve(cfg config.ThreatConfig, it intent.Intent, engagedThreats []*Threat, playerPos coords.Position, in ReactionInputs, rng *common.Rand, targetErr error) intent.Outcome {
	if targetErr != nil {
		if len(engagedThreats) > 0 {
			return intent.Outcome{Timing: intent.TooLate, IntentAccepted: false}
		}
		return intent.Outcome{IntentAccepted: false}
	}

	urgent := MostUrgent(engagedThreats, playerPos)
	if urgent == nil {
		return intent.Outcome{Timing: intent.Early, IntentAccepted: true}
	}

	if in.FearPenalty > cfg.FearFreezeThreshold {
		if rng.Float64() < cfg.FearFreezeProbability {
			return intent.Outcome{Timing: intent.Freeze, IntentAccepted: false}
		}
	}

	effective := EffectiveReactionTime(cfg, in, it.InputLatencySeconds)

	flanking, crossfire := Flanking(cfg, engagedThreats, playerPos)
	if flanking {
		effective += cfg.FlankingPenaltySeconds
	}

	damageMultiplier := 1.0
	if crossfire {
		damageMultiplier += cfg.CrossfireDamageBonus
	}

	w := urgent.ReactionWindow(cfg)
	damagePotential := urgent.Profile.DamagePotential

	switch {
	case effective <= 0.5*w:
		return intent.Outcome{Timing: intent.Early, IntentAccepted: true}
	case effective <= 0.8*w:
		return intent.Outcome{
			Timing:         intent.OnTime,
			DamageApplied:  clamp01(0.1 * damagePotential * damageMultiplier),
			IntentAccepted: true,
		}
	case effective <= w:
		return intent.Outcome{
			Timing:         intent.Late,
			DamageApplied:  clamp01(0.4 * damagePotential * damageMultiplier),
			IntentAccepted: true,
		}
	default:
		return intent.Outcome{
			Timing:         intent.TooLate,
			DamageApplied:  clamp01(0.8 * damagePotential * damageMultiplier),
			IntentAccepted: true,
		}
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
