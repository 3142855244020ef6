// Package config carries every tuning constant the perception-and-reaction
// core needs at construction time. The core reads no environment variables
// and loads no files on its own; a host process builds a Config (from flags,
// a file, whatever it likes) and passes it in once.
package config

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidConfig is returned by Validate when a constant is out of its
// declared range. It is always fatal at construction time; the core never
// raises it mid-tick.
var ErrInvalidConfig = errors.New("invalid config")

// VisionConfig tunes the raycasting vision service (spec.md §4.3).
type VisionConfig struct {
	// RaysPerRadian is how many rays are cast per radian of field of view;
	// spec requires at least two rays per expected screen column, which this
	// scales from an assumed renderer column count.
	RaysPerRadian float64
	// SubStep is the per-ray marching distance in tiles; spec requires ≤ 0.5.
	SubStep float64
	// VisibleThreshold is the clarity at/above which a tile is "visible".
	VisibleThreshold float64
	// PartialThreshold is the clarity at/above which a tile is "partial".
	PartialThreshold float64
	// OpacityTerminate stops a ray once accumulated opacity reaches this.
	OpacityTerminate float64
	// EntityVisibleClarity is the minimum clarity at an entity's tile for
	// the entity itself to be considered visible.
	EntityVisibleClarity float64
}

// SoundConfig tunes the BFS sound propagation service (spec.md §4.4).
type SoundConfig struct {
	// HearingThreshold is the volume below which propagation stops expanding.
	HearingThreshold float64
	// AttenuationPerTile is the per-step multiplicative falloff applied in
	// addition to a tile's own sound_absorption.
	AttenuationPerTile float64
	// MaskingThreshold is the masker volume above which it suppresses other
	// sounds at a tile.
	MaskingThreshold float64
	// DecayHorizonTicks is how many ticks a discrete sound event survives.
	DecayHorizonTicks int
	// MaxEventsPerTick bounds propagation work; oldest queued events are
	// dropped beyond this.
	MaxEventsPerTick int
}

// AwarenessConfig tunes the awareness score/state machine (spec.md §4.5).
type AwarenessConfig struct {
	UnawareCeiling    float64 // score ≤ this is Unaware
	SuspiciousCeiling float64 // score ≤ this (and > UnawareCeiling) is Suspicious
	AlertCeiling      float64 // score ≤ this (and > SuspiciousCeiling) is Alert
	// above AlertCeiling is Engaged.

	EngagedDecayPerSecond    float64
	AlertDecayPerSecond      float64
	SuspiciousDecayPerSecond float64
}

// ReactionWindows holds the nominal reaction_window seconds for escalation
// stages 0..5 (Notice, Challenge, Advance, Aim, Warning, Lethal).
type ReactionWindows [6]float64

// ThreatConfig tunes threat escalation and reaction resolution (spec.md §4.5).
type ThreatConfig struct {
	ReactionWindows ReactionWindows
	// LostContactTicksToDeescalate is how many consecutive ticks without
	// sight or sound contact before a threat's stage drops by one.
	LostContactTicksToDeescalate int
	// FlankingAngleThreshold is the minimum angular separation (radians)
	// between two threats, relative to the player, that counts as flanking.
	FlankingAngleThreshold float64
	// FlankingPenaltySeconds is added to effective_reaction_time when flanked.
	FlankingPenaltySeconds float64
	// CrossfireMinThreats is the minimum engaged-threat count for crossfire.
	CrossfireMinThreats int
	// CrossfireDamageBonus is added to the resolved damage multiplier under
	// crossfire; it never changes timing.
	CrossfireDamageBonus float64
	// FearFreezeThreshold is the fear_penalty above which a freeze roll occurs.
	FearFreezeThreshold float64
	// FearFreezeProbability is the chance (per tick RNG) of the freeze firing
	// once fear exceeds FearFreezeThreshold.
	FearFreezeProbability float64
	// MinEffectiveReactionTime is the floor effective_reaction_time is
	// clamped to, regardless of penalties.
	MinEffectiveReactionTime float64
}

// SpreadFactors gives the per-category adjacency spread fraction used by
// the Affordance Composer (spec.md §4.2). The category set is closed; the
// numeric factors are configuration, per spec.md §9's open question.
type SpreadFactors struct {
	Conceals      float64
	DeadensSound  float64
	EmitsLight    float64
	Threatens     float64
	Burns         float64
	Poisons       float64
}

// TickConfig tunes the fixed-step driver (spec.md §4.6).
type TickConfig struct {
	// DT is the fixed simulation timestep in seconds (target 20 Hz → 0.05).
	DT float64
	// SimulationRadius bounds which observers/tiles are recomputed each tick.
	SimulationRadius int32
	// RNGSeed seeds the single RNG instance threaded through the driver.
	RNGSeed int64
}

// Config bundles every tunable the core needs. Construct with Default() and
// override fields, or build one from scratch; always call Validate() before
// handing it to tick.NewDriver.
type Config struct {
	Vision    VisionConfig
	Sound     SoundConfig
	Awareness AwarenessConfig
	Threat    ThreatConfig
	Spread    SpreadFactors
	Tick      TickConfig
}

// Default returns the reference configuration used by the end-to-end
// scenarios in spec.md §8.
func Default() Config {
	return Config{
		Vision: VisionConfig{
			RaysPerRadian:        40,
			SubStep:              0.5,
			VisibleThreshold:     0.9,
			PartialThreshold:     0.1,
			OpacityTerminate:     0.99,
			EntityVisibleClarity: 0.3,
		},
		Sound: SoundConfig{
			HearingThreshold:   0.05,
			AttenuationPerTile: 0.8,
			MaskingThreshold:   0.3,
			DecayHorizonTicks:  40, // 2s at 20 Hz; deterministic and provable under property 4.
			MaxEventsPerTick:   64,
		},
		Awareness: AwarenessConfig{
			UnawareCeiling:           0.1,
			SuspiciousCeiling:        0.3,
			AlertCeiling:             0.6,
			EngagedDecayPerSecond:    0.05,
			AlertDecayPerSecond:      0.10,
			SuspiciousDecayPerSecond: 0.15,
		},
		Threat: ThreatConfig{
			ReactionWindows:              ReactionWindows{3.0, 2.0, 1.5, 1.0, 0.8, 0.5},
			LostContactTicksToDeescalate: 2,
			FlankingAngleThreshold:       math.Pi / 2,
			FlankingPenaltySeconds:       0.3,
			CrossfireMinThreats:          3,
			CrossfireDamageBonus:         0.3,
			FearFreezeThreshold:          0.9,
			FearFreezeProbability:        0.25,
			MinEffectiveReactionTime:     0.1,
		},
		Spread: SpreadFactors{
			Conceals:     0.4,
			DeadensSound: 0.4,
			EmitsLight:   0.3,
			Threatens:    0.5,
			Burns:        0.3,
			Poisons:      0.3,
		},
		Tick: TickConfig{
			DT:               0.05,
			SimulationRadius: 32,
			RNGSeed:          1,
		},
	}
}

// Validate checks every constant against its declared range. A non-nil
// error always wraps ErrInvalidConfig and is fatal at construction.
func (c Config) Validate() error {
	checks := []struct {
		ok   bool
		name string
	}{
		{c.Vision.RaysPerRadian > 0, "vision.rays_per_radian must be > 0"},
		{c.Vision.SubStep > 0 && c.Vision.SubStep <= 0.5, "vision.sub_step must be in (0, 0.5]"},
		{inUnit(c.Vision.VisibleThreshold), "vision.visible_threshold must be in [0,1]"},
		{inUnit(c.Vision.PartialThreshold), "vision.partial_threshold must be in [0,1]"},
		{c.Vision.PartialThreshold < c.Vision.VisibleThreshold, "vision.partial_threshold must be < visible_threshold"},
		{inUnit(c.Vision.OpacityTerminate), "vision.opacity_terminate must be in [0,1]"},
		{inUnit(c.Vision.EntityVisibleClarity), "vision.entity_visible_clarity must be in [0,1]"},

		{inUnit(c.Sound.HearingThreshold), "sound.hearing_threshold must be in [0,1]"},
		{c.Sound.AttenuationPerTile > 0 && c.Sound.AttenuationPerTile <= 1, "sound.attenuation_per_tile must be in (0,1]"},
		{inUnit(c.Sound.MaskingThreshold), "sound.masking_threshold must be in [0,1]"},
		{c.Sound.DecayHorizonTicks > 0, "sound.decay_horizon_ticks must be > 0"},
		{c.Sound.MaxEventsPerTick > 0, "sound.max_events_per_tick must be > 0"},

		{c.Awareness.UnawareCeiling > 0 && c.Awareness.UnawareCeiling < c.Awareness.SuspiciousCeiling, "awareness ceilings must be strictly increasing"},
		{c.Awareness.SuspiciousCeiling < c.Awareness.AlertCeiling, "awareness ceilings must be strictly increasing"},
		{c.Awareness.AlertCeiling < 1.0, "awareness.alert_ceiling must be < 1.0"},
		{c.Awareness.EngagedDecayPerSecond >= 0, "awareness.engaged_decay must be >= 0"},
		{c.Awareness.AlertDecayPerSecond >= 0, "awareness.alert_decay must be >= 0"},
		{c.Awareness.SuspiciousDecayPerSecond >= 0, "awareness.suspicious_decay must be >= 0"},

		{c.Threat.LostContactTicksToDeescalate > 0, "threat.lost_contact_ticks must be > 0"},
		{c.Threat.FlankingAngleThreshold > 0 && c.Threat.FlankingAngleThreshold <= math.Pi, "threat.flanking_angle_threshold must be in (0, π]"},
		{c.Threat.FlankingPenaltySeconds >= 0, "threat.flanking_penalty_seconds must be >= 0"},
		{c.Threat.CrossfireMinThreats >= 2, "threat.crossfire_min_threats must be >= 2"},
		{c.Threat.CrossfireDamageBonus >= 0, "threat.crossfire_damage_bonus must be >= 0"},
		{inUnit(c.Threat.FearFreezeThreshold), "threat.fear_freeze_threshold must be in [0,1]"},
		{inUnit(c.Threat.FearFreezeProbability), "threat.fear_freeze_probability must be in [0,1]"},
		{c.Threat.MinEffectiveReactionTime > 0, "threat.min_effective_reaction_time must be > 0"},

		{spreadInUnit(c.Spread), "spread factors must all be in [0,1]"},

		{c.Tick.DT > 0, "tick.dt must be > 0"},
		{c.Tick.SimulationRadius > 0, "tick.simulation_radius must be > 0"},
	}

	for _, w := range c.Threat.ReactionWindows {
		checks = append(checks, struct {
			ok   bool
			name string
		}{w > 0, "threat.reaction_windows entries must all be > 0"})
	}
	for i := 1; i < len(c.Threat.ReactionWindows); i++ {
		if c.Threat.ReactionWindows[i] > c.Threat.ReactionWindows[i-1] {
			return fmt.Errorf("%w: threat.reaction_windows must be non-increasing by stage", ErrInvalidConfig)
		}
	}

	for _, chk := range checks {
		if !chk.ok {
			return fmt.Errorf("%w: %s", ErrInvalidConfig, chk.name)
		}
	}
	return nil
}

func inUnit(v float64) bool {
	return v >= 0 && v <= 1
}

func spreadInUnit(s SpreadFactors) bool {
	for _, v := range []float64{s.Conceals, s.DeadensSound, s.EmitsLight, s.Threatens, s.Burns, s.Poisons} {
		if !inUnit(v) {
			return false
		}
	}
	return true
}
