package sound

import (
	"math"
	"testing"

	"github.com/rs/zerolog"

	"github.com/kase1111-hash/ascii-city-core/config"
	"github.com/kase1111-hash/ascii-city-core/coords"
	"github.com/kase1111-hash/ascii-city-core/grid"
)

func lineGrid(t *testing.T, n int32) *grid.Grid {
	t.Helper()
	g := grid.NewGrid(zerolog.Nop())
	var specs []grid.TileSpec
	for x := int32(0); x < n; x++ {
		specs = append(specs, grid.TileSpec{Position: coords.Position{X: x, Y: 0, Z: 0}, TerrainKind: grid.Rock})
	}
	g.Generate(specs)
	return g
}

func TestPropagationMonotonicAttenuation(t *testing.T) {
	g := lineGrid(t, 6)
	cfg := config.Default().Sound
	svc := NewService(g, cfg, zerolog.Nop())

	id := svc.Emit(coords.Position{X: 0, Y: 0, Z: 0}, 1.0, "gunshot", false, 0, 0)
	svc.Propagate()

	var prev float64 = math.Inf(1)
	for x := int32(0); x < 6; x++ {
		v := svc.VolumeAt(id, coords.Position{X: x, Y: 0, Z: 0})
		if v > prev {
			t.Fatalf("expected non-increasing volume with distance, tile %d got %v after %v", x, v, prev)
		}
		prev = v
	}
}

func TestPropagationStopsExpandingBelowHearingThreshold(t *testing.T) {
	g := lineGrid(t, 50)
	cfg := config.Default().Sound
	cfg.HearingThreshold = 0.5
	cfg.AttenuationPerTile = 0.5
	svc := NewService(g, cfg, zerolog.Nop())

	id := svc.Emit(coords.Position{X: 0, Y: 0, Z: 0}, 1.0, "footstep", false, 0, 0)
	svc.Propagate()

	far := svc.VolumeAt(id, coords.Position{X: 40, Y: 0, Z: 0})
	if far != 0 {
		t.Fatalf("expected propagation to have stopped well before tile 40, got %v", far)
	}
}

func TestMaskingSuppressesEventBelowThreshold(t *testing.T) {
	g := lineGrid(t, 3)
	cfg := config.Default().Sound
	cfg.MaskingThreshold = 0.2
	svc := NewService(g, cfg, zerolog.Nop())

	maskerID := svc.Emit(coords.Position{X: 0, Y: 0, Z: 0}, 0.9, "waterfall", true, 0.6, 0)
	gunID := svc.Emit(coords.Position{X: 0, Y: 0, Z: 0}, 0.9, "gunshot", false, 0, 0)
	svc.Propagate()

	maskerVol := svc.VolumeAt(maskerID, coords.Position{X: 0, Y: 0, Z: 0})
	gunVolMasked := svc.VolumeAt(gunID, coords.Position{X: 0, Y: 0, Z: 0})
	if maskerVol <= cfg.MaskingThreshold {
		t.Fatalf("expected masker volume to exceed the masking threshold at the source tile")
	}
	// Unmasked gunshot volume at distance 0 is its emitted volume (0.9);
	// masking must have reduced it.
	if gunVolMasked >= 0.9 {
		t.Fatalf("expected masking to reduce the gunshot's recorded volume, got %v", gunVolMasked)
	}
}

func squareGrid(t *testing.T, n int32) *grid.Grid {
	t.Helper()
	g := grid.NewGrid(zerolog.Nop())
	var specs []grid.TileSpec
	for x := -n; x <= n; x++ {
		for y := -n; y <= n; y++ {
			specs = append(specs, grid.TileSpec{Position: coords.Position{X: x, Y: y, Z: 0}, TerrainKind: grid.Rock})
		}
	}
	g.Generate(specs)
	return g
}

func TestAudioCueDirectionClassification(t *testing.T) {
	g := lineGrid(t, 3)
	cfg := config.Default().Sound
	svc := NewService(g, cfg, zerolog.Nop())
	svc.Emit(coords.Position{X: 2, Y: 0, Z: 0}, 1.0, "voice", false, 0, 0)
	svc.Propagate()

	cues := svc.AudioCuesFor(coords.Position{X: 0, Y: 0, Z: 0}, 0, 1)
	if len(cues) != 1 {
		t.Fatalf("expected one audible cue, got %d", len(cues))
	}
	if cues[0].Direction != Front {
		t.Fatalf("expected a source directly ahead to classify as front, got %v", cues[0].Direction)
	}
}

// TestAudioCueDirectionDistinguishesLeftFromRight checks that both Left
// and Right are reachable and that the stereo balance carries a sign,
// not just magnitude (a source on one side yields negative stereo, the
// mirrored source on the other side yields positive stereo).
func TestAudioCueDirectionDistinguishesLeftFromRight(t *testing.T) {
	g := squareGrid(t, 3)
	cfg := config.Default().Sound
	observer := coords.Position{X: 0, Y: 0, Z: 0}

	right := NewService(g, cfg, zerolog.Nop())
	right.Emit(coords.Position{X: 0, Y: 2, Z: 0}, 1.0, "voice", false, 0, 0)
	right.Propagate()
	rightCues := right.AudioCuesFor(observer, 0, 1)
	if len(rightCues) != 1 || rightCues[0].Direction != Right {
		t.Fatalf("expected a source to the right to classify as right, got %+v", rightCues)
	}
	if rightCues[0].Stereo <= 0 {
		t.Fatalf("expected positive stereo balance for a right-side source, got %v", rightCues[0].Stereo)
	}

	left := NewService(g, cfg, zerolog.Nop())
	left.Emit(coords.Position{X: 0, Y: -2, Z: 0}, 1.0, "voice", false, 0, 0)
	left.Propagate()
	leftCues := left.AudioCuesFor(observer, 0, 1)
	if len(leftCues) != 1 || leftCues[0].Direction != Left {
		t.Fatalf("expected a source to the left to classify as left, got %+v", leftCues)
	}
	if leftCues[0].Stereo >= 0 {
		t.Fatalf("expected negative stereo balance for a left-side source, got %v", leftCues[0].Stereo)
	}
}

// TestSoundObservableOnlyNextTick checks the one-tick observability delay:
// an event emitted at tick N is invisible to both MaxVolumeAt and
// AudioCuesFor when queried with currentTick == N, and visible at N+1.
func TestSoundObservableOnlyNextTick(t *testing.T) {
	g := lineGrid(t, 2)
	cfg := config.Default().Sound
	svc := NewService(g, cfg, zerolog.Nop())

	svc.Emit(coords.Position{X: 0, Y: 0, Z: 0}, 1.0, "gunshot", false, 0, 5)
	svc.Propagate()

	pos := coords.Position{X: 0, Y: 0, Z: 0}
	if v := svc.MaxVolumeAt(pos, 5, nil); v != 0 {
		t.Fatalf("expected sound emitted at tick 5 to be invisible when queried at tick 5, got %v", v)
	}
	if cues := svc.AudioCuesFor(pos, 0, 5); len(cues) != 0 {
		t.Fatalf("expected no audio cues for same-tick emission, got %d", len(cues))
	}

	if v := svc.MaxVolumeAt(pos, 6, nil); v <= 0 {
		t.Fatalf("expected sound emitted at tick 5 to be audible when queried at tick 6, got %v", v)
	}
	if cues := svc.AudioCuesFor(pos, 0, 6); len(cues) != 1 {
		t.Fatalf("expected one audio cue when queried at tick 6, got %d", len(cues))
	}
}

// TestContinuousEmitterIsAudibleSameTick checks that a continuous
// emitter's re-Emit this tick is not subject to the one-tick
// observability delay that discrete events get: it represents an
// already-ongoing ambient source, not a new event this tick caused.
func TestContinuousEmitterIsAudibleSameTick(t *testing.T) {
	g := lineGrid(t, 2)
	cfg := config.Default().Sound
	svc := NewService(g, cfg, zerolog.Nop())

	svc.Emit(coords.Position{X: 0, Y: 0, Z: 0}, 0.9, "waterfall", true, 0, 5)
	svc.Propagate()

	pos := coords.Position{X: 0, Y: 0, Z: 0}
	if v := svc.MaxVolumeAt(pos, 5, nil); v <= 0 {
		t.Fatalf("expected a continuous emitter to be audible in the tick it's re-emitted, got %v", v)
	}
	if cues := svc.AudioCuesFor(pos, 0, 5); len(cues) != 1 {
		t.Fatalf("expected one audio cue for a same-tick continuous emitter, got %d", len(cues))
	}
}

func TestExpireDropsOldDiscreteEventsAndAllContinuous(t *testing.T) {
	g := lineGrid(t, 2)
	cfg := config.Default().Sound
	cfg.DecayHorizonTicks = 5
	svc := NewService(g, cfg, zerolog.Nop())

	discreteID := svc.Emit(coords.Position{X: 0, Y: 0, Z: 0}, 0.5, "thud", false, 0, 0)
	svc.Emit(coords.Position{X: 0, Y: 0, Z: 0}, 0.5, "waterfall", true, 0, 0)

	svc.Expire(10)
	foundDiscrete := false
	foundContinuous := false
	for _, ev := range svc.events {
		if ev.ID == discreteID {
			foundDiscrete = true
		}
		if ev.Continuous {
			foundContinuous = true
		}
	}
	if foundDiscrete {
		t.Fatalf("expected the old discrete event to have expired")
	}
	if foundContinuous {
		t.Fatalf("expected the continuous event to be dropped pending re-emission")
	}
}
