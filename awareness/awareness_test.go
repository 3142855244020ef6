package awareness

import (
	"testing"

	"github.com/bytearena/ecs"

	"github.com/kase1111-hash/ascii-city-core/common"
	"github.com/kase1111-hash/ascii-city-core/config"
)

func TestUpdateRaisesScoreWithClarityAndVolume(t *testing.T) {
	cfg := config.Default().Awareness
	o := NewObserver(ecs.EntityID(1), common.Bias{}, false)

	_, _ = o.Update(cfg, 0.05, 1.0, 0.0)
	if o.Score <= 0 {
		t.Fatalf("expected clear sight to raise awareness score, got %v", o.Score)
	}
}

func TestUpdateTransitionsToEngagedAboveAlertCeiling(t *testing.T) {
	cfg := config.Default().Awareness
	o := NewObserver(ecs.EntityID(1), common.Bias{}, false)

	var lastTransition Transition
	var changed bool
	for i := 0; i < 5; i++ {
		if tr, ok := o.Update(cfg, 0.05, 1.0, 1.0); ok {
			lastTransition, changed = tr, true
		}
	}
	if o.State() != Engaged {
		t.Fatalf("expected state Engaged after repeated strong stimulus, got %v (score=%v)", o.State(), o.Score)
	}
	if !changed {
		t.Fatalf("expected at least one update to report a transition")
	}
	_ = lastTransition
}

func TestUpdateDecaysTowardZeroWithNoStimulus(t *testing.T) {
	cfg := config.Default().Awareness
	o := NewObserver(ecs.EntityID(1), common.Bias{}, false)
	o.Score = 0.8
	o.state = Engaged

	for i := 0; i < 20; i++ {
		o.Update(cfg, 1.0, 0, 0)
	}
	if o.Score >= 0.8 {
		t.Fatalf("expected decay to reduce the score over time, got %v", o.Score)
	}
}

func TestPriorBeliefContributesWithoutSightOrSound(t *testing.T) {
	cfg := config.Default().Awareness
	withBelief := NewObserver(ecs.EntityID(1), common.Bias{}, true)
	withoutBelief := NewObserver(ecs.EntityID(2), common.Bias{}, false)

	withBelief.Update(cfg, 0.05, 0, 0)
	withoutBelief.Update(cfg, 0.05, 0, 0)

	if withBelief.Score <= withoutBelief.Score {
		t.Fatalf("expected prior belief to contribute positively: with=%v without=%v", withBelief.Score, withoutBelief.Score)
	}
}
