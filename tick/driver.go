// Package tick sequences every other component into the fixed-step loop
// of spec.md §2/§4.6: drain input, commit grid mutations, expire/emit/
// propagate sound, recompute affordances, run vision and update awareness,
// advance threat escalation and resolve reactions, publish a snapshot.
//
// Driver.Step is adapted from the teacher's ActionManager.ExecuteActionsUntilPlayer2
// (a fixed sequencing loop draining queues every pass) and GameTurn.UpdateTurnCounter
// (counter-plus-periodic-reset), replaced here by the spec's fixed 8-step sequence
// with a continuous dt instead of discrete per-turn steps.
package tick

import (
	"github.com/bytearena/ecs"
	"github.com/rs/zerolog"

	"github.com/kase1111-hash/ascii-city-core/affordance"
	"github.com/kase1111-hash/ascii-city-core/awareness"
	"github.com/kase1111-hash/ascii-city-core/common"
	"github.com/kase1111-hash/ascii-city-core/config"
	"github.com/kase1111-hash/ascii-city-core/coords"
	"github.com/kase1111-hash/ascii-city-core/grid"
	"github.com/kase1111-hash/ascii-city-core/intent"
	"github.com/kase1111-hash/ascii-city-core/snapshot"
	"github.com/kase1111-hash/ascii-city-core/sound"
	"github.com/kase1111-hash/ascii-city-core/threat"
	"github.com/kase1111-hash/ascii-city-core/vision"
)

// ObserverMeta is the per-observer field of view and sight range the Vision
// Service needs; it isn't part of the ECS component vocabulary because
// only observer-capable entities carry it.
type ObserverMeta struct {
	FOV   float64
	Range float64
}

// queuedIntent pairs an intent with the reaction-resolution inputs its
// external collaborator (player state) supplied alongside it.
type queuedIntent struct {
	intent   intent.Intent
	reaction threat.ReactionInputs
}

// queuedSound is a pending sound-emitting action drained at step 1 and
// emitted at step 3.
type queuedSound struct {
	source     coords.Position
	volume     float64
	kind       string
	continuous bool
	maskFactor float64
}

// Driver owns every piece of mutable state reachable from Step, per the
// single-threaded-per-tick model of spec.md §5. No package it wires spawns
// a goroutine.
type Driver struct {
	cfg config.Config
	log zerolog.Logger

	g         *grid.Grid
	em        *common.EntityManager
	composer  *affordance.Composer
	vision    *vision.Service
	sound     *sound.Service
	awareness *awareness.Engine
	threats   *threat.Engine
	rng       *common.Rand

	tick uint64

	pendingIntents []queuedIntent
	pendingSounds  []queuedSound

	observerMeta map[ecs.EntityID]ObserverMeta
	playerID     ecs.EntityID

	weatherTag              string
	temporalTags            []string
	ambientLight            func(coords.Position) float64
	weatherVisibilityFactor float64
}

// NewDriver wires every collaborator together. rules/biome/weather/temporal
// may be nil (treated as empty tables); a nil stateRules defaults to
// affordance.DefaultStateTagRules().
func NewDriver(
	cfg config.Config,
	g *grid.Grid,
	em *common.EntityManager,
	rules affordance.WorldRules,
	biome affordance.BiomeDefaults,
	weather affordance.WeatherOverlay,
	temporal affordance.TemporalOverlay,
	stateRules affordance.StateTagRules,
	log zerolog.Logger,
) *Driver {
	if stateRules == nil {
		stateRules = affordance.DefaultStateTagRules()
	}
	composer := affordance.NewComposer(g, rules, biome, weather, temporal, stateRules, cfg.Spread, log)
	return &Driver{
		cfg:          cfg,
		log:          log.With().Str("component", "tick").Logger(),
		g:            g,
		em:           em,
		composer:     composer,
		vision:       vision.NewService(g, composer, cfg.Vision),
		sound:        sound.NewService(g, cfg.Sound, log),
		awareness:    awareness.NewEngine(log),
		threats:      threat.NewEngine(log),
		rng:          common.NewRand(cfg.Tick.RNGSeed),
		observerMeta: make(map[ecs.EntityID]ObserverMeta),
	}
}

// Grid, Awareness, Threats, and RNG expose the driver's owned collaborators
// for the savesystem chunks to read at save time.
func (d *Driver) Grid() *grid.Grid            { return d.g }
func (d *Driver) Awareness() *awareness.Engine { return d.awareness }
func (d *Driver) Threats() *threat.Engine      { return d.threats }
func (d *Driver) RNG() *common.Rand            { return d.rng }
func (d *Driver) Tick() uint64                 { return d.tick }

// SetTick and SetRNG let a save/load host restore the global chunk's state
// before resuming Step.
func (d *Driver) SetTick(t uint64)         { d.tick = t }
func (d *Driver) SetRNG(r *common.Rand)    { d.rng = r }

// SetPlayer names the entity whose position anchors simulation-radius
// culling, sound-source attribution, and the published snapshot's vision.
func (d *Driver) SetPlayer(id ecs.EntityID) { d.playerID = id }

// SetWeather sets the ambient weather tag consulted by the Affordance
// Composer's layer 6 and the Vision Service's weather visibility factor.
// Changing it invalidates every cached affordance, per spec.md §4.2.
func (d *Driver) SetWeather(tag string, visibilityFactor float64) {
	d.weatherTag = tag
	d.weatherVisibilityFactor = visibilityFactor
	d.composer.InvalidateAll()
}

// SetTemporalTags sets the active temporal context tags consulted by the
// Affordance Composer's layer 7, invalidating every cached affordance.
func (d *Driver) SetTemporalTags(tags []string) {
	d.temporalTags = tags
	d.composer.InvalidateAll()
}

// SetAmbientLight sets the ambient-light sampler the Vision Service
// multiplies into each ray's clarity.
func (d *Driver) SetAmbientLight(f func(coords.Position) float64) {
	d.ambientLight = f
}

// RegisterObserver tracks a new awareness observer and its vision
// parameters, returning the awareness.Observer for the caller to attach to
// a threat via RegisterThreat if it's also threat-capable.
func (d *Driver) RegisterObserver(id ecs.EntityID, bias common.Bias, priorBelief bool, fov, rangeTiles float64) *awareness.Observer {
	obs := d.awareness.Register(id, bias, priorBelief)
	d.observerMeta[id] = ObserverMeta{FOV: fov, Range: rangeTiles}
	return obs
}

// RegisterThreat binds a threat escalation ladder to an already-registered
// observer. Returns nil if id has no tracked observer.
func (d *Driver) RegisterThreat(id ecs.EntityID, pos coords.Position, profile threat.Profile) *threat.Threat {
	obs := d.awareness.Get(id)
	if obs == nil {
		return nil
	}
	return d.threats.Register(id, obs, pos, profile)
}

// QueueIntent drains an external intent into the driver's input queue for
// the next Step call (spec.md §4.6 step 1).
func (d *Driver) QueueIntent(it intent.Intent, reaction threat.ReactionInputs) {
	d.pendingIntents = append(d.pendingIntents, queuedIntent{intent: it, reaction: reaction})
}

// QueueMutation forwards directly to the grid's mutation queue; mutations
// are only ever applied at step 2 of the next Step call.
func (d *Driver) QueueMutation(m grid.Mutation) {
	d.g.QueueMutation(m)
}

// QueueSoundEmission drains a sound-emitting action into the driver's input
// queue. Continuous emitters (spec.md §4.4) must call this again every tick
// they remain active; the sound service drops continuous events outright
// at Expire and expects a fresh Emit each tick.
func (d *Driver) QueueSoundEmission(source coords.Position, volume float64, kind string, continuous bool, maskFactor float64) {
	d.pendingSounds = append(d.pendingSounds, queuedSound{source: source, volume: volume, kind: kind, continuous: continuous, maskFactor: maskFactor})
}

// Step runs one fixed tick: the 8-step sequence of spec.md §4.6. It returns
// the published snapshot and advances the tick counter.
func (d *Driver) Step() *snapshot.Snapshot {
	dt := d.cfg.Tick.DT

	// Step 1: drain input intents and sound-emitting actions.
	intents := d.pendingIntents
	d.pendingIntents = nil
	sounds := d.pendingSounds
	d.pendingSounds = nil

	// Step 2: commit pending grid mutations (placements, state-tag changes).
	receipts, touched := d.g.ApplyMutations(d.tick)
	for _, r := range receipts {
		if r.Err != nil {
			d.log.Warn().Err(r.Err).Msg("grid mutation rejected")
		}
	}
	touched = append(touched, d.g.TickDecay(dt, d.tick)...)
	d.composer.Invalidate(touched)

	// Step 3: expire old sound events; emit from this tick's sources,
	// including continuous emitters re-queued by the caller. Events emitted
	// here carry EmittedTick == d.tick, so step 6's queries below (tagged
	// with the same d.tick) won't see discrete ones until the next Step
	// call; continuous emitters are audible in this same tick.
	d.sound.Expire(d.tick)
	for _, s := range sounds {
		d.sound.Emit(s.source, s.volume, s.kind, s.continuous, s.maskFactor, d.tick)
	}

	// Step 4: propagate queued sound events (batch BFS).
	d.sound.Propagate()

	// Step 5: affordance recomputation is lazy — Invalidate above marks
	// touched tiles dirty, and Compose recomputes them the next time step 6
	// reads through the composer. Nothing else runs eagerly here, keeping
	// recomputation bounded by what vision/sound actually touch this tick.

	playerPos := d.entityPosition(d.playerID)
	playerFacing := d.entityFacing(d.playerID)

	// Resync every tracked threat's position from the entity mirror before
	// it's read below (MostUrgent/Flanking distance and angle checks, and
	// the snapshot's proximity band) — Position is only ever set once at
	// RegisterThreat otherwise, so a threat that has since moved would be
	// reasoned about at its registration-time position.
	for id, t := range d.threats.Threats {
		t.Position = d.entityPosition(id)
	}

	// Step 6: for each observer within the simulation radius, run the
	// Vision Service and update awareness.
	var playerResult vision.Result
	clarityInputs := make(map[ecs.EntityID][2]float64)
	for id, meta := range d.observerMeta {
		pos := d.entityPosition(id)
		if pos.ChebyshevDistance(playerPos) > d.cfg.Tick.SimulationRadius {
			continue
		}
		ctx := affordance.Context{WeatherTag: d.weatherTag, TemporalTags: d.temporalTags}
		mods := vision.Modifiers{AmbientLight: d.ambientLight, WeatherVisibilityFactor: d.weatherVisibilityFactor}
		obs := vision.Observer{Position: pos, Facing: d.entityFacing(id), FOV: meta.FOV, Range: meta.Range}
		result := d.vision.Compute(obs, ctx, mods)

		clarityAtPlayer := clarityOf(result, playerPos)
		volumeFromPlayer := d.sound.MaxVolumeAt(pos, d.tick, func(ev *sound.Event) bool {
			return ev.SourcePosition == playerPos
		})
		clarityInputs[id] = [2]float64{clarityAtPlayer, volumeFromPlayer}

		if id == d.playerID {
			playerResult = result
		}
	}
	transitions := d.awareness.UpdateAll(d.cfg.Awareness, dt, clarityInputs)

	// Step 7: for each threat, advance escalation and, if an intent is
	// pending, run reaction resolution.
	// Escalation events are logged by threat.Engine.AdvanceAll itself; the
	// snapshot's ThreatDescriptors (built below) already reflect the
	// post-escalation stage, so the event list has no further consumer here.
	d.threats.AdvanceAll(d.cfg.Threat, dt, func(id ecs.EntityID) bool {
		in, ok := clarityInputs[id]
		if !ok {
			return false
		}
		return in[0] >= d.cfg.Vision.PartialThreshold || in[1] >= d.cfg.Sound.HearingThreshold
	})

	// Every queued intent is resolved, in arrival order (spec.md §5); none
	// is silently dropped (spec.md §7).
	outcomes := make([]intent.Outcome, 0, len(intents))
	for _, it := range intents {
		targetErr := intent.ValidateTarget(it.intent.Target, d.g, d.em)
		if targetErr != nil {
			d.log.Warn().Err(targetErr).Msg("intent target rejected")
		}
		outcomes = append(outcomes, threat.Resolve(d.cfg.Threat, it.intent, d.threats.Engaged(), playerPos, it.reaction, d.rng, targetErr))
	}

	// Step 8: publish the immutable snapshot.
	snap := d.buildSnapshot(playerPos, playerFacing, playerResult, clarityInputs, transitions, outcomes)
	d.tick++
	return snap
}

func (d *Driver) buildSnapshot(
	playerPos coords.Position,
	playerFacing float64,
	playerResult vision.Result,
	clarityInputs map[ecs.EntityID][2]float64,
	transitions []awareness.Transition,
	outcomes []intent.Outcome,
) *snapshot.Snapshot {
	snap := &snapshot.Snapshot{Tick: d.tick, VisibleTiles: playerResult.Visible, IntentOutcomes: outcomes}

	for pos, c := range playerResult.Partial {
		snap.PartialTiles = append(snap.PartialTiles, snapshot.PartialTile{Position: pos, Clarity: c})
	}

	snap.AudioCues = d.sound.AudioCuesFor(playerPos, playerFacing, d.tick)

	for id, t := range d.threats.Threats {
		pos := d.entityPosition(id)
		dist := playerPos.EuclideanDistance(pos)
		clarity := 0.0
		if in, ok := clarityInputs[id]; ok {
			clarity = in[0]
		}
		snap.ThreatDescriptors = append(snap.ThreatDescriptors, snapshot.ThreatDescriptor{
			ThreatID: id,
			Band:     snapshot.BandFor(dist),
			Stage:    t.Stage,
			Clarity:  clarity,
		})
	}

	for _, t := range transitions {
		snap.AwarenessTransitions = append(snap.AwarenessTransitions, snapshot.AwarenessTransition{
			ObserverID: t.ObserverID,
			Old:        t.Old,
			New:        t.New,
		})
	}

	return snap
}

func (d *Driver) entityPosition(id ecs.EntityID) coords.Position {
	e := d.em.FindByID(id)
	if e == nil {
		return coords.Position{}
	}
	return common.Position(e)
}

func (d *Driver) entityFacing(id ecs.EntityID) float64 {
	e := d.em.FindByID(id)
	if e == nil {
		return 0
	}
	if f, ok := common.GetComponent[*common.Facing](e, common.FacingComponent); ok {
		return f.Radians
	}
	return 0
}

func clarityOf(result vision.Result, pos coords.Position) float64 {
	for _, p := range result.Visible {
		if p == pos {
			return 1.0
		}
	}
	if c, ok := result.Partial[pos]; ok {
		return c
	}
	return 0
}
