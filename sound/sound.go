// Package sound maintains active sound events and propagates them across
// the grid by breadth-first search (spec.md §4.4).
package sound

import (
	"math"

	"github.com/rs/zerolog"

	"github.com/kase1111-hash/ascii-city-core/config"
	"github.com/kase1111-hash/ascii-city-core/coords"
	"github.com/kase1111-hash/ascii-city-core/grid"
)

// EventID identifies one sound event for the lifetime it is tracked.
type EventID uint64

// Event is one sound event, discrete or continuous.
type Event struct {
	ID             EventID
	SourcePosition coords.Position
	EmittedVolume  float64
	Kind           string
	Continuous     bool
	// MaskFactor, if > 0, makes this event a masker: wherever its own
	// propagated volume exceeds the masking threshold, it suppresses other
	// events at that tile (spec.md §4.4).
	MaskFactor float64
	EmittedTick uint64

	volumeMap map[coords.Position]float64
}

// Direction classifies a sound source relative to an observer's facing.
type Direction int

const (
	Front Direction = iota
	Back
	Left
	Right
)

func (d Direction) String() string {
	switch d {
	case Front:
		return "front"
	case Back:
		return "back"
	case Left:
		return "left"
	default:
		return "right"
	}
}

// AudioCue is one audible event as perceived by a specific observer.
type AudioCue struct {
	EventID   EventID
	Kind      string
	Direction Direction
	Stereo    float64 // in [-1, 1]
	Intensity float64 // in (0, 1], post-masking volume at the observer's tile
}

// Service owns the active event set and their per-tile volume maps.
type Service struct {
	g         *grid.Grid
	cfg       config.SoundConfig
	events    []*Event
	nextID    EventID
	log       zerolog.Logger
}

// NewService builds a sound service over g.
func NewService(g *grid.Grid, cfg config.SoundConfig, log zerolog.Logger) *Service {
	return &Service{g: g, cfg: cfg, log: log.With().Str("component", "sound").Logger()}
}

// Emit queues a new event. Continuous emitters call this once per tick with
// their current volume (spec.md §4.4: "continuous emitters... generate a
// new event each tick with the emitter's current volume").
func (s *Service) Emit(source coords.Position, volume float64, kind string, continuous bool, maskFactor float64, tick uint64) EventID {
	s.nextID++
	id := s.nextID
	s.events = append(s.events, &Event{
		ID:             id,
		SourcePosition: source,
		EmittedVolume:  volume,
		Kind:           kind,
		Continuous:     continuous,
		MaskFactor:     maskFactor,
		EmittedTick:    tick,
	})
	return id
}

// Expire drops discrete events older than DecayHorizonTicks and removes
// every continuous event outright — its owner is expected to re-Emit it
// next tick (spec.md §4.4).
func (s *Service) Expire(currentTick uint64) {
	kept := s.events[:0]
	for _, ev := range s.events {
		if ev.Continuous {
			continue
		}
		if currentTick-ev.EmittedTick < uint64(s.cfg.DecayHorizonTicks) {
			kept = append(kept, ev)
		}
	}
	s.events = kept
}

// queueEntry is a BFS work item.
type queueEntry struct {
	pos    coords.Position
	volume float64
}

// Propagate runs BFS propagation for every active event, bounded by
// MaxEventsPerTick (oldest events dropped beyond that), then applies
// masking across the combined tile set.
func (s *Service) Propagate() {
	if len(s.events) > s.cfg.MaxEventsPerTick {
		drop := len(s.events) - s.cfg.MaxEventsPerTick
		s.log.Warn().Int("dropped", drop).Msg("sound event queue exceeded max_events_per_tick")
		s.events = s.events[drop:]
	}

	for _, ev := range s.events {
		ev.volumeMap = s.propagateOne(ev)
	}
	s.applyMasking()
}

func (s *Service) propagateOne(ev *Event) map[coords.Position]float64 {
	volumeAt := make(map[coords.Position]float64)
	queue := []queueEntry{{pos: ev.SourcePosition, volume: ev.EmittedVolume}}
	volumeAt[ev.SourcePosition] = ev.EmittedVolume

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		if existing, ok := volumeAt[cur.pos]; ok && cur.volume > existing {
			volumeAt[cur.pos] = cur.volume
		}
		if cur.volume < s.cfg.HearingThreshold {
			continue
		}

		for _, n := range s.g.Neighbors(cur.pos) {
			if n.Z != cur.pos.Z {
				continue
			}
			tile := s.g.GetTile(n)
			newVolume := cur.volume * (1 - tile.SoundAbsorption) * s.cfg.AttenuationPerTile
			if newVolume > volumeAt[n] {
				volumeAt[n] = newVolume
				queue = append(queue, queueEntry{pos: n, volume: newVolume})
			}
		}
	}
	return volumeAt
}

// applyMasking multiplies every non-masker event's tile volume by
// (1 - Σ mask_factor) for maskers whose own volume at that tile exceeds
// the masking threshold (spec.md §4.4).
func (s *Service) applyMasking() {
	var maskers []*Event
	for _, ev := range s.events {
		if ev.MaskFactor > 0 {
			maskers = append(maskers, ev)
		}
	}
	if len(maskers) == 0 {
		return
	}

	for _, ev := range s.events {
		if ev.MaskFactor > 0 {
			continue
		}
		for pos, vol := range ev.volumeMap {
			maskSum := 0.0
			for _, masker := range maskers {
				if masker == ev {
					continue
				}
				if maskerVol, ok := masker.volumeMap[pos]; ok && maskerVol > s.cfg.MaskingThreshold {
					maskSum += masker.MaskFactor
				}
			}
			factor := 1 - clamp01(maskSum)
			ev.volumeMap[pos] = vol * factor
		}
	}
}

// VolumeAt returns the post-masking volume of event id at pos, or 0 if the
// event doesn't reach pos.
func (s *Service) VolumeAt(id EventID, pos coords.Position) float64 {
	for _, ev := range s.events {
		if ev.ID == id {
			return ev.volumeMap[pos]
		}
	}
	return 0
}

// MaxVolumeAt returns the highest post-masking volume any active event has
// at pos, across all events emitted strictly before currentTick — used by
// the awareness formula's player-sourced volume term. Discrete events
// emitted this same tick are excluded: spec.md §5 guarantees sound
// generated in tick N is observable only at tick N+1, independent of
// intent order within a tick. Continuous events are exempt from that gate:
// they represent an already-ongoing ambient source re-emitted every tick
// purely so Expire can track its lifetime, not a new event this tick
// caused, so they stay audible without the one-tick delay.
func (s *Service) MaxVolumeAt(pos coords.Position, currentTick uint64, sourceFilter func(*Event) bool) float64 {
	max := 0.0
	for _, ev := range s.events {
		if !ev.Continuous && ev.EmittedTick >= currentTick {
			continue
		}
		if sourceFilter != nil && !sourceFilter(ev) {
			continue
		}
		if v := ev.volumeMap[pos]; v > max {
			max = v
		}
	}
	return max
}

// AudioCuesFor returns one AudioCue per audible event (post-masking volume
// above the hearing threshold) at observerPos, classified relative to
// observerFacing, with the same one-tick observability delay for discrete
// events (and the same continuous-event exemption) as MaxVolumeAt.
func (s *Service) AudioCuesFor(observerPos coords.Position, observerFacing float64, currentTick uint64) []AudioCue {
	var cues []AudioCue
	for _, ev := range s.events {
		if !ev.Continuous && ev.EmittedTick >= currentTick {
			continue
		}
		vol, ok := ev.volumeMap[observerPos]
		if !ok || vol < s.cfg.HearingThreshold {
			continue
		}
		dir, stereo := classify(observerPos, observerFacing, ev.SourcePosition)
		cues = append(cues, AudioCue{
			EventID:   ev.ID,
			Kind:      ev.Kind,
			Direction: dir,
			Stereo:    stereo,
			Intensity: clamp01(vol),
		})
	}
	return cues
}

func classify(observerPos coords.Position, observerFacing float64, sourcePos coords.Position) (Direction, float64) {
	if observerPos == sourcePos {
		return Front, 0
	}
	angleToSource := observerPos.AngleTo(sourcePos)
	// Signed, not AngleDelta's unsigned magnitude: left/right and the
	// stereo balance's sign both depend on which side of facing the
	// source falls on.
	delta := coords.SignedAngleDelta(angleToSource, observerFacing)

	stereo := math.Sin(delta)
	if stereo > 1 {
		stereo = 1
	}
	if stereo < -1 {
		stereo = -1
	}

	abs := math.Abs(delta)
	switch {
	case abs <= math.Pi/4:
		return Front, stereo
	case abs >= 3*math.Pi/4:
		return Back, stereo
	case delta > 0:
		return Right, stereo
	default:
		return Left, stereo
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
