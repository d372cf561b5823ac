// Package simulation owns the race: it seats the karts, advances the whole
// field one fixed timestep at a time, resolves contacts, ranks progress and
// detects the finish.
package simulation

import (
	"math"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/segmentio/ksuid"

	"github.com/iOvergaard/Unikart/internal/ai"
	"github.com/iOvergaard/Unikart/internal/butterfly"
	"github.com/iOvergaard/Unikart/internal/characters"
	"github.com/iOvergaard/Unikart/internal/items"
	"github.com/iOvergaard/Unikart/internal/kart"
	"github.com/iOvergaard/Unikart/internal/shared/types"
	"github.com/iOvergaard/Unikart/internal/track"
)

// NumKarts is the fixed field size.
const NumKarts = 8

const (
	gridLateral     = 1.6 // half the seat pair spacing
	gridRowGap      = 4.0
	gridFirstRow    = 3.5
	barrierToastGap = 1.0 // seconds between obstacle_hit events per kart
)

// Phase is the race-granularity state machine.
type Phase int

const (
	PhaseCountdown Phase = iota
	PhaseRacing
	PhaseFinished
)

func (p Phase) String() string {
	switch p {
	case PhaseRacing:
		return "racing"
	case PhaseFinished:
		return "finished"
	default:
		return "countdown"
	}
}

// Config selects the race parameters. Zero values fall back to defaults.
type Config struct {
	TotalLaps      int
	Countdown      float64
	CollisionGrace float64 // seconds of kart-kart immunity after the start
	HumanKart      int     // seat index for the human, negative for all-AI
	HumanCharacter string
	AllowClones    bool
	Difficulty     ai.Level
	Mirror         bool
	Seed           int64 // 0 seeds from the clock
}

func (c Config) withDefaults() Config {
	if c.TotalLaps <= 0 {
		c.TotalLaps = 3
	}
	if c.Countdown <= 0 {
		c.Countdown = 3
	}
	if c.CollisionGrace <= 0 {
		c.CollisionGrace = 1.0
	}
	if c.HumanKart >= NumKarts {
		c.HumanKart = 0
	}
	return c
}

// Race is the authoritative simulation for one session. Created at race
// start, discarded at race end; there is no partial teardown.
type Race struct {
	mu          sync.RWMutex
	id          string
	cfg         Config
	track       *track.Track
	karts       []*kart.Kart
	controllers []*ai.Controller
	items       *items.System
	butterflies *butterfly.System

	positions [NumKarts]int
	clock     float64
	countdown float64
	tick      uint64
	phase     Phase
	rng       *rand.Rand

	input       types.RaceInput
	prevItem    bool
	useQueue    []int
	events      []types.RaceEvent
	toast       string
	lastBarrier [NumKarts]float64
}

// New assembles a race on the given track definition: character assignment,
// kart construction, AI controllers, item boxes, butterflies and grid
// placement.
func New(cfg Config, def track.Definition) (*Race, error) {
	cfg = cfg.withDefaults()
	tr, err := track.New(def, cfg.Mirror)
	if err != nil {
		return nil, err
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	r := &Race{
		id:          ksuid.New().String(),
		cfg:         cfg,
		track:       tr,
		karts:       make([]*kart.Kart, NumKarts),
		controllers: make([]*ai.Controller, NumKarts),
		countdown:   cfg.Countdown,
		phase:       PhaseCountdown,
		rng:         rng,
	}
	for i := range r.lastBarrier {
		r.lastBarrier[i] = -barrierToastGap
	}

	human := characters.ByID(cfg.HumanCharacter)
	pool := characters.Roster()
	if cfg.HumanKart >= 0 && !cfg.AllowClones {
		for i, c := range pool {
			if c.ID == human.ID {
				pool = append(pool[:i], pool[i+1:]...)
				break
			}
		}
	}
	rng.Shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })

	cpu := 0
	for i := 0; i < NumKarts; i++ {
		if i == cfg.HumanKart {
			r.karts[i] = kart.New(i, human, true)
			continue
		}
		r.karts[i] = kart.New(i, pool[cpu%len(pool)], false)
		r.controllers[i] = ai.NewController(r.karts[i], cfg.Difficulty)
		cpu++
	}

	r.placeOnGrid()
	r.items = items.NewSystem(tr, rng)
	r.butterflies = butterfly.NewSystem(tr, rng)
	r.sortPositions()
	return r, nil
}

// placeOnGrid seats the karts in staggered pairs behind the start line. Each
// seat's true starting checkpoint comes from ClosestT so initial progress
// ordering matches physical placement.
func (r *Race) placeOnGrid() {
	startT := r.track.StartT()
	base := r.track.Point(startT)
	tangent := r.track.Tangent(startT)
	right := r.track.Right(startT)
	heading := math.Atan2(tangent.Y, tangent.X)

	for i, k := range r.karts {
		row := float64(i / 2)
		lat := -gridLateral
		if i%2 == 1 {
			lat = gridLateral
		}
		pos := base.
			Sub(tangent.Scale(gridFirstRow + row*gridRowGap)).
			Add(right.Scale(lat))
		k.PlaceOnGrid(pos, heading, r.track.ClosestT(pos))
		// Seats staggered behind the line wrap to a parameter near 1; they
		// start a lap down so their first line crossing evens it out.
		if k.Checkpoint-startT > 0.5 {
			k.Lap = -1
		}
	}
}

// ID is the session identifier.
func (r *Race) ID() string { return r.id }

// Phase returns the current race phase.
func (r *Race) Phase() Phase {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.phase
}

// ApplyInput stores the latest human control state.
func (r *Race) ApplyInput(in types.RaceInput) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.input = in
}

// Tick advances the race by dt seconds. No physics runs during countdown.
func (r *Race) Tick(dt float64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.tick++
	r.events = r.events[:0]
	r.toast = ""

	switch r.phase {
	case PhaseCountdown:
		r.countdown -= dt
		if r.countdown <= 0 {
			r.countdown = 0
			r.phase = PhaseRacing
			r.emit(types.RaceEvent{Type: "race_start"})
		}
	case PhaseRacing:
		r.stepRacing(dt)
	}
}

func (r *Race) stepRacing(dt float64) {
	r.clock += dt
	r.useQueue = r.useQueue[:0]

	// Human kart integrates before the AI field.
	for _, k := range r.karts {
		if k.IsHuman {
			r.stepHuman(k, dt)
		}
	}
	for i, k := range r.karts {
		if ctl := r.controllers[i]; ctl != nil {
			r.stepAI(k, ctl, dt)
		}
	}

	rep := resolveCollisions(r.karts, r.track, r.clock, r.cfg.CollisionGrace, dt)
	for _, id := range rep.BarrierHits {
		if r.clock-r.lastBarrier[id] < barrierToastGap {
			continue
		}
		r.lastBarrier[id] = r.clock
		r.emit(types.RaceEvent{Type: "obstacle_hit", KartID: id})
		if r.karts[id].IsHuman {
			r.toast = "Bounced off the barrier!"
		}
	}

	for _, k := range r.karts {
		k.UpdateProgress(r.track.ClosestT(k.Pos), r.clock)
	}
	r.sortPositions()

	for _, id := range r.useQueue {
		k := r.karts[id]
		if k.HeldItem == kart.ItemNone {
			continue
		}
		res := items.Use(k, r.karts, r.positions[:], r.rng)
		r.emit(types.RaceEvent{Type: "item_used", KartID: id, Message: res.String()})
		if k.IsHuman || (res.Target >= 0 && r.karts[res.Target].IsHuman) {
			r.toast = res.String()
		}
	}

	r.items.Update(dt, r.karts, r.positions[:])
	r.butterflies.Update(dt, r.karts)

	allDone := true
	for _, k := range r.karts {
		if !k.Finished && k.Lap >= r.cfg.TotalLaps {
			k.Finished = true
			k.FinishTime = r.clock
			r.sortPositions()
			r.emit(types.RaceEvent{
				Type:     "player_finished",
				KartID:   k.ID,
				Position: r.positions[k.ID],
			})
		}
		if !k.Finished {
			allDone = false
		}
	}
	if allDone {
		r.phase = PhaseFinished
		r.emit(types.RaceEvent{Type: "race_finished"})
	}
}

func (r *Race) stepHuman(k *kart.Kart, dt float64) {
	in := r.input
	accel := 0.0
	if in.Forward {
		accel += 1
	}
	if in.Backward {
		accel -= 1
	}
	steer := 0.0
	if in.Left {
		steer += 1
	}
	if in.Right {
		steer -= 1
	}
	onRoad := r.track.OnRoad(k.Pos)
	inZone := r.track.InZone(k.Pos, track.ZoneDrift)
	k.Integrate(dt, accel, steer, in.Drift, onRoad, inZone)

	if in.Item && !r.prevItem && k.HeldItem != kart.ItemNone {
		r.useQueue = append(r.useQueue, k.ID)
	}
	r.prevItem = in.Item
}

func (r *Race) stepAI(k *kart.Kart, ctl *ai.Controller, dt float64) {
	out := ctl.Update(dt, r.karts, r.track, r.items.Boxes(), r.butterflies.Alive())
	onRoad := r.track.OnRoad(k.Pos)
	inZone := r.track.InZone(k.Pos, track.ZoneDrift)
	k.Integrate(dt, out.Accel, out.Steer, out.DriftHeld, onRoad, inZone)
	if out.UseItem && k.HeldItem != kart.ItemNone {
		r.useQueue = append(r.useQueue, k.ID)
	}
}

// sortPositions recomputes ranks: finished karts first by finish time
// ascending, then unfinished by race progress descending.
func (r *Race) sortPositions() {
	idx := make([]int, len(r.karts))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		ka, kb := r.karts[idx[a]], r.karts[idx[b]]
		switch {
		case ka.Finished && kb.Finished:
			return ka.FinishTime < kb.FinishTime
		case ka.Finished:
			return true
		case kb.Finished:
			return false
		default:
			return ka.RaceProgress() > kb.RaceProgress()
		}
	})
	for rank, id := range idx {
		r.positions[id] = rank
	}
}

func (r *Race) emit(ev types.RaceEvent) {
	ev.OccurredMS = time.Now().UTC().UnixMilli()
	r.events = append(r.events, ev)
}

// Snapshot returns a deep copy of the replicated state. Consumers must only
// read race state through this, never mid-tick.
func (r *Race) Snapshot() types.RaceSnapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()

	karts := make([]types.KartSnapshot, len(r.karts))
	for i, k := range r.karts {
		karts[i] = types.KartSnapshot{
			ID:          k.ID,
			Name:        k.Character.Name,
			CharacterID: k.Character.ID,
			IsHuman:     k.IsHuman,
			Position:    k.Pos,
			Heading:     k.Heading,
			Speed:       k.Speed,
			DriftTier:   k.Drift.Tier,
			Charging:    k.Drift.State == kart.DriftCharging,
			Boosting:    k.Drift.State == kart.DriftBoosting,
			HeldItem:    k.HeldItem.String(),
			Butterflies: k.Butterflies,
			Lap:         k.Lap,
			Checkpoint:  k.Checkpoint,
			Rank:        r.positions[i],
			Finished:    k.Finished,
			FinishTime:  k.FinishTime,
			SpinAngle:   k.SpinAngle,
			Gusted:      k.GustLeft > 0,
			Wobbling:    k.WobbleLeft > 0,
			Turbo:       k.TurboLeft > 0,
		}
	}

	srcBoxes := r.items.Boxes()
	boxes := make([]types.ItemBoxSnapshot, len(srcBoxes))
	for i, b := range srcBoxes {
		boxes[i] = types.ItemBoxSnapshot{ID: b.ID, Position: b.Pos, Active: b.Active}
	}

	alive := r.butterflies.Alive()
	flies := make([]types.ButterflySnapshot, len(alive))
	for i, b := range alive {
		flies[i] = types.ButterflySnapshot{ID: b.ID, Position: b.Pos}
	}

	events := make([]types.RaceEvent, len(r.events))
	copy(events, r.events)

	return types.RaceSnapshot{
		RaceID:      r.id,
		Tick:        r.tick,
		Phase:       r.phase.String(),
		Clock:       r.clock,
		Countdown:   r.countdown,
		Karts:       karts,
		Boxes:       boxes,
		Butterflies: flies,
		Events:      events,
		Toast:       r.toast,
	}
}

// DrainCollectedButterflies exposes the collected-id diff for renderers.
func (r *Race) DrainCollectedButterflies() []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.butterflies.DrainCollected()
}

// DrainSpawnedButterflies exposes the newly spawned diff for renderers.
func (r *Race) DrainSpawnedButterflies() []butterfly.Butterfly {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.butterflies.DrainSpawned()
}

// Standing is one row of the final (or live) classification.
type Standing struct {
	Rank        int
	KartID      int
	Name        string
	Finished    bool
	FinishTime  float64
	Butterflies int
	Score       int
}

// Standings returns the classification sorted by rank, with butterfly scores.
func (r *Race) Standings() []Standing {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Standing, len(r.karts))
	for i, k := range r.karts {
		rank := r.positions[i]
		out[rank] = Standing{
			Rank:        rank,
			KartID:      k.ID,
			Name:        k.Character.Name,
			Finished:    k.Finished,
			FinishTime:  k.FinishTime,
			Butterflies: k.Butterflies,
			Score:       butterfly.Score(rank, k.Butterflies),
		}
	}
	return out
}
