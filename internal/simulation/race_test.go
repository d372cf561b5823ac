package simulation

import (
	"testing"

	"github.com/iOvergaard/Unikart/internal/shared/types"
	"github.com/iOvergaard/Unikart/internal/track"
)

func newTestRace(t *testing.T, cfg Config) *Race {
	t.Helper()
	r, err := New(cfg, track.DefaultDefinition())
	if err != nil {
		t.Fatalf("creating race: %v", err)
	}
	return r
}

func hasEvent(events []types.RaceEvent, typ string) bool {
	for _, ev := range events {
		if ev.Type == typ {
			return true
		}
	}
	return false
}

func TestConfigDefaults(t *testing.T) {
	c := Config{}.withDefaults()
	if c.TotalLaps != 3 || c.Countdown != 3 || c.CollisionGrace != 1.0 {
		t.Errorf("zero config defaults = %+v", c)
	}
	if c.HumanKart != 0 {
		t.Errorf("human seat = %d, want 0", c.HumanKart)
	}

	c = Config{HumanKart: 12}.withDefaults()
	if c.HumanKart != 0 {
		t.Errorf("out-of-range human seat = %d, want 0", c.HumanKart)
	}
	c = Config{HumanKart: -1}.withDefaults()
	if c.HumanKart != -1 {
		t.Errorf("all-AI seat = %d, want -1", c.HumanKart)
	}
}

func TestNewSeatsFullField(t *testing.T) {
	r := newTestRace(t, Config{Seed: 1, HumanKart: 0, HumanCharacter: "sparkle"})
	if len(r.karts) != NumKarts {
		t.Fatalf("field size = %d, want %d", len(r.karts), NumKarts)
	}
	if !r.karts[0].IsHuman || r.karts[0].Character.ID != "sparkle" {
		t.Errorf("human seat not assigned: %+v", r.karts[0].Character)
	}
	for i := 1; i < NumKarts; i++ {
		if r.karts[i].IsHuman {
			t.Errorf("kart %d should be CPU", i)
		}
		if r.controllers[i] == nil {
			t.Errorf("kart %d has no controller", i)
		}
		if r.karts[i].Character.ID == "sparkle" {
			t.Errorf("human character duplicated on kart %d without AllowClones", i)
		}
	}
	if r.controllers[0] != nil {
		t.Errorf("human seat should have no controller")
	}
}

func TestGridSeatingConsistency(t *testing.T) {
	r := newTestRace(t, Config{Seed: 2, HumanKart: -1})
	for _, k := range r.karts {
		if !r.track.OnRoad(k.Pos) {
			t.Errorf("kart %d seated off road at %v", k.ID, k.Pos)
		}
		if p := k.RaceProgress(); p < -0.1 || p > 0.1 {
			t.Errorf("kart %d starting progress = %v, want near zero", k.ID, p)
		}
	}

	// Front row outranks the back row; no seat is nearly a lap ahead.
	if r.karts[0].RaceProgress() < r.karts[7].RaceProgress() {
		t.Errorf("front seat progress %v behind back seat %v",
			r.karts[0].RaceProgress(), r.karts[7].RaceProgress())
	}

	seen := make([]bool, NumKarts)
	for _, rank := range r.positions {
		if rank < 0 || rank >= NumKarts || seen[rank] {
			t.Fatalf("positions %v is not a permutation", r.positions)
		}
		seen[rank] = true
	}
}

func TestCountdownTransitionsToRacing(t *testing.T) {
	r := newTestRace(t, Config{Seed: 3, HumanKart: -1, Countdown: 0.5})

	r.Tick(0.25)
	if r.Phase() != PhaseCountdown {
		t.Fatalf("phase = %v mid-countdown, want countdown", r.Phase())
	}
	snap := r.Snapshot()
	if len(snap.Karts) != NumKarts {
		t.Fatalf("snapshot field size = %d", len(snap.Karts))
	}

	r.Tick(0.3)
	if r.Phase() != PhaseRacing {
		t.Fatalf("phase = %v after countdown, want racing", r.Phase())
	}
	if snap = r.Snapshot(); !hasEvent(snap.Events, "race_start") {
		t.Errorf("race_start event missing from %v", snap.Events)
	}
}

func TestHumanInputDrivesKart(t *testing.T) {
	r := newTestRace(t, Config{Seed: 4, HumanKart: 0, Countdown: 0.5})
	r.Tick(0.6) // burn the countdown
	r.ApplyInput(types.RaceInput{Forward: true})
	for i := 0; i < 120; i++ {
		r.Tick(tick)
	}
	if speed := r.karts[0].Speed; speed <= 1 {
		t.Fatalf("human kart speed = %v after 2s of throttle", speed)
	}
}

func TestFinishOrdering(t *testing.T) {
	r := newTestRace(t, Config{Seed: 5, HumanKart: -1})

	r.karts[3].Finished = true
	r.karts[3].FinishTime = 10
	r.karts[5].Finished = true
	r.karts[5].FinishTime = 12
	r.karts[1].Lap = 5
	r.karts[1].Checkpoint = 0.3
	r.sortPositions()

	if r.positions[3] != 0 {
		t.Errorf("kart 3 (finished t=10) rank = %d, want 0", r.positions[3])
	}
	if r.positions[5] != 1 {
		t.Errorf("kart 5 (finished t=12) rank = %d, want 1", r.positions[5])
	}
	if r.positions[1] != 2 {
		t.Errorf("kart 1 (best progress) rank = %d, want 2", r.positions[1])
	}
}

func TestSnapshotIsDeepCopy(t *testing.T) {
	r := newTestRace(t, Config{Seed: 6, HumanKart: -1})
	snap := r.Snapshot()
	orig := r.karts[0].Pos

	snap.Karts[0].Position.X += 1000
	snap.Boxes = snap.Boxes[:0]
	if r.karts[0].Pos != orig {
		t.Fatalf("mutating the snapshot reached the live kart")
	}
	again := r.Snapshot()
	if again.Karts[0].Position != orig {
		t.Fatalf("second snapshot saw the mutation: %v", again.Karts[0].Position)
	}
	if len(again.Boxes) == 0 {
		t.Fatalf("second snapshot lost its boxes")
	}
}

func TestStandingsMatchPositions(t *testing.T) {
	r := newTestRace(t, Config{Seed: 7, HumanKart: -1})
	r.karts[2].Butterflies = 4
	r.sortPositions()

	st := r.Standings()
	if len(st) != NumKarts {
		t.Fatalf("standings rows = %d, want %d", len(st), NumKarts)
	}
	for i, s := range st {
		if s.Rank != i {
			t.Errorf("row %d has rank %d", i, s.Rank)
		}
		if r.positions[s.KartID] != i {
			t.Errorf("row %d kart %d disagrees with positions", i, s.KartID)
		}
	}
}

// A full all-AI sprint race must reach the finished phase with every kart
// classified and finish times in rank order.
func TestAllAIRaceRunsToFinish(t *testing.T) {
	r := newTestRace(t, Config{
		TotalLaps: 1,
		Countdown: 0.5,
		HumanKart: -1,
		Seed:      42,
	})

	const maxTicks = 10 * 60 * 60 // ten simulated minutes
	finished := false
	for i := 0; i < maxTicks; i++ {
		r.Tick(tick)
		if r.Phase() == PhaseFinished {
			finished = true
			break
		}
	}
	if !finished {
		t.Fatalf("race did not finish within %d ticks", maxTicks)
	}

	st := r.Standings()
	prev := 0.0
	for _, s := range st {
		if !s.Finished {
			t.Errorf("kart %d unclassified in a finished race", s.KartID)
			continue
		}
		if s.FinishTime < prev {
			t.Errorf("finish times out of order at rank %d: %v after %v", s.Rank, s.FinishTime, prev)
		}
		prev = s.FinishTime
	}
}
