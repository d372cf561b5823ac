package kart

import (
	"math"
	"testing"

	"github.com/iOvergaard/Unikart/internal/characters"
	"github.com/iOvergaard/Unikart/internal/shared/types"
)

const tick = 1.0 / 60.0

func testCharacter() characters.Character {
	return characters.Character{
		ID: "testkart", Name: "Testkart",
		Speed: 4, Accel: 4, Handling: 4, Weight: 4,
	}
}

func TestNewDerivesStats(t *testing.T) {
	ch := testCharacter()
	ch.Speed = 6
	k := New(0, ch, false)
	if math.Abs(k.MaxSpeed-BaseMaxSpeed*1.3) > 1e-9 {
		t.Errorf("MaxSpeed = %v, want %v", k.MaxSpeed, BaseMaxSpeed*1.3)
	}
	if math.Abs(k.Accel-BaseAccel*1.1) > 1e-9 {
		t.Errorf("Accel = %v, want %v", k.Accel, BaseAccel*1.1)
	}
	if math.Abs(k.Weight-BaseWeight*1.1) > 1e-9 {
		t.Errorf("Weight = %v, want %v", k.Weight, BaseWeight*1.1)
	}
}

func TestEffectiveMaxSpeedModifiers(t *testing.T) {
	k := New(0, testCharacter(), false)
	base := k.MaxSpeed

	if got := k.EffectiveMaxSpeed(true); math.Abs(got-base) > 1e-9 {
		t.Errorf("plain on-road: %v, want %v", got, base)
	}
	if got := k.EffectiveMaxSpeed(false); math.Abs(got-base*0.5) > 1e-9 {
		t.Errorf("plain off-road: %v, want %v", got, base*0.5)
	}

	// Turbo off-road keeps most of the boost: the penalty softens to 0.75.
	k.ApplyTurbo()
	want := base * TurboSpeedMult * 0.75
	if got := k.EffectiveMaxSpeed(false); math.Abs(got-want) > 1e-9 {
		t.Errorf("turbo off-road: %v, want %v", got, want)
	}
	k.TurboLeft = 0

	k.ApplyWobble()
	if got := k.EffectiveMaxSpeed(true); math.Abs(got-base*0.5) > 1e-9 {
		t.Errorf("wobble on-road: %v, want %v", got, base*0.5)
	}
	k.WobbleLeft = 0

	k.Drift.State = DriftBoosting
	if got := k.EffectiveMaxSpeed(true); math.Abs(got-base*BoostSpeedMult) > 1e-9 {
		t.Errorf("boosting on-road: %v, want %v", got, base*BoostSpeedMult)
	}
}

func TestIntegrateReachesCap(t *testing.T) {
	k := New(0, testCharacter(), false)
	for i := 0; i < 600; i++ {
		k.Integrate(tick, 1, 0, false, true, false)
	}
	if k.Speed > k.MaxSpeed+1e-9 {
		t.Fatalf("speed %v exceeds max %v", k.Speed, k.MaxSpeed)
	}
	if k.Speed < 0.95*k.MaxSpeed {
		t.Fatalf("after 10s full throttle speed = %v, want near max %v", k.Speed, k.MaxSpeed)
	}
}

func TestReverseSpeedClamp(t *testing.T) {
	k := New(0, testCharacter(), false)
	k.Speed = -100
	k.Integrate(tick, 0, 0, false, true, false)
	if k.Speed < -ReverseMaxFraction*k.MaxSpeed-1e-9 {
		t.Fatalf("reverse speed %v below clamp %v", k.Speed, -ReverseMaxFraction*k.MaxSpeed)
	}
}

func TestGustLocksSteeringAndCancelsDrift(t *testing.T) {
	k := New(0, testCharacter(), false)
	k.Speed = 15
	k.Integrate(tick, 1, 1, true, true, false)
	if k.Drift.State != DriftCharging {
		t.Fatalf("drift should engage above the speed gate, state = %v", k.Drift.State)
	}

	k.ApplyGust()
	if k.Drift.State != DriftCooldown {
		t.Fatalf("gust should cancel the drift, state = %v", k.Drift.State)
	}

	heading := k.Heading
	k.Integrate(tick, 1, 1, false, true, false)
	if k.Heading != heading {
		t.Errorf("gusted kart turned: heading %v -> %v", heading, k.Heading)
	}
	if k.SpinAngle <= 0 {
		t.Errorf("gusted kart should be spinning, SpinAngle = %v", k.SpinAngle)
	}
}

func TestDriftNeedsSpeed(t *testing.T) {
	k := New(0, testCharacter(), false)
	k.Speed = 3
	k.Integrate(tick, 1, 1, true, true, false)
	if k.Drift.State != DriftIdle {
		t.Errorf("drift engaged below the speed gate, state = %v", k.Drift.State)
	}
}

func TestLapWrapRoundTrip(t *testing.T) {
	k := New(0, testCharacter(), false)
	k.PlaceOnGrid(types.Vec2{}, 0, 0.5)

	seq := []float64{0.95, 0.98, 0.02, 0.05}
	for i, cp := range seq {
		k.UpdateProgress(cp, float64(i))
	}
	if k.Lap != 1 {
		t.Fatalf("after forward wrap lap = %d, want 1", k.Lap)
	}
	if len(k.LapTimes) != 1 {
		t.Fatalf("lap times = %v, want one entry", k.LapTimes)
	}

	// Reversing back over the line revokes the lap and its time.
	k.UpdateProgress(0.98, 5)
	if k.Lap != 0 {
		t.Fatalf("after backward wrap lap = %d, want 0", k.Lap)
	}
	if len(k.LapTimes) != 0 {
		t.Fatalf("backward wrap should pop the lap time, got %v", k.LapTimes)
	}

	k.UpdateProgress(0.02, 6)
	if k.Lap != 1 {
		t.Fatalf("re-crossing forward lap = %d, want 1", k.Lap)
	}
}

func TestFinishedKartIgnoresProgress(t *testing.T) {
	k := New(0, testCharacter(), false)
	k.Checkpoint = 0.4
	k.Finished = true
	k.UpdateProgress(0.6, 100)
	if k.Checkpoint != 0.4 {
		t.Errorf("finished kart checkpoint moved to %v", k.Checkpoint)
	}
}

func TestRaceProgress(t *testing.T) {
	k := New(0, testCharacter(), false)
	k.Lap = 2
	k.Checkpoint = 0.25
	if got := k.RaceProgress(); math.Abs(got-2.25) > 1e-9 {
		t.Errorf("RaceProgress = %v, want 2.25", got)
	}
}

func TestPlaceOnGridResetsTransientState(t *testing.T) {
	k := New(3, testCharacter(), true)
	k.Speed = 20
	k.HeldItem = ItemTurbo
	k.Butterflies = 7
	k.Lap = 2
	k.Finished = true
	k.ApplyGust()

	k.PlaceOnGrid(types.Vec2{X: 5, Y: -2}, 1.2, 0.98)
	if k.Speed != 0 || k.HeldItem != ItemNone || k.Butterflies != 0 {
		t.Errorf("transient state survived the grid reset: %+v", k)
	}
	if k.Lap != 0 || k.Finished || k.GustLeft != 0 {
		t.Errorf("race state survived the grid reset: %+v", k)
	}
	if k.ID != 3 || !k.IsHuman {
		t.Errorf("identity must survive the grid reset: %+v", k)
	}
	if k.Checkpoint != 0.98 || k.LastCheckpoint != 0.98 {
		t.Errorf("checkpoint not seated: %v/%v", k.Checkpoint, k.LastCheckpoint)
	}
}
