// Package kart implements the per-kart entity state and its fixed-timestep
// physics integration, including the drift-boost cycle and status effects.
package kart

import (
	"math"

	"github.com/iOvergaard/Unikart/internal/characters"
	"github.com/iOvergaard/Unikart/internal/shared/types"
)

const (
	// Base stats, scaled by the character's 1-6 stat via statMult.
	BaseMaxSpeed  = 24.0
	BaseAccel     = 14.0
	BaseSteerRate = 2.2 // rad/s
	BaseWeight    = 1.0

	// ReverseMaxFraction caps reverse speed relative to effective max.
	ReverseMaxFraction = 0.3

	brakeDecel        = 28.0
	frictionBase      = 0.995 // applied as base^(dt*60)
	frictionDrifting  = 0.988 // heavier bleed while carving
	driftMinSpeed     = 5.0
	driftSteerBoost   = 1.4
	reverseSteerScale = 0.5
	gustSpinRate      = 9.0

	// Off-road penalties; an active boost or turbo partially protects.
	offRoadPenalty        = 0.5
	offRoadBoostedPenalty = 0.75

	// TurboSpeedMult matches the drift boost multiplier.
	TurboSpeedMult = 1.35
	wobblePenalty  = 0.5

	gustDuration   = 1.8
	wobbleDuration = 2.5
	turboDuration  = 1.5
)

// ItemKind is the kart's held-item slot content.
type ItemKind int

const (
	ItemNone ItemKind = iota
	ItemGust
	ItemWobble
	ItemTurbo
)

func (k ItemKind) String() string {
	switch k {
	case ItemGust:
		return "gust"
	case ItemWobble:
		return "wobble"
	case ItemTurbo:
		return "turbo"
	default:
		return ""
	}
}

// Kart is one racer. Identity and character survive a grid reset; everything
// else is transient race state.
type Kart struct {
	ID        int
	Character characters.Character
	IsHuman   bool

	Pos        types.Vec2
	Heading    float64 // radians, CCW positive
	Speed      float64 // scalar forward speed
	SteerAngle float64

	// Derived once from character stats.
	MaxSpeed  float64
	Accel     float64
	SteerRate float64
	Weight    float64

	Drift    DriftBoost
	HeldItem ItemKind

	GustLeft   float64
	WobbleLeft float64
	TurboLeft  float64
	SpinAngle  float64

	Butterflies int

	Lap            int
	Checkpoint     float64
	LastCheckpoint float64
	Finished       bool
	FinishTime     float64
	LapTimes       []float64
	lapStart       float64
}

func statMult(stat int) float64 {
	return 0.7 + float64(stat)*0.1
}

// New creates a kart with stats derived from its character.
func New(id int, ch characters.Character, human bool) *Kart {
	return &Kart{
		ID:        id,
		Character: ch,
		IsHuman:   human,
		MaxSpeed:  BaseMaxSpeed * statMult(ch.Speed),
		Accel:     BaseAccel * statMult(ch.Accel),
		SteerRate: BaseSteerRate * statMult(ch.Handling),
		Weight:    BaseWeight * statMult(ch.Weight),
	}
}

// PlaceOnGrid zeroes all transient race and physics state while preserving
// identity and character, then seats the kart.
func (k *Kart) PlaceOnGrid(pos types.Vec2, heading, checkpoint float64) {
	k.Pos = pos
	k.Heading = heading
	k.Speed = 0
	k.SteerAngle = 0
	k.Drift = DriftBoost{}
	k.HeldItem = ItemNone
	k.GustLeft = 0
	k.WobbleLeft = 0
	k.TurboLeft = 0
	k.SpinAngle = 0
	k.Butterflies = 0
	k.Lap = 0
	k.Checkpoint = checkpoint
	k.LastCheckpoint = checkpoint
	k.Finished = false
	k.FinishTime = 0
	k.LapTimes = nil
	k.lapStart = 0
}

// Forward is the unit heading direction in the ground plane.
func (k *Kart) Forward() types.Vec2 {
	return types.Vec2{X: math.Cos(k.Heading), Y: math.Sin(k.Heading)}
}

// EffectiveMaxSpeed combines base max with boost, turbo, wobble and off-road
// modifiers. Boosts partially protect against the off-road slowdown.
func (k *Kart) EffectiveMaxSpeed(onRoad bool) float64 {
	m := k.MaxSpeed
	boosted := k.Drift.State == DriftBoosting || k.TurboLeft > 0
	m *= k.Drift.SpeedMult()
	if k.TurboLeft > 0 {
		m *= TurboSpeedMult
	}
	if k.WobbleLeft > 0 {
		m *= wobblePenalty
	}
	if !onRoad {
		if boosted {
			m *= offRoadBoostedPenalty
		} else {
			m *= offRoadPenalty
		}
	}
	return m
}

// Integrate advances the kart by one fixed timestep.
// accelIn and steerIn are in [-1,1]; onRoad and inDriftZone come from track
// queries against the kart's position at the start of the tick.
func (k *Kart) Integrate(dt, accelIn, steerIn float64, driftHeld, onRoad, inDriftZone bool) {
	// Status timers. Gust locks steering, chokes throttle and spins the kart
	// visually until it wears off.
	if k.GustLeft > 0 {
		k.GustLeft -= dt
		steerIn = 0
		accelIn *= 0.3
		k.SpinAngle += gustSpinRate * dt
	} else {
		k.SpinAngle = 0
	}
	if k.WobbleLeft > 0 {
		k.WobbleLeft -= dt
	}
	if k.TurboLeft > 0 {
		k.TurboLeft -= dt
	}

	// Drift transitions. Start captures the steer direction sign; releasing
	// the button is the only way out of charging.
	if driftHeld && k.Drift.State == DriftIdle && k.Speed > driftMinSpeed {
		k.Drift.Start(sign(steerIn))
	}
	if !driftHeld && k.Drift.State == DriftCharging {
		k.Drift.Release()
	}
	k.Drift.Update(dt, inDriftZone)

	// Steering. Charging tightens the steering rate and blends input toward
	// the locked drift direction so the kart keeps carving its line.
	steer := clamp(steerIn, -1, 1)
	rate := k.SteerRate
	if k.Drift.State == DriftCharging {
		rate *= driftSteerBoost
		steer = 0.6*k.Drift.Direction + 0.4*steer
	}
	k.SteerAngle = steer * rate
	turn := k.SteerAngle * dt
	if k.Speed < 0 {
		turn = -turn * reverseSteerScale
	}
	k.Heading += turn

	// Longitudinal. Braking is full-strength regardless of input magnitude.
	if accelIn > 0 {
		k.Speed += k.Accel * accelIn * dt
	} else if accelIn < 0 {
		k.Speed -= brakeDecel * dt
	}
	fric := frictionBase
	if k.Drift.State == DriftCharging {
		fric = frictionDrifting
	}
	k.Speed *= math.Pow(fric, dt*60)

	effMax := k.EffectiveMaxSpeed(onRoad)
	k.Speed = clamp(k.Speed, -ReverseMaxFraction*effMax, effMax)

	k.Pos = k.Pos.Add(k.Forward().Scale(k.Speed * dt))
}

// ApplyGust locks steering for a while and cancels any drift in progress.
func (k *Kart) ApplyGust() {
	k.GustLeft = gustDuration
	k.Drift.Cancel()
}

// ApplyWobble halves effective max speed for the duration.
func (k *Kart) ApplyWobble() {
	k.WobbleLeft = wobbleDuration
}

// ApplyTurbo raises effective max speed for the duration.
func (k *Kart) ApplyTurbo() {
	k.TurboLeft = turboDuration
}

// UpdateProgress records the new spline parameter and detects lap wraps in
// both directions; a backward wrap undoes the lap so the line can't be
// crossed in reverse for credit.
func (k *Kart) UpdateProgress(checkpoint, raceTime float64) {
	if k.Finished {
		return
	}
	k.LastCheckpoint = k.Checkpoint
	k.Checkpoint = checkpoint
	switch {
	case k.LastCheckpoint > 0.9 && k.Checkpoint < 0.1:
		k.Lap++
		k.LapTimes = append(k.LapTimes, raceTime-k.lapStart)
		k.lapStart = raceTime
	case k.LastCheckpoint < 0.1 && k.Checkpoint > 0.9:
		k.Lap--
		if n := len(k.LapTimes); n > 0 {
			k.lapStart -= k.LapTimes[n-1]
			k.LapTimes = k.LapTimes[:n-1]
		}
	}
}

// RaceProgress is the continuous ranking scalar: lap plus checkpoint
// fraction. Monotonically non-decreasing while racing forward.
func (k *Kart) RaceProgress() float64 {
	return float64(k.Lap) + k.Checkpoint
}

func sign(v float64) float64 {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}

func clamp(v, minV, maxV float64) float64 {
	if v < minV {
		return minV
	}
	if v > maxV {
		return maxV
	}
	return v
}
