// Package ai drives the CPU karts: one stateful controller per kart turns
// track geometry, nearby traffic and collectibles into per-tick control
// input, parametrized by a difficulty profile and the character's tendency.
package ai

import (
	"math"

	"github.com/iOvergaard/Unikart/internal/butterfly"
	"github.com/iOvergaard/Unikart/internal/characters"
	"github.com/iOvergaard/Unikart/internal/items"
	"github.com/iOvergaard/Unikart/internal/kart"
	"github.com/iOvergaard/Unikart/internal/shared/types"
	"github.com/iOvergaard/Unikart/internal/track"
)

const (
	lookAheadBase  = 0.025 // fraction of track parameter
	lookAheadSpeed = 0.045 // extra look-ahead at full speed

	aheadWindow = 0.06  // param window for "kart directly ahead"
	besideParam = 0.012 // param window for side awareness
	seekWindow  = 0.08  // param window for collectible seeking

	overtakeLane  = 2.5
	laneLimit     = 3.5
	repulsionPush = 1.5

	driftSharpness   = 0.45
	driftMinSpeed    = 12.0
	driftReleaseFlat = 0.12
	driftMinCharge   = 0.35
)

// driftChargeTargets is the charge time a bot aims for per maximum tier,
// slightly past each tier threshold so the release lands on the tier.
var driftChargeTargets = [4]float64{0, 0.45, 0.80, 1.15}

// Output is one tick of control decisions for a CPU kart.
type Output struct {
	Accel     float64
	Steer     float64
	DriftHeld bool
	UseItem   bool
}

// Controller holds the cross-tick decision state for one CPU kart.
type Controller struct {
	kart     *kart.Kart
	profile  Profile
	tendency characters.Tendency
	rng      *lcg

	lane       float64
	targetLane float64
	decideIn   float64

	driftHeld    bool
	chargeTarget float64
	itemHeld     float64
}

// NewController binds a controller to its kart at the given difficulty.
func NewController(k *kart.Kart, level Level) *Controller {
	return &Controller{
		kart:     k,
		profile:  ProfileFor(level),
		tendency: k.Character.Tendency,
		rng:      newLCG(k.ID),
	}
}

// Update produces this tick's control input.
func (c *Controller) Update(dt float64, karts []*kart.Kart, tr *track.Track, boxes []items.Box, flies []butterfly.Butterfly) Output {
	k := c.kart

	// Under a gust there is nothing to decide: hold the wheel straight and
	// feather the throttle until it wears off.
	if k.GustLeft > 0 {
		return Output{Accel: c.profile.StunRecovery}
	}

	selfT := k.Checkpoint
	speedRatio := clamp(k.Speed/k.MaxSpeed, 0, 1)
	targetT := wrap01(selfT + lookAheadBase + lookAheadSpeed*speedRatio)

	c.decideIn -= dt
	if c.decideIn <= 0 {
		c.decideIn = 0.3 + c.rng.Next()*0.4
		c.targetLane = c.chooseLane(tr, karts, boxes, flies, selfT, targetT)
	}
	c.lane += (c.targetLane - c.lane) * math.Min(1, dt*3)

	target := tr.Point(targetT).Add(tr.Right(targetT).Scale(c.lane))
	to := target.Sub(k.Pos).Norm()
	crossErr := k.Forward().Cross(to)
	steer := clamp(crossErr*c.profile.SteerGain, -1, 1)

	c.updateDrift(crossErr)

	accel := c.profile.AccelMult
	boosted := k.Drift.State == kart.DriftBoosting || k.TurboLeft > 0
	if !boosted && k.Speed > k.MaxSpeed*c.profile.SpeedMult {
		accel = 0 // coast back under the cap, never brake for it
	}

	useItem := false
	if k.HeldItem != kart.ItemNone {
		c.itemHeld += dt
		if c.itemHeld >= c.profile.ItemReaction {
			useItem = true
			c.itemHeld = 0
		}
	} else {
		c.itemHeld = 0
	}

	return Output{Accel: accel, Steer: steer, DriftHeld: c.driftHeld, UseItem: useItem}
}

func (c *Controller) updateDrift(crossErr float64) {
	k := c.kart
	sharpness := math.Abs(crossErr)
	if !c.driftHeld {
		if c.profile.MaxDriftTier > 0 && sharpness > driftSharpness &&
			k.Speed > driftMinSpeed && c.rng.Next() < c.profile.DriftChance {
			c.driftHeld = true
			c.chargeTarget = driftChargeTargets[c.profile.MaxDriftTier]
		}
		return
	}
	if k.Drift.State != kart.DriftCharging {
		// Either the boost already fired or the drift never engaged.
		if k.Drift.State != kart.DriftIdle {
			c.driftHeld = false
		}
		return
	}
	if k.Drift.ChargeTime >= c.chargeTarget ||
		(sharpness < driftReleaseFlat && k.Drift.ChargeTime > driftMinCharge) {
		c.driftHeld = false
	}
}

// chooseLane picks the lateral offset for the next decision window:
// overtake first, then collectible seeking, then the tendency's default
// line, then side repulsion, and finally an on-road sanity check.
func (c *Controller) chooseLane(tr *track.Track, karts []*kart.Kart, boxes []items.Box, flies []butterfly.Butterfly, selfT, targetT float64) float64 {
	k := c.kart
	lane := 0.0
	chosen := false

	if ahead := c.kartDirectlyAhead(karts, selfT); ahead != nil && c.rng.Next() < c.profile.OvertakeBias {
		// Pass on the side opposite the kart ahead.
		side := -sign(lateralOf(tr, ahead.Pos))
		if side == 0 {
			side = pickSide(c.rng)
		}
		lane = side * overtakeLane
		chosen = true
	}

	if !chosen && c.rng.Next() < c.profile.SeekBias*seekAppetite(c.tendency) {
		if lat, ok := c.nearestCollectible(tr, boxes, flies, selfT); ok {
			lane = clamp(lat, -laneLimit, laneLimit)
			chosen = true
		}
	}

	if !chosen {
		lane = c.defaultLane(tr, karts, selfT)
	}

	myLat := lateralOf(tr, k.Pos)
	for _, o := range karts {
		if o.ID == k.ID {
			continue
		}
		if math.Abs(signedParamDelta(selfT, o.Checkpoint)) < besideParam && o.Pos.Sub(k.Pos).Len() < 5 {
			lane += sign(myLat-lateralOf(tr, o.Pos)) * repulsionPush
		}
	}

	// Verify the offset keeps the kart on the road: halve it once, then
	// give up and follow the centerline.
	probe := tr.Point(targetT).Add(tr.Right(targetT).Scale(lane))
	if !tr.OnRoad(probe) {
		lane /= 2
		probe = tr.Point(targetT).Add(tr.Right(targetT).Scale(lane))
		if !tr.OnRoad(probe) {
			lane = 0
		}
	}
	return lane
}

func (c *Controller) defaultLane(tr *track.Track, karts []*kart.Kart, selfT float64) float64 {
	curv := tr.Tangent(selfT).Cross(tr.Tangent(wrap01(selfT + 0.04)))
	switch c.tendency {
	case characters.TendencyAggressive:
		// Inside of the upcoming turn.
		return -sign(curv) * 2.2
	case characters.TendencyDefensive:
		return sign(curv) * 2.2
	case characters.TendencyDrifty:
		return (c.rng.Next()*2 - 1) * laneLimit
	case characters.TendencyPusher:
		if near := c.kartDirectlyAhead(karts, selfT); near != nil {
			return clamp(lateralOf(tr, near.Pos), -laneLimit, laneLimit)
		}
		return 0
	default:
		return (c.rng.Next()*2 - 1) * c.profile.LaneVariation
	}
}

func (c *Controller) kartDirectlyAhead(karts []*kart.Kart, selfT float64) *kart.Kart {
	var best *kart.Kart
	bestDelta := aheadWindow
	for _, o := range karts {
		if o.ID == c.kart.ID || o.Finished {
			continue
		}
		d := forwardParamDelta(selfT, o.Checkpoint)
		if d > 0 && d < bestDelta {
			bestDelta = d
			best = o
		}
	}
	return best
}

// nearestCollectible returns the centerline lateral offset of the closest
// ahead-of-travel item box or butterfly, when one exists in the window.
// Boxes are only interesting while the item slot is empty.
func (c *Controller) nearestCollectible(tr *track.Track, boxes []items.Box, flies []butterfly.Butterfly, selfT float64) (float64, bool) {
	bestDelta := seekWindow
	var bestLat float64
	found := false

	if c.kart.HeldItem == kart.ItemNone {
		for _, b := range boxes {
			if !b.Active {
				continue
			}
			t := tr.ClosestT(b.Pos)
			d := forwardParamDelta(selfT, t)
			if d > 0 && d < bestDelta {
				bestDelta = d
				bestLat = b.Pos.Sub(tr.Point(t)).Dot(tr.Right(t))
				found = true
			}
		}
	}
	for _, f := range flies {
		if f.Collected {
			continue
		}
		t := tr.ClosestT(f.Pos)
		d := forwardParamDelta(selfT, t)
		if d > 0 && d < bestDelta {
			bestDelta = d
			bestLat = f.Pos.Sub(tr.Point(t)).Dot(tr.Right(t))
			found = true
		}
	}
	return bestLat, found
}

func seekAppetite(t characters.Tendency) float64 {
	switch t {
	case characters.TendencyAggressive, characters.TendencyDrifty:
		return 0.6
	case characters.TendencyDefensive:
		return 0.8
	case characters.TendencyPusher:
		return 0.4
	default:
		return 1.0
	}
}

func lateralOf(tr *track.Track, pos types.Vec2) float64 {
	t := tr.ClosestT(pos)
	return pos.Sub(tr.Point(t)).Dot(tr.Right(t))
}

// forwardParamDelta is the forward distance from a to b in parameter space.
func forwardParamDelta(a, b float64) float64 {
	return math.Mod(b-a+1, 1)
}

// signedParamDelta maps the forward delta into (-0.5, 0.5].
func signedParamDelta(a, b float64) float64 {
	d := forwardParamDelta(a, b)
	if d > 0.5 {
		d -= 1
	}
	return d
}

func pickSide(g *lcg) float64 {
	if g.Next() < 0.5 {
		return -1
	}
	return 1
}

func wrap01(t float64) float64 {
	t = math.Mod(t, 1)
	if t < 0 {
		t += 1
	}
	return t
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
