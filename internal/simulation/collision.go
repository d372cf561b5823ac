package simulation

import (
	"math"

	"github.com/iOvergaard/Unikart/internal/kart"
	"github.com/iOvergaard/Unikart/internal/track"
)

const (
	// KartRadius is the collision radius of every kart.
	KartRadius = 1.1

	// BarrierSpeedFloor and BumpSpeedFloor keep karts moving after contact.
	// A stalled kart is never stuck; that is an arcade-feel guarantee.
	BarrierSpeedFloor = 3.0
	BumpSpeedFloor    = 2.0

	barrierPushForce = 14.0
	barrierSpeedLoss = 0.04 // per-60Hz-tick loss at a fully head-on impact
	bumpTransfer     = 0.5  // fraction of relative speed exchanged
	minSeparation    = 1e-6
)

// barrierHits is filled with the ids of karts pushed by the soft wall so the
// caller can surface "obstacle hit" feedback.
type collisionReport struct {
	BarrierHits []int
}

// resolveCollisions runs kart-barrier then pairwise kart-kart resolution.
// Pure over the kart list and track; pair order is fixed (i<j) so results
// are reproducible given identical input state. Kart-kart contact is skipped
// for the grace window at race start to avoid start-grid pileups.
func resolveCollisions(karts []*kart.Kart, tr *track.Track, raceTime, grace, dt float64) collisionReport {
	var rep collisionReport

	for _, k := range karts {
		push, ok := tr.BarrierPush(k.Pos)
		if !ok {
			continue
		}
		k.Pos = k.Pos.Add(push.Scale(barrierPushForce * dt))
		// Grazing barely slows you; square-on costs real speed.
		headOn := math.Abs(k.Forward().Dot(push))
		k.Speed *= math.Pow(1-headOn*barrierSpeedLoss, dt*60)
		if k.Speed < BarrierSpeedFloor {
			k.Speed = BarrierSpeedFloor
		}
		rep.BarrierHits = append(rep.BarrierHits, k.ID)
	}

	if raceTime < grace {
		return rep
	}

	for i := 0; i < len(karts); i++ {
		for j := i + 1; j < len(karts); j++ {
			a, b := karts[i], karts[j]
			delta := b.Pos.Sub(a.Pos)
			dist := delta.Len()
			if dist < minSeparation {
				// Karts exactly atop each other: skip rather than emit NaNs.
				continue
			}
			minDist := 2 * KartRadius
			if dist >= minDist {
				continue
			}
			n := delta.Scale(1 / dist)
			overlap := minDist - dist
			total := a.Weight + b.Weight
			aShare := b.Weight / total // heavier kart moves less
			bShare := a.Weight / total
			a.Pos = a.Pos.Sub(n.Scale(overlap * aShare))
			b.Pos = b.Pos.Add(n.Scale(overlap * bShare))

			rel := a.Speed - b.Speed
			a.Speed -= rel * bumpTransfer * aShare
			b.Speed += rel * bumpTransfer * bShare
			if a.Speed < BumpSpeedFloor {
				a.Speed = BumpSpeedFloor
			}
			if b.Speed < BumpSpeedFloor {
				b.Speed = BumpSpeedFloor
			}
		}
	}
	return rep
}
