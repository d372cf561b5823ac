// Package items runs the pickup-box lifecycle, position-weighted item rolls
// and targeted effect application.
package items

import (
	"fmt"
	"math/rand"

	"github.com/iOvergaard/Unikart/internal/kart"
	"github.com/iOvergaard/Unikart/internal/shared/types"
	"github.com/iOvergaard/Unikart/internal/track"
)

const (
	// RespawnTime is the countdown before a consumed box reactivates.
	RespawnTime = 5.0

	// PickupRadius is the box proximity threshold.
	PickupRadius = 1.6

	boxesPerZone = 3
)

// backWeight biases an item toward lower-ranked racers. Higher back-weight
// means the item shows up more often at the back of the field.
var backWeights = map[kart.ItemKind]float64{
	kart.ItemGust:   0.8,
	kart.ItemWobble: 0.5,
	kart.ItemTurbo:  1.4,
}

var rollOrder = [...]kart.ItemKind{kart.ItemGust, kart.ItemWobble, kart.ItemTurbo}

// Box is one pickup entity. Ids are monotonic and never reused in a race.
type Box struct {
	ID          int
	Pos         types.Vec2
	Active      bool
	RespawnLeft float64
}

// System owns the boxes for one race.
type System struct {
	boxes []Box
	rng   *rand.Rand
}

// NewSystem places boxes at each item zone midpoint, three across the road.
func NewSystem(tr *track.Track, rng *rand.Rand) *System {
	s := &System{rng: rng}
	nextID := 0
	for _, z := range tr.Zones() {
		if z.Type != track.ZoneItem {
			continue
		}
		mid := z.Start + (z.End-z.Start)/2
		if z.End < z.Start {
			mid = z.Start + (z.End+1-z.Start)/2
		}
		center := tr.Point(mid)
		right := tr.Right(mid)
		spread := tr.Width(mid) / 4
		for i := 0; i < boxesPerZone; i++ {
			lat := float64(i-1) * spread
			s.boxes = append(s.boxes, Box{
				ID:     nextID,
				Pos:    center.Add(right.Scale(lat)),
				Active: true,
			})
			nextID++
		}
	}
	return s
}

// Update ticks respawn timers and hands rolled items to empty-slotted karts
// that touch an active box. A kart already holding an item never rolls again
// and never consumes a box.
func (s *System) Update(dt float64, karts []*kart.Kart, positions []int) {
	for i := range s.boxes {
		b := &s.boxes[i]
		if !b.Active {
			b.RespawnLeft -= dt
			if b.RespawnLeft <= 0 {
				b.RespawnLeft = 0
				b.Active = true
			}
		}
	}
	for _, k := range karts {
		if k.HeldItem != kart.ItemNone || k.Finished {
			continue
		}
		for i := range s.boxes {
			b := &s.boxes[i]
			if !b.Active {
				continue
			}
			d := b.Pos.Sub(k.Pos)
			if d.X*d.X+d.Y*d.Y >= PickupRadius*PickupRadius {
				continue
			}
			b.Active = false
			b.RespawnLeft = RespawnTime
			rank := 0
			if k.ID < len(positions) {
				rank = positions[k.ID]
			}
			k.HeldItem = s.RollFor(rank)
			break
		}
	}
}

// RollFor draws an item kind weighted by race position: each item's weight is
// 1 + backWeight*(rank/7)*2, so last place doubles-and-scales every
// back-weight relative to first.
func (s *System) RollFor(rank int) kart.ItemKind {
	weights := make([]float64, len(rollOrder))
	total := 0.0
	for i, it := range rollOrder {
		w := 1 + backWeights[it]*(float64(rank)/7)*2
		weights[i] = w
		total += w
	}
	roll := s.rng.Float64() * total
	acc := 0.0
	for i, it := range rollOrder {
		acc += weights[i]
		if roll < acc {
			return it
		}
	}
	return rollOrder[len(rollOrder)-1]
}

// UseResult describes an applied item effect for event/toast surfacing.
type UseResult struct {
	Kind   kart.ItemKind
	User   int
	Target int // -1 when the effect is self-only or no target was found
	Hit    bool
}

func (r UseResult) String() string {
	if !r.Hit {
		return fmt.Sprintf("%s fizzled", r.Kind)
	}
	if r.Target < 0 {
		return fmt.Sprintf("%s used", r.Kind)
	}
	return fmt.Sprintf("%s hit kart %d", r.Kind, r.Target)
}

// Use consumes the user's held item and applies its effect. Gust and wobble
// target the kart ranked exactly one position better; a leader targets a
// uniformly random other kart instead. A missing target degrades to a no-op.
func Use(user *kart.Kart, karts []*kart.Kart, positions []int, rng *rand.Rand) UseResult {
	item := user.HeldItem
	user.HeldItem = kart.ItemNone
	res := UseResult{Kind: item, User: user.ID, Target: -1}
	switch item {
	case kart.ItemTurbo:
		user.ApplyTurbo()
		res.Hit = true
	case kart.ItemGust, kart.ItemWobble:
		target := findTargetAhead(user, karts, positions, rng)
		if target == nil {
			return res
		}
		if item == kart.ItemGust {
			target.ApplyGust()
		} else {
			target.ApplyWobble()
		}
		res.Target = target.ID
		res.Hit = true
	}
	return res
}

func findTargetAhead(user *kart.Kart, karts []*kart.Kart, positions []int, rng *rand.Rand) *kart.Kart {
	if user.ID >= len(positions) {
		return nil
	}
	rank := positions[user.ID]
	if rank == 0 {
		// Nobody ahead of the leader; pick on someone at random.
		others := make([]*kart.Kart, 0, len(karts))
		for _, k := range karts {
			if k.ID != user.ID {
				others = append(others, k)
			}
		}
		if len(others) == 0 {
			return nil
		}
		return others[rng.Intn(len(others))]
	}
	for _, k := range karts {
		if k.ID != user.ID && k.ID < len(positions) && positions[k.ID] == rank-1 {
			return k
		}
	}
	return nil
}

// Boxes returns a copy of the box list for snapshots.
func (s *System) Boxes() []Box {
	out := make([]Box, len(s.boxes))
	copy(out, s.boxes)
	return out
}
