// Package butterfly runs the passive collectible layer: clusters spawn along
// the track, karts sweep them up by proximity, and counts feed final scores.
package butterfly

import (
	"math/rand"

	"github.com/iOvergaard/Unikart/internal/kart"
	"github.com/iOvergaard/Unikart/internal/shared/types"
	"github.com/iOvergaard/Unikart/internal/track"
)

const (
	initialClusters = 6
	clusterSizeMin  = 3
	clusterSizeMax  = 5

	// CollectRadius is the per-instance pickup distance.
	CollectRadius = 1.5

	spawnIntervalMin = 8.0
	spawnIntervalMax = 15.0

	clusterLateralJitter = 3.0
	clusterForwardJitter = 0.012 // in track parameter units
)

// positionBonus is indexed by 0-based final rank; out-of-range ranks score 0.
var positionBonus = [...]int{10, 7, 5, 4, 3, 2, 1, 0}

// Butterfly is one collectible instance. Ids are monotonic within a race.
type Butterfly struct {
	ID        int
	Pos       types.Vec2
	Collected bool
}

// System owns all butterfly instances for one race.
type System struct {
	tr      *track.Track
	rng     *rand.Rand
	all     []Butterfly
	nextID  int
	spawnIn float64

	collected []int
	spawned   []Butterfly
}

// NewSystem seeds evenly spaced jittered clusters along the spline.
func NewSystem(tr *track.Track, rng *rand.Rand) *System {
	s := &System{tr: tr, rng: rng}
	s.rearmSpawnTimer()
	for i := 0; i < initialClusters; i++ {
		s.spawnCluster(float64(i) / initialClusters)
	}
	// Initial population is part of the first snapshot, not a spawn diff.
	s.spawned = s.spawned[:0]
	return s
}

// Update ticks the periodic spawn timer and collects instances touched by any
// kart. O(karts x instances), fine at this scale.
func (s *System) Update(dt float64, karts []*kart.Kart) {
	s.spawnIn -= dt
	if s.spawnIn <= 0 {
		s.spawnCluster(s.rng.Float64())
		s.rearmSpawnTimer()
	}
	for i := range s.all {
		b := &s.all[i]
		if b.Collected {
			continue
		}
		for _, k := range karts {
			d := b.Pos.Sub(k.Pos)
			if d.X*d.X+d.Y*d.Y < CollectRadius*CollectRadius {
				b.Collected = true
				k.Butterflies++
				s.collected = append(s.collected, b.ID)
				break
			}
		}
	}
}

func (s *System) spawnCluster(t float64) {
	count := clusterSizeMin + s.rng.Intn(clusterSizeMax-clusterSizeMin+1)
	for i := 0; i < count; i++ {
		jt := t + (s.rng.Float64()*2-1)*clusterForwardJitter
		lat := (s.rng.Float64()*2 - 1) * clusterLateralJitter
		pos := s.tr.Point(jt).Add(s.tr.Right(jt).Scale(lat))
		b := Butterfly{ID: s.nextID, Pos: pos}
		s.nextID++
		s.all = append(s.all, b)
		s.spawned = append(s.spawned, b)
	}
}

func (s *System) rearmSpawnTimer() {
	s.spawnIn = spawnIntervalMin + s.rng.Float64()*(spawnIntervalMax-spawnIntervalMin)
}

// Alive returns all uncollected instances.
func (s *System) Alive() []Butterfly {
	out := make([]Butterfly, 0, len(s.all))
	for _, b := range s.all {
		if !b.Collected {
			out = append(out, b)
		}
	}
	return out
}

// DrainCollected returns ids collected since the last drain. Rendering uses
// this instead of push events.
func (s *System) DrainCollected() []int {
	out := s.collected
	s.collected = nil
	return out
}

// DrainSpawned returns instances spawned since the last drain.
func (s *System) DrainSpawned() []Butterfly {
	out := s.spawned
	s.spawned = nil
	return out
}

// Score is the final score contribution: rank bonus plus butterfly count.
// Ranks beyond the table earn no bonus.
func Score(position, butterflies int) int {
	bonus := 0
	if position >= 0 && position < len(positionBonus) {
		bonus = positionBonus[position]
	}
	return bonus + butterflies
}
