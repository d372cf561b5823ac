// Package track builds a closed parametric racing line from authored control
// points and answers the geometric queries the simulation needs: curve
// sampling, road width, zone membership and soft-wall pushes.
package track

import (
	"fmt"
	"math"

	"github.com/iOvergaard/Unikart/internal/shared/types"
)

const (
	// closestSamples is the dense-scan resolution for ClosestT. The curve is
	// smooth and looped, so bounded-error proximity is enough for every
	// consumer.
	closestSamples = 400

	// BarrierMargin is the forgiving band beyond the road edge before the
	// soft wall starts pushing back.
	BarrierMargin = 1.5
)

// ZoneType tags a parametric interval with a gameplay effect.
type ZoneType int

const (
	ZoneDrift ZoneType = iota
	ZoneItem
)

func (z ZoneType) String() string {
	if z == ZoneItem {
		return "item"
	}
	return "drift"
}

// Zone is a half-open interval [Start, End) of the track parameter.
type Zone struct {
	Start float64
	End   float64
	Type  ZoneType
}

// Track is immutable after construction.
type Track struct {
	name    string
	points  []types.Vec2
	widths  []float64
	zones   []Zone
	startT  float64
	samples []sample
	length  float64
}

type sample struct {
	t   float64
	pos types.Vec2
}

// New builds a track from a definition. The mirrored variant flips the
// lateral axis, producing the same circuit driven the other way around
// visually while keeping the parameter direction.
func New(def Definition, mirrored bool) (*Track, error) {
	if len(def.Points) < 4 {
		return nil, fmt.Errorf("track %q: need at least 4 control points, got %d", def.Name, len(def.Points))
	}
	tr := &Track{
		name:   def.Name,
		points: make([]types.Vec2, len(def.Points)),
		widths: make([]float64, len(def.Points)),
		startT: def.StartT,
	}
	for i, p := range def.Points {
		if p.Width <= 0 {
			return nil, fmt.Errorf("track %q: point %d has non-positive width", def.Name, i)
		}
		y := p.Y
		if mirrored {
			y = -y
		}
		tr.points[i] = types.Vec2{X: p.X, Y: y}
		tr.widths[i] = p.Width
	}
	for _, z := range def.Zones {
		zt, err := parseZoneType(z.Type)
		if err != nil {
			return nil, fmt.Errorf("track %q: %w", def.Name, err)
		}
		if z.Start < 0 || z.Start >= 1 || z.End < 0 || z.End >= 1 {
			return nil, fmt.Errorf("track %q: zone bounds must lie in [0,1)", def.Name)
		}
		tr.zones = append(tr.zones, Zone{Start: z.Start, End: z.End, Type: zt})
	}

	tr.samples = make([]sample, closestSamples)
	prev := tr.Point(0)
	for i := 0; i < closestSamples; i++ {
		t := float64(i) / closestSamples
		p := tr.Point(t)
		tr.samples[i] = sample{t: t, pos: p}
		tr.length += p.Sub(prev).Len()
		prev = p
	}
	tr.length += tr.Point(0).Sub(prev).Len()
	return tr, nil
}

// Name returns the display name from the definition.
func (tr *Track) Name() string { return tr.name }

// StartT is the parameter of the start/finish line.
func (tr *Track) StartT() float64 { return tr.startT }

// Length approximates the centerline length in world units.
func (tr *Track) Length() float64 { return tr.length }

// Zones returns the zone list for placement logic.
func (tr *Track) Zones() []Zone {
	out := make([]Zone, len(tr.zones))
	copy(out, tr.zones)
	return out
}

// Point evaluates the closed Catmull-Rom curve at t.
func (tr *Track) Point(t float64) types.Vec2 {
	i, u := tr.segment(t)
	n := len(tr.points)
	p0 := tr.points[(i-1+n)%n]
	p1 := tr.points[i]
	p2 := tr.points[(i+1)%n]
	p3 := tr.points[(i+2)%n]
	return catmullRom(p0, p1, p2, p3, u)
}

// Tangent returns the unit forward direction at t.
func (tr *Track) Tangent(t float64) types.Vec2 {
	i, u := tr.segment(t)
	n := len(tr.points)
	p0 := tr.points[(i-1+n)%n]
	p1 := tr.points[i]
	p2 := tr.points[(i+1)%n]
	p3 := tr.points[(i+2)%n]
	d := catmullRomDeriv(p0, p1, p2, p3, u).Norm()
	if d.Len() < 0.5 {
		// Degenerate segment, fall back to the chord.
		d = p2.Sub(p1).Norm()
		if d.Len() < 0.5 {
			d = types.Vec2{X: 1}
		}
	}
	return d
}

// Right returns the unit lateral direction at t; positive lateral offsets lie
// to the right of the travel direction.
func (tr *Track) Right(t float64) types.Vec2 {
	f := tr.Tangent(t)
	return types.Vec2{X: f.Y, Y: -f.X}
}

// Width linearly interpolates road width between the two nearest control
// points by fractional index. Coarse on purpose, matching point density.
func (tr *Track) Width(t float64) float64 {
	n := len(tr.points)
	f := wrap01(t) * float64(n)
	i := int(f) % n
	u := f - math.Floor(f)
	return tr.widths[i]*(1-u) + tr.widths[(i+1)%n]*u
}

// ClosestT returns the parameter whose curve point is nearest to pos, at the
// precomputed sampling resolution.
func (tr *Track) ClosestT(pos types.Vec2) float64 {
	best := 0
	bestD := math.MaxFloat64
	for i := range tr.samples {
		d := tr.samples[i].pos.Sub(pos)
		d2 := d.X*d.X + d.Y*d.Y
		if d2 < bestD {
			bestD = d2
			best = i
		}
	}
	return tr.samples[best].t
}

// LateralOffset is the signed perpendicular distance from the centerline at
// the nearest parameter. Positive means right of the travel direction.
func (tr *Track) LateralOffset(pos types.Vec2) float64 {
	t := tr.ClosestT(pos)
	return pos.Sub(tr.Point(t)).Dot(tr.Right(t))
}

// OnRoad reports whether pos lies within the road surface.
func (tr *Track) OnRoad(pos types.Vec2) bool {
	t := tr.ClosestT(pos)
	lat := pos.Sub(tr.Point(t)).Dot(tr.Right(t))
	return math.Abs(lat) < tr.Width(t)/2
}

// InZone reports whether the nearest parameter falls inside a zone of the
// given type.
func (tr *Track) InZone(pos types.Vec2, zt ZoneType) bool {
	t := tr.ClosestT(pos)
	return tr.TInZone(t, zt)
}

// TInZone is the parametric form of InZone. Zones whose Start exceeds End
// wrap across the start line.
func (tr *Track) TInZone(t float64, zt ZoneType) bool {
	t = wrap01(t)
	for _, z := range tr.zones {
		if z.Type != zt {
			continue
		}
		if z.Start <= z.End {
			if t >= z.Start && t < z.End {
				return true
			}
		} else if t >= z.Start || t < z.End {
			return true
		}
	}
	return false
}

// BarrierPush returns a unit push vector toward the centerline when pos has
// strayed beyond the soft-wall band, and false when the kart is inside it.
func (tr *Track) BarrierPush(pos types.Vec2) (types.Vec2, bool) {
	t := tr.ClosestT(pos)
	center := tr.Point(t)
	lat := pos.Sub(center).Dot(tr.Right(t))
	if math.Abs(lat) <= tr.Width(t)/2+BarrierMargin {
		return types.Vec2{}, false
	}
	push := center.Sub(pos).Norm()
	if push.Len() < 0.5 {
		return types.Vec2{}, false
	}
	return push, true
}

func (tr *Track) segment(t float64) (int, float64) {
	n := len(tr.points)
	f := wrap01(t) * float64(n)
	i := int(f) % n
	return i, f - math.Floor(f)
}

func catmullRom(p0, p1, p2, p3 types.Vec2, u float64) types.Vec2 {
	u2 := u * u
	u3 := u2 * u
	return types.Vec2{
		X: 0.5 * (2*p1.X + (p2.X-p0.X)*u + (2*p0.X-5*p1.X+4*p2.X-p3.X)*u2 + (3*p1.X-p0.X-3*p2.X+p3.X)*u3),
		Y: 0.5 * (2*p1.Y + (p2.Y-p0.Y)*u + (2*p0.Y-5*p1.Y+4*p2.Y-p3.Y)*u2 + (3*p1.Y-p0.Y-3*p2.Y+p3.Y)*u3),
	}
}

func catmullRomDeriv(p0, p1, p2, p3 types.Vec2, u float64) types.Vec2 {
	u2 := u * u
	return types.Vec2{
		X: 0.5 * ((p2.X - p0.X) + 2*(2*p0.X-5*p1.X+4*p2.X-p3.X)*u + 3*(3*p1.X-p0.X-3*p2.X+p3.X)*u2),
		Y: 0.5 * ((p2.Y - p0.Y) + 2*(2*p0.Y-5*p1.Y+4*p2.Y-p3.Y)*u + 3*(3*p1.Y-p0.Y-3*p2.Y+p3.Y)*u2),
	}
}

func wrap01(t float64) float64 {
	t = math.Mod(t, 1)
	if t < 0 {
		t += 1
	}
	return t
}
