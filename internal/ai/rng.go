package ai

import "math"

// lcg is the deterministic per-kart generator. Seeding from the kart id with
// these exact constants keeps bot behavior reproducible across runs and
// ports: same kart, same tick sequence, same decisions.
type lcg struct {
	state float64
}

func newLCG(kartID int) *lcg {
	return &lcg{state: float64(kartID) * 137.5}
}

// Next returns the next value in [0,1).
func (g *lcg) Next() float64 {
	g.state = math.Mod(g.state*9301+49297, 233280)
	return g.state / 233280
}
