package ai

import (
	"math"
	"testing"

	"github.com/iOvergaard/Unikart/internal/characters"
	"github.com/iOvergaard/Unikart/internal/kart"
	"github.com/iOvergaard/Unikart/internal/track"
)

func newTestTrack(t *testing.T) *track.Track {
	t.Helper()
	tr, err := track.New(track.DefaultDefinition(), false)
	if err != nil {
		t.Fatalf("building track: %v", err)
	}
	return tr
}

func seatedKart(id int, tr *track.Track, at float64) *kart.Kart {
	k := kart.New(id, characters.Roster()[id%8], false)
	tangent := tr.Tangent(at)
	k.PlaceOnGrid(tr.Point(at), math.Atan2(tangent.Y, tangent.X), at)
	return k
}

func TestLCGIsDeterministic(t *testing.T) {
	a := newLCG(3)
	b := newLCG(3)
	for i := 0; i < 10; i++ {
		va, vb := a.Next(), b.Next()
		if va != vb {
			t.Fatalf("draw %d diverged: %v vs %v", i, va, vb)
		}
		if va < 0 || va >= 1 {
			t.Fatalf("draw %d = %v, want [0,1)", i, va)
		}
	}

	c := newLCG(4)
	same := true
	x := newLCG(3)
	for i := 0; i < 10; i++ {
		if x.Next() != c.Next() {
			same = false
		}
	}
	if same {
		t.Errorf("different kart ids produced identical sequences")
	}
}

func TestParseLevel(t *testing.T) {
	cases := []struct {
		in   string
		want Level
		err  bool
	}{
		{"chill", Chill, false},
		{"standard", Standard, false},
		{"", Standard, false},
		{"mean", Mean, false},
		{"brutal", Standard, true},
	}
	for _, c := range cases {
		got, err := ParseLevel(c.in)
		if (err != nil) != c.err {
			t.Errorf("ParseLevel(%q) err = %v, want err=%v", c.in, err, c.err)
		}
		if got != c.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestProfilesScaleWithLevel(t *testing.T) {
	chill, std, mean := ProfileFor(Chill), ProfileFor(Standard), ProfileFor(Mean)
	if !(chill.SpeedMult < std.SpeedMult && std.SpeedMult < mean.SpeedMult) {
		t.Errorf("speed caps not ordered: %v %v %v", chill.SpeedMult, std.SpeedMult, mean.SpeedMult)
	}
	if !(chill.MaxDriftTier < std.MaxDriftTier && std.MaxDriftTier < mean.MaxDriftTier) {
		t.Errorf("drift tiers not ordered: %d %d %d", chill.MaxDriftTier, std.MaxDriftTier, mean.MaxDriftTier)
	}
	if !(mean.ItemReaction < std.ItemReaction && std.ItemReaction < chill.ItemReaction) {
		t.Errorf("item reactions not ordered: %v %v %v", chill.ItemReaction, std.ItemReaction, mean.ItemReaction)
	}
}

func TestGustedKartCoasts(t *testing.T) {
	tr := newTestTrack(t)
	k := seatedKart(0, tr, 0.1)
	k.GustLeft = 1.0
	ctl := NewController(k, Standard)

	out := ctl.Update(1.0/60, []*kart.Kart{k}, tr, nil, nil)
	if out.Accel != ProfileFor(Standard).StunRecovery {
		t.Errorf("gusted accel = %v, want stun recovery %v", out.Accel, ProfileFor(Standard).StunRecovery)
	}
	if out.Steer != 0 || out.DriftHeld || out.UseItem {
		t.Errorf("gusted kart should only feather the throttle, got %+v", out)
	}
}

func TestOutputStaysBounded(t *testing.T) {
	tr := newTestTrack(t)
	k := seatedKart(1, tr, 0.05)
	ctl := NewController(k, Mean)
	field := []*kart.Kart{k}

	for i := 0; i < 300; i++ {
		out := ctl.Update(1.0/60, field, tr, nil, nil)
		if out.Steer < -1 || out.Steer > 1 {
			t.Fatalf("tick %d: steer %v out of [-1,1]", i, out.Steer)
		}
		if out.Accel < 0 || out.Accel > 1 {
			t.Fatalf("tick %d: accel %v out of [0,1]", i, out.Accel)
		}
		onRoad := tr.OnRoad(k.Pos)
		inZone := tr.InZone(k.Pos, track.ZoneDrift)
		k.Integrate(1.0/60, out.Accel, out.Steer, out.DriftHeld, onRoad, inZone)
		k.UpdateProgress(tr.ClosestT(k.Pos), float64(i)/60)
	}
	if k.Speed <= 1 {
		t.Fatalf("bot never got moving, speed = %v", k.Speed)
	}
}

func TestCoastsAboveSpeedCap(t *testing.T) {
	tr := newTestTrack(t)
	k := seatedKart(2, tr, 0.1)
	k.Speed = k.MaxSpeed // well past every profile's soft cap
	ctl := NewController(k, Chill)

	out := ctl.Update(1.0/60, []*kart.Kart{k}, tr, nil, nil)
	if out.Accel != 0 {
		t.Errorf("above the cap accel = %v, want coasting", out.Accel)
	}
}

func TestItemUseAfterReaction(t *testing.T) {
	tr := newTestTrack(t)
	k := seatedKart(3, tr, 0.1)
	k.HeldItem = kart.ItemTurbo
	ctl := NewController(k, Mean) // 0.5s reaction

	used := false
	for i := 0; i < 60; i++ {
		out := ctl.Update(1.0/60, []*kart.Kart{k}, tr, nil, nil)
		if out.UseItem {
			used = true
			break
		}
	}
	if !used {
		t.Fatalf("bot held its item past the reaction window")
	}
}
