package ai

import "fmt"

// Level selects one of the three opponent difficulty profiles.
type Level int

const (
	Chill Level = iota
	Standard
	Mean
)

func (l Level) String() string {
	switch l {
	case Chill:
		return "chill"
	case Mean:
		return "mean"
	default:
		return "standard"
	}
}

// ParseLevel maps a config string to a Level.
func ParseLevel(s string) (Level, error) {
	switch s {
	case "chill":
		return Chill, nil
	case "standard", "":
		return Standard, nil
	case "mean":
		return Mean, nil
	default:
		return Standard, fmt.Errorf("unknown difficulty %q", s)
	}
}

// Profile is the tuning set that makes the three difficulties feel different
// without separate code paths.
type Profile struct {
	SpeedMult     float64 // soft cap fraction of the kart's max speed
	AccelMult     float64
	MaxDriftTier  int
	DriftChance   float64 // per-tick draw threshold to begin a drift
	ItemReaction  float64 // seconds of holding an item before using it
	LaneVariation float64 // default lane spread in world units
	OvertakeBias  float64 // chance to commit to an overtake line
	SeekBias      float64 // chance to chase a collectible
	StunRecovery  float64 // throttle fraction while gusted
	SteerGain     float64
}

var profiles = map[Level]Profile{
	Chill: {
		SpeedMult:     0.82,
		AccelMult:     0.85,
		MaxDriftTier:  1,
		DriftChance:   0.010,
		ItemReaction:  2.2,
		LaneVariation: 2.4,
		OvertakeBias:  0.25,
		SeekBias:      0.35,
		StunRecovery:  0.4,
		SteerGain:     2.2,
	},
	Standard: {
		SpeedMult:     0.92,
		AccelMult:     1.0,
		MaxDriftTier:  2,
		DriftChance:   0.025,
		ItemReaction:  1.2,
		LaneVariation: 1.8,
		OvertakeBias:  0.55,
		SeekBias:      0.55,
		StunRecovery:  0.7,
		SteerGain:     2.8,
	},
	Mean: {
		SpeedMult:     1.0,
		AccelMult:     1.0,
		MaxDriftTier:  3,
		DriftChance:   0.045,
		ItemReaction:  0.5,
		LaneVariation: 1.2,
		OvertakeBias:  0.85,
		SeekBias:      0.7,
		StunRecovery:  1.0,
		SteerGain:     3.4,
	},
}

// ProfileFor returns the tuning set for a level.
func ProfileFor(l Level) Profile {
	if p, ok := profiles[l]; ok {
		return p
	}
	return profiles[Standard]
}
