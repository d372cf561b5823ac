// Package characters holds the fixed playable roster. Stats use a 1-6 scale
// that the kart package turns into physics multipliers.
package characters

// Tendency selects the lane strategy an AI-controlled kart drives with.
type Tendency int

const (
	TendencyBalanced Tendency = iota
	TendencyAggressive
	TendencyDefensive
	TendencyDrifty
	TendencyPusher
)

func (t Tendency) String() string {
	switch t {
	case TendencyAggressive:
		return "aggressive"
	case TendencyDefensive:
		return "defensive"
	case TendencyDrifty:
		return "drifty"
	case TendencyPusher:
		return "pusher"
	default:
		return "balanced"
	}
}

// Character is one roster entry. Records are read-only.
type Character struct {
	ID       string
	Name     string
	Speed    int // 1-6
	Accel    int // 1-6
	Handling int // 1-6
	Weight   int // 1-6
	Tendency Tendency
}

var roster = []Character{
	{ID: "sparkle", Name: "Sparkle", Speed: 4, Accel: 4, Handling: 4, Weight: 3, Tendency: TendencyBalanced},
	{ID: "bruno", Name: "Bruno", Speed: 5, Accel: 2, Handling: 2, Weight: 6, Tendency: TendencyPusher},
	{ID: "poppy", Name: "Poppy", Speed: 3, Accel: 5, Handling: 5, Weight: 2, Tendency: TendencyDrifty},
	{ID: "dash", Name: "Dash", Speed: 6, Accel: 3, Handling: 3, Weight: 4, Tendency: TendencyAggressive},
	{ID: "luna", Name: "Luna", Speed: 3, Accel: 4, Handling: 6, Weight: 2, Tendency: TendencyDefensive},
	{ID: "pepper", Name: "Pepper", Speed: 4, Accel: 5, Handling: 3, Weight: 3, Tendency: TendencyAggressive},
	{ID: "mochi", Name: "Mochi", Speed: 2, Accel: 6, Handling: 4, Weight: 1, Tendency: TendencyDrifty},
	{ID: "ziggy", Name: "Ziggy", Speed: 5, Accel: 3, Handling: 4, Weight: 5, Tendency: TendencyBalanced},
}

// Roster returns a copy of the full character list.
func Roster() []Character {
	out := make([]Character, len(roster))
	copy(out, roster)
	return out
}

// ByID resolves a character id, falling back to the first roster entry for
// unknown ids so a race can always be assembled.
func ByID(id string) Character {
	for _, c := range roster {
		if c.ID == id {
			return c
		}
	}
	return roster[0]
}
