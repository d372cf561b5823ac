package types

import "math"

// Vec2 is a point or direction on the ground plane.
type Vec2 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func (a Vec2) Add(b Vec2) Vec2      { return Vec2{a.X + b.X, a.Y + b.Y} }
func (a Vec2) Sub(b Vec2) Vec2      { return Vec2{a.X - b.X, a.Y - b.Y} }
func (a Vec2) Scale(s float64) Vec2 { return Vec2{a.X * s, a.Y * s} }
func (a Vec2) Dot(b Vec2) float64   { return a.X*b.X + a.Y*b.Y }
func (a Vec2) Cross(b Vec2) float64 { return a.X*b.Y - a.Y*b.X }
func (a Vec2) Len() float64         { return math.Hypot(a.X, a.Y) }

// Norm returns the unit vector, or the zero vector for degenerate input.
func (a Vec2) Norm() Vec2 {
	l := a.Len()
	if l < 1e-9 {
		return Vec2{}
	}
	return Vec2{a.X / l, a.Y / l}
}

// Vec3 is a position in authoring space (Z up, pinned to 0 during racing).
type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// RaceInput is the per-tick control state for the human kart.
type RaceInput struct {
	Forward  bool `json:"forward"`
	Backward bool `json:"backward"`
	Left     bool `json:"left"`
	Right    bool `json:"right"`
	Drift    bool `json:"drift"`
	Item     bool `json:"item"`
	Pause    bool `json:"pause"`
	Confirm  bool `json:"confirm"`
}

// KartSnapshot is the replicated per-kart state.
type KartSnapshot struct {
	ID          int     `json:"id"`
	Name        string  `json:"name"`
	CharacterID string  `json:"character_id"`
	IsHuman     bool    `json:"is_human"`
	Position    Vec2    `json:"position"`
	Heading     float64 `json:"heading"`
	Speed       float64 `json:"speed"`
	DriftTier   int     `json:"drift_tier"`
	Charging    bool    `json:"charging"`
	Boosting    bool    `json:"boosting"`
	HeldItem    string  `json:"held_item,omitempty"`
	Butterflies int     `json:"butterflies"`
	Lap         int     `json:"lap"`
	Checkpoint  float64 `json:"checkpoint"`
	Rank        int     `json:"rank"`
	Finished    bool    `json:"finished"`
	FinishTime  float64 `json:"finish_time,omitempty"`
	SpinAngle   float64 `json:"spin_angle,omitempty"`
	Gusted      bool    `json:"gusted,omitempty"`
	Wobbling    bool    `json:"wobbling,omitempty"`
	Turbo       bool    `json:"turbo,omitempty"`
}

// ItemBoxSnapshot is the replicated pickup box state.
type ItemBoxSnapshot struct {
	ID       int  `json:"id"`
	Position Vec2 `json:"position"`
	Active   bool `json:"active"`
}

// ButterflySnapshot is one uncollected butterfly instance.
type ButterflySnapshot struct {
	ID       int  `json:"id"`
	Position Vec2 `json:"position"`
}

// RaceEvent tracks state changes worth UI/audio feedback.
type RaceEvent struct {
	Type       string `json:"type"` // race_start|player_finished|race_finished|item_used|obstacle_hit
	KartID     int    `json:"kart_id,omitempty"`
	Position   int    `json:"position,omitempty"`
	Message    string `json:"message,omitempty"`
	OccurredMS int64  `json:"occurred_ms"`
}

// RaceSnapshot is replicated to all clients after each full tick.
type RaceSnapshot struct {
	RaceID      string              `json:"race_id"`
	Tick        uint64              `json:"tick"`
	Phase       string              `json:"phase"` // countdown|racing|finished
	Clock       float64             `json:"clock"`
	Countdown   float64             `json:"countdown"`
	Karts       []KartSnapshot      `json:"karts"`
	Boxes       []ItemBoxSnapshot   `json:"boxes"`
	Butterflies []ButterflySnapshot `json:"butterflies"`
	Events      []RaceEvent         `json:"events,omitempty"`
	Toast       string              `json:"toast,omitempty"`
}

// ClientEnvelope is sent from client to server.
type ClientEnvelope struct {
	Type  string     `json:"type"` // hello|input|ping
	Input *RaceInput `json:"input,omitempty"`
}

// ServerEnvelope is sent from server to client.
type ServerEnvelope struct {
	Type     string        `json:"type"` // welcome|state|pong|error
	Tick     uint64        `json:"tick,omitempty"`
	State    *RaceSnapshot `json:"state,omitempty"`
	ServerMS int64         `json:"server_ms,omitempty"`
	Message  string        `json:"message,omitempty"`
}
