package kart

// DriftState is the phase of the charge/boost/cooldown cycle.
type DriftState int

const (
	DriftIdle DriftState = iota
	DriftCharging
	DriftBoosting
	DriftCooldown
)

func (s DriftState) String() string {
	switch s {
	case DriftCharging:
		return "charging"
	case DriftBoosting:
		return "boosting"
	case DriftCooldown:
		return "cooldown"
	default:
		return "idle"
	}
}

const (
	// Charge time thresholds for tiers 1..3.
	driftTier1Charge = 0.35
	driftTier2Charge = 0.70
	driftTier3Charge = 1.05

	// DriftZoneChargeMult speeds up charging inside drift zones.
	DriftZoneChargeMult = 1.5

	// BoostSpeedMult applies only while boosting.
	BoostSpeedMult = 1.35

	driftCooldownTime = 0.15
)

// Boost duration per tier; tier 0 releases straight into cooldown.
var boostDurations = [4]float64{0, 0.7, 1.1, 1.5}

// DriftBoost is the per-kart drift sub-state. Owned exclusively by its kart.
type DriftBoost struct {
	State        DriftState
	Tier         int
	ChargeTime   float64
	BoostLeft    float64
	CooldownLeft float64
	Direction    float64 // -1/0/1, captured at drift start
}

// Start begins charging. Only valid from idle; the caller gates on speed.
func (d *DriftBoost) Start(direction float64) bool {
	if d.State != DriftIdle {
		return false
	}
	d.State = DriftCharging
	d.Tier = 0
	d.ChargeTime = 0
	d.Direction = direction
	return true
}

// Update advances the cycle by one tick.
func (d *DriftBoost) Update(dt float64, inDriftZone bool) {
	switch d.State {
	case DriftCharging:
		rate := 1.0
		if inDriftZone {
			rate = DriftZoneChargeMult
		}
		d.ChargeTime += dt * rate
		// Highest threshold first so a large dt can jump straight to tier 3.
		switch {
		case d.ChargeTime >= driftTier3Charge:
			d.Tier = 3
		case d.ChargeTime >= driftTier2Charge:
			d.Tier = 2
		case d.ChargeTime >= driftTier1Charge:
			d.Tier = 1
		}
	case DriftBoosting:
		d.BoostLeft -= dt
		if d.BoostLeft <= 0 {
			d.BoostLeft = 0
			d.State = DriftCooldown
			d.CooldownLeft = driftCooldownTime
		}
	case DriftCooldown:
		d.CooldownLeft -= dt
		if d.CooldownLeft <= 0 {
			d.reset()
		}
	}
}

// Release is the sole charging->boosting/cooldown transition. A tier-0
// release skips straight to a zero-length cooldown.
func (d *DriftBoost) Release() {
	if d.State != DriftCharging {
		return
	}
	if d.Tier > 0 {
		d.State = DriftBoosting
		d.BoostLeft = boostDurations[d.Tier]
		return
	}
	d.State = DriftCooldown
	d.CooldownLeft = 0
	d.Tier = 0
	d.ChargeTime = 0
	d.Direction = 0
}

// Cancel forces cooldown from any state, e.g. when hit by an item. Safe to
// call repeatedly.
func (d *DriftBoost) Cancel() {
	d.State = DriftCooldown
	d.CooldownLeft = driftCooldownTime
	d.Tier = 0
	d.ChargeTime = 0
	d.BoostLeft = 0
	d.Direction = 0
}

// SpeedMult is 1.35 only while boosting; every other state is neutral.
func (d *DriftBoost) SpeedMult() float64 {
	if d.State == DriftBoosting {
		return BoostSpeedMult
	}
	return 1
}

func (d *DriftBoost) reset() {
	*d = DriftBoost{}
}
