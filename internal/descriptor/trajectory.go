package descriptor

import "math"

// Gravity is the gravitational acceleration in m/s².
const Gravity = 9.81

// Trajectory is the vertical motion of a point mass thrown up so that it
// peaks at MaxHeight.
type Trajectory struct {
	MaxHeight float64
	// V0 is the launch velocity in m/s.
	V0 float64
	// Apex is the time to reach MaxHeight.
	Apex float64
	// Flight is the time until the mass is back at launch height.
	Flight float64
}

func NewTrajectory(maxHeight float64) Trajectory {
	v0 := math.Sqrt(2 * Gravity * maxHeight)
	return Trajectory{
		MaxHeight: maxHeight,
		V0:        v0,
		Apex:      v0 / Gravity,
		Flight:    2 * v0 / Gravity,
	}
}

// Height returns the displacement tau seconds after launch. After landing it
// stays at zero; whatever the tissue does from then on is left to the solver.
func (t Trajectory) Height(tau float64) float64 {
	if tau <= 0 || tau >= t.Flight {
		return 0
	}
	return t.V0*tau - 0.5*Gravity*tau*tau
}
