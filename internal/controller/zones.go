package controller

import "math"

// Zones shapes a centred axis: readings inside Dead snap to 0, readings
// within Hot of either end snap to ±1, and the rest is stretched linearly
// between them.
type Zones struct {
	Dead float64
	Hot  float64
}

// DefaultZones matches the binder settings the robot was tuned with.
var DefaultZones = Zones{Dead: 0.1, Hot: 0.2}

func (z Zones) Apply(v float64) float64 {
	a := math.Abs(v)
	switch {
	case a <= z.Dead:
		return 0
	case a >= 1-z.Hot:
		return math.Copysign(1, v)
	}
	return math.Copysign((a-z.Dead)/(1-z.Dead-z.Hot), v)
}
