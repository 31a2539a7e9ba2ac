package drive

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// Range is a closed interval a gain is kept inside.
type Range struct {
	Min float64
	Max float64
}

// Clamp limits v to the range. NaN is treated as zero before clamping.
func (r Range) Clamp(v float64) float64 {
	if math.IsNaN(v) {
		v = 0
	}
	switch {
	case v < r.Min:
		return r.Min
	case v > r.Max:
		return r.Max
	}
	return v
}

func (r Range) Contains(v float64) bool {
	return v >= r.Min && v <= r.Max
}

// Normalization selects how mixer output is scaled before the gain.
type Normalization uint8

const (
	// NormalizeNone applies the gain to the 0..MaxPower mixer output and
	// leaves the final scaling to the motor driver.
	NormalizeNone Normalization = iota
	// NormalizeUnit divides mixer output by MaxPower first, so the driver
	// receives values in [-1, 1].
	NormalizeUnit
)

func (n Normalization) String() string {
	if n == NormalizeUnit {
		return "unit"
	}
	return "none"
}

// Policy is the per-robot configuration of the trim state machine: gain
// ranges and steps, how gains are applied, and the button table.
type Policy struct {
	Name     string
	MaxPower int

	InitialLeft  float64
	InitialRight float64
	LeftRange    Range
	RightRange   Range
	// Steps are added on EffectTrimUp and subtracted on EffectTrimDown.
	LeftStep  float64
	RightStep float64

	Normalize Normalization

	// SafetyMode enables the live/inert toggle. Without it the machine is
	// always live.
	SafetyMode bool
	StartLive  bool

	// Bindings are evaluated in order every tick.
	Bindings []Binding
}

// FullScale is the largest magnitude ApplyGain can hand to a driver.
func (p Policy) FullScale() float64 {
	if p.Normalize == NormalizeUnit {
		return 1
	}
	return float64(p.MaxPower)
}

func (p Policy) Validate() error {
	if p.MaxPower <= 0 {
		return fmt.Errorf("policy %s: max power must be positive, got %d", p.Name, p.MaxPower)
	}
	if p.LeftRange.Min > p.LeftRange.Max {
		return fmt.Errorf("policy %s: left gain range [%g, %g] is empty", p.Name, p.LeftRange.Min, p.LeftRange.Max)
	}
	if p.RightRange.Min > p.RightRange.Max {
		return fmt.Errorf("policy %s: right gain range [%g, %g] is empty", p.Name, p.RightRange.Min, p.RightRange.Max)
	}
	if len(p.Bindings) == 0 {
		return errors.New("policy " + p.Name + ": no button bindings")
	}
	for _, b := range p.Bindings {
		if len(b.Buttons) == 0 {
			return fmt.Errorf("policy %s: binding for %s has no buttons", p.Name, b.Effect)
		}
		if b.Effect == EffectToggleLive && !p.SafetyMode {
			return fmt.Errorf("policy %s: toggle_live bound without safety mode", p.Name)
		}
	}
	return nil
}

// Bind replaces the combination of an effect, or appends it when the
// policy has none for that effect.
func (p *Policy) Bind(b Binding) {
	for i := range p.Bindings {
		if p.Bindings[i].Effect == b.Effect {
			p.Bindings[i] = b
			return
		}
	}
	p.Bindings = append(p.Bindings, b)
}

// ThunderBorgPolicy drives a ThunderBorg board: the left motor is mounted
// reversed so its gain runs negative, trim widens both gains away from
// zero, and outputs are normalized to [-1, 1].
func ThunderBorgPolicy() Policy {
	return Policy{
		Name:         "thunderborg",
		MaxPower:     DefaultMaxPower,
		InitialLeft:  -0.5,
		InitialRight: 0.5,
		LeftRange:    Range{Min: -1, Max: 0},
		RightRange:   Range{Min: 0, Max: 1},
		LeftStep:     -0.1,
		RightStep:    0.1,
		Normalize:    NormalizeUnit,
		SafetyMode:   false,
		StartLive:    true,
		Bindings: []Binding{
			{Buttons: []string{"triangle"}, Effect: EffectTerminate},
			{Buttons: []string{"dright", "square"}, Effect: EffectShutdown},
			{Buttons: []string{"dleft", "circle"}, Effect: EffectReboot},
			{Buttons: []string{"r2"}, Effect: EffectTrimUp},
			{Buttons: []string{"r1"}, Effect: EffectTrimDown},
		},
	}
}

// RedBoardPolicy drives a RedBoard HAT: both gains in [0, 1] starting at a
// quarter, powers stay on the 0..100 scale, and motors start inert until
// triangle is pressed.
func RedBoardPolicy() Policy {
	return Policy{
		Name:         "redboard",
		MaxPower:     DefaultMaxPower,
		InitialLeft:  0.25,
		InitialRight: 0.25,
		LeftRange:    Range{Min: 0, Max: 1},
		RightRange:   Range{Min: 0, Max: 1},
		LeftStep:     0.1,
		RightStep:    0.1,
		Normalize:    NormalizeNone,
		SafetyMode:   true,
		StartLive:    false,
		Bindings: []Binding{
			{Buttons: []string{"dup", "triangle"}, Effect: EffectTerminate},
			{Buttons: []string{"dright", "circle"}, Effect: EffectShutdown},
			{Buttons: []string{"dleft", "square"}, Effect: EffectReboot},
			{Buttons: []string{"ddown", "cross"}, Effect: EffectStopMotors},
			{Buttons: []string{"triangle"}, Effect: EffectToggleLive},
			{Buttons: []string{"r2"}, Effect: EffectTrimUp},
			{Buttons: []string{"r1"}, Effect: EffectTrimDown},
		},
	}
}

// PolicyByName returns a preset. "a" and "b" are accepted as aliases.
func PolicyByName(name string) (Policy, error) {
	switch strings.ToLower(name) {
	case "thunderborg", "a":
		return ThunderBorgPolicy(), nil
	case "redboard", "rb", "b":
		return RedBoardPolicy(), nil
	}
	return Policy{}, fmt.Errorf("unknown drive variant %q (want thunderborg or redboard)", name)
}
