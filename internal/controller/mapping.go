package controller

import "strings"

// Axis locates one axis in the joystick report. Invert flips its sign so
// that up and right read positive.
type Axis struct {
	Index  int
	Invert bool
}

// Mapping translates a controller's raw axis and button numbering into the
// names the drive bindings use: lx ly rx ry for sticks; cross circle square
// triangle l1 r1 l2 r2 select start home ls rs for buttons; dup ddown dleft
// dright for the d-pad.
type Mapping struct {
	Name    string
	Match   []string // substrings of the device name
	Axes    map[string]Axis
	Buttons map[string]uint
	// AxisButtons are buttons reported through an axis (d-pad hats,
	// analogue triggers). They count as held past half travel.
	AxisButtons map[string]Axis
}

// DualShock4 is the layout reported by hid-sony for a PS4 pad.
var DualShock4 = Mapping{
	Name:  "dualshock4",
	Match: []string{"Wireless Controller", "Sony"},
	Axes: map[string]Axis{
		"lx": {Index: 0},
		"ly": {Index: 1, Invert: true},
		"rx": {Index: 3},
		"ry": {Index: 4, Invert: true},
	},
	Buttons: map[string]uint{
		"cross":    0,
		"circle":   1,
		"triangle": 2,
		"square":   3,
		"l1":       4,
		"r1":       5,
		"l2":       6,
		"r2":       7,
		"select":   8,
		"start":    9,
		"home":     10,
		"ls":       11,
		"rs":       12,
	},
	AxisButtons: map[string]Axis{
		"dleft":  {Index: 6, Invert: true},
		"dright": {Index: 6},
		"dup":    {Index: 7, Invert: true},
		"ddown":  {Index: 7},
	},
}

// Xbox360 is the xpad layout. Face buttons are named by position to match
// the PlayStation names (A is cross, Y is triangle).
var Xbox360 = Mapping{
	Name:  "xbox360",
	Match: []string{"X-Box", "Xbox"},
	Axes: map[string]Axis{
		"lx": {Index: 0},
		"ly": {Index: 1, Invert: true},
		"rx": {Index: 3},
		"ry": {Index: 4, Invert: true},
	},
	Buttons: map[string]uint{
		"cross":    0,
		"circle":   1,
		"square":   2,
		"triangle": 3,
		"l1":       4,
		"r1":       5,
		"select":   6,
		"start":    7,
		"home":     8,
		"ls":       9,
		"rs":       10,
	},
	AxisButtons: map[string]Axis{
		"l2":     {Index: 2},
		"r2":     {Index: 5},
		"dleft":  {Index: 6, Invert: true},
		"dright": {Index: 6},
		"dup":    {Index: 7, Invert: true},
		"ddown":  {Index: 7},
	},
}

// Mappings lists the known layouts by name.
var Mappings = map[string]Mapping{
	DualShock4.Name: DualShock4,
	Xbox360.Name:    Xbox360,
}

// MappingFor picks a layout: the named override when given, otherwise the
// first layout whose Match appears in deviceName, falling back to DualShock4.
// Xbox is checked first since "Xbox Wireless Controller" also matches the
// Sony pattern.
func MappingFor(deviceName, override string) (Mapping, bool) {
	if override != "" {
		m, ok := Mappings[strings.ToLower(override)]
		return m, ok
	}
	for _, m := range []Mapping{Xbox360, DualShock4} {
		for _, s := range m.Match {
			if strings.Contains(deviceName, s) {
				return m, true
			}
		}
	}
	return DualShock4, true
}
