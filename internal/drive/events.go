package drive

import (
	"fmt"
	"sort"
	"strings"
)

// ButtonSet is the set of buttons reported as newly pressed since the
// previous tick. Only membership matters.
type ButtonSet map[string]struct{}

// NewButtonSet builds a set from button names.
func NewButtonSet(names ...string) ButtonSet {
	s := make(ButtonSet, len(names))
	for _, n := range names {
		s[n] = struct{}{}
	}
	return s
}

func (s ButtonSet) Add(name string) { s[name] = struct{}{} }

func (s ButtonSet) Has(name string) bool {
	_, ok := s[name]
	return ok
}

// Names returns the members sorted, for logs and telemetry.
func (s ButtonSet) Names() []string {
	out := make([]string, 0, len(s))
	for n := range s {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// Effect is what a button combination asks for.
type Effect uint8

const (
	EffectTerminate Effect = iota + 1
	EffectShutdown
	EffectReboot
	EffectStopMotors
	EffectToggleLive
	EffectTrimUp
	EffectTrimDown
)

var effectNames = map[Effect]string{
	EffectTerminate:  "terminate",
	EffectShutdown:   "shutdown",
	EffectReboot:     "reboot",
	EffectStopMotors: "stop_motors",
	EffectToggleLive: "toggle_live",
	EffectTrimUp:     "trim_up",
	EffectTrimDown:   "trim_down",
}

func (e Effect) String() string {
	if n, ok := effectNames[e]; ok {
		return n
	}
	return fmt.Sprintf("effect(%d)", uint8(e))
}

// ParseEffect is the inverse of Effect.String.
func ParseEffect(name string) (Effect, error) {
	for e, n := range effectNames {
		if n == name {
			return e, nil
		}
	}
	return 0, fmt.Errorf("unknown effect %q", name)
}

// Binding ties a button combination to an effect. It fires when every
// listed button is in the tick's ButtonSet.
type Binding struct {
	Buttons []string
	Effect  Effect
}

// ParseBinding reads a combination written as "dup+triangle".
func ParseBinding(effect Effect, combo string) (Binding, error) {
	var buttons []string
	for _, b := range strings.Split(combo, "+") {
		b = strings.TrimSpace(b)
		if b == "" {
			return Binding{}, fmt.Errorf("binding %s: empty button in %q", effect, combo)
		}
		buttons = append(buttons, b)
	}
	return Binding{Buttons: buttons, Effect: effect}, nil
}

func (b Binding) Matches(events ButtonSet) bool {
	if len(b.Buttons) == 0 {
		return false
	}
	for _, name := range b.Buttons {
		if !events.Has(name) {
			return false
		}
	}
	return true
}

func (b Binding) String() string {
	return strings.Join(b.Buttons, "+") + "=" + b.Effect.String()
}

// Outcome is the result of one HandleEvents call.
type Outcome struct {
	// Terminate asks the loop to stop the motors once and exit cleanly.
	Terminate bool
	// Requests holds side effects the loop must carry out, in firing
	// order: EffectShutdown, EffectReboot or EffectStopMotors.
	Requests []Effect
	// Fired lists every binding effect that matched this tick.
	Fired []Effect
}
