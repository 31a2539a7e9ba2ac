package drive

// State is the mutable gearbox state owned by the control loop.
type State struct {
	LeftGain  float64 `json:"left_gain"`
	RightGain float64 `json:"right_gain"`
	Live      bool    `json:"live"`
}

// Trim is the drive-trim state machine. It is not safe for concurrent use;
// the control loop is its only owner.
type Trim struct {
	policy Policy
	state  State
}

// NewTrim starts a state machine at the policy's initial gains.
func NewTrim(p Policy) *Trim {
	t := &Trim{
		policy: p,
		state: State{
			LeftGain:  p.InitialLeft,
			RightGain: p.InitialRight,
			Live:      p.StartLive || !p.SafetyMode,
		},
	}
	t.Clamp()
	return t
}

func (t *Trim) Policy() Policy { return t.policy }

func (t *Trim) State() State { return t.state }

func (t *Trim) Live() bool { return t.state.Live }

// ApplyGain scales one tick of mixer output by the current gains. The
// result is limited to the policy's full scale.
func (t *Trim) ApplyGain(p PowerPair) (left, right float64) {
	left = float64(p.Left)
	right = float64(p.Right)
	if t.policy.Normalize == NormalizeUnit {
		left /= float64(t.policy.MaxPower)
		right /= float64(t.policy.MaxPower)
	}
	full := Range{Min: -t.policy.FullScale(), Max: t.policy.FullScale()}
	return full.Clamp(t.state.LeftGain * left), full.Clamp(t.state.RightGain * right)
}

// HandleEvents runs the binding table against one tick of presses. Trim
// and live toggles are applied in place; anything the loop has to act on is
// reported in the Outcome. A terminate binding stops evaluation of the rest
// of the table. Gains are clamped on every call.
func (t *Trim) HandleEvents(events ButtonSet) Outcome {
	var out Outcome
	for _, b := range t.policy.Bindings {
		if !b.Matches(events) {
			continue
		}
		out.Fired = append(out.Fired, b.Effect)

		switch b.Effect {
		case EffectTerminate:
			out.Terminate = true
			t.Clamp()
			return out
		case EffectShutdown, EffectReboot, EffectStopMotors:
			out.Requests = append(out.Requests, b.Effect)
		case EffectToggleLive:
			if t.policy.SafetyMode {
				t.state.Live = !t.state.Live
			}
		case EffectTrimUp:
			t.state.LeftGain += t.policy.LeftStep
			t.state.RightGain += t.policy.RightStep
		case EffectTrimDown:
			t.state.LeftGain -= t.policy.LeftStep
			t.state.RightGain -= t.policy.RightStep
		}
	}
	t.Clamp()
	return out
}

// Clamp forces both gains back into their ranges.
func (t *Trim) Clamp() {
	t.state.LeftGain = t.policy.LeftRange.Clamp(t.state.LeftGain)
	t.state.RightGain = t.policy.RightRange.Clamp(t.state.RightGain)
}
