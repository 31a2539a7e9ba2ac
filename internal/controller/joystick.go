package controller

import (
	"fmt"
	"math"

	"github.com/0xcafed00d/joystick"

	"github.com/relabs-tech/shakaar/internal/drive"
)

const (
	axisFullScale = 32767
	axisPressed   = 0.5
)

// Joystick is a Provider backed by the Linux joystick API.
type Joystick struct {
	dev       joystick.Joystick
	mapping   Mapping
	zones     Zones
	connected bool
	primed    bool
	state     joystick.State
	held      map[string]bool
	presses   drive.ButtonSet
}

// New wraps an open device.
func New(dev joystick.Joystick, m Mapping, z Zones) *Joystick {
	return &Joystick{
		dev:       dev,
		mapping:   m,
		zones:     z,
		connected: true,
		held:      map[string]bool{},
		presses:   drive.NewButtonSet(),
	}
}

// Open binds /dev/input/js<index>. mappingName overrides layout detection.
func Open(index int, mappingName string, z Zones) (*Joystick, error) {
	dev, err := joystick.Open(index)
	if err != nil {
		return nil, fmt.Errorf("%w: js%d: %v", ErrUnavailable, index, err)
	}
	m, ok := MappingFor(dev.Name(), mappingName)
	if !ok {
		dev.Close()
		return nil, fmt.Errorf("controller: unknown mapping %q", mappingName)
	}
	return New(dev, m, z), nil
}

// Find binds the first controller among js0..js<scan-1>.
func Find(scan int, mappingName string, z Zones) (*Joystick, error) {
	for i := 0; i < scan; i++ {
		js, err := Open(i, mappingName, z)
		if err == nil {
			return js, nil
		}
	}
	return nil, ErrUnavailable
}

func (j *Joystick) Name() string {
	return fmt.Sprintf("%s (%s)", j.dev.Name(), j.mapping.Name)
}

func (j *Joystick) Connected() bool { return j.connected }

func (j *Joystick) Poll() error {
	st, err := j.dev.Read()
	if err != nil {
		j.connected = false
		return fmt.Errorf("%w: %v", ErrDisconnected, err)
	}
	j.state = st

	now := j.pressed()
	presses := drive.NewButtonSet()
	// The first sample is the baseline; buttons already held at bind time
	// are not reported as presses.
	if j.primed {
		for name := range now {
			if !j.held[name] {
				presses.Add(name)
			}
		}
	}
	j.primed = true
	j.held = now
	j.presses = presses
	return nil
}

func (j *Joystick) pressed() map[string]bool {
	now := map[string]bool{}
	for name, bit := range j.mapping.Buttons {
		if j.state.Buttons&(1<<bit) != 0 {
			now[name] = true
		}
	}
	for name, ax := range j.mapping.AxisButtons {
		if j.raw(ax) > axisPressed {
			now[name] = true
		}
	}
	return now
}

func (j *Joystick) raw(ax Axis) float64 {
	if ax.Index < 0 || ax.Index >= len(j.state.AxisData) {
		return 0
	}
	v := float64(j.state.AxisData[ax.Index]) / axisFullScale
	if ax.Invert {
		v = -v
	}
	return math.Max(-1, math.Min(1, v))
}

func (j *Joystick) axis(name string) float64 {
	ax, ok := j.mapping.Axes[name]
	if !ok {
		return 0
	}
	return j.zones.Apply(j.raw(ax))
}

func (j *Joystick) Axes(x, y string) (float64, float64) {
	return j.axis(x), j.axis(y)
}

func (j *Joystick) Presses() drive.ButtonSet { return j.presses }

func (j *Joystick) Close() error {
	j.connected = false
	j.dev.Close()
	return nil
}
