// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package motor

import (
	"fmt"
	"math"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/host/v3"
)

type outPin interface {
	Out(l gpio.Level) error
	PWM(duty gpio.Duty, f physic.Frequency) error
}

type hbridge struct {
	pwm outPin
	dir outPin
}

// RedBoardPins names the GPIO lines of the two motor channels.
type RedBoardPins struct {
	M1PWM, M1Dir string
	M2PWM, M2Dir string
}

// RedBoard drives the RedBoard HAT's two H-bridges: a PWM line sets the
// speed and a direction line picks forward or reverse. M2 is the left
// wheel, M1 the right.
type RedBoard struct {
	m1, m2 hbridge
	freq   physic.Frequency
	scale  float64
}

func OpenRedBoard(pins RedBoardPins, freqHz int, scale float64) (*RedBoard, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("redboard: periph host init: %w", err)
	}
	lookup := func(name string) (outPin, error) {
		p := gpioreg.ByName(name)
		if p == nil {
			return nil, fmt.Errorf("%w: redboard: pin %q not found", ErrNotFound, name)
		}
		return p, nil
	}
	var rb RedBoard
	var err error
	if rb.m1.pwm, err = lookup(pins.M1PWM); err != nil {
		return nil, err
	}
	if rb.m1.dir, err = lookup(pins.M1Dir); err != nil {
		return nil, err
	}
	if rb.m2.pwm, err = lookup(pins.M2PWM); err != nil {
		return nil, err
	}
	if rb.m2.dir, err = lookup(pins.M2Dir); err != nil {
		return nil, err
	}
	rb.freq = physic.Frequency(freqHz) * physic.Hertz
	rb.scale = scale
	if err := rb.Stop(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotFound, err)
	}
	return &rb, nil
}

func (r *RedBoard) Name() string { return "redboard" }

func (r *RedBoard) SetPower(left, right float64) error {
	if err := r.drive(r.m2, unit(left, r.scale)); err != nil {
		return fmt.Errorf("redboard: M2: %w", err)
	}
	if err := r.drive(r.m1, unit(right, r.scale)); err != nil {
		return fmt.Errorf("redboard: M1: %w", err)
	}
	return nil
}

func (r *RedBoard) drive(h hbridge, p float64) error {
	if err := h.dir.Out(gpio.Level(p >= 0)); err != nil {
		return err
	}
	duty := gpio.Duty(math.Abs(p) * float64(gpio.DutyMax))
	return h.pwm.PWM(duty, r.freq)
}

func (r *RedBoard) Stop() error {
	if err := r.drive(r.m1, 0); err != nil {
		return fmt.Errorf("redboard: stop M1: %w", err)
	}
	if err := r.drive(r.m2, 0); err != nil {
		return fmt.Errorf("redboard: stop M2: %w", err)
	}
	return nil
}

func (r *RedBoard) Close() error { return r.Stop() }
