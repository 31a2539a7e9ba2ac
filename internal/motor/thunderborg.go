// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package motor

import (
	"fmt"
	"io"
	"math"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"
)

// ThunderBorg register commands.
const (
	tbSetAFwd = 8
	tbSetARev = 9
	tbSetBFwd = 11
	tbSetBRev = 12
	tbAllOff  = 14
	tbGetID   = 0x99

	tbID      = 0x15
	tbPWMMax  = 255
	tbReadLen = 6
)

type txer interface {
	Tx(w, r []byte) error
}

// ThunderBorg is a PiBorg ThunderBorg on I2C. The left wheel is on motor 2
// (channel A) and the right wheel on motor 1 (channel B).
type ThunderBorg struct {
	dev   txer
	bus   io.Closer
	scale float64
}

// OpenThunderBorg opens the bus and checks the board ID.
func OpenThunderBorg(busName string, addr uint16, scale float64) (*ThunderBorg, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("thunderborg: periph host init: %w", err)
	}
	bus, err := i2creg.Open(busName)
	if err != nil {
		return nil, fmt.Errorf("%w: thunderborg: i2c open %q: %v", ErrNotFound, busName, err)
	}
	tb := newThunderBorg(&i2c.Dev{Bus: bus, Addr: addr}, bus, scale)
	if err := tb.probe(); err != nil {
		bus.Close()
		return nil, fmt.Errorf("%w: thunderborg at 0x%02X: %v", ErrNotFound, addr, err)
	}
	return tb, nil
}

func newThunderBorg(dev txer, bus io.Closer, scale float64) *ThunderBorg {
	return &ThunderBorg{dev: dev, bus: bus, scale: scale}
}

func (t *ThunderBorg) probe() error {
	r := make([]byte, tbReadLen)
	if err := t.dev.Tx([]byte{tbGetID}, r); err != nil {
		return err
	}
	if r[0] != tbGetID || r[1] != tbID {
		return fmt.Errorf("unexpected ID reply % X", r[:2])
	}
	return nil
}

func (t *ThunderBorg) Name() string { return "thunderborg" }

func (t *ThunderBorg) SetPower(left, right float64) error {
	if err := t.setMotor(tbSetAFwd, tbSetARev, unit(left, t.scale)); err != nil {
		return fmt.Errorf("thunderborg: motor 2: %w", err)
	}
	if err := t.setMotor(tbSetBFwd, tbSetBRev, unit(right, t.scale)); err != nil {
		return fmt.Errorf("thunderborg: motor 1: %w", err)
	}
	return nil
}

func (t *ThunderBorg) setMotor(fwd, rev byte, p float64) error {
	cmd := fwd
	if p < 0 {
		cmd = rev
	}
	pwm := int(math.Abs(p) * tbPWMMax)
	if pwm > tbPWMMax {
		pwm = tbPWMMax
	}
	return t.dev.Tx([]byte{cmd, byte(pwm)}, nil)
}

func (t *ThunderBorg) Stop() error {
	if err := t.dev.Tx([]byte{tbAllOff, 0}, nil); err != nil {
		return fmt.Errorf("thunderborg: all off: %w", err)
	}
	return nil
}

func (t *ThunderBorg) Close() error {
	err := t.Stop()
	if t.bus != nil {
		if cerr := t.bus.Close(); err == nil {
			err = cerr
		}
	}
	return err
}
