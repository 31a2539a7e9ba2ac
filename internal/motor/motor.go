// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package motor drives the two wheel motors. Every backend accepts left and
// right power in [-scale, scale], where scale is the drive policy's full
// scale (1 for the ThunderBorg preset, 100 for the RedBoard preset), and
// converts to its own native units.
package motor

import (
	"errors"
	"math"
)

// ErrNotFound means the driver board did not answer; Open moves on to the
// next backend.
var ErrNotFound = errors.New("motor: driver not found")

// Sink accepts wheel power commands.
type Sink interface {
	SetPower(left, right float64) error
	// Stop cuts both motors. It is safe to call more than once.
	Stop() error
	Close() error
	Name() string
}

// unit maps v from [-scale, scale] into [-1, 1].
func unit(v, scale float64) float64 {
	if scale <= 0 || math.IsNaN(v) {
		return 0
	}
	return math.Max(-1, math.Min(1, v/scale))
}
