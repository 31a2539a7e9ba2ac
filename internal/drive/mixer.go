// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package drive holds the joystick-to-wheel mixing and the gearbox trim
// state that scales the mixed powers before they reach a motor driver.
package drive

import "math"

// DefaultMaxPower is the full-scale wheel power returned by Mix.
const DefaultMaxPower = 100

// PowerPair is one tick of mixer output, each side in [-max, max].
type PowerPair struct {
	Left  int `json:"left"`
	Right int `json:"right"`
}

// Mix blends a yaw and throttle axis (both in [-1, 1]) into left/right
// wheel powers. Positive yaw turns right: Mix(1, 0, 100) is (100, -100).
//
// When either raw side exceeds 1 both sides are rescaled by the same factor,
// so the stronger wheel lands on maxPower and the left:right ratio is kept.
// Results are truncated toward zero.
func Mix(yaw, throttle float64, maxPower int) PowerPair {
	left := throttle + yaw
	right := throttle - yaw
	scale := float64(maxPower) / math.Max(1, math.Max(math.Abs(left), math.Abs(right)))
	return PowerPair{
		Left:  int(left * scale),
		Right: int(right * scale),
	}
}
