// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package controller turns a handheld game controller into named axis
// values and per-tick sets of newly pressed buttons.
package controller

import (
	"errors"

	"github.com/relabs-tech/shakaar/internal/drive"
)

var (
	// ErrUnavailable means no controller is bound yet; callers wait and retry.
	ErrUnavailable = errors.New("controller: no controller found")
	// ErrDisconnected is returned by Poll once the device has gone away.
	ErrDisconnected = errors.New("controller: disconnected")
)

// Provider is a bound controller sampled once per control tick.
type Provider interface {
	// Poll samples the device. After an error Connected reports false.
	Poll() error
	Connected() bool
	// Axes returns two named axes, each in [-1, 1]. Unknown names read 0.
	Axes(x, y string) (float64, float64)
	// Presses returns buttons that went down between the last two polls.
	Presses() drive.ButtonSet
	Name() string
	Close() error
}
