// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package motor

import (
	"sync"

	"github.com/relabs-tech/shakaar/internal/logging"
)

// LogSink prints what would have been sent to a motor board. It is the
// fallback when no board answers.
type LogSink struct {
	log *logging.Logger

	mu          sync.Mutex
	left, right float64
	stops       int
}

func NewLogSink(log *logging.Logger) *LogSink {
	return &LogSink{log: log}
}

func (s *LogSink) Name() string { return "log" }

func (s *LogSink) SetPower(left, right float64) error {
	s.mu.Lock()
	s.left, s.right = left, right
	s.mu.Unlock()
	s.log.Infof("setting power left %.3f right %.3f", left, right)
	return nil
}

func (s *LogSink) Stop() error {
	s.mu.Lock()
	s.left, s.right = 0, 0
	s.stops++
	s.mu.Unlock()
	s.log.Infof("motors stopping")
	return nil
}

// Last returns the most recent command.
func (s *LogSink) Last() (left, right float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.left, s.right
}

func (s *LogSink) Stops() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stops
}

func (s *LogSink) Close() error { return nil }
