package controller

import (
	"github.com/relabs-tech/shakaar/internal/drive"
)

// Frame is one scripted tick of controller input.
type Frame struct {
	Axes    map[string]float64
	Presses []string
}

// Scripted replays frames one per Poll and then reports a disconnect.
// It backs the bench console and tests.
type Scripted struct {
	frames    []Frame
	next      int
	cur       Frame
	connected bool
	closed    bool
}

func NewScripted(frames ...Frame) *Scripted {
	return &Scripted{frames: frames, connected: true}
}

func (s *Scripted) Name() string { return "scripted" }

func (s *Scripted) Poll() error {
	if s.closed || s.next >= len(s.frames) {
		s.connected = false
		return ErrDisconnected
	}
	s.cur = s.frames[s.next]
	s.next++
	return nil
}

func (s *Scripted) Connected() bool { return s.connected }

func (s *Scripted) Axes(x, y string) (float64, float64) {
	return s.cur.Axes[x], s.cur.Axes[y]
}

func (s *Scripted) Presses() drive.ButtonSet {
	return drive.NewButtonSet(s.cur.Presses...)
}

// Polled reports how many frames have been consumed.
func (s *Scripted) Polled() int { return s.next }

func (s *Scripted) Close() error {
	s.closed = true
	s.connected = false
	return nil
}
