package controller

import (
	"math"
	"testing"
)

func TestZonesApply(t *testing.T) {
	z := DefaultZones
	tests := []struct {
		in, want float64
	}{
		{0, 0},
		{0.05, 0},
		{-0.1, 0},
		{0.8, 1},
		{-0.95, -1},
		{1, 1},
		{0.45, 0.5},
		{-0.45, -0.5},
	}
	for _, tt := range tests {
		if got := z.Apply(tt.in); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("Apply(%v): expected %v, got %v", tt.in, tt.want, got)
		}
	}
}

func TestZonesMonotonic(t *testing.T) {
	prev := -1.0
	for v := -1.0; v <= 1.0; v += 0.01 {
		got := DefaultZones.Apply(v)
		if got < prev {
			t.Fatalf("Apply not monotonic at %v: %v < %v", v, got, prev)
		}
		prev = got
	}
}

func TestScripted(t *testing.T) {
	s := NewScripted(
		Frame{Axes: map[string]float64{"rx": 0.5}},
		Frame{Presses: []string{"triangle"}},
	)
	if err := s.Poll(); err != nil {
		t.Fatal(err)
	}
	if x, y := s.Axes("rx", "ly"); x != 0.5 || y != 0 {
		t.Errorf("expected 0.5 0, got %v %v", x, y)
	}
	s.Poll()
	if !s.Presses().Has("triangle") {
		t.Error("expected triangle press")
	}
	if err := s.Poll(); err != ErrDisconnected {
		t.Errorf("expected ErrDisconnected, got %v", err)
	}
	if s.Connected() {
		t.Error("expected disconnected")
	}
}
