package drive

import "testing"

func TestMixKnownPoints(t *testing.T) {
	tests := []struct {
		name          string
		yaw, throttle float64
		wantL, wantR  int
	}{
		{"rest", 0, 0, 0, 0},
		{"full forward", 0, 1, 100, 100},
		{"full reverse", 0, -1, -100, -100},
		{"spin right", 1, 0, 100, -100},
		{"spin left", -1, 0, -100, 100},
		{"half forward half right", 0.5, 0.5, 100, 0},
		{"full forward full right", 1, 1, 100, 0},
		{"half forward", 0, 0.5, 50, 50},
		{"gentle turn", 0.25, 0.5, 75, 25},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := Mix(tc.yaw, tc.throttle, DefaultMaxPower)
			if got.Left != tc.wantL || got.Right != tc.wantR {
				t.Errorf("Mix(%v, %v): expected (%d, %d), got (%d, %d)",
					tc.yaw, tc.throttle, tc.wantL, tc.wantR, got.Left, got.Right)
			}
		})
	}
}

func TestMixStaysWithinMaxPower(t *testing.T) {
	for _, maxPower := range []int{1, 100, 255} {
		for yi := -20; yi <= 20; yi++ {
			for ti := -20; ti <= 20; ti++ {
				yaw := float64(yi) / 20
				throttle := float64(ti) / 20
				got := Mix(yaw, throttle, maxPower)
				if abs(got.Left) > maxPower || abs(got.Right) > maxPower {
					t.Fatalf("Mix(%v, %v, %d) out of range: (%d, %d)", yaw, throttle, maxPower, got.Left, got.Right)
				}
			}
		}
	}
}

func TestMixPreservesRatioWhenSaturated(t *testing.T) {
	// left_raw 1.5, right_raw 0.5: scaled by 100/1.5
	got := Mix(0.5, 1, DefaultMaxPower)
	if got.Left != 100 {
		t.Errorf("Left: expected 100, got %d", got.Left)
	}
	if got.Right != 33 {
		t.Errorf("Right: expected 33, got %d", got.Right)
	}
}

func TestMixTruncatesTowardZero(t *testing.T) {
	got := Mix(0, -0.125, 20)
	// -0.125 * 20 = -2.5 -> -2
	if got.Left != -2 || got.Right != -2 {
		t.Errorf("expected (-2, -2), got (%d, %d)", got.Left, got.Right)
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
