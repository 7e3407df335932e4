package common

import "testing"

func TestLerp(t *testing.T) {
	tests := []struct {
		a, b, t, want float64
	}{
		{a: 0, b: 10, t: 0, want: 0},
		{a: 0, b: 10, t: 1, want: 10},
		{a: 0, b: 10, t: 0.5, want: 5},
		{a: 10, b: 0, t: 0.25, want: 7.5},
	}
	for _, tt := range tests {
		if got := Lerp(tt.a, tt.b, tt.t); got != tt.want {
			t.Errorf("Lerp(%v, %v, %v) = %v, want %v", tt.a, tt.b, tt.t, got, tt.want)
		}
	}
}

func TestClamp01(t *testing.T) {
	tests := []struct {
		v, want float64
	}{
		{v: -1, want: 0},
		{v: 0, want: 0},
		{v: 0.3, want: 0.3},
		{v: 1, want: 1},
		{v: 2.5, want: 1},
	}
	for _, tt := range tests {
		if got := Clamp01(tt.v); got != tt.want {
			t.Errorf("Clamp01(%v) = %v, want %v", tt.v, got, tt.want)
		}
	}
}

func TestMin(t *testing.T) {
	if got := Min(2, 3); got != 2 {
		t.Errorf("Min(2, 3) = %v", got)
	}
	if got := Min(4, -1); got != -1 {
		t.Errorf("Min(4, -1) = %v", got)
	}
}
