package core

import (
	"math"
	"testing"
)

func TestEnsureLen(t *testing.T) {
	buf := make([]float64, 8, 16)

	got := EnsureLen(buf, 12)
	if len(got) != 12 {
		t.Fatalf("EnsureLen() len = %d, want 12", len(got))
	}

	got = EnsureLen(buf, 32)
	if len(got) != 32 {
		t.Fatalf("EnsureLen() len = %d, want 32", len(got))
	}

	got = EnsureLen(buf, 0)
	if len(got) != 0 {
		t.Fatalf("EnsureLen() len = %d, want 0", len(got))
	}
}

func TestClamp(t *testing.T) {
	tests := []struct {
		name            string
		value, min, max float64
		want            float64
	}{
		{name: "inside", value: 0.5, min: 0, max: 1, want: 0.5},
		{name: "below", value: -1, min: 0, max: 1, want: 0},
		{name: "above", value: 2, min: 0, max: 1, want: 1},
		{name: "swapped bounds", value: 2, min: 1, max: 0, want: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Clamp(tt.value, tt.min, tt.max); got != tt.want {
				t.Fatalf("Clamp() = %f, want %f", got, tt.want)
			}
		})
	}
}

func TestIsFinitePositive(t *testing.T) {
	if !IsFinitePositive(44100) {
		t.Fatal("IsFinitePositive(44100) = false")
	}
	if IsFinitePositive(0) || IsFinitePositive(-1) {
		t.Fatal("IsFinitePositive() accepted non-positive value")
	}
	if IsFinitePositive(math.Inf(1)) || IsFinitePositive(math.NaN()) {
		t.Fatal("IsFinitePositive() accepted non-finite value")
	}
}

func TestMaxAbsAndRMS(t *testing.T) {
	data := []float64{0.5, -0.75, 0.25}

	if got := MaxAbs(data); got != 0.75 {
		t.Fatalf("MaxAbs() = %f, want 0.75", got)
	}

	want := math.Sqrt((0.25 + 0.5625 + 0.0625) / 3)
	if got := RMS(data); !NearlyEqual(got, want, 1e-12) {
		t.Fatalf("RMS() = %f, want %f", got, want)
	}

	if MaxAbs(nil) != 0 || RMS(nil) != 0 {
		t.Fatal("empty input should yield 0")
	}
}

func TestDBConversions(t *testing.T) {
	if got := DBToLinear(20); !NearlyEqual(got, 10, 1e-12) {
		t.Fatalf("DBToLinear(20) = %f, want 10", got)
	}

	if got := LinearToDB(10); !NearlyEqual(got, 20, 1e-12) {
		t.Fatalf("LinearToDB(10) = %f, want 20", got)
	}

	if !math.IsInf(LinearToDB(0), -1) {
		t.Fatal("LinearToDB(0) should be -Inf")
	}

	if !math.IsNaN(LinearToDB(-1)) {
		t.Fatal("LinearToDB(-1) should be NaN")
	}
}
