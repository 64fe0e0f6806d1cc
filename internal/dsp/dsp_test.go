package dsp

import (
	"math"
	"testing"
)

func TestClamp(t *testing.T) {
	if Clamp(2, 0, 1) != 1 {
		t.Fatalf("expected clamp high to be 1")
	}
	if Clamp(-1, 0, 1) != 0 {
		t.Fatalf("expected clamp low to be 0")
	}
	if Clamp(0.5, 0, 1) != 0.5 {
		t.Fatalf("expected clamp middle to be unchanged")
	}
}

func TestLerpEndpoints(t *testing.T) {
	if got := Lerp(2, 8, 0); got != 2 {
		t.Fatalf("Lerp at t=0: got=%f want=2", got)
	}
	if got := Lerp(2, 8, 1); got != 8 {
		t.Fatalf("Lerp at t=1: got=%f want=8", got)
	}
	if got := Lerp(2, 8, 0.5); math.Abs(got-5) > 1e-9 {
		t.Fatalf("Lerp at t=0.5: got=%f want=5", got)
	}
}

func TestSoftClipPassesBelowThreshold(t *testing.T) {
	for _, v := range []float64{0, 0.3, -0.3, 0.95, -0.95} {
		if got := SoftClip(v, 0.95); got != v {
			t.Fatalf("SoftClip(%f)=%f, expected passthrough", v, got)
		}
	}
}

func TestSoftClipBoundsOutput(t *testing.T) {
	for _, v := range []float64{0.96, 1.0, 1.5, 5, 100, -0.96, -2, -50} {
		got := SoftClip(v, 0.95)
		if got <= -1 || got >= 1 {
			t.Fatalf("SoftClip(%f)=%f escaped (-1,1)", v, got)
		}
		if v > 0 && got < 0.95 {
			t.Fatalf("SoftClip(%f)=%f fell below threshold", v, got)
		}
	}
}

func TestSoftClipMonotonic(t *testing.T) {
	prev := SoftClip(0.9, 0.95)
	for v := 0.91; v < 3; v += 0.01 {
		got := SoftClip(v, 0.95)
		if got < prev {
			t.Fatalf("SoftClip not monotonic at %f: %f < %f", v, got, prev)
		}
		prev = got
	}
}

func TestDBToLinear(t *testing.T) {
	cases := map[float64]float64{
		0:   1.0,
		-20: 0.1,
		20:  10.0,
		-6:  0.5011872,
	}
	for db, want := range cases {
		if got := DBToLinear(db); math.Abs(got-want) > 1e-5 {
			t.Fatalf("DBToLinear(%f)=%f want=%f", db, got, want)
		}
	}
}

func TestLinearToDBRoundTrip(t *testing.T) {
	for _, db := range []float64{-40, -12, -6, 0, 6} {
		got := LinearToDB(DBToLinear(db))
		if math.Abs(got-db) > 1e-9 {
			t.Fatalf("round trip of %f dB gave %f", db, got)
		}
	}
	if got := LinearToDB(0); got != -144.0 {
		t.Fatalf("LinearToDB(0)=%f want silence floor", got)
	}
}
