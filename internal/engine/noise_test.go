package engine

import (
	"math"
	"testing"
)

func TestPinkNoiseVarianceAndRange(t *testing.T) {
	gen := NewPinkNoise(42)
	const n = 10000
	var sum, sumSq float64
	for i := 0; i < n; i++ {
		v := gen.Next()
		if v < -1 || v > 1 {
			t.Fatalf("pink sample %d out of range: %f", i, v)
		}
		sum += v
		sumSq += v * v
	}
	mean := sum / n
	variance := sumSq/n - mean*mean
	if variance <= 0.01 {
		t.Fatalf("pink variance too small: %f", variance)
	}
}

func TestBrownNoiseStaysInRange(t *testing.T) {
	gen := NewBrownNoise(42)
	for i := 0; i < 100000; i++ {
		v := gen.Next()
		if v < -1 || v > 1 {
			t.Fatalf("brown sample %d out of range: %f", i, v)
		}
	}
}

func TestBrownSmootherThanPink(t *testing.T) {
	pink := NewPinkNoise(7)
	brown := NewBrownNoise(7)
	const n = 10000
	pinkDiff := meanAbsDiff(pink.Next, n)
	brownDiff := meanAbsDiff(brown.Next, n)
	if brownDiff >= pinkDiff {
		t.Fatalf("brown should change more slowly than pink: brown=%f pink=%f", brownDiff, pinkDiff)
	}
}

func meanAbsDiff(next func() float64, n int) float64 {
	prev := next()
	total := 0.0
	for i := 1; i < n; i++ {
		v := next()
		total += math.Abs(v - prev)
		prev = v
	}
	return total / float64(n-1)
}

func TestNoiseDeterministicUnderSeed(t *testing.T) {
	a := NewPinkNoise(123)
	b := NewPinkNoise(123)
	for i := 0; i < 1000; i++ {
		if a.Next() != b.Next() {
			t.Fatalf("pink generators with equal seeds diverged at sample %d", i)
		}
	}
	c := NewBrownNoise(123)
	d := NewBrownNoise(123)
	for i := 0; i < 1000; i++ {
		if c.Next() != d.Next() {
			t.Fatalf("brown generators with equal seeds diverged at sample %d", i)
		}
	}
	e := NewPinkNoise(1)
	f := NewPinkNoise(2)
	identical := true
	for i := 0; i < 100; i++ {
		if e.Next() != f.Next() {
			identical = false
			break
		}
	}
	if identical {
		t.Fatalf("pink generators with different seeds produced identical output")
	}
}

func TestBrownResetZeroesIntegrator(t *testing.T) {
	gen := NewBrownNoise(99)
	for i := 0; i < 5000; i++ {
		gen.Next()
	}
	gen.Reset()
	v := gen.Next()
	if math.Abs(v) > brownStep {
		t.Fatalf("first sample after reset should be one step from zero, got %f", v)
	}
}

func TestPinkResetKeepsOutputValid(t *testing.T) {
	gen := NewPinkNoise(5)
	for i := 0; i < 1000; i++ {
		gen.Next()
	}
	gen.Reset()
	for i := 0; i < 1000; i++ {
		v := gen.Next()
		if v < -1 || v > 1 {
			t.Fatalf("post-reset pink sample %d out of range: %f", i, v)
		}
	}
}

func TestParseNoiseType(t *testing.T) {
	cases := map[string]NoiseType{
		"":         NoiseNone,
		"none":     NoiseNone,
		"off":      NoiseNone,
		"pink":     NoisePink,
		"Pink":     NoisePink,
		"brown":    NoiseBrown,
		"brownian": NoiseBrown,
		"red":      NoiseBrown,
	}
	for name, want := range cases {
		got, err := ParseNoiseType(name)
		if err != nil {
			t.Fatalf("ParseNoiseType(%q): %v", name, err)
		}
		if got != want {
			t.Fatalf("ParseNoiseType(%q)=%v want=%v", name, got, want)
		}
	}
	if _, err := ParseNoiseType("purple"); err == nil {
		t.Fatalf("expected error for unknown noise type")
	}
}
