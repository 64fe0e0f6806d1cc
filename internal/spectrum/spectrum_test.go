package spectrum

import (
	"math"
	"math/rand"
	"testing"

	"github.com/matthewfrazier/gammasync/internal/engine"
)

func makeTone(sampleRate, hz float64, n int) []float32 {
	samples := make([]float32, n)
	for i := range samples {
		samples[i] = float32(0.8 * math.Sin(2*math.Pi*hz*float64(i)/sampleRate))
	}
	return samples
}

func TestNextPow2(t *testing.T) {
	cases := map[int]int{
		0:    1,
		1:    1,
		2:    2,
		3:    4,
		5:    8,
		16:   16,
		31:   32,
		257:  512,
		4096: 4096,
	}
	for input, want := range cases {
		if got := nextPow2(input); got != want {
			t.Fatalf("nextPow2(%d)=%d want=%d", input, got, want)
		}
	}
}

func TestPowerSpectrumEmptyInput(t *testing.T) {
	a := New(Config{SampleRate: 1000})
	power, resolution := a.PowerSpectrum(nil)
	if power != nil || resolution != 0 {
		t.Fatalf("expected empty result for empty input, got %d bins", len(power))
	}
}

func TestPowerSpectrumFindsTone(t *testing.T) {
	a := New(Config{SampleRate: 1000})
	samples := makeTone(1000, 50, 2048)
	power, resolution := a.PowerSpectrum(samples)
	if len(power) != 1024 {
		t.Fatalf("expected 1024 single-sided bins, got %d", len(power))
	}
	if got := DominantFrequency(power, resolution); math.Abs(got-50) > 1 {
		t.Fatalf("dominant frequency=%f want about 50", got)
	}
}

func TestSpectralSlopeSynthetic(t *testing.T) {
	const bins = 4096
	flat := make([]float64, bins)
	pink := make([]float64, bins)
	brown := make([]float64, bins)
	for i := 1; i < bins; i++ {
		f := float64(i)
		flat[i] = 1
		pink[i] = 1 / f
		brown[i] = 1 / (f * f)
	}
	if got := SpectralSlope(flat, 1, 10, 4000); math.Abs(got) > 1e-9 {
		t.Fatalf("flat slope=%f want=0", got)
	}
	if got := SpectralSlope(pink, 1, 10, 4000); math.Abs(got+1) > 1e-9 {
		t.Fatalf("1/f slope=%f want=-1", got)
	}
	if got := SpectralSlope(brown, 1, 10, 4000); math.Abs(got+2) > 1e-9 {
		t.Fatalf("1/f^2 slope=%f want=-2", got)
	}
}

func TestWelchFindsTone(t *testing.T) {
	a := New(Config{SampleRate: 750})
	samples := makeTone(750, 40, 4096)
	pxx, freqs := a.Welch(samples, 1024)
	if len(pxx) == 0 || len(pxx) != len(freqs) {
		t.Fatalf("bad welch shape: %d power bins, %d freq bins", len(pxx), len(freqs))
	}
	bestIdx := 0
	for i := range pxx {
		if pxx[i] > pxx[bestIdx] {
			bestIdx = i
		}
	}
	if got := freqs[bestIdx]; math.Abs(got-40) > 1.5 {
		t.Fatalf("welch peak at %f Hz want about 40", got)
	}
}

func TestBandsClassifyTones(t *testing.T) {
	a := New(Config{SampleRate: 750})
	cases := map[float64]string{
		2:  "delta",
		6:  "theta",
		10: "alpha",
		20: "beta",
		40: "gamma",
	}
	for hz, want := range cases {
		samples := makeTone(750, hz, 4096)
		bands := a.Bands(samples)
		if got := bands.Dominant(); got != want {
			t.Fatalf("%g Hz tone classified as %s want %s (%+v)", hz, got, want, bands)
		}
	}
}

func TestNoiseColorSlopes(t *testing.T) {
	const (
		sampleRate = 48000
		n          = 96000
		segment    = 4096
	)
	a := New(Config{SampleRate: sampleRate})

	rng := rand.New(rand.NewSource(3))
	white := make([]float32, n)
	for i := range white {
		white[i] = float32(rng.Float64()*2 - 1)
	}
	pinkGen := engine.NewPinkNoise(3)
	pink := make([]float32, n)
	for i := range pink {
		pink[i] = float32(pinkGen.Next())
	}
	brownGen := engine.NewBrownNoise(3)
	brown := make([]float32, n)
	for i := range brown {
		brown[i] = float32(brownGen.Next())
	}

	slopeOf := func(samples []float32) float64 {
		pxx, freqs := a.Welch(samples, segment)
		return SlopeBetween(pxx, freqs, 100, 8000)
	}
	whiteSlope := slopeOf(white)
	pinkSlope := slopeOf(pink)
	brownSlope := slopeOf(brown)

	if whiteSlope < -0.35 || whiteSlope > 0.35 {
		t.Fatalf("white noise slope=%f want near 0", whiteSlope)
	}
	if pinkSlope < -1.45 || pinkSlope > -0.55 {
		t.Fatalf("pink noise slope=%f want near -1", pinkSlope)
	}
	if brownSlope > -1.5 {
		t.Fatalf("brown noise slope=%f want steeper than -1.5", brownSlope)
	}
	if !(whiteSlope > pinkSlope && pinkSlope > brownSlope) {
		t.Fatalf("slope ordering violated: white=%f pink=%f brown=%f", whiteSlope, pinkSlope, brownSlope)
	}
}
