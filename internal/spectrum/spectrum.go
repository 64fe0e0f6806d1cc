package spectrum

import (
	"math"

	"github.com/mjibson/go-dsp/fft"
	"github.com/mjibson/go-dsp/spectral"
	"github.com/mjibson/go-dsp/window"
)

// Canonical EEG rhythm band edges in Hz.
const (
	DeltaLow  = 0.5
	ThetaLow  = 4.0
	AlphaLow  = 8.0
	BetaLow   = 13.0
	GammaLow  = 30.0
	GammaHigh = 80.0
)

// BandPowers holds the mean spectral power inside each EEG rhythm band.
type BandPowers struct {
	Delta float64 `json:"delta"`
	Theta float64 `json:"theta"`
	Alpha float64 `json:"alpha"`
	Beta  float64 `json:"beta"`
	Gamma float64 `json:"gamma"`
}

// Dominant names the band carrying the most power.
func (b BandPowers) Dominant() string {
	name, best := "delta", b.Delta
	if b.Theta > best {
		name, best = "theta", b.Theta
	}
	if b.Alpha > best {
		name, best = "alpha", b.Alpha
	}
	if b.Beta > best {
		name, best = "beta", b.Beta
	}
	if b.Gamma > best {
		name = "gamma"
	}
	return name
}

// Analyzer computes power spectra and EEG band energies from sample
// windows. It reuses an internal FFT workspace and is not safe for
// concurrent use.
type Analyzer struct {
	sampleRate float64

	buffer []complex128
	window []float64
}

// Config controls Analyzer behavior.
type Config struct {
	SampleRate float64
}

// New creates an Analyzer for the given sample rate.
func New(cfg Config) *Analyzer {
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = 48_000
	}
	return &Analyzer{sampleRate: cfg.SampleRate}
}

// SampleRate reports the rate the analyzer interprets samples at.
func (a *Analyzer) SampleRate() float64 {
	return a.sampleRate
}

// PowerSpectrum returns the single-sided windowed power spectrum of the
// samples plus the frequency width of one bin. The input is zero-padded
// to a power of two.
func (a *Analyzer) PowerSpectrum(samples []float32) ([]float64, float64) {
	if len(samples) == 0 {
		return nil, 0
	}

	size := nextPow2(min(len(samples), 8192))
	if size < 256 {
		size = 256
	}

	a.ensureWorkspace(size)

	buffer := a.buffer[:size]
	win := a.window[:size]

	sampleCount := len(samples)
	for i := 0; i < size; i++ {
		if i < sampleCount {
			buffer[i] = complex(float64(samples[i])*win[i], 0)
			continue
		}
		buffer[i] = 0
	}

	fftRes := fft.FFT(buffer)

	power := make([]float64, size/2)
	norm := 1.0 / float64(size)
	for k := range power {
		power[k] = cpow(fftRes[k]) * norm
	}
	return power, a.sampleRate / float64(size)
}

// Welch estimates the power spectral density with Hann-windowed segments
// at 50% overlap. It returns the density and the matching frequency axis.
func (a *Analyzer) Welch(samples []float32, segment int) (pxx, freqs []float64) {
	if len(samples) == 0 {
		return nil, nil
	}
	if segment <= 0 {
		segment = 1024
	}
	for segment > len(samples) && segment > 32 {
		segment /= 2
	}

	x := make([]float64, len(samples))
	for i, v := range samples {
		x[i] = float64(v)
	}
	opts := &spectral.PwelchOptions{
		NFFT:     segment,
		Window:   window.Hann,
		Noverlap: segment / 2,
	}
	return spectral.Pwelch(x, a.sampleRate, opts)
}

// Bands integrates a Welch estimate over the EEG rhythm ranges.
func (a *Analyzer) Bands(samples []float32) BandPowers {
	pxx, freqs := a.Welch(samples, 1024)
	return BandPowers{
		Delta: bandPower(pxx, freqs, DeltaLow, ThetaLow),
		Theta: bandPower(pxx, freqs, ThetaLow, AlphaLow),
		Alpha: bandPower(pxx, freqs, AlphaLow, BetaLow),
		Beta:  bandPower(pxx, freqs, BetaLow, GammaLow),
		Gamma: bandPower(pxx, freqs, GammaLow, GammaHigh),
	}
}

// DominantFrequency returns the center frequency of the strongest
// non-DC bin of a power spectrum.
func DominantFrequency(power []float64, resolution float64) float64 {
	bestIdx := 0
	best := 0.0
	for i := 1; i < len(power); i++ {
		if power[i] > best {
			best = power[i]
			bestIdx = i
		}
	}
	return float64(bestIdx) * resolution
}

// SpectralSlope fits log10 power against log10 frequency between minHz
// and maxHz and returns the slope. White noise sits near 0, pink near
// -1, and brown near -2.
func SpectralSlope(power []float64, resolution float64, minHz, maxHz float64) float64 {
	var xs, ys []float64
	for i := 1; i < len(power); i++ {
		f := float64(i) * resolution
		if f < minHz || f > maxHz {
			continue
		}
		p := power[i]
		if p <= 0 {
			continue
		}
		xs = append(xs, math.Log10(f))
		ys = append(ys, math.Log10(p))
	}
	return fitSlope(xs, ys)
}

// SlopeBetween runs the same fit directly on a Welch estimate.
func SlopeBetween(pxx, freqs []float64, minHz, maxHz float64) float64 {
	var xs, ys []float64
	for i := range freqs {
		f := freqs[i]
		if f < minHz || f > maxHz || f <= 0 {
			continue
		}
		p := pxx[i]
		if p <= 0 {
			continue
		}
		xs = append(xs, math.Log10(f))
		ys = append(ys, math.Log10(p))
	}
	return fitSlope(xs, ys)
}

func fitSlope(xs, ys []float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	meanX := average(xs)
	meanY := average(ys)
	var num, den float64
	for i := range xs {
		dx := xs[i] - meanX
		num += dx * (ys[i] - meanY)
		den += dx * dx
	}
	if den == 0 {
		return 0
	}
	return num / den
}

func bandPower(pxx, freqs []float64, lo, hi float64) float64 {
	sum := 0.0
	count := 0
	for i := range freqs {
		if freqs[i] < lo || freqs[i] >= hi {
			continue
		}
		sum += pxx[i]
		count++
	}
	if count == 0 {
		return 0
	}
	return sum / float64(count)
}

func hann(i, size float64) float64 {
	return 0.5 * (1.0 - math.Cos(2.0*math.Pi*i/size))
}

func (a *Analyzer) ensureWorkspace(size int) {
	if len(a.buffer) != size {
		a.buffer = make([]complex128, size)
	}
	if len(a.window) != size {
		a.window = make([]float64, size)
		sizeF := float64(size)
		for i := range a.window {
			a.window[i] = hann(float64(i), sizeF)
		}
	}
}

func cpow(c complex128) float64 {
	return real(c)*real(c) + imag(c)*imag(c)
}

func average(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func nextPow2(n int) int {
	if n <= 0 {
		return 1
	}
	n--
	n |= n >> 1
	n |= n >> 2
	n |= n >> 4
	n |= n >> 8
	n |= n >> 16
	return n + 1
}
