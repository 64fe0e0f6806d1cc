package engine

import (
	"fmt"
	"math"
	"sync/atomic"
	"time"

	"github.com/matthewfrazier/gammasync/internal/dsp"
)

const defaultSampleRate = 48_000

// Oscillator is the single source of truth for what the stimulus is doing
// right now. It owns the sample clock, the active FrequencyProgram, and the
// composed noise generators, and exposes the current state as a phase in
// [0,1) and as generatable PCM samples.
//
// Exactly one producer (the audio callback) advances the clock through the
// NextSample and Fill* calls. Any number of readers may call the phase and
// frequency accessors from any goroutine: reads are atomic loads, never block,
// and never allocate. Configure and Reset must only run while no producer is
// generating samples.
type Oscillator struct {
	sampleRate float64
	clock      atomic.Uint64
	prog       atomic.Pointer[programState]
	pink       *PinkNoise
	brown      *BrownNoise
}

// programState is swapped atomically as one unit so readers never observe a
// program without its start timestamp.
type programState struct {
	program   FrequencyProgram
	startedAt time.Time
}

// Config controls how an Oscillator is created.
type Config struct {
	// SampleRate in Hz, fixed for the oscillator's lifetime. Defaults to 48000.
	SampleRate float64
	// Program is the initial frequency program. Required; construct one with
	// the New* helpers so invalid settings are caught up front.
	Program FrequencyProgram
	// NoiseSeed makes the composed noise generators deterministic. Zero seeds
	// them from the current time.
	NoiseSeed int64
}

// New creates an Oscillator. Requiring a program here keeps every later
// operation total: there is no unconfigured state in which phase or sample
// reads would be undefined.
func New(cfg Config) (*Oscillator, error) {
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = defaultSampleRate
	}
	if cfg.Program == nil {
		return nil, fmt.Errorf("frequency program is required")
	}
	if cfg.NoiseSeed == 0 {
		cfg.NoiseSeed = time.Now().UnixNano()
	}

	o := &Oscillator{
		sampleRate: cfg.SampleRate,
		pink:       NewPinkNoise(cfg.NoiseSeed),
		brown:      NewBrownNoise(cfg.NoiseSeed + 1),
	}
	o.prog.Store(&programState{program: cfg.Program, startedAt: time.Now()})
	return o, nil
}

// Configure installs a new program, zeroes the sample clock, re-stamps the
// session start, and reseeds the noise generators. Call it only between audio
// start/stop transitions, never while a callback is producing samples.
func (o *Oscillator) Configure(program FrequencyProgram) {
	o.prog.Store(&programState{program: program, startedAt: time.Now()})
	o.clock.Store(0)
	o.pink.Reset()
	o.brown.Reset()
}

// Reset zeroes the sample clock, re-stamps the session start, and reseeds the
// noise generators. The active program is kept. Same calling contract as
// Configure.
func (o *Oscillator) Reset() {
	st := o.prog.Load()
	o.prog.Store(&programState{program: st.program, startedAt: time.Now()})
	o.clock.Store(0)
	o.pink.Reset()
	o.brown.Reset()
}

// SampleRate returns the fixed sample rate in Hz.
func (o *Oscillator) SampleRate() float64 { return o.sampleRate }

// SampleIndex returns the number of samples emitted since the last reset.
func (o *Oscillator) SampleIndex() uint64 { return o.clock.Load() }

// Program returns the active frequency program.
func (o *Oscillator) Program() FrequencyProgram { return o.prog.Load().program }

// StartedAt returns when the current program was installed. This wall-clock
// stamp is for status display only; every timing decision inside the engine
// derives from the sample clock.
func (o *Oscillator) StartedAt() time.Time { return o.prog.Load().startedAt }

// CurrentFrequency returns the instantaneous primary frequency in Hz: the
// constant for Fixed, the sweep position for Ramp, the carrier for Coupled,
// and the left channel for DualChannel.
func (o *Oscillator) CurrentFrequency() float64 {
	st := o.prog.Load()
	n := o.clock.Load()
	return primaryFrequency(st.program, elapsedMs(n, o.sampleRate))
}

// SecondaryFrequency returns the modulator rate for Coupled and the right
// channel for DualChannel; the other variants report the primary rate.
func (o *Oscillator) SecondaryFrequency() float64 {
	st := o.prog.Load()
	n := o.clock.Load()
	return secondaryFrequency(st.program, elapsedMs(n, o.sampleRate))
}

// PrimaryPhase returns the normalized position in [0,1) within the current
// primary cycle. Recomputed from the clock on every read, so it tracks ramps
// without any cached state.
func (o *Oscillator) PrimaryPhase() float64 {
	st := o.prog.Load()
	n := o.clock.Load()
	return phaseOf(n, primaryFrequency(st.program, elapsedMs(n, o.sampleRate)), o.sampleRate)
}

// SecondaryPhase returns the phase of the secondary frequency: the modulator
// for Coupled, the right channel for DualChannel, the primary otherwise.
func (o *Oscillator) SecondaryPhase() float64 {
	st := o.prog.Load()
	n := o.clock.Load()
	return phaseOf(n, secondaryFrequency(st.program, elapsedMs(n, o.sampleRate)), o.sampleRate)
}

// LeftPhase returns the left channel phase. It equals PrimaryPhase for every
// variant; DualChannel's primary is its left channel.
func (o *Oscillator) LeftPhase() float64 { return o.PrimaryPhase() }

// RightPhase returns the right channel phase: the right frequency for
// DualChannel, the primary phase otherwise.
func (o *Oscillator) RightPhase() float64 {
	st := o.prog.Load()
	n := o.clock.Load()
	if d, ok := st.program.(DualChannel); ok {
		return phaseOf(n, d.RightHz, o.sampleRate)
	}
	return phaseOf(n, primaryFrequency(st.program, elapsedMs(n, o.sampleRate)), o.sampleRate)
}

// GateOpen reports whether a Coupled program's carrier is audible at this
// instant. Non-coupled programs are always open.
func (o *Oscillator) GateOpen() bool {
	st := o.prog.Load()
	c, ok := st.program.(Coupled)
	if !ok {
		return true
	}
	return c.GateOpen(phaseOf(o.clock.Load(), c.ModulatorHz, o.sampleRate))
}

// NextSample advances the sample clock by exactly one and returns the next
// mono value in [-1,1] scaled by amplitude (expected in [0,1]).
func (o *Oscillator) NextSample(amplitude float64) float64 {
	st := o.prog.Load()
	n := o.clock.Add(1) - 1
	return sampleAt(st.program, n, o.sampleRate, amplitude)
}

// NextStereoSample advances the clock by exactly one and returns the left and
// right values. Every variant except DualChannel mirrors the mono value on
// both channels.
func (o *Oscillator) NextStereoSample(amplitude float64) (left, right float64) {
	st := o.prog.Load()
	n := o.clock.Add(1) - 1
	return stereoSampleAt(st.program, n, o.sampleRate, amplitude)
}

// FillMono fills buf with mono samples at the given amplitude, mixes in the
// selected noise scaled by noiseAmp, and clips each sum to [-1,1].
func (o *Oscillator) FillMono(buf []float32, amplitude float64, noise NoiseType, noiseAmp float64) {
	st := o.prog.Load()
	for i := range buf {
		n := o.clock.Add(1) - 1
		s := sampleAt(st.program, n, o.sampleRate, amplitude)
		s += o.noiseSample(noise) * noiseAmp
		buf[i] = float32(dsp.Clamp(s, -1, 1))
	}
}

// FillStereo fills buf with interleaved left/right samples, mixing the same
// noise draw into both channels of a frame. The buffer length must be even;
// odd-length buffers are rejected before anything is written.
func (o *Oscillator) FillStereo(buf []float32, amplitude float64, noise NoiseType, noiseAmp float64) error {
	if len(buf)%2 != 0 {
		return fmt.Errorf("stereo buffer length must be even, got %d", len(buf))
	}
	st := o.prog.Load()
	for i := 0; i < len(buf); i += 2 {
		n := o.clock.Add(1) - 1
		l, r := stereoSampleAt(st.program, n, o.sampleRate, amplitude)
		ns := o.noiseSample(noise) * noiseAmp
		buf[i] = float32(dsp.Clamp(l+ns, -1, 1))
		buf[i+1] = float32(dsp.Clamp(r+ns, -1, 1))
	}
	return nil
}

// FillBinaural fills buf with an interleaved binaural pair: a baseHz tone on
// the left and baseHz plus the program's current frequency on the right, so
// the listener perceives a beat at the program rate. It ignores the program's
// own waveform but advances the same shared sample clock, keeping phase reads
// consistent with the rest of the system. The buffer length must be even;
// odd-length buffers are rejected before anything is written.
func (o *Oscillator) FillBinaural(buf []float32, baseHz, amplitude float64, noise NoiseType, noiseAmp float64) error {
	if baseHz <= 0 {
		return fmt.Errorf("binaural base frequency must be positive, got %g", baseHz)
	}
	if len(buf)%2 != 0 {
		return fmt.Errorf("binaural buffer length must be even, got %d", len(buf))
	}
	st := o.prog.Load()
	for i := 0; i < len(buf); i += 2 {
		n := o.clock.Add(1) - 1
		beat := primaryFrequency(st.program, elapsedMs(n, o.sampleRate))
		l := math.Sin(2*math.Pi*phaseOf(n, baseHz, o.sampleRate)) * amplitude
		r := math.Sin(2*math.Pi*phaseOf(n, baseHz+beat, o.sampleRate)) * amplitude
		ns := o.noiseSample(noise) * noiseAmp
		buf[i] = float32(dsp.Clamp(l+ns, -1, 1))
		buf[i+1] = float32(dsp.Clamp(r+ns, -1, 1))
	}
	return nil
}

func (o *Oscillator) noiseSample(noise NoiseType) float64 {
	switch noise {
	case NoisePink:
		return o.pink.Next()
	case NoiseBrown:
		return o.brown.Next()
	}
	return 0
}

// phaseOf implements phase = (n mod samplesPerCycle) / samplesPerCycle with
// samplesPerCycle = sampleRate/hz. The result is strictly in [0,1).
func phaseOf(n uint64, hz, sampleRate float64) float64 {
	if hz <= 0 {
		return 0
	}
	samplesPerCycle := sampleRate / hz
	return math.Mod(float64(n), samplesPerCycle) / samplesPerCycle
}

// elapsedMs derives elapsed milliseconds from the sample clock. Ramps consume
// this rather than wall-clock time, so frequency and phase share exactly one
// time source and cannot shear apart under scheduling delay.
func elapsedMs(n uint64, sampleRate float64) float64 {
	return float64(n) / sampleRate * 1000
}

func primaryFrequency(p FrequencyProgram, elapsed float64) float64 {
	switch prog := p.(type) {
	case Fixed:
		return prog.Hz
	case Ramp:
		return prog.FrequencyAt(elapsed)
	case Coupled:
		return prog.CarrierHz
	case DualChannel:
		return prog.LeftHz
	}
	return 0
}

func secondaryFrequency(p FrequencyProgram, elapsed float64) float64 {
	switch prog := p.(type) {
	case Coupled:
		return prog.ModulatorHz
	case DualChannel:
		return prog.RightHz
	}
	return primaryFrequency(p, elapsed)
}

// sampleAt generates the mono sample for index n. A nil program yields
// silence, matching the phase-zero default of the read accessors.
func sampleAt(p FrequencyProgram, n uint64, sampleRate, amplitude float64) float64 {
	switch prog := p.(type) {
	case Fixed:
		return math.Sin(2*math.Pi*phaseOf(n, prog.Hz, sampleRate)) * amplitude
	case Ramp:
		hz := prog.FrequencyAt(elapsedMs(n, sampleRate))
		return math.Sin(2*math.Pi*phaseOf(n, hz, sampleRate)) * amplitude
	case Coupled:
		if !prog.GateOpen(phaseOf(n, prog.ModulatorHz, sampleRate)) {
			return 0
		}
		return math.Sin(2*math.Pi*phaseOf(n, prog.CarrierHz, sampleRate)) * amplitude
	case DualChannel:
		l := math.Sin(2 * math.Pi * phaseOf(n, prog.LeftHz, sampleRate))
		r := math.Sin(2 * math.Pi * phaseOf(n, prog.RightHz, sampleRate))
		return (l + r) / 2 * amplitude
	}
	return 0
}

// stereoSampleAt generates the left/right pair for index n. DualChannel emits
// its channels independently; everything else mirrors the mono value.
func stereoSampleAt(p FrequencyProgram, n uint64, sampleRate, amplitude float64) (float64, float64) {
	if d, ok := p.(DualChannel); ok {
		l := math.Sin(2*math.Pi*phaseOf(n, d.LeftHz, sampleRate)) * amplitude
		r := math.Sin(2*math.Pi*phaseOf(n, d.RightHz, sampleRate)) * amplitude
		return l, r
	}
	s := sampleAt(p, n, sampleRate, amplitude)
	return s, s
}
