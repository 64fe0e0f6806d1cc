package engine

import "fmt"

// MaxHz is the upper bound (inclusive) for every entrainment frequency. The
// lower bound is zero, exclusive.
const MaxHz = 100.0

// FrequencyProgram is the closed set of modulation programs an Oscillator can
// run: Fixed, Ramp, Coupled, and DualChannel. The variants are immutable value
// types built through the New* constructors, which validate all bounds once so
// an invalid program is unrepresentable afterwards. Call sites switch on the
// concrete type; the unexported marker keeps the set closed to this package.
type FrequencyProgram interface {
	isProgram()
	String() string
}

// Fixed pulses at one constant frequency.
type Fixed struct {
	Hz float64
}

// Ramp sweeps linearly from StartHz to EndHz over DurationMs of elapsed time,
// then holds EndHz.
type Ramp struct {
	StartHz    float64
	EndHz      float64
	DurationMs float64
}

// Coupled gates a fast carrier with a slow modulator cycle: the carrier is
// audible only during the first DutyRatio fraction of each modulator cycle.
type Coupled struct {
	CarrierHz   float64
	ModulatorHz float64
	DutyRatio   float64
}

// DualChannel drives the left and right channels at independent constant
// frequencies.
type DualChannel struct {
	LeftHz  float64
	RightHz float64
}

func (Fixed) isProgram()       {}
func (Ramp) isProgram()        {}
func (Coupled) isProgram()     {}
func (DualChannel) isProgram() {}

// NewFixed returns a Fixed program after validating the frequency.
func NewFixed(hz float64) (Fixed, error) {
	if err := checkHz("fixed", hz); err != nil {
		return Fixed{}, err
	}
	return Fixed{Hz: hz}, nil
}

// NewRamp returns a Ramp program after validating both endpoints and the
// duration.
func NewRamp(startHz, endHz, durationMs float64) (Ramp, error) {
	if err := checkHz("ramp start", startHz); err != nil {
		return Ramp{}, err
	}
	if err := checkHz("ramp end", endHz); err != nil {
		return Ramp{}, err
	}
	if !(durationMs > 0) {
		return Ramp{}, fmt.Errorf("ramp duration must be positive, got %g ms", durationMs)
	}
	return Ramp{StartHz: startHz, EndHz: endHz, DurationMs: durationMs}, nil
}

// NewCoupled returns a Coupled program after validating both frequencies and
// the duty ratio.
func NewCoupled(carrierHz, modulatorHz, dutyRatio float64) (Coupled, error) {
	if err := checkHz("carrier", carrierHz); err != nil {
		return Coupled{}, err
	}
	if err := checkHz("modulator", modulatorHz); err != nil {
		return Coupled{}, err
	}
	if !(dutyRatio >= 0 && dutyRatio <= 1) {
		return Coupled{}, fmt.Errorf("duty ratio must be in [0,1], got %g", dutyRatio)
	}
	return Coupled{CarrierHz: carrierHz, ModulatorHz: modulatorHz, DutyRatio: dutyRatio}, nil
}

// NewDualChannel returns a DualChannel program after validating both channel
// frequencies.
func NewDualChannel(leftHz, rightHz float64) (DualChannel, error) {
	if err := checkHz("left", leftHz); err != nil {
		return DualChannel{}, err
	}
	if err := checkHz("right", rightHz); err != nil {
		return DualChannel{}, err
	}
	return DualChannel{LeftHz: leftHz, RightHz: rightHz}, nil
}

// checkHz rejects frequencies outside (0, MaxHz]. The negated comparison also
// rejects NaN.
func checkHz(name string, hz float64) error {
	if !(hz > 0 && hz <= MaxHz) {
		return fmt.Errorf("%s frequency must be in (0,%g] Hz, got %g", name, MaxHz, hz)
	}
	return nil
}

// FrequencyAt returns the instantaneous frequency elapsedMs into the ramp. The
// sweep is linear between the endpoints and clamps exactly at EndHz once
// elapsedMs reaches DurationMs.
func (r Ramp) FrequencyAt(elapsedMs float64) float64 {
	if elapsedMs <= 0 {
		return r.StartHz
	}
	progress := elapsedMs / r.DurationMs
	if progress >= 1 {
		return r.EndHz
	}
	return r.StartHz + (r.EndHz-r.StartHz)*progress
}

// GateOpen reports whether the carrier is audible at the given modulator
// phase. The active interval is half-open: open for phase in [0, DutyRatio),
// closed at DutyRatio and beyond.
func (c Coupled) GateOpen(modulatorPhase float64) bool {
	return modulatorPhase < c.DutyRatio
}

func (f Fixed) String() string {
	return fmt.Sprintf("fixed %.2f Hz", f.Hz)
}

func (r Ramp) String() string {
	return fmt.Sprintf("ramp %.2f->%.2f Hz over %.0fs", r.StartHz, r.EndHz, r.DurationMs/1000)
}

func (c Coupled) String() string {
	return fmt.Sprintf("coupled %.2f Hz gated at %.2f Hz duty %.2f", c.CarrierHz, c.ModulatorHz, c.DutyRatio)
}

func (d DualChannel) String() string {
	return fmt.Sprintf("dual %.2f Hz left / %.2f Hz right", d.LeftHz, d.RightHz)
}
