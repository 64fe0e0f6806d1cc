package engine

import (
	"math"
	"sync"
	"testing"
)

func newTestOscillator(t *testing.T, p FrequencyProgram, rate float64) *Oscillator {
	t.Helper()
	osc, err := New(Config{SampleRate: rate, Program: p, NoiseSeed: 1})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return osc
}

// wrapDistance measures how far a phase value is from the wrap point,
// treating 0.9999 and 0.0001 as equally close to zero.
func wrapDistance(phase float64) float64 {
	if phase > 0.5 {
		return 1 - phase
	}
	return phase
}

func checkRange32(t *testing.T, label string, buf []float32) {
	t.Helper()
	for i, v := range buf {
		if v < -1 || v > 1 {
			t.Fatalf("%s: sample %d out of range: %f", label, i, v)
		}
	}
}

func TestNewRequiresProgram(t *testing.T) {
	if _, err := New(Config{SampleRate: 48000}); err == nil {
		t.Fatalf("expected error when no program is given")
	}
}

func TestNewDefaultsSampleRate(t *testing.T) {
	fixed, err := NewFixed(40)
	if err != nil {
		t.Fatalf("NewFixed: %v", err)
	}
	osc, err := New(Config{Program: fixed})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if got := osc.SampleRate(); got != defaultSampleRate {
		t.Fatalf("SampleRate()=%f want=%d", got, defaultSampleRate)
	}
}

func TestFixedPhaseWrapsAfterOneCycle(t *testing.T) {
	rates := []float64{44100, 48000}
	freqs := []float64{1, 7.83, 12.5, 40, 99.9, 100}
	for _, rate := range rates {
		for _, hz := range freqs {
			fixed, err := NewFixed(hz)
			if err != nil {
				t.Fatalf("NewFixed(%g): %v", hz, err)
			}
			osc := newTestOscillator(t, fixed, rate)
			steps := int(math.Round(rate / hz))
			for i := 0; i < steps; i++ {
				osc.NextSample(1)
			}
			if p := osc.PrimaryPhase(); wrapDistance(p) > 0.01 {
				t.Fatalf("hz=%g rate=%g: phase %f not near wrap after one cycle", hz, rate, p)
			}
		}
	}
}

func TestPhaseStaysInHalfOpenInterval(t *testing.T) {
	fixed, err := NewFixed(99.7)
	if err != nil {
		t.Fatalf("NewFixed: %v", err)
	}
	osc := newTestOscillator(t, fixed, 44100)
	for i := 0; i < 20000; i++ {
		if p := osc.PrimaryPhase(); p < 0 || p >= 1 {
			t.Fatalf("phase out of [0,1) at sample %d: %f", i, p)
		}
		osc.NextSample(1)
	}
}

func TestRampFrequencyDerivesFromSampleClock(t *testing.T) {
	ramp, err := NewRamp(10, 40, 1000)
	if err != nil {
		t.Fatalf("NewRamp: %v", err)
	}
	osc := newTestOscillator(t, ramp, 48000)
	if got := osc.CurrentFrequency(); got != 10 {
		t.Fatalf("frequency at start=%f want=10", got)
	}
	buf := make([]float32, 24000)
	osc.FillMono(buf, 1, NoiseNone, 0)
	if got := osc.CurrentFrequency(); math.Abs(got-25) > 1e-9 {
		t.Fatalf("frequency at half ramp=%f want=25", got)
	}
	osc.FillMono(buf, 1, NoiseNone, 0)
	if got := osc.CurrentFrequency(); got != 40 {
		t.Fatalf("frequency at ramp end=%f want=40", got)
	}
	osc.FillMono(buf, 1, NoiseNone, 0)
	if got := osc.CurrentFrequency(); got != 40 {
		t.Fatalf("frequency past ramp end=%f should stay clamped", got)
	}
}

func TestNextSampleMatchesSineForFixed(t *testing.T) {
	fixed, err := NewFixed(40)
	if err != nil {
		t.Fatalf("NewFixed: %v", err)
	}
	osc := newTestOscillator(t, fixed, 48000)
	for i := 0; i < 4800; i++ {
		want := 0.5 * math.Sin(2*math.Pi*float64(i)*40/48000)
		got := osc.NextSample(0.5)
		if math.Abs(got-want) > 1e-9 {
			t.Fatalf("sample %d: got=%f want=%f", i, got, want)
		}
	}
}

func TestSampleRangeAllVariants(t *testing.T) {
	fixed, _ := NewFixed(40)
	ramp, _ := NewRamp(10, 40, 2000)
	coupled, _ := NewCoupled(40, 6, 0.3)
	dual, _ := NewDualChannel(18, 10)
	programs := map[string]FrequencyProgram{
		"fixed":   fixed,
		"ramp":    ramp,
		"coupled": coupled,
		"dual":    dual,
	}
	for name, prog := range programs {
		osc := newTestOscillator(t, prog, 48000)
		for i := 0; i < 10000; i++ {
			v := osc.NextSample(1)
			if v < -1 || v > 1 {
				t.Fatalf("%s: mono sample %d out of range: %f", name, i, v)
			}
			l, r := osc.NextStereoSample(1)
			if l < -1 || l > 1 || r < -1 || r > 1 {
				t.Fatalf("%s: stereo sample %d out of range: %f %f", name, i, l, r)
			}
		}
		buf := make([]float32, 4096)
		osc.FillMono(buf, 0.8, NoisePink, 0.5)
		checkRange32(t, name+" mono fill", buf)
		if err := osc.FillStereo(buf, 0.8, NoiseBrown, 0.5); err != nil {
			t.Fatalf("%s: FillStereo: %v", name, err)
		}
		checkRange32(t, name+" stereo fill", buf)
		if err := osc.FillBinaural(buf, 200, 0.8, NoisePink, 0.3); err != nil {
			t.Fatalf("%s: FillBinaural: %v", name, err)
		}
		checkRange32(t, name+" binaural fill", buf)
	}
}

func TestResetRestoresZeroPhase(t *testing.T) {
	fixed, err := NewFixed(40)
	if err != nil {
		t.Fatalf("NewFixed: %v", err)
	}
	osc := newTestOscillator(t, fixed, 48000)
	for i := 0; i < 12345; i++ {
		osc.NextSample(0.5)
	}
	osc.Reset()
	if got := osc.PrimaryPhase(); got != 0 {
		t.Fatalf("phase after reset=%f want exactly 0", got)
	}
	if got := osc.SampleIndex(); got != 0 {
		t.Fatalf("sample index after reset=%d want=0", got)
	}
}

func TestConfigureInstallsProgramAndZeroesClock(t *testing.T) {
	fixed, err := NewFixed(12)
	if err != nil {
		t.Fatalf("NewFixed: %v", err)
	}
	osc := newTestOscillator(t, fixed, 48000)
	for i := 0; i < 9999; i++ {
		osc.NextSample(1)
	}
	coupled, err := NewCoupled(40, 6, 0.3)
	if err != nil {
		t.Fatalf("NewCoupled: %v", err)
	}
	osc.Configure(coupled)
	if got := osc.SampleIndex(); got != 0 {
		t.Fatalf("sample index after Configure=%d want=0", got)
	}
	if got := osc.CurrentFrequency(); got != 40 {
		t.Fatalf("carrier frequency=%f want=40", got)
	}
	if got := osc.SecondaryFrequency(); got != 6 {
		t.Fatalf("modulator frequency=%f want=6", got)
	}
}

func TestCoupledGatingScenario(t *testing.T) {
	coupled, err := NewCoupled(40, 6, 0.3)
	if err != nil {
		t.Fatalf("NewCoupled: %v", err)
	}
	osc := newTestOscillator(t, coupled, 48000)
	samples := 3 * 48000 / 6
	active := 0
	var activeEnergy float64
	for i := 0; i < samples; i++ {
		phase := osc.SecondaryPhase()
		v := osc.NextSample(1)
		nearBoundary := math.Abs(phase-0.3) < 0.001
		if phase >= 0.3 && !nearBoundary && v != 0 {
			t.Fatalf("sample %d: modulator phase %f is past duty but value is %f", i, phase, v)
		}
		if phase < 0.3 {
			active++
			activeEnergy += math.Abs(v)
		}
	}
	if active < samples/5 {
		t.Fatalf("active window too small: %d of %d samples", active, samples)
	}
	if mean := activeEnergy / float64(active); mean < 0.1 {
		t.Fatalf("carrier energy too low during active window: %f", mean)
	}
}

func TestGateOpenTracksModulatorPhase(t *testing.T) {
	coupled, err := NewCoupled(40, 6, 0.3)
	if err != nil {
		t.Fatalf("NewCoupled: %v", err)
	}
	osc := newTestOscillator(t, coupled, 48000)
	if !osc.GateOpen() {
		t.Fatalf("gate should be open at modulator phase 0")
	}
	buf := make([]float32, 4000)
	osc.FillMono(buf, 1, NoiseNone, 0)
	if osc.GateOpen() {
		t.Fatalf("gate should be closed at modulator phase 0.5")
	}
	fixed, err := NewFixed(40)
	if err != nil {
		t.Fatalf("NewFixed: %v", err)
	}
	osc.Configure(fixed)
	osc.FillMono(buf, 1, NoiseNone, 0)
	if !osc.GateOpen() {
		t.Fatalf("gate should always report open for a fixed program")
	}
}

func TestDualChannelPhasesDiverge(t *testing.T) {
	dual, err := NewDualChannel(18, 10)
	if err != nil {
		t.Fatalf("NewDualChannel: %v", err)
	}
	osc := newTestOscillator(t, dual, 48000)
	buf := make([]float32, 9600)
	if err := osc.FillStereo(buf, 1, NoiseNone, 0); err != nil {
		t.Fatalf("FillStereo: %v", err)
	}
	lp, rp := osc.LeftPhase(), osc.RightPhase()
	if math.Abs(lp-rp) <= 0.1 {
		t.Fatalf("expected phases to diverge after 0.1s: left=%f right=%f", lp, rp)
	}
	if math.Abs(lp-0.8) > 1e-6 {
		t.Fatalf("left phase=%f want=0.8", lp)
	}
	if wrapDistance(rp) > 1e-6 {
		t.Fatalf("right phase=%f want wrap to 0", rp)
	}
}

func TestStereoMirrorsMonoForSingleChannelPrograms(t *testing.T) {
	fixed, err := NewFixed(40)
	if err != nil {
		t.Fatalf("NewFixed: %v", err)
	}
	osc := newTestOscillator(t, fixed, 48000)
	for i := 0; i < 1000; i++ {
		l, r := osc.NextStereoSample(0.7)
		if l != r {
			t.Fatalf("sample %d: stereo channels differ for fixed program: %f %f", i, l, r)
		}
	}
}

func TestFillStereoRejectsOddLength(t *testing.T) {
	fixed, err := NewFixed(40)
	if err != nil {
		t.Fatalf("NewFixed: %v", err)
	}
	osc := newTestOscillator(t, fixed, 48000)
	buf := make([]float32, 7)
	for i := range buf {
		buf[i] = 42
	}
	before := osc.SampleIndex()
	if err := osc.FillStereo(buf, 1, NoiseNone, 0); err == nil {
		t.Fatalf("expected error for odd-length stereo buffer")
	}
	for i, v := range buf {
		if v != 42 {
			t.Fatalf("element %d overwritten on rejected fill: %f", i, v)
		}
	}
	if got := osc.SampleIndex(); got != before {
		t.Fatalf("clock advanced on rejected fill: %d -> %d", before, got)
	}
}

func TestFillBinauralRejectsBadArguments(t *testing.T) {
	fixed, err := NewFixed(40)
	if err != nil {
		t.Fatalf("NewFixed: %v", err)
	}
	osc := newTestOscillator(t, fixed, 48000)
	odd := make([]float32, 9)
	for i := range odd {
		odd[i] = 42
	}
	if err := osc.FillBinaural(odd, 200, 1, NoiseNone, 0); err == nil {
		t.Fatalf("expected error for odd-length binaural buffer")
	}
	for i, v := range odd {
		if v != 42 {
			t.Fatalf("element %d overwritten on rejected fill: %f", i, v)
		}
	}
	even := make([]float32, 8)
	if err := osc.FillBinaural(even, 0, 1, NoiseNone, 0); err == nil {
		t.Fatalf("expected error for non-positive base frequency")
	}
	if got := osc.SampleIndex(); got != 0 {
		t.Fatalf("clock advanced on rejected fills: %d", got)
	}
}

func TestBinauralChannelsCarryBaseAndBeatOffset(t *testing.T) {
	fixed, err := NewFixed(40)
	if err != nil {
		t.Fatalf("NewFixed: %v", err)
	}
	osc := newTestOscillator(t, fixed, 48000)
	frames := 24000
	buf := make([]float32, frames*2)
	if err := osc.FillBinaural(buf, 200, 1, NoiseNone, 0); err != nil {
		t.Fatalf("FillBinaural: %v", err)
	}
	left := zeroCrossings(buf, 0)
	right := zeroCrossings(buf, 1)
	if math.Abs(float64(left)-200) > 4 {
		t.Fatalf("left crossings=%d want about 200 for 200 Hz over 0.5s", left)
	}
	if math.Abs(float64(right)-240) > 4 {
		t.Fatalf("right crossings=%d want about 240 for 240 Hz over 0.5s", right)
	}
}

func zeroCrossings(buf []float32, channel int) int {
	count := 0
	prev := buf[channel]
	for i := channel + 2; i < len(buf); i += 2 {
		v := buf[i]
		if (prev < 0 && v >= 0) || (prev >= 0 && v < 0) {
			count++
		}
		prev = v
	}
	return count
}

func TestSecondaryFrequencyPerVariant(t *testing.T) {
	fixed, _ := NewFixed(40)
	ramp, _ := NewRamp(10, 40, 1000)
	coupled, _ := NewCoupled(40, 6, 0.3)
	dual, _ := NewDualChannel(18, 10)
	cases := map[string]struct {
		prog    FrequencyProgram
		primary float64
		second  float64
	}{
		"fixed":   {fixed, 40, 40},
		"ramp":    {ramp, 10, 10},
		"coupled": {coupled, 40, 6},
		"dual":    {dual, 18, 10},
	}
	for name, c := range cases {
		osc := newTestOscillator(t, c.prog, 48000)
		if got := osc.CurrentFrequency(); got != c.primary {
			t.Fatalf("%s: CurrentFrequency=%f want=%f", name, got, c.primary)
		}
		if got := osc.SecondaryFrequency(); got != c.second {
			t.Fatalf("%s: SecondaryFrequency=%f want=%f", name, got, c.second)
		}
	}
}

func TestPhaseReadersSafeDuringProduction(t *testing.T) {
	ramp, err := NewRamp(10, 40, 50)
	if err != nil {
		t.Fatalf("NewRamp: %v", err)
	}
	osc := newTestOscillator(t, ramp, 48000)
	stop := make(chan struct{})
	var producer sync.WaitGroup
	producer.Add(1)
	go func() {
		defer producer.Done()
		buf := make([]float32, 512)
		for {
			select {
			case <-stop:
				return
			default:
				osc.FillMono(buf, 0.5, NoisePink, 0.2)
			}
		}
	}()
	var readers sync.WaitGroup
	for r := 0; r < 4; r++ {
		readers.Add(1)
		go func() {
			defer readers.Done()
			for i := 0; i < 20000; i++ {
				if p := osc.PrimaryPhase(); p < 0 || p >= 1 {
					t.Errorf("phase out of range under concurrency: %f", p)
					return
				}
				if f := osc.CurrentFrequency(); f < 10 || f > 40 {
					t.Errorf("frequency out of ramp bounds under concurrency: %f", f)
					return
				}
				_ = osc.SampleIndex()
			}
		}()
	}
	readers.Wait()
	close(stop)
	producer.Wait()
}
