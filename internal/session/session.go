package session

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/eiannone/keyboard"
	"github.com/matthewfrazier/gammasync/internal/audio"
	"github.com/matthewfrazier/gammasync/internal/engine"
	"github.com/matthewfrazier/gammasync/internal/render"
	"github.com/matthewfrazier/gammasync/internal/spectrum"
	"golang.org/x/term"
)

// Config configures the session runtime.
type Config struct {
	Program      engine.FrequencyProgram
	PresetName   string
	SampleRate   float64
	Amplitude    float64
	Noise        engine.NoiseType
	NoiseLevel   float64
	Binaural     bool
	BinauralBase float64
	Stereo       bool

	AudioBackend string
	DeviceName   string
	BufferSize   int

	Visual        bool
	VisualBackend string
	Width         int
	Height        int
	TargetFPS     float64
	Shape         string
	Ramp          string
	FlashDuty     float64
	UseANSI       bool
	ShowStatusBar bool

	Duration time.Duration
	Profile  string
	Log      *log.Logger
}

type inputEvent int

const (
	inputEventQuit inputEvent = iota
	inputEventTogglePause
	inputEventAmplitudeUp
	inputEventAmplitudeDown
	inputEventCycleNoise
	inputEventNoiseUp
	inputEventNoiseDown
	inputEventNextPreset
	inputEventReset
)

const (
	amplitudeStep = 0.05
	noiseStep     = 0.05
	tapDecimation = 64
	tapRingSize   = 4096
)

// Session ties the oscillator, audio output, renderer and spectrum tap
// together. It is the audio.Source handed to the output backend.
type Session struct {
	cfg      Config
	osc      *engine.Oscillator
	out      audio.Output
	stats    *audio.Stats
	renderer *render.Renderer
	tap      *audio.Ring
	prof     *profiler
	log      *log.Logger

	channels     int
	binaural     bool
	binauralBase float64

	mu         sync.RWMutex
	amplitude  float64
	noise      engine.NoiseType
	noiseLevel float64
	paused     bool
	presetName string

	analyzerMu sync.Mutex
	analyzer   *spectrum.Analyzer

	// audio-goroutine state, touched only inside Fill
	tapScratch []float32
	tapOffset  int

	inputEvents  chan inputEvent
	width        int
	height       int
	renderHeight int
	started      time.Time
	last         time.Time
}

// New constructs the session using the provided configuration.
func New(cfg Config) (*Session, error) {
	if cfg.TargetFPS <= 0 {
		cfg.TargetFPS = 30
	}
	if cfg.Log == nil {
		cfg.Log = log.New(os.Stdout, "", log.LstdFlags)
	}
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = 48_000
	}
	if cfg.Width <= 0 {
		cfg.Width = 80
	}
	if cfg.Height <= 0 {
		cfg.Height = 24
	}
	if cfg.Amplitude <= 0 || cfg.Amplitude > 1 {
		cfg.Amplitude = 0.25
	}
	if cfg.BinauralBase <= 0 {
		cfg.BinauralBase = 200
	}
	if cfg.Noise != engine.NoiseNone && cfg.NoiseLevel <= 0 {
		cfg.NoiseLevel = 0.2
	}
	if cfg.Program == nil {
		return nil, fmt.Errorf("no frequency program configured")
	}

	osc, err := engine.New(engine.Config{
		SampleRate: cfg.SampleRate,
		Program:    cfg.Program,
	})
	if err != nil {
		return nil, fmt.Errorf("oscillator: %w", err)
	}

	channels := 1
	if cfg.Binaural || cfg.Stereo {
		channels = 2
	}
	if _, ok := cfg.Program.(engine.DualChannel); ok {
		channels = 2
	}

	renderHeight := cfg.Height
	if cfg.ShowStatusBar && renderHeight > 1 {
		renderHeight--
	}

	s := &Session{
		cfg:          cfg,
		osc:          osc,
		stats:        &audio.Stats{},
		log:          cfg.Log,
		channels:     channels,
		binaural:     cfg.Binaural,
		binauralBase: cfg.BinauralBase,
		amplitude:    cfg.Amplitude,
		noise:        cfg.Noise,
		noiseLevel:   clamp01(cfg.NoiseLevel),
		presetName:   cfg.PresetName,
		tap:          audio.NewRing(tapRingSize),
		tapScratch:   make([]float32, 0, 256),
		width:        cfg.Width,
		height:       cfg.Height,
		renderHeight: renderHeight,
		started:      time.Now(),
		last:         time.Now(),
	}
	s.analyzer = spectrum.New(spectrum.Config{
		SampleRate: cfg.SampleRate / tapDecimation,
	})

	if cfg.Visual {
		renderer, err := render.New(render.Config{
			Width:     cfg.Width,
			Height:    renderHeight,
			Shape:     cfg.Shape,
			Ramp:      cfg.Ramp,
			FlashDuty: cfg.FlashDuty,
			UseANSI:   cfg.UseANSI,
			Backend:   cfg.VisualBackend,
		})
		if err != nil {
			return nil, err
		}
		s.renderer = renderer
	}

	out, err := audio.NewOutput(cfg.AudioBackend, audio.Config{
		DeviceName: cfg.DeviceName,
		BufferSize: cfg.BufferSize,
		SampleRate: cfg.SampleRate,
	}, s, s.stats)
	if err != nil {
		return nil, fmt.Errorf("audio output: %w", err)
	}
	s.out = out
	s.log.Printf("audio output ready via %s @ %.0f Hz, %d channel(s)", out.Backend(), cfg.SampleRate, channels)

	s.prof = newProfiler(cfg.Profile, s.log)
	return s, nil
}

// Channels reports how many interleaved channels Fill produces.
func (s *Session) Channels() int {
	return s.channels
}

// Fill produces the next block of samples. It runs on the audio
// goroutine of the active backend.
func (s *Session) Fill(buf []float32) {
	s.mu.RLock()
	amp := s.amplitude
	noise := s.noise
	level := s.noiseLevel
	paused := s.paused
	s.mu.RUnlock()

	if paused {
		zero(buf)
		s.tapInto(buf)
		return
	}

	switch {
	case s.binaural:
		if err := s.osc.FillBinaural(buf, s.binauralBase, amp, noise, level); err != nil {
			zero(buf)
		}
	case s.channels == 2:
		if err := s.osc.FillStereo(buf, amp, noise, level); err != nil {
			zero(buf)
		}
	default:
		s.osc.FillMono(buf, amp, noise, level)
	}

	s.tapInto(buf)
}

// tapInto feeds a decimated mono mix of the buffer to the spectrum ring.
func (s *Session) tapInto(buf []float32) {
	step := tapDecimation * s.channels
	collected := s.tapScratch[:0]
	i := s.tapOffset
	for ; i < len(buf); i += step {
		v := buf[i]
		if s.channels == 2 && i+1 < len(buf) {
			v = (buf[i] + buf[i+1]) / 2
		}
		collected = append(collected, v)
	}
	s.tapOffset = i - len(buf)
	s.tapScratch = collected
	s.tap.Write(collected)
}

// Run starts the session until context cancellation, quit input, or the
// configured duration elapsing.
func (s *Session) Run(ctx context.Context) error {
	if s.cfg.Duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.Duration)
		defer cancel()
	}

	if err := s.out.Start(); err != nil {
		return fmt.Errorf("start audio: %w", err)
	}
	defer s.out.Stop()

	if s.renderer == nil {
		<-ctx.Done()
		return s.runErr(ctx)
	}

	frameDuration := time.Duration(float64(time.Second) / s.cfg.TargetFPS)
	ticker := time.NewTicker(frameDuration)
	defer ticker.Stop()

	if !s.renderer.Windowed() {
		enterAltScreen()
		clearScreen()
		hideCursor()
		defer func() {
			showCursor()
			exitAltScreen()
		}()
	}

	inputCtx, cancelInput := context.WithCancel(ctx)
	defer cancelInput()
	s.startInputListener(inputCtx)
	s.ensureDimensions()

	for {
		select {
		case <-ctx.Done():
			moveCursorHome()
			return s.runErr(ctx)
		case evt, ok := <-s.inputEvents:
			if !ok {
				s.inputEvents = nil
				continue
			}
			if quit := s.handleInput(evt); quit {
				moveCursorHome()
				return nil
			}
		case <-ticker.C:
			if err := s.step(); err != nil {
				if errors.Is(err, render.ErrRendererQuit) {
					return nil
				}
				return err
			}
		}
	}
}

// runErr maps an elapsed duration to a clean exit.
func (s *Session) runErr(ctx context.Context) error {
	if s.cfg.Duration > 0 && errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return nil
	}
	return ctx.Err()
}

// Close releases held resources.
func (s *Session) Close() error {
	var first error
	if s.out != nil {
		if err := s.out.Close(); err != nil {
			first = err
		}
	}
	if s.renderer != nil {
		if err := s.renderer.Close(); err != nil && first == nil {
			first = err
		}
	}
	if err := s.prof.Close(); err != nil && first == nil {
		first = err
	}
	return first
}

func (s *Session) step() error {
	s.prof.beginFrame(s.osc.SampleIndex())
	s.ensureDimensions()

	now := time.Now()
	delta := now.Sub(s.last).Seconds()
	if delta <= 0 {
		delta = 1.0 / s.cfg.TargetFPS
	}
	s.last = now

	state := s.renderState()
	s.prof.markSection("state")

	fps := 1.0 / delta
	frame := s.renderer.Render(state, fps)
	s.prof.markSection("render")

	if frame.Present != nil {
		err := frame.Present(frame.Status)
		s.prof.endFrame()
		return err
	}

	moveCursorHome()
	for _, line := range frame.Lines {
		fmt.Println(line)
	}
	if s.cfg.ShowStatusBar {
		fmt.Println(statusBar(frame.Status, s.width))
	}
	s.prof.endFrame()
	return nil
}

func (s *Session) renderState() render.State {
	s.mu.RLock()
	amp := s.amplitude
	noise := s.noise
	level := s.noiseLevel
	paused := s.paused
	preset := s.presetName
	s.mu.RUnlock()

	prog := s.osc.Program()
	_, split := prog.(engine.DualChannel)

	label := ""
	if prog != nil {
		label = prog.String()
	}
	if preset != "" {
		label = preset + ": " + label
	}
	if s.binaural {
		label += " (binaural)"
	}

	return render.State{
		ProgramLabel: label,
		FrequencyHz:  s.osc.CurrentFrequency(),
		Phase:        s.osc.PrimaryPhase(),
		LeftPhase:    s.osc.LeftPhase(),
		RightPhase:   s.osc.RightPhase(),
		Split:        split,
		GateOpen:     s.osc.GateOpen(),
		Paused:       paused,
		Amplitude:    amp,
		NoiseLabel:   noise.String(),
		NoiseLevel:   level,
		Elapsed:      time.Since(s.started),
	}
}

func (s *Session) handleInput(evt inputEvent) bool {
	switch evt {
	case inputEventQuit:
		return true
	case inputEventTogglePause:
		s.TogglePause()
	case inputEventAmplitudeUp:
		s.AdjustAmplitude(amplitudeStep)
	case inputEventAmplitudeDown:
		s.AdjustAmplitude(-amplitudeStep)
	case inputEventCycleNoise:
		s.CycleNoise()
	case inputEventNoiseUp:
		s.AdjustNoiseLevel(noiseStep)
	case inputEventNoiseDown:
		s.AdjustNoiseLevel(-noiseStep)
	case inputEventNextPreset:
		if _, err := s.NextPreset(); err != nil {
			s.log.Printf("preset switch failed: %v", err)
		}
	case inputEventReset:
		s.Reset()
	}
	return false
}

func (s *Session) ensureDimensions() {
	fd := int(os.Stdout.Fd())
	if fd < 0 || s.renderer == nil || s.renderer.Windowed() {
		return
	}
	w, h, err := term.GetSize(fd)
	if err != nil || w <= 0 || h <= 0 {
		return
	}

	renderHeight := h
	if s.cfg.ShowStatusBar && renderHeight > 1 {
		renderHeight--
	}
	if renderHeight <= 0 {
		renderHeight = 1
	}

	if w == s.width && h == s.height && renderHeight == s.renderHeight {
		return
	}

	s.width = w
	s.height = h
	s.renderHeight = renderHeight
	s.renderer.Resize(w, renderHeight)
}

func (s *Session) startInputListener(ctx context.Context) {
	if err := keyboard.Open(); err != nil {
		s.log.Printf("keyboard input disabled: %v", err)
		s.inputEvents = nil
		return
	}

	events := make(chan inputEvent, 16)
	s.inputEvents = events

	closeOnce := &sync.Once{}
	go func() {
		<-ctx.Done()
		closeOnce.Do(func() {
			_ = keyboard.Close()
		})
	}()

	go func() {
		defer close(events)
		defer closeOnce.Do(func() {
			_ = keyboard.Close()
		})
		for {
			char, key, err := keyboard.GetKey()
			if err != nil {
				return
			}
			select {
			case <-ctx.Done():
				return
			default:
			}
			switch {
			case key == keyboard.KeyEsc || key == keyboard.KeyCtrlC:
				events <- inputEventQuit
				return
			case char == 'q' || char == 'Q':
				events <- inputEventQuit
				return
			case key == keyboard.KeySpace:
				send(events, inputEventTogglePause)
			case char == '+' || char == '=':
				send(events, inputEventAmplitudeUp)
			case char == '-' || char == '_':
				send(events, inputEventAmplitudeDown)
			case char == 'n' || char == 'N':
				send(events, inputEventCycleNoise)
			case char == ']':
				send(events, inputEventNoiseUp)
			case char == '[':
				send(events, inputEventNoiseDown)
			case char == 'p' || char == 'P':
				send(events, inputEventNextPreset)
			case char == 'r' || char == 'R':
				send(events, inputEventReset)
			}
		}
	}()
}

func send(events chan<- inputEvent, evt inputEvent) {
	select {
	case events <- evt:
	default:
	}
}

// SetAmplitude sets the output level, clamped to [0,1].
func (s *Session) SetAmplitude(v float64) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.amplitude = clamp01(v)
	return s.amplitude
}

// AdjustAmplitude nudges the output level by delta.
func (s *Session) AdjustAmplitude(delta float64) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.amplitude = clamp01(s.amplitude + delta)
	return s.amplitude
}

// SetNoise selects the background noise color.
func (s *Session) SetNoise(t engine.NoiseType) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.noise = t
}

// CycleNoise steps none -> pink -> brown -> none.
func (s *Session) CycleNoise() engine.NoiseType {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.noise {
	case engine.NoiseNone:
		s.noise = engine.NoisePink
	case engine.NoisePink:
		s.noise = engine.NoiseBrown
	default:
		s.noise = engine.NoiseNone
	}
	if s.noise != engine.NoiseNone && s.noiseLevel == 0 {
		s.noiseLevel = 0.2
	}
	return s.noise
}

// SetNoiseLevel sets the noise mix level, clamped to [0,1].
func (s *Session) SetNoiseLevel(v float64) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.noiseLevel = clamp01(v)
	return s.noiseLevel
}

// AdjustNoiseLevel nudges the noise mix level by delta.
func (s *Session) AdjustNoiseLevel(delta float64) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.noiseLevel = clamp01(s.noiseLevel + delta)
	return s.noiseLevel
}

// SetPaused pauses or resumes sample production.
func (s *Session) SetPaused(paused bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.paused = paused
}

// TogglePause flips the paused state and returns the new value.
func (s *Session) TogglePause() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.paused = !s.paused
	return s.paused
}

// Reset rewinds the active program to phase zero.
func (s *Session) Reset() {
	s.osc.Reset()
}

// ApplyPreset swaps the active program for the named preset. The output
// is stopped around the swap so the oscillator never reconfigures while
// samples are being pulled.
func (s *Session) ApplyPreset(name string) error {
	preset, ok := FindPreset(name)
	if !ok {
		return fmt.Errorf("unknown preset %q", name)
	}
	program, err := preset.Program()
	if err != nil {
		return err
	}

	if err := s.out.Stop(); err != nil {
		return fmt.Errorf("stop audio: %w", err)
	}

	s.mu.Lock()
	s.osc.Configure(program)
	s.presetName = preset.Name
	if preset.Amplitude > 0 {
		s.amplitude = clamp01(preset.Amplitude)
	}
	s.noise = preset.Noise
	s.noiseLevel = clamp01(preset.NoiseLevel)
	s.mu.Unlock()

	if err := s.out.Start(); err != nil {
		return fmt.Errorf("restart audio: %w", err)
	}
	s.log.Printf("preset applied: %s (%s)", preset.Name, program)
	return nil
}

// NextPreset cycles to the preset after the current one.
func (s *Session) NextPreset() (string, error) {
	s.mu.RLock()
	current := s.presetName
	s.mu.RUnlock()

	names := PresetNames()
	next := names[0]
	for i, name := range names {
		if strings.EqualFold(name, current) {
			next = names[(i+1)%len(names)]
			break
		}
	}
	return next, s.ApplyPreset(next)
}

// PresetName returns the active preset name, if any.
func (s *Session) PresetName() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.presetName
}

// RecentSamples returns a decimated window of recent output samples.
func (s *Session) RecentSamples() []float32 {
	return s.tap.Snapshot()
}

// Bands estimates EEG band powers over the recent output window.
func (s *Session) Bands() spectrum.BandPowers {
	samples := s.tap.Snapshot()
	if len(samples) == 0 {
		return spectrum.BandPowers{}
	}
	s.analyzerMu.Lock()
	defer s.analyzerMu.Unlock()
	return s.analyzer.Bands(samples)
}

// Snapshot describes the full session state at a point in time.
type Snapshot struct {
	Program     string
	Preset      string
	FrequencyHz float64
	SecondaryHz float64
	Phase       float64
	SampleIndex uint64
	Amplitude   float64
	Noise       string
	NoiseLevel  float64
	Paused      bool
	Binaural    bool
	Channels    int
	Backend     string
	SampleRate  float64
	Uptime      time.Duration
	Buffers     uint64
	Samples     uint64
	Peak        float64
}

// Snapshot captures the current session state.
func (s *Session) Snapshot() Snapshot {
	s.mu.RLock()
	amp := s.amplitude
	noise := s.noise
	level := s.noiseLevel
	paused := s.paused
	preset := s.presetName
	s.mu.RUnlock()

	label := ""
	if prog := s.osc.Program(); prog != nil {
		label = prog.String()
	}

	return Snapshot{
		Program:     label,
		Preset:      preset,
		FrequencyHz: s.osc.CurrentFrequency(),
		SecondaryHz: s.osc.SecondaryFrequency(),
		Phase:       s.osc.PrimaryPhase(),
		SampleIndex: s.osc.SampleIndex(),
		Amplitude:   amp,
		Noise:       noise.String(),
		NoiseLevel:  level,
		Paused:      paused,
		Binaural:    s.binaural,
		Channels:    s.channels,
		Backend:     s.out.Backend(),
		SampleRate:  s.osc.SampleRate(),
		Uptime:      time.Since(s.started),
		Buffers:     s.stats.Buffers(),
		Samples:     s.stats.Samples(),
		Peak:        s.stats.Peak(),
	}
}

func zero(buf []float32) {
	for i := range buf {
		buf[i] = 0
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func statusBar(text string, width int) string {
	if width <= 0 {
		return text
	}
	if len(text) >= width {
		return text[:width]
	}
	padding := width - len(text)
	return text + strings.Repeat(" ", padding)
}

func clearScreen() {
	fmt.Print("\x1b[2J")
	moveCursorHome()
}

func moveCursorHome() {
	fmt.Print("\x1b[H")
}

func hideCursor() {
	fmt.Print("\x1b[?25l")
}

func showCursor() {
	fmt.Print("\x1b[?25h")
}

func enterAltScreen() {
	fmt.Print("\x1b[?1049h")
}

func exitAltScreen() {
	fmt.Print("\x1b[?1049l\x1b[0m")
}
