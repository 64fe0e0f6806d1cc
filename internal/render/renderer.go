package render

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

type backendMode string

const (
	backendANSI backendMode = "ansi"
	backendSDL  backendMode = "sdl"
)

// ErrRendererQuit reports that the visual surface was closed by the user.
var ErrRendererQuit = errors.New("renderer closed")

// State carries one frame of oscillator readings into the renderer.
type State struct {
	ProgramLabel string
	FrequencyHz  float64
	Phase        float64
	LeftPhase    float64
	RightPhase   float64
	Split        bool
	GateOpen     bool
	Paused       bool
	Amplitude    float64
	NoiseLabel   string
	NoiseLevel   float64
	Elapsed      time.Duration
}

// Frame contains rendered terminal lines and status text. Windowed
// frames defer their drawing to Present instead.
type Frame struct {
	Lines   []string
	Status  string
	Present func(status string) error
}

var (
	resetANSI     = "\x1b[0m"
	precomputedBG [256]string
)

func init() {
	for i := range precomputedBG {
		precomputedBG[i] = "\x1b[48;5;" + strconv.Itoa(i) + "m"
	}
}

// Renderer turns oscillator state into full-screen flash frames.
type Renderer struct {
	width  int
	height int

	shape     shapeFunc
	shapeName string
	ramp      rampFunc
	rampName  string
	duty      float64

	useANSI bool
	mode    backendMode
	sdl     *sdlState

	statusBuilder strings.Builder
}

// Config controls how a Renderer is created.
type Config struct {
	Width     int
	Height    int
	Shape     string
	Ramp      string
	FlashDuty float64
	UseANSI   bool
	Backend   string
}

// New creates a Renderer.
func New(cfg Config) (*Renderer, error) {
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, fmt.Errorf("invalid dimensions: width=%d height=%d", cfg.Width, cfg.Height)
	}

	r := &Renderer{
		width:   cfg.Width,
		height:  cfg.Height,
		useANSI: cfg.UseANSI,
		mode:    backendANSI,
	}
	r.Configure(cfg.Shape, cfg.Ramp, cfg.FlashDuty)

	if strings.EqualFold(cfg.Backend, "sdl") {
		if err := r.initSDL(); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Configure updates shape, ramp and flash duty dynamically.
func (r *Renderer) Configure(shapeName, rampName string, duty float64) {
	key := strings.ToLower(shapeName)
	if key == "" {
		key = "pulse"
	}
	if fn, ok := shapeRegistry[key]; ok {
		r.shape = fn
		r.shapeName = key
	} else {
		r.shape = shapeRegistry["pulse"]
		r.shapeName = "pulse"
	}

	rampName = strings.ToLower(rampName)
	if rampName == "" {
		rampName = "white"
	}
	r.ramp = Ramp(rampName)
	r.rampName = rampName

	if duty <= 0 || duty > 1 {
		duty = 0.5
	}
	r.duty = duty
}

// Resize updates the frame dimensions.
func (r *Renderer) Resize(width, height int) {
	changed := false
	if width > 0 && r.width != width {
		r.width = width
		changed = true
	}
	if height > 0 && r.height != height {
		r.height = height
		changed = true
	}
	if changed {
		r.resizeSDL()
	}
}

// Close releases any windowed resources.
func (r *Renderer) Close() error {
	return r.closeSDL()
}

func (r *Renderer) ShapeName() string { return r.shapeName }
func (r *Renderer) RampName() string  { return r.rampName }
func (r *Renderer) Backend() string   { return string(r.mode) }

// Windowed reports whether frames draw into their own window rather
// than the terminal.
func (r *Renderer) Windowed() bool {
	return r.windowedSDL()
}

// Render generates a frame for the given oscillator state.
func (r *Renderer) Render(s State, fps float64) Frame {
	if r.width <= 0 || r.height <= 0 {
		return Frame{}
	}
	if r.mode == backendSDL {
		return r.renderSDL(s, fps)
	}

	left, right := r.frameIntensities(s)

	var row string
	if r.useANSI {
		row = r.colorRow(left, right, s.Split)
	} else {
		row = r.glyphRow(left, right, s.Split)
	}

	lines := make([]string, r.height)
	for y := range lines {
		lines[y] = row
	}

	return Frame{
		Lines:  lines,
		Status: r.buildStatus(s, fps),
	}
}

// frameIntensities computes the left and right panel intensities.
func (r *Renderer) frameIntensities(s State) (float64, float64) {
	if s.Paused {
		return 0, 0
	}
	if s.Split {
		return r.shape(s.LeftPhase, r.duty), r.shape(s.RightPhase, r.duty)
	}
	v := r.shape(s.Phase, r.duty)
	if !s.GateOpen {
		v = 0
	}
	return v, v
}

func (r *Renderer) colorRow(left, right float64, split bool) string {
	leftCode := bgCode(r.colorIndex(left))

	var builder strings.Builder
	builder.Grow(r.width + 32)
	builder.WriteString(leftCode)
	if split {
		half := r.width / 2
		for x := 0; x < half; x++ {
			builder.WriteByte(' ')
		}
		builder.WriteString(bgCode(r.colorIndex(right)))
		for x := half; x < r.width; x++ {
			builder.WriteByte(' ')
		}
	} else {
		for x := 0; x < r.width; x++ {
			builder.WriteByte(' ')
		}
	}
	builder.WriteString(resetANSI)
	return builder.String()
}

func (r *Renderer) glyphRow(left, right float64, split bool) string {
	if split {
		half := r.width / 2
		return strings.Repeat(string(glyphFor(left)), half) +
			strings.Repeat(string(glyphFor(right)), r.width-half)
	}
	return strings.Repeat(string(glyphFor(left)), r.width)
}

func (r *Renderer) colorIndex(intensity float64) int {
	// dim floor keeps the panel visible between flashes
	v := lerp(0.04, 1.0, clamp01(intensity))
	rr, gg, bb := r.ramp(v)
	return rgbToANSI(rr, gg, bb)
}

func glyphFor(intensity float64) rune {
	idx := clampInt(int(clamp01(intensity)*float64(len(glyphPalette)-1)+0.5), 0, len(glyphPalette)-1)
	return glyphPalette[idx]
}

func bgCode(index int) string {
	if index < 0 {
		index = 0
	} else if index >= len(precomputedBG) {
		index = len(precomputedBG) - 1
	}
	return precomputedBG[index]
}

func rgbToANSI(r, g, b float64) int {
	r = clamp01(r)
	g = clamp01(g)
	b = clamp01(b)

	// Grayscale palette for low saturation/contrast
	if math.Abs(r-g) < 0.02 && math.Abs(g-b) < 0.02 {
		gray := int(clampFloat(math.Round(r*23), 0, 23))
		return 232 + gray
	}

	ri := int(clampFloat(r*5+0.5, 0, 5))
	gi := int(clampFloat(g*5+0.5, 0, 5))
	bi := int(clampFloat(b*5+0.5, 0, 5))

	return 16 + 36*ri + 6*gi + bi
}

func (r *Renderer) buildStatus(s State, fps float64) string {
	builder := &r.statusBuilder
	builder.Reset()
	builder.Grow(160)
	builder.WriteString(s.ProgramLabel)
	builder.WriteString(" | shape=")
	builder.WriteString(r.shapeName)
	builder.WriteString(" ramp=")
	builder.WriteString(r.rampName)
	builder.WriteString(" | ")
	appendFloat(builder, s.FrequencyHz, 2)
	builder.WriteString(" Hz phase ")
	appendFloat(builder, s.Phase, 2)
	if !s.GateOpen {
		builder.WriteString(" gate CLOSED")
	}
	builder.WriteString(" | amp ")
	appendFloat(builder, s.Amplitude, 2)
	if s.NoiseLabel != "" && s.NoiseLabel != "none" {
		builder.WriteString(" noise ")
		builder.WriteString(s.NoiseLabel)
		builder.WriteByte(' ')
		appendFloat(builder, s.NoiseLevel, 2)
	}
	builder.WriteString(" | fps ")
	appendFloat(builder, fps, 1)
	builder.WriteString(" | ")
	appendElapsed(builder, s.Elapsed)
	if s.Paused {
		builder.WriteString(" | PAUSED")
	}
	return builder.String()
}

func appendFloat(builder *strings.Builder, value float64, precision int) {
	var buf [32]byte
	b := strconv.AppendFloat(buf[:0], value, 'f', precision, 64)
	builder.Write(b)
}

func appendElapsed(builder *strings.Builder, d time.Duration) {
	total := int(d.Seconds())
	if total < 0 {
		total = 0
	}
	hours := total / 3600
	minutes := (total % 3600) / 60
	seconds := total % 60
	if hours > 0 {
		builder.WriteString(strconv.Itoa(hours))
		builder.WriteByte(':')
	}
	if minutes < 10 {
		builder.WriteByte('0')
	}
	builder.WriteString(strconv.Itoa(minutes))
	builder.WriteByte(':')
	if seconds < 10 {
		builder.WriteByte('0')
	}
	builder.WriteString(strconv.Itoa(seconds))
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

func clampFloat(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

func clampInt(v, min, max int) int {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

func lerp(a, b, t float64) float64 {
	return a*(1-t) + b*t
}
