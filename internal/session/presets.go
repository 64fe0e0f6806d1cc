package session

import (
	"strings"

	"github.com/matthewfrazier/gammasync/internal/engine"
)

// Preset bundles a frequency program with level and noise defaults.
// Binaural presets also carry the audible carrier to beat against.
type Preset struct {
	Name         string
	Description  string
	Amplitude    float64
	Noise        engine.NoiseType
	NoiseLevel   float64
	Binaural     bool
	BinauralBase float64

	makeProgram func() (engine.FrequencyProgram, error)
}

// Program builds a fresh frequency program for the preset.
func (p Preset) Program() (engine.FrequencyProgram, error) {
	return p.makeProgram()
}

// Presets are cycled in declaration order by the 'p' hotkey.
var presets = []Preset{
	{
		Name:        "gamma",
		Description: "steady 40 Hz gamma entrainment",
		Amplitude:   0.25,
		makeProgram: func() (engine.FrequencyProgram, error) {
			return engine.NewFixed(40)
		},
	},
	{
		Name:        "alpha",
		Description: "relaxed 10 Hz alpha",
		Amplitude:   0.25,
		makeProgram: func() (engine.FrequencyProgram, error) {
			return engine.NewFixed(10)
		},
	},
	{
		Name:        "schumann",
		Description: "7.83 Hz resonance",
		Amplitude:   0.25,
		Noise:       engine.NoisePink,
		NoiseLevel:  0.15,
		makeProgram: func() (engine.FrequencyProgram, error) {
			return engine.NewFixed(7.83)
		},
	},
	{
		Name:        "focus-ramp",
		Description: "10 to 40 Hz climb over ten minutes",
		Amplitude:   0.25,
		makeProgram: func() (engine.FrequencyProgram, error) {
			return engine.NewRamp(10, 40, 10*60*1000)
		},
	},
	{
		Name:        "wind-down",
		Description: "12 to 4 Hz descent over eight minutes",
		Amplitude:   0.2,
		Noise:       engine.NoiseBrown,
		NoiseLevel:  0.25,
		makeProgram: func() (engine.FrequencyProgram, error) {
			return engine.NewRamp(12, 4, 8*60*1000)
		},
	},
	{
		Name:        "gamma-burst",
		Description: "40 Hz carrier gated at 6 Hz with 30% duty",
		Amplitude:   0.3,
		makeProgram: func() (engine.FrequencyProgram, error) {
			return engine.NewCoupled(40, 6, 0.3)
		},
	},
	{
		Name:        "split",
		Description: "18 Hz left channel against 10 Hz right",
		Amplitude:   0.25,
		makeProgram: func() (engine.FrequencyProgram, error) {
			return engine.NewDualChannel(18, 10)
		},
	},
	{
		Name:         "binaural-gamma",
		Description:  "200/240 Hz carriers beating at 40 Hz",
		Amplitude:    0.25,
		Binaural:     true,
		BinauralBase: 200,
		makeProgram: func() (engine.FrequencyProgram, error) {
			return engine.NewFixed(40)
		},
	},
}

// PresetNames returns preset identifiers in cycle order.
func PresetNames() []string {
	names := make([]string, len(presets))
	for i, p := range presets {
		names[i] = p.Name
	}
	return names
}

// Presets returns a copy of the preset table in cycle order.
func Presets() []Preset {
	cp := make([]Preset, len(presets))
	copy(cp, presets)
	return cp
}

// FindPreset looks a preset up by name, case-insensitively.
func FindPreset(name string) (Preset, bool) {
	for _, p := range presets {
		if strings.EqualFold(p.Name, name) {
			return p, true
		}
	}
	return Preset{}, false
}
