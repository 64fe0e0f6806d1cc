package render

// rampFunc maps a visual intensity in [0,1] to RGB components in [0,1].
type rampFunc func(v float64) (float64, float64, float64)

func rampWhite(v float64) (float64, float64, float64) {
	return v, v, v
}

func rampAmber(v float64) (float64, float64, float64) {
	return v, v * 0.62, v * 0.08
}

func rampCrimson(v float64) (float64, float64, float64) {
	return v, v * 0.08, v * 0.16
}

func rampTeal(v float64) (float64, float64, float64) {
	return v * 0.08, v * 0.78, v * 0.72
}

// Ramp returns the color ramp for a name, falling back to white.
func Ramp(name string) rampFunc {
	switch name {
	case "amber":
		return rampAmber
	case "crimson", "red":
		return rampCrimson
	case "teal", "cyan":
		return rampTeal
	default:
		return rampWhite
	}
}

// RampNames returns all color ramp identifiers.
func RampNames() []string {
	return []string{"white", "amber", "crimson", "teal"}
}

// glyphPalette maps intensity to characters for terminals without color.
var glyphPalette = []rune(" .:-=+*#%@█")
