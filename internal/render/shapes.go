package render

import (
	"math"
	"sort"
)

// shapeFunc maps an oscillator phase in [0,1) and a flash duty to a
// visual intensity in [0,1].
type shapeFunc func(phase, duty float64) float64

var shapeRegistry = map[string]shapeFunc{
	"pulse":    shapePulse,
	"sine":     shapeSine,
	"cosine":   shapeCosine,
	"triangle": shapeTriangle,
}

// ShapeNames returns the available flash shape identifiers.
func ShapeNames() []string {
	names := make([]string, 0, len(shapeRegistry))
	for name := range shapeRegistry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func shapePulse(phase, duty float64) float64 {
	if phase < duty {
		return 1
	}
	return 0
}

func shapeSine(phase, duty float64) float64 {
	return 0.5 * (1 + math.Sin(2*math.Pi*phase))
}

func shapeCosine(phase, duty float64) float64 {
	return 0.5 * (1 - math.Cos(2*math.Pi*phase))
}

func shapeTriangle(phase, duty float64) float64 {
	return 1 - math.Abs(2*phase-1)
}
