package dsp

import "math"

// Clamp limits v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Clamp01 limits v to [0, 1].
func Clamp01(v float64) float64 {
	return Clamp(v, 0, 1)
}

// Lerp interpolates linearly from a to b by t.
func Lerp(a, b, t float64) float64 {
	return a*(1-t) + b*t
}

// SoftClip passes values whose magnitude is below threshold through unchanged
// and compresses the excess with a tanh curve, keeping the result inside
// (-1, 1) without the harsh edge of a hard clip.
func SoftClip(v, threshold float64) float64 {
	abs := math.Abs(v)
	if abs <= threshold {
		return v
	}
	head := 1.0 - threshold
	if head <= 0 {
		return Clamp(v, -1, 1)
	}
	out := threshold + head*math.Tanh((abs-threshold)/head)
	if v < 0 {
		return -out
	}
	return out
}

// DBToLinear converts a gain in decibels to a linear amplitude factor.
func DBToLinear(db float64) float64 {
	return math.Pow(10, db/20)
}

// LinearToDB converts a linear amplitude to decibels. Non-positive input maps
// to the -144 dB silence floor.
func LinearToDB(linear float64) float64 {
	if linear <= 0 {
		return -144.0
	}
	return 20 * math.Log10(linear)
}
