package engine

import (
	"fmt"
	"math/bits"
	"math/rand"
	"strings"

	"github.com/matthewfrazier/gammasync/internal/dsp"
)

const (
	pinkOctaves = 16
	pinkNorm    = 1.0 / pinkOctaves

	brownStep      = 0.03
	brownLeak      = 0.005
	brownClipStart = 0.95
)

// NoiseType selects the comfort noise mixed into buffer fills.
type NoiseType int

const (
	NoiseNone NoiseType = iota
	NoisePink
	NoiseBrown
)

// ParseNoiseType maps a user-facing name to a NoiseType.
func ParseNoiseType(name string) (NoiseType, error) {
	switch strings.ToLower(name) {
	case "", "none", "off":
		return NoiseNone, nil
	case "pink":
		return NoisePink, nil
	case "brown", "brownian", "red":
		return NoiseBrown, nil
	}
	return NoiseNone, fmt.Errorf("unknown noise type %q (want none, pink, or brown)", name)
}

func (t NoiseType) String() string {
	switch t {
	case NoisePink:
		return "pink"
	case NoiseBrown:
		return "brown"
	default:
		return "none"
	}
}

// PinkNoise generates 1/f noise with the Voss-McCartney algorithm. Each sample
// refreshes exactly one of sixteen octave rows, chosen by the trailing zero
// bits of an incrementing counter, so higher octaves refresh at geometrically
// lower rates. The output is the running sum of all rows scaled to [-1,1].
type PinkNoise struct {
	rng     *rand.Rand
	rows    [pinkOctaves]float64
	sum     float64
	counter uint32
}

// NewPinkNoise creates a generator whose output is fully determined by seed.
func NewPinkNoise(seed int64) *PinkNoise {
	p := &PinkNoise{rng: rand.New(rand.NewSource(seed))}
	p.refill()
	return p
}

// Next returns the following pink sample in [-1,1].
func (p *PinkNoise) Next() float64 {
	octave := bits.TrailingZeros32(p.counter)
	if octave > pinkOctaves-1 {
		octave = pinkOctaves - 1
	}
	p.sum -= p.rows[octave]
	p.rows[octave] = p.rng.Float64()*2 - 1
	p.sum += p.rows[octave]
	p.counter++
	return dsp.Clamp(p.sum*pinkNorm, -1, 1)
}

// Reset redraws every octave row, recomputes the running sum, and restarts the
// update counter. The random stream continues, so the new rows are fresh
// rather than a replay of the old ones.
func (p *PinkNoise) Reset() {
	p.refill()
}

func (p *PinkNoise) refill() {
	p.sum = 0
	for i := range p.rows {
		p.rows[i] = p.rng.Float64()*2 - 1
		p.sum += p.rows[i]
	}
	p.counter = 0
}

// BrownNoise integrates white noise through a leaky accumulator. The leak
// pulls the walk back toward zero so DC cannot build up, and a tanh soft clip
// beyond 0.95 bounds the output near [-1,1] without hard clipping artifacts.
type BrownNoise struct {
	rng   *rand.Rand
	value float64
}

// NewBrownNoise creates a generator whose output is fully determined by seed.
func NewBrownNoise(seed int64) *BrownNoise {
	return &BrownNoise{rng: rand.New(rand.NewSource(seed))}
}

// Next returns the following brown sample in [-1,1].
func (b *BrownNoise) Next() float64 {
	white := b.rng.Float64()*2 - 1
	b.value = b.value*(1-brownLeak) + white*brownStep
	return dsp.SoftClip(b.value, brownClipStart)
}

// Reset zeroes the integrator exactly.
func (b *BrownNoise) Reset() {
	b.value = 0
}
