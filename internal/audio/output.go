package audio

import (
	"fmt"
	"math"
	"strings"
	"sync/atomic"
)

// Source produces interleaved float32 samples on demand. Fill is called
// from the playback goroutine of whichever backend drives the source.
type Source interface {
	Fill(buf []float32)
	Channels() int
}

// Output drives a Source through a playback backend.
type Output interface {
	Start() error
	Stop() error
	Close() error
	Backend() string
	SampleRate() float64
}

// Config controls how an output backend is created.
type Config struct {
	DeviceName string
	BufferSize int
	SampleRate float64
}

const defaultBufferSize = 4096

// NewOutput creates the requested playback backend. The empty string
// selects PortAudio; "none" gives a silent pump for headless runs.
func NewOutput(backend string, cfg Config, src Source, stats *Stats) (Output, error) {
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = 48_000
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = defaultBufferSize
	}
	switch strings.ToLower(backend) {
	case "", "portaudio":
		return NewPlayback(cfg, src, stats)
	case "oto":
		return NewOtoOutput(cfg, src, stats)
	case "none", "null":
		return NewNullOutput(cfg, src, stats), nil
	default:
		return nil, fmt.Errorf("unknown audio backend %q (want portaudio, oto, or none)", backend)
	}
}

// Stats counts buffers and samples delivered to a backend and tracks the
// peak absolute sample level since the last TakePeak. All methods are
// safe to call from any goroutine.
type Stats struct {
	buffers  atomic.Uint64
	samples  atomic.Uint64
	peakBits atomic.Uint64
}

// Observe records one delivered buffer.
func (s *Stats) Observe(buf []float32) {
	s.buffers.Add(1)
	s.samples.Add(uint64(len(buf)))

	peak := 0.0
	for _, v := range buf {
		if a := math.Abs(float64(v)); a > peak {
			peak = a
		}
	}
	for {
		oldBits := s.peakBits.Load()
		if peak <= math.Float64frombits(oldBits) {
			return
		}
		if s.peakBits.CompareAndSwap(oldBits, math.Float64bits(peak)) {
			return
		}
	}
}

// Buffers returns the number of buffers observed so far.
func (s *Stats) Buffers() uint64 {
	return s.buffers.Load()
}

// Samples returns the number of samples observed so far.
func (s *Stats) Samples() uint64 {
	return s.samples.Load()
}

// Peak returns the highest absolute sample seen since the last TakePeak.
func (s *Stats) Peak() float64 {
	return math.Float64frombits(s.peakBits.Load())
}

// TakePeak returns the current peak and resets it to zero.
func (s *Stats) TakePeak() float64 {
	return math.Float64frombits(s.peakBits.Swap(0))
}
