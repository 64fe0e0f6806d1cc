package audio

import (
	"fmt"
	"sync"
	"unsafe"

	"github.com/ebitengine/oto/v3"
)

// OtoOutput plays a Source through the oto library, which talks to the
// platform mixer directly and needs no C toolchain. The player pulls
// bytes via Read on its own goroutine.
type OtoOutput struct {
	ctx        *oto.Context
	player     *oto.Player
	source     Source
	stats      *Stats
	sampleRate float64
	sampleBuf  []float32

	mu sync.Mutex
}

// NewOtoOutput creates an oto context and a player wired to the source.
func NewOtoOutput(cfg Config, src Source, stats *Stats) (*OtoOutput, error) {
	op := &oto.NewContextOptions{
		SampleRate:   int(cfg.SampleRate),
		ChannelCount: src.Channels(),
		Format:       oto.FormatFloat32LE,
	}
	ctx, ready, err := oto.NewContext(op)
	if err != nil {
		return nil, fmt.Errorf("oto context: %w", err)
	}
	<-ready

	out := &OtoOutput{
		ctx:        ctx,
		source:     src,
		stats:      stats,
		sampleRate: cfg.SampleRate,
		sampleBuf:  make([]float32, cfg.BufferSize),
	}
	out.player = ctx.NewPlayer(out)
	return out, nil
}

// Read satisfies io.Reader for the oto player. It pulls float32 samples
// from the source and hands them over as little-endian bytes.
func (o *OtoOutput) Read(p []byte) (int, error) {
	numSamples := len(p) / 4
	numSamples -= numSamples % o.source.Channels()
	if numSamples == 0 {
		return 0, nil
	}

	if len(o.sampleBuf) < numSamples {
		o.sampleBuf = make([]float32, numSamples)
	}
	samples := o.sampleBuf[:numSamples]

	o.source.Fill(samples)
	if o.stats != nil {
		o.stats.Observe(samples)
	}

	src := unsafe.Slice((*byte)(unsafe.Pointer(&samples[0])), numSamples*4)
	copy(p, src)
	return numSamples * 4, nil
}

// Start begins or resumes playback.
func (o *OtoOutput) Start() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if !o.player.IsPlaying() {
		o.player.Play()
	}
	return nil
}

// Stop pauses playback without tearing the player down.
func (o *OtoOutput) Stop() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.player.Pause()
	return nil
}

// Close releases the player. The oto context itself has no close.
func (o *OtoOutput) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.player.Close()
}

// Backend names the backend driving this output.
func (o *OtoOutput) Backend() string {
	return "oto"
}

// SampleRate returns the configured sample rate.
func (o *OtoOutput) SampleRate() float64 {
	return o.sampleRate
}
