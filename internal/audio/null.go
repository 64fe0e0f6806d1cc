package audio

import (
	"sync"
	"time"
)

// NullOutput pulls samples from a Source at roughly real-time pace
// without playing them anywhere. It backs headless runs and tests.
type NullOutput struct {
	source     Source
	stats      *Stats
	sampleRate float64
	buf        []float32
	interval   time.Duration

	mu   sync.Mutex
	stop chan struct{}
	done chan struct{}
}

// NewNullOutput creates a silent pump for the source.
func NewNullOutput(cfg Config, src Source, stats *Stats) *NullOutput {
	size := cfg.BufferSize
	size -= size % src.Channels()
	if size <= 0 {
		size = defaultBufferSize
	}
	frames := size / src.Channels()
	interval := time.Duration(float64(time.Second) * float64(frames) / cfg.SampleRate)
	if interval <= 0 {
		interval = 10 * time.Millisecond
	}
	return &NullOutput{
		source:     src,
		stats:      stats,
		sampleRate: cfg.SampleRate,
		buf:        make([]float32, size),
		interval:   interval,
	}
}

// Start launches the pump goroutine.
func (n *NullOutput) Start() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.stop != nil {
		return nil
	}
	n.stop = make(chan struct{})
	n.done = make(chan struct{})
	go n.pump(n.stop, n.done)
	return nil
}

func (n *NullOutput) pump(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	ticker := time.NewTicker(n.interval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			n.source.Fill(n.buf)
			if n.stats != nil {
				n.stats.Observe(n.buf)
			}
		}
	}
}

// Stop halts the pump and waits for any in-flight Fill to finish.
func (n *NullOutput) Stop() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.stop == nil {
		return nil
	}
	close(n.stop)
	<-n.done
	n.stop, n.done = nil, nil
	return nil
}

// Close stops the pump.
func (n *NullOutput) Close() error {
	return n.Stop()
}

// Backend names the backend driving this output.
func (n *NullOutput) Backend() string {
	return "none"
}

// SampleRate returns the configured sample rate.
func (n *NullOutput) SampleRate() float64 {
	return n.sampleRate
}
