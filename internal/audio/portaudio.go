package audio

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/gordonklaus/portaudio"
)

var (
	initOnce sync.Once
	termOnce sync.Once
	initErr  error
)

// Initialize wraps portaudio.Initialize with sync.Once so multiple callers are safe.
func Initialize() error {
	initOnce.Do(func() {
		initErr = portaudio.Initialize()
	})
	return initErr
}

// Terminate wraps portaudio.Terminate with sync.Once to balance Initialize.
func Terminate() {
	if initErr != nil {
		return
	}
	termOnce.Do(func() {
		_ = portaudio.Terminate()
	})
}

// Playback wraps a PortAudio output stream that pulls samples from a
// Source inside the stream callback. Initialize must have been called
// before opening one.
type Playback struct {
	stream     *portaudio.Stream
	sampleRate float64
	channels   int
	device     *portaudio.DeviceInfo
	source     Source
	stats      *Stats

	mu      sync.Mutex
	started bool
}

// NewPlayback opens a PortAudio stream on the requested device.
func NewPlayback(cfg Config, src Source, stats *Stats) (*Playback, error) {
	device, err := findOutputDevice(cfg.DeviceName)
	if err != nil {
		return nil, err
	}

	channels := src.Channels()
	outParams := portaudio.StreamDeviceParameters{
		Device:   device,
		Channels: channels,
		Latency:  device.DefaultLowOutputLatency,
	}

	playback := &Playback{
		sampleRate: cfg.SampleRate,
		channels:   channels,
		device:     device,
		source:     src,
		stats:      stats,
	}

	framesPerBuffer := cfg.BufferSize / channels
	if framesPerBuffer < 64 {
		framesPerBuffer = portaudio.FramesPerBufferUnspecified
	}

	stream, err := portaudio.OpenStream(portaudio.StreamParameters{
		Input:           portaudio.StreamDeviceParameters{},
		Output:          outParams,
		SampleRate:      cfg.SampleRate,
		FramesPerBuffer: framesPerBuffer,
	}, playback.process)
	if err != nil {
		return nil, fmt.Errorf("open stream: %w", err)
	}

	playback.stream = stream
	return playback, nil
}

func (p *Playback) process(out []float32) {
	p.source.Fill(out)
	if p.stats != nil {
		p.stats.Observe(out)
	}
}

// Start begins pulling samples from the source.
func (p *Playback) Start() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started {
		return nil
	}
	if err := p.stream.Start(); err != nil {
		return fmt.Errorf("start stream: %w", err)
	}
	p.started = true
	return nil
}

// Stop halts playback. It waits for any in-flight callback to finish.
func (p *Playback) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.started {
		return nil
	}
	p.started = false
	if err := p.stream.Stop(); err != nil && !errorsIsInvalidStreamState(err) {
		return err
	}
	return nil
}

// Close stops and closes the underlying PortAudio stream.
func (p *Playback) Close() error {
	if err := p.Stop(); err != nil {
		return err
	}
	if p.stream == nil {
		return nil
	}
	return p.stream.Close()
}

// Backend names the backend driving this output.
func (p *Playback) Backend() string {
	return "portaudio"
}

// SampleRate returns the stream sample rate.
func (p *Playback) SampleRate() float64 {
	return p.sampleRate
}

// Device returns the PortAudio device associated with the stream.
func (p *Playback) Device() *portaudio.DeviceInfo {
	return p.device
}

func findOutputDevice(name string) (*portaudio.DeviceInfo, error) {
	if name != "" {
		return findOutputDeviceByName(name)
	}

	if dev, err := portaudio.DefaultOutputDevice(); err == nil && dev != nil && dev.MaxOutputChannels > 0 {
		return dev, nil
	}

	if host, err := portaudio.DefaultHostApi(); err == nil {
		if host != nil && host.DefaultOutputDevice != nil && host.DefaultOutputDevice.MaxOutputChannels > 0 {
			return host.DefaultOutputDevice, nil
		}
	}

	devices, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("list audio devices: %w", err)
	}

	candidate := pickBestOutputDevice(devices)
	if candidate != nil {
		return candidate, nil
	}

	return nil, fmt.Errorf("no suitable audio output device found")
}

func findOutputDeviceByName(name string) (*portaudio.DeviceInfo, error) {
	devices, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("list audio devices: %w", err)
	}

	name = strings.ToLower(name)
	for _, device := range devices {
		if device.MaxOutputChannels == 0 {
			continue
		}
		deviceName := strings.ToLower(device.Name)
		if strings.Contains(deviceName, name) {
			return device, nil
		}
	}

	return nil, fmt.Errorf("audio device %q not found", name)
}

func pickBestOutputDevice(devices []*portaudio.DeviceInfo) *portaudio.DeviceInfo {
	type scored struct {
		dev   *portaudio.DeviceInfo
		score int
	}

	var (
		results  []scored
		keywords = []string{"speaker", "headphone", "analog", "built-in", "default"}
	)

	var defaultOutputIndex = -1
	if def, err := portaudio.DefaultOutputDevice(); err == nil && def != nil {
		defaultOutputIndex = def.Index
	}

	var defaultHostIndex = -1
	if host, err := portaudio.DefaultHostApi(); err == nil && host != nil && host.DefaultOutputDevice != nil {
		defaultHostIndex = host.DefaultOutputDevice.Index
	}

	for _, d := range devices {
		if d == nil || d.MaxOutputChannels <= 0 {
			continue
		}

		score := d.MaxOutputChannels

		if d.Index == defaultOutputIndex {
			score += 50
		}
		if d.Index == defaultHostIndex {
			score += 40
		}

		lower := strings.ToLower(d.Name)
		for _, kw := range keywords {
			if strings.Contains(lower, kw) {
				score += 20
				break
			}
		}

		results = append(results, scored{dev: d, score: score})
	}

	if len(results) == 0 {
		return nil
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].score == results[j].score {
			return strings.ToLower(results[i].dev.Name) < strings.ToLower(results[j].dev.Name)
		}
		return results[i].score > results[j].score
	})

	return results[0].dev
}

// errorsIsInvalidStreamState checks if the provided error stems from stopping an already stopped stream.
func errorsIsInvalidStreamState(err error) bool {
	if err == nil {
		return false
	}
	const invalidStateMsg = "PaErrorCode -9986"
	return strings.Contains(err.Error(), invalidStateMsg)
}
