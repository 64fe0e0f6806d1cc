package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/matthewfrazier/gammasync/internal/audio"
	"github.com/matthewfrazier/gammasync/internal/dsp"
	"github.com/matthewfrazier/gammasync/internal/engine"
	"github.com/matthewfrazier/gammasync/internal/session"
	"github.com/matthewfrazier/gammasync/internal/web"
	"golang.org/x/term"
)

func main() {
	var (
		presetName = flag.String("preset", "gamma", "Named preset to start with (see -list-presets)")
		freq       = flag.Float64("freq", 0, "Fixed stimulation frequency in Hz (overrides -preset)")
		rampFrom   = flag.Float64("ramp-from", 0, "Ramp start frequency in Hz")
		rampTo     = flag.Float64("ramp-to", 0, "Ramp end frequency in Hz")
		rampSecs   = flag.Float64("ramp-secs", 600, "Ramp duration in seconds")
		carrierHz  = flag.Float64("carrier", 0, "Carrier frequency for a gated program in Hz")
		modHz      = flag.Float64("modulator", 0, "Gate rate for a gated program in Hz")
		dutyRatio  = flag.Float64("duty", 0.5, "Open fraction of each gate cycle (0..1)")
		leftHz     = flag.Float64("left", 0, "Left channel frequency for a split program in Hz")
		rightHz    = flag.Float64("right", 0, "Right channel frequency for a split program in Hz")

		binaural  = flag.Bool("binaural", false, "Render as binaural beat around an audible carrier")
		binBase   = flag.Float64("binaural-base", 200, "Audible carrier for binaural mode in Hz")
		ampDB     = flag.Float64("amplitude-db", -12, "Output level in dBFS")
		noiseName = flag.String("noise", "none", "Background noise color (none|pink|brown)")
		noiseLvl  = flag.Float64("noise-level", 0.2, "Noise mix level (0..1)")
		stereo    = flag.Bool("stereo", false, "Force two-channel output")

		sampleRate = flag.Float64("sample-rate", 48_000, "Output sample rate in Hz")
		backend    = flag.String("audio-backend", "portaudio", "Audio backend (portaudio|oto|none)")
		deviceName = flag.String("audio-device", "", "Optional PortAudio device name (substring match)")
		bufferSize = flag.Int("buffer-size", 4096, "Audio buffer size in samples")
		listDevs   = flag.Bool("list-audio-devices", false, "List available audio output devices and exit")

		noVisual   = flag.Bool("no-visual", false, "Run audio only, without the flash panel")
		visualName = flag.String("visual", "ansi", "Visual backend (ansi|sdl)")
		width      = flag.Int("width", 80, "Panel width in cells")
		height     = flag.Int("height", 24, "Panel height in cells")
		targetFPS  = flag.Float64("fps", 30, "Target frames per second")
		shape      = flag.String("shape", "pulse", "Flash shape (pulse|sine|cosine|triangle)")
		rampName   = flag.String("color", "white", "Flash color ramp (white|amber|crimson|teal)")
		flashDuty  = flag.Float64("flash-duty", 0.5, "Lit fraction of each flash cycle for the pulse shape")
		noColor    = flag.Bool("no-color", false, "Disable ANSI color output")
		showStatus = flag.Bool("status", true, "Display status bar")

		webPort     = flag.Int("web", 0, "Serve the remote control UI on this port (0 disables)")
		duration    = flag.Duration("duration", 0, "Stop after this long (0 runs until quit)")
		profilePath = flag.String("profile", "", "Write frame timing CSV to this path")
		selfTest    = flag.Bool("selftest", false, "Exercise every preset offline and exit")
		listPresets = flag.Bool("list-presets", false, "List available presets and exit")
		debug       = flag.Bool("debug", false, "Enable verbose logging")
	)

	flag.Parse()

	if *width <= 0 || *height <= 0 {
		log.Fatalf("invalid dimensions: width=%d height=%d", *width, *height)
	}
	if *targetFPS <= 0 {
		log.Fatalf("fps must be positive (got %.2f)", *targetFPS)
	}
	if *bufferSize <= 0 {
		log.Fatalf("buffer-size must be positive (got %d)", *bufferSize)
	}
	if *sampleRate <= 0 {
		log.Fatalf("sample-rate must be positive (got %.0f)", *sampleRate)
	}

	logger := log.New(os.Stdout, "[gammasync] ", log.LstdFlags)
	if !*debug {
		logger.SetOutput(os.Stderr)
		logger.SetFlags(0)
	}

	if *selfTest {
		if err := session.SelfTest(os.Stdout); err != nil {
			logger.Fatalf("self test failed: %v", err)
		}
		return
	}

	if *listPresets {
		fmt.Printf("\n=== Presets ===\n\n")
		for _, p := range session.Presets() {
			fmt.Printf("- %-16s %s\n", p.Name, p.Description)
		}
		return
	}

	setFlags := map[string]bool{}
	flag.Visit(func(f *flag.Flag) { setFlags[f.Name] = true })

	if fd := int(os.Stdout.Fd()); fd >= 0 && !*noVisual {
		if w, h, err := term.GetSize(fd); err == nil {
			if w > 0 {
				*width = w
			}
			if h > 0 {
				*height = h
			}
		}
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	audioBackend := strings.ToLower(*backend)
	needPortAudio := audioBackend == "" || audioBackend == "portaudio" || *listDevs
	if needPortAudio {
		if err := audio.Initialize(); err != nil {
			logger.Fatalf("failed to initialize PortAudio: %v", err)
		}
		defer audio.Terminate()
	}

	if *listDevs {
		devices, err := audio.ListDevices()
		if err != nil {
			logger.Fatalf("list devices: %v", err)
		}
		fmt.Printf("\n=== Audio Output Devices ===\n\n")
		for _, dev := range devices {
			if dev.MaxOutput == 0 {
				continue
			}
			markers := ""
			if dev.IsDefaultOutput {
				markers += " (default)"
			}
			fmt.Printf("- %s [%s]%s\n    inputs:%d outputs:%d sample:%.0f Hz\n",
				dev.Name, dev.HostAPI, markers, dev.MaxInput, dev.MaxOutput, dev.DefaultSampleHz)
		}
		return
	}

	var (
		program    engine.FrequencyProgram
		preset     session.Preset
		havePreset bool
		err        error
	)
	switch {
	case *leftHz > 0 || *rightHz > 0:
		program, err = engine.NewDualChannel(*leftHz, *rightHz)
	case *carrierHz > 0 || *modHz > 0:
		program, err = engine.NewCoupled(*carrierHz, *modHz, *dutyRatio)
	case *rampFrom > 0 || *rampTo > 0:
		program, err = engine.NewRamp(*rampFrom, *rampTo, *rampSecs*1000)
	case *freq > 0:
		program, err = engine.NewFixed(*freq)
	default:
		preset, havePreset = session.FindPreset(*presetName)
		if !havePreset {
			logger.Fatalf("unknown preset %q (have: %s)", *presetName, strings.Join(session.PresetNames(), ", "))
		}
		program, err = preset.Program()
	}
	if err != nil {
		logger.Fatalf("invalid frequency program: %v", err)
	}

	amplitude := dsp.DBToLinear(*ampDB)
	noise, err := engine.ParseNoiseType(*noiseName)
	if err != nil {
		logger.Fatalf("%v", err)
	}
	level := *noiseLvl
	wantBinaural := *binaural
	base := *binBase

	if havePreset {
		if !setFlags["amplitude-db"] && preset.Amplitude > 0 {
			amplitude = preset.Amplitude
		}
		if !setFlags["noise"] {
			noise = preset.Noise
		}
		if !setFlags["noise-level"] && preset.NoiseLevel > 0 {
			level = preset.NoiseLevel
		}
		if !setFlags["binaural"] && preset.Binaural {
			wantBinaural = true
		}
		if !setFlags["binaural-base"] && preset.BinauralBase > 0 {
			base = preset.BinauralBase
		}
	}

	cfg := session.Config{
		Program:      program,
		SampleRate:   *sampleRate,
		Amplitude:    amplitude,
		Noise:        noise,
		NoiseLevel:   level,
		Binaural:     wantBinaural,
		BinauralBase: base,
		Stereo:       *stereo,

		AudioBackend: audioBackend,
		DeviceName:   *deviceName,
		BufferSize:   *bufferSize,

		Visual:        !*noVisual,
		VisualBackend: *visualName,
		Width:         *width,
		Height:        *height,
		TargetFPS:     *targetFPS,
		Shape:         *shape,
		Ramp:          *rampName,
		FlashDuty:     *flashDuty,
		UseANSI:       !*noColor,
		ShowStatusBar: *showStatus,

		Duration: *duration,
		Profile:  *profilePath,
		Log:      logger,
	}
	if havePreset {
		cfg.PresetName = preset.Name
	}

	sess, err := session.New(cfg)
	if err != nil {
		logger.Fatalf("failed to create session: %v", err)
	}
	defer func() {
		if err := sess.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "cleanup error: %v\n", err)
		}
	}()

	if *webPort > 0 {
		srv := web.NewServer(sess, log.New(os.Stderr, "[web] ", log.LstdFlags))
		go func() {
			if err := srv.Start(*webPort); err != nil {
				logger.Printf("web server stopped: %v", err)
			}
		}()
	}

	if err := sess.Run(ctx); err != nil {
		if ctx.Err() != nil {
			fmt.Println("\nExiting...")
			return
		}
		logger.Fatalf("runtime error: %v", err)
	}

	time.Sleep(50 * time.Millisecond)
}
