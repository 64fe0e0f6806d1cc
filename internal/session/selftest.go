package session

import (
	"fmt"
	"io"

	"github.com/matthewfrazier/gammasync/internal/engine"
	"github.com/matthewfrazier/gammasync/internal/spectrum"
)

// SelfTest exercises every preset program offline: it generates a short
// stretch of samples from each and verifies ranges, phase bounds, and
// buffer validation without touching any audio device. Results are
// written to w, one line per check group.
func SelfTest(w io.Writer) error {
	for _, preset := range presets {
		program, err := preset.Program()
		if err != nil {
			return fmt.Errorf("preset %s: %w", preset.Name, err)
		}
		osc, err := engine.New(engine.Config{
			SampleRate: 48_000,
			Program:    program,
			NoiseSeed:  1,
		})
		if err != nil {
			return fmt.Errorf("preset %s: %w", preset.Name, err)
		}

		for i := 0; i < 4800; i++ {
			v := osc.NextSample(0.8)
			if v < -1 || v > 1 {
				return fmt.Errorf("preset %s: sample %d out of range: %g", preset.Name, i, v)
			}
			if p := osc.PrimaryPhase(); p < 0 || p >= 1 {
				return fmt.Errorf("preset %s: phase out of [0,1): %g", preset.Name, p)
			}
		}

		odd := make([]float32, 7)
		if err := osc.FillStereo(odd, 0.5, engine.NoiseNone, 0); err == nil {
			return fmt.Errorf("preset %s: odd stereo buffer accepted", preset.Name)
		}
		fmt.Fprintf(w, "ok %s (%s)\n", preset.Name, program)
	}

	pink := engine.NewPinkNoise(1)
	brown := engine.NewBrownNoise(1)
	for i := 0; i < 2000; i++ {
		if v := pink.Next(); v < -1 || v > 1 {
			return fmt.Errorf("pink noise out of range: %g", v)
		}
		if v := brown.Next(); v < -1 || v > 1 {
			return fmt.Errorf("brown noise out of range: %g", v)
		}
	}
	fmt.Fprintln(w, "ok noise generators")

	if err := checkNoiseSpectra(w); err != nil {
		return err
	}
	return nil
}

// checkNoiseSpectra verifies the generated noise colors carry their
// expected spectral tilt: pink near 1/f, brown near 1/f squared.
func checkNoiseSpectra(w io.Writer) error {
	const sampleCount = 48_000
	analyzer := spectrum.New(spectrum.Config{SampleRate: 48_000})

	pink := engine.NewPinkNoise(7)
	brown := engine.NewBrownNoise(7)
	pinkBuf := make([]float32, sampleCount)
	brownBuf := make([]float32, sampleCount)
	for i := 0; i < sampleCount; i++ {
		pinkBuf[i] = float32(pink.Next())
		brownBuf[i] = float32(brown.Next())
	}

	pxx, freqs := analyzer.Welch(pinkBuf, 4096)
	pinkSlope := spectrum.SlopeBetween(pxx, freqs, 100, 8000)
	if pinkSlope < -1.45 || pinkSlope > -0.55 {
		return fmt.Errorf("pink spectral slope %.2f outside [-1.45,-0.55]", pinkSlope)
	}

	pxx, freqs = analyzer.Welch(brownBuf, 4096)
	brownSlope := spectrum.SlopeBetween(pxx, freqs, 100, 8000)
	if brownSlope > -1.5 {
		return fmt.Errorf("brown spectral slope %.2f not below -1.5", brownSlope)
	}
	if brownSlope >= pinkSlope {
		return fmt.Errorf("brown slope %.2f not steeper than pink %.2f", brownSlope, pinkSlope)
	}

	fmt.Fprintf(w, "ok noise spectra (pink %.2f, brown %.2f)\n", pinkSlope, brownSlope)
	return nil
}
