//go:build sdl

package render

import (
	"fmt"

	"github.com/veandco/go-sdl2/sdl"
)

type sdlState struct {
	initialized bool
	window      *sdl.Window
	renderer    *sdl.Renderer
	windowTitle string
}

func (r *Renderer) initSDL() error {
	if r.sdl != nil {
		r.mode = backendSDL
		r.useANSI = false
		return nil
	}
	if err := sdl.InitSubSystem(sdl.INIT_VIDEO); err != nil {
		return err
	}
	r.sdl = &sdlState{
		initialized: true,
	}
	r.mode = backendSDL
	r.useANSI = false
	return nil
}

func (r *Renderer) ensureSDLResources() error {
	if r.sdl == nil {
		return fmt.Errorf("SDL backend not initialized")
	}
	state := r.sdl
	if !state.initialized {
		if err := sdl.InitSubSystem(sdl.INIT_VIDEO); err != nil {
			return err
		}
		state.initialized = true
	}
	if state.window == nil {
		window, err := sdl.CreateWindow(
			"gammasync",
			sdl.WINDOWPOS_CENTERED, sdl.WINDOWPOS_CENTERED,
			int32(r.width), int32(r.height),
			sdl.WINDOW_SHOWN,
		)
		if err != nil {
			return err
		}
		state.window = window
	}
	if state.renderer == nil {
		renderer, err := sdl.CreateRenderer(state.window, -1, sdl.RENDERER_ACCELERATED|sdl.RENDERER_PRESENTVSYNC)
		if err != nil {
			return err
		}
		state.renderer = renderer
	}
	return nil
}

func (r *Renderer) renderSDL(s State, fps float64) Frame {
	if err := r.ensureSDLResources(); err != nil {
		return Frame{
			Status: fmt.Sprintf("SDL init error: %v", err),
			Present: func(string) error {
				return err
			},
		}
	}
	state := r.sdl

	left, right := r.frameIntensities(s)
	lr, lg, lb := rampBytes(r.ramp, left)
	rr, rg, rb := rampBytes(r.ramp, right)
	split := s.Split

	status := r.buildStatus(s, fps)

	return Frame{
		Status: status,
		Present: func(status string) error {
			if status != "" && status != state.windowTitle && state.window != nil {
				state.window.SetTitle(status)
				state.windowTitle = status
			}
			if err := state.renderer.SetDrawColor(lr, lg, lb, 255); err != nil {
				return err
			}
			if err := state.renderer.Clear(); err != nil {
				return err
			}
			if split {
				width, height := state.window.GetSize()
				if err := state.renderer.SetDrawColor(rr, rg, rb, 255); err != nil {
					return err
				}
				rect := sdl.Rect{X: width / 2, Y: 0, W: width - width/2, H: height}
				if err := state.renderer.FillRect(&rect); err != nil {
					return err
				}
			}
			state.renderer.Present()
			for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
				switch event.(type) {
				case *sdl.QuitEvent:
					return ErrRendererQuit
				}
			}
			return nil
		},
	}
}

func rampBytes(ramp rampFunc, intensity float64) (uint8, uint8, uint8) {
	v := lerp(0.04, 1.0, clamp01(intensity))
	rr, gg, bb := ramp(v)
	return uint8(clampFloat(rr*255, 0, 255)),
		uint8(clampFloat(gg*255, 0, 255)),
		uint8(clampFloat(bb*255, 0, 255))
}

func (r *Renderer) resizeSDL() {
	if r.sdl == nil || r.sdl.window == nil {
		return
	}
	r.sdl.window.SetSize(int32(r.width), int32(r.height))
}

func (r *Renderer) closeSDL() error {
	if r.sdl == nil {
		return nil
	}
	if r.sdl.renderer != nil {
		r.sdl.renderer.Destroy()
		r.sdl.renderer = nil
	}
	if r.sdl.window != nil {
		r.sdl.window.Destroy()
		r.sdl.window = nil
	}
	if r.sdl.initialized {
		sdl.QuitSubSystem(sdl.INIT_VIDEO)
		r.sdl.initialized = false
	}
	r.sdl = nil
	return nil
}

func (r *Renderer) windowedSDL() bool {
	return r.sdl != nil
}

func SupportsSDL() bool { return true }
