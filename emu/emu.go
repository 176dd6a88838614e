package emu

import (
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"dmgo/cart"
	"dmgo/emu/log"
	"dmgo/hw"
	"dmgo/hw/hwdefs"
	"dmgo/hw/input"
)

type Emulator struct {
	GB  *hw.GameBoy
	out *hw.Output

	// These are accessed concurrently by the emulator loop and the UI.
	quit   atomic.Bool
	paused atomic.Bool
	reset  atomic.Bool

	tmpdir string
}

// Launch starts the various hardware subsystems, shows the window, setups the
// video and audio streams and plugs controllers. It doesn't start the emulation
// loop, call Run() for that.
func Launch(rom *cart.Rom, cfg Config) (*Emulator, error) {
	gb, err := powerUp(rom, cfg)
	if err != nil {
		return nil, fmt.Errorf("power up failed: %s", err)
	}

	// Output setup.
	cfg.Video.Check()
	scale := cfg.Video.Scale
	if scale <= 0 {
		scale = 3
	}
	out := hw.NewOutput(hw.OutputConfig{
		Width:          hw.ScreenWidth,
		Height:         hw.ScreenHeight,
		NumBackBuffers: 2,
		Title:          "dmgo - " + rom.Title(),
		ScaleFactor:    scale,
		DisableVSync:   cfg.Video.DisableVSync,
		Monitor:        cfg.Video.Monitor,
		Shader:         cfg.Video.Shader,
	})
	if err := out.EnableVideo(true); err != nil {
		return nil, err
	}

	if cfg.Audio.DisableAudio {
		log.ModEmu.WarnZ("Audio disabled").End()
	} else {
		if err := out.EnableAudio(true); err != nil {
			return nil, err
		}
		log.ModEmu.InfoZ("Audio enabled").End()
	}

	// CPU execution trace setup.
	if cfg.TraceOut != nil {
		gb.CPU.SetTraceOutput(cfg.TraceOut)
	}

	return &Emulator{
		GB:  gb,
		out: out,
	}, nil
}

// powerUp assembles the machine for the given cartridge, honoring the model
// override and boot image from the configuration.
func powerUp(rom *cart.Rom, cfg Config) (*hw.GameBoy, error) {
	model, err := pickModel(rom, cfg.Emulation.Model)
	if err != nil {
		return nil, err
	}

	var boot []byte
	if path := cfg.Emulation.BootROM; path != "" {
		boot, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("boot rom: %s", err)
		}
	}

	return hw.NewGameBoy(model, rom, hw.Options{
		BootROM: boot,
		Input:   input.NewProvider(cfg.Input),
	}), nil
}

// pickModel resolves the emulated model from the configuration override, or
// from the cartridge header when there is none.
func pickModel(rom *cart.Rom, override string) (hwdefs.Model, error) {
	switch override {
	case "dmg":
		if rom.CGBOnly() {
			log.ModEmu.WarnZ("Cartridge requires a Game Boy Color").End()
		}
		return hwdefs.DMG, nil
	case "cgb":
		return hwdefs.CGB, nil
	case "":
		if rom.CGB() {
			return hwdefs.CGB, nil
		}
		return hwdefs.DMG, nil
	}
	return 0, fmt.Errorf("unknown model %q (want dmg or cgb)", override)
}

func (e *Emulator) RunOneFrame() {
	video := e.out.BeginFrame()
	copy(video, e.GB.RunOneFrame())
	e.out.EndFrame(video)
}

func (e *Emulator) loop() {
	for e.out.Poll() {
		// Handle pause.
		if e.isPaused() {
			// Don't burn cpu while paused.
			time.Sleep(100 * time.Millisecond)
		} else {
			e.RunOneFrame()
		}
		if e.shouldStop() {
			break
		}
		e.handleReset()
	}

	e.out.Close()
}

// RaiseWindow raises the emulator window above others and sets the input focus.
func (e *Emulator) RaiseWindow() {
	e.out.FocusWindow()
}

func (e *Emulator) Run() {
	e.loop()
	log.ModEmu.InfoZ("Emulation loop exited").End()

	if e.tmpdir != "" {
		e.saveScreenshot()
	}
}

func (e *Emulator) saveScreenshot() {
	path := filepath.Join(e.tmpdir, "screenshot.png")
	if err := hw.SaveAsPNG(e.out.Screenshot(), path); err != nil {
		log.ModEmu.WarnZ("Failed to save screenshot").String("path", path).End()
	}
}

func (e *Emulator) SetTempDir(path string) { e.tmpdir = path }

// SetPause, Stop and Reset allow to control the emulator loop in a
// concurrent-safe way.

func (e *Emulator) SetPause(pause bool) { e.paused.CompareAndSwap(!pause, pause) }
func (e *Emulator) Reset()              { e.reset.Store(true) }
func (e *Emulator) Stop()               { e.quit.Store(true) }

func (e *Emulator) isPaused() bool {
	return e.paused.Load()
}

func (e *Emulator) shouldStop() bool {
	return e.quit.Load() || e.GB.CPU.Jammed()
}

func (e *Emulator) handleReset() {
	if e.reset.CompareAndSwap(true, false) {
		log.ModEmu.InfoZ("Performing reset").End()
		e.GB.Reset()
	}
}
