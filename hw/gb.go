package hw

import (
	"io"

	"dmgo/cart"
	"dmgo/emu/log"
	"dmgo/hw/hwdefs"
)

// GameBoy owns the hardware blocks and drives them in lockstep: the CPU
// executes one instruction at a time and the elapsed cycles are distributed
// to the other subsystems.
type GameBoy struct {
	Model hwdefs.Model

	CPU    *CPU
	Bus    *Bus
	PPU    *PPU
	Timer  *Timer
	IRQ    *IRQ
	Joypad *Joypad
	Serial *Serial
	HDMA   *HDMA // nil on DMG
	Cart   cart.Cartridge

	// leftover dot when running double speed, where the PPU advances one
	// dot every two CPU cycles
	dotCarry int
}

// Options tweak the machine assembly.
type Options struct {
	BootROM []byte
	Input   InputSource
	Link    LinkPort
	Audio   AudioDevice

	// SerialCapture receives every byte sent over the link.
	SerialCapture io.Writer
}

func NewGameBoy(model hwdefs.Model, c cart.Cartridge, opts Options) *GameBoy {
	gb := &GameBoy{
		Model: model,
		Cart:  c,
	}

	gb.IRQ = NewIRQ()
	gb.PPU = NewPPU(gb.IRQ, model)
	gb.Bus = NewBus(model, c, gb.PPU, opts.BootROM, opts.Audio)
	gb.Timer = NewTimer(gb.IRQ)
	gb.Joypad = NewJoypad(gb.IRQ, opts.Input)
	gb.Serial = NewSerial(gb.IRQ, opts.Link)
	gb.CPU = NewCPU(gb.Bus, gb.IRQ, model)

	if opts.SerialCapture != nil {
		gb.Serial.SetCapture(opts.SerialCapture)
	}

	t := gb.Bus.Table
	t.MapBank(0xFF00, gb.Joypad, 0)
	t.MapBank(0xFF01, gb.Serial, 0)
	t.MapBank(0xFF04, gb.Timer, 0)
	t.MapBank(0xFF0F, gb.IRQ, 0)
	t.MapBank(0xFFFF, gb.IRQ, 1)

	if model.IsCGB() {
		gb.HDMA = NewHDMA(t, gb.PPU)
		gb.PPU.HDMA = gb.HDMA
		t.MapBank(0xFF4D, gb.CPU, 0) // KEY1
		t.MapBank(0xFF51, gb.HDMA, 0)
	}

	if len(opts.BootROM) > 0 {
		gb.CPU.StartFromBoot()
	}

	log.ModEmu.InfoZ("machine assembled").
		Stringer("model", model).
		Bool("bootrom", len(opts.BootROM) > 0).
		End()
	return gb
}

// Reset restores the post-boot power-up state of every block.
func (gb *GameBoy) Reset() {
	gb.IRQ.Reset()
	gb.PPU.Reset()
	gb.Bus.Reset()
	gb.Timer.Reset()
	gb.Joypad.Reset()
	gb.Serial.Reset()
	gb.CPU.Reset()
	if gb.HDMA != nil {
		gb.HDMA.Reset()
	}
	gb.dotCarry = 0
	if len(gb.Bus.boot) > 0 {
		gb.CPU.StartFromBoot()
	}
}

// Step executes one CPU instruction and catches up the rest of the machine.
// Returns the elapsed CPU cycles.
func (gb *GameBoy) Step() int {
	cycles := gb.CPU.Step()

	if gb.HDMA != nil {
		cycles += gb.HDMA.TakeStallCycles()
	}

	gb.Timer.Advance(cycles)
	gb.Bus.Advance(cycles)
	gb.Serial.Advance(cycles)

	// the PPU dot clock does not double with the CPU clock
	dots := cycles
	if gb.CPU.DoubleSpeed() {
		dots += gb.dotCarry
		gb.dotCarry = dots & 1
		dots >>= 1
	}
	gb.PPU.Advance(dots)

	gb.Joypad.Poll()
	return cycles
}

// RunOneFrame steps the machine until the next frame is published, returning
// its RGBA pixels. With the display disabled (no frames are produced) it
// returns the previous frame after one frame's worth of cycles.
func (gb *GameBoy) RunOneFrame() []byte {
	budget := CyclesPerLine * NumScanlines
	if gb.CPU.DoubleSpeed() {
		budget *= 2
	}
	for budget > 0 {
		budget -= gb.Step()
		if frame := gb.PPU.Frame(); frame != nil {
			return frame
		}
	}
	return gb.PPU.CurrentFrame()
}
