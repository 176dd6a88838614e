package hw

import (
	"dmgo/emu/log"
	"dmgo/hw/hwdefs"
	"dmgo/hw/hwio"
)

// Button bits of the InputSource pressed set.
const (
	BtnRight uint8 = 1 << iota
	BtnLeft
	BtnUp
	BtnDown
	BtnA
	BtnB
	BtnSelect
	BtnStart
)

// InputSource provides the currently pressed buttons as a bitset, directions
// in the low nibble and buttons in the high one.
type InputSource interface {
	Pressed() uint8
}

// NullInput is an InputSource with nothing ever pressed.
type NullInput struct{}

func (NullInput) Pressed() uint8 { return 0 }

// Joypad implements the P1/JOYP register: two button groups multiplexed on
// four input lines, selected by bits 4 and 5 (low means selected).
type Joypad struct {
	irq *IRQ
	src InputSource

	P1 hwio.Reg8 `hwio:"offset=0x0,rcb,rwmask=0x30"`

	prevLines uint8
}

func NewJoypad(irq *IRQ, src InputSource) *Joypad {
	if src == nil {
		src = NullInput{}
	}
	j := &Joypad{irq: irq, src: src}
	hwio.MustInitRegs(j)
	j.Reset()
	return j
}

func (j *Joypad) Reset() {
	j.P1.Value = 0x30
	j.prevLines = 0x0F
}

// lines computes the four input lines for the current group selection,
// active low.
func (j *Joypad) lines() uint8 {
	pressed := j.src.Pressed()
	sel := j.P1.Value
	out := uint8(0x0F)
	if sel&0x10 == 0 { // directions
		out &= ^pressed & 0x0F
	}
	if sel&0x20 == 0 { // buttons
		out &= ^(pressed >> 4) & 0x0F
	}
	return out
}

func (j *Joypad) ReadP1(val uint8) uint8 {
	return 0xC0 | val&0x30 | j.lines()
}

// Poll samples the input source, requesting the joypad interrupt when a
// selected line falls.
func (j *Joypad) Poll() {
	lines := j.lines()
	if j.prevLines&^lines != 0 {
		j.irq.Request(hwdefs.IntJoypad)
		log.ModInput.DebugZ("joypad interrupt").Hex8("lines", lines).End()
	}
	j.prevLines = lines
}
