package hw

import (
	"dmgo/emu/log"
	"dmgo/hw/hwdefs"
	"dmgo/hw/hwio"
)

// IRQ is the interrupt controller: the IF (request) and IE (enable)
// registers plus priority resolution. Subsystems call Request exactly once
// per triggering edge; bits are cleared only by Acknowledge or by a CPU
// write to IF.
type IRQ struct {
	IF hwio.Reg8 `hwio:"bank=0,offset=0x0,wcb"`
	IE hwio.Reg8 `hwio:"bank=1,offset=0x0"`
}

func NewIRQ() *IRQ {
	irq := &IRQ{}
	hwio.MustInitRegs(irq)
	// Unused IF bits read as 1.
	irq.IF.ReadCb = func(val uint8) uint8 { return val | 0xE0 }
	return irq
}

func (irq *IRQ) Reset() {
	irq.IF.Value = 0x01 // boot leaves vblank pending
	irq.IE.Value = 0x00
}

func (irq *IRQ) WriteIF(old, val uint8) {
	irq.IF.Value = val & 0x1F
}

// Request asserts an interrupt line.
func (irq *IRQ) Request(src hwdefs.IntSource) {
	log.ModEmu.DebugZ("interrupt requested").Stringer("src", src).End()
	irq.IF.Value |= src.Mask()
}

// Acknowledge clears a request bit, called by the CPU when it starts
// servicing the interrupt.
func (irq *IRQ) Acknowledge(src hwdefs.IntSource) {
	irq.IF.Value &^= src.Mask()
}

// Pending returns the set of requested and enabled interrupts.
func (irq *IRQ) Pending() hwdefs.IntMask {
	return hwdefs.IntMask(irq.IF.Value & irq.IE.Value & 0x1F)
}

// Next returns the highest-priority pending interrupt. It must only be
// called when Pending() is non-zero.
func (irq *IRQ) Next() hwdefs.IntSource {
	pending := uint8(irq.Pending())
	for src := hwdefs.IntVBlank; src < hwdefs.NumIntSources; src++ {
		if pending&src.Mask() != 0 {
			return src
		}
	}
	panic("no pending interrupt")
}
