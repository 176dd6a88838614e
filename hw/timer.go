package hw

import (
	"dmgo/hw/hwdefs"
	"dmgo/hw/hwio"
)

// Timer implements the divider/timer unit (FF04-FF07).
//
// The heart of it is a 16-bit counter incremented on every T-cycle; the
// visible DIV register is its high byte. TIMA is not clocked at an
// independent rate: it increments on each falling edge of one counter bit
// (selected by TAC) ANDed with the TAC enable bit. Modelling it this way
// reproduces the documented side effects for free: a DIV write that zeroes
// the counter, or a TAC write that switches the selected bit, can both
// produce a falling edge and clock TIMA.
type Timer struct {
	IRQ *IRQ

	DIV  hwio.Reg8 `hwio:"offset=0x0,rcb,wcb"`
	TIMA hwio.Reg8 `hwio:"offset=0x1"`
	TMA  hwio.Reg8 `hwio:"offset=0x2"`
	TAC  hwio.Reg8 `hwio:"offset=0x3,rcb,wcb"`

	div  uint16 // free-running counter, +1 every T-cycle
	edge bool   // last value of selected-bit AND enable
}

func NewTimer(irq *IRQ) *Timer {
	t := &Timer{IRQ: irq}
	hwio.MustInitRegs(t)
	return t
}

func (t *Timer) Reset() {
	// DIV is mid-count when the boot code hands over control.
	t.div = 0xAB00
	t.TIMA.Value = 0x00
	t.TMA.Value = 0x00
	t.TAC.Value = 0x00
	t.edge = false
}

// Advance runs the timer for the given number of T-cycles.
func (t *Timer) Advance(cycles int) {
	for range cycles {
		t.div++
		t.checkEdge()
	}
}

// InternalCounter returns the raw 16-bit divider.
func (t *Timer) InternalCounter() uint16 {
	return t.div
}

// selectedBit returns the divider bit watched for TIMA, per TAC bits 0-1:
// 00 selects bit 9 (4096 Hz), 01 bit 3 (262144 Hz), 10 bit 5 (65536 Hz),
// 11 bit 7 (16384 Hz).
func (t *Timer) selectedBit() uint {
	switch t.TAC.Value & 0x03 {
	case 0x00:
		return 9
	case 0x01:
		return 3
	case 0x02:
		return 5
	default:
		return 7
	}
}

func (t *Timer) checkEdge() {
	state := t.TAC.Value&0x04 != 0 && hwio.GetBit16(t.div, t.selectedBit())
	if t.edge && !state {
		t.incTIMA()
	}
	t.edge = state
}

func (t *Timer) incTIMA() {
	t.TIMA.Value++
	if t.TIMA.Value == 0 {
		// Overflow: reload from TMA and raise the interrupt on the same
		// edge.
		t.TIMA.Value = t.TMA.Value
		t.IRQ.Request(hwdefs.IntTimer)
	}
}

func (t *Timer) ReadDIV(val uint8) uint8 {
	return uint8(t.div >> 8)
}

// WriteDIV zeroes the whole internal counter whatever the written value.
// The selected bit transitioning high-to-low as a consequence clocks TIMA.
func (t *Timer) WriteDIV(old, val uint8) {
	t.div = 0
	t.checkEdge()
}

func (t *Timer) ReadTAC(val uint8) uint8 {
	return val | 0xF8 // unused bits read as 1
}

func (t *Timer) WriteTAC(old, val uint8) {
	t.TAC.Value = val & 0x07
	// Switching the watched bit or dropping the enable can itself produce
	// a falling edge.
	t.checkEdge()
}
