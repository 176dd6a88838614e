package hw

import (
	"testing"

	"dmgo/hw/hwdefs"
)

// flatmem is a bare 64K address space standing in for the bus in CPU tests.
type flatmem struct {
	data [0x10000]uint8
}

func (m *flatmem) Read8(addr uint16) uint8       { return m.data[addr] }
func (m *flatmem) Write8(addr uint16, val uint8) { m.data[addr] = val }

// newTestCPU returns a DMG cpu over flat memory, program loaded at org,
// PC set to org.
func newTestCPU(tb testing.TB, org uint16, prog ...uint8) (*CPU, *flatmem, *IRQ) {
	tb.Helper()

	mem := new(flatmem)
	copy(mem.data[org:], prog)

	irq := NewIRQ()
	cpu := NewCPU(mem, irq, hwdefs.DMG)
	cpu.PC = org
	return cpu, mem, irq
}

func wantCPUCycles(tb testing.TB, got, want int) {
	tb.Helper()
	if got != want {
		tb.Errorf("cycles = %d, want %d", got, want)
	}
}
