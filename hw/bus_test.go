package hw

import (
	"testing"

	"dmgo/hw/hwdefs"
)

// recordAudio remembers sound register traffic and serves reads from a
// fixed register file.
type recordAudio struct {
	regs   [0x30]uint8
	writes []uint16
}

func (a *recordAudio) Read8(addr uint16) uint8 { return a.regs[addr-0xFF10] }

func (a *recordAudio) Write8(addr uint16, val uint8) {
	a.regs[addr-0xFF10] = val
	a.writes = append(a.writes, addr)
}

func TestBusSoundForwarding(t *testing.T) {
	dev := &recordAudio{}
	gb := NewGameBoy(hwdefs.DMG, &testCart{}, Options{Audio: dev})
	gb.Reset()

	gb.Bus.Write8(0xFF26, 0x80) // NR52
	gb.Bus.Write8(0xFF11, 0x3F) // NR11

	if len(dev.writes) != 2 || dev.writes[0] != 0xFF26 || dev.writes[1] != 0xFF11 {
		t.Fatalf("device saw writes %04x, want [ff26 ff11]", dev.writes)
	}
	if got := gb.Bus.Read8(0xFF26); got != 0x80 {
		t.Errorf("NR52 = %02x, want 80", got)
	}
	if got := gb.Bus.Read8(0xFF11); got != 0x3F {
		t.Errorf("NR11 = %02x, want 3F", got)
	}
}

func TestBusSoundNullDevice(t *testing.T) {
	gb := newTestGameBoy(hwdefs.DMG)

	gb.Bus.Write8(0xFF26, 0x80)
	if got := gb.Bus.Read8(0xFF26); got != 0xFF {
		t.Errorf("NR52 = %02x with no audio device, want FF", got)
	}
}
