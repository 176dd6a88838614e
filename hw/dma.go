package hw

import (
	"dmgo/emu/log"
	"dmgo/hw/hwio"
)

// OAMDMA is the sprite memory DMA engine. A write to its register copies a
// 160-byte page into OAM, one byte every 4 cycles. While the copy runs the
// CPU can only reach HRAM; the bus enforces that via Active.
type OAMDMA struct {
	bus *hwio.Table
	ppu *PPU

	DMA hwio.Reg8 `hwio:"offset=0x0,wcb"`

	running bool
	src     uint16
	idx     int
	tick    int
}

func NewOAMDMA(bus *hwio.Table, ppu *PPU) *OAMDMA {
	dma := &OAMDMA{bus: bus, ppu: ppu}
	hwio.MustInitRegs(dma)
	return dma
}

func (dma *OAMDMA) Reset() {
	dma.DMA.Value = 0xFF
	dma.running = false
	dma.idx = 0
	dma.tick = 0
}

// Active reports whether a transfer is in progress, in which case the CPU is
// locked out of everything but HRAM.
func (dma *OAMDMA) Active() bool {
	return dma.running
}

func (dma *OAMDMA) WriteDMA(old, val uint8) {
	dma.src = uint16(val) << 8
	dma.idx = 0
	dma.tick = 0
	dma.running = true
	log.ModDMA.DebugZ("oam dma start").Hex16("src", dma.src).End()
}

// Advance runs the transfer engine for the given number of cycles.
func (dma *OAMDMA) Advance(cycles int) {
	if !dma.running {
		return
	}
	for i := 0; i < cycles; i++ {
		dma.tick++
		if dma.tick < 4 {
			continue
		}
		dma.tick = 0
		dma.ppu.WriteOAMDirect(uint16(dma.idx), dma.bus.Read8(dma.src+uint16(dma.idx)))
		dma.idx++
		if dma.idx == 0xA0 {
			dma.running = false
			break
		}
	}
}
