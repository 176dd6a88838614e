package hw

import (
	"dmgo/emu/log"
	"dmgo/hw/hwio"
)

// HDMA is the CGB VRAM DMA engine. General-purpose transfers copy the whole
// block at once; HBlank transfers copy 16 bytes at each HBlank entry, driven
// by the PPU.
type HDMA struct {
	bus *hwio.Table
	ppu *PPU

	HDMA1 hwio.Reg8 `hwio:"offset=0x0,writeonly"`
	HDMA2 hwio.Reg8 `hwio:"offset=0x1,writeonly"`
	HDMA3 hwio.Reg8 `hwio:"offset=0x2,writeonly"`
	HDMA4 hwio.Reg8 `hwio:"offset=0x3,writeonly"`
	HDMA5 hwio.Reg8 `hwio:"offset=0x4,rcb,wcb"`

	hblankMode bool
	src, dst   uint16
	remaining  int // 16-byte blocks left

	// cycles spent by the last general-purpose transfer, consumed by the
	// machine driver
	stallCycles int
}

func NewHDMA(bus *hwio.Table, ppu *PPU) *HDMA {
	h := &HDMA{bus: bus, ppu: ppu}
	hwio.MustInitRegs(h)
	h.Reset()
	return h
}

func (h *HDMA) Reset() {
	h.hblankMode = false
	h.remaining = 0
	h.stallCycles = 0
	h.HDMA5.Value = 0xFF
}

// Active reports whether an HBlank transfer is pending.
func (h *HDMA) Active() bool {
	return h.hblankMode && h.remaining > 0
}

// TakeStallCycles returns and clears the cycle cost of the last
// general-purpose transfer.
func (h *HDMA) TakeStallCycles() int {
	c := h.stallCycles
	h.stallCycles = 0
	return c
}

func (h *HDMA) ReadHDMA5(val uint8) uint8 {
	if h.remaining == 0 {
		return 0xFF
	}
	v := uint8(h.remaining - 1)
	if !h.hblankMode {
		v |= 0x80
	}
	return v
}

func (h *HDMA) WriteHDMA5(old, val uint8) {
	if h.Active() && val&0x80 == 0 {
		// cancel a pending hblank transfer, keeping the block count
		h.hblankMode = false
		log.ModDMA.DebugZ("hdma cancelled").Int("blocks", h.remaining).End()
		return
	}

	h.src = (uint16(h.HDMA1.Value)<<8 | uint16(h.HDMA2.Value)) & 0xFFF0
	h.dst = (uint16(h.HDMA3.Value)<<8 | uint16(h.HDMA4.Value)) & 0x1FF0
	h.remaining = int(val&0x7F) + 1

	if val&0x80 != 0 {
		h.hblankMode = true
		log.ModDMA.DebugZ("hblank dma start").
			Hex16("src", h.src).
			Hex16("dst", 0x8000|h.dst).
			Int("blocks", h.remaining).
			End()
		return
	}

	// general-purpose: copy everything now
	h.hblankMode = false
	blocks := h.remaining
	for h.remaining > 0 {
		h.copyBlock()
	}
	h.stallCycles = blocks * 32
}

// HBlankChunk copies one 16-byte block. Called by the PPU at HBlank entry.
func (h *HDMA) HBlankChunk() {
	if !h.Active() {
		return
	}
	h.copyBlock()
	h.stallCycles += 32
}

func (h *HDMA) copyBlock() {
	base := h.ppu.vramBankOffset()
	for i := 0; i < 16; i++ {
		h.ppu.VRAM.Data[base+(h.dst&0x1FFF)] = h.bus.Read8(h.src)
		h.src++
		h.dst = (h.dst + 1) & 0x1FFF
	}
	h.remaining--
	if h.remaining == 0 {
		h.hblankMode = false
	}
}
