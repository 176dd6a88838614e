package hw

import (
	"dmgo/cart"
	"dmgo/emu/log"
	"dmgo/hw/hwdefs"
	"dmgo/hw/hwio"
)

// openBus is the Table fallback for the unusable area and any hole in the
// address map: reads saturate high, writes vanish.
type openBus struct{}

func (openBus) Read8(addr uint16) uint8 {
	log.ModHwIo.DebugZ("read from unmapped address").Hex16("addr", addr).End()
	return 0xFF
}
func (openBus) Peek8(addr uint16) uint8       { return 0xFF }
func (openBus) Write8(addr uint16, val uint8) {}

// Bus is the 64KB CPU address space. It owns work RAM, high RAM, the boot
// overlay and the OAM DMA engine, and delegates the rest of the map to the
// cartridge and the hardware blocks mapped into its table.
type Bus struct {
	Table *hwio.Table

	model hwdefs.Model
	cart  cart.Cartridge
	ppu   *PPU
	audio AudioDevice

	DMA *OAMDMA

	boot        []byte
	bootEnabled bool

	wram [0x8000]byte // 8 banks of 4KB; DMG uses the first two
	hram [0x7F]byte

	BOOT hwio.Reg8 `hwio:"offset=0x0,wcb"`
	SVBK hwio.Reg8 `hwio:"offset=0x1,rcb,wcb"`

	ROMPort  hwio.Device `hwio:"bank=1,offset=0x0,size=0x8000,rcb,wcb,pcb"`
	ERAMPort hwio.Device `hwio:"bank=2,offset=0x0,size=0x2000,rcb,wcb,pcb"`
	WRAMPort hwio.Device `hwio:"bank=3,offset=0x0,size=0x2000,rcb,wcb,pcb"`
	EchoPort hwio.Device `hwio:"bank=4,offset=0x0,size=0x1E00,rcb,wcb,pcb"`
	HRAMPort hwio.Device `hwio:"bank=5,offset=0x0,size=0x7F,rcb,wcb,pcb"`
	APUPort  hwio.Device `hwio:"bank=6,offset=0x0,size=0x30,rcb,wcb"`
}

func NewBus(model hwdefs.Model, c cart.Cartridge, ppu *PPU, boot []byte, audio AudioDevice) *Bus {
	if audio == nil {
		audio = NullAudio{}
	}
	b := &Bus{
		Table: hwio.NewTable("bus"),
		model: model,
		cart:  c,
		ppu:   ppu,
		audio: audio,
		boot:  boot,
	}
	hwio.MustInitRegs(b)
	b.Table.Unmapped = openBus{}
	b.DMA = NewOAMDMA(b.Table, ppu)
	b.bootEnabled = len(boot) > 0

	b.Table.MapBank(0x0000, b, 1)  // cart ROM
	b.Table.MapBank(0x8000, ppu, 2) // VRAM window
	b.Table.MapBank(0xA000, b, 2)  // cart RAM
	b.Table.MapBank(0xC000, b, 3)  // WRAM
	b.Table.MapBank(0xE000, b, 4)  // echo
	b.Table.MapBank(0xFE00, ppu, 3) // OAM window
	b.Table.MapBank(0xFF10, b, 6)  // sound registers
	b.Table.MapBank(0xFF40, ppu, 0) // LCD registers
	b.Table.MapBank(0xFF46, b.DMA, 0)
	b.Table.MapReg8(0xFF50, &b.BOOT)
	b.Table.MapBank(0xFF80, b, 5) // HRAM

	if model.IsCGB() {
		b.Table.MapBank(0xFF4F, ppu, 4) // VBK
		b.Table.MapBank(0xFF68, ppu, 5) // palette ports, OPRI
		b.Table.MapReg8(0xFF70, &b.SVBK)
	}
	return b
}

func (b *Bus) Reset() {
	b.DMA.Reset()
	b.SVBK.Value = 0x01
	b.bootEnabled = len(b.boot) > 0
}

// Advance ticks the engines owned by the bus.
func (b *Bus) Advance(cycles int) {
	b.DMA.Advance(cycles)
}

// Read8 is the CPU-originated read path. During OAM DMA everything but HRAM
// reads back 0xFF.
func (b *Bus) Read8(addr uint16) uint8 {
	if b.DMA.Active() && !isHRAM(addr) {
		return 0xFF
	}
	return b.Table.Read8(addr)
}

// Write8 is the CPU-originated write path.
func (b *Bus) Write8(addr uint16, val uint8) {
	if b.DMA.Active() && !isHRAM(addr) {
		return
	}
	b.Table.Write8(addr, val)
}

// Peek8 reads without side effects, ignoring access restrictions.
func (b *Bus) Peek8(addr uint16) uint8 {
	return b.Table.Peek8(addr)
}

func isHRAM(addr uint16) bool {
	return addr >= 0xFF80 && addr <= 0xFFFE
}

/* boot overlay */

// bootServes reports whether the boot image currently overlays addr.
func (b *Bus) bootServes(addr uint16) bool {
	if !b.bootEnabled || int(addr) >= len(b.boot) {
		return false
	}
	if addr < 0x0100 {
		return true
	}
	// the CGB boot image has a second half above the header
	return b.model.IsCGB() && addr >= 0x0200 && addr < 0x0900
}

func (b *Bus) WriteBOOT(old, val uint8) {
	if b.bootEnabled && val != 0 {
		b.bootEnabled = false
		log.ModEmu.InfoZ("boot rom disabled").End()
	}
}

/* cartridge */

func (b *Bus) ReadROMPORT(addr uint16) uint8 {
	if b.bootServes(addr) {
		return b.boot[addr]
	}
	return b.cart.Read8(addr)
}

func (b *Bus) PeekROMPORT(addr uint16) uint8 {
	return b.ReadROMPORT(addr)
}

func (b *Bus) WriteROMPORT(addr uint16, val uint8) {
	b.cart.Write8(addr, val)
}

func (b *Bus) ReadERAMPORT(addr uint16) uint8 {
	return b.cart.Read8(addr)
}

func (b *Bus) PeekERAMPORT(addr uint16) uint8 {
	return b.cart.Read8(addr)
}

func (b *Bus) WriteERAMPORT(addr uint16, val uint8) {
	b.cart.Write8(addr, val)
}

/* work ram */

func (b *Bus) svbkBank() uint16 {
	if !b.model.IsCGB() {
		return 1
	}
	bank := uint16(b.SVBK.Value & 0x07)
	if bank == 0 {
		bank = 1
	}
	return bank
}

// wramOffset resolves an absolute WRAM or echo RAM address to an offset in
// the backing array, applying the SVBK bank for the upper half.
func (b *Bus) wramOffset(addr uint16) uint16 {
	if addr&0x1000 == 0 {
		return addr & 0x0FFF
	}
	return b.svbkBank()*0x1000 + (addr & 0x0FFF)
}

func (b *Bus) ReadWRAMPORT(addr uint16) uint8          { return b.wram[b.wramOffset(addr)] }
func (b *Bus) PeekWRAMPORT(addr uint16) uint8          { return b.wram[b.wramOffset(addr)] }
func (b *Bus) WriteWRAMPORT(addr uint16, val uint8)    { b.wram[b.wramOffset(addr)] = val }
func (b *Bus) ReadECHOPORT(addr uint16) uint8          { return b.wram[b.wramOffset(addr)] }
func (b *Bus) PeekECHOPORT(addr uint16) uint8          { return b.wram[b.wramOffset(addr)] }
func (b *Bus) WriteECHOPORT(addr uint16, val uint8)    { b.wram[b.wramOffset(addr)] = val }

func (b *Bus) ReadSVBK(val uint8) uint8 {
	return 0xF8 | val
}

func (b *Bus) WriteSVBK(old, val uint8) {
	b.SVBK.Value = val & 0x07
}

/* high ram */

func (b *Bus) ReadHRAMPORT(addr uint16) uint8       { return b.hram[addr-0xFF80] }
func (b *Bus) PeekHRAMPORT(addr uint16) uint8       { return b.hram[addr-0xFF80] }
func (b *Bus) WriteHRAMPORT(addr uint16, val uint8) { b.hram[addr-0xFF80] = val }

/* sound registers: forwarded verbatim to the audio device */

func (b *Bus) ReadAPUPORT(addr uint16) uint8 {
	return b.audio.Read8(addr)
}

func (b *Bus) WriteAPUPORT(addr uint16, val uint8) {
	log.ModSound.DebugZ("sound register write").
		Hex16("addr", addr).
		Hex8("val", val).
		End()
	b.audio.Write8(addr, val)
}
