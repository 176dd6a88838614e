package hw

import (
	"dmgo/emu/log"
	"dmgo/hw/hwdefs"
	"dmgo/hw/hwio"
)

const (
	ScreenWidth  = 160
	ScreenHeight = 144

	CyclesPerLine = 456
	NumScanlines  = 154

	oamScanCycles = 80
)

// Mode is the state the picture processor is in for the current portion of
// the scanline. The two low bits of STAT expose it to the CPU.
type Mode uint8

const (
	ModeHBlank  Mode = 0
	ModeVBlank  Mode = 1
	ModeOAMScan Mode = 2
	ModeDrawing Mode = 3
)

func (m Mode) String() string {
	switch m {
	case ModeHBlank:
		return "HBlank"
	case ModeVBlank:
		return "VBlank"
	case ModeOAMScan:
		return "OAMScan"
	case ModeDrawing:
		return "Drawing"
	}
	return "Unknown"
}

// LCDC bits.
const (
	lcdcBGEnable      = 0 // CGB: master priority
	lcdcOBJEnable     = 1
	lcdcOBJSize       = 2
	lcdcBGMap         = 3
	lcdcTileData      = 4
	lcdcWindowEnable  = 5
	lcdcWindowMap     = 6
	lcdcDisplayEnable = 7
)

// STAT bits.
const (
	statLYCMatch   = 2
	statIntHBlank  = 3
	statIntVBlank  = 4
	statIntOAM     = 5
	statIntLYC     = 6
	statWritable   = 0x78
)

type PPU struct {
	IRQ   *IRQ
	Model hwdefs.Model

	// HDMA, when present, is serviced at each HBlank entry.
	HDMA *HDMA

	// Video memory, on its own bus so that rendering is not subject to the
	// CPU-side access restrictions. Bank 1 is CGB-only.
	VRAM hwio.Mem `hwio:"bank=1,offset=0x0,size=0x4000"`
	OAM  hwio.Mem `hwio:"bank=1,offset=0x4000,size=0xA0"`

	// CPU-visible windows over VRAM and OAM, gated on the current mode.
	VRAMPort hwio.Device `hwio:"bank=2,offset=0x0,size=0x2000,rcb,wcb,pcb"`
	OAMPort  hwio.Device `hwio:"bank=3,offset=0x0,size=0xA0,rcb,wcb,pcb"`

	LCDC hwio.Reg8 `hwio:"bank=0,offset=0x0,wcb"`
	STAT hwio.Reg8 `hwio:"bank=0,offset=0x1,rcb,wcb"`
	SCY  hwio.Reg8 `hwio:"bank=0,offset=0x2"`
	SCX  hwio.Reg8 `hwio:"bank=0,offset=0x3"`
	LY   hwio.Reg8 `hwio:"bank=0,offset=0x4,readonly"`
	LYC  hwio.Reg8 `hwio:"bank=0,offset=0x5,wcb"`
	BGP  hwio.Reg8 `hwio:"bank=0,offset=0x7"`
	OBP0 hwio.Reg8 `hwio:"bank=0,offset=0x8"`
	OBP1 hwio.Reg8 `hwio:"bank=0,offset=0x9"`
	WY   hwio.Reg8 `hwio:"bank=0,offset=0xA"`
	WX   hwio.Reg8 `hwio:"bank=0,offset=0xB"`

	// CGB-only registers. VBK sits alone at FF4F, the palette port group
	// starts at FF68.
	VBK  hwio.Reg8 `hwio:"bank=4,offset=0x0,rcb,wcb"`
	BCPS hwio.Reg8 `hwio:"bank=5,offset=0x0"`
	BCPD hwio.Reg8 `hwio:"bank=5,offset=0x1,rcb,wcb,pcb"`
	OCPS hwio.Reg8 `hwio:"bank=5,offset=0x2"`
	OCPD hwio.Reg8 `hwio:"bank=5,offset=0x3,rcb,wcb,pcb"`
	OPRI hwio.Reg8 `hwio:"bank=5,offset=0x4,rwmask=0x01"`

	bgPalRAM  [64]uint8
	objPalRAM [64]uint8

	mode Mode
	dot  int // 0..CyclesPerLine-1 within the current scanline

	lycMatch bool
	wyHit    bool // WY has matched LY at some point this frame
	winLine  int  // window internal line counter

	sprites    [10]sprite
	numSprites int

	fifo pipeline

	front, back  *[ScreenWidth * ScreenHeight * 4]byte
	frameReady   bool
	FrameCounter int
}

func NewPPU(irq *IRQ, model hwdefs.Model) *PPU {
	p := &PPU{
		IRQ:   irq,
		Model: model,
		front: new([ScreenWidth * ScreenHeight * 4]byte),
		back:  new([ScreenWidth * ScreenHeight * 4]byte),
	}
	hwio.MustInitRegs(p)
	p.Reset()
	return p
}

// Reset restores the post-bootrom state of the video registers.
func (p *PPU) Reset() {
	p.LCDC.Value = 0x91
	p.STAT.Value = 0x85
	p.SCY.Value = 0
	p.SCX.Value = 0
	p.LY.Value = 0
	p.LYC.Value = 0
	p.BGP.Value = 0xFC
	p.WY.Value = 0
	p.WX.Value = 0
	p.VBK.Value = 0
	p.OPRI.Value = 0
	p.mode = ModeOAMScan
	p.dot = 0
	p.lycMatch = false
	p.wyHit = false
	p.winLine = 0
	p.frameReady = false
}

// Advance runs the picture processor for the given number of dots.
func (p *PPU) Advance(cycles int) {
	if !p.LCDC.GetBit(lcdcDisplayEnable) {
		return
	}
	for i := 0; i < cycles; i++ {
		p.tick()
	}
}

func (p *PPU) tick() {
	switch p.mode {
	case ModeOAMScan:
		if p.dot == oamScanCycles-1 {
			p.setMode(ModeDrawing)
		}
	case ModeDrawing:
		p.fifo.tick(p)
		if p.fifo.lx == ScreenWidth {
			p.setMode(ModeHBlank)
		}
	}

	p.dot++
	if p.dot == CyclesPerLine {
		p.dot = 0
		p.nextLine()
	}
}

func (p *PPU) nextLine() {
	ly := p.LY.Value + 1
	if ly == NumScanlines {
		ly = 0
	}
	p.setLY(ly)

	switch {
	case ly == ScreenHeight:
		p.setMode(ModeVBlank)
	case ly < ScreenHeight:
		if ly == 0 {
			p.winLine = 0
			p.wyHit = false
		}
		p.setMode(ModeOAMScan)
	}
	// lines 145..153 stay in VBlank, no transition
}

func (p *PPU) setMode(m Mode) {
	if p.mode == m {
		return
	}
	p.mode = m

	switch m {
	case ModeOAMScan:
		if p.STAT.GetBit(statIntOAM) {
			p.IRQ.Request(hwdefs.IntStat)
		}
	case ModeDrawing:
		// OAM is examined during the scan dots; latch the selection when
		// they end, so writes landing while the scan runs are honored.
		p.scanOAM()
		if p.LY.Value == p.WY.Value {
			p.wyHit = true
		}
		p.fifo.startLine(p)
	case ModeHBlank:
		if p.fifo.windowActive {
			p.winLine++
		}
		if p.HDMA != nil {
			p.HDMA.HBlankChunk()
		}
		if p.STAT.GetBit(statIntHBlank) {
			p.IRQ.Request(hwdefs.IntStat)
		}
	case ModeVBlank:
		p.publishFrame()
		p.IRQ.Request(hwdefs.IntVBlank)
		if p.STAT.GetBit(statIntVBlank) {
			p.IRQ.Request(hwdefs.IntStat)
		}
		log.ModPPU.DebugZ("vblank").Int("frame", p.FrameCounter).End()
	}
}

func (p *PPU) setLY(ly uint8) {
	p.LY.Value = ly
	p.checkLYC()
}

// checkLYC re-evaluates the LY=LYC comparison, raising the STAT interrupt
// only on a rising match edge.
func (p *PPU) checkLYC() {
	match := p.LY.Value == p.LYC.Value
	if match {
		p.STAT.SetBit(statLYCMatch)
	} else {
		p.STAT.ClearBit(statLYCMatch)
	}
	if match && !p.lycMatch && p.STAT.GetBit(statIntLYC) {
		p.IRQ.Request(hwdefs.IntStat)
	}
	p.lycMatch = match
}

func (p *PPU) publishFrame() {
	p.front, p.back = p.back, p.front
	p.frameReady = true
	p.FrameCounter++
}

// Frame returns the last fully rendered frame as RGBA pixels, or nil if no
// new frame was completed since the previous call.
func (p *PPU) Frame() []byte {
	if !p.frameReady {
		return nil
	}
	p.frameReady = false
	return p.front[:]
}

// CurrentFrame returns the last published frame without consuming it.
func (p *PPU) CurrentFrame() []byte {
	return p.front[:]
}

func (p *PPU) CurrentMode() Mode {
	if !p.LCDC.GetBit(lcdcDisplayEnable) {
		return ModeHBlank
	}
	return p.mode
}

/* register callbacks */

func (p *PPU) WriteLCDC(old, val uint8) {
	if old&(1<<lcdcDisplayEnable) != 0 && val&(1<<lcdcDisplayEnable) == 0 {
		// display switched off: the scanline counter resets and the
		// memory access restrictions are lifted
		p.setLY(0)
		p.dot = 0
		p.mode = ModeHBlank
		p.winLine = 0
		log.ModPPU.InfoZ("display disabled").End()
	} else if old&(1<<lcdcDisplayEnable) == 0 && val&(1<<lcdcDisplayEnable) != 0 {
		p.dot = 0
		p.setMode(ModeOAMScan)
		p.checkLYC()
		log.ModPPU.InfoZ("display enabled").End()
	}
}

func (p *PPU) ReadSTAT(val uint8) uint8 {
	return 0x80 | (val & statWritable) | (val & (1 << statLYCMatch)) | uint8(p.CurrentMode())
}

func (p *PPU) WriteSTAT(old, val uint8) {
	p.STAT.Value = (old &^ statWritable) | (val & statWritable)
}

func (p *PPU) WriteLYC(old, val uint8) {
	p.checkLYC()
}

/* VRAM and OAM CPU ports */

// vramBlocked reports whether the CPU is currently locked out of VRAM.
func (p *PPU) vramBlocked() bool {
	return p.LCDC.GetBit(lcdcDisplayEnable) && p.mode == ModeDrawing
}

// oamBlocked reports whether the CPU is currently locked out of OAM.
func (p *PPU) oamBlocked() bool {
	return p.LCDC.GetBit(lcdcDisplayEnable) &&
		(p.mode == ModeOAMScan || p.mode == ModeDrawing)
}

func (p *PPU) vramBankOffset() uint16 {
	if p.Model == hwdefs.CGB && p.VBK.Value&1 != 0 {
		return 0x2000
	}
	return 0
}

func (p *PPU) ReadVRAMPORT(addr uint16) uint8 {
	if p.vramBlocked() {
		return 0xFF
	}
	return p.VRAM.Data[p.vramBankOffset()+(addr&0x1FFF)]
}

func (p *PPU) PeekVRAMPORT(addr uint16) uint8 {
	return p.VRAM.Data[p.vramBankOffset()+(addr&0x1FFF)]
}

func (p *PPU) WriteVRAMPORT(addr uint16, val uint8) {
	if p.vramBlocked() {
		return
	}
	p.VRAM.Data[p.vramBankOffset()+(addr&0x1FFF)] = val
}

func (p *PPU) ReadOAMPORT(addr uint16) uint8 {
	if p.oamBlocked() {
		return 0xFF
	}
	return p.OAM.Data[addr-0xFE00]
}

func (p *PPU) PeekOAMPORT(addr uint16) uint8 {
	return p.OAM.Data[addr-0xFE00]
}

func (p *PPU) WriteOAMPORT(addr uint16, val uint8) {
	if p.oamBlocked() {
		return
	}
	p.OAM.Data[addr-0xFE00] = val
}

// WriteOAMDirect stores a byte into OAM bypassing the mode restrictions.
// Used by the OAM DMA engine, which has its own bus to sprite memory.
func (p *PPU) WriteOAMDirect(addr uint16, val uint8) {
	p.OAM.Data[addr] = val
}

// vramRead reads VRAM from the renderer side, which is never blocked.
func (p *PPU) vramRead(bank int, addr uint16) uint8 {
	return p.VRAM.Data[uint16(bank)*0x2000+(addr&0x1FFF)]
}

/* CGB registers */

func (p *PPU) ReadVBK(val uint8) uint8 {
	if p.Model != hwdefs.CGB {
		return 0xFF
	}
	return 0xFE | val
}

func (p *PPU) WriteVBK(old, val uint8) {
	if p.Model != hwdefs.CGB {
		p.VBK.Value = old
		return
	}
	p.VBK.Value = val & 1
}

func (p *PPU) ReadBCPD(val uint8) uint8 {
	if p.vramBlocked() {
		return 0xFF
	}
	return p.bgPalRAM[p.BCPS.Value&0x3F]
}

func (p *PPU) PeekBCPD(val uint8) uint8 {
	return p.bgPalRAM[p.BCPS.Value&0x3F]
}

func (p *PPU) WriteBCPD(old, val uint8) {
	if !p.vramBlocked() {
		p.bgPalRAM[p.BCPS.Value&0x3F] = val
	}
	p.autoIncPalIndex(&p.BCPS)
}

func (p *PPU) ReadOCPD(val uint8) uint8 {
	if p.vramBlocked() {
		return 0xFF
	}
	return p.objPalRAM[p.OCPS.Value&0x3F]
}

func (p *PPU) PeekOCPD(val uint8) uint8 {
	return p.objPalRAM[p.OCPS.Value&0x3F]
}

func (p *PPU) WriteOCPD(old, val uint8) {
	if !p.vramBlocked() {
		p.objPalRAM[p.OCPS.Value&0x3F] = val
	}
	p.autoIncPalIndex(&p.OCPS)
}

// autoIncPalIndex bumps a palette index register after a data write when its
// auto-increment bit is set. The index wraps within the 64-byte palette RAM.
func (p *PPU) autoIncPalIndex(sel *hwio.Reg8) {
	if sel.GetBit(7) {
		sel.Value = 0x80 | ((sel.Value + 1) & 0x3F)
	}
}
