package hw

import (
	"dmgo/hw/hwdefs"
	"dmgo/hw/hwio"
)

// OAM attribute bits. Bits 0-3 are CGB-only.
const (
	attrCGBPal   = 0x07
	attrBank     = 3
	attrDMGPal   = 4
	attrXFlip    = 5
	attrYFlip    = 6
	attrPriority = 7
)

// pixel is one entry of a pixel FIFO, holding a raw 2bpp color number before
// palette resolution.
type pixel struct {
	color    uint8
	palette  uint8 // DMG sprites: OBP select; CGB: palette number
	priority bool  // sprites: behind-background flag; backgrounds: CGB attr priority
	objIdx   uint8 // OAM index, for CGB sprite priority resolution
}

type pixelFIFO struct {
	px   [8]pixel
	head uint8
	size uint8
}

func (f *pixelFIFO) reset() {
	f.head = 0
	f.size = 0
}

func (f *pixelFIFO) push(p pixel) {
	f.px[(f.head+f.size)&7] = p
	f.size++
}

func (f *pixelFIFO) pop() pixel {
	p := f.px[f.head]
	f.head = (f.head + 1) & 7
	f.size--
	return p
}

func (f *pixelFIFO) at(i uint8) *pixel {
	return &f.px[(f.head+i)&7]
}

type fetchPhase uint8

const (
	fetchTileNo fetchPhase = iota
	fetchDataLow
	fetchDataHigh
	fetchPush
)

// pipeline is the per-scanline pixel pipeline: a background tile fetcher
// feeding the background FIFO, stalled during sprite fetches, with sprite
// pixels mixed in at output time.
type pipeline struct {
	lx      int // screen pixels emitted so far this line
	discard int // leading pixels dropped for fine horizontal scroll

	bg  pixelFIFO
	obj pixelFIFO

	phase    fetchPhase
	phaseDot int
	tileX    uint8
	tileNo   uint8
	attrs    uint8
	row      uint8
	dataLow  uint8
	dataHigh uint8

	windowActive bool

	spriteFetch    bool
	spriteFetchDot int
	spriteIdx      int
}

func (f *pipeline) startLine(p *PPU) {
	f.lx = 0
	f.discard = int(p.SCX.Value & 7)
	f.bg.reset()
	f.obj.reset()
	f.phase = fetchTileNo
	f.phaseDot = 0
	f.tileX = 0
	f.windowActive = false
	f.spriteFetch = false
}

func (f *pipeline) tick(p *PPU) {
	if f.spriteFetch {
		f.spriteFetchDot++
		if f.spriteFetchDot == 6 {
			f.loadSprite(p, &p.sprites[f.spriteIdx])
			f.spriteFetch = false
		}
		return
	}

	f.fetcherTick(p)

	if f.bg.size == 0 {
		return
	}

	if !f.windowActive && f.windowStarts(p) {
		// switch the fetcher over to the window tilemap, dropping any
		// buffered background pixels
		f.windowActive = true
		f.bg.reset()
		f.phase = fetchTileNo
		f.phaseDot = 0
		f.tileX = 0
		return
	}

	if p.LCDC.GetBit(lcdcOBJEnable) {
		for i := 0; i < p.numSprites; i++ {
			s := &p.sprites[i]
			if !s.fetched && int(s.x) <= f.lx+8 {
				s.fetched = true
				f.spriteFetch = true
				f.spriteFetchDot = 0
				f.spriteIdx = i
				return
			}
		}
	}

	f.emit(p)
}

func (f *pipeline) windowStarts(p *PPU) bool {
	return p.LCDC.GetBit(lcdcWindowEnable) && p.wyHit &&
		f.lx >= int(p.WX.Value)-7
}

func (f *pipeline) fetcherTick(p *PPU) {
	if f.phase != fetchPush {
		f.phaseDot++
		if f.phaseDot < 2 {
			return
		}
		f.phaseDot = 0
	}

	switch f.phase {
	case fetchTileNo:
		f.fetchTile(p)
		f.phase = fetchDataLow
	case fetchDataLow:
		f.dataLow = p.vramRead(f.tileBank(p), f.tileAddr(p))
		f.phase = fetchDataHigh
	case fetchDataHigh:
		f.dataHigh = p.vramRead(f.tileBank(p), f.tileAddr(p)+1)
		f.phase = fetchPush
	case fetchPush:
		// the push slot retries every dot until the FIFO drains
		if f.bg.size == 0 {
			f.pushTileRow(p)
			f.tileX++
			f.phase = fetchTileNo
		}
	}
}

func (f *pipeline) fetchTile(p *PPU) {
	var mapBase uint16
	var tx, ty uint8
	if f.windowActive {
		mapBase = tilemapBase(p.LCDC.GetBit(lcdcWindowMap))
		tx = f.tileX
		ty = uint8(p.winLine)
	} else {
		mapBase = tilemapBase(p.LCDC.GetBit(lcdcBGMap))
		tx = (p.SCX.Value >> 3) + f.tileX
		ty = p.LY.Value + p.SCY.Value
	}
	addr := mapBase + uint16(ty>>3)*32 + uint16(tx&31)
	f.tileNo = p.vramRead(0, addr)
	f.row = ty & 7
	f.attrs = 0
	if p.Model.IsCGB() {
		f.attrs = p.vramRead(1, addr)
	}
}

func tilemapBase(high bool) uint16 {
	if high {
		return 0x9C00
	}
	return 0x9800
}

func (f *pipeline) tileBank(p *PPU) int {
	if p.Model.IsCGB() && hwio.GetBiti8(f.attrs, attrBank) != 0 {
		return 1
	}
	return 0
}

func (f *pipeline) tileAddr(p *PPU) uint16 {
	row := f.row
	if hwio.GetBit8(f.attrs, attrYFlip) {
		row = 7 - row
	}
	if p.LCDC.GetBit(lcdcTileData) {
		return 0x8000 + uint16(f.tileNo)*16 + uint16(row)*2
	}
	return uint16(0x9000+int(int8(f.tileNo))*16) + uint16(row)*2
}

func (f *pipeline) pushTileRow(p *PPU) {
	for i := 0; i < 8; i++ {
		bit := uint(7 - i)
		if hwio.GetBit8(f.attrs, attrXFlip) {
			bit = uint(i)
		}
		color := (f.dataHigh>>bit&1)<<1 | f.dataLow>>bit&1
		if p.Model == hwdefs.DMG && !p.LCDC.GetBit(lcdcBGEnable) {
			color = 0
		}
		f.bg.push(pixel{
			color:    color,
			palette:  f.attrs & attrCGBPal,
			priority: hwio.GetBit8(f.attrs, attrPriority),
		})
	}
}

// loadSprite reads a sprite tile row and merges it into the sprite FIFO.
// A pixel already in the FIFO keeps its slot unless it is transparent or
// loses the priority comparison.
func (f *pipeline) loadSprite(p *PPU, s *sprite) {
	h := uint8(8)
	tile := s.tile
	if p.LCDC.GetBit(lcdcOBJSize) {
		h = 16
		tile &= 0xFE
	}
	row := p.LY.Value + 16 - s.y
	if hwio.GetBit8(s.attrs, attrYFlip) {
		row = h - 1 - row
	}

	bank := 0
	if p.Model.IsCGB() && hwio.GetBiti8(s.attrs, attrBank) != 0 {
		bank = 1
	}
	addr := 0x8000 + uint16(tile)*16 + uint16(row)*2
	lo := p.vramRead(bank, addr)
	hi := p.vramRead(bank, addr+1)

	pal := hwio.GetBiti8(s.attrs, attrDMGPal)
	if p.Model.IsCGB() {
		pal = s.attrs & attrCGBPal
	}

	// sprites partially off the left edge contribute only their visible tail
	start := 0
	if int(s.x) < 8 {
		start = 8 - int(s.x)
	}
	for i := start; i < 8; i++ {
		bit := uint(7 - i)
		if hwio.GetBit8(s.attrs, attrXFlip) {
			bit = uint(i)
		}
		px := pixel{
			color:    (hi>>bit&1)<<1 | lo>>bit&1,
			palette:  pal,
			priority: hwio.GetBit8(s.attrs, attrPriority),
			objIdx:   s.oamIdx,
		}
		slot := uint8(i - start)
		if slot < f.obj.size {
			cur := f.obj.at(slot)
			if px.color != 0 && (cur.color == 0 || p.objIdxWins(px.objIdx, cur.objIdx)) {
				*cur = px
			}
		} else {
			f.obj.push(px)
		}
	}
}

// objIdxWins reports whether a sprite loaded later into the FIFO overrides
// an opaque pixel already there. Only happens with CGB OAM-index priority.
func (p *PPU) objIdxWins(newIdx, curIdx uint8) bool {
	return p.Model.IsCGB() && !p.OPRI.GetBit(0) && newIdx < curIdx
}

func (f *pipeline) emit(p *PPU) {
	bg := f.bg.pop()

	// the SCX fine-scroll discard throws away background pixels only;
	// sprite pixels stay queued for the screen positions they belong to
	if f.discard > 0 {
		f.discard--
		return
	}

	var sp pixel
	hasSprite := false
	if f.obj.size > 0 {
		sp = f.obj.pop()
		hasSprite = sp.color != 0 && p.LCDC.GetBit(lcdcOBJEnable)
	}

	var r, g, b uint8
	if hasSprite && f.spriteWins(p, bg, sp) {
		r, g, b = p.objColor(sp)
	} else {
		r, g, b = p.bgColor(bg)
	}
	p.writePixel(f.lx, int(p.LY.Value), r, g, b)
	f.lx++
}

func (f *pipeline) spriteWins(p *PPU, bg, sp pixel) bool {
	if p.Model.IsCGB() && !p.LCDC.GetBit(lcdcBGEnable) {
		// master priority off: sprites always on top
		return true
	}
	if bg.color == 0 {
		return true
	}
	return !sp.priority && !(p.Model.IsCGB() && bg.priority)
}

func (p *PPU) writePixel(x, y int, r, g, b uint8) {
	off := (y*ScreenWidth + x) * 4
	p.back[off+0] = r
	p.back[off+1] = g
	p.back[off+2] = b
	p.back[off+3] = 0xFF
}
