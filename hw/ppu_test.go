package hw

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dmgo/hw/hwdefs"
)

func newTestPPU(model hwdefs.Model) (*PPU, *IRQ) {
	irq := NewIRQ()
	return NewPPU(irq, model), irq
}

// fillTile writes a solid 8x8 tile where every pixel has the given 2bpp
// color number.
func fillTile(p *PPU, bank int, tile uint8, color uint8) {
	var lo, hi uint8
	if color&1 != 0 {
		lo = 0xFF
	}
	if color&2 != 0 {
		hi = 0xFF
	}
	base := int(tile)*16 + bank*0x2000
	for row := 0; row < 8; row++ {
		p.VRAM.Data[base+row*2] = lo
		p.VRAM.Data[base+row*2+1] = hi
	}
}

func framePixel(frame []byte, x, y int) (r, g, b uint8) {
	off := (y*ScreenWidth + x) * 4
	return frame[off], frame[off+1], frame[off+2]
}

func renderFrame(t *testing.T, p *PPU) []byte {
	t.Helper()
	p.Advance(CyclesPerLine * NumScanlines)
	frame := p.Frame()
	require.NotNil(t, frame, "no frame published after a full frame of dots")
	return frame
}

func TestPPUModeTimeline(t *testing.T) {
	p, _ := newTestPPU(hwdefs.DMG)

	assert.Equal(t, ModeOAMScan, p.CurrentMode())

	p.Advance(oamScanCycles)
	assert.Equal(t, ModeDrawing, p.CurrentMode())

	p.Advance(300) // drawing is over well before dot 380
	assert.Equal(t, ModeHBlank, p.CurrentMode())

	p.Advance(CyclesPerLine - 380)
	assert.Equal(t, uint8(1), p.LY.Value)
	assert.Equal(t, ModeOAMScan, p.CurrentMode())
}

func TestPPUVBlank(t *testing.T) {
	p, irq := newTestPPU(hwdefs.DMG)

	p.Advance(CyclesPerLine*ScreenHeight - 1)
	assert.Zero(t, irq.IF.Value&hwdefs.IntVBlank.Mask(), "vblank too early")

	p.Advance(1)
	assert.Equal(t, uint8(ScreenHeight), p.LY.Value)
	assert.Equal(t, ModeVBlank, p.CurrentMode())
	assert.NotZero(t, irq.IF.Value&hwdefs.IntVBlank.Mask(), "no vblank interrupt")
	require.NotNil(t, p.Frame())

	// 10 lines of vblank, then wrap to line 0.
	p.Advance(CyclesPerLine * (NumScanlines - ScreenHeight))
	assert.Equal(t, uint8(0), p.LY.Value)
	assert.Equal(t, ModeOAMScan, p.CurrentMode())
	assert.Equal(t, 1, p.FrameCounter)
}

func TestPPULYCInterrupt(t *testing.T) {
	p, irq := newTestPPU(hwdefs.DMG)
	p.LYC.Value = 10
	p.WriteLYC(0, 10)
	p.WriteSTAT(p.STAT.Value, 1<<statIntLYC)

	p.Advance(CyclesPerLine * 10)
	assert.Equal(t, uint8(10), p.LY.Value)
	assert.NotZero(t, irq.IF.Value&hwdefs.IntStat.Mask(), "no STAT interrupt on LY=LYC")
	assert.True(t, p.ReadSTAT(p.STAT.Value)&(1<<statLYCMatch) != 0, "match bit clear")

	// The comparison must only fire on the rising edge.
	irq.IF.Value = 0
	p.Advance(10)
	assert.Zero(t, irq.IF.Value&hwdefs.IntStat.Mask(), "STAT interrupt re-fired without an edge")
}

func TestPPUBackgroundRender(t *testing.T) {
	p, _ := newTestPPU(hwdefs.DMG)
	p.BGP.Value = 0xE4 // identity palette

	fillTile(p, 0, 1, 3)
	// Tilemap at 0x9800 defaults to tile 0 (color 0); put tile 1 in the top
	// left map entry.
	p.VRAM.Data[0x1800] = 1

	frame := renderFrame(t, p)

	r, g, b := framePixel(frame, 0, 0)
	assert.Equal(t, dmgShades[3], [3]uint8{r, g, b}, "tile 1 pixel")

	r, g, b = framePixel(frame, 8, 0)
	assert.Equal(t, dmgShades[0], [3]uint8{r, g, b}, "tile 0 pixel")

	r, g, b = framePixel(frame, 0, 8)
	assert.Equal(t, dmgShades[0], [3]uint8{r, g, b}, "tile 0 pixel below")
}

func TestPPUBackgroundScroll(t *testing.T) {
	p, _ := newTestPPU(hwdefs.DMG)
	p.BGP.Value = 0xE4
	fillTile(p, 0, 1, 3)
	p.VRAM.Data[0x1800+1] = 1 // second map column

	p.SCX.Value = 4 // fine scroll: tile 1 starts at screen x=4

	frame := renderFrame(t, p)

	r, g, b := framePixel(frame, 3, 0)
	assert.Equal(t, dmgShades[0], [3]uint8{r, g, b})
	r, g, b = framePixel(frame, 4, 0)
	assert.Equal(t, dmgShades[3], [3]uint8{r, g, b})
	r, g, b = framePixel(frame, 12, 0)
	assert.Equal(t, dmgShades[0], [3]uint8{r, g, b})
}

func TestPPUWindowOverlay(t *testing.T) {
	p, _ := newTestPPU(hwdefs.DMG)
	p.BGP.Value = 0xE4
	fillTile(p, 0, 1, 3)

	// Window uses the 0x9C00 map, filled with tile 1.
	for i := 0; i < 0x400; i++ {
		p.VRAM.Data[0x1C00+i] = 1
	}
	p.LCDC.Value |= 1<<lcdcWindowEnable | 1<<lcdcWindowMap
	p.WY.Value = 8
	p.WX.Value = 7 + 80 // right half of the screen

	frame := renderFrame(t, p)

	// Above WY and left of WX-7 the background (color 0) shows through.
	r, g, b := framePixel(frame, 100, 0)
	assert.Equal(t, dmgShades[0], [3]uint8{r, g, b}, "window above WY")
	r, g, b = framePixel(frame, 40, 100)
	assert.Equal(t, dmgShades[0], [3]uint8{r, g, b}, "left of window")

	r, g, b = framePixel(frame, 80, 8)
	assert.Equal(t, dmgShades[3], [3]uint8{r, g, b}, "window interior")
	r, g, b = framePixel(frame, 159, 143)
	assert.Equal(t, dmgShades[3], [3]uint8{r, g, b}, "window bottom right")
}

func TestPPUWindowDisabled(t *testing.T) {
	p, _ := newTestPPU(hwdefs.DMG)
	p.BGP.Value = 0xE4
	fillTile(p, 0, 1, 3)

	for i := 0; i < 0x400; i++ {
		p.VRAM.Data[0x1C00+i] = 1
	}
	// Same setup as the overlay test but with the enable bit clear: WX/WY
	// must have no effect.
	p.LCDC.Value |= 1 << lcdcWindowMap
	p.WY.Value = 8
	p.WX.Value = 7 + 80

	frame := renderFrame(t, p)

	r, g, b := framePixel(frame, 80, 8)
	assert.Equal(t, dmgShades[0], [3]uint8{r, g, b}, "window area shows the background")
	r, g, b = framePixel(frame, 159, 143)
	assert.Equal(t, dmgShades[0], [3]uint8{r, g, b})
}

func TestPPUSpriteUnderFineScroll(t *testing.T) {
	p, _ := newTestPPU(hwdefs.DMG)
	p.BGP.Value = 0xE4
	p.OBP0.Value = 0xE4
	p.LCDC.SetBit(lcdcOBJEnable)
	fillTile(p, 0, 2, 2)

	// Sprites are not scrolled: with SCX fine scroll discarding the first
	// background pixels, a sprite at the left edge keeps its position.
	p.SCX.Value = 4
	copy(p.OAM.Data[:4], []uint8{16, 8, 2, 0}) // screen (0, 0)

	frame := renderFrame(t, p)

	for x := 0; x < 8; x++ {
		r, g, b := framePixel(frame, x, 0)
		assert.Equal(t, dmgShades[2], [3]uint8{r, g, b}, "sprite pixel at x=%d", x)
	}
	r, g, b := framePixel(frame, 8, 0)
	assert.Equal(t, dmgShades[0], [3]uint8{r, g, b}, "right of sprite")
}

func TestPPUSpriteOnFirstLine(t *testing.T) {
	p, _ := newTestPPU(hwdefs.DMG)
	p.BGP.Value = 0xE4
	p.OBP0.Value = 0xE4
	p.LCDC.SetBit(lcdcOBJEnable)
	fillTile(p, 0, 2, 2)

	frame := renderFrame(t, p)
	r, g, b := framePixel(frame, 8, 0)
	require.Equal(t, dmgShades[0], [3]uint8{r, g, b})

	// The machine sits at line 0 dot 0 now. A sprite stored here must be
	// picked up by the scan of the very line it lands on.
	copy(p.OAM.Data[:4], []uint8{16, 8 + 8, 2, 0}) // screen (8, 0)

	frame = renderFrame(t, p)
	r, g, b = framePixel(frame, 8, 0)
	assert.Equal(t, dmgShades[2], [3]uint8{r, g, b}, "sprite pixel on line 0")
	r, g, b = framePixel(frame, 8, 8)
	assert.Equal(t, dmgShades[0], [3]uint8{r, g, b}, "below sprite")
}

func TestPPUSpriteRender(t *testing.T) {
	p, _ := newTestPPU(hwdefs.DMG)
	p.BGP.Value = 0xE4
	p.OBP0.Value = 0xE4
	p.LCDC.SetBit(lcdcOBJEnable)

	fillTile(p, 0, 2, 2)
	// One sprite at screen (8, 16).
	copy(p.OAM.Data[:4], []uint8{16 + 16, 8 + 8, 2, 0})

	frame := renderFrame(t, p)

	r, g, b := framePixel(frame, 8, 16)
	assert.Equal(t, dmgShades[2], [3]uint8{r, g, b}, "sprite pixel")
	r, g, b = framePixel(frame, 7, 16)
	assert.Equal(t, dmgShades[0], [3]uint8{r, g, b}, "left of sprite")
	r, g, b = framePixel(frame, 16, 16)
	assert.Equal(t, dmgShades[0], [3]uint8{r, g, b}, "right of sprite")
	r, g, b = framePixel(frame, 8, 24)
	assert.Equal(t, dmgShades[0], [3]uint8{r, g, b}, "below sprite")
}

// A sprite with the behind-background attribute only shows through
// background color 0.
func TestPPUSpritePriority(t *testing.T) {
	p, _ := newTestPPU(hwdefs.DMG)
	p.BGP.Value = 0xE4
	p.OBP0.Value = 0xE4
	p.LCDC.SetBit(lcdcOBJEnable)

	fillTile(p, 0, 1, 1) // bg tile, color 1
	fillTile(p, 0, 2, 2) // sprite tile, color 2
	p.VRAM.Data[0x1800] = 1

	// Sprite behind the background, spanning x 0..7 on line 0.
	copy(p.OAM.Data[:4], []uint8{16, 8, 2, 1 << attrPriority})

	frame := renderFrame(t, p)

	// Over the opaque bg tile the background wins.
	r, g, b := framePixel(frame, 0, 0)
	assert.Equal(t, dmgShades[1], [3]uint8{r, g, b}, "sprite should lose to opaque bg")

	// A second behind-background sprite sits over bg color 0, where it must
	// show through.
	copy(p.OAM.Data[4:8], []uint8{16, 16 + 8, 2, 1 << attrPriority})
	frame = renderFrame(t, p)
	r, g, b = framePixel(frame, 16, 0)
	assert.Equal(t, dmgShades[2], [3]uint8{r, g, b}, "sprite should show over bg color 0")
}

func TestPPUOAMScanLimit(t *testing.T) {
	p, _ := newTestPPU(hwdefs.DMG)

	// 12 sprites on line 0, plus one hidden at x=0.
	for i := 0; i < 12; i++ {
		copy(p.OAM.Data[i*4:], []uint8{16, uint8(8 + i), 0, 0})
	}
	copy(p.OAM.Data[12*4:], []uint8{16, 0, 0, 0})

	p.LY.Value = 0
	p.scanOAM()
	assert.Equal(t, 10, p.numSprites, "hardware scans out at 10 sprites per line")
}

func TestPPUOAMScanSortsByX(t *testing.T) {
	p, _ := newTestPPU(hwdefs.DMG)

	copy(p.OAM.Data[0:], []uint8{16, 40, 1, 0})
	copy(p.OAM.Data[4:], []uint8{16, 20, 2, 0})

	p.LY.Value = 0
	p.scanOAM()
	require.Equal(t, 2, p.numSprites)
	assert.Equal(t, uint8(20), p.sprites[0].x, "DMG sprites ordered by X")
	assert.Equal(t, uint8(40), p.sprites[1].x)
}

func TestPPUTallSpriteScan(t *testing.T) {
	p, _ := newTestPPU(hwdefs.DMG)
	p.LCDC.SetBit(lcdcOBJSize)

	copy(p.OAM.Data[0:], []uint8{16, 8, 0, 0})

	p.LY.Value = 12 // below an 8-pixel sprite, inside a 16-pixel one
	p.scanOAM()
	assert.Equal(t, 1, p.numSprites)

	p.LCDC.ClearBit(lcdcOBJSize)
	p.scanOAM()
	assert.Equal(t, 0, p.numSprites)
}

// writeLCDC mimics the mapped register write path: the value is stored
// before the callback runs.
func writeLCDC(p *PPU, val uint8) {
	old := p.LCDC.Value
	p.LCDC.Value = val
	p.WriteLCDC(old, val)
}

func TestPPUDisplayDisable(t *testing.T) {
	p, _ := newTestPPU(hwdefs.DMG)
	p.Advance(123)

	writeLCDC(p, 0x11) // display off
	assert.Equal(t, uint8(0), p.LY.Value)
	assert.Equal(t, ModeHBlank, p.CurrentMode())

	// No dots consumed while off.
	p.Advance(CyclesPerLine * NumScanlines)
	assert.Equal(t, uint8(0), p.LY.Value)
	assert.Nil(t, p.Frame())

	writeLCDC(p, 0x91)
	assert.Equal(t, ModeOAMScan, p.CurrentMode())
}

func TestPPUDisplayReenableSTATInterrupt(t *testing.T) {
	p, irq := newTestPPU(hwdefs.DMG)
	p.STAT.Value |= 1 << statIntOAM

	writeLCDC(p, 0x11)
	irq.IF.Value = 0

	writeLCDC(p, 0x91)
	assert.Equal(t, ModeOAMScan, p.CurrentMode())
	assert.NotZero(t, irq.IF.Value&hwdefs.IntStat.Mask(),
		"scan entry interrupt missing after re-enable")
}

func TestPPUVRAMBlockedDuringDrawing(t *testing.T) {
	p, _ := newTestPPU(hwdefs.DMG)
	p.VRAM.Data[0x123] = 0x42

	p.Advance(oamScanCycles) // now drawing
	require.Equal(t, ModeDrawing, p.CurrentMode())

	assert.Equal(t, uint8(0xFF), p.ReadVRAMPORT(0x8123), "blocked reads must return FF")
	p.WriteVRAMPORT(0x8123, 0x99)
	assert.Equal(t, uint8(0x42), p.VRAM.Data[0x123], "blocked writes must be dropped")

	// Peek bypasses the blocking, for the debugger.
	assert.Equal(t, uint8(0x42), p.PeekVRAMPORT(0x8123))

	p.Advance(300) // hblank
	assert.Equal(t, uint8(0x42), p.ReadVRAMPORT(0x8123))
}

func TestPPUCGBPaletteRAM(t *testing.T) {
	p, _ := newTestPPU(hwdefs.CGB)

	// Auto-increment writes through BCPS/BCPD.
	p.BCPS.Value = 0x80
	p.WriteBCPD(0, 0x1F) // palette 0 color 0 = pure red (low byte)
	p.WriteBCPD(0, 0x00)
	assert.Equal(t, uint8(0x82), p.BCPS.Value&0xBF, "index did not auto-increment")

	r, g, b := cgbColor(p.bgPalRAM[:], 0, 0)
	assert.Equal(t, uint8(0xFF), r)
	assert.Equal(t, uint8(0), g)
	assert.Equal(t, uint8(0), b)
}

func TestPPUVBKBanking(t *testing.T) {
	p, _ := newTestPPU(hwdefs.CGB)

	p.WriteVBK(0, 1)
	p.WriteVRAMPORT(0x8000, 0xAA)
	p.WriteVBK(1, 0)
	p.WriteVRAMPORT(0x8000, 0x55)

	assert.Equal(t, uint8(0xAA), p.VRAM.Data[0x2000])
	assert.Equal(t, uint8(0x55), p.VRAM.Data[0x0000])
	assert.Equal(t, uint8(0xFE), p.ReadVBK(0), "VBK upper bits read as 1")
}
