package hw

import "sort"

type sprite struct {
	y, x, tile, attrs uint8
	oamIdx            uint8
	fetched           bool
}

// scanOAM selects the sprites visible on the current scanline, at most ten,
// in drawing priority order.
func (p *PPU) scanOAM() {
	h := uint8(8)
	if p.LCDC.GetBit(lcdcOBJSize) {
		h = 16
	}

	ly := p.LY.Value + 16
	n := 0
	for i := 0; i < 40 && n < len(p.sprites); i++ {
		y := p.OAM.Data[i*4]
		x := p.OAM.Data[i*4+1]
		if x == 0 || ly < y || ly >= y+h {
			continue
		}
		p.sprites[n] = sprite{
			y:      y,
			x:      x,
			tile:   p.OAM.Data[i*4+2],
			attrs:  p.OAM.Data[i*4+3],
			oamIdx: uint8(i),
		}
		n++
	}
	p.numSprites = n

	// DMG orders overlapping sprites by X coordinate, OAM index breaking
	// ties. CGB uses plain OAM order unless OPRI selects the DMG rule.
	if !p.Model.IsCGB() || p.OPRI.GetBit(0) {
		sort.SliceStable(p.sprites[:n], func(i, j int) bool {
			return p.sprites[i].x < p.sprites[j].x
		})
	}
}
