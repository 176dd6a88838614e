package hw

// The four monochrome shades, from lightest to darkest, rendered with the
// green tint of the original LCD.
var dmgShades = [4][3]uint8{
	{0xE0, 0xF8, 0xD0},
	{0x88, 0xC0, 0x70},
	{0x34, 0x68, 0x56},
	{0x08, 0x18, 0x20},
}

func (p *PPU) bgColor(px pixel) (r, g, b uint8) {
	if p.Model.IsCGB() {
		return cgbColor(p.bgPalRAM[:], px.palette, px.color)
	}
	shade := p.BGP.Value >> (2 * px.color) & 3
	return dmgShades[shade][0], dmgShades[shade][1], dmgShades[shade][2]
}

func (p *PPU) objColor(px pixel) (r, g, b uint8) {
	if p.Model.IsCGB() {
		return cgbColor(p.objPalRAM[:], px.palette, px.color)
	}
	obp := p.OBP0.Value
	if px.palette != 0 {
		obp = p.OBP1.Value
	}
	shade := obp >> (2 * px.color) & 3
	return dmgShades[shade][0], dmgShades[shade][1], dmgShades[shade][2]
}

// cgbColor decodes a 15-bit RGB entry from palette RAM, expanding each
// channel to 8 bits.
func cgbColor(palRAM []uint8, pal, color uint8) (r, g, b uint8) {
	off := int(pal)*8 + int(color)*2
	raw := uint16(palRAM[off]) | uint16(palRAM[off+1])<<8
	r = expand5(uint8(raw & 0x1F))
	g = expand5(uint8(raw >> 5 & 0x1F))
	b = expand5(uint8(raw >> 10 & 0x1F))
	return
}

func expand5(c uint8) uint8 {
	return c<<3 | c>>2
}
