package hw

// opCB decodes and executes the 0xCB-prefixed opcode set. The whole set is
// regular: the low 3 bits select the operand, the rest the operation.
func opCB(c *CPU) int {
	sub := c.fetch8()
	r := regs8[sub&0x07]
	bit := uint(sub >> 3 & 0x07)

	switch sub >> 6 {
	case 0: // rotates and shifts
		v := r.get(c)
		switch sub >> 3 {
		case 0:
			v = c.rlc(v)
		case 1:
			v = c.rrc(v)
		case 2:
			v = c.rl(v)
		case 3:
			v = c.rr(v)
		case 4:
			v = c.sla(v)
		case 5:
			v = c.sra(v)
		case 6:
			v = c.swap(v)
		case 7:
			v = c.srl(v)
		}
		r.set(c, v)
	case 1: // BIT b,r
		c.setFlag(FlagN, false)
		c.setFlag(FlagH, true)
		c.setZ(r.get(c) & (1 << bit))
		if r.mem {
			return 12
		}
		return 8
	case 2: // RES b,r
		r.set(c, r.get(c)&^(1<<bit))
	case 3: // SET b,r
		r.set(c, r.get(c)|1<<bit)
	}

	if r.mem {
		return 16
	}
	return 8
}

func (c *CPU) sla(v uint8) uint8 {
	r := v << 1
	c.F = 0
	c.setFlag(FlagC, v&0x80 != 0)
	c.setZ(r)
	return r
}

func (c *CPU) sra(v uint8) uint8 {
	r := v>>1 | v&0x80
	c.F = 0
	c.setFlag(FlagC, v&0x01 != 0)
	c.setZ(r)
	return r
}

func (c *CPU) srl(v uint8) uint8 {
	r := v >> 1
	c.F = 0
	c.setFlag(FlagC, v&0x01 != 0)
	c.setZ(r)
	return r
}

func (c *CPU) swap(v uint8) uint8 {
	r := v<<4 | v>>4
	c.F = 0
	c.setZ(r)
	return r
}
