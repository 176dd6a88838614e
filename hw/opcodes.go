package hw

// ops dispatches opcode execution. Each handler performs the whole
// instruction and returns its duration in T-cycles.
var ops [256]func(*CPU) int

// reg8 abstracts one operand slot of the regular opcode blocks: the seven
// 8-bit registers plus the memory cell at HL.
type reg8 struct {
	get func(*CPU) uint8
	set func(*CPU, uint8)
	mem bool // operand is (HL), access costs 4 extra cycles
}

// Operand order of the regular blocks: B C D E H L (HL) A.
var regs8 = [8]reg8{
	{get: func(c *CPU) uint8 { return c.B }, set: func(c *CPU, v uint8) { c.B = v }},
	{get: func(c *CPU) uint8 { return c.C }, set: func(c *CPU, v uint8) { c.C = v }},
	{get: func(c *CPU) uint8 { return c.D }, set: func(c *CPU, v uint8) { c.D = v }},
	{get: func(c *CPU) uint8 { return c.E }, set: func(c *CPU, v uint8) { c.E = v }},
	{get: func(c *CPU) uint8 { return c.H }, set: func(c *CPU, v uint8) { c.H = v }},
	{get: func(c *CPU) uint8 { return c.L }, set: func(c *CPU, v uint8) { c.L = v }},
	{
		get: func(c *CPU) uint8 { return c.mem.Read8(c.hl()) },
		set: func(c *CPU, v uint8) { c.mem.Write8(c.hl(), v) },
		mem: true,
	},
	{get: func(c *CPU) uint8 { return c.A }, set: func(c *CPU, v uint8) { c.A = v }},
}

// reg16 abstracts the BC DE HL SP operand of the 16-bit blocks.
type reg16 struct {
	get func(*CPU) uint16
	set func(*CPU, uint16)
}

var regs16 = [4]reg16{
	{get: (*CPU).bc, set: (*CPU).setBC},
	{get: (*CPU).de, set: (*CPU).setDE},
	{get: (*CPU).hl, set: (*CPU).setHL},
	{get: func(c *CPU) uint16 { return c.SP }, set: func(c *CPU, v uint16) { c.SP = v }},
}

// push/pop use AF in place of SP.
var regsPP = [4]reg16{
	{get: (*CPU).bc, set: (*CPU).setBC},
	{get: (*CPU).de, set: (*CPU).setDE},
	{get: (*CPU).hl, set: (*CPU).setHL},
	{get: (*CPU).af, set: (*CPU).setAF},
}

// Condition order of the conditional blocks: NZ Z NC C.
var conds = [4]func(*CPU) bool{
	func(c *CPU) bool { return !c.flag(FlagZ) },
	func(c *CPU) bool { return c.flag(FlagZ) },
	func(c *CPU) bool { return !c.flag(FlagC) },
	func(c *CPU) bool { return c.flag(FlagC) },
}

func init() {
	// LD r,r' block, 0x76 is HALT
	for dst := 0; dst < 8; dst++ {
		for src := 0; src < 8; src++ {
			if dst == 6 && src == 6 {
				continue
			}
			d, s := regs8[dst], regs8[src]
			cycles := 4
			if d.mem || s.mem {
				cycles = 8
			}
			ops[0x40+dst*8+src] = func(c *CPU) int {
				d.set(c, s.get(c))
				return cycles
			}
		}
	}
	ops[0x76] = opHALT

	// arithmetic/logic block: ADD ADC SUB SBC AND XOR OR CP against A
	aluOps := [8]func(*CPU, uint8){
		(*CPU).add, (*CPU).adc, (*CPU).sub, (*CPU).sbc,
		(*CPU).and, (*CPU).xor, (*CPU).or, (*CPU).cp,
	}
	for i, alu := range aluOps {
		for src := 0; src < 8; src++ {
			s, alu := regs8[src], alu
			cycles := 4
			if s.mem {
				cycles = 8
			}
			ops[0x80+i*8+src] = func(c *CPU) int {
				alu(c, s.get(c))
				return cycles
			}
		}
		// immediate variants: 0xC6 0xCE 0xD6 0xDE 0xE6 0xEE 0xF6 0xFE
		alu := alu
		ops[0xC6+i*8] = func(c *CPU) int {
			alu(c, c.fetch8())
			return 8
		}
	}

	// INC r, DEC r, LD r,d8
	for i := 0; i < 8; i++ {
		r := regs8[i]
		cycles, cyclesLD := 4, 8
		if r.mem {
			cycles, cyclesLD = 12, 12
		}
		ops[0x04+i*8] = func(c *CPU) int {
			r.set(c, c.inc(r.get(c)))
			return cycles
		}
		ops[0x05+i*8] = func(c *CPU) int {
			r.set(c, c.dec(r.get(c)))
			return cycles
		}
		ops[0x06+i*8] = func(c *CPU) int {
			r.set(c, c.fetch8())
			return cyclesLD
		}
	}

	// 16-bit blocks
	for i := 0; i < 4; i++ {
		rr, pp := regs16[i], regsPP[i]
		ops[0x01+i*16] = func(c *CPU) int { // LD rr,d16
			rr.set(c, c.fetch16())
			return 12
		}
		ops[0x03+i*16] = func(c *CPU) int { // INC rr
			rr.set(c, rr.get(c)+1)
			return 8
		}
		ops[0x0B+i*16] = func(c *CPU) int { // DEC rr
			rr.set(c, rr.get(c)-1)
			return 8
		}
		ops[0x09+i*16] = func(c *CPU) int { // ADD HL,rr
			c.addHL(rr.get(c))
			return 8
		}
		ops[0xC1+i*16] = func(c *CPU) int { // POP rr
			pp.set(c, c.pop16())
			return 12
		}
		ops[0xC5+i*16] = func(c *CPU) int { // PUSH rr
			c.push16(pp.get(c))
			return 16
		}
	}

	// conditional JR/JP/CALL/RET
	for i := 0; i < 4; i++ {
		cc := conds[i]
		ops[0x20+i*8] = func(c *CPU) int { // JR cc,r8
			off := int8(c.fetch8())
			if !cc(c) {
				return 8
			}
			c.PC += uint16(int16(off))
			return 12
		}
		ops[0xC2+i*8] = func(c *CPU) int { // JP cc,a16
			addr := c.fetch16()
			if !cc(c) {
				return 12
			}
			c.PC = addr
			return 16
		}
		ops[0xC4+i*8] = func(c *CPU) int { // CALL cc,a16
			addr := c.fetch16()
			if !cc(c) {
				return 12
			}
			c.push16(c.PC)
			c.PC = addr
			return 24
		}
		ops[0xC0+i*8] = func(c *CPU) int { // RET cc
			if !cc(c) {
				return 8
			}
			c.PC = c.pop16()
			return 20
		}
	}

	// RST
	for i := 0; i < 8; i++ {
		target := uint16(i * 8)
		ops[0xC7+i*8] = func(c *CPU) int {
			c.push16(c.PC)
			c.PC = target
			return 16
		}
	}

	singles := map[uint8]func(*CPU) int{
		0x00: func(c *CPU) int { return 4 }, // NOP
		0x10: opSTOP,

		0x02: func(c *CPU) int { c.mem.Write8(c.bc(), c.A); return 8 },           // LD (BC),A
		0x12: func(c *CPU) int { c.mem.Write8(c.de(), c.A); return 8 },           // LD (DE),A
		0x0A: func(c *CPU) int { c.A = c.mem.Read8(c.bc()); return 8 },           // LD A,(BC)
		0x1A: func(c *CPU) int { c.A = c.mem.Read8(c.de()); return 8 },           // LD A,(DE)
		0x22: func(c *CPU) int { hl := c.hl(); c.mem.Write8(hl, c.A); c.setHL(hl + 1); return 8 }, // LD (HL+),A
		0x32: func(c *CPU) int { hl := c.hl(); c.mem.Write8(hl, c.A); c.setHL(hl - 1); return 8 }, // LD (HL-),A
		0x2A: func(c *CPU) int { hl := c.hl(); c.A = c.mem.Read8(hl); c.setHL(hl + 1); return 8 }, // LD A,(HL+)
		0x3A: func(c *CPU) int { hl := c.hl(); c.A = c.mem.Read8(hl); c.setHL(hl - 1); return 8 }, // LD A,(HL-)

		0x08: func(c *CPU) int { c.write16(c.fetch16(), c.SP); return 20 }, // LD (a16),SP

		0x07: func(c *CPU) int { c.A = c.rlc(c.A); c.setFlag(FlagZ, false); return 4 }, // RLCA
		0x0F: func(c *CPU) int { c.A = c.rrc(c.A); c.setFlag(FlagZ, false); return 4 }, // RRCA
		0x17: func(c *CPU) int { c.A = c.rl(c.A); c.setFlag(FlagZ, false); return 4 },  // RLA
		0x1F: func(c *CPU) int { c.A = c.rr(c.A); c.setFlag(FlagZ, false); return 4 },  // RRA

		0x18: func(c *CPU) int { // JR r8
			off := int8(c.fetch8())
			c.PC += uint16(int16(off))
			return 12
		},

		0x27: opDAA,
		0x2F: func(c *CPU) int { // CPL
			c.A = ^c.A
			c.setFlag(FlagN, true)
			c.setFlag(FlagH, true)
			return 4
		},
		0x37: func(c *CPU) int { // SCF
			c.setFlag(FlagN, false)
			c.setFlag(FlagH, false)
			c.setFlag(FlagC, true)
			return 4
		},
		0x3F: func(c *CPU) int { // CCF
			c.setFlag(FlagN, false)
			c.setFlag(FlagH, false)
			c.setFlag(FlagC, !c.flag(FlagC))
			return 4
		},

		0xC3: func(c *CPU) int { c.PC = c.fetch16(); return 16 }, // JP a16
		0xE9: func(c *CPU) int { c.PC = c.hl(); return 4 },       // JP HL
		0xCD: func(c *CPU) int { // CALL a16
			addr := c.fetch16()
			c.push16(c.PC)
			c.PC = addr
			return 24
		},
		0xC9: func(c *CPU) int { c.PC = c.pop16(); return 16 }, // RET
		0xD9: func(c *CPU) int { // RETI
			c.PC = c.pop16()
			c.IME = true
			return 16
		},

		0xE0: func(c *CPU) int { c.mem.Write8(0xFF00+uint16(c.fetch8()), c.A); return 12 }, // LDH (a8),A
		0xF0: func(c *CPU) int { c.A = c.mem.Read8(0xFF00 + uint16(c.fetch8())); return 12 }, // LDH A,(a8)
		0xE2: func(c *CPU) int { c.mem.Write8(0xFF00+uint16(c.C), c.A); return 8 }, // LD (C),A
		0xF2: func(c *CPU) int { c.A = c.mem.Read8(0xFF00 + uint16(c.C)); return 8 }, // LD A,(C)
		0xEA: func(c *CPU) int { c.mem.Write8(c.fetch16(), c.A); return 16 }, // LD (a16),A
		0xFA: func(c *CPU) int { c.A = c.mem.Read8(c.fetch16()); return 16 }, // LD A,(a16)

		0xE8: func(c *CPU) int { // ADD SP,r8
			c.SP = c.addSPRel(int8(c.fetch8()))
			return 16
		},
		0xF8: func(c *CPU) int { // LD HL,SP+r8
			c.setHL(c.addSPRel(int8(c.fetch8())))
			return 12
		},
		0xF9: func(c *CPU) int { c.SP = c.hl(); return 8 }, // LD SP,HL

		0xF3: func(c *CPU) int { // DI
			c.IME = false
			c.imePending = false
			return 4
		},
		0xFB: func(c *CPU) int { // EI
			if !c.IME {
				c.imePending = true
			}
			return 4
		},

		0xCB: opCB,
	}
	for op, fn := range singles {
		ops[op] = fn
	}

	// undefined opcodes lock the CPU up
	for _, op := range []uint8{0xD3, 0xDB, 0xDD, 0xE3, 0xE4, 0xEB, 0xEC, 0xED, 0xF4, 0xFC, 0xFD} {
		op := op
		ops[op] = func(c *CPU) int {
			c.jam(op)
			return 4
		}
	}
}

func opHALT(c *CPU) int {
	if !c.IME && c.irq.Pending() != 0 {
		// the halt bug: the next opcode byte is fetched without
		// advancing PC, so it executes twice
		c.haltBug = true
	} else {
		c.halted = true
	}
	return 4
}

func opSTOP(c *CPU) int {
	c.fetch8() // padding byte

	if c.Model.IsCGB() && c.KEY1.GetBit(0) {
		// armed speed switch: toggle and clear the request
		if c.KEY1.GetBit(7) {
			c.KEY1.Value = 0x00
		} else {
			c.KEY1.Value = 0x80
		}
		return 4
	}

	// no speed switch armed: suspend execution like HALT, woken by the
	// next pending interrupt
	c.halted = true
	return 4
}

// opDAA adjusts A to valid binary-coded decimal after an addition or
// subtraction.
func opDAA(c *CPU) int {
	a := c.A
	if c.flag(FlagN) {
		if c.flag(FlagH) {
			a -= 0x06
		}
		if c.flag(FlagC) {
			a -= 0x60
		}
	} else {
		if c.flag(FlagH) || a&0x0F > 0x09 {
			if a > 0xFF-0x06 {
				c.setFlag(FlagC, true)
			}
			a += 0x06
		}
		if c.flag(FlagC) || a > 0x9F {
			a += 0x60
			c.setFlag(FlagC, true)
		}
	}
	c.A = a
	c.setZ(a)
	c.setFlag(FlagH, false)
	return 4
}

/* 8-bit arithmetic */

func (c *CPU) add(v uint8) {
	r := uint16(c.A) + uint16(v)
	c.setFlag(FlagH, c.A&0x0F+v&0x0F > 0x0F)
	c.setFlag(FlagC, r > 0xFF)
	c.setFlag(FlagN, false)
	c.A = uint8(r)
	c.setZ(c.A)
}

func (c *CPU) adc(v uint8) {
	carry := uint16(0)
	if c.flag(FlagC) {
		carry = 1
	}
	r := uint16(c.A) + uint16(v) + carry
	c.setFlag(FlagH, uint16(c.A&0x0F)+uint16(v&0x0F)+carry > 0x0F)
	c.setFlag(FlagC, r > 0xFF)
	c.setFlag(FlagN, false)
	c.A = uint8(r)
	c.setZ(c.A)
}

func (c *CPU) sub(v uint8) {
	r := c.A - v
	c.setFlag(FlagH, c.A&0x0F < v&0x0F)
	c.setFlag(FlagC, c.A < v)
	c.setFlag(FlagN, true)
	c.A = r
	c.setZ(r)
}

func (c *CPU) sbc(v uint8) {
	carry := uint8(0)
	if c.flag(FlagC) {
		carry = 1
	}
	r := uint16(c.A) - uint16(v) - uint16(carry)
	c.setFlag(FlagH, c.A&0x0F < v&0x0F+carry)
	c.setFlag(FlagC, r > 0xFF)
	c.setFlag(FlagN, true)
	c.A = uint8(r)
	c.setZ(c.A)
}

func (c *CPU) and(v uint8) {
	c.A &= v
	c.F = FlagH
	c.setZ(c.A)
}

func (c *CPU) xor(v uint8) {
	c.A ^= v
	c.F = 0
	c.setZ(c.A)
}

func (c *CPU) or(v uint8) {
	c.A |= v
	c.F = 0
	c.setZ(c.A)
}

func (c *CPU) cp(v uint8) {
	c.setFlag(FlagH, c.A&0x0F < v&0x0F)
	c.setFlag(FlagC, c.A < v)
	c.setFlag(FlagN, true)
	c.setZ(c.A - v)
}

func (c *CPU) inc(v uint8) uint8 {
	r := v + 1
	c.setFlag(FlagH, v&0x0F == 0x0F)
	c.setFlag(FlagN, false)
	c.setZ(r)
	return r
}

func (c *CPU) dec(v uint8) uint8 {
	r := v - 1
	c.setFlag(FlagH, v&0x0F == 0x00)
	c.setFlag(FlagN, true)
	c.setZ(r)
	return r
}

/* 16-bit arithmetic */

func (c *CPU) addHL(v uint16) {
	hl := c.hl()
	r := uint32(hl) + uint32(v)
	c.setFlag(FlagH, hl&0x0FFF+v&0x0FFF > 0x0FFF)
	c.setFlag(FlagC, r > 0xFFFF)
	c.setFlag(FlagN, false)
	c.setHL(uint16(r))
}

// addSPRel computes SP plus a signed offset. H and C come from the low byte
// addition, Z and N are always cleared.
func (c *CPU) addSPRel(off int8) uint16 {
	r := c.SP + uint16(int16(off))
	c.setFlag(FlagZ, false)
	c.setFlag(FlagN, false)
	c.setFlag(FlagH, c.SP&0x0F+uint16(off)&0x0F > 0x0F)
	c.setFlag(FlagC, c.SP&0xFF+uint16(off)&0xFF > 0xFF)
	return r
}

/* rotates, used both bare (RLCA family) and via the CB prefix */

func (c *CPU) rlc(v uint8) uint8 {
	r := v<<1 | v>>7
	c.F = 0
	c.setFlag(FlagC, v&0x80 != 0)
	c.setZ(r)
	return r
}

func (c *CPU) rrc(v uint8) uint8 {
	r := v>>1 | v<<7
	c.F = 0
	c.setFlag(FlagC, v&0x01 != 0)
	c.setZ(r)
	return r
}

func (c *CPU) rl(v uint8) uint8 {
	r := v << 1
	if c.flag(FlagC) {
		r |= 0x01
	}
	c.F = 0
	c.setFlag(FlagC, v&0x80 != 0)
	c.setZ(r)
	return r
}

func (c *CPU) rr(v uint8) uint8 {
	r := v >> 1
	if c.flag(FlagC) {
		r |= 0x80
	}
	c.F = 0
	c.setFlag(FlagC, v&0x01 != 0)
	c.setZ(r)
	return r
}
