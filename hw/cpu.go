package hw

import (
	"io"

	"dmgo/emu/log"
	"dmgo/hw/hwdefs"
	"dmgo/hw/hwio"
)

// Memory is the CPU's view of the address space. *Bus implements it; tests
// substitute flat RAM.
type Memory interface {
	Read8(addr uint16) uint8
	Write8(addr uint16, val uint8)
}

// Flag bits of the F register. The low nibble always reads zero.
const (
	FlagC uint8 = 1 << 4
	FlagH uint8 = 1 << 5
	FlagN uint8 = 1 << 6
	FlagZ uint8 = 1 << 7
)

// Interrupt dispatch cost in T-cycles.
const intDispatchCycles = 20

type CPU struct {
	mem Memory
	irq *IRQ

	Model hwdefs.Model

	// Non-nil when execution tracing is enabled.
	tracer *tracer

	A, F uint8
	B, C uint8
	D, E uint8
	H, L uint8
	SP   uint16
	PC   uint16

	IME bool
	// set by EI, the interrupt enable is deferred until after the next
	// instruction completes
	imePending bool

	halted  bool
	haltBug bool
	jammed  bool

	// CGB speed switch. Bit 7 is the current speed, bit 0 the armed request.
	KEY1 hwio.Reg8 `hwio:"offset=0x0,rcb,rwmask=0x01"`

	Cycles int64 // total T-cycles, in current-speed units
}

func NewCPU(mem Memory, irq *IRQ, model hwdefs.Model) *CPU {
	cpu := &CPU{
		mem:   mem,
		irq:   irq,
		Model: model,
	}
	hwio.MustInitRegs(cpu)
	cpu.Reset()
	return cpu
}

// Reset restores the post-bootrom register file for the model.
func (c *CPU) Reset() {
	if c.Model.IsCGB() {
		c.A, c.F = 0x11, 0x80
		c.B, c.C = 0x00, 0x00
		c.D, c.E = 0xFF, 0x56
		c.H, c.L = 0x00, 0x0D
	} else {
		c.A, c.F = 0x01, 0xB0
		c.B, c.C = 0x00, 0x13
		c.D, c.E = 0x00, 0xD8
		c.H, c.L = 0x01, 0x4D
	}
	c.SP = 0xFFFE
	c.PC = 0x0100
	c.IME = false
	c.imePending = false
	c.halted = false
	c.haltBug = false
	c.jammed = false
	c.KEY1.Value = 0x00
	c.Cycles = 0
}

// StartFromBoot rewinds execution to the boot ROM entry point.
func (c *CPU) StartFromBoot() {
	c.PC = 0x0000
	c.SP = 0x0000
	c.A, c.F, c.B, c.C, c.D, c.E, c.H, c.L = 0, 0, 0, 0, 0, 0, 0, 0
}

func (c *CPU) Jammed() bool   { return c.jammed }
func (c *CPU) IsHalted() bool { return c.halted }

// DoubleSpeed reports whether the CGB 2x clock is active.
func (c *CPU) DoubleSpeed() bool {
	return c.KEY1.GetBit(7)
}

func (c *CPU) ReadKEY1(val uint8) uint8 {
	if !c.Model.IsCGB() {
		return 0xFF
	}
	return 0x7E | val
}

// Step services pending interrupts then executes a single instruction,
// returning the elapsed T-cycles.
func (c *CPU) Step() int {
	if c.jammed {
		c.Cycles += 4
		return 4
	}

	if pending := c.irq.Pending(); pending != 0 {
		c.halted = false
		if c.IME {
			return c.dispatchInterrupt()
		}
	}

	if c.halted {
		c.Cycles += 4
		return 4
	}

	// EI from the previous instruction takes effect now, after the
	// interrupt check, so the next instruction still runs before dispatch
	if c.imePending {
		c.imePending = false
		c.IME = true
	}

	c.traceOp()

	opcode := c.mem.Read8(c.PC)
	if c.haltBug {
		c.haltBug = false
	} else {
		c.PC++
	}

	cycles := ops[opcode](c)
	c.Cycles += int64(cycles)
	return cycles
}

func (c *CPU) dispatchInterrupt() int {
	src := c.irq.Next()
	c.irq.Acknowledge(src)
	c.IME = false

	c.push16(c.PC)
	c.PC = intVector(src)

	log.ModCPU.DebugZ("interrupt dispatch").
		Stringer("src", src).
		Hex16("vector", c.PC).
		End()

	c.Cycles += intDispatchCycles
	return intDispatchCycles
}

func intVector(src hwdefs.IntSource) uint16 {
	return hwdefs.VBlankVector + uint16(src)*8
}

// jam puts the CPU into the locked-up state caused by an undefined opcode.
// In debug builds this panics instead (see opcodeAbort).
func (c *CPU) jam(opcode uint8) {
	opcodeAbort(c, opcode)
	c.jammed = true
	log.ModCPU.ErrorZ("undefined opcode, cpu jammed").
		Hex8("opcode", opcode).
		Hex16("PC", c.PC-1).
		End()
}

/* memory helpers */

func (c *CPU) fetch8() uint8 {
	v := c.mem.Read8(c.PC)
	c.PC++
	return v
}

func (c *CPU) fetch16() uint16 {
	lo := c.fetch8()
	hi := c.fetch8()
	return uint16(hi)<<8 | uint16(lo)
}

func (c *CPU) read16(addr uint16) uint16 {
	lo := c.mem.Read8(addr)
	hi := c.mem.Read8(addr + 1)
	return uint16(hi)<<8 | uint16(lo)
}

func (c *CPU) write16(addr uint16, val uint16) {
	c.mem.Write8(addr, uint8(val))
	c.mem.Write8(addr+1, uint8(val>>8))
}

func (c *CPU) push8(val uint8) {
	c.SP--
	c.mem.Write8(c.SP, val)
}

func (c *CPU) push16(val uint16) {
	c.push8(uint8(val >> 8))
	c.push8(uint8(val))
}

func (c *CPU) pop8() uint8 {
	v := c.mem.Read8(c.SP)
	c.SP++
	return v
}

func (c *CPU) pop16() uint16 {
	lo := c.pop8()
	hi := c.pop8()
	return uint16(hi)<<8 | uint16(lo)
}

/* register pairs */

func (c *CPU) af() uint16 { return uint16(c.A)<<8 | uint16(c.F) }
func (c *CPU) bc() uint16 { return uint16(c.B)<<8 | uint16(c.C) }
func (c *CPU) de() uint16 { return uint16(c.D)<<8 | uint16(c.E) }
func (c *CPU) hl() uint16 { return uint16(c.H)<<8 | uint16(c.L) }

func (c *CPU) setAF(v uint16) { c.A = uint8(v >> 8); c.F = uint8(v) & 0xF0 }
func (c *CPU) setBC(v uint16) { c.B = uint8(v >> 8); c.C = uint8(v) }
func (c *CPU) setDE(v uint16) { c.D = uint8(v >> 8); c.E = uint8(v) }
func (c *CPU) setHL(v uint16) { c.H = uint8(v >> 8); c.L = uint8(v) }

/* flags */

func (c *CPU) flag(mask uint8) bool {
	return c.F&mask != 0
}

func (c *CPU) setFlag(mask uint8, set bool) {
	if set {
		c.F |= mask
	} else {
		c.F &^= mask
	}
}

func (c *CPU) setZ(v uint8) {
	c.setFlag(FlagZ, v == 0)
}

/* tracing */

func (c *CPU) SetTraceOutput(w io.Writer) {
	c.tracer = newTracer(w)
}

func (c *CPU) traceOp() {
	if c.tracer == nil {
		return
	}
	c.tracer.write(cpuState{
		A: c.A, F: c.F,
		B: c.B, C: c.C,
		D: c.D, E: c.E,
		H: c.H, L: c.L,
		SP:    c.SP,
		PC:    c.PC,
		Clock: c.Cycles,
	})
}
