package hw

import (
	"fmt"
	"io"
)

// cpuState stores the CPU state for the execution trace.
type cpuState struct {
	A, F uint8
	B, C uint8
	D, E uint8
	H, L uint8
	SP   uint16
	PC   uint16

	Clock int64
}

type tracer struct {
	w io.Writer
}

func newTracer(w io.Writer) *tracer {
	return &tracer{w: w}
}

func hexEncode(dst []byte, v byte) {
	const hextable = "0123456789ABCDEF"
	dst[0] = hextable[v>>4]
	dst[1] = hextable[v&0x0f]
}

// write emits one line of execution trace, one per instruction, with the
// full register file before the instruction executes.
func (t *tracer) write(state cpuState) {
	const totalLen = 64
	buf := make([]byte, 0, totalLen+24)

	reg8 := func(name byte, v uint8) {
		var tmp [2]byte
		hexEncode(tmp[:], v)
		buf = append(buf, name, ':', tmp[0], tmp[1], ' ')
	}
	reg16 := func(name string, v uint16) {
		var tmp [4]byte
		hexEncode(tmp[0:], byte(v>>8))
		hexEncode(tmp[2:], byte(v))
		buf = append(buf, name...)
		buf = append(buf, ':', tmp[0], tmp[1], tmp[2], tmp[3], ' ')
	}

	reg8('A', state.A)
	reg8('F', state.F)
	reg8('B', state.B)
	reg8('C', state.C)
	reg8('D', state.D)
	reg8('E', state.E)
	reg8('H', state.H)
	reg8('L', state.L)
	reg16("SP", state.SP)
	reg16("PC", state.PC)

	buf = fmt.Appendf(buf, "CY:%d\n", state.Clock)
	t.w.Write(buf)
}
