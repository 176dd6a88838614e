//go:build debug

package hw

import "fmt"

// opcodeAbort, in debug builds, turns an undefined opcode into a panic so
// that broken code paths surface immediately instead of silently jamming.
func opcodeAbort(c *CPU, opcode uint8) {
	panic(fmt.Sprintf("undefined opcode %02X at PC=%04X", opcode, c.PC-1))
}
