//go:build !debug

package hw

// opcodeAbort is a no-op in release builds: an undefined opcode jams the
// CPU, as on hardware.
func opcodeAbort(c *CPU, opcode uint8) {}
