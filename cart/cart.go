// Package cart implements a reader for Game Boy cartridge images and the
// raw read/write contract the core uses to reach them. Bank-controller
// (MBC) semantics belong to implementations of the Cartridge interface;
// the core never interprets them.
package cart

import (
	"fmt"
	"io"
	"os"
)

// Cartridge is the bus-facing contract: byte accesses in 0x0000-0x7FFF
// (ROM) and 0xA000-0xBFFF (external RAM) are forwarded here verbatim.
type Cartridge interface {
	Read8(addr uint16) uint8
	Write8(addr uint16, val uint8)
}

type Rom struct {
	Header
	Data []byte // full ROM image
	ram  []byte // external RAM, if the header declares any
}

// Open loads a rom from file.
func Open(path string) (*Rom, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	rom := new(Rom)
	if _, err := rom.ReadFrom(f); err != nil {
		return nil, err
	}
	return rom, nil
}

// ReadFrom implements the io.ReaderFrom interface.
func (rom *Rom) ReadFrom(r io.Reader) (int64, error) {
	buf, err := io.ReadAll(r)
	if err != nil {
		return 0, err
	}

	if err := rom.Header.decode(buf); err != nil {
		return 0, fmt.Errorf("failed to decode header: %w", err)
	}

	rom.Data = buf
	if sz := rom.RAMSize(); sz > 0 {
		rom.ram = make([]byte, sz)
	}
	return int64(len(buf)), nil
}

// Read8 implements the flat (no bank controller) cartridge mapping. Reads
// past the end of the image return 0xFF, like a disconnected bus line.
func (rom *Rom) Read8(addr uint16) uint8 {
	switch {
	case addr < 0x8000:
		if int(addr) < len(rom.Data) {
			return rom.Data[addr]
		}
		return 0xFF
	case addr >= 0xA000 && addr < 0xC000:
		off := int(addr - 0xA000)
		if off < len(rom.ram) {
			return rom.ram[off]
		}
		return 0xFF
	}
	return 0xFF
}

func (rom *Rom) Write8(addr uint16, val uint8) {
	if addr >= 0xA000 && addr < 0xC000 {
		off := int(addr - 0xA000)
		if off < len(rom.ram) {
			rom.ram[off] = val
		}
	}
	// ROM range writes would address a bank controller; a flat cartridge
	// has none, so they are ignored.
}

// Header is the 80-byte cartridge header at 0x100-0x14F.
type Header struct {
	raw [0x50]byte
}

const headerEnd = 0x150

func (hdr *Header) decode(p []byte) error {
	if len(p) < headerEnd {
		return fmt.Errorf("image too small: %d bytes, needs at least %d", len(p), headerEnd)
	}
	copy(hdr.raw[:], p[0x100:headerEnd])

	if sum := headerChecksum(hdr.raw[:]); sum != hdr.Checksum() {
		return fmt.Errorf("header checksum mismatch: computed %02x, stored %02x", sum, hdr.Checksum())
	}
	return nil
}

// headerChecksum computes the checksum over 0x134-0x14C as the boot code
// verifies it.
func headerChecksum(raw []byte) uint8 {
	var sum uint8
	for _, b := range raw[0x34:0x4D] {
		sum = sum - b - 1
	}
	return sum
}

// Title returns the game title, up to 16 ASCII characters.
func (hdr *Header) Title() string {
	title := hdr.raw[0x34:0x44]
	n := 0
	for n < len(title) && title[n] >= 0x20 && title[n] < 0x7F {
		n++
	}
	return string(title[:n])
}

// CGB reports whether the game declares Game Boy Color support (0x80:
// enhanced, 0xC0: color only).
func (hdr *Header) CGB() bool {
	flag := hdr.raw[0x43]
	return flag == 0x80 || flag == 0xC0
}

// CGBOnly reports whether the game requires a Game Boy Color.
func (hdr *Header) CGBOnly() bool {
	return hdr.raw[0x43] == 0xC0
}

// Type returns the cartridge type code (0x00: ROM only, 0x01-0x03: MBC1,
// etc.). The core does not interpret it beyond reporting.
func (hdr *Header) Type() uint8 {
	return hdr.raw[0x47]
}

// ROMSize returns the ROM size in bytes declared by the header.
func (hdr *Header) ROMSize() int {
	code := hdr.raw[0x48]
	if code > 0x08 {
		return 0
	}
	return 0x8000 << code
}

// RAMSize returns the external RAM size in bytes declared by the header.
func (hdr *Header) RAMSize() int {
	switch hdr.raw[0x49] {
	case 0x02:
		return 0x2000
	case 0x03:
		return 0x8000
	case 0x04:
		return 0x20000
	case 0x05:
		return 0x10000
	default:
		return 0
	}
}

func (hdr *Header) Checksum() uint8 {
	return hdr.raw[0x4D]
}

func (hdr *Header) String() string {
	model := "DMG"
	if hdr.CGBOnly() {
		model = "CGB only"
	} else if hdr.CGB() {
		model = "DMG/CGB"
	}
	return fmt.Sprintf("%s [type=%02x rom=%dK ram=%dK %s]",
		hdr.Title(), hdr.Type(), hdr.ROMSize()/1024, hdr.RAMSize()/1024, model)
}
