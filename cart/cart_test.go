package cart

import (
	"bytes"
	"testing"
)

// buildImage returns a minimal valid 32K image with the given title and
// header bytes patched in.
func buildImage(patch map[int]byte) []byte {
	img := make([]byte, 0x8000)
	copy(img[0x134:], "TESTROM")
	for off, val := range patch {
		img[off] = val
	}

	var sum uint8
	for _, b := range img[0x134:0x14D] {
		sum = sum - b - 1
	}
	img[0x14D] = sum
	return img
}

func TestHeaderDecode(t *testing.T) {
	img := buildImage(map[int]byte{
		0x143: 0x80, // CGB enhanced
		0x147: 0x00, // ROM only
		0x148: 0x00, // 32K
		0x149: 0x02, // 8K RAM
	})

	var rom Rom
	if _, err := rom.ReadFrom(bytes.NewReader(img)); err != nil {
		t.Fatal(err)
	}

	if got := rom.Title(); got != "TESTROM" {
		t.Errorf("Title() = %q, want %q", got, "TESTROM")
	}
	if !rom.CGB() {
		t.Error("CGB() = false, want true")
	}
	if rom.CGBOnly() {
		t.Error("CGBOnly() = true, want false")
	}
	if got := rom.ROMSize(); got != 0x8000 {
		t.Errorf("ROMSize() = %d, want %d", got, 0x8000)
	}
	if got := rom.RAMSize(); got != 0x2000 {
		t.Errorf("RAMSize() = %d, want %d", got, 0x2000)
	}
}

func TestHeaderChecksumMismatch(t *testing.T) {
	img := buildImage(nil)
	img[0x14D] ^= 0xFF

	var rom Rom
	if _, err := rom.ReadFrom(bytes.NewReader(img)); err == nil {
		t.Fatal("ReadFrom succeeded on corrupt header, want error")
	}
}

func TestImageTooSmall(t *testing.T) {
	var rom Rom
	if _, err := rom.ReadFrom(bytes.NewReader(make([]byte, 0x100))); err == nil {
		t.Fatal("ReadFrom succeeded on truncated image, want error")
	}
}

func TestFlatReads(t *testing.T) {
	img := buildImage(map[int]byte{0x149: 0x02})
	img[0x1234] = 0xAB

	var rom Rom
	if _, err := rom.ReadFrom(bytes.NewReader(img)); err != nil {
		t.Fatal(err)
	}

	if got := rom.Read8(0x1234); got != 0xAB {
		t.Errorf("Read8(0x1234) = %02x, want ab", got)
	}

	// ROM writes are ignored on a flat cartridge.
	rom.Write8(0x1234, 0x55)
	if got := rom.Read8(0x1234); got != 0xAB {
		t.Errorf("Read8(0x1234) after ROM write = %02x, want ab", got)
	}

	// External RAM is read-write.
	rom.Write8(0xA010, 0x77)
	if got := rom.Read8(0xA010); got != 0x77 {
		t.Errorf("Read8(0xA010) = %02x, want 77", got)
	}
}
