package hw

import (
	"testing"

	"dmgo/hw/hwdefs"
)

// stubInput is an InputSource whose pressed set the test mutates directly.
type stubInput struct {
	pressed uint8
}

func (s *stubInput) Pressed() uint8 { return s.pressed }

func newTestJoypad() (*Joypad, *stubInput, *IRQ) {
	irq := NewIRQ()
	irq.Reset()
	src := &stubInput{}
	return NewJoypad(irq, src), src, irq
}

func TestJoypadNothingSelected(t *testing.T) {
	j, src, _ := newTestJoypad()
	src.pressed = BtnA | BtnDown

	j.P1.Value = 0x30 // both groups deselected
	if got := j.ReadP1(j.P1.Value); got != 0xFF {
		t.Errorf("P1 = %02x with no group selected, want FF", got)
	}
}

func TestJoypadDirections(t *testing.T) {
	j, src, _ := newTestJoypad()
	src.pressed = BtnRight | BtnUp | BtnA // A is in the other group

	j.P1.Value = 0x20 // bit 4 low selects directions
	got := j.ReadP1(j.P1.Value)
	if want := uint8(0xC0 | 0x20 | 0x0A); got != want {
		t.Errorf("P1 = %02x, want %02x", got, want)
	}
}

func TestJoypadButtons(t *testing.T) {
	j, src, _ := newTestJoypad()
	src.pressed = BtnStart | BtnB | BtnLeft // Left is in the other group

	j.P1.Value = 0x10 // bit 5 low selects buttons
	got := j.ReadP1(j.P1.Value)
	if want := uint8(0xC0 | 0x10 | 0x05); got != want {
		t.Errorf("P1 = %02x, want %02x", got, want)
	}
}

func TestJoypadBothGroups(t *testing.T) {
	j, src, _ := newTestJoypad()
	src.pressed = BtnRight | BtnA // same line, both groups

	j.P1.Value = 0x00
	got := j.ReadP1(j.P1.Value)
	if want := uint8(0xC0 | 0x0E); got != want {
		t.Errorf("P1 = %02x, want %02x", got, want)
	}
}

func TestJoypadInterruptOnPress(t *testing.T) {
	j, src, irq := newTestJoypad()
	irq.IF.Value = 0

	j.P1.Value = 0x10 // buttons selected
	j.Poll()
	if irq.IF.Value&hwdefs.IntJoypad.Mask() != 0 {
		t.Fatal("interrupt requested with nothing pressed")
	}

	src.pressed = BtnA
	j.Poll()
	if irq.IF.Value&hwdefs.IntJoypad.Mask() == 0 {
		t.Error("no interrupt on a falling input line")
	}

	// holding the button is not a new edge
	irq.IF.Value = 0
	j.Poll()
	if irq.IF.Value&hwdefs.IntJoypad.Mask() != 0 {
		t.Error("interrupt requested without a new edge")
	}

	// releasing is not an edge either
	src.pressed = 0
	j.Poll()
	if irq.IF.Value&hwdefs.IntJoypad.Mask() != 0 {
		t.Error("interrupt requested on release")
	}
}

func TestJoypadDeselectedGroupNoInterrupt(t *testing.T) {
	j, src, irq := newTestJoypad()
	irq.IF.Value = 0

	j.P1.Value = 0x20 // directions selected, buttons not
	j.Poll()
	src.pressed = BtnA
	j.Poll()
	if irq.IF.Value&hwdefs.IntJoypad.Mask() != 0 {
		t.Error("interrupt requested from a deselected group")
	}
}
