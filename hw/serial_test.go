package hw

import (
	"bytes"
	"testing"

	"dmgo/hw/hwdefs"
)

func newTestSerial(port LinkPort) (*Serial, *IRQ) {
	irq := NewIRQ()
	irq.Reset()
	irq.IF.Value = 0
	return NewSerial(irq, port), irq
}

func TestSerialInternalClock(t *testing.T) {
	s, irq := newTestSerial(LoopbackLink{})

	s.SB.Value = 0x42
	s.WriteSC(0, 0x81)

	s.Advance(serialTransferCycles - 1)
	if irq.IF.Value&hwdefs.IntSerial.Mask() != 0 {
		t.Fatal("transfer completed early")
	}
	if !s.SC.GetBit(7) {
		t.Fatal("SC bit 7 cleared before the transfer completed")
	}

	s.Advance(1)
	if irq.IF.Value&hwdefs.IntSerial.Mask() == 0 {
		t.Error("no serial interrupt on completion")
	}
	if s.SC.GetBit(7) {
		t.Error("SC bit 7 still set after completion")
	}
	if s.SB.Value != 0x42 {
		t.Errorf("SB = %02x after loopback, want 42", s.SB.Value)
	}
}

func TestSerialDisconnected(t *testing.T) {
	s, _ := newTestSerial(nil)

	s.SB.Value = 0x42
	s.WriteSC(0, 0x81)
	s.Advance(serialTransferCycles)

	// the input line reads high with no cable attached
	if s.SB.Value != 0xFF {
		t.Errorf("SB = %02x with no link, want FF", s.SB.Value)
	}
}

func TestSerialExternalClockNeverCompletes(t *testing.T) {
	s, irq := newTestSerial(LoopbackLink{})

	s.WriteSC(0, 0x80) // external clock, nobody driving it
	s.Advance(serialTransferCycles * 4)
	if irq.IF.Value&hwdefs.IntSerial.Mask() != 0 {
		t.Error("externally clocked transfer completed on its own")
	}
	if !s.SC.GetBit(7) {
		t.Error("SC bit 7 cleared without a completed transfer")
	}
}

func TestSerialCapture(t *testing.T) {
	s, _ := newTestSerial(nil)
	var buf bytes.Buffer
	s.SetCapture(&buf)

	for _, b := range []byte("ok") {
		s.SB.Value = b
		s.WriteSC(0, 0x81)
		s.Advance(serialTransferCycles)
	}
	if got := buf.String(); got != "ok" {
		t.Errorf("captured %q, want %q", got, "ok")
	}
}

func TestSerialSCReadMask(t *testing.T) {
	s, _ := newTestSerial(nil)
	if got := s.ReadSC(0x00); got != 0x7E {
		t.Errorf("SC = %02x, want 7E", got)
	}
	if got := s.ReadSC(0x81); got != 0xFF {
		t.Errorf("SC = %02x, want FF", got)
	}
}
