package hw

import (
	"io"

	"dmgo/emu/log"
	"dmgo/hw/hwdefs"
	"dmgo/hw/hwio"
)

// A LinkPort is the other end of the serial cable: it receives the byte
// shifted out and returns the byte shifted in.
type LinkPort interface {
	Exchange(out uint8) uint8
}

// NullLink is a disconnected cable: the input line reads high.
type NullLink struct{}

func (NullLink) Exchange(out uint8) uint8 { return 0xFF }

// LoopbackLink echoes every byte back, useful in tests.
type LoopbackLink struct{}

func (LoopbackLink) Exchange(out uint8) uint8 { return out }

// A transfer clocked internally shifts 8 bits at 8192Hz.
const serialTransferCycles = 4096

// Serial implements the SB/SC link cable registers. Only internally clocked
// transfers make progress; with an external clock and no partner driving the
// line, a started transfer never completes, as on hardware.
type Serial struct {
	irq  *IRQ
	port LinkPort

	SB hwio.Reg8 `hwio:"offset=0x0"`
	SC hwio.Reg8 `hwio:"offset=0x1,rcb,wcb"`

	countdown int

	// when set, every transferred byte is also written here (test ROMs
	// report their results over the link)
	capture io.Writer
}

func NewSerial(irq *IRQ, port LinkPort) *Serial {
	if port == nil {
		port = NullLink{}
	}
	s := &Serial{irq: irq, port: port}
	hwio.MustInitRegs(s)
	s.Reset()
	return s
}

func (s *Serial) Reset() {
	s.SB.Value = 0x00
	s.SC.Value = 0x7E
	s.countdown = 0
}

// SetCapture mirrors transferred bytes to w.
func (s *Serial) SetCapture(w io.Writer) {
	s.capture = w
}

func (s *Serial) ReadSC(val uint8) uint8 {
	return 0x7E | val
}

func (s *Serial) WriteSC(old, val uint8) {
	s.SC.Value = val & 0x81
	if val&0x80 == 0 {
		s.countdown = 0
		return
	}
	if val&0x01 != 0 {
		s.countdown = serialTransferCycles
		log.ModSerial.DebugZ("transfer start").Hex8("out", s.SB.Value).End()
	}
}

// Advance progresses an in-flight transfer.
func (s *Serial) Advance(cycles int) {
	if s.countdown == 0 {
		return
	}
	s.countdown -= cycles
	if s.countdown > 0 {
		return
	}
	s.countdown = 0

	out := s.SB.Value
	s.SB.Value = s.port.Exchange(out)
	s.SC.ClearBit(7)
	s.irq.Request(hwdefs.IntSerial)

	if s.capture != nil {
		s.capture.Write([]byte{out})
	}
}
