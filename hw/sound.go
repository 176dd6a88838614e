package hw

// AudioDevice is the sound collaborator: the bus forwards every access to
// the FF10-FF3F register range to it verbatim, addresses absolute.
type AudioDevice interface {
	Read8(addr uint16) uint8
	Write8(addr uint16, val uint8)
}

// NullAudio is a machine with no sound hardware attached: registers read
// back 0xFF and writes vanish.
type NullAudio struct{}

func (NullAudio) Read8(addr uint16) uint8       { return 0xFF }
func (NullAudio) Write8(addr uint16, val uint8) {}
