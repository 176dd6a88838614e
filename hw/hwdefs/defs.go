package hwdefs

import "strings"

// IntSource identifies one of the five interrupt lines, in priority order
// (VBlank highest). The value is the bit index in the IF/IE registers.
type IntSource uint8

const (
	IntVBlank IntSource = iota
	IntStat
	IntTimer
	IntSerial
	IntJoypad

	NumIntSources
)

var intSrcNames = [NumIntSources]string{
	"vblank",
	"stat",
	"timer",
	"serial",
	"joypad",
}

func (src IntSource) String() string {
	if src < NumIntSources {
		return intSrcNames[src]
	}
	return "<invalid>"
}

// Mask returns the IF/IE bit for the source.
func (src IntSource) Mask() uint8 {
	return 1 << src
}

// IntMask is a combination of interrupt source bits.
type IntMask uint8

func (m IntMask) String() string {
	var names []string
	for src := IntVBlank; src < NumIntSources; src++ {
		if uint8(m)&src.Mask() != 0 {
			names = append(names, src.String())
		}
	}
	return strings.Join(names, "|")
}

// Model selects the emulated machine variant.
type Model uint8

const (
	DMG Model = iota // original monochrome Game Boy
	CGB              // Game Boy Color
)

func (m Model) String() string {
	if m == CGB {
		return "cgb"
	}
	return "dmg"
}

// Interrupt vector addresses, in priority order.
const (
	VBlankVector uint16 = 0x0040
	StatVector   uint16 = 0x0048
	TimerVector  uint16 = 0x0050
	SerialVector uint16 = 0x0058
	JoypadVector uint16 = 0x0060
)

// IsCGB reports whether the model has the color hardware.
func (m Model) IsCGB() bool {
	return m == CGB
}
