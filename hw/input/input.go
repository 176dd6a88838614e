package input

import "github.com/veandco/go-sdl2/sdl"

// A Button identifies one of the eight joypad buttons. The ordinal is the
// bit assigned to the button in the pressed-set, directions low.
type Button byte

const (
	BtnRight Button = iota
	BtnLeft
	BtnUp
	BtnDown
	BtnA
	BtnB
	BtnSelect
	BtnStart

	ButtonCount
)

func (b Button) String() string {
	var buttonNames = [ButtonCount]string{
		"Right", "Left", "Up", "Down",
		"A", "B", "Select", "Start",
	}
	return buttonNames[b]
}

// Preset holds the mapping configuration of the joypad.
type Preset struct {
	Buttons [ButtonCount]Code `toml:"buttons"`
}

const numPresets = 8

type Config struct {
	JoypadPreset uint                `toml:"preset"`
	Presets      [numPresets]Preset  `toml:"presets"`

	preset *Preset
}

func (cfg *Config) Init() {
	if cfg.JoypadPreset >= numPresets {
		cfg.JoypadPreset = 0
	}
	cfg.preset = &cfg.Presets[cfg.JoypadPreset]

	if cfg.preset.empty() {
		*cfg.preset = defaultPreset()
	}
}

func (p *Preset) empty() bool {
	for _, code := range p.Buttons {
		if code.Type != UnsetController {
			return false
		}
	}
	return true
}

// defaultPreset is the keyboard mapping used when nothing is configured:
// arrows for the pad, Z/X for A/B, shift and enter for select and start.
func defaultPreset() Preset {
	key := func(sc sdl.Scancode) Code {
		return Code{Type: Keyboard, Scancode: sc}
	}
	var p Preset
	p.Buttons[BtnRight] = key(sdl.SCANCODE_RIGHT)
	p.Buttons[BtnLeft] = key(sdl.SCANCODE_LEFT)
	p.Buttons[BtnUp] = key(sdl.SCANCODE_UP)
	p.Buttons[BtnDown] = key(sdl.SCANCODE_DOWN)
	p.Buttons[BtnA] = key(sdl.SCANCODE_Z)
	p.Buttons[BtnB] = key(sdl.SCANCODE_X)
	p.Buttons[BtnSelect] = key(sdl.SCANCODE_RSHIFT)
	p.Buttons[BtnStart] = key(sdl.SCANCODE_RETURN)
	return p
}

// Provider polls the host (keyboard and game controllers) for the state of
// the mapped buttons.
type Provider struct {
	keystate []uint8
	cfg      Config
}

func NewProvider(cfg Config) *Provider {
	cfg.Init()
	var keystate []uint8
	sdl.Do(func() { keystate = sdl.GetKeyboardState() })
	return &Provider{keystate: keystate, cfg: cfg}
}

// Pressed returns the currently pressed buttons as a bitset, one bit per
// Button ordinal.
func (p *Provider) Pressed() uint8 {
	state := uint8(0)
	for i, code := range p.cfg.preset.Buttons {
		pressed := uint8(0)
		switch code.Type {
		case Keyboard:
			pressed = p.keystate[code.Scancode]
		case ControllerButton:
			ctrl := Gamectrls.getByGUID(code.CtrlGUID)
			if ctrl != nil {
				pressed = ctrl.Button(code.CtrlButton)
			}
		case ControllerAxis:
			ctrl := Gamectrls.getByGUID(code.CtrlGUID)
			if ctrl != nil {
				if ctrl.Axis(code.CtrlAxis) >= JoyAxisThreshold {
					pressed = 1
				}
			}
		}
		state |= pressed << i
	}
	return state
}
