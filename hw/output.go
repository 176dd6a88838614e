package hw

import (
	"image"

	"github.com/veandco/go-sdl2/sdl"

	"dmgo/emu/log"
)

type OutputConfig struct {
	Width          int
	Height         int
	NumBackBuffers int

	Title        string
	ScaleFactor  int
	DisableVSync bool
	Monitor      int32
	Shader       string

	// When set, completed frames are delivered to this channel instead of
	// (or in addition to) the window.
	FrameOutCh chan image.RGBA
}

// Output owns the host side of the emulation: back buffers handed to the
// core, the window presenting them and the audio stream.
type Output struct {
	cfg OutputConfig

	framebufidx  int
	framebuf     [][]byte
	framecounter int

	win   *window // nil when headless
	audio *AudioOut

	lastFrame []byte
}

func NewOutput(cfg OutputConfig) *Output {
	if cfg.NumBackBuffers == 0 {
		cfg.NumBackBuffers = 2
	}
	if cfg.ScaleFactor == 0 {
		cfg.ScaleFactor = 3
	}
	vb := make([][]byte, cfg.NumBackBuffers)
	for i := range vb {
		vb[i] = make([]byte, cfg.Width*cfg.Height*4)
	}
	return &Output{
		framebuf: vb,
		cfg:      cfg,
	}
}

// EnableVideo creates or tears down the window. Headless operation (frame
// channel only) just skips the call.
func (o *Output) EnableVideo(enable bool) error {
	if !enable {
		if o.win != nil {
			o.win.Close()
			o.win = nil
		}
		return nil
	}

	win, err := newWindow(o.cfg.Title,
		o.cfg.Width, o.cfg.Height, o.cfg.ScaleFactor,
		o.cfg.Monitor, !o.cfg.DisableVSync, o.cfg.Shader)
	if err != nil {
		return err
	}
	o.win = win
	return nil
}

func (o *Output) EnableAudio(enable bool) error {
	if !enable {
		if o.audio != nil {
			o.audio.Close()
			o.audio = nil
		}
		return nil
	}
	audio, err := NewAudioOut()
	if err != nil {
		return err
	}
	o.audio = audio
	return nil
}

// Audio returns the audio stream, nil when disabled.
func (o *Output) Audio() *AudioOut {
	return o.audio
}

// BeginFrame returns the buffer the core should render the next frame into.
func (o *Output) BeginFrame() []byte {
	o.framebufidx++
	if o.framebufidx == o.cfg.NumBackBuffers {
		o.framebufidx = 0
	}
	return o.framebuf[o.framebufidx]
}

// EndFrame presents a buffer previously returned by BeginFrame.
func (o *Output) EndFrame(video []byte) {
	o.framecounter++
	o.lastFrame = video

	if o.win != nil {
		sdl.Do(func() { o.win.present(video) })
	}
	if o.cfg.FrameOutCh != nil {
		o.cfg.FrameOutCh <- image.RGBA{
			Pix:    video,
			Stride: 4 * o.cfg.Width,
			Rect:   image.Rect(0, 0, o.cfg.Width, o.cfg.Height),
		}
	}
	if o.audio != nil {
		o.audio.EndFrame()
	}
}

// Poll pumps host events. Returns false when the user asked to quit.
func (o *Output) Poll() bool {
	if o.win == nil {
		return true
	}
	quit := false
	sdl.Do(func() {
		for ev := sdl.PollEvent(); ev != nil; ev = sdl.PollEvent() {
			switch e := ev.(type) {
			case *sdl.QuitEvent:
				quit = true
			case *sdl.KeyboardEvent:
				if e.Keysym.Scancode == sdl.SCANCODE_ESCAPE && e.State == sdl.RELEASED {
					quit = true
				}
			}
		}
	})
	return !quit
}

func (o *Output) FocusWindow() {
	if o.win != nil {
		sdl.Do(func() { o.win.Raise() })
	}
}

// Screenshot returns a copy of the last presented frame.
func (o *Output) Screenshot() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, o.cfg.Width, o.cfg.Height))
	if o.lastFrame != nil {
		copy(img.Pix, o.lastFrame)
	}
	return img
}

func (o *Output) Close() {
	if o.audio != nil {
		o.audio.Close()
	}
	if o.win != nil {
		if err := o.win.Close(); err != nil {
			log.ModEmu.WarnZ("error closing window").Error("err", err).End()
		}
	}
	if o.cfg.FrameOutCh != nil {
		close(o.cfg.FrameOutCh)
	}
}
