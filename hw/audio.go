package hw

import (
	"fmt"
	"unsafe"

	"github.com/arl/blip"
	"github.com/veandco/go-sdl2/sdl"

	"dmgo/emu/log"
)

// Machine clock, in T-cycles per second.
const ClockRate = 4194304

const (
	SampleRate      = 48000
	AudioFormat     = sdl.AUDIO_S16LSB
	AudioChannels   = 1
	AudioBufferSize = 2048

	maxSamplesPerFrame = SampleRate / 30
)

// AudioOut resamples the sound output down to the host rate with a
// band-limited buffer and feeds the SDL audio queue. Amplitude deltas are
// pushed at machine-cycle timestamps; with none queued a frame plays
// silence, keeping the stream cadence steady.
type AudioOut struct {
	dev sdl.AudioDeviceID
	buf *blip.Buffer

	outbuf  [maxSamplesPerFrame]int16
	prevAmp int16
}

func NewAudioOut() (*AudioOut, error) {
	ao := &AudioOut{
		buf: blip.NewBuffer(maxSamplesPerFrame),
	}
	ao.buf.SetRates(float64(ClockRate), float64(SampleRate))

	var err error
	sdl.Do(func() {
		if err = sdl.InitSubSystem(sdl.INIT_AUDIO); err != nil {
			return
		}
		want := sdl.AudioSpec{
			Freq:     SampleRate,
			Format:   AudioFormat,
			Channels: AudioChannels,
			Samples:  AudioBufferSize,
		}
		ao.dev, err = sdl.OpenAudioDevice("", false, &want, nil, 0)
		if err != nil {
			return
		}
		sdl.PauseAudioDevice(ao.dev, false)
	})
	if err != nil {
		return nil, fmt.Errorf("audio device: %s", err)
	}

	log.ModSound.InfoZ("audio stream opened").
		Int("rate", SampleRate).
		Int("bufsize", AudioBufferSize).
		End()
	return ao, nil
}

// AddSample records an output amplitude at a cycle timestamp relative to the
// current frame.
func (ao *AudioOut) AddSample(cycle uint64, amp int16) {
	if amp == ao.prevAmp {
		return
	}
	ao.buf.AddDelta(cycle, int32(amp)-int32(ao.prevAmp))
	ao.prevAmp = amp
}

// EndFrame flushes one video frame worth of audio to the device.
func (ao *AudioOut) EndFrame() {
	ao.buf.EndFrame(CyclesPerLine * NumScanlines)

	n := ao.buf.ReadSamples(ao.outbuf[:], len(ao.outbuf), blip.Mono)
	if n == 0 {
		return
	}

	raw := unsafe.Slice((*byte)(unsafe.Pointer(&ao.outbuf[0])), n*2)
	var err error
	sdl.Do(func() { err = sdl.QueueAudio(ao.dev, raw) })
	if err != nil {
		log.ModSound.WarnZ("audio queue error").Error("err", err).End()
	}
}

func (ao *AudioOut) Close() {
	sdl.Do(func() {
		sdl.CloseAudioDevice(ao.dev)
	})
}
