package audio

import (
	"context"
	"encoding/binary"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

type voice struct {
	params ToneParams
	start  float64
	stop   float64
	phase  float64
	filter *biquad
}

// Engine is a software audio graph with its own clock. The clock is the
// number of sample frames rendered so far, so it only moves when something
// pulls audio out of the engine: a hardware device, the real-time frame
// ticker, or an offline renderer.
//
// Like a browser audio context, a new Engine is suspended: it renders
// silence and its clock stands still until EnsureActive resumes it.
type Engine struct {
	frameCh chan []int16

	mu        sync.Mutex
	pos       int64 // sample frames rendered
	voices    []*voice
	suspended bool
	gain      float64
}

// NewEngine creates a suspended engine with the given master gain.
func NewEngine(masterGain float64) *Engine {
	return &Engine{
		frameCh:   make(chan []int16, 100),
		suspended: true,
		gain:      masterGain,
	}
}

// Now returns the engine clock in seconds.
func (e *Engine) Now() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return float64(e.pos) / SampleRate
}

// ScheduleTone adds a voice that sounds from start until stop (clock seconds).
// A start in the past begins on the next rendered sample, with automation
// still evaluated on the absolute timeline.
func (e *Engine) ScheduleTone(p ToneParams, start, stop float64) {
	if stop <= start {
		return
	}
	v := &voice{params: p, start: start, stop: stop}
	if p.Filter != nil {
		v.filter = newBiquad(*p.Filter, SampleRate)
	}
	e.mu.Lock()
	e.voices = append(e.voices, v)
	e.mu.Unlock()
}

// ActiveVoices returns the number of scheduled voices that have not finished.
func (e *Engine) ActiveVoices() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.voices)
}

// EnsureActive resumes a suspended engine. It never fails; the signature
// matches devices that can.
func (e *Engine) EnsureActive(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.suspended {
		e.suspended = false
		log.Debugf("Audio engine resumed at %.3fs", float64(e.pos)/SampleRate)
	}
	return nil
}

// Active reports whether the engine clock is running.
func (e *Engine) Active() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return !e.suspended
}

// Suspend freezes the clock. Scheduled voices are kept.
func (e *Engine) Suspend() {
	e.mu.Lock()
	e.suspended = true
	e.mu.Unlock()
}

// Render fills out (interleaved stereo) and advances the clock by
// len(out)/Channels frames. A suspended engine writes silence.
func (e *Engine) Render(out []int16) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.suspended {
		clear(out)
		return
	}

	frames := len(out) / Channels
	for i := 0; i < frames; i++ {
		t := float64(e.pos) / SampleRate
		var sum float64

		for idx := 0; idx < len(e.voices); idx++ {
			v := e.voices[idx]
			if t >= v.stop {
				e.voices = append(e.voices[:idx], e.voices[idx+1:]...)
				idx--
				continue
			}
			if t < v.start {
				continue
			}
			sum += v.sample(t)
		}

		s := int16(clip(sum*e.gain) * 32767)
		for c := 0; c < Channels; c++ {
			out[i*Channels+c] = s
		}
		e.pos++
	}
}

func (v *voice) sample(t float64) float64 {
	x := oscillate(v.params.Waveform, v.phase)
	if v.params.Frequency != nil {
		v.phase += v.params.Frequency.ValueAt(t) / SampleRate
	}
	if v.filter != nil {
		x = v.filter.process(x)
	}
	if v.params.Gain != nil {
		x *= v.params.Gain.ValueAt(t)
	}
	return x
}

// Read implements io.Reader for hardware players (16-bit little-endian PCM).
func (e *Engine) Read(p []byte) (int, error) {
	n := len(p) / (2 * Channels) * Channels
	buf := make([]int16, n)
	e.Render(buf)
	for i, s := range buf {
		binary.LittleEndian.PutUint16(p[i*2:], uint16(s))
	}
	return n * 2, nil
}

// Frames returns the channel of rendered PCM frames (20ms each) fed by Run.
func (e *Engine) Frames() <-chan []int16 {
	return e.frameCh
}

// Run renders one frame per FrameDuration in real time. Blocks until ctx is
// cancelled.
func (e *Engine) Run(ctx context.Context) {
	defer close(e.frameCh)

	ticker := time.NewTicker(FrameDuration)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		frame := make([]int16, FrameSamples)
		e.Render(frame)

		select {
		case e.frameCh <- frame:
		case <-ctx.Done():
			return
		}
	}
}
