// Package synth builds the acoustic description of one manjira strike and
// submits it to an audio graph.
package synth

import (
	"github.com/satindergrewal/nadabramha/internal/audio"
)

// Strike shape. Times are seconds relative to the strike start.
const (
	PrimaryFrequencyStart = 2800.0
	PrimaryFrequencyEnd   = 2780.0
	PrimaryRampTime       = 1.5
	FilterCenterMin       = 3000.0
	FilterCenterSpread    = 500.0
	FilterQ               = 8.0
	PrimaryGainPeak       = 0.15
	PrimaryAttack         = 0.01
	PrimaryDecay          = 1.5
	PrimaryFloor          = 0.001
	PrimaryDuration       = 2.0

	TransientFrequency = 8000.0
	TransientGainPeak  = 0.05
	TransientDecay     = 0.05
	TransientFloor     = 0.0001
	TransientDuration  = 0.1
)

// Rand is the source of randomness. *rand.Rand from math/rand/v2 satisfies it.
type Rand interface {
	Float64() float64
}

// ToneScheduler accepts tones for future playback.
type ToneScheduler interface {
	ScheduleTone(p audio.ToneParams, start, stop float64)
}

// Transient is the short bright click at the front of a strike.
type Transient struct {
	StartTime float64
	Frequency float64
	GainPeak  float64
	Duration  float64
}

// SoundEvent is one strike: a ringing band-passed body plus a click.
type SoundEvent struct {
	StartTime             float64
	PrimaryFrequencyStart float64
	PrimaryFrequencyEnd   float64
	FilterCenterFrequency float64
	FilterQ               float64
	GainPeak              float64
	Duration              float64
	Transient             Transient
}

// Synthesizer creates strikes. Only the filter center is random.
type Synthesizer struct {
	rng Rand
}

// New creates a Synthesizer drawing from rng.
func New(rng Rand) *Synthesizer {
	return &Synthesizer{rng: rng}
}

// Build returns the strike starting at start.
func (s *Synthesizer) Build(start float64) SoundEvent {
	return SoundEvent{
		StartTime:             start,
		PrimaryFrequencyStart: PrimaryFrequencyStart,
		PrimaryFrequencyEnd:   PrimaryFrequencyEnd,
		FilterCenterFrequency: FilterCenterMin + s.rng.Float64()*FilterCenterSpread,
		FilterQ:               FilterQ,
		GainPeak:              PrimaryGainPeak,
		Duration:              PrimaryDuration,
		Transient: Transient{
			StartTime: start,
			Frequency: TransientFrequency,
			GainPeak:  TransientGainPeak,
			Duration:  TransientDuration,
		},
	}
}

// Emit builds the strike for start and submits both voices to ts.
func (s *Synthesizer) Emit(ts ToneScheduler, start float64) SoundEvent {
	ev := s.Build(start)
	ev.Submit(ts)
	return ev
}

// Submit schedules the event's voices. Both begin at exactly StartTime.
func (ev SoundEvent) Submit(ts ToneScheduler) {
	body, bodyStop := ev.PrimaryTone()
	ts.ScheduleTone(body, ev.StartTime, bodyStop)

	click, clickStop := ev.TransientTone()
	ts.ScheduleTone(click, ev.Transient.StartTime, clickStop)
}

// PrimaryTone returns the graph description of the ringing body.
func (ev SoundEvent) PrimaryTone() (audio.ToneParams, float64) {
	t := ev.StartTime
	return audio.ToneParams{
		Waveform: audio.Triangle,
		Frequency: audio.NewParam(ev.PrimaryFrequencyStart).
			SetValueAtTime(ev.PrimaryFrequencyStart, t).
			ExponentialRampToValueAtTime(ev.PrimaryFrequencyEnd, t+PrimaryRampTime),
		Gain: audio.NewParam(0).
			SetValueAtTime(0, t).
			LinearRampToValueAtTime(ev.GainPeak, t+PrimaryAttack).
			ExponentialRampToValueAtTime(PrimaryFloor, t+PrimaryDecay),
		Filter: &audio.Filter{
			Type:      audio.BandPass,
			Frequency: ev.FilterCenterFrequency,
			Q:         ev.FilterQ,
		},
	}, t + ev.Duration
}

// TransientTone returns the graph description of the click.
func (ev SoundEvent) TransientTone() (audio.ToneParams, float64) {
	tr := ev.Transient
	return audio.ToneParams{
		Waveform: audio.Square,
		Frequency: audio.NewParam(tr.Frequency).
			SetValueAtTime(tr.Frequency, tr.StartTime),
		Gain: audio.NewParam(tr.GainPeak).
			SetValueAtTime(tr.GainPeak, tr.StartTime).
			ExponentialRampToValueAtTime(TransientFloor, tr.StartTime+TransientDecay),
	}, tr.StartTime + tr.Duration
}
