package audio

import "time"

const (
	SampleRate    = 48000
	Channels      = 2
	BitDepth      = 16
	FrameDuration = 20 * time.Millisecond
	FrameSize     = 960                  // samples per channel per 20ms frame
	FrameSamples  = FrameSize * Channels // total interleaved samples per frame
	FrameBytes    = FrameSamples * 2     // bytes per frame (int16 = 2 bytes)
)

// Waveform selects the shape of an oscillator.
type Waveform int

const (
	Sine Waveform = iota
	Square
	Triangle
	Sawtooth
)

func (w Waveform) String() string {
	switch w {
	case Sine:
		return "sine"
	case Square:
		return "square"
	case Triangle:
		return "triangle"
	case Sawtooth:
		return "sawtooth"
	}
	return "unknown"
}

// ToneParams describes one oscillator -> (filter) -> gain chain in the graph.
// Frequency and Gain are automated on the engine's absolute timeline.
type ToneParams struct {
	Waveform  Waveform
	Frequency *Param
	Gain      *Param
	Filter    *Filter // optional
}

// SecondsToFrames converts audio clock seconds into a sample frame index.
func SecondsToFrames(sec float64) int64 {
	return int64(sec * SampleRate)
}
