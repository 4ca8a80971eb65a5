package audio

import "math"

// FilterType selects the biquad response.
type FilterType int

const (
	LowPass FilterType = iota
	HighPass
	BandPass
)

// Filter is a biquad filter stage (RBJ cookbook coefficients).
type Filter struct {
	Type      FilterType
	Frequency float64 // cutoff / center in Hz
	Q         float64
}

type biquad struct {
	b0, b1, b2, a1, a2 float64
	x1, x2, y1, y2     float64
}

func newBiquad(f Filter, sampleRate float64) *biquad {
	q := f.Q
	if q <= 0 {
		q = 1e-4
	}
	w := 2.0 * math.Pi * f.Frequency / sampleRate
	cosw := math.Cos(w)
	alpha := math.Sin(w) / (2.0 * q)

	var b0, b1, b2 float64
	a0 := 1.0 + alpha
	a1 := -2.0 * cosw
	a2 := 1.0 - alpha

	switch f.Type {
	case LowPass:
		b0 = (1.0 - cosw) / 2.0
		b1 = 1.0 - cosw
		b2 = (1.0 - cosw) / 2.0
	case HighPass:
		b0 = (1.0 + cosw) / 2.0
		b1 = -(1.0 + cosw)
		b2 = (1.0 + cosw) / 2.0
	case BandPass:
		// constant 0 dB peak gain
		b0 = alpha
		b1 = 0
		b2 = -alpha
	}

	return &biquad{
		b0: b0 / a0, b1: b1 / a0, b2: b2 / a0,
		a1: a1 / a0, a2: a2 / a0,
	}
}

func (b *biquad) process(x0 float64) float64 {
	y0 := b.b0*x0 + b.b1*b.x1 + b.b2*b.x2 - b.a1*b.y1 - b.a2*b.y2
	b.x2, b.x1 = b.x1, x0
	b.y2, b.y1 = b.y1, y0
	return y0
}

// oscillate returns the waveform value for a phase in cycles.
func oscillate(w Waveform, phase float64) float64 {
	p := phase - math.Floor(phase)
	switch w {
	case Square:
		if p < 0.5 {
			return 1
		}
		return -1
	case Triangle:
		// 0 at p=0, peaks at 0.25, troughs at 0.75
		if p < 0.25 {
			return 4 * p
		}
		if p < 0.75 {
			return 2 - 4*p
		}
		return 4*p - 4
	case Sawtooth:
		return 2*p - 1
	}
	return math.Sin(2 * math.Pi * p)
}

func clip(v float64) float64 {
	if v > 1 {
		return 1
	}
	if v < -1 {
		return -1
	}
	return v
}
