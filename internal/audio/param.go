package audio

import (
	"math"
	"sort"
)

type automationKind int

const (
	setValue automationKind = iota
	linearRamp
	exponentialRamp
)

type automationEvent struct {
	kind  automationKind
	time  float64
	value float64
}

// Param is an automatable value on the audio clock's timeline, modelled on
// the Web Audio AudioParam. A ramp event runs from the previous event's time
// and value to its own; before the first event the default value applies and
// after the last event its value is held.
type Param struct {
	def    float64
	events []automationEvent
}

// NewParam creates a Param with the given default value.
func NewParam(def float64) *Param {
	return &Param{def: def}
}

// SetValueAtTime jumps to value at time t.
func (p *Param) SetValueAtTime(value, t float64) *Param {
	p.insert(automationEvent{kind: setValue, time: t, value: value})
	return p
}

// LinearRampToValueAtTime ramps linearly from the previous event to value at t.
func (p *Param) LinearRampToValueAtTime(value, t float64) *Param {
	p.insert(automationEvent{kind: linearRamp, time: t, value: value})
	return p
}

// ExponentialRampToValueAtTime ramps exponentially from the previous event to
// value at t. Exponential ramps can't reach zero: callers target a small floor.
func (p *Param) ExponentialRampToValueAtTime(value, t float64) *Param {
	p.insert(automationEvent{kind: exponentialRamp, time: t, value: value})
	return p
}

// insert keeps events ordered by time; equal times keep insertion order.
func (p *Param) insert(ev automationEvent) {
	i := sort.Search(len(p.events), func(i int) bool {
		return p.events[i].time > ev.time
	})
	p.events = append(p.events, automationEvent{})
	copy(p.events[i+1:], p.events[i:])
	p.events[i] = ev
}

// ValueAt returns the automated value at clock time t.
func (p *Param) ValueAt(t float64) float64 {
	if len(p.events) == 0 || t < p.events[0].time {
		return p.def
	}

	// Last event at or before t.
	i := sort.Search(len(p.events), func(i int) bool {
		return p.events[i].time > t
	}) - 1
	cur := p.events[i]
	if i+1 >= len(p.events) {
		return cur.value
	}

	next := p.events[i+1]
	span := next.time - cur.time
	if span <= 0 {
		return cur.value
	}
	frac := (t - cur.time) / span

	switch next.kind {
	case linearRamp:
		return cur.value + (next.value-cur.value)*frac
	case exponentialRamp:
		if cur.value == 0 || next.value == 0 || (cur.value < 0) != (next.value < 0) {
			return cur.value
		}
		return cur.value * math.Pow(next.value/cur.value, frac)
	}
	return cur.value
}

// EndTime returns the time of the last automation event, or 0 with none.
func (p *Param) EndTime() float64 {
	if len(p.events) == 0 {
		return 0
	}
	return p.events[len(p.events)-1].time
}
