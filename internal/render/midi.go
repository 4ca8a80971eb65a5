package render

import (
	"fmt"
	"io"
	"sort"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"

	"github.com/satindergrewal/nadabramha/internal/synth"
)

const (
	midiTPQ      = 960
	midiBPM      = 120
	ticksPerSec  = midiTPQ * midiBPM / 60
	drumChannel  = 9  // GM percussion
	strikeKey    = 81 // GM open triangle, the closest kit piece to a manjira
	strikeVel    = 100
	clickVelBase = 40
)

type midiEvent struct {
	tick uint32
	msg  midi.Message
}

// MIDI writes strikes as a single-track Standard MIDI File on the GM drum
// channel, one note per strike lasting the strike's duration.
func MIDI(w io.Writer, strikes []synth.SoundEvent) error {
	var events []midiEvent
	for _, ev := range strikes {
		on := secToTicks(ev.StartTime)
		off := secToTicks(ev.StartTime + ev.Duration)
		events = append(events,
			midiEvent{tick: on, msg: midi.NoteOn(drumChannel, strikeKey, velocity(ev))},
			midiEvent{tick: off, msg: midi.NoteOff(drumChannel, strikeKey)},
		)
	}
	// note-offs sort before note-ons at the same tick
	sort.SliceStable(events, func(i, j int) bool {
		if events[i].tick != events[j].tick {
			return events[i].tick < events[j].tick
		}
		return isNoteOff(events[i].msg) && !isNoteOff(events[j].msg)
	})

	var tr smf.Track
	tr.Add(0, smf.MetaTrackSequenceName("manjira"))
	tr.Add(0, smf.MetaTempo(midiBPM))
	var last uint32
	for _, e := range events {
		tr.Add(e.tick-last, e.msg)
		last = e.tick
	}
	tr.Close(0)

	s := smf.New()
	s.TimeFormat = smf.MetricTicks(midiTPQ)
	if err := s.Add(tr); err != nil {
		return fmt.Errorf("add midi track: %w", err)
	}
	if _, err := s.WriteTo(w); err != nil {
		return fmt.Errorf("write midi: %w", err)
	}
	return nil
}

func secToTicks(sec float64) uint32 {
	if sec <= 0 {
		return 0
	}
	return uint32(sec*ticksPerSec + 0.5)
}

// velocity maps the strike's body and click peaks onto 1..127.
func velocity(ev synth.SoundEvent) uint8 {
	v := clickVelBase + int((ev.GainPeak+ev.Transient.GainPeak)/(synth.PrimaryGainPeak+synth.TransientGainPeak)*(strikeVel-clickVelBase))
	return uint8(max(1, min(127, v)))
}

func isNoteOff(m midi.Message) bool {
	var ch, key uint8
	return m.GetNoteEnd(&ch, &key)
}
