package render

import (
	"context"
	"fmt"
	"io"
	"math/rand/v2"
	"time"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	log "github.com/sirupsen/logrus"

	"github.com/satindergrewal/nadabramha/internal/audio"
	"github.com/satindergrewal/nadabramha/internal/manjira"
	"github.com/satindergrewal/nadabramha/internal/synth"
)

// Options controls an offline render.
type Options struct {
	Duration   float64 // seconds of audio
	Seed       uint64
	MasterGain float64
	Scheduler  manjira.Config
}

// Result describes a finished render.
type Result struct {
	Frames  int64
	Strikes []synth.SoundEvent
}

// virtualTimer fires polls at exact steps of rendered audio instead of wall
// time, so a render is deterministic for a seed.
type virtualTimer struct {
	pos     *int64
	pending *virtualHandle
}

type virtualHandle struct {
	f       func()
	at      int64 // frame index
	stopped bool
	fired   bool
}

func (h *virtualHandle) Stop() bool {
	if h.stopped || h.fired {
		return false
	}
	h.stopped = true
	return true
}

func (t *virtualTimer) AfterFunc(d time.Duration, f func()) manjira.Handle {
	frames := int64(d) * audio.SampleRate / int64(time.Second)
	if frames < 1 {
		frames = 1
	}
	h := &virtualHandle{f: f, at: *t.pos + frames}
	t.pending = h
	return h
}

// due returns the armed poll if it should fire at pos.
func (t *virtualTimer) due(pos int64) *virtualHandle {
	h := t.pending
	if h == nil || h.stopped || h.fired || h.at > pos {
		return nil
	}
	return h
}

// next returns the frame of the armed poll, or -1.
func (t *virtualTimer) next() int64 {
	h := t.pending
	if h == nil || h.stopped || h.fired {
		return -1
	}
	return h.at
}

// WAV renders opts.Duration seconds of the soundscape into w as 16-bit
// stereo WAV. The scheduler runs exactly as it does live, polled every
// PollInterval of audio time.
func WAV(ctx context.Context, w io.WriteSeeker, opts Options) (*Result, error) {
	if opts.Duration <= 0 {
		return nil, fmt.Errorf("invalid duration %v", opts.Duration)
	}
	gain := opts.MasterGain
	if gain <= 0 {
		gain = 1
	}

	var pos int64
	engine := audio.NewEngine(gain)
	timer := &virtualTimer{pos: &pos}
	rng := rand.New(rand.NewPCG(opts.Seed, opts.Seed^0x9e3779b97f4a7c15))
	sched := manjira.NewScheduler(engine, opts.Scheduler, rng, timer)

	res := &Result{}
	sched.SetEventFunc(func(ev synth.SoundEvent) {
		res.Strikes = append(res.Strikes, ev)
	})

	enc := wav.NewEncoder(w, audio.SampleRate, audio.BitDepth, audio.Channels, 1)
	if err := sched.Start(); err != nil {
		return nil, err
	}
	defer sched.Stop()

	total := audio.SecondsToFrames(opts.Duration)
	pcm := make([]int16, audio.FrameSamples)
	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: audio.Channels, SampleRate: audio.SampleRate},
		SourceBitDepth: audio.BitDepth,
	}

	for pos < total {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		chunk := min(int64(audio.FrameSize), total-pos)
		if at := timer.next(); at >= 0 && at-pos < chunk {
			chunk = max(at-pos, 0)
		}

		if chunk > 0 {
			samples := pcm[:chunk*audio.Channels]
			engine.Render(samples)
			pos += chunk

			buf.Data = buf.Data[:0]
			for _, s := range samples {
				buf.Data = append(buf.Data, int(s))
			}
			if err := enc.Write(buf); err != nil {
				return nil, fmt.Errorf("write wav: %w", err)
			}
		}

		if h := timer.due(pos); h != nil {
			h.fired = true
			h.f()
		}
	}

	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("close wav: %w", err)
	}
	res.Frames = pos
	log.Infof("Rendered %.1fs, %d strikes", float64(pos)/audio.SampleRate, len(res.Strikes))
	return res, nil
}
