// Package device plays an audio engine on the local sound card.
package device

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/hajimehoshi/oto/v2"
	log "github.com/sirupsen/logrus"

	"github.com/satindergrewal/nadabramha/internal/audio"
)

type player interface {
	Play()
	Close() error
}

// output is an opened sound card.
type output interface {
	NewPlayer(r io.Reader) player
	Suspend() error
	Resume() error
}

// opener opens the sound card. The returned channel closes once it is ready.
type opener func() (output, chan struct{}, error)

type otoOutput struct {
	*oto.Context
}

func (o otoOutput) NewPlayer(r io.Reader) player {
	return o.Context.NewPlayer(r)
}

func openOto() (output, chan struct{}, error) {
	c, ready, err := oto.NewContext(audio.SampleRate, audio.Channels, oto.FormatSignedInt16LE)
	if err != nil {
		return nil, nil, err
	}
	return otoOutput{c}, ready, nil
}

// Speaker plays an Engine on the local audio device. The device pulls PCM
// from the engine, so the engine clock follows the hardware.
type Speaker struct {
	engine *audio.Engine
	open   opener

	mu     sync.Mutex
	out    output
	ready  chan struct{} // nil once the device reported ready
	player player
}

// NewSpeaker wraps engine. No device is opened until EnsureActive.
func NewSpeaker(engine *audio.Engine) *Speaker {
	return &Speaker{engine: engine, open: openOto}
}

// Engine returns the engine the speaker plays.
func (s *Speaker) Engine() *audio.Engine {
	return s.engine
}

// EnsureActive opens the audio device on first use and resumes it if it was
// suspended. A failed open is returned and retried on the next call. A device
// that is still initializing when ctx ends is kept and waited on again.
func (s *Speaker) EnsureActive(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.out == nil {
		out, ready, err := s.open()
		if err != nil {
			return fmt.Errorf("open audio device: %w", err)
		}
		s.out, s.ready = out, ready
	}

	if s.ready != nil {
		select {
		case <-s.ready:
			s.ready = nil
			log.Infof("Audio device opened (%d Hz, %d ch)", audio.SampleRate, audio.Channels)
		case <-ctx.Done():
			return fmt.Errorf("audio device not ready: %w", ctx.Err())
		}
	} else if err := s.out.Resume(); err != nil {
		return fmt.Errorf("resume audio device: %w", err)
	}

	if err := s.engine.EnsureActive(ctx); err != nil {
		return err
	}
	if s.player == nil {
		s.player = s.out.NewPlayer(s.engine)
		s.player.Play()
	}
	return nil
}

// Active reports whether the device is ready and the engine clock is running.
func (s *Speaker) Active() bool {
	s.mu.Lock()
	open := s.out != nil && s.ready == nil
	s.mu.Unlock()
	return open && s.engine.Active()
}

// Now returns the engine clock in seconds.
func (s *Speaker) Now() float64 {
	return s.engine.Now()
}

// ScheduleTone forwards to the engine.
func (s *Speaker) ScheduleTone(p audio.ToneParams, start, stop float64) {
	s.engine.ScheduleTone(p, start, stop)
}

// Close stops device playback and suspends the engine.
func (s *Speaker) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.engine.Suspend()
	if s.player != nil {
		if err := s.player.Close(); err != nil {
			return fmt.Errorf("close player: %w", err)
		}
		s.player = nil
	}
	if s.out != nil && s.ready == nil {
		if err := s.out.Suspend(); err != nil {
			return fmt.Errorf("suspend audio device: %w", err)
		}
	}
	return nil
}
