package manjira

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/satindergrewal/nadabramha/internal/audio"
	"github.com/satindergrewal/nadabramha/internal/synth"
)

// ErrCapabilityUnavailable is returned by Start when the audio clock can't be
// constructed or resumed. The scheduler stays stopped.
var ErrCapabilityUnavailable = errors.New("audio capability unavailable")

// activateTimeout bounds how long Start waits for an audio device.
const activateTimeout = 5 * time.Second

// State is the playback state.
type State int

const (
	Stopped State = iota
	Playing
)

func (s State) String() string {
	if s == Playing {
		return "playing"
	}
	return "stopped"
}

// MarshalText renders the state as "playing" or "stopped".
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Clock is the audio clock: a monotonic time source that plays tones at
// exact future times.
type Clock interface {
	Now() float64
	ScheduleTone(p audio.ToneParams, start, stop float64)
}

// Capability is an audio clock that has to be brought up before use.
type Capability interface {
	Clock
	// EnsureActive constructs the clock on first use and resumes it if it
	// was suspended.
	EnsureActive(ctx context.Context) error
	// Active reports whether the clock is running.
	Active() bool
}

// Config holds look-ahead scheduling parameters.
type Config struct {
	PollInterval     time.Duration // software poll period
	ScheduleAhead    float64       // seconds
	Warmup           float64       // seconds from start to the first strike
	GapMin           float64       // seconds
	GapMax           float64       // seconds, exclusive
	MaxEventsPerPass int           // 0 = unbounded
}

// DefaultConfig returns the stock scheduling parameters.
func DefaultConfig() Config {
	return Config{
		PollInterval:  25 * time.Millisecond,
		ScheduleAhead: 0.1,
		Warmup:        0.5,
		GapMin:        3.0,
		GapMax:        6.0,
	}
}

// Status is a snapshot of the scheduler.
type Status struct {
	State         State   `json:"state"`
	Session       string  `json:"session,omitempty"`
	ClockTime     float64 `json:"clock_time"`
	NextEventTime float64 `json:"next_event_time"`
	Submitted     uint64  `json:"events_submitted"`
	Skipped       uint64  `json:"events_skipped"`
	Passes        uint64  `json:"passes"`
}

// EventFunc observes every submitted strike.
type EventFunc func(ev synth.SoundEvent)

// Scheduler submits strikes ahead of the audio clock from a coarse software
// poll. Every pass and lifecycle call runs under one lock, so a pass always
// completes before another pass, Start or Stop can run.
type Scheduler struct {
	capability Capability
	synth      *synth.Synthesizer
	rng        synth.Rand
	timer      Timer
	cfg        Config

	mu        sync.Mutex
	state     State
	session   string
	next      float64 // clock time of the next unsubmitted strike
	handle    Handle
	gen       uint64 // bumped on every start/stop; stale polls compare against it
	onEvent   EventFunc
	pending   []synth.SoundEvent // submitted this pass, delivered after unlock
	submitted uint64
	skipped   uint64
	passes    uint64
}

// NewScheduler creates a stopped scheduler. rng drives both the strike
// spacing and the strike timbre.
func NewScheduler(c Capability, cfg Config, rng synth.Rand, timer Timer) *Scheduler {
	def := DefaultConfig()
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = def.PollInterval
	}
	if cfg.GapMin <= 0 {
		log.Warnf("Invalid minimum strike gap %.3fs, using %.1fs", cfg.GapMin, def.GapMin)
		cfg.GapMin = def.GapMin
	}
	if cfg.GapMax < cfg.GapMin {
		cfg.GapMax = cfg.GapMin
	}
	if cfg.Warmup < 0 {
		log.Warnf("Invalid warmup %.3fs, using %.1fs", cfg.Warmup, def.Warmup)
		cfg.Warmup = def.Warmup
	}
	if cfg.ScheduleAhead < 0 {
		log.Warnf("Invalid schedule-ahead window %.3fs, using %.1fs", cfg.ScheduleAhead, def.ScheduleAhead)
		cfg.ScheduleAhead = def.ScheduleAhead
	}
	if cfg.MaxEventsPerPass < 0 {
		cfg.MaxEventsPerPass = 0
	}
	return &Scheduler{
		capability: c,
		synth:      synth.New(rng),
		rng:        rng,
		timer:      timer,
		cfg:        cfg,
	}
}

// SetEventFunc registers an observer for submitted strikes. Pass nil to remove.
// fn runs after the pass that submitted the strikes, outside the scheduler
// lock, so it may call back into the Scheduler.
func (s *Scheduler) SetEventFunc(fn EventFunc) {
	s.mu.Lock()
	s.onEvent = fn
	s.mu.Unlock()
}

// Config returns the effective scheduling parameters.
func (s *Scheduler) Config() Config {
	return s.cfg
}

// State returns the playback state.
func (s *Scheduler) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Status returns a snapshot of the scheduler.
func (s *Scheduler) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := Status{
		State:         s.state,
		Session:       s.session,
		NextEventTime: s.next,
		Submitted:     s.submitted,
		Skipped:       s.skipped,
		Passes:        s.passes,
	}
	if s.capability.Active() {
		st.ClockTime = s.capability.Now()
	}
	return st
}

// Start begins scheduling. It is a no-op while playing. If the audio
// capability can't be brought up the scheduler stays stopped and the error
// wraps ErrCapabilityUnavailable.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.unlock()
	return s.start()
}

// Stop cancels the pending poll. Strikes already submitted play out.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stop()
}

// Toggle flips between playing and stopped and returns the new state. A
// failed start leaves the scheduler stopped.
func (s *Scheduler) Toggle() State {
	st, _ := s.ToggleErr() // logged in start
	return st
}

// ToggleErr is Toggle that also reports a failed start.
func (s *Scheduler) ToggleErr() (State, error) {
	s.mu.Lock()
	defer s.unlock()
	if s.state == Playing {
		s.stop()
		return s.state, nil
	}
	err := s.start()
	return s.state, err
}

func (s *Scheduler) start() error {
	if s.state == Playing {
		log.Debug("Start ignored: already playing")
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), activateTimeout)
	defer cancel()
	if err := s.capability.EnsureActive(ctx); err != nil {
		log.Warnf("Audio unavailable, not starting: %v", err)
		return fmt.Errorf("%w: %w", ErrCapabilityUnavailable, err)
	}

	s.state = Playing
	s.gen++
	s.session = uuid.NewString()
	s.next = s.capability.Now() + s.cfg.Warmup
	s.logger().Infof("Manjira started, first strike at %.3fs", s.next)

	s.poll(s.gen)
	return nil
}

func (s *Scheduler) stop() {
	if s.state == Stopped {
		log.Debug("Stop ignored: already stopped")
		return
	}
	s.state = Stopped
	s.gen++
	if s.handle != nil {
		s.handle.Stop()
		s.handle = nil
	}
	s.logger().Infof("Manjira stopped (%d strikes submitted)", s.submitted)
}

// pollFunc is what the timer runs. A poll armed by an earlier session is
// discarded, so a timer racing Stop can't start a second chain.
func (s *Scheduler) pollFunc(gen uint64) func() {
	return func() {
		s.mu.Lock()
		defer s.unlock()
		s.poll(gen)
	}
}

// unlock releases mu and then hands the strikes of the last pass to the
// event observer.
func (s *Scheduler) unlock() {
	evs, fn := s.pending, s.onEvent
	s.pending = nil
	s.mu.Unlock()
	if fn == nil {
		return
	}
	for _, ev := range evs {
		fn(ev)
	}
}

// poll runs one scheduling pass and re-arms. Must be called with mu held.
func (s *Scheduler) poll(gen uint64) {
	if gen != s.gen || s.state != Playing {
		return
	}
	s.handle = nil

	if !s.capability.Active() {
		s.logger().Warn("Audio clock unavailable, scheduling halted")
		s.state = Stopped
		s.gen++
		return
	}

	s.schedulePass()
	s.handle = s.timer.AfterFunc(s.cfg.PollInterval, s.pollFunc(gen))
}

// schedulePass submits every strike due before the horizon. It loops rather
// than submitting one strike, so a late poll catches up in a single pass.
func (s *Scheduler) schedulePass() {
	now := s.capability.Now()
	horizon := now + s.cfg.ScheduleAhead

	var emitted, skipped uint64
	for s.next < horizon {
		if s.cfg.MaxEventsPerPass > 0 && emitted >= uint64(s.cfg.MaxEventsPerPass) {
			skipped++
		} else {
			ev := s.synth.Emit(s.capability, s.next)
			emitted++
			if s.onEvent != nil {
				s.pending = append(s.pending, ev)
			}
		}
		s.next += s.gap()
	}

	s.passes++
	s.submitted += emitted
	s.skipped += skipped
	if emitted > 1 || skipped > 0 {
		s.logger().Debugf("Catch-up pass at %.3fs: %d submitted, %d skipped", now, emitted, skipped)
	}
}

func (s *Scheduler) gap() float64 {
	return s.cfg.GapMin + s.rng.Float64()*(s.cfg.GapMax-s.cfg.GapMin)
}

func (s *Scheduler) logger() *log.Entry {
	return log.WithField("session", s.session)
}
