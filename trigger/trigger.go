package trigger

import (
	"sync"
	"sync/atomic"
	"time"
)

// Config holds the scheduler timings. Defaults match production behavior;
// tests shrink them.
type Config struct {
	FireGuard    time.Duration // fire this long before the estimated end
	MinDelay     time.Duration // floor for the one-shot delay
	BackupDelay  time.Duration // used from session start when no estimate exists
	PollInterval time.Duration
	PollWindow   time.Duration // poll fires inside (0, PollWindow] before the end
}

func DefaultConfig() Config {
	return Config{
		FireGuard:    10 * time.Millisecond,
		MinDelay:     100 * time.Millisecond,
		BackupDelay:  3000 * time.Millisecond,
		PollInterval: 50 * time.Millisecond,
		PollWindow:   100 * time.Microsecond,
	}
}

// FireFunc receives the session the cycle was armed for, which path won
// ("timer" or "poll"), and the remaining time at fire. It may be invoked
// synchronously from Arm when the deadline is already due.
type FireFunc func(sessionID, source string, remaining time.Duration)

// Scheduler arms at most one trigger cycle at a time. Each cycle owns a
// one-shot timer and, when an end estimate exists, a periodic poll that
// rechecks the deadline against the live playback position and fires
// early if the window before the estimated end is reached. A single
// compare-and-set claim per cycle guarantees at most one fire even when
// the timer, the poll, and a cancel race.
type Scheduler struct {
	cfg  Config
	pos  func() int64 // live playback position, microseconds
	fire FireFunc

	mu  sync.Mutex
	cur *cycle
}

type cycle struct {
	sessionID string
	claimed   atomic.Bool
	timer     *time.Timer
	stopPoll  chan struct{}
}

func New(cfg Config, pos func() int64, fire FireFunc) *Scheduler {
	return &Scheduler{cfg: cfg, pos: pos, fire: fire}
}

// Arm schedules the auto-trigger for a session, cancelling any prior
// cycle first. With an end estimate the one-shot aims at FireGuard before
// the end; without one it falls back to BackupDelay measured from session
// start (sessionAge is how much of that has already elapsed).
func (s *Scheduler) Arm(sessionID string, endMicros int64, hasEnd bool, sessionAge time.Duration) {
	s.Cancel()

	c := &cycle{sessionID: sessionID}

	if !hasEnd {
		delay := s.cfg.BackupDelay - sessionAge
		if delay < 0 {
			delay = 0
		}
		c.timer = time.AfterFunc(delay, func() {
			if c.claimed.CompareAndSwap(false, true) {
				s.fire(sessionID, "timer", 0)
			}
		})
		s.mu.Lock()
		s.cur = c
		s.mu.Unlock()
		return
	}

	remaining := time.Duration(endMicros-s.pos()) * time.Microsecond
	if remaining <= 0 {
		// Caption is already past its end; the next update will close
		// the session.
		return
	}
	if remaining <= s.cfg.FireGuard {
		if c.claimed.CompareAndSwap(false, true) {
			s.fire(sessionID, "timer", remaining)
		}
		return
	}

	delay := remaining - s.cfg.FireGuard
	if delay < s.cfg.MinDelay {
		delay = s.cfg.MinDelay
	}
	c.timer = time.AfterFunc(delay, func() {
		if c.claimed.CompareAndSwap(false, true) {
			rem := time.Duration(endMicros-s.pos()) * time.Microsecond
			s.fire(sessionID, "timer", rem)
		}
	})
	c.stopPoll = make(chan struct{})
	go s.poll(c, endMicros)

	s.mu.Lock()
	s.cur = c
	s.mu.Unlock()
}

// poll compensates for drift in the one-shot timer when playback position
// is externally seekable.
func (s *Scheduler) poll(c *cycle, endMicros int64) {
	ticker := time.NewTicker(s.cfg.PollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-c.stopPoll:
			return
		case <-ticker.C:
			if c.claimed.Load() {
				return
			}
			remaining := time.Duration(endMicros-s.pos()) * time.Microsecond
			if remaining > 0 && remaining <= s.cfg.PollWindow {
				if c.claimed.CompareAndSwap(false, true) {
					s.fire(c.sessionID, "poll", remaining)
				}
				return
			}
		}
	}
}

// Cancel stops the armed cycle, if any. Idempotent and race-free: a fire
// in flight when cancel claims the cycle never runs.
func (s *Scheduler) Cancel() {
	s.mu.Lock()
	c := s.cur
	s.cur = nil
	s.mu.Unlock()

	if c == nil {
		return
	}
	c.claimed.CompareAndSwap(false, true)
	if c.timer != nil {
		c.timer.Stop()
	}
	if c.stopPoll != nil {
		close(c.stopPoll)
	}
}

// Armed reports whether an unclaimed cycle is pending.
func (s *Scheduler) Armed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cur != nil && !s.cur.claimed.Load()
}
