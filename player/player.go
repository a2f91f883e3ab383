package player

import (
	"context"
	"sync"
	"time"

	"wordtap/caption"
)

// cueFragment adapts a Cue to the engine's caption model, exposing the
// cue's authoritative end time through the capability interface.
type cueFragment struct {
	cue Cue
}

func (f cueFragment) Text() string { return f.cue.Text }

func (f cueFragment) EndMicros() (int64, bool) { return f.cue.End.Microseconds(), true }

// Player simulates playback of a cue list against the wall clock. It is
// the engine's Playback collaborator: position is pausable and seekable,
// and the scan loop pushes a caption update whenever the set of active
// cues changes.
type Player struct {
	mu        sync.Mutex
	cues      []Cue
	base      time.Duration // position when last paused/resumed
	resumedAt time.Time
	playing   bool
}

func New(cues []Cue) *Player {
	return &Player{cues: cues}
}

func (p *Player) position() time.Duration {
	if !p.playing {
		return p.base
	}
	return p.base + time.Since(p.resumedAt)
}

// PositionMicros returns the current playback position in microseconds
// of media time.
func (p *Player) PositionMicros() int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.position().Microseconds()
}

// SetPlayWhenReady pauses or resumes playback. Idempotent.
func (p *Player) SetPlayWhenReady(play bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if play == p.playing {
		return
	}
	if play {
		p.resumedAt = time.Now()
	} else {
		p.base = p.position()
	}
	p.playing = play
}

func (p *Player) Playing() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.playing
}

// Seek jumps by delta (negative rewinds), clamped to [0, Duration].
func (p *Player) Seek(delta time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	pos := p.position() + delta
	if pos < 0 {
		pos = 0
	}
	if end := p.duration(); pos > end {
		pos = end
	}
	p.base = pos
	p.resumedAt = time.Now()
}

func (p *Player) duration() time.Duration {
	var end time.Duration
	for _, c := range p.cues {
		if c.End > end {
			end = c.End
		}
	}
	return end
}

func (p *Player) Duration() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.duration()
}

// Done reports whether playback ran past the last cue.
func (p *Player) Done() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.position() >= p.duration()
}

// Update builds the caption snapshot for the current position.
func (p *Player) Update() caption.Update {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.updateAt(p.position())
}

func (p *Player) updateAt(pos time.Duration) caption.Update {
	var u caption.Update
	for _, c := range p.cues {
		if pos >= c.Start && pos < c.End {
			u = append(u, cueFragment{cue: c})
		}
	}
	return u
}

const scanInterval = 50 * time.Millisecond

// Run scans for active-cue changes and emits snapshots until the context
// ends. Emission happens on change only; the first scan always emits so
// the consumer sees the initial state.
func (p *Player) Run(ctx context.Context, emit func(caption.Update)) {
	ticker := time.NewTicker(scanInterval)
	defer ticker.Stop()

	var lastKey string
	first := true
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			u := p.Update()
			key := updateKey(u)
			if first || key != lastKey {
				first = false
				lastKey = key
				emit(u)
			}
		}
	}
}

func updateKey(u caption.Update) string {
	key := ""
	for _, f := range u {
		key += f.Text() + "\x00"
	}
	return key
}
