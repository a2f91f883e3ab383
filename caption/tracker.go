package caption

import (
	"fmt"
	"hash/fnv"
	"strings"
	"time"
)

// Session is the contiguous lifetime of one logically distinct caption,
// from appearance to disappearance. Owned exclusively by the Tracker.
type Session struct {
	ID        string
	Text      string // merged fragment text, newline-joined
	EndMicros int64
	HasEnd    bool
	FirstSeen time.Time
}

type Event int

const (
	EventNone Event = iota
	SessionStarted
	SessionChanged
	SessionEnded
)

func (e Event) String() string {
	switch e {
	case SessionStarted:
		return "caption_started"
	case SessionChanged:
		return "caption_changed"
	case SessionEnded:
		return "caption_ended"
	default:
		return "none"
	}
}

// Tracker computes caption identity from player updates and drives the
// session lifecycle. At most one session is current at a time; a new
// session always fully supersedes the previous one.
type Tracker struct {
	cur *Session
}

func NewTracker() *Tracker {
	return &Tracker{}
}

// Current returns the active session, or nil when no caption is showing.
func (t *Tracker) Current() *Session {
	return t.cur
}

// Update folds one player snapshot into the session lifecycle. It returns
// the lifecycle event and the session it applies to: the new session for
// SessionStarted/SessionChanged, the closed one for SessionEnded, and the
// current one (text refreshed verbatim) for EventNone.
func (t *Tracker) Update(u Update, now time.Time) (Event, *Session) {
	if len(u) == 0 {
		if t.cur == nil {
			return EventNone, nil
		}
		old := t.cur
		t.cur = nil
		return SessionEnded, old
	}

	id := identity(u)
	end, hasEnd := Estimate(u)
	text := mergeText(u)

	if t.cur == nil {
		t.cur = &Session{
			ID:        id,
			Text:      text,
			EndMicros: end,
			HasEnd:    hasEnd,
			FirstSeen: now,
		}
		return SessionStarted, t.cur
	}

	if id == t.cur.ID {
		// Same caption; keep identity but refresh content so the
		// tokenizer sees formatting-only differences.
		t.cur.Text = text
		t.cur.EndMicros = end
		t.cur.HasEnd = hasEnd
		return EventNone, t.cur
	}

	// Supersede. FirstSeen carries over: the caption slot has been
	// continuously occupied since the original appearance.
	t.cur = &Session{
		ID:        id,
		Text:      text,
		EndMicros: end,
		HasEnd:    hasEnd,
		FirstSeen: t.cur.FirstSeen,
	}
	return SessionChanged, t.cur
}

func identity(u Update) string {
	h := fnv.New64a()
	for _, f := range u {
		h.Write([]byte(f.Text()))
	}
	return fmt.Sprintf("%016x", h.Sum64())
}

func mergeText(u Update) string {
	parts := make([]string, 0, len(u))
	for _, f := range u {
		parts = append(parts, f.Text())
	}
	return strings.Join(parts, "\n")
}
