package selection

import (
	"errors"

	"github.com/rs/xid"

	"wordtap/dict"
	"wordtap/token"
)

type Mode int

const (
	Idle Mode = iota
	Selecting
	ShowingDefinition
)

func (m Mode) String() string {
	switch m {
	case Selecting:
		return "selecting"
	case ShowingDefinition:
		return "showing_definition"
	default:
		return "idle"
	}
}

// Command is a discrete user input. The caller falls through to its
// default key handling when a command is not consumed.
type Command int

const (
	CmdEnterFromStart Command = iota
	CmdEnterFromEnd
	CmdNavigateLeft
	CmdNavigateRight
	CmdConfirm
	CmdBack
	CmdScrollUp
	CmdScrollDown
)

// ErrNoCaption is reported when selection is entered with nothing to
// select.
var ErrNoCaption = errors.New("no caption available")

// Overlay renders highlights and definitions. Implementations receive
// calls on the engine sequencer and must not block.
type Overlay interface {
	ShowHighlight(start, end int)
	ClearHighlight()
	ShowDefinitionLoading(word string)
	ShowDefinition(res *dict.Result)
	HideDefinition()
	// ScrollDefinition scrolls the visible definition; it reports false
	// when the view is already at the end in that direction.
	ScrollDefinition(lines int) bool
}

// Playback is the engine's handle on the player.
type Playback interface {
	SetPlayWhenReady(bool)
}

// LookupStarter launches an async definition lookup. The token identifies
// the request so a response arriving after the word or session changed is
// dropped.
type LookupStarter func(word, sessionID, token string)

// Machine owns the selection state. All mutation happens through its
// methods, which the engine calls from a single goroutine.
type Machine struct {
	overlay     Overlay
	playback    Playback
	startLookup LookupStarter

	mode         Mode
	words        []token.Word
	idx          int
	sessionID    string
	pendingToken string
}

func NewMachine(overlay Overlay, playback Playback, startLookup LookupStarter) *Machine {
	return &Machine{overlay: overlay, playback: playback, startLookup: startLookup}
}

func (m *Machine) Mode() Mode { return m.mode }

func (m *Machine) SessionID() string { return m.sessionID }

func (m *Machine) CurrentWord() (token.Word, bool) {
	if m.mode == Idle || len(m.words) == 0 {
		return token.Word{}, false
	}
	return m.words[m.idx], true
}

// Enter transitions Idle -> Selecting, pausing playback and highlighting
// the first (or last, with fromEnd) word.
func (m *Machine) Enter(sessionID string, words []token.Word, fromEnd bool) error {
	if m.mode != Idle {
		return nil
	}
	if sessionID == "" || len(words) == 0 {
		return ErrNoCaption
	}
	m.mode = Selecting
	m.sessionID = sessionID
	m.words = words
	if fromEnd {
		m.idx = len(words) - 1
	} else {
		m.idx = 0
	}
	m.playback.SetPlayWhenReady(false)
	m.highlight()
	return nil
}

// AutoEnter is the scheduler-driven entry. A no-op when the user is
// already in a non-Idle mode or when there is nothing to select.
func (m *Machine) AutoEnter(sessionID string, words []token.Word) bool {
	if m.mode != Idle {
		return false
	}
	return m.Enter(sessionID, words, false) == nil
}

// Navigate moves the selection left or right with wraparound. Navigating
// while a definition is showing first drops back to Selecting.
func (m *Machine) Navigate(delta int) {
	if m.mode == Idle || len(m.words) == 0 {
		return
	}
	if m.mode == ShowingDefinition {
		m.dropDefinition()
	}
	n := len(m.words)
	m.idx = ((m.idx+delta)%n + n) % n
	m.highlight()
}

// Confirm starts a definition lookup for the current word and shows the
// loading placeholder.
func (m *Machine) Confirm() {
	if m.mode != Selecting || len(m.words) == 0 {
		return
	}
	w := m.words[m.idx]
	m.mode = ShowingDefinition
	m.pendingToken = xid.New().String()
	m.overlay.ShowDefinitionLoading(w.Text)
	m.startLookup(w.Text, m.sessionID, m.pendingToken)
}

// ApplyResult delivers a completed lookup. Stale responses (the mode,
// session, or word moved on) are discarded; it reports whether the
// result was applied.
func (m *Machine) ApplyResult(reqToken string, res *dict.Result) bool {
	if m.mode != ShowingDefinition || reqToken == "" || reqToken != m.pendingToken {
		return false
	}
	m.overlay.ShowDefinition(res)
	return true
}

// Back steps ShowingDefinition -> Selecting, or exits Selecting -> Idle.
func (m *Machine) Back() {
	switch m.mode {
	case ShowingDefinition:
		m.dropDefinition()
		m.highlight()
	case Selecting:
		m.Exit()
	}
}

// Scroll forwards to the overlay while a definition is showing. Scrolling
// down past the end exits back to Selecting.
func (m *Machine) Scroll(lines int) {
	if m.mode != ShowingDefinition {
		return
	}
	if !m.overlay.ScrollDefinition(lines) && lines > 0 {
		m.dropDefinition()
		m.highlight()
	}
}

// SetWords installs a re-tokenized word list after a same-identity
// content refresh, preserving the index when the lists are related.
func (m *Machine) SetWords(words []token.Word) {
	if m.mode == Idle {
		return
	}
	if len(words) == 0 {
		m.Exit()
		return
	}
	m.idx = token.PreserveIndex(m.words, words, m.idx)
	m.words = words
	if m.mode == Selecting {
		m.highlight()
	}
}

// Exit forces the machine to Idle from any state: clears the overlay,
// invalidates any in-flight lookup, and resumes playback.
func (m *Machine) Exit() {
	if m.mode == Idle {
		return
	}
	m.pendingToken = ""
	m.overlay.HideDefinition()
	m.overlay.ClearHighlight()
	m.playback.SetPlayWhenReady(true)
	m.mode = Idle
	m.words = nil
	m.idx = 0
	m.sessionID = ""
}

// HandleCommand dispatches a user command and reports whether it was
// consumed. Enter commands are the engine's job (they need the current
// session and word list) and are never consumed here.
func (m *Machine) HandleCommand(cmd Command) bool {
	if m.mode == Idle {
		return false
	}
	switch cmd {
	case CmdNavigateLeft:
		m.Navigate(-1)
	case CmdNavigateRight:
		m.Navigate(1)
	case CmdConfirm:
		m.Confirm()
	case CmdBack:
		m.Back()
	case CmdScrollUp:
		m.Scroll(-1)
	case CmdScrollDown:
		m.Scroll(1)
	default:
		return false
	}
	return true
}

func (m *Machine) dropDefinition() {
	m.pendingToken = ""
	m.overlay.HideDefinition()
	m.mode = Selecting
}

func (m *Machine) highlight() {
	if len(m.words) == 0 {
		return
	}
	w := m.words[m.idx]
	m.overlay.ShowHighlight(w.Start, w.End)
}
