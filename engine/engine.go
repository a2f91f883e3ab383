package engine

import (
	"context"
	"time"

	"wordtap/caption"
	"wordtap/dict"
	"wordtap/log"
	"wordtap/selection"
	"wordtap/token"
	"wordtap/trigger"
)

// Player is the engine's view of the video player.
type Player interface {
	PositionMicros() int64
	SetPlayWhenReady(bool)
}

// Lookup resolves a word to a formatted definition. Never errors; see
// dict.Service.
type Lookup interface {
	Lookup(ctx context.Context, word string) *dict.Result
}

type Config struct {
	Trigger trigger.Config
	// Notify receives user-facing notices ("no caption available").
	// Optional.
	Notify func(string)
}

func DefaultConfig() Config {
	return Config{Trigger: trigger.DefaultConfig()}
}

// Engine sequences the whole subsystem. Caption updates, trigger fires,
// user commands, and lookup completions all execute on one goroutine, so
// no transition ever interleaves with another. Network lookups run on
// worker goroutines and marshal their results back onto the sequencer.
type Engine struct {
	cfg     Config
	player  Player
	lookup  Lookup
	tracker *caption.Tracker
	sched   *trigger.Scheduler
	machine *selection.Machine

	calls   chan func()
	ctx     context.Context
	cancel  context.CancelFunc
	lookups int
}

func New(cfg Config, player Player, overlay selection.Overlay, lookup Lookup) *Engine {
	ctx, cancel := context.WithCancel(context.Background())
	e := &Engine{
		cfg:     cfg,
		player:  player,
		lookup:  lookup,
		tracker: caption.NewTracker(),
		calls:   make(chan func(), 64),
		ctx:     ctx,
		cancel:  cancel,
	}
	e.machine = selection.NewMachine(overlay, player, e.startLookup)
	e.sched = trigger.New(cfg.Trigger, player.PositionMicros, e.onFire)
	return e
}

// Start spawns the sequencer goroutine.
func (e *Engine) Start() {
	go e.run()
}

// Stop shuts the sequencer down and cancels any armed trigger.
func (e *Engine) Stop() {
	e.sched.Cancel()
	e.cancel()
}

// LookupCount returns how many lookups were issued this run.
func (e *Engine) LookupCount() int {
	reply := make(chan int, 1)
	if !e.post(func() { reply <- e.lookups }) {
		return 0
	}
	select {
	case n := <-reply:
		return n
	case <-e.ctx.Done():
		return 0
	}
}

func (e *Engine) run() {
	for {
		select {
		case <-e.ctx.Done():
			return
		case f := <-e.calls:
			f()
		}
	}
}

func (e *Engine) post(f func()) bool {
	select {
	case e.calls <- f:
		return true
	case <-e.ctx.Done():
		return false
	}
}

// OnCaptionUpdate accepts a player snapshot. Safe to call from any
// goroutine; processing happens on the sequencer in arrival order.
func (e *Engine) OnCaptionUpdate(u caption.Update) {
	e.post(func() { e.handleUpdate(u) })
}

func (e *Engine) handleUpdate(u caption.Update) {
	ev, s := e.tracker.Update(u, time.Now())
	switch ev {
	case caption.SessionStarted:
		log.CaptionSession(ev.String(), s.ID, len(s.Text))
		e.arm(s)

	case caption.SessionChanged:
		log.CaptionSession(ev.String(), s.ID, len(s.Text))
		// The old session's selection never survives: exit first, let
		// the fresh arm re-enter via auto-trigger if it comes to that.
		e.sched.Cancel()
		e.machine.Exit()
		e.arm(s)

	case caption.SessionEnded:
		log.CaptionSession(ev.String(), s.ID, 0)
		e.sched.Cancel()
		e.machine.Exit()

	case caption.EventNone:
		if s != nil && e.machine.Mode() != selection.Idle && e.machine.SessionID() == s.ID {
			e.machine.SetWords(token.Tokenize(s.Text))
		}
	}
}

func (e *Engine) arm(s *caption.Session) {
	e.sched.Arm(s.ID, s.EndMicros, s.HasEnd, time.Since(s.FirstSeen))
}

// onFire runs on a timer or poll goroutine; the actual entry decision is
// made on the sequencer against the then-current session.
func (e *Engine) onFire(sessionID, source string, remaining time.Duration) {
	e.post(func() {
		cur := e.tracker.Current()
		if cur == nil || cur.ID != sessionID {
			return
		}
		words := token.Tokenize(cur.Text)
		if e.machine.AutoEnter(cur.ID, words) {
			log.AutoTrigger(sessionID, source, float64(remaining.Milliseconds()))
		}
	})
}

// Input dispatches a user command and reports whether it was consumed,
// so the caller can fall through to its default key handling.
func (e *Engine) Input(cmd selection.Command) bool {
	reply := make(chan bool, 1)
	if !e.post(func() { reply <- e.handleInput(cmd) }) {
		return false
	}
	select {
	case consumed := <-reply:
		return consumed
	case <-e.ctx.Done():
		return false
	}
}

func (e *Engine) handleInput(cmd selection.Command) bool {
	switch cmd {
	case selection.CmdEnterFromStart, selection.CmdEnterFromEnd:
		if e.machine.Mode() != selection.Idle {
			return true
		}
		if err := e.enter(cmd == selection.CmdEnterFromEnd); err != nil {
			e.notify(err.Error())
		}
		return true
	default:
		wasActive := e.machine.Mode() != selection.Idle
		consumed := e.machine.HandleCommand(cmd)
		if wasActive && e.machine.Mode() == selection.Idle {
			// Manual exit; the armed trigger must not re-enter.
			e.sched.Cancel()
		}
		return consumed
	}
}

func (e *Engine) enter(fromEnd bool) error {
	cur := e.tracker.Current()
	if cur == nil {
		return selection.ErrNoCaption
	}
	words := token.Tokenize(cur.Text)
	if err := e.machine.Enter(cur.ID, words, fromEnd); err != nil {
		return err
	}
	e.sched.Cancel()
	return nil
}

// startLookup is invoked by the state machine on the sequencer. The
// network call runs on a worker goroutine; the result posts back and is
// validated against the request token before touching any state.
func (e *Engine) startLookup(word, sessionID, reqToken string) {
	e.lookups++
	log.LookupText(word)
	go func() {
		res := e.lookup.Lookup(e.ctx, word)
		e.post(func() {
			if !e.machine.ApplyResult(reqToken, res) {
				log.Info("stale_lookup_dropped: " + word)
			}
		})
	}()
}

func (e *Engine) notify(msg string) {
	if e.cfg.Notify != nil {
		e.cfg.Notify(msg)
	}
	log.Info("notice: " + msg)
}
