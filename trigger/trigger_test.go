package trigger

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func testConfig() Config {
	return Config{
		FireGuard:    5 * time.Millisecond,
		MinDelay:     10 * time.Millisecond,
		BackupDelay:  40 * time.Millisecond,
		PollInterval: 5 * time.Millisecond,
		PollWindow:   100 * time.Microsecond,
	}
}

type fireRecorder struct {
	mu     sync.Mutex
	count  int32
	id     string
	source string
	done   chan struct{}
	once   sync.Once
}

func newFireRecorder() *fireRecorder {
	return &fireRecorder{done: make(chan struct{})}
}

func (f *fireRecorder) fire(sessionID, source string, _ time.Duration) {
	atomic.AddInt32(&f.count, 1)
	f.mu.Lock()
	f.id = sessionID
	f.source = source
	f.mu.Unlock()
	f.once.Do(func() { close(f.done) })
}

func (f *fireRecorder) waitFire(t *testing.T) {
	t.Helper()
	select {
	case <-f.done:
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for fire")
	}
}

// wallClock positions playback at wall time elapsed since construction.
func wallClock() func() int64 {
	start := time.Now()
	return func() int64 { return time.Since(start).Microseconds() }
}

func TestArmFiresOnceBeforeDeadline(t *testing.T) {
	fr := newFireRecorder()
	pos := wallClock()
	s := New(testConfig(), pos, fr.fire)

	s.Arm("sess-1", pos()+30_000, true, 0)
	fr.waitFire(t)

	if fr.id != "sess-1" {
		t.Errorf("fired for %q, want sess-1", fr.id)
	}
	time.Sleep(50 * time.Millisecond)
	if n := atomic.LoadInt32(&fr.count); n != 1 {
		t.Errorf("fired %d times, want 1", n)
	}
}

func TestArmImmediateWhenInsideGuard(t *testing.T) {
	fr := newFireRecorder()
	pos := wallClock()
	s := New(testConfig(), pos, fr.fire)

	// Deadline 2ms out, guard 5ms: fires synchronously.
	s.Arm("sess-now", pos()+2_000, true, 0)
	if n := atomic.LoadInt32(&fr.count); n != 1 {
		t.Fatalf("fired %d times, want immediate single fire", n)
	}
}

func TestArmPastDeadlineDoesNotFire(t *testing.T) {
	fr := newFireRecorder()
	pos := wallClock()
	s := New(testConfig(), pos, fr.fire)

	s.Arm("sess-late", pos()-1_000, true, 0)
	time.Sleep(30 * time.Millisecond)
	if n := atomic.LoadInt32(&fr.count); n != 0 {
		t.Errorf("fired %d times for past deadline, want 0", n)
	}
}

func TestBackupDelayWithoutEstimate(t *testing.T) {
	fr := newFireRecorder()
	s := New(testConfig(), wallClock(), fr.fire)

	start := time.Now()
	s.Arm("sess-backup", 0, false, 0)
	fr.waitFire(t)

	elapsed := time.Since(start)
	if elapsed < 30*time.Millisecond {
		t.Errorf("backup fired after %v, want >= ~40ms", elapsed)
	}
}

func TestBackupDelayAccountsForSessionAge(t *testing.T) {
	fr := newFireRecorder()
	s := New(testConfig(), wallClock(), fr.fire)

	start := time.Now()
	s.Arm("sess-aged", 0, false, 35*time.Millisecond)
	fr.waitFire(t)

	if elapsed := time.Since(start); elapsed > 30*time.Millisecond {
		t.Errorf("aged backup fired after %v, want ~5ms", elapsed)
	}
}

func TestCancelPreventsFire(t *testing.T) {
	fr := newFireRecorder()
	pos := wallClock()
	s := New(testConfig(), pos, fr.fire)

	s.Arm("sess-c", pos()+30_000, true, 0)
	s.Cancel()
	s.Cancel() // idempotent

	time.Sleep(60 * time.Millisecond)
	if n := atomic.LoadInt32(&fr.count); n != 0 {
		t.Errorf("fired %d times after cancel, want 0", n)
	}
	if s.Armed() {
		t.Error("Armed() true after cancel")
	}
}

func TestArmSupersedesPreviousCycle(t *testing.T) {
	fr := newFireRecorder()
	pos := wallClock()
	s := New(testConfig(), pos, fr.fire)

	s.Arm("sess-old", pos()+30_000, true, 0)
	s.Arm("sess-new", pos()+30_000, true, 0)
	fr.waitFire(t)

	time.Sleep(50 * time.Millisecond)
	if n := atomic.LoadInt32(&fr.count); n != 1 {
		t.Fatalf("fired %d times, want 1", n)
	}
	if fr.id != "sess-new" {
		t.Errorf("fired for %q, want sess-new", fr.id)
	}
}

func TestPollFiresEarlyOnSeek(t *testing.T) {
	cfg := testConfig()
	cfg.PollWindow = 20 * time.Millisecond
	cfg.MinDelay = 10 * time.Millisecond

	// Position frozen far from the deadline, then seeks close to it: the
	// one-shot (armed for ~1s out) cannot win, the poll must.
	var posMicros atomic.Int64
	posMicros.Store(0)

	fr := newFireRecorder()
	s := New(cfg, posMicros.Load, fr.fire)

	s.Arm("sess-seek", 1_000_000, true, 0)
	time.Sleep(15 * time.Millisecond)
	posMicros.Store(990_000) // 10ms before the end, inside the window

	fr.waitFire(t)
	if fr.source != "poll" {
		t.Errorf("fired via %q, want poll", fr.source)
	}
	time.Sleep(30 * time.Millisecond)
	if n := atomic.LoadInt32(&fr.count); n != 1 {
		t.Errorf("fired %d times, want 1", n)
	}
}

func TestArmCancelStress(t *testing.T) {
	fr := newFireRecorder()
	pos := wallClock()
	s := New(testConfig(), pos, fr.fire)

	// Arm/cancel churn must never produce more than one fire per
	// surviving cycle; here every cycle is cancelled, so zero fires.
	for i := 0; i < 50; i++ {
		s.Arm("sess-stress", pos()+8_000, true, 0)
		s.Cancel()
	}
	time.Sleep(40 * time.Millisecond)
	if n := atomic.LoadInt32(&fr.count); n != 0 {
		t.Errorf("fired %d times under arm/cancel churn, want 0", n)
	}
}
