package player

import (
	"strings"
	"testing"
	"time"
)

const sampleSRT = `1
00:00:01,000 --> 00:00:04,000
Hello world

2
00:00:05,500 --> 00:00:08,250
Second line
continues here

`

const sampleVTT = `WEBVTT

00:00:01.000 --> 00:00:04.000
<i>Hello</i> world

00:00:05.500 --> 00:00:08.250
Second <c.yellow>line</c>
`

func TestParseSRT(t *testing.T) {
	cues, err := Parse(strings.NewReader(sampleSRT))
	if err != nil {
		t.Fatal(err)
	}
	if len(cues) != 2 {
		t.Fatalf("got %d cues, want 2", len(cues))
	}
	if cues[0].Start != time.Second || cues[0].End != 4*time.Second {
		t.Errorf("cue 0 window = %v..%v", cues[0].Start, cues[0].End)
	}
	if cues[0].Text != "Hello world" {
		t.Errorf("cue 0 text = %q", cues[0].Text)
	}
	if cues[1].Text != "Second line\ncontinues here" {
		t.Errorf("cue 1 text = %q", cues[1].Text)
	}
	if cues[1].End != 8*time.Second+250*time.Millisecond {
		t.Errorf("cue 1 end = %v", cues[1].End)
	}
}

func TestParseVTTStripsTags(t *testing.T) {
	cues, err := Parse(strings.NewReader(sampleVTT))
	if err != nil {
		t.Fatal(err)
	}
	if len(cues) != 2 {
		t.Fatalf("got %d cues, want 2", len(cues))
	}
	if cues[0].Text != "Hello world" {
		t.Errorf("cue 0 text = %q", cues[0].Text)
	}
	if cues[1].Text != "Second line" {
		t.Errorf("cue 1 text = %q", cues[1].Text)
	}
}

func TestPlayerPauseFreezesPosition(t *testing.T) {
	p := New([]Cue{{Start: 0, End: 10 * time.Second, Text: "x"}})

	if p.PositionMicros() != 0 {
		t.Error("position should start at 0 while paused")
	}

	p.SetPlayWhenReady(true)
	time.Sleep(20 * time.Millisecond)
	p.SetPlayWhenReady(false)

	pos := p.PositionMicros()
	if pos <= 0 {
		t.Fatalf("position = %d after playing, want > 0", pos)
	}
	time.Sleep(20 * time.Millisecond)
	if p.PositionMicros() != pos {
		t.Error("position advanced while paused")
	}
}

func TestPlayerSeekClamps(t *testing.T) {
	p := New([]Cue{{Start: 0, End: 5 * time.Second, Text: "x"}})

	p.Seek(-time.Second)
	if p.PositionMicros() != 0 {
		t.Error("seek before start not clamped to 0")
	}

	p.Seek(time.Hour)
	if got := p.PositionMicros(); got != (5 * time.Second).Microseconds() {
		t.Errorf("seek past end = %d, want clamp to duration", got)
	}
}

func TestPlayerActiveUpdate(t *testing.T) {
	p := New([]Cue{
		{Start: 0, End: 2 * time.Second, Text: "first"},
		{Start: time.Second, End: 3 * time.Second, Text: "overlap"},
		{Start: 5 * time.Second, End: 6 * time.Second, Text: "later"},
	})

	p.Seek(1500 * time.Millisecond)
	u := p.Update()
	if len(u) != 2 {
		t.Fatalf("got %d active fragments, want 2", len(u))
	}
	if u[0].Text() != "first" || u[1].Text() != "overlap" {
		t.Errorf("fragments = %q, %q", u[0].Text(), u[1].Text())
	}

	p.Seek(10 * time.Second) // clamped to 6s, past all cues
	if len(p.Update()) != 0 {
		t.Error("expected empty update past the last cue")
	}
}

func TestCueFragmentEndTime(t *testing.T) {
	f := cueFragment{cue: Cue{Start: time.Second, End: 4 * time.Second, Text: "x"}}
	end, ok := f.EndMicros()
	if !ok || end != (4*time.Second).Microseconds() {
		t.Errorf("EndMicros = (%d, %v)", end, ok)
	}
}
