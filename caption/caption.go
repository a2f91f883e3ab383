package caption

// Fragment is one unit of subtitle text active at a given moment, as
// supplied by the player.
type Fragment interface {
	Text() string
}

// HasEndTime is implemented by fragments whose source format carries an
// authoritative display end time (microseconds of media time). The engine
// only ever asks through this interface; it never inspects concrete
// caption formats.
type HasEndTime interface {
	EndMicros() (int64, bool)
}

// TextFragment is a bare fragment with no timing information.
type TextFragment string

func (f TextFragment) Text() string { return string(f) }

// TimedFragment carries an explicit end time.
type TimedFragment struct {
	Body string
	End  int64 // microseconds of media time
}

func (f TimedFragment) Text() string { return f.Body }

func (f TimedFragment) EndMicros() (int64, bool) { return f.End, true }

// Update is an immutable snapshot of the caption fragments currently on
// screen. An empty update means "no caption".
type Update []Fragment
