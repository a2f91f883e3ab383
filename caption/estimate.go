package caption

// Estimate returns the disappearance time of an update: the latest
// authoritative end time across its fragments. It reports false when no
// fragment exposes one, in which case the caller must fall back to an
// elapsed-time heuristic.
func Estimate(u Update) (int64, bool) {
	var end int64
	found := false
	for _, f := range u {
		timed, ok := f.(HasEndTime)
		if !ok {
			continue
		}
		t, ok := timed.EndMicros()
		if !ok {
			continue
		}
		if !found || t > end {
			end = t
			found = true
		}
	}
	return end, found
}
