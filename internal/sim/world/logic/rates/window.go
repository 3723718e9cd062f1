package rates

// Window is a fixed-window counter. Times are in any monotonic unit as long
// as Span uses the same one.
type Window struct {
	Span uint64
	Max  int

	start uint64
	count int
}

// Allow counts one event at now. When the window is full it reports how long
// until the window resets.
func (w *Window) Allow(now uint64) (ok bool, retryAfter uint64) {
	if w.Span == 0 || w.Max <= 0 {
		return true, 0
	}
	if now < w.start || now-w.start >= w.Span {
		w.start = now
		w.count = 0
	}
	w.count++
	if w.count <= w.Max {
		return true, 0
	}
	return false, (w.start + w.Span) - now
}
