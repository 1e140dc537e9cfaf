package playback

import "time"

const (
	errorWindow = 3 * time.Second
	errorLimit  = 5
)

// errorBreaker counts consecutive playback errors. The count resets when
// more than window elapsed since the previous error.
type errorBreaker struct {
	count  int
	last   time.Time
	window time.Duration
	limit  int
}

func newErrorBreaker() errorBreaker {
	return errorBreaker{window: errorWindow, limit: errorLimit}
}

// record registers an error at now and reports whether the limit was
// reached. The counter resets after tripping.
func (b *errorBreaker) record(now time.Time) bool {
	if b.last.IsZero() || now.Sub(b.last) > b.window {
		b.count = 0
	}
	b.last = now
	b.count++
	if b.count >= b.limit {
		b.count = 0
		return true
	}
	return false
}
