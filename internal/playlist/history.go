package playlist

// DefaultHistorySize is the number of tracks kept in a session history.
const DefaultHistorySize = 50

// History is a bounded, most-recent-first list of played tracks.
type History struct {
	tracks  []Track
	maxSize int
}

// NewHistory creates a history holding at most maxSize tracks.
func NewHistory(maxSize int) *History {
	if maxSize <= 0 {
		maxSize = DefaultHistorySize
	}
	return &History{
		tracks:  make([]Track, 0, maxSize),
		maxSize: maxSize,
	}
}

// Push records t as the most recent track and trims the oldest entries.
func (h *History) Push(t Track) {
	h.tracks = append(h.tracks, Track{})
	copy(h.tracks[1:], h.tracks)
	h.tracks[0] = t

	if len(h.tracks) > h.maxSize {
		h.tracks = h.tracks[:h.maxSize]
	}
}

// Restore replaces the history with tracks (most recent first).
// Used when the history is mirrored back from the cloud document.
func (h *History) Restore(tracks []Track) {
	if len(tracks) > h.maxSize {
		tracks = tracks[:h.maxSize]
	}
	h.tracks = append(h.tracks[:0], tracks...)
}

// Tracks returns a copy of the history, most recent first.
func (h *History) Tracks() []Track {
	result := make([]Track, len(h.tracks))
	copy(result, h.tracks)
	return result
}

// Len returns the number of tracks in the history.
func (h *History) Len() int {
	return len(h.tracks)
}

// Clear drops every entry.
func (h *History) Clear() {
	h.tracks = h.tracks[:0]
}
