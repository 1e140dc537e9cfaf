package playlist

// InsertionQueue holds explicit "play next" requests.
// The front plays first; new inserts always go to the front.
type InsertionQueue struct {
	tracks []Track
}

// NewQueue creates a new empty insertion queue.
func NewQueue() *InsertionQueue {
	return &InsertionQueue{
		tracks: make([]Track, 0),
	}
}

// PushFront makes t the immediate next track.
func (q *InsertionQueue) PushFront(t Track) {
	q.tracks = append(q.tracks, Track{})
	copy(q.tracks[1:], q.tracks)
	q.tracks[0] = t
}

// PopFront removes and returns the first track.
// Returns false if the queue is empty.
func (q *InsertionQueue) PopFront() (Track, bool) {
	if len(q.tracks) == 0 {
		return Track{}, false
	}
	t := q.tracks[0]
	q.tracks = append(q.tracks[:0], q.tracks[1:]...)
	return t, true
}

// Peek returns the first track without removing it.
func (q *InsertionQueue) Peek() (Track, bool) {
	if len(q.tracks) == 0 {
		return Track{}, false
	}
	return q.tracks[0], true
}

// RemoveAt removes the track at the given index.
// Returns false if index is out of bounds.
func (q *InsertionQueue) RemoveAt(index int) bool {
	if index < 0 || index >= len(q.tracks) {
		return false
	}
	q.tracks = append(q.tracks[:index], q.tracks[index+1:]...)
	return true
}

// Clear removes all tracks.
func (q *InsertionQueue) Clear() {
	q.tracks = q.tracks[:0]
}

// Tracks returns a copy of the queued tracks in play order.
func (q *InsertionQueue) Tracks() []Track {
	result := make([]Track, len(q.tracks))
	copy(result, q.tracks)
	return result
}

// Len returns the number of queued tracks.
func (q *InsertionQueue) Len() int {
	return len(q.tracks)
}

// IsEmpty returns true if nothing is queued.
func (q *InsertionQueue) IsEmpty() bool {
	return len(q.tracks) == 0
}
