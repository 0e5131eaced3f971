package domain

// Queue is a strict FIFO of tracks. The head element, when present, is
// the track currently rendering (or about to render) in the owning
// session; there is never more than one rendering track per session.
//
// Queue is not safe for concurrent use; the owning Session serializes
// access to it.
type Queue struct {
	tracks []Track
}

// NewQueue creates a new empty Queue.
func NewQueue() Queue {
	return Queue{tracks: make([]Track, 0)}
}

// Len returns the number of tracks in the queue, including the head.
func (q *Queue) Len() int {
	return len(q.tracks)
}

// IsEmpty returns true if the queue has no tracks.
func (q *Queue) IsEmpty() bool {
	return len(q.tracks) == 0
}

// Enqueue appends a track to the end of the queue and returns its
// 0-indexed position (0 = rendering slot).
func (q *Queue) Enqueue(t Track) int {
	q.tracks = append(q.tracks, t)
	return len(q.tracks) - 1
}

// Head returns the track in the rendering slot, or nil if the queue is empty.
func (q *Queue) Head() *Track {
	if len(q.tracks) == 0 {
		return nil
	}
	return &q.tracks[0]
}

// Advance pops the head and returns the new head, or nil if the queue is
// now empty. Callers invoke this exactly once per completed render.
func (q *Queue) Advance() *Track {
	if len(q.tracks) == 0 {
		return nil
	}
	q.tracks = q.tracks[1:]
	return q.Head()
}

// Upcoming returns a copy of the tracks waiting behind the head.
func (q *Queue) Upcoming() []Track {
	if len(q.tracks) <= 1 {
		return nil
	}
	upcoming := make([]Track, len(q.tracks)-1)
	copy(upcoming, q.tracks[1:])
	return upcoming
}

// List returns a copy of all tracks in the queue, head first.
func (q *Queue) List() []Track {
	result := make([]Track, len(q.tracks))
	copy(result, q.tracks)
	return result
}

// ClearUpcoming removes every track behind the head and returns how many
// were removed. The rendering slot is untouched.
func (q *Queue) ClearUpcoming() int {
	if len(q.tracks) <= 1 {
		return 0
	}
	removed := len(q.tracks) - 1
	q.tracks = q.tracks[:1]
	return removed
}

// Clear removes all tracks, including the head.
func (q *Queue) Clear() {
	q.tracks = q.tracks[:0]
}
