package usecases

import "errors"

// User-facing errors for the music module. Errors from the domain state
// machine (domain.ErrNotConnected and friends) pass through unchanged.
var (
	// ErrEmptyQuery is returned when a play request has no query text.
	ErrEmptyQuery = errors.New("nothing to play, give me a URL or a search phrase")

	// ErrUserNotInVoice is returned when the user is not in a voice channel.
	ErrUserNotInVoice = errors.New("you must be in a voice channel")

	// ErrNoResults is returned when a lookup yields no playable tracks.
	ErrNoResults = errors.New("no results found")

	// ErrQueueEmpty is returned when the queue is empty.
	ErrQueueEmpty = errors.New("the queue is empty")

	// ErrNothingToClear is returned when there are no upcoming tracks to remove.
	ErrNothingToClear = errors.New("nothing to clear")

	// ErrLoadFailed is returned when the lookup service fails.
	ErrLoadFailed = errors.New("failed to load track")
)
