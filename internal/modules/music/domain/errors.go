package domain

import "errors"

// State machine errors. These are the session's precondition and
// validation failures; they are reported to the user and mutate nothing.
var (
	// ErrNotConnected is returned when an operation requires the session
	// to be connected to a voice channel.
	ErrNotConnected = errors.New("not connected to a voice channel")

	// ErrNotPlaying is returned when no track is currently rendering.
	ErrNotPlaying = errors.New("nothing is currently playing")

	// ErrAlreadyPaused is returned when trying to pause while already paused.
	ErrAlreadyPaused = errors.New("playback is already paused")

	// ErrNotPaused is returned when trying to resume while not paused.
	ErrNotPaused = errors.New("playback is not paused")

	// ErrVolumeOutOfRange is returned for volume values outside [0.0, 2.0].
	ErrVolumeOutOfRange = errors.New("volume must be between 0 and 200")
)
