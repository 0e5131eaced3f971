package domain

import (
	"strconv"
	"time"
)

// Track represents a resolved, playable audio track.
// A Track is immutable once created.
type Track struct {
	SourceLocator string // URL the render primitive streams from
	Title         string
	Duration      time.Duration
}

// NewTrack creates a new Track.
func NewTrack(sourceLocator, title string, duration time.Duration) Track {
	return Track{
		SourceLocator: sourceLocator,
		Title:         title,
		Duration:      duration,
	}
}

// IsValid returns true if the track has the minimum required fields.
func (t Track) IsValid() bool {
	return t.SourceLocator != "" && t.Title != ""
}

// FormattedDuration returns the duration as a human-readable string (mm:ss or hh:mm:ss).
func (t Track) FormattedDuration() string {
	totalSeconds := int(t.Duration.Seconds())
	hours := totalSeconds / 3600
	minutes := (totalSeconds % 3600) / 60
	seconds := totalSeconds % 60

	if hours > 0 {
		return pad(hours) + ":" + pad(minutes) + ":" + pad(seconds)
	}
	return pad(minutes) + ":" + pad(seconds)
}

func pad(n int) string {
	if n < 10 {
		return "0" + strconv.Itoa(n)
	}
	return strconv.Itoa(n)
}
