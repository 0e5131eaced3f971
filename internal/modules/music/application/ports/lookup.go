package ports

import (
	"context"
	"time"
)

// TrackInfo contains information about a track returned by the lookup
// service.
type TrackInfo struct {
	Locator  string // canonical URL usable as a render source locator
	Title    string
	Duration time.Duration
}

// MediaLookup defines the interface to the external media-lookup service.
// Both calls may fail with network or not-found errors; callers decide
// about retries.
type MediaLookup interface {
	// LoadDirect resolves a direct URL to exactly one track.
	// An unresolvable URL yields an empty slice, not an error.
	LoadDirect(ctx context.Context, url string) ([]TrackInfo, error)

	// Search resolves a free-text phrase to up to limit ranked candidates.
	Search(ctx context.Context, phrase string, limit int) ([]TrackInfo, error)
}
