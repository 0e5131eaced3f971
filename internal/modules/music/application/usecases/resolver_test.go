package usecases

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mizuki0306/cadence/internal/modules/music/application/ports"
)

func trackInfo(title string) ports.TrackInfo {
	return ports.TrackInfo{
		Locator:  "https://example.com/" + title,
		Title:    title,
		Duration: 3 * time.Minute,
	}
}

func TestResolverService_Resolve_DirectURL_ReturnsSingle(t *testing.T) {
	lookup := &mockLookup{directResults: []ports.TrackInfo{trackInfo("track-1")}}
	service := NewResolverService(lookup)

	resolution, err := service.Resolve(context.Background(), "https://example.com/track-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resolution.Single == nil {
		t.Fatal("expected a single resolution for a direct URL")
	}
	if resolution.Single.Title != "track-1" {
		t.Errorf("expected title track-1, got %q", resolution.Single.Title)
	}
	if len(resolution.Candidates) != 0 {
		t.Errorf("expected no candidates, got %d", len(resolution.Candidates))
	}
}

func TestResolverService_Resolve_SearchPhrase_ReturnsCandidates(t *testing.T) {
	lookup := &mockLookup{searchResults: []ports.TrackInfo{
		trackInfo("result-1"),
		trackInfo("result-2"),
		trackInfo("result-3"),
	}}
	service := NewResolverService(lookup)

	resolution, err := service.Resolve(context.Background(), "some song")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resolution.Single != nil {
		t.Error("expected no single resolution for a search phrase")
	}
	if len(resolution.Candidates) != 3 {
		t.Fatalf("expected 3 candidates, got %d", len(resolution.Candidates))
	}
	if lookup.lastLimit != CandidateLimit {
		t.Errorf("expected search limit %d, got %d", CandidateLimit, lookup.lastLimit)
	}
}

func TestResolverService_Resolve_SingleSearchHit_StillCandidates(t *testing.T) {
	lookup := &mockLookup{searchResults: []ports.TrackInfo{trackInfo("only-hit")}}
	service := NewResolverService(lookup)

	resolution, err := service.Resolve(context.Background(), "some song")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resolution.Single != nil {
		t.Error("a single search hit must still require selection")
	}
	if len(resolution.Candidates) != 1 {
		t.Fatalf("expected 1 candidate, got %d", len(resolution.Candidates))
	}
}

func TestResolverService_Resolve_CapsCandidates(t *testing.T) {
	results := make([]ports.TrackInfo, 8)
	for i := range results {
		results[i] = trackInfo("result")
	}
	lookup := &mockLookup{searchResults: results}
	service := NewResolverService(lookup)

	resolution, err := service.Resolve(context.Background(), "popular song")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(resolution.Candidates) != CandidateLimit {
		t.Errorf("expected candidates capped at %d, got %d", CandidateLimit, len(resolution.Candidates))
	}
}

func TestResolverService_Resolve_Errors(t *testing.T) {
	tests := []struct {
		name    string
		query   string
		lookup  *mockLookup
		wantErr error
	}{
		{
			name:    "empty query",
			query:   "   ",
			lookup:  &mockLookup{},
			wantErr: ErrEmptyQuery,
		},
		{
			name:    "unresolvable url",
			query:   "https://example.com/missing",
			lookup:  &mockLookup{},
			wantErr: ErrNoResults,
		},
		{
			name:    "search without hits",
			query:   "obscure phrase",
			lookup:  &mockLookup{},
			wantErr: ErrNoResults,
		},
		{
			name:    "lookup failure on url",
			query:   "https://example.com/track",
			lookup:  &mockLookup{directErr: errors.New("connection refused")},
			wantErr: ErrLoadFailed,
		},
		{
			name:    "lookup failure on search",
			query:   "some song",
			lookup:  &mockLookup{searchErr: errors.New("connection refused")},
			wantErr: ErrLoadFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service := NewResolverService(tt.lookup)
			_, err := service.Resolve(context.Background(), tt.query)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestResolverService_Resolve_WWWTreatedAsURL(t *testing.T) {
	lookup := &mockLookup{directResults: []ports.TrackInfo{trackInfo("track")}}
	service := NewResolverService(lookup)

	resolution, err := service.Resolve(context.Background(), "www.example.com/track")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resolution.Single == nil {
		t.Error("expected www. query to resolve as a direct URL")
	}
}
