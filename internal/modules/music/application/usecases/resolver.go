package usecases

import (
	"context"
	"fmt"
	"strings"

	"github.com/mizuki0306/cadence/internal/modules/music/application/ports"
)

// CandidateLimit caps how many search results are offered for selection.
const CandidateLimit = 5

// Resolution is the outcome of resolving a play query. Exactly one of
// Single and Candidates is set.
type Resolution struct {
	// Single is the resolved track when the query identified exactly one.
	Single *ports.TrackInfo

	// Candidates holds ranked search results requiring user selection.
	Candidates []ports.TrackInfo
}

// ResolverService turns free-text play queries into tracks via the
// external lookup service.
type ResolverService struct {
	lookup ports.MediaLookup
}

// NewResolverService creates a new ResolverService.
func NewResolverService(lookup ports.MediaLookup) *ResolverService {
	return &ResolverService{lookup: lookup}
}

// Resolve resolves a query to either a single track (direct URL) or a
// candidate list (search phrase). Search results always go through
// selection, even when only one candidate came back: a phrase match is a
// guess the requester has to confirm.
func (r *ResolverService) Resolve(ctx context.Context, query string) (*Resolution, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}

	if isDirectURL(query) {
		infos, err := r.lookup.LoadDirect(ctx, query)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrLoadFailed, err)
		}
		if len(infos) == 0 {
			return nil, ErrNoResults
		}
		return &Resolution{Single: &infos[0]}, nil
	}

	infos, err := r.lookup.Search(ctx, query, CandidateLimit)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadFailed, err)
	}
	if len(infos) == 0 {
		return nil, ErrNoResults
	}
	if len(infos) > CandidateLimit {
		infos = infos[:CandidateLimit]
	}
	return &Resolution{Candidates: infos}, nil
}

func isDirectURL(query string) bool {
	return strings.HasPrefix(query, "http://") ||
		strings.HasPrefix(query, "https://") ||
		strings.HasPrefix(query, "www.")
}
