package usecases

import (
	"sync"
	"time"

	"github.com/disgoorg/snowflake/v2"

	"github.com/mizuki0306/cadence/internal/modules/music/domain"
)

// DefaultSelectionTTL is how long a candidate menu stays selectable.
const DefaultSelectionTTL = 60 * time.Second

// PendingSelection is an open candidate menu awaiting the requester's
// pick. Token is the menu message ID.
type PendingSelection struct {
	Token       snowflake.ID
	Candidates  []domain.Track
	RequesterID snowflake.ID
	ChannelID   snowflake.ID
	CreatedAt   time.Time
}

// selectionContext identifies the conversational slot a menu occupies. A
// new menu for the same requester in the same channel supersedes the
// previous one.
type selectionContext struct {
	ChannelID   snowflake.ID
	RequesterID snowflake.ID
}

// SelectionStore holds pending selections. Selections expire after the
// TTL, are consumable exactly once, and only by their requester.
type SelectionStore struct {
	mu        sync.Mutex
	ttl       time.Duration
	now       func() time.Time
	byToken   map[snowflake.ID]*PendingSelection
	byContext map[selectionContext]snowflake.ID
}

// NewSelectionStore creates a SelectionStore with the given TTL.
// A non-positive TTL falls back to DefaultSelectionTTL.
func NewSelectionStore(ttl time.Duration) *SelectionStore {
	if ttl <= 0 {
		ttl = DefaultSelectionTTL
	}
	return &SelectionStore{
		ttl:       ttl,
		now:       time.Now,
		byToken:   make(map[snowflake.ID]*PendingSelection),
		byContext: make(map[selectionContext]snowflake.ID),
	}
}

// Put registers a pending selection, superseding any previous one for
// the same channel and requester.
func (s *SelectionStore) Put(sel PendingSelection) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sweepLocked()

	sel.CreatedAt = s.now()
	ctx := selectionContext{ChannelID: sel.ChannelID, RequesterID: sel.RequesterID}
	if prev, ok := s.byContext[ctx]; ok {
		delete(s.byToken, prev)
	}
	s.byToken[sel.Token] = &sel
	s.byContext[ctx] = sel.Token
}

// Consume resolves a 1-based candidate index against the selection
// identified by token and removes it. It reports false, without side
// effects, for unknown or expired tokens, a non-requester user, or an
// out-of-range index. Only a valid pick by the requester consumes the
// selection; everyone else's reactions are ignored noise.
func (s *SelectionStore) Consume(token, userID snowflake.ID, index int) (*domain.Track, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sel, ok := s.byToken[token]
	if !ok {
		return nil, false
	}
	if s.now().Sub(sel.CreatedAt) > s.ttl {
		s.removeLocked(sel)
		return nil, false
	}
	if userID != sel.RequesterID {
		return nil, false
	}
	if index < 1 || index > len(sel.Candidates) {
		return nil, false
	}

	track := sel.Candidates[index-1]
	s.removeLocked(sel)
	return &track, true
}

// Len returns the number of live pending selections.
func (s *SelectionStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweepLocked()
	return len(s.byToken)
}

func (s *SelectionStore) removeLocked(sel *PendingSelection) {
	delete(s.byToken, sel.Token)
	ctx := selectionContext{ChannelID: sel.ChannelID, RequesterID: sel.RequesterID}
	if s.byContext[ctx] == sel.Token {
		delete(s.byContext, ctx)
	}
}

func (s *SelectionStore) sweepLocked() {
	cutoff := s.now().Add(-s.ttl)
	for _, sel := range s.byToken {
		if sel.CreatedAt.Before(cutoff) {
			s.removeLocked(sel)
		}
	}
}
