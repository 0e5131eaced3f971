package infrastructure

import (
	"sync"

	"github.com/disgoorg/snowflake/v2"

	"github.com/mizuki0306/cadence/internal/modules/music/domain"
)

// MemoryRegistry is an in-memory implementation of SessionRegistry.
// Sessions live for exactly as long as a voice connection; nothing is
// persisted across restarts.
type MemoryRegistry struct {
	mu       sync.RWMutex
	sessions map[snowflake.ID]*domain.Session
}

// NewMemoryRegistry creates a new MemoryRegistry.
func NewMemoryRegistry() *MemoryRegistry {
	return &MemoryRegistry{
		sessions: make(map[snowflake.ID]*domain.Session),
	}
}

// Get returns the Session for the given guild, or nil if not exists.
func (r *MemoryRegistry) Get(guildID snowflake.ID) *domain.Session {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.sessions[guildID]
}

// GetOrCreate returns the Session for the given guild, creating a fresh
// disconnected one on first use.
func (r *MemoryRegistry) GetOrCreate(guildID snowflake.ID) *domain.Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	if session, ok := r.sessions[guildID]; ok {
		return session
	}

	session := domain.NewSession(guildID)
	r.sessions[guildID] = session
	return session
}

// Delete removes the Session for the given guild.
func (r *MemoryRegistry) Delete(guildID snowflake.ID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.sessions, guildID)
}

// Count returns the number of sessions (for testing/monitoring).
func (r *MemoryRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.sessions)
}

// Ensure MemoryRegistry implements SessionRegistry.
var _ domain.SessionRegistry = (*MemoryRegistry)(nil)
