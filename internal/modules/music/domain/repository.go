package domain

import (
	"github.com/disgoorg/snowflake/v2"
)

// SessionRegistry defines the interface for storing and retrieving
// per-guild playback sessions.
type SessionRegistry interface {
	// Get returns the Session for the given guild, or nil if not exists.
	Get(guildID snowflake.ID) *Session

	// GetOrCreate returns the Session for the given guild, creating a
	// fresh disconnected one on first use.
	GetOrCreate(guildID snowflake.ID) *Session

	// Delete removes the Session for the given guild.
	Delete(guildID snowflake.ID)
}
