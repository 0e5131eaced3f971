package ports

import (
	"context"

	"github.com/disgoorg/snowflake/v2"
)

// VoiceGateway defines voice channel connection operations.
type VoiceGateway interface {
	// JoinChannel connects the bot to the specified voice channel.
	// Joining while connected elsewhere moves the bot.
	JoinChannel(ctx context.Context, guildID, channelID snowflake.ID) error

	// LeaveChannel disconnects the bot from the guild's voice channel.
	LeaveChannel(ctx context.Context, guildID snowflake.ID) error
}

// VoiceStateProvider defines the interface for reading Discord voice
// state information.
type VoiceStateProvider interface {
	// GetUserVoiceChannel returns the voice channel ID the user is
	// currently in, or 0 if the user is not in a voice channel.
	GetUserVoiceChannel(guildID, userID snowflake.ID) (snowflake.ID, error)
}
