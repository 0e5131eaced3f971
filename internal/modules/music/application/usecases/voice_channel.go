package usecases

import (
	"context"
	"log/slog"

	"github.com/disgoorg/snowflake/v2"

	"github.com/mizuki0306/cadence/internal/modules/music/application/ports"
	"github.com/mizuki0306/cadence/internal/modules/music/domain"
)

// JoinInput contains the input for the Join use case.
type JoinInput struct {
	GuildID       snowflake.ID
	UserID        snowflake.ID
	TextChannelID snowflake.ID
}

// JoinOutput contains the result of the Join use case.
type JoinOutput struct {
	VoiceChannelID snowflake.ID
}

// VoiceService handles voice channel membership: joining the requester's
// channel, moving between channels, and tearing a session down on leave.
type VoiceService struct {
	registry   domain.SessionRegistry
	gateway    ports.VoiceGateway
	renderer   ports.Renderer
	voiceState ports.VoiceStateProvider
}

// NewVoiceService creates a new VoiceService.
func NewVoiceService(
	registry domain.SessionRegistry,
	gateway ports.VoiceGateway,
	renderer ports.Renderer,
	voiceState ports.VoiceStateProvider,
) *VoiceService {
	return &VoiceService{
		registry:   registry,
		gateway:    gateway,
		renderer:   renderer,
		voiceState: voiceState,
	}
}

// Join connects the bot to the voice channel the requesting user is in.
// Joining while connected to another channel moves the bot; the queue
// and render state survive the move.
func (v *VoiceService) Join(ctx context.Context, input JoinInput) (*JoinOutput, error) {
	userChannel, err := v.voiceState.GetUserVoiceChannel(input.GuildID, input.UserID)
	if err != nil {
		return nil, err
	}
	if userChannel == 0 {
		return nil, ErrUserNotInVoice
	}

	session := v.registry.GetOrCreate(input.GuildID)

	session.Lock()
	defer session.Unlock()

	wasConnected := session.ConnState() == domain.Connected

	if wasConnected && session.ChannelID() == userChannel {
		// Already there; just follow the conversation.
		if input.TextChannelID != 0 {
			session.SetTextChannelID(input.TextChannelID)
		}
		return &JoinOutput{VoiceChannelID: userChannel}, nil
	}

	if err := v.gateway.JoinChannel(ctx, input.GuildID, userChannel); err != nil {
		if !wasConnected {
			// The session was created for this attempt; don't leave an
			// empty disconnected one behind.
			v.registry.Delete(input.GuildID)
		}
		return nil, err
	}

	session.Connect(userChannel)
	if input.TextChannelID != 0 {
		session.SetTextChannelID(input.TextChannelID)
	}

	return &JoinOutput{VoiceChannelID: userChannel}, nil
}

// Leave disconnects the bot and discards the session. The session is
// disconnected before the renderer is stopped, so the generation bump
// marks any in-flight completion event as stale and the queue cannot
// restart.
func (v *VoiceService) Leave(ctx context.Context, guildID snowflake.ID) error {
	session := v.registry.Get(guildID)
	if session == nil {
		return domain.ErrNotConnected
	}

	session.Lock()
	if session.ConnState() != domain.Connected {
		session.Unlock()
		return domain.ErrNotConnected
	}
	hadRender := session.RenderState() != domain.RenderIdle
	session.Disconnect()
	session.Unlock()

	if hadRender {
		if err := v.renderer.StopRender(ctx, guildID); err != nil {
			slog.Warn("failed to stop render on leave", "guild", guildID, "error", err)
		}
	}

	if err := v.gateway.LeaveChannel(ctx, guildID); err != nil {
		return err
	}

	v.registry.Delete(guildID)

	return nil
}
