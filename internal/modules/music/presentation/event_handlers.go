package presentation

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/bwmarrin/discordgo"
	"github.com/disgoorg/snowflake/v2"

	"github.com/mizuki0306/cadence/internal/modules/music/application/ports"
	"github.com/mizuki0306/cadence/internal/modules/music/application/usecases"
)

// EventHandlers handles Discord gateway events for the music module:
// candidate-menu reactions and the voice events the Lavalink adapter
// needs forwarded.
type EventHandlers struct {
	botID      snowflake.ID
	playback   *usecases.PlaybackService
	voice      *usecases.VoiceService
	selections *usecases.SelectionStore
	notifier   ports.Notifier
}

// NewEventHandlers creates a new EventHandlers.
func NewEventHandlers(
	botID snowflake.ID,
	playback *usecases.PlaybackService,
	voice *usecases.VoiceService,
	selections *usecases.SelectionStore,
	notifier ports.Notifier,
) *EventHandlers {
	return &EventHandlers{
		botID:      botID,
		playback:   playback,
		voice:      voice,
		selections: selections,
		notifier:   notifier,
	}
}

// HandleReactionAdd resolves number reactions on candidate menus. Every
// reaction that is not a valid pick by the menu's requester is ignored
// without feedback.
func (h *EventHandlers) HandleReactionAdd(
	_ *discordgo.Session,
	event *discordgo.MessageReactionAdd,
) {
	if event.UserID == h.botID.String() {
		return
	}

	index := ports.EmojiIndex(event.Emoji.Name)
	if index == 0 {
		return
	}

	token, err := snowflake.Parse(event.MessageID)
	if err != nil {
		return
	}
	userID, err := snowflake.Parse(event.UserID)
	if err != nil {
		return
	}
	guildID, err := snowflake.Parse(event.GuildID)
	if err != nil {
		return
	}
	channelID, err := snowflake.Parse(event.ChannelID)
	if err != nil {
		return
	}

	track, ok := h.selections.Consume(token, userID, index)
	if !ok {
		return
	}

	ctx := context.Background()

	// The requester may have left voice or the bot may have been
	// disconnected while the menu was open; rejoin their channel first.
	if _, err := h.voice.Join(ctx, usecases.JoinInput{
		GuildID:       guildID,
		UserID:        userID,
		TextChannelID: channelID,
	}); err != nil {
		h.say(channelID, "I can't play that: "+err.Error())
		return
	}

	output, err := h.playback.Enqueue(ctx, usecases.EnqueueInput{
		GuildID:       guildID,
		TextChannelID: channelID,
		Track:         *track,
	})
	if err != nil {
		slog.Warn("failed to enqueue selected track",
			"guild", guildID,
			"track", track.Title,
			"error", err,
		)
		return
	}

	if !output.WasIdle {
		h.say(channelID, fmt.Sprintf("Queued **%s** at position %d.", track.Title, output.Position))
	}
}

func (h *EventHandlers) say(channelID snowflake.ID, text string) {
	if err := h.notifier.Say(channelID, text); err != nil {
		slog.Warn("failed to send selection feedback", "channel", channelID, "error", err)
	}
}
