package presentation

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/disgoorg/snowflake/v2"

	"github.com/mizuki0306/cadence/internal/bot"
	"github.com/mizuki0306/cadence/internal/modules/music/application/ports"
	"github.com/mizuki0306/cadence/internal/modules/music/application/usecases"
	"github.com/mizuki0306/cadence/internal/modules/music/domain"
)

// Handlers holds all the command handlers.
type Handlers struct {
	voice      *usecases.VoiceService
	playback   *usecases.PlaybackService
	resolver   *usecases.ResolverService
	selections *usecases.SelectionStore
	notifier   ports.Notifier
}

// NewHandlers creates new Handlers.
func NewHandlers(
	voice *usecases.VoiceService,
	playback *usecases.PlaybackService,
	resolver *usecases.ResolverService,
	selections *usecases.SelectionStore,
	notifier ports.Notifier,
) *Handlers {
	return &Handlers{
		voice:      voice,
		playback:   playback,
		resolver:   resolver,
		selections: selections,
		notifier:   notifier,
	}
}

// messageIDs extracts the snowflake IDs a command handler needs from an
// incoming message.
func messageIDs(m *discordgo.MessageCreate) (guildID, userID, channelID snowflake.ID, err error) {
	if guildID, err = snowflake.Parse(m.GuildID); err != nil {
		return 0, 0, 0, fmt.Errorf("invalid guild ID: %w", err)
	}
	if userID, err = snowflake.Parse(m.Author.ID); err != nil {
		return 0, 0, 0, fmt.Errorf("invalid user ID: %w", err)
	}
	if channelID, err = snowflake.Parse(m.ChannelID); err != nil {
		return 0, 0, 0, fmt.Errorf("invalid channel ID: %w", err)
	}
	return guildID, userID, channelID, nil
}

// reportable returns true for errors whose text is meant for the user.
func reportable(err error) bool {
	for _, known := range []error{
		domain.ErrNotConnected,
		domain.ErrNotPlaying,
		domain.ErrAlreadyPaused,
		domain.ErrNotPaused,
		domain.ErrVolumeOutOfRange,
		usecases.ErrEmptyQuery,
		usecases.ErrUserNotInVoice,
		usecases.ErrNoResults,
		usecases.ErrQueueEmpty,
		usecases.ErrNothingToClear,
		usecases.ErrLoadFailed,
	} {
		if errors.Is(err, known) {
			return true
		}
	}
	return false
}

// respond replies with the error's message when it is user-facing, and
// propagates it otherwise so the bot reports a generic failure.
func respond(r bot.Responder, err error) error {
	if reportable(err) {
		return r.Reply(err.Error())
	}
	return err
}

// HandleJoin handles the join command.
func (h *Handlers) HandleJoin(
	_ *discordgo.Session,
	m *discordgo.MessageCreate,
	_ string,
	r bot.Responder,
) error {
	guildID, userID, channelID, err := messageIDs(m)
	if err != nil {
		return err
	}

	output, err := h.voice.Join(context.Background(), usecases.JoinInput{
		GuildID:       guildID,
		UserID:        userID,
		TextChannelID: channelID,
	})
	if err != nil {
		return respond(r, err)
	}

	return r.Reply(fmt.Sprintf("Joined <#%s>.", output.VoiceChannelID))
}

// HandleLeave handles the leave command.
func (h *Handlers) HandleLeave(
	_ *discordgo.Session,
	m *discordgo.MessageCreate,
	_ string,
	r bot.Responder,
) error {
	guildID, _, _, err := messageIDs(m)
	if err != nil {
		return err
	}

	if err := h.voice.Leave(context.Background(), guildID); err != nil {
		return respond(r, err)
	}

	return r.Reply("Disconnected.")
}

// HandlePlay handles the play command: join the requester's channel if
// needed, resolve the query, and either enqueue the single result or
// open a candidate menu.
func (h *Handlers) HandlePlay(
	_ *discordgo.Session,
	m *discordgo.MessageCreate,
	arg string,
	r bot.Responder,
) error {
	ctx := context.Background()

	guildID, userID, channelID, err := messageIDs(m)
	if err != nil {
		return err
	}

	if _, err := h.voice.Join(ctx, usecases.JoinInput{
		GuildID:       guildID,
		UserID:        userID,
		TextChannelID: channelID,
	}); err != nil {
		return respond(r, err)
	}

	resolution, err := h.resolver.Resolve(ctx, arg)
	if err != nil {
		return respond(r, err)
	}

	if resolution.Single != nil {
		track := trackFromInfo(*resolution.Single)
		return h.enqueue(ctx, r, guildID, channelID, track)
	}

	return h.presentCandidates(channelID, userID, resolution.Candidates)
}

// enqueue adds a track to the queue and acknowledges it. An immediately
// rendering track is announced by the playback engine instead.
func (h *Handlers) enqueue(
	ctx context.Context,
	r bot.Responder,
	guildID, channelID snowflake.ID,
	track domain.Track,
) error {
	output, err := h.playback.Enqueue(ctx, usecases.EnqueueInput{
		GuildID:       guildID,
		TextChannelID: channelID,
		Track:         track,
	})
	if err != nil {
		return respond(r, err)
	}

	if !output.WasIdle {
		return r.Reply(fmt.Sprintf("Queued **%s** at position %d.", track.Title, output.Position))
	}
	return nil
}

func (h *Handlers) presentCandidates(
	channelID, userID snowflake.ID,
	candidates []ports.TrackInfo,
) error {
	tracks := make([]domain.Track, len(candidates))
	lines := make([]string, len(candidates))
	for i, info := range candidates {
		tracks[i] = trackFromInfo(info)
		lines[i] = fmt.Sprintf("**%s** (%s)", tracks[i].Title, tracks[i].FormattedDuration())
	}

	token, err := h.notifier.PresentCandidates(channelID, lines)
	if err != nil {
		return err
	}

	h.selections.Put(usecases.PendingSelection{
		Token:       token,
		Candidates:  tracks,
		RequesterID: userID,
		ChannelID:   channelID,
	})

	return nil
}

// HandleSkip handles the skip command.
func (h *Handlers) HandleSkip(
	_ *discordgo.Session,
	m *discordgo.MessageCreate,
	_ string,
	r bot.Responder,
) error {
	guildID, _, _, err := messageIDs(m)
	if err != nil {
		return err
	}

	skipped, err := h.playback.Skip(context.Background(), guildID)
	if err != nil {
		return respond(r, err)
	}

	return r.Reply(fmt.Sprintf("Skipped **%s**.", skipped.Title))
}

// HandlePause handles the pause command.
func (h *Handlers) HandlePause(
	_ *discordgo.Session,
	m *discordgo.MessageCreate,
	_ string,
	r bot.Responder,
) error {
	guildID, _, _, err := messageIDs(m)
	if err != nil {
		return err
	}

	if err := h.playback.Pause(context.Background(), guildID); err != nil {
		return respond(r, err)
	}

	return r.Reply("Paused.")
}

// HandleResume handles the resume command.
func (h *Handlers) HandleResume(
	_ *discordgo.Session,
	m *discordgo.MessageCreate,
	_ string,
	r bot.Responder,
) error {
	guildID, _, _, err := messageIDs(m)
	if err != nil {
		return err
	}

	if err := h.playback.Resume(context.Background(), guildID); err != nil {
		return respond(r, err)
	}

	return r.Reply("Resumed.")
}

// HandleQueue handles the queue command.
func (h *Handlers) HandleQueue(
	_ *discordgo.Session,
	m *discordgo.MessageCreate,
	_ string,
	r bot.Responder,
) error {
	guildID, _, _, err := messageIDs(m)
	if err != nil {
		return err
	}

	snapshot, err := h.playback.Queue(guildID)
	if err != nil {
		return respond(r, err)
	}

	var sb strings.Builder
	for i, track := range snapshot.Tracks {
		if i == 0 {
			fmt.Fprintf(&sb, "%s: **%s** (%s)\n",
				renderStateLabel(snapshot.RenderState), track.Title, track.FormattedDuration())
			continue
		}
		fmt.Fprintf(&sb, "%d. **%s** (%s)\n", i, track.Title, track.FormattedDuration())
	}
	fmt.Fprintf(&sb, "Volume: %d%%", snapshot.VolumePercent)

	return r.Reply(sb.String())
}

func renderStateLabel(state domain.RenderState) string {
	switch state {
	case domain.RenderPaused:
		return "Paused"
	case domain.RenderPlaying:
		return "Now playing"
	default:
		return "Up next"
	}
}

// HandleClear handles the clear command.
func (h *Handlers) HandleClear(
	_ *discordgo.Session,
	m *discordgo.MessageCreate,
	_ string,
	r bot.Responder,
) error {
	guildID, _, _, err := messageIDs(m)
	if err != nil {
		return err
	}

	removed, err := h.playback.ClearUpcoming(guildID)
	if err != nil {
		return respond(r, err)
	}

	if removed == 1 {
		return r.Reply("Removed 1 upcoming track.")
	}
	return r.Reply(fmt.Sprintf("Removed %d upcoming tracks.", removed))
}

// HandleVolume handles the volume command. Without an argument it
// reports the current volume.
func (h *Handlers) HandleVolume(
	_ *discordgo.Session,
	m *discordgo.MessageCreate,
	arg string,
	r bot.Responder,
) error {
	guildID, _, _, err := messageIDs(m)
	if err != nil {
		return err
	}

	if arg == "" {
		percent, err := h.playback.VolumePercent(guildID)
		if err != nil {
			return respond(r, err)
		}
		return r.Reply(fmt.Sprintf("Volume is at %d%%.", percent))
	}

	percent, err := strconv.Atoi(strings.TrimSuffix(arg, "%"))
	if err != nil {
		return r.Reply("Give me a number between 0 and 200.")
	}

	if err := h.playback.SetVolumePercent(context.Background(), guildID, percent); err != nil {
		return respond(r, err)
	}

	return r.Reply(fmt.Sprintf("Volume set to %d%%.", percent))
}

// HandleHelp handles the help command.
func (h *Handlers) HandleHelp(
	_ *discordgo.Session,
	_ *discordgo.MessageCreate,
	_ string,
	r bot.Responder,
) error {
	return r.Reply(strings.Join([]string{
		"**Commands**",
		"`!play <url or search>` - queue a track",
		"`!skip` - skip the current track",
		"`!pause` / `!resume` - pause or resume playback",
		"`!queue` - show the queue",
		"`!clear` - remove upcoming tracks",
		"`!volume [0-200]` - show or set the volume",
		"`!join` / `!leave` - voice channel membership",
		"You can also mention me and ask in plain language.",
	}, "\n"))
}

func trackFromInfo(info ports.TrackInfo) domain.Track {
	return domain.NewTrack(info.Locator, info.Title, info.Duration)
}
