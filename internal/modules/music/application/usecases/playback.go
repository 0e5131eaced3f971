package usecases

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/disgoorg/snowflake/v2"

	"github.com/mizuki0306/cadence/internal/modules/music/application/events"
	"github.com/mizuki0306/cadence/internal/modules/music/application/ports"
	"github.com/mizuki0306/cadence/internal/modules/music/domain"
)

// EnqueueInput contains the input for the Enqueue use case.
type EnqueueInput struct {
	GuildID       snowflake.ID
	TextChannelID snowflake.ID // channel playback outcomes are reported to
	Track         domain.Track
}

// EnqueueOutput contains the result of the Enqueue use case.
type EnqueueOutput struct {
	Position int  // 0 means the track renders immediately
	WasIdle  bool // true when the enqueue triggers a render
}

// QueueSnapshot is a read-only view of a guild's queue for display.
type QueueSnapshot struct {
	Tracks        []domain.Track // head first; head is the rendering track
	RenderState   domain.RenderState
	VolumePercent int
}

// PlaybackService owns the queue-continuation engine: it starts renders,
// reacts to their completions, and exposes the queue-affecting commands.
// Completion events reach it through the event bus on a single consumer
// goroutine; all session access happens under the session lock.
type PlaybackService struct {
	registry domain.SessionRegistry
	renderer ports.Renderer
	notifier ports.Notifier
	bus      *events.Bus
}

// NewPlaybackService creates a new PlaybackService.
func NewPlaybackService(
	registry domain.SessionRegistry,
	renderer ports.Renderer,
	notifier ports.Notifier,
	bus *events.Bus,
) *PlaybackService {
	return &PlaybackService{
		registry: registry,
		renderer: renderer,
		notifier: notifier,
		bus:      bus,
	}
}

// Enqueue appends a track to the guild's queue. The render itself is
// kicked off asynchronously by the TrackEnqueued event when the session
// was idle.
func (p *PlaybackService) Enqueue(ctx context.Context, input EnqueueInput) (*EnqueueOutput, error) {
	session := p.registry.Get(input.GuildID)
	if session == nil {
		return nil, domain.ErrNotConnected
	}

	session.Lock()
	defer session.Unlock()

	if session.ConnState() != domain.Connected {
		return nil, domain.ErrNotConnected
	}

	if input.TextChannelID != 0 {
		session.SetTextChannelID(input.TextChannelID)
	}

	wasIdle := session.RenderState() == domain.RenderIdle
	position := session.Queue.Enqueue(input.Track)

	p.bus.PublishTrackEnqueued(events.TrackEnqueuedEvent{
		GuildID: input.GuildID,
		Track:   input.Track,
		WasIdle: wasIdle,
	})

	return &EnqueueOutput{Position: position, WasIdle: wasIdle}, nil
}

// StartIfIdle starts rendering the queue head if the session is
// connected, idle, and has a head. Called by the event handler after an
// enqueue into an idle session.
func (p *PlaybackService) StartIfIdle(ctx context.Context, guildID snowflake.ID) {
	session := p.registry.Get(guildID)
	if session == nil {
		return
	}

	session.Lock()
	defer session.Unlock()

	if session.RenderState() != domain.RenderIdle {
		return
	}

	p.renderHeadLocked(ctx, session)
}

// HandleRenderCompleted is the continuation step: it retires the
// completed render and, when the completion advances the queue, starts
// the next head. Stale generations (duplicates, post-disconnect events)
// are dropped here.
func (p *PlaybackService) HandleRenderCompleted(
	ctx context.Context,
	guildID snowflake.ID,
	generation uint64,
	reason ports.CompletionReason,
) {
	session := p.registry.Get(guildID)
	if session == nil {
		return
	}

	// A replaced render's slot already belongs to its replacement; there
	// is nothing to retire and nothing to advance.
	if !reason.Advances() {
		return
	}

	session.Lock()
	defer session.Unlock()

	if !session.FinishRender(generation) {
		slog.Debug("dropping stale render completion",
			"guild", guildID,
			"generation", generation,
			"current", session.Generation(),
		)
		return
	}

	if reason == ports.CompletionFailed {
		if head := session.Queue.Head(); head != nil {
			p.say(session.TextChannelID(), fmt.Sprintf("Playback failed for **%s**, skipping it.", head.Title))
		}
	}

	next := session.Queue.Advance()
	if next == nil {
		p.say(session.TextChannelID(), "Queue finished.")
		return
	}

	p.renderHeadLocked(ctx, session)
}

// renderHeadLocked starts rendering the queue head, dropping tracks that
// fail to start until one renders or the queue runs out. Caller holds
// the session lock; the completion for a successful start arrives later
// via the event bus.
func (p *PlaybackService) renderHeadLocked(ctx context.Context, session *domain.Session) {
	for {
		head := session.Queue.Head()
		if head == nil {
			return
		}

		generation, err := session.BeginRender()
		if err != nil {
			slog.Warn("cannot begin render", "guild", session.GuildID(), "error", err)
			return
		}

		err = p.renderer.StartRender(ctx, session.GuildID(), head.SourceLocator, session.Volume(), generation)
		if err == nil {
			p.say(session.TextChannelID(), fmt.Sprintf("Now playing: **%s** (%s)", head.Title, head.FormattedDuration()))
			return
		}

		slog.Warn("render failed to start, dropping track",
			"guild", session.GuildID(),
			"track", head.Title,
			"error", err,
		)
		p.say(session.TextChannelID(), fmt.Sprintf("Could not play **%s**, skipping it.", head.Title))

		session.FinishRender(generation)
		session.Queue.Advance()
	}
}

// Pause pauses the current render.
func (p *PlaybackService) Pause(ctx context.Context, guildID snowflake.ID) error {
	session := p.registry.Get(guildID)
	if session == nil {
		return domain.ErrNotConnected
	}

	session.Lock()
	defer session.Unlock()

	if err := session.Pause(); err != nil {
		return err
	}

	if err := p.renderer.PauseRender(ctx, guildID); err != nil {
		// Roll the state machine back so the session matches the renderer.
		_ = session.Resume()
		return err
	}

	return nil
}

// Resume continues a paused render.
func (p *PlaybackService) Resume(ctx context.Context, guildID snowflake.ID) error {
	session := p.registry.Get(guildID)
	if session == nil {
		return domain.ErrNotConnected
	}

	session.Lock()
	defer session.Unlock()

	if err := session.Resume(); err != nil {
		return err
	}

	if err := p.renderer.ResumeRender(ctx, guildID); err != nil {
		_ = session.Pause()
		return err
	}

	return nil
}

// Skip stops the current render. Advancing happens in the continuation
// path when the stop's completion event arrives, so skip and natural
// track end share one advance.
func (p *PlaybackService) Skip(ctx context.Context, guildID snowflake.ID) (*domain.Track, error) {
	session := p.registry.Get(guildID)
	if session == nil {
		return nil, domain.ErrNotConnected
	}

	session.Lock()
	defer session.Unlock()

	if session.ConnState() != domain.Connected {
		return nil, domain.ErrNotConnected
	}
	if session.RenderState() == domain.RenderIdle {
		return nil, domain.ErrNotPlaying
	}

	skipped := session.Queue.Head()

	if err := p.renderer.StopRender(ctx, guildID); err != nil {
		return nil, err
	}

	return skipped, nil
}

// SetVolumePercent sets the session volume from a 0-200 percent value
// and applies it to the active render, if any.
func (p *PlaybackService) SetVolumePercent(ctx context.Context, guildID snowflake.ID, percent int) error {
	session := p.registry.Get(guildID)
	if session == nil {
		return domain.ErrNotConnected
	}

	session.Lock()
	defer session.Unlock()

	if percent < 0 || percent > int(domain.MaxVolume*100) {
		return domain.ErrVolumeOutOfRange
	}

	previous := session.Volume()
	volume := float64(percent) / 100

	if err := session.SetVolume(volume); err != nil {
		return err
	}

	if session.RenderState() != domain.RenderIdle {
		if err := p.renderer.SetRenderVolume(ctx, guildID, volume); err != nil {
			_ = session.SetVolume(previous)
			return err
		}
	}

	return nil
}

// VolumePercent returns the session volume as a 0-200 percent value.
func (p *PlaybackService) VolumePercent(guildID snowflake.ID) (int, error) {
	session := p.registry.Get(guildID)
	if session == nil {
		return 0, domain.ErrNotConnected
	}

	session.Lock()
	defer session.Unlock()

	return int(session.Volume()*100 + 0.5), nil
}

// Queue returns a display snapshot of the guild's queue, or
// ErrQueueEmpty when there is nothing queued or playing.
func (p *PlaybackService) Queue(guildID snowflake.ID) (*QueueSnapshot, error) {
	session := p.registry.Get(guildID)
	if session == nil {
		return nil, domain.ErrNotConnected
	}

	session.Lock()
	defer session.Unlock()

	tracks := session.Queue.List()
	if len(tracks) == 0 {
		return nil, ErrQueueEmpty
	}

	return &QueueSnapshot{
		Tracks:        tracks,
		RenderState:   session.RenderState(),
		VolumePercent: int(session.Volume()*100 + 0.5),
	}, nil
}

// ClearUpcoming removes all upcoming tracks, leaving the rendering head
// untouched. Returns the number of removed tracks.
func (p *PlaybackService) ClearUpcoming(guildID snowflake.ID) (int, error) {
	session := p.registry.Get(guildID)
	if session == nil {
		return 0, domain.ErrNotConnected
	}

	session.Lock()
	defer session.Unlock()

	removed := session.Queue.ClearUpcoming()
	if removed == 0 {
		return 0, ErrNothingToClear
	}

	return removed, nil
}

func (p *PlaybackService) say(channelID snowflake.ID, text string) {
	if channelID == 0 {
		return
	}
	if err := p.notifier.Say(channelID, text); err != nil {
		slog.Warn("failed to send playback notification", "channel", channelID, "error", err)
	}
}
