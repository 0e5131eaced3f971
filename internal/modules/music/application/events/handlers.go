package events

import (
	"context"
	"log/slog"
	"sync"

	"github.com/disgoorg/snowflake/v2"

	"github.com/mizuki0306/cadence/internal/modules/music/application/ports"
)

// CompletionFunc is the function signature for handling a finished render.
type CompletionFunc func(ctx context.Context, guildID snowflake.ID, generation uint64, reason ports.CompletionReason)

// StartIfIdleFunc is the function signature for starting a render when no
// track is currently being rendered.
type StartIfIdleFunc func(ctx context.Context, guildID snowflake.ID)

// PlaybackEventHandler drives the queue-continuation loop. It is the single
// consumer of the bus: every completion and enqueue event funnels through
// one goroutine per channel, so session access stays serialized with the
// command handlers' locking rather than racing on renderer callbacks.
type PlaybackEventHandler struct {
	completionFunc  CompletionFunc
	startIfIdleFunc StartIfIdleFunc
	bus             *Bus

	wg   sync.WaitGroup
	done chan struct{}
}

// NewPlaybackEventHandler creates a new PlaybackEventHandler.
func NewPlaybackEventHandler(
	completionFunc CompletionFunc,
	startIfIdleFunc StartIfIdleFunc,
	bus *Bus,
) *PlaybackEventHandler {
	return &PlaybackEventHandler{
		completionFunc:  completionFunc,
		startIfIdleFunc: startIfIdleFunc,
		bus:             bus,
		done:            make(chan struct{}),
	}
}

// Start begins listening for events in background goroutines.
func (h *PlaybackEventHandler) Start(ctx context.Context) {
	h.wg.Add(2)

	// Handle RenderCompleted events
	go func() {
		defer h.wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case <-h.done:
				return
			case event, ok := <-h.bus.RenderCompleted():
				if !ok {
					return
				}
				h.handleRenderCompleted(ctx, event)
			}
		}
	}()

	// Handle TrackEnqueued events
	go func() {
		defer h.wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case <-h.done:
				return
			case event, ok := <-h.bus.TrackEnqueued():
				if !ok {
					return
				}
				h.handleTrackEnqueued(ctx, event)
			}
		}
	}()

	slog.Debug("playback event handler started")
}

// Stop stops the event handler and waits for goroutines to finish.
func (h *PlaybackEventHandler) Stop() {
	close(h.done)
	h.wg.Wait()
	slog.Debug("playback event handler stopped")
}

func (h *PlaybackEventHandler) handleRenderCompleted(ctx context.Context, event RenderCompletedEvent) {
	slog.Debug("render completed",
		"guild", event.GuildID,
		"generation", event.Generation,
		"reason", event.Reason,
	)

	h.completionFunc(ctx, event.GuildID, event.Generation, event.Reason)
}

func (h *PlaybackEventHandler) handleTrackEnqueued(ctx context.Context, event TrackEnqueuedEvent) {
	// Only start a render if no track was active at enqueue time. Tracks
	// enqueued behind an active render wait for its completion event.
	if !event.WasIdle {
		slog.Debug("track enqueued behind active render",
			"guild", event.GuildID,
			"track", event.Track.Title,
		)
		return
	}

	slog.Debug("track enqueued while idle, starting render",
		"guild", event.GuildID,
		"track", event.Track.Title,
	)

	h.startIfIdleFunc(ctx, event.GuildID)
}
