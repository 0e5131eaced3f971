// Package events carries playback events between the renderer adapter,
// the queue services, and the continuation loop. Completions arrive on
// foreign goroutines (the Lavalink client's) and are re-marshaled here
// onto the module's own consumer before they may touch any session.
package events

import (
	"log/slog"
	"sync"

	"github.com/disgoorg/snowflake/v2"

	"github.com/mizuki0306/cadence/internal/modules/music/application/ports"
	"github.com/mizuki0306/cadence/internal/modules/music/domain"
)

// DefaultEventBufferSize is the default buffer size for event channels.
const DefaultEventBufferSize = 100

// RenderCompletedEvent is published when a render attempt terminates.
// Generation identifies the render instance; consumers drop events whose
// generation is no longer current.
type RenderCompletedEvent struct {
	GuildID    snowflake.ID
	Generation uint64
	Reason     ports.CompletionReason
}

// TrackEnqueuedEvent is published when a track is added to a queue.
type TrackEnqueuedEvent struct {
	GuildID snowflake.ID
	Track   domain.Track
	WasIdle bool // true if no render was active at enqueue time
}

// Bus provides a channel-based event bus for async event handling.
type Bus struct {
	renderCompleted chan RenderCompletedEvent
	trackEnqueued   chan TrackEnqueuedEvent

	closed bool
	mu     sync.RWMutex
}

// NewBus creates a new Bus with the given buffer size.
func NewBus(bufferSize int) *Bus {
	if bufferSize <= 0 {
		bufferSize = DefaultEventBufferSize
	}

	return &Bus{
		renderCompleted: make(chan RenderCompletedEvent, bufferSize),
		trackEnqueued:   make(chan TrackEnqueuedEvent, bufferSize),
	}
}

// PublishRenderCompleted publishes a RenderCompletedEvent.
// Non-blocking: if the channel buffer is full, the event is dropped with a warning.
func (b *Bus) PublishRenderCompleted(event RenderCompletedEvent) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		slog.Warn("attempted to publish to closed event bus", "type", "RenderCompleted")
		return
	}

	select {
	case b.renderCompleted <- event:
		slog.Debug("published event", "type", "RenderCompleted",
			"guild", event.GuildID, "generation", event.Generation, "reason", event.Reason)
	default:
		slog.Warn("event buffer full, dropping event", "type", "RenderCompleted")
	}
}

// PublishTrackEnqueued publishes a TrackEnqueuedEvent.
// Non-blocking: if the channel buffer is full, the event is dropped with a warning.
func (b *Bus) PublishTrackEnqueued(event TrackEnqueuedEvent) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		slog.Warn("attempted to publish to closed event bus", "type", "TrackEnqueued")
		return
	}

	select {
	case b.trackEnqueued <- event:
		slog.Debug("published event", "type", "TrackEnqueued", "guild", event.GuildID)
	default:
		slog.Warn("event buffer full, dropping event", "type", "TrackEnqueued")
	}
}

// RenderCompleted returns the channel for RenderCompletedEvent.
func (b *Bus) RenderCompleted() <-chan RenderCompletedEvent {
	return b.renderCompleted
}

// TrackEnqueued returns the channel for TrackEnqueuedEvent.
func (b *Bus) TrackEnqueued() <-chan TrackEnqueuedEvent {
	return b.trackEnqueued
}

// Close closes all event channels.
// After calling Close, publishing will no longer send events.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}

	b.closed = true
	close(b.renderCompleted)
	close(b.trackEnqueued)

	slog.Debug("event bus closed")
}
