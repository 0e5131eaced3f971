package ports

import (
	"context"

	"github.com/disgoorg/snowflake/v2"
)

// CompletionReason describes why a render attempt terminated.
type CompletionReason string

const (
	// CompletionFinished means the track played to the end.
	CompletionFinished CompletionReason = "finished"
	// CompletionFailed means the render failed to load or stream.
	CompletionFailed CompletionReason = "failed"
	// CompletionStopped means the render was stopped on request (skip).
	CompletionStopped CompletionReason = "stopped"
	// CompletionReplaced means another render replaced this one.
	CompletionReplaced CompletionReason = "replaced"
)

// Advances reports whether the completion should advance the owning
// queue. A replaced render's slot is already owned by its replacement.
func (r CompletionReason) Advances() bool {
	return r != CompletionReplaced
}

// Renderer is the external render primitive: it streams audio from a
// source locator into a guild's voice transport. Every StartRender
// attempt terminates with exactly one completion event, tagged with the
// generation passed here, delivered through the module's event bus.
type Renderer interface {
	// StartRender begins streaming the locator at the given volume
	// multiplier (0.0-2.0).
	StartRender(ctx context.Context, guildID snowflake.ID, locator string, volume float64, generation uint64) error

	// StopRender stops the active render, triggering its completion event.
	StopRender(ctx context.Context, guildID snowflake.ID) error

	// PauseRender suspends the active render without completing it.
	PauseRender(ctx context.Context, guildID snowflake.ID) error

	// ResumeRender continues a paused render.
	ResumeRender(ctx context.Context, guildID snowflake.ID) error

	// SetRenderVolume applies a volume multiplier to the active render.
	SetRenderVolume(ctx context.Context, guildID snowflake.ID, volume float64) error
}
