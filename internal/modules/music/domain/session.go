package domain

import (
	"sync"

	"github.com/disgoorg/snowflake/v2"
)

// ConnState is the voice transport connection state.
type ConnState int

const (
	Disconnected ConnState = iota
	Connected
)

// RenderState is the playback state within a connected session.
type RenderState int

const (
	RenderIdle RenderState = iota
	RenderPlaying
	RenderPaused
)

// String returns a human-readable render state name.
func (s RenderState) String() string {
	switch s {
	case RenderPlaying:
		return "playing"
	case RenderPaused:
		return "paused"
	default:
		return "idle"
	}
}

// DefaultVolume is the volume multiplier a fresh session starts with (50%).
const DefaultVolume = 0.5

// MaxVolume is the upper bound of the volume multiplier (200%).
const MaxVolume = 2.0

// Session models one guild's voice playback context: the connection state
// machine, the render state machine, the volume, and the owning queue.
//
// All operations on a session must run under its lock; the session is a
// single-writer resource. The generation counter ties render completions
// to the render that produced them: it increments on every render start
// and on disconnect, so stale completion events can never mutate the
// queue.
type Session struct {
	mu sync.Mutex

	guildID       snowflake.ID
	channelID     snowflake.ID // voice channel; zero when disconnected
	textChannelID snowflake.ID // channel playback outcomes are reported to

	conn       ConnState
	render     RenderState
	volume     float64
	generation uint64

	Queue Queue
}

// NewSession creates a disconnected session for the given guild.
func NewSession(guildID snowflake.ID) *Session {
	return &Session{
		guildID: guildID,
		volume:  DefaultVolume,
		Queue:   NewQueue(),
	}
}

// Lock serializes access to the session. Every state accessor and
// transition below assumes the caller holds it.
func (s *Session) Lock() { s.mu.Lock() }

// Unlock releases the session.
func (s *Session) Unlock() { s.mu.Unlock() }

// GuildID returns the owning guild. Immutable after construction.
func (s *Session) GuildID() snowflake.ID { return s.guildID }

// ChannelID returns the connected voice channel, or zero.
func (s *Session) ChannelID() snowflake.ID { return s.channelID }

// TextChannelID returns the channel outcomes are reported to.
func (s *Session) TextChannelID() snowflake.ID { return s.textChannelID }

// SetTextChannelID updates the reporting channel.
func (s *Session) SetTextChannelID(id snowflake.ID) { s.textChannelID = id }

// ConnState returns the connection state.
func (s *Session) ConnState() ConnState { return s.conn }

// RenderState returns the render state.
func (s *Session) RenderState() RenderState { return s.render }

// Volume returns the current volume multiplier.
func (s *Session) Volume() float64 { return s.volume }

// Generation returns the current render generation.
func (s *Session) Generation() uint64 { return s.generation }

// Connect transitions Disconnected -> Connected/Idle, or updates the
// channel in place when already connected elsewhere (a move keeps the
// render state and the queue).
func (s *Session) Connect(channelID snowflake.ID) {
	s.channelID = channelID
	if s.conn == Connected {
		return
	}
	s.conn = Connected
	s.render = RenderIdle
}

// Disconnect transitions to Disconnected from any state. The queue's
// lifetime is bound to the connection, so it is cleared, and the
// generation is bumped so completions for any in-flight render are
// recognized as stale.
func (s *Session) Disconnect() {
	s.conn = Disconnected
	s.render = RenderIdle
	s.channelID = 0
	s.generation++
	s.Queue.Clear()
}

// BeginRender transitions to Connected/Playing and returns the generation
// assigned to this render attempt. Valid from any connected render state:
// a new track replaces the current one, playing or paused.
func (s *Session) BeginRender() (uint64, error) {
	if s.conn != Connected {
		return 0, ErrNotConnected
	}
	s.render = RenderPlaying
	s.generation++
	return s.generation, nil
}

// FinishRender marks the render identified by gen as complete and
// transitions to Connected/Idle. It reports false for stale generations
// (duplicate or post-disconnect completions), in which case nothing
// changes. A successful match retires gen, so a second completion for
// the same render is stale even when no new render has started.
func (s *Session) FinishRender(gen uint64) bool {
	if gen != s.generation {
		return false
	}
	s.generation++
	if s.conn == Connected {
		s.render = RenderIdle
	}
	return true
}

// Pause transitions Connected/Playing -> Connected/Paused.
func (s *Session) Pause() error {
	if s.conn != Connected {
		return ErrNotConnected
	}
	switch s.render {
	case RenderPlaying:
		s.render = RenderPaused
		return nil
	case RenderPaused:
		return ErrAlreadyPaused
	default:
		return ErrNotPlaying
	}
}

// Resume transitions Connected/Paused -> Connected/Playing.
func (s *Session) Resume() error {
	if s.conn != Connected {
		return ErrNotConnected
	}
	if s.render != RenderPaused {
		return ErrNotPaused
	}
	s.render = RenderPlaying
	return nil
}

// SetVolume updates the volume multiplier. Valid in any connected state;
// the caller applies it to the active render if one exists.
func (s *Session) SetVolume(v float64) error {
	if s.conn != Connected {
		return ErrNotConnected
	}
	if v < 0 || v > MaxVolume {
		return ErrVolumeOutOfRange
	}
	s.volume = v
	return nil
}
