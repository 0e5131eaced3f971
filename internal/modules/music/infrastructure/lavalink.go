package infrastructure

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/disgoorg/disgolink/v3/disgolink"
	"github.com/disgoorg/disgolink/v3/lavalink"
	"github.com/disgoorg/snowflake/v2"

	"github.com/mizuki0306/cadence/internal/modules/music/application/events"
	"github.com/mizuki0306/cadence/internal/modules/music/application/ports"
)

// voiceConnectionTimeout is the maximum time to wait for voice connection to be established.
const voiceConnectionTimeout = 10 * time.Second

// encodedCacheLimit bounds the locator-to-encoded-track cache.
const encodedCacheLimit = 1024

// searchPrefix selects the Lavalink search source for free-text queries.
const searchPrefix = "ytsearch:"

// pendingVoiceConnection tracks the state of a pending voice connection.
type pendingVoiceConnection struct {
	mu             sync.Mutex
	hasVoiceState  bool
	hasVoiceServer bool
	ready          chan struct{}
}

// onEvent marks an event as received and signals ready if both events are present.
func (p *pendingVoiceConnection) onEvent(isVoiceState bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if isVoiceState {
		p.hasVoiceState = true
	} else {
		p.hasVoiceServer = true
	}

	if p.hasVoiceState && p.hasVoiceServer {
		select {
		case <-p.ready:
			// Already closed
		default:
			close(p.ready)
		}
	}
}

// voiceEventBuffer buffers voice events to ensure both VoiceStateUpdate and
// VoiceServerUpdate are received before forwarding to Lavalink.
// This prevents "Partial Lavalink voice state" errors when events arrive out of order.
type voiceEventBuffer struct {
	mu sync.Mutex

	// From VoiceStateUpdate
	hasVoiceState bool
	channelID     *snowflake.ID
	sessionID     string

	// From VoiceServerUpdate
	hasVoiceServer bool
	token          string
	endpoint       string
}

// setVoiceState stores voice state data and returns true if both events are now ready.
func (b *voiceEventBuffer) setVoiceState(channelID *snowflake.ID, sessionID string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.hasVoiceState = true
	b.channelID = channelID
	b.sessionID = sessionID

	return b.hasVoiceState && b.hasVoiceServer
}

// setVoiceServer stores voice server data and returns true if both events are now ready.
func (b *voiceEventBuffer) setVoiceServer(token, endpoint string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.hasVoiceServer = true
	b.token = token
	b.endpoint = endpoint

	return b.hasVoiceState && b.hasVoiceServer
}

// getData returns the buffered data and resets the buffer.
func (b *voiceEventBuffer) getData() (channelID *snowflake.ID, sessionID, token, endpoint string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	channelID = b.channelID
	sessionID = b.sessionID
	token = b.token
	endpoint = b.endpoint

	// Reset buffer
	b.hasVoiceState = false
	b.hasVoiceServer = false
	b.channelID = nil
	b.sessionID = ""
	b.token = ""
	b.endpoint = ""

	return
}

// LavalinkAdapter wraps DisGoLink to implement the render, lookup, and
// voice gateway ports against a Lavalink node.
type LavalinkAdapter struct {
	link    disgolink.Client
	session *discordgo.Session
	botID   snowflake.ID

	pendingMu sync.Mutex
	pending   map[snowflake.ID]*pendingVoiceConnection

	// voiceBuffers holds buffered voice events per guild to handle out-of-order events
	voiceBufferMu sync.Mutex
	voiceBuffers  map[snowflake.ID]*voiceEventBuffer

	// generations maps each guild to the generation tag of its active
	// render so track-end events can be attributed to the render that
	// produced them.
	generationMu sync.Mutex
	generations  map[snowflake.ID]uint64

	// encoded caches the Lavalink-encoded form of resolved tracks by
	// locator. Renders need the encoded form; lookups produce it.
	encodedMu sync.Mutex
	encoded   map[string]string

	bus *events.Bus
}

// LavalinkConfig contains Lavalink connection configuration.
type LavalinkConfig struct {
	Address  string
	Password string
	Secure   bool
}

// NewLavalinkAdapter creates a new LavalinkAdapter.
func NewLavalinkAdapter(
	session *discordgo.Session,
	config LavalinkConfig,
) (*LavalinkAdapter, error) {
	botID, err := botUserID(session)
	if err != nil {
		return nil, err
	}

	adapter := &LavalinkAdapter{
		session:      session,
		botID:        botID,
		pending:      make(map[snowflake.ID]*pendingVoiceConnection),
		voiceBuffers: make(map[snowflake.ID]*voiceEventBuffer),
		generations:  make(map[snowflake.ID]uint64),
		encoded:      make(map[string]string),
	}

	// Create DisGoLink client
	link := disgolink.New(botID,
		disgolink.WithListenerFunc(adapter.onTrackStart),
		disgolink.WithListenerFunc(adapter.onTrackEnd),
		disgolink.WithListenerFunc(adapter.onTrackException),
		disgolink.WithListenerFunc(adapter.onTrackStuck),
	)
	adapter.link = link

	// Add Lavalink node
	node, err := link.AddNode(context.Background(), disgolink.NodeConfig{
		Name:     "main",
		Address:  config.Address,
		Password: config.Password,
		Secure:   config.Secure,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to add Lavalink node: %w", err)
	}

	slog.Info("connected to Lavalink", "node", node.Config().Name, "address", config.Address)

	return adapter, nil
}

// botUserID resolves the bot's own user ID. Before the gateway Ready
// event the session state has no user yet, so fall back to the REST API.
func botUserID(session *discordgo.Session) (snowflake.ID, error) {
	if session.State != nil && session.State.User != nil {
		id, err := snowflake.Parse(session.State.User.ID)
		if err != nil {
			return 0, fmt.Errorf("failed to parse bot ID: %w", err)
		}
		return id, nil
	}

	user, err := session.User("@me")
	if err != nil {
		return 0, fmt.Errorf("failed to fetch bot user: %w", err)
	}
	id, err := snowflake.Parse(user.ID)
	if err != nil {
		return 0, fmt.Errorf("failed to parse bot ID: %w", err)
	}
	return id, nil
}

// Link returns the underlying DisGoLink client for event registration.
func (c *LavalinkAdapter) Link() disgolink.Client {
	return c.link
}

// BotID returns the bot's own user ID.
func (c *LavalinkAdapter) BotID() snowflake.ID {
	return c.botID
}

// SetEventBus sets the event bus render completions are published to.
func (c *LavalinkAdapter) SetEventBus(bus *events.Bus) {
	c.bus = bus
}

// JoinChannel connects to a voice channel.
// It waits for both VoiceStateUpdate and VoiceServerUpdate events before returning.
func (c *LavalinkAdapter) JoinChannel(ctx context.Context, guildID, channelID snowflake.ID) error {
	// Create pending connection tracker
	pending := &pendingVoiceConnection{
		ready: make(chan struct{}),
	}

	c.pendingMu.Lock()
	c.pending[guildID] = pending
	c.pendingMu.Unlock()

	// Cleanup pending entry when done
	defer func() {
		c.pendingMu.Lock()
		delete(c.pending, guildID)
		c.pendingMu.Unlock()
	}()

	// Use discordgo to update voice state
	err := c.session.ChannelVoiceJoinManual(guildID.String(), channelID.String(), false, false)
	if err != nil {
		return fmt.Errorf("failed to join voice channel: %w", err)
	}

	// Wait for voice connection to be established (both events received)
	select {
	case <-pending.ready:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("context cancelled while waiting for voice connection: %w", ctx.Err())
	case <-time.After(voiceConnectionTimeout):
		return fmt.Errorf("timeout waiting for voice connection")
	}
}

// LeaveChannel disconnects from the voice channel.
func (c *LavalinkAdapter) LeaveChannel(ctx context.Context, guildID snowflake.ID) error {
	// Destroy the player
	player := c.link.ExistingPlayer(guildID)
	if player != nil {
		if err := player.Destroy(ctx); err != nil {
			slog.Warn("failed to destroy player", "guild", guildID, "error", err)
		}
	}

	c.generationMu.Lock()
	delete(c.generations, guildID)
	c.generationMu.Unlock()

	// Leave voice channel
	err := c.session.ChannelVoiceJoinManual(guildID.String(), "", false, false)
	if err != nil {
		return fmt.Errorf("failed to leave voice channel: %w", err)
	}
	return nil
}

// StartRender streams the track identified by locator into the guild's
// voice connection. The generation tag reappears on the completion event
// when the render terminates.
func (c *LavalinkAdapter) StartRender(
	ctx context.Context,
	guildID snowflake.ID,
	locator string,
	volume float64,
	generation uint64,
) error {
	encoded, err := c.encodedFor(ctx, locator)
	if err != nil {
		return err
	}

	c.generationMu.Lock()
	c.generations[guildID] = generation
	c.generationMu.Unlock()

	player := c.link.Player(guildID)

	// Use WithEncodedTrack to avoid userData:null issue
	err = player.Update(ctx,
		lavalink.WithEncodedTrack(encoded),
		lavalink.WithVolume(volumeToLavalink(volume)),
		lavalink.WithPaused(false),
	)
	if err != nil {
		c.generationMu.Lock()
		delete(c.generations, guildID)
		c.generationMu.Unlock()
		return fmt.Errorf("failed to start track: %w", err)
	}

	return nil
}

// StopRender stops the current render; its completion event follows.
func (c *LavalinkAdapter) StopRender(ctx context.Context, guildID snowflake.ID) error {
	player := c.link.Player(guildID)

	if err := player.Update(ctx, lavalink.WithNullTrack()); err != nil {
		return fmt.Errorf("failed to stop playback: %w", err)
	}

	return nil
}

// PauseRender pauses the current render.
func (c *LavalinkAdapter) PauseRender(ctx context.Context, guildID snowflake.ID) error {
	player := c.link.Player(guildID)

	if err := player.Update(ctx, lavalink.WithPaused(true)); err != nil {
		return fmt.Errorf("failed to pause playback: %w", err)
	}

	return nil
}

// ResumeRender resumes the current render.
func (c *LavalinkAdapter) ResumeRender(ctx context.Context, guildID snowflake.ID) error {
	player := c.link.Player(guildID)

	if err := player.Update(ctx, lavalink.WithPaused(false)); err != nil {
		return fmt.Errorf("failed to resume playback: %w", err)
	}

	return nil
}

// SetRenderVolume applies a volume multiplier to the active render.
func (c *LavalinkAdapter) SetRenderVolume(
	ctx context.Context,
	guildID snowflake.ID,
	volume float64,
) error {
	player := c.link.Player(guildID)

	if err := player.Update(ctx, lavalink.WithVolume(volumeToLavalink(volume))); err != nil {
		return fmt.Errorf("failed to set volume: %w", err)
	}

	return nil
}

// LoadDirect resolves a direct URL. A playlist URL resolves to its first
// track; an unresolvable URL yields an empty slice.
func (c *LavalinkAdapter) LoadDirect(ctx context.Context, url string) ([]ports.TrackInfo, error) {
	result, err := c.loadTracks(ctx, url)
	if err != nil {
		return nil, err
	}

	switch data := result.Data.(type) {
	case lavalink.Track:
		return []ports.TrackInfo{c.convertTrack(data)}, nil

	case lavalink.Playlist:
		if len(data.Tracks) == 0 {
			return nil, nil
		}
		return []ports.TrackInfo{c.convertTrack(data.Tracks[0])}, nil

	case lavalink.Search:
		if len(data) == 0 {
			return nil, nil
		}
		return []ports.TrackInfo{c.convertTrack(data[0])}, nil

	case lavalink.Exception:
		return nil, fmt.Errorf("failed to load %q: %s", url, data.Message)

	default:
		return nil, nil
	}
}

// Search resolves a free-text phrase to up to limit ranked candidates.
func (c *LavalinkAdapter) Search(ctx context.Context, phrase string, limit int) ([]ports.TrackInfo, error) {
	result, err := c.loadTracks(ctx, searchPrefix+phrase)
	if err != nil {
		return nil, err
	}

	switch data := result.Data.(type) {
	case lavalink.Search:
		if limit > 0 && len(data) > limit {
			data = data[:limit]
		}
		infos := make([]ports.TrackInfo, len(data))
		for i, track := range data {
			infos[i] = c.convertTrack(track)
		}
		return infos, nil

	case lavalink.Track:
		return []ports.TrackInfo{c.convertTrack(data)}, nil

	case lavalink.Exception:
		return nil, fmt.Errorf("search for %q failed: %s", phrase, data.Message)

	default:
		return nil, nil
	}
}

func (c *LavalinkAdapter) loadTracks(ctx context.Context, query string) (*lavalink.LoadResult, error) {
	node := c.link.BestNode()
	if node == nil {
		return nil, fmt.Errorf("no available Lavalink node")
	}

	result, err := node.LoadTracks(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to load tracks: %w", err)
	}

	return result, nil
}

// convertTrack converts a Lavalink track to TrackInfo and caches its
// encoded form for the render that may follow.
func (c *LavalinkAdapter) convertTrack(track lavalink.Track) ports.TrackInfo {
	info := track.Info

	locator := info.Identifier
	if info.URI != nil && *info.URI != "" {
		locator = *info.URI
	}

	c.cacheEncoded(locator, track.Encoded)

	return ports.TrackInfo{
		Locator:  locator,
		Title:    info.Title,
		Duration: time.Duration(info.Length) * time.Millisecond,
	}
}

// encodedFor returns the encoded form of a locator, resolving it through
// the node when the cache has gone cold.
func (c *LavalinkAdapter) encodedFor(ctx context.Context, locator string) (string, error) {
	c.encodedMu.Lock()
	encoded, ok := c.encoded[locator]
	c.encodedMu.Unlock()
	if ok {
		return encoded, nil
	}

	infos, err := c.LoadDirect(ctx, locator)
	if err != nil {
		return "", err
	}
	if len(infos) == 0 {
		return "", fmt.Errorf("no track found for %q", locator)
	}

	c.encodedMu.Lock()
	encoded, ok = c.encoded[infos[0].Locator]
	if !ok {
		encoded, ok = c.encoded[locator]
	}
	c.encodedMu.Unlock()
	if !ok {
		return "", fmt.Errorf("no encoded track for %q", locator)
	}
	return encoded, nil
}

func (c *LavalinkAdapter) cacheEncoded(locator, encoded string) {
	c.encodedMu.Lock()
	defer c.encodedMu.Unlock()

	if len(c.encoded) >= encodedCacheLimit {
		c.encoded = make(map[string]string)
	}
	c.encoded[locator] = encoded
}

// volumeToLavalink converts a 0.0-2.0 multiplier to Lavalink's 0-1000 scale.
func volumeToLavalink(volume float64) int {
	return int(volume*100 + 0.5)
}

// OnVoiceServerUpdate handles Discord voice server updates.
// This must be called from the Discord event handler.
func (c *LavalinkAdapter) OnVoiceServerUpdate(event *discordgo.VoiceServerUpdate) {
	guildID, err := snowflake.Parse(event.GuildID)
	if err != nil {
		slog.Error("failed to parse guild ID in voice server update", "error", err)
		return
	}

	// Get or create voice buffer for this guild
	buffer := c.getOrCreateVoiceBuffer(guildID)

	// Store voice server data and check if both events are ready
	if buffer.setVoiceServer(event.Token, event.Endpoint) {
		// Both events received, forward to Lavalink
		c.forwardBufferedVoiceEvents(guildID, buffer)
	}

	// Signal that we received the voice server update (for JoinChannel waiting)
	c.pendingMu.Lock()
	pending := c.pending[guildID]
	c.pendingMu.Unlock()

	if pending != nil {
		pending.onEvent(false)
	}
}

// OnVoiceStateUpdate handles Discord voice state updates.
// This must be called from the Discord event handler.
func (c *LavalinkAdapter) OnVoiceStateUpdate(event *discordgo.VoiceStateUpdate) {
	// Only handle updates for the bot itself
	if event.UserID != c.botID.String() {
		return
	}

	guildID, err := snowflake.Parse(event.GuildID)
	if err != nil {
		slog.Error("failed to parse guild ID in voice state update", "error", err)
		return
	}

	sessionID := event.SessionID

	// Parse the channel ID - if empty, the bot is disconnecting
	var channelID *snowflake.ID
	if event.ChannelID != "" {
		id, err := snowflake.Parse(event.ChannelID)
		if err != nil {
			slog.Error("failed to parse channel ID in voice state update", "error", err)
			return
		}
		channelID = &id
	}

	// Handle disconnect immediately (no need to wait for VoiceServerUpdate)
	if channelID == nil {
		c.link.OnVoiceStateUpdate(context.Background(), guildID, nil, sessionID)
		c.clearVoiceBuffer(guildID)
		return
	}

	// Get or create voice buffer for this guild
	buffer := c.getOrCreateVoiceBuffer(guildID)

	// Store voice state data and check if both events are ready
	if buffer.setVoiceState(channelID, sessionID) {
		// Both events received, forward to Lavalink
		c.forwardBufferedVoiceEvents(guildID, buffer)
	}

	// Signal that we received the voice state update (for JoinChannel waiting)
	c.pendingMu.Lock()
	pending := c.pending[guildID]
	c.pendingMu.Unlock()

	if pending != nil {
		pending.onEvent(true)
	}
}

// getOrCreateVoiceBuffer returns the voice buffer for a guild, creating one if needed.
func (c *LavalinkAdapter) getOrCreateVoiceBuffer(guildID snowflake.ID) *voiceEventBuffer {
	c.voiceBufferMu.Lock()
	defer c.voiceBufferMu.Unlock()

	buffer, exists := c.voiceBuffers[guildID]
	if !exists {
		buffer = &voiceEventBuffer{}
		c.voiceBuffers[guildID] = buffer
	}
	return buffer
}

// clearVoiceBuffer removes the voice buffer for a guild.
func (c *LavalinkAdapter) clearVoiceBuffer(guildID snowflake.ID) {
	c.voiceBufferMu.Lock()
	defer c.voiceBufferMu.Unlock()
	delete(c.voiceBuffers, guildID)
}

// forwardBufferedVoiceEvents sends the buffered voice events to Lavalink.
func (c *LavalinkAdapter) forwardBufferedVoiceEvents(
	guildID snowflake.ID,
	buffer *voiceEventBuffer,
) {
	channelID, sessionID, token, endpoint := buffer.getData()

	slog.Debug("forwarding buffered voice events to Lavalink",
		"guild", guildID,
		"channel", channelID,
		"hasSessionID", sessionID != "",
	)

	// Forward to Lavalink in the correct order
	c.link.OnVoiceStateUpdate(context.Background(), guildID, channelID, sessionID)
	c.link.OnVoiceServerUpdate(context.Background(), guildID, token, endpoint)
}

func (c *LavalinkAdapter) onTrackStart(player disgolink.Player, event lavalink.TrackStartEvent) {
	slog.Debug("track started", "guild", player.GuildID(), "track", event.Track.Info.Title)
}

func (c *LavalinkAdapter) onTrackEnd(player disgolink.Player, event lavalink.TrackEndEvent) {
	slog.Debug("track ended", "guild", player.GuildID(), "reason", event.Reason)

	if c.bus == nil {
		return
	}

	c.generationMu.Lock()
	generation := c.generations[player.GuildID()]
	// On a replace the map entry already belongs to the new render; only
	// a terminal end retires it.
	if event.Reason != lavalink.TrackEndReasonReplaced {
		delete(c.generations, player.GuildID())
	}
	c.generationMu.Unlock()

	c.bus.PublishRenderCompleted(events.RenderCompletedEvent{
		GuildID:    player.GuildID(),
		Generation: generation,
		Reason:     convertEndReason(event.Reason),
	})
}

func (c *LavalinkAdapter) onTrackException(
	player disgolink.Player,
	event lavalink.TrackExceptionEvent,
) {
	slog.Warn("track exception", "guild", player.GuildID(), "error", event.Exception.Message)
}

func (c *LavalinkAdapter) onTrackStuck(player disgolink.Player, event lavalink.TrackStuckEvent) {
	slog.Warn("track stuck", "guild", player.GuildID(), "threshold", event.Threshold)
}

func convertEndReason(reason lavalink.TrackEndReason) ports.CompletionReason {
	switch reason {
	case lavalink.TrackEndReasonFinished:
		return ports.CompletionFinished
	case lavalink.TrackEndReasonLoadFailed:
		return ports.CompletionFailed
	case lavalink.TrackEndReasonStopped:
		return ports.CompletionStopped
	case lavalink.TrackEndReasonReplaced:
		return ports.CompletionReplaced
	case lavalink.TrackEndReasonCleanup:
		return ports.CompletionStopped
	default:
		return ports.CompletionStopped
	}
}

// Ensure LavalinkAdapter implements port interfaces.
var (
	_ ports.Renderer     = (*LavalinkAdapter)(nil)
	_ ports.VoiceGateway = (*LavalinkAdapter)(nil)
	_ ports.MediaLookup  = (*LavalinkAdapter)(nil)
)
