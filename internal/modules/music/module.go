// Package music provides voice playback: a per-guild queue, search with
// reaction-based selection, and the prefix commands that drive them.
package music

import (
	"context"
	"log/slog"

	"github.com/bwmarrin/discordgo"
	"github.com/caarlos0/env/v11"

	"github.com/mizuki0306/cadence/internal/bot"
	"github.com/mizuki0306/cadence/internal/command"
	"github.com/mizuki0306/cadence/internal/modules/music/application/events"
	"github.com/mizuki0306/cadence/internal/modules/music/application/usecases"
	"github.com/mizuki0306/cadence/internal/modules/music/infrastructure"
	"github.com/mizuki0306/cadence/internal/modules/music/presentation"
)

func init() {
	bot.Register(&Module{})
}

// Compile-time interface checks.
var (
	_ bot.Module             = (*Module)(nil)
	_ bot.ConfigurableModule = (*Module)(nil)
)

// Module provides voice playback commands.
type Module struct {
	config *Config

	handlers        *presentation.Handlers
	eventHandlers   *presentation.EventHandlers
	lavalinkAdapter *infrastructure.LavalinkAdapter

	eventBus        *events.Bus
	playbackHandler *events.PlaybackEventHandler

	ctx    context.Context
	cancel context.CancelFunc
}

// Name returns the module name.
func (m *Module) Name() string {
	return "music"
}

// TextCommands returns the prefix commands for this module.
func (m *Module) TextCommands() []bot.TextCommand {
	return []bot.TextCommand{
		{Name: "join", ArgPolicy: command.ArgNone, Handler: m.handlers.HandleJoin},
		{Name: "leave", ArgPolicy: command.ArgNone, Handler: m.handlers.HandleLeave},
		{Name: "play", ArgPolicy: command.ArgRequired, Handler: m.handlers.HandlePlay},
		{Name: "skip", ArgPolicy: command.ArgNone, Handler: m.handlers.HandleSkip},
		{Name: "pause", ArgPolicy: command.ArgNone, Handler: m.handlers.HandlePause},
		{Name: "resume", ArgPolicy: command.ArgNone, Handler: m.handlers.HandleResume},
		{Name: "queue", ArgPolicy: command.ArgNone, Handler: m.handlers.HandleQueue},
		{Name: "clear", ArgPolicy: command.ArgNone, Handler: m.handlers.HandleClear},
		{Name: "volume", ArgPolicy: command.ArgOptional, Handler: m.handlers.HandleVolume},
		{Name: "help", ArgPolicy: command.ArgNone, Handler: m.handlers.HandleHelp},
	}
}

// EventHandlers returns the event handlers for this module.
func (m *Module) EventHandlers() []bot.EventHandler {
	return []bot.EventHandler{
		func(s *discordgo.Session, event *discordgo.VoiceServerUpdate) {
			if m.lavalinkAdapter != nil {
				m.lavalinkAdapter.OnVoiceServerUpdate(event)
			}
		},
		func(s *discordgo.Session, event *discordgo.VoiceStateUpdate) {
			if m.lavalinkAdapter != nil {
				m.lavalinkAdapter.OnVoiceStateUpdate(event)
			}
		},
		func(s *discordgo.Session, event *discordgo.MessageReactionAdd) {
			if m.eventHandlers != nil {
				m.eventHandlers.HandleReactionAdd(s, event)
			}
		},
	}
}

// LoadConfig loads module-specific configuration from environment variables.
func (m *Module) LoadConfig() error {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return err
	}
	m.config = cfg
	return nil
}

// Init initializes the module.
func (m *Module) Init(deps bot.ModuleDependencies) error {
	m.ctx, m.cancel = context.WithCancel(context.Background())

	m.eventBus = events.NewBus(events.DefaultEventBufferSize)

	lavalinkAdapter, err := infrastructure.NewLavalinkAdapter(deps.Session, infrastructure.LavalinkConfig{
		Address:  m.config.LavalinkAddress,
		Password: m.config.LavalinkPassword,
		Secure:   m.config.LavalinkSecure,
	})
	if err != nil {
		return err
	}
	lavalinkAdapter.SetEventBus(m.eventBus)
	m.lavalinkAdapter = lavalinkAdapter

	registry := infrastructure.NewMemoryRegistry()
	voiceState := infrastructure.NewVoiceStateProvider(deps.Session)
	notifier := infrastructure.NewNotifier(deps.Session)

	playback := usecases.NewPlaybackService(registry, lavalinkAdapter, notifier, m.eventBus)
	voice := usecases.NewVoiceService(registry, lavalinkAdapter, lavalinkAdapter, voiceState)
	resolver := usecases.NewResolverService(lavalinkAdapter)
	selections := usecases.NewSelectionStore(m.config.SelectionTTL)

	m.playbackHandler = events.NewPlaybackEventHandler(
		playback.HandleRenderCompleted,
		playback.StartIfIdle,
		m.eventBus,
	)
	m.playbackHandler.Start(m.ctx)

	m.handlers = presentation.NewHandlers(voice, playback, resolver, selections, notifier)
	m.eventHandlers = presentation.NewEventHandlers(
		lavalinkAdapter.BotID(),
		playback,
		voice,
		selections,
		notifier,
	)

	slog.Info("music module initialized")

	return nil
}

// Shutdown cleans up module resources.
func (m *Module) Shutdown() error {
	if m.cancel != nil {
		m.cancel()
	}

	if m.playbackHandler != nil {
		m.playbackHandler.Stop()
	}

	if m.eventBus != nil {
		m.eventBus.Close()
	}

	if m.lavalinkAdapter != nil {
		m.lavalinkAdapter.Link().Close()
	}

	return nil
}
