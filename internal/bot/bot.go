package bot

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/bwmarrin/discordgo"

	"github.com/mizuki0306/cadence/internal/command"
)

// ErrUnknownCommand is returned by Dispatch when an intent names a command
// no module registered. Recognized intents normally cannot hit this; it
// guards against a dispatch table and parser table drifting apart.
var ErrUnknownCommand = errors.New("unknown command")

// Bot manages the Discord session lifecycle, routes prefix commands to
// module handlers, and fans Discord events out to module event handlers.
type Bot struct {
	config   *Config
	session  *discordgo.Session
	modules  []Module
	handlers map[string]CommandHandler
	parser   *command.Parser
}

// NewBot creates a new Bot instance with the given configuration.
func NewBot(cfg *Config) *Bot {
	return &Bot{
		config:   cfg,
		modules:  make([]Module, 0),
		handlers: make(map[string]CommandHandler),
	}
}

// LoadModules loads modules from the global registry.
func (b *Bot) LoadModules() {
	b.modules = Modules()
}

// Start initializes the bot, connects to Discord, and begins routing
// messages to module commands.
func (b *Bot) Start() error {
	session, err := discordgo.New("Bot " + b.config.DiscordToken)
	if err != nil {
		return fmt.Errorf("failed to create Discord session: %w", err)
	}
	session.Identify.Intents |= discordgo.IntentMessageContent |
		discordgo.IntentGuildMessages |
		discordgo.IntentGuildMessageReactions |
		discordgo.IntentGuildVoiceStates
	b.session = session

	// Load module configs before anything touches the network
	for _, mod := range b.modules {
		if cm, ok := mod.(ConfigurableModule); ok {
			if err := cm.LoadConfig(); err != nil {
				return fmt.Errorf("failed to load %s module config: %w", mod.Name(), err)
			}
		}
	}

	if err := b.initModules(); err != nil {
		return fmt.Errorf("failed to initialize modules: %w", err)
	}

	b.buildDispatchTable()

	b.session.AddHandler(b.handleMessage)
	b.registerEventHandlers()

	if err := b.session.Open(); err != nil {
		return fmt.Errorf("failed to open Discord connection: %w", err)
	}

	slog.Info("started bot",
		"user_id", b.session.State.User.ID,
		"username", b.session.State.User.Username,
		"commands", len(b.handlers),
	)

	return nil
}

// Stop gracefully shuts down the bot.
func (b *Bot) Stop() error {
	for _, mod := range b.modules {
		if err := mod.Shutdown(); err != nil {
			slog.Warn("failed to shutdown module", "module", mod.Name(), "error", err)
		}
	}

	if b.session != nil {
		return b.session.Close()
	}

	return nil
}

// initModules initializes all loaded modules.
func (b *Bot) initModules() error {
	deps := ModuleDependencies{
		Config:     b.config,
		Session:    b.session,
		Dispatcher: b,
	}

	for _, mod := range b.modules {
		if err := mod.Init(deps); err != nil {
			return fmt.Errorf("failed to initialize %s module: %w", mod.Name(), err)
		}
		slog.Debug("initialized module", "module", mod.Name())
	}

	moduleNames := make([]string, len(b.modules))
	for i, mod := range b.modules {
		moduleNames[i] = mod.Name()
	}
	slog.Info("initialized modules", "modules", moduleNames)

	return nil
}

// buildDispatchTable merges every module's text commands into a single
// static name-to-handler table and builds the matching parser.
func (b *Bot) buildDispatchTable() {
	table := make(map[string]command.ArgPolicy)
	for _, mod := range b.modules {
		for _, cmd := range mod.TextCommands() {
			if _, exists := b.handlers[cmd.Name]; exists {
				slog.Warn("duplicate command registration ignored",
					"module", mod.Name(), "command", cmd.Name)
				continue
			}
			b.handlers[cmd.Name] = cmd.Handler
			table[cmd.Name] = cmd.ArgPolicy
		}
	}
	b.parser = command.NewParser(table)
}

// registerEventHandlers registers all module event handlers with the session.
func (b *Bot) registerEventHandlers() {
	for _, mod := range b.modules {
		for _, handler := range mod.EventHandlers() {
			b.session.AddHandler(handler)
		}
	}
}

// handleMessage parses inbound guild messages and routes recognized
// commands. Conversational text is left alone; module event handlers
// (such as the assistant's mention handler) see it independently.
func (b *Bot) handleMessage(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.Bot || m.GuildID == "" {
		return
	}

	in := b.parser.Parse(m.Content)
	switch in.Kind {
	case command.NotACommand:
		return
	case command.Unrecognized:
		// Looked like a command but failed the whitelist or shape check.
		// Report it; never execute, never drop silently.
		b.reportRejected(s, m, in)
		return
	}

	if err := b.Dispatch(s, m, in); err != nil {
		slog.Error("failed to handle command",
			"command", in.Name, "guild", m.GuildID, "error", err)
		r := NewDiscordResponder(s, m.ChannelID)
		if rerr := r.Reply("An error occurred while processing your command."); rerr != nil {
			slog.Error("failed to send error reply", "error", rerr)
		}
	}
}

// Dispatch executes a Recognized intent through the module dispatch table.
// This is the single execution path for commands, whether they came from a
// typed message or from a validated model reply.
func (b *Bot) Dispatch(s *discordgo.Session, m *discordgo.MessageCreate, in command.Intent) error {
	if in.Kind != command.Recognized {
		return fmt.Errorf("refusing to dispatch non-recognized intent: %w", ErrUnknownCommand)
	}

	handler, ok := b.handlers[in.Name]
	if !ok {
		return fmt.Errorf("%q: %w", in.Name, ErrUnknownCommand)
	}

	slog.Debug("dispatching command", "command", in.Name, "guild", m.GuildID)
	return handler(s, m, in.Arg, NewDiscordResponder(s, m.ChannelID))
}

func (b *Bot) reportRejected(s *discordgo.Session, m *discordgo.MessageCreate, in command.Intent) {
	msg := "Command not recognized."
	if in.Name != "" {
		msg = fmt.Sprintf("Command not recognized: `%s`.", in.Name)
	}
	r := NewDiscordResponder(s, m.ChannelID)
	if err := r.Reply(msg); err != nil {
		slog.Error("failed to send rejection notice", "error", err)
	}
}
