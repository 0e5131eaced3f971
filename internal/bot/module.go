package bot

import (
	"github.com/bwmarrin/discordgo"

	"github.com/mizuki0306/cadence/internal/command"
)

// CommandHandler handles a parsed text command invocation.
// The argument is whatever remained after the command name, already
// validated against the command's ArgPolicy.
type CommandHandler func(s *discordgo.Session, m *discordgo.MessageCreate, arg string, r Responder) error

// TextCommand declares a prefix command a module contributes to the bot's
// dispatch table. The table is static: commands are declared up front and
// matched by exact name, never looked up dynamically.
type TextCommand struct {
	Name      string
	ArgPolicy command.ArgPolicy
	Handler   CommandHandler
}

// EventHandler is a generic handler for any Discord event.
// It should be a function matching one of discordgo's handler signatures,
// e.g., func(s *discordgo.Session, m *discordgo.MessageReactionAdd)
type EventHandler any

// Dispatcher executes an already-parsed intent through the same path as a
// typed command. Only Recognized intents are executed.
type Dispatcher interface {
	Dispatch(s *discordgo.Session, m *discordgo.MessageCreate, in command.Intent) error
}

// ModuleDependencies provides dependencies that modules may need during initialization.
type ModuleDependencies struct {
	Config     *Config
	Session    *discordgo.Session
	Dispatcher Dispatcher
}

// Module defines the interface that all bot modules must implement.
type Module interface {
	// Name returns the unique identifier for this module.
	Name() string

	// TextCommands returns the prefix commands that this module provides.
	TextCommands() []TextCommand

	// EventHandlers returns event handlers for this module.
	// Each handler should match a discordgo handler signature.
	EventHandlers() []EventHandler

	// Init initializes the module with the provided dependencies.
	Init(deps ModuleDependencies) error

	// Shutdown gracefully shuts down the module.
	Shutdown() error
}

// ConfigurableModule is an optional interface for modules that need configuration.
// Modules implementing this interface will have LoadConfig called before Init.
type ConfigurableModule interface {
	// LoadConfig loads and validates module-specific configuration.
	// Called before Init() and before the Discord connection is established.
	// Should return an error if required configuration is missing or invalid.
	LoadConfig() error
}
