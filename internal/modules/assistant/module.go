// Package assistant lets users talk to the bot in plain language. A
// mention goes to an LLM whose reply is either conversational text or a
// single command string; command strings are validated against a strict
// whitelist before they reach the dispatcher, so the model can never
// trigger anything a user could not type themselves.
package assistant

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/bwmarrin/discordgo"
	"github.com/caarlos0/env/v11"
	"golang.org/x/time/rate"

	"github.com/mizuki0306/cadence/internal/bot"
	"github.com/mizuki0306/cadence/internal/command"
)

const (
	// generateTimeout bounds one model round trip.
	generateTimeout = 30 * time.Second

	// replyLimit is Discord's message length cap.
	replyLimit = 2000
)

// systemPrompt instructs the model to answer either conversationally or
// with exactly one whitelisted command string.
const systemPrompt = `You are a playful music assistant in a Discord server.
When the user wants the bot to do something, reply with EXACTLY one command and nothing else:
!play <url or search terms> - queue a track
!skip - skip the current track
!pause - pause playback
!resume - resume playback
!join - join the user's voice channel
!leave - leave the voice channel
For anything else, reply conversationally in one or two short sentences.
Never invent commands that are not in the list above.`

func init() {
	bot.Register(&Module{})
}

// Compile-time interface checks.
var (
	_ bot.Module             = (*Module)(nil)
	_ bot.ConfigurableModule = (*Module)(nil)
)

// Config holds the assistant module configuration.
type Config struct {
	APIKey  string `env:"AI_API_KEY"`
	BaseURL string `env:"AI_BASE_URL" envDefault:"https://openrouter.ai/api/v1"`
	Model   string `env:"AI_MODEL" envDefault:"deepseek/deepseek-chat-v3-0324:free"`
}

// Module provides the mention-driven assistant and the model command.
type Module struct {
	config *Config

	provider   Provider
	openai     *OpenAIProvider
	parser     *command.Parser
	dispatcher bot.Dispatcher
	limiter    *rate.Limiter
}

// Name returns the module name.
func (m *Module) Name() string {
	return "assistant"
}

// TextCommands returns the prefix commands for this module.
func (m *Module) TextCommands() []bot.TextCommand {
	return []bot.TextCommand{
		{Name: "model", ArgPolicy: command.ArgOptional, Handler: m.handleModel},
	}
}

// EventHandlers returns the event handlers for this module.
func (m *Module) EventHandlers() []bot.EventHandler {
	return []bot.EventHandler{
		func(s *discordgo.Session, event *discordgo.MessageCreate) {
			m.handleMention(s, event)
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
	m.openai = NewOpenAIProvider(m.config.BaseURL, m.config.APIKey, m.config.Model)
	m.provider = m.openai
	m.parser = command.NewParser(command.ModelTable())
	m.dispatcher = deps.Dispatcher
	// One model call every few seconds with a small burst keeps a chatty
	// channel from draining the API quota.
	m.limiter = rate.NewLimiter(rate.Every(3*time.Second), 2)

	slog.Info("assistant module initialized", "model", m.config.Model)

	return nil
}

// Shutdown cleans up module resources.
func (m *Module) Shutdown() error {
	return nil
}

// handleMention answers messages that mention the bot.
func (m *Module) handleMention(s *discordgo.Session, event *discordgo.MessageCreate) {
	if event.Author == nil || event.Author.Bot || event.GuildID == "" {
		return
	}
	if s.State == nil || s.State.User == nil {
		return
	}

	botID := s.State.User.ID
	if !mentionsUser(event.Message, botID) {
		return
	}

	text := stripMention(event.Content, botID)
	if text == "" {
		return
	}

	r := bot.NewDiscordResponder(s, event.ChannelID)

	if !m.limiter.Allow() {
		m.reply(r, "Give me a moment, I'm still catching up.")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), generateTimeout)
	defer cancel()

	reply, err := m.provider.Generate(ctx, []Message{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: text},
	})
	if err != nil {
		slog.Error("model generation failed", "guild", event.GuildID, "error", err)
		m.reply(r, "I couldn't come up with a reply, sorry.")
		return
	}

	m.handleModelReply(s, event, r, reply)
}

// handleModelReply routes a model reply: command strings go through the
// whitelist and the regular dispatch path, everything else is plain chat.
func (m *Module) handleModelReply(
	s *discordgo.Session,
	event *discordgo.MessageCreate,
	r bot.Responder,
	reply string,
) {
	in := m.parser.Parse(reply)

	switch in.Kind {
	case command.Recognized:
		slog.Debug("dispatching model command",
			"command", in.Name, "guild", event.GuildID)
		if err := m.dispatcher.Dispatch(s, event, in); err != nil {
			slog.Error("model command failed",
				"command", in.Name, "guild", event.GuildID, "error", err)
			m.reply(r, "I tried, but that didn't work.")
		}

	case command.Unrecognized:
		// The model went off the whitelist. Surface it instead of
		// executing or silently dropping.
		slog.Warn("model suggested a non-whitelisted command",
			"command", in.Name, "guild", event.GuildID)
		if in.Name != "" {
			m.reply(r, fmt.Sprintf("I wanted to run `%s`, but that's not something I can do.", in.Name))
		} else {
			m.reply(r, "I suggested something I'm not allowed to do.")
		}

	default:
		if len(reply) > replyLimit {
			reply = truncateReply(reply, replyLimit)
		}
		m.reply(r, reply)
	}
}

// truncateReply shortens reply to at most limit bytes, cutting on a rune
// boundary so the trailing ellipsis never follows a broken sequence.
func truncateReply(reply string, limit int) string {
	const ellipsis = "…"
	cut := limit - len(ellipsis)
	for cut > 0 && !utf8.RuneStart(reply[cut]) {
		cut--
	}
	return reply[:cut] + ellipsis
}

// handleModel shows or switches the assistant's model.
func (m *Module) handleModel(
	_ *discordgo.Session,
	_ *discordgo.MessageCreate,
	arg string,
	r bot.Responder,
) error {
	if arg == "" {
		return r.Reply(fmt.Sprintf("Current model: `%s`.", m.openai.Model()))
	}

	m.openai.SetModel(arg)
	return r.Reply(fmt.Sprintf("Switched model to `%s`.", arg))
}

func (m *Module) reply(r bot.Responder, text string) {
	if err := r.Reply(text); err != nil {
		slog.Error("failed to send assistant reply", "error", err)
	}
}

// mentionsUser reports whether the message mentions the given user.
func mentionsUser(message *discordgo.Message, userID string) bool {
	for _, user := range message.Mentions {
		if user != nil && user.ID == userID {
			return true
		}
	}
	return false
}

// stripMention removes the bot mention tokens from the message text.
func stripMention(content, userID string) string {
	content = strings.ReplaceAll(content, "<@"+userID+">", "")
	content = strings.ReplaceAll(content, "<@!"+userID+">", "")
	return strings.TrimSpace(content)
}
