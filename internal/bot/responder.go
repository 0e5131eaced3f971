package bot

import "github.com/bwmarrin/discordgo"

// Responder provides an abstraction for replying to the channel a command
// arrived in. This interface enables testing handlers without a live
// Discord connection.
type Responder interface {
	// Reply sends a plain text message to the originating channel.
	Reply(content string) error
}

// DiscordResponder implements Responder using a live Discord session.
type DiscordResponder struct {
	session   *discordgo.Session
	channelID string
}

// NewDiscordResponder creates a new DiscordResponder bound to a channel.
func NewDiscordResponder(s *discordgo.Session, channelID string) *DiscordResponder {
	return &DiscordResponder{
		session:   s,
		channelID: channelID,
	}
}

// Reply sends the message via the Discord API.
func (r *DiscordResponder) Reply(content string) error {
	_, err := r.session.ChannelMessageSend(r.channelID, content)
	return err
}

// MockResponder is a test double for Responder.
type MockResponder struct {
	Replies []string
	Err     error
}

// Reply records the message for testing.
func (m *MockResponder) Reply(content string) error {
	m.Replies = append(m.Replies, content)
	return m.Err
}
