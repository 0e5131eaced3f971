package infrastructure

import (
	"log/slog"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/disgoorg/snowflake/v2"

	"github.com/mizuki0306/cadence/internal/modules/music/application/ports"
)

// Notifier sends playback outcomes and candidate menus to Discord text
// channels.
type Notifier struct {
	session *discordgo.Session
}

// NewNotifier creates a new Notifier.
func NewNotifier(session *discordgo.Session) *Notifier {
	return &Notifier{
		session: session,
	}
}

// Say sends a plain message to the channel.
func (n *Notifier) Say(channelID snowflake.ID, text string) error {
	_, err := n.session.ChannelMessageSend(channelID.String(), text)
	return err
}

// PresentCandidates sends an enumerated candidate menu, adds the number
// reactions used for selection, and returns the menu message ID.
func (n *Notifier) PresentCandidates(
	channelID snowflake.ID,
	lines []string,
) (snowflake.ID, error) {
	if len(lines) > len(ports.NumberEmojis) {
		lines = lines[:len(ports.NumberEmojis)]
	}

	var sb strings.Builder
	sb.WriteString("Which one did you mean? React with the number to pick.\n")
	for i, line := range lines {
		sb.WriteString(ports.NumberEmojis[i])
		sb.WriteString(" ")
		sb.WriteString(line)
		sb.WriteString("\n")
	}

	msg, err := n.session.ChannelMessageSend(channelID.String(), sb.String())
	if err != nil {
		return 0, err
	}

	messageID, err := snowflake.Parse(msg.ID)
	if err != nil {
		return 0, err
	}

	// Prime the menu with one reaction per candidate so picking is a
	// single click. Failures here only cost convenience.
	for i := range lines {
		if err := n.session.MessageReactionAdd(channelID.String(), msg.ID, ports.NumberEmojis[i]); err != nil {
			slog.Warn("failed to add selection reaction",
				"channel", channelID,
				"message", msg.ID,
				"error", err,
			)
			break
		}
	}

	return messageID, nil
}

// Ensure Notifier implements ports.Notifier.
var _ ports.Notifier = (*Notifier)(nil)
