package ports

import (
	"github.com/disgoorg/snowflake/v2"
)

// NumberEmojis are the reaction emojis used for candidate selection, in
// menu order. Their count bounds how many candidates a menu can carry.
var NumberEmojis = []string{
	"1️⃣",
	"2️⃣",
	"3️⃣",
	"4️⃣",
	"5️⃣",
}

// EmojiIndex returns the 1-based menu index for a reaction emoji, or 0
// if the emoji is not a selection number.
func EmojiIndex(emoji string) int {
	for i, e := range NumberEmojis {
		if emoji == e {
			return i + 1
		}
	}
	return 0
}

// Notifier sends user-facing playback outcomes to text channels. It is
// used for asynchronous outcomes (render started, queue finished,
// candidate menus); direct command responses go through the bot's
// Responder instead.
type Notifier interface {
	// Say sends a plain message to the channel.
	Say(channelID snowflake.ID, text string) error

	// PresentCandidates sends an enumerated candidate menu, primes it for
	// selection (number reactions), and returns the menu message ID,
	// which doubles as the selection correlation token.
	PresentCandidates(channelID snowflake.ID, lines []string) (snowflake.ID, error)
}
