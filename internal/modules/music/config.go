package music

import "time"

// Config holds the music module configuration.
type Config struct {
	LavalinkAddress  string        `env:"LAVALINK_ADDRESS,notEmpty"`
	LavalinkPassword string        `env:"LAVALINK_PASSWORD,notEmpty"`
	LavalinkSecure   bool          `env:"LAVALINK_SECURE" envDefault:"false"`
	SelectionTTL     time.Duration `env:"SELECTION_TTL" envDefault:"60s"`
}
