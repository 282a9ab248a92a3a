package formhttp

import "time"

// Config controls the session registry.
type Config struct {
	SessionTTL    time.Duration `env:"FORMHTTP_SESSION_TTL" envDefault:"30m"`
	SweepInterval time.Duration `env:"FORMHTTP_SWEEP_INTERVAL" envDefault:"1m"`
	MaxSessions   int           `env:"FORMHTTP_MAX_SESSIONS" envDefault:"10000"`
}

// DefaultConfig returns the values used when the environment sets nothing.
func DefaultConfig() Config {
	return Config{
		SessionTTL:    30 * time.Minute,
		SweepInterval: time.Minute,
		MaxSessions:   10000,
	}
}
