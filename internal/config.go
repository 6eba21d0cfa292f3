package internal

import (
	"fmt"
	"time"
)

type Config struct {
	Host              string        `env:"HOST,default=0.0.0.0"`
	Port              int           `env:"PORT,default=5000"`
	BadgerFilepath    string        `env:"BADGER_FILEPATH,required=true"`
	LogLevel          string        `env:"LOG_LEVEL,default=INFO"`
	SweepInterval     time.Duration `env:"SWEEP_INTERVAL,default=15s"`
	PresenceTimeout   time.Duration `env:"PRESENCE_TIMEOUT,default=10s"`
	RestartInterval   time.Duration `env:"RESTART_INTERVAL,default=1s"`
	ShutdownTimeout   time.Duration `env:"SHUTDOWN_TIMEOUT,default=5s"`
	DefaultLimit      int           `env:"DEFAULT_LIMIT_MESSAGES,default=0"`
	CensoredWords     string        `env:"CENSORED_WORDS"`
	CharReplacement   string        `env:"CHARACTER_REPLACEMENT,default=*"`
	DebugPort         int           `env:"DEBUG_PORT,default=8081"`
	EnableDebugServer bool          `env:"ENABLE_DEBUG_SERVER,default=false"`
}

// Validate rejects settings under which presence could never be observed.
func (c Config) Validate() error {
	if c.SweepInterval <= 0 {
		return fmt.Errorf("SWEEP_INTERVAL must be positive, got %s", c.SweepInterval)
	}
	if c.PresenceTimeout <= 0 {
		return fmt.Errorf("PRESENCE_TIMEOUT must be positive, got %s", c.PresenceTimeout)
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("PORT must be a valid TCP port, got %d", c.Port)
	}
	if c.DefaultLimit < 0 {
		return fmt.Errorf("DEFAULT_LIMIT_MESSAGES must not be negative, got %d", c.DefaultLimit)
	}
	return nil
}

// CharacterRune returns the single rune used to mask censored words.
func (c Config) CharacterRune() (rune, error) {
	r := []rune(c.CharReplacement)
	if len(r) != 1 {
		return 0, fmt.Errorf(
			"CHARACTER_REPLACEMENT must be a single character, got %q",
			c.CharReplacement,
		)
	}
	return r[0], nil
}
