package e2e

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	// CHAT_ADDR is the base URL of a running chat server, e.g. http://localhost:5000
	ChatAddr string `envconfig:"CHAT_ADDR"`
	// E2E_DEBUG_JSON dumps full HTTP request/response bodies
	DebugJSON bool `envconfig:"E2E_DEBUG_JSON" default:"false"`
	// E2E_COLOURS enables colorized output for better log readability
	Colours bool `envconfig:"E2E_COLOURS" default:"true"`
	// E2E_PRESENCE_WAIT must exceed the server's sweep interval plus presence timeout
	PresenceWait time.Duration `envconfig:"E2E_PRESENCE_WAIT" default:"30s"`
}

func LoadConfig() (Config, error) {
	var cfg Config
	err := envconfig.Process("", &cfg)
	return cfg, err
}
