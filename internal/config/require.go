package config

import (
	"log"
	"strings"
)

// missingCriticalKeys lists the settings without a usable default that
// are absent from the environment. Collected in one pass so a fresh
// deployment sees every missing variable at once instead of failing
// one restart at a time.
func (c *Config) missingCriticalKeys() []string {
	var missing []string
	if len(c.DatabaseURL) == 0 {
		missing = append(missing, "DATABASE_URL")
	}
	if c.APIHost == "" {
		missing = append(missing, "API_HOST")
	}
	if len(c.TokenAudience) == 0 {
		missing = append(missing, "TOKEN_AUDIENCE")
	}
	if c.SigningKeyPath == "" {
		missing = append(missing, "SIGNING_KEY_PATH")
	}
	return missing
}

func (c *Config) requireCriticalKeys() {
	if missing := c.missingCriticalKeys(); len(missing) > 0 {
		log.Fatalf("missing required env: %s", strings.Join(missing, ", "))
	}
}
