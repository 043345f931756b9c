package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ServerPort int

	// DatabaseURL is kept as bytes so it can be wiped once the
	// connection pool is up.
	DatabaseURL []byte

	APIHost        string
	TokenAudience  []string
	TokenLifetime  time.Duration
	SigningKeyPath string

	CORSOrigins []string

	HealthcheckURL string

	KafkaBrokers     []string
	ElasticsearchURL string

	LogLevel string
}

func Load() *Config {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Notice: .env file not found: %v. Using system environment variables", err)
	}

	cfg := &Config{
		ServerPort: EnvIntDefault("SERVER_PORT", 5479),

		DatabaseURL: []byte(os.Getenv("DATABASE_URL")),

		APIHost:        os.Getenv("API_HOST"),
		TokenAudience:  CSV(os.Getenv("TOKEN_AUDIENCE")),
		TokenLifetime:  time.Duration(EnvIntDefault("TOKEN_LIFETIME_SECONDS", 3600)) * time.Second,
		SigningKeyPath: os.Getenv("SIGNING_KEY_PATH"),

		CORSOrigins: CSV(os.Getenv("CORS_ORIGINS")),

		HealthcheckURL: os.Getenv("HEALTHCHECK_URL"),

		KafkaBrokers:     CSV(os.Getenv("KAFKA_BROKERS")),
		ElasticsearchURL: os.Getenv("ELASTICSEARCH_URL"),

		LogLevel: EnvDefault("LOG_LEVEL", "info"),
	}

	cfg.requireCriticalKeys()

	return cfg
}

// WipeDatabaseURL zeroes the connection string after the pool has been
// established so the credentials do not linger in memory.
func (c *Config) WipeDatabaseURL() {
	for i := range c.DatabaseURL {
		c.DatabaseURL[i] = 0
	}
	c.DatabaseURL = nil
}

func CSV(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func EnvDefault(key, def string) string {
	if os.Getenv(key) != "" {
		return os.Getenv(key)
	}
	return def
}

func EnvIntDefault(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
