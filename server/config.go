package server

import (
	"time"

	"github.com/caarlos0/env/v11"
)

// Config controls the dev backend's relying-party settings.
type Config struct {
	Addr         string        `env:"TESTSSO_ADDR"          envDefault:":8000"`
	RPID         string        `env:"TESTSSO_RP_ID"         envDefault:"localhost"`
	RPName       string        `env:"TESTSSO_RP_NAME"       envDefault:"Test SSO"`
	RPOrigins    []string      `env:"TESTSSO_RP_ORIGINS"    envSeparator:"," envDefault:"http://localhost:5173"`
	ChallengeTTL time.Duration `env:"TESTSSO_CHALLENGE_TTL" envDefault:"5m"`
	RedisURL     string        `env:"REDIS_URL"`
}

// LoadConfigFromEnv returns server configuration with defaults.
func LoadConfigFromEnv() Config {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{
			Addr:         ":8000",
			RPID:         "localhost",
			RPName:       "Test SSO",
			RPOrigins:    []string{"http://localhost:5173"},
			ChallengeTTL: 5 * time.Minute,
		}
	}
	return cfg
}
