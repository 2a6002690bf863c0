package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"server-tags/pkg/tagscript"
)

// Config is read from the environment, optionally seeded by a .env file.
type Config struct {
	DiscordToken      string `env:"DISCORD_TOKEN,required,notEmpty"`
	StoragePath       string `env:"STORAGE_PATH" envDefault:"datastore.json"`
	DeveloperID       string `env:"DEVELOPER_ID"`
	InitSlashCommands bool   `env:"INIT_SLASH_COMMANDS" envDefault:"true"`
	DefaultPrefix     string `env:"DEFAULT_PREFIX" envDefault:"!"`

	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
	LogFile  string `env:"LOG_FILE"`

	TagMaxInput  int           `env:"TAG_MAX_INPUT" envDefault:"10000"`
	TagMaxDepth  int           `env:"TAG_MAX_DEPTH" envDefault:"16"`
	TagMaxBlocks int           `env:"TAG_MAX_BLOCKS" envDefault:"500"`
	TagMaxOutput int           `env:"TAG_MAX_OUTPUT" envDefault:"20000"`
	TagTimeout   time.Duration `env:"TAG_TIMEOUT" envDefault:"2s"`
	TagRate      float64       `env:"TAG_RATE" envDefault:"0.5"`
	TagBurst     int           `env:"TAG_BURST" envDefault:"3"`
}

// Load reads .env (when present) and parses the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Info().Msg("No .env file found, falling back to system environment variables")
	}
	return Parse()
}

// Parse reads the process environment only.
func Parse() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if cfg.TagTimeout <= 0 {
		return nil, fmt.Errorf("TAG_TIMEOUT must be positive, got %s", cfg.TagTimeout)
	}
	if cfg.TagBurst < 1 {
		cfg.TagBurst = 1
	}
	return &cfg, nil
}

// Limits converts the TAG_MAX_* settings for the interpreter.
func (c *Config) Limits() tagscript.Limits {
	return tagscript.Limits{
		MaxInput:  c.TagMaxInput,
		MaxDepth:  c.TagMaxDepth,
		MaxBlocks: c.TagMaxBlocks,
		MaxOutput: c.TagMaxOutput,
	}
}
