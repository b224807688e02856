// /internal/config/config.go
package config

import (
	"fmt"
	"slices"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	DiscordToken          string        `env:"DISCORD_TOKEN"`
	Prefix                string        `env:"COMMAND_PREFIX" envDefault:"$"`
	StoragePath           string        `env:"STORAGE_PATH" envDefault:"datastore.json"`
	DeveloperID           string        `env:"DEVELOPER_ID"`
	BotAdmins             []string      `env:"BOT_ADMINS" envSeparator:","`
	BotSupport            []string      `env:"BOT_SUPPORT" envSeparator:","`
	DiscordGuildBlacklist []string      `env:"DISCORD_GUILD_BLACKLIST" envSeparator:","`
	StaticCommandsPath    string        `env:"STATIC_COMMANDS_PATH"`
	CooldownPerMinute     int           `env:"COOLDOWN_PER_MINUTE" envDefault:"20"`
	PromptTimeout         time.Duration `env:"PROMPT_TIMEOUT" envDefault:"30s"`
	LogLevel              string        `env:"LOG_LEVEL" envDefault:"info"`
	LogFile               string        `env:"LOG_FILE"`
	Currency              string        `env:"CURRENCY" envDefault:"Mons"`
}

// Load reads .env when present, then the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if cfg.CooldownPerMinute < 0 {
		return nil, fmt.Errorf("COOLDOWN_PER_MINUTE must not be negative, got %d", cfg.CooldownPerMinute)
	}
	return cfg, nil
}

// RequireDiscord checks settings the Discord transport cannot run without.
func (c *Config) RequireDiscord() error {
	if c.DiscordToken == "" {
		return fmt.Errorf("DISCORD_TOKEN is not set")
	}
	return nil
}

// IsDeveloper reports whether a user ID matches the configured developer.
func IsDeveloper(cfg *Config, userID string) bool {
	return cfg != nil && cfg.DeveloperID != "" && cfg.DeveloperID == userID
}

// IsBotAdmin reports whether a user ID is listed in BOT_ADMINS.
func (c *Config) IsBotAdmin(userID string) bool {
	return slices.Contains(c.BotAdmins, userID)
}

// IsBotSupport reports whether a user ID is listed in BOT_SUPPORT.
func (c *Config) IsBotSupport(userID string) bool {
	return slices.Contains(c.BotSupport, userID)
}

// IsGuildBlacklisted reports whether the bot should ignore a guild.
func (c *Config) IsGuildBlacklisted(guildID string) bool {
	return slices.Contains(c.DiscordGuildBlacklist, guildID)
}
