package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 20, cfg.CooldownPerMinute)
	assert.Equal(t, 30*time.Second, cfg.PromptTimeout)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Error(t, (&Config{}).RequireDiscord())
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("DISCORD_TOKEN", "token")
	t.Setenv("COMMAND_PREFIX", "!")
	t.Setenv("BOT_ADMINS", "1,2")
	t.Setenv("BOT_SUPPORT", "3")
	t.Setenv("DISCORD_GUILD_BLACKLIST", "g1")
	t.Setenv("PROMPT_TIMEOUT", "5s")
	t.Setenv("DEVELOPER_ID", "42")

	cfg, err := Load()
	require.NoError(t, err)
	require.NoError(t, cfg.RequireDiscord())

	assert.Equal(t, "!", cfg.Prefix)
	assert.Equal(t, 5*time.Second, cfg.PromptTimeout)
	assert.True(t, cfg.IsBotAdmin("2"))
	assert.False(t, cfg.IsBotAdmin("3"))
	assert.True(t, cfg.IsBotSupport("3"))
	assert.True(t, cfg.IsGuildBlacklisted("g1"))
	assert.True(t, IsDeveloper(cfg, "42"))
	assert.False(t, IsDeveloper(nil, "42"))
}

func TestLoad_RejectsBadValues(t *testing.T) {
	t.Setenv("COOLDOWN_PER_MINUTE", "-1")
	_, err := Load()
	assert.Error(t, err)

	t.Setenv("COOLDOWN_PER_MINUTE", "many")
	_, err = Load()
	assert.Error(t, err)
}
