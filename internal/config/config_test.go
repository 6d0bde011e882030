package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "chatbot.db", cfg.Database.File)
	assert.Equal(t, 5, cfg.Moderation.VoteThreshold)
	assert.Equal(t, time.Hour, cfg.Moderation.Window())
	assert.Equal(t, 30*time.Minute, cfg.Moderation.Mute())
	assert.Equal(t, time.Hour, cfg.Moderation.Cooldown(), "cooldown follows the window")
	assert.Equal(t, 30*24*time.Hour, cfg.Audit.Retention())
	assert.Equal(t, 5*time.Minute, cfg.Cache.TTLDuration())
	assert.Equal(t, 10, cfg.RateLimit.CommandsPerMinute)
}

func TestLoad_YAMLThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yml := `
server:
  port: 9000
moderation:
  voteThreshold: 7
  escalationCooldown: 0
chat:
  rulesText: "be nice"
`
	require.NoError(t, os.WriteFile(path, []byte(yml), 0o600))

	t.Setenv("MUTE_VOTE_THRESHOLD", "3")
	t.Setenv("REDIS_HOST", "cache.internal")
	t.Setenv("DB_MAX_OPEN_CONNS", "25")
	t.Setenv("AUDIT_RETENTION_DAYS", "7")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, 3, cfg.Moderation.VoteThreshold, "environment wins over YAML")
	assert.Equal(t, time.Duration(0), cfg.Moderation.Cooldown())
	assert.Equal(t, "be nice", cfg.Chat.RulesText)
	assert.Equal(t, "cache.internal", cfg.Redis.Host)
	assert.Equal(t, 25, cfg.Database.MaxOpenConns)
	assert.Equal(t, 7, cfg.Audit.RetentionDays)
}

func TestLoad_ValidationErrors(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"driver", "DB_DRIVER", "oracle"},
		{"dsn required", "DB_DRIVER", "postgres"},
		{"threshold", "MUTE_VOTE_THRESHOLD", "0"},
		{"window", "MUTE_VOTE_WINDOW", "0"},
		{"mute too long", "MUTE_DURATION", "1441"},
		{"negative cooldown", "ESCALATION_COOLDOWN", "-1"},
		{"retention", "AUDIT_RETENTION_DAYS", "0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.val)
			_, err := Load("")
			assert.Error(t, err)
		})
	}
}

func TestLoad_BadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [unclosed"), 0o600))
	_, err := Load(path)
	assert.Error(t, err)
}
