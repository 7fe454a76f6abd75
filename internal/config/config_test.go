package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() Config {
	cfg := Defaults()
	cfg.Slack.BotToken = "xoxb-abc"
	cfg.Slack.AppToken = "xapp-abc"
	cfg.Model.APIKey = "sk-test"
	return cfg
}

func TestDefaults(t *testing.T) {
	cfg := Defaults()
	assert.Equal(t, 20, cfg.Memory.MaxHistory)
	assert.Equal(t, 30, cfg.Memory.IdleMinutes)
	assert.Equal(t, 30, cfg.Session.IdleMinutes)
	assert.Equal(t, 10, cfg.Agent.MaxToolRounds)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.True(t, cfg.Store.Enabled)
}

func TestLoadMissingFileGivesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 20, cfg.Memory.MaxHistory)
}

func TestLoadFileOverridesAndFillsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
slack:
  botToken: xoxb-from-file
memory:
  maxHistory: 7
logging:
  level: debug
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "xoxb-from-file", cfg.Slack.BotToken)
	assert.Equal(t, 7, cfg.Memory.MaxHistory)
	assert.Equal(t, "debug", cfg.Logging.Level)
	// Untouched sections keep their defaults.
	assert.Equal(t, 30, cfg.Memory.IdleMinutes)
	assert.Equal(t, 10, cfg.Agent.MaxToolRounds)
}

func TestLoadMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("slack: ["), 0o600))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse config")
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("MAILBOT_SLACK_BOT_TOKEN", "xoxb-env")
	t.Setenv("MAILBOT_LOG_LEVEL", "WARN")

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "xoxb-env", cfg.Slack.BotToken)
	assert.Equal(t, "warn", cfg.Logging.Level)
}

func TestSensitiveFieldExpansion(t *testing.T) {
	t.Setenv("TEST_API_KEY", "sk-expanded")
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
model:
  apiKey: ${TEST_API_KEY}
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "sk-expanded", cfg.Model.APIKey)
}

func TestValidateOK(t *testing.T) {
	cfg := validConfig()
	assert.Empty(t, Validate(&cfg))
}

func TestValidateIssues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
		path   string
	}{
		{"missing bot token", func(c *Config) { c.Slack.BotToken = "" }, "slack.botToken"},
		{"wrong bot token prefix", func(c *Config) { c.Slack.BotToken = "xoxp-user" }, "slack.botToken"},
		{"missing app token", func(c *Config) { c.Slack.AppToken = "" }, "slack.appToken"},
		{"missing api key", func(c *Config) { c.Model.APIKey = "" }, "model.apiKey"},
		{"zero history", func(c *Config) { c.Memory.MaxHistory = 0 }, "memory.maxHistory"},
		{"zero session idle", func(c *Config) { c.Session.IdleMinutes = 0 }, "session.idleMinutes"},
		{"rounds too high", func(c *Config) { c.Agent.MaxToolRounds = 100 }, "agent.maxToolRounds"},
		{"bad log level", func(c *Config) { c.Logging.Level = "loud" }, "logging.level"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			tc.mutate(&cfg)
			issues := Validate(&cfg)
			require.NotEmpty(t, issues)
			found := false
			for _, issue := range issues {
				if issue.Path == tc.path {
					found = true
				}
			}
			assert.True(t, found, "expected an issue at %s, got %v", tc.path, issues)
		})
	}
}

func TestResolvePathsHonorsHomeOverride(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("MAILBOT_HOME", dir)

	p, err := ResolvePaths()
	require.NoError(t, err)
	assert.Equal(t, dir, p.Base)
	assert.Equal(t, filepath.Join(dir, "config.yaml"), p.Config)
	assert.Equal(t, filepath.Join(dir, "data", "mailbot.db"), p.Database)

	require.NoError(t, p.EnsureDirs())
	info, err := os.Stat(p.Data)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}
