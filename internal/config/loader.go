package config

import (
	"os"
	"regexp"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// envVarPattern matches ${VAR_NAME} patterns in strings.
var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// expandEnvVars replaces ${VAR} patterns with environment variable values.
// Unset variables are left unchanged.
func expandEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		varName := match[2 : len(match)-1]
		if val, ok := os.LookupEnv(varName); ok {
			return val
		}
		return match
	})
}

// expandSensitiveFields processes environment variable references in
// credential fields so tokens and keys can be stored as ${ENV_VAR}.
func expandSensitiveFields(cfg *Config) {
	cfg.Slack.BotToken = expandEnvVars(cfg.Slack.BotToken)
	cfg.Slack.AppToken = expandEnvVars(cfg.Slack.AppToken)
	cfg.Model.APIKey = expandEnvVars(cfg.Model.APIKey)
}

// Load reads the config file, applies environment overrides, and returns a
// merged Config. A missing file produces defaults only.
func Load(path string) (Config, error) {
	cfg := Defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			applyEnvOverrides(&cfg)
			return cfg, nil
		}
		return cfg, err
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, &ConfigError{Message: "failed to parse config: " + err.Error()}
	}

	applyDefaults(&cfg)
	applyEnvOverrides(&cfg)
	expandSensitiveFields(&cfg)
	return cfg, nil
}

// applyDefaults fills zero-value fields with sensible defaults. Needed after
// unmarshal since YAML overwrites whole structs.
func applyDefaults(cfg *Config) {
	if cfg.Slack.BotName == "" {
		cfg.Slack.BotName = "Mailbot"
	}
	if cfg.Model.Model == "" {
		cfg.Model.Model = "claude-sonnet-4-20250514"
	}
	if cfg.Model.MaxTokens == 0 {
		cfg.Model.MaxTokens = 1024
	}
	if cfg.Session.IdleMinutes == 0 {
		cfg.Session.IdleMinutes = 30
	}
	if cfg.Memory.MaxHistory == 0 {
		cfg.Memory.MaxHistory = 20
	}
	if cfg.Memory.IdleMinutes == 0 {
		cfg.Memory.IdleMinutes = 30
	}
	if cfg.Agent.MaxToolRounds == 0 {
		cfg.Agent.MaxToolRounds = 10
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
}

// applyEnvOverrides reads MAILBOT_* environment variables and overrides
// config values. Secrets are usually supplied this way.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("MAILBOT_SLACK_BOT_TOKEN"); v != "" {
		cfg.Slack.BotToken = v
	}
	if v := os.Getenv("MAILBOT_SLACK_APP_TOKEN"); v != "" {
		cfg.Slack.AppToken = v
	}
	if v := os.Getenv("MAILBOT_API_KEY"); v != "" {
		cfg.Model.APIKey = v
	}
	if v := os.Getenv("MAILBOT_MODEL"); v != "" {
		cfg.Model.Model = v
	}
	if v := os.Getenv("MAILBOT_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}
	if v := os.Getenv("MAILBOT_MAX_TOOL_ROUNDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Agent.MaxToolRounds = n
		}
	}
}
