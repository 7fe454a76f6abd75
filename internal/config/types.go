// Package config loads and validates the bot's YAML configuration.
package config

// Config is the root configuration for Mailbot.
type Config struct {
	Slack   SlackConfig   `yaml:"slack,omitempty"`
	Gmail   GmailConfig   `yaml:"gmail,omitempty"`
	Model   ModelConfig   `yaml:"model,omitempty"`
	Session SessionConfig `yaml:"session,omitempty"`
	Memory  MemoryConfig  `yaml:"memory,omitempty"`
	Agent   AgentConfig   `yaml:"agent,omitempty"`
	Store   StoreConfig   `yaml:"store,omitempty"`
	Logging LoggingConfig `yaml:"logging,omitempty"`
}

// SlackConfig holds the Slack app credentials.
type SlackConfig struct {
	BotToken string `yaml:"botToken,omitempty"` // xoxb-…, Web API calls
	AppToken string `yaml:"appToken,omitempty"` // xapp-…, Socket Mode
	BotName  string `yaml:"botName,omitempty"`
}

// GmailConfig points at the OAuth client credentials and stored token.
type GmailConfig struct {
	CredentialsPath string `yaml:"credentialsPath,omitempty"`
	TokenPath       string `yaml:"tokenPath,omitempty"`
}

// ModelConfig selects and authenticates the language model.
type ModelConfig struct {
	APIKey      string   `yaml:"apiKey,omitempty"`
	Model       string   `yaml:"model,omitempty"`
	MaxTokens   int      `yaml:"maxTokens,omitempty"`
	Temperature *float64 `yaml:"temperature,omitempty"`
}

// SessionConfig controls thread-session lifetime.
type SessionConfig struct {
	IdleMinutes int `yaml:"idleMinutes,omitempty"`
}

// MemoryConfig controls conversation memory.
type MemoryConfig struct {
	MaxHistory  int `yaml:"maxHistory,omitempty"`
	IdleMinutes int `yaml:"idleMinutes,omitempty"`
}

// AgentConfig controls the tool loop.
type AgentConfig struct {
	MaxToolRounds int    `yaml:"maxToolRounds,omitempty"`
	ExtraPrompt   string `yaml:"extraPrompt,omitempty"`
}

// StoreConfig controls the transcript database.
type StoreConfig struct {
	Enabled bool   `yaml:"enabled,omitempty"`
	Path    string `yaml:"path,omitempty"`
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	Level string `yaml:"level,omitempty"`
}
