package config

import "fmt"

// ConfigError represents a configuration error.
type ConfigError struct {
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config: %s", e.Message)
}

// Defaults returns a Config with sensible defaults applied.
func Defaults() Config {
	return Config{
		Slack: SlackConfig{
			BotName: "Mailbot",
		},
		Model: ModelConfig{
			Model:     "claude-sonnet-4-20250514",
			MaxTokens: 1024,
		},
		Session: SessionConfig{
			IdleMinutes: 30,
		},
		Memory: MemoryConfig{
			MaxHistory:  20,
			IdleMinutes: 30,
		},
		Agent: AgentConfig{
			MaxToolRounds: 10,
		},
		Store: StoreConfig{
			Enabled: true,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}
