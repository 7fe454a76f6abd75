package config

import (
	"fmt"
	"slices"
	"strings"
)

// ValidationIssue describes a problem with a config value.
type ValidationIssue struct {
	Path    string
	Message string
}

func (v ValidationIssue) String() string {
	return fmt.Sprintf("%s: %s", v.Path, v.Message)
}

// Validate checks a Config for issues. Returns nil if valid.
func Validate(cfg *Config) []ValidationIssue {
	var issues []ValidationIssue

	if cfg.Slack.BotToken == "" {
		issues = append(issues, ValidationIssue{
			Path:    "slack.botToken",
			Message: "required (set MAILBOT_SLACK_BOT_TOKEN or slack.botToken)",
		})
	} else if !strings.HasPrefix(cfg.Slack.BotToken, "xoxb-") {
		issues = append(issues, ValidationIssue{
			Path:    "slack.botToken",
			Message: "bot tokens start with xoxb-",
		})
	}

	if cfg.Slack.AppToken == "" {
		issues = append(issues, ValidationIssue{
			Path:    "slack.appToken",
			Message: "required for Socket Mode (set MAILBOT_SLACK_APP_TOKEN or slack.appToken)",
		})
	} else if !strings.HasPrefix(cfg.Slack.AppToken, "xapp-") {
		issues = append(issues, ValidationIssue{
			Path:    "slack.appToken",
			Message: "app tokens start with xapp-",
		})
	}

	if cfg.Model.APIKey == "" {
		issues = append(issues, ValidationIssue{
			Path:    "model.apiKey",
			Message: "required (set MAILBOT_API_KEY or model.apiKey)",
		})
	}
	if cfg.Model.MaxTokens < 0 {
		issues = append(issues, ValidationIssue{
			Path:    "model.maxTokens",
			Message: fmt.Sprintf("must be non-negative, got %d", cfg.Model.MaxTokens),
		})
	}
	if t := cfg.Model.Temperature; t != nil && (*t < 0 || *t > 1) {
		issues = append(issues, ValidationIssue{
			Path:    "model.temperature",
			Message: fmt.Sprintf("must be in [0,1], got %v", *t),
		})
	}

	if cfg.Session.IdleMinutes < 1 {
		issues = append(issues, ValidationIssue{
			Path:    "session.idleMinutes",
			Message: fmt.Sprintf("must be at least 1, got %d", cfg.Session.IdleMinutes),
		})
	}
	if cfg.Memory.MaxHistory < 1 {
		issues = append(issues, ValidationIssue{
			Path:    "memory.maxHistory",
			Message: fmt.Sprintf("must be at least 1, got %d", cfg.Memory.MaxHistory),
		})
	}
	if cfg.Memory.IdleMinutes < 1 {
		issues = append(issues, ValidationIssue{
			Path:    "memory.idleMinutes",
			Message: fmt.Sprintf("must be at least 1, got %d", cfg.Memory.IdleMinutes),
		})
	}

	if cfg.Agent.MaxToolRounds < 1 || cfg.Agent.MaxToolRounds > 50 {
		issues = append(issues, ValidationIssue{
			Path:    "agent.maxToolRounds",
			Message: fmt.Sprintf("must be 1-50, got %d", cfg.Agent.MaxToolRounds),
		})
	}

	validLogLevels := []string{"silent", "fatal", "error", "warn", "info", "debug", "trace"}
	if cfg.Logging.Level != "" && !slices.Contains(validLogLevels, cfg.Logging.Level) {
		issues = append(issues, ValidationIssue{
			Path:    "logging.level",
			Message: fmt.Sprintf("must be one of %v, got %q", validLogLevels, cfg.Logging.Level),
		})
	}

	return issues
}
