package agent

import (
	"fmt"
	"strings"
	"time"
)

// PromptConfig controls system prompt generation.
type PromptConfig struct {
	BotName     string
	UserName    string
	ExtraPrompt string
}

// BuildSystemPrompt constructs the system prompt for the model. The date is
// computed at call time so relative queries ("emails from yesterday") resolve
// against the right day.
func BuildSystemPrompt(cfg PromptConfig) string {
	var b strings.Builder

	name := cfg.BotName
	if name == "" {
		name = "Mailbot"
	}
	fmt.Fprintf(&b, "You are %s, an email assistant with direct access to the user's Gmail mailbox.\n", name)
	fmt.Fprintf(&b, "Current date: %s\n", time.Now().Format("2006-01-02"))
	if cfg.UserName != "" {
		fmt.Fprintf(&b, "User: %s\n", cfg.UserName)
	}
	b.WriteString("\n")

	b.WriteString("You can read, search, send, and organize email using the provided tools.\n")
	b.WriteString("Capabilities include: listing recent messages, searching with Gmail query\n")
	b.WriteString("operators, reading full messages, sending mail, marking read, starring,\n")
	b.WriteString("archiving, trashing, managing labels, and finding marketing email with\n")
	b.WriteString("its unsubscribe mechanisms.\n\n")

	b.WriteString("Guidelines:\n")
	b.WriteString("- Use the tools to answer; never invent email contents.\n")
	b.WriteString("- When a request is ambiguous, pick the most likely reading and say what you did.\n")
	b.WriteString("- Confirm destructive actions (trash, batch modify) in your reply.\n")
	b.WriteString("- Keep responses short; this is a chat channel, not a report.\n")

	if cfg.ExtraPrompt != "" {
		b.WriteString("\n")
		b.WriteString(cfg.ExtraPrompt)
		b.WriteString("\n")
	}

	return b.String()
}
