package bot

import (
	"fmt"
	"strconv"
	"strings"
)

const helpText = "*Mailbot commands*\n" +
	"• `start` — open a session thread; replies there need no command prefix\n" +
	"• `stop` / `done` / `end` — end the session and clear memory (inside the thread)\n" +
	"• `clear` / `reset` — wipe conversation memory, keep the session\n" +
	"• `recent [count]` — list your most recent emails\n" +
	"• `search <query>` — Gmail query syntax, e.g. `from:github is:unread`\n" +
	"• `read <email-id>` — show a full email\n" +
	"• `ask <question>` — anything else, in plain language\n" +
	"• `help` — this message"

// splitCommand separates the command verb from its argument text.
func splitCommand(text string) (verb, rest string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", ""
	}
	parts := strings.SplitN(text, " ", 2)
	verb = strings.ToLower(parts[0])
	if len(parts) == 2 {
		rest = strings.TrimSpace(parts[1])
	}
	return verb, rest
}

// recentPrompt turns an optional count argument into an agent prompt. A
// malformed count falls back to the default rather than failing the command.
func recentPrompt(arg string) string {
	n := 5
	if arg != "" {
		if v, err := strconv.Atoi(strings.Fields(arg)[0]); err == nil {
			n = v
		}
	}
	return fmt.Sprintf("Show me my %d most recent emails.", n)
}
