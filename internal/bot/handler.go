// Package bot routes chat traffic between the platform, the session
// registry, and the agent loop. Messages inside an active thread session go
// straight to the agent; everything else arrives as an explicit command.
package bot

import (
	"context"
	"strings"
	"time"

	"github.com/davefmurray/gmail-slack-bot/internal/agent"
	"github.com/davefmurray/gmail-slack-bot/internal/domain"
	"github.com/davefmurray/gmail-slack-bot/internal/logging"
	"github.com/davefmurray/gmail-slack-bot/internal/memory"
	"github.com/davefmurray/gmail-slack-bot/internal/session"
	"github.com/google/uuid"
)

const (
	processingPlaceholder = "⏳ Working on it..."

	sessionGreeting = "📧 Email session started. Reply in this thread to talk to your mailbox. " +
		"Say \"stop\" when you're finished or \"clear\" to start the conversation over."

	sessionEndedReply   = "Session ended. Conversation memory cleared."
	memoryClearedReply  = "Conversation memory cleared. The session is still active."
	notYourSessionReply = "This session belongs to another user. Start your own with `start`."
)

// Handler routes inbound chat traffic.
type Handler struct {
	platform    ChatPlatform
	agent       *agent.Agent
	memory      *memory.ConversationStore
	sessions    *session.Registry
	transcripts Transcripts
	log         *logging.Logger
}

// NewHandler creates a handler. transcripts may be nil to disable audit
// recording.
func NewHandler(
	platform ChatPlatform,
	ag *agent.Agent,
	mem *memory.ConversationStore,
	sessions *session.Registry,
	transcripts Transcripts,
	log *logging.Logger,
) *Handler {
	return &Handler{
		platform:    platform,
		agent:       ag,
		memory:      mem,
		sessions:    sessions,
		transcripts: transcripts,
		log:         log.Component("bot"),
	}
}

// HandleMessage processes a free-text message posted in a channel thread.
// Messages outside an active session thread are ignored; command traffic
// goes through HandleCommand instead.
func (h *Handler) HandleMessage(ctx context.Context, msg domain.InboundMessage) {
	if msg.ThreadID == "" {
		return
	}
	s := h.sessions.Get(msg.Channel, msg.ThreadID)
	if s == nil {
		h.log.Debug().
			Str("channel", msg.Channel).
			Str("thread", msg.ThreadID).
			Msg("message in thread without active session, ignoring")
		return
	}

	if msg.UserID != s.UserID {
		h.log.Warn().
			Str("user", msg.UserID).
			Str("sessionUser", s.UserID).
			Msg("message from non-session user")
		if err := h.platform.PostEphemeral(ctx, msg.Channel, msg.UserID, notYourSessionReply); err != nil {
			h.log.Error().Err(err).Msg("ephemeral post failed")
		}
		return
	}

	switch controlWord(msg.Text) {
	case controlClear:
		h.memory.Clear(s.UserID)
		h.post(ctx, msg.Channel, msg.ThreadID, memoryClearedReply)
		return
	case controlStop:
		h.sessions.End(msg.Channel, msg.ThreadID)
		h.post(ctx, msg.Channel, msg.ThreadID, sessionEndedReply)
		return
	}

	h.runTurn(ctx, s.UserID, msg.Channel, msg.ThreadID, msg.Text)
}

// HandleCommand processes an explicit command (slash command or prefixed
// mention). The command verb is the first word of the text.
func (h *Handler) HandleCommand(ctx context.Context, msg domain.InboundMessage) {
	verb, rest := splitCommand(msg.Text)

	h.log.Info().
		Str("user", msg.UserID).
		Str("channel", msg.Channel).
		Str("command", verb).
		Msg("handling command")

	switch verb {
	case "start":
		h.startSession(ctx, msg)
	case "stop", "done", "end":
		h.stopFromCommand(ctx, msg)
	case "clear", "reset":
		h.memory.Clear(msg.UserID)
		h.ephemeral(ctx, msg, "Conversation memory cleared.")
	case "recent":
		h.runTurn(ctx, msg.UserID, msg.Channel, msg.ThreadID, recentPrompt(rest))
	case "search":
		if rest == "" {
			h.ephemeral(ctx, msg, "Usage: `search <query>` — e.g. `search from:amazon is:unread`")
			return
		}
		h.runTurn(ctx, msg.UserID, msg.Channel, msg.ThreadID, "Search my email for: "+rest)
	case "read":
		if rest == "" {
			h.ephemeral(ctx, msg, "Usage: `read <email-id>` — IDs are shown in list results")
			return
		}
		h.runTurn(ctx, msg.UserID, msg.Channel, msg.ThreadID, "Show me the full email with ID "+rest)
	case "ask":
		if rest == "" {
			h.ephemeral(ctx, msg, "Usage: `ask <question>` — e.g. `ask do I have anything from my bank this week?`")
			return
		}
		h.runTurn(ctx, msg.UserID, msg.Channel, msg.ThreadID, rest)
	case "help", "":
		h.ephemeral(ctx, msg, helpText)
	default:
		// Unrecognized verbs are treated as a question for the agent.
		h.runTurn(ctx, msg.UserID, msg.Channel, msg.ThreadID, msg.Text)
	}
}

// startSession posts the thread anchor message and registers a session keyed
// on its timestamp.
func (h *Handler) startSession(ctx context.Context, msg domain.InboundMessage) {
	ts, err := h.platform.PostMessage(ctx, msg.Channel, "", sessionGreeting)
	if err != nil {
		h.log.Error().Err(err).Str("channel", msg.Channel).Msg("failed to post session anchor")
		h.ephemeral(ctx, msg, "❌ Error: could not start a session, try again.")
		return
	}
	h.sessions.Create(msg.UserID, msg.Channel, ts)
}

func (h *Handler) stopFromCommand(ctx context.Context, msg domain.InboundMessage) {
	if msg.ThreadID == "" {
		h.ephemeral(ctx, msg, "No session here. Say `stop` inside the session thread to end it.")
		return
	}
	if h.sessions.End(msg.Channel, msg.ThreadID) {
		h.post(ctx, msg.Channel, msg.ThreadID, sessionEndedReply)
		return
	}
	h.ephemeral(ctx, msg, "No active session in this thread.")
}

// runTurn posts a placeholder, runs the agent, and replaces the placeholder
// with the final answer. Transport and model errors surface to the user as a
// single error line; the triggering text is logged truncated.
func (h *Handler) runTurn(ctx context.Context, userID, channel, thread, text string) {
	start := time.Now()

	ts, err := h.platform.PostMessage(ctx, channel, thread, processingPlaceholder)
	if err != nil {
		h.log.Error().Err(err).Str("channel", channel).Msg("failed to post placeholder")
		ts = ""
	}

	res, err := h.agent.HandleMessage(ctx, userID, text)
	if err != nil {
		h.log.Error().Err(err).
			Str("user", userID).
			Str("text", logging.Truncate(text, 120)).
			Msg("turn failed")
		h.deliver(ctx, channel, thread, ts, "❌ Error: "+err.Error())
		return
	}

	h.deliver(ctx, channel, thread, ts, res.Response)

	if h.transcripts != nil {
		t := domain.Transcript{
			ID:        uuid.New().String(),
			UserID:    userID,
			Channel:   channel,
			Thread:    thread,
			Prompt:    text,
			Reply:     res.Response,
			Model:     res.Model,
			Duration:  time.Since(start),
			CreatedAt: time.Now(),
		}
		if err := h.transcripts.RecordTurn(ctx, t); err != nil {
			h.log.Error().Err(err).Msg("transcript record failed")
		}
	}
}

// deliver updates the placeholder when one was posted, otherwise posts fresh.
func (h *Handler) deliver(ctx context.Context, channel, thread, ts, text string) {
	var err error
	if ts != "" {
		err = h.platform.UpdateMessage(ctx, channel, ts, text)
	} else {
		_, err = h.platform.PostMessage(ctx, channel, thread, text)
	}
	if err != nil {
		h.log.Error().Err(err).Str("channel", channel).Msg("failed to deliver reply")
	}
}

func (h *Handler) post(ctx context.Context, channel, thread, text string) {
	if _, err := h.platform.PostMessage(ctx, channel, thread, text); err != nil {
		h.log.Error().Err(err).Str("channel", channel).Msg("post failed")
	}
}

func (h *Handler) ephemeral(ctx context.Context, msg domain.InboundMessage, text string) {
	if err := h.platform.PostEphemeral(ctx, msg.Channel, msg.UserID, text); err != nil {
		h.log.Error().Err(err).Str("channel", msg.Channel).Msg("ephemeral post failed")
	}
}

// Control words recognized in session-thread free text.
const (
	controlNone = iota
	controlClear
	controlStop
)

func controlWord(text string) int {
	switch strings.ToLower(strings.TrimSpace(text)) {
	case "clear", "reset", "start over":
		return controlClear
	case "stop", "done", "end":
		return controlStop
	}
	return controlNone
}
