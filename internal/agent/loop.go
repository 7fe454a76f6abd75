// Package agent runs the model-driven tool loop: it turns one inbound chat
// message into a final answer, calling mailbox tools as the model requests
// them and keeping conversation memory distilled to user and assistant turns.
package agent

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/davefmurray/gmail-slack-bot/internal/domain"
	"github.com/davefmurray/gmail-slack-bot/internal/llm"
	"github.com/davefmurray/gmail-slack-bot/internal/logging"
	"github.com/davefmurray/gmail-slack-bot/internal/memory"
	"github.com/davefmurray/gmail-slack-bot/internal/tools"
)

// DefaultMaxToolRounds limits how many tool call rounds one message can take.
const DefaultMaxToolRounds = 10

// emptyAnswerFallback stands in for a reply whose final turn carried no text.
const emptyAnswerFallback = "I processed your request but have no response to show."

// maxRoundsFallback is returned when the loop hits the round cap without a
// final answer.
const maxRoundsFallback = "I was unable to complete your request within the allowed number of steps. Please try a simpler request."

// Config configures the agent.
type Config struct {
	BotName       string
	MaxTokens     int
	Temperature   *float64
	MaxToolRounds int
	ExtraPrompt   string
}

// Result is the outcome of processing one message.
type Result struct {
	Response   string
	ToolRounds int
	Usage      llm.Usage
	Model      string
	Duration   time.Duration
}

// Agent is the orchestration loop. It appends the user turn to memory, runs
// the model with the tool catalog, executes requested tools in order, and
// persists only the distilled user and assistant turns.
type Agent struct {
	cfg        Config
	client     llm.Client
	memory     *memory.ConversationStore
	dispatcher *tools.Dispatcher
	log        *logging.Logger
}

// New creates an agent.
func New(cfg Config, client llm.Client, mem *memory.ConversationStore, dispatcher *tools.Dispatcher, log *logging.Logger) *Agent {
	if cfg.MaxToolRounds <= 0 {
		cfg.MaxToolRounds = DefaultMaxToolRounds
	}
	return &Agent{
		cfg:        cfg,
		client:     client,
		memory:     mem,
		dispatcher: dispatcher,
		log:        log.Component("agent"),
	}
}

// HandleMessage processes one user message and returns the final answer.
// Model and transport errors are returned to the caller; tool failures are
// absorbed into the loop as result strings the model can react to.
func (a *Agent) HandleMessage(ctx context.Context, userID, text string) (*Result, error) {
	start := time.Now()

	// The user turn persists regardless of how the loop ends, so a failed
	// request still shows up in the next request's history.
	a.memory.AppendTurn(userID, llm.RoleUser, text)

	system := BuildSystemPrompt(PromptConfig{
		BotName:     a.cfg.BotName,
		ExtraPrompt: a.cfg.ExtraPrompt,
	})
	catalog := tools.Catalog()

	// Working list: distilled history plus the intermediate tool_use and
	// tool_result turns. Only the final answer goes back to memory.
	working := historyMessages(a.memory.History(userID))

	a.log.Info().
		Str("user", userID).
		Int("historyLen", len(working)).
		Msg("processing message")

	var (
		final  string
		usage  llm.Usage
		model  string
		rounds int
		done   bool
	)

	for round := 0; round < a.cfg.MaxToolRounds; round++ {
		req := llm.Request{
			System:      system,
			Messages:    working,
			Tools:       catalog,
			MaxTokens:   a.cfg.MaxTokens,
			Temperature: a.cfg.Temperature,
		}

		reply, err := a.client.Complete(ctx, req)
		if err != nil {
			return nil, fmt.Errorf("model completion: %w", err)
		}

		usage.InputTokens += reply.Usage.InputTokens
		usage.OutputTokens += reply.Usage.OutputTokens
		model = reply.Model

		if len(reply.ToolCalls) == 0 {
			final = strings.Join(reply.Texts, "\n")
			done = true
			break
		}

		rounds++
		a.log.Info().
			Int("round", rounds).
			Int("toolCalls", len(reply.ToolCalls)).
			Msg("executing tool calls")

		working = append(working, llm.Message{Role: llm.RoleAssistant, Content: reply.Blocks})

		// Tools run sequentially in the order the model listed them, and
		// every call gets a result block even when the tool name is bogus.
		results := make([]llm.ContentBlock, 0, len(reply.ToolCalls))
		for _, call := range reply.ToolCalls {
			a.log.Debug().Str("tool", call.Name).Msg("executing tool")
			out := a.dispatcher.Execute(ctx, call.Name, call.Input)
			results = append(results, llm.ToolResultBlock(call.ID, out))
		}
		working = append(working, llm.Message{Role: llm.RoleUser, Content: results})
	}

	if !done {
		a.log.Warn().
			Str("user", userID).
			Int("rounds", rounds).
			Msg("tool round cap reached without a final answer")
		final = maxRoundsFallback
	}
	if final == "" {
		final = emptyAnswerFallback
	}

	a.memory.AppendTurn(userID, llm.RoleAssistant, final)

	a.log.Info().
		Str("user", userID).
		Str("model", model).
		Int("toolRounds", rounds).
		Int("inputTokens", usage.InputTokens).
		Int("outputTokens", usage.OutputTokens).
		Dur("duration", time.Since(start)).
		Msg("response generated")

	return &Result{
		Response:   final,
		ToolRounds: rounds,
		Usage:      usage,
		Model:      model,
		Duration:   time.Since(start),
	}, nil
}

// historyMessages converts persisted turns into model messages.
func historyMessages(turns []domain.Turn) []llm.Message {
	msgs := make([]llm.Message, 0, len(turns))
	for _, t := range turns {
		msgs = append(msgs, llm.TextMessage(t.Role, t.Content))
	}
	return msgs
}
