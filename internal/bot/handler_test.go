package bot

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/davefmurray/gmail-slack-bot/internal/agent"
	"github.com/davefmurray/gmail-slack-bot/internal/domain"
	"github.com/davefmurray/gmail-slack-bot/internal/llm"
	"github.com/davefmurray/gmail-slack-bot/internal/logging"
	"github.com/davefmurray/gmail-slack-bot/internal/memory"
	"github.com/davefmurray/gmail-slack-bot/internal/session"
	"github.com/davefmurray/gmail-slack-bot/internal/tools"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type postCall struct {
	channel, thread, text string
}

type updateCall struct {
	channel, ts, text string
}

type ephemeralCall struct {
	channel, user, text string
}

type fakePlatform struct {
	posts      []postCall
	updates    []updateCall
	ephemerals []ephemeralCall
	postErr    error
	nextTS     int
}

func (p *fakePlatform) PostMessage(ctx context.Context, channel, thread, text string) (string, error) {
	if p.postErr != nil {
		return "", p.postErr
	}
	p.nextTS++
	p.posts = append(p.posts, postCall{channel, thread, text})
	return fmt.Sprintf("ts-%d", p.nextTS), nil
}

func (p *fakePlatform) UpdateMessage(ctx context.Context, channel, ts, text string) error {
	p.updates = append(p.updates, updateCall{channel, ts, text})
	return nil
}

func (p *fakePlatform) PostEphemeral(ctx context.Context, channel, user, text string) error {
	p.ephemerals = append(p.ephemerals, ephemeralCall{channel, user, text})
	return nil
}

type recordingTranscripts struct {
	turns []domain.Transcript
}

func (r *recordingTranscripts) RecordTurn(ctx context.Context, t domain.Transcript) error {
	r.turns = append(r.turns, t)
	return nil
}

type fixture struct {
	handler     *Handler
	platform    *fakePlatform
	memory      *memory.ConversationStore
	sessions    *session.Registry
	transcripts *recordingTranscripts
	modelCalls  *int
}

func newFixture(t *testing.T, complete func(ctx context.Context, req llm.Request) (*llm.Reply, error)) *fixture {
	t.Helper()
	log := logging.New(nil, "silent")

	calls := 0
	if complete == nil {
		complete = func(ctx context.Context, req llm.Request) (*llm.Reply, error) {
			return &llm.Reply{
				Blocks: []llm.ContentBlock{llm.TextBlock("Here you go.")},
				Texts:  []string{"Here you go."},
			}, nil
		}
	}
	counted := func(ctx context.Context, req llm.Request) (*llm.Reply, error) {
		calls++
		return complete(ctx, req)
	}

	mem := memory.NewConversationStore(memory.DefaultMaxHistory, memory.DefaultIdleTimeout, log)
	sessions := session.NewRegistry(mem, session.DefaultIdleTimeout, log)
	ag := agent.New(
		agent.Config{BotName: "TestBot"},
		&llm.MockClient{ProviderName: "mock", CompleteFunc: counted},
		mem,
		tools.NewDispatcher(nil, log),
		log,
	)

	platform := &fakePlatform{}
	transcripts := &recordingTranscripts{}
	return &fixture{
		handler:     NewHandler(platform, ag, mem, sessions, transcripts, log),
		platform:    platform,
		memory:      mem,
		sessions:    sessions,
		transcripts: transcripts,
		modelCalls:  &calls,
	}
}

func TestStartCommandCreatesSession(t *testing.T) {
	f := newFixture(t, nil)
	f.handler.HandleCommand(context.Background(), domain.InboundMessage{
		Text: "start", UserID: "u1", Channel: "C1",
	})

	require.Len(t, f.platform.posts, 1)
	assert.Equal(t, "", f.platform.posts[0].thread, "anchor is a top-level post")
	assert.Contains(t, f.platform.posts[0].text, "session started")
	assert.True(t, f.sessions.IsActive("C1", "ts-1"), "session keyed on the anchor timestamp")
}

func TestSessionThreadMessageRunsAgent(t *testing.T) {
	f := newFixture(t, nil)
	f.sessions.Create("u1", "C1", "ts-anchor")

	f.handler.HandleMessage(context.Background(), domain.InboundMessage{
		Text: "any unread email?", UserID: "u1", Channel: "C1", ThreadID: "ts-anchor",
	})

	require.Len(t, f.platform.posts, 1, "placeholder posted in thread")
	assert.Equal(t, "ts-anchor", f.platform.posts[0].thread)
	assert.Equal(t, processingPlaceholder, f.platform.posts[0].text)

	require.Len(t, f.platform.updates, 1, "placeholder replaced with the answer")
	assert.Equal(t, "Here you go.", f.platform.updates[0].text)
	assert.Equal(t, 1, *f.modelCalls)
}

func TestThreadMessageWithoutSessionIgnored(t *testing.T) {
	f := newFixture(t, nil)
	f.handler.HandleMessage(context.Background(), domain.InboundMessage{
		Text: "hello?", UserID: "u1", Channel: "C1", ThreadID: "ts-unknown",
	})
	assert.Empty(t, f.platform.posts)
	assert.Zero(t, *f.modelCalls)
}

func TestNonSessionUserRejected(t *testing.T) {
	f := newFixture(t, nil)
	f.sessions.Create("u1", "C1", "ts-anchor")

	f.handler.HandleMessage(context.Background(), domain.InboundMessage{
		Text: "let me in", UserID: "u2", Channel: "C1", ThreadID: "ts-anchor",
	})

	require.Len(t, f.platform.ephemerals, 1)
	assert.Equal(t, "u2", f.platform.ephemerals[0].user)
	assert.Contains(t, f.platform.ephemerals[0].text, "another user")
	assert.Zero(t, *f.modelCalls)
	assert.True(t, f.sessions.IsActive("C1", "ts-anchor"))
}

func TestClearKeepsSession(t *testing.T) {
	f := newFixture(t, nil)
	f.sessions.Create("u1", "C1", "ts-anchor")
	f.memory.AppendTurn("u1", domain.RoleUser, "earlier question")

	for _, word := range []string{"clear", "reset", "Start Over"} {
		f.memory.AppendTurn("u1", domain.RoleUser, "x")
		f.handler.HandleMessage(context.Background(), domain.InboundMessage{
			Text: word, UserID: "u1", Channel: "C1", ThreadID: "ts-anchor",
		})
		assert.Empty(t, f.memory.History("u1"), "word %q clears memory", word)
		assert.True(t, f.sessions.IsActive("C1", "ts-anchor"), "word %q keeps session", word)
	}

	last := f.platform.posts[len(f.platform.posts)-1]
	assert.Equal(t, memoryClearedReply, last.text)
	assert.Zero(t, *f.modelCalls)
}

func TestStopEndsSessionAndClearsMemory(t *testing.T) {
	for _, word := range []string{"stop", "done", "end"} {
		t.Run(word, func(t *testing.T) {
			f := newFixture(t, nil)
			f.sessions.Create("u1", "C1", "ts-anchor")
			f.memory.AppendTurn("u1", domain.RoleUser, "earlier")

			f.handler.HandleMessage(context.Background(), domain.InboundMessage{
				Text: word, UserID: "u1", Channel: "C1", ThreadID: "ts-anchor",
			})

			assert.False(t, f.sessions.IsActive("C1", "ts-anchor"))
			assert.Empty(t, f.memory.History("u1"))
			require.NotEmpty(t, f.platform.posts)
			assert.Equal(t, sessionEndedReply, f.platform.posts[len(f.platform.posts)-1].text)
		})
	}
}

func TestUsageRepliesSkipAgent(t *testing.T) {
	cases := []struct {
		text  string
		usage string
	}{
		{"search", "Usage: `search <query>`"},
		{"read", "Usage: `read <email-id>`"},
		{"ask", "Usage: `ask <question>`"},
	}
	for _, tc := range cases {
		t.Run(tc.text, func(t *testing.T) {
			f := newFixture(t, nil)
			f.handler.HandleCommand(context.Background(), domain.InboundMessage{
				Text: tc.text, UserID: "u1", Channel: "C1",
			})
			require.Len(t, f.platform.ephemerals, 1)
			assert.Contains(t, f.platform.ephemerals[0].text, tc.usage)
			assert.Zero(t, *f.modelCalls, "usage failures never reach the model")
		})
	}
}

func TestSearchCommandRunsAgent(t *testing.T) {
	var prompt string
	f := newFixture(t, func(ctx context.Context, req llm.Request) (*llm.Reply, error) {
		last := req.Messages[len(req.Messages)-1]
		prompt = last.Content[0].Text
		return &llm.Reply{Texts: []string{"Nothing from Amazon."}, Blocks: []llm.ContentBlock{llm.TextBlock("Nothing from Amazon.")}}, nil
	})

	f.handler.HandleCommand(context.Background(), domain.InboundMessage{
		Text: "search from:amazon is:unread", UserID: "u1", Channel: "C1",
	})

	assert.Equal(t, "Search my email for: from:amazon is:unread", prompt)
	require.Len(t, f.platform.updates, 1)
	assert.Equal(t, "Nothing from Amazon.", f.platform.updates[0].text)
}

func TestTurnErrorPresentedToUser(t *testing.T) {
	f := newFixture(t, func(ctx context.Context, req llm.Request) (*llm.Reply, error) {
		return nil, fmt.Errorf("connection refused")
	})
	f.sessions.Create("u1", "C1", "ts-anchor")

	f.handler.HandleMessage(context.Background(), domain.InboundMessage{
		Text: "hi", UserID: "u1", Channel: "C1", ThreadID: "ts-anchor",
	})

	require.Len(t, f.platform.updates, 1)
	assert.True(t, strings.HasPrefix(f.platform.updates[0].text, "❌ Error: "))
	assert.Contains(t, f.platform.updates[0].text, "connection refused")
	assert.Empty(t, f.transcripts.turns, "failed turns are not recorded")
}

func TestTranscriptRecorded(t *testing.T) {
	f := newFixture(t, nil)
	f.sessions.Create("u1", "C1", "ts-anchor")

	f.handler.HandleMessage(context.Background(), domain.InboundMessage{
		Text: "what's new?", UserID: "u1", Channel: "C1", ThreadID: "ts-anchor",
	})

	require.Len(t, f.transcripts.turns, 1)
	tr := f.transcripts.turns[0]
	assert.NotEmpty(t, tr.ID)
	assert.Equal(t, "u1", tr.UserID)
	assert.Equal(t, "C1", tr.Channel)
	assert.Equal(t, "ts-anchor", tr.Thread)
	assert.Equal(t, "what's new?", tr.Prompt)
	assert.Equal(t, "Here you go.", tr.Reply)
}

func TestHelpCommand(t *testing.T) {
	f := newFixture(t, nil)
	for _, text := range []string{"help", ""} {
		f.handler.HandleCommand(context.Background(), domain.InboundMessage{
			Text: text, UserID: "u1", Channel: "C1",
		})
	}
	require.Len(t, f.platform.ephemerals, 2)
	assert.Contains(t, f.platform.ephemerals[0].text, "Mailbot commands")
	assert.Zero(t, *f.modelCalls)
}

func TestSplitCommand(t *testing.T) {
	cases := []struct {
		in, verb, rest string
	}{
		{"search from:bob", "search", "from:bob"},
		{"  READ  abc123 ", "read", "abc123"},
		{"help", "help", ""},
		{"", "", ""},
	}
	for _, tc := range cases {
		verb, rest := splitCommand(tc.in)
		assert.Equal(t, tc.verb, verb, "input %q", tc.in)
		assert.Equal(t, tc.rest, rest, "input %q", tc.in)
	}
}

func TestRecentPrompt(t *testing.T) {
	assert.Equal(t, "Show me my 5 most recent emails.", recentPrompt(""))
	assert.Equal(t, "Show me my 3 most recent emails.", recentPrompt("3"))
	assert.Equal(t, "Show me my 5 most recent emails.", recentPrompt("lots"))
}
