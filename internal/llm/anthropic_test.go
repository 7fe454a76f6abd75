package llm

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAnthropic(t *testing.T, handler http.HandlerFunc) *AnthropicClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c := NewAnthropicClient("test-key", "test-model")
	c.endpoint = srv.URL
	return c
}

func TestAnthropicCompleteText(t *testing.T) {
	var gotBody map[string]any
	c := newTestAnthropic(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.Header.Get("x-api-key"))
		assert.Equal(t, anthropicVersion, r.Header.Get("anthropic-version"))

		raw, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(raw, &gotBody))

		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{
			"id": "msg_1",
			"role": "assistant",
			"content": [{"type": "text", "text": "hello there"}],
			"model": "test-model",
			"stop_reason": "end_turn",
			"usage": {"input_tokens": 12, "output_tokens": 4}
		}`)
	})

	reply, err := c.Complete(context.Background(), Request{
		System:   "be brief",
		Messages: []Message{TextMessage(RoleUser, "hi")},
		Tools: []ToolDefinition{{
			Name:        "search_emails",
			Description: "search",
			InputSchema: json.RawMessage(`{"type":"object"}`),
		}},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"hello there"}, reply.Texts)
	assert.Empty(t, reply.ToolCalls)
	assert.Equal(t, "end_turn", reply.StopReason)
	assert.Equal(t, 12, reply.Usage.InputTokens)

	assert.Equal(t, "test-model", gotBody["model"])
	assert.Equal(t, "be brief", gotBody["system"])
	assert.EqualValues(t, defaultMaxTokens, gotBody["max_tokens"])
	tools, ok := gotBody["tools"].([]any)
	require.True(t, ok)
	require.Len(t, tools, 1)
	tool := tools[0].(map[string]any)
	assert.Equal(t, "search_emails", tool["name"])
	assert.NotNil(t, tool["input_schema"])
}

func TestAnthropicCompleteToolUse(t *testing.T) {
	c := newTestAnthropic(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{
			"id": "msg_2",
			"role": "assistant",
			"content": [
				{"type": "text", "text": "Let me look."},
				{"type": "tool_use", "id": "tu_1", "name": "search_emails",
				 "input": {"query": "is:unread", "max_results": 5}}
			],
			"model": "test-model",
			"stop_reason": "tool_use",
			"usage": {"input_tokens": 30, "output_tokens": 15}
		}`)
	})

	reply, err := c.Complete(context.Background(), Request{
		Messages: []Message{TextMessage(RoleUser, "any unread mail?")},
	})
	require.NoError(t, err)

	require.Len(t, reply.ToolCalls, 1)
	assert.Equal(t, "tu_1", reply.ToolCalls[0].ID)
	assert.Equal(t, "search_emails", reply.ToolCalls[0].Name)
	assert.JSONEq(t, `{"query":"is:unread","max_results":5}`, string(reply.ToolCalls[0].Input))

	// Blocks are replayable as the assistant turn.
	require.Len(t, reply.Blocks, 2)
	assert.Equal(t, BlockText, reply.Blocks[0].Type)
	assert.Equal(t, BlockToolUse, reply.Blocks[1].Type)
}

func TestAnthropicAPIError(t *testing.T) {
	c := newTestAnthropic(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		io.WriteString(w, `{"error": {"type": "rate_limit_error"}}`)
	})

	_, err := c.Complete(context.Background(), Request{
		Messages: []Message{TextMessage(RoleUser, "hi")},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "API error (429)")
}

func TestToolResultBlockShape(t *testing.T) {
	b := ToolResultBlock("tu_9", "No emails found.")
	raw, err := json.Marshal(b)
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"tool_result","tool_use_id":"tu_9","content":"No emails found."}`, string(raw))
}
