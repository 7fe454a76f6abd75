// Package slack implements the chat platform on the Slack Web API, with a
// Socket Mode listener for inbound events so no public HTTP endpoint is
// needed.
package slack

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/davefmurray/gmail-slack-bot/internal/logging"
)

const defaultBaseURL = "https://slack.com/api"

// Client is a minimal Slack Web API client covering the calls the bot makes.
type Client struct {
	botToken string
	baseURL  string
	client   *http.Client
	log      *logging.Logger
}

// NewClient creates a Web API client authenticated with a bot token.
func NewClient(botToken string, log *logging.Logger) *Client {
	return &Client{
		botToken: botToken,
		baseURL:  defaultBaseURL,
		client:   &http.Client{Timeout: 30 * time.Second},
		log:      log.Component("slack"),
	}
}

// apiResponse is the envelope every Web API method returns.
type apiResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
	TS    string `json:"ts,omitempty"`
}

// PostMessage posts text to a channel, threaded when thread is non-empty,
// and returns the new message's ts.
func (c *Client) PostMessage(ctx context.Context, channel, thread, text string) (string, error) {
	body := map[string]string{
		"channel": channel,
		"text":    text,
	}
	if thread != "" {
		body["thread_ts"] = thread
	}
	resp, err := c.call(ctx, "chat.postMessage", body)
	if err != nil {
		return "", err
	}
	return resp.TS, nil
}

// UpdateMessage replaces the text of an existing message.
func (c *Client) UpdateMessage(ctx context.Context, channel, ts, text string) error {
	_, err := c.call(ctx, "chat.update", map[string]string{
		"channel": channel,
		"ts":      ts,
		"text":    text,
	})
	return err
}

// PostEphemeral posts a message visible only to the given user.
func (c *Client) PostEphemeral(ctx context.Context, channel, userID, text string) error {
	_, err := c.call(ctx, "chat.postEphemeral", map[string]string{
		"channel": channel,
		"user":    userID,
		"text":    text,
	})
	return err
}

// call POSTs a JSON body to a Web API method and decodes the envelope. A
// transport failure or an ok=false envelope both surface as errors.
func (c *Client) call(ctx context.Context, method string, body any) (*apiResponse, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal %s request: %w", method, err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/"+method, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create %s request: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	req.Header.Set("Authorization", "Bearer "+c.botToken)

	httpResp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("slack %s: %w", method, err)
	}
	defer httpResp.Body.Close()

	raw, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s response: %w", method, err)
	}
	if httpResp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("slack %s: status %d", method, httpResp.StatusCode)
	}

	var resp apiResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("parse %s response: %w", method, err)
	}
	if !resp.OK {
		return nil, fmt.Errorf("slack %s: %s", method, resp.Error)
	}

	c.log.Debug().Str("method", method).Msg("api call ok")
	return &resp, nil
}
