package slack

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/davefmurray/gmail-slack-bot/internal/domain"
	"github.com/davefmurray/gmail-slack-bot/internal/logging"
	"github.com/gorilla/websocket"
)

// reconnectDelay is the pause before redialing after a dropped connection.
const reconnectDelay = 3 * time.Second

// Handlers receives inbound traffic from the Socket Mode connection. Both
// callbacks run on the read goroutine; hand off long work.
type Handlers struct {
	OnMessage func(msg domain.InboundMessage)
	OnCommand func(msg domain.InboundMessage)
}

// SocketMode maintains a Slack Socket Mode connection: it opens a WebSocket
// URL with the app token, acks every envelope, and dispatches events.
type SocketMode struct {
	appToken string
	baseURL  string
	client   *http.Client
	dialer   *websocket.Dialer
	handlers Handlers
	log      *logging.Logger
}

// NewSocketMode creates a Socket Mode listener.
func NewSocketMode(appToken string, handlers Handlers, log *logging.Logger) *SocketMode {
	return &SocketMode{
		appToken: appToken,
		baseURL:  defaultBaseURL,
		client:   &http.Client{Timeout: 30 * time.Second},
		dialer:   websocket.DefaultDialer,
		handlers: handlers,
		log:      log.Component("socketmode"),
	}
}

// Run connects and processes envelopes until the context is canceled,
// redialing after disconnects.
func (s *SocketMode) Run(ctx context.Context) error {
	for {
		if err := s.runOnce(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			s.log.Warn().Err(err).Msg("socket mode connection lost, reconnecting")
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(reconnectDelay):
		}
	}
}

func (s *SocketMode) runOnce(ctx context.Context) error {
	wsURL, err := s.openConnection(ctx)
	if err != nil {
		return err
	}

	conn, _, err := s.dialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return fmt.Errorf("dial socket mode: %w", err)
	}
	defer conn.Close()

	// Unblock ReadMessage when the context is canceled.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	s.log.Info().Msg("socket mode connected")

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("read envelope: %w", err)
		}

		var env envelope
		if err := json.Unmarshal(raw, &env); err != nil {
			s.log.Warn().Err(err).Msg("malformed envelope")
			continue
		}

		if env.EnvelopeID != "" {
			if err := conn.WriteJSON(ack{EnvelopeID: env.EnvelopeID}); err != nil {
				return fmt.Errorf("ack envelope: %w", err)
			}
		}

		switch env.Type {
		case "hello":
		case "disconnect":
			s.log.Info().Msg("server requested disconnect")
			return nil
		case "events_api":
			s.handleEvent(env.Payload)
		case "slash_commands":
			s.handleCommand(env.Payload)
		default:
			s.log.Debug().Str("type", env.Type).Msg("ignoring envelope")
		}
	}
}

// openConnection asks the Web API for a fresh WebSocket URL.
func (s *SocketMode) openConnection(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, "POST", s.baseURL+"/apps.connections.open", nil)
	if err != nil {
		return "", fmt.Errorf("create connections.open request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.appToken)

	httpResp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("connections.open: %w", err)
	}
	defer httpResp.Body.Close()

	raw, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return "", fmt.Errorf("read connections.open response: %w", err)
	}

	var resp struct {
		OK    bool   `json:"ok"`
		Error string `json:"error,omitempty"`
		URL   string `json:"url,omitempty"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return "", fmt.Errorf("parse connections.open response: %w", err)
	}
	if !resp.OK {
		return "", fmt.Errorf("connections.open: %s", resp.Error)
	}
	return resp.URL, nil
}

// envelope is the Socket Mode wire frame.
type envelope struct {
	EnvelopeID string          `json:"envelope_id"`
	Type       string          `json:"type"`
	Payload    json.RawMessage `json:"payload"`
}

type ack struct {
	EnvelopeID string `json:"envelope_id"`
}

// eventPayload is the events_api payload subset the bot cares about.
type eventPayload struct {
	Event struct {
		Type     string `json:"type"`
		Subtype  string `json:"subtype"`
		User     string `json:"user"`
		BotID    string `json:"bot_id"`
		Text     string `json:"text"`
		Channel  string `json:"channel"`
		ThreadTS string `json:"thread_ts"`
	} `json:"event"`
}

// commandPayload is the slash_commands payload subset the bot cares about.
type commandPayload struct {
	Command   string `json:"command"`
	Text      string `json:"text"`
	UserID    string `json:"user_id"`
	ChannelID string `json:"channel_id"`
	ThreadTS  string `json:"thread_ts"`
}

func (s *SocketMode) handleEvent(payload json.RawMessage) {
	var p eventPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		s.log.Warn().Err(err).Msg("malformed events_api payload")
		return
	}

	ev := p.Event
	// Only plain user messages; edits, joins, and the bot's own posts are
	// not conversation turns.
	if ev.Type != "message" || ev.Subtype != "" || ev.BotID != "" || ev.User == "" {
		return
	}
	if s.handlers.OnMessage == nil {
		return
	}

	s.handlers.OnMessage(domain.InboundMessage{
		Text:     strings.TrimSpace(ev.Text),
		UserID:   ev.User,
		Channel:  ev.Channel,
		ThreadID: ev.ThreadTS,
	})
}

func (s *SocketMode) handleCommand(payload json.RawMessage) {
	var p commandPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		s.log.Warn().Err(err).Msg("malformed slash_commands payload")
		return
	}
	if s.handlers.OnCommand == nil {
		return
	}

	s.handlers.OnCommand(domain.InboundMessage{
		Text:     strings.TrimSpace(p.Text),
		UserID:   p.UserID,
		Channel:  p.ChannelID,
		ThreadID: p.ThreadTS,
	})
}
