package bot

import (
	"context"

	"github.com/davefmurray/gmail-slack-bot/internal/domain"
)

// ChatPlatform is the outbound surface of the chat service.
type ChatPlatform interface {
	// PostMessage posts to a channel (threaded when thread is non-empty)
	// and returns the new message's timestamp identifier.
	PostMessage(ctx context.Context, channel, thread, text string) (string, error)

	// UpdateMessage replaces the text of a previously posted message.
	UpdateMessage(ctx context.Context, channel, ts, text string) error

	// PostEphemeral posts a message only the given user can see.
	PostEphemeral(ctx context.Context, channel, userID, text string) error
}

// Transcripts records completed turns. Satisfied by *store.TranscriptStore.
type Transcripts interface {
	RecordTurn(ctx context.Context, t domain.Transcript) error
}
