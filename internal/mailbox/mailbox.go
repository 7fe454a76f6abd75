// Package mailbox defines the remote mailbox capability set and its Gmail
// implementation.
//
// Domain failures (a message that does not exist, a rejected send) are
// reported as values — a nil item or a SendResult with OK=false — while
// transport failures are returned as errors. Search queries are opaque
// strings passed through to the backend untouched.
package mailbox

import (
	"context"

	"github.com/davefmurray/gmail-slack-bot/internal/domain"
)

// Service is the mailbox capability set consumed by the tool dispatcher.
type Service interface {
	// ListRecent returns the newest count inbox messages.
	ListRecent(ctx context.Context, count int) ([]domain.Email, error)

	// Search returns up to maxResults messages matching the query.
	Search(ctx context.Context, query string, maxResults int) ([]domain.Email, error)

	// GetByID returns the full message, or nil if it does not exist.
	GetByID(ctx context.Context, id string) (*domain.Email, error)

	// Send sends a plain-text message.
	Send(ctx context.Context, to, subject, body string) (domain.SendResult, error)

	// MarkRead clears the unread flag.
	MarkRead(ctx context.Context, id string) (bool, error)

	// Trash moves the message to the trash.
	Trash(ctx context.Context, id string) (bool, error)

	// Star and Unstar toggle the starred flag.
	Star(ctx context.Context, id string) (bool, error)
	Unstar(ctx context.Context, id string) (bool, error)

	// Archive removes the message from the inbox.
	Archive(ctx context.Context, id string) (bool, error)

	// BatchModify adds and removes labels across several messages at once.
	BatchModify(ctx context.Context, ids, addLabels, removeLabels []string) (bool, error)

	// CreateLabel creates a user label, or returns nil if the backend
	// rejected the name.
	CreateLabel(ctx context.Context, name string) (*domain.Label, error)

	// DeleteLabel removes a user label by ID.
	DeleteLabel(ctx context.Context, id string) (bool, error)

	// ListLabels returns all labels.
	ListLabels(ctx context.Context) ([]domain.Label, error)

	// FindMarketing returns likely marketing/newsletter messages together
	// with any unsubscribe mechanisms they advertise.
	FindMarketing(ctx context.Context, maxResults int) ([]domain.UnsubscribeInfo, error)

	// GetUnsubscribeInfo inspects one message for unsubscribe mechanisms,
	// or returns nil if the message does not exist.
	GetUnsubscribeInfo(ctx context.Context, id string) (*domain.UnsubscribeInfo, error)
}
