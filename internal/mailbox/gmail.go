package mailbox

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/davefmurray/gmail-slack-bot/internal/domain"
	"github.com/davefmurray/gmail-slack-bot/internal/logging"
)

// marketingQuery is the search used by FindMarketing. Promotions plus
// anything advertising an unsubscribe mechanism.
const marketingQuery = `category:promotions OR "unsubscribe"`

// GmailService implements Service on the Gmail REST API.
type GmailService struct {
	svc *gmail.Service
	log *logging.Logger
}

// NewGmailService builds a GmailService from OAuth credential and token
// files. The token must have been created beforehand via the auth flow.
func NewGmailService(ctx context.Context, credentialsPath, tokenPath string, log *logging.Logger) (*GmailService, error) {
	client, err := oauthHTTPClient(ctx, credentialsPath, tokenPath)
	if err != nil {
		return nil, err
	}
	svc, err := gmail.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("creating gmail service: %w", err)
	}
	return &GmailService{svc: svc, log: log.Component("mailbox")}, nil
}

func (g *GmailService) ListRecent(ctx context.Context, count int) ([]domain.Email, error) {
	return g.list(ctx, "in:inbox", int64(count))
}

func (g *GmailService) Search(ctx context.Context, query string, maxResults int) ([]domain.Email, error) {
	return g.list(ctx, query, int64(maxResults))
}

func (g *GmailService) list(ctx context.Context, query string, max int64) ([]domain.Email, error) {
	call := g.svc.Users.Messages.List("me").MaxResults(max).Context(ctx)
	if query != "" {
		call = call.Q(query)
	}
	r, err := call.Do()
	if err != nil {
		return nil, fmt.Errorf("listing messages: %w", err)
	}

	var emails []domain.Email
	for _, m := range r.Messages {
		detail, err := g.svc.Users.Messages.Get("me", m.Id).
			Format("metadata").
			MetadataHeaders("From", "Subject", "Date").
			Context(ctx).Do()
		if err != nil {
			g.log.Warn().Err(err).Str("id", m.Id).Msg("skipping message detail fetch")
			continue
		}
		e := emailFromMetadata(detail)
		emails = append(emails, e)
	}
	return emails, nil
}

func (g *GmailService) GetByID(ctx context.Context, id string) (*domain.Email, error) {
	msg, err := g.svc.Users.Messages.Get("me", id).Format("full").Context(ctx).Do()
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("getting message %s: %w", id, err)
	}
	e := emailFromMetadata(msg)
	e.Body = extractBody(msg.Payload)
	return &e, nil
}

func (g *GmailService) Send(ctx context.Context, to, subject, body string) (domain.SendResult, error) {
	var raw strings.Builder
	fmt.Fprintf(&raw, "To: %s\r\n", to)
	fmt.Fprintf(&raw, "Subject: %s\r\n", subject)
	raw.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	raw.WriteString("\r\n")
	raw.WriteString(body)

	msg := &gmail.Message{
		Raw: base64.URLEncoding.EncodeToString([]byte(raw.String())),
	}
	if _, err := g.svc.Users.Messages.Send("me", msg).Context(ctx).Do(); err != nil {
		var apiErr *googleapi.Error
		if errors.As(err, &apiErr) && apiErr.Code >= 400 && apiErr.Code < 500 {
			// The backend rejected a well-formed request: domain failure.
			return domain.SendResult{OK: false, Reason: apiErr.Message}, nil
		}
		return domain.SendResult{}, fmt.Errorf("sending message: %w", err)
	}
	return domain.SendResult{OK: true}, nil
}

func (g *GmailService) MarkRead(ctx context.Context, id string) (bool, error) {
	return g.modify(ctx, id, nil, []string{"UNREAD"})
}

func (g *GmailService) Trash(ctx context.Context, id string) (bool, error) {
	if _, err := g.svc.Users.Messages.Trash("me", id).Context(ctx).Do(); err != nil {
		if isNotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("trashing message %s: %w", id, err)
	}
	return true, nil
}

func (g *GmailService) Star(ctx context.Context, id string) (bool, error) {
	return g.modify(ctx, id, []string{"STARRED"}, nil)
}

func (g *GmailService) Unstar(ctx context.Context, id string) (bool, error) {
	return g.modify(ctx, id, nil, []string{"STARRED"})
}

func (g *GmailService) Archive(ctx context.Context, id string) (bool, error) {
	return g.modify(ctx, id, nil, []string{"INBOX"})
}

func (g *GmailService) modify(ctx context.Context, id string, add, remove []string) (bool, error) {
	req := &gmail.ModifyMessageRequest{AddLabelIds: add, RemoveLabelIds: remove}
	if _, err := g.svc.Users.Messages.Modify("me", id, req).Context(ctx).Do(); err != nil {
		if isNotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("modifying message %s: %w", id, err)
	}
	return true, nil
}

func (g *GmailService) BatchModify(ctx context.Context, ids, addLabels, removeLabels []string) (bool, error) {
	req := &gmail.BatchModifyMessagesRequest{
		Ids:            ids,
		AddLabelIds:    addLabels,
		RemoveLabelIds: removeLabels,
	}
	if err := g.svc.Users.Messages.BatchModify("me", req).Context(ctx).Do(); err != nil {
		if isNotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("batch modifying messages: %w", err)
	}
	return true, nil
}

func (g *GmailService) CreateLabel(ctx context.Context, name string) (*domain.Label, error) {
	l, err := g.svc.Users.Labels.Create("me", &gmail.Label{Name: name}).Context(ctx).Do()
	if err != nil {
		var apiErr *googleapi.Error
		if errors.As(err, &apiErr) && apiErr.Code >= 400 && apiErr.Code < 500 {
			return nil, nil
		}
		return nil, fmt.Errorf("creating label %q: %w", name, err)
	}
	return &domain.Label{ID: l.Id, Name: l.Name, Type: l.Type}, nil
}

func (g *GmailService) DeleteLabel(ctx context.Context, id string) (bool, error) {
	if err := g.svc.Users.Labels.Delete("me", id).Context(ctx).Do(); err != nil {
		if isNotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("deleting label %s: %w", id, err)
	}
	return true, nil
}

func (g *GmailService) ListLabels(ctx context.Context) ([]domain.Label, error) {
	r, err := g.svc.Users.Labels.List("me").Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("listing labels: %w", err)
	}
	labels := make([]domain.Label, 0, len(r.Labels))
	for _, l := range r.Labels {
		labels = append(labels, domain.Label{ID: l.Id, Name: l.Name, Type: l.Type})
	}
	return labels, nil
}

func (g *GmailService) FindMarketing(ctx context.Context, maxResults int) ([]domain.UnsubscribeInfo, error) {
	r, err := g.svc.Users.Messages.List("me").
		Q(marketingQuery).
		MaxResults(int64(maxResults)).
		Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("searching marketing messages: %w", err)
	}

	var infos []domain.UnsubscribeInfo
	for _, m := range r.Messages {
		info, err := g.unsubscribeInfo(ctx, m.Id)
		if err != nil {
			g.log.Warn().Err(err).Str("id", m.Id).Msg("skipping marketing message")
			continue
		}
		if info != nil {
			infos = append(infos, *info)
		}
	}
	return infos, nil
}

func (g *GmailService) GetUnsubscribeInfo(ctx context.Context, id string) (*domain.UnsubscribeInfo, error) {
	msg, err := g.svc.Users.Messages.Get("me", id).Format("full").Context(ctx).Do()
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("getting message %s: %w", id, err)
	}
	return unsubscribeInfoFromMessage(msg), nil
}

func (g *GmailService) unsubscribeInfo(ctx context.Context, id string) (*domain.UnsubscribeInfo, error) {
	msg, err := g.svc.Users.Messages.Get("me", id).Format("full").Context(ctx).Do()
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return unsubscribeInfoFromMessage(msg), nil
}

func emailFromMetadata(msg *gmail.Message) domain.Email {
	e := domain.Email{
		ID:      msg.Id,
		Snippet: msg.Snippet,
		Labels:  msg.LabelIds,
	}
	if msg.Payload == nil {
		return e
	}
	for _, h := range msg.Payload.Headers {
		switch h.Name {
		case "Subject":
			e.Subject = h.Value
		case "From":
			e.From = h.Value
		case "Date":
			e.Date = h.Value
		}
	}
	return e
}

// extractBody finds the first text part in the MIME tree.
func extractBody(payload *gmail.MessagePart) string {
	if payload == nil {
		return ""
	}
	if payload.MimeType == "text/plain" || payload.MimeType == "text/html" {
		if payload.Body != nil && payload.Body.Data != "" {
			if data, err := base64.URLEncoding.DecodeString(payload.Body.Data); err == nil {
				return string(data)
			}
		}
	}
	for _, part := range payload.Parts {
		if body := extractBody(part); body != "" {
			return body
		}
	}
	return ""
}

func isNotFound(err error) bool {
	var apiErr *googleapi.Error
	return errors.As(err, &apiErr) && apiErr.Code == 404
}
