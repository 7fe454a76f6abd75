package tools

import (
	"fmt"
	"strings"

	"github.com/davefmurray/gmail-slack-bot/internal/domain"
)

const (
	// emptyListSentinel is the fixed rendering of an empty result list.
	emptyListSentinel = "No emails found."

	// bodyLimit is the hard cutoff for rendered email bodies.
	bodyLimit = 500
)

// FormatEmail renders a single email: four labeled lines, then the
// truncated body or, when no body was fetched, a snippet line.
func FormatEmail(e domain.Email) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Subject: %s\n", e.Subject)
	fmt.Fprintf(&b, "From: %s\n", e.From)
	fmt.Fprintf(&b, "Date: %s\n", e.Date)
	fmt.Fprintf(&b, "ID: %s\n", e.ID)
	if e.Body != "" {
		b.WriteString("\n")
		b.WriteString(truncateBody(e.Body))
	} else {
		fmt.Fprintf(&b, "Snippet: %s", e.Snippet)
	}
	return b.String()
}

// FormatList renders a list of emails as numbered blocks separated by blank
// lines, or the fixed empty sentinel.
func FormatList(emails []domain.Email) string {
	if len(emails) == 0 {
		return emptyListSentinel
	}
	blocks := make([]string, 0, len(emails))
	for i, e := range emails {
		blocks = append(blocks, fmt.Sprintf("%d. %s\n   From: %s\n   Date: %s\n   ID: %s",
			i+1, e.Subject, e.From, e.Date, e.ID))
	}
	return strings.Join(blocks, "\n\n")
}

// FormatLabels renders the label list.
func FormatLabels(labels []domain.Label) string {
	if len(labels) == 0 {
		return "No labels found."
	}
	lines := make([]string, 0, len(labels))
	for _, l := range labels {
		lines = append(lines, fmt.Sprintf("- %s (ID: %s, type: %s)", l.Name, l.ID, l.Type))
	}
	return strings.Join(lines, "\n")
}

// FormatUnsubscribeInfo renders one email's unsubscribe mechanisms.
func FormatUnsubscribeInfo(info domain.UnsubscribeInfo) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Subject: %s\n", info.Email.Subject)
	fmt.Fprintf(&b, "From: %s\n", info.Email.From)
	fmt.Fprintf(&b, "ID: %s\n", info.Email.ID)
	if !info.HasUnsubscribe {
		b.WriteString("No unsubscribe mechanism found.")
		return b.String()
	}
	if len(info.UnsubscribeLinks) > 0 {
		fmt.Fprintf(&b, "Unsubscribe links: %s\n", strings.Join(info.UnsubscribeLinks, ", "))
	}
	if info.UnsubscribeEmail != "" {
		fmt.Fprintf(&b, "Unsubscribe email: %s\n", info.UnsubscribeEmail)
	}
	return strings.TrimRight(b.String(), "\n")
}

// FormatMarketingList renders marketing emails as numbered blocks.
func FormatMarketingList(infos []domain.UnsubscribeInfo) string {
	if len(infos) == 0 {
		return emptyListSentinel
	}
	blocks := make([]string, 0, len(infos))
	for i, info := range infos {
		var b strings.Builder
		fmt.Fprintf(&b, "%d. %s\n   From: %s\n   ID: %s",
			i+1, info.Email.Subject, info.Email.From, info.Email.ID)
		if len(info.UnsubscribeLinks) > 0 {
			fmt.Fprintf(&b, "\n   Unsubscribe links: %s", strings.Join(info.UnsubscribeLinks, ", "))
		}
		if info.UnsubscribeEmail != "" {
			fmt.Fprintf(&b, "\n   Unsubscribe email: %s", info.UnsubscribeEmail)
		}
		blocks = append(blocks, b.String())
	}
	return strings.Join(blocks, "\n\n")
}

func truncateBody(body string) string {
	if len(body) <= bodyLimit {
		return body
	}
	return body[:bodyLimit] + "..."
}
