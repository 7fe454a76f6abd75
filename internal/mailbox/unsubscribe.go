package mailbox

import (
	"regexp"
	"strings"

	"google.golang.org/api/gmail/v1"

	"github.com/davefmurray/gmail-slack-bot/internal/domain"
)

// unsubscribeLinkRe matches http(s) URLs that mention unsubscribing.
var unsubscribeLinkRe = regexp.MustCompile(`(?i)https?://[^\s"'<>)\]]*unsubscrib[^\s"'<>)\]]*`)

// listUnsubscribeEntryRe matches the angle-bracketed entries of a
// List-Unsubscribe header: <https://...>, <mailto:...>.
var listUnsubscribeEntryRe = regexp.MustCompile(`<([^>]+)>`)

// unsubscribeInfoFromMessage inspects headers and body for unsubscribe
// mechanisms.
func unsubscribeInfoFromMessage(msg *gmail.Message) *domain.UnsubscribeInfo {
	info := &domain.UnsubscribeInfo{Email: emailFromMetadata(msg)}
	if msg.Payload == nil {
		return info
	}

	for _, h := range msg.Payload.Headers {
		if !strings.EqualFold(h.Name, "List-Unsubscribe") {
			continue
		}
		links, email := parseListUnsubscribe(h.Value)
		info.UnsubscribeLinks = append(info.UnsubscribeLinks, links...)
		if info.UnsubscribeEmail == "" {
			info.UnsubscribeEmail = email
		}
	}

	body := extractBody(msg.Payload)
	for _, link := range unsubscribeLinkRe.FindAllString(body, -1) {
		if !containsString(info.UnsubscribeLinks, link) {
			info.UnsubscribeLinks = append(info.UnsubscribeLinks, link)
		}
	}

	info.HasUnsubscribe = len(info.UnsubscribeLinks) > 0 || info.UnsubscribeEmail != ""
	return info
}

// parseListUnsubscribe splits a List-Unsubscribe header into HTTP links and
// a mailto address.
func parseListUnsubscribe(header string) (links []string, email string) {
	for _, m := range listUnsubscribeEntryRe.FindAllStringSubmatch(header, -1) {
		entry := strings.TrimSpace(m[1])
		switch {
		case strings.HasPrefix(entry, "mailto:"):
			addr := strings.TrimPrefix(entry, "mailto:")
			if i := strings.IndexByte(addr, '?'); i >= 0 {
				addr = addr[:i]
			}
			if email == "" {
				email = addr
			}
		case strings.HasPrefix(entry, "http://") || strings.HasPrefix(entry, "https://"):
			links = append(links, entry)
		}
	}
	return links, email
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
