// Package tools exposes the mailbox capability set to the language model as
// a declarative tool catalog, and dispatches the model's tool invocations
// against the mailbox service.
package tools

import (
	"encoding/json"

	"github.com/davefmurray/gmail-slack-bot/internal/llm"
)

// queryGuidance documents the Gmail search operator grammar in tool
// descriptions. The dispatcher never interprets queries; the model is
// responsible for producing valid ones.
const queryGuidance = "Supports Gmail search operators: from:/to: for sender and recipient, " +
	"is:unread/is:read/is:starred/is:important for status, has:attachment and " +
	"filename: for attachments, larger:/smaller: for size (e.g. larger:5M), " +
	"in:inbox/in:spam/in:trash and category:primary/social/promotions for " +
	"folders, after:/before: (YYYY/MM/DD) and older_than:/newer_than: " +
	"(e.g. 7d, 2m) for dates, OR and - for boolean combinations."

func schema(s string) json.RawMessage { return json.RawMessage(s) }

// Catalog returns the full tool catalog. It is built once at startup and
// treated as read-only afterwards.
func Catalog() []llm.ToolDefinition {
	return []llm.ToolDefinition{
		{
			Name: "list_recent_emails",
			Description: "List the most recent emails in the inbox. " +
				"Returns subject, sender, date and ID for each.",
			InputSchema: schema(`{
				"type": "object",
				"properties": {
					"count": {"type": "integer", "description": "How many emails to return (1-10, default 5)"}
				}
			}`),
		},
		{
			Name: "search_emails",
			Description: "Search emails with a Gmail query string. " + queryGuidance +
				" Returns subject, sender, date and ID for each match.",
			InputSchema: schema(`{
				"type": "object",
				"properties": {
					"query": {"type": "string", "description": "Gmail search query, e.g. 'is:unread from:boss@example.com'"},
					"max_results": {"type": "integer", "description": "Maximum matches to return (1-10, default 5)"}
				},
				"required": ["query"]
			}`),
		},
		{
			Name:        "get_email",
			Description: "Read the full content of one email by its ID.",
			InputSchema: schema(`{
				"type": "object",
				"properties": {
					"id": {"type": "string", "description": "The email ID"}
				},
				"required": ["id"]
			}`),
		},
		{
			Name:        "send_email",
			Description: "Send a plain-text email.",
			InputSchema: schema(`{
				"type": "object",
				"properties": {
					"to": {"type": "string", "description": "Recipient email address"},
					"subject": {"type": "string", "description": "Subject line"},
					"body": {"type": "string", "description": "Message body"}
				},
				"required": ["to", "subject", "body"]
			}`),
		},
		{
			Name:        "mark_read",
			Description: "Mark an email as read.",
			InputSchema: idSchema(),
		},
		{
			Name:        "trash_email",
			Description: "Move an email to the trash.",
			InputSchema: idSchema(),
		},
		{
			Name:        "star_email",
			Description: "Star an email.",
			InputSchema: idSchema(),
		},
		{
			Name:        "unstar_email",
			Description: "Remove the star from an email.",
			InputSchema: idSchema(),
		},
		{
			Name:        "archive_email",
			Description: "Archive an email (remove it from the inbox).",
			InputSchema: idSchema(),
		},
		{
			Name: "batch_modify_emails",
			Description: "Add and/or remove labels on several emails at once. " +
				"Label IDs come from list_labels; system labels like UNREAD, " +
				"STARRED and INBOX also work.",
			InputSchema: schema(`{
				"type": "object",
				"properties": {
					"ids": {"type": "array", "items": {"type": "string"}, "description": "Email IDs to modify"},
					"add_labels": {"type": "array", "items": {"type": "string"}, "description": "Label IDs to add"},
					"remove_labels": {"type": "array", "items": {"type": "string"}, "description": "Label IDs to remove"}
				},
				"required": ["ids"]
			}`),
		},
		{
			Name:        "create_label",
			Description: "Create a new label.",
			InputSchema: schema(`{
				"type": "object",
				"properties": {
					"name": {"type": "string", "description": "Label name"}
				},
				"required": ["name"]
			}`),
		},
		{
			Name:        "delete_label",
			Description: "Delete a label by its ID.",
			InputSchema: idSchema(),
		},
		{
			Name:        "list_labels",
			Description: "List all labels with their IDs.",
			InputSchema: schema(`{"type": "object", "properties": {}}`),
		},
		{
			Name: "find_marketing_emails",
			Description: "Find marketing and newsletter emails, including any " +
				"unsubscribe links or addresses they advertise.",
			InputSchema: schema(`{
				"type": "object",
				"properties": {
					"max_results": {"type": "integer", "description": "Maximum emails to inspect (1-10, default 5)"}
				}
			}`),
		},
		{
			Name:        "get_unsubscribe_info",
			Description: "Inspect one email for unsubscribe links or addresses.",
			InputSchema: idSchema(),
		},
	}
}

func idSchema() json.RawMessage {
	return schema(`{
		"type": "object",
		"properties": {
			"id": {"type": "string", "description": "The email ID"}
		},
		"required": ["id"]
	}`)
}
